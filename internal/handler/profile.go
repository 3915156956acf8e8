package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"eclipse/internal/httputil"
	"eclipse/internal/model"
	"eclipse/internal/transport/http/middleware"
)

// VideoLister reads the catalog snapshot.
type VideoLister interface {
	ListVideos() []model.Video
}

// ProfileHandler serves the signed-in user's own data: profile fields,
// history, subscriptions and playlists. Every route sits behind
// middleware.RequireProfile.
type ProfileHandler struct {
	profiles Profiles
	videos   VideoLister
}

func NewProfileHandler(profiles Profiles, videos VideoLister) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, videos: videos}
}

type updateProfileRequest struct {
	Name        *string `json:"name"`
	Handle      *string `json:"handle"`
	Avatar      *string `json:"avatar"`
	Banner      *string `json:"banner"`
	Description *string `json:"description"`
}

type videoIDRequest struct {
	VideoID string `json:"video_id"`
}

type createPlaylistRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type subscriptionsResponse struct {
	Channels []string      `json:"channels"`
	Videos   []model.Video `json:"videos"`
}

type playlistResponse struct {
	Playlist model.Playlist `json:"playlist"`
	Videos   []model.Video  `json:"videos"`
}

// Update handles PATCH /me
// Only the fields present in the body are written.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	patch := model.ProfilePatch{
		Name:        req.Name,
		Handle:      req.Handle,
		Avatar:      req.Avatar,
		Banner:      req.Banner,
		Description: req.Description,
	}
	if patch.IsEmpty() {
		writeServiceError(w, "UpdateProfile", model.ErrEmptyPatch, "Failed to update profile")
		return
	}
	if err := h.profiles.UpdateProfile(r.Context(), patch); err != nil {
		writeServiceError(w, "UpdateProfile", err, "Failed to update profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.profiles.Current())
}

// History handles GET /me/history
func (h *ProfileHandler) History(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.GetProfileFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, model.HistoryVideos(me.History, h.videos.ListVideos()))
}

// AddHistory handles POST /me/history
func (h *ProfileHandler) AddHistory(w http.ResponseWriter, r *http.Request) {
	var req videoIDRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.VideoID) == "" {
		httputil.WriteBadRequest(w, "video_id is required")
		return
	}

	if err := h.profiles.AddToHistory(r.Context(), req.VideoID); err != nil {
		writeServiceError(w, "AddToHistory", err, "Failed to update history")
		return
	}
	httputil.WriteNoContent(w)
}

// ClearHistory handles DELETE /me/history
func (h *ProfileHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.ClearHistory(r.Context()); err != nil {
		writeServiceError(w, "ClearHistory", err, "Failed to clear history")
		return
	}
	httputil.WriteNoContent(w)
}

// Subscriptions handles GET /me/subscriptions
func (h *ProfileHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.GetProfileFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, subscriptionsResponse{
		Channels: me.Subscriptions,
		Videos:   model.SubscriptionVideos(me.Subscriptions, h.videos.ListVideos()),
	})
}

// Playlists handles GET /me/playlists
func (h *ProfileHandler) Playlists(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.GetProfileFromContext(r.Context())
	playlists := me.Playlists
	if playlists == nil {
		playlists = []model.Playlist{}
	}
	httputil.WriteJSON(w, http.StatusOK, playlists)
}

// CreatePlaylist handles POST /me/playlists
func (h *ProfileHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		httputil.WriteBadRequest(w, "Title is required")
		return
	}

	id, err := h.profiles.CreatePlaylist(r.Context(), req.Title, req.Description)
	if err != nil {
		writeServiceError(w, "CreatePlaylist", err, "Failed to create playlist")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Playlist handles GET /me/playlists/{id}
func (h *ProfileHandler) Playlist(w http.ResponseWriter, r *http.Request) {
	pl, ok := h.playlist(r)
	if !ok {
		httputil.WriteNotFound(w, "Playlist not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, playlistResponse{
		Playlist: pl,
		Videos:   model.PlaylistVideos(pl, h.videos.ListVideos()),
	})
}

// Next handles GET /me/playlists/{id}/next?current={videoID}
// An empty id means the current video is the last one.
func (h *ProfileHandler) Next(w http.ResponseWriter, r *http.Request) {
	pl, ok := h.playlist(r)
	if !ok {
		httputil.WriteNotFound(w, "Playlist not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"next": model.NextInPlaylist(pl, r.URL.Query().Get("current")),
	})
}

// DeletePlaylist handles DELETE /me/playlists/{id}
func (h *ProfileHandler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.DeletePlaylist(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "DeletePlaylist", err, "Failed to delete playlist")
		return
	}
	httputil.WriteNoContent(w)
}

// AddToPlaylist handles POST /me/playlists/{id}/videos
func (h *ProfileHandler) AddToPlaylist(w http.ResponseWriter, r *http.Request) {
	var req videoIDRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.VideoID) == "" {
		httputil.WriteBadRequest(w, "video_id is required")
		return
	}

	if err := h.profiles.AddToPlaylist(r.Context(), chi.URLParam(r, "id"), req.VideoID); err != nil {
		writeServiceError(w, "AddToPlaylist", err, "Failed to update playlist")
		return
	}
	httputil.WriteNoContent(w)
}

// RemoveFromPlaylist handles DELETE /me/playlists/{id}/videos/{videoID}
func (h *ProfileHandler) RemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	err := h.profiles.RemoveFromPlaylist(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "videoID"))
	if err != nil {
		writeServiceError(w, "RemoveFromPlaylist", err, "Failed to update playlist")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *ProfileHandler) playlist(r *http.Request) (model.Playlist, bool) {
	me, ok := middleware.GetProfileFromContext(r.Context())
	if !ok {
		return model.Playlist{}, false
	}
	pl, found := me.Playlist(chi.URLParam(r, "id"))
	if !found {
		return model.Playlist{}, false
	}
	return *pl, true
}
