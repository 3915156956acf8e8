package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"eclipse/internal/httputil"
	"eclipse/internal/logger"
	"eclipse/internal/model"
	"eclipse/internal/transport/http/middleware"
)

// VideoHandler binds the catalog, its comment threads and the publish flow.
type VideoHandler struct {
	catalog  Catalog
	profiles Profiles
	uploads  Uploader
}

func NewVideoHandler(catalog Catalog, profiles Profiles, uploads Uploader) *VideoHandler {
	return &VideoHandler{catalog: catalog, profiles: profiles, uploads: uploads}
}

type commentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

// List handles GET /videos
// Optional ?author= narrows the list to one channel.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos := h.catalog.ListVideos()
	if author := r.URL.Query().Get("author"); author != "" {
		videos = model.ChannelVideos(author, videos)
	}
	httputil.WriteJSON(w, http.StatusOK, videos)
}

// Get handles GET /videos/{id}
// The response carries the comment tree.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	video, err := h.catalog.GetVideo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "GetVideo", err, "Failed to get video")
		return
	}
	if video == nil {
		httputil.WriteNotFound(w, "Video not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, video)
}

// Upload handles POST /videos
// Multipart fields: video (required), thumbnail, title, description and
// duration_seconds.
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxFormSize := int64(model.MaxVideoSizeBytes) + int64(model.MaxPostImageSizeBytes) + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case isBodyTooLarge(err):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Video exceeds 100MB limit")
		default:
			httputil.WriteBadRequest(w, "Invalid form data")
		}
		return
	}

	video, err := readUpload(r, "video", model.MaxVideoSizeBytes)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	thumbnail, err := readUpload(r, "thumbnail", model.MaxPostImageSizeBytes)
	if err != nil {
		// Thumbnails are optional; a bad one falls back to the placeholder.
		logger.For("VideoHandler").Warnf("Thumbnail read FAILED: err=%v", err)
	}

	req := model.PublishRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Video:       video,
		Thumbnail:   thumbnail,
	}
	if raw := r.FormValue("duration_seconds"); raw != "" {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid duration_seconds")
			return
		}
		req.Duration = model.FormatDuration(seconds)
	}

	id, err := h.uploads.UploadVideo(r.Context(), req)
	if err != nil {
		writeServiceError(w, "UploadVideo", err, "Failed to publish video")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Delete handles DELETE /videos/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteVideo(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "DeleteVideo", err, "Failed to delete video")
		return
	}
	httputil.WriteNoContent(w)
}

// View handles POST /videos/{id}/view
// Counts a view and, when signed in, records it in the watch history.
func (h *VideoHandler) View(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.catalog.IncrementView(r.Context(), id); err != nil {
		writeServiceError(w, "IncrementView", err, "Failed to count view")
		return
	}
	if _, ok := middleware.GetProfileFromContext(r.Context()); ok {
		if err := h.profiles.AddToHistory(r.Context(), id); err != nil {
			logger.For("VideoHandler").Warnf("History update FAILED: video=%s err=%v", id, err)
		}
	}
	httputil.WriteNoContent(w)
}

// Like handles POST /videos/{id}/like
func (h *VideoHandler) Like(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.IncrementLike(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "IncrementLike", err, "Failed to like video")
		return
	}
	httputil.WriteNoContent(w)
}

// Comments handles GET /videos/{id}/comments
func (h *VideoHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.catalog.Thread(chi.URLParam(r, "id")).Comments(r.Context())
	if err != nil {
		writeServiceError(w, "VideoComments", err, "Failed to get comments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comments)
}

// AddComment handles POST /videos/{id}/comments
// A parent_id makes the comment a reply.
func (h *VideoHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.GetProfileFromContext(r.Context())
	var req commentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	videoID := chi.URLParam(r, "id")
	in := newComment(me, req.Content)
	var err error
	if req.ParentID != "" {
		err = h.catalog.AddReply(r.Context(), videoID, req.ParentID, in)
	} else {
		err = h.catalog.AddComment(r.Context(), videoID, in)
	}
	if err != nil {
		writeServiceError(w, "AddVideoComment", err, "Failed to add comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, message("Comment added"))
}

// LikeComment handles POST /videos/{id}/comments/{commentID}/like
func (h *VideoHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.LikeComment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	if err != nil {
		writeServiceError(w, "LikeVideoComment", err, "Failed to like comment")
		return
	}
	httputil.WriteNoContent(w)
}

// PinComment handles POST /videos/{id}/comments/{commentID}/pin
func (h *VideoHandler) PinComment(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.PinComment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	if err != nil {
		writeServiceError(w, "PinVideoComment", err, "Failed to pin comment")
		return
	}
	httputil.WriteNoContent(w)
}

func newComment(me *model.Profile, content string) model.NewComment {
	return model.NewComment{
		Author:       me.Name,
		AuthorAvatar: me.Avatar,
		Content:      content,
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "File exceeds the upload limit")
	default:
		httputil.WriteBadRequest(w, err.Error())
	}
}
