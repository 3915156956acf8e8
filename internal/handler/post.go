package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eclipse/internal/httputil"
	"eclipse/internal/logger"
	"eclipse/internal/model"
	"eclipse/internal/transport/http/middleware"
)

// PostHandler binds the community feed and its nested comment documents.
type PostHandler struct {
	feed Feed
}

func NewPostHandler(feed Feed) *PostHandler {
	return &PostHandler{feed: feed}
}

// PostView is a post with its content split into text and links.
type PostView struct {
	model.Post
	ContentParts []model.ContentPart `json:"content_parts"`
}

func newPostViews(posts []model.Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostView{Post: p, ContentParts: model.ParseLinks(p.Content)})
	}
	return out
}

// List handles GET /posts
// Optional ?author= narrows the feed to one channel.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts := h.feed.ListPosts()
	if author := r.URL.Query().Get("author"); author != "" {
		posts = model.ChannelPosts(author, posts)
	}
	httputil.WriteJSON(w, http.StatusOK, newPostViews(posts))
}

// Create handles POST /posts
// Multipart fields: content (required) and image. An image that cannot be
// read is dropped and the post is created without it.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.GetProfileFromContext(r.Context())

	maxFormSize := int64(model.MaxPostImageSizeBytes) + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case isBodyTooLarge(err):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
		default:
			httputil.WriteBadRequest(w, "Invalid form data")
		}
		return
	}

	image, err := readUpload(r, "image", model.MaxPostImageSizeBytes)
	if err != nil {
		logger.For("PostHandler").Warnf("Image read FAILED: author=%s err=%v", me.Name, err)
	}

	id, err := h.feed.AddPost(r.Context(), model.NewPost{
		Author:       me.Name,
		AuthorAvatar: me.Avatar,
		Content:      r.FormValue("content"),
	}, image)
	if err != nil {
		writeServiceError(w, "AddPost", err, "Failed to create post")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Delete handles DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "DeletePost", err, "Failed to delete post")
		return
	}
	httputil.WriteNoContent(w)
}

// Like handles POST /posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.TogglePostLike(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "TogglePostLike", err, "Failed to like post")
		return
	}
	httputil.WriteNoContent(w)
}

// Repost handles POST /posts/{id}/repost
func (h *PostHandler) Repost(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.GetProfileFromContext(r.Context())

	id, err := h.feed.RepostPost(r.Context(), chi.URLParam(r, "id"), model.Actor{Name: me.Name, Avatar: me.Avatar})
	if err != nil {
		writeServiceError(w, "RepostPost", err, "Failed to repost")
		return
	}
	if id == "" {
		httputil.WriteNotFound(w, "Post not found")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Image handles GET /posts/{id}/image
// Serves the original image kept in the local blob store.
func (h *PostHandler) Image(w http.ResponseWriter, r *http.Request) {
	data, err := h.feed.LocalImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "LocalImage", err, "Failed to read image")
		return
	}
	if len(data) == 0 {
		httputil.WriteNotFound(w, "Image not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data[:min(len(data), 512)]))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Comments handles GET /posts/{id}/comments
func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.feed.Thread(chi.URLParam(r, "id")).Comments(r.Context())
	if err != nil {
		writeServiceError(w, "PostComments", err, "Failed to get comments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comments)
}

// AddComment handles POST /posts/{id}/comments
// A parent_id makes the comment a reply.
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.GetProfileFromContext(r.Context())
	var req commentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	postID := chi.URLParam(r, "id")
	in := newComment(me, req.Content)
	var (
		id  string
		err error
	)
	if req.ParentID != "" {
		id, err = h.feed.AddPostCommentReply(r.Context(), postID, req.ParentID, in)
	} else {
		id, err = h.feed.AddPostComment(r.Context(), postID, in)
	}
	if err != nil {
		writeServiceError(w, "AddPostComment", err, "Failed to add comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// LikeComment handles POST /posts/{id}/comments/{commentID}/like
func (h *PostHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	err := h.feed.LikePostComment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	if err != nil {
		writeServiceError(w, "LikePostComment", err, "Failed to like comment")
		return
	}
	httputil.WriteNoContent(w)
}

// PinComment handles POST /posts/{id}/comments/{commentID}/pin
// Pinning the pinned comment unpins it.
func (h *PostHandler) PinComment(w http.ResponseWriter, r *http.Request) {
	err := h.feed.PinPostComment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	if err != nil {
		writeServiceError(w, "PinPostComment", err, "Failed to pin comment")
		return
	}
	httputil.WriteNoContent(w)
}
