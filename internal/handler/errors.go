package handler

import (
	"errors"
	"net/http"

	"eclipse/internal/httputil"
	"eclipse/internal/logger"
	"eclipse/internal/model"
)

// writeServiceError maps a service error to a response. Anything unmapped is
// logged under op and reported as a 500 carrying fallback.
func writeServiceError(w http.ResponseWriter, op string, err error, fallback string) {
	var authErr *model.AuthError
	switch {
	case errors.As(err, &authErr):
		httputil.WriteUnauthorizedWithCode(w, model.CodeAuthFailed, authErr.Message)
	case errors.Is(err, model.ErrNotSignedIn):
		httputil.WriteUnauthorizedWithCode(w, model.CodeNotSignedIn, "Sign in required")
	case errors.Is(err, model.ErrVideoNotFound):
		httputil.WriteNotFound(w, "Video not found")
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrCommentNotFound):
		httputil.WriteNotFound(w, "Comment not found")
	case errors.Is(err, model.ErrParentNotFound):
		httputil.WriteNotFound(w, "Parent comment not found")
	case errors.Is(err, model.ErrPlaylistNotFound):
		httputil.WriteNotFound(w, "Playlist not found")
	case errors.Is(err, model.ErrProfileNotFound):
		httputil.WriteNotFound(w, "Profile not found")
	case errors.Is(err, model.ErrTitleRequired):
		httputil.WriteBadRequest(w, "Title is required")
	case errors.Is(err, model.ErrContentRequired):
		httputil.WriteBadRequest(w, "Content is required")
	case errors.Is(err, model.ErrNoVideoFile):
		httputil.WriteBadRequest(w, "Video file is required")
	case errors.Is(err, model.ErrEmptyPatch):
		httputil.WriteBadRequest(w, "Nothing to update")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "File exceeds the upload limit")
	case errors.Is(err, model.ErrInvalidMediaType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidMediaType, "Unsupported media type")
	case errors.Is(err, model.ErrSelfSubscription):
		httputil.WriteConflict(w, "You cannot subscribe to your own channel")
	case errors.Is(err, model.ErrUploadTimeout):
		httputil.WriteError(w, http.StatusGatewayTimeout, model.CodeUploadTimeout, "Upload timed out")
	default:
		logger.For("HTTP").Errorf("%s FAILED: err=%v", op, err)
		httputil.WriteInternalError(w, fallback)
	}
}

// message is the body of mutations that return nothing else.
func message(text string) map[string]string {
	return map[string]string{"message": text}
}
