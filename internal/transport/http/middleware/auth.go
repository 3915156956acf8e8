package middleware

import (
	"context"
	"net/http"

	"eclipse/internal/httputil"
	"eclipse/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ProfileKey is the context key for the signed-in profile snapshot
	ProfileKey contextKey = "profile"
)

// ProfileSource exposes the signed-in profile, nil when signed out.
type ProfileSource interface {
	Current() *model.Profile
}

// RequireProfile rejects requests while nobody is signed in and hands the
// current profile snapshot to the handler.
func RequireProfile(profiles ProfileSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := profiles.Current()
			if profile == nil {
				httputil.WriteUnauthorizedWithCode(w, model.CodeNotSignedIn, "Sign in required")
				return
			}
			ctx := context.WithValue(r.Context(), ProfileKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalProfile attaches the profile when signed in and never rejects.
func OptionalProfile(profiles ProfileSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if profile := profiles.Current(); profile != nil {
				r = r.WithContext(context.WithValue(r.Context(), ProfileKey, profile))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetProfileFromContext returns the profile attached by RequireProfile or
// OptionalProfile.
func GetProfileFromContext(ctx context.Context) (*model.Profile, bool) {
	profile, ok := ctx.Value(ProfileKey).(*model.Profile)
	return profile, ok && profile != nil
}
