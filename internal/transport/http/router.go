package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"eclipse/internal/handler"
	"eclipse/internal/httputil"
	authmw "eclipse/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	ProfileHandler *handler.ProfileHandler
	VideoHandler   *handler.VideoHandler
	PostHandler    *handler.PostHandler
	ChannelHandler *handler.ChannelHandler
	Profiles       authmw.ProfileSource
	Live           http.Handler
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Live change events for connected pages
	if cfg.Live != nil {
		r.Handle("/ws", cfg.Live)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/logout", cfg.AuthHandler.Logout)
	})

	// Public reads; the profile is attached when signed in
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalProfile(cfg.Profiles))

		r.Get("/videos", cfg.VideoHandler.List)
		r.Get("/videos/{id}", cfg.VideoHandler.Get)
		r.Get("/videos/{id}/comments", cfg.VideoHandler.Comments)
		r.Post("/videos/{id}/view", cfg.VideoHandler.View)

		r.Get("/posts", cfg.PostHandler.List)
		r.Get("/posts/{id}/image", cfg.PostHandler.Image)
		r.Get("/posts/{id}/comments", cfg.PostHandler.Comments)

		r.Get("/channels/{name}", cfg.ChannelHandler.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireProfile(cfg.Profiles))

		r.Get("/me", cfg.AuthHandler.Me)
		r.Patch("/me", cfg.ProfileHandler.Update)

		r.Route("/me/history", func(r chi.Router) {
			r.Get("/", cfg.ProfileHandler.History)
			r.Post("/", cfg.ProfileHandler.AddHistory)
			r.Delete("/", cfg.ProfileHandler.ClearHistory)
		})
		r.Get("/me/subscriptions", cfg.ProfileHandler.Subscriptions)

		r.Route("/me/playlists", func(r chi.Router) {
			r.Get("/", cfg.ProfileHandler.Playlists)
			r.Post("/", cfg.ProfileHandler.CreatePlaylist)
			r.Get("/{id}", cfg.ProfileHandler.Playlist)
			r.Delete("/{id}", cfg.ProfileHandler.DeletePlaylist)
			r.Get("/{id}/next", cfg.ProfileHandler.Next)
			r.Post("/{id}/videos", cfg.ProfileHandler.AddToPlaylist)
			r.Delete("/{id}/videos/{videoID}", cfg.ProfileHandler.RemoveFromPlaylist)
		})

		// Video endpoints
		r.Post("/videos", cfg.VideoHandler.Upload)
		r.Delete("/videos/{id}", cfg.VideoHandler.Delete)
		r.Post("/videos/{id}/like", cfg.VideoHandler.Like)
		r.Post("/videos/{id}/comments", cfg.VideoHandler.AddComment)
		r.Post("/videos/{id}/comments/{commentID}/like", cfg.VideoHandler.LikeComment)
		r.Post("/videos/{id}/comments/{commentID}/pin", cfg.VideoHandler.PinComment)

		// Post endpoints
		r.Post("/posts", cfg.PostHandler.Create)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/{id}/like", cfg.PostHandler.Like)
		r.Post("/posts/{id}/repost", cfg.PostHandler.Repost)
		r.Post("/posts/{id}/comments", cfg.PostHandler.AddComment)
		r.Post("/posts/{id}/comments/{commentID}/like", cfg.PostHandler.LikeComment)
		r.Post("/posts/{id}/comments/{commentID}/pin", cfg.PostHandler.PinComment)

		r.Post("/channels/{name}/subscribe", cfg.ChannelHandler.Subscribe)
	})

	return r
}
