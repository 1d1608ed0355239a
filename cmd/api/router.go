package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appMiddleware "github.com/postboard/service/internal/middleware"
	"github.com/postboard/service/internal/post"
	"github.com/postboard/service/internal/upload"
)

// newRouter mounts every route. posts may be nil when no database is configured.
func newRouter(jwtSecret string, uploads *upload.Handler, posts *post.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Stored images: public, read-only, any origin.
	r.Route("/uploads", func(r chi.Router) {
		r.Use(appMiddleware.PublicRead)
		r.Get("/*", uploads.Serve)
		r.Head("/*", uploads.Serve)
		r.Options("/*", uploads.Serve)
	})

	// Swagger UI at /swagger/index.html
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		r.Route("/upload", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(jwtSecret))
			r.Post("/", uploads.Upload)
			r.Post("/presign", uploads.Presign)
		})

		if posts != nil {
			r.Route("/api/v1/posts", func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(jwtSecret))
				r.Get("/", posts.List)
				r.Post("/", posts.Create)
				r.Get("/{id}", posts.Get)
			})
		}
	})

	return r
}
