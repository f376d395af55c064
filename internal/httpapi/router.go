package httpapi

import (
	"net/http"

	"github.com/UkralStul/social-feed-service/internal/dataloader"
	"github.com/UkralStul/social-feed-service/internal/feed"
	"github.com/UkralStul/social-feed-service/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler - HTTP-поверхность сервиса ленты.
type Handler struct {
	svc *feed.Service
}

// NewRouter собирает chi-роутер со всеми REST-маршрутами.
// GraphQL монтируется поверх него в main.
func NewRouter(svc *feed.Service, auth *session.Auth) *chi.Mux {
	h := &Handler{svc: svc}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.health)

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		// Лоадеры пересоздаются на каждый запрос, кеш авторов не живёт дольше запроса.
		r.Use(func(next http.Handler) http.Handler {
			return dataloader.Middleware(svc.UserBatcher(), next)
		})

		r.Get("/feed", h.getFeed)
		r.Get("/notifications", h.getNotifications)
		r.Get("/me/category", h.getCategory)

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", h.createPost)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getPost)
				r.Get("/exists", h.postExists)
				r.Patch("/", h.editPost)
				r.Delete("/", h.deletePost)
				r.Post("/like", h.toggleLike)
				r.Get("/comments", h.listComments)
				r.Post("/comments", h.createComment)
			})
		})

		r.Route("/comments/{id}", func(r chi.Router) {
			r.Patch("/", h.editComment)
			r.Delete("/", h.deleteComment)
		})
	})

	return router
}
