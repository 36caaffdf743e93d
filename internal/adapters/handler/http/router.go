package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

type RouterOptions struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	Metrics        http.Handler // served on GET /metrics when set
}

func NewHandler(authService ports.AuthService, authHandler *AuthHandler, accountHandler *AccountHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.Post(RefreshCookiePath, authHandler.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(authService))
		r.Get("/protected", accountHandler.Protected)
		r.Post("/protected", accountHandler.Protected)
	})

	return r
}
