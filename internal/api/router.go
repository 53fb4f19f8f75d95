package api

import (
	"fmt"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/arnavk09/campusswap/docs"

	"github.com/arnavk09/campusswap/internal/api/handlers"
	"github.com/arnavk09/campusswap/internal/api/middleware"
	"github.com/arnavk09/campusswap/internal/config"
	"github.com/rs/cors"
)

// Handlers carries the constructed route handlers into the router; the
// process entrypoint owns their dependencies.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Items    *handlers.ItemsHandler
	Messages *handlers.MessagesHandler
	Users    *handlers.UsersHandler
}

func SetupRouter(h Handlers) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	authMux := http.NewServeMux()
	authMux.HandleFunc("POST /google", h.Auth.GoogleToken)
	authMux.HandleFunc("POST /login", h.Auth.Login)
	authMux.HandleFunc("POST /register", h.Auth.Register)
	authMux.HandleFunc("GET /google/login", h.Auth.GoogleLogin)
	authMux.HandleFunc("GET /google/callback", h.Auth.GoogleCallback)

	// Protected auth routes live on the same subtree, individually
	// wrapped: the /api/auth/ prefix wins pattern precedence over /api/.
	authMux.Handle("GET /me", middleware.AuthMiddleware(http.HandlerFunc(h.Auth.Me)))
	authMux.Handle("POST /complete-profile", middleware.AuthMiddleware(http.HandlerFunc(h.Auth.CompleteProfile)))

	mainMux.Handle("/api/auth/",
		http.StripPrefix("/api/auth", authMux),
	)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	protectedMux.HandleFunc("GET /items", h.Items.List)
	protectedMux.HandleFunc("POST /items", h.Items.Create)
	protectedMux.HandleFunc("GET /items/my", h.Items.My)
	protectedMux.HandleFunc("GET /items/{id}", h.Items.Get)
	protectedMux.HandleFunc("GET /items/{id}/similar", h.Items.Similar)
	protectedMux.HandleFunc("PUT /items/{id}", h.Items.Update)
	protectedMux.HandleFunc("DELETE /items/{id}", h.Items.Delete)

	protectedMux.HandleFunc("GET /messages", h.Messages.Inbox)
	protectedMux.HandleFunc("POST /messages", h.Messages.Send)
	protectedMux.HandleFunc("GET /messages/conversation/{id}/messages", h.Messages.ConversationMessages)

	protectedMux.HandleFunc("GET /users/{id}", h.Users.Get)

	mainMux.Handle("/api/",
		http.StripPrefix(
			"/api",
			middleware.AuthMiddleware(protectedMux),
		),
	)

	handler := c.Handler(mainMux)
	handler = middleware.Logger(handler)
	return handler
}
