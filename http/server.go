package http

import (
	"net/http"
	"time"

	"ludo/auth"
	"ludo/game"
	"ludo/store"
	"ludo/ws"

	"github.com/gorilla/mux"
)

type Server struct {
	router   *mux.Router
	handlers *Handlers
}

func NewServer(authService *auth.Service, lobby *game.Lobby, engine *game.Engine, wsManager *ws.Manager, lobbyManager *ws.LobbyManager, store store.Store) *Server {
	router := mux.NewRouter()
	handlers := NewHandlers(authService, lobby, engine, wsManager, lobbyManager, store)

	server := &Server{
		router:   router,
		handlers: handlers,
	}

	server.setupRoutes(authService)
	return server
}

func (s *Server) setupRoutes(authService *auth.Service) {
	// Apply global middleware
	s.router.Use(LoggingMiddleware)
	s.router.Use(SecurityHeadersMiddleware)
	s.router.Use(CORSMiddleware)

	// CSRF note: SameSite=Lax on the session cookie prevents cross-site POST
	// requests from including the cookie, providing CSRF protection for all
	// state-changing endpoints without needing a token-based scheme.

	// Rate limiters for auth endpoints
	loginLimiter := NewRateLimiter(5.0/60.0, 5)
	registerLimiter := NewRateLimiter(3.0/60.0, 3)

	// Auth routes (public) with rate limiting
	s.router.Handle("/api/auth/register", registerLimiter.Middleware(http.HandlerFunc(s.handlers.Register))).Methods("POST")
	s.router.Handle("/api/auth/login", loginLimiter.Middleware(http.HandlerFunc(s.handlers.Login))).Methods("POST")

	// Protected routes
	protected := s.router.PathPrefix("/api").Subrouter()
	protected.Use(AuthMiddleware(authService))

	protected.HandleFunc("/auth/logout", s.handlers.Logout).Methods("POST")

	protected.HandleFunc("/lobbies", s.handlers.ListLobbies).Methods("GET")
	protected.HandleFunc("/lobbies", s.handlers.CreateLobby).Methods("POST")
	protected.HandleFunc("/lobbies/{lobbyId}", s.handlers.GetLobby).Methods("GET")
	protected.HandleFunc("/lobbies/{lobbyId}/join", s.handlers.JoinLobby).Methods("POST")
	protected.HandleFunc("/lobbies/{lobbyId}/game", s.handlers.CreateGame).Methods("POST")
	protected.HandleFunc("/lobbies/{lobbyId}/game", s.handlers.GetLobbyGame).Methods("GET")

	protected.HandleFunc("/games/{gameId}", s.handlers.GetGame).Methods("GET")
	protected.HandleFunc("/games/{gameId}/join", s.handlers.JoinGame).Methods("POST")

	// WebSocket routes (protected)
	wsRouter := s.router.PathPrefix("/ws").Subrouter()
	wsRouter.Use(AuthMiddleware(authService))
	wsRouter.HandleFunc("/games/{gameId}", s.handlers.HandleGameWebSocket)
	wsRouter.HandleFunc("/lobby", s.handlers.HandleLobbyWebSocket)

	// Catch-all for unmatched routes — this server is API + WS only
	s.router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
}

func (s *Server) GetHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
