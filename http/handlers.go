package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ludo/auth"
	"ludo/game"
	"ludo/store"
	"ludo/ws"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// In production, check against allowed origins
		// For now, only allow same origin
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

type Handlers struct {
	authService  *auth.Service
	lobby        *game.Lobby
	engine       *game.Engine
	wsManager    *ws.Manager
	lobbyManager *ws.LobbyManager
	store        store.Store
}

func NewHandlers(authService *auth.Service, lobby *game.Lobby, engine *game.Engine, wsManager *ws.Manager, lobbyManager *ws.LobbyManager, store store.Store) *Handlers {
	return &Handlers{
		authService:  authService,
		lobby:        lobby,
		engine:       engine,
		wsManager:    wsManager,
		lobbyManager: lobbyManager,
		store:        store,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

// writeGameError maps the game package's rejection taxonomy onto HTTP
// statuses. Unclassified errors are store or transport failures: those are
// logged and surfaced as 503 so callers know a retry may succeed.
func writeGameError(w http.ResponseWriter, err error) {
	switch game.Classify(err) {
	case game.KindNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case game.KindConflict:
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case game.KindInvalidInput:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		if errors.Is(err, game.ErrBusy) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "temporarily unavailable"})
	}
}

// Auth handlers
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(req.Username, req.Password)
	if err != nil {
		switch err {
		case auth.ErrInvalidUsername, auth.ErrInvalidPassword, auth.ErrUserExists:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("Register error: %v", err)
			http.Error(w, "Registration failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"userId":   user.ID,
		"username": user.Username,
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sessionID, user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if err == auth.ErrInvalidCredentials {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		} else {
			log.Printf("Login error: %v", err)
			http.Error(w, "Login failed", http.StatusInternalServerError)
		}
		return
	}

	if err := h.authService.GetSessionManager().SetSessionCookie(w, sessionID); err != nil {
		log.Printf("Login: failed to set session cookie: %v", err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	log.Printf("Login successful for user %s (ID: %s)", user.Username, user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":   user.ID,
		"username": user.Username,
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.authService.GetSessionManager().SessionFromRequest(r)
	if sessionID != "" {
		h.authService.Logout(sessionID)
		h.authService.GetSessionManager().ClearSessionCookie(w)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Lobby handlers
func (h *Handlers) ListLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies, err := h.lobby.List()
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lobbies)
}

func (h *Handlers) CreateLobby(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lobby, err := h.lobby.Create(auth.SanitizeString(req.Name), userID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	h.broadcastLobbies()
	writeJSON(w, http.StatusCreated, lobby)
}

func (h *Handlers) GetLobby(w http.ResponseWriter, r *http.Request) {
	lobby, err := h.lobby.Get(mux.Vars(r)["lobbyId"])
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lobby)
}

func (h *Handlers) JoinLobby(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	lobby, err := h.lobby.Join(mux.Vars(r)["lobbyId"], userID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	h.broadcastLobbies()
	writeJSON(w, http.StatusOK, lobby)
}

// Game handlers
func (h *Handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.CreateGame(mux.Vars(r)["lobbyId"])
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handlers) GetLobbyGame(w http.ResponseWriter, r *http.Request) {
	detail, err := h.engine.GetGameByLobby(mux.Vars(r)["lobbyId"])
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	detail, err := h.engine.GetGame(mux.Vars(r)["gameId"])
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	color, err := game.ParseColor(req.Color)
	if err != nil {
		writeGameError(w, err)
		return
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	snap, events, err := h.engine.Join(gameID, userID, user.Username, color)
	if err != nil {
		writeGameError(w, err)
		return
	}

	h.broadcastEvents(gameID, events)
	writeJSON(w, http.StatusOK, snap)
}

// WebSocket handlers
func (h *Handlers) HandleGameWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	h.wsManager.HandleConnection(conn, gameID, userID)
}

func (h *Handlers) HandleLobbyWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	h.lobbyManager.HandleConnection(conn, userID)
}

func (h *Handlers) broadcastEvents(gameID string, events []game.Event) {
	room := h.wsManager.GetRoom(gameID)
	for _, event := range events {
		room.Broadcast(ws.OutgoingMessage{
			Type:    event.Type,
			Payload: event.Payload,
		})
	}
}

func (h *Handlers) broadcastLobbies() {
	lobbies, err := h.lobby.List()
	if err != nil {
		log.Printf("Failed to list lobbies for broadcast: %v", err)
		return
	}
	h.lobbyManager.BroadcastUpdate(lobbies)
}
