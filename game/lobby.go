package game

import (
	"sync"

	"ludo/store"

	"github.com/google/uuid"
)

// maxLobbySize matches the four seats a game can hold.
const maxLobbySize = 4

type LobbyState struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CreatorID    string   `json:"creatorId"`
	Participants []string `json:"participants"`
	CreatedAt    string   `json:"createdAt"`
}

// Lobby manages the pre-game groups that sessions are created against.
type Lobby struct {
	store store.Store

	// serializes joins so the participant cap cannot be raced past
	mu sync.Mutex
}

func NewLobby(st store.Store) *Lobby {
	return &Lobby{store: st}
}

func (l *Lobby) Create(name, creatorID string) (*LobbyState, error) {
	if len(name) == 0 || len(name) > 50 {
		return nil, ErrInvalidName
	}

	lobbyID := uuid.NewString()
	if err := l.store.CreateLobby(lobbyID, name, creatorID); err != nil {
		return nil, err
	}
	return l.Get(lobbyID)
}

func (l *Lobby) List() ([]*LobbyState, error) {
	lobbies, err := l.store.ListLobbies()
	if err != nil {
		return nil, err
	}

	states := make([]*LobbyState, len(lobbies))
	for i, lobby := range lobbies {
		states[i] = lobbyState(lobby)
	}
	return states, nil
}

func (l *Lobby) Get(lobbyID string) (*LobbyState, error) {
	lobby, err := l.store.GetLobby(lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	return lobbyState(lobby), nil
}

func (l *Lobby) Join(lobbyID, userID string) (*LobbyState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lobby, err := l.store.GetLobby(lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	if contains(lobby.Participants, userID) {
		return nil, ErrAlreadyInLobby
	}
	if len(lobby.Participants) >= maxLobbySize {
		return nil, ErrLobbyFull
	}

	if err := l.store.AddLobbyParticipant(lobbyID, userID); err != nil {
		return nil, err
	}
	return l.Get(lobbyID)
}

func lobbyState(lobby *store.Lobby) *LobbyState {
	participants := lobby.Participants
	if participants == nil {
		participants = []string{}
	}
	return &LobbyState{
		ID:           lobby.ID,
		Name:         lobby.Name,
		CreatorID:    lobby.CreatorID,
		Participants: participants,
		CreatedAt:    lobby.CreatedAt,
	}
}
