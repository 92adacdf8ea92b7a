package game

import "sort"

type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusPlaying  Status = "PLAYING"
	StatusFinished Status = "FINISHED"
)

// SeatedPlayer is one user bound to a session with a color and four pieces.
type SeatedPlayer struct {
	UserID    string
	Username  string
	Color     Color
	IsReady   bool
	Positions [4]int
}

// Session is the authoritative state of one game. The engine's coordinator
// is the only writer; everything handed out of the game package is a copy.
type Session struct {
	ID          string
	LobbyID     string
	Status      Status
	CurrentTurn string
	Winner      string
	Players     []*SeatedPlayer
}

func (s *Session) player(userID string) *SeatedPlayer {
	for _, p := range s.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// sortPlayers keeps seats in the fixed turn order RED, GREEN, YELLOW, BLUE.
func (s *Session) sortPlayers() {
	sort.Slice(s.Players, func(i, j int) bool {
		return s.Players[i].Color < s.Players[j].Color
	})
}

// nextTurn returns the user id seated after userID in color order, wrapping.
func (s *Session) nextTurn(userID string) string {
	for i, p := range s.Players {
		if p.UserID == userID {
			return s.Players[(i+1)%len(s.Players)].UserID
		}
	}
	return userID
}

// Snapshot is the wire representation of a session, safe to hand to the
// transport layer after the state mutation committed.
type Snapshot struct {
	ID          string           `json:"id"`
	LobbyID     string           `json:"lobbyId"`
	Status      Status           `json:"status"`
	CurrentTurn string           `json:"currentTurn,omitempty"`
	Winner      string           `json:"winner,omitempty"`
	Players     []PlayerSnapshot `json:"players"`
}

type PlayerSnapshot struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Color     string `json:"color"`
	IsReady   bool   `json:"isReady"`
	Positions [4]int `json:"positions"`
}

func (s *Session) snapshot() *Snapshot {
	snap := &Snapshot{
		ID:          s.ID,
		LobbyID:     s.LobbyID,
		Status:      s.Status,
		CurrentTurn: s.CurrentTurn,
		Winner:      s.Winner,
		Players:     make([]PlayerSnapshot, len(s.Players)),
	}
	for i, p := range s.Players {
		snap.Players[i] = PlayerSnapshot{
			UserID:    p.UserID,
			Username:  p.Username,
			Color:     p.Color.String(),
			IsReady:   p.IsReady,
			Positions: p.Positions,
		}
	}
	return snap
}

// Detail extends a snapshot with the recent history tail.
type Detail struct {
	*Snapshot
	Moves     []MoveRecord `json:"moves"`
	DiceRolls []RollRecord `json:"diceRolls"`
}

type MoveRecord struct {
	PlayerID  string `json:"playerId"`
	Piece     int    `json:"piece"`
	FromPos   int    `json:"fromPos"`
	ToPos     int    `json:"toPos"`
	CreatedAt string `json:"createdAt"`
}

type RollRecord struct {
	PlayerID  string `json:"playerId"`
	Value     int    `json:"value"`
	CreatedAt string `json:"createdAt"`
}

const (
	EventStateUpdated = "state_updated"
	EventPlayerJoined = "player_joined"
	EventPlayerReady  = "player_ready"
	EventGameStarted  = "game_started"
	EventDiceRolled   = "dice_rolled"
	EventPieceMoved   = "piece_moved"
	EventGameEnded    = "game_ended"
)

type Event struct {
	Type    string      `json:"type"`
	GameID  string      `json:"gameId"`
	Payload interface{} `json:"payload"`
}

type PlayerJoinedPayload struct {
	Player PlayerSnapshot `json:"player"`
}

type PlayerReadyPayload struct {
	UserID  string `json:"userId"`
	IsReady bool   `json:"isReady"`
}

type GameStartedPayload struct {
	CurrentTurn string `json:"currentTurn"`
}

type DiceRolledPayload struct {
	UserID string `json:"userId"`
	Value  int    `json:"value"`
}

type CapturePayload struct {
	UserID string `json:"userId"`
	Piece  int    `json:"piece"`
}

type PieceMovedPayload struct {
	UserID   string          `json:"userId"`
	Piece    int             `json:"piece"`
	FromPos  int             `json:"fromPos"`
	ToPos    int             `json:"toPos"`
	Captured *CapturePayload `json:"captured,omitempty"`
}

type GameEndedPayload struct {
	Winner string `json:"winner"`
}
