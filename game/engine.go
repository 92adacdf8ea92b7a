package game

import (
	"sync"

	"ludo/store"

	"github.com/google/uuid"
)

// historyTail is how many recent moves and rolls GetGame returns.
const historyTail = 10

// Engine owns the authoritative session table. Every mutation runs inside
// the coordinator's per-session window: read the session, decide with the
// pure rules, persist the delta, then mutate the in-memory state and hand
// the events back. Persistence happens before the memory mutation so a
// failed write leaves the session untouched.
type Engine struct {
	store store.Store
	dice  Dice
	coord *coordinator

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewEngine(st store.Store, dice Dice) *Engine {
	return &Engine{
		store:    st,
		dice:     dice,
		coord:    newCoordinator(),
		sessions: make(map[string]*Session),
	}
}

// CreateGame creates the WAITING session bound 1:1 to a lobby. Creation is
// serialized per lobby so two concurrent creates cannot both pass the
// exists check.
func (e *Engine) CreateGame(lobbyID string) (*Snapshot, error) {
	var snap *Snapshot
	err := e.coord.do("lobby:"+lobbyID, func() error {
		lobby, err := e.store.GetLobby(lobbyID)
		if err != nil {
			return err
		}
		if lobby == nil {
			return ErrLobbyNotFound
		}

		existing, err := e.store.GetGameByLobby(lobbyID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrLobbyHasGame
		}

		gameID := uuid.NewString()
		if err := e.store.CreateGame(gameID, lobbyID); err != nil {
			return err
		}

		session := &Session{
			ID:      gameID,
			LobbyID: lobbyID,
			Status:  StatusWaiting,
		}
		e.mu.Lock()
		e.sessions[gameID] = session
		e.mu.Unlock()

		snap = session.snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Join seats a lobby participant with a color and four pieces at home.
func (e *Engine) Join(gameID, userID, username string, color Color) (*Snapshot, []Event, error) {
	var snap *Snapshot
	var events []Event
	err := e.coord.do(gameID, func() error {
		session, err := e.session(gameID)
		if err != nil {
			return err
		}

		lobby, err := e.store.GetLobby(session.LobbyID)
		if err != nil {
			return err
		}
		if lobby == nil || !contains(lobby.Participants, userID) {
			return ErrNotInLobby
		}

		if err := evaluateJoin(session, userID, color); err != nil {
			return err
		}
		if err := e.store.AddGamePlayer(gameID, userID, color.String()); err != nil {
			return err
		}

		player := session.applyJoin(userID, username, color)
		snap = session.snapshot()
		events = []Event{
			{Type: EventPlayerJoined, GameID: gameID, Payload: PlayerJoinedPayload{
				Player: PlayerSnapshot{
					UserID:    player.UserID,
					Username:  player.Username,
					Color:     player.Color.String(),
					IsReady:   player.IsReady,
					Positions: player.Positions,
				},
			}},
			{Type: EventStateUpdated, GameID: gameID, Payload: snap},
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, events, nil
}

// SetReady flips a seat's readiness flag. The moment at least two players
// are seated and all of them are ready the session starts, server side,
// with the first turn on the lowest color.
func (e *Engine) SetReady(gameID, userID string, isReady bool) (*Snapshot, []Event, error) {
	var snap *Snapshot
	var events []Event
	err := e.coord.do(gameID, func() error {
		session, err := e.session(gameID)
		if err != nil {
			return err
		}

		starts, firstTurn, err := evaluateReady(session, userID, isReady)
		if err != nil {
			return err
		}

		game := storeGame(session)
		if starts {
			game.Status = string(StatusPlaying)
			game.CurrentTurn = firstTurn
		}
		playerRow := storePlayer(session.player(userID))
		playerRow.IsReady = isReady
		if err := e.store.ApplyGameUpdate(game, []*store.GamePlayer{playerRow}, nil, nil); err != nil {
			return err
		}

		session.applyReady(userID, isReady, starts, firstTurn)
		snap = session.snapshot()
		events = []Event{
			{Type: EventPlayerReady, GameID: gameID, Payload: PlayerReadyPayload{UserID: userID, IsReady: isReady}},
		}
		if starts {
			events = append(events, Event{Type: EventGameStarted, GameID: gameID, Payload: GameStartedPayload{CurrentTurn: firstTurn}})
		}
		events = append(events, Event{Type: EventStateUpdated, GameID: gameID, Payload: snap})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, events, nil
}

// RollDice draws one value for the player whose turn it is and appends it
// to the roll history. Rolling does not advance the turn; moving does.
func (e *Engine) RollDice(gameID, userID string) (int, *Snapshot, []Event, error) {
	var value int
	var snap *Snapshot
	var events []Event
	err := e.coord.do(gameID, func() error {
		session, err := e.session(gameID)
		if err != nil {
			return err
		}
		if err := evaluateRoll(session, userID); err != nil {
			return err
		}

		value = e.dice.Roll()
		roll := &store.DiceRoll{GameID: gameID, PlayerID: userID, Value: value}
		if err := e.store.ApplyGameUpdate(storeGame(session), nil, nil, roll); err != nil {
			return err
		}

		snap = session.snapshot()
		events = []Event{
			{Type: EventDiceRolled, GameID: gameID, Payload: DiceRolledPayload{UserID: userID, Value: value}},
			{Type: EventStateUpdated, GameID: gameID, Payload: snap},
		}
		return nil
	})
	if err != nil {
		return 0, nil, nil, err
	}
	return value, snap, events, nil
}

// MovePiece applies one movement intent: home exit on a 6, track or
// finish-lane advance, capture on the landing square, win detection, and
// turn rotation unless the dice showed 6.
func (e *Engine) MovePiece(gameID, userID string, piece, dice int) (*Snapshot, []Event, error) {
	var snap *Snapshot
	var events []Event
	err := e.coord.do(gameID, func() error {
		session, err := e.session(gameID)
		if err != nil {
			return err
		}

		out, err := evaluateMove(session, userID, piece, dice)
		if err != nil {
			return err
		}

		game := storeGame(session)
		if out.Won {
			game.Status = string(StatusFinished)
			game.Winner = out.UserID
		} else {
			game.CurrentTurn = out.NextTurn
		}

		moverRow := storePlayer(session.player(userID))
		moverRow.Positions[piece] = out.ToPos
		rows := []*store.GamePlayer{moverRow}
		if out.Captured != nil {
			capturedRow := storePlayer(session.player(out.Captured.UserID))
			capturedRow.Positions[out.Captured.Piece] = PosHome
			rows = append(rows, capturedRow)
		}

		move := &store.Move{
			GameID:   gameID,
			PlayerID: userID,
			Piece:    piece,
			FromPos:  out.FromPos,
			ToPos:    out.ToPos,
		}
		if err := e.store.ApplyGameUpdate(game, rows, move, nil); err != nil {
			return err
		}

		session.applyMove(out)
		snap = session.snapshot()
		events = []Event{
			{Type: EventPieceMoved, GameID: gameID, Payload: PieceMovedPayload{
				UserID:   out.UserID,
				Piece:    out.Piece,
				FromPos:  out.FromPos,
				ToPos:    out.ToPos,
				Captured: out.Captured,
			}},
		}
		if out.Won {
			events = append(events, Event{Type: EventGameEnded, GameID: gameID, Payload: GameEndedPayload{Winner: out.UserID}})
		}
		events = append(events, Event{Type: EventStateUpdated, GameID: gameID, Payload: snap})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, events, nil
}

// GetGame returns a consistent snapshot plus the recent history tail.
func (e *Engine) GetGame(gameID string) (*Detail, error) {
	var detail *Detail
	err := e.coord.do(gameID, func() error {
		session, err := e.session(gameID)
		if err != nil {
			return err
		}

		moves, err := e.store.RecentMoves(gameID, historyTail)
		if err != nil {
			return err
		}
		rolls, err := e.store.RecentDiceRolls(gameID, historyTail)
		if err != nil {
			return err
		}

		detail = &Detail{
			Snapshot:  session.snapshot(),
			Moves:     make([]MoveRecord, len(moves)),
			DiceRolls: make([]RollRecord, len(rolls)),
		}
		for i, m := range moves {
			detail.Moves[i] = MoveRecord{PlayerID: m.PlayerID, Piece: m.Piece, FromPos: m.FromPos, ToPos: m.ToPos, CreatedAt: m.CreatedAt}
		}
		for i, r := range rolls {
			detail.DiceRolls[i] = RollRecord{PlayerID: r.PlayerID, Value: r.Value, CreatedAt: r.CreatedAt}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// GetGameByLobby resolves the session bound to a lobby, if any.
func (e *Engine) GetGameByLobby(lobbyID string) (*Detail, error) {
	game, err := e.store.GetGameByLobby(lobbyID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return e.GetGame(game.ID)
}

// session returns the cached in-memory state, loading it from the store on
// first touch. Called only inside the session's coordinator window, so at
// most one caller loads a given id.
func (e *Engine) session(gameID string) (*Session, error) {
	e.mu.Lock()
	if s, ok := e.sessions[gameID]; ok {
		e.mu.Unlock()
		return s, nil
	}
	e.mu.Unlock()

	game, err := e.store.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}

	rows, err := e.store.GetGamePlayers(gameID)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:          game.ID,
		LobbyID:     game.LobbyID,
		Status:      Status(game.Status),
		CurrentTurn: game.CurrentTurn,
		Winner:      game.Winner,
		Players:     make([]*SeatedPlayer, len(rows)),
	}
	for i, row := range rows {
		color, err := ParseColor(row.Color)
		if err != nil {
			return nil, err
		}
		session.Players[i] = &SeatedPlayer{
			UserID:    row.UserID,
			Username:  row.Username,
			Color:     color,
			IsReady:   row.IsReady,
			Positions: row.Positions,
		}
	}
	session.sortPlayers()

	e.mu.Lock()
	e.sessions[gameID] = session
	e.mu.Unlock()
	return session, nil
}

func storeGame(s *Session) *store.Game {
	return &store.Game{
		ID:          s.ID,
		LobbyID:     s.LobbyID,
		Status:      string(s.Status),
		CurrentTurn: s.CurrentTurn,
		Winner:      s.Winner,
	}
}

func storePlayer(p *SeatedPlayer) *store.GamePlayer {
	return &store.GamePlayer{
		UserID:    p.UserID,
		Username:  p.Username,
		Color:     p.Color.String(),
		Positions: p.Positions,
		IsReady:   p.IsReady,
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
