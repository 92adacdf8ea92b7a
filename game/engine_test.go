package game

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"ludo/store"
)

// scriptedDice replays a fixed sequence of values.
type scriptedDice struct {
	mu     sync.Mutex
	values []int
	idx    int
}

func (d *scriptedDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.values[d.idx%len(d.values)]
	d.idx++
	return v
}

func newTestEngine(t *testing.T, dice Dice) (*Engine, *store.SQLiteStore) {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ludo.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEngine(db, dice), db
}

func seedUsers(t *testing.T, db *store.SQLiteStore, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := db.CreateUser("user-"+name, name, "hash"); err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
	}
}

func seedLobby(t *testing.T, db *store.SQLiteStore, participants ...string) string {
	t.Helper()
	const lobbyID = "lobby-1"
	if err := db.CreateLobby(lobbyID, "test lobby", "user-"+participants[0]); err != nil {
		t.Fatalf("create lobby: %v", err)
	}
	for _, name := range participants[1:] {
		if err := db.AddLobbyParticipant(lobbyID, "user-"+name); err != nil {
			t.Fatalf("add participant %s: %v", name, err)
		}
	}
	return lobbyID
}

// startedGame returns a PLAYING session with alice on RED and bob on GREEN,
// RED to move.
func startedGame(t *testing.T, e *Engine, db *store.SQLiteStore) string {
	t.Helper()
	seedUsers(t, db, "alice", "bob")
	lobbyID := seedLobby(t, db, "alice", "bob")

	snap, err := e.CreateGame(lobbyID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	gameID := snap.ID

	if _, _, err := e.Join(gameID, "user-alice", "alice", Red); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if _, _, err := e.Join(gameID, "user-bob", "bob", Green); err != nil {
		t.Fatalf("bob join: %v", err)
	}
	if _, _, err := e.SetReady(gameID, "user-alice", true); err != nil {
		t.Fatalf("alice ready: %v", err)
	}
	if _, _, err := e.SetReady(gameID, "user-bob", true); err != nil {
		t.Fatalf("bob ready: %v", err)
	}
	return gameID
}

func TestCreateGameOnePerLobby(t *testing.T) {
	e, db := newTestEngine(t, &scriptedDice{values: []int{1}})
	seedUsers(t, db, "alice")
	lobbyID := seedLobby(t, db, "alice")

	if _, err := e.CreateGame(lobbyID); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := e.CreateGame(lobbyID); !errors.Is(err, ErrLobbyHasGame) {
		t.Errorf("second create = %v, want ErrLobbyHasGame", err)
	}
	if _, err := e.CreateGame("no-such-lobby"); !errors.Is(err, ErrLobbyNotFound) {
		t.Errorf("unknown lobby = %v, want ErrLobbyNotFound", err)
	}
}

func TestJoinAndAutoStart(t *testing.T) {
	e, db := newTestEngine(t, &scriptedDice{values: []int{1}})
	seedUsers(t, db, "alice", "bob")
	lobbyID := seedLobby(t, db, "alice", "bob")

	snap, err := e.CreateGame(lobbyID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	gameID := snap.ID

	snap, _, err = e.Join(gameID, "user-alice", "alice", Red)
	if err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if snap.Status != StatusWaiting {
		t.Errorf("status after one join = %s, want WAITING", snap.Status)
	}

	if _, _, err := e.Join(gameID, "user-bob", "bob", Green); err != nil {
		t.Fatalf("bob join: %v", err)
	}

	if _, _, err := e.SetReady(gameID, "user-alice", true); err != nil {
		t.Fatalf("alice ready: %v", err)
	}
	snap, events, err := e.SetReady(gameID, "user-bob", true)
	if err != nil {
		t.Fatalf("bob ready: %v", err)
	}

	if snap.Status != StatusPlaying {
		t.Errorf("status = %s, want PLAYING", snap.Status)
	}
	if snap.CurrentTurn != "user-alice" {
		t.Errorf("current turn = %q, want RED's user-alice", snap.CurrentTurn)
	}

	var sawStarted bool
	for _, ev := range events {
		if ev.Type == EventGameStarted {
			sawStarted = true
		}
	}
	if !sawStarted {
		t.Error("expected a game_started event")
	}
}

func TestJoinRejections(t *testing.T) {
	e, db := newTestEngine(t, &scriptedDice{values: []int{1}})
	seedUsers(t, db, "alice", "bob", "carol")
	lobbyID := seedLobby(t, db, "alice", "bob")

	snap, err := e.CreateGame(lobbyID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	gameID := snap.ID

	if _, _, err := e.Join(gameID, "user-alice", "alice", Red); err != nil {
		t.Fatalf("alice join: %v", err)
	}

	if _, _, err := e.Join(gameID, "user-alice", "alice", Green); !errors.Is(err, ErrAlreadySeated) {
		t.Errorf("duplicate join = %v, want ErrAlreadySeated", err)
	}
	if _, _, err := e.Join(gameID, "user-bob", "bob", Red); !errors.Is(err, ErrColorTaken) {
		t.Errorf("taken color = %v, want ErrColorTaken", err)
	}
	if _, _, err := e.Join(gameID, "user-carol", "carol", Yellow); !errors.Is(err, ErrNotInLobby) {
		t.Errorf("non-participant = %v, want ErrNotInLobby", err)
	}
	if _, _, err := e.Join("no-such-game", "user-alice", "alice", Red); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("unknown game = %v, want ErrGameNotFound", err)
	}
}

func TestRollDice(t *testing.T) {
	dice := &scriptedDice{values: []int{4}}
	e, db := newTestEngine(t, dice)
	gameID := startedGame(t, e, db)

	if _, _, _, err := e.RollDice(gameID, "user-bob"); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("roll out of turn = %v, want ErrNotYourTurn", err)
	}

	value, _, events, err := e.RollDice(gameID, "user-alice")
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if value != 4 {
		t.Errorf("value = %d, want scripted 4", value)
	}
	if len(events) == 0 || events[0].Type != EventDiceRolled {
		t.Errorf("expected a dice_rolled event, got %+v", events)
	}

	// The roll alone does not advance the turn.
	detail, err := e.GetGame(gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if detail.CurrentTurn != "user-alice" {
		t.Errorf("current turn after roll = %q, want user-alice", detail.CurrentTurn)
	}
	if len(detail.DiceRolls) != 1 || detail.DiceRolls[0].Value != 4 {
		t.Errorf("roll history = %+v, want one roll of 4", detail.DiceRolls)
	}
}

func TestMovePieceFlow(t *testing.T) {
	e, db := newTestEngine(t, &scriptedDice{values: []int{6}})
	gameID := startedGame(t, e, db)

	// Exit home on a 6: piece lands on RED's start square, turn stays.
	snap, _, err := e.MovePiece(gameID, "user-alice", 0, 6)
	if err != nil {
		t.Fatalf("move out of home: %v", err)
	}
	if got := snap.Players[0].Positions[0]; got != 0 {
		t.Errorf("piece position = %d, want 0", got)
	}
	if snap.CurrentTurn != "user-alice" {
		t.Errorf("turn after a 6 = %q, want user-alice", snap.CurrentTurn)
	}

	// A non-6 move advances the piece and rotates the turn.
	snap, _, err = e.MovePiece(gameID, "user-alice", 0, 3)
	if err != nil {
		t.Fatalf("move on track: %v", err)
	}
	if got := snap.Players[0].Positions[0]; got != 3 {
		t.Errorf("piece position = %d, want 3", got)
	}
	if snap.CurrentTurn != "user-bob" {
		t.Errorf("turn after non-6 = %q, want user-bob", snap.CurrentTurn)
	}

	detail, err := e.GetGame(gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(detail.Moves) != 2 {
		t.Fatalf("move history length = %d, want 2", len(detail.Moves))
	}
	// Tail is most recent first.
	if detail.Moves[0].FromPos != 0 || detail.Moves[0].ToPos != 3 {
		t.Errorf("latest move = %+v, want 0 -> 3", detail.Moves[0])
	}
}

// The winning transition and the frozen session are exercised through a
// fresh engine to cover loading persisted state as well.
func TestWinFreezesGame(t *testing.T) {
	e, db := newTestEngine(t, &scriptedDice{values: []int{1}})
	gameID := startedGame(t, e, db)

	// Put RED one move away from winning, directly in the store.
	if err := db.ApplyGameUpdate(
		&store.Game{ID: gameID, Status: string(StatusPlaying), CurrentTurn: "user-alice"},
		[]*store.GamePlayer{{
			UserID:    "user-alice",
			Color:     Red.String(),
			Positions: [4]int{100, 101, 102, 50},
			IsReady:   true,
		}},
		nil, nil,
	); err != nil {
		t.Fatalf("seed near-win state: %v", err)
	}

	fresh := NewEngine(db, &scriptedDice{values: []int{1}})
	snap, events, err := fresh.MovePiece(gameID, "user-alice", 3, 2)
	if err != nil {
		t.Fatalf("winning move: %v", err)
	}
	if snap.Status != StatusFinished {
		t.Errorf("status = %s, want FINISHED", snap.Status)
	}
	if snap.Winner != "user-alice" {
		t.Errorf("winner = %q, want user-alice", snap.Winner)
	}

	var sawEnded bool
	for _, ev := range events {
		if ev.Type == EventGameEnded {
			sawEnded = true
		}
	}
	if !sawEnded {
		t.Error("expected a game_ended event")
	}

	if _, _, err := fresh.MovePiece(gameID, "user-bob", 0, 6); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("move after finish = %v, want ErrNotPlaying", err)
	}
	if _, _, _, err := fresh.RollDice(gameID, "user-alice"); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("roll after finish = %v, want ErrNotPlaying", err)
	}
}

// N concurrent identical moves: exactly one is applied, the rest are
// rejected, and the final state reflects a single mutation.
func TestConcurrentMovesApplyOnce(t *testing.T) {
	e, db := newTestEngine(t, &scriptedDice{values: []int{1}})
	gameID := startedGame(t, e, db)

	// RED piece 0 on the track, RED to move.
	if _, _, err := e.MovePiece(gameID, "user-alice", 0, 6); err != nil {
		t.Fatalf("setup move: %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, results[i] = e.MovePiece(gameID, "user-alice", 0, 2)
		}(i)
	}
	wg.Wait()

	var applied, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			applied++
		case errors.Is(err, ErrNotYourTurn):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if applied != 1 || rejected != n-1 {
		t.Fatalf("applied = %d, rejected = %d, want 1 and %d", applied, rejected, n-1)
	}

	detail, err := e.GetGame(gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got := detail.Players[0].Positions[0]; got != 2 {
		t.Errorf("piece position = %d, want exactly one move applied (2)", got)
	}
	if detail.CurrentTurn != "user-bob" {
		t.Errorf("current turn = %q, want user-bob", detail.CurrentTurn)
	}
}

func TestGetGameByLobby(t *testing.T) {
	e, db := newTestEngine(t, &scriptedDice{values: []int{1}})
	gameID := startedGame(t, e, db)

	detail, err := e.GetGameByLobby("lobby-1")
	if err != nil {
		t.Fatalf("get by lobby: %v", err)
	}
	if detail.ID != gameID {
		t.Errorf("game id = %q, want %q", detail.ID, gameID)
	}

	if _, err := e.GetGameByLobby("no-such-lobby"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("unknown lobby = %v, want ErrGameNotFound", err)
	}
}
