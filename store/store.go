package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store interface {
	CreateUser(id, username, passwordHash string) error
	GetUserByUsername(username string) (*User, error)
	GetUserByID(userID string) (*User, error)

	CreateLobby(id, name, creatorID string) error
	GetLobby(lobbyID string) (*Lobby, error)
	ListLobbies() ([]*Lobby, error)
	AddLobbyParticipant(lobbyID, userID string) error

	CreateGame(id, lobbyID string) error
	GetGame(gameID string) (*Game, error)
	GetGameByLobby(lobbyID string) (*Game, error)
	AddGamePlayer(gameID, userID, color string) error
	GetGamePlayers(gameID string) ([]*GamePlayer, error)
	ApplyGameUpdate(game *Game, players []*GamePlayer, move *Move, roll *DiceRoll) error
	RecentMoves(gameID string, limit int) ([]*Move, error)
	RecentDiceRolls(gameID string, limit int) ([]*DiceRoll, error)

	Close() error
}

type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    string
}

type Lobby struct {
	ID           string
	Name         string
	CreatorID    string
	CreatedAt    string
	Participants []string
}

type Game struct {
	ID          string
	LobbyID     string
	Status      string
	CurrentTurn string
	Winner      string
	CreatedAt   string
}

type GamePlayer struct {
	GameID    string
	UserID    string
	Username  string
	Color     string
	Positions [4]int
	IsReady   bool
}

type Move struct {
	ID        int64
	GameID    string
	PlayerID  string
	Piece     int
	FromPos   int
	ToPos     int
	CreatedAt string
}

type DiceRoll struct {
	ID        int64
	GameID    string
	PlayerID  string
	Value     int
	CreatedAt string
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateUser(id, username, passwordHash string) error {
	_, err := s.db.Exec(
		"INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)",
		id, username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByUsername(username string) (*User, error) {
	user := &User{}
	err := s.db.QueryRow(
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) GetUserByID(userID string) (*User, error) {
	user := &User{}
	err := s.db.QueryRow(
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) CreateLobby(id, name, creatorID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO lobbies (id, name, creator_id) VALUES (?, ?, ?)",
		id, name, creatorID,
	); err != nil {
		return fmt.Errorf("failed to create lobby: %w", err)
	}

	// The creator is always the first participant.
	if _, err := tx.Exec(
		"INSERT INTO lobby_participants (lobby_id, user_id) VALUES (?, ?)",
		id, creatorID,
	); err != nil {
		return fmt.Errorf("failed to add creator to lobby: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLobby(lobbyID string) (*Lobby, error) {
	lobby := &Lobby{}
	err := s.db.QueryRow(
		"SELECT id, name, creator_id, created_at FROM lobbies WHERE id = ?",
		lobbyID,
	).Scan(&lobby.ID, &lobby.Name, &lobby.CreatorID, &lobby.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby: %w", err)
	}

	participants, err := s.lobbyParticipants(lobbyID)
	if err != nil {
		return nil, err
	}
	lobby.Participants = participants
	return lobby, nil
}

func (s *SQLiteStore) ListLobbies() ([]*Lobby, error) {
	rows, err := s.db.Query(
		"SELECT id, name, creator_id, created_at FROM lobbies ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lobbies: %w", err)
	}
	defer rows.Close()

	var lobbies []*Lobby
	for rows.Next() {
		lobby := &Lobby{}
		if err := rows.Scan(&lobby.ID, &lobby.Name, &lobby.CreatorID, &lobby.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lobby: %w", err)
		}
		lobbies = append(lobbies, lobby)
	}

	for _, lobby := range lobbies {
		participants, err := s.lobbyParticipants(lobby.ID)
		if err != nil {
			return nil, err
		}
		lobby.Participants = participants
	}
	return lobbies, nil
}

func (s *SQLiteStore) AddLobbyParticipant(lobbyID, userID string) error {
	_, err := s.db.Exec(
		"INSERT INTO lobby_participants (lobby_id, user_id) VALUES (?, ?)",
		lobbyID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add lobby participant: %w", err)
	}
	return nil
}

func (s *SQLiteStore) lobbyParticipants(lobbyID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT user_id FROM lobby_participants WHERE lobby_id = ? ORDER BY joined_at",
		lobbyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby participants: %w", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}
	return participants, nil
}

func (s *SQLiteStore) CreateGame(id, lobbyID string) error {
	_, err := s.db.Exec(
		"INSERT INTO games (id, lobby_id, status) VALUES (?, ?, 'WAITING')",
		id, lobbyID,
	)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGame(gameID string) (*Game, error) {
	game := &Game{}
	err := s.db.QueryRow(
		"SELECT id, lobby_id, status, current_turn, winner, created_at FROM games WHERE id = ?",
		gameID,
	).Scan(&game.ID, &game.LobbyID, &game.Status, &game.CurrentTurn, &game.Winner, &game.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (s *SQLiteStore) GetGameByLobby(lobbyID string) (*Game, error) {
	game := &Game{}
	err := s.db.QueryRow(
		"SELECT id, lobby_id, status, current_turn, winner, created_at FROM games WHERE lobby_id = ?",
		lobbyID,
	).Scan(&game.ID, &game.LobbyID, &game.Status, &game.CurrentTurn, &game.Winner, &game.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by lobby: %w", err)
	}
	return game, nil
}

func (s *SQLiteStore) AddGamePlayer(gameID, userID, color string) error {
	_, err := s.db.Exec(
		"INSERT INTO game_players (game_id, user_id, color) VALUES (?, ?, ?)",
		gameID, userID, color,
	)
	if err != nil {
		return fmt.Errorf("failed to add game player: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGamePlayers(gameID string) ([]*GamePlayer, error) {
	rows, err := s.db.Query(`
		SELECT gp.game_id, gp.user_id, u.username, gp.color, gp.positions, gp.is_ready
		FROM game_players gp
		JOIN users u ON gp.user_id = u.id
		WHERE gp.game_id = ?
		ORDER BY gp.color
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game players: %w", err)
	}
	defer rows.Close()

	var players []*GamePlayer
	for rows.Next() {
		player := &GamePlayer{}
		var positions string
		var isReady int
		if err := rows.Scan(&player.GameID, &player.UserID, &player.Username, &player.Color, &positions, &isReady); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		if err := json.Unmarshal([]byte(positions), &player.Positions); err != nil {
			return nil, fmt.Errorf("failed to decode positions: %w", err)
		}
		player.IsReady = isReady == 1
		players = append(players, player)
	}
	return players, nil
}

// ApplyGameUpdate writes one accepted transition in a single transaction:
// the game row, every affected player row, and the optional history records.
// Readers never observe a half-applied transition.
func (s *SQLiteStore) ApplyGameUpdate(game *Game, players []*GamePlayer, move *Move, roll *DiceRoll) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"UPDATE games SET status = ?, current_turn = ?, winner = ? WHERE id = ?",
		game.Status, game.CurrentTurn, game.Winner, game.ID,
	); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	for _, player := range players {
		positions, err := json.Marshal(player.Positions)
		if err != nil {
			return fmt.Errorf("failed to encode positions: %w", err)
		}
		readyVal := 0
		if player.IsReady {
			readyVal = 1
		}
		if _, err := tx.Exec(
			"UPDATE game_players SET positions = ?, is_ready = ? WHERE game_id = ? AND user_id = ?",
			string(positions), readyVal, game.ID, player.UserID,
		); err != nil {
			return fmt.Errorf("failed to update game player: %w", err)
		}
	}

	if move != nil {
		if _, err := tx.Exec(
			"INSERT INTO moves (game_id, player_id, piece, from_pos, to_pos) VALUES (?, ?, ?, ?, ?)",
			move.GameID, move.PlayerID, move.Piece, move.FromPos, move.ToPos,
		); err != nil {
			return fmt.Errorf("failed to append move: %w", err)
		}
	}

	if roll != nil {
		if _, err := tx.Exec(
			"INSERT INTO dice_rolls (game_id, player_id, value) VALUES (?, ?, ?)",
			roll.GameID, roll.PlayerID, roll.Value,
		); err != nil {
			return fmt.Errorf("failed to append dice roll: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentMoves(gameID string, limit int) ([]*Move, error) {
	rows, err := s.db.Query(
		"SELECT id, game_id, player_id, piece, from_pos, to_pos, created_at FROM moves WHERE game_id = ? ORDER BY id DESC LIMIT ?",
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}
	defer rows.Close()

	var moves []*Move
	for rows.Next() {
		move := &Move{}
		if err := rows.Scan(&move.ID, &move.GameID, &move.PlayerID, &move.Piece, &move.FromPos, &move.ToPos, &move.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		moves = append(moves, move)
	}
	return moves, nil
}

func (s *SQLiteStore) RecentDiceRolls(gameID string, limit int) ([]*DiceRoll, error) {
	rows, err := s.db.Query(
		"SELECT id, game_id, player_id, value, created_at FROM dice_rolls WHERE game_id = ? ORDER BY id DESC LIMIT ?",
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get dice rolls: %w", err)
	}
	defer rows.Close()

	var rolls []*DiceRoll
	for rows.Next() {
		roll := &DiceRoll{}
		if err := rows.Scan(&roll.ID, &roll.GameID, &roll.PlayerID, &roll.Value, &roll.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dice roll: %w", err)
		}
		rolls = append(rolls, roll)
	}
	return rolls, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
