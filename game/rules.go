package game

// Legality and transition rules. Every evaluate function takes the session
// snapshot and an intent and either returns the resulting delta or a typed
// rejection without touching the session; apply functions commit a delta.
// The engine calls these only inside the per-session serialization window.

func evaluateJoin(s *Session, userID string, color Color) error {
	if s.Status != StatusWaiting {
		return ErrGameStarted
	}
	if !color.Valid() {
		return ErrInvalidColor
	}
	if len(s.Players) >= 4 {
		return ErrGameFull
	}
	for _, p := range s.Players {
		if p.UserID == userID {
			return ErrAlreadySeated
		}
		if p.Color == color {
			return ErrColorTaken
		}
	}
	return nil
}

func (s *Session) applyJoin(userID, username string, color Color) *SeatedPlayer {
	player := &SeatedPlayer{
		UserID:    userID,
		Username:  username,
		Color:     color,
		Positions: [4]int{PosHome, PosHome, PosHome, PosHome},
	}
	s.Players = append(s.Players, player)
	s.sortPlayers()
	return player
}

// evaluateReady reports whether flipping the flag starts the game. The
// session auto-transitions to PLAYING the instant at least two players are
// seated and every one of them is ready; the first turn goes to the
// lowest-color seat.
func evaluateReady(s *Session, userID string, isReady bool) (starts bool, firstTurn string, err error) {
	player := s.player(userID)
	if player == nil {
		return false, "", ErrPlayerNotFound
	}
	if s.Status != StatusWaiting {
		return false, "", nil
	}
	if !isReady || len(s.Players) < 2 {
		return false, "", nil
	}
	for _, p := range s.Players {
		if p.UserID != userID && !p.IsReady {
			return false, "", nil
		}
	}
	return true, s.Players[0].UserID, nil
}

func (s *Session) applyReady(userID string, isReady, starts bool, firstTurn string) {
	s.player(userID).IsReady = isReady
	if starts {
		s.Status = StatusPlaying
		s.CurrentTurn = firstTurn
	}
}

func evaluateRoll(s *Session, userID string) error {
	if s.Status != StatusPlaying {
		return ErrNotPlaying
	}
	if s.CurrentTurn != userID {
		return ErrNotYourTurn
	}
	return nil
}

type moveOutcome struct {
	UserID   string
	Piece    int
	FromPos  int
	ToPos    int
	Captured *CapturePayload
	Won      bool
	NextTurn string
}

func evaluateMove(s *Session, userID string, piece, dice int) (*moveOutcome, error) {
	if s.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	if s.CurrentTurn != userID {
		return nil, ErrNotYourTurn
	}
	if piece < 0 || piece > 3 {
		return nil, ErrInvalidPiece
	}
	if dice < 1 || dice > 6 {
		return nil, ErrInvalidDice
	}
	player := s.player(userID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	from := player.Positions[piece]
	var to int
	if IsHome(from) {
		if dice != 6 {
			return nil, ErrNeedSix
		}
		to = player.Color.StartSquare()
	} else {
		to = Advance(from, dice, player.Color)
	}

	out := &moveOutcome{
		UserID:  userID,
		Piece:   piece,
		FromPos: from,
		ToPos:   to,
	}

	// Landing on an opposing piece on the shared track sends it home.
	// Home and finish-lane squares are private, so no capture there.
	if IsOnTrack(to) {
		out.Captured = findCapture(s, userID, to)
	}

	positions := player.Positions
	positions[piece] = to
	out.Won = HasWon(positions)

	switch {
	case out.Won:
		out.NextTurn = ""
	case dice == 6:
		// Rolling a 6 grants an extra turn.
		out.NextTurn = userID
	default:
		out.NextTurn = s.nextTurn(userID)
	}
	return out, nil
}

// findCapture returns the first opposing piece sitting on the square. At
// most one piece is displaced per move; there is no stacking rule and no
// safe squares.
func findCapture(s *Session, moverID string, square int) *CapturePayload {
	for _, other := range s.Players {
		if other.UserID == moverID {
			continue
		}
		for piece, pos := range other.Positions {
			if pos == square {
				return &CapturePayload{UserID: other.UserID, Piece: piece}
			}
		}
	}
	return nil
}

func (s *Session) applyMove(out *moveOutcome) {
	s.player(out.UserID).Positions[out.Piece] = out.ToPos
	if out.Captured != nil {
		s.player(out.Captured.UserID).Positions[out.Captured.Piece] = PosHome
	}
	if out.Won {
		s.Status = StatusFinished
		s.Winner = out.UserID
		return
	}
	s.CurrentTurn = out.NextTurn
}
