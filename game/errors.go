package game

import "errors"

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrPlayerNotFound = errors.New("player not seated in game")

	ErrLobbyHasGame   = errors.New("lobby already has a game")
	ErrLobbyFull      = errors.New("lobby is full")
	ErrAlreadyInLobby = errors.New("already in lobby")
	ErrNotInLobby     = errors.New("user is not a lobby participant")
	ErrGameStarted    = errors.New("game already started")
	ErrGameFull       = errors.New("game is full")
	ErrAlreadySeated  = errors.New("already seated in game")
	ErrColorTaken     = errors.New("color already taken")
	ErrNotPlaying     = errors.New("game is not in playing state")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNeedSix        = errors.New("need to roll a 6 to move a piece out of home")

	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidPiece = errors.New("piece index must be between 0 and 3")
	ErrInvalidDice  = errors.New("dice value must be between 1 and 6")
	ErrInvalidName  = errors.New("lobby name must be 1-50 characters")

	ErrBusy = errors.New("game is busy, try again")
)

// Kind buckets rejections for transport-level mapping. Store and transport
// failures surface as Unavailable; everything else is a local, terminal
// rejection that changed no state.
type Kind int

const (
	KindUnavailable Kind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
)

func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrGameNotFound),
		errors.Is(err, ErrLobbyNotFound),
		errors.Is(err, ErrPlayerNotFound):
		return KindNotFound
	case errors.Is(err, ErrLobbyHasGame),
		errors.Is(err, ErrLobbyFull),
		errors.Is(err, ErrAlreadyInLobby),
		errors.Is(err, ErrNotInLobby),
		errors.Is(err, ErrGameStarted),
		errors.Is(err, ErrGameFull),
		errors.Is(err, ErrAlreadySeated),
		errors.Is(err, ErrColorTaken),
		errors.Is(err, ErrNotPlaying),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrNeedSix):
		return KindConflict
	case errors.Is(err, ErrInvalidColor),
		errors.Is(err, ErrInvalidPiece),
		errors.Is(err, ErrInvalidDice),
		errors.Is(err, ErrInvalidName):
		return KindInvalidInput
	default:
		return KindUnavailable
	}
}
