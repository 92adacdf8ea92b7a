package ws

// Client intents arriving on a game socket.
const (
	MsgReady     = "ready"
	MsgRollDice  = "roll_dice"
	MsgMovePiece = "move_piece"
)

type IncomingMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

type OutgoingMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
