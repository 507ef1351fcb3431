package ipc

// Message types the game client sends.
const (
	TypeHello        = "hello"
	TypeGameState    = "game_state"
	TypeActionResult = "action_result"
)

// TypeAck is the only reply the sidecar sends to a client message.
const TypeAck = "ack"

// HelloMessage identifies the player. Allies, when present, replace the
// configured ally list for the session.
type HelloMessage struct {
	Player string   `json:"player"`
	Allies []string `json:"allies,omitempty"`
}

// ActionResultMessage reports the outcome of a turret command the game
// executed after the tick it was issued in.
type ActionResultMessage struct {
	Territory string `json:"territory"`
	Action    string `json:"action"`
	Target    string `json:"target"`
	Code      string `json:"code"`
}

// Result codes carried by ActionResultMessage.
const (
	CodeOK            = "ok"
	CodeNotInRange    = "not_in_range"
	CodeInvalidTarget = "invalid_target"
)

type AckMessage struct {
	Status string `json:"status"`
	Tick   int    `json:"tick,omitempty"`
}
