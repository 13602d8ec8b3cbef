package protocol

import "encoding/json"

// ChangeAction says whether a change clears or fills a tile.
type ChangeAction uint8

const (
	ChangeRemove ChangeAction = 0x01
	ChangeAdd    ChangeAction = 0x02
)

// Reason annotates a change. 0x02 is unused.
type Reason uint8

const (
	ReasonTurnStart      Reason = 0x01
	ReasonNormalMovement Reason = 0x03
	ReasonCapture        Reason = 0x04
	ReasonCardEffect     Reason = 0x05
)

// Piece parameter: kind code 1..8, plus BlackFlag for black pieces.
const BlackFlag uint8 = 0x10

func PieceParam(kind uint8, black bool) uint8 {
	if black {
		return kind + BlackFlag
	}
	return kind
}

// SplitParam returns the kind code and color of a parameter.
func SplitParam(param uint8) (kind uint8, black bool, ok bool) {
	black = param&BlackFlag != 0
	kind = param &^ BlackFlag
	return kind, black, kind >= 1 && kind <= 8 && param < 0x20
}

// Change is one atomic tile mutation.
type Change struct {
	TileID     int          `json:"tileId"`
	ActionType ChangeAction `json:"actionType"`
	Parameter  uint8        `json:"parameter,omitempty"`
	Reason     Reason       `json:"reason"`
}

const (
	StatusRejected uint8 = 0x00
	StatusOK       uint8 = 0x01
)

// Phase names carried in cardPhase.
const (
	PhaseNormal        = "normal"
	PhaseCardSelection = "card-selection"
	PhaseGameOver      = "game-over"
)

// State is both FullState and ActionResult. A rejected result serializes to
// {"status":0} and nothing else.
type State struct {
	Status          uint8    `json:"status"`
	Changes         []Change `json:"changes"`
	TurnNumber      int      `json:"turnNumber"`
	CurrentPlayer   string   `json:"currentPlayer"`
	CardPhase       string   `json:"cardPhase"`
	ActiveCardType  uint8    `json:"activeCardType"`
	CardOwner       string   `json:"cardOwner,omitempty"`
	TopsyTurvyPawns []int    `json:"topsyTurvyPawns"`
	GameOver        bool     `json:"gameOver"`
	Winner          string   `json:"winner,omitempty"`
}

// Rejected is the only shape a refused action ever produces.
func Rejected() State { return State{Status: StatusRejected} }

func (s State) OK() bool { return s.Status == StatusOK }

func (s State) MarshalJSON() ([]byte, error) {
	if s.Status != StatusOK {
		return []byte(`{"status":0}`), nil
	}
	type plain State
	p := plain(s)
	if p.Changes == nil {
		p.Changes = []Change{}
	}
	if p.TopsyTurvyPawns == nil {
		p.TopsyTurvyPawns = []int{}
	}
	return json.Marshal(p)
}
