package game

// Kind identifies a falling item type.
type Kind int

const (
	KindCommonFruit Kind = iota // apple
	KindBonusFruit              // banana
	KindHazard                  // bomb
	KindRareFruit               // golden
	KindPenalty                 // rotten
)

var kindNames = map[Kind]string{
	KindCommonFruit: "apple",
	KindBonusFruit:  "banana",
	KindHazard:      "bomb",
	KindRareFruit:   "golden",
	KindPenalty:     "rotten",
}

// String returns the item name used in config files and on the wire.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves an item name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Lane count is fixed: left, center, right.
const (
	LaneLeft   = 0
	LaneCenter = 1
	LaneRight  = 2
	LaneCount  = 3
)

// Item is a falling object owned by the engine's active set.
type Item struct {
	Kind          Kind    `json:"kind"`
	PointValue    int     `json:"points"`
	FallSpeedTier int     `json:"tier"`
	Lane          int     `json:"lane"`
	Y             float64 `json:"y"` // Top edge, grows downward
}

// IsHazard reports whether catching the item costs a life.
func (it Item) IsHazard() bool {
	return it.Kind == KindHazard
}

// Basket is the player-controlled catcher.
type Basket struct {
	Lane   int     `json:"lane"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Y      float64 `json:"y"` // Top edge
}

// Steering is the per-frame direction signal from the pose classifier
// or keyboard. The zero value means no signal.
type Steering string

const (
	SteerNone   Steering = ""
	SteerLeft   Steering = "Left"
	SteerCenter Steering = "Center"
	SteerRight  Steering = "Right"
)

// Lane returns the lane the signal selects and false when it keeps
// the current lane.
func (s Steering) Lane() (int, bool) {
	switch s {
	case SteerLeft:
		return LaneLeft, true
	case SteerCenter:
		return LaneCenter, true
	case SteerRight:
		return LaneRight, true
	default:
		return 0, false
	}
}
