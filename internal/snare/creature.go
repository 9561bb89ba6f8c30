package snare

// Trainability orders how clever an animal is.
type Trainability int

const (
	TrainabilityNone Trainability = iota
	TrainabilitySimple
	TrainabilityIntermediate
	TrainabilityAdvanced
)

// Creature is the view of a pawn standing on the snare.
type Creature struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Animal   bool    `json:"animal"`
	BodySize float64 `json:"body_size"`
	// Wild creatures belong to no faction.
	Wild bool `json:"wild,omitempty"`
	// Player is true for members and guests of the player faction.
	Player       bool         `json:"player,omitempty"`
	Trainability Trainability `json:"trainability,omitempty"`
	// KnowsTraps mirrors the host's own trap-awareness check.
	KnowsTraps bool `json:"knows_traps,omitempty"`
	Dead       bool `json:"dead,omitempty"`
}

// Grip is the kind of hold a snare has on a creature.
type Grip string

const (
	GripNone  Grip = ""
	GripSmall Grip = "small"
	GripLarge Grip = "large"
)

// gripFor returns the hold for a creature of size, or GripNone if it is too big.
func gripFor(size float64) Grip {
	switch {
	case size > maxBodySize:
		return GripNone
	case size >= largeBodySize:
		return GripLarge
	default:
		return GripSmall
	}
}
