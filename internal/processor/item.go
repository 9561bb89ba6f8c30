package processor

// Category groups input defs by what a processor can do with them.
type Category string

const (
	CategoryWood        Category = "wood"
	CategoryJuice       Category = "juice"
	CategoryCurdledMilk Category = "curdled_milk"
	CategoryMeat        Category = "meat"
	CategoryFish        Category = "fish"
	CategoryOther       Category = "other"
)

// RotStage mirrors the freshness stages of perishable stacks.
type RotStage int

const (
	RotFresh RotStage = iota
	RotSpoiled
	RotDessicated
)

func (s RotStage) String() string {
	switch s {
	case RotFresh:
		return "fresh"
	case RotSpoiled:
		return "spoiled"
	case RotDessicated:
		return "dessicated"
	default:
		return "unknown"
	}
}

// Item is a stack offered to a processor.
type Item struct {
	Def        string   `json:"def"`
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	Perishable bool     `json:"perishable,omitempty"`
	Stage      RotStage `json:"stage,omitempty"`
	// RotProgress is how far the stack has rotted, as a fraction of one day.
	RotProgress float64 `json:"rot_progress,omitempty"`
}

// Fresh reports whether the stack is either imperishable or still fresh.
func (i Item) Fresh() bool {
	return !i.Perishable || i.Stage == RotFresh
}

// Product is what comes out of a finished processor.
type Product struct {
	Def   string `json:"def"`
	Count int    `json:"count"`
	// Ingredient is the origin the product is tagged with, drawn weighted by
	// sub-stack size for processors that track origins.
	Ingredient string        `json:"ingredient,omitempty"`
	Origins    []SourceCount `json:"origins,omitempty"`
}

func (p Product) IsZero() bool {
	return p.Def == "" || p.Count <= 0
}
