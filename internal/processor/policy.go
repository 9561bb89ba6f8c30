package processor

import "math"

// Kind names a processor variant.
type Kind string

const (
	KindCharcoalPit   Kind = "charcoal_pit"
	KindVinegarBarrel Kind = "vinegar_barrel"
	KindCheeseBarrel  Kind = "cheese_barrel"
	KindSmoker        Kind = "smoker"
)

// Kinds lists every variant in a stable order.
func Kinds() []Kind {
	return []Kind{KindCharcoalPit, KindVinegarBarrel, KindCheeseBarrel, KindSmoker}
}

// Cadence selects which host tick advances a processor.
type Cadence int

const (
	CadenceTick Cadence = iota
	CadenceRare
)

// Product defs.
const (
	ProductCharcoal   = "charcoal"
	ProductVinegar    = "vinegar"
	ProductCheese     = "cheese"
	ProductSmokedMeat = "smoked_meat"
)

// Policy is the per-variant strategy plugged into the generic processor.
type Policy struct {
	Kind       Kind
	InputLabel string
	ProductDef string
	Accepts    func(Item) bool
	// YieldPerUnit converts input units into product units.
	YieldPerUnit float64
	// AcceptWindow closes deposits once progress reaches it. Zero disables the gate.
	AcceptWindow    float64
	UsesTemperature bool
	Tended          bool
	ConsumesFuel    bool
	TracksOrigins   bool
	Ruinable        bool
	Cadence         Cadence
}

// Yield converts count input units into product units, rounding down.
func (p Policy) Yield(count int) int {
	if count <= 0 {
		return 0
	}
	y := p.YieldPerUnit
	if y <= 0 {
		y = 1
	}
	return int(math.Floor(float64(count)*y + progressEpsilon))
}

func categoryIs(c Category) func(Item) bool {
	return func(i Item) bool { return i.Category == c && i.Count > 0 }
}

func freshFood(i Item) bool {
	if i.Count <= 0 || !i.Fresh() {
		return false
	}
	return i.Category == CategoryMeat || i.Category == CategoryFish
}

// PolicyFor builds the strategy for cfg.Kind.
func PolicyFor(cfg Config) Policy {
	switch cfg.Kind {
	case KindCharcoalPit:
		return Policy{
			Kind:         KindCharcoalPit,
			InputLabel:   "wood",
			ProductDef:   ProductCharcoal,
			Accepts:      categoryIs(CategoryWood),
			YieldPerUnit: cfg.YieldPerUnit,
			Cadence:      CadenceRare,
		}
	case KindVinegarBarrel:
		return Policy{
			Kind:            KindVinegarBarrel,
			InputLabel:      "juice",
			ProductDef:      ProductVinegar,
			Accepts:         categoryIs(CategoryJuice),
			YieldPerUnit:    1,
			UsesTemperature: true,
			Ruinable:        true,
			Cadence:         CadenceRare,
		}
	case KindCheeseBarrel:
		return Policy{
			Kind:            KindCheeseBarrel,
			InputLabel:      "curdled milk",
			ProductDef:      ProductCheese,
			Accepts:         categoryIs(CategoryCurdledMilk),
			YieldPerUnit:    1,
			UsesTemperature: true,
			Ruinable:        true,
			Cadence:         CadenceRare,
		}
	case KindSmoker:
		window := cfg.AcceptWindow
		if window <= 0 {
			window = DefaultSmokerAcceptWindow
		}
		return Policy{
			Kind:            KindSmoker,
			InputLabel:      "food",
			ProductDef:      ProductSmokedMeat,
			Accepts:         freshFood,
			YieldPerUnit:    1,
			AcceptWindow:    window,
			UsesTemperature: true,
			Tended:          true,
			ConsumesFuel:    true,
			TracksOrigins:   true,
			Cadence:         CadenceTick,
		}
	default:
		return Policy{Kind: cfg.Kind, Accepts: func(Item) bool { return false }}
	}
}
