package parser

type IntentKind int

const (
	Command IntentKind = iota
	Query
	Help
	Unknown
)

// Quantity is a count or a span of time typed alongside a command.
type Quantity struct {
	Raw  string
	N    int
	Unit string
}

type Intent struct {
	Raw        string
	Normalised string
	Kind       IntentKind
	Verb       string
	Args       []string
	Quantity   *Quantity
	Confidence float64
	Clarify    *ClarifyQuestion
}

type ClarifyQuestion struct {
	Prompt  string
	Options []Intent
}

// ParseContext lists what names are currently meaningful.
type ParseContext struct {
	Processors []string
	Snares     []string
	Kinds      []string
	Items      []string
	Animals    []string
	LastEntity string
}

type CommandDef struct {
	Canonical  string
	Aliases    []string
	MinArgs    int
	MaxArgs    int
	HandlerKey string
	// RawArgs keeps the arguments exactly as typed (file paths).
	RawArgs bool
	// Quantity lets a count or duration token appear anywhere in the args.
	Quantity bool
}
