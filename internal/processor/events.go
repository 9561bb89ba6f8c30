package processor

import "github.com/google/uuid"

// EventType describes something a processor did.
type EventType string

const (
	EventDeposited EventType = "Deposited"
	EventFinished  EventType = "Finished"
	EventExtracted EventType = "Extracted"
	EventTended    EventType = "Tended"
	EventSpoiled   EventType = "Spoiled"
	EventRuined    EventType = "Ruined"
	EventReset     EventType = "Reset"
)

// Event is emitted to the optional sink passed in Options.
type Event struct {
	ProcessorID uuid.UUID
	Kind        Kind
	Type        EventType
	Tick        int64
	Count       int
	Def         string
	Reason      string
}
