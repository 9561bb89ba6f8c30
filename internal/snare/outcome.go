package snare

import "github.com/google/uuid"

// OutcomeType describes something a snare did.
type OutcomeType string

const (
	OutcomeSprung           OutcomeType = "Sprung"
	OutcomeSnared           OutcomeType = "Snared"
	OutcomeHeld             OutcomeType = "Held"
	OutcomeEscaped          OutcomeType = "Escaped"
	OutcomeMentalState      OutcomeType = "MentalState"
	OutcomeNotification     OutcomeType = "Notification"
	OutcomeRebuildRequested OutcomeType = "RebuildRequested"
	OutcomeDisabled         OutcomeType = "Disabled"
	OutcomeEnabled          OutcomeType = "Enabled"
)

// MentalState is a state the host should try to start on an escaped creature.
type MentalState string

const (
	MentalStateBerserk   MentalState = "berserk"
	MentalStatePanicFlee MentalState = "panic_flee"
)

// NotificationType selects how the player hears about a snared creature.
type NotificationType string

const (
	NotifyNone          NotificationType = "none"
	NotifySilentText    NotificationType = "silent_text"
	NotifyTextWithSound NotificationType = "text_with_sound"
	NotifyLetter        NotificationType = "letter"
)

// NotificationTypes lists every mode in settings order.
func NotificationTypes() []NotificationType {
	return []NotificationType{NotifyNone, NotifySilentText, NotifyTextWithSound, NotifyLetter}
}

// Outcome is emitted for the host to act upon; the snare never executes
// mental states, notifications or construction itself.
type Outcome struct {
	SnareID      uuid.UUID        `json:"snare_id"`
	Type         OutcomeType      `json:"type"`
	Tick         int64            `json:"tick"`
	CreatureID   string           `json:"creature_id,omitempty"`
	Creature     string           `json:"creature,omitempty"`
	Grip         Grip             `json:"grip,omitempty"`
	MentalState  MentalState      `json:"mental_state,omitempty"`
	Notification NotificationType `json:"notification,omitempty"`
	Positive     bool             `json:"positive,omitempty"`
}
