package sesame

import (
	"fmt"
	"strings"
)

// ControlIntent is the requested target action of a control call.
type ControlIntent int

// Control intents understood by the Sesame API.
const (
	IntentLock ControlIntent = iota + 1
	IntentUnlock
)

// String returns the wire value of the intent ("lock" or "unlock").
func (i ControlIntent) String() string {
	switch i {
	case IntentLock:
		return "lock"
	case IntentUnlock:
		return "unlock"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

// Valid reports whether i is one of the defined intents.
func (i ControlIntent) Valid() bool {
	return i == IntentLock || i == IntentUnlock
}

// targetUnlocked is the cached is_unlocked value the device holds after
// the intent succeeds.
func (i ControlIntent) targetUnlocked() bool {
	return i == IntentUnlock
}

// ParseIntent converts "lock" or "unlock" (case-insensitive) to a ControlIntent.
func ParseIntent(s string) (ControlIntent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lock":
		return IntentLock, nil
	case "unlock":
		return IntentUnlock, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidIntent, s)
	}
}
