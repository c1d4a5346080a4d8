package types

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidID is returned for identifiers that are not UUIDs.
var ErrInvalidID = errors.New("invalid id")

type SessionID string
type EventID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// ParseSessionID accepts only UUID session ids, in canonical form.
func ParseSessionID(s string) (SessionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: session %q", ErrInvalidID, s)
	}
	return SessionID(id.String()), nil
}

func NewEventID() EventID {
	return EventID(uuid.New().String())
}
