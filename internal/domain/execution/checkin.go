package execution

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// CheckIn confirms whether a specific manifest passenger actually boarded.
type CheckIn struct {
	PassengerID string
	Boarded     bool
	BoardedAt   time.Time
}

var (
	ErrInvalidCheckIn   = errors.New("invalid check-in")
	ErrUnknownPassenger = fmt.Errorf("%w: passenger is not on the manifest", ErrInvalidCheckIn)
	ErrDuplicateCheckIn = fmt.Errorf("%w: duplicate check-in for passenger", ErrInvalidCheckIn)
)

// ValidateCheckIns verifies each check-in references a manifest passenger and
// that no passenger is checked in twice. Check-in payloads arrive from field
// devices as loosely shaped records, so every required field is re-checked
// here rather than trusted.
func ValidateCheckIns(manifest []string, checkIns []CheckIn) ([]CheckIn, error) {
	seen := make(map[string]bool, len(checkIns))
	out := make([]CheckIn, 0, len(checkIns))

	for _, c := range checkIns {
		pid := strings.TrimSpace(c.PassengerID)
		if pid == "" {
			return nil, fmt.Errorf("%w: passenger id is empty", ErrInvalidCheckIn)
		}
		if !slices.Contains(manifest, pid) {
			return nil, fmt.Errorf("%w (%s)", ErrUnknownPassenger, pid)
		}
		if seen[pid] {
			return nil, fmt.Errorf("%w (%s)", ErrDuplicateCheckIn, pid)
		}
		seen[pid] = true

		ts := c.BoardedAt
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		out = append(out, CheckIn{PassengerID: pid, Boarded: c.Boarded, BoardedAt: ts.UTC()})
	}

	return out, nil
}

// SameCheckIns reports whether two ledgers confirm the same passengers with
// the same boarded flags. Timestamps are ignored: a retried finish carries
// the original capture times but the server may have stamped its own.
func SameCheckIns(a, b []CheckIn) bool {
	if len(a) != len(b) {
		return false
	}
	boarded := make(map[string]bool, len(a))
	for _, c := range a {
		boarded[c.PassengerID] = c.Boarded
	}
	for _, c := range b {
		v, ok := boarded[c.PassengerID]
		if !ok || v != c.Boarded {
			return false
		}
	}
	return true
}
