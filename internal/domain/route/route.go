package route

import (
	"errors"
	"strings"
)

// BillingType describes how an organization is charged for trips on a route.
type BillingType string

const (
	BillingPerTrip      BillingType = "PER_TRIP"
	BillingPerPassenger BillingType = "PER_PASSENGER"
)

var ErrInvalidBillingType = errors.New("invalid billing type")

// ParseBillingType normalizes and validates a billing type string.
func ParseBillingType(in string) (BillingType, error) {
	bt := BillingType(strings.ToUpper(strings.TrimSpace(in)))
	if bt.Valid() {
		return bt, nil
	}
	return "", ErrInvalidBillingType
}

// Valid reports whether bt is a known billing type.
func (bt BillingType) Valid() bool {
	return bt == BillingPerTrip || bt == BillingPerPassenger
}

// String returns the string representation of the BillingType.
func (bt BillingType) String() string {
	return string(bt)
}

// Route is the pricing reference consumed from the route catalog. This core
// reads routes to default a new schedule's cost; catalog maintenance lives
// elsewhere.
type Route struct {
	ID             string
	OrganizationID string
	Origin         string
	Destination    string
	BillingType    BillingType
	BasePriceCents int64
}

// DefaultCostCents prices a trip on this route for a manifest of the given
// size. PER_PASSENGER routes multiply the base price by the manifest size;
// PER_TRIP routes charge the base price regardless.
func (r *Route) DefaultCostCents(manifestSize int) int64 {
	if r.BillingType == BillingPerPassenger {
		if manifestSize < 0 {
			manifestSize = 0
		}
		return r.BasePriceCents * int64(manifestSize)
	}
	return r.BasePriceCents
}
