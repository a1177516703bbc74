package contracts

import "time"

// Envelope adds cross-cutting headers all messages may carry.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"` // Correlation for tracing across services
	Producer      string    `json:"producer,omitempty"`       // Producer service name, e.g. "transport-service"
	SentAt        time.Time `json:"sent_at,omitempty"`        // ISO-8601 send time (UTC)
}

// GeoPoint is a latitude/longitude pair on the wire.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CheckInRecord is the wire shape of one check-in. Required fields are
// validated at the execution tracker boundary, never trusted as opaque data.
type CheckInRecord struct {
	PassengerID string    `json:"passenger_id"`
	Boarded     bool      `json:"boarded"`
	BoardedAt   time.Time `json:"boarded_at,omitempty"`
}
