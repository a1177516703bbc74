package contracts

import "time"

// ExecutionSnapshot is the latest state of a trip execution, delivered to
// live-tracking subscribers on every change.
type ExecutionSnapshot struct {
	ScheduleID    string     `json:"schedule_id"`
	Status        string     `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	LastLocation  *GeoPoint  `json:"last_location,omitempty"`
	LastCaptured  *time.Time `json:"last_captured_at,omitempty"`
	SampleCount   int        `json:"sample_count"`
	CheckInCount  int        `json:"check_in_count"`
	BoardedCount  int        `json:"boarded_count"`
	ManifestCount int        `json:"manifest_count"`
}

// ExecutionUpdateMessage is published to the execution fanout exchange on
// every execution change and bridged to WebSocket subscribers.
type ExecutionUpdateMessage struct {
	Snapshot  ExecutionSnapshot `json:"snapshot"`
	Timestamp time.Time         `json:"timestamp"`
	Envelope  Envelope          `json:"envelope"`
}

// ScheduleStatusMessage is published to the transport topic exchange when a
// schedule changes status (started, completed, cancelled).
type ScheduleStatusMessage struct {
	ScheduleID string    `json:"schedule_id"`
	ProviderID string    `json:"provider_id"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status"`
	CostCents  int64     `json:"cost_cents,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope   Envelope  `json:"envelope"`
}
