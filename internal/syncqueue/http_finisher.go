package syncqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
)

// HTTPFinisher delivers queued finish operations to the transport service
// over HTTP. Server-side idempotency makes redelivery safe: a finish that
// was stored but whose response was lost is absorbed as a replay.
type HTTPFinisher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPFinisher builds a finisher for the given transport-service base URL.
func NewHTTPFinisher(baseURL, token string) *HTTPFinisher {
	return &HTTPFinisher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type finishRequest struct {
	CheckIns   []contracts.CheckInRecord `json:"check_ins"`
	FinishedAt time.Time                 `json:"finished_at"`
}

// Finish posts the queued entry to POST /schedules/{id}/finish. Network
// failures and 5xx answers are transient; 4xx answers are permanent
// rejections the queue must not retry.
func (f *HTTPFinisher) Finish(ctx context.Context, e Entry) error {
	body, err := json.Marshal(finishRequest{
		CheckIns:   e.CheckIns,
		FinishedAt: e.CapturedAt,
	})
	if err != nil {
		return &PermanentError{Reason: "encode request", Err: err}
	}

	url := f.BaseURL + "/schedules/" + e.ScheduleID + "/finish"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &PermanentError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.Token)

	resp, err := f.Client.Do(req)
	if err != nil {
		// offline or timed out: transient
		return fmt.Errorf("deliver finish: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("server unavailable: %s", resp.Status)
	default:
		// server refuses this payload; retrying cannot fix it
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return &PermanentError{Reason: fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))}
	}
}
