package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wsaico/gestor360-sub002/internal/general/contracts"
)

func finisherTestEntry() Entry {
	return Entry{
		ID:         1,
		ScheduleID: "sch-1",
		CheckIns:   []contracts.CheckInRecord{{PassengerID: "p1", Boarded: true}},
		CapturedAt: time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
	}
}

func TestHTTPFinisherSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody finishRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fin := NewHTTPFinisher(srv.URL+"/", "tok-123")
	if err := fin.Finish(context.Background(), finisherTestEntry()); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if gotPath != "/schedules/sch-1/finish" {
		t.Errorf("path = %s, want /schedules/sch-1/finish", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if len(gotBody.CheckIns) != 1 || gotBody.CheckIns[0].PassengerID != "p1" {
		t.Errorf("check-ins = %+v", gotBody.CheckIns)
	}
}

func TestHTTPFinisherStatusClassification(t *testing.T) {
	tests := []struct {
		status        int
		wantPermanent bool
	}{
		{http.StatusCreated, false},
		{http.StatusConflict, true},
		{http.StatusUnprocessableEntity, true},
		{http.StatusNotFound, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		fin := NewHTTPFinisher(srv.URL, "tok")
		err := fin.Finish(context.Background(), finisherTestEntry())
		srv.Close()

		if tt.status < 300 {
			if err != nil {
				t.Errorf("status %d: unexpected error %v", tt.status, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
			continue
		}
		var perm *PermanentError
		if got := errors.As(err, &perm); got != tt.wantPermanent {
			t.Errorf("status %d: permanent = %v, want %v (err: %v)", tt.status, got, tt.wantPermanent, err)
		}
	}
}

func TestHTTPFinisherNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	fin := NewHTTPFinisher(srv.URL, "tok")
	err := fin.Finish(context.Background(), finisherTestEntry())
	if err == nil {
		t.Fatal("expected error against a closed server")
	}
	var perm *PermanentError
	if errors.As(err, &perm) {
		t.Errorf("network error classified permanent: %v", err)
	}
}
