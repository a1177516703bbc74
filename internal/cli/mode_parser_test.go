package cli

import (
	"slices"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantMode string
		wantRest []string
		wantErr  bool
	}{
		{
			name:     "mode flag",
			args:     []string{"--mode=transport-service", "--max-concurrent=100"},
			wantMode: ModeTransport,
			wantRest: []string{"--max-concurrent=100"},
		},
		{
			name:     "subcommand shorthand",
			args:     []string{"settlement", "--max-concurrent=50"},
			wantMode: ModeSettlement,
			wantRest: []string{"--max-concurrent=50"},
		},
		{
			name:     "single letter alias",
			args:     []string{"t"},
			wantMode: ModeTransport,
		},
		{
			name:     "field agent alias with flags",
			args:     []string{"fa", "--drain-now"},
			wantMode: ModeFieldAgent,
			wantRest: []string{"--drain-now"},
		},
		{
			name:     "mode flag alias normalized",
			args:     []string{"--mode=agent"},
			wantMode: ModeFieldAgent,
		},
		{
			name:    "no mode",
			args:    []string{"--max-concurrent=100"},
			wantErr: true,
		},
		{
			name:    "empty args",
			args:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, rest, err := ParseMode(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got mode %q", mode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode: %v", err)
			}
			if mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", mode, tt.wantMode)
			}
			if !slices.Equal(rest, tt.wantRest) {
				t.Errorf("rest = %v, want %v", rest, tt.wantRest)
			}
		})
	}
}
