package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeTransport  = "transport-service"
	ModeSettlement = "settlement-service"
	ModeFieldAgent = "field-agent"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeTransport, "transport", "t":
		return ModeTransport, true
	case ModeSettlement, "settlement", "s":
		return ModeSettlement, true
	case ModeFieldAgent, "agent", "fa":
		return ModeFieldAgent, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `transport-service --max-concurrent=100`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<service>")
	}

	if m, ok := isKnownMode(mode); ok {
		mode = m
	}

	return mode, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./transport-ops --mode=<service> [flags]

Services (modes):
  transport-service            HTTP API for trip scheduling, execution tracking, and live tracking
  settlement-service           Settlement generation and reconciliation API
  field-agent                  Offline-safe client syncing queued trip finishes

Examples:
  ./transport-ops --mode=transport-service --max-concurrent=100
  ./transport-ops --mode=settlement-service --max-concurrent=50
  ./transport-ops --mode=field-agent --record=sch-123 --check-ins=checkins.json
  ./transport-ops --mode=field-agent --drain-now`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./transport-ops --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
