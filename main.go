package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	fieldagent "github.com/wsaico/gestor360-sub002/cmd/field_agent"
	settlementservice "github.com/wsaico/gestor360-sub002/cmd/settlement_service"
	transportservice "github.com/wsaico/gestor360-sub002/cmd/transport_service"
	"github.com/wsaico/gestor360-sub002/internal/cli"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// run the service specified by the mode flag
	switch mode {

	case cli.ModeTransport:
		fs := flag.NewFlagSet(cli.ModeTransport, flag.ContinueOnError)
		prefetch := fs.Int("prefetch", 50, "RabbitMQ prefetch count for consumer channels")
		maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
		cli.AttachUsage(fs, cli.ModeTransport)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *prefetch <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
			fs.Usage()
			os.Exit(2)
		}
		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := transportservice.Run(ctx, *prefetch, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeSettlement:
		fs := flag.NewFlagSet(cli.ModeSettlement, flag.ContinueOnError)
		maxConc := fs.Int("max-concurrent", 50, "Maximum number of concurrent HTTP requests to process")
		cli.AttachUsage(fs, cli.ModeSettlement)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := settlementservice.Run(ctx, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeFieldAgent:
		fs := flag.NewFlagSet(cli.ModeFieldAgent, flag.ContinueOnError)
		token := fs.String("token", "", "Bearer token for the transport service")
		record := fs.String("record", "", "Enqueue a finish for this schedule id and exit")
		checkIns := fs.String("check-ins", "", "JSON file with check-in records (used with --record)")
		drainNow := fs.Bool("drain-now", false, "Drain the queue once and exit")
		showFailures := fs.Bool("failures", false, "List permanently rejected entries and exit")
		cli.AttachUsage(fs, cli.ModeFieldAgent)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *checkIns != "" && *record == "" {
			fmt.Fprintln(os.Stderr, "Error: --check-ins requires --record")
			fs.Usage()
			os.Exit(2)
		}
		opts := fieldagent.Options{
			Token:            *token,
			RecordScheduleID: *record,
			CheckInsPath:     *checkIns,
			DrainNow:         *drainNow,
			ShowFailures:     *showFailures,
		}
		if err := fieldagent.Run(ctx, opts); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}
