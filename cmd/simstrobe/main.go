// Command simstrobe ingests a value-change trace into a fingerprint
// database, creating it fresh or extending a prior one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"time"

	"simalign/internal/config"
	"simalign/internal/hoststats"
	"simalign/internal/logging"
	"simalign/internal/progressui"
	"simalign/internal/statusapi"
	"simalign/pkg/hashdb"
	"simalign/pkg/ingest"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("simstrobe", flag.ContinueOnError)
	dbInput := fs.String("db-input", "", "path to a prior database to extend (optional)")
	statusAddr := fs.String("status-addr", "", "bind address for the read-only status server (optional)")
	tui := fs.Bool("tui", false, "render ingestion progress as a terminal UI")
	hostMetrics := fs.Bool("host-metrics", false, "log periodic host CPU/memory samples at DEBUG")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) != 4 {
		fmt.Fprintln(os.Stderr, "usage: simstrobe [flags] <trace> <strobe_start> <strobe_period> <output_db>")
		return 2
	}
	tracePath, startStr, periodStr, outPath := rest[0], rest[1], rest[2], rest[3]

	strobeStart, err := strconv.ParseUint(startStr, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simstrobe: invalid strobe_start %q: %v\n", startStr, err)
		return 1
	}
	strobePeriod, err := strconv.ParseUint(periodStr, 10, 64)
	if err != nil || strobePeriod == 0 {
		fmt.Fprintf(os.Stderr, "simstrobe: invalid strobe_period %q\n", periodStr)
		return 1
	}

	if err := config.ValidateStatusAddr(*statusAddr); err != nil {
		fmt.Fprintf(os.Stderr, "simstrobe: %v\n", err)
		return 2
	}

	log, err := logging.NewLogger(&logging.LoggingConfig{Level: *logLevel, Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "simstrobe: logger init failed: %v\n", err)
		return 1
	}

	log.Info("args: trace=%s strobe_start=%d strobe_period=%d db_input=%q status_addr=%q tui=%v host_metrics=%v output=%s",
		tracePath, strobeStart, strobePeriod, *dbInput, *statusAddr, *tui, *hostMetrics, outPath)

	defaults := config.Load()
	if *statusAddr == "" {
		if err := config.ValidateStatusAddr(defaults.StatusAddr); err != nil {
			fmt.Fprintf(os.Stderr, "simstrobe: %v\n", err)
			return 2
		}
		*statusAddr = defaults.StatusAddr
	}

	var db *hashdb.DB
	if *dbInput != "" {
		db, err = hashdb.Load(*dbInput)
		if err != nil {
			log.Error("failed to load prior database %s: %v", *dbInput, err)
			return 1
		}
	} else {
		db = hashdb.New()
	}

	trace, err := os.Open(tracePath)
	if err != nil {
		log.Error("failed to open trace %s: %v", tracePath, err)
		return 1
	}
	defer trace.Close()

	tracker := statusapi.NewTracker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *statusAddr != "" {
		srv := statusapi.NewServer(*statusAddr, tracker)
		errCh := srv.Run()
		defer func() {
			if err := srv.Shutdown(); err != nil {
				log.Warn("status server shutdown: %v", err)
			}
		}()
		go func() {
			if err := <-errCh; err != nil {
				log.Error("status server: %v", err)
			}
		}()
	}

	if *hostMetrics {
		go hoststats.Run(ctx, durationSeconds(defaults.HostMetricsPeriod), log)
	}

	if *tui && progressui.IsTerminal(os.Stdout.Fd()) {
		go func() {
			if err := progressui.Run(tracker); err != nil {
				log.Warn("progress ui: %v", err)
			}
		}()
	}

	if err := ingest.Ingest(db, trace, strobeStart, strobePeriod, log, tracker); err != nil {
		tracker.Set(statusapi.Snapshot{Phase: statusapi.PhaseDone})
		log.Error("ingest failed: %v", err)
		return 1
	}

	if err := db.Save(outPath); err != nil {
		log.Error("failed to save database to %s: %v", outPath, err)
		return 1
	}

	log.Info("wrote %d names across %d slots to %s", db.Len(), db.NumSlots(), outPath)
	return 0
}

func durationSeconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
