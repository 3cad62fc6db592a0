// Command simmatch compares two fingerprint databases and reports
// candidate signal equivalences between them.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"simalign/internal/clipboardutil"
	"simalign/internal/config"
	"simalign/internal/logging"
	"simalign/pkg/hashdb"
	"simalign/pkg/hier"
	"simalign/pkg/match"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("simmatch", flag.ContinueOnError)
	copyToClipboard := fs.Bool("copy", false, "copy the summary lines to the system clipboard")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) < 2 || len(rest) > 3 {
		fmt.Fprintln(os.Stderr, "usage: simmatch [flags] <db1> <db2> [ignore_size]")
		return 2
	}

	defaults := config.Load()
	cutoff := defaults.IgnoreSize
	if len(rest) == 3 {
		n, err := strconv.Atoi(rest[2])
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "simmatch: invalid ignore_size %q\n", rest[2])
			return 2
		}
		cutoff = n
	}

	log, err := logging.NewLogger(&logging.LoggingConfig{Level: *logLevel, Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "simmatch: logger init failed: %v\n", err)
		return 1
	}

	log.Info("args: db1=%s db2=%s ignore_size=%d copy=%v", rest[0], rest[1], cutoff, *copyToClipboard)

	left, err := hashdb.Load(rest[0])
	if err != nil {
		log.Error("failed to load %s: %v", rest[0], err)
		return 1
	}
	right, err := hashdb.Load(rest[1])
	if err != nil {
		log.Error("failed to load %s: %v", rest[1], err)
		return 1
	}

	result := match.Run(left, right, cutoff)

	summaryLines := []string{
		fmt.Sprintf("%d distinct fingerprints", result.Summary.TotalGroups),
		fmt.Sprintf("%d groups present on both sides", result.Summary.BothSided),
		fmt.Sprintf("%d both-sided groups within cutoff %d", result.Summary.BothSidedWithin, cutoff),
	}
	for _, line := range summaryLines {
		fmt.Println(line)
		log.Info("%s", line)
	}

	for _, g := range result.Groups {
		fmt.Printf("Hash %d: { %s } = { %s }\n", g.Hash, joinNames(g.Left), joinNames(g.Right))
	}

	if *copyToClipboard {
		clipboardutil.CopySummary(summaryLines, log)
	}

	return 0
}

func joinNames(names []hier.Name) string {
	if len(names) == 0 {
		return "(none)"
	}
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += hier.String(n)
	}
	return out
}
