package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pairwise/internal/simulate"
	"github.com/okian/pairwise/pkg/logger"
)

// Default configuration constants.
const (
	defaultVotes   = 500
	defaultVoters  = 4
	defaultTimeout = 10 * time.Second
	runTimeout     = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		listID  = flag.String("list", "", "List to vote on (required)")
		votes   = flag.Int("votes", defaultVotes, "Number of votes to submit")
		voters  = flag.Int("voters", defaultVoters, "Number of concurrent voters")
		noise   = flag.Float64("noise", 0, "Probability that a voter picks the weaker item")
		pace    = flag.Float64("rate", 0, "Votes per second across all voters; 0 submits as fast as possible")
		seed    = flag.Int64("seed", 0, "Random seed; 0 uses the clock")
		reset   = flag.Bool("reset", false, "Discard the list's history before voting")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		output  = flag.String("output", "", "Write the JSON report to this file")
		verbose = flag.Bool("verbose", false, "Log every vote")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	report, err := simulate.Run(ctx, simulate.Config{
		BaseURL: *baseURL,
		ListID:  *listID,
		Votes:   *votes,
		Voters:  *voters,
		Noise:   *noise,
		Rate:    *pace,
		Seed:    *seed,
		Reset:   *reset,
		Timeout: *timeout,
		Output:  *output,
		Verbose: *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		return 1
	}

	fmt.Printf("list %s: %d recorded, %d failed, spearman %.3f, repeat share %.3f\n",
		report.ListID, report.Recorded, report.Failed, report.Spearman, report.RepeatShare())
	for i, id := range report.Ranked {
		fmt.Printf("%3d. %s\n", i+1, id)
	}
	return 0
}
