package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/okian/pairwise/pkg/logger"
)

const (
	directoryPermission = 0o750
	reportPermission    = 0o600

	maxThrottleRetries = 5
	throttleBackoff    = 50 * time.Millisecond
	defaultTimeout     = 10 * time.Second
)

type runner struct {
	cfg    Config
	runID  string
	client *client
	pacer  *rate.Limiter
	log    logger.Logger

	// strength maps item id to its position in the true order; lower wins.
	strength map[string]int

	submitted  atomic.Int64
	recorded   atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
	throttled  atomic.Int64
	repeats    atomic.Int64
}

// Run selects cfg.ListID on the service, submits cfg.Votes votes from
// cfg.Voters concurrent voters and reports how closely the resulting
// ranking matches the list's own order, which the voters treat as truth.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	r := &runner{
		cfg:    cfg,
		runID:  uuid.NewString(),
		client: newClient(cfg.BaseURL, cfg.Timeout),
		log:    logger.Named("simulate"),
	}
	if cfg.Rate > 0 {
		r.pacer = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	start := time.Now()

	r.log.Info(ctx, "starting simulation",
		logger.String("run", r.runID),
		logger.String("baseURL", cfg.BaseURL),
		logger.String("list", cfg.ListID),
		logger.Int("votes", cfg.Votes),
		logger.Int("voters", cfg.Voters),
		logger.Float64("noise", cfg.Noise),
	)

	if err := r.client.health(ctx); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	if cfg.Reset {
		if err := r.client.reset(ctx, cfg.ListID); err != nil {
			return Report{}, fmt.Errorf("reset %s: %w", cfg.ListID, err)
		}
	}
	view, err := r.client.selectList(ctx, cfg.ListID)
	if err != nil {
		return Report{}, fmt.Errorf("select %s: %w", cfg.ListID, err)
	}
	if len(view.Items) < 2 {
		return Report{}, fmt.Errorf("%s: %w", cfg.ListID, ErrTooFewItems)
	}
	truth := make([]string, len(view.Items))
	r.strength = make(map[string]int, len(view.Items))
	for i, it := range view.Items {
		truth[i] = it.ID
		r.strength[it.ID] = i
	}

	g, gctx := errgroup.WithContext(ctx)
	for v := 0; v < cfg.Voters; v++ {
		quota := cfg.Votes / cfg.Voters
		if v < cfg.Votes%cfg.Voters {
			quota++
		}
		g.Go(func() error { return r.voter(gctx, v, quota) })
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("voting: %w", err)
	}

	ranked, err := r.client.ranking(ctx, cfg.ListID)
	if err != nil {
		return Report{}, fmt.Errorf("ranking %s: %w", cfg.ListID, err)
	}

	report := Report{
		RunID:      r.runID,
		ListID:     cfg.ListID,
		Items:      len(truth),
		Submitted:  int(r.submitted.Load()),
		Recorded:   int(r.recorded.Load()),
		Duplicates: int(r.duplicates.Load()),
		Failed:     int(r.failed.Load()),
		Throttled:  int(r.throttled.Load()),
		Repeats:    int(r.repeats.Load()),
		Spearman:   spearman(truth, ranked),
		TrueOrder:  truth,
		Ranked:     ranked,
		Duration:   time.Since(start),
	}

	if cfg.Output != "" {
		if err := writeReport(cfg.Output, report); err != nil {
			r.log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	r.log.Info(ctx, "simulation finished",
		logger.Int("recorded", report.Recorded),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("failed", report.Failed),
		logger.Int("throttled", report.Throttled),
		logger.Float64("spearman", report.Spearman),
		logger.Float64("repeatShare", report.RepeatShare()),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.ListID == "":
		return fmt.Errorf("%w: list is required", ErrInvalidConfig)
	case c.Votes < 0:
		return fmt.Errorf("%w: votes must not be negative", ErrInvalidConfig)
	case c.Voters < 1:
		return fmt.Errorf("%w: at least one voter is required", ErrInvalidConfig)
	case c.Noise < 0 || c.Noise > 1:
		return fmt.Errorf("%w: noise must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// voter casts quota votes, always answering the matchup the service last
// handed it.
func (r *runner) voter(ctx context.Context, idx, quota int) error {
	if quota == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(r.cfg.Seed + int64(idx)))

	current, err := r.client.matchup(ctx, r.cfg.ListID)
	if err != nil {
		return fmt.Errorf("voter %d: %w", idx, err)
	}

	for i := 0; i < quota; i++ {
		if r.pacer != nil {
			if err := r.pacer.Wait(ctx); err != nil {
				return err
			}
		}

		winner, loser := r.decide(rng, current)
		vote := voteRequest{VoteID: uuid.NewString(), WinnerID: winner, LoserID: loser}
		r.submitted.Add(1)

		res, err := r.submit(ctx, vote)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.failed.Add(1)
			r.log.Warn(ctx, "vote failed", logger.Int("voter", idx), logger.Error(err))
			if current, err = r.client.matchup(ctx, r.cfg.ListID); err != nil {
				return fmt.Errorf("voter %d: %w", idx, err)
			}
			continue
		}

		if res.Duplicate {
			r.duplicates.Add(1)
		} else {
			r.recorded.Add(1)
		}
		if r.cfg.Verbose {
			r.log.Debug(ctx, "vote",
				logger.Int("voter", idx),
				logger.String("winner", winner),
				logger.String("loser", loser),
				logger.Bool("duplicate", res.Duplicate),
			)
		}

		if res.Matchup == nil {
			if current, err = r.client.matchup(ctx, r.cfg.ListID); err != nil {
				return fmt.Errorf("voter %d: %w", idx, err)
			}
			continue
		}
		if !res.Duplicate && samePair(current, *res.Matchup) {
			r.repeats.Add(1)
		}
		current = *res.Matchup
	}
	return nil
}

// decide picks the truly stronger item, flipped with probability Noise.
func (r *runner) decide(rng *rand.Rand, m matchupResponse) (winner, loser string) {
	winner, loser = m.Left.ID, m.Right.ID
	if r.strength[loser] < r.strength[winner] {
		winner, loser = loser, winner
	}
	if r.cfg.Noise > 0 && rng.Float64() < r.cfg.Noise {
		winner, loser = loser, winner
	}
	return winner, loser
}

// submit posts v, backing off while the service answers 429.
func (r *runner) submit(ctx context.Context, v voteRequest) (voteResponse, error) {
	backoff := throttleBackoff
	for attempt := 0; ; attempt++ {
		res, err := r.client.vote(ctx, r.cfg.ListID, v)
		var se *StatusError
		if err == nil || !errors.As(err, &se) || se.Status != http.StatusTooManyRequests || attempt == maxThrottleRetries {
			return res, err
		}
		r.throttled.Add(1)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return voteResponse{}, ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
}

// writeReport saves the report as indented JSON.
func writeReport(filename string, report Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
