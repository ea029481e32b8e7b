package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/activities/pkg/logger"
)

// Sentinel errors reported by Run.
var (
	ErrActivityMissing = errors.New("activity not found on server")
	ErrInconsistent    = errors.New("roster inconsistent")
	ErrRequestsFailed  = errors.New("requests failed")
)

const percentageMultiplier = 100

// Runner executes a load test against one activity.
type Runner struct {
	cfg    *Config
	client *Client
	log    logger.Logger
}

// NewRunner builds a Runner. A nil log discards output.
func NewRunner(cfg *Config, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, cfg.Timeout),
		log:    log,
	}
}

// Run executes the complete load test.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}

	r.log.Info(ctx, "starting signup load test",
		logger.String("baseURL", r.cfg.BaseURL),
		logger.String("activity", r.cfg.Activity),
		logger.Int("students", r.cfg.Students),
		logger.Int("concurrency", r.cfg.Concurrency),
		logger.String("timeout", r.cfg.Timeout.String()),
	)

	// Step 1: Check service health
	if err := r.client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Snapshot the roster
	before, err := r.roster(ctx)
	if err != nil {
		return stats, err
	}
	stats.InitialParticipants = len(before.Participants)
	stats.Capacity = before.MaxParticipants

	// Step 3: Sign students up concurrently
	emails := generateEmails(r.cfg.Students, r.cfg.Domain)
	signedUp, err := r.signupAll(ctx, emails, stats)
	if err != nil {
		return stats, fmt.Errorf("signup phase failed: %w", err)
	}

	// Step 4: Verify the roster
	if err := r.verifySignups(ctx, before, signedUp, stats); err != nil {
		return stats, err
	}

	// Step 5: Duplicate signups must be rejected
	if len(signedUp) > 0 {
		if err := r.checkDuplicate(ctx, signedUp[0]); err != nil {
			return stats, err
		}
	}

	// Step 6: Unregister everyone we added
	if err := r.unregisterAll(ctx, signedUp, stats); err != nil {
		return stats, fmt.Errorf("unregister phase failed: %w", err)
	}

	// Step 7: The roster must be back where it started
	after, err := r.roster(ctx)
	if err != nil {
		return stats, err
	}
	if !slices.Equal(after.Participants, before.Participants) {
		return stats, fmt.Errorf("%w: roster not restored: before=%v after=%v",
			ErrInconsistent, before.Participants, after.Participants)
	}

	// Step 8: Report server stats
	if serverStats, err := r.client.Stats(ctx); err != nil {
		r.log.Warn(ctx, "failed to fetch server stats", logger.Error(err))
	} else {
		r.log.Info(ctx, "server stats", logger.Any("stats", serverStats))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	r.displayFinalStats(ctx, stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d signups failed", ErrRequestsFailed, stats.Failed)
	}
	r.log.Info(ctx, "load test completed successfully")
	return stats, nil
}

func (r *Runner) roster(ctx context.Context) (Activity, error) {
	activities, err := r.client.Activities(ctx)
	if err != nil {
		return Activity{}, fmt.Errorf("fetch activities: %w", err)
	}
	a, ok := activities[r.cfg.Activity]
	if !ok {
		return Activity{}, fmt.Errorf("%w: %q", ErrActivityMissing, r.cfg.Activity)
	}
	return a, nil
}

// signupAll returns the emails that were accepted, in no particular order.
func (r *Runner) signupAll(ctx context.Context, emails []string, stats *Stats) ([]string, error) {
	var (
		succeeded, full, failed atomic.Int64
		mu                      sync.Mutex
		accepted                = make([]string, 0, len(emails))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, email := range emails {
		email := email
		g.Go(func() error {
			res, err := r.client.Signup(gctx, r.cfg.Activity, email)
			switch {
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				r.log.Debug(gctx, "signup request failed", logger.String("email", email), logger.Error(err))
			case res.Status == http.StatusOK:
				succeeded.Add(1)
				mu.Lock()
				accepted = append(accepted, email)
				mu.Unlock()
			case res.Status == http.StatusConflict:
				full.Add(1)
			default:
				failed.Add(1)
				r.log.Debug(gctx, "signup rejected",
					logger.String("email", email),
					logger.Int("status", res.Status),
					logger.String("detail", res.Detail),
				)
			}
			if r.cfg.Verbose {
				r.log.Info(gctx, "signup", logger.String("email", email), logger.Int("status", res.Status))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Attempted = len(emails)
	stats.Succeeded = int(succeeded.Load())
	stats.Full = int(full.Load())
	stats.Failed = int(failed.Load())

	r.log.Info(ctx, "signup phase completed",
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("full", stats.Full),
		logger.Int("failed", stats.Failed),
	)
	return accepted, nil
}

func (r *Runner) verifySignups(ctx context.Context, before Activity, signedUp []string, stats *Stats) error {
	after, err := r.roster(ctx)
	if err != nil {
		return err
	}

	want := len(before.Participants) + len(signedUp)
	if len(after.Participants) != want {
		return fmt.Errorf("%w: expected %d participants, found %d", ErrInconsistent, want, len(after.Participants))
	}
	seen := make(map[string]struct{}, len(after.Participants))
	for _, p := range after.Participants {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: %s listed twice", ErrInconsistent, p)
		}
		seen[p] = struct{}{}
	}
	for _, email := range signedUp {
		if _, ok := seen[email]; !ok {
			return fmt.Errorf("%w: accepted signup %s missing from roster", ErrInconsistent, email)
		}
	}
	if stats.Full > 0 && len(after.Participants) != after.MaxParticipants {
		return fmt.Errorf("%w: %d signups refused as full but roster has %d of %d",
			ErrInconsistent, stats.Full, len(after.Participants), after.MaxParticipants)
	}

	r.log.Info(ctx, "roster verified", logger.Int("participants", len(after.Participants)))
	return nil
}

func (r *Runner) checkDuplicate(ctx context.Context, email string) error {
	res, err := r.client.Signup(ctx, r.cfg.Activity, email)
	if err != nil {
		return fmt.Errorf("duplicate signup: %w", err)
	}
	if res.Status != http.StatusBadRequest {
		return fmt.Errorf("%w: duplicate signup for %s returned status %d", ErrInconsistent, email, res.Status)
	}
	r.log.Info(ctx, "duplicate signup rejected", logger.String("detail", res.Detail))
	return nil
}

func (r *Runner) unregisterAll(ctx context.Context, emails []string, stats *Stats) error {
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, email := range emails {
		email := email
		g.Go(func() error {
			res, err := r.client.Unregister(gctx, r.cfg.Activity, email)
			if err != nil {
				return err
			}
			if res.Status != http.StatusOK {
				return fmt.Errorf("unregister %s returned status %d: %s", email, res.Status, res.Detail)
			}
			done.Add(1)
			return nil
		})
	}
	err := g.Wait()
	stats.Unregistered = int(done.Load())
	return err
}

func (r *Runner) displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64
	if stats.Attempted > 0 {
		successRate = float64(stats.Succeeded) / float64(stats.Attempted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Attempted+stats.Unregistered) / stats.Duration.Seconds()
	}

	r.log.Info(ctx, "final statistics",
		logger.Int("initialParticipants", stats.InitialParticipants),
		logger.Int("capacity", stats.Capacity),
		logger.Int("attempted", stats.Attempted),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("full", stats.Full),
		logger.Int("failed", stats.Failed),
		logger.Int("unregistered", stats.Unregistered),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond),
	)
}
