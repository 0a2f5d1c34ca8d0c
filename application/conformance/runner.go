package conformance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"http-conformance/application/http/failure"
	"http-conformance/application/http/status"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Outcome uint8

const (
	Pass  Outcome = iota
	Fail          // the target does not conform
	Error         // the case could not complete
	Skip
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Error:
		return "ERROR"
	case Skip:
		return "SKIP"
	}
	return "UNKNOWN"
}

// Judge maps the error a case returned onto its outcome.
func Judge(err error) Outcome {
	if err == nil {
		return Pass
	}
	if errors.Is(err, ErrSkip) {
		return Skip
	}
	if errors.Is(err, ErrExpectation) {
		return Fail
	}

	var unexpected status.UnexpectedError
	if errors.As(err, &unexpected) {
		return Fail
	}

	if failure.Classify(err) == failure.Conformance {
		return Fail
	}
	return Error
}

type Result struct {
	Case     Case
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

type Runner struct {
	logger *slog.Logger
	clock  clock.Clock
	opts   Options
}

func NewRunner(logger *slog.Logger, clock clock.Clock, opts Options) *Runner {
	return &Runner{logger: logger, clock: clock, opts: opts}
}

// Run executes cases against s, at most Parallelism at a time.
// Results keep the order of cases.
func (r *Runner) Run(ctx context.Context, s *Session, cases Catalogue) Report {
	parallelism := max(r.opts.Parallelism, 1)

	start := r.clock.Now()
	results := make([]Result, len(cases))

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for idx, tc := range cases {
		if ctx.Err() != nil {
			results[idx] = Result{Case: tc, Outcome: Skip, Err: skipf("%v", ctx.Err())}
			continue
		}

		select {
		case <-ctx.Done():
			results[idx] = Result{Case: tc, Outcome: Skip, Err: skipf("%v", ctx.Err())}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = r.runCase(ctx, s, tc)
		}()
	}

	wg.Wait()

	return Report{
		Target:   s.URI.String(),
		Results:  results,
		Duration: r.clock.Since(start),
	}
}

func (r *Runner) runCase(ctx context.Context, s *Session, tc Case) (result Result) {
	start := r.clock.Now()
	result.Case = tc

	defer func() {
		if p := recover(); p != nil {
			result.Err = errors.Errorf("case panicked: %v", p)
		}

		result.Outcome = Judge(result.Err)
		// A canceled exchange ends in a closed conn, read as lost or truncated.
		interrupted := result.Outcome == Error || failure.Classify(result.Err) == failure.Conformance
		if interrupted && ctx.Err() != nil {
			result.Err = skipf("%v: %v", ctx.Err(), result.Err)
			result.Outcome = Skip
		}
		result.Duration = r.clock.Since(start)

		attrs := []any{
			slog.String("case", tc.ID),
			slog.String("outcome", result.Outcome.String()),
			slog.Duration("duration", result.Duration),
		}
		if result.Err != nil {
			attrs = append(attrs,
				slog.String("diagnosis", result.Err.Error()),
				slog.Bool("fatal", failure.IsFatal(result.Err)),
			)
		}
		r.logger.Info("case finished", attrs...)
	}()

	result.Err = tc.Run(ctx, s)
	return result
}
