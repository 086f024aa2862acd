package datacheck

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/EbiArnie/ensembl-datacheck/internal/ensembl"
	"github.com/EbiArnie/ensembl-datacheck/internal/report"
)

// RunResult summarizes one check execution.
type RunResult struct {
	Check      string
	RunID      string
	Skipped    bool
	SkipReason string
	Passed     int
	Failed     int
	Duration   time.Duration
	Assertions []report.Assertion
	Err        error
}

// OK reports whether the check ran (or skipped) without failures.
func (r RunResult) OK() bool {
	return r.Err == nil && r.Failed == 0
}

// Observer receives execution events, e.g. for Prometheus metrics.
type Observer interface {
	CheckStarted(check string)
	CheckFinished(check, result string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) CheckStarted(string)                         {}
func (nopObserver) CheckFinished(string, string, time.Duration) {}

// Runner executes checks against one database facade: skip evaluation
// first, then the validation routines in declared order. Checks run
// synchronously, one at a time.
type Runner struct {
	registry *Registry
	observer Observer
}

// NewRunner creates a runner over the given registry. A nil observer
// disables instrumentation.
func NewRunner(registry *Registry, observer Observer) *Runner {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Runner{registry: registry, observer: observer}
}

// Run executes a single check. Assertions go to both the returned result
// and the supplied sink. A non-nil error means collaborator failure; the
// check's own assertion failures are reported through the result.
func (r *Runner) Run(ctx context.Context, check Check, core ensembl.Core, sink report.Sink) (RunResult, error) {
	meta := check.Metadata()
	result := RunResult{
		Check: meta.Name,
		RunID: uuid.NewString(),
	}
	start := time.Now()
	r.observer.CheckStarted(meta.Name)

	log.Info().
		Str("check", meta.Name).
		Str("run_id", result.RunID).
		Str("db_type", core.DBType()).
		Int64("species_id", core.SpeciesID()).
		Msg("Running datacheck")

	skip, err := check.Skip(ctx, core)
	if err != nil {
		result.Err = fmt.Errorf("skip evaluation for %s: %w", meta.Name, err)
		result.Duration = time.Since(start)
		r.observer.CheckFinished(meta.Name, "error", result.Duration)
		return result, result.Err
	}
	if skip.Skip {
		result.Skipped = true
		result.SkipReason = skip.Reason
		result.Duration = time.Since(start)
		r.observer.CheckFinished(meta.Name, "skipped", result.Duration)
		log.Info().
			Str("check", meta.Name).
			Str("run_id", result.RunID).
			Str("reason", skip.Reason).
			Msg("Datacheck skipped")
		return result, nil
	}

	collector := report.NewCollector()
	tee := report.Tee{collector}
	if sink != nil {
		tee = append(tee, sink)
	}

	if err := check.Validate(ctx, core, tee); err != nil {
		result.Err = fmt.Errorf("validation for %s: %w", meta.Name, err)
		result.Duration = time.Since(start)
		r.observer.CheckFinished(meta.Name, "error", result.Duration)
		return result, result.Err
	}

	result.Assertions = collector.Assertions()
	result.Passed, result.Failed = collector.Counts()
	result.Duration = time.Since(start)

	outcome := "pass"
	if result.Failed > 0 {
		outcome = "fail"
	}
	r.observer.CheckFinished(meta.Name, outcome, result.Duration)

	log.Info().
		Str("check", meta.Name).
		Str("run_id", result.RunID).
		Int("passed", result.Passed).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Datacheck finished")
	return result, nil
}

// RunSelection executes every check matched by the selection, in name
// order. A collaborator failure terminates that check but not the batch;
// the failed run is reported in its result.
func (r *Runner) RunSelection(ctx context.Context, sel Selection, core ensembl.Core, sink report.Sink) ([]RunResult, error) {
	checks, err := r.registry.Select(sel)
	if err != nil {
		return nil, err
	}

	results := make([]RunResult, 0, len(checks))
	for _, check := range checks {
		result, err := r.Run(ctx, check, core, sink)
		if err != nil {
			log.Error().
				Err(err).
				Str("check", result.Check).
				Msg("Datacheck terminated by collaborator failure")
		}
		results = append(results, result)
	}
	return results, nil
}
