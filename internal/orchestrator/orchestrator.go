// Package orchestrator runs one provider over every registered author:
// generate candidates, verify, merge.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/author-reconciliation-service/internal/candidates"
	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/events"
	"github.com/helixir/author-reconciliation-service/internal/matching"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/reconcile"
)

// AuthorSource lists the internal authors in registry order.
type AuthorSource interface {
	Authors(ctx context.Context) ([]domain.InternalAuthor, error)
}

// CandidateGenerator builds the candidate queries for one author.
type CandidateGenerator interface {
	Generate(author domain.InternalAuthor, tmpl candidates.Template) []domain.CandidateQuery
}

// Matcher finds the unambiguous provider match for one author.
type Matcher interface {
	FindUnambiguousMatch(ctx context.Context, p matching.Searcher, author domain.InternalAuthor, cands []domain.CandidateQuery) domain.Outcome
}

// Merger writes a match into the store.
type Merger interface {
	Reconcile(ctx context.Context, author domain.InternalAuthor, match *domain.MatchResult) (reconcile.Summary, error)
}

// ProgressFunc is called after every author.
type ProgressFunc func(domain.Progress)

// Deps are the collaborators of an Orchestrator. Publisher and Metrics may
// be nil.
type Deps struct {
	Authors   AuthorSource
	Generator CandidateGenerator
	Matcher   Matcher
	Merger    Merger
	Publisher events.Publisher
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
}

// Orchestrator runs batches. It holds no per-run state and may run several
// providers concurrently.
type Orchestrator struct {
	authors   AuthorSource
	generator CandidateGenerator
	matcher   Matcher
	merger    Merger
	publisher events.Publisher
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// New creates an Orchestrator.
func New(d Deps) *Orchestrator {
	pub := d.Publisher
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &Orchestrator{
		authors:   d.Authors,
		generator: d.Generator,
		matcher:   d.Matcher,
		merger:    d.Merger,
		publisher: pub,
		metrics:   d.Metrics,
		logger:    d.Logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Run processes every author against p, one at a time. Per-author problems
// are logged and skipped. It returns an error when the registry cannot be
// read (wrapping domain.ErrBatchFatal) or when ctx is cancelled between
// authors; the result then reports how far the run got.
func (o *Orchestrator) Run(ctx context.Context, p providers.Provider, onProgress ProgressFunc) (domain.RunResult, error) {
	runID, _ := observability.RunFromContext(ctx)
	if runID == "" {
		runID = uuid.New().String()
	}
	start := time.Now()
	result := domain.RunResult{RunID: runID, Provider: p.Name(), State: domain.RunStateRunning}
	logger := observability.WithRunContext(o.logger, runID, p.Name())

	o.metrics.RecordRunStarted(p.Name())
	logger.Info().Msg("run started")

	authors, err := o.authors.Authors(ctx)
	if err != nil {
		err = domain.NewBatchFatalError(err)
		return o.finish(ctx, logger, result, start, err), err
	}

	progress := domain.NewProgress(len(authors))
	result.Total = progress.Total
	logger.Info().Int("total", result.Total).Msg("authors loaded")

	for _, author := range authors {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("run cancelled after %d of %d authors: %w", progress.Processed, progress.Total, ctxErr)
			return o.finish(ctx, logger, result, start, err), err
		}

		// Once started, an author runs to completion.
		if o.processAuthor(context.WithoutCancel(ctx), logger, runID, p, author) {
			result.Matched++
		}

		var changed bool
		progress, changed = progress.Advance()
		result.Processed = progress.Processed
		if changed {
			logger.Info().
				Int("percent", progress.Percent).
				Int("processed", progress.Processed).
				Int("total", progress.Total).
				Msg("progress")
		}
		if onProgress != nil {
			onProgress(progress)
		}
	}

	return o.finish(ctx, logger, result, start, nil), nil
}

// processAuthor reports whether the author was matched and merged.
func (o *Orchestrator) processAuthor(ctx context.Context, logger zerolog.Logger, runID string, p providers.Provider, author domain.InternalAuthor) bool {
	alog := observability.WithAuthorContext(logger, author.ID, author.FullName())
	o.metrics.RecordAuthorProcessed(p.Name())

	cands := o.generator.Generate(author, p.Template())
	out := o.matcher.FindUnambiguousMatch(ctx, p, author, cands)

	switch out.Kind {
	case domain.OutcomeMatched:
	case domain.OutcomeUnmatched:
		alog.Info().Int("attempts", out.Attempts).Msg("author skipped: no unambiguous match")
		o.metrics.RecordOutcome(p.Name(), out.Kind.String())
		return false
	case domain.OutcomeProviderUnavailable:
		alog.Warn().Err(out.Reason).Msg("author skipped: provider unavailable")
		o.metrics.RecordOutcome(p.Name(), out.Kind.String())
		return false
	default:
		alog.Error().Err(out.Reason).Msg("author skipped: verification failed")
		o.metrics.RecordOutcome(p.Name(), domain.OutcomeFailed.String())
		return false
	}

	sum, err := o.merger.Reconcile(ctx, author, out.Match)
	if err != nil {
		alog.Error().Err(err).Msg("author skipped: reconciliation failed")
		o.metrics.RecordOutcome(p.Name(), domain.OutcomeFailed.String())
		return false
	}
	o.metrics.RecordOutcome(p.Name(), out.Kind.String())

	o.publish(ctx, alog, domain.EventTypeAuthorReconciled, runID, domain.AuthorReconciledPayload{
		RunID:        runID,
		Provider:     p.Name(),
		AuthorID:     author.ID,
		ExternalIDs:  sum.ExternalIDs,
		Graph:        sum.Graph,
		Query:        out.Match.SourceQuery.Query,
		Priority:     out.Match.SourceQuery.Priority,
		Publications: sum.Publications,
		Written:      sum.Written(),
		Duplicates:   sum.Duplicates,
	})
	return true
}

func (o *Orchestrator) finish(ctx context.Context, logger zerolog.Logger, result domain.RunResult, start time.Time, runErr error) domain.RunResult {
	result.Duration = time.Since(start)
	result.State = domain.RunStateCompleted
	if runErr != nil {
		result.State = domain.RunStateFailed
	}
	o.metrics.RecordRunFinished(result.Provider, runErr == nil, result.Duration.Seconds())

	payload := domain.RunCompletedPayload{
		RunID:      result.RunID,
		Provider:   result.Provider,
		State:      result.State,
		Processed:  result.Processed,
		Total:      result.Total,
		Matched:    result.Matched,
		DurationMS: result.Duration.Milliseconds(),
	}
	if runErr != nil {
		payload.Error = runErr.Error()
		logger.Error().Err(runErr).Int("processed", result.Processed).Int("total", result.Total).Msg("run failed")
	} else {
		logger.Info().
			Int("processed", result.Processed).
			Int("matched", result.Matched).
			Dur("duration", result.Duration).
			Msg("run completed")
	}
	o.publish(context.WithoutCancel(ctx), logger, domain.EventTypeRunCompleted, result.RunID, payload)
	return result
}

// publish never fails the run.
func (o *Orchestrator) publish(ctx context.Context, logger zerolog.Logger, eventType, aggregateID string, payload interface{}) {
	ev, err := domain.NewEvent(eventType, aggregateID, payload)
	if err == nil {
		err = o.publisher.Publish(ctx, ev)
	}
	o.metrics.RecordEvent(eventType, err == nil)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
