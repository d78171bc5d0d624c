// Package workflow drives one reconciliation run: pull labeled threads,
// extract and reconcile each unseen message, and advance thread labels.
package workflow

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/extract"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/reconcile"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/resolve"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/store"
	"github.com/Frankwerd/Career-Suite-AI-V6/pkg/gmail"
)

// Source is the message backend the controller pulls from. gmail.Client
// satisfies it.
type Source interface {
	ResolveLabels(ctx context.Context, names []string) (map[string]string, error)
	ListThreads(ctx context.Context, labelID string, max int) ([]string, error)
	GetThread(ctx context.Context, threadID string) (*gmail.Thread, error)
	ModifyThreadLabels(ctx context.Context, threadID string, add, remove []string) error
}

// Labels names the three workflow labels. They must already exist; a missing
// label aborts the run before any side effect.
type Labels struct {
	Pending     string
	Done        string
	NeedsReview string
}

// Budgets bounds one run.
type Budgets struct {
	MaxMessages int
	MaxThreads  int
	Deadline    time.Duration
}

// Summary reports what a run did.
type Summary struct {
	ThreadsExamined    int
	MessagesProcessed  int
	MessagesSkipped    int
	RecordsCreated     int
	RecordsUpdated     int
	ThreadsDone        int
	ThreadsNeedsReview int
	BudgetExhausted    bool
}

// Controller owns the per-run pipeline.
type Controller struct {
	source     Source
	store      store.Store
	composer   *extract.Composer
	reconciler *reconcile.Reconciler
	labels     Labels
	budgets    Budgets
	now        func() time.Time
}

func NewController(src Source, st store.Store, composer *extract.Composer, rec *reconcile.Reconciler, labels Labels, budgets Budgets) *Controller {
	return &Controller{
		source:     src,
		store:      st,
		composer:   composer,
		reconciler: rec,
		labels:     labels,
		budgets:    budgets,
		now:        time.Now,
	}
}

// Run executes one reconciliation pass. Precondition failures (missing
// labels, unreadable store) are returned as errors with no side effects;
// per-message failures are absorbed into thread state instead.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	labelIDs, err := c.source.ResolveLabels(ctx, []string{c.labels.Pending, c.labels.Done, c.labels.NeedsReview})
	if err != nil {
		return nil, eris.Wrap(err, "workflow: resolve labels")
	}

	if c.budgets.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.budgets.Deadline)
		defer cancel()
	}

	records, err := c.store.LoadRecords(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: load records")
	}
	seen, err := c.store.ProcessedMessageIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: load processed ids")
	}

	run := &runState{
		labelIDs: labelIDs,
		resolver: resolve.NewResolver(records),
		seen:     seen,
		summary:  &Summary{},
	}

	// Threads already flagged for review are re-attempted for new messages
	// but their label never advances; review is cleared by a human.
	c.processLabel(ctx, run, c.labels.Pending, true)
	c.processLabel(ctx, run, c.labels.NeedsReview, false)

	zap.L().Info("workflow: run complete",
		zap.Int("threads_examined", run.summary.ThreadsExamined),
		zap.Int("messages_processed", run.summary.MessagesProcessed),
		zap.Int("messages_skipped", run.summary.MessagesSkipped),
		zap.Int("records_created", run.summary.RecordsCreated),
		zap.Int("records_updated", run.summary.RecordsUpdated),
		zap.Int("threads_done", run.summary.ThreadsDone),
		zap.Int("threads_needs_review", run.summary.ThreadsNeedsReview),
		zap.Bool("budget_exhausted", run.summary.BudgetExhausted))

	return run.summary, nil
}

type runState struct {
	labelIDs map[string]string
	resolver *resolve.Resolver
	seen     map[string]struct{}
	summary  *Summary
}

func (c *Controller) processLabel(ctx context.Context, run *runState, label string, advance bool) {
	if run.summary.BudgetExhausted || ctx.Err() != nil {
		return
	}

	threadIDs, err := c.source.ListThreads(ctx, run.labelIDs[label], c.budgets.MaxThreads)
	if err != nil {
		zap.L().Error("workflow: list threads failed",
			zap.String("label", label), zap.Error(err))
		return
	}

	for _, threadID := range threadIDs {
		if ctx.Err() != nil {
			return
		}
		if c.budgets.MaxMessages > 0 && run.summary.MessagesProcessed >= c.budgets.MaxMessages {
			run.summary.BudgetExhausted = true
			return
		}

		run.summary.ThreadsExamined++
		c.processThread(ctx, run, threadID, advance)
	}
}

// processThread reconciles every unseen message in one thread and advances
// its label when permitted. A single failed message flags the whole thread.
func (c *Controller) processThread(ctx context.Context, run *runState, threadID string, advance bool) {
	thread, err := c.source.GetThread(ctx, threadID)
	if err != nil {
		zap.L().Error("workflow: fetch thread failed",
			zap.String("thread_id", threadID), zap.Error(err))
		c.transition(ctx, run, threadID, model.ThreadNeedsReview, advance)
		return
	}

	failed := false
	var newlyProcessed []string

	for _, msg := range thread.Messages {
		// Cancellation is cooperative: checked between events, never
		// mid-reconciliation. An interrupted thread keeps its label.
		if ctx.Err() != nil {
			c.markProcessed(ctx, run, threadID, newlyProcessed, &failed)
			return
		}
		if _, ok := run.seen[msg.ID]; ok {
			run.summary.MessagesSkipped++
			continue
		}
		if c.budgets.MaxMessages > 0 && run.summary.MessagesProcessed >= c.budgets.MaxMessages {
			// Budget breached mid-thread: finish bookkeeping for what was
			// already reconciled, leave the rest for the next run.
			run.summary.BudgetExhausted = true
			c.markProcessed(ctx, run, threadID, newlyProcessed, &failed)
			return
		}

		if err := c.processMessage(ctx, run, msg); err != nil {
			zap.L().Error("workflow: message failed",
				zap.String("thread_id", threadID),
				zap.String("message_id", msg.ID),
				zap.Error(err))
			failed = true
			continue
		}
		newlyProcessed = append(newlyProcessed, msg.ID)
		run.summary.MessagesProcessed++
	}

	c.markProcessed(ctx, run, threadID, newlyProcessed, &failed)

	next := model.ThreadDone
	if failed {
		next = model.ThreadNeedsReview
	}
	c.transition(ctx, run, threadID, next, advance)
}

func (c *Controller) processMessage(ctx context.Context, run *runState, msg gmail.Message) error {
	ext := c.composer.Compose(ctx, msg.Subject, msg.Body, msg.From)

	event := model.InboundEvent{
		MessageID:        msg.ID,
		ThreadID:         msg.ThreadID,
		Subject:          msg.Subject,
		BodyText:         msg.Body,
		Sender:           msg.From,
		SenderDomain:     extract.SenderDomain(msg.From),
		Platform:         c.composer.Platform(msg.From),
		Permalink:        gmail.Permalink(msg.ThreadID),
		ObservedAt:       msg.Date,
		ExtractedCompany: ext.Company,
		ExtractedTitle:   ext.Title,
		ExtractedStatus:  ext.Status,
		CompanySource:    ext.CompanySource,
		TitleSource:      ext.TitleSource,
		StatusSource:     ext.StatusSource,
	}

	existing := run.resolver.Find(ext.Company, ext.Title)
	merged := c.reconciler.Apply(existing, event)

	if err := c.store.UpsertRecord(ctx, merged); err != nil {
		return eris.Wrapf(err, "workflow: upsert record for message %s", msg.ID)
	}

	if existing == nil {
		run.resolver.Add(merged)
		run.summary.RecordsCreated++
	} else {
		run.summary.RecordsUpdated++
	}
	run.seen[msg.ID] = struct{}{}
	return nil
}

// markProcessed persists the idempotency ledger for one thread. A ledger
// write failure flags the thread rather than failing the run.
func (c *Controller) markProcessed(ctx context.Context, run *runState, threadID string, ids []string, failed *bool) {
	if len(ids) == 0 {
		return
	}
	if err := c.store.MarkProcessed(ctx, ids, c.now().UTC()); err != nil {
		zap.L().Error("workflow: mark processed failed",
			zap.String("thread_id", threadID), zap.Error(err))
		*failed = true
	}
}

// transition applies the label move for one thread. Threads that entered the
// run as needs-review never advance (advance=false): the state is sticky
// until a human clears it.
func (c *Controller) transition(ctx context.Context, run *runState, threadID string, next model.ThreadState, advance bool) {
	current := model.ThreadPending
	if !advance {
		current = model.ThreadNeedsReview
	}
	if !current.CanTransition(next) || current == next {
		return
	}

	var add, remove []string
	switch next {
	case model.ThreadDone:
		add = []string{run.labelIDs[c.labels.Done]}
		remove = []string{run.labelIDs[c.labels.Pending]}
	case model.ThreadNeedsReview:
		add = []string{run.labelIDs[c.labels.NeedsReview]}
		remove = []string{run.labelIDs[c.labels.Pending]}
	default:
		return
	}

	if err := c.source.ModifyThreadLabels(ctx, threadID, add, remove); err != nil {
		zap.L().Error("workflow: label transition failed",
			zap.String("thread_id", threadID),
			zap.String("next", string(next)),
			zap.Error(err))
		return
	}

	// Counted only once the label actually moved.
	switch next {
	case model.ThreadDone:
		run.summary.ThreadsDone++
	case model.ThreadNeedsReview:
		run.summary.ThreadsNeedsReview++
	}
}
