package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"paysched/internal/amqp"
	"paysched/internal/core"
	"paysched/internal/store"
)

// ErrConfirmationRequired is returned by HardDelete when the caller did not confirm.
var ErrConfirmationRequired = errors.New("permanent deletion requires explicit confirmation")

const defaultUpcomingLimit = 5

type (
	// Publisher announces committed changes, typically over AMQP.
	Publisher interface {
		Publish(ctx context.Context, ev *amqp.PaymentEvent) error
		Close() error
	}

	// DocumentRemover deletes stored files once no payment references them.
	DocumentRemover interface {
		Remove(ref core.DocumentRef) error
	}

	Recorder interface {
		RecordOperation(op string, err error)
		RecordEvent(kind string, err error)
	}
)

type Option func(*PaymentService)

func WithPublisher(p Publisher) Option { return func(s *PaymentService) { s.publisher = p } }

func WithDocuments(d DocumentRemover) Option { return func(s *PaymentService) { s.documents = d } }

func WithRecorder(r Recorder) Option { return func(s *PaymentService) { s.recorder = r } }

// WithClock replaces time.Now. Its location decides which calendar day is "today".
func WithClock(now func() time.Time) Option { return func(s *PaymentService) { s.now = now } }

func WithUpcomingLimit(n int) Option { return func(s *PaymentService) { s.upcomingLimit = n } }

// PaymentService orchestrates payment operations across the store, the document
// store and event publishing. Reads report the effective status, so a payment past
// its due date shows as overdue without that ever being written.
type PaymentService struct {
	repo          store.Repository
	publisher     Publisher
	documents     DocumentRemover
	recorder      Recorder
	now           func() time.Time
	upcomingLimit int
}

func NewPaymentService(repo store.Repository, opts ...Option) *PaymentService {
	s := &PaymentService{repo: repo, now: time.Now, upcomingLimit: defaultUpcomingLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day in the clock's location.
func (s *PaymentService) Today() core.Date {
	return core.DateOf(s.now())
}

func (s *PaymentService) Create(ctx context.Context, d core.Draft) (core.Payment, error) {
	p, err := s.repo.Create(ctx, d, s.now())
	s.record("create", err)
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	slog.InfoContext(ctx, "Payment created", "id", p.ID, "payee", p.PayeeName, "amount", p.Amount, "due_date", p.DueDate.String())
	s.publish(ctx, p, amqp.EventCreated)
	return s.view(p), nil
}

func (s *PaymentService) Get(ctx context.Context, id int64) (core.Payment, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Payment{}, err
	}
	return s.view(p), nil
}

// Update applies an edit. A status in the patch goes through the lifecycle rules.
func (s *PaymentService) Update(ctx context.Context, id int64, patch core.Patch) (core.Payment, error) {
	return s.mutate(ctx, "update", id, patch.Apply)
}

func (s *PaymentService) SetStatus(ctx context.Context, id int64, to core.Status) (core.Payment, error) {
	return s.mutate(ctx, "set_status", id, func(p *core.Payment) error {
		return core.SetStatus(p, to)
	})
}

func (s *PaymentService) Defer(ctx context.Context, id int64, planned core.Date, reason string) (core.Payment, error) {
	return s.mutate(ctx, "defer", id, func(p *core.Payment) error {
		return core.Defer(p, planned, reason)
	})
}

func (s *PaymentService) MarkPending(ctx context.Context, id int64) (core.Payment, error) {
	return s.mutate(ctx, "mark_pending", id, core.MarkPending)
}

func (s *PaymentService) Reschedule(ctx context.Context, id int64, planned core.Date) (core.Payment, error) {
	return s.mutate(ctx, "reschedule", id, func(p *core.Payment) error {
		return core.Reschedule(p, planned)
	})
}

// AttachDocument links an uploaded document, replacing and removing any previous one.
func (s *PaymentService) AttachDocument(ctx context.Context, id int64, ref core.DocumentRef) (core.Payment, error) {
	var previous *core.DocumentRef
	p, err := s.mutate(ctx, "attach_document", id, func(p *core.Payment) error {
		previous = p.Document
		doc := ref
		p.Document = &doc
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}
	if previous != nil && previous.Path != ref.Path {
		s.removeDocument(ctx, *previous)
	}
	return p, nil
}

func (s *PaymentService) SoftDelete(ctx context.Context, id int64) (core.Payment, error) {
	p, err := s.repo.SoftDelete(ctx, id, s.now())
	s.record("soft_delete", err)
	if err != nil {
		return core.Payment{}, fmt.Errorf("delete payment %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Payment moved to trash", "id", id)
	s.publish(ctx, p, amqp.EventTrashed)
	return s.view(p), nil
}

func (s *PaymentService) Restore(ctx context.Context, id int64) (core.Payment, error) {
	p, err := s.repo.Restore(ctx, id)
	s.record("restore", err)
	if err != nil {
		return core.Payment{}, fmt.Errorf("restore payment %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Payment restored", "id", id)
	s.publish(ctx, p, amqp.EventRestored)
	return s.view(p), nil
}

// HardDelete permanently removes a trashed payment and its document. It refuses to
// run unless confirmed is true.
func (s *PaymentService) HardDelete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	p, err := s.repo.Get(ctx, id)
	if err == nil && !p.Trashed() {
		err = core.NotFound(id)
	}
	if err == nil {
		err = s.repo.HardDelete(ctx, id)
	}
	s.record("hard_delete", err)
	if err != nil {
		return fmt.Errorf("purge payment %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Payment permanently deleted", "id", id)
	if p.Document != nil {
		s.removeDocument(ctx, *p.Document)
	}
	s.publish(ctx, p, amqp.EventPurged)
	return nil
}

// List returns active payments. A status filter matches the effective status.
func (s *PaymentService) List(ctx context.Context, f core.Filter) ([]core.Payment, error) {
	today := s.Today()
	if f.Today.IsZero() {
		f.Today = today
	}
	seq, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return core.Collect(core.WithEffectiveStatus(seq, today)), nil
}

func (s *PaymentService) Trash(ctx context.Context) ([]core.Payment, error) {
	seq, err := s.repo.Trash(ctx)
	if err != nil {
		return nil, err
	}
	return core.Collect(seq), nil
}

// CalendarView is a month grid plus the deferred payments kept off it.
type CalendarView struct {
	Grid       core.MonthGrid
	Deferred   []core.Payment
	MonthTotal core.Yen
	Today      core.Date
}

func (s *PaymentService) Calendar(ctx context.Context, year int, month time.Month) (CalendarView, error) {
	today := s.Today()
	seq, err := s.repo.List(ctx, core.Filter{})
	if err != nil {
		return CalendarView{}, err
	}
	effective := core.WithEffectiveStatus(seq, today)
	grid, err := core.BuildMonth(year, month, effective)
	if err != nil {
		return CalendarView{}, err
	}
	return CalendarView{
		Grid:       grid,
		Deferred:   core.DeferredList(seq),
		MonthTotal: core.MonthTotal(seq, year, month),
		Today:      today,
	}, nil
}

func (s *PaymentService) Overview(ctx context.Context) (core.Overview, error) {
	seq, err := s.repo.List(ctx, core.Filter{})
	if err != nil {
		return core.Overview{}, err
	}
	return core.BuildOverview(seq, s.Today(), s.upcomingLimit), nil
}

// Close closes the store and the publisher.
func (s *PaymentService) Close() error {
	var errs []error
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *PaymentService) mutate(ctx context.Context, op string, id int64, fn func(*core.Payment) error) (core.Payment, error) {
	p, err := s.repo.Update(ctx, id, fn, s.now())
	s.record(op, err)
	if err != nil {
		return core.Payment{}, fmt.Errorf("%s payment %d: %w", op, id, err)
	}
	slog.InfoContext(ctx, "Payment updated", "op", op, "id", p.ID, "status", p.Status, "version", p.Version)
	s.publish(ctx, p, amqp.EventUpdated)
	return s.view(p), nil
}

func (s *PaymentService) view(p core.Payment) core.Payment {
	p.Status = core.EffectiveStatus(p, s.Today())
	return p
}

// publish never fails the request; the change is already committed.
func (s *PaymentService) publish(ctx context.Context, p core.Payment, kind amqp.EventKind) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, amqp.NewPaymentEvent(p.ID, kind, p.Version))
	if s.recorder != nil {
		s.recorder.RecordEvent(string(kind), err)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish payment event", "id", p.ID, "kind", kind, "error", err)
	}
}

func (s *PaymentService) removeDocument(ctx context.Context, ref core.DocumentRef) {
	if s.documents == nil {
		return
	}
	if err := s.documents.Remove(ref); err != nil {
		slog.WarnContext(ctx, "Failed to remove document", "path", ref.Path, "error", err)
	}
}

func (s *PaymentService) record(op string, err error) {
	if s.recorder != nil {
		s.recorder.RecordOperation(op, err)
	}
}
