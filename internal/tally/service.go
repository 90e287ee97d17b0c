package tally

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"panen/internal/core"
	applog "panen/internal/log"
	"panen/internal/lookup"
)

// Service is the period-bounded aggregation engine. One mutex guards
// the period key, every account and the grand total, so a period
// rollover and an entry append can never interleave: readers observe
// either the old period in full or the new, empty one.
//
// The service performs no I/O of its own. Time is injected on every
// call and display labels come from the injected Labeler, so behavior
// is a pure function of its inputs.
type Service struct {
	parser    *core.QuantityParser
	loc       *time.Location
	labeler   lookup.Labeler
	groups    *Registry
	groupMode bool

	mu     sync.Mutex
	period core.PeriodKey
	store  *store
}

// Options configures a Service. Zero values fall back to a UTC clock,
// the default unit keyword and identity-as-label rendering.
type Options struct {
	Parser    *core.QuantityParser
	Location  *time.Location
	Labeler   lookup.Labeler
	GroupMode bool
	Groups    *Registry
}

func New(opts Options) *Service {
	if opts.Parser == nil {
		opts.Parser = core.NewQuantityParser("")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Labeler == nil {
		opts.Labeler = lookup.NewDirectory()
	}
	if opts.GroupMode && opts.Groups == nil {
		opts.Groups = NewRegistry()
	}
	return &Service{
		parser:    opts.Parser,
		loc:       opts.Location,
		labeler:   opts.Labeler,
		groups:    opts.Groups,
		groupMode: opts.GroupMode,
		store:     newStore(),
	}
}

// GroupMode reports whether accounts are scoped to groups.
func (s *Service) GroupMode() bool { return s.groupMode }

// Groups returns the group registry, nil in single-tenant mode.
func (s *Service) Groups() *Registry { return s.groups }

// Location returns the timezone periods and dates are computed in.
func (s *Service) Location() *time.Location { return s.loc }

// CurrentPeriodKey computes the period key for now. Diagnostics only;
// it does not touch shared state.
func (s *Service) CurrentPeriodKey(now time.Time) core.PeriodKey {
	return core.PeriodKeyAt(now, s.loc)
}

// reconcile rolls the store over to the period of now when the stored
// key differs. Callers hold s.mu. A gap of several idle months still
// clears exactly once. Returns true when a rollover happened.
func (s *Service) reconcile(now time.Time) bool {
	key := core.PeriodKeyAt(now, s.loc)
	if s.period == key {
		return false
	}
	if s.period != "" {
		s.store.clear()
		fields := applog.NewFields().
			WithComponent(applog.ComponentTally).
			WithOperation(applog.OpReconcile).
			WithPeriod(string(key))
		fields["previous_period"] = string(s.period)
		slog.Info("Period rollover, aggregate state cleared", fields.ToSlice()...)
	}
	s.period = key
	return true
}

// checkScope validates the group argument against the service mode:
// group-scoped calls need a selection in group mode, and the group must
// be registered. Single-tenant mode ignores the argument entirely.
func (s *Service) checkScope(group string) (string, error) {
	if !s.groupMode {
		return "", nil
	}
	if group == "" {
		return "", core.ErrNoGroupSelected
	}
	if !s.groups.Contains(group) {
		return "", core.ErrUnknownGroup
	}
	return group, nil
}

// Record parses a quantity out of rawText and appends it as one entry
// for (group, identity) at now. The store is only touched after the
// parse succeeds, so a failed call leaves no trace. Returns the
// recorded quantity for acknowledgment rendering.
func (s *Service) Record(ctx context.Context, group, identity, rawText string, now time.Time) (int64, error) {
	group, err := s.checkScope(group)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconcile(now)

	qty, err := s.parser.Parse(rawText)
	if err != nil {
		return 0, err
	}

	entry := core.Entry{
		Identity: identity,
		Group:    group,
		At:       now.In(s.loc),
		Quantity: qty,
	}
	acc := s.store.getOrCreate(group, identity)
	s.store.append(acc, entry)

	slog.InfoContext(ctx, "Recorded harvest entry",
		applog.NewFields().
			WithComponent(applog.ComponentTally).
			WithOperation(applog.OpRecord).
			WithEntry(identity, group, qty).
			WithPeriod(string(s.period)).
			ToSlice()...)

	return qty, nil
}

// GrandTotal returns the current-period total across every account.
func (s *Service) GrandTotal(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcile(now)
	return s.store.grandTotal()
}

// resolveLabels asks the labeler once per distinct identity, outside
// the store lock. A lookup failure falls back to the raw identity so a
// flaky upstream never breaks rendering.
func (s *Service) resolveLabels(ctx context.Context, entries []core.Entry) map[string]string {
	labels := make(map[string]string)
	for _, e := range entries {
		if _, ok := labels[e.Identity]; ok {
			continue
		}
		label, err := s.labeler.Label(ctx, e.Identity)
		if err != nil || label == "" {
			slog.WarnContext(ctx, "Label lookup failed, using identity",
				"component", "tally", "identity", e.Identity, "error", err)
			label = e.Identity
		}
		labels[e.Identity] = label
	}
	return labels
}

// snapshotScope copies the entries in scope (plus the grand total)
// under the lock, after reconciling. Rendering happens on the copy.
func (s *Service) snapshotScope(group string, now time.Time) ([]core.Entry, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcile(now)
	return s.store.snapshot(s.groupMode, group), s.store.grandTotal()
}
