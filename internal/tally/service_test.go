package tally

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"panen/internal/core"
	"panen/internal/lookup"
)

var jakarta = time.FixedZone("WIB", 7*3600)

func newTestService(t *testing.T, groupMode bool, groups ...string) *Service {
	t.Helper()
	opts := Options{
		Location:  jakarta,
		GroupMode: groupMode,
	}
	if groupMode {
		opts.Groups = NewRegistry(groups...)
	}
	return New(opts)
}

func mustRecord(t *testing.T, s *Service, group, identity string, qty int64, now time.Time) {
	t.Helper()
	got, err := s.Record(context.Background(), group, identity, fmt.Sprintf("panen %d butir telur ikan", qty), now)
	if err != nil {
		t.Fatalf("Record(%s, %d): %v", identity, qty, err)
	}
	if got != qty {
		t.Fatalf("Record returned %d, want %d", got, qty)
	}
}

func TestRecordSumConsistency(t *testing.T) {
	s := newTestService(t, false)
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	quantities := []int64{100, 0, 2500, 7, 100}
	var want int64
	for _, q := range quantities {
		mustRecord(t, s, "", "u1", q, now)
		want += q
	}

	s.mu.Lock()
	acc := s.store.accounts[accountKey{identity: "u1"}]
	var logSum int64
	for _, e := range acc.Log {
		logSum += e.Quantity
	}
	total, grand := acc.Total, s.store.grandTotal()
	entries := len(acc.Log)
	s.mu.Unlock()

	if total != want || logSum != want || grand != want {
		t.Fatalf("total=%d logSum=%d grand=%d, want all %d", total, logSum, grand, want)
	}
	if entries != len(quantities) {
		t.Fatalf("log has %d entries, want %d (no dedup)", entries, len(quantities))
	}
}

func TestRecordParseFailureMutatesNothing(t *testing.T) {
	s := newTestService(t, false)
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	_, err := s.Record(context.Background(), "", "u1", "no numbers here", now)
	if !errors.Is(err, core.ErrNoQuantity) {
		t.Fatalf("err = %v, want ErrNoQuantity", err)
	}
	if got := s.GrandTotal(now); got != 0 {
		t.Fatalf("grand total = %d after failed record, want 0", got)
	}
	report, err := s.DailyReport(context.Background(), "", now, now)
	if err != nil || len(report.Lines) != 0 {
		t.Fatalf("report = %+v, %v; want empty", report, err)
	}
}

func TestGrandTotalAcrossIdentities(t *testing.T) {
	s := newTestService(t, false)
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	mustRecord(t, s, "", "a", 10, now)
	mustRecord(t, s, "", "b", 20, now)
	mustRecord(t, s, "", "a", 5, now)

	if got := s.GrandTotal(now); got != 35 {
		t.Fatalf("grand total = %d, want 35", got)
	}
}

func TestPeriodRolloverClearsEverything(t *testing.T) {
	s := newTestService(t, false)
	aug := time.Date(2025, 8, 28, 12, 0, 0, 0, jakarta)
	sep := time.Date(2025, 9, 1, 0, 0, 1, 0, jakarta)

	mustRecord(t, s, "", "a", 1000, aug)
	mustRecord(t, s, "", "b", 500, aug)

	if got := s.GrandTotal(sep); got != 0 {
		t.Fatalf("grand total after rollover = %d, want 0", got)
	}
	report, err := s.DailyReport(context.Background(), "", aug, sep)
	if err != nil || len(report.Lines) != 0 || report.Total != 0 {
		t.Fatalf("prior-period entries survived rollover: %+v, %v", report, err)
	}

	// New period accumulates from scratch.
	mustRecord(t, s, "", "a", 7, sep)
	if got := s.GrandTotal(sep); got != 7 {
		t.Fatalf("grand total = %d, want 7", got)
	}
}

func TestRolloverAfterMultiMonthGap(t *testing.T) {
	s := newTestService(t, false)
	jan := time.Date(2025, 1, 15, 8, 0, 0, 0, jakarta)
	may := time.Date(2025, 5, 2, 8, 0, 0, 0, jakarta)

	mustRecord(t, s, "", "a", 9, jan)

	s.mu.Lock()
	changed := s.reconcile(may)
	changedAgain := s.reconcile(may)
	grand := s.store.grandTotal()
	s.mu.Unlock()

	if !changed {
		t.Fatal("expected rollover after gap")
	}
	if changedAgain {
		t.Fatal("second reconcile in same period must be a no-op")
	}
	if grand != 0 {
		t.Fatalf("grand total = %d after gap rollover, want 0", grand)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	s := newTestService(t, false)
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	mustRecord(t, s, "", "a", 3, now)

	s.mu.Lock()
	first := s.reconcile(now)
	s.mu.Unlock()
	if first {
		t.Fatal("reconcile within same period reported a change")
	}
	if got := s.GrandTotal(now); got != 3 {
		t.Fatalf("grand total = %d after reconcile, want 3", got)
	}
}

func TestPeriodBoundaryUsesServiceTimezone(t *testing.T) {
	s := newTestService(t, false)

	// 2025-08-31 20:00 UTC is 2025-09-01 03:00 in Jakarta: already the
	// next period for this service.
	aug := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	boundary := time.Date(2025, 8, 31, 20, 0, 0, 0, time.UTC)

	mustRecord(t, s, "", "a", 11, aug)
	if got := s.GrandTotal(boundary); got != 0 {
		t.Fatalf("grand total = %d, want 0 after timezone-local rollover", got)
	}
}

func TestDailyReportOrderingAndNumbering(t *testing.T) {
	s := newTestService(t, false)
	base := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	// Arrival order A, B, A. Account order groups A's entries first.
	mustRecord(t, s, "", "A", 1, base)
	mustRecord(t, s, "", "B", 2, base.Add(time.Minute))
	mustRecord(t, s, "", "A", 3, base.Add(2*time.Minute))

	report, err := s.DailyReport(context.Background(), "", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if len(report.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(report.Lines))
	}
	wantLabels := []string{"A", "A", "B"}
	wantQty := []int64{1, 3, 2}
	for i, line := range report.Lines {
		if line.Seq != i+1 {
			t.Errorf("line %d seq = %d, want %d", i, line.Seq, i+1)
		}
		if line.Label != wantLabels[i] || line.Quantity != wantQty[i] {
			t.Errorf("line %d = %s/%d, want %s/%d", i, line.Label, line.Quantity, wantLabels[i], wantQty[i])
		}
	}
	if report.Total != 6 {
		t.Fatalf("report total = %d, want 6", report.Total)
	}
}

func TestDailyReportFiltersByDate(t *testing.T) {
	s := newTestService(t, false)
	day1 := time.Date(2025, 8, 10, 23, 50, 0, 0, jakarta)
	day2 := time.Date(2025, 8, 11, 0, 10, 0, 0, jakarta)

	mustRecord(t, s, "", "a", 4, day1)
	mustRecord(t, s, "", "a", 6, day2)

	report, err := s.DailyReport(context.Background(), "", day2, day2)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if len(report.Lines) != 1 || report.Total != 6 {
		t.Fatalf("report = %+v, want single line total 6", report)
	}
	if report.Date != "2025-08-11" {
		t.Fatalf("report date = %q, want 2025-08-11", report.Date)
	}
}

func TestDailyReportUsesLabeler(t *testing.T) {
	var lookups int
	labeler := lookup.LabelerFunc(func(_ context.Context, identity string) (string, error) {
		lookups++
		return "@" + identity, nil
	})
	s := New(Options{Location: jakarta, Labeler: labeler})
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	mustRecord(t, s, "", "budi", 10, now)
	mustRecord(t, s, "", "budi", 20, now)

	report, err := s.DailyReport(context.Background(), "", now, now)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if report.Lines[0].Label != "@budi" {
		t.Fatalf("label = %q, want @budi", report.Lines[0].Label)
	}
	if lookups != 1 {
		t.Fatalf("labeler called %d times, want once per distinct identity", lookups)
	}
}

func TestDailyReportLabelerFailureFallsBack(t *testing.T) {
	labeler := lookup.LabelerFunc(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("upstream down")
	})
	s := New(Options{Location: jakarta, Labeler: labeler})
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	mustRecord(t, s, "", "budi", 10, now)

	report, err := s.DailyReport(context.Background(), "", now, now)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if report.Lines[0].Label != "budi" {
		t.Fatalf("label = %q, want raw identity fallback", report.Lines[0].Label)
	}
}

func TestGroupModeRequiresSelection(t *testing.T) {
	s := newTestService(t, true, "kolam-1", "kolam-2")
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	if _, err := s.Record(context.Background(), "", "a", "10 butir", now); !errors.Is(err, core.ErrNoGroupSelected) {
		t.Fatalf("Record err = %v, want ErrNoGroupSelected", err)
	}
	if _, err := s.DailyReport(context.Background(), "", now, now); !errors.Is(err, core.ErrNoGroupSelected) {
		t.Fatalf("DailyReport err = %v, want ErrNoGroupSelected", err)
	}
	if _, err := s.ExportPeriod(context.Background(), "", now); !errors.Is(err, core.ErrNoGroupSelected) {
		t.Fatalf("ExportPeriod err = %v, want ErrNoGroupSelected", err)
	}
	if _, err := s.Record(context.Background(), "kolam-9", "a", "10 butir", now); !errors.Is(err, core.ErrUnknownGroup) {
		t.Fatalf("Record err = %v, want ErrUnknownGroup", err)
	}
}

func TestGroupIsolation(t *testing.T) {
	s := newTestService(t, true, "g1", "g2")
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	mustRecord(t, s, "g1", "a", 100, now)
	mustRecord(t, s, "g2", "a", 999, now)

	report, err := s.DailyReport(context.Background(), "g1", now, now)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if report.Total != 100 || len(report.Lines) != 1 {
		t.Fatalf("g1 report = %+v, leaked entries across groups", report)
	}

	doc, err := s.ExportPeriod(context.Background(), "g2", now)
	if err != nil {
		t.Fatalf("ExportPeriod: %v", err)
	}
	for _, sheet := range doc.Sheets {
		for _, row := range sheet.Rows {
			if qty, ok := row[len(row)-1].(int64); ok && qty == 100 {
				t.Fatalf("g1 quantity appeared in g2 export sheet %q", sheet.Name)
			}
		}
	}
}

func TestConcurrentRecordsKeepTotalsExact(t *testing.T) {
	s := newTestService(t, false)
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			identity := fmt.Sprintf("u%d", w)
			for i := 0; i < perWorker; i++ {
				if _, err := s.Record(context.Background(), "", identity, "3 butir", now); err != nil {
					t.Errorf("Record: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if got, want := s.GrandTotal(now), int64(workers*perWorker*3); got != want {
		t.Fatalf("grand total = %d, want %d (lost updates)", got, want)
	}

	report, err := s.DailyReport(context.Background(), "", now, now)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if len(report.Lines) != workers*perWorker {
		t.Fatalf("report has %d lines, want %d", len(report.Lines), workers*perWorker)
	}
}

func TestCurrentPeriodKey(t *testing.T) {
	s := newTestService(t, false)
	now := time.Date(2025, 8, 31, 23, 30, 0, 0, time.UTC)
	// 23:30 UTC is already September in Jakarta.
	if got := s.CurrentPeriodKey(now); got != "2025-09" {
		t.Fatalf("CurrentPeriodKey = %q, want 2025-09", got)
	}
}
