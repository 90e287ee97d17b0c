package tally

import (
	"context"
	"testing"
	"time"
)

func TestExportPeriodSheetsPerDate(t *testing.T) {
	s := newTestService(t, false)
	d1 := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)
	d2 := time.Date(2025, 8, 12, 15, 30, 0, 0, jakarta)

	mustRecord(t, s, "", "a", 100, d1)
	mustRecord(t, s, "", "b", 50, d1)
	mustRecord(t, s, "", "a", 200, d2)

	doc, err := s.ExportPeriod(context.Background(), "", d2)
	if err != nil {
		t.Fatalf("ExportPeriod: %v", err)
	}
	if doc.Period != "2025-08" {
		t.Fatalf("period = %q, want 2025-08", doc.Period)
	}

	// Two date sheets in ascending order, then the summary.
	wantNames := []string{"2025-08-10", "2025-08-12", SummarySheet}
	if len(doc.Sheets) != len(wantNames) {
		t.Fatalf("got %d sheets, want %d", len(doc.Sheets), len(wantNames))
	}
	for i, name := range wantNames {
		if doc.Sheets[i].Name != name {
			t.Fatalf("sheet %d = %q, want %q", i, doc.Sheets[i].Name, name)
		}
	}

	day1 := doc.Sheets[0]
	if len(day1.Rows) != 3 { // two entries + total row
		t.Fatalf("day1 has %d rows, want 3", len(day1.Rows))
	}
	last := day1.Rows[len(day1.Rows)-1]
	if last[0] != "Total" || last[2].(int64) != 150 {
		t.Fatalf("day1 total row = %v, want Total/150", last)
	}
	if ts := day1.Rows[0][1].(string); ts != "2025-08-10 09:00:00" {
		t.Fatalf("timestamp cell = %q", ts)
	}
}

func TestExportPeriodSummaryGrandTotal(t *testing.T) {
	s := newTestService(t, false)
	d1 := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)
	d2 := time.Date(2025, 8, 11, 9, 0, 0, 0, jakarta)

	mustRecord(t, s, "", "a", 10, d1)
	mustRecord(t, s, "", "b", 20, d1)
	mustRecord(t, s, "", "a", 30, d2)

	doc, err := s.ExportPeriod(context.Background(), "", d2)
	if err != nil {
		t.Fatalf("ExportPeriod: %v", err)
	}
	summary := doc.Sheets[len(doc.Sheets)-1]
	if summary.Name != SummarySheet {
		t.Fatalf("last sheet = %q, want summary", summary.Name)
	}
	if len(summary.Rows) != 3 { // two dates + grand total
		t.Fatalf("summary has %d rows, want 3", len(summary.Rows))
	}
	if summary.Rows[0][0] != "2025-08-10" || summary.Rows[0][1].(int64) != 30 {
		t.Fatalf("summary row 0 = %v", summary.Rows[0])
	}
	if summary.Rows[1][0] != "2025-08-11" || summary.Rows[1][1].(int64) != 30 {
		t.Fatalf("summary row 1 = %v", summary.Rows[1])
	}
	grand := summary.Rows[2]
	if grand[0] != "Grand Total" || grand[1].(int64) != s.GrandTotal(d2) {
		t.Fatalf("grand total row = %v, store grand = %d", grand, s.GrandTotal(d2))
	}
}

func TestExportPeriodMembersSheetInGroupMode(t *testing.T) {
	s := newTestService(t, true, "g1")
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	mustRecord(t, s, "g1", "a", 10, now)
	mustRecord(t, s, "g1", "b", 20, now)
	mustRecord(t, s, "g1", "a", 5, now.Add(time.Minute))

	doc, err := s.ExportPeriod(context.Background(), "g1", now)
	if err != nil {
		t.Fatalf("ExportPeriod: %v", err)
	}
	members := doc.Sheets[len(doc.Sheets)-1]
	if members.Name != MembersSheet {
		t.Fatalf("last sheet = %q, want members sheet in group mode", members.Name)
	}
	if len(members.Rows) != 2 {
		t.Fatalf("members sheet has %d rows, want 2", len(members.Rows))
	}
	if members.Rows[0][0] != "a" || members.Rows[0][1].(int64) != 15 {
		t.Fatalf("member row 0 = %v, want a/15", members.Rows[0])
	}
	if members.Rows[1][0] != "b" || members.Rows[1][1].(int64) != 20 {
		t.Fatalf("member row 1 = %v, want b/20", members.Rows[1])
	}
}

func TestExportPeriodEmptyState(t *testing.T) {
	s := newTestService(t, false)
	now := time.Date(2025, 8, 10, 9, 0, 0, 0, jakarta)

	doc, err := s.ExportPeriod(context.Background(), "", now)
	if err != nil {
		t.Fatalf("ExportPeriod: %v", err)
	}
	if len(doc.Sheets) != 1 {
		t.Fatalf("got %d sheets, want summary only", len(doc.Sheets))
	}
	summary := doc.Sheets[0]
	if len(summary.Rows) != 1 || summary.Rows[0][0] != "Grand Total" || summary.Rows[0][1].(int64) != 0 {
		t.Fatalf("summary = %v, want lone zero grand total", summary.Rows)
	}
}

func TestExportFileName(t *testing.T) {
	if got := ExportFileName("2025-08"); got != "panen_2025-08.xlsx" {
		t.Fatalf("ExportFileName = %q", got)
	}
}
