package tally

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"panen/internal/core"
	applog "panen/internal/log"
)

// Sheet and column names of the export document. Dates double as sheet
// names for the per-day sheets.
const (
	SummarySheet = "Total"
	MembersSheet = "Members"
	totalRow     = "Total"
	grandRow     = "Grand Total"
)

var (
	dayColumns     = []string{"Member", "Date", "Quantity"}
	summaryColumns = []string{"Date", "Total Quantity"}
	membersColumns = []string{"Member", "Total Quantity"}
)

// ExportPeriod renders the full current-period state as a multi-sheet
// document: one sheet per calendar date in ascending order, a summary
// sheet of per-date totals ending in the grand total, and in group mode
// a per-member totals sheet. Encoding is the export writer's business.
func (s *Service) ExportPeriod(ctx context.Context, group string, now time.Time) (core.Document, error) {
	group, err := s.checkScope(group)
	if err != nil {
		return core.Document{}, err
	}

	entries, grand := s.snapshotScope(group, now)
	labels := s.resolveLabels(ctx, entries)

	byDate := make(map[string][]core.Entry)
	var dates []string
	for _, e := range entries {
		date := core.DateOf(e.At, s.loc)
		if _, ok := byDate[date]; !ok {
			dates = append(dates, date)
		}
		byDate[date] = append(byDate[date], e)
	}
	sort.Strings(dates)

	doc := core.Document{Period: s.CurrentPeriodKey(now)}

	summary := core.Sheet{Name: SummarySheet, Columns: summaryColumns}
	var scopeTotal int64
	for _, date := range dates {
		sheet := core.Sheet{Name: date, Columns: dayColumns}
		var dayTotal int64
		for _, e := range byDate[date] {
			sheet.Rows = append(sheet.Rows, []any{
				labels[e.Identity],
				e.At.Format(core.TimestampLayout),
				e.Quantity,
			})
			dayTotal += e.Quantity
		}
		sheet.Rows = append(sheet.Rows, []any{totalRow, "", dayTotal})
		doc.Sheets = append(doc.Sheets, sheet)

		summary.Rows = append(summary.Rows, []any{date, dayTotal})
		scopeTotal += dayTotal
	}
	summary.Rows = append(summary.Rows, []any{grandRow, scopeTotal})
	doc.Sheets = append(doc.Sheets, summary)

	// An unfiltered scope must add up to the tracked grand total; a
	// mismatch would mean a torn update slipped through the lock.
	if !s.groupMode && scopeTotal != grand {
		slog.ErrorContext(ctx, "Export total diverges from grand total",
			"component", "tally",
			"operation", applog.OpExport,
			"scope_total", scopeTotal,
			"grand_total", grand)
	}

	if s.groupMode {
		doc.Sheets = append(doc.Sheets, s.membersSheet(entries, labels))
	}
	return doc, nil
}

// membersSheet lists every identity in scope with its current-period
// total, in account first-seen order.
func (s *Service) membersSheet(entries []core.Entry, labels map[string]string) core.Sheet {
	sheet := core.Sheet{Name: MembersSheet, Columns: membersColumns}
	totals := make(map[string]int64)
	var order []string
	for _, e := range entries {
		if _, ok := totals[e.Identity]; !ok {
			order = append(order, e.Identity)
		}
		totals[e.Identity] += e.Quantity
	}
	for _, identity := range order {
		sheet.Rows = append(sheet.Rows, []any{labels[identity], totals[identity]})
	}
	return sheet
}

// ExportFileName is the artifact name writers use for a period export.
func ExportFileName(period core.PeriodKey) string {
	return "panen_" + string(period) + ".xlsx"
}
