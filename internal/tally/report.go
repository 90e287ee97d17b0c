package tally

import (
	"context"
	"time"

	"panen/internal/core"
)

// DailyReport renders the entries of one calendar day (in the service
// timezone) as numbered lines plus a trailing total. Ordering is
// account first-seen order, then log order within an account, with the
// sequence number running across the whole report. The day is usually
// now itself ("today"), but any day of the current period works.
func (s *Service) DailyReport(ctx context.Context, group string, day, now time.Time) (core.Report, error) {
	group, err := s.checkScope(group)
	if err != nil {
		return core.Report{}, err
	}

	entries, _ := s.snapshotScope(group, now)

	date := core.DateOf(day, s.loc)
	var todays []core.Entry
	for _, e := range entries {
		if core.DateOf(e.At, s.loc) == date {
			todays = append(todays, e)
		}
	}

	labels := s.resolveLabels(ctx, todays)

	report := core.Report{Date: date}
	for i, e := range todays {
		report.Lines = append(report.Lines, core.Line{
			Seq:      i + 1,
			Label:    labels[e.Identity],
			Quantity: e.Quantity,
			At:       e.At,
		})
		report.Total += e.Quantity
	}
	return report, nil
}
