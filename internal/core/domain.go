package core

import (
	"errors"
	"time"
)

type (
	// PeriodKey identifies one accounting window: a calendar year-month
	// ("2025-08") computed from wall-clock time in the service timezone.
	PeriodKey string

	// Entry is one immutable reported quantity event. Group is empty in
	// single-tenant mode.
	Entry struct {
		Identity string
		Group    string
		At       time.Time
		Quantity int64
	}

	// Line is one rendered row of a daily report. Seq is 1-based and
	// assigned across the whole report, not per identity.
	Line struct {
		Seq      int
		Label    string
		Quantity int64
		At       time.Time
	}

	// Report is the rendered daily view: ordered lines plus their sum.
	Report struct {
		Date  string
		Lines []Line
		Total int64
	}

	// Sheet is one named table of an export document.
	Sheet struct {
		Name    string
		Columns []string
		Rows    [][]any
	}

	// Document is the full current-period export: one sheet per date,
	// a totals summary and, in group mode, a per-member sheet. The
	// encoding (xlsx, remote spreadsheet) belongs to the writer.
	Document struct {
		Period PeriodKey
		Sheets []Sheet
	}
)

var (
	ErrNoQuantity         = errors.New("no quantity found in message")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrNoGroupSelected    = errors.New("no group selected")
	ErrUnknownGroup       = errors.New("unknown group")
)

const (
	// DateLayout is the calendar-date form used for report filtering,
	// sheet names and the summary sheet.
	DateLayout = "2006-01-02"

	// TimestampLayout is the second-precision form entries carry into
	// reports and exports.
	TimestampLayout = "2006-01-02 15:04:05"

	periodLayout = "2006-01"
)

// PeriodKeyAt computes the period key for t in loc.
func PeriodKeyAt(t time.Time, loc *time.Location) PeriodKey {
	return PeriodKey(t.In(loc).Format(periodLayout))
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}
