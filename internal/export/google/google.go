package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"panen/internal/core"
	"panen/internal/export"
)

// Client writes export documents into a Google spreadsheet: one
// worksheet per document sheet, replaced wholesale on every write so
// the spreadsheet always mirrors the current period.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ export.Writer = (*Client)(nil)

// NewFromEnv creates a Sheets-backed writer from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Write implements export.Writer. Each document sheet is created when
// missing, cleared and rewritten with header, rows and totals.
func (c *Client) Write(ctx context.Context, doc core.Document) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	existing, err := c.sheetTitles(ctx)
	if err != nil {
		return "", err
	}

	for _, sheet := range doc.Sheets {
		if _, ok := existing[sheet.Name]; !ok {
			if err := c.addSheet(ctx, sheet.Name); err != nil {
				return "", err
			}
			existing[sheet.Name] = struct{}{}
		}
		if err := c.writeSheet(ctx, sheet); err != nil {
			return "", err
		}
	}

	slog.InfoContext(ctx, "Export written to Google spreadsheet",
		"component", "export",
		"spreadsheet_id", c.spreadsheetID,
		"period", string(doc.Period),
		"sheets", len(doc.Sheets))

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", c.spreadsheetID), nil
}

func (c *Client) sheetTitles(ctx context.Context) (map[string]struct{}, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	titles := make(map[string]struct{}, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = struct{}{}
		}
	}
	return titles, nil
}

func (c *Client) addSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	return nil
}

func (c *Client) writeSheet(ctx context.Context, sheet core.Sheet) error {
	rng := fmt.Sprintf("%s!A:Z", sheet.Name)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %q: %w", sheet.Name, err)
	}

	values := make([][]any, 0, len(sheet.Rows)+1)
	header := make([]any, len(sheet.Columns))
	for i, col := range sheet.Columns {
		header[i] = col
	}
	values = append(values, header)
	values = append(values, sheet.Rows...)

	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A1", sheet.Name), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %q: %w", sheet.Name, err)
	}
	return nil
}
