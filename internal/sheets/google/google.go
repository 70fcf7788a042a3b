package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"paysched/internal/core"
	ports "paysched/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Payments"

// Config selects the spreadsheet and the service account used to write it.
// CredentialsJSON wins over CredentialsFile; with neither set the standard
// GOOGLE_APPLICATION_CREDENTIALS file is used.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu          sync.Mutex
	headerReady bool
	sheetID     *int64
}

var _ ports.Ledger = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = defaultSheetName
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	file := strings.TrimSpace(cfg.CredentialsFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// Upsert rewrites the row holding p.ID in place, or appends a new one.
func (c *Client) Upsert(ctx context.Context, p core.Payment) (string, error) {
	if err := c.ensureHeader(ctx); err != nil {
		return "", err
	}
	rows, next, err := c.rowIndex(ctx)
	if err != nil {
		return "", err
	}
	row, ok := rows[p.ID]
	if !ok {
		row = next
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", quoteSheet(c.sheet), row, lastColumn(), row)
	vr := &gsheet.ValueRange{Values: [][]interface{}{encodeRow(p)}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("sheets update %s: %w", rng, err)
	}
	slog.DebugContext(ctx, "Ledger row written", "id", p.ID, "row", row, "appended", !ok)
	return rng, nil
}

// Remove deletes the row of id so the ledger has no gaps.
func (c *Client) Remove(ctx context.Context, id int64) error {
	rows, _, err := c.rowIndex(ctx)
	if err != nil {
		return err
	}
	row, ok := rows[id]
	if !ok {
		return nil
	}
	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row - 1),
			EndIndex:   int64(row),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets delete row %d: %w", row, err)
	}
	slog.DebugContext(ctx, "Ledger row removed", "id", id, "row", row)
	return nil
}

func (c *Client) Versions(ctx context.Context) (map[int64]int64, error) {
	rng := fmt.Sprintf("%s!A:%s", quoteSheet(c.sheet), lastColumn())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get %s: %w", rng, err)
	}
	return parseVersions(resp.Values), nil
}

func (c *Client) ensureHeader(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.headerReady {
		return nil
	}
	rng := fmt.Sprintf("%s!A1:%s1", quoteSheet(c.sheet), lastColumn())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets get %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		header := make([]interface{}, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		vr := &gsheet.ValueRange{Values: [][]interface{}{header}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("sheets write header: %w", err)
		}
		slog.InfoContext(ctx, "Ledger header written", "sheet", c.sheet)
	}
	c.headerReady = true
	return nil
}

// rowIndex maps payment ids to their 1-based row numbers and reports the first
// free row after the data.
func (c *Client) rowIndex(ctx context.Context) (map[int64]int, int, error) {
	rng := fmt.Sprintf("%s!A:A", quoteSheet(c.sheet))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("sheets get %s: %w", rng, err)
	}
	rows, next := parseIDColumn(resp.Values)
	return rows, next, nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheet {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheet)
}
