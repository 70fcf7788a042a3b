package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"paysched/internal/core"
	ports "paysched/internal/sheets"
)

func TestEncodeRowFollowsHeader(t *testing.T) {
	p := core.Payment{
		ID:                 3,
		PayeeName:          "Office Rent",
		Amount:             120000,
		DueDate:            core.NewDate(2024, time.January, 20),
		Type:               core.TypeMonthly,
		Method:             core.MethodBankTransfer,
		Status:             core.StatusDeferred,
		OriginalDueDate:    core.NewDate(2024, time.January, 20),
		PlannedPaymentDate: core.NewDate(2024, time.April, 15),
		DeferredReason:     "cash flow",
		Document:           &core.DocumentRef{Name: "lease.pdf"},
		Version:            4,
	}
	row := encodeRow(p)
	if len(row) != len(ports.Header) {
		t.Fatalf("row has %d cells, header %d", len(row), len(ports.Header))
	}
	if row[colID] != int64(3) || row[colVersion] != int64(4) {
		t.Fatalf("unexpected id/version cells: %v %v", row[colID], row[colVersion])
	}
	if row[2] != int64(120000) || row[3] != "2024-01-20" || row[4] != "deferred" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[8] != "2024-04-15" || row[9] != "cash flow" || row[11] != "lease.pdf" {
		t.Fatalf("unexpected deferral cells %v", row)
	}

	plain := encodeRow(core.Payment{ID: 1, DueDate: core.NewDate(2024, 1, 1)})
	if plain[7] != "" || plain[8] != "" || plain[11] != "" {
		t.Fatalf("empty optional cells expected, got %v", plain)
	}
}

func TestParseIDColumn(t *testing.T) {
	values := [][]interface{}{
		{"ID"},
		{"7"},
		{},
		{float64(2)},
		{"1,024"},
		{"not a number"},
	}
	rows, next := parseIDColumn(values)
	want := map[int64]int{7: 2, 2: 4, 1024: 5}
	if len(rows) != len(want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
	for id, row := range want {
		if rows[id] != row {
			t.Fatalf("id %d: got row %d, want %d", id, rows[id], row)
		}
	}
	if next != 7 {
		t.Fatalf("next row = %d, want 7", next)
	}

	if _, next := parseIDColumn(nil); next != 2 {
		t.Fatalf("empty sheet must append below the header, got row %d", next)
	}
}

func TestParseVersions(t *testing.T) {
	values := [][]interface{}{
		{"ID", "Payee"},
		{"1", "TEPCO", "15000", "2024-01-15", "upcoming", "", "", "", "", "", "", "", "3"},
		{"2", "NTT"},
		{float64(1.5)},
	}
	got := parseVersions(values)
	if len(got) != 2 || got[1] != 3 || got[2] != 0 {
		t.Fatalf("unexpected versions %v", got)
	}
}

func TestSheetRangeHelpers(t *testing.T) {
	if lastColumn() != "M" {
		t.Fatalf("lastColumn = %q", lastColumn())
	}
	if got := quoteSheet("Bob's 2024"); got != "'Bob''s 2024'" {
		t.Fatalf("quoteSheet = %q", got)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Fatalf("expected missing id error, got %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := loadCredentials(Config{}); err == nil {
		t.Fatal("expected error without credentials")
	}
	b, err := loadCredentials(Config{CredentialsJSON: ` {"type":"service_account"} `, CredentialsFile: "/nope"})
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("inline JSON should win: %q %v", b, err)
	}
	if _, err := loadCredentials(Config{CredentialsFile: t.TempDir() + "/missing.json"}); err == nil {
		t.Fatal("expected read error")
	}
}
