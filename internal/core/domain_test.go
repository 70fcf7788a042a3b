package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func validPayment() Payment {
	return Payment{
		ID:        1,
		PayeeName: "Tokyo Electric Power",
		Amount:    15000,
		DueDate:   NewDate(2024, time.January, 15),
		Type:      TypeMonthly,
		Method:    MethodBankTransfer,
		Status:    StatusUpcoming,
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-20", true},
		{"2024-02-29", true},
		{" 2024-12-31 ", true},
		{"2023-02-29", false},
		{"2024/01/20", false},
		{"", false},
	}
	for i, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, time.January, 20))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-01-20"` {
		t.Fatalf("unexpected json %s", b)
	}

	var d Date
	if err := json.Unmarshal([]byte(`""`), &d); err != nil || !d.IsZero() {
		t.Fatalf("empty string should decode to zero date, got %v %v", d, err)
	}
	if err := json.Unmarshal([]byte(`"20-01-2024"`), &d); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseStatus(" Deferred "); err != nil || s != StatusDeferred {
		t.Fatalf("got %q %v", s, err)
	}
	if _, err := ParseStatus("cancelled"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if m, err := ParsePaymentMethod("credit-card"); err != nil || m != MethodCreditCard {
		t.Fatalf("got %q %v", m, err)
	}
	if _, err := ParsePaymentType("yearly"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if len(AllStatuses()) != 5 || len(AllPaymentMethods()) != 5 || len(AllPaymentTypes()) != 4 {
		t.Fatalf("unexpected enum list sizes")
	}
}

func TestPaymentValidate(t *testing.T) {
	if err := validPayment().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := validPayment()
	zero.Amount = 0
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	bads := []struct {
		mutate func(*Payment)
		field  string
	}{
		{func(p *Payment) { p.PayeeName = "   " }, "payee_name"},
		{func(p *Payment) { p.Amount = -1 }, "amount"},
		{func(p *Payment) { p.DueDate = Date{} }, "due_date"},
		{func(p *Payment) { p.Method = "paypal" }, "payment_method"},
		{func(p *Payment) { p.Type = "" }, "payment_type"},
		{func(p *Payment) { p.Status = "lost" }, "status"},
		{func(p *Payment) { p.DeferredReason = "why" }, "status"},
		{func(p *Payment) {
			p.Status = StatusDeferred
			p.OriginalDueDate = p.DueDate
		}, "planned_payment_date"},
	}
	for i, tc := range bads {
		p := validPayment()
		tc.mutate(&p)
		err := p.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
		if ve.Field != tc.field {
			t.Fatalf("case %d expected field %s, got %s", i, tc.field, ve.Field)
		}
	}
}

func TestDraftPaymentDefaults(t *testing.T) {
	p := Draft{PayeeName: " Rent ", Amount: 120000, DueDate: NewDate(2024, time.January, 20)}.Payment()
	if p.Status != StatusUpcoming {
		t.Fatalf("expected upcoming, got %s", p.Status)
	}
	if p.PayeeName != "Rent" || p.Type != TypeOneTime || p.Method != MethodOther {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestPatchApply(t *testing.T) {
	p := validPayment()
	amount := Yen(20000)
	paid := StatusPaid
	if err := (Patch{Amount: &amount, Status: &paid}).Apply(&p); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if p.Amount != 20000 || p.Status != StatusPaid {
		t.Fatalf("patch not applied: %+v", p)
	}

	before := p
	empty := ""
	if err := (Patch{Amount: &amount, PayeeName: &empty}).Apply(&p); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if p != before {
		t.Fatalf("failed patch must leave payment untouched")
	}

	deferred := StatusDeferred
	if err := (Patch{Status: &deferred}).Apply(&p); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := validPayment()
	p.Document = &DocumentRef{Path: "/uploads/a.pdf", Name: "a.pdf"}
	c := p.Clone()
	c.Document.Name = "b.pdf"
	if p.Document.Name != "a.pdf" {
		t.Fatalf("clone shares document pointer")
	}
}
