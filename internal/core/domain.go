package core

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	StatusUpcoming Status = "upcoming"
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusOverdue  Status = "overdue"
	StatusDeferred Status = "deferred"
)

const (
	TypeOneTime PaymentType = "one-time"
	TypeDaily   PaymentType = "daily"
	TypeWeekly  PaymentType = "weekly"
	TypeMonthly PaymentType = "monthly"
)

const (
	MethodBankTransfer PaymentMethod = "bank-transfer"
	MethodCreditCard   PaymentMethod = "credit-card"
	MethodCheck        PaymentMethod = "check"
	MethodCash         PaymentMethod = "cash"
	MethodOther        PaymentMethod = "other"
)

const (
	maxPayeeLength = 200
	maxNotesLength = 2000
	dateLayout     = "2006-01-02"
)

type (
	// Status is the lifecycle label of a payment.
	Status string

	// PaymentType classifies recurrence. It is informational only.
	PaymentType string

	// PaymentMethod is how the payment is settled.
	PaymentMethod string

	// Yen is an amount in whole yen.
	Yen int64

	Date struct {
		time.Time
	}

	// DocumentRef points at a file held by the document store.
	DocumentRef struct {
		Path        string `json:"path"`
		Name        string `json:"name"`
		ContentType string `json:"content_type,omitempty"`
		Size        int64  `json:"size,omitempty"`
	}

	Payment struct {
		ID        int64         `json:"id"`
		PayeeName string        `json:"payee_name"`
		Amount    Yen           `json:"amount"`
		DueDate   Date          `json:"due_date"`
		Type      PaymentType   `json:"payment_type"`
		Method    PaymentMethod `json:"payment_method"`
		Status    Status        `json:"status"`
		Notes     string        `json:"notes,omitempty"`
		Document  *DocumentRef  `json:"document,omitempty"`

		// Set only while Status is deferred.
		OriginalDueDate    Date   `json:"original_due_date,omitzero"`
		PlannedPaymentDate Date   `json:"planned_payment_date,omitzero"`
		DeferredReason     string `json:"deferred_reason,omitempty"`

		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt time.Time  `json:"updated_at"`
		DeletedAt *time.Time `json:"deleted_at,omitempty"`
		Version   int64      `json:"version"`
	}

	// Draft is the input of the Add flow.
	Draft struct {
		PayeeName string
		Amount    Yen
		DueDate   Date
		Type      PaymentType
		Method    PaymentMethod
		Notes     string
		Document  *DocumentRef
	}

	// Patch carries the fields changed by the Edit flow. Nil fields are left untouched.
	Patch struct {
		PayeeName *string
		Amount    *Yen
		DueDate   *Date
		Type      *PaymentType
		Method    *PaymentMethod
		Status    *Status
		Notes     *string
	}
)

// AllStatuses lists every status in display order.
func AllStatuses() []Status {
	return []Status{StatusUpcoming, StatusPending, StatusPaid, StatusOverdue, StatusDeferred}
}

// AllPaymentTypes lists every payment type in display order.
func AllPaymentTypes() []PaymentType {
	return []PaymentType{TypeOneTime, TypeDaily, TypeWeekly, TypeMonthly}
}

// AllPaymentMethods lists every payment method in display order.
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{MethodBankTransfer, MethodCreditCard, MethodCheck, MethodCash, MethodOther}
}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusPending, StatusPaid, StatusOverdue, StatusDeferred:
		return true
	}
	return false
}

func (t PaymentType) Valid() bool {
	switch t {
	case TypeOneTime, TypeDaily, TypeWeekly, TypeMonthly:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodCreditCard, MethodCheck, MethodCash, MethodOther:
		return true
	}
	return false
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", invalid("status", ErrUnknownStatus)
	}
	return st, nil
}

// ParsePaymentType converts user input into a PaymentType.
func ParsePaymentType(s string) (PaymentType, error) {
	t := PaymentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", invalid("payment_type", ErrUnknownType)
	}
	return t, nil
}

// ParsePaymentMethod converts user input into a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", invalid("payment_method", ErrUnknownMethod)
	}
	return m, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// InMonth reports whether d falls in the given year and month.
func (d Date) InMonth(year int, month time.Month) bool {
	return !d.IsZero() && d.Year() == year && d.Month() == month
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Trashed reports whether the payment sits in the trash partition.
func (p Payment) Trashed() bool {
	return p.DeletedAt != nil
}

// Clone returns a copy that shares no pointers with p.
func (p Payment) Clone() Payment {
	out := p
	if p.Document != nil {
		doc := *p.Document
		out.Document = &doc
	}
	if p.DeletedAt != nil {
		at := *p.DeletedAt
		out.DeletedAt = &at
	}
	return out
}

func (p Payment) Validate() error {
	if err := validatePayee(p.PayeeName); err != nil {
		return err
	}
	if p.Amount < 0 {
		return invalid("amount", ErrNegativeAmount)
	}
	if p.DueDate.IsZero() {
		return invalid("due_date", ErrMissingDate)
	}
	if !p.Type.Valid() {
		return invalid("payment_type", ErrUnknownType)
	}
	if !p.Method.Valid() {
		return invalid("payment_method", ErrUnknownMethod)
	}
	if !p.Status.Valid() {
		return invalid("status", ErrUnknownStatus)
	}
	if utf8.RuneCountInString(p.Notes) > maxNotesLength {
		return invalid("notes", ErrTooLong)
	}

	if p.Status == StatusDeferred {
		if p.OriginalDueDate.IsZero() {
			return invalid("original_due_date", ErrMissingDate)
		}
		if p.PlannedPaymentDate.IsZero() {
			return invalid("planned_payment_date", ErrMissingDate)
		}
		return nil
	}
	if !p.OriginalDueDate.IsZero() || !p.PlannedPaymentDate.IsZero() || p.DeferredReason != "" {
		return invalid("status", ErrStrayDeferral)
	}
	return nil
}

// Payment builds the record the store inserts. Status always starts as upcoming;
// missing type and method fall back to one-time and other.
func (d Draft) Payment() Payment {
	p := Payment{
		PayeeName: strings.TrimSpace(d.PayeeName),
		Amount:    d.Amount,
		DueDate:   d.DueDate,
		Type:      d.Type,
		Method:    d.Method,
		Status:    StatusUpcoming,
		Notes:     strings.TrimSpace(d.Notes),
	}
	if p.Type == "" {
		p.Type = TypeOneTime
	}
	if p.Method == "" {
		p.Method = MethodOther
	}
	if d.Document != nil {
		doc := *d.Document
		p.Document = &doc
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (pt Patch) Empty() bool {
	return pt.PayeeName == nil && pt.Amount == nil && pt.DueDate == nil && pt.Type == nil &&
		pt.Method == nil && pt.Status == nil && pt.Notes == nil
}

// Apply merges the patch into p and re-validates it. Status changes go through the
// lifecycle rules; p is left untouched on error.
func (pt Patch) Apply(p *Payment) error {
	next := p.Clone()
	if pt.PayeeName != nil {
		next.PayeeName = strings.TrimSpace(*pt.PayeeName)
	}
	if pt.Amount != nil {
		next.Amount = *pt.Amount
	}
	if pt.DueDate != nil {
		next.DueDate = *pt.DueDate
		if next.Status == StatusDeferred {
			next.OriginalDueDate = *pt.DueDate
		}
	}
	if pt.Type != nil {
		next.Type = *pt.Type
	}
	if pt.Method != nil {
		next.Method = *pt.Method
	}
	if pt.Notes != nil {
		next.Notes = strings.TrimSpace(*pt.Notes)
	}
	if pt.Status != nil {
		if err := SetStatus(&next, *pt.Status); err != nil {
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

func validatePayee(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("payee_name", ErrEmptyPayee)
	}
	if utf8.RuneCountInString(name) > maxPayeeLength {
		return invalid("payee_name", ErrTooLong)
	}
	return nil
}
