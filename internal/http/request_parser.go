package http

// Parsing of query strings, path parameters and HTML form values into the
// request types shared with the JSON API.

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"paysched/internal/core"
)

// MonthParams holds the month a calendar view shows.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams extracts year and month from query parameters, falling back to
// today's month for anything missing or out of range.
func ParseMonthParams(query url.Values, today core.Date) MonthParams {
	params := MonthParams{Year: today.Year(), Month: today.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1 && y <= 9999 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = time.Month(m)
		}
	}
	return params
}

// ParseFilter reads the list query: q, status, sort and order=desc.
func ParseFilter(query url.Values) (core.Filter, error) {
	f := core.Filter{
		Search: strings.TrimSpace(query.Get("q")),
		Sort:   core.SortKey(strings.TrimSpace(query.Get("sort"))),
		Desc:   strings.EqualFold(query.Get("order"), "desc"),
	}
	if v := strings.TrimSpace(query.Get("status")); v != "" && v != "all" {
		st, err := core.ParseStatus(v)
		if err != nil {
			return core.Filter{}, err
		}
		f.Status = &st
	}
	if err := f.Validate(); err != nil {
		return core.Filter{}, err
	}
	return f, nil
}

// pathID reads the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid payment id %q", raw)
	}
	return id, nil
}

// parseAmount accepts plain digits with optional thousands separators and a
// leading yen sign.
func parseAmount(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "¥"), "￥")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, core.Invalid("amount", errors.New("is required"))
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, core.Invalid("amount", errors.New("must be a whole number of yen"))
	}
	return n, nil
}

// createRequestFromForm builds the same request the JSON API decodes.
func createRequestFromForm(form url.Values) (createPaymentRequest, error) {
	amount, err := parseAmount(form.Get("amount"))
	if err != nil {
		return createPaymentRequest{}, err
	}
	return createPaymentRequest{
		PayeeName:     form.Get("payee_name"),
		Amount:        &amount,
		DueDate:       strings.TrimSpace(form.Get("due_date")),
		PaymentType:   strings.TrimSpace(form.Get("payment_type")),
		PaymentMethod: strings.TrimSpace(form.Get("payment_method")),
		Notes:         form.Get("notes"),
	}, nil
}

// patchRequestFromForm reads the edit form. Only fields present in the form are changed.
func patchRequestFromForm(form url.Values) (patchPaymentRequest, error) {
	var req patchPaymentRequest
	field := func(name string) *string {
		if _, ok := form[name]; !ok {
			return nil
		}
		v := strings.TrimSpace(form.Get(name))
		return &v
	}
	req.PayeeName = field("payee_name")
	req.DueDate = field("due_date")
	req.PaymentType = field("payment_type")
	req.PaymentMethod = field("payment_method")
	req.Status = field("status")
	if _, ok := form["notes"]; ok {
		notes := form.Get("notes")
		req.Notes = &notes
	}
	if raw := field("amount"); raw != nil {
		amount, err := parseAmount(*raw)
		if err != nil {
			return patchPaymentRequest{}, err
		}
		req.Amount = &amount
	}
	return req, nil
}

// confirmed reports whether a destructive action carries an explicit confirmation.
func confirmed(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "yes", "1":
		return true
	}
	return false
}
