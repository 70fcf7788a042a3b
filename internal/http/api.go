package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"paysched/internal/core"
)

func (s *Server) apiRoutes(r chi.Router) {
	r.Get("/payments", s.apiListPayments)
	r.Post("/payments", s.apiCreatePayment)
	r.Get("/payments/{id}", s.apiPayment(http.StatusOK, s.getPayment))
	r.Patch("/payments/{id}", s.apiPayment(http.StatusOK, s.patchPayment))
	r.Delete("/payments/{id}", s.apiPayment(http.StatusOK, s.trashPayment))
	r.Post("/payments/{id}/defer", s.apiPayment(http.StatusOK, s.deferPayment))
	r.Post("/payments/{id}/pending", s.apiPayment(http.StatusOK, s.markPending))
	r.Post("/payments/{id}/reschedule", s.apiPayment(http.StatusOK, s.reschedulePayment))
	r.Post("/payments/{id}/status", s.apiPayment(http.StatusOK, s.setStatus))
	r.Post("/payments/{id}/document", s.apiPayment(http.StatusOK, s.uploadDocument))

	r.Get("/trash", s.apiListTrash)
	r.Post("/trash/{id}/restore", s.apiPayment(http.StatusOK, s.restorePayment))
	r.Delete("/trash/{id}", s.apiPurgePayment)

	r.Get("/calendar/{year}/{month}", s.apiCalendar)
	r.Get("/overview", s.apiOverview)
}

type paymentList struct {
	Payments []core.Payment `json:"payments"`
	Count    int            `json:"count"`
}

func newPaymentList(ps []core.Payment) paymentList {
	if ps == nil {
		ps = []core.Payment{}
	}
	return paymentList{Payments: ps, Count: len(ps)}
}

// paymentAction runs one operation against the payment named by the {id} route parameter.
type paymentAction func(w http.ResponseWriter, r *http.Request, id int64) (core.Payment, error)

func (s *Server) apiPayment(status int, act paymentAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		p, err := act(w, r, id)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, status, p)
	}
}

func (s *Server) apiListPayments(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	ps, err := s.svc.List(r.Context(), f)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentList(ps))
}

func (s *Server) apiCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, r, err)
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	p, err := s.svc.Create(r.Context(), draft)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/payments/"+strconv.FormatInt(p.ID, 10))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPayment(_ http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	return s.svc.Get(r.Context(), id)
}

func (s *Server) patchPayment(w http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	var req patchPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.Payment{}, err
	}
	pt, err := req.patch()
	if err != nil {
		return core.Payment{}, err
	}
	return s.svc.Update(r.Context(), id, pt)
}

func (s *Server) trashPayment(_ http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	return s.svc.SoftDelete(r.Context(), id)
}

func (s *Server) deferPayment(w http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	var req deferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.Payment{}, err
	}
	planned, reason, err := req.parse()
	if err != nil {
		return core.Payment{}, err
	}
	return s.svc.Defer(r.Context(), id, planned, reason)
}

func (s *Server) markPending(_ http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	return s.svc.MarkPending(r.Context(), id)
}

func (s *Server) reschedulePayment(w http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	var req rescheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.Payment{}, err
	}
	planned, err := req.parse()
	if err != nil {
		return core.Payment{}, err
	}
	return s.svc.Reschedule(r.Context(), id, planned)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.Payment{}, err
	}
	st, err := req.parse()
	if err != nil {
		return core.Payment{}, err
	}
	return s.svc.SetStatus(r.Context(), id, st)
}

// uploadDocument stores the multipart "file" field and attaches it to the payment.
func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	ctx := r.Context()
	if _, err := s.svc.Get(ctx, id); err != nil {
		return core.Payment{}, err
	}
	_, doc, err := s.receiveMultipart(w, r)
	if err != nil {
		return core.Payment{}, err
	}
	if doc == nil {
		return core.Payment{}, core.Invalid(documentField, errFileRequired)
	}
	p, err := s.svc.AttachDocument(ctx, id, *doc)
	if err != nil {
		s.discardDocument(ctx, *doc)
		return core.Payment{}, err
	}
	return p, nil
}

func (s *Server) restorePayment(_ http.ResponseWriter, r *http.Request, id int64) (core.Payment, error) {
	return s.svc.Restore(r.Context(), id)
}

func (s *Server) apiListTrash(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.Trash(r.Context())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentList(ps))
}

// apiPurgePayment permanently deletes a trashed payment. It requires ?confirm=true.
func (s *Server) apiPurgePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.svc.HardDelete(r.Context(), id, confirmed(r.URL.Query().Get("confirm")))
	}
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type calendarDay struct {
	Day      int            `json:"day"`
	Date     core.Date      `json:"date"`
	Payments []core.Payment `json:"payments"`
	Total    core.Yen       `json:"total"`
}

type calendarResponse struct {
	Year          int            `json:"year"`
	Month         int            `json:"month"`
	Today         core.Date      `json:"today"`
	LeadingBlanks int            `json:"leading_blanks"`
	DaysInMonth   int            `json:"days_in_month"`
	Days          []calendarDay  `json:"days"`
	Deferred      []core.Payment `json:"deferred"`
	MonthTotal    core.Yen       `json:"month_total"`
}

func (s *Server) apiCalendar(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(chi.URLParam(r, "year"))
	month, merr := strconv.Atoi(chi.URLParam(r, "month"))
	if yerr != nil || merr != nil {
		writeAPIError(w, r, badRequest("year and month must be numbers"))
		return
	}
	view, err := s.calendar(r.Context(), year, time.Month(month))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	resp := calendarResponse{
		Year:          view.Grid.Year,
		Month:         int(view.Grid.Month),
		Today:         view.Today,
		LeadingBlanks: view.Grid.LeadingBlanks,
		DaysInMonth:   view.Grid.DaysInMonth,
		Days:          make([]calendarDay, 0, view.Grid.DaysInMonth),
		Deferred:      view.Deferred,
		MonthTotal:    view.MonthTotal,
	}
	if resp.Deferred == nil {
		resp.Deferred = []core.Payment{}
	}
	for d := 1; d <= view.Grid.DaysInMonth; d++ {
		cell, _ := view.Grid.Day(d)
		payments := cell.Payments
		if payments == nil {
			payments = []core.Payment{}
		}
		resp.Days = append(resp.Days, calendarDay{
			Day:      cell.Day,
			Date:     cell.Date,
			Payments: payments,
			Total:    dailyTotal(payments),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type overviewResponse struct {
	Today         core.Date      `json:"today"`
	WeekTotal     core.Yen       `json:"week_total"`
	MonthTotal    core.Yen       `json:"month_total"`
	PendingCount  int            `json:"pending_count"`
	OverdueCount  int            `json:"overdue_count"`
	DeferredCount int            `json:"deferred_count"`
	Upcoming      []core.Payment `json:"upcoming"`
	Deferred      []core.Payment `json:"deferred"`
}

func (s *Server) apiOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.overview(r.Context())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	resp := overviewResponse{
		Today:         ov.Today,
		WeekTotal:     ov.WeekTotal,
		MonthTotal:    ov.MonthTotal,
		PendingCount:  ov.PendingCount,
		OverdueCount:  ov.OverdueCount,
		DeferredCount: ov.DeferredCount,
		Upcoming:      ov.Upcoming,
		Deferred:      ov.Deferred,
	}
	if resp.Upcoming == nil {
		resp.Upcoming = []core.Payment{}
	}
	if resp.Deferred == nil {
		resp.Deferred = []core.Payment{}
	}
	writeJSON(w, http.StatusOK, resp)
}
