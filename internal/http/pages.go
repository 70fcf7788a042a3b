package http

import (
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"paysched/internal/core"
	"paysched/internal/documents"
	"paysched/internal/i18n"
	"paysched/internal/services"
	appweb "paysched/web"
)

const langCookie = "lang"

var pageNames = []string{"dashboard.html", "calendar.html", "payments.html", "edit.html", "trash.html", "error.html"}

var templateFuncs = template.FuncMap{
	"yen":        i18n.FormatYen,
	"dailyTotal": dailyTotal,
	"isoDate":    func(d core.Date) string { return d.String() },
	"sameDay":    func(a, b core.Date) bool { return !a.IsZero() && a.Equal(b.Time) },
}

// parseTemplates pairs the shared layout with each page.
func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

func dailyTotal(ps []core.Payment) core.Yen {
	return core.DailyTotal(slices.Values(ps))
}

type pageData struct {
	T     *i18n.Catalog
	Langs []i18n.Lang
	Nav   string
	Today core.Date
	// Error is the message of a rejected form submission.
	Error string
	Data  any
}

type dashboardData struct {
	Overview core.Overview
}

type monthLink struct {
	Year  int
	Month int
}

func (l monthLink) Path() string {
	return "/calendar?year=" + strconv.Itoa(l.Year) + "&month=" + strconv.Itoa(l.Month)
}

type calendarData struct {
	View     services.CalendarView
	Title    string
	Weekdays []string
	Current  monthLink
	Prev     monthLink
	Next     monthLink
}

type formOptions struct {
	Statuses []core.Status
	Types    []core.PaymentType
	Methods  []core.PaymentMethod
	Accept   string
}

type paymentsData struct {
	Payments []core.Payment
	Query    string
	Status   string
	Sort     string
	Order    string
	Form     url.Values
	Options  formOptions
}

type editData struct {
	Payment core.Payment
	// Statuses are the targets the status select may offer for this payment.
	Statuses []core.Status
	Options  formOptions
}

type trashData struct {
	Payments []core.Payment
}

type errorData struct {
	Status  int
	Title   string
	Message string
}

func newFormOptions() formOptions {
	return formOptions{
		Statuses: core.AllStatuses(),
		Types:    core.AllPaymentTypes(),
		Methods:  core.AllPaymentMethods(),
		Accept:   documents.AcceptedExtensions(),
	}
}

// catalog picks the page language from ?lang, then the lang cookie, then
// Accept-Language. An explicit ?lang choice is remembered in the cookie.
func (s *Server) catalog(w http.ResponseWriter, r *http.Request) *i18n.Catalog {
	explicit := strings.TrimSpace(r.URL.Query().Get("lang"))
	if explicit != "" && i18n.Match(explicit, "") == i18n.Lang(explicit) {
		http.SetCookie(w, &http.Cookie{
			Name:     langCookie,
			Value:    explicit,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	} else if c, err := r.Cookie(langCookie); err == nil {
		explicit = c.Value
	}
	return i18n.For(i18n.Match(explicit, r.Header.Get("Accept-Language")))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, nav string, data any, formErr error) {
	t, ok := s.templates[name]
	if !ok {
		slog.ErrorContext(r.Context(), "Template not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	pd := pageData{
		T:     s.catalog(w, r),
		Langs: i18n.Languages(),
		Nav:   nav,
		Today: s.svc.Today(),
		Data:  data,
	}
	if formErr != nil {
		pd.Error = describeError(formErr, status).Error
	}

	var buf strings.Builder
	if err := t.ExecuteTemplate(&buf, "layout", pd); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, "error.html", status, "", errorData{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	}, nil)
}

// failPage logs err and shows the error page with the matching status.
func (s *Server) failPage(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logError(r, err, status)
	s.renderError(w, r, status, describeError(err, status).Error)
}

// redirectBack follows a local "next" form value, or falls back to def.
func redirectBack(w http.ResponseWriter, r *http.Request, next, def string) {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		next = def
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ov, err := s.overview(r.Context())
	if err != nil {
		s.failPage(w, r, err)
		return
	}
	s.render(w, r, "dashboard.html", http.StatusOK, "dashboard", dashboardData{Overview: ov}, nil)
}

func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	m := ParseMonthParams(r.URL.Query(), s.svc.Today())
	view, err := s.calendar(r.Context(), m.Year, m.Month)
	if err != nil {
		s.failPage(w, r, err)
		return
	}
	t := s.catalog(w, r)
	py, pm := core.Shift(m.Year, m.Month, -1)
	ny, nm := core.Shift(m.Year, m.Month, 1)
	s.render(w, r, "calendar.html", http.StatusOK, "calendar", calendarData{
		View:     view,
		Title:    t.MonthTitle(m.Year, int(m.Month)),
		Weekdays: t.Weekdays(),
		Current:  monthLink{Year: m.Year, Month: int(m.Month)},
		Prev:     monthLink{Year: py, Month: int(pm)},
		Next:     monthLink{Year: ny, Month: int(nm)},
	}, nil)
}

func (s *Server) paymentsPage(w http.ResponseWriter, r *http.Request, status int, form url.Values, formErr error) {
	q := r.URL.Query()
	data := paymentsData{
		Query:   q.Get("q"),
		Status:  q.Get("status"),
		Sort:    q.Get("sort"),
		Order:   q.Get("order"),
		Form:    form,
		Options: newFormOptions(),
	}
	f, err := ParseFilter(q)
	if err == nil {
		data.Payments, err = s.svc.List(r.Context(), f)
	}
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			s.failPage(w, r, err)
			return
		}
		if formErr == nil {
			status, formErr = statusFor(err), err
		}
	}
	s.render(w, r, "payments.html", status, "payments", data, formErr)
}

func (s *Server) handlePaymentsPage(w http.ResponseWriter, r *http.Request) {
	s.paymentsPage(w, r, http.StatusOK, nil, nil)
}

// handleCreateForm accepts the add form, either urlencoded or multipart with an
// optional invoice. The document is stored first and dropped again if the
// payment is rejected.
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, doc, err := s.readForm(w, r)
	if err != nil {
		s.paymentsPage(w, r, statusFor(err), form, err)
		return
	}

	var p core.Payment
	req, err := createRequestFromForm(form)
	if err == nil {
		var draft core.Draft
		if draft, err = req.draft(); err == nil {
			draft.Document = doc
			p, err = s.svc.Create(ctx, draft)
		}
	}
	if err != nil {
		if doc != nil {
			s.discardDocument(ctx, *doc)
		}
		logError(r, err, statusFor(err))
		s.paymentsPage(w, r, statusFor(err), form, err)
		return
	}
	slog.DebugContext(ctx, "Payment created from form", "id", p.ID)
	http.Redirect(w, r, "/payments", http.StatusSeeOther)
}

// readForm parses urlencoded or multipart bodies into the same url.Values.
func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (url.Values, *core.DocumentRef, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		return s.receiveMultipart(w, r)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		return nil, nil, badRequest("parse form: %v", err)
	}
	return r.PostForm, nil, nil
}

func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.failPage(w, r, err)
		return
	}
	p, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.failPage(w, r, err)
		return
	}
	s.render(w, r, "edit.html", http.StatusOK, "payments", newEditData(p), nil)
}

func newEditData(p core.Payment) editData {
	var statuses []core.Status
	if p.Status != core.StatusDeferred {
		statuses = append(statuses, p.Status)
		for _, st := range core.AllStatuses() {
			if st != p.Status && core.CanTransition(p.Status, st) {
				statuses = append(statuses, st)
			}
		}
	}
	return editData{Payment: p, Statuses: statuses, Options: newFormOptions()}
}

// handleUpdateForm applies the edit form. The status select is only sent on when
// it differs from the status the page showed.
func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		s.failPage(w, r, err)
		return
	}
	form, _, err := s.readForm(w, r)
	if err == nil && form.Get("status") == form.Get("current_status") {
		form.Del("status")
	}
	var p core.Payment
	if err == nil {
		var req patchPaymentRequest
		if req, err = patchRequestFromForm(form); err == nil {
			var pt core.Patch
			if pt, err = req.patch(); err == nil {
				p, err = s.svc.Update(ctx, id, pt)
			}
		}
	}
	if err != nil {
		status := statusFor(err)
		current, gerr := s.svc.Get(ctx, id)
		if gerr != nil {
			s.failPage(w, r, gerr)
			return
		}
		logError(r, err, status)
		s.render(w, r, "edit.html", status, "payments", newEditData(current), err)
		return
	}
	slog.DebugContext(ctx, "Payment updated from form", "id", p.ID)
	redirectBack(w, r, form.Get("next"), "/payments")
}

// actionForm runs a lifecycle or trash action posted from a button form.
func (s *Server) actionForm(def string, act func(r *http.Request, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err == nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
			if perr := r.ParseForm(); perr != nil {
				err = badRequest("parse form: %v", perr)
			}
		}
		if err == nil {
			err = act(r, id)
		}
		if err != nil {
			s.failPage(w, r, err)
			return
		}
		redirectBack(w, r, r.PostForm.Get("next"), def)
	}
}

func (s *Server) handleDeferForm(w http.ResponseWriter, r *http.Request) {
	s.actionForm("/payments", func(r *http.Request, id int64) error {
		req := deferRequest{
			PlannedPaymentDate: strings.TrimSpace(r.PostFormValue("planned_payment_date")),
			Reason:             r.PostFormValue("reason"),
		}
		planned, reason, err := req.parse()
		if err != nil {
			return err
		}
		_, err = s.svc.Defer(r.Context(), id, planned, reason)
		return err
	})(w, r)
}

func (s *Server) handleMarkPendingForm(w http.ResponseWriter, r *http.Request) {
	s.actionForm("/calendar", func(r *http.Request, id int64) error {
		_, err := s.svc.MarkPending(r.Context(), id)
		return err
	})(w, r)
}

func (s *Server) handleRescheduleForm(w http.ResponseWriter, r *http.Request) {
	s.actionForm("/calendar", func(r *http.Request, id int64) error {
		req := rescheduleRequest{PlannedPaymentDate: strings.TrimSpace(r.PostFormValue("planned_payment_date"))}
		planned, err := req.parse()
		if err != nil {
			return err
		}
		_, err = s.svc.Reschedule(r.Context(), id, planned)
		return err
	})(w, r)
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	s.actionForm("/payments", func(r *http.Request, id int64) error {
		_, err := s.svc.SoftDelete(r.Context(), id)
		return err
	})(w, r)
}

func (s *Server) handleRestoreForm(w http.ResponseWriter, r *http.Request) {
	s.actionForm("/trash", func(r *http.Request, id int64) error {
		_, err := s.svc.Restore(r.Context(), id)
		return err
	})(w, r)
}

// handlePurgeForm needs the confirm checkbox ticked.
func (s *Server) handlePurgeForm(w http.ResponseWriter, r *http.Request) {
	s.actionForm("/trash", func(r *http.Request, id int64) error {
		return s.svc.HardDelete(r.Context(), id, confirmed(r.PostFormValue("confirm")))
	})(w, r)
}

func (s *Server) handleDocumentForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.failPage(w, r, err)
		return
	}
	if _, err := s.uploadDocument(w, r, id); err != nil {
		s.failPage(w, r, err)
		return
	}
	http.Redirect(w, r, "/payments/"+strconv.FormatInt(id, 10)+"/edit", http.StatusSeeOther)
}

func (s *Server) handleTrashPage(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.Trash(r.Context())
	if err != nil {
		s.failPage(w, r, err)
		return
	}
	s.render(w, r, "trash.html", http.StatusOK, "trash", trashData{Payments: ps}, nil)
}
