package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paysched/internal/core"
	"paysched/internal/documents"
	"paysched/internal/services"
	"paysched/internal/store/memory"
)

var fixedNow = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	srv  *Server
	svc  *services.PaymentService
	docs *documents.LocalStore
}

func newTestEnv(t *testing.T, ready func(context.Context) error) *testEnv {
	t.Helper()
	docs, err := documents.NewLocalStore(documents.Config{Dir: t.TempDir(), MaxBytes: 1024}, nil)
	require.NoError(t, err)
	svc := services.NewPaymentService(memory.New(),
		services.WithDocuments(docs),
		services.WithClock(func() time.Time { return fixedNow }))
	srv, err := NewServer(Options{
		Addr:               ":0",
		Service:            svc,
		Documents:          docs,
		Ready:              ready,
		RateLimitPerMinute: 60000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, svc: svc, docs: docs}
}

func (e *testEnv) do(t *testing.T, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return e.do(t, method, target, "application/json", r)
}

func (e *testEnv) create(t *testing.T, payee string, amount int64, due string) core.Payment {
	t.Helper()
	d, err := core.ParseDate(due)
	require.NoError(t, err)
	p, err := e.svc.Create(context.Background(), core.Draft{PayeeName: payee, Amount: core.Yen(amount), DueDate: d})
	require.NoError(t, err)
	return p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "", nil).Code)
	rec := env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ready"`)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	down := newTestEnv(t, func(context.Context) error { return errors.New("database is locked") })
	rec = down.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "database is locked")
}

func TestAPIPaymentLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/payments",
		`{"payee_name":"Office Rent","amount":120000,"due_date":"2024-01-20","payment_type":"monthly","payment_method":"bank-transfer"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Payment](t, rec)
	require.Equal(t, core.StatusUpcoming, created.Status)
	path := "/api/payments/" + strconv.FormatInt(created.ID, 10)
	require.Equal(t, path, rec.Header().Get("Location"))

	rec = env.doJSON(t, http.MethodPatch, path, `{"amount":125000,"notes":"new lease"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, core.Yen(125000), decode[core.Payment](t, rec).Amount)

	rec = env.doJSON(t, http.MethodPost, path+"/defer", `{"planned_payment_date":"2024-03-01","reason":"waiting for invoice"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	deferred := decode[core.Payment](t, rec)
	require.Equal(t, core.StatusDeferred, deferred.Status)
	require.Equal(t, "2024-01-20", deferred.OriginalDueDate.String())

	rec = env.doJSON(t, http.MethodPost, path+"/reschedule", `{"planned_payment_date":"2024-04-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "2024-04-01", decode[core.Payment](t, rec).PlannedPaymentDate.String())

	rec = env.doJSON(t, http.MethodPost, path+"/pending", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pending := decode[core.Payment](t, rec)
	require.Equal(t, core.StatusPending, pending.Status)
	require.Equal(t, "2024-01-20", pending.DueDate.String())
	require.True(t, pending.PlannedPaymentDate.IsZero())

	rec = env.doJSON(t, http.MethodPost, path+"/status", `{"status":"paid"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, core.StatusPaid, decode[core.Payment](t, rec).Status)

	rec = env.doJSON(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decode[core.Payment](t, rec).DeletedAt)

	require.Equal(t, 0, decode[paymentList](t, env.doJSON(t, http.MethodGet, "/api/payments", "")).Count)
	require.Equal(t, 1, decode[paymentList](t, env.doJSON(t, http.MethodGet, "/api/trash", "")).Count)

	trashPath := "/api/trash/" + strconv.FormatInt(created.ID, 10)
	rec = env.doJSON(t, http.MethodPost, trashPath+"/restore", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, decode[core.Payment](t, rec).DeletedAt)

	rec = env.doJSON(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodDelete, trashPath, "")
	require.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = env.doJSON(t, http.MethodDelete, trashPath+"?confirm=true", "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	require.Equal(t, 0, decode[paymentList](t, env.doJSON(t, http.MethodGet, "/api/trash", "")).Count)
	require.Equal(t, http.StatusNotFound, env.doJSON(t, http.MethodGet, path, "").Code)
}

func TestAPIRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.create(t, "TEPCO", 15000, "2024-01-20")
	path := "/api/payments/" + strconv.FormatInt(p.ID, 10)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantField  string
	}{
		{"missing payee", http.MethodPost, "/api/payments", `{"amount":1,"due_date":"2024-01-01"}`, http.StatusUnprocessableEntity, "payee_name"},
		{"blank payee", http.MethodPost, "/api/payments", `{"payee_name":"   ","amount":1,"due_date":"2024-01-01"}`, http.StatusUnprocessableEntity, "payee_name"},
		{"negative amount", http.MethodPost, "/api/payments", `{"payee_name":"x","amount":-5,"due_date":"2024-01-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"missing amount", http.MethodPost, "/api/payments", `{"payee_name":"x","due_date":"2024-01-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"bad date", http.MethodPost, "/api/payments", `{"payee_name":"x","amount":1,"due_date":"01/02/2024"}`, http.StatusUnprocessableEntity, "due_date"},
		{"unknown method", http.MethodPost, "/api/payments", `{"payee_name":"x","amount":1,"due_date":"2024-01-01","payment_method":"bitcoin"}`, http.StatusUnprocessableEntity, "payment_method"},
		{"unknown field", http.MethodPost, "/api/payments", `{"payee":"x"}`, http.StatusBadRequest, ""},
		{"malformed json", http.MethodPost, "/api/payments", `{`, http.StatusBadRequest, ""},
		{"empty patch", http.MethodPatch, path, `{}`, http.StatusBadRequest, ""},
		{"overdue cannot be set", http.MethodPost, path + "/status", `{"status":"overdue"}`, http.StatusUnprocessableEntity, "status"},
		{"defer without reason", http.MethodPost, path + "/defer", `{"planned_payment_date":"2024-02-01"}`, http.StatusUnprocessableEntity, "reason"},
		{"reschedule needs deferral", http.MethodPost, path + "/reschedule", `{"planned_payment_date":"2024-02-01"}`, http.StatusUnprocessableEntity, "status"},
		{"pending needs deferral", http.MethodPost, path + "/pending", ``, http.StatusUnprocessableEntity, "status"},
		{"unknown id", http.MethodGet, "/api/payments/999", ``, http.StatusNotFound, ""},
		{"invalid id", http.MethodGet, "/api/payments/abc", ``, http.StatusBadRequest, ""},
		{"restore active payment", http.MethodPost, "/api/trash/" + strconv.FormatInt(p.ID, 10) + "/restore", ``, http.StatusNotFound, ""},
		{"bad status filter", http.MethodGet, "/api/payments?status=late", ``, http.StatusUnprocessableEntity, "status"},
		{"bad sort key", http.MethodGet, "/api/payments?sort=colour", ``, http.StatusUnprocessableEntity, "sort"},
		{"unknown route", http.MethodGet, "/api/nothing", ``, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, tt.method, tt.target, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			resp := decode[errorResponse](t, rec)
			require.NotEmpty(t, resp.Error)
			require.Equal(t, tt.wantField, resp.Field)
		})
	}
}

func TestAPIListDerivesOverdue(t *testing.T) {
	env := newTestEnv(t, nil)
	late := env.create(t, "Water", 3000, "2024-01-10")
	env.create(t, "Internet", 5000, "2024-01-25")

	rec := env.doJSON(t, http.MethodGet, "/api/payments?status=overdue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[paymentList](t, rec)
	require.Equal(t, 1, list.Count)
	require.Equal(t, late.ID, list.Payments[0].ID)
	require.Equal(t, core.StatusOverdue, list.Payments[0].Status)

	stored, err := env.svc.List(context.Background(), core.Filter{})
	require.NoError(t, err)
	require.Len(t, stored, 2)

	rec = env.doJSON(t, http.MethodGet, "/api/payments?sort=amount&order=desc", "")
	list = decode[paymentList](t, rec)
	require.Equal(t, "Internet", list.Payments[0].PayeeName)

	rec = env.doJSON(t, http.MethodGet, "/api/payments?q=WAT", "")
	require.Equal(t, 1, decode[paymentList](t, rec).Count)
}

func TestAPIDocumentUpload(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.create(t, "Printer lease", 8000, "2024-01-30")
	path := "/api/payments/" + strconv.FormatInt(p.ID, 10) + "/document"

	content := []byte("%PDF-1.4 invoice body")
	body, ct := multipartBody(t, nil, "invoice.pdf", content)
	rec := env.do(t, http.MethodPost, path, ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[core.Payment](t, rec)
	require.NotNil(t, got.Document)
	require.Equal(t, "invoice.pdf", got.Document.Name)
	require.True(t, strings.HasPrefix(got.Document.Path, uploadsPrefix), got.Document.Path)

	rec = env.do(t, http.MethodGet, got.Document.Path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, content, rec.Body.Bytes())
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, uploadsPrefix, "", nil).Code)

	body, ct = multipartBody(t, nil, "notes.txt", []byte("plain"))
	require.Equal(t, http.StatusUnsupportedMediaType, env.do(t, http.MethodPost, path, ct, body).Code)

	body, ct = multipartBody(t, nil, "scan.png", bytes.Repeat([]byte{0x89}, 2048))
	require.Equal(t, http.StatusRequestEntityTooLarge, env.do(t, http.MethodPost, path, ct, body).Code)

	body, ct = multipartBody(t, map[string]string{"note": "no file"}, "", nil)
	rec = env.do(t, http.MethodPost, path, ct, body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, documentField, decode[errorResponse](t, rec).Field)

	body, ct = multipartBody(t, nil, "invoice.pdf", content)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/payments/404/document", ct, body).Code)

	entries, err := os.ReadDir(env.docs.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "rejected uploads must not leave files behind")
}

func TestAPICalendarAndOverview(t *testing.T) {
	env := newTestEnv(t, nil)
	env.create(t, "Rent", 100000, "2024-01-20")
	env.create(t, "Phone", 5000, "2024-01-20")
	env.create(t, "Gas", 4000, "2024-01-16")
	env.create(t, "Insurance", 30000, "2024-02-05")
	deferred := env.create(t, "Tax", 50000, "2024-01-31")
	_, err := env.svc.Defer(context.Background(), deferred.ID, core.NewDate(2024, time.March, 31), "installments")
	require.NoError(t, err)

	rec := env.doJSON(t, http.MethodGet, "/api/calendar/2024/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cal := decode[calendarResponse](t, rec)
	require.Equal(t, 31, cal.DaysInMonth)
	require.Len(t, cal.Days, 31)
	require.Equal(t, 1, cal.LeadingBlanks)
	require.Len(t, cal.Days[19].Payments, 2)
	require.Equal(t, core.Yen(105000), cal.Days[19].Total)
	require.Empty(t, cal.Days[30].Payments)
	require.Len(t, cal.Deferred, 1)
	require.Equal(t, core.Yen(109000), cal.MonthTotal)

	require.Equal(t, http.StatusUnprocessableEntity, env.doJSON(t, http.MethodGet, "/api/calendar/2024/13", "").Code)
	require.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodGet, "/api/calendar/2024/jan", "").Code)

	rec = env.doJSON(t, http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ov := decode[overviewResponse](t, rec)
	require.Equal(t, "2024-01-15", ov.Today.String())
	require.Equal(t, core.Yen(109000), ov.MonthTotal)
	require.Equal(t, 1, ov.DeferredCount)
	require.Len(t, ov.Deferred, 1)
	require.Equal(t, "Gas", ov.Upcoming[0].PayeeName)
}

func TestWritesInvalidateCachedViews(t *testing.T) {
	env := newTestEnv(t, nil)
	env.create(t, "Rent", 100000, "2024-01-20")

	first := decode[overviewResponse](t, env.doJSON(t, http.MethodGet, "/api/overview", ""))
	require.Equal(t, core.Yen(100000), first.MonthTotal)
	require.Equal(t, 1, env.srv.overviewCache.Size())

	rec := env.doJSON(t, http.MethodPost, "/api/payments", `{"payee_name":"Phone","amount":5000,"due_date":"2024-01-22"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 0, env.srv.overviewCache.Size())

	second := decode[overviewResponse](t, env.doJSON(t, http.MethodGet, "/api/overview", ""))
	require.Equal(t, core.Yen(105000), second.MonthTotal)
}

func TestViewLoadedBeforeWriteIsNotServedAfterIt(t *testing.T) {
	env := newTestEnv(t, nil)
	env.create(t, "Rent", 100000, "2024-01-20")

	// a reader takes its key, then a write commits before the reader stores its view
	staleKey := env.srv.viewKey("overview")
	stale, err := env.svc.Overview(context.Background())
	require.NoError(t, err)

	rec := env.doJSON(t, http.MethodPost, "/api/payments", `{"payee_name":"Phone","amount":5000,"due_date":"2024-01-22"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	env.srv.overviewCache.Set(staleKey, stale)

	ov := decode[overviewResponse](t, env.doJSON(t, http.MethodGet, "/api/overview", ""))
	require.Equal(t, core.Yen(105000), ov.MonthTotal)
}

func TestPagesRenderInBothLanguages(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.create(t, "Office Rent", 120000, "2024-01-20")

	for _, target := range []string{"/", "/calendar", "/calendar?year=2024&month=2", "/payments", "/payments?status=overdue", "/trash", "/payments/" + strconv.FormatInt(p.ID, 10) + "/edit"} {
		rec := env.do(t, http.MethodGet, target, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, target)
		require.Contains(t, rec.Body.String(), "Payment Schedule", target)
	}

	rec := env.do(t, http.MethodGet, "/payments?lang=ja", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "支払いスケジュール")
	require.Contains(t, rec.Body.String(), "¥120,000")
	require.Contains(t, rec.Header().Get("Set-Cookie"), "lang=ja")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: langCookie, Value: "ja"})
	rec = httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)
	require.Contains(t, rec.Body.String(), `lang="ja"`)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9,en;q=0.5")
	rec = httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)
	require.Contains(t, rec.Body.String(), "支払いスケジュール")

	rec = env.do(t, http.MethodGet, "/payments/999/edit", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "payment 999 not found")

	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/nowhere", "", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/static/style.css", "", nil).Code)
}

func TestCreateFormWithDocument(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartBody(t, map[string]string{
		"payee_name":     "Accountant",
		"amount":         "33,000",
		"due_date":       "2024-01-31",
		"payment_type":   "monthly",
		"payment_method": "bank-transfer",
	}, "invoice.pdf", []byte("%PDF-1.4 fee"))
	rec := env.do(t, http.MethodPost, "/payments", ct, body)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/payments", rec.Header().Get("Location"))

	list, err := env.svc.List(context.Background(), core.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, core.Yen(33000), list[0].Amount)
	require.NotNil(t, list[0].Document)

	body, ct = multipartBody(t, map[string]string{"payee_name": "", "amount": "100", "due_date": "2024-01-31"}, "other.pdf", []byte("%PDF-1.4"))
	rec = env.do(t, http.MethodPost, "/payments", ct, body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "payee_name")

	entries, err := os.ReadDir(env.docs.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "document of a rejected payment must be removed")

	form := url.Values{"payee_name": {"Cleaner"}, "amount": {"abc"}, "due_date": {"2024-01-31"}}
	rec = env.do(t, http.MethodPost, "/payments", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `value="Cleaner"`)
}

func TestEditFormKeepsDerivedStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.create(t, "Water", 3000, "2024-01-10")
	target := "/payments/" + strconv.FormatInt(p.ID, 10)

	form := url.Values{
		"payee_name":     {"Water Bureau"},
		"amount":         {"3200"},
		"due_date":       {"2024-01-10"},
		"payment_type":   {"monthly"},
		"payment_method": {"cash"},
		"notes":          {""},
		"current_status": {"overdue"},
		"status":         {"overdue"},
		"next":           {"https://evil.example/"},
	}
	rec := env.do(t, http.MethodPost, target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/payments", rec.Header().Get("Location"))

	got, err := env.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "Water Bureau", got.PayeeName)
	require.Equal(t, core.Yen(3200), got.Amount)
	require.Equal(t, core.StatusOverdue, got.Status)

	form.Set("status", "paid")
	rec = env.do(t, http.MethodPost, target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	got, err = env.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, core.StatusPaid, got.Status)

	form.Set("current_status", "paid")
	form.Set("amount", "-1")
	rec = env.do(t, http.MethodPost, target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestActionForms(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.create(t, "Tax", 50000, "2024-01-31")
	id := strconv.FormatInt(p.ID, 10)
	post := func(target string, form url.Values) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	}

	rec := post("/payments/"+id+"/defer", url.Values{"planned_payment_date": {"2024-03-31"}, "reason": {"installments"}, "next": {"/calendar"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/calendar", rec.Header().Get("Location"))

	rec = post("/payments/"+id+"/reschedule", url.Values{"planned_payment_date": {"2024-04-30"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	got, err := env.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "2024-04-30", got.PlannedPaymentDate.String())

	rec = post("/payments/"+id+"/pending", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = post("/payments/"+id+"/pending", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post("/payments/"+id+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/payments", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/trash", "", nil)
	require.Contains(t, rec.Body.String(), "Tax")

	rec = post("/trash/"+id+"/purge", nil)
	require.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = post("/trash/"+id+"/restore", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/trash", rec.Header().Get("Location"))

	rec = post("/payments/"+id+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = post("/trash/"+id+"/purge", url.Values{"confirm": {"true"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	trash, err := env.svc.Trash(context.Background())
	require.NoError(t, err)
	require.Empty(t, trash)
}

func TestShutdownIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.srv.Shutdown(context.Background()))
	require.NoError(t, env.srv.Shutdown(context.Background()))
}

func TestCalendarActionsReturnToViewedMonth(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.create(t, "Tax", 50000, "2024-01-31")
	_, err := env.svc.Defer(context.Background(), p.ID, core.NewDate(2024, time.March, 31), "installments")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/calendar?year=2024&month=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Equal(t, 2, strings.Count(body, `name="next" value="/calendar?year=2024&amp;month=3"`), body)
	require.Contains(t, body, `href="/calendar?year=2024&amp;month=2"`)
	require.Contains(t, body, `href="/calendar?year=2024&amp;month=4"`)

	form := url.Values{"next": {monthLink{Year: 2024, Month: 3}.Path()}}
	rec = env.do(t, http.MethodPost, "/payments/"+strconv.FormatInt(p.ID, 10)+"/pending", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/calendar?year=2024&month=3", rec.Header().Get("Location"))
}
