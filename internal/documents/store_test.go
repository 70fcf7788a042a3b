package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorded struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorded) RecordUpload(outcome string, _ int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func newStore(t *testing.T, max int64) (*LocalStore, *recorded) {
	t.Helper()
	rec := &recorded{}
	s, err := NewLocalStore(Config{Dir: t.TempDir(), MaxBytes: max}, rec)
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1705300000000) }
	return s, rec
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUploadStoresFile(t *testing.T) {
	s, rec := newStore(t, 0)
	pdf := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 100)...)

	ref, err := s.Upload(context.Background(), Upload{Name: "January invoice.PDF", Size: int64(len(pdf)), Body: bytes.NewReader(pdf)}).
		Wait(context.Background())
	require.NoError(t, err)

	require.Equal(t, "January invoice.PDF", ref.Name)
	require.Equal(t, int64(len(pdf)), ref.Size)
	require.Equal(t, "application/pdf", ref.ContentType)
	require.True(t, strings.HasPrefix(ref.Path, "/uploads/1705300000000-"), ref.Path)
	require.True(t, strings.HasSuffix(ref.Path, "-January_invoice.PDF"), ref.Path)

	files := listFiles(t, s.Dir())
	require.Len(t, files, 1)
	stored, err := os.ReadFile(filepath.Join(s.Dir(), files[0]))
	require.NoError(t, err)
	require.Equal(t, pdf, stored)
	require.Equal(t, []string{"ok"}, rec.outcomes)

	require.NoError(t, s.Remove(ref))
	require.Empty(t, listFiles(t, s.Dir()))
	require.NoError(t, s.Remove(ref), "removing twice is fine")
}

func TestUploadRejectsFormats(t *testing.T) {
	s, rec := newStore(t, 0)
	for _, name := range []string{"notes.txt", "archive.zip", "noext", "image.gif"} {
		_, err := s.Upload(context.Background(), Upload{Name: name, Size: 3, Body: strings.NewReader("abc")}).
			Wait(context.Background())
		var ufe *UnsupportedFormatError
		require.ErrorAs(t, err, &ufe, name)
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	}
	for _, name := range []string{"a.pdf", "b.JPG", "c.jpeg", "d.png", "e.doc", "f.docx"} {
		require.NoError(t, CheckName(name))
	}
	require.Empty(t, listFiles(t, s.Dir()))
	require.Len(t, rec.outcomes, 4)
}

func TestUploadRejectsLargeFiles(t *testing.T) {
	s, _ := newStore(t, 10)

	// declared size over the limit
	_, err := s.Upload(context.Background(), Upload{Name: "big.png", Size: 11, Body: strings.NewReader("")}).
		Wait(context.Background())
	require.ErrorIs(t, err, ErrFileTooLarge)

	// undeclared size, detected while streaming
	_, err = s.Upload(context.Background(), Upload{Name: "big.png", Size: -1, Body: strings.NewReader(strings.Repeat("a", 50))}).
		Wait(context.Background())
	var tooLarge *FileTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	require.Equal(t, int64(10), tooLarge.Limit)

	// exactly at the limit is accepted
	_, err = s.Upload(context.Background(), Upload{Name: "ok.png", Size: -1, Body: strings.NewReader(strings.Repeat("a", 10))}).
		Wait(context.Background())
	require.NoError(t, err)

	require.Len(t, listFiles(t, s.Dir()), 1, "partial files must be removed")
}

func TestUploadCancel(t *testing.T) {
	s, rec := newStore(t, 0)
	pr, pw := io.Pipe()
	defer pw.Close()

	task := s.Upload(context.Background(), Upload{Name: "slow.pdf", Size: -1, Body: pr})
	_, _ = pw.Write([]byte("%PDF-1.4"))
	task.Cancel()
	// unblock the pending read so the task observes the cancellation
	pw.CloseWithError(errors.New("client went away"))

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish after cancel")
	}
	_, err := task.Wait(context.Background())
	require.Error(t, err)
	require.Empty(t, listFiles(t, s.Dir()))
	require.Len(t, rec.outcomes, 1)
}

func TestWaitHonoursCallerContext(t *testing.T) {
	s, _ := newStore(t, 0)
	pr, pw := io.Pipe()
	defer pw.Close()

	task := s.Upload(context.Background(), Upload{Name: "slow.pdf", Size: -1, Body: pr})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := task.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	task.Cancel()
	pw.CloseWithError(io.ErrClosedPipe)
	<-task.Done()
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"invoice.pdf":          "invoice.pdf",
		"../../etc/passwd.pdf": "passwd.pdf",
		`C:\docs\bill 1.png`:   "bill_1.png",
		"請求書.pdf":              "請求書.pdf",
		"...":                  "document",
	}
	for in, want := range cases {
		require.Equal(t, want, sanitize(in), in)
	}
}
