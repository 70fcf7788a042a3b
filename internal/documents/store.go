// Package documents stores invoice files attached to payments.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"paysched/internal/core"
)

// DefaultMaxBytes is the 5 MiB ceiling on a single document.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

var acceptedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".doc", ".docx"}

// AcceptedExtensions lists the allowed extensions as an HTML accept attribute value.
func AcceptedExtensions() string {
	return strings.Join(acceptedExtensions, ",")
}

// CheckName validates the extension of a client file name.
func CheckName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(acceptedExtensions, ext) {
		return &UnsupportedFormatError{Name: name, Extension: ext}
	}
	return nil
}

// Upload is a file handed over by a client. Size is the declared length, or -1 if unknown.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// Recorder observes finished uploads.
type Recorder interface {
	RecordUpload(outcome string, bytes int64)
}

type Config struct {
	Dir string
	// PublicPrefix is prepended to stored file names to build DocumentRef.Path.
	PublicPrefix string
	MaxBytes     int64
}

// LocalStore keeps documents on the local filesystem.
type LocalStore struct {
	dir      string
	prefix   string
	maxBytes int64
	recorder Recorder
	now      func() time.Time
}

func NewLocalStore(cfg Config, recorder Recorder) (*LocalStore, error) {
	if cfg.Dir == "" {
		return nil, errors.New("documents: directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.PublicPrefix == "" {
		cfg.PublicPrefix = "/uploads"
	}
	return &LocalStore{
		dir:      cfg.Dir,
		prefix:   strings.TrimRight(cfg.PublicPrefix, "/"),
		maxBytes: cfg.MaxBytes,
		recorder: recorder,
		now:      time.Now,
	}, nil
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

// MaxBytes is the per-file ceiling.
func (s *LocalStore) MaxBytes() int64 { return s.maxBytes }

// Upload starts storing u in the background. The body must stay readable until
// the task is done.
func (s *LocalStore) Upload(ctx context.Context, u Upload) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.done)
		defer cancel()
		t.ref, t.err = s.store(ctx, u)
		s.record(t.ref, t.err)
	}()
	return t
}

// Remove deletes the file behind ref. Missing files are not an error.
func (s *LocalStore) Remove(ref core.DocumentRef) error {
	name := path.Base(ref.Path)
	if name == "." || name == "/" || !strings.HasPrefix(ref.Path, s.prefix+"/") {
		return fmt.Errorf("document path %q is not managed by this store", ref.Path)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}

func (s *LocalStore) store(ctx context.Context, u Upload) (core.DocumentRef, error) {
	if err := CheckName(u.Name); err != nil {
		return core.DocumentRef{}, err
	}
	if u.Size > s.maxBytes {
		return core.DocumentRef{}, &FileTooLargeError{Name: u.Name, Size: u.Size, Limit: s.maxBytes}
	}
	if u.Body == nil {
		return core.DocumentRef{}, errors.New("documents: upload has no body")
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return core.DocumentRef{}, fmt.Errorf("create temp file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	// read one byte past the limit to detect oversized streams
	body := &ctxReader{ctx: ctx, r: io.LimitReader(u.Body, s.maxBytes+1)}
	head := make([]byte, 3072)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return core.DocumentRef{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	written, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), body))
	if err != nil {
		return core.DocumentRef{}, fmt.Errorf("write upload: %w", err)
	}
	if written > s.maxBytes {
		return core.DocumentRef{}, &FileTooLargeError{Name: u.Name, Size: written, Limit: s.maxBytes}
	}
	if err := tmp.Close(); err != nil {
		return core.DocumentRef{}, fmt.Errorf("close upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return core.DocumentRef{}, err
	}

	stored := fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), uuid.NewString(), sanitize(u.Name))
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, stored)); err != nil {
		return core.DocumentRef{}, fmt.Errorf("store upload: %w", err)
	}
	committed = true

	return core.DocumentRef{
		Path:        s.prefix + "/" + stored,
		Name:        u.Name,
		ContentType: mimetype.Detect(head).String(),
		Size:        written,
	}, nil
}

func (s *LocalStore) record(ref core.DocumentRef, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupportedFormat):
		outcome = "unsupported_format"
	case errors.Is(err, ErrFileTooLarge):
		outcome = "too_large"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "canceled"
	default:
		outcome = "error"
		slog.Error("Document upload failed", "error", err)
	}
	if s.recorder != nil {
		s.recorder.RecordUpload(outcome, ref.Size)
	}
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "document"
	}
	return name
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
