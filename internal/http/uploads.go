package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"paysched/internal/core"
	"paysched/internal/documents"
)

const (
	documentField = "file"
	// maxFormOverhead covers the text fields and multipart framing around a document.
	maxFormOverhead = 1 << 20
	maxFieldBytes   = 64 << 10
)

var errFileRequired = errors.New("a document file is required")

// receiveMultipart walks a multipart/form-data body. Text fields are collected;
// the first non-empty "file" part is streamed into the document store while the
// body is read. On error any stored document is removed again.
func (s *Server) receiveMultipart(w http.ResponseWriter, r *http.Request) (fields url.Values, doc *core.DocumentRef, err error) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.docs.MaxBytes()+maxFormOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, badRequest("expected multipart/form-data: %v", err)
	}
	defer func() {
		if err != nil && doc != nil {
			s.discardDocument(ctx, *doc)
			doc = nil
		}
	}()

	fields = url.Values{}
	for {
		part, perr := mr.NextPart()
		if errors.Is(perr, io.EOF) {
			return fields, doc, nil
		}
		if perr != nil {
			return nil, doc, badRequest("read multipart body: %v", perr)
		}

		name := part.FormName()
		switch {
		case name == "":
		case name == documentField:
			if part.FileName() == "" || doc != nil {
				break
			}
			ref, uerr := s.storeDocument(ctx, part.FileName(), part)
			if uerr != nil {
				part.Close()
				return nil, doc, uerr
			}
			doc = &ref
		default:
			v, rerr := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			if rerr != nil {
				part.Close()
				return nil, doc, badRequest("read field %q: %v", name, rerr)
			}
			if len(v) > maxFieldBytes {
				part.Close()
				return nil, doc, badRequest("field %q is too long", name)
			}
			fields.Add(name, string(v))
		}
		part.Close()
	}
}

// storeDocument runs an upload task and waits for it. If the request goes away
// first the task is cancelled so nothing half-written is kept.
func (s *Server) storeDocument(ctx context.Context, name string, body io.Reader) (core.DocumentRef, error) {
	task := s.docs.Upload(ctx, documents.Upload{Name: name, Size: -1, Body: body})
	ref, err := task.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		task.Cancel()
		<-task.Done()
	}
	return ref, err
}

func (s *Server) discardDocument(ctx context.Context, ref core.DocumentRef) {
	if err := s.docs.Remove(ref); err != nil {
		slog.WarnContext(ctx, "Failed to remove orphaned document", "path", ref.Path, "error", err)
	}
}
