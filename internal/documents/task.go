package documents

import (
	"context"

	"paysched/internal/core"
)

// Task is an upload running in the background. It ends with either a DocumentRef
// or an error: UnsupportedFormatError, FileTooLargeError, or a context error after Cancel.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc
	ref    core.DocumentRef
	err    error
}

// Done is closed once the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel stops the upload and discards anything written so far. It is a no-op
// once the task has finished.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task finishes or ctx ends. Giving up on ctx does not
// cancel the task.
func (t *Task) Wait(ctx context.Context) (core.DocumentRef, error) {
	select {
	case <-t.done:
		return t.ref, t.err
	case <-ctx.Done():
		return core.DocumentRef{}, ctx.Err()
	}
}
