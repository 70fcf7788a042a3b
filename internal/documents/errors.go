package documents

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrFileTooLarge      = errors.New("document too large")
)

// UnsupportedFormatError rejects a file whose extension is not on the allow-list.
type UnsupportedFormatError struct {
	Name      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("%s: file has no extension", e.Name)
	}
	return fmt.Sprintf("%s: %q is not an accepted format (%s)", e.Name, e.Extension, AcceptedExtensions())
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// FileTooLargeError rejects a file over the size ceiling. Size is a lower bound
// when the stream was cut short.
type FileTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds the %d byte limit", e.Name, e.Size, e.Limit)
}

func (e *FileTooLargeError) Is(target error) bool { return target == ErrFileTooLarge }
