package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xrsl/cvago/pkg/doc"
)

var (
	// ErrTimeout is returned when a bounded call runs past its deadline.
	ErrTimeout = errors.New("the request took too long, try again")
	// ErrMalformedResponse is returned when a response body is not JSON.
	ErrMalformedResponse = errors.New("the server response is not valid; is the backend running?")
	// ErrUnreachable wraps transport failures.
	ErrUnreachable = errors.New("server not reachable")
	// ErrUnsupportedFile is returned before uploading a file the server
	// cannot parse.
	ErrUnsupportedFile = errors.New("unsupported file type (use .pdf, .docx or .txt)")
	// ErrInvalidFilename is returned for download names with path elements.
	ErrInvalidFilename = errors.New("invalid file name")
)

// Error is a non-success response with the message taken from its detail.
type Error struct {
	Status  int
	Message string
	Detail  doc.Node
}

func (e *Error) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status of err when it is an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// DetailMessage extracts a message from an error detail. Lists of
// validation items are joined with ", " using each item's msg; strings are
// used as they are.
func DetailMessage(detail doc.Node, fallback string) string {
	switch {
	case detail.IsSeq():
		parts := make([]string, 0, detail.Len())
		for _, it := range detail.Items() {
			if msg, ok := it.Field("msg"); ok && msg.Truthy() {
				parts = append(parts, msg.Text())
				continue
			}
			if s := it.Text(); s != "" {
				parts = append(parts, s)
				continue
			}
			b, _ := it.MarshalJSON()
			parts = append(parts, string(b))
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	case detail.Truthy() && !detail.IsMap():
		return detail.Text()
	case detail.IsMap():
		if msg, ok := detail.Field("msg"); ok && msg.Truthy() {
			return msg.Text()
		}
	}
	return fallback
}

// DetailVerbatim prefers a string detail and otherwise serializes the
// structured detail as JSON.
func DetailVerbatim(detail doc.Node, fallback string) string {
	if s, ok := detail.Str(); ok && s != "" {
		return s
	}
	if detail.IsNull() {
		return fallback
	}
	b, err := detail.MarshalJSON()
	if err != nil || len(b) == 0 {
		return fallback
	}
	return string(b)
}

func newError(status int, detail doc.Node, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("server returned %d", status)
	}
	return &Error{Status: status, Message: message, Detail: detail}
}
