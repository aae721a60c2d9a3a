// Package apierrors turns Pollinations HTTP failures into operation errors
// carrying the item index.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/new-xmon-df/pollinations-go/pkg/pollinations"
)

// Context names the kind of call that failed.
type Context string

const (
	ContextBalance Context = "balance"
	ContextImage   Context = "image"
	ContextText    Context = "text"
	ContextAudio   Context = "audio"
)

const defaultInvalidRequest = "Check your input parameters"

// statusMessages maps upstream status codes to user-facing messages. A
// message may contain one %s for the upstream detail.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request: %s",
	http.StatusUnauthorized:        "Authentication failed. Please check your API key is valid.",
	http.StatusPaymentRequired:     "Pollen balance exhausted. Please add more Pollen at https://enter.pollinations.ai",
	http.StatusForbidden:           "Permission denied. Your API key may not have the required permissions for this operation.",
	http.StatusTooManyRequests:     "Rate limit exceeded. Please wait a moment before trying again.",
	http.StatusInternalServerError: "Pollinations API is temporarily unavailable. Please try again later.",
	http.StatusBadGateway:          "Pollinations API is temporarily unavailable. Please try again later.",
	http.StatusServiceUnavailable:  "Pollinations API is temporarily unavailable. Please try again later.",
}

// contextMessages override statusMessages for one call context.
var contextMessages = map[Context]map[int]string{
	ContextBalance: {
		http.StatusForbidden: `API key does not have "Balance" permission. Please generate a new API key at https://enter.pollinations.ai with the "Balance" permission enabled.`,
	},
}

// OperationError is a failure attributed to one input item of a node run.
type OperationError struct {
	Node      string
	ItemIndex int
	Message   string
	Cause     error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// New creates an OperationError without an upstream cause.
func New(node string, itemIndex int, format string, args ...interface{}) *OperationError {
	return &OperationError{
		Node:      node,
		ItemIndex: itemIndex,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Message returns the mapped message for status in ctx.
func Message(status int, ctx Context, detail string) (string, bool) {
	msg, ok := contextMessages[ctx][status]
	if !ok {
		msg, ok = statusMessages[status]
	}
	if !ok {
		return "", false
	}
	if strings.Contains(msg, "%s") {
		if strings.TrimSpace(detail) == "" {
			detail = defaultInvalidRequest
		}
		msg = fmt.Sprintf(msg, detail)
	}
	return msg, true
}

// Translate maps err to an OperationError when it carries a known status.
// Anything else is returned unchanged.
func Translate(err error, node string, itemIndex int, ctx Context) error {
	if err == nil {
		return nil
	}
	var se *pollinations.StatusError
	if !errors.As(err, &se) {
		return err
	}
	msg, ok := Message(se.StatusCode, ctx, se.Message())
	if !ok {
		return err
	}
	return &OperationError{
		Node:      node,
		ItemIndex: itemIndex,
		Message:   msg,
		Cause:     err,
	}
}

// ItemIndex reports the item an error belongs to.
func ItemIndex(err error) (int, bool) {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.ItemIndex, true
	}
	return 0, false
}
