package protocol

import (
	"errors"
	"fmt"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
)

// Protocol errors. Functions of this package return them wrapped in a
// coded error (P001..P003); errors.Is still matches.
var (
	ErrMalformedBatch = errors.New("protocol: malformed batch")
	ErrUnknownOpcode  = errors.New("protocol: unknown opcode")
	ErrUnknownHandle  = errors.New("protocol: unknown handle")
)

func malformed(err error) error {
	return rerrors.New("P001").Wrap(fmt.Errorf("%w: %w", ErrMalformedBatch, err))
}

// decodeError codes an error raised while decoding op i.
func decodeError(i int, err error) error {
	if errors.Is(err, ErrUnknownOpcode) {
		return rerrors.New("P002").WithDetail(fmt.Sprintf("op %d", i)).Wrap(err)
	}
	return malformed(fmt.Errorf("op %d: %w", i, err))
}

func unknownHandle(format string, args ...any) error {
	return rerrors.New("P003").Wrap(fmt.Errorf("%w: "+format, append([]any{ErrUnknownHandle}, args...)...))
}

// ErrorMessage reports a failure to a peer in a FrameError.
type ErrorMessage struct {
	Code    string // registry code, or "" when the error has none
	Message string
}

// NewErrorMessage describes err.
func NewErrorMessage(err error) *ErrorMessage {
	var re *rerrors.ReconcileError
	if !errors.As(err, &re) {
		return &ErrorMessage{Message: err.Error()}
	}
	msg := re.Message
	if re.Wrapped != nil {
		msg += ": " + re.Wrapped.Error()
	}
	return &ErrorMessage{Code: re.Code, Message: msg}
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteString(em.Code)
	e.WriteString(em.Message)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{Code: code, Message: message}, nil
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Code == "" {
		return em.Message
	}
	return em.Code + ": " + em.Message
}
