package reconcile

import (
	"errors"
	"fmt"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

var (
	// ErrMalformedNode reports a node the builders never produce.
	ErrMalformedNode = vdom.ErrMalformed
	// ErrMaxDepth reports a tree deeper than the engine's limit.
	ErrMaxDepth = vdom.ErrTooDeep
	// ErrDuplicateKey reports two siblings with the same key (strict keys only).
	ErrDuplicateKey = errors.New("reconcile: duplicate sibling key")
	// ErrReentrantRender reports a Render on a container that is mid-pass.
	ErrReentrantRender = errors.New("reconcile: re-entrant render")
	// ErrNilContainer reports a Render without a container.
	ErrNilContainer = errors.New("reconcile: nil container")
)

// hostError records which Binding call failed.
type hostError struct {
	op  string
	err error
}

func (e *hostError) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *hostError) Unwrap() error { return e.err }

func wrapHost(op string, err error) error {
	if err == nil {
		return nil
	}
	return &hostError{op: op, err: err}
}

// classify turns an error raised during a pass into a coded error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var re *rerrors.ReconcileError
	if errors.As(err, &re) {
		return err
	}
	switch {
	case errors.Is(err, ErrMaxDepth):
		return rerrors.New("R002").Wrap(err)
	case errors.Is(err, vdom.ErrNilRender):
		return rerrors.New("R005").Wrap(err)
	case errors.Is(err, ErrMalformedNode):
		return rerrors.New("R001").Wrap(err)
	case errors.Is(err, ErrDuplicateKey):
		return rerrors.New("R003").Wrap(err)
	case errors.Is(err, ErrReentrantRender):
		return rerrors.New("R004").Wrap(err)
	}
	var he *hostError
	if errors.As(err, &he) {
		return rerrors.New("R020").WithDetail(he.op).Wrap(err)
	}
	return err
}
