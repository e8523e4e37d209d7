package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FailureKind classifies a gateway failure for logging and metrics.
type FailureKind string

const (
	FailureConnectivity FailureKind = "connectivity"
	FailureEmpty        FailureKind = "empty"
	FailureMalformed    FailureKind = "malformed"
	FailureWrite        FailureKind = "write"
	FailureNotFound     FailureKind = "not_found"
)

// ErrStoreUnavailable is returned when the gateway has no store handle.
var ErrStoreUnavailable = stderrors.New("ticket store unavailable")

// GatewayError reports which store operation failed and how.
type GatewayError struct {
	Op   string
	Kind FailureKind
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind of err, or "" if err is not a GatewayError.
func KindOf(err error) FailureKind {
	var gwErr *GatewayError
	if stderrors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

func classify(err error, writeOp bool) FailureKind {
	switch {
	case stderrors.Is(err, ErrStoreUnavailable),
		stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, context.Canceled):
		return FailureConnectivity
	case stderrors.Is(err, pgx.ErrNoRows):
		return FailureNotFound
	case writeOp:
		return FailureWrite
	default:
		return FailureConnectivity
	}
}
