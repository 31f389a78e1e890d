package ecojourney

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Store persists reports and point balances. Writes on the same user are last
// write wins.
type Store interface {
	SaveReport(ctx context.Context, snapshot Snapshot) error
	ListReports(ctx context.Context, userID string) ([]Snapshot, error)
	AddPoints(ctx context.Context, userID string, delta int) (balance int, err error)
	Points(ctx context.Context, userID string) (int, error)
	RecordMileage(ctx context.Context, request MileageRequest) error
}

// Narrator turns a finished report into prose and suggestions.
type Narrator interface {
	Narrate(ctx context.Context, report *Report) (Narrative, error)
}

type MileageStatus string

const MileageApproved MileageStatus = "APPROVED"

// MileageRequest records a points to mileage conversion.
type MileageRequest struct {
	ID        string
	UserID    string
	Points    int
	Mileage   int
	Status    MileageStatus
	CreatedAt time.Time
}

// RequestErr describes a failed remote operation.
type RequestErr struct {
	Err       error
	Operation string
	Status    int
}

func (requestErr *RequestErr) Error() string {
	if requestErr.Status != 0 {
		return fmt.Sprintf("operation failed (op: %s, status: %d): %s", requestErr.Operation, requestErr.Status, requestErr.Err.Error())
	}
	return fmt.Sprintf("operation failed (op: %s): %s", requestErr.Operation, requestErr.Err.Error())
}

func (requestErr *RequestErr) Unwrap() error {
	return requestErr.Err
}

type callsKey struct{}

// Ctx counts remote calls issued under a context and the contexts derived from
// it.
type Ctx struct {
	context.Context
	calls *atomic.Int64
}

type Context interface {
	context.Context
	IncrCalls()
	Calls() int
}

func WrapCtx(ctx context.Context) Context {
	c, ok := ctx.(*Ctx)
	if ok {
		return c
	}

	calls := new(atomic.Int64)
	return &Ctx{
		Context: context.WithValue(ctx, callsKey{}, calls),
		calls:   calls,
	}
}

func (c *Ctx) IncrCalls() {
	c.calls.Add(1)
}

func (c *Ctx) Calls() int {
	return int(c.calls.Load())
}

// IncrCalls increments the call counter carried by ctx, if any.
func IncrCalls(ctx context.Context) {
	if calls, ok := ctx.Value(callsKey{}).(*atomic.Int64); ok {
		calls.Add(1)
	}
}
