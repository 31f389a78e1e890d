// Package gamify spends and earns points outside of daily reports: mileage
// conversion, challenges and college battles.
package gamify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/superdango/ecojourney"
)

var (
	ErrInvalidPoints      = errors.New("points must be positive")
	ErrInsufficientPoints = errors.New("insufficient points")
)

// MileagePerPoint is the conversion rate of points into mileage.
const MileagePerPoint = 1

// Ledger holds point balances and mileage requests.
type Ledger interface {
	Points(ctx context.Context, userID string) (int, error)
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
	RecordMileage(ctx context.Context, request ecojourney.MileageRequest) error
}

// ConvertMileage debits points and records an approved mileage request.
func ConvertMileage(ctx context.Context, ledger Ledger, userID string, points int) (ecojourney.MileageRequest, error) {
	if points <= 0 {
		return ecojourney.MileageRequest{}, ErrInvalidPoints
	}

	balance, err := ledger.Points(ctx, userID)
	if err != nil {
		return ecojourney.MileageRequest{}, fmt.Errorf("failed to read points of %s: %w", userID, err)
	}
	if points > balance {
		return ecojourney.MileageRequest{}, fmt.Errorf("%d points requested, %d available: %w", points, balance, ErrInsufficientPoints)
	}

	if _, err := ledger.AddPoints(ctx, userID, -points); err != nil {
		return ecojourney.MileageRequest{}, fmt.Errorf("failed to debit points of %s: %w", userID, err)
	}

	request := ecojourney.MileageRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Points:    points,
		Mileage:   points * MileagePerPoint,
		Status:    ecojourney.MileageApproved,
		CreatedAt: time.Now(),
	}

	if err := ledger.RecordMileage(ctx, request); err != nil {
		// give the points back, the conversion did not happen
		if _, refundErr := ledger.AddPoints(ctx, userID, points); refundErr != nil {
			slog.Error("failed to refund points", "user_id", userID, "points", points, "err", refundErr.Error())
		}
		return ecojourney.MileageRequest{}, fmt.Errorf("failed to record mileage request: %w", err)
	}

	slog.Info("mileage converted", "user_id", userID, "points", points, "mileage", request.Mileage)

	return request, nil
}
