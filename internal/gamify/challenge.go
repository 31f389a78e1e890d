package gamify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrChallengeClosed  = errors.New("challenge is not active")
	ErrInvalidIncrement = errors.New("progress increment must be positive")
)

type Challenge struct {
	ID           string
	Title        string
	Kind         string
	Goal         int
	RewardPoints int
	Active       bool
}

// Progress of a user on a challenge.
type Progress struct {
	ChallengeID string
	UserID      string
	Current     int
	Completed   bool
	CompletedAt time.Time
	UpdatedAt   time.Time
}

// Advance adds increment to the progress. The reward is granted once, on the
// update reaching the goal. Completed progress and inactive challenges never
// change.
func Advance(progress Progress, challenge Challenge, increment int, now time.Time) (Progress, int) {
	if progress.Completed || !challenge.Active || increment <= 0 {
		return progress, 0
	}

	progress.ChallengeID = challenge.ID
	progress.Current += increment
	progress.UpdatedAt = now

	if progress.Current >= challenge.Goal {
		progress.Completed = true
		progress.CompletedAt = now
		return progress, challenge.RewardPoints
	}

	return progress, 0
}

// Board holds challenges, the progress of users and their point balances.
type Board interface {
	Challenge(ctx context.Context, challengeID string) (Challenge, error)
	UpdateProgress(ctx context.Context, userID, challengeID string, update func(Progress) (Progress, error)) (Progress, error)
	Points(ctx context.Context, userID string) (int, error)
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
}

type ChallengeResult struct {
	Challenge Challenge
	Progress  Progress
	// Reward is the points credited by this update
	Reward  int
	Balance int
}

// AdvanceChallenge records increment on the progress of userID and credits the
// reward when the challenge completes.
func AdvanceChallenge(ctx context.Context, board Board, userID, challengeID string, increment int, now time.Time) (ChallengeResult, error) {
	if increment <= 0 {
		return ChallengeResult{}, ErrInvalidIncrement
	}

	challenge, err := board.Challenge(ctx, challengeID)
	if err != nil {
		return ChallengeResult{}, fmt.Errorf("failed to read challenge %s: %w", challengeID, err)
	}
	if !challenge.Active {
		return ChallengeResult{}, fmt.Errorf("%s: %w", challengeID, ErrChallengeClosed)
	}

	result := ChallengeResult{Challenge: challenge}

	result.Progress, err = board.UpdateProgress(ctx, userID, challengeID, func(progress Progress) (Progress, error) {
		progress, result.Reward = Advance(progress, challenge, increment, now)
		return progress, nil
	})
	if err != nil {
		return ChallengeResult{}, fmt.Errorf("failed to update progress of %s on %s: %w", userID, challengeID, err)
	}

	if result.Reward > 0 {
		result.Balance, err = board.AddPoints(ctx, userID, result.Reward)
		if err != nil {
			return result, fmt.Errorf("failed to credit reward of %s: %w", challengeID, err)
		}
		slog.Info("challenge completed", "user_id", userID, "challenge_id", challengeID, "reward", result.Reward)
		return result, nil
	}

	result.Balance, err = board.Points(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to read points of %s: %w", userID, err)
	}

	return result, nil
}
