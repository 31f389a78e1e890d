package gamify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"
)

var (
	ErrBattleClosed   = errors.New("battle is not open")
	ErrUnknownCollege = errors.New("college does not take part in the battle")
	ErrAlreadyJoined  = errors.New("already joined the other college")
)

// Battle opposes two colleges. Students bet points on their college, the
// college with the highest score wins.
type Battle struct {
	ID            string
	CollegeA      string
	CollegeB      string
	ScoreA        int
	ScoreB        int
	ParticipantsA int
	ParticipantsB int
	Start         time.Time
	End           time.Time
	// Members maps each user who joined to their college
	Members map[string]string
}

func (b Battle) Open(now time.Time) bool {
	return !now.Before(b.Start) && now.Before(b.End)
}

// Join adds the bet of userID to the score of college. A user keeps the
// college of their first bet and only counts once as a participant.
func (b Battle) Join(userID, college string, bet int, balance int, now time.Time) (Battle, error) {
	if bet <= 0 {
		return b, ErrInvalidPoints
	}
	if bet > balance {
		return b, fmt.Errorf("bet of %d points, %d available: %w", bet, balance, ErrInsufficientPoints)
	}
	if !b.Open(now) {
		return b, ErrBattleClosed
	}
	if college != b.CollegeA && college != b.CollegeB {
		return b, fmt.Errorf("%s: %w", college, ErrUnknownCollege)
	}

	joined, found := b.Members[userID]
	if found && joined != college {
		return b, fmt.Errorf("%s joined %s: %w", userID, joined, ErrAlreadyJoined)
	}

	members := make(map[string]string, len(b.Members)+1)
	maps.Copy(members, b.Members)
	members[userID] = college
	b.Members = members

	switch college {
	case b.CollegeA:
		b.ScoreA += bet
		if !found {
			b.ParticipantsA++
		}
	case b.CollegeB:
		b.ScoreB += bet
		if !found {
			b.ParticipantsB++
		}
	}

	return b, nil
}

// Winner returns the leading college, empty on a tie.
func (b Battle) Winner() string {
	switch {
	case b.ScoreA > b.ScoreB:
		return b.CollegeA
	case b.ScoreB > b.ScoreA:
		return b.CollegeB
	}
	return ""
}

// Arena holds battles and the point balances bets are debited from.
type Arena interface {
	Points(ctx context.Context, userID string) (int, error)
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
	UpdateBattle(ctx context.Context, battleID string, update func(Battle) (Battle, error)) (Battle, error)
}

// JoinBattle debits bet from the balance of userID and adds it to the score of
// college. The points are refunded when the battle refuses the bet.
func JoinBattle(ctx context.Context, arena Arena, battleID, userID, college string, bet int, now time.Time) (Battle, int, error) {
	if bet <= 0 {
		return Battle{}, 0, ErrInvalidPoints
	}

	balance, err := arena.Points(ctx, userID)
	if err != nil {
		return Battle{}, 0, fmt.Errorf("failed to read points of %s: %w", userID, err)
	}
	if bet > balance {
		return Battle{}, balance, fmt.Errorf("bet of %d points, %d available: %w", bet, balance, ErrInsufficientPoints)
	}

	remaining, err := arena.AddPoints(ctx, userID, -bet)
	if err != nil {
		return Battle{}, balance, fmt.Errorf("failed to debit points of %s: %w", userID, err)
	}

	battle, err := arena.UpdateBattle(ctx, battleID, func(b Battle) (Battle, error) {
		return b.Join(userID, college, bet, balance, now)
	})
	if err != nil {
		// give the bet back, the battle refused it
		if _, refundErr := arena.AddPoints(ctx, userID, bet); refundErr != nil {
			slog.Error("failed to refund bet", "user_id", userID, "battle_id", battleID, "points", bet, "err", refundErr.Error())
			return Battle{}, remaining, fmt.Errorf("failed to join battle %s: %w", battleID, err)
		}
		return Battle{}, balance, fmt.Errorf("failed to join battle %s: %w", battleID, err)
	}

	slog.Info("battle joined", "battle_id", battleID, "user_id", userID, "college", college, "bet", bet)

	return battle, remaining, nil
}
