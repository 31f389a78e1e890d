package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/superdango/ecojourney/internal/gamify"
	"golang.org/x/sync/errgroup"
)

func challengeKey(challengeID string) string {
	return fmt.Sprintf("challenges/%s.json", url.PathEscape(challengeID))
}

func progressKey(userID, challengeID string) string {
	return fmt.Sprintf("%s%s.json", userPrefix("progress", userID), url.PathEscape(challengeID))
}

func battleKey(battleID string) string {
	return fmt.Sprintf("battles/%s.json", url.PathEscape(battleID))
}

func (s *Store) SaveChallenge(ctx context.Context, challenge gamify.Challenge) error {
	if challenge.ID == "" {
		return fmt.Errorf("challenge id is required")
	}
	return s.put(ctx, challengeKey(challenge.ID), challenge)
}

// Challenge returns ErrObjectNotFound when the challenge does not exist.
func (s *Store) Challenge(ctx context.Context, challengeID string) (gamify.Challenge, error) {
	challenge := gamify.Challenge{}
	if err := s.get(ctx, challengeKey(challengeID), &challenge); err != nil {
		return gamify.Challenge{}, fmt.Errorf("failed to read challenge %s: %w", challengeID, err)
	}
	return challenge, nil
}

// ListChallenges returns every challenge ordered by id.
func (s *Store) ListChallenges(ctx context.Context) ([]gamify.Challenge, error) {
	keys, err := s.objects.List(ctx, "challenges/")
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	challenges := make([]gamify.Challenge, len(keys))

	errg, errgctx := errgroup.WithContext(ctx)
	errg.SetLimit(5)
	for i, key := range keys {
		errg.Go(func() error {
			return s.get(errgctx, key, &challenges[i])
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read challenges: %w", err)
	}

	sort.Slice(challenges, func(i, j int) bool {
		return challenges[i].ID < challenges[j].ID
	})

	return challenges, nil
}

// UpdateProgress applies update to the progress of the user on the challenge,
// starting from an empty progress on the first update. Nothing is written when
// update fails.
func (s *Store) UpdateProgress(ctx context.Context, userID, challengeID string, update func(gamify.Progress) (gamify.Progress, error)) (gamify.Progress, error) {
	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	progress := gamify.Progress{}
	err := s.get(ctx, progressKey(userID, challengeID), &progress)
	switch {
	case errors.Is(err, ErrObjectNotFound):
		progress = gamify.Progress{ChallengeID: challengeID, UserID: userID}
	case err != nil:
		return gamify.Progress{}, fmt.Errorf("failed to read progress of %s on %s: %w", userID, challengeID, err)
	}

	updated, err := update(progress)
	if err != nil {
		return progress, err
	}

	if err := s.put(ctx, progressKey(userID, challengeID), updated); err != nil {
		return progress, err
	}

	return updated, nil
}

func (s *Store) SaveBattle(ctx context.Context, battle gamify.Battle) error {
	if battle.ID == "" {
		return fmt.Errorf("battle id is required")
	}
	return s.put(ctx, battleKey(battle.ID), battle)
}

// Battle returns ErrObjectNotFound when the battle does not exist.
func (s *Store) Battle(ctx context.Context, battleID string) (gamify.Battle, error) {
	battle := gamify.Battle{}
	if err := s.get(ctx, battleKey(battleID), &battle); err != nil {
		return gamify.Battle{}, fmt.Errorf("failed to read battle %s: %w", battleID, err)
	}
	return battle, nil
}

// UpdateBattle applies update to an existing battle. Nothing is written when
// update fails.
func (s *Store) UpdateBattle(ctx context.Context, battleID string, update func(gamify.Battle) (gamify.Battle, error)) (gamify.Battle, error) {
	s.gameMu.Lock()
	defer s.gameMu.Unlock()

	battle, err := s.Battle(ctx, battleID)
	if err != nil {
		return gamify.Battle{}, err
	}

	updated, err := update(battle)
	if err != nil {
		return battle, err
	}

	if err := s.put(ctx, battleKey(battleID), updated); err != nil {
		return battle, err
	}

	return updated, nil
}
