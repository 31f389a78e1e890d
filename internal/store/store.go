// Package store persists report snapshots, point balances, mileage requests,
// challenges and battles as JSON objects. Backends only need to put, get and
// list objects: memory, Google Cloud Storage and Amazon S3 are provided.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/superdango/ecojourney"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrObjectNotFound is returned by backends when a key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrNegativeBalance is returned when a debit exceeds the point balance.
	ErrNegativeBalance = errors.New("point balance cannot be negative")
)

// Objects is a flat key value blob storage.
type Objects interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Store implements ecojourney.Store over an object backend. Point, progress and
// battle updates are serialized within the process, concurrent writers from
// other processes are last write wins.
type Store struct {
	objects Objects
	mu      sync.Mutex
	gameMu  sync.Mutex
	now     func() time.Time
}

func New(objects Objects) *Store {
	return &Store{
		objects: objects,
		now:     time.Now,
	}
}

func (s *Store) Close() error {
	return s.objects.Close()
}

type balance struct {
	UserID    string    `json:"user_id"`
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userPrefix(kind, userID string) string {
	return fmt.Sprintf("%s/%s/", kind, url.PathEscape(userID))
}

func reportKey(snapshot ecojourney.Snapshot) string {
	return fmt.Sprintf("%s%s/%s.json", userPrefix("reports", snapshot.UserID), snapshot.Day.Format(time.DateOnly), snapshot.ID)
}

func pointsKey(userID string) string {
	return fmt.Sprintf("points/%s.json", url.PathEscape(userID))
}

func mileageKey(request ecojourney.MileageRequest) string {
	return fmt.Sprintf("%s%s.json", userPrefix("mileage", request.UserID), request.ID)
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.objects.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	slog.Debug("object written", "key", key, "bytes", len(data))
	return nil
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	data, err := s.objects.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) SaveReport(ctx context.Context, snapshot ecojourney.Snapshot) error {
	if snapshot.ID == "" || snapshot.UserID == "" {
		return fmt.Errorf("snapshot id and user id are required")
	}
	return s.put(ctx, reportKey(snapshot), snapshot)
}

// ListReports returns the snapshots of the user, oldest day first.
func (s *Store) ListReports(ctx context.Context, userID string) ([]ecojourney.Snapshot, error) {
	keys, err := s.objects.List(ctx, userPrefix("reports", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports of %s: %w", userID, err)
	}

	snapshots := make([]ecojourney.Snapshot, len(keys))

	errg, errgctx := errgroup.WithContext(ctx)
	errg.SetLimit(5)
	for i, key := range keys {
		errg.Go(func() error {
			return s.get(errgctx, key, &snapshots[i])
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read reports of %s: %w", userID, err)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		if !snapshots[i].Day.Equal(snapshots[j].Day) {
			return snapshots[i].Day.Before(snapshots[j].Day)
		}
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})

	return snapshots, nil
}

func (s *Store) points(ctx context.Context, userID string) (int, error) {
	b := new(balance)
	err := s.get(ctx, pointsKey(userID), b)
	if errors.Is(err, ErrObjectNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read points of %s: %w", userID, err)
	}
	return b.Balance, nil
}

func (s *Store) Points(ctx context.Context, userID string) (int, error) {
	return s.points(ctx, userID)
}

// AddPoints credits delta points, or debits them when delta is negative.
func (s *Store) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.points(ctx, userID)
	if err != nil {
		return 0, err
	}

	updated := current + delta
	if updated < 0 {
		return current, fmt.Errorf("debit of %d points on balance %d: %w", -delta, current, ErrNegativeBalance)
	}

	if err := s.put(ctx, pointsKey(userID), balance{UserID: userID, Balance: updated, UpdatedAt: s.now()}); err != nil {
		return current, err
	}

	return updated, nil
}

func (s *Store) RecordMileage(ctx context.Context, request ecojourney.MileageRequest) error {
	if request.ID == "" || request.UserID == "" {
		return fmt.Errorf("mileage request id and user id are required")
	}
	return s.put(ctx, mileageKey(request), request)
}

// ListMileage returns the mileage requests of the user, oldest first.
func (s *Store) ListMileage(ctx context.Context, userID string) ([]ecojourney.MileageRequest, error) {
	keys, err := s.objects.List(ctx, userPrefix("mileage", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list mileage of %s: %w", userID, err)
	}

	requests := make([]ecojourney.MileageRequest, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		request := ecojourney.MileageRequest{}
		if err := s.get(ctx, key, &request); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})

	return requests, nil
}
