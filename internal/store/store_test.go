package store

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/gamify"
)

func snapshot(id string, day time.Time, total float64) ecojourney.Snapshot {
	return ecojourney.Snapshot{
		ID:        id,
		UserID:    "student@example.com",
		Day:       day,
		CreatedAt: day.Add(time.Hour),
		Report: &ecojourney.Report{
			TotalEmission: total,
			CategoryBreakdown: map[ecojourney.Category]ecojourney.CategoryShare{
				ecojourney.CategoryElectricity: {Emission: total, Percentage: 100},
			},
			PointsBreakdown: map[string]int{"평균 대비": 50},
		},
	}
}

func TestKeys(t *testing.T) {
	s := snapshot("abc", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, "reports/student@example.com/2025-03-14/abc.json", reportKey(s))
	assert.Equal(t, "points/a%2Fb.json", pointsKey("a/b"))
	assert.Equal(t, "mileage/u1/r1.json", mileageKey(ecojourney.MileageRequest{ID: "r1", UserID: "u1"}))
	assert.Equal(t, "challenges/c1.json", challengeKey("c1"))
	assert.Equal(t, "progress/u1/c%2F1.json", progressKey("u1", "c/1"))
	assert.Equal(t, "battles/b1.json", battleKey("b1"))
}

func testStore(t *testing.T, s *Store) {
	ctx := t.Context()
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	require.NoError(t, s.SaveReport(ctx, snapshot("2", tuesday, 12)))
	require.NoError(t, s.SaveReport(ctx, snapshot("1", monday, 40)))

	snapshots, err := s.ListReports(ctx, "student@example.com")
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "1", snapshots[0].ID)
	assert.Equal(t, 40.0, snapshots[0].Report.TotalEmission)
	assert.Equal(t, 100.0, snapshots[1].Report.CategoryBreakdown[ecojourney.CategoryElectricity].Percentage)

	none, err := s.ListReports(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	points, err := s.Points(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, points)

	balance, err := s.AddPoints(ctx, "student@example.com", 80)
	require.NoError(t, err)
	assert.Equal(t, 80, balance)

	balance, err = s.AddPoints(ctx, "student@example.com", -30)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)

	balance, err = s.AddPoints(ctx, "student@example.com", -100)
	assert.ErrorIs(t, err, ErrNegativeBalance)
	assert.Equal(t, 50, balance)

	request := ecojourney.MileageRequest{ID: "m1", UserID: "student@example.com", Points: 30, Mileage: 30, Status: ecojourney.MileageApproved, CreatedAt: tuesday}
	require.NoError(t, s.RecordMileage(ctx, request))

	requests, err := s.ListMileage(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, []ecojourney.MileageRequest{request}, requests)

	testGame(t, s)
}

func testGame(t *testing.T, s *Store) {
	ctx := t.Context()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveChallenge(ctx, gamify.Challenge{ID: "c2", Title: "텀블러 3회", Goal: 3, RewardPoints: 30, Active: true}))
	require.NoError(t, s.SaveChallenge(ctx, gamify.Challenge{ID: "c1", Title: "자전거 5회", Goal: 5, RewardPoints: 100, Active: true}))

	challenges, err := s.ListChallenges(ctx)
	require.NoError(t, err)
	require.Len(t, challenges, 2)
	assert.Equal(t, "c1", challenges[0].ID)
	assert.Equal(t, 100, challenges[0].RewardPoints)

	_, err = s.Challenge(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	progress, err := s.UpdateProgress(ctx, "student@example.com", "c1", func(p gamify.Progress) (gamify.Progress, error) {
		assert.Equal(t, gamify.Progress{ChallengeID: "c1", UserID: "student@example.com"}, p)
		p.Current += 2
		return p, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Current)

	_, err = s.UpdateProgress(ctx, "student@example.com", "c1", func(p gamify.Progress) (gamify.Progress, error) {
		p.Current += 10
		return p, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	progress, err = s.UpdateProgress(ctx, "student@example.com", "c1", func(p gamify.Progress) (gamify.Progress, error) {
		p.Current++
		return p, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, progress.Current)

	battle := gamify.Battle{ID: "b1", CollegeA: "공과대학", CollegeB: "경영대학", Start: start, End: start.AddDate(0, 0, 7)}
	require.NoError(t, s.SaveBattle(ctx, battle))

	updated, err := s.UpdateBattle(ctx, "b1", func(b gamify.Battle) (gamify.Battle, error) {
		return b.Join("student@example.com", "공과대학", 20, 50, start.Add(time.Hour))
	})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.ScoreA)

	stored, err := s.Battle(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ParticipantsA)
	assert.Equal(t, map[string]string{"student@example.com": "공과대학"}, stored.Members)

	_, err = s.UpdateBattle(ctx, "missing", func(b gamify.Battle) (gamify.Battle, error) {
		return b, nil
	})
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemory())
}

func TestMemoryStoreValidation(t *testing.T) {
	s := NewMemory()
	assert.Error(t, s.SaveReport(t.Context(), ecojourney.Snapshot{}))
	assert.Error(t, s.RecordMileage(t.Context(), ecojourney.MileageRequest{}))
	assert.Error(t, s.SaveChallenge(t.Context(), gamify.Challenge{}))
	assert.Error(t, s.SaveBattle(t.Context(), gamify.Battle{}))
}

func TestMemoryStoreConcurrentPoints(t *testing.T) {
	s := NewMemory()

	wg := new(sync.WaitGroup)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddPoints(t.Context(), "u", 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	points, err := s.Points(t.Context(), "u")
	require.NoError(t, err)
	assert.Equal(t, 100, points)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, found := f.objects[aws.ToString(params.Key)]
	if !found {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	testStore(t, New(NewS3ObjectsWithClient(&fakeS3{objects: make(map[string][]byte)}, "reports")))
}

func TestS3NotFound(t *testing.T) {
	objects := NewS3ObjectsWithClient(&fakeS3{objects: make(map[string][]byte)}, "reports")
	_, err := objects.Get(t.Context(), "missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
