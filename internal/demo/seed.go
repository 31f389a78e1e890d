// Package demo generates plausible activity logs so a fresh deployment has
// reports to show.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/report"
)

const UserID = "demo"

// Generator is satisfied by report.Assembler.
type Generator interface {
	Generate(ctx context.Context, userID string, day time.Time, activities []ecojourney.Activity) (*report.Result, error)
}

// Activities returns a day of activities. Weekends trade commuting for
// shopping and longer showers.
func Activities(day time.Time, rnd *rand.Rand) []ecojourney.Activity {
	weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday

	activities := []ecojourney.Activity{
		{Category: ecojourney.CategoryFood, Type: "밥", Value: float64(2 + rnd.IntN(2)), Unit: "인분"},
		{Category: ecojourney.CategoryElectricity, Type: "에어컨", Value: float64(1 + rnd.IntN(5)), Unit: "시간"},
		{Category: ecojourney.CategoryWater, Type: "샤워", Value: 1, Unit: "회"},
		{Category: ecojourney.CategoryWaste, Type: "플라스틱", Value: float64(50 + rnd.IntN(200)), Unit: "g"},
	}

	if weekend {
		activities = append(activities,
			ecojourney.Activity{Category: ecojourney.CategoryClothing, Type: "상의", Value: 1, Unit: "개", SubCategory: ecojourney.VintageSubCategory},
			ecojourney.Activity{Category: ecojourney.CategoryWater, Type: "샤워", Value: 1, Unit: "회"},
		)
		return activities
	}

	commute := ecojourney.Activity{Category: ecojourney.CategoryTransport, Type: "지하철", Value: float64(5 + rnd.IntN(15)), Unit: "km"}
	if rnd.IntN(3) == 0 {
		commute.Type = "자전거"
	}

	return append(activities,
		commute,
		ecojourney.Activity{Category: ecojourney.CategoryFood, Type: "커피", Value: float64(15 * rnd.IntN(3)), Unit: "g"},
	)
}

// Seed generates one report per day for the days preceding now.
func Seed(ctx context.Context, generator Generator, now time.Time, days int) error {
	rnd := rand.New(rand.NewPCG(uint64(now.Unix()), 0))

	for i := days; i > 0; i-- {
		day := now.AddDate(0, 0, -i)
		result, err := generator.Generate(ctx, UserID, day, Activities(day, rnd))
		if result == nil {
			return fmt.Errorf("failed to seed demo report for %s: %w", day.Format(time.DateOnly), err)
		}
		if err != nil {
			slog.Warn("demo report seeded with collaborator failures", "day", day.Format(time.DateOnly), "err", err.Error())
		}
	}

	slog.Info("demo reports seeded", "user_id", UserID, "days", days)
	return nil
}
