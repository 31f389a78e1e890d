package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/gamify"
)

const maxBodyBytes = 1 << 20

// ActivityRequest is one logged activity. Form submissions send numbers as
// strings, they are accepted.
type ActivityRequest struct {
	Category    string  `mapstructure:"category"`
	Type        string  `mapstructure:"type"`
	Value       float64 `mapstructure:"value"`
	Unit        string  `mapstructure:"unit"`
	SubCategory string  `mapstructure:"sub_category"`
}

type CreateReportRequest struct {
	UserID     string            `mapstructure:"user_id"`
	Day        string            `mapstructure:"day"`
	Activities []ActivityRequest `mapstructure:"activities"`
}

func (req *CreateReportRequest) Validate() error {
	if req.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if req.Day != "" {
		if _, err := time.Parse(time.DateOnly, req.Day); err != nil {
			return fmt.Errorf("day must be formatted as YYYY-MM-DD: %w", err)
		}
	}
	for i, activity := range req.Activities {
		if activity.Value < 0 {
			return fmt.Errorf("activities[%d]: value must not be negative", i)
		}
	}
	return nil
}

func (req *CreateReportRequest) activities() []ecojourney.Activity {
	activities := make([]ecojourney.Activity, len(req.Activities))
	for i, a := range req.Activities {
		activities[i] = ecojourney.Activity{
			Category:    ecojourney.ParseCategory(a.Category),
			Type:        a.Type,
			Value:       a.Value,
			Unit:        a.Unit,
			SubCategory: a.SubCategory,
		}
	}
	return activities
}

type MileageRequest struct {
	UserID string `mapstructure:"user_id"`
	Points int    `mapstructure:"points"`
}

type ChallengeRequest struct {
	Title        string `mapstructure:"title"`
	Kind         string `mapstructure:"kind"`
	Goal         int    `mapstructure:"goal"`
	RewardPoints int    `mapstructure:"reward_points"`
}

func (req *ChallengeRequest) Validate() error {
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if req.Goal <= 0 {
		return fmt.Errorf("goal must be positive")
	}
	if req.RewardPoints < 0 {
		return fmt.Errorf("reward_points must not be negative")
	}
	return nil
}

// ProgressRequest advances a challenge, by one when increment is omitted.
type ProgressRequest struct {
	UserID    string `mapstructure:"user_id"`
	Increment int    `mapstructure:"increment"`
}

// BattleRequest opens a battle. Start defaults to now and end to a week after
// start, both accept RFC 3339 timestamps or YYYY-MM-DD dates.
type BattleRequest struct {
	CollegeA string `mapstructure:"college_a"`
	CollegeB string `mapstructure:"college_b"`
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`
}

const defaultBattleDuration = 7 * 24 * time.Hour

func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", value)
	}
	return t, nil
}

func (req *BattleRequest) period(now time.Time) (start time.Time, end time.Time, err error) {
	if req.CollegeA == "" || req.CollegeB == "" {
		return start, end, fmt.Errorf("college_a and college_b are required")
	}
	if req.CollegeA == req.CollegeB {
		return start, end, fmt.Errorf("a college cannot battle itself")
	}

	start = now
	if req.Start != "" {
		if start, err = parseTime(req.Start); err != nil {
			return start, end, fmt.Errorf("start: %w", err)
		}
	}

	end = start.Add(defaultBattleDuration)
	if req.End != "" {
		if end, err = parseTime(req.End); err != nil {
			return start, end, fmt.Errorf("end: %w", err)
		}
	}

	if !end.After(start) {
		return start, end, fmt.Errorf("end must be after start")
	}

	return start, end, nil
}

type JoinBattleRequest struct {
	UserID  string `mapstructure:"user_id"`
	College string `mapstructure:"college"`
	Bet     int    `mapstructure:"bet"`
}

// decode reads a json body into target, converting weakly typed values.
func decode(r *http.Request, target any) error {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		return fmt.Errorf("unable to parse body: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(body); err != nil {
		return fmt.Errorf("unable to decode body: %w", err)
	}

	return nil
}

type EstimateResponse struct {
	Category string  `json:"category"`
	Type     string  `json:"type"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
	KgCO2e   float64 `json:"kg_co2e"`
	Source   string  `json:"source"`
	Method   string  `json:"method"`
	Region   string  `json:"region,omitempty"`
}

type CategoryResponse struct {
	Emission   float64 `json:"emission"`
	Percentage float64 `json:"percentage"`
}

type SavingsResponse struct {
	ActivityType  string  `json:"activity_type"`
	Distance      float64 `json:"distance"`
	SavedEmission float64 `json:"saved_emission"`
	SavedMoney    float64 `json:"saved_money"`
}

type ComparisonResponse struct {
	User              float64 `json:"user"`
	Baseline          float64 `json:"baseline"`
	Difference        float64 `json:"difference"`
	AbsDifference     float64 `json:"abs_difference"`
	PercentDifference float64 `json:"percent_difference"`
	IsBetter          bool    `json:"is_better"`
}

type ReportResponse struct {
	Estimates          []EstimateResponse          `json:"estimates"`
	TotalEmission      float64                     `json:"total_emission"`
	CategoryBreakdown  map[string]CategoryResponse `json:"category_breakdown"`
	TotalSavedEmission float64                     `json:"total_saved_emission"`
	SavedMoney         float64                     `json:"saved_money"`
	SavingsDetails     []SavingsResponse           `json:"savings_details"`
	PointsBreakdown    map[string]int              `json:"points_breakdown"`
	TotalPointsEarned  int                         `json:"total_points_earned"`
	Comparison         ComparisonResponse          `json:"comparison"`
}

type SnapshotResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Day       string          `json:"day"`
	CreatedAt time.Time       `json:"created_at"`
	Report    *ReportResponse `json:"report,omitempty"`
}

type CreateReportResponse struct {
	Snapshot    SnapshotResponse `json:"snapshot"`
	Balance     int              `json:"balance"`
	Analysis    string           `json:"analysis,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
}

type PointsResponse struct {
	UserID  string `json:"user_id"`
	Balance int    `json:"balance"`
}

type MileageResponse struct {
	ID        string    `json:"id"`
	Points    int       `json:"points"`
	Mileage   int       `json:"mileage"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ChallengeResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Kind         string `json:"kind,omitempty"`
	Goal         int    `json:"goal"`
	RewardPoints int    `json:"reward_points"`
	Active       bool   `json:"active"`
}

type ProgressResponse struct {
	ChallengeID string `json:"challenge_id"`
	UserID      string `json:"user_id"`
	Current     int    `json:"current"`
	Goal        int    `json:"goal"`
	Completed   bool   `json:"completed"`
	Reward      int    `json:"reward"`
	Balance     int    `json:"balance"`
}

type BattleResponse struct {
	ID            string    `json:"id"`
	CollegeA      string    `json:"college_a"`
	CollegeB      string    `json:"college_b"`
	ScoreA        int       `json:"score_a"`
	ScoreB        int       `json:"score_b"`
	ParticipantsA int       `json:"participants_a"`
	ParticipantsB int       `json:"participants_b"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Open          bool      `json:"open"`
	Winner        string    `json:"winner,omitempty"`
}

type JoinBattleResponse struct {
	Battle  BattleResponse `json:"battle"`
	Balance int            `json:"balance"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newReportResponse(report *ecojourney.Report) *ReportResponse {
	if report == nil {
		return nil
	}

	resp := &ReportResponse{
		Estimates:          make([]EstimateResponse, len(report.Estimates)),
		TotalEmission:      report.TotalEmission,
		CategoryBreakdown:  make(map[string]CategoryResponse, len(report.CategoryBreakdown)),
		TotalSavedEmission: report.TotalSavedEmission,
		SavedMoney:         report.SavedMoney,
		SavingsDetails:     make([]SavingsResponse, len(report.SavingsDetails)),
		PointsBreakdown:    report.PointsBreakdown,
		TotalPointsEarned:  report.TotalPointsEarned,
		Comparison:         ComparisonResponse(report.Comparison),
	}

	for i, e := range report.Estimates {
		resp.Estimates[i] = EstimateResponse{
			Category: string(e.Activity.Category),
			Type:     e.Activity.Type,
			Value:    e.Activity.Quantity(),
			Unit:     e.Activity.StandardUnit,
			KgCO2e:   e.KgCO2e,
			Source:   string(e.Source),
			Method:   e.Method,
			Region:   e.Region,
		}
	}

	for category, share := range report.CategoryBreakdown {
		resp.CategoryBreakdown[string(category)] = CategoryResponse(share)
	}

	for i, detail := range report.SavingsDetails {
		resp.SavingsDetails[i] = SavingsResponse(detail)
	}

	return resp
}

func newMileageResponse(request ecojourney.MileageRequest) MileageResponse {
	return MileageResponse{
		ID:        request.ID,
		Points:    request.Points,
		Mileage:   request.Mileage,
		Status:    string(request.Status),
		CreatedAt: request.CreatedAt,
	}
}

func newChallengeResponse(challenge gamify.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:           challenge.ID,
		Title:        challenge.Title,
		Kind:         challenge.Kind,
		Goal:         challenge.Goal,
		RewardPoints: challenge.RewardPoints,
		Active:       challenge.Active,
	}
}

func newBattleResponse(battle gamify.Battle, now time.Time) BattleResponse {
	return BattleResponse{
		ID:            battle.ID,
		CollegeA:      battle.CollegeA,
		CollegeB:      battle.CollegeB,
		ScoreA:        battle.ScoreA,
		ScoreB:        battle.ScoreB,
		ParticipantsA: battle.ParticipantsA,
		ParticipantsB: battle.ParticipantsB,
		Start:         battle.Start,
		End:           battle.End,
		Open:          battle.Open(now),
		Winner:        battle.Winner(),
	}
}

func newSnapshotResponse(snapshot ecojourney.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:        snapshot.ID,
		UserID:    snapshot.UserID,
		Day:       snapshot.Day.Format(time.DateOnly),
		CreatedAt: snapshot.CreatedAt,
		Report:    newReportResponse(snapshot.Report),
	}
}
