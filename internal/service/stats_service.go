package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Analyzer derives statistics from a user's workout history and their
// live per-exercise record set. All derivations are side-effect free;
// the analyzer never writes.
type Analyzer struct {
	workoutRepo repository.WorkoutRepository
	recordRepo  repository.RecordRepository
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(workoutRepo repository.WorkoutRepository, recordRepo repository.RecordRepository) *Analyzer {
	return &Analyzer{
		workoutRepo: workoutRepo,
		recordRepo:  recordRepo,
	}
}

// StreakStats holds the two independently computed streak values.
type StreakStats struct {
	LongestStreak int `json:"longestStreak"`
	CurrentStreak int `json:"currentStreak"`
}

// Streaks computes the user's longest and current workout-day streaks.
// A day counts when at least one workout was created that day,
// regardless of its status.
func (a *Analyzer) Streaks(ctx context.Context, userID string, today time.Time) (*StreakStats, error) {
	timestamps, err := a.workoutRepo.GetWorkoutDays(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get workout days: %w", err)
	}
	days := uniqueDays(timestamps)
	return &StreakStats{
		LongestStreak: LongestStreak(days),
		CurrentStreak: CurrentStreak(days, today),
	}, nil
}

// uniqueDays truncates timestamps to calendar days, deduplicates and
// sorts them ascending.
func uniqueDays(timestamps []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(timestamps))
	var days []time.Time
	for _, ts := range timestamps {
		day := truncateToDay(ts)
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// truncateToDay maps a timestamp to a canonical representation of its
// calendar day: the day is read in the timestamp's own location, then
// pinned to UTC midnight. Days from different zones compare by calendar
// date, and consecutive days are always exactly 24h apart (no DST).
func truncateToDay(t time.Time) time.Time {
	year, month, dayOfMonth := t.Date()
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// LongestStreak returns the maximum run of consecutive calendar days in
// the given unique, ascending day set. Empty input yields 0.
func LongestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// CurrentStreak counts consecutive workout days ending today or
// yesterday, scanning backward from the most recent day. If the most
// recent workout day is older than yesterday the streak is 0.
func CurrentStreak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}
	todayDay := truncateToDay(today)
	yesterday := todayDay.AddDate(0, 0, -1)

	last := days[len(days)-1]
	if !last.Equal(todayDay) && !last.Equal(yesterday) {
		return 0
	}

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i].Sub(days[i-1]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}

// HighestWeightSet returns the finished set with the maximum weight in
// the item. Ties break to the earlier finished_at; if either side lacks
// finished_at, to the lower set id. Nil if no finished sets exist.
func HighestWeightSet(item *domain.WorkoutItem) *domain.Set {
	return bestFinishedSet(item, func(s *domain.Set) float64 { return s.WeightValue() })
}

// HighestVolumeSet is like HighestWeightSet but compares weight*reps.
func HighestVolumeSet(item *domain.WorkoutItem) *domain.Set {
	return bestFinishedSet(item, func(s *domain.Set) float64 { return s.Volume() })
}

func bestFinishedSet(item *domain.WorkoutItem, value func(*domain.Set) float64) *domain.Set {
	var best *domain.Set
	for _, s := range item.Sets {
		if !s.IsFinished {
			continue
		}
		if best == nil {
			best = s
			continue
		}
		switch {
		case value(s) > value(best):
			best = s
		case value(s) < value(best):
		default:
			if winsTie(s, best) {
				best = s
			}
		}
	}
	return best
}

// winsTie reports whether the challenger beats the incumbent on equal
// value: earlier finished_at first, lower id when finished_at is absent
// on either side.
func winsTie(challenger, incumbent *domain.Set) bool {
	if challenger.FinishedAt != nil && incumbent.FinishedAt != nil {
		return challenger.FinishedAt.Before(*incumbent.FinishedAt)
	}
	return challenger.ID.Hex() < incumbent.ID.Hex()
}

// ItemRecords flags the record-setting sets of one workout item.
type ItemRecords struct {
	// Best sets within the item among finished sets.
	HighestWeightSetID primitive.ObjectID `json:"highestWeightSetId,omitempty"`
	HighestVolumeSetID primitive.ObjectID `json:"highestVolumeSetId,omitempty"`
	// Whether those sets also beat the user's all-time records.
	NewWeightRecord bool `json:"newWeightRecord"`
	NewVolumeRecord bool `json:"newVolumeRecord"`
}

// DetectItemRecords annotates the best sets of the item and checks them
// against the user's existing all-time records for the exercise.
func (a *Analyzer) DetectItemRecords(ctx context.Context, userID string, item *domain.WorkoutItem) (*ItemRecords, error) {
	records, err := a.recordRepo.GetByUserAndExercise(ctx, userID, item.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	return detectItemRecords(item, records), nil
}

func detectItemRecords(item *domain.WorkoutItem, records []domain.Record) *ItemRecords {
	result := &ItemRecords{}

	if best := HighestWeightSet(item); best != nil {
		result.HighestWeightSetID = best.ID
		result.NewWeightRecord = beatsRecord(best, best.WeightValue(), records, domain.RecordTypeWeight)
	}
	if best := HighestVolumeSet(item); best != nil {
		result.HighestVolumeSetID = best.ID
		result.NewVolumeRecord = beatsRecord(best, best.Volume(), records, domain.RecordTypeVolume)
	}
	return result
}

// beatsRecord reports whether the set's value exceeds the user's
// all-time record of the given type. A value merely equalling the
// record still counts when the record was set by this very set.
func beatsRecord(s *domain.Set, value float64, records []domain.Record, recordType domain.RecordType) bool {
	var current *domain.Record
	for i := range records {
		r := &records[i]
		if r.Type != recordType {
			continue
		}
		if current == nil || r.Value > current.Value {
			current = r
		}
	}
	if current == nil {
		return true
	}
	if value > current.Value {
		return true
	}
	return value == current.Value && current.SetID == s.ID
}

// MuscleCount is one entry of the muscle usage aggregation.
type MuscleCount struct {
	Muscle string `json:"muscle"`
	Count  int    `json:"count"`
}

// MuscleUsage counts each finished workout's designated main muscle,
// in first-encountered order.
func (a *Analyzer) MuscleUsage(ctx context.Context, userID string) ([]MuscleCount, error) {
	workouts, err := a.workoutRepo.GetFinishedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get finished workouts: %w", err)
	}

	counts := make(map[string]int)
	var order []string
	for _, w := range workouts {
		if w.MainMuscle == "" {
			continue
		}
		if _, ok := counts[w.MainMuscle]; !ok {
			order = append(order, w.MainMuscle)
		}
		counts[w.MainMuscle]++
	}

	usage := make([]MuscleCount, 0, len(order))
	for _, muscle := range order {
		usage = append(usage, MuscleCount{Muscle: muscle, Count: counts[muscle]})
	}
	return usage, nil
}

// FavoriteMuscle returns the most frequent main muscle across the
// user's finished workouts. Ties go to the first-encountered muscle.
// Empty history yields an empty string.
func (a *Analyzer) FavoriteMuscle(ctx context.Context, userID string) (string, error) {
	usage, err := a.MuscleUsage(ctx, userID)
	if err != nil {
		return "", err
	}
	favorite := ""
	best := 0
	for _, entry := range usage {
		if entry.Count > best {
			favorite = entry.Muscle
			best = entry.Count
		}
	}
	return favorite, nil
}

// mainMuscleOfItems derives the most frequently targeted muscle across
// the items' exercises, first-encountered order breaking ties.
func mainMuscleOfItems(items []*domain.WorkoutItem) string {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		if item.Exercise == nil {
			continue
		}
		for _, muscle := range item.Exercise.Muscles {
			if _, ok := counts[muscle.Name]; !ok {
				order = append(order, muscle.Name)
			}
			counts[muscle.Name]++
		}
	}
	main := ""
	best := 0
	for _, muscle := range order {
		if counts[muscle] > best {
			main = muscle
			best = counts[muscle]
		}
	}
	return main
}
