package store

import (
	"context"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/freeslot/server/scheduler/availability"
)

// Goal is a persisted goal the planner can schedule by UID.
type Goal struct {
	ID        int32
	UID       string
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64

	Description          string
	TargetAmount         *float64
	TargetUnit           string
	Deadline             string
	Frequency            string
	TimePreferences      []string
	MaxSessionsPerDay    int
	SessionDuration      *float64
	DistributionStrategy string
}

// FindGoal is the find condition for goal.
type FindGoal struct {
	ID        *int32
	UID       *string
	RowStatus *RowStatus

	Limit  *int
	Offset *int
}

// UpdateGoal is the update request for goal. Nil fields are left unchanged.
type UpdateGoal struct {
	ID                   int32
	UpdatedTs            *int64
	RowStatus            *RowStatus
	Description          *string
	TargetAmount         *float64
	TargetUnit           *string
	Deadline             *string
	Frequency            *string
	TimePreferences      *[]string
	MaxSessionsPerDay    *int
	SessionDuration      *float64
	DistributionStrategy *string
}

// DeleteGoal is the delete request for goal.
type DeleteGoal struct {
	ID int32
}

// GoalFromAvailability converts an engine goal into a row.
func GoalFromAvailability(g availability.Goal) *Goal {
	prefs := make([]string, 0, len(g.TimePreferences))
	for _, p := range g.TimePreferences {
		prefs = append(prefs, string(p))
	}
	return &Goal{
		UID:                  g.UID,
		Description:          g.Description,
		TargetAmount:         g.TargetAmount,
		TargetUnit:           g.TargetUnit,
		Deadline:             g.Deadline,
		Frequency:            g.Frequency,
		TimePreferences:      prefs,
		MaxSessionsPerDay:    g.MaxSessionsPerDay,
		SessionDuration:      g.SessionDuration,
		DistributionStrategy: string(g.DistributionStrategy),
	}
}

// ToAvailabilityGoal converts the row into the engine's goal.
func (g *Goal) ToAvailabilityGoal() availability.Goal {
	prefs := make([]availability.TimePreference, 0, len(g.TimePreferences))
	for _, p := range g.TimePreferences {
		prefs = append(prefs, availability.TimePreference(p))
	}
	return availability.Goal{
		UID:                  g.UID,
		Description:          g.Description,
		TargetAmount:         g.TargetAmount,
		TargetUnit:           g.TargetUnit,
		Deadline:             g.Deadline,
		Frequency:            g.Frequency,
		TimePreferences:      prefs,
		MaxSessionsPerDay:    g.MaxSessionsPerDay,
		SessionDuration:      g.SessionDuration,
		DistributionStrategy: availability.DistributionStrategy(g.DistributionStrategy),
	}
}

// JoinPreferences encodes time preferences for the time_preferences column.
func JoinPreferences(prefs []string) string {
	return strings.Join(prefs, ",")
}

// SplitPreferences decodes the time_preferences column.
func SplitPreferences(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func (s *Store) CreateGoal(ctx context.Context, create *Goal) (*Goal, error) {
	if strings.TrimSpace(create.Description) == "" {
		return nil, errors.New("goal description is required")
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.MaxSessionsPerDay <= 0 {
		create.MaxSessionsPerDay = 1
	}
	if create.DistributionStrategy == "" {
		create.DistributionStrategy = string(availability.SpreadEvenly)
	}
	return s.driver.CreateGoal(ctx, create)
}

func (s *Store) ListGoals(ctx context.Context, find *FindGoal) ([]*Goal, error) {
	return s.driver.ListGoals(ctx, find)
}

// GetGoal returns the goal matching find, or nil when there is none.
func (s *Store) GetGoal(ctx context.Context, find *FindGoal) (*Goal, error) {
	list, err := s.driver.ListGoals(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateGoal(ctx context.Context, update *UpdateGoal) (*Goal, error) {
	return s.driver.UpdateGoal(ctx, update)
}

func (s *Store) DeleteGoal(ctx context.Context, delete *DeleteGoal) error {
	return s.driver.DeleteGoal(ctx, delete)
}
