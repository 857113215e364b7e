package schedule

import (
	"context"
	"log/slog"
	"strings"

	serrors "github.com/hrygo/freeslot/server/internal/errors"
	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/store"
)

// storeError codes a store failure, keeping cancellations and timeouts apart.
func storeError(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return serrors.FromContextError(ctxErr)
	}
	return serrors.Internal(msg, err)
}

func (s *service) findGoal(ctx context.Context, uid string) (*store.Goal, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, serrors.InvalidArgument("goal uid is required")
	}
	normal := store.Normal
	goal, err := s.store.GetGoal(ctx, &store.FindGoal{UID: &uid, RowStatus: &normal})
	if err != nil {
		return nil, storeError(ctx, "failed to get goal", err)
	}
	if goal == nil {
		return nil, serrors.NotFound("goal", uid)
	}
	return goal, nil
}

func (s *service) CreateGoal(ctx context.Context, goal availability.Goal) (created *availability.Goal, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationGoal)
	defer cancel()
	defer func() { s.finish(rc, OperationGoal, err) }()

	if strings.TrimSpace(goal.Description) == "" {
		return nil, serrors.InvalidArgument("goal description is required")
	}
	if err := s.validateGoal(goal); err != nil {
		return nil, err
	}
	if goal.UID != "" {
		existing, err := s.store.GetGoal(ctx, &store.FindGoal{UID: &goal.UID})
		if err != nil {
			return nil, storeError(ctx, "failed to get goal", err)
		}
		if existing != nil {
			return nil, serrors.InvalidArgument("goal %s already exists", goal.UID)
		}
	}

	row, err := s.store.CreateGoal(ctx, store.GoalFromAvailability(goal))
	if err != nil {
		return nil, storeError(ctx, "failed to create goal", err)
	}
	rc.WithGoal(row.UID).Info("goal created")
	result := row.ToAvailabilityGoal()
	return &result, nil
}

func (s *service) ListGoals(ctx context.Context) (goals []availability.Goal, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationGoal)
	defer cancel()
	defer func() { s.finish(rc, OperationGoal, err) }()

	normal := store.Normal
	rows, err := s.store.ListGoals(ctx, &store.FindGoal{RowStatus: &normal})
	if err != nil {
		return nil, storeError(ctx, "failed to list goals", err)
	}
	goals = make([]availability.Goal, 0, len(rows))
	for _, row := range rows {
		goals = append(goals, row.ToAvailabilityGoal())
	}
	return goals, nil
}

func (s *service) GetGoal(ctx context.Context, uid string) (goal *availability.Goal, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationGoal)
	defer cancel()
	defer func() { s.finish(rc, OperationGoal, err) }()

	row, err := s.findGoal(ctx, uid)
	if err != nil {
		return nil, err
	}
	result := row.ToAvailabilityGoal()
	return &result, nil
}

func (s *service) UpdateGoal(ctx context.Context, uid string, patch *GoalPatch) (goal *availability.Goal, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationGoal)
	defer cancel()
	defer func() { s.finish(rc, OperationGoal, err) }()

	if patch == nil {
		return nil, serrors.InvalidArgument("patch is required")
	}
	row, err := s.findGoal(ctx, uid)
	if err != nil {
		return nil, err
	}

	// Validate the goal as it will look after the patch.
	merged := *row
	update := &store.UpdateGoal{ID: row.ID}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, serrors.InvalidArgument("goal description is required")
		}
		merged.Description, update.Description = *patch.Description, patch.Description
	}
	if patch.TargetAmount != nil {
		merged.TargetAmount, update.TargetAmount = patch.TargetAmount, patch.TargetAmount
	}
	if patch.TargetUnit != nil {
		merged.TargetUnit, update.TargetUnit = *patch.TargetUnit, patch.TargetUnit
	}
	if patch.Deadline != nil {
		merged.Deadline, update.Deadline = *patch.Deadline, patch.Deadline
	}
	if patch.Frequency != nil {
		merged.Frequency, update.Frequency = *patch.Frequency, patch.Frequency
	}
	if patch.TimePreferences != nil {
		merged.TimePreferences, update.TimePreferences = *patch.TimePreferences, patch.TimePreferences
	}
	if patch.MaxSessionsPerDay != nil {
		merged.MaxSessionsPerDay, update.MaxSessionsPerDay = *patch.MaxSessionsPerDay, patch.MaxSessionsPerDay
	}
	if patch.SessionDuration != nil {
		merged.SessionDuration, update.SessionDuration = patch.SessionDuration, patch.SessionDuration
	}
	if patch.DistributionStrategy != nil {
		merged.DistributionStrategy, update.DistributionStrategy = *patch.DistributionStrategy, patch.DistributionStrategy
	}
	if err := s.validateGoal(merged.ToAvailabilityGoal()); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateGoal(ctx, update)
	if err != nil {
		return nil, storeError(ctx, "failed to update goal", err)
	}
	rc.WithGoal(uid).Info("goal updated")
	result := updated.ToAvailabilityGoal()
	return &result, nil
}

func (s *service) DeleteGoal(ctx context.Context, uid string) (err error) {
	ctx, rc, cancel := s.begin(ctx, OperationGoal)
	defer cancel()
	defer func() { s.finish(rc, OperationGoal, err) }()

	row, err := s.findGoal(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, &store.DeleteGoal{ID: row.ID}); err != nil {
		return storeError(ctx, "failed to delete goal", err)
	}
	rc.WithGoal(uid).Info("goal deleted", slog.Int("id", int(row.ID)))
	return nil
}
