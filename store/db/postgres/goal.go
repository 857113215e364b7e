package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/freeslot/store"
)

func (d *DB) CreateGoal(ctx context.Context, create *store.Goal) (*store.Goal, error) {
	fields := []string{
		"uid", "description", "target_amount", "target_unit", "deadline", "frequency",
		"time_preferences", "max_sessions_per_day", "session_duration", "distribution_strategy",
	}
	args := []any{
		create.UID, create.Description, create.TargetAmount, create.TargetUnit, create.Deadline, create.Frequency,
		store.JoinPreferences(create.TimePreferences), create.MaxSessionsPerDay, create.SessionDuration, create.DistributionStrategy,
	}
	if create.RowStatus != "" {
		fields = append(fields, "row_status")
		args = append(args, create.RowStatus)
	}

	stmt := `INSERT INTO goal (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts, row_status`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create goal")
	}
	return create, nil
}

func (d *DB) ListGoals(ctx context.Context, find *store.FindGoal) ([]*store.Goal, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "goal.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "goal.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "goal.row_status = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, created_ts, updated_ts, row_status,
			description, target_amount, target_unit, deadline, frequency,
			time_preferences, max_sessions_per_day, session_duration, distribution_strategy
		FROM goal
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY goal.created_ts DESC, goal.id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query goals")
	}
	defer rows.Close()

	list := make([]*store.Goal, 0)
	for rows.Next() {
		var goal store.Goal
		var prefs string
		var targetAmount, sessionDuration sql.NullFloat64
		if err := rows.Scan(
			&goal.ID,
			&goal.UID,
			&goal.CreatedTs,
			&goal.UpdatedTs,
			&goal.RowStatus,
			&goal.Description,
			&targetAmount,
			&goal.TargetUnit,
			&goal.Deadline,
			&goal.Frequency,
			&prefs,
			&goal.MaxSessionsPerDay,
			&sessionDuration,
			&goal.DistributionStrategy,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan goal")
		}

		goal.TimePreferences = store.SplitPreferences(prefs)
		if targetAmount.Valid {
			goal.TargetAmount = &targetAmount.Float64
		}
		if sessionDuration.Valid {
			goal.SessionDuration = &sessionDuration.Float64
		}
		list = append(list, &goal)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate goals")
	}
	return list, nil
}

func (d *DB) UpdateGoal(ctx context.Context, update *store.UpdateGoal) (*store.Goal, error) {
	set, args := []string{}, []any{}

	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.TargetAmount; v != nil {
		set, args = append(set, "target_amount = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.TargetUnit; v != nil {
		set, args = append(set, "target_unit = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Deadline; v != nil {
		set, args = append(set, "deadline = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Frequency; v != nil {
		set, args = append(set, "frequency = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.TimePreferences; v != nil {
		set, args = append(set, "time_preferences = "+placeholder(len(args)+1)), append(args, store.JoinPreferences(*v))
	}
	if v := update.MaxSessionsPerDay; v != nil {
		set, args = append(set, "max_sessions_per_day = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.SessionDuration; v != nil {
		set, args = append(set, "session_duration = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.DistributionStrategy; v != nil {
		set, args = append(set, "distribution_strategy = "+placeholder(len(args)+1)), append(args, *v)
	}

	updatedTs := time.Now().Unix()
	if update.UpdatedTs != nil {
		updatedTs = *update.UpdatedTs
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, updatedTs)
	args = append(args, update.ID)

	stmt := `UPDATE goal SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update goal")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, errors.Errorf("goal %d not found", update.ID)
	}

	list, err := d.ListGoals(ctx, &store.FindGoal{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Errorf("goal %d not found", update.ID)
	}
	return list[0], nil
}

func (d *DB) DeleteGoal(ctx context.Context, delete *store.DeleteGoal) error {
	stmt := `DELETE FROM goal WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete goal")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.Errorf("goal %d not found", delete.ID)
	}
	return nil
}
