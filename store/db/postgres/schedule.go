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

func (d *DB) CreateSchedule(ctx context.Context, create *store.Schedule) (*store.Schedule, error) {
	rule := ""
	if create.RecurrenceRule != nil {
		rule = *create.RecurrenceRule
	}
	fields := []string{
		"uid", "title", "description",
		"start_ts", "end_ts", "all_day", "timezone",
		"recurrence_rule", "recurrence_end_ts", "goal_uid",
	}
	args := []any{
		create.UID, create.Title, create.Description,
		create.StartTs, create.EndTs, create.AllDay, create.Timezone,
		rule, create.RecurrenceEndTs, create.GoalUID,
	}
	if create.RowStatus != "" {
		fields = append(fields, "row_status")
		args = append(args, create.RowStatus)
	}
	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		args = append(args, create.UpdatedTs)
	}

	stmt := `INSERT INTO schedule (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts, row_status`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create schedule")
	}
	return create, nil
}

func (d *DB) ListSchedules(ctx context.Context, find *store.FindSchedule) ([]*store.Schedule, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "schedule.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "schedule.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.GoalUID; v != nil {
		where, args = append(where, "schedule.goal_uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "schedule.row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StartTs; v != nil {
		// A row is still busy when its own end is later, or when it recurs
		// past the range start. Rows without an end are kept for the caller.
		cond := fmt.Sprintf("(schedule.end_ts > %s OR schedule.end_ts IS NULL OR (schedule.recurrence_rule <> '' AND (schedule.recurrence_end_ts IS NULL OR schedule.recurrence_end_ts > %s)))",
			placeholder(len(args)+1), placeholder(len(args)+2))
		where, args = append(where, cond), append(args, *v, *v)
	}
	if v := find.EndTs; v != nil {
		where, args = append(where, "schedule.start_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, created_ts, updated_ts, row_status,
			title, description,
			start_ts, end_ts, all_day, timezone,
			recurrence_rule, recurrence_end_ts, goal_uid
		FROM schedule
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY schedule.start_ts ASC, schedule.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query schedules")
	}
	defer rows.Close()

	list := make([]*store.Schedule, 0)
	for rows.Next() {
		var schedule store.Schedule
		var recurrenceRule string
		var endTs, recurrenceEndTs sql.NullInt64
		if err := rows.Scan(
			&schedule.ID,
			&schedule.UID,
			&schedule.CreatedTs,
			&schedule.UpdatedTs,
			&schedule.RowStatus,
			&schedule.Title,
			&schedule.Description,
			&schedule.StartTs,
			&endTs,
			&schedule.AllDay,
			&schedule.Timezone,
			&recurrenceRule,
			&recurrenceEndTs,
			&schedule.GoalUID,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan schedule")
		}

		if endTs.Valid {
			schedule.EndTs = &endTs.Int64
		}
		if recurrenceRule != "" {
			schedule.RecurrenceRule = &recurrenceRule
		}
		if recurrenceEndTs.Valid {
			schedule.RecurrenceEndTs = &recurrenceEndTs.Int64
		}
		list = append(list, &schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate schedules")
	}
	return list, nil
}

func (d *DB) UpdateSchedule(ctx context.Context, update *store.UpdateSchedule) error {
	set, args := []string{}, []any{}

	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.StartTs; v != nil {
		set, args = append(set, "start_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.EndTs; v != nil {
		set, args = append(set, "end_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.AllDay; v != nil {
		set, args = append(set, "all_day = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Timezone; v != nil {
		set, args = append(set, "timezone = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RecurrenceRule; v != nil {
		set, args = append(set, "recurrence_rule = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RecurrenceEndTs; v != nil {
		set, args = append(set, "recurrence_end_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	updatedTs := time.Now().Unix()
	if update.UpdatedTs != nil {
		updatedTs = *update.UpdatedTs
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, updatedTs)
	args = append(args, update.ID)

	stmt := `UPDATE schedule SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update schedule")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.Errorf("schedule %d not found", update.ID)
	}
	return nil
}

func (d *DB) DeleteSchedule(ctx context.Context, delete *store.DeleteSchedule) error {
	stmt := `DELETE FROM schedule WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete schedule")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.Errorf("schedule %d not found", delete.ID)
	}
	return nil
}
