package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Schedule model related methods.
	CreateSchedule(ctx context.Context, create *Schedule) (*Schedule, error)
	ListSchedules(ctx context.Context, find *FindSchedule) ([]*Schedule, error)
	UpdateSchedule(ctx context.Context, update *UpdateSchedule) error
	DeleteSchedule(ctx context.Context, delete *DeleteSchedule) error

	// Goal model related methods.
	CreateGoal(ctx context.Context, create *Goal) (*Goal, error)
	ListGoals(ctx context.Context, find *FindGoal) ([]*Goal, error)
	UpdateGoal(ctx context.Context, update *UpdateGoal) (*Goal, error)
	DeleteGoal(ctx context.Context, delete *DeleteGoal) error
}
