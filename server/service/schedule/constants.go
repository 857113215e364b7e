package schedule

import "time"

// Package-level constants for schedule planning.

const (
	// DefaultRequestTimeout bounds one service call, busy fetches included.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultBusyCacheTTL is how long a fetched busy range is reused.
	DefaultBusyCacheTTL = 5 * time.Minute

	// DefaultBusyCacheSize is the number of cached busy ranges.
	DefaultBusyCacheSize = 256

	// MaxSourceWorkers caps concurrent busy-source reads.
	MaxSourceWorkers = 4

	// MaxPlanDays bounds the busy range fetched for far-away deadlines.
	MaxPlanDays = 366

	// DefaultSessionTitle names written sessions when neither the request nor
	// a goal supplies one.
	DefaultSessionTitle = "Focus session"

	// StoreSourceName identifies the local calendar store among busy sources.
	StoreSourceName = "store"
)

// Operation names used in logs and metrics.
const (
	OperationPlan            = "plan"
	OperationPlanGoal        = "plan_goal"
	OperationFindSlots       = "find_slots"
	OperationFindSlotsText   = "find_slots_text"
	OperationParseTime       = "parse_time"
	OperationBuildRecurrence = "build_recurrence"
	OperationApplyPlan       = "apply_plan"
	OperationBusy            = "busy"
	OperationGoal            = "goal"
)
