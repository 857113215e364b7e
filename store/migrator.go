package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// Migration overview:
//
// A fresh database gets migration/{driver}/LATEST.sql in one transaction.
// An initialized database is left untouched. Demo mode then seeds a sample
// goal when the goal table is empty.

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	modeDemo = "demo"
)

// DemoGoalUID is the UID of the goal seeded in demo mode.
const DemoGoalUID = "demo-read-book"

// Migrate applies the latest schema to an uninitialized database and seeds
// demo data in demo mode.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	if s.profile.Mode == modeDemo {
		if err := s.seed(ctx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	}
	return nil
}

// preMigrate checks if the database is initialized and applies the latest schema if not.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Errorf("failed to execute SQL file %s, err %s", filePath, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	slog.Info("database initialized successfully", slog.String("driver", s.profile.Driver))
	return nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

// seed creates the demo goal once.
func (s *Store) seed(ctx context.Context) error {
	uid := DemoGoalUID
	existing, err := s.GetGoal(ctx, &FindGoal{UID: &uid})
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hours := 10.0
	if _, err := s.CreateGoal(ctx, &Goal{
		UID:               DemoGoalUID,
		Description:       "Read a book",
		TargetAmount:      &hours,
		TargetUnit:        "hours",
		Frequency:         "3x per week",
		TimePreferences:   []string{"evening"},
		MaxSessionsPerDay: 1,
	}); err != nil {
		return errors.Wrap(err, "failed to create demo goal")
	}
	slog.Info("seeded demo goal", slog.String("uid", DemoGoalUID))
	return nil
}

// execute runs a schema script statement by statement, since lib/pq and
// modernc sqlite differ on multi-statement Exec.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	for i, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a script on semicolons outside single-quoted strings.
// Whole-line "--" comments are dropped.
func splitSQL(script string) []string {
	var statements []string
	var current strings.Builder
	inQuote := false

	for _, line := range strings.Split(script, "\n") {
		if trimmed := strings.TrimSpace(line); !inQuote && (trimmed == "" || strings.HasPrefix(trimmed, "--")) {
			continue
		}
		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch {
			case ch == '\'':
				inQuote = !inQuote
			case ch == ';' && !inQuote:
				if stmt := strings.TrimSpace(current.String()); stmt != "" {
					statements = append(statements, stmt)
				}
				current.Reset()
				continue
			}
			current.WriteByte(ch)
		}
		current.WriteByte('\n')
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
