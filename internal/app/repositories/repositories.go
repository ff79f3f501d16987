package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aydin/tutorhub/internal/app/models"
	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repository statements can
// run standalone or inside a caller-owned transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories combines every repository over one shared database handle.
type Repositories struct {
	DB *dbpkg.SQLiteDB

	Students     *StudentRepository
	Supervisors  *SupervisorRepository
	SeniorTutors *SeniorTutorRepository
	Messages     *MessageRepository
	Alerts       *AlertRepository
	Credentials  *CredentialRepository
}

// NewRepositories creates the repository container.
func NewRepositories(db *dbpkg.SQLiteDB) *Repositories {
	validate := validator.New()
	return &Repositories{
		DB:           db,
		Students:     NewStudentRepository(db, validate),
		Supervisors:  NewSupervisorRepository(db, validate),
		SeniorTutors: NewSeniorTutorRepository(db, validate),
		Messages:     NewMessageRepository(db, validate),
		Alerts:       NewAlertRepository(db, validate),
		Credentials:  NewCredentialRepository(db),
	}
}

// encodeTime stores timestamps as round-trippable ISO-8601 text. The zero
// time maps to NULL.
func encodeTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// decodeTime restores a timestamp written by encodeTime. NULL and empty
// values map back to the zero time.
func decodeTime(value sql.NullString) (time.Time, error) {
	if !value.Valid || value.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", value.String, err)
	}
	return t, nil
}

// validateAggregate runs struct validation and maps failures onto the
// validation error category.
func validateAggregate(validate *validator.Validate, aggregate any) error {
	if err := validate.Struct(aggregate); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// loadMeetings reconstructs one party's meeting view from the shared
// Meetings table, filtered by the given owner column, ordered by time.
func loadMeetings(ctx context.Context, q DBTX, ownerColumn string, ownerID int64) ([]models.Meeting, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT Id, StudentId, PersonalSupervisorId, ScheduledTime
		FROM Meetings WHERE %s = ? ORDER BY ScheduledTime`, ownerColumn), ownerID)
	if err != nil {
		return nil, fmt.Errorf("error loading meetings: %w", err)
	}
	defer rows.Close()

	var meetings []models.Meeting
	for rows.Next() {
		var m models.Meeting
		var scheduled sql.NullString
		if err := rows.Scan(&m.ID, &m.StudentID, &m.SupervisorID, &scheduled); err != nil {
			return nil, fmt.Errorf("error scanning meeting row: %w", err)
		}
		if m.ScheduledTime, err = decodeTime(scheduled); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meeting rows: %w", err)
	}
	return meetings, nil
}
