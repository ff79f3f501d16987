package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"

	"github.com/aydin/tutorhub/internal/app/models"
	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
	"github.com/aydin/tutorhub/internal/pkg/dberrors"
)

// AlertRepository owns the wellbeing alert log. Alerts are appended by the
// wellbeing tracker and resolved, never deleted.
type AlertRepository struct {
	db       *dbpkg.SQLiteDB
	validate *validator.Validate
	builder  sq.StatementBuilderType
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *dbpkg.SQLiteDB, validate *validator.Validate) *AlertRepository {
	return &AlertRepository{
		db:       db,
		validate: validate,
		builder:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

func scanAlert(r rowScanner) (*models.WellbeingAlert, error) {
	var a models.WellbeingAlert
	var alertDate, resolvedDate sql.NullString
	var resolved int

	err := r.Scan(&a.ID, &a.StudentID, &a.StudentName, &alertDate, &a.Reason, &resolved, &resolvedDate)
	if err != nil {
		return nil, err
	}
	if a.AlertDate, err = decodeTime(alertDate); err != nil {
		return nil, err
	}
	a.IsResolved = resolved != 0
	if resolvedDate.Valid && resolvedDate.String != "" {
		t, err := decodeTime(resolvedDate)
		if err != nil {
			return nil, err
		}
		a.ResolvedDate = &t
	}
	return &a, nil
}

// Add appends an alert and fills in its new id.
func (r *AlertRepository) Add(ctx context.Context, a *models.WellbeingAlert) error {
	if a == nil {
		return apperrors.NewCustomError(apperrors.ErrNilAggregate, "alert is nil")
	}
	if err := validateAggregate(r.validate, a); err != nil {
		return err
	}
	return r.AddTx(ctx, r.db.DB, a)
}

// AddTx is Add inside a caller-owned transaction, so report submission can
// raise its alert in the same commit as the aggregate save.
func (r *AlertRepository) AddTx(ctx context.Context, tx DBTX, a *models.WellbeingAlert) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO WellbeingAlerts (StudentId, StudentName, AlertDate, Reason, IsResolved, ResolvedDate)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.StudentID, a.StudentName, encodeTime(a.AlertDate), a.Reason,
		boolToInt(a.IsResolved), encodeTimePtr(a.ResolvedDate))
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.NewCustomError(apperrors.ErrStudentReference,
				fmt.Sprintf("alert references missing student %d", a.StudentID))
		}
		return fmt.Errorf("error inserting alert: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("error reading new alert id: %w", err)
	}
	return nil
}

// GetByID retrieves one alert. Absence is a nil result.
func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*models.WellbeingAlert, error) {
	a, err := scanAlert(r.db.DB.QueryRowContext(ctx, `
		SELECT Id, StudentId, StudentName, AlertDate, Reason, IsResolved, ResolvedDate
		FROM WellbeingAlerts WHERE Id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving alert: %w", err)
	}
	return a, nil
}

// Active lists unresolved alerts, newest first.
func (r *AlertRepository) Active(ctx context.Context) ([]*models.WellbeingAlert, error) {
	query, args, err := r.builder.
		Select("Id", "StudentId", "StudentName", "AlertDate", "Reason", "IsResolved", "ResolvedDate").
		From("WellbeingAlerts").
		Where(sq.Eq{"IsResolved": 0}).
		OrderBy("AlertDate DESC", "Id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building active alerts query: %w", err)
	}
	return r.queryMany(ctx, query, args...)
}

// ByStudent lists every alert ever raised for one student, newest first.
func (r *AlertRepository) ByStudent(ctx context.Context, studentID int64) ([]*models.WellbeingAlert, error) {
	query, args, err := r.builder.
		Select("Id", "StudentId", "StudentName", "AlertDate", "Reason", "IsResolved", "ResolvedDate").
		From("WellbeingAlerts").
		Where(sq.Eq{"StudentId": studentID}).
		OrderBy("AlertDate DESC", "Id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building student alerts query: %w", err)
	}
	return r.queryMany(ctx, query, args...)
}

// CountForStudentByReason counts a student's alerts with the given reason.
// The sweep uses this to avoid raising duplicate missed-report alerts.
func (r *AlertRepository) CountForStudentByReason(ctx context.Context, studentID int64, reason models.AlertReason) (int, error) {
	var count int
	err := r.db.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM WellbeingAlerts WHERE StudentId = ? AND Reason = ?",
		studentID, reason).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting alerts: %w", err)
	}
	return count, nil
}

// Resolve marks an alert resolved and stamps the resolution time. A missing
// id maps to a reference error. Resolving twice only moves the timestamp.
func (r *AlertRepository) Resolve(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.DB.ExecContext(ctx,
		"UPDATE WellbeingAlerts SET IsResolved = 1, ResolvedDate = ? WHERE Id = ?",
		encodeTime(at), id)
	if err != nil {
		return fmt.Errorf("error resolving alert: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking alert resolve: %w", err)
	}
	if affected == 0 {
		return apperrors.NewCustomError(apperrors.ErrAlertReference, fmt.Sprintf("alert %d not found", id))
	}
	return nil
}

func (r *AlertRepository) queryMany(ctx context.Context, query string, args ...any) ([]*models.WellbeingAlert, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.WellbeingAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}
	return alerts, nil
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}
