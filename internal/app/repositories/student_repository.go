package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"

	"github.com/aydin/tutorhub/internal/app/models"
	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
	"github.com/aydin/tutorhub/internal/pkg/dberrors"
)

const studentColumns = `Id, Username, Name, Password, PersonalSupervisorId, StudentCode, YearGroup,
	SecurityQuestion, SecurityAnswer, LastWellbeingReportDate, HasMissedWellbeingReport, MissedReportCount`

// StudentRepository owns persistence for student aggregates: the Users row
// plus the Meetings and Reports collections replaced wholesale on every save.
type StudentRepository struct {
	db       *dbpkg.SQLiteDB
	validate *validator.Validate
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db *dbpkg.SQLiteDB, validate *validator.Validate) *StudentRepository {
	return &StudentRepository{db: db, validate: validate}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(r rowScanner) (*models.Student, error) {
	var s models.Student
	var supervisorID, yearGroup, missedFlag, missedCount sql.NullInt64
	var code, question, answer, lastReport sql.NullString

	err := r.Scan(&s.ID, &s.Username, &s.Name, &s.Password, &supervisorID, &code, &yearGroup,
		&question, &answer, &lastReport, &missedFlag, &missedCount)
	if err != nil {
		return nil, err
	}

	s.SupervisorID = supervisorID.Int64
	s.StudentCode = code.String
	s.YearGroup = int(yearGroup.Int64)
	if s.YearGroup == 0 {
		s.YearGroup = 1
	}
	s.SecurityQuestion = question.String
	s.SecurityAnswer = answer.String
	s.HasMissedReport = missedFlag.Int64 != 0
	s.MissedReportCount = int(missedCount.Int64)

	s.LastReportDate, err = decodeTime(lastReport)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// loadChildren populates the owned collections from storage, oldest first,
// and marks the most recent report as current.
func (r *StudentRepository) loadChildren(ctx context.Context, q DBTX, s *models.Student) error {
	meetings, err := loadMeetings(ctx, q, "StudentId", s.ID)
	if err != nil {
		return err
	}
	s.Meetings = meetings

	rows, err := q.QueryContext(ctx, `
		SELECT Id, StudentId, Score, Notes, Date, IsHighPriority
		FROM Reports WHERE StudentId = ? ORDER BY Date`, s.ID)
	if err != nil {
		return fmt.Errorf("error loading reports: %w", err)
	}
	defer rows.Close()

	var reports []models.WellbeingReport
	for rows.Next() {
		var report models.WellbeingReport
		var notes, date sql.NullString
		var high int
		if err := rows.Scan(&report.ID, &report.StudentID, &report.Score, &notes, &date, &high); err != nil {
			return fmt.Errorf("error scanning report row: %w", err)
		}
		report.Notes = notes.String
		report.IsHighPriority = high != 0
		if report.Date, err = decodeTime(date); err != nil {
			return err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating report rows: %w", err)
	}

	if len(reports) > 0 {
		reports[len(reports)-1].IsCurrent = true
	}
	s.Reports = reports
	return nil
}

func (r *StudentRepository) getOne(ctx context.Context, where string, arg any) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM Users WHERE %s AND Role = ?", studentColumns, where)
	s, err := scanStudent(r.db.DB.QueryRowContext(ctx, query, arg, models.RoleStudent))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	if err := r.loadChildren(ctx, r.db.DB, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a student aggregate by id. Absence is a nil result.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.getOne(ctx, "Id = ?", id)
}

// GetByUsername retrieves a student by username, case-insensitively.
func (r *StudentRepository) GetByUsername(ctx context.Context, username string) (*models.Student, error) {
	return r.getOne(ctx, "lower(Username) = lower(?)", username)
}

// GetByCode retrieves a student by external code, case-sensitive exact match.
func (r *StudentRepository) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	return r.getOne(ctx, "StudentCode = ?", code)
}

// CodeExists checks whether a student code is already allocated.
func (r *StudentRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM Users WHERE StudentCode = ?)", code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking student code: %w", err)
	}
	return exists, nil
}

// Save persists the whole aggregate atomically: the Users row is inserted or
// updated, then every owned Meetings/Reports row is deleted and reinserted
// from the in-memory collections. Saving an unchanged aggregate twice yields
// identical persisted state.
func (r *StudentRepository) Save(ctx context.Context, s *models.Student) error {
	if s == nil {
		return apperrors.NewCustomError(apperrors.ErrNilAggregate, "student is nil")
	}
	if err := validateAggregate(r.validate, s); err != nil {
		return err
	}
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return r.SaveTx(ctx, tx, s)
	})
}

// SaveTx is Save inside a caller-owned transaction, so cross-aggregate
// operations (meeting booking, report submission with alert) commit as one.
func (r *StudentRepository) SaveTx(ctx context.Context, tx DBTX, s *models.Student) error {
	if s.ID == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Users (Username, Name, Password, Role, PersonalSupervisorId, StudentCode,
				YearGroup, SecurityQuestion, SecurityAnswer, LastWellbeingReportDate,
				HasMissedWellbeingReport, MissedReportCount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Username, s.Name, s.Password, models.RoleStudent,
			nullableID(s.SupervisorID), nullableString(s.StudentCode), s.YearGroup,
			s.SecurityQuestion, s.SecurityAnswer, encodeTime(s.LastReportDate),
			boolToInt(s.HasMissedReport), s.MissedReportCount)
		if err != nil {
			if dberrors.IsUniqueConstraintError(err, "Users.Username") {
				return apperrors.NewCustomError(apperrors.ErrUsernameTaken, "username already in use: "+s.Username)
			}
			return fmt.Errorf("error creating student: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("error reading new student id: %w", err)
		}
		s.ID = id
	} else {
		_, err := tx.ExecContext(ctx, `
			UPDATE Users SET Username = ?, Name = ?, Password = ?, PersonalSupervisorId = ?,
				StudentCode = ?, YearGroup = ?, SecurityQuestion = ?, SecurityAnswer = ?,
				LastWellbeingReportDate = ?, HasMissedWellbeingReport = ?, MissedReportCount = ?
			WHERE Id = ?`,
			s.Username, s.Name, s.Password, nullableID(s.SupervisorID),
			nullableString(s.StudentCode), s.YearGroup, s.SecurityQuestion, s.SecurityAnswer,
			encodeTime(s.LastReportDate), boolToInt(s.HasMissedReport), s.MissedReportCount, s.ID)
		if err != nil {
			if dberrors.IsUniqueConstraintError(err, "Users.Username") {
				return apperrors.NewCustomError(apperrors.ErrUsernameTaken, "username already in use: "+s.Username)
			}
			return fmt.Errorf("error updating student: %w", err)
		}
	}

	// Full child replacement: delete everything owned, reinsert from memory.
	if _, err := tx.ExecContext(ctx, "DELETE FROM Meetings WHERE StudentId = ?", s.ID); err != nil {
		return fmt.Errorf("error clearing meetings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM Reports WHERE StudentId = ?", s.ID); err != nil {
		return fmt.Errorf("error clearing reports: %w", err)
	}

	for i := range s.Meetings {
		m := &s.Meetings[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Meetings (StudentId, PersonalSupervisorId, ScheduledTime)
			VALUES (?, ?, ?)`,
			s.ID, m.SupervisorID, encodeTime(m.ScheduledTime))
		if err != nil {
			return fmt.Errorf("error inserting meeting: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("error reading new meeting id: %w", err)
		}
		m.StudentID = s.ID
	}

	for i := range s.Reports {
		report := &s.Reports[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Reports (StudentId, Score, Notes, Date, IsHighPriority)
			VALUES (?, ?, ?, ?, ?)`,
			s.ID, report.Score, report.Notes, encodeTime(report.Date), boolToInt(report.IsHighPriority))
		if err != nil {
			return fmt.Errorf("error inserting report: %w", err)
		}
		if report.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("error reading new report id: %w", err)
		}
		report.StudentID = s.ID
	}

	return nil
}

func (r *StudentRepository) list(ctx context.Context, query string, args ...any) ([]*models.Student, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	for _, s := range students {
		if err := r.loadChildren(ctx, r.db.DB, s); err != nil {
			return nil, err
		}
	}
	return students, nil
}

// All returns every student aggregate, ordered by id.
func (r *StudentRepository) All(ctx context.Context) ([]*models.Student, error) {
	return r.list(ctx,
		fmt.Sprintf("SELECT %s FROM Users WHERE Role = ? ORDER BY Id", studentColumns),
		models.RoleStudent)
}

// BySupervisor returns the students assigned to one personal supervisor.
func (r *StudentRepository) BySupervisor(ctx context.Context, supervisorID int64) ([]*models.Student, error) {
	return r.list(ctx,
		fmt.Sprintf("SELECT %s FROM Users WHERE Role = ? AND PersonalSupervisorId = ? ORDER BY Id", studentColumns),
		models.RoleStudent, supervisorID)
}

// WithLowWellbeing returns students with at least one report scoring below
// the high-priority threshold.
func (r *StudentRepository) WithLowWellbeing(ctx context.Context) ([]*models.Student, error) {
	query, args, err := squirrel.
		Select("DISTINCT u.Id", "u.Username", "u.Name", "u.Password", "u.PersonalSupervisorId",
			"u.StudentCode", "u.YearGroup", "u.SecurityQuestion", "u.SecurityAnswer",
			"u.LastWellbeingReportDate", "u.HasMissedWellbeingReport", "u.MissedReportCount").
		From("Users u").
		Join("Reports r ON u.Id = r.StudentId").
		Where("u.Role = ?", models.RoleStudent).
		Where("r.Score < ?", models.HighPriorityScoreThreshold).
		OrderBy("u.Id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.list(ctx, query, args...)
}

// WithMissedReports returns students whose missed-report flag is set.
func (r *StudentRepository) WithMissedReports(ctx context.Context) ([]*models.Student, error) {
	return r.list(ctx,
		fmt.Sprintf("SELECT %s FROM Users WHERE Role = ? AND HasMissedWellbeingReport = 1 ORDER BY Id", studentColumns),
		models.RoleStudent)
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
