package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/aydin/tutorhub/internal/app/models"
	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
	"github.com/aydin/tutorhub/internal/pkg/dberrors"
)

const supervisorColumns = `Id, Username, Name, Password, SupervisorCode, SecurityQuestion, SecurityAnswer`

// SupervisorRepository owns persistence for personal supervisor aggregates.
// A supervisor's meeting list is the mirror view of the same Meetings rows
// the student aggregates own, filtered by supervisor id.
type SupervisorRepository struct {
	db       *dbpkg.SQLiteDB
	validate *validator.Validate
}

// NewSupervisorRepository creates a new SupervisorRepository.
func NewSupervisorRepository(db *dbpkg.SQLiteDB, validate *validator.Validate) *SupervisorRepository {
	return &SupervisorRepository{db: db, validate: validate}
}

func scanSupervisor(r rowScanner) (*models.PersonalSupervisor, error) {
	var p models.PersonalSupervisor
	var code, question, answer sql.NullString

	err := r.Scan(&p.ID, &p.Username, &p.Name, &p.Password, &code, &question, &answer)
	if err != nil {
		return nil, err
	}
	p.SupervisorCode = code.String
	p.SecurityQuestion = question.String
	p.SecurityAnswer = answer.String
	return &p, nil
}

func (r *SupervisorRepository) getOne(ctx context.Context, where string, arg any) (*models.PersonalSupervisor, error) {
	query := fmt.Sprintf("SELECT %s FROM Users WHERE %s AND Role = ?", supervisorColumns, where)
	p, err := scanSupervisor(r.db.DB.QueryRowContext(ctx, query, arg, models.RolePersonalSupervisor))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving supervisor: %w", err)
	}
	if p.Meetings, err = loadMeetings(ctx, r.db.DB, "PersonalSupervisorId", p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a supervisor aggregate by id. Absence is a nil result.
func (r *SupervisorRepository) GetByID(ctx context.Context, id int64) (*models.PersonalSupervisor, error) {
	return r.getOne(ctx, "Id = ?", id)
}

// GetByUsername retrieves a supervisor by username, case-insensitively.
func (r *SupervisorRepository) GetByUsername(ctx context.Context, username string) (*models.PersonalSupervisor, error) {
	return r.getOne(ctx, "lower(Username) = lower(?)", username)
}

// GetByCode retrieves a supervisor by external code, case-sensitive.
func (r *SupervisorRepository) GetByCode(ctx context.Context, code string) (*models.PersonalSupervisor, error) {
	return r.getOne(ctx, "SupervisorCode = ?", code)
}

// CodeExists checks whether a supervisor code is already allocated.
func (r *SupervisorRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM Users WHERE SupervisorCode = ?)", code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking supervisor code: %w", err)
	}
	return exists, nil
}

// Save persists the supervisor aggregate atomically, replacing its owned
// meeting rows wholesale.
func (r *SupervisorRepository) Save(ctx context.Context, p *models.PersonalSupervisor) error {
	if p == nil {
		return apperrors.NewCustomError(apperrors.ErrNilAggregate, "supervisor is nil")
	}
	if err := validateAggregate(r.validate, p); err != nil {
		return err
	}
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return r.SaveTx(ctx, tx, p)
	})
}

// SaveTx is Save inside a caller-owned transaction.
func (r *SupervisorRepository) SaveTx(ctx context.Context, tx DBTX, p *models.PersonalSupervisor) error {
	if p.ID == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Users (Username, Name, Password, Role, SupervisorCode, SecurityQuestion, SecurityAnswer)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Username, p.Name, p.Password, models.RolePersonalSupervisor,
			nullableString(p.SupervisorCode), p.SecurityQuestion, p.SecurityAnswer)
		if err != nil {
			if dberrors.IsUniqueConstraintError(err, "Users.Username") {
				return apperrors.NewCustomError(apperrors.ErrUsernameTaken, "username already in use: "+p.Username)
			}
			return fmt.Errorf("error creating supervisor: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("error reading new supervisor id: %w", err)
		}
		p.ID = id
	} else {
		_, err := tx.ExecContext(ctx, `
			UPDATE Users SET Username = ?, Name = ?, Password = ?, SupervisorCode = ?,
				SecurityQuestion = ?, SecurityAnswer = ?
			WHERE Id = ?`,
			p.Username, p.Name, p.Password, nullableString(p.SupervisorCode),
			p.SecurityQuestion, p.SecurityAnswer, p.ID)
		if err != nil {
			if dberrors.IsUniqueConstraintError(err, "Users.Username") {
				return apperrors.NewCustomError(apperrors.ErrUsernameTaken, "username already in use: "+p.Username)
			}
			return fmt.Errorf("error updating supervisor: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM Meetings WHERE PersonalSupervisorId = ?", p.ID); err != nil {
		return fmt.Errorf("error clearing meetings: %w", err)
	}
	for i := range p.Meetings {
		m := &p.Meetings[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Meetings (StudentId, PersonalSupervisorId, ScheduledTime)
			VALUES (?, ?, ?)`,
			m.StudentID, p.ID, encodeTime(m.ScheduledTime))
		if err != nil {
			return fmt.Errorf("error inserting meeting: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("error reading new meeting id: %w", err)
		}
		m.SupervisorID = p.ID
	}

	return nil
}

// All returns every personal supervisor, ordered by id.
func (r *SupervisorRepository) All(ctx context.Context) ([]*models.PersonalSupervisor, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM Users WHERE Role = ? ORDER BY Id", supervisorColumns),
		models.RolePersonalSupervisor)
	if err != nil {
		return nil, fmt.Errorf("error listing supervisors: %w", err)
	}
	defer rows.Close()

	var supervisors []*models.PersonalSupervisor
	for rows.Next() {
		p, err := scanSupervisor(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning supervisor row: %w", err)
		}
		supervisors = append(supervisors, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supervisor rows: %w", err)
	}

	for _, p := range supervisors {
		if p.Meetings, err = loadMeetings(ctx, r.db.DB, "PersonalSupervisorId", p.ID); err != nil {
			return nil, err
		}
	}
	return supervisors, nil
}
