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

const seniorTutorColumns = `Id, Username, Name, Password, SeniorTutorCode, SecurityQuestion, SecurityAnswer`

// SeniorTutorRepository owns persistence for senior tutors. The role carries
// no child collections, so a save is just the Users row.
type SeniorTutorRepository struct {
	db       *dbpkg.SQLiteDB
	validate *validator.Validate
}

// NewSeniorTutorRepository creates a new SeniorTutorRepository.
func NewSeniorTutorRepository(db *dbpkg.SQLiteDB, validate *validator.Validate) *SeniorTutorRepository {
	return &SeniorTutorRepository{db: db, validate: validate}
}

func scanSeniorTutor(r rowScanner) (*models.SeniorTutor, error) {
	var t models.SeniorTutor
	var code, question, answer sql.NullString

	err := r.Scan(&t.ID, &t.Username, &t.Name, &t.Password, &code, &question, &answer)
	if err != nil {
		return nil, err
	}
	t.SeniorTutorCode = code.String
	t.SecurityQuestion = question.String
	t.SecurityAnswer = answer.String
	return &t, nil
}

func (r *SeniorTutorRepository) getOne(ctx context.Context, where string, arg any) (*models.SeniorTutor, error) {
	query := fmt.Sprintf("SELECT %s FROM Users WHERE %s AND Role = ?", seniorTutorColumns, where)
	t, err := scanSeniorTutor(r.db.DB.QueryRowContext(ctx, query, arg, models.RoleSeniorTutor))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving senior tutor: %w", err)
	}
	return t, nil
}

// GetByID retrieves a senior tutor by id. Absence is a nil result.
func (r *SeniorTutorRepository) GetByID(ctx context.Context, id int64) (*models.SeniorTutor, error) {
	return r.getOne(ctx, "Id = ?", id)
}

// GetByUsername retrieves a senior tutor by username, case-insensitively.
func (r *SeniorTutorRepository) GetByUsername(ctx context.Context, username string) (*models.SeniorTutor, error) {
	return r.getOne(ctx, "lower(Username) = lower(?)", username)
}

// GetByCode retrieves a senior tutor by external code, case-sensitive.
func (r *SeniorTutorRepository) GetByCode(ctx context.Context, code string) (*models.SeniorTutor, error) {
	return r.getOne(ctx, "SeniorTutorCode = ?", code)
}

// CodeExists checks whether a senior tutor code is already allocated.
func (r *SeniorTutorRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM Users WHERE SeniorTutorCode = ?)", code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking senior tutor code: %w", err)
	}
	return exists, nil
}

// Save inserts or updates the senior tutor row.
func (r *SeniorTutorRepository) Save(ctx context.Context, t *models.SeniorTutor) error {
	if t == nil {
		return apperrors.NewCustomError(apperrors.ErrNilAggregate, "senior tutor is nil")
	}
	if err := validateAggregate(r.validate, t); err != nil {
		return err
	}
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return r.SaveTx(ctx, tx, t)
	})
}

// SaveTx is Save inside a caller-owned transaction.
func (r *SeniorTutorRepository) SaveTx(ctx context.Context, tx DBTX, t *models.SeniorTutor) error {
	if t.ID == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Users (Username, Name, Password, Role, SeniorTutorCode, SecurityQuestion, SecurityAnswer)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.Username, t.Name, t.Password, models.RoleSeniorTutor,
			nullableString(t.SeniorTutorCode), t.SecurityQuestion, t.SecurityAnswer)
		if err != nil {
			if dberrors.IsUniqueConstraintError(err, "Users.Username") {
				return apperrors.NewCustomError(apperrors.ErrUsernameTaken, "username already in use: "+t.Username)
			}
			return fmt.Errorf("error creating senior tutor: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("error reading new senior tutor id: %w", err)
		}
		t.ID = id
		return nil
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE Users SET Username = ?, Name = ?, Password = ?, SeniorTutorCode = ?,
			SecurityQuestion = ?, SecurityAnswer = ?
		WHERE Id = ?`,
		t.Username, t.Name, t.Password, nullableString(t.SeniorTutorCode),
		t.SecurityQuestion, t.SecurityAnswer, t.ID)
	if err != nil {
		if dberrors.IsUniqueConstraintError(err, "Users.Username") {
			return apperrors.NewCustomError(apperrors.ErrUsernameTaken, "username already in use: "+t.Username)
		}
		return fmt.Errorf("error updating senior tutor: %w", err)
	}
	return nil
}

// All returns every senior tutor, ordered by id.
func (r *SeniorTutorRepository) All(ctx context.Context) ([]*models.SeniorTutor, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM Users WHERE Role = ? ORDER BY Id", seniorTutorColumns),
		models.RoleSeniorTutor)
	if err != nil {
		return nil, fmt.Errorf("error listing senior tutors: %w", err)
	}
	defer rows.Close()

	var tutors []*models.SeniorTutor
	for rows.Next() {
		t, err := scanSeniorTutor(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning senior tutor row: %w", err)
		}
		tutors = append(tutors, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating senior tutor rows: %w", err)
	}
	return tutors, nil
}
