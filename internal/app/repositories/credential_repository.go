package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

// CredentialRepository covers the account-recovery surface shared by every
// role: password rewrites and security question handling. Username matching
// is case-insensitive like every other username lookup.
type CredentialRepository struct {
	db *dbpkg.SQLiteDB
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db *dbpkg.SQLiteDB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// UpdatePassword replaces a user's password hash. Returns false when no
// account matches the username.
func (r *CredentialRepository) UpdatePassword(ctx context.Context, username, passwordHash string) (bool, error) {
	res, err := r.db.DB.ExecContext(ctx,
		"UPDATE Users SET Password = ? WHERE lower(Username) = lower(?)", passwordHash, username)
	if err != nil {
		return false, fmt.Errorf("error updating password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking password update: %w", err)
	}
	return affected > 0, nil
}

// SetSecurityQuestion stores the recovery question and answer for an account.
func (r *CredentialRepository) SetSecurityQuestion(ctx context.Context, username, question, answer string) (bool, error) {
	res, err := r.db.DB.ExecContext(ctx,
		"UPDATE Users SET SecurityQuestion = ?, SecurityAnswer = ? WHERE lower(Username) = lower(?)",
		question, answer, username)
	if err != nil {
		return false, fmt.Errorf("error setting security question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking security question update: %w", err)
	}
	return affected > 0, nil
}

// GetSecurityQuestion returns the account's recovery question. An unknown
// username or an account without a question maps to ErrNoSecurityQuestion.
func (r *CredentialRepository) GetSecurityQuestion(ctx context.Context, username string) (string, error) {
	var question sql.NullString
	err := r.db.DB.QueryRowContext(ctx,
		"SELECT SecurityQuestion FROM Users WHERE lower(Username) = lower(?)", username).Scan(&question)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apperrors.NewCustomError(apperrors.ErrNoSecurityQuestion,
				"no security question set for "+username)
		}
		return "", fmt.Errorf("error retrieving security question: %w", err)
	}
	if question.String == "" {
		return "", apperrors.NewCustomError(apperrors.ErrNoSecurityQuestion,
			"no security question set for "+username)
	}
	return question.String, nil
}

// VerifySecurityAnswer checks a recovery answer case-insensitively against
// the stored one.
func (r *CredentialRepository) VerifySecurityAnswer(ctx context.Context, username, answer string) (bool, error) {
	var stored sql.NullString
	err := r.db.DB.QueryRowContext(ctx,
		"SELECT SecurityAnswer FROM Users WHERE lower(Username) = lower(?)", username).Scan(&stored)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error retrieving security answer: %w", err)
	}
	if stored.String == "" {
		return false, nil
	}
	return strings.EqualFold(strings.TrimSpace(stored.String), strings.TrimSpace(answer)), nil
}
