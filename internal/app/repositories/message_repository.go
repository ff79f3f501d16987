package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"

	"github.com/aydin/tutorhub/internal/app/models"
	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
	"github.com/aydin/tutorhub/internal/pkg/dberrors"
)

// MessageRepository owns the conversation log between students and their
// personal supervisors. Messages are append-only apart from sender-side
// edits and deletes, which the service layer authorizes.
type MessageRepository struct {
	db       *dbpkg.SQLiteDB
	validate *validator.Validate
	builder  sq.StatementBuilderType
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *dbpkg.SQLiteDB, validate *validator.Validate) *MessageRepository {
	return &MessageRepository{
		db:       db,
		validate: validate,
		builder:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

func scanMessage(r rowScanner) (*models.Message, error) {
	var m models.Message
	var ts sql.NullString
	var isRead int

	err := r.Scan(&m.ID, &m.StudentID, &m.SupervisorID, &m.SenderRole, &m.Content, &ts, &isRead)
	if err != nil {
		return nil, err
	}
	if m.Timestamp, err = decodeTime(ts); err != nil {
		return nil, err
	}
	m.IsRead = isRead != 0
	return &m, nil
}

func (r *MessageRepository) queryMany(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return messages, nil
}

// Send appends a message to the conversation log and fills in its new id.
func (r *MessageRepository) Send(ctx context.Context, m *models.Message) error {
	if m == nil {
		return apperrors.NewCustomError(apperrors.ErrNilAggregate, "message is nil")
	}
	if err := validateAggregate(r.validate, m); err != nil {
		return err
	}

	res, err := r.db.DB.ExecContext(ctx, `
		INSERT INTO Messages (StudentId, PersonalSupervisorId, SenderRole, Content, Timestamp, IsRead)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.StudentID, m.SupervisorID, m.SenderRole, m.Content,
		encodeTime(m.Timestamp), boolToInt(m.IsRead))
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.NewReferenceError("message references a missing student or supervisor")
		}
		return fmt.Errorf("error sending message: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("error reading new message id: %w", err)
	}
	return nil
}

// GetByID retrieves a single message. Absence is a nil result.
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	m, err := scanMessage(r.db.DB.QueryRowContext(ctx, `
		SELECT Id, StudentId, PersonalSupervisorId, SenderRole, Content, Timestamp, IsRead
		FROM Messages WHERE Id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving message: %w", err)
	}
	return m, nil
}

// Conversation returns every message between a student and a supervisor in
// chronological order.
func (r *MessageRepository) Conversation(ctx context.Context, studentID, supervisorID int64) ([]*models.Message, error) {
	query, args, err := r.builder.
		Select("Id", "StudentId", "PersonalSupervisorId", "SenderRole", "Content", "Timestamp", "IsRead").
		From("Messages").
		Where(sq.Eq{"StudentId": studentID, "PersonalSupervisorId": supervisorID}).
		OrderBy("Timestamp", "Id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building conversation query: %w", err)
	}
	return r.queryMany(ctx, query, args...)
}

// ByStudent returns every message in any of the student's conversations.
func (r *MessageRepository) ByStudent(ctx context.Context, studentID int64) ([]*models.Message, error) {
	query, args, err := r.builder.
		Select("Id", "StudentId", "PersonalSupervisorId", "SenderRole", "Content", "Timestamp", "IsRead").
		From("Messages").
		Where(sq.Eq{"StudentId": studentID}).
		OrderBy("Timestamp", "Id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building student messages query: %w", err)
	}
	return r.queryMany(ctx, query, args...)
}

// BySupervisor returns every message in any of the supervisor's conversations.
func (r *MessageRepository) BySupervisor(ctx context.Context, supervisorID int64) ([]*models.Message, error) {
	query, args, err := r.builder.
		Select("Id", "StudentId", "PersonalSupervisorId", "SenderRole", "Content", "Timestamp", "IsRead").
		From("Messages").
		Where(sq.Eq{"PersonalSupervisorId": supervisorID}).
		OrderBy("Timestamp", "Id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building supervisor messages query: %w", err)
	}
	return r.queryMany(ctx, query, args...)
}

// UpdateContent rewrites a message's text in place. A missing id maps to a
// reference error.
func (r *MessageRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.NewCustomError(apperrors.ErrEmptyContent, "message content is empty")
	}
	res, err := r.db.DB.ExecContext(ctx, "UPDATE Messages SET Content = ? WHERE Id = ?", content, id)
	if err != nil {
		return fmt.Errorf("error updating message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking message update: %w", err)
	}
	if affected == 0 {
		return apperrors.NewCustomError(apperrors.ErrMessageReference, fmt.Sprintf("message %d not found", id))
	}
	return nil
}

// Delete removes a message from the log. A missing id maps to a reference
// error.
func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.DB.ExecContext(ctx, "DELETE FROM Messages WHERE Id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking message delete: %w", err)
	}
	if affected == 0 {
		return apperrors.NewCustomError(apperrors.ErrMessageReference, fmt.Sprintf("message %d not found", id))
	}
	return nil
}

// MarkRead marks every unread message in the conversation that the reader
// did not send. Returns how many messages were marked.
func (r *MessageRepository) MarkRead(ctx context.Context, studentID, supervisorID int64, reader models.SenderRole) (int64, error) {
	res, err := r.db.DB.ExecContext(ctx, `
		UPDATE Messages SET IsRead = 1
		WHERE StudentId = ? AND PersonalSupervisorId = ? AND SenderRole != ? AND IsRead = 0`,
		studentID, supervisorID, reader)
	if err != nil {
		return 0, fmt.Errorf("error marking messages read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting marked messages: %w", err)
	}
	return affected, nil
}

// UnreadCount counts the conversation messages the reader has not seen yet.
func (r *MessageRepository) UnreadCount(ctx context.Context, studentID, supervisorID int64, reader models.SenderRole) (int, error) {
	var count int
	err := r.db.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM Messages
		WHERE StudentId = ? AND PersonalSupervisorId = ? AND SenderRole != ? AND IsRead = 0`,
		studentID, supervisorID, reader).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting unread messages: %w", err)
	}
	return count, nil
}
