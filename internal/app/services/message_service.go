package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/app/models"
	"github.com/aydin/tutorhub/internal/app/repositories"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

// MessageService runs the direct conversation channel between a student and
// their personal supervisor. Only the original sender may edit or delete a
// message.
type MessageService struct {
	messageRepo *repositories.MessageRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewMessageService creates a new message service instance.
func NewMessageService(messageRepo *repositories.MessageRepository, logger zerolog.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Send appends a message from the given side of the conversation.
func (s *MessageService) Send(ctx context.Context, studentID, supervisorID int64, sender models.SenderRole, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrEmptyContent, "message content is empty")
	}

	message := &models.Message{
		StudentID:    studentID,
		SupervisorID: supervisorID,
		SenderRole:   sender,
		Content:      content,
		Timestamp:    s.now(),
	}
	if err := s.messageRepo.Send(ctx, message); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int64("messageId", message.ID).
		Int64("studentId", studentID).
		Int64("supervisorId", supervisorID).
		Str("sender", string(sender)).
		Msg("Message sent")
	return message, nil
}

// Conversation returns the full log between the two parties, oldest first,
// and marks the messages addressed to the reader as read.
func (s *MessageService) Conversation(ctx context.Context, studentID, supervisorID int64, reader models.SenderRole) ([]*models.Message, error) {
	messages, err := s.messageRepo.Conversation(ctx, studentID, supervisorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.messageRepo.MarkRead(ctx, studentID, supervisorID, reader); err != nil {
		return nil, err
	}
	for _, m := range messages {
		if m.SenderRole != reader {
			m.IsRead = true
		}
	}
	return messages, nil
}

// AllForStudent returns every message in any of the student's conversations.
func (s *MessageService) AllForStudent(ctx context.Context, studentID int64) ([]*models.Message, error) {
	return s.messageRepo.ByStudent(ctx, studentID)
}

// AllForSupervisor returns every message in any of the supervisor's
// conversations.
func (s *MessageService) AllForSupervisor(ctx context.Context, supervisorID int64) ([]*models.Message, error) {
	return s.messageRepo.BySupervisor(ctx, supervisorID)
}

// UnreadCount counts conversation messages the reader has not yet opened.
func (s *MessageService) UnreadCount(ctx context.Context, studentID, supervisorID int64, reader models.SenderRole) (int, error) {
	return s.messageRepo.UnreadCount(ctx, studentID, supervisorID, reader)
}

// Edit rewrites a message's content. Rejected unless the editor is the
// original sender, matched by role and by party id.
func (s *MessageService) Edit(ctx context.Context, messageID int64, editor models.SenderRole, editorID int64, content string) error {
	message, err := s.requireSender(ctx, messageID, editor, editorID)
	if err != nil {
		return err
	}
	if err := s.messageRepo.UpdateContent(ctx, message.ID, content); err != nil {
		return err
	}
	s.logger.Debug().Int64("messageId", message.ID).Msg("Message edited")
	return nil
}

// Delete removes a message. Rejected unless the deleter is the original
// sender, matched by role and by party id.
func (s *MessageService) Delete(ctx context.Context, messageID int64, deleter models.SenderRole, deleterID int64) error {
	message, err := s.requireSender(ctx, messageID, deleter, deleterID)
	if err != nil {
		return err
	}
	if err := s.messageRepo.Delete(ctx, message.ID); err != nil {
		return err
	}
	s.logger.Debug().Int64("messageId", message.ID).Msg("Message deleted")
	return nil
}

// requireSender loads the message and checks the actor is its original
// sender. Role alone is not enough: a student may only touch messages they
// sent themselves, so the actor's own id must match the message's side.
func (s *MessageService) requireSender(ctx context.Context, messageID int64, actor models.SenderRole, actorID int64) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrMessageReference,
			fmt.Sprintf("message %d not found", messageID))
	}
	if message.SenderRole != actor {
		return nil, apperrors.NewCustomError(apperrors.ErrNotMessageSender,
			fmt.Sprintf("message %d was not sent by %s", messageID, actor))
	}
	senderID := message.StudentID
	if actor == models.SenderSupervisor {
		senderID = message.SupervisorID
	}
	if senderID != actorID {
		return nil, apperrors.NewCustomError(apperrors.ErrNotMessageSender,
			fmt.Sprintf("message %d was not sent by %s %d", messageID, actor, actorID))
	}
	return message, nil
}
