package cli

import (
	"context"

	"github.com/aydin/tutorhub/internal/app/models"
)

// conversation is the shared messaging submenu; the reader role decides which
// side's messages can be edited or deleted.
func (s *Shell) conversation(ctx context.Context, studentID, supervisorID int64, reader models.SenderRole) {
	readerID := studentID
	if reader == models.SenderSupervisor {
		readerID = supervisorID
	}
	for {
		messages, err := s.deps.MessageService.Conversation(ctx, studentID, supervisorID, reader)
		if err != nil {
			s.printf("Could not load conversation: %v", err)
			return
		}
		if len(messages) == 0 {
			s.printf("No messages yet.")
		}
		for _, m := range messages {
			read := ""
			if m.SenderRole == reader && m.IsRead {
				read = " (read)"
			}
			s.printf("#%d %s [%s]%s %s",
				m.ID, m.Timestamp.Format("2 Jan 15:04"), m.SenderRole, read, m.Content)
		}

		s.printf("")
		s.printf("1) Send message")
		s.printf("2) Edit one of my messages")
		s.printf("3) Delete one of my messages")
		s.printf("0) Back")

		choice, ok := s.prompt("Choice")
		if !ok {
			return
		}
		switch choice {
		case "1":
			content, ok := s.prompt("Message")
			if !ok {
				return
			}
			if _, err := s.deps.MessageService.Send(ctx, studentID, supervisorID, reader, content); err != nil {
				s.printf("Could not send: %v", err)
			}
		case "2":
			id, ok := s.promptID("Message id")
			if !ok {
				return
			}
			content, ok := s.prompt("New content")
			if !ok {
				return
			}
			if err := s.deps.MessageService.Edit(ctx, id, reader, readerID, content); err != nil {
				s.printf("Could not edit: %v", err)
			}
		case "3":
			id, ok := s.promptID("Message id")
			if !ok {
				return
			}
			if err := s.deps.MessageService.Delete(ctx, id, reader, readerID); err != nil {
				s.printf("Could not delete: %v", err)
			}
		case "0":
			return
		default:
			s.printf("Unknown option %q", choice)
		}
	}
}
