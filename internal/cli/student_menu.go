package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aydin/tutorhub/internal/app/models"
)

func (s *Shell) studentMenu(ctx context.Context, student *models.Student) {
	s.printf("Welcome, %s (code %s)", student.Name, student.StudentCode)
	for {
		status := s.deps.WellbeingService.Status(student)
		if status.IsOverdue {
			s.printf("Your wellbeing report is OVERDUE by %d day(s).", status.DaysOverdue)
		} else {
			s.printf("Next wellbeing report due %s (%s remaining).",
				status.Deadline.Format("Mon 2 Jan 15:04"), formatDuration(status.TimeRemaining))
		}

		s.printf("")
		s.printf("1) Submit wellbeing report")
		s.printf("2) View report history")
		s.printf("3) View meetings")
		s.printf("4) Book meeting with supervisor")
		s.printf("5) Messages")
		s.printf("6) Set security question")
		s.printf("0) Log out")

		choice, ok := s.prompt("Choice")
		if !ok {
			return
		}
		switch choice {
		case "1":
			s.submitReport(ctx, student)
		case "2":
			s.showReportHistory(student)
		case "3":
			s.showMeetings(student.Meetings)
		case "4":
			s.bookMeetingAsStudent(ctx, student)
		case "5":
			if student.SupervisorID == 0 {
				s.printf("You have no assigned supervisor to message.")
				continue
			}
			s.conversation(ctx, student.ID, student.SupervisorID, models.SenderStudent)
		case "6":
			s.setSecurityQuestion(ctx, student.Username)
		case "0":
			return
		default:
			s.printf("Unknown option %q", choice)
		}

		// Reload so the menu header reflects what the action persisted.
		if refreshed, err := s.deps.RegistrationService.GetStudent(ctx, student.ID); err == nil {
			student = refreshed
		}
	}
}

func (s *Shell) submitReport(ctx context.Context, student *models.Student) {
	score, ok := s.promptInt("Wellbeing score (0-10)")
	if !ok {
		return
	}
	notes, ok := s.prompt("Notes")
	if !ok {
		return
	}
	report, err := s.deps.WellbeingService.SubmitReport(ctx, student.ID, score, notes)
	if err != nil {
		s.printf("Could not submit report: %v", err)
		return
	}
	s.printf("Report recorded with score %d.", report.Score)
	if report.IsHighPriority {
		s.printf("Your supervisor has been alerted and will be in touch.")
	}
}

func (s *Shell) showReportHistory(student *models.Student) {
	if len(student.Reports) == 0 {
		s.printf("No reports submitted yet.")
		return
	}
	for _, report := range student.Reports {
		marker := ""
		if report.IsCurrent {
			marker = " (current)"
		}
		s.printf("%s  score %d%s  %s",
			report.Date.Format("2006-01-02"), report.Score, marker, report.Notes)
	}
}

func (s *Shell) showMeetings(meetings []models.Meeting) {
	if len(meetings) == 0 {
		s.printf("No meetings scheduled.")
		return
	}
	for _, m := range meetings {
		s.printf("%s  student #%d with supervisor #%d",
			m.ScheduledTime.Format("Mon 2 Jan 2006 15:04"), m.StudentID, m.SupervisorID)
	}
}

func (s *Shell) bookMeetingAsStudent(ctx context.Context, student *models.Student) {
	at, ok := s.promptTime("Meeting time")
	if !ok {
		return
	}
	meeting, err := s.deps.MeetingService.BookForStudent(ctx, student.ID, at)
	if err != nil {
		s.printf("Could not book meeting: %v", err)
		return
	}
	s.printf("Meeting booked for %s.", meeting.ScheduledTime.Format("Mon 2 Jan 2006 15:04"))
}

func (s *Shell) setSecurityQuestion(ctx context.Context, username string) {
	question, ok := s.prompt("Security question")
	if !ok {
		return
	}
	answer, ok := s.prompt("Answer")
	if !ok {
		return
	}
	if err := s.deps.PasswordResetService.SetSecurityQuestion(ctx, username, question, answer); err != nil {
		s.printf("Could not set security question: %v", err)
		return
	}
	s.printf("Security question saved.")
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dh %dm", hours, int(d.Minutes())%60)
}
