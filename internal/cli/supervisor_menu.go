package cli

import (
	"context"
	"strconv"

	"github.com/aydin/tutorhub/internal/app/models"
)

func (s *Shell) supervisorMenu(ctx context.Context, supervisor *models.PersonalSupervisor) {
	s.printf("Welcome, %s (code %s)", supervisor.Name, supervisor.SupervisorCode)
	for {
		s.printf("")
		s.printf("1) View my students")
		s.printf("2) View high-priority students")
		s.printf("3) View meetings")
		s.printf("4) Book meeting with a student")
		s.printf("5) Message a student")
		s.printf("6) View message inbox")
		s.printf("7) Set security question")
		s.printf("0) Log out")

		choice, ok := s.prompt("Choice")
		if !ok {
			return
		}
		switch choice {
		case "1":
			s.listStudents(ctx, supervisor.ID)
		case "2":
			s.listHighPriority(ctx, supervisor.ID)
		case "3":
			meetings, err := s.deps.MeetingService.SupervisorMeetings(ctx, supervisor.ID)
			if err != nil {
				s.printf("Could not load meetings: %v", err)
				continue
			}
			s.showMeetings(meetings)
		case "4":
			s.bookMeetingAsSupervisor(ctx, supervisor.ID)
		case "5":
			studentID, ok := s.promptID("Student id")
			if !ok {
				return
			}
			s.conversation(ctx, studentID, supervisor.ID, models.SenderSupervisor)
		case "6":
			s.supervisorInbox(ctx, supervisor.ID)
		case "7":
			s.setSecurityQuestion(ctx, supervisor.Username)
		case "0":
			return
		default:
			s.printf("Unknown option %q", choice)
		}
	}
}

func (s *Shell) listStudents(ctx context.Context, supervisorID int64) {
	students, err := s.deps.RegistrationService.StudentsOf(ctx, supervisorID)
	if err != nil {
		s.printf("Could not load students: %v", err)
		return
	}
	if len(students) == 0 {
		s.printf("No students assigned to you.")
		return
	}
	for _, student := range students {
		s.printStudentLine(student)
	}
}

func (s *Shell) listHighPriority(ctx context.Context, supervisorID int64) {
	students, err := s.deps.WellbeingService.HighPriorityStudents(ctx, supervisorID)
	if err != nil {
		s.printf("Could not load students: %v", err)
		return
	}
	if len(students) == 0 {
		s.printf("No high-priority students right now.")
		return
	}
	for _, student := range students {
		s.printStudentLine(student)
	}
}

func (s *Shell) printStudentLine(student *models.Student) {
	score := "no reports"
	if current := student.CurrentReport(); current != nil {
		score = "score " + strconv.Itoa(current.Score)
	}
	missed := ""
	if student.HasMissedReport {
		missed = "  MISSED REPORT"
	}
	s.printf("#%d %s (%s, year %d)  %s%s",
		student.ID, student.Name, student.StudentCode, student.YearGroup, score, missed)
}

func (s *Shell) supervisorInbox(ctx context.Context, supervisorID int64) {
	messages, err := s.deps.MessageService.AllForSupervisor(ctx, supervisorID)
	if err != nil {
		s.printf("Could not load messages: %v", err)
		return
	}
	if len(messages) == 0 {
		s.printf("No messages in any conversation.")
		return
	}
	for _, m := range messages {
		s.printf("#%d %s student #%d [%s] %s",
			m.ID, m.Timestamp.Format("2 Jan 15:04"), m.StudentID, m.SenderRole, m.Content)
	}
}

func (s *Shell) bookMeetingAsSupervisor(ctx context.Context, supervisorID int64) {
	studentID, ok := s.promptID("Student id")
	if !ok {
		return
	}
	at, ok := s.promptTime("Meeting time")
	if !ok {
		return
	}
	meeting, err := s.deps.MeetingService.BookForSupervisor(ctx, supervisorID, studentID, at)
	if err != nil {
		s.printf("Could not book meeting: %v", err)
		return
	}
	s.printf("Meeting booked for %s.", meeting.ScheduledTime.Format("Mon 2 Jan 2006 15:04"))
}
