package cli

import (
	"context"

	"github.com/aydin/tutorhub/internal/app/models"
)

func (s *Shell) tutorMenu(ctx context.Context, tutor *models.SeniorTutor) {
	s.printf("Welcome, %s (code %s)", tutor.Name, tutor.SeniorTutorCode)
	for {
		s.printf("")
		s.printf("1) Register student")
		s.printf("2) Register personal supervisor")
		s.printf("3) Register senior tutor")
		s.printf("4) Assign supervisor to student")
		s.printf("5) View all students")
		s.printf("6) View students with low wellbeing")
		s.printf("7) View students with missed reports")
		s.printf("8) View active wellbeing alerts")
		s.printf("9) Resolve an alert")
		s.printf("10) Run missed-report check now")
		s.printf("11) Set security question")
		s.printf("0) Log out")

		choice, ok := s.prompt("Choice")
		if !ok {
			return
		}
		switch choice {
		case "1":
			s.registerStudent(ctx)
		case "2":
			s.registerSupervisor(ctx)
		case "3":
			s.registerSeniorTutor(ctx)
		case "4":
			s.assignSupervisor(ctx)
		case "5":
			s.listAllStudents(ctx)
		case "6":
			s.listLowWellbeing(ctx)
		case "7":
			s.listMissedReports(ctx)
		case "8":
			s.listActiveAlerts(ctx)
		case "9":
			s.resolveAlert(ctx)
		case "10":
			if err := s.deps.WellbeingService.CheckAndUpdateMissedReports(ctx); err != nil {
				s.printf("Sweep failed: %v", err)
			} else {
				s.printf("Missed-report check completed.")
			}
		case "11":
			s.setSecurityQuestion(ctx, tutor.Username)
		case "0":
			return
		default:
			s.printf("Unknown option %q", choice)
		}
	}
}

func (s *Shell) registerStudent(ctx context.Context) {
	username, ok := s.prompt("Username")
	if !ok {
		return
	}
	name, ok := s.prompt("Full name")
	if !ok {
		return
	}
	password, ok := s.prompt("Password")
	if !ok {
		return
	}
	yearGroup, ok := s.promptInt("Year group (1-4)")
	if !ok {
		return
	}
	supervisorID, ok := s.promptID("Supervisor id (0 for none)")
	if !ok {
		return
	}
	student, err := s.deps.RegistrationService.RegisterStudent(ctx, username, name, password, yearGroup, supervisorID)
	if err != nil {
		s.printf("Could not register student: %v", err)
		return
	}
	s.printf("Student registered with code %s.", student.StudentCode)
}

func (s *Shell) registerSupervisor(ctx context.Context) {
	username, ok := s.prompt("Username")
	if !ok {
		return
	}
	name, ok := s.prompt("Full name")
	if !ok {
		return
	}
	password, ok := s.prompt("Password")
	if !ok {
		return
	}
	supervisor, err := s.deps.RegistrationService.RegisterSupervisor(ctx, username, name, password)
	if err != nil {
		s.printf("Could not register supervisor: %v", err)
		return
	}
	s.printf("Supervisor registered with code %s.", supervisor.SupervisorCode)
}

func (s *Shell) registerSeniorTutor(ctx context.Context) {
	username, ok := s.prompt("Username")
	if !ok {
		return
	}
	name, ok := s.prompt("Full name")
	if !ok {
		return
	}
	password, ok := s.prompt("Password")
	if !ok {
		return
	}
	newTutor, err := s.deps.RegistrationService.RegisterSeniorTutor(ctx, username, name, password)
	if err != nil {
		s.printf("Could not register senior tutor: %v", err)
		return
	}
	s.printf("Senior tutor registered with code %s.", newTutor.SeniorTutorCode)
}

func (s *Shell) assignSupervisor(ctx context.Context) {
	studentID, ok := s.promptID("Student id")
	if !ok {
		return
	}
	supervisorID, ok := s.promptID("Supervisor id")
	if !ok {
		return
	}
	if err := s.deps.RegistrationService.AssignSupervisor(ctx, studentID, supervisorID); err != nil {
		s.printf("Could not assign supervisor: %v", err)
		return
	}
	s.printf("Supervisor assigned.")
}

func (s *Shell) listAllStudents(ctx context.Context) {
	students, err := s.deps.RegistrationService.AllStudents(ctx)
	if err != nil {
		s.printf("Could not load students: %v", err)
		return
	}
	if len(students) == 0 {
		s.printf("No students registered.")
		return
	}
	for _, student := range students {
		s.printStudentLine(student)
	}
}

func (s *Shell) listLowWellbeing(ctx context.Context) {
	students, err := s.deps.WellbeingService.LowWellbeingStudents(ctx)
	if err != nil {
		s.printf("Could not load students: %v", err)
		return
	}
	if len(students) == 0 {
		s.printf("No students with low wellbeing scores.")
		return
	}
	for _, student := range students {
		s.printStudentLine(student)
	}
}

func (s *Shell) listMissedReports(ctx context.Context) {
	students, err := s.deps.WellbeingService.MissedReportStudents(ctx)
	if err != nil {
		s.printf("Could not load students: %v", err)
		return
	}
	if len(students) == 0 {
		s.printf("No students with missed reports.")
		return
	}
	for _, student := range students {
		s.printStudentLine(student)
	}
}

func (s *Shell) listActiveAlerts(ctx context.Context) {
	alerts, err := s.deps.WellbeingService.ActiveAlerts(ctx)
	if err != nil {
		s.printf("Could not load alerts: %v", err)
		return
	}
	if len(alerts) == 0 {
		s.printf("No active alerts.")
		return
	}
	for _, alert := range alerts {
		s.printf("#%d %s  %s  %s",
			alert.ID, alert.AlertDate.Format("2 Jan 15:04"), alert.Reason, alert.StudentName)
	}
}

func (s *Shell) resolveAlert(ctx context.Context) {
	alertID, ok := s.promptID("Alert id")
	if !ok {
		return
	}
	if err := s.deps.WellbeingService.ResolveAlert(ctx, alertID); err != nil {
		s.printf("Could not resolve alert: %v", err)
		return
	}
	s.printf("Alert resolved.")
}
