package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

func TestRegisterStudentCodePrefix(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2025, time.September, 20, 10, 0, 0, 0, time.UTC)
	reg := env.registration(t, now)

	// A second-year student in 2025 enrolled in 2024.
	student, err := reg.RegisterStudent(context.Background(), "yr2", "Year Two", "secret123", 2, 0)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.HasPrefix(student.StudentCode, "2024") {
		t.Fatalf("StudentCode = %q, want 2024 prefix", student.StudentCode)
	}
	if len(student.StudentCode) != len("2024")+5 {
		t.Fatalf("StudentCode = %q, want 4-digit year plus 5-digit suffix", student.StudentCode)
	}
}

func TestRegisterStudentValidation(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2025, time.September, 20, 10, 0, 0, 0, time.UTC)
	reg := env.registration(t, now)
	ctx := context.Background()

	if _, err := reg.RegisterStudent(ctx, "bad", "Bad Year", "secret123", 5, 0); !errors.Is(err, apperrors.ErrInvalidYearGroup) {
		t.Fatalf("year group 5: err = %v, want ErrInvalidYearGroup", err)
	}
	if _, err := reg.RegisterStudent(ctx, "bad", "Bad Supervisor", "secret123", 1, 9999); !errors.Is(err, apperrors.ErrSupervisorReference) {
		t.Fatalf("missing supervisor: err = %v, want ErrSupervisorReference", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2025, time.September, 20, 10, 0, 0, 0, time.UTC)
	reg := env.registration(t, now)
	ctx := context.Background()

	env.mustStudent(t, reg, "taken", 0)
	if _, err := reg.RegisterStudent(ctx, "taken", "Second", "secret123", 1, 0); !errors.Is(err, apperrors.ErrUsernameTaken) {
		t.Fatalf("err = %v, want ErrUsernameTaken", err)
	}
	// Username uniqueness is global across roles and case-insensitive.
	if _, err := reg.RegisterSupervisor(ctx, "TAKEN", "Shouting", "secret123"); !errors.Is(err, apperrors.ErrUsernameTaken) {
		t.Fatalf("cross-role duplicate: err = %v, want ErrUsernameTaken", err)
	}
}

func TestAssignSupervisor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2025, time.September, 20, 10, 0, 0, 0, time.UTC)
	reg := env.registration(t, now)

	student := env.mustStudent(t, reg, "floating", 0)
	supervisor := env.mustSupervisor(t, reg, "anchor")

	if err := reg.AssignSupervisor(ctx, student.ID, supervisor.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	reloaded, err := env.repos.Students.GetByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.SupervisorID != supervisor.ID {
		t.Fatalf("SupervisorID = %d, want %d", reloaded.SupervisorID, supervisor.ID)
	}

	if err := reg.AssignSupervisor(ctx, 9999, supervisor.ID); !errors.Is(err, apperrors.ErrStudentReference) {
		t.Fatalf("missing student: err = %v, want ErrStudentReference", err)
	}
}

func TestLoginFlows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2025, time.September, 20, 10, 0, 0, 0, time.UTC)
	reg := env.registration(t, now)

	student := env.mustStudent(t, reg, "loginstu", 0)
	auth := NewAuthService(env.repos.Students, env.repos.Supervisors, env.repos.SeniorTutors, zerolog.Nop())

	got, err := auth.LoginStudent(ctx, "loginstu", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != student.ID {
		t.Fatalf("logged in student %d, want %d", got.ID, student.ID)
	}

	// Usernames match case-insensitively; passwords do not.
	if _, err := auth.LoginStudent(ctx, "LoginStu", "secret123"); err != nil {
		t.Fatalf("case-insensitive login: %v", err)
	}
	if _, err := auth.LoginStudent(ctx, "loginstu", "SECRET123"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.LoginStudent(ctx, "nobody", "secret123"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("unknown user: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2025, time.September, 20, 10, 0, 0, 0, time.UTC)
	reg := env.registration(t, now)

	env.mustStudent(t, reg, "forgetful", 0)
	resetSvc := NewPasswordResetService(env.repos.Credentials, zerolog.Nop())
	auth := NewAuthService(env.repos.Students, env.repos.Supervisors, env.repos.SeniorTutors, zerolog.Nop())

	// No question yet.
	if _, err := resetSvc.SecurityQuestion(ctx, "forgetful"); !errors.Is(err, apperrors.ErrNoSecurityQuestion) {
		t.Fatalf("err = %v, want ErrNoSecurityQuestion", err)
	}

	if err := resetSvc.SetSecurityQuestion(ctx, "forgetful", "First pet?", "Rex"); err != nil {
		t.Fatalf("set question: %v", err)
	}
	question, err := resetSvc.SecurityQuestion(ctx, "forgetful")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if question != "First pet?" {
		t.Fatalf("question = %q", question)
	}

	if err := resetSvc.ResetPassword(ctx, "forgetful", "wrong", "newpass456"); !errors.Is(err, apperrors.ErrSecurityAnswerMismatch) {
		t.Fatalf("wrong answer: err = %v, want ErrSecurityAnswerMismatch", err)
	}
	// Answers compare case-insensitively.
	if err := resetSvc.ResetPassword(ctx, "forgetful", "rex", "newpass456"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, err := auth.LoginStudent(ctx, "forgetful", "newpass456"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := auth.LoginStudent(ctx, "forgetful", "secret123"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("old password still works: err = %v", err)
	}
}
