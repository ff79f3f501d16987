// Package cli implements the interactive terminal shell. It is a thin layer:
// every action maps onto one service call, and storage is never touched
// directly.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aydin/tutorhub/internal/bootstrap"
)

// Shell is the top-level interactive loop: login, role dispatch, account
// recovery.
type Shell struct {
	deps *bootstrap.Dependencies
	in   *bufio.Scanner
	out  io.Writer
}

// NewShell creates a shell over the wired application dependencies, reading
// from stdin and writing to stdout.
func NewShell(deps *bootstrap.Dependencies) *Shell {
	return &Shell{
		deps: deps,
		in:   bufio.NewScanner(os.Stdin),
		out:  os.Stdout,
	}
}

// Run drives the main menu until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("Personal Supervisor System")
	for {
		s.printf("")
		s.printf("1) Log in as student")
		s.printf("2) Log in as personal supervisor")
		s.printf("3) Log in as senior tutor")
		s.printf("4) Forgot password")
		s.printf("0) Exit")

		choice, ok := s.prompt("Choice")
		if !ok {
			return nil
		}
		switch choice {
		case "1":
			s.loginStudent(ctx)
		case "2":
			s.loginSupervisor(ctx)
		case "3":
			s.loginSeniorTutor(ctx)
		case "4":
			s.forgotPassword(ctx)
		case "0":
			return nil
		default:
			s.printf("Unknown option %q", choice)
		}
	}
}

func (s *Shell) loginStudent(ctx context.Context) {
	username, ok := s.prompt("Username")
	if !ok {
		return
	}
	password, ok := s.prompt("Password")
	if !ok {
		return
	}
	student, err := s.deps.AuthService.LoginStudent(ctx, username, password)
	if err != nil {
		s.printf("Login failed: %v", err)
		return
	}
	s.studentMenu(ctx, student)
}

func (s *Shell) loginSupervisor(ctx context.Context) {
	username, ok := s.prompt("Username")
	if !ok {
		return
	}
	password, ok := s.prompt("Password")
	if !ok {
		return
	}
	supervisor, err := s.deps.AuthService.LoginSupervisor(ctx, username, password)
	if err != nil {
		s.printf("Login failed: %v", err)
		return
	}
	s.supervisorMenu(ctx, supervisor)
}

func (s *Shell) loginSeniorTutor(ctx context.Context) {
	username, ok := s.prompt("Username")
	if !ok {
		return
	}
	password, ok := s.prompt("Password")
	if !ok {
		return
	}
	tutor, err := s.deps.AuthService.LoginSeniorTutor(ctx, username, password)
	if err != nil {
		s.printf("Login failed: %v", err)
		return
	}
	s.tutorMenu(ctx, tutor)
}

func (s *Shell) forgotPassword(ctx context.Context) {
	username, ok := s.prompt("Username")
	if !ok {
		return
	}
	question, err := s.deps.PasswordResetService.SecurityQuestion(ctx, username)
	if err != nil {
		s.printf("Cannot recover this account: %v", err)
		return
	}
	s.printf("Security question: %s", question)
	answer, ok := s.prompt("Answer")
	if !ok {
		return
	}
	newPassword, ok := s.prompt("New password")
	if !ok {
		return
	}
	if err := s.deps.PasswordResetService.ResetPassword(ctx, username, answer, newPassword); err != nil {
		s.printf("Password reset failed: %v", err)
		return
	}
	s.printf("Password updated. You can log in now.")
}

// prompt reads one trimmed line; ok is false when input has ended.
func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprintf(s.out, "%s: ", label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) promptInt(label string) (int, bool) {
	for {
		raw, ok := s.prompt(label)
		if !ok {
			return 0, false
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.printf("Please enter a number.")
			continue
		}
		return n, true
	}
}

func (s *Shell) promptID(label string) (int64, bool) {
	n, ok := s.promptInt(label)
	return int64(n), ok
}

// promptTime accepts "2006-01-02 15:04" in the configured reporting time zone.
func (s *Shell) promptTime(label string) (time.Time, bool) {
	loc, err := time.LoadLocation(s.deps.Config.Wellbeing.Timezone)
	if err != nil {
		loc = time.Local
	}
	for {
		raw, ok := s.prompt(label + " (YYYY-MM-DD HH:MM)")
		if !ok {
			return time.Time{}, false
		}
		t, err := time.ParseInLocation("2006-01-02 15:04", raw, loc)
		if err != nil {
			s.printf("Could not parse %q.", raw)
			continue
		}
		return t, true
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}
