package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

func TestBookMeetingMirrorsBothAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	reg := env.registration(t, now)
	supervisor := env.mustSupervisor(t, reg, "sup")
	student := env.mustStudent(t, reg, "stu", supervisor.ID)

	when := time.Date(2025, time.April, 10, 14, 30, 0, 0, time.UTC)
	if _, err := env.meetings().BookForStudent(ctx, student.ID, when); err != nil {
		t.Fatalf("book: %v", err)
	}

	reloadedStudent, err := env.repos.Students.GetByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("reload student: %v", err)
	}
	if len(reloadedStudent.Meetings) != 1 {
		t.Fatalf("student meetings = %d, want 1", len(reloadedStudent.Meetings))
	}
	m := reloadedStudent.Meetings[0]
	if m.SupervisorID != supervisor.ID || !m.ScheduledTime.Equal(when) {
		t.Fatalf("student meeting = %+v, want supervisor %d at %v", m, supervisor.ID, when)
	}

	reloadedSupervisor, err := env.repos.Supervisors.GetByID(ctx, supervisor.ID)
	if err != nil {
		t.Fatalf("reload supervisor: %v", err)
	}
	if len(reloadedSupervisor.Meetings) != 1 {
		t.Fatalf("supervisor meetings = %d, want 1", len(reloadedSupervisor.Meetings))
	}
	m = reloadedSupervisor.Meetings[0]
	if m.StudentID != student.ID || !m.ScheduledTime.Equal(when) {
		t.Fatalf("supervisor meeting = %+v, want student %d at %v", m, student.ID, when)
	}
}

func TestBookMeetingWithoutSupervisor(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	reg := env.registration(t, now)
	student := env.mustStudent(t, reg, "loner", 0)

	_, err := env.meetings().BookForStudent(context.Background(), student.ID, now.AddDate(0, 0, 3))
	if !errors.Is(err, apperrors.ErrNoSupervisor) {
		t.Fatalf("err = %v, want ErrNoSupervisor", err)
	}
}

func TestBookMeetingUnknownParties(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	reg := env.registration(t, now)
	supervisor := env.mustSupervisor(t, reg, "sup")

	_, err := env.meetings().BookForSupervisor(ctx, supervisor.ID, 9999, now)
	if !errors.Is(err, apperrors.ErrStudentReference) {
		t.Fatalf("err = %v, want ErrStudentReference", err)
	}

	student := env.mustStudent(t, reg, "stu", supervisor.ID)
	_, err = env.meetings().BookForSupervisor(ctx, 9999, student.ID, now)
	if !errors.Is(err, apperrors.ErrSupervisorReference) {
		t.Fatalf("err = %v, want ErrSupervisorReference", err)
	}
}

func TestRepeatedBookingsAccumulate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	reg := env.registration(t, now)
	supervisor := env.mustSupervisor(t, reg, "sup")
	first := env.mustStudent(t, reg, "first", supervisor.ID)
	second := env.mustStudent(t, reg, "second", supervisor.ID)

	svc := env.meetings()
	if _, err := svc.BookForStudent(ctx, first.ID, now.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("book first: %v", err)
	}
	if _, err := svc.BookForStudent(ctx, second.ID, now.AddDate(0, 0, 2)); err != nil {
		t.Fatalf("book second: %v", err)
	}
	if _, err := svc.BookForSupervisor(ctx, supervisor.ID, first.ID, now.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("book third: %v", err)
	}

	meetings, err := svc.SupervisorMeetings(ctx, supervisor.ID)
	if err != nil {
		t.Fatalf("supervisor meetings: %v", err)
	}
	if len(meetings) != 3 {
		t.Fatalf("supervisor meetings = %d, want 3", len(meetings))
	}

	firstMeetings, err := svc.StudentMeetings(ctx, first.ID)
	if err != nil {
		t.Fatalf("student meetings: %v", err)
	}
	if len(firstMeetings) != 2 {
		t.Fatalf("first student meetings = %d, want 2", len(firstMeetings))
	}
}
