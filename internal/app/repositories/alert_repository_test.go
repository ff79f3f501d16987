package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aydin/tutorhub/internal/app/models"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

func TestAlertsActiveOrderingAndResolution(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	student := testStudent("alerted")
	if err := repos.Students.Save(ctx, student); err != nil {
		t.Fatalf("save student: %v", err)
	}

	base := time.Date(2025, time.February, 3, 12, 0, 0, 0, time.UTC)
	older := &models.WellbeingAlert{
		StudentID: student.ID, StudentName: student.Name,
		AlertDate: base, Reason: models.AlertMissedReport,
	}
	newer := &models.WellbeingAlert{
		StudentID: student.ID, StudentName: student.Name,
		AlertDate: base.AddDate(0, 0, 7), Reason: models.AlertLowScore,
	}
	for _, a := range []*models.WellbeingAlert{older, newer} {
		if err := repos.Alerts.Add(ctx, a); err != nil {
			t.Fatalf("add alert: %v", err)
		}
	}

	active, err := repos.Alerts.Active(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}
	if active[0].ID != newer.ID {
		t.Fatalf("active order wrong, newest first expected: %+v", active)
	}

	resolvedAt := base.AddDate(0, 0, 10)
	if err := repos.Alerts.Resolve(ctx, older.ID, resolvedAt); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	active, err = repos.Alerts.Active(ctx)
	if err != nil {
		t.Fatalf("active after resolve: %v", err)
	}
	if len(active) != 1 || active[0].ID != newer.ID {
		t.Fatalf("active after resolve = %+v", active)
	}

	kept, err := repos.Alerts.GetByID(ctx, older.ID)
	if err != nil {
		t.Fatalf("reload resolved: %v", err)
	}
	if kept == nil || !kept.IsResolved || kept.ResolvedDate == nil || !kept.ResolvedDate.Equal(resolvedAt) {
		t.Fatalf("resolved alert = %+v, want resolution retained", kept)
	}

	if err := repos.Alerts.Resolve(ctx, 9999, resolvedAt); !errors.Is(err, apperrors.ErrAlertReference) {
		t.Fatalf("resolve missing: err = %v, want ErrAlertReference", err)
	}
}

func TestAlertRequiresExistingStudent(t *testing.T) {
	repos := newTestRepos(t)

	orphan := &models.WellbeingAlert{
		StudentID: 9999, StudentName: "Ghost",
		AlertDate: time.Now(), Reason: models.AlertLowScore,
	}
	if err := repos.Alerts.Add(context.Background(), orphan); !errors.Is(err, apperrors.ErrStudentReference) {
		t.Fatalf("err = %v, want ErrStudentReference", err)
	}
}

func TestMessageUpdateRules(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	student := testStudent("talker")
	if err := repos.Students.Save(ctx, student); err != nil {
		t.Fatalf("save student: %v", err)
	}
	supervisor := &models.PersonalSupervisor{
		User: models.User{Username: "listener", Name: "Listener", Password: "hash"},
	}
	if err := repos.Supervisors.Save(ctx, supervisor); err != nil {
		t.Fatalf("save supervisor: %v", err)
	}

	msg := &models.Message{
		StudentID:    student.ID,
		SupervisorID: supervisor.ID,
		SenderRole:   models.SenderStudent,
		Content:      "hello",
		Timestamp:    time.Date(2025, time.February, 3, 12, 0, 0, 0, time.UTC),
	}
	if err := repos.Messages.Send(ctx, msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := repos.Messages.UpdateContent(ctx, msg.ID, ""); !errors.Is(err, apperrors.ErrEmptyContent) {
		t.Fatalf("empty edit: err = %v, want ErrEmptyContent", err)
	}
	if err := repos.Messages.UpdateContent(ctx, msg.ID, " \t "); !errors.Is(err, apperrors.ErrEmptyContent) {
		t.Fatalf("whitespace edit: err = %v, want ErrEmptyContent", err)
	}
	if err := repos.Messages.UpdateContent(ctx, 9999, "x"); !errors.Is(err, apperrors.ErrMessageReference) {
		t.Fatalf("missing edit: err = %v, want ErrMessageReference", err)
	}
	if err := repos.Messages.Delete(ctx, 9999); !errors.Is(err, apperrors.ErrMessageReference) {
		t.Fatalf("missing delete: err = %v, want ErrMessageReference", err)
	}

	marked, err := repos.Messages.MarkRead(ctx, student.ID, supervisor.ID, models.SenderSupervisor)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if marked != 1 {
		t.Fatalf("marked = %d, want 1", marked)
	}
	// Already read; a second pass marks nothing.
	marked, err = repos.Messages.MarkRead(ctx, student.ID, supervisor.ID, models.SenderSupervisor)
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if marked != 0 {
		t.Fatalf("marked = %d on rerun, want 0", marked)
	}
}
