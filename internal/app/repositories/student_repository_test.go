package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aydin/tutorhub/internal/app/migrations"
	"github.com/aydin/tutorhub/internal/app/models"
	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()

	database, err := dbpkg.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.NewMigrator(database.DB).Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepositories(database)
}

func testStudent(username string) *models.Student {
	return &models.Student{
		User: models.User{
			Username: username,
			Name:     "Test " + username,
			Password: "hashed-password",
		},
		StudentCode: "2025" + username,
		YearGroup:   1,
	}
}

func TestStudentSaveIsIdempotent(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	supervisor := &models.PersonalSupervisor{
		User: models.User{Username: "sup", Name: "Sup", Password: "hash"},
	}
	if err := repos.Supervisors.Save(ctx, supervisor); err != nil {
		t.Fatalf("save supervisor: %v", err)
	}

	student := testStudent("ada")
	student.SupervisorID = supervisor.ID
	student.Meetings = []models.Meeting{
		{StudentID: 1, SupervisorID: supervisor.ID, ScheduledTime: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)},
	}
	student.Reports = []models.WellbeingReport{
		{Score: 6, Notes: "fine", Date: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{Score: 4, Notes: "tired", Date: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), IsHighPriority: true},
	}

	if err := repos.Students.Save(ctx, student); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := repos.Students.Save(ctx, student); err != nil {
		t.Fatalf("second save: %v", err)
	}

	reloaded, err := repos.Students.GetByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Meetings) != 1 {
		t.Fatalf("meetings = %d, want 1 after double save", len(reloaded.Meetings))
	}
	if len(reloaded.Reports) != 2 {
		t.Fatalf("reports = %d, want 2 after double save", len(reloaded.Reports))
	}
	if reloaded.Reports[0].Score != 6 || reloaded.Reports[1].Score != 4 {
		t.Fatalf("report order wrong: %+v", reloaded.Reports)
	}
	if !reloaded.Reports[1].IsCurrent || reloaded.Reports[0].IsCurrent {
		t.Fatalf("IsCurrent flags wrong: %+v", reloaded.Reports)
	}
}

func TestStudentLookupCaseRules(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	student := testStudent("Grace")
	if err := repos.Students.Save(ctx, student); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Usernames match case-insensitively.
	byName, err := repos.Students.GetByUsername(ctx, "gRaCe")
	if err != nil {
		t.Fatalf("by username: %v", err)
	}
	if byName == nil || byName.ID != student.ID {
		t.Fatalf("case-insensitive username lookup failed: %+v", byName)
	}

	// Codes are exact-match.
	byCode, err := repos.Students.GetByCode(ctx, student.StudentCode)
	if err != nil {
		t.Fatalf("by code: %v", err)
	}
	if byCode == nil || byCode.ID != student.ID {
		t.Fatalf("code lookup failed: %+v", byCode)
	}
	wrongCase, err := repos.Students.GetByCode(ctx, "2025GRACE")
	if err != nil {
		t.Fatalf("wrong-case code: %v", err)
	}
	if wrongCase != nil {
		t.Fatalf("code lookup should be case-sensitive, got %+v", wrongCase)
	}
}

func TestStudentAbsenceIsNilNotError(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for name, lookup := range map[string]func() (*models.Student, error){
		"by id":       func() (*models.Student, error) { return repos.Students.GetByID(ctx, 42) },
		"by username": func() (*models.Student, error) { return repos.Students.GetByUsername(ctx, "ghost") },
		"by code":     func() (*models.Student, error) { return repos.Students.GetByCode(ctx, "209912345") },
	} {
		got, err := lookup()
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if got != nil {
			t.Fatalf("%s: got %+v, want nil", name, got)
		}
	}
}

func TestStudentSaveValidation(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	if err := repos.Students.Save(ctx, nil); !errors.Is(err, apperrors.ErrNilAggregate) {
		t.Fatalf("nil aggregate: err = %v, want ErrNilAggregate", err)
	}

	missing := testStudent("noname")
	missing.Name = ""
	if err := repos.Students.Save(ctx, missing); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("missing name: err = %v, want ErrValidation", err)
	}

	first := testStudent("dup")
	if err := repos.Students.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := testStudent("dup")
	second.StudentCode = "2025dup2"
	if err := repos.Students.Save(ctx, second); !errors.Is(err, apperrors.ErrUsernameTaken) {
		t.Fatalf("duplicate username: err = %v, want ErrUsernameTaken", err)
	}
}

func TestStudentListings(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	supervisor := &models.PersonalSupervisor{
		User: models.User{Username: "sup", Name: "Sup", Password: "hash"},
	}
	if err := repos.Supervisors.Save(ctx, supervisor); err != nil {
		t.Fatalf("save supervisor: %v", err)
	}

	assigned := testStudent("assigned")
	assigned.SupervisorID = supervisor.ID
	assigned.Reports = []models.WellbeingReport{
		{Score: 2, Date: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), IsHighPriority: true},
	}
	other := testStudent("other")
	other.HasMissedReport = true

	for _, s := range []*models.Student{assigned, other} {
		if err := repos.Students.Save(ctx, s); err != nil {
			t.Fatalf("save %s: %v", s.Username, err)
		}
	}

	bySup, err := repos.Students.BySupervisor(ctx, supervisor.ID)
	if err != nil {
		t.Fatalf("by supervisor: %v", err)
	}
	if len(bySup) != 1 || bySup[0].Username != "assigned" {
		t.Fatalf("by supervisor = %+v", bySup)
	}

	low, err := repos.Students.WithLowWellbeing(ctx)
	if err != nil {
		t.Fatalf("low wellbeing: %v", err)
	}
	if len(low) != 1 || low[0].Username != "assigned" {
		t.Fatalf("low wellbeing = %+v", low)
	}

	missed, err := repos.Students.WithMissedReports(ctx)
	if err != nil {
		t.Fatalf("missed: %v", err)
	}
	if len(missed) != 1 || missed[0].Username != "other" {
		t.Fatalf("missed = %+v", missed)
	}

	all, err := repos.Students.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d students, want 2", len(all))
	}
}
