package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/app/migrations"
	"github.com/aydin/tutorhub/internal/app/models"
	"github.com/aydin/tutorhub/internal/app/repositories"
	dbpkg "github.com/aydin/tutorhub/internal/db"
)

type testEnv struct {
	db    *dbpkg.SQLiteDB
	repos *repositories.Repositories
	loc   *time.Location
	guard *sync.Mutex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := dbpkg.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.NewMigrator(database.DB).Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &testEnv{
		db:    database,
		repos: repositories.NewRepositories(database),
		loc:   time.UTC,
		guard: &sync.Mutex{},
	}
}

func (e *testEnv) wellbeing(t *testing.T, now time.Time) *WellbeingService {
	t.Helper()
	svc := NewWellbeingService(e.db, e.repos.Students, e.repos.Alerts, e.loc, e.guard, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func (e *testEnv) registration(t *testing.T, now time.Time) *RegistrationService {
	t.Helper()
	svc := NewRegistrationService(e.repos.Students, e.repos.Supervisors, e.repos.SeniorTutors, e.guard, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func (e *testEnv) meetings() *MeetingService {
	return NewMeetingService(e.db, e.repos.Students, e.repos.Supervisors, e.guard, zerolog.Nop())
}

func (e *testEnv) messages(now time.Time) *MessageService {
	svc := NewMessageService(e.repos.Messages, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

// mustStudent registers a student through the real registration path so the
// aggregate carries a code, a hashed password, and a started deadline clock.
func (e *testEnv) mustStudent(t *testing.T, reg *RegistrationService, username string, supervisorID int64) *models.Student {
	t.Helper()
	student, err := reg.RegisterStudent(context.Background(), username, "Student "+username, "secret123", 1, supervisorID)
	if err != nil {
		t.Fatalf("register student %s: %v", username, err)
	}
	return student
}

func (e *testEnv) mustSupervisor(t *testing.T, reg *RegistrationService, username string) *models.PersonalSupervisor {
	t.Helper()
	supervisor, err := reg.RegisterSupervisor(context.Background(), username, "Supervisor "+username, "secret123")
	if err != nil {
		t.Fatalf("register supervisor %s: %v", username, err)
	}
	return supervisor
}
