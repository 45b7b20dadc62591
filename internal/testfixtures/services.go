package testfixtures

import (
	"context"
	"testing"
	"time"

	"lumigente/internal/domain/auth"
	"lumigente/internal/domain/employee"
	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/domain/usersync"
)

const (
	Secret   = "fixture-secret"
	Password = "segredo1"
)

// Services wires every domain service over the in-memory stores, the same
// way the server wires them over PostgreSQL.
type Services struct {
	Clock    *Clock
	Feed     *EmployeeFeed
	Org      *OrgChart
	Users    *UserStore
	Sessions *SessionStore
	Audit    *AuditLog

	Levels     *hierarchy.Calculator
	Access     *hierarchy.AccessTable
	Employees  *employee.Service
	Resolver   *hierarchy.Resolver
	Classifier *hierarchy.Classifier
	Directory  *users.Service
	Auth       *auth.Service
	Sync       *usersync.Synchronizer
}

func NewServices(fullAccess []string, nodes ...hierarchy.Node) *Services {
	clock := NewClock(ReferenceTime())
	feed := NewEmployeeFeed()
	org := NewOrgChart(nodes...)
	store := NewUserStore(feed, clock)
	sessions := NewSessionStore(clock)
	log := &AuditLog{}

	levels := hierarchy.NewCalculator(hierarchy.DefaultDelimiter, nil)
	access := hierarchy.NewAccessTable(fullAccess)
	employees := employee.NewService(feed)
	resolver := hierarchy.NewResolver(employees, org, levels, nil)
	classifier := hierarchy.NewClassifier(org, levels, access)

	authSvc := auth.NewService(employees, store, org, resolver, levels, sessions, log, auth.Settings{
		Secret:     Secret,
		SessionTTL: time.Hour,
	})
	authSvc.Now = clock.Now
	syncer := usersync.New(employees, store, org, resolver, log, usersync.Settings{Concurrency: 2})
	syncer.Now = clock.Now

	return &Services{
		Clock:      clock,
		Feed:       feed,
		Org:        org,
		Users:      store,
		Sessions:   sessions,
		Audit:      log,
		Levels:     levels,
		Access:     access,
		Employees:  employees,
		Resolver:   resolver,
		Classifier: classifier,
		Directory:  users.NewService(store, org, classifier, levels),
		Auth:       authSvc,
		Sync:       syncer,
	}
}

// Hire adds an active employee record admitted a year before the clock.
func (s *Services) Hire(cpf, number, name, department string) {
	s.Feed.Add(Employee(cpf, number, name, department, s.Clock.Now().AddDate(-1, 0, 0)))
}

// Onboard syncs the feed into accounts and gives every account Password,
// returning them keyed by CPF.
func (s *Services) Onboard(tb testing.TB) map[string]users.Account {
	tb.Helper()
	ctx := context.Background()
	if _, err := s.Sync.SyncAll(ctx); err != nil {
		tb.Fatalf("sync: %v", err)
	}
	hash, err := auth.HashPassword(Password)
	if err != nil {
		tb.Fatalf("hash: %v", err)
	}
	all, err := s.Users.ListAll(ctx)
	if err != nil {
		tb.Fatalf("list users: %v", err)
	}
	out := make(map[string]users.Account, len(all))
	for _, a := range all {
		if err := s.Users.SetPassword(ctx, a.ID, hash); err != nil {
			tb.Fatalf("set password: %v", err)
		}
		a, _ = s.Users.GetByID(ctx, a.ID)
		out[a.CPF] = a
	}
	return out
}

// Login signs cpf in and returns its session token.
func (s *Services) Login(tb testing.TB, cpf string) (string, auth.Principal) {
	tb.Helper()
	ctx := context.Background()
	p, err := s.Auth.Login(ctx, cpf, Password)
	if err != nil {
		tb.Fatalf("login %s: %v", cpf, err)
	}
	token, _, err := s.Auth.StartSession(ctx, p)
	if err != nil {
		tb.Fatalf("start session: %v", err)
	}
	return token, p
}
