package usersync_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumigente/internal/domain/audit"
	"lumigente/internal/domain/employee"
	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/domain/usersync"
	"lumigente/internal/testfixtures"
)

type fixture struct {
	feed  *testfixtures.EmployeeFeed
	org   *testfixtures.OrgChart
	store *testfixtures.UserStore
	audit *testfixtures.AuditLog
	sync  *usersync.Synchronizer
}

func newFixture(special ...string) *fixture {
	ref := testfixtures.ReferenceTime()
	terminated := testfixtures.Employee("86288366757", "400", "Davi Rocha", "D2", ref)
	terminated.GeneralStatus = "DEMITIDO"
	feed := testfixtures.NewEmployeeFeed(
		testfixtures.Employee("52998224725", "100", "Ana Souza", "D1", ref),
		testfixtures.Employee("11144477735", "200", "Bruno Lima", "D2", ref),
		testfixtures.Employee("12345678909", "300", "Carla Dias", "D1", ref),
		terminated,
	)
	org := testfixtures.NewOrgChart(
		testfixtures.Node("D1", "900", "EMPRESA > VENDAS"),
		testfixtures.Node("D2", "901", "EMPRESA > FINANCEIRO"),
	)
	clock := testfixtures.NewClock(ref)
	store := testfixtures.NewUserStore(feed, clock)
	log := &testfixtures.AuditLog{}

	employees := employee.NewService(feed)
	resolver := hierarchy.NewResolver(employees, org, hierarchy.NewCalculator(hierarchy.DefaultDelimiter, nil), nil)
	s := usersync.New(employees, store, org, resolver, log, usersync.Settings{Concurrency: 2, SpecialCPFs: special})
	s.Now = clock.Now
	return &fixture{feed: feed, org: org, store: store, audit: log, sync: s}
}

func (f *fixture) seedAccounts() (bruno, davi, eva users.Account) {
	bruno = f.store.Put(users.Account{
		CPF: "11144477735", EmployeeNumber: "200", FullName: "Bruno Lima", FirstName: "Bruno",
		Department: "D9", Branch: "01", PasswordHash: "bcrypt-hash", IsActive: true,
	})
	davi = f.store.Put(users.Account{CPF: "86288366757", EmployeeNumber: "400", FullName: "Davi Rocha", IsActive: true})
	eva = f.store.Put(users.Account{CPF: "39053344705", EmployeeNumber: "500", FullName: "Eva Prado", IsActive: true})
	return bruno, davi, eva
}

func TestSyncAllReconcilesAccounts(t *testing.T) {
	f := newFixture()
	bruno, davi, eva := f.seedAccounts()
	ctx := context.Background()

	result, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Employees)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Deactivated)
	assert.Zero(t, result.Failed)

	ana, err := f.store.GetByCPF(ctx, "529.982.247-25")
	require.NoError(t, err)
	assert.True(t, ana.IsActive)
	assert.True(t, ana.FirstLogin)
	assert.False(t, ana.HasPassword())
	assert.Equal(t, "EMPRESA > VENDAS", ana.HierarchyPath)
	assert.Equal(t, "VENDAS", ana.DepartmentDescription)
	assert.Equal(t, "Ana", ana.FirstName)

	updated, err := f.store.GetByID(ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, "D2", updated.Department)
	assert.Equal(t, "FINANCEIRO", updated.DepartmentDescription)
	assert.Equal(t, "bcrypt-hash", updated.PasswordHash)

	for _, id := range []string{davi.ID, eva.ID} {
		a, err := f.store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, a.IsActive, a.FullName)
	}
	assert.Equal(t, []string{audit.ActionSyncAll}, f.audit.Actions())
}

func TestSyncAllIsIdempotent(t *testing.T) {
	f := newFixture()
	f.seedAccounts()
	ctx := context.Background()

	_, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	before, err := f.store.ListAll(ctx)
	require.NoError(t, err)

	second, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Updated)
	assert.Zero(t, second.Deactivated)
	assert.Equal(t, 4, second.Unchanged)

	after, err := f.store.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSyncAllSkipsWhenOrgChartFails(t *testing.T) {
	f := newFixture()
	bruno, _, _ := f.seedAccounts()
	f.org.Err = errors.New("org chart offline")
	ctx := context.Background()

	result, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Updated)
	assert.Equal(t, 3, result.Skipped)

	kept, err := f.store.GetByID(ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, "D9", kept.Department)
}

func TestSyncAllFailsWhenFeedIsDown(t *testing.T) {
	f := newFixture()
	f.feed.Err = errors.New("feed down")

	_, err := f.sync.SyncAll(context.Background())
	assert.Error(t, err)
	assert.Empty(t, f.audit.Actions())
}

func TestSyncOne(t *testing.T) {
	f := newFixture()
	bruno, _, eva := f.seedAccounts()
	ctx := context.Background()

	outcome, err := f.sync.SyncOne(ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, usersync.OutcomeUpdated, outcome)

	outcome, err = f.sync.SyncOne(ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, usersync.OutcomeUnchanged, outcome)

	outcome, err = f.sync.SyncOne(ctx, eva.ID)
	require.NoError(t, err)
	assert.Equal(t, usersync.OutcomeDeactivated, outcome)

	_, err = f.sync.SyncOne(ctx, "missing")
	assert.ErrorIs(t, err, users.ErrNotFound)
	assert.Equal(t, []string{audit.ActionSyncUser, audit.ActionSyncUser, audit.ActionSyncUser}, f.audit.Actions())
}

func TestSyncKeepsSpecialUsersActive(t *testing.T) {
	f := newFixture("862.883.667-57")
	_, davi, eva := f.seedAccounts()
	ctx := context.Background()

	result, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deactivated)

	kept, err := f.store.GetByID(ctx, davi.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsActive)
	assert.Equal(t, "D2", kept.Department)

	gone, err := f.store.GetByID(ctx, eva.ID)
	require.NoError(t, err)
	assert.False(t, gone.IsActive)

	outcome, err := f.sync.SyncOne(ctx, davi.ID)
	require.NoError(t, err)
	assert.Equal(t, usersync.OutcomeUnchanged, outcome)
	kept, err = f.store.GetByID(ctx, davi.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsActive)
}
