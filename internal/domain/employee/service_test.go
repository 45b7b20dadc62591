package employee_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumigente/internal/domain/employee"
	"lumigente/internal/testfixtures"
)

func TestServiceSelectCanonical(t *testing.T) {
	ref := testfixtures.ReferenceTime()
	old := testfixtures.Employee("52998224725", "100", "Ana Souza", "D1", ref.AddDate(-5, 0, 0))
	old.GeneralStatus = "DEMITIDO"
	current := testfixtures.Employee("52998224725", "200", "Ana Souza", "D2", ref.AddDate(-1, 0, 0))
	svc := employee.NewService(testfixtures.NewEmployeeFeed(old, current))

	rec, err := svc.SelectCanonical(context.Background(), "529.982.247-25")
	require.NoError(t, err)
	assert.Equal(t, "200", rec.EmployeeNumber)
	assert.Equal(t, "D2", rec.Department)
}

func TestServiceSelectCanonicalErrors(t *testing.T) {
	feed := testfixtures.NewEmployeeFeed()
	svc := employee.NewService(feed)
	ctx := context.Background()

	_, err := svc.SelectCanonical(ctx, "123")
	assert.ErrorIs(t, err, employee.ErrInvalidCPF)

	_, err = svc.SelectCanonical(ctx, "52998224725")
	assert.ErrorIs(t, err, employee.ErrNotFound)

	boom := errors.New("feed down")
	feed.Err = boom
	_, err = svc.SelectCanonical(ctx, "52998224725")
	assert.ErrorIs(t, err, boom)
}

func TestServiceByNumberFiltersCPF(t *testing.T) {
	ref := testfixtures.ReferenceTime()
	svc := employee.NewService(testfixtures.NewEmployeeFeed(
		testfixtures.Employee("52998224725", "100", "Ana Souza", "D1", ref),
		testfixtures.Employee("11144477735", "100", "Bruno Lima", "D9", ref),
	))
	ctx := context.Background()

	rec, err := svc.ByNumber(ctx, "100", "111.444.777-35")
	require.NoError(t, err)
	assert.Equal(t, "Bruno Lima", rec.FullName)

	_, err = svc.ByNumber(ctx, "100", "12345678909")
	assert.ErrorIs(t, err, employee.ErrNotFound)

	_, err = svc.ByNumber(ctx, " ", "")
	assert.ErrorIs(t, err, employee.ErrNotFound)
}

func TestServiceCanonicalAll(t *testing.T) {
	ref := testfixtures.ReferenceTime()
	svc := employee.NewService(testfixtures.NewEmployeeFeed(
		testfixtures.Employee("52998224725", "100", "Ana Souza", "D1", ref.AddDate(-2, 0, 0)),
		testfixtures.Employee("52998224725", "101", "Ana Souza", "D1", ref),
		testfixtures.Employee("11144477735", "300", "Bruno Lima", "D2", ref),
	))

	all, err := svc.CanonicalAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "300", all[0].EmployeeNumber)
	assert.Equal(t, "101", all[1].EmployeeNumber)
}
