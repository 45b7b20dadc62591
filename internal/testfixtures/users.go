package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lumigente/internal/domain/employee"
	"lumigente/internal/domain/users"
)

// UserStore is an in-memory users.StoreAPI. Department membership queries
// join against Feed the way the SQL store joins employee_records.
type UserStore struct {
	mu       sync.Mutex
	accounts map[string]users.Account
	nextID   int
	Feed     *EmployeeFeed
	Clock    *Clock
	Err      error
}

func NewUserStore(feed *EmployeeFeed, clock *Clock) *UserStore {
	return &UserStore{accounts: map[string]users.Account{}, Feed: feed, Clock: clock}
}

func (s *UserStore) now() time.Time {
	return s.Clock.NowFunc()()
}

// Put stores a copy of a, assigning an id when it has none.
func (s *UserStore) Put(a users.Account) users.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		s.nextID++
		a.ID = fmt.Sprintf("user-%03d", s.nextID)
	}
	a.CPF = employee.NormalizeCPF(a.CPF)
	if a.Username == "" {
		a.Username = a.CPF
	}
	s.accounts[a.ID] = a
	return a
}

func (s *UserStore) list(keep func(users.Account) bool) ([]users.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []users.Account
	for _, a := range s.accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (users.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return users.Account{}, s.Err
	}
	a, ok := s.accounts[id]
	if !ok {
		return users.Account{}, users.ErrNotFound
	}
	return a, nil
}

func (s *UserStore) GetByCPF(_ context.Context, cpf string) (users.Account, error) {
	cpf = employee.NormalizeCPF(cpf)
	found, err := s.list(func(a users.Account) bool { return a.CPF == cpf })
	if err != nil {
		return users.Account{}, err
	}
	if len(found) == 0 {
		return users.Account{}, users.ErrNotFound
	}
	return found[0], nil
}

func (s *UserStore) ListAll(context.Context) ([]users.Account, error) {
	return s.list(func(users.Account) bool { return true })
}

func (s *UserStore) ListActive(context.Context) ([]users.Account, error) {
	return s.list(func(a users.Account) bool { return a.IsActive })
}

func (s *UserStore) ListActiveInDepartments(ctx context.Context, departments, numbers []string) ([]users.Account, error) {
	if len(departments) == 0 && len(numbers) == 0 {
		return nil, nil
	}
	records, err := s.Feed.AllRecords(ctx)
	if err != nil {
		return nil, err
	}
	deptSet := toSet(departments)
	numberSet := toSet(numbers)
	matching := map[string]struct{}{}
	for _, rec := range records {
		if !rec.IsActive() {
			continue
		}
		_, inDept := deptSet[strings.TrimSpace(rec.Department)]
		_, isResp := numberSet[strings.TrimSpace(rec.EmployeeNumber)]
		if inDept || isResp {
			matching[employee.NormalizeCPF(rec.CPF)+"|"+strings.TrimSpace(rec.EmployeeNumber)] = struct{}{}
		}
	}
	return s.list(func(a users.Account) bool {
		_, ok := matching[a.CPF+"|"+strings.TrimSpace(a.EmployeeNumber)]
		return a.IsActive && ok
	})
}

func (s *UserStore) ListActiveByEmployeeNumbers(_ context.Context, numbers []string) ([]users.Account, error) {
	set := toSet(numbers)
	return s.list(func(a users.Account) bool {
		_, ok := set[strings.TrimSpace(a.EmployeeNumber)]
		return a.IsActive && ok
	})
}

func (s *UserStore) CountActiveByDepartment(ctx context.Context) ([]users.DepartmentCount, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]*users.DepartmentCount{}
	for _, a := range active {
		dc, ok := counts[a.Department]
		if !ok {
			dc = &users.DepartmentCount{Department: a.Department, Description: a.DepartmentDescription}
			counts[a.Department] = dc
		}
		dc.ActiveUsers++
	}
	out := make([]users.DepartmentCount, 0, len(counts))
	for _, dc := range counts {
		out = append(out, *dc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActiveUsers != out[j].ActiveUsers {
			return out[i].ActiveUsers > out[j].ActiveUsers
		}
		return out[i].Department < out[j].Department
	})
	return out, nil
}

func (s *UserStore) Create(ctx context.Context, cpf string, p users.Profile) (users.Account, error) {
	if _, err := s.GetByCPF(ctx, cpf); err == nil {
		return users.Account{}, users.ErrConflict
	}
	now := s.now()
	return s.Put(users.Account{
		CPF:                   cpf,
		EmployeeNumber:        p.EmployeeNumber,
		FullName:              p.FullName,
		FirstName:             p.FirstName,
		Department:            p.Department,
		DepartmentDescription: p.DepartmentDescription,
		Branch:                p.Branch,
		HierarchyPath:         p.HierarchyPath,
		IsActive:              p.Active,
		FirstLogin:            true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}), nil
}

func (s *UserStore) ApplyProfile(_ context.Context, id string, p users.Profile) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	changed := a.Profile().Differs(p)
	if len(changed) == 0 {
		return nil, nil
	}
	a.EmployeeNumber = p.EmployeeNumber
	a.FullName = p.FullName
	a.FirstName = p.FirstName
	a.Department = p.Department
	a.DepartmentDescription = p.DepartmentDescription
	a.Branch = p.Branch
	a.HierarchyPath = p.HierarchyPath
	a.IsActive = p.Active
	a.UpdatedAt = s.Clock.NowFunc()()
	s.accounts[id] = a
	return changed, nil
}

func (s *UserStore) update(id string, fn func(*users.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.accounts[id]
	if !ok {
		return users.ErrNotFound
	}
	fn(&a)
	s.accounts[id] = a
	return nil
}

func (s *UserStore) Deactivate(_ context.Context, id string) error {
	return s.update(id, func(a *users.Account) { a.IsActive = false })
}

func (s *UserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(a *users.Account) { a.LastLogin = &at })
}

func (s *UserStore) SetPassword(_ context.Context, id, hash string) error {
	return s.update(id, func(a *users.Account) {
		a.PasswordHash = hash
		a.FirstLogin = false
	})
}

func (s *UserStore) SetAdmin(ctx context.Context, cpf string, admin bool) error {
	a, err := s.GetByCPF(ctx, cpf)
	if err != nil {
		return err
	}
	return s.update(a.ID, func(a *users.Account) { a.IsAdmin = admin })
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}
