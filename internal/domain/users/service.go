package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"lumigente/internal/domain/hierarchy"
)

type Service struct {
	Store      StoreAPI
	Org        hierarchy.StoreAPI
	Classifier *hierarchy.Classifier
	Levels     *hierarchy.Calculator
}

func NewService(store StoreAPI, org hierarchy.StoreAPI, classifier *hierarchy.Classifier, levels *hierarchy.Calculator) *Service {
	return &Service{Store: store, Org: org, Classifier: classifier, Levels: levels}
}

func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.Store.GetByID(ctx, id)
}

func (s *Service) Member(a Account) Member {
	return Member{
		ID:                    a.ID,
		FullName:              a.FullName,
		EmployeeNumber:        a.EmployeeNumber,
		Department:            a.Department,
		DepartmentDescription: a.DepartmentDescription,
		HierarchyPath:         a.HierarchyPath,
		HierarchyLevel:        s.Levels.LevelFor(a.HierarchyPath, a.DepartmentDescription),
	}
}

func (s *Service) members(accounts []Account) []Member {
	out := make([]Member, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, s.Member(a))
	}
	return out
}

// GetAccessibleUsers lists the users current may view. Full-access
// departments see every active user, managers see the users of the
// departments they are responsible for plus themselves, everyone else sees
// only themselves.
func (s *Service) GetAccessibleUsers(ctx context.Context, current hierarchy.Subject, filter Filter) ([]Member, error) {
	class, err := s.Classifier.Classify(ctx, current)
	if err != nil {
		return nil, err
	}

	if class.IsFullAccess {
		all, err := s.Store.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active users: %w", err)
		}
		out := make([]Account, 0, len(all))
		for _, a := range all {
			if filter.matches(a) {
				out = append(out, a)
			}
		}
		return s.members(out), nil
	}

	self, err := s.self(ctx, current)
	if err != nil {
		return nil, err
	}
	if !class.IsManager {
		return s.members(self), nil
	}

	departments, numbers := scope(class.ManagedDepartments)
	team, err := s.Store.ListActiveInDepartments(ctx, departments, numbers)
	if err != nil {
		return nil, fmt.Errorf("list managed users: %w", err)
	}

	out := union(self, team)
	filtered := out[:0]
	for _, a := range out {
		if a.ID == current.UserID || filter.matches(a) {
			filtered = append(filtered, a)
		}
	}
	sortByName(filtered)
	return s.members(filtered), nil
}

// GetUsersForFeedback lists every active user. Feedback is peer to peer and
// is not restricted by hierarchy.
func (s *Service) GetUsersForFeedback(ctx context.Context) ([]Member, error) {
	all, err := s.Store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return s.members(all), nil
}

// CanAccess is the single-target authorization check.
func (s *Service) CanAccess(current hierarchy.Subject, target Account) bool {
	return hierarchy.CanAccess(
		hierarchy.Party{
			IsAdmin:    current.IsAdmin,
			Level:      s.Levels.LevelFor(current.HierarchyPath, current.DepartmentDescription),
			Department: current.Department,
		},
		hierarchy.Party{
			IsAdmin:    target.IsAdmin,
			Level:      s.Levels.LevelFor(target.HierarchyPath, target.DepartmentDescription),
			Department: target.Department,
		},
	)
}

// Subordinates lists active users in the departments current is responsible
// for, deepest level first.
func (s *Service) Subordinates(ctx context.Context, current hierarchy.Subject) ([]Member, error) {
	class, err := s.Classifier.Classify(ctx, current)
	if err != nil {
		return nil, err
	}
	departments, numbers := scope(class.ManagedDepartments)
	team, err := s.Store.ListActiveInDepartments(ctx, departments, numbers)
	if err != nil {
		return nil, fmt.Errorf("list subordinates: %w", err)
	}
	out := make([]Account, 0, len(team))
	for _, a := range team {
		if a.ID != current.UserID {
			out = append(out, a)
		}
	}
	return s.byLevel(out), nil
}

// Superiors lists the active responsibles above current: the ancestor-level
// responsibles of the nodes current heads or belongs to, and the head of
// current's own department.
func (s *Service) Superiors(ctx context.Context, current hierarchy.Subject) ([]Member, error) {
	self := strings.TrimSpace(current.EmployeeNumber)
	headed, err := s.Org.NodesByResponsible(ctx, self, current.CPF)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hierarchy.ErrDataSource, err)
	}
	var member []hierarchy.Node
	if dept := strings.TrimSpace(current.Department); dept != "" {
		member, err = s.Org.NodesByDepartment(ctx, dept)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", hierarchy.ErrDataSource, err)
		}
	}

	seen := map[string]struct{}{}
	var numbers []string
	add := func(number string) {
		number = strings.TrimSpace(number)
		if number == "" || number == self {
			return
		}
		if _, ok := seen[number]; ok {
			return
		}
		seen[number] = struct{}{}
		numbers = append(numbers, number)
	}
	for _, node := range append(headed, member...) {
		for _, level := range node.Levels {
			add(level.ResponsibleNumber)
		}
	}
	for _, node := range member {
		add(node.ResponsibleNumber)
	}

	accounts, err := s.Store.ListActiveByEmployeeNumbers(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("list superiors: %w", err)
	}
	out := accounts[:0]
	for _, a := range accounts {
		if a.ID != current.UserID {
			out = append(out, a)
		}
	}
	return s.byLevel(out), nil
}

func (s *Service) DepartmentStats(ctx context.Context) ([]DepartmentCount, error) {
	return s.Store.CountActiveByDepartment(ctx)
}

func (s *Service) self(ctx context.Context, current hierarchy.Subject) ([]Account, error) {
	account, err := s.Store.GetByID(ctx, current.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	if !account.IsActive {
		return nil, nil
	}
	return []Account{account}, nil
}

func (s *Service) byLevel(accounts []Account) []Member {
	members := s.members(accounts)
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].HierarchyLevel != members[j].HierarchyLevel {
			return members[i].HierarchyLevel > members[j].HierarchyLevel
		}
		return members[i].FullName < members[j].FullName
	})
	return members
}

// scope turns the departments a manager is responsible for into the
// department names and responsible numbers to match employees against.
func scope(managed []hierarchy.ManagedDepartment) (departments, numbers []string) {
	seenDept := map[string]struct{}{}
	seenNumber := map[string]struct{}{}
	for _, dept := range managed {
		if !dept.IsResponsible() {
			continue
		}
		for _, name := range []string{dept.Code, dept.Description} {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			if _, ok := seenDept[name]; !ok {
				seenDept[name] = struct{}{}
				departments = append(departments, name)
			}
		}
		if number := strings.TrimSpace(dept.Responsible); number != "" {
			if _, ok := seenNumber[number]; !ok {
				seenNumber[number] = struct{}{}
				numbers = append(numbers, number)
			}
		}
	}
	return departments, numbers
}

// union concatenates the lists keeping the first account seen for each id.
func union(lists ...[]Account) []Account {
	seen := map[string]struct{}{}
	var out []Account
	for _, list := range lists {
		for _, a := range list {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

func sortByName(accounts []Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].FullName != accounts[j].FullName {
			return accounts[i].FullName < accounts[j].FullName
		}
		return accounts[i].ID < accounts[j].ID
	})
}
