package usersync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lumigente/internal/domain/audit"
	"lumigente/internal/domain/employee"
	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/platform/logger"
	"lumigente/internal/requestctx"
)

const defaultConcurrency = 4

// SystemActor is the audit actor for unattended runs.
const SystemActor = "system"

type Resolver interface {
	Resolve(ctx context.Context, employeeNumber, cpf string) hierarchy.Resolution
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeUpdated     Outcome = "updated"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeDeactivated Outcome = "deactivated"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeFailed      Outcome = "failed"
)

type Result struct {
	Employees   int       `json:"employees"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Unchanged   int       `json:"unchanged"`
	Deactivated int       `json:"deactivated"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

func (r *Result) add(o Outcome) {
	switch o {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeDeactivated:
		r.Deactivated++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

type Settings struct {
	Concurrency int
	SpecialCPFs []string
}

// Synchronizer reconciles user accounts with the HR feed. It creates accounts
// for active employees, corrects drifted profile fields and deactivates
// accounts whose CPF no longer has an active record, except special users,
// who stay active. Passwords are never touched. Running it twice in a row
// changes nothing the second time.
type Synchronizer struct {
	Employees   *employee.Service
	Users       users.StoreAPI
	Org         hierarchy.StoreAPI
	Resolver    Resolver
	Audit       Auditor
	Concurrency int
	Now         func() time.Time
	special     map[string]struct{}
}

func New(employees *employee.Service, accounts users.StoreAPI, org hierarchy.StoreAPI, resolver Resolver, auditor Auditor, settings Settings) *Synchronizer {
	concurrency := settings.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	special := make(map[string]struct{}, len(settings.SpecialCPFs))
	for _, cpf := range settings.SpecialCPFs {
		if cpf = employee.NormalizeCPF(cpf); cpf != "" {
			special[cpf] = struct{}{}
		}
	}
	return &Synchronizer{
		Employees:   employees,
		Users:       accounts,
		Org:         org,
		Resolver:    resolver,
		Audit:       auditor,
		Concurrency: concurrency,
		Now:         time.Now,
		special:     special,
	}
}

func (s *Synchronizer) isSpecial(cpf string) bool {
	_, ok := s.special[employee.NormalizeCPF(cpf)]
	return ok
}

// SyncAll reconciles every account. Failures on individual employees are
// counted and logged without aborting the run; failing to read either feed
// aborts it.
func (s *Synchronizer) SyncAll(ctx context.Context) (Result, error) {
	result := Result{StartedAt: s.Now()}
	log := logger.From(ctx)

	records, err := s.Employees.CanonicalAll(ctx)
	if err != nil {
		return result, fmt.Errorf("sync: %w", err)
	}
	accounts, err := s.Users.ListAll(ctx)
	if err != nil {
		return result, fmt.Errorf("sync: list users: %w", err)
	}
	byCPF := make(map[string]users.Account, len(accounts))
	for _, a := range accounts {
		byCPF[employee.NormalizeCPF(a.CPF)] = a
	}
	result.Employees = len(records)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		cpf := employee.NormalizeCPF(rec.CPF)
		seen[cpf] = struct{}{}
		account, has := byCPF[cpf]
		g.Go(func() error {
			outcome, err := s.apply(gctx, rec, account, has)
			if err != nil {
				log.Warn().Err(err).Str("cpf", employee.MaskCPF(cpf)).Msg("sync employee failed")
				outcome = OutcomeFailed
			}
			mu.Lock()
			result.add(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	for cpf, account := range byCPF {
		if _, ok := seen[cpf]; ok || !account.IsActive || s.isSpecial(cpf) {
			continue
		}
		if err := s.Users.Deactivate(ctx, account.ID); err != nil && !errors.Is(err, users.ErrNotFound) {
			log.Warn().Err(err).Str("userId", account.ID).Msg("sync deactivate failed")
			result.add(OutcomeFailed)
			continue
		}
		result.add(OutcomeDeactivated)
	}

	result.FinishedAt = s.Now()
	log.Info().
		Int("employees", result.Employees).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deactivated", result.Deactivated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("took", result.FinishedAt.Sub(result.StartedAt)).
		Msg("user sync finished")
	s.record(ctx, audit.ActionSyncAll, "", result)
	return result, nil
}

// SyncOne reconciles a single account against its canonical record.
func (s *Synchronizer) SyncOne(ctx context.Context, userID string) (Outcome, error) {
	account, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return OutcomeFailed, err
	}
	rec, err := s.Employees.SelectCanonical(ctx, account.CPF)
	var outcome Outcome
	switch {
	case errors.Is(err, employee.ErrNotFound) && s.isSpecial(account.CPF):
		outcome = OutcomeUnchanged
	case errors.Is(err, employee.ErrNotFound):
		outcome, err = s.deactivate(ctx, account)
	case err != nil:
		return OutcomeFailed, fmt.Errorf("sync user: %w", err)
	default:
		outcome, err = s.apply(ctx, rec, account, true)
	}
	if err != nil {
		return OutcomeFailed, err
	}
	s.record(ctx, audit.ActionSyncUser, account.ID, map[string]any{"outcome": outcome})
	return outcome, nil
}

func (s *Synchronizer) apply(ctx context.Context, rec employee.Record, account users.Account, has bool) (Outcome, error) {
	special := s.isSpecial(rec.CPF)
	if !rec.IsActive() && !special {
		if !has {
			return OutcomeUnchanged, nil
		}
		return s.deactivate(ctx, account)
	}
	if !rec.IsActive() && !has {
		return OutcomeUnchanged, nil
	}

	res := s.Resolver.Resolve(ctx, rec.EmployeeNumber, rec.CPF)
	if res.Source == hierarchy.SourceError {
		return OutcomeSkipped, nil
	}
	description, err := hierarchy.DescribeDepartment(ctx, s.Org, rec.Department)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %v", hierarchy.ErrDataSource, err)
	}
	profile := users.ProfileFor(rec, res.Path, description)
	profile.Active = profile.Active || special

	if !has {
		_, err := s.Users.Create(ctx, rec.CPF, profile)
		if err == nil {
			return OutcomeCreated, nil
		}
		if !errors.Is(err, users.ErrConflict) {
			return OutcomeFailed, err
		}
		// Created concurrently; fall through to an update.
		account, err = s.Users.GetByCPF(ctx, rec.CPF)
		if err != nil {
			return OutcomeFailed, err
		}
	}

	changed, err := s.Users.ApplyProfile(ctx, account.ID, profile)
	if err != nil {
		return OutcomeFailed, err
	}
	if len(changed) == 0 {
		return OutcomeUnchanged, nil
	}
	return OutcomeUpdated, nil
}

func (s *Synchronizer) deactivate(ctx context.Context, account users.Account) (Outcome, error) {
	if !account.IsActive {
		return OutcomeUnchanged, nil
	}
	if err := s.Users.Deactivate(ctx, account.ID); err != nil && !errors.Is(err, users.ErrNotFound) {
		return OutcomeFailed, err
	}
	return OutcomeDeactivated, nil
}

func (s *Synchronizer) record(ctx context.Context, action, entityID string, details any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, SystemActor, action, audit.EntitySync, entityID, requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx), nil, details); err != nil {
		logger.From(ctx).Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
