package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lumigente/internal/domain/audit"
	"lumigente/internal/domain/employee"
	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/platform/logger"
	"lumigente/internal/requestctx"
)

type Resolver interface {
	Resolve(ctx context.Context, employeeNumber, cpf string) hierarchy.Resolution
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

type Settings struct {
	Secret      string
	SessionTTL  time.Duration
	SpecialCPFs []string
}

type Service struct {
	Employees *employee.Service
	Users     users.StoreAPI
	Org       hierarchy.StoreAPI
	Resolver  Resolver
	Levels    *hierarchy.Calculator
	Sessions  SessionStore
	Audit     Auditor
	Secret    string
	TTL       time.Duration
	Now       func() time.Time
	special   map[string]struct{}
}

func NewService(employees *employee.Service, accounts users.StoreAPI, org hierarchy.StoreAPI, resolver Resolver, levels *hierarchy.Calculator, sessions SessionStore, auditor Auditor, settings Settings) *Service {
	special := make(map[string]struct{}, len(settings.SpecialCPFs))
	for _, cpf := range settings.SpecialCPFs {
		if cpf = employee.NormalizeCPF(cpf); cpf != "" {
			special[cpf] = struct{}{}
		}
	}
	ttl := settings.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{
		Employees: employees,
		Users:     accounts,
		Org:       org,
		Resolver:  resolver,
		Levels:    levels,
		Sessions:  sessions,
		Audit:     auditor,
		Secret:    settings.Secret,
		TTL:       ttl,
		Now:       time.Now,
		special:   special,
	}
}

// IsSpecial reports whether cpf may log in without an active employee record.
func (s *Service) IsSpecial(cpf string) bool {
	_, ok := s.special[employee.NormalizeCPF(cpf)]
	return ok
}

// Login authenticates by CPF and password and returns the session snapshot.
// Profile drift found at login is written back before the snapshot is taken.
func (s *Service) Login(ctx context.Context, cpf, password string) (Principal, error) {
	if !employee.ValidCPF(cpf) || password == "" {
		return Principal{}, ErrInvalidCPF
	}
	cpf = employee.NormalizeCPF(cpf)

	rec, err := s.Employees.SelectCanonical(ctx, cpf)
	if errors.Is(err, employee.ErrNotFound) {
		return Principal{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Principal{}, err
	}
	special := s.IsSpecial(cpf)
	if !rec.IsActive() && !special {
		return Principal{}, ErrEmployeeInactive
	}

	account, err := s.Users.GetByCPF(ctx, cpf)
	if errors.Is(err, users.ErrNotFound) {
		return Principal{}, ErrAccountNotFound
	}
	if err != nil {
		return Principal{}, fmt.Errorf("load user: %w", err)
	}
	switch {
	case account.FirstLogin:
		return Principal{}, ErrRegistrationRequired
	case !account.IsActive:
		return Principal{}, ErrAccountInactive
	case !account.HasPassword():
		return Principal{}, ErrPasswordNotSet
	}
	if err := CheckPassword(account.PasswordHash, password); err != nil {
		return Principal{}, ErrInvalidCredentials
	}

	account = s.correctDrift(ctx, account, rec, special)

	log := logger.From(ctx)
	if err := s.Users.UpdateLastLogin(ctx, account.ID, s.Now()); err != nil {
		log.Warn().Err(err).Str("userId", account.ID).Msg("update last login failed")
	}
	return PrincipalFor(account, s.Levels), nil
}

// correctDrift rewrites the account's feed-derived fields when they no longer
// match the canonical record. Failures keep the stored values.
func (s *Service) correctDrift(ctx context.Context, account users.Account, rec employee.Record, special bool) users.Account {
	log := logger.From(ctx)
	res := s.Resolver.Resolve(ctx, rec.EmployeeNumber, rec.CPF)
	if res.Source == hierarchy.SourceError {
		return account
	}
	description, err := hierarchy.DescribeDepartment(ctx, s.Org, rec.Department)
	if err != nil {
		log.Warn().Err(err).Str("userId", account.ID).Msg("department lookup failed")
		return account
	}
	profile := users.ProfileFor(rec, res.Path, description)
	profile.Active = profile.Active || special

	changed, err := s.Users.ApplyProfile(ctx, account.ID, profile)
	if err != nil {
		log.Warn().Err(err).Str("userId", account.ID).Msg("login profile update failed")
		return account
	}
	if len(changed) == 0 {
		return account
	}
	log.Info().Str("userId", account.ID).Strs("fields", changed).Msg("profile drift corrected at login")
	account.EmployeeNumber = profile.EmployeeNumber
	account.FullName = profile.FullName
	account.FirstName = profile.FirstName
	account.Department = profile.Department
	account.DepartmentDescription = profile.DepartmentDescription
	account.Branch = profile.Branch
	account.HierarchyPath = profile.HierarchyPath
	account.IsActive = profile.Active
	return account
}

// StartSession persists a new session for p and signs its token.
func (s *Service) StartSession(ctx context.Context, p Principal) (string, time.Time, error) {
	p.SessionID = uuid.NewString()
	expires := s.Now().Add(s.TTL)
	if err := s.Sessions.CreateSession(ctx, p.SessionID, p.UserID, expires); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	token, err := GenerateToken(s.Secret, Claims{User: p}, s.TTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return s.Sessions.RevokeSession(ctx, sessionID)
}

// SessionActive satisfies the session checker used by the auth middleware.
func (s *Service) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	return s.Sessions.SessionValid(ctx, sessionID)
}

// Register sets the first password of an account created by sync.
func (s *Service) Register(ctx context.Context, cpf, password string) error {
	if !employee.ValidCPF(cpf) {
		return ErrInvalidCPF
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	account, err := s.Users.GetByCPF(ctx, cpf)
	if errors.Is(err, users.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !account.FirstLogin {
		return ErrAlreadyRegistered
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Users.SetPassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	s.record(ctx, account.ID, audit.ActionRegister, account.ID)
	return nil
}

type CPFStatus struct {
	Exists     bool `json:"exists"`
	Registered bool `json:"registered"`
}

// CheckCPF tells the login page whether cpf has an account and whether it
// still needs registration.
func (s *Service) CheckCPF(ctx context.Context, cpf string) (CPFStatus, error) {
	if !employee.ValidCPF(cpf) {
		return CPFStatus{}, ErrInvalidCPF
	}
	account, err := s.Users.GetByCPF(ctx, cpf)
	if errors.Is(err, users.ErrNotFound) {
		return CPFStatus{}, nil
	}
	if err != nil {
		return CPFStatus{}, fmt.Errorf("load user: %w", err)
	}
	return CPFStatus{Exists: true, Registered: !account.FirstLogin}, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || len(next) < MinPasswordLength {
		return ErrWeakPassword
	}
	account, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !account.HasPassword() || CheckPassword(account.PasswordHash, current) != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.Users.SetPassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	s.record(ctx, userID, audit.ActionPasswordChange, account.ID)
	return nil
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actorID, action, audit.EntityUser, entityID, requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx), nil, nil); err != nil {
		logger.From(ctx).Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
