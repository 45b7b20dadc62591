package auth

import "errors"

var (
	ErrInvalidCPF           = errors.New("invalid cpf")
	ErrEmployeeNotFound     = errors.New("cpf not found in the employee base")
	ErrEmployeeInactive     = errors.New("employee is inactive")
	ErrAccountNotFound      = errors.New("user not found")
	ErrRegistrationRequired = errors.New("registration required")
	ErrAccountInactive      = errors.New("user is inactive")
	ErrPasswordNotSet       = errors.New("password not set")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAlreadyRegistered    = errors.New("user already registered")
	ErrWeakPassword         = errors.New("password too short")
)
