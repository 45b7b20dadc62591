package employee

import "errors"

var (
	ErrNotFound   = errors.New("employee record not found")
	ErrInvalidCPF = errors.New("invalid cpf")
)
