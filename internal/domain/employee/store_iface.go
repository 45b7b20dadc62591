package employee

import "context"

// StoreAPI reads the HR employee feed.
type StoreAPI interface {
	RecordsByCPF(ctx context.Context, cpf string) ([]Record, error)
	RecordsByNumber(ctx context.Context, employeeNumber string) ([]Record, error)
	AllRecords(ctx context.Context) ([]Record, error)
}
