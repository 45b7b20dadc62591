package hierarchy

import "context"

// StoreAPI reads the org chart feed.
type StoreAPI interface {
	// NodesByResponsible returns nodes whose responsible is employeeNumber.
	// When cpf is set, nodes with a different non-empty responsible CPF are
	// excluded.
	NodesByResponsible(ctx context.Context, employeeNumber, cpf string) ([]Node, error)
	// NodesByDepartment matches the trimmed department code.
	NodesByDepartment(ctx context.Context, deptCode string) ([]Node, error)
	// NodesManagedBy returns nodes where employeeNumber is the responsible or
	// the responsible of any ancestor level. The responsible arm applies the
	// same CPF guard as NodesByResponsible.
	NodesManagedBy(ctx context.Context, employeeNumber, cpf string) ([]Node, error)
	// NodesWithPathSegment returns nodes whose path mentions segment, ignoring
	// case and accents.
	// Callers must confirm segment-wise containment.
	NodesWithPathSegment(ctx context.Context, segment string) ([]Node, error)
}
