package employee

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// SelectCanonical returns the authoritative record for cpf. The cpf may be
// formatted; it is normalized before querying.
func (s *Service) SelectCanonical(ctx context.Context, cpf string) (Record, error) {
	normalized := NormalizeCPF(cpf)
	if len(normalized) != 11 {
		return Record{}, ErrInvalidCPF
	}
	rows, err := s.Store.RecordsByCPF(ctx, normalized)
	if err != nil {
		return Record{}, fmt.Errorf("load employee records: %w", err)
	}
	best, ok := SelectCanonical(rows)
	if !ok {
		return Record{}, ErrNotFound
	}
	return best, nil
}

// ByNumber returns the authoritative record carrying employeeNumber,
// restricted to cpf when one is given.
func (s *Service) ByNumber(ctx context.Context, employeeNumber, cpf string) (Record, error) {
	if strings.TrimSpace(employeeNumber) == "" {
		return Record{}, ErrNotFound
	}
	rows, err := s.Store.RecordsByNumber(ctx, employeeNumber)
	if err != nil {
		return Record{}, fmt.Errorf("load employee records: %w", err)
	}
	if normalized := NormalizeCPF(cpf); normalized != "" {
		filtered := rows[:0:0]
		for _, row := range rows {
			if NormalizeCPF(row.CPF) == normalized {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	best, ok := SelectCanonical(rows)
	if !ok {
		return Record{}, ErrNotFound
	}
	return best, nil
}

// CanonicalAll returns one authoritative record per CPF in the feed.
func (s *Service) CanonicalAll(ctx context.Context) ([]Record, error) {
	rows, err := s.Store.AllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load employee records: %w", err)
	}
	return CanonicalByCPF(rows), nil
}
