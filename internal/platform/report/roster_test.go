package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"lumigente/internal/domain/users"
)

func TestWriteTeamRoster(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTeamRoster(&buf, Roster{
		Title:       "Equipe de Vendas",
		Owner:       "Gustavo Gerente",
		GeneratedAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		Members: []users.Member{
			{EmployeeNumber: "100", FullName: "Ana Souza", Department: "D1", DepartmentDescription: "Vendas", HierarchyLevel: 3, HierarchyPath: "DIRETORIA > COMERCIAL > VENDAS"},
			{EmployeeNumber: "101", FullName: "João Conceição", Department: "D1", HierarchyPath: strings.Repeat("NÍVEL > ", 30)},
		},
	})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatal("expected PDF header")
	}
}

func TestWriteTeamRosterEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTeamRoster(&buf, Roster{Title: "Equipe"}); err != nil {
		t.Fatalf("render error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected output")
	}
}
