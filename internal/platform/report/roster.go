package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"lumigente/internal/domain/users"
)

// Roster is a team listing rendered for a manager.
type Roster struct {
	Title       string
	Owner       string
	GeneratedAt time.Time
	Members     []users.Member
}

var rosterColumns = []struct {
	title string
	width float64
}{
	{"Matrícula", 22},
	{"Nome", 68},
	{"Departamento", 45},
	{"Nível", 15},
	{"Hierarquia", 127},
}

// WriteTeamRoster renders r as a landscape A4 PDF.
func WriteTeamRoster(w io.Writer, r Roster) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(r.Title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(r.Title))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Gestor: %s", r.Owner)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Gerado em: %s  |  Colaboradores: %d", r.GeneratedAt.Format("02/01/2006 15:04"), len(r.Members))))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range rosterColumns {
		pdf.CellFormat(col.width, 7, tr(col.title), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, m := range r.Members {
		department := m.DepartmentDescription
		if department == "" {
			department = m.Department
		}
		cells := []string{m.EmployeeNumber, m.FullName, department, strconv.Itoa(m.HierarchyLevel), m.HierarchyPath}
		for i, col := range rosterColumns {
			pdf.CellFormat(col.width, 6, tr(truncate(pdf, cells[i], col.width-2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// truncate shortens s until it fits width at the current font.
func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
