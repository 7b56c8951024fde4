package roster

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/roster-graph/internal/model"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// WorkbookName is the file written for the xlsx format.
const WorkbookName = "roster-graph.xlsx"

// Table is one relational output table.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Tables renders the graph as the four output tables.
func Tables(g *model.Graph) []Table {
	people := Table{
		Name:   "People",
		Header: []string{
			"id", "name", "ChineseName", "dateOfBirth", "gender", "currentRole", "organization", "party",
			"education", "careerHistory", "bio", "sources", "slug",
		},
	}
	for _, p := range g.People {
		bio := p.Profile.Bio
		if bio == nil {
			bio = p.Extract
		}
		people.Rows = append(people.Rows, []string{
			p.ID, p.Name, p.NativeName,
			model.Deref(p.Profile.DateOfBirth), model.Deref(p.Profile.Gender), p.Role,
			model.Deref(p.OrganizationID), model.Deref(p.PartyID),
			model.Deref(p.Profile.Education), model.Deref(p.Profile.CareerHistory),
			model.Deref(bio), sources(p.ReferenceURL), Slug(p.Name),
		})
	}

	orgs := Table{
		Name:   "Organizations",
		Header: []string{"id", "name", "parentOrganization", "sector", "description"},
	}
	for _, o := range g.Organizations {
		orgs.Rows = append(orgs.Rows, []string{
			o.ID, o.Name, model.Deref(o.ParentID), model.Deref(o.SectorID), aliases(o),
		})
	}

	parties := Table{Name: "Parties", Header: []string{"id", "name", "abbreviation", "color"}}
	for _, p := range g.Parties {
		parties.Rows = append(parties.Rows, []string{p.ID, p.Name, p.Abbreviation, p.Color})
	}

	sectors := Table{Name: "Sectors", Header: []string{"id", "name", "category", "description"}}
	for _, s := range g.Sectors {
		sectors.Rows = append(sectors.Rows, []string{s.ID, s.Name, s.Category, s.Description})
	}

	return []Table{people, orgs, parties, sectors}
}

// Export writes the graph to dir in the given format and returns the paths
// written.
func Export(g *model.Graph, dir, format string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "roster: create output dir %s", dir)
	}
	tables := Tables(g)

	switch format {
	case FormatCSV, "":
		return WriteCSV(dir, tables)
	case FormatXLSX:
		path := filepath.Join(dir, WorkbookName)
		if err := WriteXLSX(path, tables); err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, eris.Errorf("roster: unsupported export format %q", format)
	}
}

// WriteCSV writes one <Name>.csv per table. Files start with a UTF-8 BOM so
// spreadsheet tools detect the encoding.
func WriteCSV(dir string, tables []Table) ([]string, error) {
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".csv")
		if err := writeCSVFile(path, t); err != nil {
			return nil, err
		}
		zap.L().Info("roster: wrote table", zap.String("table", t.Name), zap.Int("rows", len(t.Rows)), zap.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSVFile(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "roster: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.WriteString(bom); err != nil {
		return eris.Wrapf(err, "roster: write %s", path)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrapf(err, "roster: write %s header", t.Name)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrapf(err, "roster: write %s rows", t.Name)
	}
	return eris.Wrapf(f.Close(), "roster: close %s", path)
}

// WriteXLSX writes every table as a sheet of one workbook.
func WriteXLSX(path string, tables []Table) error {
	f := xlsx.NewFile()
	for _, t := range tables {
		sheet, err := f.AddSheet(t.Name)
		if err != nil {
			return eris.Wrapf(err, "roster: add sheet %s", t.Name)
		}
		addRow(sheet, t.Header)
		for _, r := range t.Rows {
			addRow(sheet, r)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "roster: save %s", path)
	}
	zap.L().Info("roster: wrote workbook", zap.String("path", path), zap.Int("sheets", len(tables)))
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// Slug lowercases name, turns spaces into hyphens and drops everything but
// letters, digits and single hyphens.
func Slug(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-':
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func sources(url *string) string {
	list := []string{}
	if url != nil {
		list = append(list, *url)
	}
	data, _ := json.Marshal(list)
	return string(data)
}

func aliases(o model.OrganizationNode) string {
	var other []string
	for _, v := range o.Variants {
		if v != o.Name {
			other = append(other, v)
		}
	}
	if len(other) == 0 {
		return ""
	}
	return "Also known as: " + strings.Join(other, "; ")
}
