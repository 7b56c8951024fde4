// Package roster reads the input roster and writes the entity tables.
package roster

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/roster-graph/internal/model"
)

const bom = "\ufeff"

// Header aliases, matched case-insensitively. The Chinese headers are the
// ones used by Chinese-language roster spreadsheets.
var columnAliases = map[string][]string{
	"name":         {"name", "english_name", "英文名"},
	"native_name":  {"native_name", "chinese_name", "chinesename", "中文名"},
	"role":         {"role", "title", "current_role", "currentrole", "头衔"},
	"organization": {"organization", "org", "organization_text", "所属组织"},
}

// parenthesized matches the English name in "白宫 (The White House)".
var parenthesized = regexp.MustCompile(`\(([^)]+)\)`)

// ReadFile loads people from a .csv or .xlsx roster.
func ReadFile(ctx context.Context, path string) ([]model.Person, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "roster: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		rows, err = readCSV(ctx, f)
	}
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

// Read loads people from CSV data.
func Read(ctx context.Context, r io.Reader) ([]model.Person, error) {
	rows, err := readCSV(ctx, r)
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

func readCSV(ctx context.Context, r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "roster: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "roster: read csv row")
		}
		rows = append(rows, record)
	}
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("roster: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func parseRows(rows [][]string) ([]model.Person, error) {
	if len(rows) == 0 {
		return nil, eris.New("roster: empty input")
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}
	field := func(record []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(record) {
			return ""
		}
		return norm.NFC.String(strings.TrimSpace(record[i]))
	}

	var people []model.Person
	seen := make(map[string]bool)
	for i, record := range rows[1:] {
		line := i + 2
		name := field(record, "name")
		if name == "" {
			zap.L().Warn("roster: skipping row without name", zap.Int("line", line))
			continue
		}
		if seen[name] {
			zap.L().Warn("roster: skipping duplicate person", zap.Int("line", line), zap.String("name", name))
			continue
		}
		seen[name] = true

		p := model.Person{
			Name:            name,
			NativeName:      field(record, "native_name"),
			Role:            field(record, "role"),
			RawOrganization: ExtractOrganization(field(record, "organization")),
		}
		if p.Role == "" {
			zap.L().Debug("roster: row without role", zap.Int("line", line), zap.String("name", name))
		}
		people = append(people, p)
	}
	return people, nil
}

func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		h = strings.ToLower(strings.TrimSpace(h))
		for key, aliases := range columnAliases {
			if _, done := cols[key]; done {
				continue
			}
			for _, a := range aliases {
				if h == a {
					cols[key] = i
					break
				}
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, eris.Errorf("roster: missing name column in header %q", header)
	}
	return cols, nil
}

// ExtractOrganization returns the English name from text like
// "白宫 (The White House)", or the trimmed text when there is none.
func ExtractOrganization(text string) string {
	text = strings.TrimSpace(text)
	if m := parenthesized.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return text
}
