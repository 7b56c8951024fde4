package roster

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestRead_EnglishHeaders(t *testing.T) {
	data := "name,native_name,role,organization\n" +
		"Nancy Pelosi,南希·佩洛西,Speaker of the House (D-CA),美国众议院 (U.S. House of Representatives)\n" +
		"Mitch McConnell,,Senator (R-KY),U.S. Senate\n"

	people, err := Read(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, people, 2)

	assert.Equal(t, "Nancy Pelosi", people[0].Name)
	assert.Equal(t, "南希·佩洛西", people[0].NativeName)
	assert.Equal(t, "Speaker of the House (D-CA)", people[0].Role)
	assert.Equal(t, "U.S. House of Representatives", people[0].RawOrganization)
	assert.Equal(t, "U.S. Senate", people[1].RawOrganization)
	assert.Nil(t, people[0].Facts.Extract)
}

func TestRead_ChineseHeadersWithBOM(t *testing.T) {
	data := "\ufeff序号,中文名,英文名,头衔,所属组织,核心影响力\n" +
		"1,白宫幕僚长,Susie Wiles,White House Chief of Staff,白宫 (The White House),...\n"

	people, err := Read(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Susie Wiles", people[0].Name)
	assert.Equal(t, "白宫幕僚长", people[0].NativeName)
	assert.Equal(t, "The White House", people[0].RawOrganization)
}

func TestRead_SkipsBlankAndDuplicateNames(t *testing.T) {
	data := "Name,Organization\n" +
		"Alice,CIA\n" +
		",FBI\n" +
		"Alice,NSA\n" +
		"Bob\n"

	people, err := Read(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "CIA", people[0].RawOrganization)
	assert.Equal(t, "Bob", people[1].Name)
	assert.Empty(t, people[1].RawOrganization)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader(""))
	assert.Error(t, err)

	_, err = Read(context.Background(), strings.NewReader("title,organization\nX,Y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing name column")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Read(ctx, strings.NewReader("name\nA\n"))
	assert.Error(t, err)
}

func TestReadFile_CSVAndXLSX(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,organization\nAlice,CIA\n"), 0o644))
	people, err := ReadFile(context.Background(), csvPath)
	require.NoError(t, err)
	require.Len(t, people, 1)

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Roster")
	require.NoError(t, err)
	addRow(sheet, []string{"英文名", "所属组织"})
	addRow(sheet, []string{"Bob", "美国参议院 (U.S. Senate)"})
	xlsxPath := filepath.Join(dir, "roster.xlsx")
	require.NoError(t, f.Save(xlsxPath))

	people, err = ReadFile(context.Background(), xlsxPath)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "U.S. Senate", people[0].RawOrganization)

	_, err = ReadFile(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestExtractOrganization(t *testing.T) {
	tests := map[string]string{
		"白宫 (The White House)":                    "The White House",
		"  U.S. Senate ":                          "U.S. Senate",
		"美国众议院 (U.S. House of Representatives)": "U.S. House of Representatives",
		"Weird ( )":                               "Weird ( )",
		"":                                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractOrganization(in), in)
	}
}
