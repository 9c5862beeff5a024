package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Krish120003/databind/internal/sheet"
)

const (
	customersCSV = "id,name,city\n1,Ada,London\n2,Grace,NYC\n"
	ordersCSV    = "customer_id,city,total\n1,Paris,10\n3,Berlin,5\n"
)

// writeFixtures writes the two sample files into a temp dir and makes it
// the working directory.
func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "customers.csv"), []byte(customersCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.csv"), []byte(ordersCSV), 0o644))
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestInspect(t *testing.T) {
	writeFixtures(t)

	code, out, stderr := execute(t, "inspect", "customers.csv")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Format:  csv")
	assert.Contains(t, out, "Rows:    2")
	assert.Contains(t, out, "Columns: id, name, city")
}

func TestInspect_JSON(t *testing.T) {
	writeFixtures(t)

	code, out, stderr := execute(t, "inspect", "orders.csv", "--json")
	require.Equal(t, 0, code, stderr)

	var report inspectReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "orders.csv", report.File)
	assert.Equal(t, 2, report.Info.Rows)
	assert.Equal(t, []string{"customer_id", "city", "total"}, report.Columns)
}

func TestInspect_Errors(t *testing.T) {
	dir := writeFixtures(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.csv"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.xls"), []byte("x"), 0o644))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"inspect", "nope.csv"}, "open nope.csv"},
		{"empty file", []string{"inspect", "empty.csv"}, "no data rows"},
		{"legacy xls", []string{"inspect", "old.xls"}, ".xls"},
		{"no args", []string{"inspect"}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestJoin_PreferSecondaryCSV(t *testing.T) {
	writeFixtures(t)

	code, out, stderr := execute(t, "join", "customers.csv", "orders.csv",
		"--primary-key", "id", "--secondary-key", "customer_id",
		"--prefer", "secondary", "-o", "merged.csv")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, "Joined 3 rows (1 matched, 1 primary only, 1 secondary only)")
	assert.Contains(t, out, "Resolved 1 conflicts with secondary values")
	assert.Contains(t, out, "Wrote merged.csv")

	raw, err := os.ReadFile("merged.csv")
	require.NoError(t, err)
	want := "id,name,city,customer_id,total\n" +
		"1,Ada,Paris,1,10\n" +
		"2,Grace,NYC,,\n" +
		",,Berlin,3,5\n"
	assert.Equal(t, want, string(raw))
}

func TestJoin_DefaultOutputIsWorkbook(t *testing.T) {
	writeFixtures(t)

	code, out, stderr := execute(t, "join", "customers.csv", "orders.csv",
		"--primary-key", "id", "--secondary-key", "customer_id", "--prefer", "primary")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Wrote customers-orders-joined.xlsx")

	f, err := excelize.OpenFile("customers-orders-joined.xlsx")
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"id", "name", "city", "customer_id", "total"}, rows[0])
	assert.Equal(t, "London", rows[1][2])
}

func TestJoin_FormatFlag(t *testing.T) {
	writeFixtures(t)

	code, out, stderr := execute(t, "join", "customers.csv", "orders.csv",
		"--primary-key", "id", "--secondary-key", "customer_id",
		"--allow-unresolved", "--format", "csv")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Left 1 conflicts unresolved")

	raw, err := os.ReadFile("customers-orders-joined.csv")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "1,Ada,London,1,10")
}

func TestJoin_HelpListsExportFormats(t *testing.T) {
	code, out, _ := execute(t, "join", "--help")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Output format: xlsx or csv")
	assert.NotContains(t, out, ".tsv")
}

func TestJoin_Errors(t *testing.T) {
	base := []string{"join", "customers.csv", "orders.csv"}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "unresolved conflicts",
			args: []string{"--primary-key", "id", "--secondary-key", "customer_id"},
			want: "unresolved conflicts: 1 of 1",
		},
		{
			name: "key length mismatch",
			args: []string{"--primary-key", "id,name", "--secondary-key", "customer_id"},
			want: "invalid key configuration",
		},
		{
			name: "unknown key column",
			args: []string{"--primary-key", "email", "--secondary-key", "customer_id"},
			want: "primary file has no column email",
		},
		{
			name: "bad prefer",
			args: []string{"--primary-key", "id", "--secondary-key", "customer_id", "--prefer", "both"},
			want: "invalid source",
		},
		{
			name: "bad format",
			args: []string{"--primary-key", "id", "--secondary-key", "customer_id", "--format", "ods"},
			want: "ods",
		},
		{
			name: "missing key flag",
			args: []string{"--primary-key", "id"},
			want: "secondary-key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFixtures(t)

			code, _, stderr := execute(t, append(append([]string{}, base...), tt.args...)...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.want)

			entries, err := os.ReadDir(".")
			require.NoError(t, err)
			for _, e := range entries {
				assert.False(t, strings.Contains(e.Name(), "joined"), "unexpected output %s", e.Name())
			}
		})
	}
}

func TestJoin_MissingSecondaryFile(t *testing.T) {
	writeFixtures(t)

	code, _, stderr := execute(t, "join", "customers.csv", "gone.csv",
		"--primary-key", "id", "--secondary-key", "customer_id")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "secondary file: open gone.csv")
}

func TestVersion(t *testing.T) {
	code, out, _ := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "databind version dev"))
}
