package categorize_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/ledgersync/internal/categorize"
)

func TestParseDictionary(t *testing.T) {
	input := "description;category\n Netflix ;Entertainment\nbroken line\n;Empty\nUber;Transport\n"

	dict, err := categorize.ParseDictionary(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Netflix": "Entertainment",
		"Uber":    "Transport",
	}, dict)
}

func TestParseDictionary_Latin1(t *testing.T) {
	utf8 := "description;category\nPastelaria São João;Restaurants\nMercearia Conceição;Groceries\nCafé Central;Restaurants\n"

	encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8))
	require.NoError(t, err)

	dict, err := categorize.ParseDictionary(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, "Groceries", dict["Mercearia Conceição"])
	assert.Equal(t, "Restaurants", dict["Café Central"])
}

func TestParseMCC(t *testing.T) {
	input := `
groups:
  - category: Groceries
    codes: [5411, 5499]
  - category: Restaurants
    codes: [5812]
`

	table, err := categorize.ParseMCC(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, map[int]string{5411: "Groceries", 5499: "Groceries", 5812: "Restaurants"}, table)
}

func TestParseMCC_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name: "DuplicateCode",
			input: `
groups:
  - category: Groceries
    codes: [5411]
  - category: Shopping
    codes: [5411]
`,
		},
		{
			name: "MissingCategory",
			input: `
groups:
  - codes: [5411]
`,
		},
		{
			name:  "NotYAML",
			input: "groups: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := categorize.ParseMCC(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadTables_Defaults(t *testing.T) {
	tables, err := categorize.LoadTables("", "")
	require.NoError(t, err)

	name, ok := tables.Description("Netflix")
	assert.True(t, ok)
	assert.Equal(t, "Entertainment", name)

	name, ok = tables.MCC(5411)
	assert.True(t, ok)
	assert.Equal(t, "Groceries", name)

	_, ok = tables.MCC(1)
	assert.False(t, ok)
}

func TestLoadTables_Files(t *testing.T) {
	dir := t.TempDir()

	dictPath := filepath.Join(dir, "dict.csv")
	mccPath := filepath.Join(dir, "mcc.yaml")

	require.NoError(t, os.WriteFile(dictPath, []byte("Local Bakery;Groceries\n"), 0o600))
	require.NoError(t, os.WriteFile(mccPath, []byte("groups:\n  - category: Fuel\n    codes: [5541]\n"), 0o600))

	tables, err := categorize.LoadTables(dictPath, mccPath)
	require.NoError(t, err)

	name, ok := tables.Description(" Local Bakery ")
	assert.True(t, ok)
	assert.Equal(t, "Groceries", name)

	name, ok = tables.MCC(5541)
	assert.True(t, ok)
	assert.Equal(t, "Fuel", name)

	_, err = categorize.LoadTables(filepath.Join(dir, "missing.csv"), "")
	assert.Error(t, err)
}
