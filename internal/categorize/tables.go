package categorize

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrJamesThe3rd/ledgersync/internal/encoding"
)

var (
	//go:embed defaults/mcc.yaml
	defaultMCC []byte
	//go:embed defaults/descriptions.csv
	defaultDescriptions []byte
)

// Tables are the read-only mapping tables consulted before history:
// exact description → category name, and merchant category code → category name.
type Tables struct {
	descriptions map[string]string
	mcc          map[int]string
}

func NewTables(descriptions map[string]string, mcc map[int]string) *Tables {
	if descriptions == nil {
		descriptions = map[string]string{}
	}

	if mcc == nil {
		mcc = map[int]string{}
	}

	return &Tables{descriptions: descriptions, mcc: mcc}
}

// Description looks up the trimmed description by exact match.
func (t *Tables) Description(description string) (string, bool) {
	name, ok := t.descriptions[strings.TrimSpace(description)]
	return name, ok
}

func (t *Tables) MCC(code int) (string, bool) {
	name, ok := t.mcc[code]
	return name, ok
}

// Len reports the number of dictionary entries and merchant codes.
func (t *Tables) Len() (descriptions, codes int) {
	return len(t.descriptions), len(t.mcc)
}

// LoadTables reads both tables. An empty path selects the embedded default.
func LoadTables(dictionaryPath, mccPath string) (*Tables, error) {
	dict, err := readSource(dictionaryPath, defaultDescriptions)
	if err != nil {
		return nil, fmt.Errorf("reading description dictionary: %w", err)
	}
	defer dict.Close()

	descriptions, err := ParseDictionary(dict)
	if err != nil {
		return nil, err
	}

	mccSrc, err := readSource(mccPath, defaultMCC)
	if err != nil {
		return nil, fmt.Errorf("reading mcc table: %w", err)
	}
	defer mccSrc.Close()

	mcc, err := ParseMCC(mccSrc)
	if err != nil {
		return nil, err
	}

	return NewTables(descriptions, mcc), nil
}

func readSource(path string, fallback []byte) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(bytes.NewReader(fallback)), nil
	}

	return os.Open(path)
}

// ParseDictionary reads `description;category` rows. The dataset may come in
// any charset the encoding package detects. A leading header row is skipped.
func ParseDictionary(r io.Reader) (map[string]string, error) {
	decoded, charset, err := encoding.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("detecting dictionary charset: %w", err)
	}

	reader := csv.NewReader(decoded)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing dictionary (%s): %w", charset, err)
	}

	dict := make(map[string]string, len(rows))

	for i, row := range rows {
		if len(row) < 2 {
			continue
		}

		description := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])

		if i == 0 && strings.EqualFold(description, "description") {
			continue
		}

		if description == "" || name == "" {
			continue
		}

		dict[description] = name
	}

	return dict, nil
}

type mccFile struct {
	Groups []struct {
		Category string `yaml:"category"`
		Codes    []int  `yaml:"codes"`
	} `yaml:"groups"`
}

// ParseMCC reads the YAML code groups. A code listed under two categories is an error.
func ParseMCC(r io.Reader) (map[int]string, error) {
	var file mccFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing mcc table: %w", err)
	}

	table := make(map[int]string)

	for _, g := range file.Groups {
		name := strings.TrimSpace(g.Category)
		if name == "" {
			return nil, errors.New("parsing mcc table: group without category")
		}

		for _, code := range g.Codes {
			if prev, ok := table[code]; ok && prev != name {
				return nil, fmt.Errorf("parsing mcc table: code %d mapped to both %q and %q", code, prev, name)
			}

			table[code] = name
		}
	}

	return table, nil
}
