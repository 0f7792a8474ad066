// Package catalog loads the activity catalog from CSV.
package catalog

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
)

//go:embed activity.csv
var defaultCSV string

// Catalog is an immutable in-memory activity list.
type Catalog struct {
	activities []domain.Activity
}

var _ out.ActivityCatalog = (*Catalog)(nil)

// All implements out.ActivityCatalog. Callers must not modify the slice.
func (c *Catalog) All() []domain.Activity {
	return c.activities
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.activities)
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(strings.NewReader(defaultCSV))
}

// Load reads path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open activity catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads CSV with an id,description header. Column order is taken from
// the header; extra columns are ignored.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("activity catalog is empty")
		}
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	idCol, descCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))) {
		case "id":
			idCol = i
		case "description":
			descCol = i
		}
	}
	if idCol < 0 || descCol < 0 {
		return nil, fmt.Errorf("catalog header must contain id and description, got %v", header)
	}

	c := &Catalog{}
	seen := make(map[int]bool)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) <= idCol || len(record) <= descCol {
			return nil, fmt.Errorf("catalog line %d: missing columns", line)
		}

		id, err := strconv.Atoi(strings.TrimSpace(record[idCol]))
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: invalid id %q", line, record[idCol])
		}
		desc := strings.TrimSpace(record[descCol])
		if desc == "" {
			return nil, fmt.Errorf("catalog line %d: empty description", line)
		}
		if seen[id] {
			return nil, fmt.Errorf("catalog line %d: duplicate id %d", line, id)
		}
		seen[id] = true
		c.activities = append(c.activities, domain.Activity{ID: id, Description: desc})
	}
	return c, nil
}
