package plan

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/chazu/bicut/pkg/region"
	"github.com/chazu/bicut/pkg/wkt"
)

// Row is one labelled shape of planner input.
type Row struct {
	Label string `json:"label,omitempty"`
	WKT   string `json:"wkt"`
}

// ReadRows decodes a JSON array of rows.
func ReadRows(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("plan: decode rows: %w", err)
	}
	return rows, nil
}

// Shapes parses the labelled rows. Unlabelled rows are skipped; a label
// used twice is an error.
func Shapes(rows []Row) (map[string]region.Region, error) {
	shapes := make(map[string]region.Region)
	for i, row := range rows {
		if row.Label == "" {
			continue
		}
		if _, dup := shapes[row.Label]; dup {
			return nil, fmt.Errorf("plan: row %d: label %q used twice", i, row.Label)
		}
		r, err := wkt.Parse(row.WKT)
		if err != nil {
			return nil, fmt.Errorf("plan: row %d (%s): %w", i, row.Label, err)
		}
		shapes[row.Label] = r
	}
	return shapes, nil
}
