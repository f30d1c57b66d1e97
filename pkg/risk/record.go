// Package risk models agricultural risks (crop diseases and pests) and the
// naming contract shared by every tool that touches the image inventory.
package risk

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// Unknown is the placeholder segment used when a table name or record field
// cannot be parsed. It is a valid low-confidence bucket, not an error.
const Unknown = "unknown"

// Culture identifies the crop and risk type shared by every record in one
// input table.
type Culture struct {
	RiskType string
	CropRU   string
	CropEN   string
}

// Record is a single risk row from an input table.
type Record struct {
	Name        string
	EnglishName string
	Extra       map[string]string
}

// ParseTableName extracts the culture context from a table filename.
//
// Supported forms:
//
//	diseases_пшеница_cereals.csv         -> {diseases пшеница cereals}
//	pests_кукуруза_corn.csv              -> {pests кукуруза corn}
//	example_diseases_wheat_cereals.csv   -> {diseases wheat cereals}
func ParseTableName(path string) Culture {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(name, "_")

	switch {
	case len(parts) >= 4 && parts[0] == "example":
		return Culture{RiskType: parts[1], CropRU: parts[2], CropEN: parts[3]}
	case len(parts) >= 3:
		return Culture{RiskType: parts[0], CropRU: parts[1], CropEN: parts[2]}
	default:
		klog.Warningf("unable to extract culture info from table name %q", name)
		return Culture{RiskType: Unknown, CropRU: Unknown, CropEN: Unknown}
	}
}

// ReadTable reads risk records from a header-row CSV file. Columns other than
// name and english_name are preserved in Extra.
func ReadTable(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	recs := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := Record{Extra: map[string]string{}}
		for i, col := range header {
			if i >= len(row) {
				break
			}
			v := strings.TrimSpace(row[i])
			switch strings.ToLower(strings.TrimSpace(col)) {
			case "name":
				rec.Name = v
			case "english_name":
				rec.EnglishName = v
			default:
				rec.Extra[col] = v
			}
		}
		recs = append(recs, rec)
	}

	klog.Infof("read %d records from %s", len(recs), path)
	return recs, nil
}

// Tables returns the CSV input tables found in dir.
func Tables(dir string) ([]string, error) {
	ms, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	if len(ms) == 0 {
		klog.Warningf("no CSV tables found in %s", dir)
	}
	return ms, nil
}
