package domain

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Material quantities needed for a job.
type Materials struct {
	TarmacBags    int `yaml:"tarmac_bags" json:"tarmac_bags"`
	SealantTubs   int `yaml:"sealant_tubs" json:"sealant_tubs"`
	AggregateBags int `yaml:"aggregate_bags" json:"aggregate_bags"`
}

func (m Materials) Add(o Materials) Materials {
	return Materials{
		TarmacBags:    m.TarmacBags + o.TarmacBags,
		SealantTubs:   m.SealantTubs + o.SealantTubs,
		AggregateBags: m.AggregateBags + o.AggregateBags,
	}
}

// EstimateRow is one row of the estimate tables.
type EstimateRow struct {
	Hours     float64   `yaml:"hours"`
	Materials Materials `yaml:"materials"`
}

// Estimator maps a job's size category to expected duration and materials.
//
// Lookups never fail: a category missing from the table resolves to the
// medium row, and a table without a medium row resolves to the built-in one.
type Estimator struct {
	rows map[SizeCategory]EstimateRow
}

var defaultRows = map[SizeCategory]EstimateRow{
	SizeSmall:  {Hours: 2, Materials: Materials{TarmacBags: 10, SealantTubs: 2, AggregateBags: 5}},
	SizeMedium: {Hours: 3, Materials: Materials{TarmacBags: 20, SealantTubs: 4, AggregateBags: 10}},
	SizeLarge:  {Hours: 5, Materials: Materials{TarmacBags: 40, SealantTubs: 8, AggregateBags: 20}},
	SizeXLarge: {Hours: 8, Materials: Materials{TarmacBags: 60, SealantTubs: 12, AggregateBags: 30}},
}

func DefaultEstimator() *Estimator {
	return NewEstimator(defaultRows)
}

func NewEstimator(rows map[SizeCategory]EstimateRow) *Estimator {
	cp := make(map[SizeCategory]EstimateRow, len(rows))
	for k, v := range rows {
		cp[k] = v
	}
	return &Estimator{rows: cp}
}

func (e *Estimator) row(size SizeCategory) EstimateRow {
	if r, ok := e.rows[size]; ok {
		return r
	}
	if r, ok := e.rows[SizeMedium]; ok {
		return r
	}
	return defaultRows[SizeMedium]
}

// Hours returns the expected on-site duration for a job of the given size.
func (e *Estimator) Hours(size SizeCategory) float64 { return e.row(size).Hours }

// Duration is Hours expressed as a time.Duration.
func (e *Estimator) Duration(size SizeCategory) time.Duration {
	return time.Duration(e.Hours(size) * float64(time.Hour))
}

// Materials returns the expected material quantities for a job of the given size.
func (e *Estimator) Materials(size SizeCategory) Materials { return e.row(size).Materials }

type estimateFile struct {
	Sizes map[string]EstimateRow `yaml:"sizes"`
}

// LoadEstimator reads estimate tables from a YAML file of the form:
//
//	sizes:
//	  small:
//	    hours: 2
//	    materials: {tarmac_bags: 10, sealant_tubs: 2, aggregate_bags: 5}
//
// Sizes absent from the file keep their default rows.
func LoadEstimator(path string) (*Estimator, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load estimator: read %q: %w", path, err)
	}
	return ParseEstimator(b)
}

func ParseEstimator(b []byte) (*Estimator, error) {
	var f estimateFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("load estimator: parse yaml: %w", err)
	}

	rows := make(map[SizeCategory]EstimateRow, len(defaultRows))
	for k, v := range defaultRows {
		rows[k] = v
	}
	for name, r := range f.Sizes {
		size := SizeCategory(name)
		if !size.Valid() {
			return nil, fmt.Errorf("load estimator: unknown size category %q", name)
		}
		if r.Hours <= 0 {
			return nil, fmt.Errorf("load estimator: size %q: hours must be positive", name)
		}
		rows[size] = r
	}

	return NewEstimator(rows), nil
}
