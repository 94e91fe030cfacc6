// Package profiler computes per-column statistics and metadata suggestions
// for uploaded CSV datasets: native types, missing values, duplicate rows,
// IQR outliers, normalization hints, and regex pattern detection.
package profiler

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/apperrors"
)

// Report is the profiling result for a whole dataset.
type Report struct {
	Columns                  []string            `json:"columns"`
	DataTypes                map[string]string   `json:"data_types"`
	MissingValues            map[string]int      `json:"missing_values"`
	Duplicates               int                 `json:"duplicates"`
	SuggestedDataTypes       map[string]string   `json:"suggested_data_types"`
	Outliers                 map[string]int      `json:"outliers"`
	NormalizationSuggestions map[string]string   `json:"normalization_suggestions"`
	PatternDetection         map[string][]string `json:"pattern_detection"`
	SemanticColumnClusters   map[string]string   `json:"semantic_column_clusters"`

	// ColumnErrors carries per-column failures that were isolated so the
	// rest of the run could complete. Empty on a clean run.
	ColumnErrors map[string]string `json:"column_errors,omitempty"`
}

// Column is one parsed CSV column. Empty cells are missing values.
type Column struct {
	Name   string
	Values []string
}

// NonMissing returns the column's values with empty cells removed,
// preserving original row order.
func (c *Column) NonMissing() []string {
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Normalization suggestion values.
const (
	NormalizationZScore    = "z-score normalization suggested"
	NormalizationNotNeeded = "no normalization needed"
)

// Suggested logical type names.
const (
	TypeDatetime = "datetime"
	TypeString   = "string"
	TypeInt      = "int64"
	TypeFloat    = "float64"
	TypeBool     = "bool"
)

// datetimeLayouts are the accepted formats for the datetime type suggestion.
var datetimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// Profiler profiles tabular datasets column by column.
type Profiler struct {
	logger *zap.Logger
}

// New creates a Profiler.
func New(logger *zap.Logger) *Profiler {
	return &Profiler{logger: logger.Named("profiler")}
}

// ParseCSV reads comma-delimited text with a required header row into
// columns. Repeated header names get a numeric suffix (id, id_2, id_3)
// so every column keeps its own profile. A parse failure wraps
// apperrors.ErrMalformedInput.
func ParseCSV(r io.Reader) ([]Column, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", apperrors.ErrMalformedInput, err)
	}

	columns := make([]Column, len(header))
	seen := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		base := name
		for n := 2; seen[name] > 0; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name]++
		columns[i].Name = name
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading row: %v", apperrors.ErrMalformedInput, err)
		}
		for i := range columns {
			columns[i].Values = append(columns[i].Values, record[i])
		}
	}

	return columns, nil
}

// Profile parses the dataset and computes the full per-column report.
// Failures inside a single column are isolated: the column gets an entry
// in ColumnErrors and the run continues. Cancellation is checked once per
// column.
func (p *Profiler) Profile(ctx context.Context, r io.Reader) (*Report, error) {
	columns, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return p.ProfileColumns(ctx, columns)
}

// ProfileColumns computes the report for already-parsed columns.
func (p *Profiler) ProfileColumns(ctx context.Context, columns []Column) (*Report, error) {
	report := &Report{
		Columns:                  make([]string, 0, len(columns)),
		DataTypes:                make(map[string]string, len(columns)),
		MissingValues:            make(map[string]int, len(columns)),
		SuggestedDataTypes:       make(map[string]string, len(columns)),
		Outliers:                 make(map[string]int),
		NormalizationSuggestions: make(map[string]string),
		PatternDetection:         make(map[string][]string, len(columns)),
		SemanticColumnClusters:   make(map[string]string),
		ColumnErrors:             make(map[string]string),
	}

	report.Duplicates = countDuplicateRows(columns)

	for i := range columns {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("profiling canceled: %w", err)
		}

		col := &columns[i]
		report.Columns = append(report.Columns, col.Name)

		if err := p.profileColumn(col, report); err != nil {
			p.logger.Warn("Column profiling failed",
				zap.String("column", col.Name),
				zap.Error(err))
			report.ColumnErrors[col.Name] = err.Error()
		}
	}

	if len(report.ColumnErrors) == 0 {
		report.ColumnErrors = nil
	}

	return report, nil
}

// profileColumn fills in every per-column section of the report for col.
func (p *Profiler) profileColumn(col *Column, report *Report) error {
	nonMissing := col.NonMissing()
	report.MissingValues[col.Name] = len(col.Values) - len(nonMissing)

	dtype := inferNativeType(nonMissing)
	report.DataTypes[col.Name] = dtype

	report.SuggestedDataTypes[col.Name] = suggestType(dtype, nonMissing)
	report.PatternDetection[col.Name] = detectPatterns(nonMissing)

	if dtype == TypeInt || dtype == TypeFloat {
		values, err := parseFloats(nonMissing)
		if err != nil {
			return fmt.Errorf("parse numeric values: %w", err)
		}
		report.Outliers[col.Name] = countOutliers(values)
		report.NormalizationSuggestions[col.Name] = suggestNormalization(col.Name, values)
	}

	return nil
}

// inferNativeType scans the non-missing values and reports the narrowest
// native representation that fits them all. An all-missing column has no
// evidence either way and stays textual.
func inferNativeType(nonMissing []string) string {
	if len(nonMissing) == 0 {
		return TypeString
	}

	allInt, allFloat, allBool := true, true, true
	for _, v := range nonMissing {
		if allInt {
			if _, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "false":
			default:
				allBool = false
			}
		}
		if !allInt && !allFloat && !allBool {
			break
		}
	}

	switch {
	case allBool:
		return TypeBool
	case allInt:
		return TypeInt
	case allFloat:
		return TypeFloat
	default:
		return TypeString
	}
}

// suggestType maps a textual column to datetime when every non-missing
// value parses as a date/time, and to string otherwise. A column with no
// non-missing values is vacuously all-parseable; it suggests string rather
// than datetime since there is no evidence for either. Non-textual columns
// keep their native type name.
func suggestType(dtype string, nonMissing []string) string {
	if dtype != TypeString {
		return dtype
	}
	if len(nonMissing) == 0 {
		return TypeString
	}
	for _, v := range nonMissing {
		if !parsesAsDatetime(v) {
			return TypeString
		}
	}
	return TypeDatetime
}

func parsesAsDatetime(v string) bool {
	v = strings.TrimSpace(v)
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// suggestNormalization recommends z-score normalization for numeric columns
// with non-zero spread. Columns whose name ends in "id" are identifier-like
// and never need normalization regardless of variance.
func suggestNormalization(name string, values []float64) string {
	if strings.HasSuffix(strings.ToLower(name), "id") {
		return NormalizationNotNeeded
	}
	if stdDev(values) > 0 {
		return NormalizationZScore
	}
	return NormalizationNotNeeded
}

// countOutliers counts values strictly outside the IQR fences
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR].
func countOutliers(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	q1 := quantile(values, 0.25)
	q3 := quantile(values, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	count := 0
	for _, v := range values {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

// countDuplicateRows counts rows that are exact duplicates of an earlier
// row across all columns.
func countDuplicateRows(columns []Column) int {
	if len(columns) == 0 || len(columns[0].Values) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(columns[0].Values))
	dupes := 0
	var sb strings.Builder
	for row := 0; row < len(columns[0].Values); row++ {
		sb.Reset()
		for i := range columns {
			if i > 0 {
				sb.WriteByte(0x1f) // unit separator, cannot appear in CSV cells
			}
			sb.WriteString(columns[i].Values[row])
		}
		key := sb.String()
		if _, ok := seen[key]; ok {
			dupes++
		} else {
			seen[key] = struct{}{}
		}
	}
	return dupes
}

func parseFloats(values []string) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not numeric", v)
		}
		out = append(out, f)
	}
	return out, nil
}
