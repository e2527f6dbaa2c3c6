// Package layout defines the recursive grid grammar for signage layouts:
// parsing, validation and depth-first traversal into addressable sections.
package layout

import (
	"encoding/json"
	"fmt"
	"math"
)

// SumTolerance is the floating-point slack allowed when row heights or
// column widths are summed against 100.
const SumTolerance = 0.5

// MaxDepth is the maximum number of nested row levels. The layout editor
// caps nesting at three levels; validation enforces the same bound.
const MaxDepth = 3

// Definition is the root of a layout's grid definition.
type Definition struct {
	Rows []Row `json:"rows"`
}

// Row is a horizontal band of the grid. Heights are percentages of the
// enclosing cell and must sum to 100 across a rows list.
type Row struct {
	Height  float64  `json:"height"`
	Columns []Column `json:"columns"`
}

// Column is a cell within a row. Widths are percentages of the row and must
// sum to 100 across the row's columns. A column with nested rows is a split
// cell; a column without is a leaf cell, the only kind that becomes an
// addressable section.
type Column struct {
	Width float64 `json:"width"`
	Rows  []Row   `json:"rows,omitempty"`
}

// IsLeaf reports whether the column is a leaf cell.
func (c *Column) IsLeaf() bool {
	return len(c.Rows) == 0
}

// Parse decodes a JSON layout definition. A decode failure is a validation
// failure: the caller gets a *ValidationError, never a bare JSON error.
func Parse(data string) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, &ValidationError{Path: "rows", Msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return &def, nil
}

// ParseAndValidate decodes and fully validates a JSON layout definition.
func ParseAndValidate(data string) (*Definition, error) {
	def, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Encode serializes the definition back to its wire format.
func (d *Definition) Encode() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encoding layout definition: %w", err)
	}
	return string(data), nil
}

// ValidationError describes why a layout definition is invalid, carrying the
// structural path of the offending element for field-level error display.
type ValidationError struct {
	Path string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("layout definition invalid at %s: %s", e.Path, e.Msg)
}

// Validate checks the whole definition tree. Validation is all-or-nothing: a
// failed constraint anywhere invalidates the definition.
func (d *Definition) Validate() error {
	return validateRows(d.Rows, "rows", 1)
}

// Valid reports whether the definition passes validation.
func (d *Definition) Valid() bool {
	return d.Validate() == nil
}

func validateRows(rows []Row, path string, depth int) error {
	if depth > MaxDepth {
		return &ValidationError{Path: path, Msg: fmt.Sprintf("nesting exceeds %d levels", MaxDepth)}
	}
	if len(rows) == 0 {
		return &ValidationError{Path: path, Msg: "must contain at least one row"}
	}

	var heightSum float64
	for r, row := range rows {
		rowPath := fmt.Sprintf("%s[%d]", path, r)
		if row.Height <= 0 {
			return &ValidationError{Path: rowPath, Msg: "height must be positive"}
		}
		if len(row.Columns) == 0 {
			return &ValidationError{Path: rowPath, Msg: "must contain at least one column"}
		}
		heightSum += row.Height

		var widthSum float64
		for c, col := range row.Columns {
			colPath := fmt.Sprintf("%s.columns[%d]", rowPath, c)
			if col.Width <= 0 {
				return &ValidationError{Path: colPath, Msg: "width must be positive"}
			}
			widthSum += col.Width

			if !col.IsLeaf() {
				if err := validateRows(col.Rows, colPath+".rows", depth+1); err != nil {
					return err
				}
			}
		}
		if math.Abs(widthSum-100) > SumTolerance {
			return &ValidationError{Path: rowPath, Msg: fmt.Sprintf("column widths sum to %g, want 100", widthSum)}
		}
	}
	if math.Abs(heightSum-100) > SumTolerance {
		return &ValidationError{Path: path, Msg: fmt.Sprintf("row heights sum to %g, want 100", heightSum)}
	}
	return nil
}

// RowCount returns the number of top-level rows.
func (d *Definition) RowCount() int {
	return len(d.Rows)
}

// SectionCount returns the number of leaf cells in the whole tree.
func (d *Definition) SectionCount() int {
	count := 0
	d.Walk(func(Section) {
		count++
	})
	return count
}
