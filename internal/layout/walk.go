package layout

import "fmt"

// Section is one leaf cell produced by traversal, carrying its structural
// position label and geometry. RowIndex and ColumnIndex are 0-based within
// the cell's own nesting level.
type Section struct {
	Position    string
	RowIndex    int
	ColumnIndex int
	Width       float64 // percent of the enclosing row
	Height      float64 // percent of the enclosing cell
}

// Walk traverses the definition depth-first and calls fn for every leaf
// cell. Position labels are built per level as R{row+1}C{col+1} (1-based)
// and joined with "." from outermost to innermost, so a leaf inside the
// second column of the first top-level row gets a label like "R1C2.R1C1".
// Split cells do not produce sections; traversal descends into them instead.
func (d *Definition) Walk(fn func(Section)) {
	walkRows(d.Rows, "", fn)
}

func walkRows(rows []Row, prefix string, fn func(Section)) {
	for r, row := range rows {
		for c, col := range row.Columns {
			label := fmt.Sprintf("R%dC%d", r+1, c+1)
			if prefix != "" {
				label = prefix + "." + label
			}
			if col.IsLeaf() {
				fn(Section{
					Position:    label,
					RowIndex:    r,
					ColumnIndex: c,
					Width:       col.Width,
					Height:      row.Height,
				})
				continue
			}
			walkRows(col.Rows, label, fn)
		}
	}
}

// Sections returns every leaf cell in traversal order.
func (d *Definition) Sections() []Section {
	var sections []Section
	d.Walk(func(s Section) {
		sections = append(sections, s)
	})
	return sections
}
