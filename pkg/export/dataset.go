package export

// Column describes one exported column. Width is a relative weight used by the PDF layout.
type Column struct {
	Key    string
	Title  string
	Width  float64
	Center bool
}

// Dataset defines tabular export content. Rows are keyed by Column.Key.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
	// Dimmed marks rows rendered greyed out, such as hidden cohorts.
	Dimmed []bool
}

func (d Dataset) dimmed(i int) bool {
	return i < len(d.Dimmed) && d.Dimmed[i]
}
