package analysis

import "github.com/KaramelBytes/solardash/internal/dataset"

// Filter keeps the rows whose country is selected, in their original order.
// An empty selection yields an empty table with the same columns.
func Filter(t *dataset.Table, selected dataset.CountrySet) *dataset.Table {
	if t == nil {
		return dataset.NewTable(nil)
	}
	out := dataset.NewTable(t.Columns)
	if len(selected) == 0 {
		return out
	}
	out.Rows = make([]dataset.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if selected.Has(r.Country) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
