package normalize

import "github.com/leapstack-labs/tablemerge/pkg/core"

// Aggregator accumulates batches into one dataset whose columns are the
// union of every batch's headers.
//
// Columns keep first-seen order with core.SourceColumn always last.
// Records keep append order; a record lacking a column holds core.Absent().
type Aggregator struct {
	columns []string
	seen    map[string]bool
	records []core.Record
	batches int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]bool)}
}

// Append adds a batch. Headers of a batch without records still join the union.
func (a *Aggregator) Append(b Batch) {
	a.batches++
	for _, h := range b.Headers {
		a.addColumn(h)
	}
	for _, r := range b.Records {
		for _, name := range r.Names() {
			a.addColumn(name)
		}
		a.records = append(a.records, r)
	}
}

func (a *Aggregator) addColumn(name string) {
	if name == core.SourceColumn || a.seen[name] {
		return
	}
	a.seen[name] = true
	a.columns = append(a.columns, name)
}

// Len returns the number of records appended so far.
func (a *Aggregator) Len() int { return len(a.records) }

// Batches returns the number of batches appended so far.
func (a *Aggregator) Batches() int { return a.batches }

// Dataset returns the aggregated dataset.
func (a *Aggregator) Dataset() core.Dataset {
	columns := make([]string, 0, len(a.columns)+1)
	columns = append(columns, a.columns...)
	columns = append(columns, core.SourceColumn)

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	rows := make([][]core.Value, len(a.records))
	for i, r := range a.records {
		row := make([]core.Value, len(columns))
		for _, f := range r.Fields() {
			row[index[f.Name]] = f.Value
		}
		rows[i] = row
	}

	return core.Dataset{Columns: columns, Rows: rows}
}
