package normalize

import "github.com/leapstack-labs/tablemerge/pkg/core"

// NormalizeTable resolves, cleans and builds one table, then tags every
// record with the table's document. It records the cleaned first row in
// t.Headers.
//
// Pass 1 runs on the resolved grid before headers are keyed, so repeated
// names are disambiguated on their cleaned form.
func NormalizeTable(t *core.Table, s *Sanitizer) Batch {
	resolved := s.CleanRows(ResolveTable(t))
	if len(resolved) > 0 {
		t.Headers = append([]string(nil), resolved[0]...)
	}
	b := BuildTable(resolved)
	b.Table = t.Index
	return TagProvenance(b, t.DocumentID)
}

// Finalize runs the post-checkpoint stages: deduplication, then pass 2.
func Finalize(ds core.Dataset, s *Sanitizer) core.Dataset {
	return s.FilterDataset(Deduplicate(ds))
}
