package normalize

import (
	"unicode"

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sanitizer removes unwanted characters in two passes.
//
// Clean (pass 1) strips carriage returns, bell and vertical-tab characters
// left behind by word-processor table cells. Filter (pass 2) keeps only
// printable 7-bit ASCII plus tab and newline. Neither pass substitutes.
type Sanitizer struct {
	// Transliterate applies canonical decomposition before the ASCII filter
	// so "é" becomes "e" instead of being dropped. Compatibility forms such
	// as ligatures have no canonical decomposition and are dropped.
	Transliterate bool
}

func isControlResidue(r rune) bool {
	return r == '\r' || r == '\a' || r == '\v'
}

func isOutsidePrintableASCII(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return r < 0x20 || r > 0x7E
}

// Clean applies pass 1 to s.
func (s *Sanitizer) Clean(text string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(isControlResidue)), text)
	if err != nil {
		return text
	}
	return out
}

// CleanRows applies pass 1 to every value of resolved rows, returning a copy.
func (s *Sanitizer) CleanRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cleaned := make([]string, len(row))
		for j, v := range row {
			cleaned[j] = s.Clean(v)
		}
		out[i] = cleaned
	}
	return out
}

// Filter applies pass 2 to s.
func (s *Sanitizer) Filter(text string) string {
	var t transform.Transformer = runes.Remove(runes.Predicate(isOutsidePrintableASCII))
	if s.Transliterate {
		t = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), t)
	}
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// FilterDataset applies pass 2 to every present value and to the column
// names. Names that become equal after filtering are suffixed to stay
// distinct; core.SourceColumn keeps its name and position, and no other
// column may take it.
func (s *Sanitizer) FilterDataset(ds core.Dataset) core.Dataset {
	out := core.Dataset{
		Columns: s.filterColumns(ds.Columns),
		Rows:    make([][]core.Value, len(ds.Rows)),
	}
	for i, row := range ds.Rows {
		filtered := make([]core.Value, len(row))
		for j, v := range row {
			if v.Present {
				v.Text = s.Filter(v.Text)
			}
			filtered[j] = v
		}
		out.Rows[i] = filtered
	}
	return out
}

func (s *Sanitizer) filterColumns(columns []string) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != core.SourceColumn {
			names = append(names, s.Filter(c))
		}
	}
	unique := uniqueHeaders(names, core.SourceColumn)

	out := make([]string, len(columns))
	next := 0
	for i, c := range columns {
		if c == core.SourceColumn {
			out[i] = c
			continue
		}
		out[i] = unique[next]
		next++
	}
	return out
}
