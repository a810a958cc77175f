package odt

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// maxRepeat bounds every repeat, span and space count read from content.xml.
// Writers pad tables with blank rows repeated far beyond any real table.
const maxRepeat = 4096

// tableXML is a <table:table>. Column and row groups are flattened.
type tableXML struct {
	Columns []int
	Rows    []rowXML
}

func (t *tableXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "table-column":
				t.Columns = append(t.Columns, attrInt(el, "number-columns-repeated", 1))
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			case "table-row":
				var row rowXML
				if err := d.DecodeElement(&row, &el); err != nil {
					return err
				}
				n, clamped := attrCount(el, "number-rows-repeated")
				if clamped && row.blank() {
					// filler rows
					continue
				}
				for ; n > 0; n-- {
					t.Rows = append(t.Rows, row)
				}
				continue
			case "table-columns", "table-header-columns", "table-column-group",
				"table-rows", "table-header-rows", "table-row-group":
				depth++
				continue
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func (t *tableXML) columnCount() int {
	n := 0
	for _, c := range t.Columns {
		n += c
	}
	return min(n, maxRepeat)
}

// rowXML keeps table-cell and covered-table-cell children in document order.
type rowXML struct {
	Cells []cellXML
}

// blank reports whether no cell of the row holds text.
func (r *rowXML) blank() bool {
	for _, c := range r.Cells {
		if c.text() != "" || c.Nested {
			return false
		}
	}
	return true
}

func (r *rowXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local != "table-cell" && el.Name.Local != "covered-table-cell" {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			c := cellXML{
				Covered:  el.Name.Local == "covered-table-cell",
				ColSpan:  attrInt(el, "number-columns-spanned", 1),
				RowSpan:  attrInt(el, "number-rows-spanned", 1),
				Repeated: attrInt(el, "number-columns-repeated", 1),
			}
			var body cellBodyXML
			if err := d.DecodeElement(&body, &el); err != nil {
				return err
			}
			c.Paragraphs = body.Paragraphs
			c.Nested = body.Nested
			r.Cells = append(r.Cells, c)
		case xml.EndElement:
			return nil
		}
	}
}

type cellXML struct {
	Covered    bool
	ColSpan    int
	RowSpan    int
	Repeated   int
	Paragraphs []string
	Nested     bool
}

func (c cellXML) colSpan() int { return max(c.ColSpan, 1) }
func (c cellXML) rowSpan() int { return max(c.RowSpan, 1) }

// repeat bounds number-columns-repeated by the columns left in the row,
// so trailing filler cells do not widen the table.
func (c cellXML) repeat(left int) int {
	if c.Repeated <= 1 {
		return 1
	}
	return max(min(c.Repeated, left), 1)
}

func (c cellXML) text() string {
	return strings.Join(c.Paragraphs, "\n")
}

// cellBodyXML collects paragraphs at any depth and flags nested tables.
type cellBodyXML struct {
	Paragraphs []string
	Nested     bool
}

func (b *cellBodyXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "table":
				b.Nested = true
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			case "p", "h":
				var p paragraphXML
				if err := d.DecodeElement(&p, &el); err != nil {
					return err
				}
				b.Paragraphs = append(b.Paragraphs, p.Text)
				continue
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

// paragraphXML collects a text:p or text:h's visible text.
type paragraphXML struct {
	Text string
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "note", "annotation", "tracked-changes":
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			case "s":
				b.WriteString(strings.Repeat(" ", attrInt(el, "c", 1)))
			case "tab":
				b.WriteByte('\t')
			case "line-break":
				b.WriteByte('\n')
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				p.Text = b.String()
				return nil
			}
			depth--
		case xml.CharData:
			b.Write(el)
		}
	}
}

// attrInt returns the positive integer attribute local, bounded by
// maxRepeat, or def when it is missing or invalid.
func attrInt(el xml.StartElement, local string, def int) int {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
				return min(n, maxRepeat)
			}
		}
	}
	return def
}

// attrCount is attrInt with a default of 1 that also reports whether the
// value exceeded maxRepeat.
func attrCount(el xml.StartElement, local string) (int, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
				return min(n, maxRepeat), n > maxRepeat
			}
		}
	}
	return 1, false
}
