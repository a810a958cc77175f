package docx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// XML structures for word/document.xml. Only the table subset is modelled.

type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    bodyXML  `xml:"body"`
}

type bodyXML struct {
	Tables []tableXML `xml:"tbl"`
}

type tableXML struct {
	Grid            tblGridXML  `xml:"tblGrid"`
	Rows            []rowXML    `xml:"tr"`
	ContentControls []ignoreXML `xml:"sdt"`
	CustomXML       []ignoreXML `xml:"customXml"`
}

type tblGridXML struct {
	Cols []ignoreXML `xml:"gridCol"`
}

type rowXML struct {
	Cells           []cellXML   `xml:"tc"`
	ContentControls []ignoreXML `xml:"sdt"`
	CustomXML       []ignoreXML `xml:"customXml"`
}

type cellXML struct {
	Props      cellPropsXML   `xml:"tcPr"`
	Paragraphs []paragraphXML `xml:"p"`
	Tables     []ignoreXML    `xml:"tbl"`
}

type cellPropsXML struct {
	GridSpan *valXML `xml:"gridSpan"`
	VMerge   *valXML `xml:"vMerge"`
}

type valXML struct {
	Val string `xml:"val,attr"`
}

// ignoreXML consumes an element whose content is not needed.
type ignoreXML struct{}

func (ignoreXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	return d.Skip()
}

// isContinuation reports a vMerge without val="restart".
func (p cellPropsXML) isContinuation() bool {
	return p.VMerge != nil && p.VMerge.Val != "restart"
}

func (p cellPropsXML) span() int {
	if p.GridSpan == nil {
		return 1
	}
	n, err := strconv.Atoi(p.GridSpan.Val)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// paragraphXML collects a paragraph's visible text in document order.
type paragraphXML struct {
	Text string
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var b strings.Builder
	depth := 0
	inText := false

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr", "rPr", "delText", "instrText", "Fallback":
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				p.Text = b.String()
				return nil
			}
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}
