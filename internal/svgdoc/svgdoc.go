// Package svgdoc reads the drawing and text content of an SVG document.
package svgdoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// Document is the content of one SVG page.
type Document struct {
	// Paths holds the d attribute of every path element in document order.
	Paths []string
	// Texts holds the text of every tspan, or of a text element that has no
	// tspan children, in document order.
	Texts []string
}

type textFrame struct {
	buf    strings.Builder
	tspans int
}

// Read decodes an SVG document from r.
func Read(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	doc := &Document{}
	var texts []*textFrame // open text elements
	var tspan *strings.Builder
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.ConversionError("failed to decode SVG", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "svg":
				sawRoot = true
			case "path":
				for _, a := range t.Attr {
					if a.Name.Local == "d" {
						doc.Paths = append(doc.Paths, a.Value)
						break
					}
				}
			case "text":
				texts = append(texts, &textFrame{})
			case "tspan":
				if n := len(texts); n > 0 {
					texts[n-1].tspans++
				}
				tspan = &strings.Builder{}
			}

		case xml.CharData:
			if tspan != nil {
				tspan.Write(t)
			} else if n := len(texts); n > 0 {
				texts[n-1].buf.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tspan":
				if tspan != nil {
					doc.Texts = append(doc.Texts, strings.TrimSpace(tspan.String()))
					tspan = nil
				}
			case "text":
				if n := len(texts); n > 0 {
					f := texts[n-1]
					texts = texts[:n-1]
					if f.tspans == 0 {
						doc.Texts = append(doc.Texts, strings.TrimSpace(f.buf.String()))
					}
				}
			}
		}
	}

	if !sawRoot {
		return nil, domain.ConversionError("document has no svg root element", nil)
	}
	return doc, nil
}

// Parse decodes an in-memory SVG document.
func Parse(data []byte) (*Document, error) {
	return Read(bytes.NewReader(data))
}
