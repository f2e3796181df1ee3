// Package corpusdoc builds and parses the corpus metadata document.
package corpusdoc

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Builder accumulates records in append order. It is not safe for
// concurrent use; the pipeline's collector is its only writer.
type Builder struct {
	locatorBase string
	records     []Record
}

// NewBuilder returns an empty builder. An empty locatorBase selects
// DefaultLocatorBase.
func NewBuilder(locatorBase string) *Builder {
	if locatorBase == "" {
		locatorBase = DefaultLocatorBase
	}
	return &Builder{locatorBase: strings.TrimSuffix(locatorBase, "/")}
}

// AddRecord appends rec. Its Index must be exactly Len()+1.
func (b *Builder) AddRecord(rec Record) error {
	if want := len(b.records) + 1; rec.Index != want {
		return fmt.Errorf("record %q: index %d out of sequence, want %d", rec.Name, rec.Index, want)
	}
	rec.Metadata = append([]Entry(nil), rec.Metadata...)
	b.records = append(b.records, rec)
	return nil
}

// Len returns the number of records added so far.
func (b *Builder) Len() int { return len(b.records) }

// Records returns a copy of the records in insertion order.
func (b *Builder) Records() []Record {
	return append([]Record(nil), b.records...)
}

// Locator returns the location text for a source identifier.
func (b *Builder) Locator(sourceID string) string {
	return "location " + b.locatorBase + locatorQuery + sourceID
}

// Serialize renders the document as tab-indented XML. A builder without
// records yields an empty root element.
func (b *Builder) Serialize() ([]byte, error) {
	root := xmlRoot{Pictures: make([]xmlPicture, 0, len(b.records))}
	for _, r := range b.records {
		p := xmlPicture{
			XMLName:  xml.Name{Local: fmt.Sprintf("picture%d", r.Index)},
			Name:     r.Name,
			Output:   r.Output,
			Checksum: r.Checksum,
			Location: b.Locator(r.SourceID),
			Metadata: xmlMetadata{Name: "metadata", Data: make([]xmlData, 0, len(r.Metadata))},
		}
		for _, e := range r.Metadata {
			p.Metadata.Data = append(p.Metadata.Data, xmlData{Name: e.Tag, Value: e.Value})
		}
		root.Pictures = append(root.Pictures, p)
	}

	body, err := xml.MarshalIndent(root, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}
