package corpusdoc

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse reads a document produced by Builder.Serialize.
func Parse(r io.Reader) (*Document, error) {
	var root xmlRoot
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	doc := &Document{Records: make([]Record, 0, len(root.Pictures))}
	for _, p := range root.Pictures {
		idx, err := strconv.Atoi(strings.TrimPrefix(p.XMLName.Local, "picture"))
		if err != nil || !strings.HasPrefix(p.XMLName.Local, "picture") {
			return nil, fmt.Errorf("parse document: unexpected element <%s>", p.XMLName.Local)
		}
		rec := Record{
			Index:    idx,
			Name:     p.Name,
			SourceID: sourceIDFromLocation(p.Location),
			Output:   p.Output,
			Checksum: p.Checksum,
		}
		for _, d := range p.Metadata.Data {
			rec.Metadata = append(rec.Metadata, Entry{Tag: d.Name, Value: d.Value})
		}
		doc.Records = append(doc.Records, rec)
	}
	return doc, nil
}

// ReadFile parses the document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// sourceIDFromLocation returns everything after the first locator query
// marker, so identifiers that contain the marker themselves survive.
func sourceIDFromLocation(loc string) string {
	_, id, ok := strings.Cut(strings.TrimSpace(loc), locatorQuery)
	if !ok {
		return ""
	}
	return id
}
