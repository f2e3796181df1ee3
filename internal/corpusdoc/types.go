package corpusdoc

import "encoding/xml"

// FileName is the fixed name of the document inside the output directory.
const FileName = "metadata.xml"

// DefaultLocatorBase prefixes every record's Details.aspx locator.
const DefaultLocatorBase = "https://phil.cdc.gov"

// locatorQuery separates the locator base from the source identifier.
const locatorQuery = "/Details.aspx?pid="

// Entry is one metadata tag/value pair. Tag names may repeat.
type Entry struct {
	Tag   string
	Value string
}

// Record describes one successfully processed image.
type Record struct {
	Index    int    // 1-based among processed images
	Name     string // source base name
	SourceID string // 5-digit prefix of Name, or Name itself
	Output   string // written file name, optional
	Checksum string // xxhash64 hex of the written bytes, optional
	Metadata []Entry
}

// Document is a parsed metadata document.
type Document struct {
	Records []Record
}

// XML shapes. Picture elements are named picture<N>, so they are collected
// through ",any" on decode and named through XMLName on encode.

type xmlRoot struct {
	XMLName  xml.Name     `xml:"root"`
	Pictures []xmlPicture `xml:",any"`
}

type xmlPicture struct {
	XMLName  xml.Name
	Name     string      `xml:"name,attr"`
	Output   string      `xml:"file,attr,omitempty"`
	Checksum string      `xml:"hash,attr,omitempty"`
	Location string      `xml:",chardata"`
	Metadata xmlMetadata `xml:"metadata"`
}

type xmlMetadata struct {
	Name string    `xml:"name,attr"`
	Data []xmlData `xml:"data"`
}

type xmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}
