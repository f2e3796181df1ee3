// Package exifmeta extracts embedded EXIF tags as printable name/value pairs.
//
// Extraction is tolerant: a file without EXIF, an unsupported container or a
// malformed IFD all yield an empty result rather than an error.
package exifmeta

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"golang.org/x/text/encoding/charmap"

	"github.com/AnyUserName/imgcorpus/internal/corpusdoc"
)

// Extractor reads EXIF tags. The zero value is not usable; call New.
type Extractor struct {
	mapping *exifcommon.IfdMapping
	index   *exif.TagIndex
}

// New builds an extractor over the standard IFD mapping and tag index.
func New() (*Extractor, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("create IFD mapping: %w", err)
	}
	return &Extractor{mapping: im, index: exif.NewTagIndex()}, nil
}

// ExtractFile reads path and extracts its tags.
func (e *Extractor) ExtractFile(path string) []corpusdoc.Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return e.Extract(data)
}

// Extract returns every tag of every IFD in file order. It never fails.
func (e *Extractor) Extract(data []byte) (entries []corpusdoc.Entry) {
	// go-exif reports some malformed input by panicking.
	defer func() {
		if recover() != nil {
			entries = nil
		}
	}()

	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return nil
	}
	_, index, err := exif.Collect(e.mapping, e.index, raw)
	if err != nil || index.RootIfd == nil {
		return nil
	}

	walkChain(index.RootIfd, func(ite *exif.IfdTagEntry) {
		if value, ok := entryValue(ite); ok {
			entries = append(entries, corpusdoc.Entry{Tag: tagName(ite), Value: value})
		}
	})
	return entries
}

// walkChain visits the tags of ifd and of every IFD linked after it (IFD0,
// then IFD1), descending into child IFDs where their pointer tag sits.
// Pointer tags themselves are not visited.
func walkChain(ifd *exif.Ifd, visit func(*exif.IfdTagEntry)) {
	for ; ifd != nil; ifd = ifd.NextIfd() {
		for _, ite := range ifd.Entries() {
			if path := ite.ChildIfdPath(); path != "" {
				walkChain(ifd.ChildIfdIndex()[path], visit)
				continue
			}
			visit(ite)
		}
	}
}

func tagName(ite *exif.IfdTagEntry) string {
	if name := ite.TagName(); name != "" {
		return name
	}
	return strconv.Itoa(int(ite.TagId()))
}

func entryValue(ite *exif.IfdTagEntry) (string, bool) {
	if t := ite.TagType(); t == exifcommon.TypeByte || t == exifcommon.TypeUndefined {
		// UNDEFINED tags without a go-exif codec have no raw accessor and
		// fall through to the placeholder phrase.
		if raw, err := ite.GetRawBytes(); err == nil {
			return Sanitize(raw), true
		}
	}

	phrase, err := ite.Format()
	if err != nil {
		return "", false
	}
	return clean(phrase), true
}

// Sanitize decodes raw as ISO-8859-1 and drops every character XML 1.0
// cannot carry, NUL and the other C0 controls except tab, LF and CR.
func Sanitize(raw []byte) string {
	// Latin-1 maps every byte to a rune, so the decoder cannot fail.
	s, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return clean(string(s))
}

// clean drops runes outside the XML 1.0 Char production so that a value
// reads back from metadata.xml exactly as it was recorded.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if xmlChar(r) {
			return r
		}
		return -1
	}, s)
}

func xmlChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
