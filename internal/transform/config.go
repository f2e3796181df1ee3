package transform

import (
	"fmt"
	"strings"
)

// ColorMode selects the color conversion applied before resizing.
type ColorMode int

const (
	ColorNone ColorMode = iota
	ColorBinary
	ColorGray
)

func (m ColorMode) String() string {
	switch m {
	case ColorBinary:
		return "binary"
	case ColorGray:
		return "gray"
	default:
		return "none"
	}
}

// ParseColorMode accepts "", "none", "color", "gray", "grey", "grayscale"
// and "binary".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "color":
		return ColorNone, nil
	case "gray", "grey", "grayscale":
		return ColorGray, nil
	case "binary", "bw":
		return ColorBinary, nil
	}
	return ColorNone, fmt.Errorf("unknown color mode %q", s)
}

// Default target size.
const (
	DefaultRows    = 480
	DefaultColumns = 640
)

// OutputTypes lists the accepted output extension overrides.
var OutputTypes = []string{"jpg", "tif", "bmp", "png"}

// Config is the transform applied to every image of a run.
// It is built once at startup and passed by value.
type Config struct {
	Rows       int
	Columns    int
	KeepAspect bool
	Color      ColorMode
	Type       string // output extension override without dot, "" keeps the source extension
}

// Default returns the 480x640 full-color fixed-size transform.
func Default() Config {
	return Config{Rows: DefaultRows, Columns: DefaultColumns}
}

// NormalizeType lower-cases t and checks it against OutputTypes.
// An empty string is valid and means "keep the source extension".
func NormalizeType(t string) (string, error) {
	t = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(t)), ".")
	if t == "" {
		return "", nil
	}
	for _, ok := range OutputTypes {
		if t == ok {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported output type %q (want one of %s)", t, strings.Join(OutputTypes, ", "))
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", c.Rows)
	}
	if c.Columns <= 0 {
		return fmt.Errorf("columns must be positive, got %d", c.Columns)
	}
	if _, err := NormalizeType(c.Type); err != nil {
		return err
	}
	return nil
}
