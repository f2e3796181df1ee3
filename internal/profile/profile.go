// Package profile holds named transform presets. Command-line flags,
// environment variables and config files refine a preset; they never
// change it in place.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AnyUserName/imgcorpus/internal/transform"
)

// DefaultName is used when no profile is requested.
const DefaultName = "default"

// Profile defines the baseline transform for a kind of corpus.
type Profile struct {
	Name        string
	Description string
	Transform   transform.Config
}

// Built-in profiles.
var profiles = map[string]Profile{
	"default": {
		Name:        "default",
		Description: "480x640 full color, fixed size",
		Transform:   transform.Config{Rows: 480, Columns: 640},
	},
	"gray": {
		Name:        "gray",
		Description: "480x640 grayscale, fixed size",
		Transform:   transform.Config{Rows: 480, Columns: 640, Color: transform.ColorGray},
	},
	"binary": {
		Name:        "binary",
		Description: "480x640 black and white, fixed size, png output",
		Transform:   transform.Config{Rows: 480, Columns: 640, Color: transform.ColorBinary, Type: "png"},
	},
	"thumbnail": {
		Name:        "thumbnail",
		Description: "aspect-preserving, bounded by 160 columns",
		Transform:   transform.Config{Rows: 120, Columns: 160, KeepAspect: true},
	},
}

// Get returns a profile by name.
func Get(name string) (Profile, error) {
	if name == "" {
		name = DefaultName
	}
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the built-in profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
