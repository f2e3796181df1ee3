package profile

import (
	"testing"

	"github.com/AnyUserName/imgcorpus/internal/transform"
)

func TestGet_Default(t *testing.T) {
	p, err := Get("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Transform != transform.Default() {
		t.Errorf("default transform: got %+v", p.Transform)
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	p, err := Get("Binary")
	if err != nil {
		t.Fatal(err)
	}
	if p.Transform.Color != transform.ColorBinary {
		t.Errorf("color: got %s", p.Transform.Color)
	}
}

func TestGet_Unknown(t *testing.T) {
	if _, err := Get("telegram-webview"); err == nil {
		t.Fatal("unknown profile accepted")
	}
}

func TestProfilesValidate(t *testing.T) {
	for _, n := range Names() {
		p, _ := Get(n)
		if err := p.Transform.Validate(); err != nil {
			t.Errorf("%s: %v", n, err)
		}
	}
}
