package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/user/poster/pkg/avatar"
	"github.com/user/poster/pkg/ports"
	"github.com/user/poster/pkg/source"
)

const shareRecipe = `
poster:
  format: jpeg
  quality: 85
  strict: false
background:
  source:
    path: ./assets/bg.png
layers:
  - image:
      source: {url: "https://example.com/avatar.png"}
      x: 40
      y: 40
      width: 120
      height: 120
      avatar:
        variant: rounded-bordered
        border_width: 4
        border_color: "#fff"
  - text: {text: "Alice", x: 180, y: 90, size: 28, color: "rgb(20,20,20)", weight: 700}
  - paragraph:
      text: "Scan the code to join"
      x: 40
      y: 220
      size: 18
      max_width: 300
  - line: {x1: 40, y1: 200, x2: 600, y2: 200, color: lightgray, stroke: 2}
  - qrcode: {content: "https://example.com/join", x: 700, y: 200, size: 200, margin: 0}
output: out/share.jpg
`

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe([]byte(shareRecipe))
	if err != nil {
		t.Fatalf("ParseRecipe failed: %v", err)
	}

	// Unset fields keep their defaults.
	if r.Poster.Width != 1064 || r.Poster.Height != 600 {
		t.Errorf("expected default size, got %dx%d", r.Poster.Width, r.Poster.Height)
	}
	if r.Output != "out/share.jpg" {
		t.Errorf("unexpected output %q", r.Output)
	}

	var kinds []string
	for _, l := range r.Layers {
		kinds = append(kinds, l.Kind())
	}
	if diff := cmp.Diff([]string{"image", "text", "paragraph", "line", "qrcode"}, kinds); diff != "" {
		t.Errorf("unexpected layer kinds (-want +got):\n%s", diff)
	}

	if r.Layers[2].Paragraph.Text != "Scan the code to join" || r.Layers[2].Paragraph.MaxWidth != 300 {
		t.Errorf("unexpected paragraph %+v", r.Layers[2].Paragraph)
	}
}

func TestParseRecipe_JSON(t *testing.T) {
	data := []byte(`{"poster": {"width": 300, "height": 300}, "background": {"color": "white"},
  "layers": [{"text": {"text": "Hi", "x": 10, "y": 50, "size": 20}}]}`)

	r, err := ParseRecipe(data)
	if err != nil {
		t.Fatalf("ParseRecipe failed: %v", err)
	}
	if r.Poster.Width != 300 || len(r.Layers) != 1 || r.Layers[0].Text.Text != "Hi" {
		t.Errorf("unexpected recipe %+v", r)
	}
}

func TestParseRecipe_Invalid(t *testing.T) {
	tests := map[string]string{
		"two operations": "layers:\n  - text: {text: a}\n    line: {x1: 1}\n",
		"no operation":   "layers:\n  - {}\n",
		"bad variant":    "layers:\n  - image: {source: {path: a.png}, avatar: {variant: hexagon}}\n",
		"bad color":      "layers:\n  - text: {text: a, color: notacolor}\n",
		"bad format":     "poster: {format: bmp}\n",
		"two sources":    "background: {source: {path: a.png, url: 'http://x/a.png'}}\n",
		"empty qrcode":   "layers:\n  - qrcode: {x: 1}\n",
		"bad yaml":       "layers: [",
	}

	for name, data := range tests {
		if _, err := ParseRecipe([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	_, err := ParseRecipe([]byte("layers:\n  - image: {source: {path: a.png}, avatar: {variant: \"99\"}}\n"))
	if !errors.Is(err, ports.ErrInvalidVariant) {
		t.Errorf("expected ErrInvalidVariant, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	if err := os.WriteFile(path, []byte(shareRecipe), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if len(r.Layers) != 5 {
		t.Errorf("expected 5 layers, got %d", len(r.Layers))
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestPosterConfig_ToPosterConfig(t *testing.T) {
	r, err := ParseRecipe([]byte(shareRecipe))
	if err != nil {
		t.Fatalf("ParseRecipe failed: %v", err)
	}

	cfg, err := r.Poster.ToPosterConfig()
	if err != nil {
		t.Fatalf("ToPosterConfig failed: %v", err)
	}
	if cfg.Format != ports.FormatJPEG || cfg.Quality != 85 || cfg.Strict {
		t.Errorf("unexpected config %+v", cfg)
	}

	cfg, _ = Defaults().Poster.ToPosterConfig()
	if !cfg.Strict || cfg.Format != ports.FormatPNG || cfg.Quality != 90 {
		t.Errorf("unexpected default config %+v", cfg)
	}
}

func TestSourceConfig_ToSource(t *testing.T) {
	tests := []struct {
		cfg  SourceConfig
		kind source.Kind
	}{
		{SourceConfig{Path: "a.png"}, source.KindPath},
		{SourceConfig{Path: "https://example.com/a.png"}, source.KindPath},
		{SourceConfig{URL: "https://example.com/a.png"}, source.KindURL},
		{SourceConfig{Data: "SU1HOjF4MQ=="}, source.KindBlob},
		{SourceConfig{Data: "data:image/png;base64,SU1HOjF4MQ=="}, source.KindBlob},
	}

	for _, tt := range tests {
		got, err := tt.cfg.ToSource()
		if err != nil {
			t.Errorf("ToSource(%+v) failed: %v", tt.cfg, err)
			continue
		}
		if got.Kind != tt.kind {
			t.Errorf("ToSource(%+v).Kind = %v, want %v", tt.cfg, got.Kind, tt.kind)
		}
		if got.Kind == source.KindBlob && string(got.Blob) != "IMG:1x1" {
			t.Errorf("unexpected blob %q", got.Blob)
		}
	}

	if _, err := (SourceConfig{Data: "!!!"}).ToSource(); !errors.Is(err, ports.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if _, err := (SourceConfig{}).ToSource(); err == nil {
		t.Error("expected error for empty source")
	}
}

func TestAvatarConfig_ToSpec(t *testing.T) {
	radius := 0.5
	spec, err := AvatarConfig{Variant: "2", Radius: &radius}.ToSpec()
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}
	if spec.Variant != avatar.Rounded || spec.Options.Radius != 0.5 || spec.Options.BorderWidth != 2 {
		t.Errorf("unexpected spec %+v", spec)
	}

	spec, err = AvatarConfig{Variant: "circular", BorderColor: "#000"}.ToSpec()
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}
	if spec.Variant != avatar.Circular || spec.Options.BorderColor != (color.NRGBA{A: 255}) {
		t.Errorf("unexpected spec %+v", spec)
	}
}

func TestQRCodeLayer_Options(t *testing.T) {
	margin := 0
	opts, err := QRCodeLayer{Content: "x", Size: 200, Margin: &margin, Foreground: "navy"}.Options()
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	if opts.Size != 200 || opts.Margin != 0 || opts.Foreground != color.Color(color.RGBA{B: 0x80, A: 0xff}) {
		t.Errorf("unexpected options %+v", opts)
	}

	opts, _ = QRCodeLayer{Content: "x"}.Options()
	if opts.Size != 330 || opts.Margin != 10 {
		t.Errorf("expected defaults, got %+v", opts)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"#ff0000", color.NRGBA{R: 255, A: 255}},
		{"#F00", color.NRGBA{R: 255, A: 255}},
		{"#00ff0080", color.NRGBA{G: 255, A: 128}},
		{"rgb(1, 2, 3)", color.NRGBA{R: 1, G: 2, B: 3, A: 255}},
		{"rgba(255,255,255,0.5)", color.NRGBA{R: 255, G: 255, B: 255, A: 128}},
		{"none", color.Transparent},
		{"Transparent", color.Transparent},
		{"white", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{"gray", color.RGBA{R: 128, G: 128, B: 128, A: 255}},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "#12", "#gggggg", "rgb(1,2)", "rgb(256,0,0)", "rgba(0,0,0,2)", "blurple"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q): expected error", in)
		}
	}
}
