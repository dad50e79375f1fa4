// Package config loads poster recipes: the canvas settings, background and
// an ordered list of layers, from YAML or JSON.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/poster/pkg/avatar"
	"github.com/user/poster/pkg/ports"
	"github.com/user/poster/pkg/poster"
	"github.com/user/poster/pkg/source"
)

// Recipe is a declarative poster description.
type Recipe struct {
	Poster     PosterConfig     `yaml:"poster" json:"poster"`
	Background BackgroundConfig `yaml:"background" json:"background"`
	Layers     []Layer          `yaml:"layers" json:"layers"`
	Output     string           `yaml:"output" json:"output,omitempty"`
}

// PosterConfig holds canvas settings.
type PosterConfig struct {
	Width   int    `yaml:"width" json:"width"`
	Height  int    `yaml:"height" json:"height"`
	Format  string `yaml:"format" json:"format"`
	Quality int    `yaml:"quality" json:"quality"`
	Strict  *bool  `yaml:"strict" json:"strict,omitempty"`
	Font    string `yaml:"font" json:"font,omitempty"`
}

// SourceConfig references an image by path, URL or base64 data.
type SourceConfig struct {
	Path string `yaml:"path" json:"path,omitempty"`
	URL  string `yaml:"url" json:"url,omitempty"`
	Data string `yaml:"data" json:"data,omitempty"`
}

// BackgroundConfig selects an image background or a blank one.
type BackgroundConfig struct {
	Source *SourceConfig `yaml:"source" json:"source,omitempty"`
	Color  string        `yaml:"color" json:"color,omitempty"`
	Width  int           `yaml:"width" json:"width,omitempty"`
	Height int           `yaml:"height" json:"height,omitempty"`
}

// Layer is one drawing operation. Exactly one field must be set.
type Layer struct {
	Image     *ImageLayer     `yaml:"image" json:"image,omitempty"`
	Text      *TextLayer      `yaml:"text" json:"text,omitempty"`
	Paragraph *ParagraphLayer `yaml:"paragraph" json:"paragraph,omitempty"`
	Line      *LineLayer      `yaml:"line" json:"line,omitempty"`
	QRCode    *QRCodeLayer    `yaml:"qrcode" json:"qrcode,omitempty"`
}

// ImageLayer pastes an image, optionally as an avatar.
type ImageLayer struct {
	Source SourceConfig  `yaml:"source" json:"source"`
	X      int           `yaml:"x" json:"x"`
	Y      int           `yaml:"y" json:"y"`
	Width  int           `yaml:"width" json:"width,omitempty"`
	Height int           `yaml:"height" json:"height,omitempty"`
	Avatar *AvatarConfig `yaml:"avatar" json:"avatar,omitempty"`
}

// AvatarConfig selects an avatar variant. Unset options keep their defaults.
type AvatarConfig struct {
	Variant     string   `yaml:"variant" json:"variant"`
	Radius      *float64 `yaml:"radius" json:"radius,omitempty"`
	BorderWidth *int     `yaml:"border_width" json:"border_width,omitempty"`
	BorderColor string   `yaml:"border_color" json:"border_color,omitempty"`
}

// TextLayer draws a single line of text.
type TextLayer struct {
	Text   string  `yaml:"text" json:"text"`
	X      int     `yaml:"x" json:"x"`
	Y      int     `yaml:"y" json:"y"`
	Size   float64 `yaml:"size" json:"size,omitempty"`
	Color  string  `yaml:"color" json:"color,omitempty"`
	Weight int     `yaml:"weight" json:"weight,omitempty"`
	Font   string  `yaml:"font" json:"font,omitempty"`
}

// ParagraphLayer draws wrapped text.
type ParagraphLayer struct {
	TextLayer  `yaml:",inline"`
	MaxWidth   float64 `yaml:"max_width" json:"max_width,omitempty"`
	LineHeight float64 `yaml:"line_height" json:"line_height,omitempty"`
}

// LineLayer draws a straight line.
type LineLayer struct {
	X1     int     `yaml:"x1" json:"x1"`
	Y1     int     `yaml:"y1" json:"y1"`
	X2     int     `yaml:"x2" json:"x2"`
	Y2     int     `yaml:"y2" json:"y2"`
	Color  string  `yaml:"color" json:"color,omitempty"`
	Stroke float64 `yaml:"stroke" json:"stroke,omitempty"`
}

// QRCodeLayer draws a QR code.
type QRCodeLayer struct {
	Content    string        `yaml:"content" json:"content"`
	X          int           `yaml:"x" json:"x"`
	Y          int           `yaml:"y" json:"y"`
	Size       int           `yaml:"size" json:"size,omitempty"`
	Margin     *int          `yaml:"margin" json:"margin,omitempty"`
	Logo       *SourceConfig `yaml:"logo" json:"logo,omitempty"`
	Foreground string        `yaml:"foreground" json:"foreground,omitempty"`
	Background string        `yaml:"background" json:"background,omitempty"`
}

// Defaults returns a Recipe with default values.
func Defaults() Recipe {
	return Recipe{
		Poster: PosterConfig{
			Width:   1064,
			Height:  600,
			Format:  "png",
			Quality: 90,
		},
	}
}

// LoadFromFile loads a recipe from a YAML or JSON file.
func LoadFromFile(path string) (Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return ParseRecipe(data)
}

// ParseRecipe parses a YAML or JSON recipe over the defaults and validates it.
func ParseRecipe(data []byte) (Recipe, error) {
	r := Defaults()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

// Validate checks the recipe structure without resolving any source.
func (r Recipe) Validate() error {
	if _, err := ParseFormat(r.Poster.Format); err != nil {
		return err
	}
	if r.Background.Source != nil {
		if _, err := r.Background.Source.ToSource(); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}
	for i, l := range r.Layers {
		if err := l.validate(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Kind returns the name of the operation the layer performs.
func (l Layer) Kind() string {
	switch {
	case l.Image != nil:
		return "image"
	case l.Text != nil:
		return "text"
	case l.Paragraph != nil:
		return "paragraph"
	case l.Line != nil:
		return "line"
	case l.QRCode != nil:
		return "qrcode"
	default:
		return ""
	}
}

func (l Layer) validate() error {
	set := 0
	for _, present := range []bool{l.Image != nil, l.Text != nil, l.Paragraph != nil, l.Line != nil, l.QRCode != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("expected exactly one operation, got %d", set)
	}

	switch {
	case l.Image != nil:
		if _, err := l.Image.Source.ToSource(); err != nil {
			return err
		}
		_, err := l.Image.Options()
		return err
	case l.Text != nil:
		_, err := l.Text.Options()
		return err
	case l.Paragraph != nil:
		_, err := l.Paragraph.Options()
		return err
	case l.Line != nil:
		_, err := l.Line.Options()
		return err
	default:
		if l.QRCode.Content == "" {
			return fmt.Errorf("qrcode content is empty")
		}
		_, err := l.QRCode.Options()
		return err
	}
}

// ParseFormat parses an output format name.
func ParseFormat(s string) (ports.ImageFormat, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return ports.FormatPNG, nil
	case "jpeg", "jpg":
		return ports.FormatJPEG, nil
	default:
		return ports.FormatPNG, fmt.Errorf("unsupported format: %q", s)
	}
}

// ToPosterConfig converts the canvas settings to poster.Config.
func (p PosterConfig) ToPosterConfig() (poster.Config, error) {
	cfg := poster.DefaultConfig()
	format, err := ParseFormat(p.Format)
	if err != nil {
		return cfg, err
	}
	cfg.Format = format
	if p.Width > 0 {
		cfg.Width = p.Width
	}
	if p.Height > 0 {
		cfg.Height = p.Height
	}
	if p.Quality > 0 {
		cfg.Quality = p.Quality
	}
	if p.Strict != nil {
		cfg.Strict = *p.Strict
	}
	cfg.FontPath = p.Font
	return cfg, nil
}

// ToSource converts the reference to a source.Source.
func (s SourceConfig) ToSource() (source.Source, error) {
	set := 0
	for _, v := range []string{s.Path, s.URL, s.Data} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return source.Source{}, fmt.Errorf("source needs exactly one of path, url or data")
	}

	switch {
	case s.URL != "":
		return source.URL(s.URL), nil
	case s.Data != "":
		data := s.Data
		if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
			data = data[i+len(";base64,"):]
		}
		blob, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return source.Source{}, fmt.Errorf("%w: invalid base64 data: %v", ports.ErrDecode, err)
		}
		return source.Blob(blob), nil
	default:
		return source.Path(s.Path), nil
	}
}

// Options converts the layer to poster.ImageOptions.
func (l ImageLayer) Options() (poster.ImageOptions, error) {
	opts := poster.ImageOptions{Width: l.Width, Height: l.Height}
	if l.Avatar != nil {
		spec, err := l.Avatar.ToSpec()
		if err != nil {
			return opts, err
		}
		opts.Avatar = &spec
	}
	return opts, nil
}

// ToSpec converts the avatar settings. Variant accepts a name or a numeric
// code.
func (a AvatarConfig) ToSpec() (avatar.Spec, error) {
	var (
		v   avatar.Variant
		err error
	)
	if code, convErr := strconv.Atoi(strings.TrimSpace(a.Variant)); convErr == nil {
		v, err = avatar.ParseVariant(code)
	} else {
		v, err = avatar.ParseVariantName(a.Variant)
	}
	if err != nil {
		return avatar.Spec{}, err
	}

	opts := avatar.DefaultOptions()
	if a.Radius != nil {
		opts.Radius = *a.Radius
	}
	if a.BorderWidth != nil {
		opts.BorderWidth = *a.BorderWidth
	}
	if a.BorderColor != "" {
		if opts.BorderColor, err = ParseColor(a.BorderColor); err != nil {
			return avatar.Spec{}, err
		}
	}
	return avatar.Spec{Variant: v, Options: opts}, nil
}

// Options converts the layer to poster.TextOptions.
func (l TextLayer) Options() (poster.TextOptions, error) {
	opts := poster.TextOptions{Size: l.Size, Weight: l.Weight, FontPath: l.Font}
	if l.Color != "" {
		c, err := ParseColor(l.Color)
		if err != nil {
			return opts, err
		}
		opts.Color = c
	}
	return opts, nil
}

// Options converts the layer to poster.ParagraphOptions.
func (l ParagraphLayer) Options() (poster.ParagraphOptions, error) {
	text, err := l.TextLayer.Options()
	if err != nil {
		return poster.ParagraphOptions{}, err
	}
	return poster.ParagraphOptions{TextOptions: text, MaxWidth: l.MaxWidth, LineHeight: l.LineHeight}, nil
}

// Options converts the layer to poster.LineOptions.
func (l LineLayer) Options() (poster.LineOptions, error) {
	opts := poster.LineOptions{Stroke: l.Stroke}
	if l.Color != "" {
		c, err := ParseColor(l.Color)
		if err != nil {
			return opts, err
		}
		opts.Color = c
	}
	return opts, nil
}

// Options converts the layer to poster.QRCodeOptions.
func (l QRCodeLayer) Options() (poster.QRCodeOptions, error) {
	opts := poster.QRCodeOptions{QROptions: ports.DefaultQROptions()}
	if l.Size > 0 {
		opts.Size = l.Size
	}
	if l.Margin != nil {
		opts.Margin = *l.Margin
	}
	var err error
	if l.Foreground != "" {
		if opts.Foreground, err = ParseColor(l.Foreground); err != nil {
			return opts, err
		}
	}
	if l.Background != "" {
		if opts.Background, err = ParseColor(l.Background); err != nil {
			return opts, err
		}
	}
	if l.Logo != nil {
		logo, err := l.Logo.ToSource()
		if err != nil {
			return opts, fmt.Errorf("logo: %w", err)
		}
		opts.Logo = &logo
	}
	return opts, nil
}
