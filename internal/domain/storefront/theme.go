package storefront

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"gopkg.in/yaml.v3"
)

// ThemeMode is the storefront colour scheme
type ThemeMode string

const (
	ThemeModeLight ThemeMode = "light"
	ThemeModeDark  ThemeMode = "dark"
	ThemeModeAuto  ThemeMode = "auto"
)

// IsValid reports whether m is a known mode
func (m ThemeMode) IsValid() bool {
	return m == ThemeModeLight || m == ThemeModeDark || m == ThemeModeAuto
}

var (
	layouts      = map[string]bool{"grid": true, "list": true, "minimal": true, "masonry": true}
	fonts        = map[string]bool{"inter": true, "roboto": true, "poppins": true, "montserrat": true}
	buttonStyles = map[string]bool{"rounded": true, "rounded-full": true, "square": true}
	cardStyles   = map[string]bool{"shadow": true, "border": true, "elevated": true}
	hexColor     = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Theme is a shop's visual configuration
type Theme struct {
	ID              string    `yaml:"id" json:"id,omitempty"`
	Name            string    `yaml:"name" json:"name"`
	Mode            ThemeMode `yaml:"mode" json:"mode"`
	PrimaryColor    string    `yaml:"primary_color" json:"primary_color"`
	AccentColor     string    `yaml:"accent_color" json:"accent_color"`
	BackgroundColor string    `yaml:"background_color" json:"background_color"`
	TextColor       string    `yaml:"text_color" json:"text_color"`
	Layout          string    `yaml:"layout" json:"layout"`
	Font            string    `yaml:"font" json:"font"`
	HasGradient     bool      `yaml:"has_gradient" json:"has_gradient"`
	Gradient        string    `yaml:"gradient" json:"gradient,omitempty"`
	ButtonStyle     string    `yaml:"button_style" json:"button_style"`
	CardStyle       string    `yaml:"card_style" json:"card_style"`
	Animations      bool      `yaml:"animations" json:"animations"`
	CustomCSS       string    `yaml:"custom_css" json:"custom_css,omitempty"`
}

//go:embed themes.yaml
var themesYAML []byte

type themeCatalog struct {
	Free    Theme   `yaml:"free"`
	Presets []Theme `yaml:"presets"`
}

var catalog = mustLoadThemes(themesYAML)

func mustLoadThemes(data []byte) themeCatalog {
	var c themeCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		panic(fmt.Sprintf("storefront: invalid theme catalogue: %v", err))
	}
	c.Free.Mode = ThemeModeLight
	for i := range c.Presets {
		c.Presets[i].Mode = ThemeModeLight
	}
	return c
}

// DefaultTheme returns the free plan theme
func DefaultTheme() Theme {
	return catalog.Free
}

// Presets returns the preset themes in catalogue order
func Presets() []Theme {
	out := make([]Theme, len(catalog.Presets))
	copy(out, catalog.Presets)
	return out
}

// PresetByID looks up a preset theme
func PresetByID(id string) (Theme, bool) {
	for _, t := range catalog.Presets {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// AvailableThemes lists the themes a plan can pick from and whether free-form
// customization is allowed.
func AvailableThemes(plan identity.Plan) ([]Theme, bool) {
	switch plan {
	case identity.PlanPro:
		return Presets(), false
	case identity.PlanPremium:
		return Presets(), true
	default:
		return []Theme{DefaultTheme()}, false
	}
}

// ThemeChange is a theme update request; nil fields are unchanged
type ThemeChange struct {
	Preset          string
	Name            *string
	PrimaryColor    *string
	AccentColor     *string
	BackgroundColor *string
	TextColor       *string
	Layout          *string
	Font            *string
	HasGradient     *bool
	Gradient        *string
	ButtonStyle     *string
	CardStyle       *string
	Animations      *bool
	CustomCSS       *string
}

func (c ThemeChange) onlyLayoutOrFont() bool {
	return c.Preset == "" && (c.Layout != nil || c.Font != nil)
}

// ChangeTheme applies c under the owner's plan. Free shops keep the default
// theme, pro shops pick a preset or change layout and font, premium shops may
// set anything.
func (s *Shop) ChangeTheme(c ThemeChange, plan identity.Plan) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	switch plan {
	case identity.PlanPro:
		if c.onlyLayoutOrFont() {
			if c.Layout != nil {
				s.Theme.Layout = *c.Layout
			}
			if c.Font != nil {
				s.Theme.Font = *c.Font
			}
			break
		}
		preset, ok := PresetByID(c.Preset)
		if !ok {
			return shared.NewDomainError("INVALID_INPUT", "Pro plan users must select from available preset themes.")
		}
		s.Theme = applyPreset(preset, s.Theme.Mode, "")
	case identity.PlanPremium:
		if preset, ok := PresetByID(c.Preset); ok {
			s.Theme = applyPreset(preset, s.Theme.Mode, s.Theme.CustomCSS)
			break
		}
		s.Theme.customize(c)
	default:
		return shared.PlanLimit("Theme customization is not available on the Free plan. Upgrade to Pro or Premium to customize your shop theme.")
	}
	s.touch()
	return nil
}

func applyPreset(p Theme, mode ThemeMode, customCSS string) Theme {
	p.Mode = mode
	p.CustomCSS = customCSS
	return p
}

func (t *Theme) customize(c ThemeChange) {
	set := func(dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
		}
	}
	set(&t.Name, c.Name)
	if c.Name == nil && c.Preset != "" {
		t.Name = c.Preset
	}
	set(&t.PrimaryColor, c.PrimaryColor)
	set(&t.AccentColor, c.AccentColor)
	set(&t.BackgroundColor, c.BackgroundColor)
	set(&t.TextColor, c.TextColor)
	set(&t.Layout, c.Layout)
	set(&t.Font, c.Font)
	set(&t.Gradient, c.Gradient)
	set(&t.ButtonStyle, c.ButtonStyle)
	set(&t.CardStyle, c.CardStyle)
	if c.HasGradient != nil {
		t.HasGradient = *c.HasGradient
	}
	if c.Animations != nil {
		t.Animations = *c.Animations
	}
	if c.CustomCSS != nil {
		t.CustomCSS = *c.CustomCSS
	}
}

func (c ThemeChange) validate() error {
	for _, color := range []*string{c.PrimaryColor, c.AccentColor, c.BackgroundColor, c.TextColor} {
		if color != nil && *color != "" && !hexColor.MatchString(*color) {
			return shared.NewDomainError("INVALID_INPUT", "Please provide a valid hex color code")
		}
	}
	check := func(v *string, allowed map[string]bool, msg string) error {
		if v != nil && *v != "" && !allowed[*v] {
			return shared.NewDomainError("INVALID_INPUT", msg)
		}
		return nil
	}
	if err := check(c.Layout, layouts, "Layout must be grid, list, minimal or masonry"); err != nil {
		return err
	}
	if err := check(c.Font, fonts, "Font must be inter, roboto, poppins or montserrat"); err != nil {
		return err
	}
	if err := check(c.ButtonStyle, buttonStyles, "Invalid button style"); err != nil {
		return err
	}
	return check(c.CardStyle, cardStyles, "Invalid card style")
}
