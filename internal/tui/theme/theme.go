// Package theme provides color themes for the TUI.
package theme

import (
	"embed"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/planboard/internal/task"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

// DefaultName is used when no theme or an unknown theme is configured.
const DefaultName = "frappe"

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Base background
	BgHighlight string `toml:"bg_highlight"` // Headers, grid lines
	BgSelection string `toml:"bg_selection"` // Marquee, selection
	Fg          string `toml:"fg"`           // Primary foreground
	FgMuted     string `toml:"fg_muted"`     // Done tasks, time labels
	Accent      string `toml:"accent"`       // Title, borders
	Current     string `toml:"current"`      // Now line, today header
	Warning     string `toml:"warning"`      // Conflicts, errors

	// Task palette
	Blue   string `toml:"blue"`
	Green  string `toml:"green"`
	Red    string `toml:"red"`
	Yellow string `toml:"yellow"`
	Purple string `toml:"purple"`
	Orange string `toml:"orange"`
	Gray   string `toml:"gray"`
}

// Color returns a lipgloss.Color for the given hex string.
func Color(hex string) lipgloss.Color {
	return lipgloss.Color(hex)
}

// Load loads a theme by name from embedded files.
// Falls back to the default theme if the theme is not found.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = DefaultName
	}
	name = strings.ToLower(name)

	data, err := embeddedThemes.ReadFile("embedded/" + name + ".toml")
	if err != nil {
		if name != DefaultName {
			return Load(DefaultName)
		}
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	t.applyDefaults()

	return &t, nil
}

// TaskHex returns the hex value of a task color.
func (t *Theme) TaskHex(c task.Color) string {
	switch c.OrDefault() {
	case task.ColorGreen:
		return t.Green
	case task.ColorRed:
		return t.Red
	case task.ColorYellow:
		return t.Yellow
	case task.ColorPurple:
		return t.Purple
	case task.ColorOrange:
		return t.Orange
	case task.ColorGray:
		return t.Gray
	default:
		return t.Blue
	}
}

func (t *Theme) applyDefaults() {
	t.BgSelection = coalesce(t.BgSelection, t.BgHighlight, t.Bg)
	t.Current = coalesce(t.Current, t.Accent)
	t.Warning = coalesce(t.Warning, t.Red, t.Accent)
	t.Blue = coalesce(t.Blue, t.Accent)
	for _, c := range []*string{&t.Green, &t.Red, &t.Yellow, &t.Purple, &t.Orange, &t.Gray} {
		*c = coalesce(*c, t.Blue)
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	name = strings.ToLower(name)
	for _, themeName := range Available() {
		if themeName == name {
			return true
		}
	}
	return false
}
