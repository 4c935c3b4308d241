// Package theme provides color themes for the TUI.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/javiermolinar/planboard/internal/task"
)

// TaskColors holds the shades used to draw tasks of one palette color.
type TaskColors struct {
	Bg       lipgloss.Color // Normal block
	BgAlt    lipgloss.Color // Selected block
	BgDone   lipgloss.Color // Completed block
	Text     lipgloss.Color
	TextDone lipgloss.Color
}

// Palette holds precomputed colors derived from a Theme.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Current     lipgloss.Color
	Warning     lipgloss.Color

	TextOnAccent  lipgloss.Color
	TextOnWarning lipgloss.Color
	TextOnCurrent lipgloss.Color

	Tasks map[task.Color]TaskColors
}

// NewPalette derives a Palette from the provided Theme.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(DefaultName)
	}

	isLight := isLightTheme(t.Bg)
	p := &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Current:     lipgloss.Color(t.Current),
		Warning:     lipgloss.Color(t.Warning),

		TextOnAccent:  lipgloss.Color(chooseTextColor(t.Accent, t.Bg, t.Fg)),
		TextOnWarning: lipgloss.Color(chooseTextColor(t.Warning, t.Bg, t.Fg)),
		TextOnCurrent: lipgloss.Color(chooseTextColor(t.Current, t.Bg, t.Fg)),

		Tasks: make(map[task.Color]TaskColors, len(task.Palette)),
	}

	for _, c := range task.Palette {
		hex := t.TaskHex(c)
		bg := taskBaseBg(hex, t.Bg, isLight)
		done := taskMutedBg(hex, t.Bg, isLight)
		p.Tasks[c] = TaskColors{
			Bg:       lipgloss.Color(bg),
			BgAlt:    lipgloss.Color(alternateShade(bg, isLight)),
			BgDone:   lipgloss.Color(done),
			Text:     lipgloss.Color(chooseTextColor(bg, t.Fg, t.Bg)),
			TextDone: lipgloss.Color(t.FgMuted),
		}
	}
	return p
}

// Task returns the shades for c, falling back to the default color.
func (p *Palette) Task(c task.Color) TaskColors {
	return p.Tasks[c.OrDefault()]
}

func isLightTheme(bg string) bool {
	return relativeLuminance(bg) > 0.55
}

func taskBaseBg(accent, bg string, isLight bool) string {
	if isLight {
		return blendColors(accent, bg, 0.75)
	}
	return darkenColor(accent)
}

func taskMutedBg(accent, bg string, isLight bool) string {
	if isLight {
		return blendColors(accent, bg, 0.88)
	}
	return muteColor(accent)
}

// darkenColor pulls a hex color towards black for block backgrounds on dark
// themes, keeping every channel at least 40.
func darkenColor(hex string) string {
	return scaleColor(hex, 0.50, 40)
}

// muteColor is a stronger darkenColor for completed blocks.
func muteColor(hex string) string {
	return scaleColor(hex, 0.30, 30)
}

// alternateShade creates a subtle alternate shade for selected blocks.
func alternateShade(hex string, isLight bool) string {
	if isLight {
		return blendColors(hex, "#000000", 0.10)
	}
	return blendColors(hex, "#ffffff", 0.30)
}

func parseColor(hex string) (colorful.Color, bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(hex)
	return c, err == nil
}

// scaleColor multiplies each channel by factor with a floor (0-255).
// Malformed input is returned unchanged.
func scaleColor(hex string, factor float64, floor int) string {
	c, ok := parseColor(hex)
	if !ok {
		return hex
	}
	f := float64(floor) / 255
	return colorful.Color{
		R: max(c.R*factor, f),
		G: max(c.G*factor, f),
		B: max(c.B*factor, f),
	}.Hex()
}

func chooseTextColor(bg, lightText, darkText string) string {
	lightContrast := contrastRatio(bg, lightText)
	darkContrast := contrastRatio(bg, darkText)
	if lightContrast >= darkContrast {
		return lightText
	}
	return darkText
}

func contrastRatio(a, b string) float64 {
	l1 := relativeLuminance(a)
	l2 := relativeLuminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func relativeLuminance(hex string) float64 {
	c, ok := parseColor(hex)
	if !ok {
		return 0
	}
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// blendColors mixes b into a by ratio in RGB space.
func blendColors(a, b string, ratio float64) string {
	ca, ok := parseColor(a)
	if !ok {
		return a
	}
	cb, ok := parseColor(b)
	if !ok {
		return a
	}
	return ca.BlendRgb(cb, task.ClampFloat(ratio, 0, 1)).Hex()
}
