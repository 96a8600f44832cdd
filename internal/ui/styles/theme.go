// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// FRAME
	// ==========================================================================

	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderUser  lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	StatusBar   lipgloss.Style
	ShortcutKey lipgloss.Style
	ShortcutDsc lipgloss.Style

	// ==========================================================================
	// CONTENT
	// ==========================================================================

	Title        lipgloss.Style
	Subtitle     lipgloss.Style
	Muted        lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	CardBox      lipgloss.Style
	Label        lipgloss.Style
	Value        lipgloss.Style

	// ==========================================================================
	// FORMS
	// ==========================================================================

	FormBox        lipgloss.Style
	InputLabel     lipgloss.Style
	InputFocused   lipgloss.Style
	Button         lipgloss.Style
	ButtonFocused  lipgloss.Style
	ButtonDisabled lipgloss.Style
	Attempts       lipgloss.Style
	AttemptsLow    lipgloss.Style

	// ==========================================================================
	// BANNERS
	// ==========================================================================

	LockBanner    lipgloss.Style
	WarningBanner lipgloss.Style
	Toast         lipgloss.Style
	ToastError    lipgloss.Style
}

// NewTheme creates a theme. mode is "auto", "dark" or "light"; anything
// other than dark or light means detect.
func NewTheme(mode string) *Theme {
	colorProfile := lipgloss.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = lipgloss.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.HeaderUser = lipgloss.NewStyle().Foreground(Emerald)
	t.Tab = lipgloss.NewStyle().Foreground(TextSecondary).Padding(0, 1)
	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.ShortcutDsc = lipgloss.NewStyle().Foreground(TextMuted)

	t.Title = lipgloss.NewStyle().Bold(true).Foreground(Purple).MarginBottom(1)
	t.Subtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.ListItem = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.ListSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Purple).
		PaddingLeft(1)
	t.CardBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.Label = lipgloss.NewStyle().Foreground(TextSecondary).Width(12)
	t.Value = lipgloss.NewStyle().Foreground(TextPrimary)

	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)
	t.InputLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.InputFocused = lipgloss.NewStyle().Foreground(Cyan)
	t.Button = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(Overlay).
		Padding(0, 2)
	t.ButtonFocused = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Cyan).
		Padding(0, 2)
	t.ButtonDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim).
		Strikethrough(true).
		Padding(0, 2)
	t.Attempts = lipgloss.NewStyle().Foreground(TextSecondary)
	t.AttemptsLow = lipgloss.NewStyle().Bold(true).Foreground(Amber)

	t.LockBanner = lipgloss.NewStyle().
		Foreground(Rose).
		Background(RoseDeep).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(Rose).
		Padding(0, 1)
	t.WarningBanner = lipgloss.NewStyle().
		Foreground(Amber).
		Background(AmberDeep).
		Padding(0, 1)
	t.Toast = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Emerald).
		Padding(0, 1)
	t.ToastError = t.Toast.BorderForeground(Rose)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}
