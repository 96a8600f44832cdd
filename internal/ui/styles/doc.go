// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the bcard TUI.

All colors use Lip Gloss AdaptiveColor so the same palette works on light
and dark terminals. The theme mode from config ("auto", "dark", "light")
only overrides background detection.

# Color System (colors.go)

  - Purple - Primary accent, selections, the active screen tab
  - Cyan - Brand color, links, focused inputs
  - Emerald - Success, signed-in indicator
  - Amber - Attempt warnings, lock countdown
  - Rose - Errors, blocked accounts

Every status rendered through RenderSuccess, RenderError, RenderWarning or
RenderInfo carries an ASCII indicator ([OK], [X], [!], [i]) so state is
never conveyed by color alone.

# Theme (theme.go)

	theme := styles.NewTheme("auto")
	theme.SetSize(msg.Width, msg.Height)
	header := theme.Header.Render("bcard")
*/
package styles
