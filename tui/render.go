// cybercraft-launcher/tui/render.go
package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"

	"cybercraft-launcher/controller"
)

const (
	listWidth = 28
	logHeight = 8
)

const (
	fgDefault = termbox.ColorDefault
	bgDefault = termbox.ColorDefault
)

type loginForm struct {
	username string
	password int
	focus    field
}

func render(st controller.State, form loginForm) {
	termbox.Clear(fgDefault, bgDefault)
	w, h := termbox.Size()

	drawText(1, 0, "CyberCraft Launcher", termbox.ColorCyan|termbox.AttrBold, bgDefault)
	if st.Identity != nil {
		who := "signed in as " + st.Identity.Username
		drawText(w-runewidth.StringWidth(who)-1, 0, who, termbox.ColorGreen, bgDefault)
	}

	if st.Auth == controller.LoggedOut {
		renderLogin(form, w)
	} else {
		renderServers(st, w, h)
	}
	renderLogs(st.Logs, w, h)
	if st.Draft != nil {
		renderSettings(st, w, h)
	}

	drawText(1, h-2, truncate(st.Status, w-2), termbox.ColorYellow, bgDefault)
	drawText(1, h-1, truncate(helpLine(st), w-2), termbox.ColorBlue, bgDefault)
	termbox.Flush()
}

func helpLine(st controller.State) string {
	switch {
	case st.Auth == controller.LoggedOut:
		return "Tab switch field  Enter sign in  Esc quit"
	case st.Draft != nil:
		return "←/→ memory  b browse  Enter save  Esc cancel"
	}
	help := "↑/↓ select  Enter play  s settings  l logout  1 telegram  2 youtube  3 discord  m minimize  q quit"
	if st.Update != nil && st.Update.UpdateAvailable {
		help = "u update  " + help
	}
	return help
}

func renderLogin(form loginForm, w int) {
	x := w/2 - 20
	if x < 1 {
		x = 1
	}
	drawText(x, 3, "Sign in", termbox.AttrBold, bgDefault)
	drawField(x, 5, "Username", form.username, form.focus == fieldUsername)
	drawField(x, 6, "Password", strings.Repeat("*", form.password), form.focus == fieldPassword)
}

func drawField(x, y int, label, value string, focused bool) {
	fg := fgDefault
	if focused {
		fg = termbox.ColorCyan
		value += "_"
	}
	drawText(x, y, fmt.Sprintf("%-9s %s", label+":", value), fg, bgDefault)
}

func renderServers(st controller.State, w, h int) {
	bottom := h - logHeight - 3
	drawText(1, 2, "Servers", termbox.AttrBold, bgDefault)
	if len(st.Servers) == 0 {
		drawText(1, 3, "no servers", termbox.ColorDefault, bgDefault)
	}
	for i, server := range st.Servers {
		y := 3 + i
		if y > bottom {
			break
		}
		fg, bg := fgDefault, bgDefault
		if i == st.Selected {
			fg, bg = termbox.ColorBlack, termbox.ColorCyan
		}
		line := fmt.Sprintf(" %s (%d)", server.Name, server.OnlinePlayerCount)
		drawText(1, y, padRight(truncate(line, listWidth), listWidth), fg, bg)
	}

	server, ok := st.SelectedServer()
	if !ok {
		return
	}
	x := listWidth + 3
	width := w - x - 1
	lines := []string{
		server.Name,
		fmt.Sprintf("Players online: %d", server.OnlinePlayerCount),
		"Version: " + server.Version,
	}
	if server.ImageURL != "" {
		lines = append(lines, "Image: "+server.ImageURL)
	}
	for _, img := range server.Images {
		lines = append(lines, "  "+img.Image)
	}
	if len(server.Mods) > 0 {
		lines = append(lines, "Mods:")
		for _, mod := range server.Mods {
			lines = append(lines, "  - "+mod)
		}
	}
	if st.SkinURL != "" {
		lines = append(lines, "Skin: "+st.SkinURL)
	}
	for i, line := range lines {
		y := 2 + i
		if y > bottom {
			break
		}
		attr := fgDefault
		if i == 0 {
			attr = termbox.AttrBold
		}
		drawText(x, y, truncate(line, width), attr, bgDefault)
	}
}

func renderLogs(logs []string, w, h int) {
	top := h - logHeight - 2
	if top < 1 {
		return
	}
	drawText(1, top, strings.Repeat("─", w-2), termbox.ColorBlue, bgDefault)
	visible := logs
	if len(visible) > logHeight-1 {
		visible = visible[len(visible)-(logHeight-1):]
	}
	for i, line := range visible {
		fg := fgDefault
		switch {
		case strings.HasPrefix(line, "[ERROR]"):
			fg = termbox.ColorRed
		case strings.HasPrefix(line, "[DEBUG]"):
			fg = termbox.ColorBlue
		}
		drawText(1, top+1+i, truncate(line, w-2), fg, bgDefault)
	}
}

func renderSettings(st controller.State, w, h int) {
	const boxWidth, boxHeight = 56, 7
	x, y := (w-boxWidth)/2, (h-boxHeight)/2
	for row := 0; row < boxHeight; row++ {
		drawText(x, y+row, strings.Repeat(" ", boxWidth), fgDefault, termbox.ColorBlack)
	}
	bg := termbox.ColorBlack
	drawText(x+2, y+1, "Settings", termbox.ColorWhite|termbox.AttrBold, bg)
	drawText(x+2, y+3, fmt.Sprintf("Memory: ◀ %d GB ▶  (host %d GB)", st.Draft.RAMGigabytes, st.MaxMemoryGB), termbox.ColorWhite, bg)
	drawText(x+2, y+4, "Game folder: "+truncate(st.Draft.GamePath, boxWidth-17), termbox.ColorWhite, bg)
}

// drawText writes s at (x, y) and returns the column after it.
func drawText(x, y int, s string, fg, bg termbox.Attribute) int {
	for _, r := range s {
		termbox.SetCell(x, y, r, fg, bg)
		x += runewidth.RuneWidth(r)
	}
	return x
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
