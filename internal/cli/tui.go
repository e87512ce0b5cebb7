package cli

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/resolver"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// A terminal cell stands for a block of screen pixels, so that gallery
// geometry (panel width, breakpoints, resolution levels) behaves as it
// would in a browser window of the same pixel size.
const (
	cellW = 8.0
	cellH = 16.0

	chromeRows = 2 // status line and help
	panStep    = 0.2
	zoomStep   = 1.25
)

// =============================================================================
// Keys
// =============================================================================

type keyMap struct {
	Up, Down, Left, Right key.Binding
	ZoomIn, ZoomOut       key.Binding
	Next                  key.Binding
	Search                key.Binding
	Copy                  key.Binding
	Reset                 key.Binding
	Help                  key.Binding
	Quit                  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next item")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
		Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Next, k.ZoomIn, k.ZoomOut, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Next, k.Search, k.Copy},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Messages
// =============================================================================

type frameMsg time.Time

type reloadMsg struct {
	items []item.Item
	err   error
}

// =============================================================================
// Model
// =============================================================================

// viewModel is the interactive terminal host. It owns the scene and is the
// only goroutine touching it: input, frame ticks and reloads all arrive as
// messages.
type viewModel struct {
	sc   *scene
	el   *viewport.StaticElement
	keys keyMap
	help help.Model

	cols, rows int

	searching bool
	query     string
	matches   fuzzy.Matches

	pressed bool
	press   viewport.Point
	dragged bool

	ticking    bool
	resetToken uint64
	status     string

	panel     *glamour.TermRenderer
	panelW    int
	panelKey  string
	panelText string
}

func newViewModel(sc *scene, el *viewport.StaticElement) *viewModel {
	return &viewModel{sc: sc, el: el, keys: newKeyMap(), help: help.New()}
}

func (m *viewModel) Init() tea.Cmd { return nil }

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if m.searching {
			m.updateSearch(msg)
			break
		}
		if cmd := m.updateKeys(msg); cmd != nil {
			return m, cmd
		}
	case tea.MouseMsg:
		m.updateMouse(msg)
	case frameMsg:
		m.ticking = false
		m.sc.sched.Step()
	case reloadMsg:
		if msg.err != nil {
			m.status = StyleError.Render("reload failed: " + msg.err.Error())
			break
		}
		if err := m.sc.gallery.SetItems(msg.items); err != nil {
			m.status = StyleError.Render("reload failed: " + err.Error())
			break
		}
		m.status = StyleSuccess.Render(fmt.Sprintf("reloaded %s", plural(len(msg.items), "item")))
	}
	return m, m.tick()
}

// tick schedules the next animation frame while transitions are pending.
func (m *viewModel) tick() tea.Cmd {
	if m.ticking || m.sc.sched.Pending() == 0 {
		return nil
	}
	m.ticking = true
	return tea.Tick(viewport.DefaultFrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *viewModel) resize(cols, rows int) {
	m.cols, m.rows = cols, rows
	m.el.W = float64(cols) * cellW
	m.el.H = float64(max(rows-chromeRows, 1)) * cellH
	m.help.Width = cols
}

func (m *viewModel) updateKeys(msg tea.KeyMsg) tea.Cmd {
	c, g := m.sc.ctrl, m.sc.gallery
	w, h := c.Size()
	center, zoom := c.Center(), c.Zoom()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		c.MoveTo(center.Add(viewport.Point{Y: -panStep * h / zoom}), zoom)
	case key.Matches(msg, m.keys.Down):
		c.MoveTo(center.Add(viewport.Point{Y: panStep * h / zoom}), zoom)
	case key.Matches(msg, m.keys.Left):
		c.MoveTo(center.Add(viewport.Point{X: -panStep * w / zoom}), zoom)
	case key.Matches(msg, m.keys.Right):
		c.MoveTo(center.Add(viewport.Point{X: panStep * w / zoom}), zoom)
	case key.Matches(msg, m.keys.ZoomIn):
		c.MoveTo(center, zoom*zoomStep)
	case key.Matches(msg, m.keys.ZoomOut):
		c.MoveTo(center, zoom/zoomStep)
	case key.Matches(msg, m.keys.Reset):
		m.resetToken++
		g.Reset(m.resetToken)
		m.status = "reset"
	case key.Matches(msg, m.keys.Next):
		m.activate(m.nextID())
	case key.Matches(msg, m.keys.Search):
		m.searching, m.query, m.matches = true, "", nil
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *viewModel) updateSearch(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.searching = false
		return
	case tea.KeyEnter:
		m.searching = false
		if len(m.matches) > 0 {
			m.activate(m.sc.gallery.Items()[m.matches[0].Index].ID)
		} else {
			m.status = StyleWarning.Render("no match for " + m.query)
		}
		return
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.query += " "
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	default:
		return
	}
	m.matches = fuzzy.Find(m.query, searchTexts(m.sc.gallery.Items()))
}

func searchTexts(items []item.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = strings.Join([]string{it.ID, it.Caption, it.Alt}, " ")
	}
	return out
}

func (m *viewModel) updateMouse(msg tea.MouseMsg) {
	c := m.sc.ctrl
	p := viewport.Point{X: (float64(msg.X) + 0.5) * cellW, Y: (float64(msg.Y) + 0.5) * cellH}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		c.HandleWheel(viewport.WheelEvent{X: p.X, Y: p.Y, DeltaY: -100})
	case msg.Button == tea.MouseButtonWheelDown:
		c.HandleWheel(viewport.WheelEvent{X: p.X, Y: p.Y, DeltaY: 100})
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.pressed, m.press, m.dragged = true, p, false
		c.HandlePointer(viewport.PointerEvent{ID: 1, Kind: viewport.PointerDown, X: p.X, Y: p.Y})
	case msg.Action == tea.MouseActionMotion && m.pressed:
		if p.Dist(m.press) > cellW {
			m.dragged = true
		}
		c.HandlePointer(viewport.PointerEvent{ID: 1, Kind: viewport.PointerMove, X: p.X, Y: p.Y})
	case msg.Action == tea.MouseActionRelease && m.pressed:
		m.pressed = false
		c.HandlePointer(viewport.PointerEvent{ID: 1, Kind: viewport.PointerUp, X: p.X, Y: p.Y})
		if !m.dragged {
			if id, ok := m.sc.gallery.HitTest(p.X, p.Y); ok {
				m.activate(id)
			}
		}
	}
}

func (m *viewModel) activate(id string) {
	if id == "" {
		return
	}
	if m.sc.gallery.Activate(id) {
		m.status = ""
	}
}

// nextID returns the item after the selected one in manifest order.
func (m *viewModel) nextID() string {
	items := m.sc.gallery.Items()
	if len(items) == 0 {
		return ""
	}
	i, ok := item.Index(items)[m.sc.gallery.Selected()]
	if !ok {
		return items[0].ID
	}
	return items[(i+1)%len(items)].ID
}

func (m *viewModel) copySelected() {
	f := m.sc.gallery.Frame()
	v, ok := f.Find(f.Selected)
	if !ok {
		m.status = StyleWarning.Render("nothing selected")
		return
	}
	if err := clipboard.WriteAll(v.URL); err != nil {
		m.status = StyleError.Render("copy failed: " + err.Error())
		return
	}
	m.status = StyleSuccess.Render("copied " + v.URL)
}

// =============================================================================
// Rendering
// =============================================================================

type cell struct {
	r     rune
	style int
}

var (
	itemPalette = []lipgloss.Color{"37", "73", "109", "139", "174", "180"}
	styleFailed = lipgloss.NewStyle().Foreground(colorRed)
	styleSelect = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	panelStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(colorDim)
)

const (
	styleBlank = iota
	styleFail
	styleSel
	stylePaletteBase
)

// levelRunes shades items by the resolution level their URL was resolved at.
var levelRunes = map[resolver.Level]rune{
	resolver.Low:    '░',
	resolver.Medium: '▒',
	resolver.Full:   '▓',
}

func (m *viewModel) View() string {
	if m.cols == 0 {
		return ""
	}
	f := m.sc.gallery.Frame()
	canvasRows := max(m.rows-chromeRows, 1)
	panelCols := int(math.Ceil(f.Panel / cellW))
	canvasCols := max(m.cols-panelCols, 1)

	canvas := m.drawCanvas(f, canvasCols, canvasRows)
	body := canvas
	if panelCols > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, canvas, m.drawPanel(f, panelCols-1, canvasRows))
	}
	return body + "\n" + m.statusLine(f) + "\n" + m.help.View(m.keys)
}

func (m *viewModel) drawCanvas(f gallery.Frame, cols, rows int) string {
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{r: ' '}
		}
	}

	for _, v := range f.Items {
		if !v.Visible {
			continue
		}
		x0, y0 := int(math.Floor(v.Screen.Min.X/cellW)), int(math.Floor(v.Screen.Min.Y/cellH))
		x1, y1 := int(math.Ceil(v.Screen.Max.X/cellW)), int(math.Ceil(v.Screen.Max.Y/cellH))

		fill, style := levelRunes[v.Level], stylePaletteBase+paletteIndex(v.Item.ID)
		if v.Status == gallery.StatusFailed {
			fill, style = '╳', styleFail
		}
		for y := max(y0, 0); y < min(y1, rows); y++ {
			for x := max(x0, 0); x < min(x1, cols); x++ {
				r, s := fill, style
				if v.Selected && (y == y0 || y == y1-1 || x == x0 || x == x1-1) {
					r, s = '█', styleSel
				}
				grid[y][x] = cell{r: r, style: s}
			}
		}

		// Label on the top row, inside the border.
		if y0 >= 0 && y0 < rows && x1-x0 > 4 {
			label := runewidth.Truncate(v.Item.Label(), x1-x0-2, "…")
			x := x0 + 1
			for _, r := range label {
				if x >= 0 && x < cols {
					grid[y0][x] = cell{r: r, style: style}
				}
				x += runewidth.RuneWidth(r)
			}
		}
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		writeRow(&b, row)
	}
	return b.String()
}

// writeRow renders runs of equally styled cells.
func writeRow(b *strings.Builder, row []cell) {
	start := 0
	for i := 1; i <= len(row); i++ {
		if i < len(row) && row[i].style == row[start].style {
			continue
		}
		var run strings.Builder
		for _, c := range row[start:i] {
			run.WriteRune(c.r)
		}
		b.WriteString(cellStyle(row[start].style).Render(run.String()))
		start = i
	}
}

func cellStyle(s int) lipgloss.Style {
	switch s {
	case styleBlank:
		return lipgloss.NewStyle()
	case styleFail:
		return styleFailed
	case styleSel:
		return styleSelect
	}
	return lipgloss.NewStyle().Foreground(itemPalette[s-stylePaletteBase])
}

func paletteIndex(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % uint32(len(itemPalette)))
}

// drawPanel renders the selected item's details as markdown.
func (m *viewModel) drawPanel(f gallery.Frame, cols, rows int) string {
	v, ok := f.Find(f.Selected)
	if !ok {
		return panelStyle.Width(cols).Height(rows).Render("")
	}
	cacheKey := fmt.Sprintf("%s|%d|%s|%s", v.Item.ID, cols, v.Level, v.Status)
	if cacheKey != m.panelKey {
		m.panelKey = cacheKey
		m.panelText = m.renderMarkdown(panelMarkdown(v), cols-2)
	}
	lines := strings.Split(m.panelText, "\n")
	if len(lines) > rows {
		lines = lines[:rows]
	}
	return panelStyle.Width(cols).Height(rows).Render(strings.Join(lines, "\n"))
}

func panelMarkdown(v gallery.ItemView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Item.Label())
	if v.Item.Alt != "" && v.Item.Alt != v.Item.Label() {
		fmt.Fprintf(&b, "%s\n\n", v.Item.Alt)
	}
	fmt.Fprintf(&b, "- **size** %g × %g\n", v.Item.Width, v.Item.Height)
	fmt.Fprintf(&b, "- **level** %s\n", v.Level)
	fmt.Fprintf(&b, "- **status** %s\n\n", v.Status)
	fmt.Fprintf(&b, "`%s`\n", v.URL)
	return b.String()
}

func (m *viewModel) renderMarkdown(md string, width int) string {
	if m.panel == nil || m.panelW != width {
		r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(width))
		if err != nil {
			return md
		}
		m.panel, m.panelW = r, width
	}
	out, err := m.panel.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

func (m *viewModel) statusLine(f gallery.Frame) string {
	if m.searching {
		line := StyleHighlight.Render("/") + m.query
		if len(m.matches) > 0 {
			line += StyleDim.Render("  → " + m.sc.gallery.Items()[m.matches[0].Index].ID)
		}
		return runewidth.Truncate(line, m.cols, "…")
	}
	parts := []string{
		fmt.Sprintf("zoom %.2f", f.Zoom),
		fmt.Sprintf("center %.0f,%.0f", f.Center.X, f.Center.Y),
		fmt.Sprintf("%d/%d visible", f.Visible, len(f.Items)),
		m.sc.ctrl.Mode().String(),
	}
	if f.Selected != "" {
		parts = append(parts, StyleHighlight.Render(f.Selected))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return StyleDim.Render(strings.Join(parts, " · "))
}
