package cli

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/flowgraph/pkg/controller"
	"github.com/matzehuels/flowgraph/pkg/events"
	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/render"
)

const (
	panStep       = 40.0 // Screen pixels per arrow key
	maxLabelWidth = 14
	chromeRows    = 3 // Status, help and the blank line between
)

// =============================================================================
// Key Bindings
// =============================================================================

type viewKeys struct {
	Next    key.Binding
	Prev    key.Binding
	Select  key.Binding
	Clear   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Restart key.Binding
	Quit    key.Binding
}

func defaultViewKeys() viewKeys {
	return viewKeys{
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next node")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev node")),
		Select:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("arrows", "pan")),
		Down:    key.NewBinding(key.WithKeys("down", "j")),
		Left:    key.NewBinding(key.WithKeys("left", "h")),
		Right:   key.NewBinding(key.WithKeys("right", "l")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart layout")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k viewKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Select, k.Clear, k.ZoomIn, k.Up, k.Restart, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k viewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Prev, k.ZoomOut, k.Down, k.Left, k.Right}}
}

// =============================================================================
// Viewer Model
// =============================================================================

// frameMsg advances the engine loop by one frame.
type frameMsg time.Time

// viewer is the bubbletea model of the terminal host. The engine loop is
// stepped from Update only, so the controller is never touched from
// another goroutine.
type viewer struct {
	loop  *loop.Loop
	ctrl  *controller.Controller
	keys  viewKeys
	help  help.Model
	title string

	cols, rows int
	cursor     int

	// Shared so bus handlers registered once stay valid across model copies.
	status *viewStatus
}

type viewStatus struct {
	lastEvent string
	lastError string
}

func newViewer(l *loop.Loop, ctrl *controller.Controller, title string) viewer {
	v := viewer{
		loop:   l,
		ctrl:   ctrl,
		keys:   defaultViewKeys(),
		help:   help.New(),
		title:  title,
		cols:   80,
		rows:   24,
		cursor: -1,
		status: &viewStatus{},
	}
	for _, kind := range events.Kinds {
		ctrl.On(kind, func(e events.Event) {
			if e.Kind() == events.KindStabilizationProgress {
				return
			}
			v.status.lastEvent = string(e.Kind())
			if ev, ok := e.(events.Error); ok {
				v.status.lastError = ev.Code + ": " + ev.Message
			}
		})
	}
	return v
}

func (m viewer) tick() tea.Cmd {
	return tea.Tick(m.loop.Frame(), func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Init implements tea.Model.
func (m viewer) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.loop.Step()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m viewer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r := m.ctrl.Renderer()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.cycle(1)
	case key.Matches(msg, m.keys.Prev):
		m.cycle(-1)
	case key.Matches(msg, m.keys.Select):
		if id := m.ctrl.Hovered(); id != "" {
			m.ctrl.Click(id)
		}
	case key.Matches(msg, m.keys.Clear):
		m.ctrl.BackgroundClick()
	case key.Matches(msg, m.keys.ZoomIn):
		m.ctrl.Zoom(r.Zoom() * render.WheelStep)
	case key.Matches(msg, m.keys.ZoomOut):
		m.ctrl.Zoom(r.Zoom() / render.WheelStep)
	case key.Matches(msg, m.keys.Up):
		r.PanBy(0, panStep)
	case key.Matches(msg, m.keys.Down):
		r.PanBy(0, -panStep)
	case key.Matches(msg, m.keys.Left):
		r.PanBy(panStep, 0)
	case key.Matches(msg, m.keys.Right):
		r.PanBy(-panStep, 0)
	case key.Matches(msg, m.keys.Restart):
		m.ctrl.RestartLayout()
	}
	return m, nil
}

// cycle moves the hover to the next or previous node in id order.
func (m *viewer) cycle(step int) {
	ids := m.nodeIDs()
	if len(ids) == 0 {
		return
	}
	if i := slices.Index(ids, m.ctrl.Hovered()); i >= 0 {
		m.cursor = i
	}
	if m.cursor < 0 && step < 0 {
		m.cursor = 0
	}
	m.cursor = ((m.cursor+step)%len(ids) + len(ids)) % len(ids)
	m.ctrl.Hover(ids[m.cursor])
}

func (m viewer) nodeIDs() []string {
	data := m.ctrl.Data()
	if data == nil {
		return nil
	}
	ids := make([]string, len(data.Nodes))
	for i, n := range data.Nodes {
		ids[i] = n.ID
	}
	slices.Sort(ids)
	return ids
}

// View implements tea.Model.
func (m viewer) View() string {
	var b strings.Builder
	b.WriteString(m.canvas())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m viewer) statusLine() string {
	st := m.ctrl.State()
	parts := []string{
		StyleTitle.Render(m.title),
		fmt.Sprintf("%d nodes", st.Nodes),
		fmt.Sprintf("%d edges", st.Edges),
		fmt.Sprintf("zoom %.2f", st.Zoom),
	}
	if st.Stabilizing {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("settling %d%%", st.Progress)))
	}
	if len(st.Selected) > 0 {
		parts = append(parts, StyleHighlight.Render("selected "+strings.Join(st.Selected, ",")))
	}
	if st.Hovered != "" {
		parts = append(parts, "hover "+StyleValue.Render(st.Hovered))
	}
	if m.status.lastError != "" {
		parts = append(parts, styleIconError.Render(m.status.lastError))
	} else if m.status.lastEvent != "" {
		parts = append(parts, StyleDim.Render(m.status.lastEvent))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// =============================================================================
// Canvas Rasterization
// =============================================================================

type cell struct {
	ch    rune
	color string
	bold  bool
}

type raster struct {
	cols, rows int
	cells      []cell
}

func newRaster(cols, rows int) *raster {
	return &raster{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
}

func (r *raster) at(c, row int) *cell {
	if c < 0 || row < 0 || c >= r.cols || row >= r.rows {
		return nil
	}
	return &r.cells[row*r.cols+c]
}

// line plots a straight segment, leaving occupied cells alone.
func (r *raster) line(c0, r0, c1, r1 int, color string) {
	n := max(abs(c1-c0), abs(r1-r0))
	for i := 0; i <= n; i++ {
		t := 0.0
		if n > 0 {
			t = float64(i) / float64(n)
		}
		c := int(math.Round(float64(c0) + t*float64(c1-c0)))
		row := int(math.Round(float64(r0) + t*float64(r1-r0)))
		if p := r.at(c, row); p != nil && p.ch == 0 {
			*p = cell{ch: '·', color: color}
		}
	}
}

// text writes s starting at (c, row), truncated to the raster edge.
func (r *raster) text(c, row int, s, color string) {
	for _, ch := range s {
		w := runewidth.RuneWidth(ch)
		if p := r.at(c, row); p != nil && (p.ch == 0 || p.ch == '·') {
			*p = cell{ch: ch, color: color}
		}
		c += max(w, 1)
	}
}

func (r *raster) String() string {
	var b strings.Builder
	for row := 0; row < r.rows; row++ {
		for c := 0; c < r.cols; c++ {
			p := r.cells[row*r.cols+c]
			if p.ch == 0 {
				b.WriteByte(' ')
				continue
			}
			style := lipgloss.NewStyle()
			if p.color != "" {
				style = style.Foreground(lipgloss.Color(p.color))
			}
			b.WriteString(style.Bold(p.bold).Render(string(p.ch)))
		}
		if row < r.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// canvas draws the scene scaled from the renderer surface onto the
// terminal grid.
func (m viewer) canvas() string {
	cols, rows := max(m.cols, 10), max(m.rows-chromeRows, 5)
	ras := newRaster(cols, rows)
	s := m.ctrl.Snapshot()
	if s.Width <= 0 || s.Height <= 0 {
		return ras.String()
	}
	toCell := func(x, y float64) (int, int) {
		sx, sy := s.Transform.Apply(x, y)
		return int(sx / s.Width * float64(cols)), int(sy / s.Height * float64(rows))
	}

	for _, e := range s.Edges {
		if !e.HasPath {
			continue
		}
		color := e.Color
		if e.Gradient != nil {
			color = e.Gradient.From
		}
		if e.Opacity < 0.5 {
			color = string(colorDim)
		}
		c0, r0 := toCell(e.X1, e.Y1)
		c1, r1 := toCell(e.X2, e.Y2)
		ras.line(c0, r0, c1, r1, color)
	}

	hovered := m.ctrl.Hovered()
	selected := m.ctrl.Selected()
	for _, n := range s.Nodes {
		if !n.HasPos {
			continue
		}
		c, row := toCell(n.X, n.Y)
		p := ras.at(c, row)
		if p == nil {
			continue
		}
		glyph := '●'
		switch {
		case n.ID == hovered:
			glyph = '◎'
		case slices.Contains(selected, n.ID):
			glyph = '◆'
		}
		color := n.Fill
		if n.Opacity < 0.5 {
			color = string(colorDim)
		}
		*p = cell{ch: glyph, color: color, bold: n.Highlighted}

		if n.Label != "" {
			labelColor := string(colorGray)
			if n.ID == hovered || n.Highlighted {
				labelColor = string(colorWhite)
			}
			ras.text(c+2, row, runewidth.Truncate(n.Label, maxLabelWidth, "…"), labelColor)
		}
	}
	return ras.String()
}
