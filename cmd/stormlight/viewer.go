package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/dshills/stormlight/internal/scheme"
	"github.com/dshills/stormlight/internal/session"
	"github.com/dshills/stormlight/internal/styling"
)

const tabWidth = 4

const demoLegend = `{"tokenTypes": ["function"], "tokenModifiers": ["declaration"]}`

// altSchemeYAML is the light scheme the s key toggles to.
const altSchemeYAML = `
name: stormlight-light
default:
  fg: "#383a42"
captures:
  keyword: {fg: "#a626a4"}
  string: {fg: "#50a14f"}
  escape: {fg: "#0184bc"}
  comment: {fg: "#a0a1a7", italic: true}
  number: {fg: "#986801"}
  constant: {fg: "#986801"}
  function: {fg: "#4078f2"}
  type: {fg: "#c18401"}
  namespace: {fg: "#c18401"}
  property: {fg: "#e45649"}
  operator: {fg: "#0184bc"}
`

// quitRequest and redrawRequest ride interrupt events into the event loop,
// so goroutines outside it never touch the screen directly.
type (
	quitRequest   struct{}
	redrawRequest struct{}
)

// viewer renders a session in a terminal and feeds scrolling back to the
// styling pipeline as viewport hints.
type viewer struct {
	screen tcell.Screen
	sess   *session.Session
	alt    *scheme.Scheme
	log    *zap.Logger

	top      int
	onAlt    bool
	debug    bool
	status   string
	hasToken bool
}

func newViewer(sess *session.Session, log *zap.Logger, debug bool) (*viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	alt, err := scheme.Parse([]byte(altSchemeYAML))
	if err != nil {
		return nil, fmt.Errorf("parse alternate scheme: %w", err)
	}
	return &viewer{
		screen: screen,
		sess:   sess,
		alt:    alt,
		log:    log,
		debug:  debug,
	}, nil
}

// interrupt asks the event loop to exit. Safe from any goroutine.
func (v *viewer) interrupt() {
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(quitRequest{}))
}

// redraw asks the event loop to repaint. Safe from any goroutine.
func (v *viewer) redraw() {
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(redrawRequest{}))
}

func (v *viewer) run() error {
	if err := v.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer v.screen.Fini()

	v.updateViewport(0)
	v.draw()
	for {
		ev := v.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			v.screen.Sync()
			v.scrollTo(v.top)
		case *tcell.EventInterrupt:
			if _, quit := ev.Data().(quitRequest); quit {
				return nil
			}
		case *tcell.EventKey:
			if v.handleKey(ev) {
				return nil
			}
		}
		v.draw()
	}
}

func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		v.scrollBy(-1)
	case tcell.KeyDown:
		v.scrollBy(1)
	case tcell.KeyPgUp:
		v.scrollBy(-v.rows())
	case tcell.KeyPgDn:
		v.scrollBy(v.rows())
	case tcell.KeyHome:
		v.scrollTo(0)
	case tcell.KeyEnd:
		v.scrollTo(v.lastTop())
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'k':
			v.scrollBy(-1)
		case 'j':
			v.scrollBy(1)
		case 'g':
			v.scrollTo(0)
		case 'G':
			v.scrollTo(v.lastTop())
		case 'm':
			v.applyDemoTokens()
		case 's':
			v.toggleScheme()
		}
	}
	return false
}

// rows returns the number of text rows, reserving one for the status line.
func (v *viewer) rows() int {
	_, height := v.screen.Size()
	if height <= 1 {
		return 0
	}
	return height - 1
}

func (v *viewer) lastTop() int {
	last := v.sess.Spans().LineCount() - v.rows()
	if last < 0 {
		return 0
	}
	return last
}

func (v *viewer) scrollBy(delta int) {
	v.scrollTo(v.top + delta)
}

func (v *viewer) scrollTo(line int) {
	if limit := v.lastTop(); line > limit {
		line = limit
	}
	if line < 0 {
		line = 0
	}
	delta := line - v.top
	v.top = line
	v.updateViewport(delta)
}

func (v *viewer) updateViewport(delta int) {
	rows := v.rows()
	if rows == 0 {
		return
	}
	v.sess.Spans().OnViewportChanged(v.top, v.top+rows-1, delta)
}

func (v *viewer) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()
	sch := v.sess.Scheme()
	count := v.sess.Spans().LineCount()

	for row := 0; row < v.rows(); row++ {
		line := v.top + row
		if line >= count {
			break
		}
		v.drawLine(row, line, width, sch)
	}
	v.drawStatus(width, height)
	v.screen.Show()
}

func (v *viewer) drawLine(row, line, width int, sch *scheme.Scheme) {
	text := v.sess.Buffer().LineText(line)
	spans := v.sess.Spans().SpansForLine(line)

	x := 0
	for i, r := range text {
		if x >= width {
			break
		}
		st := v.tcellStyle(styling.StyleAt(spans, i), sch)
		if r == '\t' {
			next := (x/tabWidth + 1) * tabWidth
			for ; x < next && x < width; x++ {
				v.screen.SetContent(x, row, ' ', nil, st)
			}
			continue
		}
		v.screen.SetContent(x, row, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
}

func (v *viewer) drawStatus(width, height int) {
	if height == 0 {
		return
	}
	y := height - 1
	st := tcell.StyleDefault.Reverse(true)

	status := fmt.Sprintf(" %s  %s  %d/%d", v.sess.Path(), v.sess.Language(), v.top+1, v.sess.Spans().LineCount())
	if v.status != "" {
		status += "  " + v.status
	}
	if v.debug {
		cs := v.sess.CacheStats()
		ws := v.sess.WorkerStats()
		status += fmt.Sprintf("  [cache %d hit / %d miss / %d held  worker %d done / %d dropped]",
			cs.Hits, cs.Misses, cs.Size, ws.Processed, ws.Dropped)
	}

	x := 0
	for _, r := range status {
		if x >= width {
			break
		}
		v.screen.SetContent(x, y, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
	for ; x < width; x++ {
		v.screen.SetContent(x, y, ' ', nil, st)
	}
}

// applyDemoTokens marks the leading run of every visible line through the
// semantic token path, exercising windowed patch replacement.
func (v *viewer) applyDemoTokens() {
	count := v.sess.Spans().LineCount()
	first := v.top
	last := min(v.top+v.rows()-1, count-1)
	if last < first {
		return
	}

	if !v.hasToken {
		if err := v.sess.SetLegend([]byte(demoLegend)); err != nil {
			v.status = "legend rejected"
			v.log.Warn("demo legend", zap.Error(err))
			return
		}
		v.hasToken = true
	}

	var data []int
	prev := 0
	for line := first; line <= last; line++ {
		n := min(len(v.sess.Buffer().LineText(line)), 8)
		if n == 0 {
			continue
		}
		data = append(data, line-prev, 0, n, 0, 1)
		prev = line
	}

	payload := fmt.Sprintf(`{"data": [%s]}`, joinInts(data))
	if err := v.sess.ApplyTokensRange([]byte(payload), first, last); err != nil {
		v.status = "tokens rejected"
		v.log.Warn("demo tokens", zap.Error(err))
		return
	}
	v.status = "demo tokens applied"
}

func (v *viewer) toggleScheme() {
	v.onAlt = !v.onAlt
	sch := scheme.Default()
	if v.onAlt {
		sch = v.alt
	}
	if err := v.sess.SetScheme(sch); err != nil {
		v.status = "scheme swap failed"
		v.log.Warn("scheme swap", zap.Error(err))
		return
	}
	v.status = "scheme: " + sch.Name
}

// tcellStyle resolves a span style against the scheme: overrides win over
// palette slots, and symbolic references resolve through the palette.
func (v *viewer) tcellStyle(st styling.Style, sch *scheme.Scheme) tcell.Style {
	ts := tcell.StyleDefault

	fg := st.FgOverride
	if !fg.IsSet() {
		fg = sch.Foreground(st.Foreground)
	}
	if c, ok := tcellColor(fg, sch, true); ok {
		ts = ts.Foreground(c)
	}

	bg := st.BgOverride
	if !bg.IsSet() {
		bg = sch.Background(st.Background)
	}
	if c, ok := tcellColor(bg, sch, false); ok {
		ts = ts.Background(c)
	}

	if st.Attributes.Has(styling.AttrBold) {
		ts = ts.Bold(true)
	}
	if st.Attributes.Has(styling.AttrItalic) {
		ts = ts.Italic(true)
	}
	if st.Attributes.Has(styling.AttrUnderline) {
		ts = ts.Underline(true)
	}
	if st.Attributes.Has(styling.AttrStrikethrough) {
		ts = ts.StrikeThrough(true)
	}
	return ts
}

func tcellColor(c styling.Color, sch *scheme.Scheme, fg bool) (tcell.Color, bool) {
	if c.Ref {
		if fg {
			c = sch.Foreground(styling.ColorID(c.R))
		} else {
			c = sch.Background(styling.ColorID(c.R))
		}
	}
	if !c.IsSet() || c.Default {
		return 0, false
	}
	if c.Indexed {
		return tcell.PaletteColor(int(c.R)), true
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)), true
}

func joinInts(values []int) string {
	var b strings.Builder
	for i, n := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
