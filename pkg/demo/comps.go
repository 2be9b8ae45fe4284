package demo

import (
	"fmt"
	"time"

	"github.com/loomtk/loom/pkg/comp"
	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/wcwidth"
)

// Messages the demo's components report back through Tick.
type (
	// drawMsg asks the loop to repaint.
	drawMsg struct{}
	// quitMsg asks the loop to exit.
	quitMsg struct{}
)

// attrs is a map-backed attribute store for components to embed.
type attrs map[comp.Attribute]comp.AttrValue

func (a attrs) Query(name comp.Attribute) comp.AttrValue { return a[name] }

func (a attrs) SetAttr(name comp.Attribute, v comp.AttrValue) { a[name] = v }

// drawText writes text into the region's row of a screen surface, clipped
// to the region's width in terminal cells. Surfaces of other types are left
// alone.
func drawText(s comp.Surface, r comp.Region, text string) {
	scr, ok := s.(*screen)
	if !ok {
		return
	}
	if r.Width > 0 {
		text = wcwidth.Trim(text, r.Width)
	}
	scr.setLine(r.Y, text)
}

// clock shows the wall time, refreshed by tick events.
type clock struct {
	attrs
	now  func() time.Time
	text string
}

func newClock(now func() time.Time) *clock {
	c := &clock{attrs: attrs{}, now: now}
	c.refresh()
	return c
}

func (c *clock) refresh() { c.text = c.now().Format("15:04:05") }

func (c *clock) Render(s comp.Surface, r comp.Region) { drawText(s, r, c.text) }

func (c *clock) State() comp.State { return c.text }

func (c *clock) Perform(cmd comp.Cmd) comp.CmdResult {
	if cmd.Kind == comp.CmdChange {
		c.refresh()
		return comp.Changed(c.text)
	}
	return comp.Invalid(cmd)
}

func (c *clock) On(ev event.Event) comp.Msg {
	if _, ok := ev.(event.Tick); !ok {
		return nil
	}
	c.Perform(comp.Change)
	return drawMsg{}
}

// status shows the terminal size, refreshed by resize events.
type status struct {
	attrs
	rows, cols int
}

func newStatus() *status { return &status{attrs: attrs{}} }

func (c *status) Render(s comp.Surface, r comp.Region) {
	drawText(s, r, fmt.Sprintf("%dx%d", c.cols, c.rows))
}

func (c *status) State() comp.State { return [2]int{c.rows, c.cols} }

func (c *status) Perform(cmd comp.Cmd) comp.CmdResult { return comp.Invalid(cmd) }

func (c *status) On(ev event.Event) comp.Msg {
	rs, ok := ev.(event.Resize)
	if !ok {
		return nil
	}
	c.rows, c.cols = rs.Rows, rs.Cols
	return drawMsg{}
}

// counter holds a number changed by the key chords its keymap binds.
type counter struct {
	attrs
	keys  keymap
	value int
}

func newCounter(keys keymap) *counter { return &counter{attrs: attrs{}, keys: keys} }

func (c *counter) Render(s comp.Surface, r comp.Region) {
	drawText(s, r, fmt.Sprintf("count %d", c.value))
}

func (c *counter) State() comp.State { return c.value }

func (c *counter) Perform(cmd comp.Cmd) comp.CmdResult {
	switch cmd.Kind {
	case comp.CmdMove:
		switch cmd.Dir {
		case comp.Up:
			c.value++
		case comp.Down:
			c.value--
		default:
			return comp.Invalid(cmd)
		}
		return comp.Changed(c.value)
	case comp.CmdCancel:
		c.value = 0
		return comp.Changed(c.value)
	}
	return comp.Invalid(cmd)
}

// On maps a key chord to a command through the keymap and performs it.
func (c *counter) On(ev event.Event) comp.Msg {
	k, ok := ev.(event.Key)
	if !ok {
		return nil
	}
	switch c.keys.lookup(k) {
	case actionUp:
		c.Perform(comp.Move(comp.Up))
	case actionDown:
		c.Perform(comp.Move(comp.Down))
	case actionReset:
		c.Perform(comp.Cancel)
	case actionQuit:
		return quitMsg{}
	default:
		return nil
	}
	return drawMsg{}
}
