// Package console is the byte-oriented text-mode console collaborator
// (spec.md §6 "Console collaborator") and the readline rendezvous
// (spec.md §4.8). Grounded on original_source/kern/drivers/console.c
// for the cursor/color/scroll operation set, carried in full per
// SPEC_FULL.md §5 rather than trimmed to only what readline needs.
package console

import (
	"sync"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/width"

	"nucleus/config"
)

// cell is one character position in the text-mode grid: a byte (CP437
// code point, per original_source's single-byte VGA text cells) and an
// 8-bit bg|fg color (spec.md §6 "Color is an 8-bit bg|fg").
type cell struct {
	ch    byte
	color uint8
}

// Console_t is the single console instance: the character grid, the
// current cursor position and color, and the two locks spec.md §5
// names ("one mutex for all writes and one for readline").
type Console_t struct {
	writeMu sync.Mutex
	grid    [config.ConsoleHeight][config.ConsoleWidth]cell
	row     int
	col     int
	color   uint8
	hidden  bool

	readline readlineState
}

// DefaultColor is light grey on black, the conventional VGA text-mode
// power-on color.
const DefaultColor uint8 = 0x07

// NewConsole returns a blank console with the cursor at the origin.
func NewConsole() *Console_t {
	return &Console_t{color: DefaultColor}
}

// Putbyte writes one already-encoded byte at the cursor, advancing it
// and scrolling or wrapping as needed (spec.md §6 "putbyte").
func (c *Console_t) Putbyte(b byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.putbyteLocked(b)
}

func (c *Console_t) putbyteLocked(b byte) {
	switch b {
	case '\n':
		c.row++
		c.col = 0
	case '\r':
		c.col = 0
	case '\b':
		if c.col > 0 {
			c.col--
			c.grid[c.row][c.col] = cell{}
		}
	default:
		c.drawCharLocked(c.row, c.col, b, c.color)
		c.col++
		if c.col >= config.ConsoleWidth {
			c.col = 0
			c.row++
		}
	}
	if c.row >= config.ConsoleHeight {
		c.scrollUpLocked()
		c.row = config.ConsoleHeight - 1
	}
}

// DrawChar sets one cell directly, independent of the cursor (spec.md
// §6 "draw_char(row,col,ch,color)").
func (c *Console_t) DrawChar(row, col int, ch byte, color uint8) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.drawCharLocked(row, col, ch, color)
}

func (c *Console_t) drawCharLocked(row, col int, ch byte, color uint8) {
	if row < 0 || row >= config.ConsoleHeight || col < 0 || col >= config.ConsoleWidth {
		return
	}
	c.grid[row][col] = cell{ch: ch, color: color}
}

// GetChar reads back the byte at (row, col) (spec.md §6 "get_char").
func (c *Console_t) GetChar(row, col int) byte {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if row < 0 || row >= config.ConsoleHeight || col < 0 || col >= config.ConsoleWidth {
		return 0
	}
	return c.grid[row][col].ch
}

// ScrollUp shifts every row up by one, clearing the new bottom row
// (spec.md §6 "scroll_up").
func (c *Console_t) ScrollUp() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.scrollUpLocked()
}

func (c *Console_t) scrollUpLocked() {
	for r := 1; r < config.ConsoleHeight; r++ {
		c.grid[r-1] = c.grid[r]
	}
	c.grid[config.ConsoleHeight-1] = [config.ConsoleWidth]cell{}
}

// SetCursor/GetCursor/HideCursor/ShowCursor manage the blinking cursor
// position, with (CONSOLE_HEIGHT-1, CONSOLE_WIDTH) as the "hidden"
// sentinel (spec.md §6).
func (c *Console_t) SetCursor(row, col int) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.row, c.col = row, col
	c.hidden = false
}

func (c *Console_t) GetCursor() (int, int) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.hidden {
		return config.ConsoleHeight - 1, config.ConsoleWidth
	}
	return c.row, c.col
}

func (c *Console_t) HideCursor() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.hidden = true
}

func (c *Console_t) ShowCursor() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.hidden = false
}

// SetTermColor/GetTermColor manage the color new characters are drawn
// with (spec.md §6).
func (c *Console_t) SetTermColor(color uint8) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.color = color
}

func (c *Console_t) GetTermColor() uint8 {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.color
}

// cp437Encoder narrows full-width runes and maps the result onto IBM
// code page 437, the byte space original_source's console cells store
// (SPEC_FULL.md §3: "x/text replaces the hand table").
var cp437Encoder = charmap.CodePage437.NewEncoder()

// fallbackGlyph is drawn in place of any rune basicfont.Face7x13 has
// no glyph for, so WriteString never silently drops output.
const fallbackGlyph = '?'

// WriteString encodes s as the console's native byte stream and writes
// it through Putbyte one byte at a time: each rune is first
// width-normalized (full-width forms folded to their half-width
// equivalent) then encoded to CP437; a rune with no single-byte CP437
// encoding, or whose CP437 byte has no basicfont glyph, is replaced by
// fallbackGlyph.
func (c *Console_t) WriteString(s string) {
	narrow := width.Narrow.String(s)
	for _, r := range narrow {
		b, err := cp437Encoder.String(string(r))
		var out byte
		if err == nil && len(b) == 1 {
			out = b[0]
		} else {
			out = fallbackGlyph
		}
		if _, _, _, _, ok := basicfont.Face7x13.Glyph(fixed.Point26_6{}, rune(out)); !ok {
			out = fallbackGlyph
		}
		c.Putbyte(out)
	}
}

// Write implements io.Writer over WriteString, so klog.SetOutput can
// redirect kernel diagnostics onto the console device once it exists
// during boot (spec.md §6).
func (c *Console_t) Write(p []byte) (int, error) {
	c.WriteString(string(p))
	return len(p), nil
}
