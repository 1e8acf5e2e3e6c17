// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package twidget

import (
	"fmt"
	"io"
	"strings"
)

type Style struct {
	Fg      string
	Bg      string
	Bold    bool
	Reverse bool
}

func (s Style) isZero() bool {
	return s.Fg == "" && s.Bg == "" && !s.Bold && !s.Reverse
}

type Cell struct {
	Ch    rune
	Style Style
}

// Buffer is one frame of screen content.  painting always produces a full
// buffer; the flush path diffs against the previously written frame so only
// changed spans hit the terminal.
type Buffer struct {
	Width  int
	Height int
	Cells  []Cell
}

func MakeBuffer(width int, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	buf := &Buffer{Width: width, Height: height, Cells: make([]Cell, width*height)}
	for i := range buf.Cells {
		buf.Cells[i].Ch = ' '
	}
	return buf
}

func (b *Buffer) inBounds(x int, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

func (b *Buffer) Set(x int, y int, ch rune, style Style) {
	if !b.inBounds(x, y) {
		return
	}
	b.Cells[y*b.Width+x] = Cell{Ch: ch, Style: style}
}

func (b *Buffer) Get(x int, y int) Cell {
	if !b.inBounds(x, y) {
		return Cell{Ch: ' '}
	}
	return b.Cells[y*b.Width+x]
}

// WriteString writes s starting at (x, y), clipping at the buffer edge.
func (b *Buffer) WriteString(x int, y int, s string, style Style) {
	for _, ch := range s {
		if x >= b.Width {
			return
		}
		b.Set(x, y, ch, style)
		x++
	}
}

// Line returns row y as a plain string (styles dropped); used by tests.
func (b *Buffer) Line(y int) string {
	if y < 0 || y >= b.Height {
		return ""
	}
	var sb strings.Builder
	for x := 0; x < b.Width; x++ {
		sb.WriteRune(b.Get(x, y).Ch)
	}
	return sb.String()
}

var fgColorCodes = map[string]int{
	"black":   30,
	"red":     31,
	"green":   32,
	"yellow":  33,
	"blue":    34,
	"magenta": 35,
	"cyan":    36,
	"white":   37,
	"gray":    90,
}

func sgrParams(style Style) string {
	parts := []string{"0"}
	if style.Bold {
		parts = append(parts, "1")
	}
	if style.Reverse {
		parts = append(parts, "7")
	}
	if code, ok := fgColorCodes[style.Fg]; ok {
		parts = append(parts, fmt.Sprintf("%d", code))
	}
	if code, ok := fgColorCodes[style.Bg]; ok {
		parts = append(parts, fmt.Sprintf("%d", code+10))
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

// writeDiff emits the ANSI updates that turn prev into cur.  a nil or
// mis-sized prev forces a full repaint.
func writeDiff(out io.Writer, prev *Buffer, cur *Buffer) error {
	var sb strings.Builder
	fullRepaint := prev == nil || prev.Width != cur.Width || prev.Height != cur.Height
	if fullRepaint {
		sb.WriteString("\x1b[2J")
	}
	curStyle := Style{Fg: "\x00"} // sentinel, forces the first SGR
	for y := 0; y < cur.Height; y++ {
		x := 0
		for x < cur.Width {
			cell := cur.Get(x, y)
			if !fullRepaint && prev.Get(x, y) == cell {
				x++
				continue
			}
			// changed cell: position the cursor and write the run of
			// changed cells that follows
			sb.WriteString(fmt.Sprintf("\x1b[%d;%dH", y+1, x+1))
			for x < cur.Width {
				cell = cur.Get(x, y)
				if !fullRepaint && prev.Get(x, y) == cell {
					break
				}
				if cell.Style != curStyle {
					sb.WriteString(sgrParams(cell.Style))
					curStyle = cell.Style
				}
				sb.WriteRune(cell.Ch)
				x++
			}
		}
	}
	sb.WriteString("\x1b[0m")
	if sb.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(out, sb.String())
	return err
}
