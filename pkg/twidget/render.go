// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package twidget

import (
	"fmt"
	"strconv"
	"strings"
)

type Rect struct {
	X int
	Y int
	W int
	H int
}

func (r Rect) empty() bool {
	return r.W <= 0 || r.H <= 0
}

// resolveSize turns a geometry spec ("12", "50%", "") into cells.
func resolveSize(spec string, parentSize int, def int) int {
	if spec == "" {
		return def
	}
	if strings.HasSuffix(spec, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(spec, "%"))
		if err != nil {
			return def
		}
		return parentSize * pct / 100
	}
	n, err := strconv.Atoi(spec)
	if err != nil {
		return def
	}
	return n
}

func styleFor(opts StyleOptions) Style {
	return Style{Fg: opts.Fg, Bg: opts.Bg, Bold: opts.Bold, Reverse: opts.Reverse}
}

// widgetGeom pulls the geometry specs out of a widget's options.
func widgetGeom(w Widget) (top, left, width, height string) {
	switch wt := w.(type) {
	case *BoxWidget:
		return wt.Opts.Top, wt.Opts.Left, wt.Opts.Width, wt.Opts.Height
	case *TextWidget:
		return wt.Opts.Top, wt.Opts.Left, wt.Opts.Width, wt.Opts.Height
	case *ListWidget:
		return wt.Opts.Top, wt.Opts.Left, wt.Opts.Width, wt.Opts.Height
	case *GaugeWidget:
		return wt.Opts.Top, wt.Opts.Left, wt.Opts.Width, wt.Opts.Height
	}
	return "", "", "", ""
}

func layoutChildRect(w Widget, parent Rect) Rect {
	topSpec, leftSpec, widthSpec, heightSpec := widgetGeom(w)
	dx := resolveSize(leftSpec, parent.W, 0)
	dy := resolveSize(topSpec, parent.H, 0)
	width := resolveSize(widthSpec, parent.W, parent.W-dx)
	height := resolveSize(heightSpec, parent.H, parent.H-dy)
	// clip to the parent content box
	if dx+width > parent.W {
		width = parent.W - dx
	}
	if dy+height > parent.H {
		height = parent.H - dy
	}
	return Rect{X: parent.X + dx, Y: parent.Y + dy, W: width, H: height}
}

// RenderBuffer paints the widget tree into a fresh frame.  children paint in
// attach order, so later siblings draw over earlier ones where they overlap.
func (s *Screen) RenderBuffer() *Buffer {
	buf := MakeBuffer(s.width, s.height)
	rootRect := Rect{X: 0, Y: 0, W: s.width, H: s.height}
	for _, child := range s.root.children {
		s.paintWidget(child, layoutChildRect(child, rootRect), buf)
	}
	return buf
}

func (s *Screen) paintWidget(w Widget, rect Rect, buf *Buffer) {
	if rect.empty() {
		return
	}
	switch wt := w.(type) {
	case *BoxWidget:
		style := styleFor(wt.Opts.Style)
		fillRect(buf, rect, style)
		inner := rect
		if wt.Opts.Border {
			drawFrame(buf, rect, wt.Opts.Title, style, s.focusId == wt.id)
			inner = shrinkRect(rect)
		}
		for _, child := range wt.children {
			s.paintWidget(child, layoutChildRect(child, inner), buf)
		}
	case *TextWidget:
		style := styleFor(wt.Opts.Style)
		fillRect(buf, rect, style)
		lines := textLines(wt.Opts.Content, rect.W, wt.Opts.Wrap)
		for idx, line := range lines {
			if idx >= rect.H {
				break
			}
			x := rect.X + alignOffset(wt.Opts.Align, rect.W, len([]rune(line)))
			buf.WriteString(x, rect.Y+idx, line, style)
		}
	case *ListWidget:
		s.paintList(wt, rect, buf)
	case *GaugeWidget:
		style := styleFor(wt.Opts.Style)
		filled := rect.W * wt.Opts.Percent / 100
		for x := 0; x < rect.W; x++ {
			ch := ' '
			chStyle := style
			if x < filled {
				ch = '█'
			}
			buf.Set(rect.X+x, rect.Y, ch, chStyle)
		}
		label := wt.Opts.Label
		if label == "" {
			label = fmt.Sprintf("%d%%", wt.Opts.Percent)
		}
		labelStyle := style
		labelStyle.Reverse = true
		buf.WriteString(rect.X+(rect.W-len(label))/2, rect.Y, label, labelStyle)
	case *rootWidget:
		for _, child := range wt.children {
			s.paintWidget(child, layoutChildRect(child, rect), buf)
		}
	}
}

func (s *Screen) paintList(w *ListWidget, rect Rect, buf *Buffer) {
	style := styleFor(w.Opts.Style)
	fillRect(buf, rect, style)
	inner := rect
	if w.Opts.Border {
		drawFrame(buf, rect, w.Opts.Title, style, s.focusId == w.id)
		inner = shrinkRect(rect)
	}
	if inner.empty() {
		return
	}
	// keep the selection visible
	if w.selIdx < w.scrollTop {
		w.scrollTop = w.selIdx
	}
	if w.selIdx >= w.scrollTop+inner.H {
		w.scrollTop = w.selIdx - inner.H + 1
	}
	selStyle := styleFor(w.Opts.SelectedStyle)
	if selStyle.isZero() {
		selStyle = style
		selStyle.Reverse = true
	}
	for row := 0; row < inner.H; row++ {
		itemIdx := w.scrollTop + row
		if itemIdx >= len(w.Opts.Items) {
			break
		}
		lineStyle := style
		if itemIdx == w.selIdx {
			lineStyle = selStyle
		}
		line := w.Opts.Items[itemIdx]
		if len([]rune(line)) < inner.W {
			line = line + strings.Repeat(" ", inner.W-len([]rune(line)))
		}
		buf.WriteString(inner.X, inner.Y+row, line, lineStyle)
	}
}

func shrinkRect(rect Rect) Rect {
	return Rect{X: rect.X + 1, Y: rect.Y + 1, W: rect.W - 2, H: rect.H - 2}
}

func fillRect(buf *Buffer, rect Rect, style Style) {
	if style.isZero() {
		return
	}
	for y := 0; y < rect.H; y++ {
		for x := 0; x < rect.W; x++ {
			buf.Set(rect.X+x, rect.Y+y, ' ', style)
		}
	}
}

func drawFrame(buf *Buffer, rect Rect, title string, style Style, focused bool) {
	if rect.W < 2 || rect.H < 2 {
		return
	}
	frameStyle := style
	if focused {
		frameStyle.Bold = true
	}
	right := rect.X + rect.W - 1
	bottom := rect.Y + rect.H - 1
	buf.Set(rect.X, rect.Y, '┌', frameStyle)
	buf.Set(right, rect.Y, '┐', frameStyle)
	buf.Set(rect.X, bottom, '└', frameStyle)
	buf.Set(right, bottom, '┘', frameStyle)
	for x := rect.X + 1; x < right; x++ {
		buf.Set(x, rect.Y, '─', frameStyle)
		buf.Set(x, bottom, '─', frameStyle)
	}
	for y := rect.Y + 1; y < bottom; y++ {
		buf.Set(rect.X, y, '│', frameStyle)
		buf.Set(right, y, '│', frameStyle)
	}
	if title != "" && rect.W > 4 {
		titleStr := " " + title + " "
		maxLen := rect.W - 4
		if len([]rune(titleStr)) > maxLen {
			titleStr = string([]rune(titleStr)[:maxLen])
		}
		buf.WriteString(rect.X+2, rect.Y, titleStr, frameStyle)
	}
}

func alignOffset(align string, width int, lineLen int) int {
	if lineLen >= width {
		return 0
	}
	switch align {
	case "center":
		return (width - lineLen) / 2
	case "right":
		return width - lineLen
	}
	return 0
}

// textLines splits content into display lines, word-wrapping when wrap is
// set, otherwise clipping each source line at the width.
func textLines(content string, width int, wrap bool) []string {
	if width <= 0 {
		return nil
	}
	var rtn []string
	for _, srcLine := range strings.Split(content, "\n") {
		if !wrap {
			runes := []rune(srcLine)
			if len(runes) > width {
				srcLine = string(runes[:width])
			}
			rtn = append(rtn, srcLine)
			continue
		}
		words := strings.Fields(srcLine)
		if len(words) == 0 {
			rtn = append(rtn, "")
			continue
		}
		cur := ""
		for _, word := range words {
			if cur == "" {
				cur = word
				continue
			}
			if len([]rune(cur))+1+len([]rune(word)) <= width {
				cur = cur + " " + word
				continue
			}
			rtn = append(rtn, cur)
			cur = word
		}
		if cur != "" {
			rtn = append(rtn, cur)
		}
	}
	return rtn
}
