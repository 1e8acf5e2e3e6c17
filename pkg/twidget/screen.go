// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package twidget

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Screen owns the terminal: raw mode, the alternate screen buffer, the root
// display surface, and the debounced flush loop.  all tree mutation and
// painting is expected to run on one goroutine (the app loop); the redraw
// handler is the hook the app uses to get flushes onto that goroutine.
type Screen struct {
	out        io.Writer
	ttyFd      int
	isTerminal bool
	rawState   *term.State
	root       *rootWidget
	focusId    string

	width  int
	height int

	flushLock sync.Mutex
	prevBuf   *Buffer

	notifyOnce sync.Once
	notifier   *redrawNotifier
	redrawFn   func()

	closeOnce sync.Once
}

func MakeScreen(f *os.File) (*Screen, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("output is not a terminal")
	}
	width, height, err := term.GetSize(fd)
	if err != nil {
		return nil, fmt.Errorf("error getting terminal size: %w", err)
	}
	rawState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("error entering raw mode: %w", err)
	}
	screen := &Screen{
		out:        f,
		ttyFd:      fd,
		isTerminal: true,
		rawState:   rawState,
		root:       makeRootWidget(),
		width:      width,
		height:     height,
	}
	screen.redrawFn = screen.Flush
	// alternate screen, hide cursor
	io.WriteString(f, "\x1b[?1049h\x1b[?25l\x1b[2J")
	return screen, nil
}

// MakeTestScreen builds a screen with a fixed size and no tty; output goes
// nowhere and RenderBuffer() is used to inspect frames.
func MakeTestScreen(width int, height int) *Screen {
	screen := &Screen{
		out:    io.Discard,
		root:   makeRootWidget(),
		width:  width,
		height: height,
	}
	screen.redrawFn = screen.Flush
	return screen
}

func (s *Screen) RootSurface() Widget {
	return s.root
}

func (s *Screen) Size() (int, int) {
	return s.width, s.height
}

// SetRedrawHandler replaces the function the debounce loop fires.  the app
// loop installs a handler that re-posts the flush onto its own goroutine so
// painting never races tree mutation.
func (s *Screen) SetRedrawHandler(fn func()) {
	s.redrawFn = fn
}

func (s *Screen) ensureNotifier() *redrawNotifier {
	s.notifyOnce.Do(func() {
		s.notifier = makeRedrawNotifier(func() {
			fn := s.redrawFn
			if fn != nil {
				fn()
			}
		})
	})
	return s.notifier
}

// SetRedrawTiming overrides the redraw debounce windows (settings path).
// zero keeps the default for that window.
func (s *Screen) SetRedrawTiming(debounce time.Duration, maxDebounce time.Duration) {
	s.ensureNotifier().setTiming(debounce, maxDebounce)
}

func (s *Screen) requestRedraw() {
	s.ensureNotifier().Notify()
}

// Flush paints the widget tree and writes the frame diff to the terminal.
func (s *Screen) Flush() {
	buf := s.RenderBuffer()
	s.flushLock.Lock()
	defer s.flushLock.Unlock()
	err := writeDiff(s.out, s.prevBuf, buf)
	if err != nil {
		log.Printf("[screen] flush error: %v\n", err)
	}
	s.prevBuf = buf
}

// Resize updates the screen dimensions (SIGWINCH path) and forces a full
// repaint on the next flush.
func (s *Screen) Resize(width int, height int) {
	s.width = width
	s.height = height
	s.flushLock.Lock()
	s.prevBuf = nil
	s.flushLock.Unlock()
	s.walkWidgets(func(w Widget) {
		w.base().fireEvent(Event{Type: EventResize})
	})
	s.requestRedraw()
}

func (s *Screen) walkWidgets(fn func(w Widget)) {
	var walk func(w Widget)
	walk = func(w Widget) {
		fn(w)
		for _, child := range w.base().children {
			walk(child)
		}
	}
	for _, child := range s.root.children {
		walk(child)
	}
}

func (s *Screen) focusableWidgets() []Widget {
	var rtn []Widget
	s.walkWidgets(func(w Widget) {
		if w.base().focusable {
			rtn = append(rtn, w)
		}
	})
	return rtn
}

func (s *Screen) FocusedWidget() Widget {
	if s.focusId == "" {
		return nil
	}
	var found Widget
	s.walkWidgets(func(w Widget) {
		if w.WidgetId() == s.focusId {
			found = w
		}
	})
	return found
}

// FocusNext cycles focus through the focusable widgets in paint order,
// firing blur/focus events on the way.
func (s *Screen) FocusNext() Widget {
	widgets := s.focusableWidgets()
	if len(widgets) == 0 {
		s.focusId = ""
		return nil
	}
	nextIdx := 0
	for idx, w := range widgets {
		if w.WidgetId() == s.focusId {
			nextIdx = (idx + 1) % len(widgets)
			break
		}
	}
	prev := s.FocusedWidget()
	next := widgets[nextIdx]
	if prev != nil && prev.WidgetId() == next.WidgetId() {
		return next
	}
	if prev != nil {
		prev.base().fireEvent(Event{Type: EventBlur})
	}
	s.focusId = next.WidgetId()
	next.base().fireEvent(Event{Type: EventFocus})
	s.requestRedraw()
	return next
}

// DispatchKey routes one decoded key to the focused widget.  lists consume
// arrows and enter for selection before the generic key event fires.
func (s *Screen) DispatchKey(key string) {
	focused := s.FocusedWidget()
	if focused == nil {
		if next := s.FocusNext(); next == nil {
			return
		}
		focused = s.FocusedWidget()
		if focused == nil {
			return
		}
	}
	if listw, ok := focused.(*ListWidget); ok {
		switch key {
		case "ArrowUp":
			if listw.moveSelection(-1) {
				listw.fireEvent(Event{Type: EventSelect, Index: listw.selIdx, Item: listw.SelectedItem()})
				s.requestRedraw()
			}
			return
		case "ArrowDown":
			if listw.moveSelection(1) {
				listw.fireEvent(Event{Type: EventSelect, Index: listw.selIdx, Item: listw.SelectedItem()})
				s.requestRedraw()
			}
			return
		case "Enter":
			listw.fireEvent(Event{Type: EventPress, Index: listw.selIdx, Item: listw.SelectedItem()})
			return
		}
	}
	focused.base().fireEvent(Event{Type: EventKey, Key: key})
}

// Close restores the terminal.  safe to call more than once.
func (s *Screen) Close() {
	s.closeOnce.Do(func() {
		if s.notifier != nil {
			s.notifier.Stop()
		}
		if !s.isTerminal {
			return
		}
		io.WriteString(s.out, "\x1b[0m\x1b[?25h\x1b[?1049l")
		if s.rawState != nil {
			err := term.Restore(s.ttyFd, s.rawState)
			if err != nil {
				log.Printf("[screen] error restoring terminal: %v\n", err)
			}
		}
	})
}
