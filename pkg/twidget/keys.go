// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package twidget

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"
)

// decoded key names: "ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight",
// "Enter", "Tab", "Esc", "Backspace", "Ctrl-a".."Ctrl-z", or the literal rune.

var escSeqKeys = map[byte]string{
	'A': "ArrowUp",
	'B': "ArrowDown",
	'C': "ArrowRight",
	'D': "ArrowLeft",
	'H': "Home",
	'F': "End",
}

// decodeKey decodes one key from buf, returning the key name and the number
// of bytes consumed.  consumed == 0 means more bytes are needed.
func decodeKey(buf []byte) (string, int) {
	if len(buf) == 0 {
		return "", 0
	}
	b := buf[0]
	if b == 0x1b {
		if len(buf) == 1 {
			// could be a bare Esc or the start of a sequence; with raw
			// reads this is resolved by the next chunk, treat as Esc
			return "Esc", 1
		}
		if buf[1] == '[' {
			if len(buf) < 3 {
				return "", 0
			}
			if name, ok := escSeqKeys[buf[2]]; ok {
				return name, 3
			}
			// unknown CSI sequence, swallow it
			return "", 3
		}
		return "Esc", 1
	}
	switch b {
	case '\r', '\n':
		return "Enter", 1
	case '\t':
		return "Tab", 1
	case 0x7f, 0x08:
		return "Backspace", 1
	}
	if b < 0x20 {
		return fmt.Sprintf("Ctrl-%c", 'a'+b-1), 1
	}
	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		if !utf8.FullRune(buf) {
			return "", 0
		}
		return "", 1
	}
	return string(r), size
}

// ReadKeyEvents decodes keys from r (the raw-mode tty) and hands each one to
// fn until r closes or ctx is canceled.  blocking reads mean cancellation is
// only observed at the next keypress; callers exit the process or close the
// reader to stop promptly.
func ReadKeyEvents(ctx context.Context, r io.Reader, fn func(key string)) error {
	var pending []byte
	readBuf := make([]byte, 64)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := r.Read(readBuf)
		if n > 0 {
			pending = append(pending, readBuf[:n]...)
			for {
				key, consumed := decodeKey(pending)
				if consumed == 0 {
					break
				}
				pending = pending[consumed:]
				if key == "" {
					continue
				}
				fn(key)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("error reading keys: %w", err)
		}
	}
}
