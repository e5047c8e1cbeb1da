// Package chatclient consumes the chat stream and keeps a rendered
// transcript up to date as bytes arrive.
package chatclient

import (
	"errors"
	"unicode/utf8"
)

var (
	ErrInvalidUTF8   = errors.New("chatclient: invalid utf-8 in stream")
	ErrTruncatedUTF8 = errors.New("chatclient: stream ended inside a utf-8 sequence")
)

// Decoder turns a byte stream into text. A multi-byte character split
// across reads is held back until the rest of it arrives.
type Decoder struct {
	pending []byte
}

// Decode returns the text completed by chunk.
func (d *Decoder) Decode(chunk []byte) (string, error) {
	buf := append(d.pending, chunk...)

	cut := len(buf)
	for i := len(buf) - 1; i >= 0 && i >= len(buf)-utf8.UTFMax; i-- {
		b := buf[i]
		if b < utf8.RuneSelf {
			break
		}
		if utf8.RuneStart(b) {
			if !utf8.FullRune(buf[i:]) {
				cut = i
			}
			break
		}
	}

	if !utf8.Valid(buf[:cut]) {
		d.pending = nil
		return "", ErrInvalidUTF8
	}

	text := string(buf[:cut])
	d.pending = append([]byte(nil), buf[cut:]...)
	return text, nil
}

// Close reports bytes left over at the end of the stream.
func (d *Decoder) Close() error {
	if len(d.pending) > 0 {
		d.pending = nil
		return ErrTruncatedUTF8
	}
	return nil
}
