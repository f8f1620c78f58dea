// Package input turns raw terminal bytes into per-frame game input.
package input

import (
	"bufio"
	"sync/atomic"

	"github.com/tomz197/fruitcatch/internal/game"
)

// Input represents the current frame's input state.
type Input struct {
	Quit    bool
	Start   bool          // SPACE or ENTER
	Steer   game.Steering // Last direction key this frame, SteerNone if none
	Pressed []byte
}

// Stream delivers input bytes via a channel.
type Stream struct {
	ch  chan byte
	eof atomic.Bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch: make(chan byte, 128),
	}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				s.eof.Store(true)
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Closed reports whether the underlying reader has hit EOF or an error
// and every buffered byte has been consumed.
func (s *Stream) Closed() bool {
	return s.eof.Load() && len(s.ch) == 0
}

// ReadInput drains all available bytes from the stream without blocking.
func ReadInput(s *Stream) Input {
	return Parse(drain(s))
}

// ResetKeyInput discards pending bytes so a held key from the previous
// screen does not leak into the next one.
func ResetKeyInput(s *Stream) {
	if s == nil {
		return
	}
	drain(s)
}

func drain(s *Stream) []byte {
	var buf []byte
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				return buf
			}
			buf = append(buf, b)
		default:
			return buf
		}
	}
}

// Parse interprets a batch of bytes. Arrow keys arrive as ESC [ A..D.
// When several direction keys are in one batch the last one wins.
func Parse(buf []byte) Input {
	in := Input{Pressed: buf}

	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			switch buf[i+2] {
			case 'A', 'B': // Up, Down
				in.Steer = game.SteerCenter
				i += 2
				continue
			case 'C':
				in.Steer = game.SteerRight
				i += 2
				continue
			case 'D':
				in.Steer = game.SteerLeft
				i += 2
				continue
			}
		}

		switch b {
		case 'q', 'Q', 0x03: // Ctrl+C in raw mode
			in.Quit = true
		case 'a', 'A', 'j', 'J', 'h', 'H':
			in.Steer = game.SteerLeft
		case 'd', 'D', 'l', 'L':
			in.Steer = game.SteerRight
		case 's', 'S', 'w', 'W', 'k', 'K':
			in.Steer = game.SteerCenter
		case ' ', '\n', '\r':
			in.Start = true
		}
	}
	return in
}
