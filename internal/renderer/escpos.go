package renderer

import (
	"bytes"
)

// ESC/POS commands
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	LF  byte = 0x0A
)

// Alignment values for ESC a n
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// Encoder builds an ESC/POS byte stream for text tickets
type Encoder struct {
	buffer *bytes.Buffer
}

// NewEncoder creates a new ESC/POS encoder
func NewEncoder() *Encoder {
	return &Encoder{
		buffer: new(bytes.Buffer),
	}
}

// Initialize resets the printer (ESC @)
func (e *Encoder) Initialize() {
	e.buffer.WriteByte(ESC)
	e.buffer.WriteByte('@')
}

// SetAlignment sets text alignment
func (e *Encoder) SetAlignment(align string) {
	e.buffer.WriteByte(ESC)
	e.buffer.WriteByte('a')

	switch align {
	case AlignCenter:
		e.buffer.WriteByte(1)
	case AlignRight:
		e.buffer.WriteByte(2)
	default:
		e.buffer.WriteByte(0)
	}
}

// SetBold enables or disables bold text
func (e *Encoder) SetBold(enabled bool) {
	e.buffer.WriteByte(ESC)
	e.buffer.WriteByte('E')
	if enabled {
		e.buffer.WriteByte(1)
	} else {
		e.buffer.WriteByte(0)
	}
}

// writeText writes printable text. C0 control bytes and DEL are dropped so
// names cannot inject printer commands.
func (e *Encoder) writeText(text string) {
	for i := 0; i < len(text); i++ {
		b := text[i]
		if b < 0x20 || b == 0x7F {
			continue
		}
		e.buffer.WriteByte(b)
	}
}

// WriteLine writes text followed by a line feed
func (e *Encoder) WriteLine(text string) {
	e.writeText(text)
	e.LineFeed()
}

// WriteBoldLine writes a line wrapped in bold on/off
func (e *Encoder) WriteBoldLine(text string) {
	e.SetBold(true)
	e.writeText(text)
	e.SetBold(false)
	e.LineFeed()
}

// LineFeed sends line feed
func (e *Encoder) LineFeed() {
	e.buffer.WriteByte(LF)
}

// Feed sends multiple line feeds
func (e *Encoder) Feed(lines int) {
	for i := 0; i < lines; i++ {
		e.LineFeed()
	}
}

// Cut sends the full cut command (GS V 0)
func (e *Encoder) Cut() {
	e.buffer.WriteByte(GS)
	e.buffer.WriteByte('V')
	e.buffer.WriteByte(0)
}

// Bytes returns a copy of the generated stream
func (e *Encoder) Bytes() []byte {
	out := make([]byte, e.buffer.Len())
	copy(out, e.buffer.Bytes())
	return out
}

// StripControlCodes removes the commands written by Encoder and returns the
// plain ticket text.
func StripControlCodes(stream []byte) string {
	var out bytes.Buffer
	out.Grow(len(stream))

	for i := 0; i < len(stream); i++ {
		b := stream[i]
		switch b {
		case ESC:
			if i+1 < len(stream) && stream[i+1] == '@' {
				i++
				continue
			}
			i += 2
		case GS:
			i += 2
		default:
			out.WriteByte(b)
		}
	}

	return out.String()
}
