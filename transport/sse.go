// ABOUTME: Incremental text/event-stream frame reader for the ask transport.
// ABOUTME: Handles multi-line data, comment lines, and CR, LF, and CRLF endings.
package transport

import (
	"bufio"
	"io"
	"strings"
)

// Frame is one server-sent event frame: the event name plus its data
// payload, with multi-line data joined by newlines.
type Frame struct {
	Type string // from "event:" lines; the event-stream default "message" when absent
	Data string
}

// FrameReader parses SSE framing from a streaming response body.
type FrameReader struct {
	r    *bufio.Reader
	done bool

	eventType string
	dataLines []string
	hasData   bool
}

// NewFrameReader wraps r in an SSE frame parser.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, 4096)}
}

// Next returns the next complete frame. It returns io.EOF when the
// stream ends; a final unterminated frame is still delivered first.
func (f *FrameReader) Next() (Frame, error) {
	if f.done {
		return Frame{}, io.EOF
	}

	for {
		line, err := f.readLine()
		if err != nil {
			if err == io.EOF {
				f.done = true
				if f.hasData {
					return f.dispatch(), nil
				}
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}

		switch {
		case line == "":
			// Blank line ends a frame. Consecutive blanks produce nothing.
			if !f.hasData {
				continue
			}
			return f.dispatch(), nil
		case strings.HasPrefix(line, ":"):
			// Comment, often used as a keep-alive.
			continue
		default:
			f.field(splitField(line))
		}
	}
}

// splitField divides an SSE line at the first colon. The event-stream
// format strips one leading space from the value.
func splitField(line string) (name, value string) {
	idx := strings.IndexByte(line, ':')
	if idx == -1 {
		return line, ""
	}
	name, value = line[:idx], line[idx+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return name, value
}

func (f *FrameReader) field(name, value string) {
	switch name {
	case "event":
		f.eventType = value
	case "data":
		f.dataLines = append(f.dataLines, value)
		f.hasData = true
	default:
		// id, retry, and anything else have no meaning for this protocol.
	}
}

func (f *FrameReader) dispatch() Frame {
	frame := Frame{
		Type: f.eventType,
		Data: strings.Join(f.dataLines, "\n"),
	}
	if frame.Type == "" {
		frame.Type = "message"
	}
	f.eventType = ""
	f.dataLines = nil
	f.hasData = false
	return frame
}

// readLine reads one line, treating CR, LF, and CRLF all as
// terminators. bufio.Scanner only understands LF and CRLF.
func (f *FrameReader) readLine() (string, error) {
	var line strings.Builder
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			if err == io.EOF && line.Len() > 0 {
				return line.String(), nil
			}
			return "", err
		}

		switch b {
		case '\n':
			return line.String(), nil
		case '\r':
			next, err := f.r.ReadByte()
			if err == nil && next != '\n' {
				_ = f.r.UnreadByte()
			}
			return line.String(), nil
		default:
			line.WriteByte(b)
		}
	}
}
