// Package events decodes the server-pushed event stream into discrete,
// typed events.
//
// The wire format is text/event-stream: "field: value" lines grouped into
// frames separated by a blank line. Multiple data lines are joined with a
// newline. Lines starting with ':' are comments and act as keep-alives.
package events

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

// Frame is one undecoded event-stream message.
type Frame struct {
	Event string
	Data  string
	ID    string
	Retry time.Duration
	// Comment is true when the frame held only comment lines.
	Comment bool
}

// Decoder reads frames from an event stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next blocks until a full frame is available. It returns io.EOF when the
// stream ends cleanly with no partial frame pending.
func (d *Decoder) Next() (Frame, error) {
	var (
		f       Frame
		data    strings.Builder
		hasData bool
		seen    bool
	)
	for {
		line, err := d.r.ReadString('\n')
		atEOF := false
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Frame{}, err
			}
			atEOF = true
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			switch {
			case seen:
				f.Data = data.String()
				return f, nil
			case atEOF:
				return Frame{}, io.EOF
			}
			continue
		}
		seen = true

		if strings.HasPrefix(line, ":") {
			if !hasData && f.Event == "" {
				f.Comment = true
			}
		} else {
			field, value := splitField(line)
			switch field {
			case "event":
				f.Event = value
				f.Comment = false
			case "data":
				if hasData {
					data.WriteByte('\n')
				}
				data.WriteString(value)
				hasData = true
				f.Comment = false
			case "id":
				f.ID = value
			case "retry":
				if ms, convErr := strconv.Atoi(value); convErr == nil && ms >= 0 {
					f.Retry = time.Duration(ms) * time.Millisecond
				}
			}
		}

		// unterminated final line
		if atEOF {
			f.Data = data.String()
			return f, nil
		}
	}
}

func splitField(line string) (string, string) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return line, ""
	}
	value := line[i+1:]
	value = strings.TrimPrefix(value, " ")
	return line[:i], value
}
