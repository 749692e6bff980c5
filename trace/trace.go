// Package trace reads recorded branch traces. A trace is a sequence of
// records, one per line, each holding a hexadecimal branch address and its
// outcome (0 = not taken, 1 = taken).
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is one resolved conditional branch.
type Record struct {
	// Addr is the address of the branch instruction.
	Addr uint64
	// Taken is the actual outcome of the branch.
	Taken bool
}

// String formats the record the way it appears in a trace file.
func (r Record) String() string {
	outcome := 0
	if r.Taken {
		outcome = 1
	}
	return fmt.Sprintf("%x %d", r.Addr, outcome)
}

// Source produces trace records in order. Next returns io.EOF once the trace
// is exhausted. Next may block.
type Source interface {
	Next() (Record, error)
}

// MalformedRecordError reports a trace line that is not
// "<hex-address> <0|1>".
type MalformedRecordError struct {
	// Line is the 1-based line number in the input.
	Line int
	// Text is the offending line.
	Text string
	// Reason describes what is wrong with the line.
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed trace record at line %d (%q): %s",
		e.Line, e.Text, e.Reason)
}

// MaxLineLength is the longest trace line the Reader accepts, in bytes.
const MaxLineLength = 4096

// Reader decodes trace records from a text stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), MaxLineLength)

	return &Reader{scanner: scanner}
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next record. Lines holding only whitespace are skipped.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		return r.parse(text)
	}

	err := r.scanner.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		r.line++
		return Record{}, &MalformedRecordError{
			Line:   r.line,
			Reason: fmt.Sprintf("line exceeds %d bytes", MaxLineLength),
		}
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return Record{}, io.EOF
}

func (r *Reader) parse(text string) (Record, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Record{}, r.malformed(text,
			fmt.Sprintf("expected 2 fields, got %d", len(fields)))
	}

	addrText := fields[0]
	addrText = strings.TrimPrefix(addrText, "0x")
	addrText = strings.TrimPrefix(addrText, "0X")

	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return Record{}, r.malformed(text,
			fmt.Sprintf("invalid hexadecimal address %q", fields[0]))
	}

	var taken bool
	switch fields[1] {
	case "0":
		taken = false
	case "1":
		taken = true
	default:
		return Record{}, r.malformed(text,
			fmt.Sprintf("outcome must be 0 or 1, got %q", fields[1]))
	}

	return Record{Addr: addr, Taken: taken}, nil
}

func (r *Reader) malformed(text, reason string) error {
	return &MalformedRecordError{Line: r.line, Text: text, Reason: reason}
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource creates a Source that yields the given records in order.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record or io.EOF.
func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}

	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Write writes records in trace file format.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintln(bw, r.String()); err != nil {
			return fmt.Errorf("failed to write trace: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}

	return nil
}
