// Package vcdstream is a minimal streaming tokenizer for the subset of
// the value-change-dump format this toolkit needs: scope/variable
// declarations up to $enddefinitions, followed by a linear stream of
// timestamp and value-change tokens. It is intentionally dependency-free
// — see DESIGN.md for why no third-party parser was available to wire.
package vcdstream

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// IndexKind distinguishes a variable's declared bit-index shape.
type IndexKind int

const (
	IndexNone IndexKind = iota
	IndexBit
	IndexRange
)

// Index describes a variable's optional bit selector.
type Index struct {
	Kind     IndexKind
	Bit      int // valid when Kind == IndexBit
	MSB, LSB int // valid when Kind == IndexRange
}

// Var is one declared variable: a code shared by every scope that
// re-declares the same underlying signal, a bit width, its full
// hierarchy path (scopes + reference name), and an optional index.
type Var struct {
	Code      string
	Size      int
	Reference string
	Path      []string
	Index     Index
}

// Timestamp is emitted whenever the trace body advances simulation time.
type Timestamp struct {
	Time uint64
}

// ValueChange carries the new value for one code as opaque per-bit state
// codes, MSB first. Scalar changes produce a single-byte Bits.
type ValueChange struct {
	Code string
	Bits []byte
}

// stateByte maps a VCD value character to a stable opaque state code.
// The mapping itself is unconstrained by the format this toolkit
// consumes, but must stay stable within one database — 0/1 map to their
// natural bytes and the non-driven/unknown values map above them so
// ordinary binary traces never collide with extended value codes.
func stateByte(c byte) byte {
	switch c {
	case '0':
		return 0
	case '1':
		return 1
	case 'x', 'X':
		return 2
	case 'z', 'Z':
		return 3
	default:
		return c
	}
}

// Reader parses a header eagerly on construction, then yields body
// tokens one at a time via Next.
type Reader struct {
	src  *bufio.Reader
	vars []Var
}

const bufferSize = 64 * 1024

// NewReader parses the header section (up to and including
// "$enddefinitions $end") and returns a Reader positioned to stream the
// body via Next.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, bufferSize)
	rd := &Reader{src: br}
	if err := rd.parseHeader(); err != nil {
		return nil, err
	}
	return rd, nil
}

// Vars returns the declared variables in declaration order.
func (r *Reader) Vars() []Var { return r.vars }

func (r *Reader) parseHeader() error {
	var scope []string
	for {
		line, err := r.readLine()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("vcdstream: unexpected EOF before $enddefinitions")
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "$scope":
			if len(fields) < 3 {
				return fmt.Errorf("vcdstream: malformed $scope line %q", line)
			}
			scope = append(scope, fields[2])
		case "$upscope":
			if len(scope) == 0 {
				return fmt.Errorf("vcdstream: $upscope with no open scope")
			}
			scope = scope[:len(scope)-1]
		case "$var":
			v, err := parseVar(fields, scope)
			if err != nil {
				return err
			}
			r.vars = append(r.vars, v)
		case "$enddefinitions":
			return nil
		default:
			// Other declaration commands ($date, $version, $timescale,
			// $comment, ...) carry no semantic weight here.
		}
	}
}

// parseVar parses "$var <type> <size> <code> <reference> [index] $end".
func parseVar(fields []string, scope []string) (Var, error) {
	if len(fields) < 5 {
		return Var{}, fmt.Errorf("vcdstream: malformed $var line %q", strings.Join(fields, " "))
	}
	size, err := strconv.Atoi(fields[2])
	if err != nil {
		return Var{}, fmt.Errorf("vcdstream: bad width in $var line: %w", err)
	}
	code := fields[3]
	reference := fields[4]

	idx := Index{Kind: IndexNone}
	if len(fields) >= 6 && strings.HasPrefix(fields[5], "[") {
		spec := strings.TrimSuffix(strings.TrimPrefix(fields[5], "["), "]")
		if colon := strings.IndexByte(spec, ':'); colon >= 0 {
			msb, err1 := strconv.Atoi(spec[:colon])
			lsb, err2 := strconv.Atoi(spec[colon+1:])
			if err1 != nil || err2 != nil {
				return Var{}, fmt.Errorf("vcdstream: bad range index %q", fields[5])
			}
			idx = Index{Kind: IndexRange, MSB: msb, LSB: lsb}
		} else {
			bit, err := strconv.Atoi(spec)
			if err != nil {
				return Var{}, fmt.Errorf("vcdstream: bad bit index %q", fields[5])
			}
			idx = Index{Kind: IndexBit, Bit: bit}
		}
	}

	path := make([]string, 0, len(scope)+1)
	path = append(path, scope...)
	path = append(path, reference)

	return Var{Code: code, Size: size, Reference: reference, Path: path, Index: idx}, nil
}

// Next returns the next body token, or io.EOF once the stream ends.
func (r *Reader) Next() (any, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch line[0] {
		case '#':
			t, err := strconv.ParseUint(line[1:], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("vcdstream: bad timestamp %q: %w", line, err)
			}
			return Timestamp{Time: t}, nil
		case 'b', 'B':
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return nil, fmt.Errorf("vcdstream: malformed vector value change %q", line)
			}
			bits := make([]byte, len(fields[0])-1)
			for i, c := range fields[0][1:] {
				bits[i] = stateByte(byte(c))
			}
			return ValueChange{Code: fields[1], Bits: bits}, nil
		case '$':
			// $dumpvars / $end / $comment blocks carry no committed
			// transitions beyond the value changes already handled below.
			continue
		default:
			if len(line) < 2 {
				return nil, fmt.Errorf("vcdstream: malformed scalar value change %q", line)
			}
			return ValueChange{Code: line[1:], Bits: []byte{stateByte(line[0])}}, nil
		}
	}
}

func (r *Reader) readLine() (string, error) {
	line, err := r.src.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if line == "" && err == io.EOF {
		return "", io.EOF
	}
	return line, nil
}
