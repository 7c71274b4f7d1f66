// Package mmarket implements a streaming reader for Matrix Market coordinate
// files, the sparse-graph input format consumed by the queue benchmark.
package mmarket

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrBadBanner = errors.New("mmarket: malformed banner")
	ErrBadSize   = errors.New("mmarket: malformed size line")
)

// bannerPrefix is the mandatory first-line prefix of a coordinate file.
const bannerPrefix = "%%MatrixMarket matrix coordinate"

// Header describes the matrix declared by a coordinate file.
type Header struct {
	Rows     int
	Cols     int
	NonZeros int
}

// Square reports whether the matrix is square.
func (h Header) Square() bool { return h.Rows == h.Cols }

// Decoder reads a Matrix Market coordinate file: a banner line, optional
// '%' comment lines, a size line, then one entry per line.
type Decoder struct {
	sc     *bufio.Scanner
	header Header
	line   int
}

// NewDecoder parses the banner and size line of r and returns a decoder
// positioned at the first entry.
func NewDecoder(r io.Reader) (*Decoder, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	d := &Decoder{sc: sc}

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, ErrBadBanner
	}
	d.line++
	if banner := sc.Text(); !strings.HasPrefix(banner, bannerPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrBadBanner, banner)
	}

	// The size line is the first non-comment line after the banner.
	for {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, ErrBadSize
		}
		d.line++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if _, err := fmt.Sscanf(line, "%d %d %d", &d.header.Rows, &d.header.Cols, &d.header.NonZeros); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadSize, line)
		}
		return d, nil
	}
}

// Header returns the matrix dimensions declared by the size line.
func (d *Decoder) Header() Header { return d.header }

// Edges calls fn for every (i, j) entry in file order. Indices are 1-based
// in the file and passed through unchanged; any values trailing the pair on
// a line are ignored. Decoding stops at the first error returned by fn.
func (d *Decoder) Edges(fn func(i, j uint) error) error {
	for d.sc.Scan() {
		d.line++
		line := strings.TrimSpace(d.sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		var i, j uint
		if _, err := fmt.Sscanf(line, "%d %d", &i, &j); err != nil {
			return fmt.Errorf("mmarket: bad entry on line %d: %q", d.line, line)
		}
		if err := fn(i, j); err != nil {
			return err
		}
	}
	return d.sc.Err()
}
