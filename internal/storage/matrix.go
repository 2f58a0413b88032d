// ABOUTME: Binary codec for the embedding matrix artifact
// ABOUTME: Fixed header (magic, version, rows, dim) followed by little-endian float64 rows
package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	matrixMagic   = "BSVM"
	matrixVersion = uint32(1)
	// magic + version + rows + dim
	matrixHeaderSize = 4 + 4 + 8 + 8
)

// ErrCorrupt is returned when an artifact does not decode cleanly
var ErrCorrupt = errors.New("corrupt index artifact")

// writeMatrix encodes matrix to w. All rows must have the same length.
func writeMatrix(w io.Writer, matrix [][]float64) error {
	dim := 0
	if len(matrix) > 0 {
		dim = len(matrix[0])
	}

	bw := bufio.NewWriter(w)
	header := make([]byte, matrixHeaderSize)
	copy(header, matrixMagic)
	binary.LittleEndian.PutUint32(header[4:], matrixVersion)
	binary.LittleEndian.PutUint64(header[8:], uint64(len(matrix)))
	binary.LittleEndian.PutUint64(header[16:], uint64(dim))
	if _, err := bw.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 8)
	for i, row := range matrix {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrMisaligned, i, len(row), dim)
		}
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// readMatrix decodes a matrix written by writeMatrix. size is the total byte
// length of the artifact and must match the header exactly.
func readMatrix(r io.Reader, size int64) ([][]float64, error) {
	br := bufio.NewReader(r)
	header := make([]byte, matrixHeaderSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCorrupt, err)
	}
	if string(header[:4]) != matrixMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, header[:4])
	}
	if v := binary.LittleEndian.Uint32(header[4:]); v != matrixVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	rows := binary.LittleEndian.Uint64(header[8:])
	dim := binary.LittleEndian.Uint64(header[16:])
	if dim == 0 && rows > 0 {
		return nil, fmt.Errorf("%w: %d rows of dimension 0", ErrCorrupt, rows)
	}
	if size < matrixHeaderSize || rows > uint64(size-matrixHeaderSize)/8 {
		return nil, fmt.Errorf("%w: %d rows cannot fit in %d bytes", ErrCorrupt, rows, size)
	}
	if dim > 0 && rows > uint64(math.MaxInt64-matrixHeaderSize)/8/dim {
		return nil, fmt.Errorf("%w: header overflows (%d x %d)", ErrCorrupt, rows, dim)
	}
	if want := int64(matrixHeaderSize) + int64(rows*dim*8); size != want {
		return nil, fmt.Errorf("%w: size %d, header implies %d", ErrCorrupt, size, want)
	}

	matrix := make([][]float64, rows)
	buf := make([]byte, 8)
	for i := range matrix {
		row := make([]float64, dim)
		for j := range row {
			if _, err := io.ReadFull(br, buf); err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrCorrupt, i, err)
			}
			row[j] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
		}
		matrix[i] = row
	}
	return matrix, nil
}
