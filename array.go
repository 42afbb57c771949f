package arraycmp

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	logging "github.com/ipfs/go-log"
	"gonum.org/v1/gonum/mat"
)

var log = logging.Logger("arraycmp")

var (
	ErrNotSquare        = errors.New("element count is not a perfect square")
	ErrTruncated        = errors.New("file is shorter than its header declares")
	ErrEmptyArray       = errors.New("array has no elements")
	ErrUnknownByteOrder = errors.New("unknown byte order")
)

// headerSize is the size of the leading element count.
const headerSize = 8

// chunkLen bounds how many values are buffered per read when the input size
// is not known up front.
const chunkLen = 4096

// ParseByteOrder maps "native", "little" or "big" to a byte order.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "native":
		return binary.NativeEndian, nil
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w %q (want native, little or big)", ErrUnknownByteOrder, s)
}

// ReadArrayFile loads the square matrix stored at path. The file holds an
// unsigned 64-bit element count followed by that many float64 values in
// row-major order.
func ReadArrayFile(path string, order binary.ByteOrder) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// pipes and special files report no usable size
	size := int64(-1)
	if info.Mode().IsRegular() {
		size = info.Size()
	}
	m, err := decodeArray(bufio.NewReader(f), order, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r, c := m.Dims()
	log.Debugf("read %s: %dx%d matrix (%d bytes)", path, r, c, info.Size())
	return m, nil
}

// DecodeArray reads one length-prefixed array from r and reshapes it into an
// n×n matrix.
func DecodeArray(r io.Reader, order binary.ByteOrder) (*mat.Dense, error) {
	return decodeArray(r, order, -1)
}

// decodeArray takes the total input size when known, or a negative size.
func decodeArray(r io.Reader, order binary.ByteOrder, size int64) (*mat.Dense, error) {
	var count uint64
	if err := binary.Read(r, order, &count); err != nil {
		return nil, readError("element count", err)
	}
	if count == 0 {
		return nil, ErrEmptyArray
	}
	n, ok := squareSide(count)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotSquare, count)
	}
	if size >= headerSize {
		avail := uint64(size-headerSize) / 8
		if count > avail {
			return nil, fmt.Errorf("%w: header declares %d values, file holds %d", ErrTruncated, count, avail)
		}
		data := make([]float64, count)
		if err := binary.Read(r, order, data); err != nil {
			return nil, readError("values", err)
		}
		return mat.NewDense(n, n, data), nil
	}

	var data []float64
	buf := make([]float64, chunkLen)
	for left := count; left > 0; {
		chunk := buf
		if left < uint64(len(chunk)) {
			chunk = chunk[:left]
		}
		if err := binary.Read(r, order, chunk); err != nil {
			return nil, readError("values", err)
		}
		data = append(data, chunk...)
		left -= uint64(len(chunk))
	}
	return mat.NewDense(n, n, data), nil
}

func readError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s: %v", ErrTruncated, what, err)
	}
	return fmt.Errorf("reading %s: %w", what, err)
}

// squareSide returns n = floor(sqrt(count)) and whether n*n == count.
func squareSide(count uint64) (int, bool) {
	n := uint64(math.Sqrt(float64(count)))
	if n > math.MaxUint32 {
		n = math.MaxUint32
	}
	for n*n > count {
		n--
	}
	for n < math.MaxUint32 && (n+1)*(n+1) <= count {
		n++
	}
	return int(n), n*n == count
}

// EncodeArray writes m in the layout read by DecodeArray.
func EncodeArray(w io.Writer, m mat.Matrix, order binary.ByteOrder) error {
	r, c := m.Dims()
	if r != c {
		return fmt.Errorf("%w: matrix is %dx%d", ErrNotSquare, r, c)
	}
	if err := binary.Write(w, order, uint64(r*c)); err != nil {
		return err
	}
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		if err := binary.Write(w, order, row); err != nil {
			return err
		}
	}
	return nil
}

func WriteArrayFile(path string, m mat.Matrix, order binary.ByteOrder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := EncodeArray(w, m, order); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
