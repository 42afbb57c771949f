package arraycmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrShapeMismatch    = errors.New("matrices have different shapes")
	ErrValueCannotBeNil = errors.New("value cannot be nil")
)

type Result struct {
	MaxAbs1, MaxAbs2, MaxDiff float64
}

func (r Result) String() string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "Maximum absolute value in file1: %s\n", FormatFloat(r.MaxAbs1))
	fmt.Fprintf(buf, "Maximum absolute value in file2: %s\n", FormatFloat(r.MaxAbs2))
	fmt.Fprintf(buf, "Maximum absolute difference:     %s", FormatFloat(r.MaxDiff))
	return buf.String()
}

// Compare returns the largest magnitude in u1 and u2 and the largest
// magnitude of their elementwise difference. NaN anywhere propagates.
func Compare(u1, u2 mat.Matrix) (Result, error) {
	r1, c1 := u1.Dims()
	r2, c2 := u2.Dims()
	if r1 != r2 || c1 != c2 {
		return Result{}, fmt.Errorf("%w: %dx%d and %dx%d", ErrShapeMismatch, r1, c1, r2, c2)
	}
	var diff mat.Dense
	diff.Sub(u1, u2)
	return Result{
		MaxAbs1: MaxAbs(u1),
		MaxAbs2: MaxAbs(u2),
		MaxDiff: MaxAbs(&diff),
	}, nil
}

func MaxAbs(m mat.Matrix) float64 {
	var abs mat.Dense
	abs.Apply(func(_, _ int, v float64) float64 { return math.Abs(v) }, m)
	r, _ := abs.Dims()
	for i := 0; i < r; i++ {
		if floats.HasNaN(abs.RawRowView(i)) {
			return math.NaN()
		}
	}
	return mat.Max(&abs)
}

// FormatFloat renders v as the shortest string that round-trips, always
// with a decimal point or exponent: 4.0, 0.5, 1e-05, 1e+16, nan, inf.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

type FileComparer struct {
	Order          binary.ByteOrder
	Stdout, Stderr io.Writer
}

func NewFileComparer(opts ...CMPOption) (*FileComparer, error) {
	fc := &FileComparer{
		Order:  binary.NativeEndian,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	for _, o := range opts {
		err := o(fc)
		if err != nil {
			return nil, err
		}
	}
	return fc, nil
}

func WithStdout(w io.Writer) CMPOption {
	return func(fc *FileComparer) error {
		if w == nil {
			return ErrValueCannotBeNil
		}
		fc.Stdout = w
		return nil
	}
}

func WithStderr(w io.Writer) CMPOption {
	return func(fc *FileComparer) error {
		if w == nil {
			return ErrValueCannotBeNil
		}
		fc.Stderr = w
		return nil
	}
}

func WithByteOrder(order binary.ByteOrder) CMPOption {
	return func(fc *FileComparer) error {
		if order == nil {
			return ErrValueCannotBeNil
		}
		fc.Order = order
		return nil
	}
}

type CMPOption func(*FileComparer) error

// Compare loads both files in full and compares them.
func (fc FileComparer) Compare(path1, path2 string) (Result, error) {
	u1, err := ReadArrayFile(path1, fc.Order)
	if err != nil {
		return Result{}, err
	}
	u2, err := ReadArrayFile(path2, fc.Order)
	if err != nil {
		return Result{}, err
	}
	res, err := Compare(u1, u2)
	if err != nil {
		return Result{}, fmt.Errorf("%s vs %s: %w", path1, path2, err)
	}
	log.Debugf("compared %s and %s: %+v", path1, path2, res)
	return res, nil
}

// Run compares the two files and prints the result to Stdout.
func (fc FileComparer) Run(path1, path2 string) error {
	res, err := fc.Compare(path1, path2)
	if err != nil {
		return err
	}
	fmt.Fprintln(fc.Stdout, res)
	return nil
}
