package qr

import (
	"fmt"
	"strings"

	skip2 "github.com/skip2/go-qrcode"
	"github.com/yeqown/go-qrcode/v2"
)

// Matrix is a square grid of QR modules in row-major order. A true module is dark.
type Matrix struct {
	Size    int
	Modules []bool
}

// At reports whether the module at row, col is dark.
func (m Matrix) At(row, col int) bool {
	return m.Modules[row*m.Size+col]
}

// Encoder turns text into a module matrix. Implementations must not add a quiet zone.
type Encoder interface {
	Encode(text string, level ECLevel) (Matrix, error)
}

// NewEncoder returns the encoder registered under name ("yeqown" or "skip2").
func NewEncoder(name string) (Encoder, error) {
	switch strings.ToLower(name) {
	case "", "yeqown":
		return YeqownEncoder{}, nil
	case "skip2":
		return Skip2Encoder{}, nil
	}
	return nil, fmt.Errorf("unknown QR encoder %q", name)
}

// YeqownEncoder encodes with github.com/yeqown/go-qrcode/v2.
type YeqownEncoder struct{}

func (YeqownEncoder) Encode(text string, level ECLevel) (Matrix, error) {
	qrc, err := qrcode.NewWith(text, yeqownLevel(level))
	if err != nil {
		return Matrix{}, fmt.Errorf("encode qr: %w", err)
	}
	w := &matrixWriter{}
	if err := qrc.Save(w); err != nil {
		return Matrix{}, fmt.Errorf("read qr matrix: %w", err)
	}
	return w.mat, nil
}

func yeqownLevel(level ECLevel) qrcode.EncodeOption {
	switch level {
	case ECLevelL:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionLow)
	case ECLevelM:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium)
	case ECLevelQ:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionQuart)
	default:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest)
	}
}

// matrixWriter implements qrcode.Writer and keeps the raw matrix instead of drawing it.
type matrixWriter struct {
	mat Matrix
}

func (w *matrixWriter) Write(mat qrcode.Matrix) error {
	size := mat.Width()
	if size <= 0 || mat.Height() != size {
		return fmt.Errorf("unexpected matrix shape %dx%d", mat.Width(), mat.Height())
	}
	w.mat = Matrix{Size: size, Modules: make([]bool, size*size)}
	mat.Iterate(qrcode.IterDirection_ROW, func(x, y int, v qrcode.QRValue) {
		w.mat.Modules[y*size+x] = v.IsSet()
	})
	return nil
}

func (w *matrixWriter) Close() error { return nil }

// Skip2Encoder encodes with github.com/skip2/go-qrcode.
type Skip2Encoder struct{}

func (Skip2Encoder) Encode(text string, level ECLevel) (Matrix, error) {
	q, err := skip2.New(text, skip2Level(level))
	if err != nil {
		return Matrix{}, fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = true

	bitmap := q.Bitmap()
	size := len(bitmap)
	m := Matrix{Size: size, Modules: make([]bool, 0, size*size)}
	for _, row := range bitmap {
		if len(row) != size {
			return Matrix{}, fmt.Errorf("unexpected matrix row length %d, want %d", len(row), size)
		}
		m.Modules = append(m.Modules, row...)
	}
	return m, nil
}

func skip2Level(level ECLevel) skip2.RecoveryLevel {
	switch level {
	case ECLevelL:
		return skip2.Low
	case ECLevelM:
		return skip2.Medium
	case ECLevelQ:
		return skip2.High
	default:
		return skip2.Highest
	}
}
