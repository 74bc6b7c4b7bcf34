// Package bmp decodes the uncompressed BMP variants the frame stores on disk:
// 1-bit monochrome, 4-bit gray (palette or planar) and 24-bit RGB.
package bmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	fileHeaderLen = 14
	coreHeaderLen = 12
	infoHeaderLen = 40

	magic = 0x4D42 // "BM", little endian

	// MaxDimension bounds the width and height a header may claim.
	MaxDimension = 1<<16 - 1
	// MaxPixels bounds width*height.
	MaxPixels = 1 << 26
)

var (
	ErrBadMagic          = errors.New("bmp: bad magic")
	ErrUnsupportedFormat = errors.New("bmp: unsupported format")
	ErrTruncated         = errors.New("bmp: truncated data")
)

// DecodeError ties a decode failure to the file it came from.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Model describes how Image.Pix is laid out.
type Model int

const (
	// ModelRGB stores three bytes per pixel in R, G, B order.
	ModelRGB Model = iota
	// ModelMono stores one level byte per pixel, either 0 (black) or 15 (white).
	ModelMono
	// ModelGray stores one level byte per pixel in 0..15.
	ModelGray
)

func (m Model) String() string {
	switch m {
	case ModelRGB:
		return "rgb"
	case ModelMono:
		return "mono"
	case ModelGray:
		return "gray"
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// Header is the subset of the file and info headers the decoder needs.
type Header struct {
	Width      int
	Height     int // always positive
	TopDown    bool
	BitCount   int
	DataOffset int64
	InfoSize   int
	ColorsUsed int
}

// Image is a decoded bitmap in top-down row order.
type Image struct {
	Width  int
	Height int
	Model  Model
	Pix    []byte
}

// RGB returns the color of pixel (x, y). Gray and mono levels expand to
// level*17 on every channel.
func (m *Image) RGB(x, y int) (r, g, b uint8) {
	if m.Model == ModelRGB {
		i := (y*m.Width + x) * 3
		return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
	}
	v := m.Pix[y*m.Width+x] * 17
	return v, v, v
}

// LowBit reports whether the image came from a 1- or 4-bit source.
func (m *Image) LowBit() bool {
	return m.Model != ModelRGB
}

// readFull wraps io.ReadFull so that any short read reports ErrTruncated.
func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}
	return nil
}

// DecodeConfig reads only the file and info headers.
func DecodeConfig(r io.Reader) (Header, error) {
	var h Header

	var fh [fileHeaderLen]byte
	if err := readFull(r, fh[:]); err != nil {
		return h, err
	}
	if binary.LittleEndian.Uint16(fh[0:2]) != magic {
		return h, ErrBadMagic
	}
	h.DataOffset = int64(binary.LittleEndian.Uint32(fh[10:14]))

	var sz [4]byte
	if err := readFull(r, sz[:]); err != nil {
		return h, err
	}
	h.InfoSize = int(binary.LittleEndian.Uint32(sz[:]))

	switch {
	case h.InfoSize == coreHeaderLen:
		var b [coreHeaderLen - 4]byte
		if err := readFull(r, b[:]); err != nil {
			return h, err
		}
		h.Width = int(binary.LittleEndian.Uint16(b[0:2]))
		h.Height = int(binary.LittleEndian.Uint16(b[2:4]))
		h.BitCount = int(binary.LittleEndian.Uint16(b[6:8]))
	case h.InfoSize >= infoHeaderLen:
		var b [infoHeaderLen - 4]byte
		if err := readFull(r, b[:]); err != nil {
			return h, err
		}
		h.Width = int(int32(binary.LittleEndian.Uint32(b[0:4])))
		h.Height = int(int32(binary.LittleEndian.Uint32(b[4:8])))
		h.BitCount = int(binary.LittleEndian.Uint16(b[10:12]))
		if compression := binary.LittleEndian.Uint32(b[12:16]); compression != 0 {
			return h, fmt.Errorf("%w: compression %d", ErrUnsupportedFormat, compression)
		}
		h.ColorsUsed = int(binary.LittleEndian.Uint32(b[28:32]))
		if extra := int64(h.InfoSize - infoHeaderLen); extra > 0 {
			if _, err := io.CopyN(io.Discard, r, extra); err != nil {
				return h, ErrTruncated
			}
		}
	default:
		return h, fmt.Errorf("%w: info header size %d", ErrUnsupportedFormat, h.InfoSize)
	}

	if h.Height < 0 {
		h.Height = -h.Height
		h.TopDown = true
	}
	if h.Width <= 0 || h.Height == 0 {
		return h, fmt.Errorf("%w: dimensions %dx%d", ErrUnsupportedFormat, h.Width, h.Height)
	}
	if h.Width > MaxDimension || h.Height > MaxDimension || int64(h.Width)*int64(h.Height) > MaxPixels {
		return h, fmt.Errorf("%w: dimensions %dx%d too large", ErrUnsupportedFormat, h.Width, h.Height)
	}
	switch h.BitCount {
	case 1, 4, 24:
	default:
		return h, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedFormat, h.BitCount)
	}
	return h, nil
}

// RowSize is the stored length of one pixel row, padded to 4 bytes.
func (h Header) RowSize() int64 {
	return (int64(h.Width)*int64(h.BitCount) + 31) / 32 * 4
}

// PixelBytes is the length of the pixel data the header claims.
func (h Header) PixelBytes() int64 {
	return h.RowSize() * int64(h.Height)
}

// CheckSize fails with ErrTruncated when a file of size bytes cannot hold
// the pixel rows the header claims.
func (h Header) CheckSize(size int64) error {
	avail := size - h.DataOffset
	if avail < 0 {
		avail = 0
	}
	if need := h.PixelBytes(); avail < need {
		return fmt.Errorf("%w: %d bytes of pixel data, header needs %d", ErrTruncated, avail, need)
	}
	return nil
}

// ReadHeader reads the headers of the file f and checks them against its
// size. f is left positioned after the headers.
func ReadHeader(f *os.File) (Header, error) {
	fi, err := f.Stat()
	if err != nil {
		return Header{}, err
	}
	h, err := DecodeConfig(f)
	if err != nil {
		return h, err
	}
	return h, h.CheckSize(fi.Size())
}

// PeekDimensions returns the width and absolute height of the bitmap at path
// without reading pixel data. A file too short for its header fails.
func PeekDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	h, err := ReadHeader(f)
	if err != nil {
		return 0, 0, &DecodeError{Path: path, Err: err}
	}
	return h.Width, h.Height, nil
}

// DecodeFile opens and decodes the bitmap at path. The header is checked
// against the file size before any pixel memory is allocated.
func DecodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := ReadHeader(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	m, err := decodeBody(f, h)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return m, nil
}
