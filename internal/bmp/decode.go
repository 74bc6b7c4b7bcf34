package bmp

import (
	"fmt"
	"io"
)

// Decode reads a complete bitmap from r. Rows are consumed sequentially from
// the pixel data offset; a short read anywhere fails the whole decode.
func Decode(r io.Reader) (*Image, error) {
	h, err := DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	return decodeBody(r, h)
}

// decodeBody reads the palette and pixel rows that follow the headers.
func decodeBody(r io.Reader, h Header) (*Image, error) {
	consumed := int64(fileHeaderLen + h.InfoSize)
	gap := h.DataOffset - consumed
	if gap < 0 {
		return nil, fmt.Errorf("%w: pixel offset %d inside headers", ErrUnsupportedFormat, h.DataOffset)
	}

	entrySize := int64(4)
	if h.InfoSize == coreHeaderLen {
		entrySize = 3
	}
	var pal [][3]uint8
	if h.BitCount <= 8 {
		n := int64(h.ColorsUsed)
		if n == 0 || n > 1<<h.BitCount {
			n = 1 << h.BitCount
		}
		if avail := gap / entrySize; n > avail {
			n = avail
		}
		pal = make([][3]uint8, n)
		buf := make([]byte, entrySize)
		for i := range pal {
			if err := readFull(r, buf); err != nil {
				return nil, err
			}
			pal[i] = [3]uint8{buf[2], buf[1], buf[0]}
		}
		gap -= n * entrySize
	}
	if gap > 0 {
		if _, err := io.CopyN(io.Discard, r, gap); err != nil {
			return nil, ErrTruncated
		}
	}

	d := rowDecoder{h: h, pal: pal}
	return d.decode(r)
}

type rowDecoder struct {
	h   Header
	pal [][3]uint8
}

func (d *rowDecoder) decode(r io.Reader) (*Image, error) {
	w, ht := d.h.Width, d.h.Height
	m := &Image{Width: w, Height: ht}

	var bpp int
	switch d.h.BitCount {
	case 24:
		m.Model = ModelRGB
		bpp = 3
	case 4:
		m.Model = ModelGray
		bpp = 1
	case 1:
		m.Model = ModelMono
		bpp = 1
	}
	m.Pix = make([]byte, w*ht*bpp)
	row := make([]byte, d.h.RowSize())
	levels := d.levels()

	for i := 0; i < ht; i++ {
		if err := readFull(r, row); err != nil {
			return nil, err
		}
		y := ht - 1 - i
		if d.h.TopDown {
			y = i
		}
		out := m.Pix[y*w*bpp : (y+1)*w*bpp]

		switch d.h.BitCount {
		case 24:
			for x := 0; x < w; x++ {
				out[x*3] = row[x*3+2]
				out[x*3+1] = row[x*3+1]
				out[x*3+2] = row[x*3]
			}
		case 4:
			for x := 0; x < w; x++ {
				v := row[x/2]
				if x&1 == 0 {
					v >>= 4
				}
				out[x] = levels[v&0x0F]
			}
		case 1:
			for x := 0; x < w; x++ {
				bit := (row[x/8] >> (7 - uint(x%8))) & 1
				out[x] = levels[bit]
			}
		}
	}
	return m, nil
}

// levels maps a raw palette index to a gray level in 0..15.
func (d *rowDecoder) levels() [16]uint8 {
	var lv [16]uint8
	switch d.h.BitCount {
	case 1:
		// Inverted bitmaps put white at entry 0.
		whiteFirst := len(d.pal) > 0 && bright(d.pal[0])
		if whiteFirst {
			lv[0], lv[1] = 15, 0
		} else {
			lv[0], lv[1] = 0, 15
		}
	case 4:
		for i := range lv {
			switch {
			case len(d.pal) == 0:
				lv[i] = uint8(i)
			case i < len(d.pal):
				lv[i] = uint8((int(d.pal[i][0]) + 8) / 17)
			default:
				lv[i] = 15
			}
		}
	}
	return lv
}

func bright(c [3]uint8) bool {
	return int(c[0])+int(c[1])+int(c[2]) >= 3*128
}
