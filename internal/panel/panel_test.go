package panel

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/AnyUserName/photoframe/internal/bmp"
	"github.com/AnyUserName/photoframe/internal/encoder"
	"github.com/AnyUserName/photoframe/internal/framebuf"
	"github.com/AnyUserName/photoframe/internal/palette"
)

type tx struct {
	data bool
	b    []byte
}

// recordConn logs every transfer together with the DC level at the time.
type recordConn struct {
	dc  *gpiotest.Pin
	log []tx
	err error
}

func (c *recordConn) String() string      { return "record" }
func (c *recordConn) Duplex() conn.Duplex { return conn.Half }

func (c *recordConn) Tx(w, r []byte) error {
	if c.err != nil {
		return c.err
	}
	c.log = append(c.log, tx{data: c.dc.Read() == gpio.High, b: append([]byte(nil), w...)})
	return nil
}

func (c *recordConn) commands() []byte {
	var out []byte
	for _, t := range c.log {
		if !t.data {
			out = append(out, t.b...)
		}
	}
	return out
}

func newTestEPD(t *testing.T, w, h int) (*EPD, *recordConn, *gpiotest.Pin) {
	t.Helper()
	dc := &gpiotest.Pin{N: "DC"}
	busy := &gpiotest.Pin{N: "BUSY", L: gpio.High}
	c := &recordConn{dc: dc}
	d, err := newEPD(c, Pins{DC: dc, RST: &gpiotest.Pin{N: "RST"}, Busy: busy}, &Opts{W: w, H: h, Poll: time.Microsecond})
	if err != nil {
		t.Fatal(err)
	}
	d.sleep = func(time.Duration) {}
	return d, c, busy
}

func TestNewEPDValidation(t *testing.T) {
	pins := Pins{DC: &gpiotest.Pin{}, RST: &gpiotest.Pin{}, Busy: &gpiotest.Pin{}}
	tests := []struct {
		name string
		opts Opts
		pins Pins
	}{
		{"odd width", Opts{W: 799, H: 480}, pins},
		{"zero height", Opts{W: 800}, pins},
		{"missing busy", Opts{W: 800, H: 480}, Pins{DC: pins.DC, RST: pins.RST}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newEPD(&recordConn{}, tt.pins, &tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFlushSequence(t *testing.T) {
	d, c, _ := newTestEPD(t, 800, 480)
	fb := framebuf.New(800, 480)
	fb.SetIndex(0, 0, palette.Red)

	if err := d.Flush(context.Background(), fb); err != nil {
		t.Fatal(err)
	}

	cmds := c.commands()
	want := []byte{
		cmdCommandHeader, cmdPowerSetting, cmdPanelSetting, cmdPowerOffSeq,
		cmdBoosterSoft1, cmdBoosterSoft2, cmdBoosterSoft3, cmdPLL,
		cmdVCOMInterval, cmdTCON, cmdResolution, cmdTempSensor, cmdPowerSaving,
		cmdPowerOn, cmdDataStart, cmdPowerOn, cmdDisplayRefresh, cmdPowerOff,
		cmdDeepSleep,
	}
	if !bytes.Equal(cmds, want) {
		t.Fatalf("commands:\n got % x\nwant % x", cmds, want)
	}

	// Resolution payload follows the resolution command.
	for i, tr := range c.log {
		if !tr.data && tr.b[0] == cmdResolution {
			if got := c.log[i+1].b; !bytes.Equal(got, []byte{0x03, 0x20, 0x01, 0xE0}) {
				t.Errorf("resolution: % x", got)
			}
		}
	}

	// Pixel data is chunked and complete.
	var pix []byte
	chunks := 0
	for i, tr := range c.log {
		if !tr.data && tr.b[0] == cmdDataStart {
			for _, dt := range c.log[i+1:] {
				if !dt.data {
					break
				}
				if len(dt.b) > maxTx {
					t.Errorf("chunk of %d bytes", len(dt.b))
				}
				pix = append(pix, dt.b...)
				chunks++
			}
		}
	}
	if !bytes.Equal(pix, fb.Pix) {
		t.Errorf("pixel payload: %d bytes, want %d", len(pix), len(fb.Pix))
	}
	if pix[0] != 0x31 {
		t.Errorf("first byte: got %#x", pix[0])
	}
	if want := (len(fb.Pix) + maxTx - 1) / maxTx; chunks != want {
		t.Errorf("chunks: got %d, want %d", chunks, want)
	}
}

func TestFlushBusyTimeout(t *testing.T) {
	d, _, busy := newTestEPD(t, 4, 2)
	busy.Out(gpio.Low)
	d.busyTimeout = time.Millisecond

	err := d.Flush(context.Background(), framebuf.New(4, 2))
	if !errors.Is(err, ErrBusyTimeout) {
		t.Errorf("got %v", err)
	}
}

func TestFlushCanceled(t *testing.T) {
	d, _, busy := newTestEPD(t, 4, 2)
	busy.Out(gpio.Low)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Flush(ctx, framebuf.New(4, 2)); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestFlushWrongSize(t *testing.T) {
	d, c, _ := newTestEPD(t, 4, 2)
	if err := d.Flush(context.Background(), framebuf.New(2, 4)); err == nil {
		t.Error("expected size error")
	}
	if len(c.log) != 0 {
		t.Errorf("sent %d transfers", len(c.log))
	}
}

func TestFilePreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.bmp")
	f, err := NewFile(path, 6, 4, encoder.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	fb := framebuf.New(6, 4)
	fb.SetIndex(5, 3, palette.Blue)
	fb.SetIndex(0, 1, palette.Green)

	if err := f.Flush(context.Background(), fb); err != nil {
		t.Fatal(err)
	}
	if f.Flushes != 1 {
		t.Errorf("flushes: %d", f.Flushes)
	}

	m, err := bmp.DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Width != 6 || m.Height != 4 {
		t.Fatalf("size %dx%d", m.Width, m.Height)
	}
	for _, p := range []struct {
		x, y int
		idx  palette.Index
	}{{5, 3, palette.Blue}, {0, 1, palette.Green}, {2, 2, palette.White}} {
		r, g, b := m.RGB(p.x, p.y)
		if got := palette.Exact(r, g, b); got != p.idx {
			t.Errorf("(%d,%d): got %d, want %d", p.x, p.y, got, p.idx)
		}
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries", len(entries))
	}
}

func TestFileUnknownFormat(t *testing.T) {
	if _, err := NewFile("frame.gif", 4, 4, encoder.NewRegistry()); err == nil {
		t.Error("expected error")
	}
}
