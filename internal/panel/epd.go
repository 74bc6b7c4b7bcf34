package panel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"

	"github.com/AnyUserName/photoframe/internal/framebuf"
)

// ErrBusyTimeout means the controller kept BUSY asserted past the deadline.
var ErrBusyTimeout = errors.New("epd: busy timeout")

// Controller commands of the six-color panels.
const (
	cmdPanelSetting   = 0x00
	cmdPowerSetting   = 0x01
	cmdPowerOff       = 0x02
	cmdPowerOffSeq    = 0x03
	cmdPowerOn        = 0x04
	cmdBoosterSoft1   = 0x05
	cmdBoosterSoft2   = 0x06
	cmdDeepSleep      = 0x07
	cmdBoosterSoft3   = 0x08
	cmdDataStart      = 0x10
	cmdDisplayRefresh = 0x12
	cmdPLL            = 0x30
	cmdVCOMInterval   = 0x50
	cmdTCON           = 0x60
	cmdResolution     = 0x61
	cmdTempSensor     = 0x84
	cmdPowerSaving    = 0xE3
	cmdCommandHeader  = 0xAA

	deepSleepCheck = 0xA5

	// maxTx keeps single transfers under the common spidev buffer size.
	maxTx = 4096
)

// Pins are the control lines besides the SPI bus.
type Pins struct {
	DC   gpio.PinOut
	RST  gpio.PinOut
	Busy gpio.PinIn
}

// Opts is the configuration of the e-paper panel.
type Opts struct {
	W, H int
	// BusyTimeout bounds every wait on the BUSY line. Default 60s.
	BusyTimeout time.Duration
	// Poll is the BUSY sampling period. Default 10ms.
	Poll time.Duration
}

// EPD drives a six-color e-paper controller. The panel is woken, loaded,
// refreshed and put back to deep sleep on every Flush.
type EPD struct {
	c    conn.Conn
	pins Pins
	w, h int

	busyTimeout time.Duration
	poll        time.Duration
	sleep       func(time.Duration)
}

// NewSPI connects to an e-paper panel on port. The SPI port is configured
// for 4MHz, Mode0, 8-bit transfers.
func NewSPI(p spi.Port, pins Pins, opts *Opts) (*EPD, error) {
	if opts == nil {
		return nil, errors.New("epd: options required")
	}
	c, err := p.Connect(4*1000000, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("epd: connect: %w", err)
	}
	return newEPD(c, pins, opts)
}

func newEPD(c conn.Conn, pins Pins, opts *Opts) (*EPD, error) {
	if opts.W <= 0 || opts.W%2 != 0 || opts.H <= 0 {
		return nil, fmt.Errorf("epd: bad size %dx%d (width must be even)", opts.W, opts.H)
	}
	if pins.DC == nil || pins.RST == nil || pins.Busy == nil {
		return nil, errors.New("epd: DC, RST and BUSY pins are required")
	}
	d := &EPD{
		c:           c,
		pins:        pins,
		w:           opts.W,
		h:           opts.H,
		busyTimeout: opts.BusyTimeout,
		poll:        opts.Poll,
		sleep:       time.Sleep,
	}
	if d.busyTimeout <= 0 {
		d.busyTimeout = 60 * time.Second
	}
	if d.poll <= 0 {
		d.poll = 10 * time.Millisecond
	}
	if err := pins.Busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("epd: busy pin: %w", err)
	}
	return d, nil
}

// Size is the panel's physical resolution.
func (d *EPD) Size() (int, int) { return d.w, d.h }

func (d *EPD) String() string {
	return fmt.Sprintf("epd{%dx%d}", d.w, d.h)
}

// Flush wakes the panel, uploads fb and refreshes the screen. A refresh of
// these panels takes tens of seconds; ctx cancels the busy waits.
func (d *EPD) Flush(ctx context.Context, fb *framebuf.Framebuffer) error {
	if err := checkSize(d, fb); err != nil {
		return err
	}
	start := time.Now()
	if err := d.init(ctx); err != nil {
		return err
	}
	if err := d.command(cmdDataStart); err != nil {
		return err
	}
	if err := d.data(fb.Pix); err != nil {
		return err
	}
	if err := d.refresh(ctx); err != nil {
		return err
	}
	log.Debug().Dur("took", time.Since(start)).Str("panel", d.String()).Msg("panel refreshed")
	return d.deepSleep()
}

// Close puts the panel to sleep.
func (d *EPD) Close() error {
	return d.deepSleep()
}

func (d *EPD) reset() error {
	steps := []struct {
		l gpio.Level
		t time.Duration
	}{
		{gpio.High, 20 * time.Millisecond},
		{gpio.Low, 2 * time.Millisecond},
		{gpio.High, 20 * time.Millisecond},
	}
	for _, s := range steps {
		if err := d.pins.RST.Out(s.l); err != nil {
			return fmt.Errorf("epd: reset: %w", err)
		}
		d.sleep(s.t)
	}
	return nil
}

// init runs the power-up sequence. The register values are the vendor's
// reference settings for the six-color film.
func (d *EPD) init(ctx context.Context) error {
	if err := d.reset(); err != nil {
		return err
	}
	if err := d.waitIdle(ctx); err != nil {
		return err
	}
	d.sleep(30 * time.Millisecond)

	seq := []struct {
		cmd  byte
		data []byte
	}{
		{cmdCommandHeader, []byte{0x49, 0x55, 0x20, 0x08, 0x09, 0x18}},
		{cmdPowerSetting, []byte{0x3F}},
		{cmdPanelSetting, []byte{0x5F, 0x69}},
		{cmdPowerOffSeq, []byte{0x00, 0x54, 0x00, 0x44}},
		{cmdBoosterSoft1, []byte{0x40, 0x1F, 0x1F, 0x2C}},
		{cmdBoosterSoft2, []byte{0x6F, 0x1F, 0x17, 0x49}},
		{cmdBoosterSoft3, []byte{0x6F, 0x1F, 0x1F, 0x22}},
		{cmdPLL, []byte{0x03}},
		{cmdVCOMInterval, []byte{0x3F}},
		{cmdTCON, []byte{0x02, 0x00}},
		{cmdResolution, []byte{byte(d.w >> 8), byte(d.w), byte(d.h >> 8), byte(d.h)}},
		{cmdTempSensor, []byte{0x01}},
		{cmdPowerSaving, []byte{0x2F}},
	}
	for _, s := range seq {
		if err := d.command(s.cmd); err != nil {
			return err
		}
		if err := d.data(s.data); err != nil {
			return err
		}
	}
	if err := d.command(cmdPowerOn); err != nil {
		return err
	}
	return d.waitIdle(ctx)
}

func (d *EPD) refresh(ctx context.Context) error {
	steps := []struct {
		cmd  byte
		data []byte
	}{
		{cmdPowerOn, nil},
		{cmdDisplayRefresh, []byte{0x00}},
		{cmdPowerOff, []byte{0x00}},
	}
	for _, s := range steps {
		if err := d.command(s.cmd); err != nil {
			return err
		}
		if err := d.data(s.data); err != nil {
			return err
		}
		if err := d.waitIdle(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *EPD) deepSleep() error {
	if err := d.command(cmdDeepSleep); err != nil {
		return err
	}
	return d.data([]byte{deepSleepCheck})
}

// waitIdle polls BUSY until it reads high (idle).
func (d *EPD) waitIdle(ctx context.Context) error {
	deadline := time.Now().Add(d.busyTimeout)
	for d.pins.Busy.Read() == gpio.Low {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return ErrBusyTimeout
		}
		d.sleep(d.poll)
	}
	return nil
}

func (d *EPD) command(cmd byte) error {
	if err := d.pins.DC.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx([]byte{cmd}, nil)
}

func (d *EPD) data(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := d.pins.DC.Out(gpio.High); err != nil {
		return err
	}
	for len(b) > 0 {
		n := len(b)
		if n > maxTx {
			n = maxTx
		}
		if err := d.c.Tx(b[:n], nil); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
