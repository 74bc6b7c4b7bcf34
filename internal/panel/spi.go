package panel

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIConfig names the bus and pins of a panel attached to the host.
type SPIConfig struct {
	Bus  string // spireg name, empty for the first bus
	DC   string
	RST  string
	Busy string
	W, H int
}

// OpenSPI initializes the host drivers and opens the panel.
func OpenSPI(cfg SPIConfig) (*SPIPanel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("epd: host init: %w", err)
	}
	port, err := spireg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("epd: open spi %q: %w", cfg.Bus, err)
	}

	var pins Pins
	for _, p := range []struct {
		name string
		set  func(gpio.PinIO)
	}{
		{cfg.DC, func(g gpio.PinIO) { pins.DC = g }},
		{cfg.RST, func(g gpio.PinIO) { pins.RST = g }},
		{cfg.Busy, func(g gpio.PinIO) { pins.Busy = g }},
	} {
		g := gpioreg.ByName(p.name)
		if g == nil {
			port.Close()
			return nil, fmt.Errorf("epd: gpio %q not found", p.name)
		}
		p.set(g)
	}

	d, err := NewSPI(port, pins, &Opts{W: cfg.W, H: cfg.H})
	if err != nil {
		port.Close()
		return nil, err
	}
	return &SPIPanel{EPD: d, port: port}, nil
}

// SPIPanel is an EPD that owns its SPI port.
type SPIPanel struct {
	*EPD
	port spi.PortCloser
}

// Close puts the panel to sleep and releases the bus.
func (p *SPIPanel) Close() error {
	err := p.EPD.Close()
	if cerr := p.port.Close(); err == nil {
		err = cerr
	}
	return err
}
