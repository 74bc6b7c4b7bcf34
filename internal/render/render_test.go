package render

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	xbmp "golang.org/x/image/bmp"

	"github.com/AnyUserName/photoframe/internal/bmp"
	"github.com/AnyUserName/photoframe/internal/frame"
	"github.com/AnyUserName/photoframe/internal/framebuf"
	"github.com/AnyUserName/photoframe/internal/geom"
	"github.com/AnyUserName/photoframe/internal/palette"
)

type memPanel struct {
	w, h   int
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (p *memPanel) Size() (int, int) { return p.w, p.h }
func (p *memPanel) Close() error     { return nil }

func (p *memPanel) Flush(_ context.Context, fb *framebuf.Framebuffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.frames = append(p.frames, append([]byte(nil), fb.Pix...))
	return nil
}

func (p *memPanel) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

type fakeSource struct {
	mu     sync.Mutex
	d      frame.Display
	failed []string
}

func (s *fakeSource) Display() frame.Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d
}

func (s *fakeSource) DisplayFailed(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, path)
}

func (s *fakeSource) set(d frame.Display) {
	s.mu.Lock()
	s.d = d
	s.mu.Unlock()
}

func solid(w, h int, r, g, b uint8) *bmp.Image {
	m := &bmp.Image{Width: w, Height: h, Model: bmp.ModelRGB, Pix: make([]byte, w*h*3)}
	for i := 0; i < len(m.Pix); i += 3 {
		m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
	}
	return m
}

func TestPaintCentersWithoutUpscale(t *testing.T) {
	fb := framebuf.New(8, 4)
	cv := fb.Canvas(0)
	pl := Paint(cv, solid(4, 2, 255, 0, 0), 0, false)

	if pl.W != 4 || pl.H != 2 || pl.X != 2 || pl.Y != 1 {
		t.Fatalf("placement %+v", pl)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			want := palette.White
			if x >= 2 && x < 6 && y >= 1 && y < 3 {
				want = palette.Red
			}
			if got := cv.At(x, y); got != want {
				t.Errorf("(%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestPaintUpscaleFills(t *testing.T) {
	fb := framebuf.New(8, 4)
	pl := Paint(fb.Canvas(0), solid(4, 2, 0, 0, 255), 0, true)
	if pl != (geom.Placement{W: 8, H: 4}) {
		t.Fatalf("placement %+v", pl)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if got := fb.IndexAt(x, y); got != palette.Blue {
				t.Fatalf("(%d,%d): got %d", x, y, got)
			}
		}
	}
}

func TestPaintRotatesImageToFrame(t *testing.T) {
	// A 2x4 portrait image tagged r90 on an unrotated 4x2 frame turns by 270.
	img := solid(2, 4, 255, 255, 255)
	img.Pix[0], img.Pix[1], img.Pix[2] = 0, 0, 0 // source (0,0) black

	fb := framebuf.New(4, 2)
	cv := fb.Canvas(0)
	pl := Paint(cv, img, 90, false)
	if pl.W != 4 || pl.H != 2 {
		t.Fatalf("placement %+v", pl)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			want := palette.White
			if x == 0 && y == 1 {
				want = palette.Black
			}
			if got := cv.At(x, y); got != want {
				t.Errorf("(%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestPaintLowBitIsExact(t *testing.T) {
	img := &bmp.Image{Width: 3, Height: 1, Model: bmp.ModelGray, Pix: []byte{0, 8, 15}}
	fb := framebuf.New(3, 1)
	Paint(fb.Canvas(0), img, 0, false)

	want := []palette.Index{palette.Black, palette.White, palette.White}
	for x, w := range want {
		if got := fb.IndexAt(x, 0); got != w {
			t.Errorf("x=%d: got %d, want %d", x, got, w)
		}
	}
}

func writePhoto(t *testing.T, dir, name string, w, h int, c color.RGBA) string {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c.R, c.G, c.B, 0xFF
	}
	var buf bytes.Buffer
	if err := xbmp.Encode(&buf, m); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRedraw(t *testing.T) {
	dir := t.TempDir()
	green := writePhoto(t, dir, "a_L_r0.bmp", 8, 4, color.RGBA{G: 255})
	broken := filepath.Join(dir, "b_L_r0.bmp")
	if err := os.WriteFile(broken, []byte("BMnope"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{d: frame.Display{Path: green}}
	p := &memPanel{w: 8, h: 4}
	c := New(src, p, Options{})
	ctx := context.Background()

	if out, err := c.Redraw(ctx); err != nil || out != Flushed {
		t.Fatalf("first: %s %v", out, err)
	}
	if p.frames[0][0] != 0x66 {
		t.Errorf("first byte: %#x", p.frames[0][0])
	}
	if out, _ := c.Redraw(ctx); out != Unchanged {
		t.Errorf("second: %s", out)
	}

	src.set(frame.Display{Path: broken})
	out, err := c.Redraw(ctx)
	if out != Failed || err == nil {
		t.Errorf("broken: %s %v", out, err)
	}
	var de *bmp.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("error type: %T", err)
	}
	if len(src.failed) != 1 || src.failed[0] != broken {
		t.Errorf("failures reported: %v", src.failed)
	}

	src.set(frame.Display{})
	if out, err := c.Redraw(ctx); out != Flushed || err != nil {
		t.Errorf("blank: %s %v", out, err)
	}
	if p.frames[1][0] != 0x11 {
		t.Errorf("blank frame: %#x", p.frames[1][0])
	}

	st := c.Stats()
	if st.Redraws != 4 || st.Flushes != 2 || st.Unchanged != 1 || st.Failures != 1 {
		t.Errorf("stats %+v", st)
	}
}

func TestRedrawPeeksBeforeDecoding(t *testing.T) {
	dir := t.TempDir()
	good := writePhoto(t, dir, "a_L_r0.bmp", 4, 2, color.RGBA{R: 255})
	data, err := os.ReadFile(good)
	if err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{}
	c := New(src, &memPanel{w: 8, h: 4}, Options{})
	decoded := 0
	c.decode = func(path string) (*bmp.Image, error) {
		decoded++
		return bmp.DecodeFile(path)
	}

	for _, dims := range [][2]uint32{{400, 300}, {0x7fffffff, 0x7fffffff}} {
		header := append([]byte(nil), data[:54]...)
		binary.LittleEndian.PutUint32(header[18:22], dims[0])
		binary.LittleEndian.PutUint32(header[22:26], dims[1])
		path := filepath.Join(dir, "big_L_r0.bmp")
		if err := os.WriteFile(path, header, 0o644); err != nil {
			t.Fatal(err)
		}

		src.failed = nil
		src.set(frame.Display{Path: path})
		out, err := c.Redraw(context.Background())
		if out != Failed || err == nil {
			t.Fatalf("%v: got %s %v", dims, out, err)
		}
		if len(src.failed) != 1 || src.failed[0] != path {
			t.Errorf("%v: failures reported: %v", dims, src.failed)
		}
	}
	if decoded != 0 {
		t.Errorf("full decode ran %d times", decoded)
	}

	src.set(frame.Display{Path: good})
	if out, err := c.Redraw(context.Background()); out != Flushed || err != nil {
		t.Fatalf("good: %s %v", out, err)
	}
	if decoded != 1 {
		t.Errorf("decodes: %d", decoded)
	}
}

func TestRedrawPanelError(t *testing.T) {
	src := &fakeSource{}
	p := &memPanel{w: 2, h: 2, err: errors.New("spi gone")}
	c := New(src, p, Options{})

	if out, err := c.Redraw(context.Background()); out != Failed || err == nil {
		t.Fatalf("got %s %v", out, err)
	}
	// The failed frame is not remembered as shown.
	p.err = nil
	if out, err := c.Redraw(context.Background()); out != Flushed || err != nil {
		t.Errorf("retry: %s %v", out, err)
	}
}

func TestRequestCoalesces(t *testing.T) {
	c := New(&fakeSource{}, &memPanel{w: 2, h: 2}, Options{})
	for i := 0; i < 5; i++ {
		c.Request()
	}
	if len(c.req) != 1 {
		t.Errorf("pending requests: %d", len(c.req))
	}
}

func TestRun(t *testing.T) {
	p := &memPanel{w: 2, h: 2}
	c := New(&fakeSource{}, p, Options{Quiet: NewQuiet(time.Millisecond, 50*time.Millisecond)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.opts.Quiet.Mark()
	c.Request()
	deadline := time.Now().Add(5 * time.Second)
	for p.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
	if p.count() != 1 {
		t.Errorf("flushes: %d", p.count())
	}
}

func TestQuiet(t *testing.T) {
	q := NewQuiet(20*time.Millisecond, time.Second)
	if !q.Wait(context.Background()) {
		t.Error("no activity should be quiet")
	}

	q.Mark()
	start := time.Now()
	if !q.Wait(context.Background()) {
		t.Error("window not reached")
	}
	if el := time.Since(start); el < 15*time.Millisecond {
		t.Errorf("returned after %v", el)
	}

	busy := NewQuiet(time.Hour, 10*time.Millisecond)
	busy.Mark()
	if busy.Wait(context.Background()) {
		t.Error("max wait should give up")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	busy2 := NewQuiet(time.Hour, time.Hour)
	busy2.Mark()
	if busy2.Wait(ctx) {
		t.Error("canceled wait reported quiet")
	}
}
