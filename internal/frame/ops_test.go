package frame

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/AnyUserName/photoframe/internal/kvstore"
)

func seeded(t *testing.T, names ...string) *Controller {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		writeBMP(t, dir, n)
	}
	c := New(Options{PhotoDir: dir, DefaultRotation: 0}, kvstore.NewMemory())
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNextWraps(t *testing.T) {
	c := seeded(t, "a_L_r0.bmp", "b_L_r0.bmp", "c_L_r0.bmp")
	if c.Current() != "a" {
		t.Fatalf("start: got %q", c.Current())
	}
	for _, want := range []string{"b", "c", "a"} {
		got, err := c.Next()
		if err != nil || got != want {
			t.Fatalf("next: got %q %v, want %q", got, err, want)
		}
	}
}

func TestNextEmpty(t *testing.T) {
	c := seeded(t)
	if _, err := c.Next(); !errors.Is(err, ErrNoPhotos) {
		t.Errorf("got %v", err)
	}
	if c.Current() != "" {
		t.Errorf("current: got %q", c.Current())
	}
}

func TestSelect(t *testing.T) {
	c := seeded(t, "a_L_r0.bmp", "b_L_r0.bmp")

	if id, err := c.Select(" b\n"); err != nil || id != "b" {
		t.Fatalf("select: %q %v", id, err)
	}
	if filepath.Base(c.Display().Path) != "b_L_r0.bmp" {
		t.Errorf("display: got %+v", c.Display())
	}
	if _, err := c.Select("zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown: got %v", err)
	}
	var ve *ValidationError
	if _, err := c.Select("a/b"); !errors.As(err, &ve) {
		t.Errorf("unsafe: got %v", err)
	}
	if c.Current() != "b" {
		t.Errorf("failed selects changed current to %q", c.Current())
	}
}

func TestDelete(t *testing.T) {
	c := seeded(t, "a_L_r0.bmp", "a_P_r90.bmp", "b_L_r0.bmp", "c_L_r0.bmp")
	if _, err := c.Select("b"); err != nil {
		t.Fatal(err)
	}

	if err := c.Delete("a"); err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"a_L_r0.bmp", "a_P_r90.bmp"} {
		if _, err := os.Stat(c.Store().FilePath(n)); !os.IsNotExist(err) {
			t.Errorf("%s still present", n)
		}
	}
	if c.Current() != "b" {
		t.Errorf("current: got %q", c.Current())
	}

	if err := c.Delete("b"); err != nil {
		t.Fatal(err)
	}
	if c.Current() != "c" {
		t.Errorf("after deleting current: got %q", c.Current())
	}

	if err := c.Delete("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}

	if err := c.Delete("c"); err != nil {
		t.Fatal(err)
	}
	if c.Current() != "" || c.Display().Path != "" {
		t.Errorf("empty library: current %q display %+v", c.Current(), c.Display())
	}
}

func TestReorder(t *testing.T) {
	c := seeded(t, "a_L_r0.bmp", "b_L_r0.bmp", "c_L_r0.bmp", "d_L_r0.bmp")
	if err := c.Reorder([]string{"c", "x", "a", "c", "../etc"}); err != nil {
		t.Fatal(err)
	}
	l, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, p := range l.Photos {
		got = append(got, p.ID)
	}
	if want := []string{"c", "a", "b", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if l.Displaying != "a_L_r0.bmp" {
		t.Errorf("displaying: got %q", l.Displaying)
	}

	// Persisted.
	c2 := New(Options{PhotoDir: c.Store().Dir()}, kvstore.NewMemory())
	if err := c2.Init(); err != nil {
		t.Fatal(err)
	}
	l2, _ := c2.List()
	if l2.Photos[0].ID != "c" {
		t.Errorf("reloaded order starts with %q", l2.Photos[0].ID)
	}
}

func TestSetRotation(t *testing.T) {
	c := seeded(t, "a_L_r0.bmp", "a_P_r90.bmp")

	if err := c.SetRotation(270); err != nil {
		t.Fatal(err)
	}
	d := c.Display()
	if filepath.Base(d.Path) != "a_P_r90.bmp" || d.ImageRotation != 90 || d.FrameRotation != 270 {
		t.Errorf("got %+v", d)
	}
	var ve *ValidationError
	if err := c.SetRotation(45); !errors.As(err, &ve) || ve.Field != "rotation" {
		t.Errorf("bad rotation: got %v", err)
	}
	if c.Rotation() != 270 {
		t.Errorf("rotation: got %d", c.Rotation())
	}
}

func TestFilePath(t *testing.T) {
	c := seeded(t, "a_L_r0.bmp")
	if p, err := c.FilePath("a_L_r0.bmp"); err != nil || p != c.Store().FilePath("a_L_r0.bmp") {
		t.Errorf("got %q %v", p, err)
	}
	if _, err := c.FilePath("b_L_r0.bmp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: got %v", err)
	}
	var ve *ValidationError
	for _, n := range []string{"../a_L_r0.bmp", "library.json", ".hidden.bmp"} {
		if _, err := c.FilePath(n); !errors.As(err, &ve) {
			t.Errorf("%s: got %v", n, err)
		}
	}
}

func TestSlideshowSettings(t *testing.T) {
	kv := kvstore.NewMemory()
	c := New(Options{PhotoDir: t.TempDir()}, kv)
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	if c.Slideshow() != DefaultSlideshow() {
		t.Fatalf("default: got %+v", c.Slideshow())
	}

	on, iv := true, uint32(600)
	s, err := c.UpdateSlideshow(SlideshowPatch{Enabled: &on, IntervalS: &iv})
	if err != nil || s != (Slideshow{Enabled: true, IntervalS: 600}) {
		t.Fatalf("update: %+v %v", s, err)
	}

	bad := uint32(601)
	var ve *ValidationError
	if _, err := c.UpdateSlideshow(SlideshowPatch{IntervalS: &bad}); !errors.As(err, &ve) {
		t.Errorf("bad interval: got %v", err)
	}
	if c.Slideshow().IntervalS != 600 {
		t.Errorf("rejected update applied")
	}

	c2 := New(Options{PhotoDir: c.Store().Dir()}, kv)
	if err := c2.Init(); err != nil {
		t.Fatal(err)
	}
	if c2.Slideshow() != s {
		t.Errorf("reloaded: got %+v", c2.Slideshow())
	}
}

func TestRunSlideshowAdvances(t *testing.T) {
	c := seeded(t, "a_L_r0.bmp", "b_L_r0.bmp")
	c.opts.SlideshowUnit = time.Microsecond
	n := &countNotifier{}
	c.SetNotifier(n)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunSlideshow(ctx)
		close(done)
	}()

	on := true
	if _, err := c.UpdateSlideshow(SlideshowPatch{Enabled: &on}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for n.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if n.n.Load() == 0 {
		t.Error("slideshow never advanced")
	}
}

func TestReadSaved(t *testing.T) {
	kv := kvstore.NewMemory()
	s, err := ReadSaved(kv)
	if err != nil {
		t.Fatal(err)
	}
	if s.Rotation != -1 || s.CurrentID != "" || s.Slideshow != DefaultSlideshow() {
		t.Errorf("empty store: %+v", s)
	}

	dir := t.TempDir()
	writeBMP(t, dir, "a_L_r0.bmp")
	writeBMP(t, dir, "b_L_r0.bmp")
	c := New(Options{PhotoDir: dir}, kv)
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	if err := c.SetRotation(180); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Select("b"); err != nil {
		t.Fatal(err)
	}
	on := true
	if _, err := c.UpdateSlideshow(SlideshowPatch{Enabled: &on}); err != nil {
		t.Fatal(err)
	}

	s, err = ReadSaved(kv)
	if err != nil {
		t.Fatal(err)
	}
	if s.Rotation != 180 || s.CurrentID != "b" || !s.Slideshow.Enabled {
		t.Errorf("saved: %+v", s)
	}
	if filepath.Base(s.CurrentImage) != "b_L_r0.bmp" {
		t.Errorf("current image: %q", s.CurrentImage)
	}
}
