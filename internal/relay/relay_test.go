package relay

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so rate limiting is deterministic.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// recordSink keeps a copy of every frame it receives.
type recordSink struct {
	frames [][]byte
	width  int
	height int
}

func (s *recordSink) WriteFrame(pix []byte, width, height int) {
	s.frames = append(s.frames, bytes.Clone(pix))
	s.width, s.height = width, height
}

func (s *recordSink) last() []byte {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func solid(width, height int, px [4]byte) []byte {
	b := make([]byte, width*height*4)
	for i := 0; i < len(b); i += 4 {
		copy(b[i:i+4], px[:])
	}
	return b
}

func TestSubmitThenConsume(t *testing.T) {
	clk := newFakeClock()
	r := New(4, 2, WithClock(clk.Now))
	assert.False(t, r.IsReady())

	src := make([]byte, 4*2*4)
	for i := range src {
		src[i] = byte(i)
	}
	r.SubmitFrame(src, 4, 2)
	assert.True(t, r.Dirty())

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Equal(t, src, sink.last())
	assert.Equal(t, 4, sink.width)
	assert.Equal(t, 2, sink.height)
	assert.False(t, r.Dirty())
	assert.True(t, r.IsReady())
}

func TestConsumeTwiceCopiesOnce(t *testing.T) {
	r := New(2, 2)
	r.SubmitFrame(solid(2, 2, [4]byte{1, 2, 3, 4}), 2, 2)

	sink := &recordSink{}
	assert.True(t, r.ConsumeInto(sink))
	assert.False(t, r.ConsumeInto(sink))
	assert.Len(t, sink.frames, 1)
	assert.Equal(t, uint64(1), r.Stats().Consumed)
}

func TestConsumeBeforeSubmitIsNoop(t *testing.T) {
	r := New(2, 2)
	sink := &recordSink{}
	assert.False(t, r.ConsumeInto(sink))
	assert.Empty(t, sink.frames)
	assert.False(t, r.IsReady())
}

func TestRateLimitKeepsFirstFrame(t *testing.T) {
	clk := newFakeClock()
	r := New(2, 2, WithClock(clk.Now), WithMinInterval(32*time.Millisecond))

	a := solid(2, 2, [4]byte{0xAA, 0xAA, 0xAA, 0xAA})
	b := solid(2, 2, [4]byte{0xBB, 0xBB, 0xBB, 0xBB})

	r.SubmitFrame(a, 2, 2)
	clk.Advance(10 * time.Millisecond)
	r.SubmitFrame(b, 2, 2)

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Equal(t, a, sink.last())

	st := r.Stats()
	assert.Equal(t, uint64(1), st.Accepted)
	assert.Equal(t, uint64(1), st.DroppedRate)
}

func TestRateLimitBurst(t *testing.T) {
	clk := newFakeClock()
	r := New(1, 1, WithClock(clk.Now))

	for i := 0; i < 10; i++ {
		r.SubmitFrame([]byte{byte(i), 0, 0, 0}, 1, 1)
		clk.Advance(3 * time.Millisecond)
	}

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Equal(t, []byte{0, 0, 0, 0}, sink.last())
	assert.Equal(t, uint64(9), r.Stats().DroppedRate)
}

func TestRateLimitReopensAfterInterval(t *testing.T) {
	clk := newFakeClock()
	r := New(1, 1, WithClock(clk.Now))

	r.SubmitFrame([]byte{1, 1, 1, 1}, 1, 1)
	clk.Advance(DefaultMinInterval)
	r.SubmitFrame([]byte{2, 2, 2, 2}, 1, 1)

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Equal(t, []byte{2, 2, 2, 2}, sink.last())
	assert.Equal(t, uint64(2), r.Stats().Accepted)
}

func TestZeroIntervalDisablesRateLimit(t *testing.T) {
	clk := newFakeClock()
	r := New(1, 1, WithClock(clk.Now), WithMinInterval(0))

	r.SubmitFrame([]byte{1, 1, 1, 1}, 1, 1)
	r.SubmitFrame([]byte{2, 2, 2, 2}, 1, 1)

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Equal(t, []byte{2, 2, 2, 2}, sink.last(), "last write wins")
	assert.Zero(t, r.Stats().DroppedRate)
}

func TestSwapRedBlue(t *testing.T) {
	r := New(2, 1, WithSwapRedBlue(true))
	r.SubmitFrame([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 2, 1)

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Equal(t, []byte{3, 2, 1, 4, 7, 6, 5, 8}, sink.last())
}

func TestSwapRedBlueThreeComponents(t *testing.T) {
	r := New(2, 1, WithComponents(3), WithSwapRedBlue(true))
	r.SubmitFrame([]byte{1, 2, 3, 4, 5, 6}, 2, 1)

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Equal(t, []byte{3, 2, 1, 6, 5, 4}, sink.last())
}

func TestSolidRedScenario(t *testing.T) {
	const w, h = 640, 480
	r := New(w, h, WithComponents(4), WithSwapRedBlue(true))

	// The producer paints BGRA, so red arrives as B=0 G=0 R=255.
	r.SubmitFrame(solid(w, h, [4]byte{0, 0, 255, 255}), w, h)
	assert.True(t, r.IsReady())

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.True(t, r.IsReady())
	assert.Equal(t, solid(w, h, [4]byte{255, 0, 0, 255}), sink.last())
	assert.Len(t, sink.last(), w*h*4)
}

func TestSubmitWithNewSizeReallocates(t *testing.T) {
	r := New(2, 2)
	r.SubmitFrame(solid(3, 5, [4]byte{9, 9, 9, 9}), 3, 5)

	w, h := r.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 5, h)

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Len(t, sink.last(), 3*5*4)
	assert.Equal(t, uint64(1), r.Stats().Reallocations)
}

func TestResize(t *testing.T) {
	clk := newFakeClock()
	r := New(2, 2, WithClock(clk.Now))

	r.Resize(2, 2)
	assert.Zero(t, r.Stats().Reallocations, "same size must not reallocate")

	r.Resize(8, 6)
	assert.Equal(t, uint64(1), r.Stats().Reallocations)

	r.SubmitFrame(solid(8, 6, [4]byte{1, 2, 3, 4}), 8, 6)
	assert.Equal(t, uint64(1), r.Stats().Reallocations, "matching submit must not reallocate")

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Len(t, sink.last(), 8*6*4)
}

func TestResizeDiscardsPendingFrame(t *testing.T) {
	r := New(2, 2)
	r.SubmitFrame(solid(2, 2, [4]byte{1, 1, 1, 1}), 2, 2)
	r.Resize(4, 4)

	assert.False(t, r.Dirty())
	assert.False(t, r.ConsumeInto(&recordSink{}))
	assert.True(t, r.IsReady())
}

func TestShutdownIgnoresSubmissions(t *testing.T) {
	clk := newFakeClock()
	r := New(1, 1, WithClock(clk.Now))
	r.SubmitFrame([]byte{1, 1, 1, 1}, 1, 1)

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))

	r.Shutdown()
	r.Shutdown()
	assert.True(t, r.IsShuttingDown())

	clk.Advance(time.Second)
	r.SubmitFrame([]byte{2, 2, 2, 2, 2, 2, 2, 2}, 2, 1)

	assert.False(t, r.Dirty())
	w, h := r.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.False(t, r.ConsumeInto(sink))
	assert.Equal(t, uint64(1), r.Stats().DroppedShutdown)
	assert.Equal(t, uint64(1), r.Stats().Dropped())
}

func TestShutdownStillDrainsPendingFrame(t *testing.T) {
	r := New(1, 1)
	r.SubmitFrame([]byte{7, 7, 7, 7}, 1, 1)
	r.Shutdown()

	sink := &recordSink{}
	require.True(t, r.ConsumeInto(sink))
	assert.Equal(t, []byte{7, 7, 7, 7}, sink.last())
}

func TestShortSourceIsBounded(t *testing.T) {
	r := New(2, 1)
	assert.NotPanics(t, func() { r.SubmitFrame([]byte{1, 2, 3}, 2, 1) })
	assert.NotPanics(t, func() {
		New(2, 1, WithSwapRedBlue(true)).SubmitFrame([]byte{1, 2, 3, 4, 5}, 2, 1)
	})
}

// uniformSink fails the test if a frame is not a single repeated byte, which
// is what a torn copy would look like.
type uniformSink struct {
	t    *testing.T
	seen int
}

func (s *uniformSink) WriteFrame(pix []byte, width, height int) {
	if len(pix) != width*height*4 {
		s.t.Errorf("frame length %d does not match %dx%d", len(pix), width, height)
		return
	}
	first := pix[0]
	for i, b := range pix {
		if b != first {
			s.t.Errorf("torn frame: byte %d is %d, want %d", i, b, first)
			return
		}
	}
	s.seen++
}

func TestConcurrentProducerConsumerNoTearing(t *testing.T) {
	r := New(64, 64, WithMinInterval(0))

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 500; i++ {
			size := 64
			if i%50 == 0 {
				size = 32
			}
			r.SubmitFrame(bytes.Repeat([]byte{byte(i)}, size*size*4), size, size)
		}
	}()

	sink := &uniformSink{t: t}
	for {
		select {
		case <-done:
			wg.Wait()
			r.ConsumeInto(sink)
			assert.Positive(t, sink.seen)
			return
		default:
			r.ConsumeInto(sink)
			if r.IsReady() && sink.seen%7 == 0 {
				r.Resize(64, 64)
			}
		}
	}
}

func TestImageSink(t *testing.T) {
	r := New(2, 1)
	r.SubmitFrame([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 2, 1)

	var sink ImageSink
	assert.Nil(t, sink.Image())
	require.True(t, r.ConsumeInto(&sink))

	img := sink.Image()
	require.NotNil(t, img)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, img.Pix)
	assert.Equal(t, uint64(1), sink.Frames())

	r.SubmitFrame(solid(3, 3, [4]byte{1, 1, 1, 1}), 3, 3)
	require.True(t, r.ConsumeInto(&sink))
	assert.Equal(t, 3, sink.Image().Bounds().Dy())
}
