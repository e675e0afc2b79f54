// Package resample scales a rectangular region of one tiled surface into a
// rectangular region of another with a selectable interpolation kernel.
//
// Every source neighborhood is read through a surround.Surround, so tile
// boundaries and surface edges never need special handling here. Weighted
// sums are accumulated in float64 and rounded once, at the channel write.
package resample

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fepozopo/timpcore/pkg/logging"
	"github.com/Fepozopo/timpcore/pkg/mathx"
	"github.com/Fepozopo/timpcore/pkg/surround"
	"github.com/Fepozopo/timpcore/pkg/tile"
)

var (
	ErrEmptyRegion  = errors.New("resample: source and destination regions must be non-empty")
	ErrRegionBounds = errors.New("resample: region lies outside its surface")
	ErrBPPMismatch  = errors.New("resample: source and destination bytes per pixel differ")
	ErrBackground   = errors.New("resample: background must hold one pixel of the source")
	ErrUnknownKind  = errors.New("resample: unknown interpolation kind")
)

// Destination receives resampled rows. *tile.Manager implements it.
type Destination interface {
	Bounds() image.Rectangle
	BPP() int
	WriteRow(x, y int, pix []byte) error
}

// ProgressFunc is called with the number of finished destination rows.
// Returning false stops the resample after the current row.
type ProgressFunc func(done, total int) bool

// Stats summarizes a finished (or canceled) resample.
type Stats struct {
	Rows     int
	Pixels   int
	Canceled bool
	Elapsed  time.Duration
}

type config struct {
	edge         Edge
	background   []byte
	progress     ProgressFunc
	every        int
	table        *LanczosTable
	workers      int
	scratchLimit int
}

// Option configures Resample.
type Option func(*config)

// WithEdge selects the edge policy. The default is EdgeClip.
func WithEdge(e Edge) Option {
	return func(c *config) { c.edge = e }
}

// WithBackground sets the pixel read for taps outside the source surface.
// It must hold exactly BPP bytes. The default is all zeros.
func WithBackground(bg []byte) Option {
	return func(c *config) { c.background = bg }
}

// WithProgress installs a progress callback.
func WithProgress(f ProgressFunc) Option {
	return func(c *config) { c.progress = f }
}

// WithProgressEvery reports progress every n rows instead of every row.
func WithProgressEvery(n int) Option {
	return func(c *config) { c.every = n }
}

// WithLanczosTable supplies the Lanczos table instead of the shared default.
func WithLanczosTable(t *LanczosTable) Option {
	return func(c *config) { c.table = t }
}

// WithWorkers splits the destination rows into n bands processed
// concurrently, each with its own surround. Output is identical to the
// single-worker run; the order of progress calls is not.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithScratchLimit caps each surround's scratch buffer, in bytes.
func WithScratchLimit(n int) Option {
	return func(c *config) { c.scratchLimit = n }
}

// Resample fills dstRect of dst from srcRect of src using kind.
//
// Cancellation through the progress callback is not an error: Stats.Canceled
// is set and rows already written stay written. Errors from the surface or
// destination abort the resample the same way.
func Resample(src tile.Surface, srcRect image.Rectangle, dst Destination, dstRect image.Rectangle, kind Kind, opts ...Option) (Stats, error) {
	cfg := config{every: 1, workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := kind.spec(); !ok {
		return Stats{}, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	if srcRect.Empty() || dstRect.Empty() {
		return Stats{}, ErrEmptyRegion
	}
	if !srcRect.In(src.Bounds()) {
		return Stats{}, fmt.Errorf("%w: source %v not in %v", ErrRegionBounds, srcRect, src.Bounds())
	}
	if !dstRect.In(dst.Bounds()) {
		return Stats{}, fmt.Errorf("%w: destination %v not in %v", ErrRegionBounds, dstRect, dst.Bounds())
	}
	bpp := src.BPP()
	if dst.BPP() != bpp {
		return Stats{}, ErrBPPMismatch
	}
	if cfg.background == nil {
		cfg.background = make([]byte, bpp)
	}
	if len(cfg.background) != bpp {
		return Stats{}, ErrBackground
	}
	if kind == Lanczos && cfg.table == nil {
		cfg.table = DefaultLanczosTable()
	}
	cfg.every = max(cfg.every, 1)
	cfg.workers = mathx.Clamp(cfg.workers, 1, dstRect.Dy())

	log := logging.Logger()
	log.Debug("resample start", "kind", kind, "src", srcRect, "dst", dstRect, "edge", cfg.edge, "workers", cfg.workers)
	start := time.Now()

	r := &resampler{
		src:   src,
		dst:   dst,
		kind:  kind,
		bpp:   bpp,
		cfg:   &cfg,
		dst0:  dstRect.Min,
		total: dstRect.Dy(),
		xTaps: axisTaps(kind, dstRect.Min.X, dstRect.Dx(), srcRect.Min.X, srcRect.Dx(), cfg.edge, cfg.table),
		yTaps: axisTaps(kind, dstRect.Min.Y, dstRect.Dy(), srcRect.Min.Y, srcRect.Dy(), cfg.edge, cfg.table),
	}
	err := r.run()

	st := Stats{
		Rows:     int(r.done.Load()),
		Pixels:   int(r.done.Load()) * dstRect.Dx(),
		Canceled: r.canceled.Load(),
		Elapsed:  time.Since(start),
	}
	log.Debug("resample done", "kind", kind, "rows", st.Rows, "canceled", st.Canceled, "elapsed", st.Elapsed, "err", err)
	return st, err
}

type resampler struct {
	src   tile.Surface
	dst   Destination
	kind  Kind
	bpp   int
	cfg   *config
	dst0  image.Point
	total int
	xTaps []axisTap
	yTaps []axisTap

	done     atomic.Int64
	canceled atomic.Bool
	stop     atomic.Bool

	progressMu sync.Mutex
}

// run splits the rows into contiguous bands, one per worker.
func (r *resampler) run() error {
	workers := r.cfg.workers
	if workers == 1 {
		return r.band(0, r.total)
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	per := (r.total + workers - 1) / workers
	for lo := 0; lo < r.total; lo += per {
		hi := min(lo+per, r.total)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			if err := r.band(lo, hi); err != nil {
				errOnce.Do(func() { firstErr = err })
				r.stop.Store(true)
			}
		}(lo, hi)
	}
	wg.Wait()
	return firstErr
}

// band resamples destination rows [lo, hi), relative to the region origin.
func (r *resampler) band(lo, hi int) error {
	taps := r.kind.Taps()
	sr := surround.New(r.src, taps, taps, r.cfg.background, surround.WithScratchLimit(r.cfg.scratchLimit))
	defer sr.Clear()

	row := make([]byte, len(r.xTaps)*r.bpp)
	acc := make([]float64, r.bpp)
	for j := lo; j < hi; j++ {
		if r.stop.Load() {
			return nil
		}
		yt := r.yTaps[j]
		for i, xt := range r.xTaps {
			buf, stride, err := sr.Lock(xt.origin, yt.origin)
			if err != nil {
				return fmt.Errorf("resample row %d: %w", r.dst0.Y+j, err)
			}
			px := row[i*r.bpp : (i+1)*r.bpp]
			if r.kind == Nearest {
				copy(px, buf[:r.bpp])
			} else {
				r.blend(px, acc, buf, stride, xt.weights, yt.weights)
			}
			sr.Release()
		}
		if err := r.dst.WriteRow(r.dst0.X, r.dst0.Y+j, row); err != nil {
			return fmt.Errorf("resample write row %d: %w", r.dst0.Y+j, err)
		}
		if !r.report() {
			return nil
		}
	}
	return nil
}

// blend applies the separable weights to one neighborhood. Every channel
// uses the same weights.
func (r *resampler) blend(px []byte, acc []float64, buf []byte, stride int, wx, wy []float64) {
	clear(acc)
	for ty, yw := range wy {
		if yw == 0 {
			continue
		}
		line := buf[ty*stride:]
		for tx, xw := range wx {
			w := xw * yw
			if w == 0 {
				continue
			}
			p := line[tx*r.bpp : (tx+1)*r.bpp]
			for c, v := range p {
				acc[c] += w * float64(v)
			}
		}
	}
	for c, v := range acc {
		px[c] = mathx.RoundToUint8(v)
	}
}

// report counts a finished row and calls the progress callback at the
// configured granularity. It returns false once the callback cancels.
func (r *resampler) report() bool {
	done := int(r.done.Add(1))
	if r.cfg.progress == nil {
		return !r.stop.Load()
	}
	if done%r.cfg.every != 0 && done != r.total {
		return !r.stop.Load()
	}
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	if r.stop.Load() {
		return false
	}
	if !r.cfg.progress(done, r.total) {
		r.canceled.Store(true)
		r.stop.Store(true)
		return false
	}
	return true
}
