package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"text/tabwriter"

	xdraw "golang.org/x/image/draw"

	"github.com/Fepozopo/timpcore/pkg/convolve"
	"github.com/Fepozopo/timpcore/pkg/resample"
	"github.com/Fepozopo/timpcore/pkg/tile"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0"

// Env is bound into every command's Run method.
type Env struct {
	Config Config
	Stdout io.Writer
	Stderr io.Writer
}

// surfaceOptions builds tile options from the cache size and optional swap
// directory. The returned closer releases the swap store.
func surfaceOptions(cache int, swapDir string) ([]tile.Option, func() error, error) {
	opts := []tile.Option{tile.WithCacheTiles(cache)}
	if swapDir == "" {
		return opts, func() error { return nil }, nil
	}
	store, err := tile.OpenLevelStore(swapDir)
	if err != nil {
		return nil, nil, err
	}
	return append(opts, tile.WithStore(store)), store.Close, nil
}

// ScaleCmd resamples an image to a new size.
type ScaleCmd struct {
	In        string `arg:"" help:"Input image." type:"existingfile"`
	Out       string `arg:"" help:"Output image; format follows the extension."`
	Width     int    `help:"Target width. 0 keeps the aspect ratio."`
	Height    int    `help:"Target height. 0 keeps the aspect ratio."`
	Kind      string `help:"Interpolation kind (nearest, linear, cubic, lanczos)." default:"${kind}"`
	Edge      string `help:"Edge policy (clip, background)." default:"clip"`
	TileCache int    `name:"tile-cache" help:"Resident tiles per surface before swapping." default:"${tile_cache}"`
	SwapDir   string `name:"swap-dir" help:"LevelDB directory for swapped tiles." default:"${swap_dir}"`
	Workers   int    `help:"Row bands processed concurrently." default:"1"`
	Reference bool   `help:"Also scale with x/image/draw and report the mean difference."`
}

func (c *ScaleCmd) Run(env *Env) error {
	kind, err := resample.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	edge, err := resample.ParseEdge(c.Edge)
	if err != nil {
		return err
	}
	img, _, err := LoadImage(c.In)
	if err != nil {
		return err
	}
	w, h := resample.FitSize(img.Bounds().Dx(), img.Bounds().Dy(), c.Width, c.Height)

	opts, closeStore, err := surfaceOptions(c.TileCache, c.SwapDir)
	if err != nil {
		return err
	}
	defer closeStore()

	bpp := tile.BPPForImage(img)
	src, err := tile.NewFromImage(img, bpp, opts...)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := tile.New(w, h, bpp, opts...)
	if err != nil {
		return err
	}
	defer dst.Close()

	st, err := resample.Resample(src, src.Bounds(), dst, dst.Bounds(), kind,
		resample.WithEdge(edge),
		resample.WithWorkers(c.Workers),
		resample.WithProgress(progressLine(env.Stderr, "scale")),
	)
	if err != nil {
		return err
	}
	out, err := dst.ToNRGBA()
	if err != nil {
		return err
	}
	if err := SaveImage(c.Out, out); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "%s: %dx%d -> %dx%d (%s, %d rows in %s)\n",
		c.Out, img.Bounds().Dx(), img.Bounds().Dy(), w, h, kind, st.Rows, st.Elapsed)

	if c.Reference {
		ref := image.NewNRGBA(out.Bounds())
		referenceInterpolator(kind).Scale(ref, ref.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		fmt.Fprintf(env.Stdout, "reference mean abs diff: %.3f\n", meanAbsDiff(out, ref))
	}
	return nil
}

// referenceInterpolator maps a kind to the closest x/image/draw scaler.
func referenceInterpolator(k resample.Kind) xdraw.Interpolator {
	switch k {
	case resample.Nearest:
		return xdraw.NearestNeighbor
	case resample.Linear:
		return xdraw.BiLinear
	default:
		return xdraw.CatmullRom
	}
}

func meanAbsDiff(a, b *image.NRGBA) float64 {
	if len(a.Pix) == 0 || len(a.Pix) != len(b.Pix) {
		return 0
	}
	sum := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return float64(sum) / float64(len(a.Pix))
}

// BlurCmd applies a Gaussian blur.
type BlurCmd struct {
	In        string  `arg:"" help:"Input image." type:"existingfile"`
	Out       string  `arg:"" help:"Output image."`
	Sigma     float64 `help:"Gaussian standard deviation in pixels." default:"1.5"`
	TileCache int     `name:"tile-cache" help:"Resident tiles per surface before swapping." default:"${tile_cache}"`
	SwapDir   string  `name:"swap-dir" help:"LevelDB directory for swapped tiles." default:"${swap_dir}"`
}

func (c *BlurCmd) Run(env *Env) error {
	if c.Sigma < 0 {
		return fmt.Errorf("sigma must be >= 0, got %v", c.Sigma)
	}
	img, _, err := LoadImage(c.In)
	if err != nil {
		return err
	}
	opts, closeStore, err := surfaceOptions(c.TileCache, c.SwapDir)
	if err != nil {
		return err
	}
	defer closeStore()

	bpp := tile.BPPForImage(img)
	src, err := tile.NewFromImage(img, bpp, opts...)
	if err != nil {
		return err
	}
	defer src.Close()
	b := src.Bounds()
	dst, err := tile.New(b.Dx(), b.Dy(), bpp, opts...)
	if err != nil {
		return err
	}
	defer dst.Close()

	k := convolve.Gaussian(c.Sigma)
	if _, err := convolve.Convolve(src, dst, b, k, convolve.WithProgress(progressLine(env.Stderr, "blur"))); err != nil {
		return err
	}
	out, err := dst.ToNRGBA()
	if err != nil {
		return err
	}
	if err := SaveImage(c.Out, out); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "%s: blurred with sigma %g (%dx%d kernel)\n", c.Out, c.Sigma, k.Width, k.Height)
	return nil
}

// IdentifyCmd prints format, size and tile layout.
type IdentifyCmd struct {
	In string `arg:"" help:"Input image." type:"existingfile"`
}

func (c *IdentifyCmd) Run(env *Env) error {
	info, err := Identify(c.In)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, info)
	return nil
}

// Identify describes the image at path.
func Identify(path string) (ImageInfo, error) {
	img, mime, err := LoadImage(path)
	if err != nil {
		return ImageInfo{}, err
	}
	b := img.Bounds()
	info := ImageInfo{
		MIME:   mime,
		Width:  b.Dx(),
		Height: b.Dy(),
		BPP:    tile.BPPForImage(img),
		TilesX: (b.Dx() + tile.TileWidth - 1) / tile.TileWidth,
		TilesY: (b.Dy() + tile.TileHeight - 1) / tile.TileHeight,
	}
	if ext := mimeExtension(mime); ext != "" {
		info.Extension = ext
	}
	return info, nil
}

// KindsCmd lists interpolation kinds.
type KindsCmd struct{}

func (c *KindsCmd) Run(env *Env) error {
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTAPS\tDESCRIPTION")
	for _, k := range resample.Kinds {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", k.Name, k.Taps, k.Description)
	}
	return tw.Flush()
}

// UpdateCmd checks for a newer release.
type UpdateCmd struct {
	Apply bool `help:"Download and install the newer release."`
}

func (c *UpdateCmd) Run(env *Env) error {
	u := &Updater{Repo: Repo, Current: Version, Out: env.Stdout}
	return u.Check(context.Background(), c.Apply)
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	_, err := fmt.Fprintf(env.Stdout, "timpcore %s\n", Version)
	return err
}
