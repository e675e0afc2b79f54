package cli

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrNotImage = errors.New("not an image file")

// LoadImage reads and decodes path. The returned string is the detected MIME
// type.
func LoadImage(path string) (image.Image, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	mt := mimetype.Detect(b)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, mt.String(), fmt.Errorf("%s: %w (%s)", path, ErrNotImage, mt.String())
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, mt.String(), fmt.Errorf("decode %s: %w", path, err)
	}
	return img, mt.String(), nil
}

// SaveImage encodes img using the format implied by the file extension.
// Unknown extensions are written as PNG.
func SaveImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 92})
	case ".gif":
		err = gif.Encode(f, img, nil)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ImageInfo describes a file on disk.
type ImageInfo struct {
	MIME          string
	Extension     string
	Width, Height int
	BPP           int
	TilesX        int
	TilesY        int
}

func (i ImageInfo) String() string {
	return fmt.Sprintf("Format: %s (%s), Width: %d, Height: %d, BPP: %d, Tiles: %dx%d",
		i.MIME, i.Extension, i.Width, i.Height, i.BPP, i.TilesX, i.TilesY)
}

// mimeExtension returns the usual file extension for a MIME type, or "".
func mimeExtension(mime string) string {
	if mt := mimetype.Lookup(mime); mt != nil {
		return mt.Extension()
	}
	return ""
}
