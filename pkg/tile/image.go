package tile

import (
	"image"
	"image/color"
)

// NewFromImage builds a surface holding img. bpp selects the pixel layout:
// 1 gray, 2 gray+alpha, 3 RGB (alpha dropped), 4 non-premultiplied RGBA.
func NewFromImage(img image.Image, bpp int, opts ...Option) (*Manager, error) {
	b := img.Bounds()
	m, err := New(b.Dx(), b.Dy(), bpp, opts...)
	if err != nil {
		return nil, err
	}
	row := make([]byte, b.Dx()*bpp)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := 0
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			packPixel(row[i:i+bpp], c)
			i += bpp
		}
		if err := m.WriteRow(0, y-b.Min.Y, row); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ToNRGBA expands the surface into a new image anchored at (0,0).
func (m *Manager) ToNRGBA() (*image.NRGBA, error) {
	out := image.NewNRGBA(m.Bounds())
	row := make([]byte, m.width*m.bpp)
	for y := 0; y < m.height; y++ {
		if err := m.ReadRow(0, y, row); err != nil {
			return nil, err
		}
		o := out.PixOffset(0, y)
		for x := 0; x < m.width; x++ {
			c := unpackPixel(row[x*m.bpp : (x+1)*m.bpp])
			out.Pix[o+0] = c.R
			out.Pix[o+1] = c.G
			out.Pix[o+2] = c.B
			out.Pix[o+3] = c.A
			o += 4
		}
	}
	return out, nil
}

// BPPForImage picks the narrowest layout that keeps img's information.
func BPPForImage(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.YCbCr:
		return 3
	}
	return 4
}

func luma(c color.NRGBA) uint8 {
	return uint8((19595*uint32(c.R) + 38470*uint32(c.G) + 7471*uint32(c.B) + 1<<15) >> 16)
}

func packPixel(dst []byte, c color.NRGBA) {
	switch len(dst) {
	case 1:
		dst[0] = luma(c)
	case 2:
		dst[0] = luma(c)
		dst[1] = c.A
	case 3:
		dst[0], dst[1], dst[2] = c.R, c.G, c.B
	case 4:
		dst[0], dst[1], dst[2], dst[3] = c.R, c.G, c.B, c.A
	}
}

func unpackPixel(src []byte) color.NRGBA {
	switch len(src) {
	case 1:
		return color.NRGBA{src[0], src[0], src[0], 255}
	case 2:
		return color.NRGBA{src[0], src[0], src[0], src[1]}
	case 3:
		return color.NRGBA{src[0], src[1], src[2], 255}
	default:
		return color.NRGBA{src[0], src[1], src[2], src[3]}
	}
}
