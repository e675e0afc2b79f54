package tile

// WriteRow copies pix into the row starting at (x, y). pix holds whole
// pixels and must fit inside the surface.
func (m *Manager) WriteRow(x, y int, pix []byte) error {
	if len(pix)%m.bpp != 0 {
		return ErrRowLength
	}
	n := len(pix) / m.bpp
	if y < 0 || y >= m.height || x < 0 || x+n > m.width {
		return ErrOutOfBounds
	}
	for n > 0 {
		t, _ := m.LookupTile(x, y)
		if err := m.Lock(t); err != nil {
			return err
		}
		run := min(n, t.rect.Max.X-x)
		buf, _ := m.TileBuffer(t)
		off := t.PixelOffset(x, y, m.bpp)
		copy(buf[off:off+run*m.bpp], pix[:run*m.bpp])
		m.MarkDirty(t)
		m.Unlock(t)

		pix = pix[run*m.bpp:]
		x += run
		n -= run
	}
	return nil
}

// ReadRow copies len(dst)/bpp pixels of row y starting at x into dst.
func (m *Manager) ReadRow(x, y int, dst []byte) error {
	if len(dst)%m.bpp != 0 {
		return ErrRowLength
	}
	n := len(dst) / m.bpp
	if y < 0 || y >= m.height || x < 0 || x+n > m.width {
		return ErrOutOfBounds
	}
	for n > 0 {
		t, _ := m.LookupTile(x, y)
		if err := m.Lock(t); err != nil {
			return err
		}
		run := min(n, t.rect.Max.X-x)
		buf, _ := m.TileBuffer(t)
		off := t.PixelOffset(x, y, m.bpp)
		copy(dst[:run*m.bpp], buf[off:off+run*m.bpp])
		m.Unlock(t)

		dst = dst[run*m.bpp:]
		x += run
		n -= run
	}
	return nil
}

// Fill sets every pixel of the surface to c, which must hold BPP bytes.
func (m *Manager) Fill(c []byte) error {
	if len(c) != m.bpp {
		return ErrRowLength
	}
	for _, t := range m.tiles {
		if err := m.Lock(t); err != nil {
			return err
		}
		buf, _ := m.TileBuffer(t)
		for i := 0; i < len(buf); i += m.bpp {
			copy(buf[i:i+m.bpp], c)
		}
		m.MarkDirty(t)
		m.Unlock(t)
	}
	return nil
}
