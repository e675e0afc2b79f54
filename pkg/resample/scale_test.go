package resample

import (
	"errors"
	"image"
	"testing"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		name         string
		sw, sh, w, h int
		wantW, wantH int
	}{
		{"both given", 8, 4, 4, 2, 4, 2},
		{"height only", 8, 4, 0, 200, 400, 200},
		{"width only", 8, 4, 3, 0, 3, 2},
		{"neither", 8, 4, 0, 0, 8, 4},
		{"tiny result", 1000, 10, 10, 0, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitSize(tt.sw, tt.sh, tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("FitSize = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestScaleImage(t *testing.T) {
	src := noiseNRGBA(8, 4, 11)
	for _, kind := range allKinds {
		out, st, err := ScaleImage(src, 16, 8, kind)
		if err != nil {
			t.Fatalf("%v: %v", kind, err)
		}
		if out.Bounds() != image.Rect(0, 0, 16, 8) {
			t.Errorf("%v: bounds = %v", kind, out.Bounds())
		}
		if st.Rows != 8 {
			t.Errorf("%v: rows = %d, want 8", kind, st.Rows)
		}
	}
	if _, _, err := ScaleImage(src, 0, 8, Linear); err == nil {
		t.Errorf("expected error for zero width")
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"nearest":  Nearest,
		"LINEAR":   Linear,
		"bicubic":  Cubic,
		" lanczos": Lanczos,
		"lanczos3": Lanczos,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("sharp"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(sharp) err = %v, want ErrUnknownKind", err)
	}
	for _, s := range Kinds {
		if s.Kind.Taps() != s.Taps || s.Kind.String() != s.Name {
			t.Errorf("registry entry %q out of sync", s.Name)
		}
	}
	if Lanczos.Taps() != LanczosWidth2 {
		t.Errorf("Lanczos taps = %d, want %d", Lanczos.Taps(), LanczosWidth2)
	}
}

func TestParseEdge(t *testing.T) {
	if e, err := ParseEdge("background"); err != nil || e != EdgeBackground {
		t.Errorf("ParseEdge(background) = %v, %v", e, err)
	}
	if e, err := ParseEdge(""); err != nil || e != EdgeClip {
		t.Errorf("ParseEdge(\"\") = %v, %v", e, err)
	}
	if _, err := ParseEdge("wrap"); err == nil {
		t.Errorf("ParseEdge(wrap) should fail")
	}
}
