package render

import (
	"math"
	"testing"
)

func TestParseSurface(t *testing.T) {
	tests := []struct {
		in      string
		want    Surface
		wantErr bool
	}{
		{"400x300", Surface{Width: 400, Height: 300}, false},
		{"1200X686@2", Surface{Width: 1200, Height: 686, PixelRatio: 2}, false},
		{"thumbnail", Surface{Width: 84, Height: 48, PixelRatio: 2}, false},
		{" Builder ", Surface{Width: 700, Height: 400, PixelRatio: 1}, false},
		{"400", Surface{}, true},
		{"0x300", Surface{}, true},
		{"400x-1", Surface{}, true},
		{"axb", Surface{}, true},
		{"400x300@x", Surface{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSurface(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSurface(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseSurface(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSurfaceValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Surface
		ok   bool
	}{
		{"plain", Surface{Width: 1, Height: 1}, true},
		{"retina", Surface{Width: 1, Height: 1, PixelRatio: 3}, true},
		{"nan width", Surface{Width: math.NaN(), Height: 1}, false},
		{"inf height", Surface{Width: 1, Height: math.Inf(1)}, false},
		{"nan ratio", Surface{Width: 1, Height: 1, PixelRatio: math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestSurfaceRatioAndString(t *testing.T) {
	if r := (Surface{Width: 1, Height: 1}).Ratio(); r != 1 {
		t.Errorf("Ratio() = %v, want 1", r)
	}
	if s := (Surface{Width: 1200, Height: 686, PixelRatio: 2}).String(); s != "1200x686@2" {
		t.Errorf("String() = %q", s)
	}
	if s := (Surface{Width: 84.5, Height: 48}).String(); s != "84.5x48" {
		t.Errorf("String() = %q", s)
	}
}

func TestPresetUnknown(t *testing.T) {
	if _, err := Preset("poster"); err == nil {
		t.Error("Preset(poster) should fail")
	}
	if got := PresetNames(); len(got) != 3 || got[0] != PresetBuilder {
		t.Errorf("PresetNames() = %v", got)
	}
}
