package distribution

import (
	"math"
	"path/filepath"
	"testing"
)

func TestEmpiricalCDF(t *testing.T) {
	d := NewEmpirical([]float64{1, 2, 2, 3, 4})
	tests := []struct {
		x    float64
		want float64
	}{
		{0.5, 0},
		{1, 0.2},
		{2, 0.6},
		{4, 1},
		{10, 1},
	}
	for _, tt := range tests {
		if got := d.CDF(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("CDF(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestApproximatedCDF(t *testing.T) {
	obs := make([]float64, 1000)
	for i := range obs {
		obs[i] = float64(i)
	}
	d := NewApproximated(obs, 100)

	if got := d.CDF(-1); got != 0 {
		t.Errorf("CDF below min = %v, want 0", got)
	}
	if got := d.CDF(2000); got != 1 {
		t.Errorf("CDF above max = %v, want 1", got)
	}
	mid := d.CDF(499)
	if mid < 0.45 || mid > 0.55 {
		t.Errorf("CDF(median) = %v, want about 0.5", mid)
	}
	if p := d.Prob(500); p <= 0 || p > 0.05 {
		t.Errorf("Prob(500) = %v, want small positive", p)
	}
	if u := d.UpperTail(d.Max); u <= 0 {
		t.Errorf("UpperTail(max) = %v, want positive", u)
	}
}

func TestApproximatedConstant(t *testing.T) {
	d := NewApproximated([]float64{3, 3, 3}, 10)
	if got := d.CDF(3); got != 1 {
		t.Errorf("CDF(3) = %v, want 1", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist.gz")

	s := NewStore(4, 0xbeef)
	s.Set(2, NewApproximated([]float64{1, 2, 3}, 8))
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path, 0xbeef)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("store not loaded")
	}
	if loaded.At(2) == nil || loaded.At(1) != nil {
		t.Error("slot contents not preserved")
	}
	if got, want := loaded.At(2).CDF(2), s.At(2).CDF(2); got != want {
		t.Errorf("CDF after round trip = %v, want %v", got, want)
	}
}

func TestStoreFingerprintMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist.gz")
	s := NewStore(1, 1)
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Error("mismatched fingerprint should be ignored")
	}
}

func TestStoreMissingFile(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.gz"), 1)
	if err != nil || loaded != nil {
		t.Errorf("missing file: got (%v, %v), want (nil, nil)", loaded, err)
	}
}
