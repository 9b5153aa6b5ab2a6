package sparse

import (
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	a := []int{1, 3, 4}
	b := []int{1, 3}

	d := Diff(a, b)
	if len(d) != 1 || d[0] != 4 {
		t.Errorf("Diff = %v, want [4]", d)
	}

	if d := Diff(nil, b); len(d) != 0 {
		t.Errorf("Diff(nil, b) = %v, want empty", d)
	}
	if d := Diff(a, nil); !reflect.DeepEqual(d, a) {
		t.Errorf("Diff(a, nil) = %v, want %v", d, a)
	}
}

func TestFromDense(t *testing.T) {
	dense := []bool{false, true, true, false, true}
	got := FromDense(dense)
	want := []int{1, 2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromDense = %v, want %v", got, want)
	}
	if got := FromDense(nil); len(got) != 0 {
		t.Errorf("FromDense(nil) = %v, want empty", got)
	}
}

func TestHamming(t *testing.T) {
	tests := []struct {
		a, b []int
		want int
	}{
		{[]int{0, 1, 2}, []int{0, 1, 2}, 0},
		{[]int{0, 1, 2}, []int{1, 2, 3}, 2},
		{nil, []int{5, 7}, 2},
		{[]int{1}, nil, 1},
		{[]int{1, 4, 9}, []int{2, 4, 8}, 4},
	}
	for _, tt := range tests {
		if got := Hamming(tt.a, tt.b); got != tt.want {
			t.Errorf("Hamming(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	a := []int{1, 3, 7, 12}
	for _, x := range a {
		if !Contains(a, x) {
			t.Errorf("Contains(%v, %d) = false, want true", a, x)
		}
	}
	for _, x := range []int{0, 2, 8, 13} {
		if Contains(a, x) {
			t.Errorf("Contains(%v, %d) = true, want false", a, x)
		}
	}
}
