package textutil

import (
	"reflect"
	"testing"
)

func TestTitleFromStem(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sunset-over-bay", "Sunset Over Bay"},
		{"IMG_0042", "Img 0042"},
		{"  ", "Untitled"},
		{"one.two_three", "One Two Three"},
	}
	for _, tc := range cases {
		if got := TitleFromStem(tc.in); got != tc.want {
			t.Errorf("TitleFromStem(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Sunset ", "beach", "SUNSET", "", "sea"})
	want := []string{"sunset", "beach", "sea"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeTags = %v, want %v", got, want)
	}
}
