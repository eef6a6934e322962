package query

import (
	"errors"
	"testing"

	"ram/internal/domain/ram"
)

func TestIsLastPage(t *testing.T) {
	if !IsLastPage(2, 10, 4, 24) {
		t.Fatalf("IsLastPage(2,10,4,24) = false, want true")
	}
	if IsLastPage(2, 10, 4, 25) {
		t.Fatalf("IsLastPage(2,10,4,25) = true, want false")
	}
	if !IsLastPage(0, 10, 0, 0) {
		t.Fatalf("IsLastPage on empty set = false, want true")
	}
}

func TestPageRequestNormalize(t *testing.T) {
	p, err := PageRequest{Number: 1}.Normalize(20, 100)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.Size != 20 || p.Offset() != 20 {
		t.Fatalf("Normalize() = %+v offset=%d", p, p.Offset())
	}

	for _, bad := range []PageRequest{{Number: -1, Size: 5}, {Size: -3}, {Size: 101}} {
		if _, err := bad.Normalize(20, 100); !errors.Is(err, ram.ErrInvalidPage) {
			t.Fatalf("Normalize(%+v) error = %v, want ErrInvalidPage", bad, err)
		}
	}
}

func TestMapPage(t *testing.T) {
	in := Page[int]{Items: []int{1, 2}, TotalCount: 12, Number: 1, Size: 2}
	out := MapPage(in, func(v int) string { return string(rune('a' + v)) })
	if len(out.Items) != 2 || out.Items[1] != "c" || out.TotalCount != 12 || out.Number != 1 {
		t.Fatalf("MapPage() = %+v", out)
	}
	if out.IsLastPage() {
		t.Fatalf("IsLastPage() = true, want false")
	}
}
