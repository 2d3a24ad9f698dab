package window

import (
	"errors"
	"slices"
	"testing"
)

func TestValidWindowsFullLength(t *testing.T) {
	for _, hop := range []int{1, 2, 5, 100} {
		for _, focus := range []int{NoFocus, 0, 4, 7} {
			got, err := ValidWindows(8, focus, 8, hop)
			if err != nil {
				t.Fatalf("hop=%d focus=%d: %v", hop, focus, err)
			}
			want := []Window{{0, 8}}
			if !slices.Equal(got, want) {
				t.Fatalf("hop=%d focus=%d: got %v, want %v", hop, focus, got, want)
			}
		}
	}
}

func TestValidWindowsEvenlySpaced(t *testing.T) {
	tests := []struct {
		name                 string
		snippet, length, hop int
		want                 []Window
	}{
		{"exact tiling", 9, 3, 3, []Window{{0, 3}, {3, 6}, {6, 9}}},
		{"uncovered remainder", 10, 3, 3, []Window{{0, 3}, {3, 6}, {6, 9}}},
		{"overlapping", 5, 3, 1, []Window{{0, 3}, {1, 4}, {2, 5}}},
		{"hop larger than window", 10, 2, 5, []Window{{0, 2}, {5, 7}}},
		{"single fit", 4, 3, 2, []Window{{0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidWindows(tt.snippet, NoFocus, tt.length, tt.hop)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidWindowsFocused(t *testing.T) {
	tests := []struct {
		name                        string
		snippet, focus, length, hop int
		want                        []Window
	}{
		{"centered hop 2", 10, 5, 3, 2, []Window{{4, 7}}},
		{"walks back then forward", 10, 5, 4, 1, []Window{{2, 6}, {3, 7}, {4, 8}, {5, 9}}},
		{"focus at first frame", 10, 0, 3, 1, []Window{{0, 3}}},
		{"focus at last frame", 10, 9, 3, 1, []Window{{7, 10}}},
		{"hop equals window", 10, 5, 3, 3, []Window{{4, 7}}},
		{"hop larger than window", 10, 5, 2, 5, []Window{{4, 6}}},
		{"clamped right edge", 10, 8, 6, 1, []Window{{3, 9}, {4, 10}}},
		{"clamped left edge", 10, 1, 6, 2, []Window{{0, 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidWindows(tt.snippet, tt.focus, tt.length, tt.hop)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidWindowsFocusedInvariants(t *testing.T) {
	for snippet := 1; snippet <= 16; snippet++ {
		for length := 1; length <= snippet; length++ {
			for hop := 1; hop <= snippet+2; hop++ {
				for focus := 0; focus < snippet; focus++ {
					ws, err := ValidWindows(snippet, focus, length, hop)
					if err != nil {
						t.Fatalf("(%d,%d,%d,%d): %v", snippet, focus, length, hop, err)
					}
					for i, w := range ws {
						if w.Len() != length {
							t.Fatalf("(%d,%d,%d,%d): window %v has length %d", snippet, focus, length, hop, w, w.Len())
						}
						if w.Begin < 0 || w.End > snippet {
							t.Fatalf("(%d,%d,%d,%d): window %v out of bounds", snippet, focus, length, hop, w)
						}
						if !w.Contains(focus) {
							t.Fatalf("(%d,%d,%d,%d): window %v misses focus", snippet, focus, length, hop, w)
						}
						if i > 0 && w.Begin-ws[i-1].Begin != hop {
							t.Fatalf("(%d,%d,%d,%d): windows %v not hop-spaced", snippet, focus, length, hop, ws)
						}
					}
				}
			}
		}
	}
}

func TestValidWindowsInvalid(t *testing.T) {
	tests := []struct {
		name                        string
		snippet, focus, length, hop int
	}{
		{"zero snippet", 0, NoFocus, 1, 1},
		{"zero window", 5, NoFocus, 0, 1},
		{"window too long", 5, NoFocus, 6, 1},
		{"zero hop", 5, NoFocus, 2, 0},
		{"negative focus", 5, -2, 2, 1},
		{"focus past end", 5, 5, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidWindows(tt.snippet, tt.focus, tt.length, tt.hop)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestValidWindowsFocusedRejectsNegativeFocus(t *testing.T) {
	for _, focus := range []int{NoFocus, -2, 10} {
		if _, err := ValidWindowsFocused(10, focus, 3, 2); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("focus %d: expected ErrInvalidArgument, got %v", focus, err)
		}
	}
	got, err := ValidWindowsFocused(10, 5, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := ValidWindows(10, 5, 3, 2)
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
