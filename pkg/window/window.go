// Package window computes the fixed-length training windows that are cut out
// of variable-length spectrogram examples.
//
// Two modes exist. Unfocused windows are spaced evenly from the start of the
// snippet and are used for background-noise examples. Focused windows all
// contain one focus frame (usually the frame of peak intensity) and are used
// for keyword examples, so every extracted window still holds the spoken word.
package window

import (
	"fmt"

	"github.com/haivivi/speechset/pkg/dserr"
)

// ErrInvalidArgument is returned for out-of-range window parameters.
var ErrInvalidArgument = dserr.ErrInvalidArgument

// NoFocus selects the evenly spaced (unfocused) mode of ValidWindows.
const NoFocus = -1

// Window is a half-open frame range [Begin, End).
type Window struct {
	Begin int `json:"begin" yaml:"begin"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of frames covered by w.
func (w Window) Len() int {
	return w.End - w.Begin
}

// Contains reports whether frame lies inside w.
func (w Window) Contains(frame int) bool {
	return frame >= w.Begin && frame < w.End
}

// ValidWindows returns the windows of length windowLen that can be cut from a
// snippet of snippetLen frames, stepping by hop frames.
//
// With focusIndex == NoFocus, windows start at frame 0 and advance by hop
// until the next window would run past the end; a trailing remainder shorter
// than windowLen is left uncovered.
//
// Otherwise every returned window contains focusIndex. The windows are aligned
// to a hop grid anchored on the window centered at focusIndex, and are sorted
// by Begin. The result may hold a single window.
//
// focusIndex == -1 is the NoFocus sentinel and never an error here; callers
// holding a frame index that may be negative use ValidWindowsFocused.
func ValidWindows(snippetLen, focusIndex, windowLen, hop int) ([]Window, error) {
	if snippetLen <= 0 {
		return nil, fmt.Errorf("window: snippet length must be positive, got %d: %w", snippetLen, ErrInvalidArgument)
	}
	if windowLen <= 0 {
		return nil, fmt.Errorf("window: window length must be positive, got %d: %w", windowLen, ErrInvalidArgument)
	}
	if windowLen > snippetLen {
		return nil, fmt.Errorf("window: window length %d exceeds snippet length %d: %w", windowLen, snippetLen, ErrInvalidArgument)
	}
	if hop <= 0 {
		return nil, fmt.Errorf("window: hop must be positive, got %d: %w", hop, ErrInvalidArgument)
	}
	if focusIndex != NoFocus && (focusIndex < 0 || focusIndex >= snippetLen) {
		return nil, fmt.Errorf("window: focus index %d out of range [0, %d): %w", focusIndex, snippetLen, ErrInvalidArgument)
	}

	if windowLen == snippetLen {
		return []Window{{Begin: 0, End: snippetLen}}, nil
	}
	if focusIndex == NoFocus {
		return evenWindows(snippetLen, windowLen, hop), nil
	}
	left := anchor(snippetLen, focusIndex, windowLen, hop)
	return focusedWindows(left, snippetLen, focusIndex, windowLen, hop), nil
}

// ValidWindowsFocused is ValidWindows for an explicit focus frame. Any
// negative focusIndex, including -1, is ErrInvalidArgument.
func ValidWindowsFocused(snippetLen, focusIndex, windowLen, hop int) ([]Window, error) {
	if focusIndex < 0 {
		return nil, fmt.Errorf("window: focus index %d out of range [0, %d): %w", focusIndex, snippetLen, ErrInvalidArgument)
	}
	return ValidWindows(snippetLen, focusIndex, windowLen, hop)
}

func evenWindows(snippetLen, windowLen, hop int) []Window {
	var out []Window
	for begin := 0; begin+windowLen <= snippetLen; begin += hop {
		out = append(out, Window{Begin: begin, End: begin + windowLen})
	}
	return out
}

// anchor finds the leftmost window start on the hop grid through the centered
// window that still covers focus.
//
// The walk only takes a step back when the window one hop further left would
// still contain focus and would not start before frame 0.
func anchor(snippetLen, focus, windowLen, hop int) int {
	left := focus - windowLen/2
	if left < 0 {
		left = 0
	} else if left+windowLen > snippetLen {
		left = snippetLen - windowLen
	}
	for left-hop >= 0 && focus < left-hop+windowLen {
		left -= hop
	}
	return left
}

// focusedWindows emits hop-spaced windows from left while they fit inside the
// snippet and do not start after focus.
func focusedWindows(left, snippetLen, focus, windowLen, hop int) []Window {
	var out []Window
	for ; left+windowLen <= snippetLen && left <= focus; left += hop {
		out = append(out, Window{Begin: left, End: left + windowLen})
	}
	return out
}
