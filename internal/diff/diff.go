// Package diff computes field-scoped differences between two consecutive
// document versions. Text is compared at word granularity so small edits
// produce compact, reviewable diffs.
package diff

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

type Kind string

const (
	Unchanged Kind = "unchanged"
	Added     Kind = "added"
	Removed   Kind = "removed"
)

// Segment is one run of words sharing the same diff kind.
type Segment struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

// SetDiff describes tag membership changes.
type SetDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// ScalarDiff is a plain before/after pair.
type ScalarDiff struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Text diffs two strings word by word using a longest-common-subsequence
// alignment. Adjacent words of the same kind are coalesced into one segment.
func Text(old, new string) []Segment {
	oldWords := strings.Fields(old)
	newWords := strings.Fields(new)

	if len(oldWords) == 0 && len(newWords) == 0 {
		return []Segment{}
	}
	if len(oldWords) == 0 {
		return []Segment{{Text: strings.Join(newWords, " "), Kind: Added}}
	}
	if len(newWords) == 0 {
		return []Segment{{Text: strings.Join(oldWords, " "), Kind: Removed}}
	}

	// lcs[i][j] holds the subsequence length of oldWords[i:] and newWords[j:]
	lcs := make([][]int, len(oldWords)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(newWords)+1)
	}
	for i := len(oldWords) - 1; i >= 0; i-- {
		for j := len(newWords) - 1; j >= 0; j-- {
			if oldWords[i] == newWords[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var words []Segment
	i, j := 0, 0
	for i < len(oldWords) && j < len(newWords) {
		switch {
		case oldWords[i] == newWords[j]:
			words = append(words, Segment{Text: oldWords[i], Kind: Unchanged})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			words = append(words, Segment{Text: oldWords[i], Kind: Removed})
			i++
		default:
			words = append(words, Segment{Text: newWords[j], Kind: Added})
			j++
		}
	}
	for ; i < len(oldWords); i++ {
		words = append(words, Segment{Text: oldWords[i], Kind: Removed})
	}
	for ; j < len(newWords); j++ {
		words = append(words, Segment{Text: newWords[j], Kind: Added})
	}

	return coalesce(words)
}

func coalesce(words []Segment) []Segment {
	segments := make([]Segment, 0, len(words))
	for _, w := range words {
		if n := len(segments); n > 0 && segments[n-1].Kind == w.Kind {
			segments[n-1].Text += " " + w.Text
			continue
		}
		segments = append(segments, w)
	}
	return segments
}

// Set diffs two tag sets by membership.
func Set(old, new []string) SetDiff {
	oldSet := mapset.NewSet(old...)
	newSet := mapset.NewSet(new...)

	added := newSet.Difference(oldSet).ToSlice()
	removed := oldSet.Difference(newSet).ToSlice()

	if added == nil {
		added = make([]string, 0)
	}
	if removed == nil {
		removed = make([]string, 0)
	}

	return SetDiff{Added: added, Removed: removed}
}

// Scalar diffs two opaque string values.
func Scalar(old, new string) ScalarDiff {
	return ScalarDiff{From: old, To: new}
}

// EqualSets reports whether two tag lists hold the same members,
// independent of order.
func EqualSets(a, b []string) bool {
	return mapset.NewSet(a...).Equal(mapset.NewSet(b...))
}
