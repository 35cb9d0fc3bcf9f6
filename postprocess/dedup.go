package postprocess

import (
	"sort"

	"github.com/swdee/go-geodetect/postprocess/result"
)

// DefaultIoUThreshold is the IoU above which two same class candidates are
// considered duplicates of one object
const DefaultIoUThreshold = 0.5

// sortByConfidence returns a copy of cands ordered by descending Probability.
// Equal probabilities keep their input order so the first seen candidate
// ranks higher.
func sortByConfidence(cands []result.Candidate) []result.Candidate {

	sorted := make([]result.Candidate, len(cands))
	copy(sorted, cands)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Probability > sorted[j].Probability
	})

	return sorted
}

// HybridFilter removes duplicate detections from the full set of candidates
// gathered across all tiles of a raster.  It combines a containment test with
// non-maximum suppression and only compares candidates of the same class.
//
// Candidates are ranked by confidence (first seen wins on ties), then for each
// kept pair (i, j) with i ranked above j:
//
//   - if j's box lies inside i's box, j is dropped
//   - else if i's box lies inside j's box, i is dropped and i is not compared
//     any further
//   - else if IoU(i, j) > iouThreshold, j is dropped
//
// Identical boxes satisfy the first test so the lower ranked one is dropped.
// A pair whose IoU equals the threshold is kept.  The survivors are returned
// in confidence order.
//
// The filter must run once over the merged candidates of every tile, since
// duplicates are created in the overlap band between neighbouring tiles.
func HybridFilter(cands []result.Candidate, iouThreshold float64) []result.Candidate {

	if len(cands) == 0 {
		return nil
	}

	sorted := sortByConfidence(cands)

	n := len(sorted)
	keep := make([]bool, n)

	for i := range keep {
		keep[i] = true
	}

	for i := 0; i < n; i++ {
		if !keep[i] {
			continue
		}

		boxA := sorted[i].Box

		for j := i + 1; j < n; j++ {
			if !keep[j] || sorted[i].Class != sorted[j].Class {
				continue
			}

			boxB := sorted[j].Box

			if boxA.Contains(boxB) {
				keep[j] = false
				continue
			}

			if boxB.Contains(boxA) {
				keep[i] = false
				break
			}

			if IoU(boxA, boxB) > iouThreshold {
				keep[j] = false
			}
		}
	}

	out := make([]result.Candidate, 0, n)

	for i, c := range sorted {
		if keep[i] {
			out = append(out, c)
		}
	}

	return out
}

// ContainmentFilter removes every candidate whose box lies entirely inside
// the box of another candidate of the same class.  Of a set of identical
// boxes only the first occurrence is kept.  Input order is preserved.
//
// This is the filter applied to the detections of a single image, where
// there are no tile overlaps to produce partially overlapping duplicates.
func ContainmentFilter(cands []result.Candidate) []result.Candidate {

	out := make([]result.Candidate, 0, len(cands))

	for i, a := range cands {
		inside := false

		for j, b := range cands {
			if i == j || a.Class != b.Class || !b.Box.Contains(a.Box) {
				continue
			}

			// identical boxes contain each other, keep the first occurrence
			if a.Box == b.Box && i < j {
				continue
			}

			inside = true
			break
		}

		if !inside {
			out = append(out, a)
		}
	}

	return out
}
