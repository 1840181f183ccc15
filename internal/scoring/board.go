package scoring

import (
	"sort"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

var bucketOrder = map[models.Bucket]int{
	models.BucketHigh:       0,
	models.BucketMedium:     1,
	models.BucketExclusions: 2,
}

// InBucket returns the assignments of one bucket ordered by position
func InBucket(assignments []models.BucketAssignment, bucket models.Bucket) []models.BucketAssignment {
	var items []models.BucketAssignment
	for _, a := range assignments {
		if a.Bucket == bucket {
			items = append(items, a)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items
}

// Normalize returns a copy where each (parameter, target) pair appears once
// (the last placement wins), entries are grouped by bucket, and positions are
// dense from 0 inside every bucket.
func Normalize(assignments []models.BucketAssignment) []models.BucketAssignment {
	deduped := make([]models.BucketAssignment, 0, len(assignments))
	for _, a := range assignments {
		if _, known := bucketOrder[a.Bucket]; !known || !a.Parameter.Valid() {
			continue
		}
		replaced := false
		for i := range deduped {
			if deduped[i].SamePair(a) {
				deduped[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			deduped = append(deduped, a)
		}
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		bi, bj := bucketOrder[deduped[i].Bucket], bucketOrder[deduped[j].Bucket]
		if bi != bj {
			return bi < bj
		}
		return deduped[i].Position < deduped[j].Position
	})

	next := make(map[models.Bucket]int, len(bucketOrder))
	for i := range deduped {
		deduped[i].Position = next[deduped[i].Bucket]
		next[deduped[i].Bucket]++
	}
	return deduped
}

// Remove returns a normalized copy without the given pair
func Remove(assignments []models.BucketAssignment, param models.Parameter, target string) []models.BucketAssignment {
	wanted := models.BucketAssignment{Parameter: param, TargetValue: target}
	kept := make([]models.BucketAssignment, 0, len(assignments))
	for _, a := range assignments {
		if !a.SamePair(wanted) {
			kept = append(kept, a)
		}
	}
	return Normalize(kept)
}

// Assign places a pair into bucket at position, removing it from whichever
// bucket held it before. Positions past the end append.
func Assign(assignments []models.BucketAssignment, param models.Parameter, target string, bucket models.Bucket, position int) []models.BucketAssignment {
	rest := Remove(assignments, param, target)

	var others []models.BucketAssignment
	for _, a := range rest {
		if a.Bucket != bucket {
			others = append(others, a)
		}
	}
	items := InBucket(rest, bucket)

	if position < 0 {
		position = 0
	}
	if position > len(items) {
		position = len(items)
	}

	placed := make([]models.BucketAssignment, 0, len(items)+1)
	placed = append(placed, items[:position]...)
	placed = append(placed, models.BucketAssignment{
		Parameter:   param,
		TargetValue: target,
		Bucket:      bucket,
	})
	placed = append(placed, items[position:]...)
	for i := range placed {
		placed[i].Position = i
	}

	return Normalize(append(others, placed...))
}
