package service

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// difference returns the IDs of from that are absent from exclude, keeping
// the order of from.
func difference(from, exclude []int64) []int64 {
	skip := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	out := make([]int64, 0, len(from))
	for _, id := range from {
		if _, ok := skip[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

func reversed(ids []int64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func newRunID() string {
	id, err := gonanoid.New()
	if err != nil {
		return time.Now().UTC().Format("20060102T150405.000000000")
	}
	return id
}

// capped returns at most the first n IDs.
func capped(ids []int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	return ids[:min(n, len(ids))]
}
