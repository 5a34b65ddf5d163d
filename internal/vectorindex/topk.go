package vectorindex

import (
	"container/heap"
	"sort"
)

// better ranks hits: higher score, then newer document, then lower ordinal,
// then document and chunk id so the order is total.
func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.DocumentCreatedAt.Equal(b.DocumentCreatedAt) {
		return a.DocumentCreatedAt.After(b.DocumentCreatedAt)
	}
	if a.Ordinal != b.Ordinal {
		return a.Ordinal < b.Ordinal
	}
	if a.DocumentID != b.DocumentID {
		return a.DocumentID < b.DocumentID
	}
	return a.ChunkID < b.ChunkID
}

// worstFirst is a heap whose root is the weakest hit kept so far.
type worstFirst []Hit

func (h worstFirst) Len() int            { return len(h) }
func (h worstFirst) Less(i, j int) bool  { return better(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x interface{}) { *h = append(*h, x.(Hit)) }
func (h *worstFirst) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK keeps the k best hits offered to it.
type topK struct {
	k int
	h worstFirst
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(worstFirst, 0, k)}
}

func (t *topK) offer(hit Hit) {
	if len(t.h) < t.k {
		heap.Push(&t.h, hit)
		return
	}
	if better(hit, t.h[0]) {
		t.h[0] = hit
		heap.Fix(&t.h, 0)
	}
}

// sorted returns the kept hits best first.
func (t *topK) sorted() []Hit {
	out := make([]Hit, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}
