package coords

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// IndexerKind tells how an Indexer picks positions along an axis
type IndexerKind int

const (
	// SliceIndexerKind selects a start:stop:step run of positions
	SliceIndexerKind IndexerKind = iota
	// MaskIndexerKind selects positions where a boolean mask is true
	MaskIndexerKind
	// TakeIndexerKind selects explicit positions, in order (eg. a sort
	// permutation)
	TakeIndexerKind
)

// Indexer describes which positions of one array axis a selection kept.
// Slices take start, stop and step, where negative positions count from the
// end and open ends mean "from the beginning" and "to the end". The zero
// Indexer is the full slice.
type Indexer struct {
	kind     IndexerKind
	start    int
	stop     int
	step     int
	hasStart bool
	hasStop  bool
	mask     []bool
	pos      []int
}

// FullIndexer selects every position
func FullIndexer() Indexer { return Indexer{} }

// SliceIndexer selects positions [start, stop)
func SliceIndexer(start, stop int) Indexer {
	return Indexer{start: start, stop: stop, hasStart: true, hasStop: true}
}

// StrideIndexer selects every step-th position; a negative step walks the
// axis backwards.
func StrideIndexer(step int) Indexer {
	return Indexer{step: step}
}

// MaskIndexer selects positions where mask is true
func MaskIndexer(mask []bool) Indexer {
	return Indexer{kind: MaskIndexerKind, mask: slices.Clone(mask)}
}

// TakeIndexer selects explicit positions in the given order
func TakeIndexer(pos []int) Indexer {
	return Indexer{kind: TakeIndexerKind, pos: slices.Clone(pos)}
}

// boundedSlice returns [start, stop) over an axis of length n with the
// trivial ends left open.
func boundedSlice(start, stop, n int) Indexer {
	ix := Indexer{start: start, stop: stop, hasStart: start != 0, hasStop: stop != n}
	if stop <= start {
		ix = SliceIndexer(0, 0)
	}
	return ix
}

func (ix Indexer) Kind() IndexerKind { return ix.kind }

// Start returns the slice start, if one was set
func (ix Indexer) Start() (int, bool) { return ix.start, ix.hasStart }

// Stop returns the slice stop, if one was set
func (ix Indexer) Stop() (int, bool) { return ix.stop, ix.hasStop }

// Step returns the slice step (1 when unset)
func (ix Indexer) Step() int {
	if ix.step == 0 {
		return 1
	}
	return ix.step
}

// Mask returns a copy of the boolean mask of a mask indexer
func (ix Indexer) Mask() []bool { return slices.Clone(ix.mask) }

// Positions resolves the indexer against an axis of length n
func (ix Indexer) Positions(n int) ([]int, error) {
	switch ix.kind {
	case MaskIndexerKind:
		if len(ix.mask) != n {
			return nil, fmt.Errorf("%w: mask of length %d for axis of length %d", ErrParameter, len(ix.mask), n)
		}
		out := make([]int, 0, n)
		for i, keep := range ix.mask {
			if keep {
				out = append(out, i)
			}
		}
		return out, nil
	case TakeIndexerKind:
		for _, p := range ix.pos {
			if p < 0 || p >= n {
				return nil, fmt.Errorf("%w: position %d exceeds axis length %d", ErrParameter, p, n)
			}
		}
		return slices.Clone(ix.pos), nil
	default:
		start, stop, step := ix.indices(n)
		var out []int
		if step > 0 {
			for i := start; i < stop; i += step {
				out = append(out, i)
			}
		} else {
			for i := start; i > stop; i += step {
				out = append(out, i)
			}
		}
		return out, nil
	}
}

// Len returns how many positions the indexer keeps on an axis of length n
func (ix Indexer) Len(n int) int {
	pos, err := ix.Positions(n)
	if err != nil {
		return 0
	}
	return len(pos)
}

// IsFull reports whether the indexer keeps every position of an axis of
// length n, in order.
func (ix Indexer) IsFull(n int) bool {
	switch ix.kind {
	case MaskIndexerKind:
		if len(ix.mask) != n {
			return false
		}
		for _, keep := range ix.mask {
			if !keep {
				return false
			}
		}
		return true
	case TakeIndexerKind:
		if len(ix.pos) != n {
			return false
		}
		for i, p := range ix.pos {
			if p != i {
				return false
			}
		}
		return true
	default:
		start, stop, step := ix.indices(n)
		return step == 1 && start == 0 && stop == n
	}
}

// indices resolves the slice against an axis of length n, clamping start
// and stop the same way for either step direction.
func (ix Indexer) indices(n int) (start, stop, step int) {
	step = ix.Step()
	if step > 0 {
		start, stop = 0, n
		if ix.hasStart {
			start = normIndex(ix.start, n, 0, n)
		}
		if ix.hasStop {
			stop = normIndex(ix.stop, n, 0, n)
		}
		return
	}
	start, stop = n-1, -1
	if ix.hasStart {
		start = normIndex(ix.start, n, -1, n-1)
	}
	if ix.hasStop {
		stop = normIndex(ix.stop, n, -1, n-1)
	}
	return
}

func normIndex(i, n, lo, hi int) int {
	if i < 0 {
		i += n
	}
	return clampInt(i, lo, hi)
}

func (ix Indexer) Equal(o Indexer) bool {
	if ix.kind != o.kind {
		return false
	}
	switch ix.kind {
	case MaskIndexerKind:
		return slices.Equal(ix.mask, o.mask)
	case TakeIndexerKind:
		return slices.Equal(ix.pos, o.pos)
	default:
		return ix.Step() == o.Step() &&
			ix.hasStart == o.hasStart && ix.hasStop == o.hasStop &&
			(!ix.hasStart || ix.start == o.start) &&
			(!ix.hasStop || ix.stop == o.stop)
	}
}

// String renders slices as "slice(start, stop[, step])" with None for open
// ends, eg. "slice(50, None)"
func (ix Indexer) String() string {
	switch ix.kind {
	case MaskIndexerKind:
		n := 0
		for _, keep := range ix.mask {
			if keep {
				n++
			}
		}
		return fmt.Sprintf("mask(%d of %d)", n, len(ix.mask))
	case TakeIndexerKind:
		return fmt.Sprintf("take(%d)", len(ix.pos))
	}
	parts := []string{optInt(ix.start, ix.hasStart), optInt(ix.stop, ix.hasStop)}
	if ix.Step() != 1 {
		parts = append(parts, fmt.Sprint(ix.step))
	}
	return "slice(" + strings.Join(parts, ", ") + ")"
}

func optInt(v int, ok bool) string {
	if !ok {
		return "None"
	}
	return fmt.Sprint(v)
}
