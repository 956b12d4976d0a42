package diff

import "iter"

// Type labels one item of an edit script.
type Type int

const (
	Common Type = iota
	Added
	Deleted
	Replaced
)

func (t Type) String() string {
	switch t {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Replaced:
		return "replaced"
	default:
		return "common"
	}
}

// Change is a single edit script item. OldValue is only set for Replaced.
type Change[T comparable] struct {
	Type     Type
	Value    T
	OldValue T
}

// point is one furthest-reaching point on the edit graph. prev indexes the
// point the path came from, or -1 at the origin.
type point struct {
	x, y, prev int
}

// Differ holds the result of comparing two sequences with Wu's O(NP)
// algorithm. The shorter sequence is always treated as a, the longer one as b.
type Differ[T comparable] struct {
	from, to     []T
	a, b         []T
	reversed     bool
	editDistance int
	path         []point
}

// New compares left and right. Neither slice is modified.
func New[T comparable](left, right []T) *Differ[T] {
	d := &Differ[T]{from: left, to: right}
	d.reversed = len(left) > len(right)
	if d.reversed {
		d.a, d.b = right, left
	} else {
		d.a, d.b = left, right
	}
	d.compute()
	return d
}

// Strings compares two strings rune by rune.
func Strings(left, right string) *Differ[rune] {
	return New([]rune(left), []rune(right))
}

func (d *Differ[T]) compute() {
	m, n := len(d.a), len(d.b)
	offset := m + 1
	size := m + n + 3
	delta := n - m

	fp := make([]int, size)
	// head[k] is the index in pathList of the last point on diagonal k.
	head := make([]int, size)
	for i := range fp {
		fp[i] = -1
		head[i] = -1
	}
	var pathList []point

	snake := func(k, p, pp int) int {
		prev := head[k+1+offset]
		if p > pp {
			prev = head[k-1+offset]
		}
		y := max(p, pp)
		x := y - k
		for x < m && y < n && d.a[x] == d.b[y] {
			x++
			y++
		}
		head[k+offset] = len(pathList)
		pathList = append(pathList, point{x: x, y: y, prev: prev})
		return y
	}

	p := -1
	for {
		p++
		for k := -p; k <= delta-1; k++ {
			fp[k+offset] = snake(k, fp[k-1+offset]+1, fp[k+1+offset])
		}
		for k := delta + p; k >= delta+1; k-- {
			fp[k+offset] = snake(k, fp[k-1+offset]+1, fp[k+1+offset])
		}
		fp[delta+offset] = snake(delta, fp[delta-1+offset]+1, fp[delta+1+offset])
		if fp[delta+offset] == n {
			break
		}
	}
	d.editDistance = delta + 2*p

	// Walk back from the end, then reverse so the path runs forward.
	var epc []point
	for r := head[delta+offset]; r != -1; r = pathList[r].prev {
		epc = append(epc, pathList[r])
	}
	for i, j := 0, len(epc)-1; i < j; i, j = i+1, j-1 {
		epc[i], epc[j] = epc[j], epc[i]
	}
	d.path = epc
}

// From returns the left sequence.
func (d *Differ[T]) From() []T { return d.from }

// To returns the right sequence.
func (d *Differ[T]) To() []T { return d.to }

// EditDistance is the number of added plus deleted items.
func (d *Differ[T]) EditDistance() int { return d.editDistance }

// LCS returns the longest common subsequence.
func (d *Differ[T]) LCS() []T {
	var lcs []T
	for c := range d.BuildSES() {
		if c.Type == Common {
			lcs = append(lcs, c.Value)
		}
	}
	return lcs
}

// BuildSES replays the shortest edit script from the start of both
// sequences. Added items come from right, deleted items from left.
func (d *Differ[T]) BuildSES() iter.Seq[Change[T]] {
	added, deleted := Added, Deleted
	if d.reversed {
		added, deleted = Deleted, Added
	}
	return func(yield func(Change[T]) bool) {
		xi, yi := 0, 0
		for _, pt := range d.path {
			for xi < pt.x || yi < pt.y {
				var c Change[T]
				switch {
				case pt.y-pt.x > yi-xi:
					c = Change[T]{Type: added, Value: d.b[yi]}
					yi++
				case pt.y-pt.x < yi-xi:
					c = Change[T]{Type: deleted, Value: d.a[xi]}
					xi++
				default:
					c = Change[T]{Type: Common, Value: d.a[xi]}
					xi++
					yi++
				}
				if !yield(c) {
					return
				}
			}
		}
	}
}
