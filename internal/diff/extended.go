package diff

import "iter"

// ToExtended pairs runs of added and deleted items between common items into
// Replaced items. The i-th added item of a run is paired with the i-th
// deleted item; whichever side is longer keeps its surplus items as they
// were. Pairing is purely positional.
func ToExtended[T comparable](changes iter.Seq[Change[T]]) iter.Seq[Change[T]] {
	return func(yield func(Change[T]) bool) {
		var addedList, deletedList []Change[T]

		flush := func() bool {
			n := max(len(addedList), len(deletedList))
			for i := 0; i < n; i++ {
				var c Change[T]
				switch {
				case i < len(addedList) && i < len(deletedList):
					c = Change[T]{Type: Replaced, Value: addedList[i].Value, OldValue: deletedList[i].Value}
				case i < len(addedList):
					c = addedList[i]
				default:
					c = deletedList[i]
				}
				if !yield(c) {
					return false
				}
			}
			addedList = addedList[:0]
			deletedList = deletedList[:0]
			return true
		}

		for c := range changes {
			switch c.Type {
			case Added:
				addedList = append(addedList, c)
			case Deleted:
				deletedList = append(deletedList, c)
			default:
				if !flush() || !yield(c) {
					return
				}
			}
		}
		flush()
	}
}

// Collect materializes an edit script.
func Collect[T comparable](seq iter.Seq[Change[T]]) []Change[T] {
	var out []Change[T]
	for c := range seq {
		out = append(out, c)
	}
	return out
}
