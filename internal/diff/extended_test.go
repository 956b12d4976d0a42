//go:build unit

package diff

import (
	"math/rand"
	"slices"
	"testing"
)

func TestToExtended(t *testing.T) {
	t.Run("kitten", func(t *testing.T) {
		got := Collect(ToExtended(Strings("kitten", "sitting").BuildSES()))
		want := []Change[rune]{
			{Type: Replaced, Value: 's', OldValue: 'k'},
			{Type: Common, Value: 'i'},
			{Type: Common, Value: 't'},
			{Type: Common, Value: 't'},
			{Type: Replaced, Value: 'i', OldValue: 'e'},
			{Type: Common, Value: 'n'},
			{Type: Added, Value: 'g'},
		}
		if !slices.Equal(got, want) {
			t.Errorf("unexpected script:\n got  %v\n want %v", got, want)
		}
	})

	t.Run("surplus deletions follow the pairs", func(t *testing.T) {
		in := slices.Values([]Change[string]{
			{Type: Deleted, Value: "a"},
			{Type: Deleted, Value: "b"},
			{Type: Added, Value: "x"},
			{Type: Common, Value: "c"},
		})
		got := Collect(ToExtended(in))
		want := []Change[string]{
			{Type: Replaced, Value: "x", OldValue: "a"},
			{Type: Deleted, Value: "b"},
			{Type: Common, Value: "c"},
		}
		if !slices.Equal(got, want) {
			t.Errorf("unexpected script:\n got  %v\n want %v", got, want)
		}
	})

	t.Run("pairing is positional", func(t *testing.T) {
		in := slices.Values([]Change[string]{
			{Type: Added, Value: "completely"},
			{Type: Deleted, Value: "unrelated"},
		})
		got := Collect(ToExtended(in))
		if len(got) != 1 || got[0].Type != Replaced {
			t.Fatalf("expected a single replaced item, got %v", got)
		}
	})
}

func TestToExtended_Conservation(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 300; i++ {
		a, b := randomSeq(r), randomSeq(r)
		raw := Collect(New(a, b).BuildSES())
		ext := Collect(ToExtended(slices.Values(raw)))

		var rawAdded, rawDeleted, extAdded, extDeleted []byte
		for _, c := range raw {
			switch c.Type {
			case Added:
				rawAdded = append(rawAdded, c.Value)
			case Deleted:
				rawDeleted = append(rawDeleted, c.Value)
			}
		}
		for _, c := range ext {
			switch c.Type {
			case Added:
				extAdded = append(extAdded, c.Value)
			case Deleted:
				extDeleted = append(extDeleted, c.Value)
			case Replaced:
				extAdded = append(extAdded, c.Value)
				extDeleted = append(extDeleted, c.OldValue)
			}
		}
		slices.Sort(rawAdded)
		slices.Sort(extAdded)
		slices.Sort(rawDeleted)
		slices.Sort(extDeleted)
		if !slices.Equal(rawAdded, extAdded) || !slices.Equal(rawDeleted, extDeleted) {
			t.Fatalf("%q -> %q: classifier lost or invented items", a, b)
		}
	}
}
