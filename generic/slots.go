package generic

// =============================================================================
// POSITIONAL SLOTS - Fixed-size per-occurrence exception queues
// =============================================================================

// Slot pairs generated occurrence Index with the exception slot that governs
// it. The pairing is positional: slot i always modifies occurrence i.
type Slot[T any] struct {
	Index int
	Raw   Date
	Entry T
}

// Zip pairs raw dates with queue entries by position. Raw dates beyond the
// queue get the zero entry; queue entries beyond the raw dates are ignored.
func Zip[T any](raw []Date, queue []T) []Slot[T] {
	slots := make([]Slot[T], len(raw))
	for i, d := range raw {
		var entry T
		if i < len(queue) {
			entry = queue[i]
		}
		slots[i] = Slot[T]{Index: i, Raw: d, Entry: entry}
	}
	return slots
}

// ShiftLeft drops the head, moves every entry one position forward and
// resets the tail to empty. The input is not modified.
func ShiftLeft[T any](queue []T, empty T) []T {
	out := make([]T, len(queue))
	if len(queue) == 0 {
		return out
	}
	copy(out, queue[1:])
	out[len(out)-1] = empty
	return out
}
