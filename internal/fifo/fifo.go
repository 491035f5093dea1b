package fifo

// Entry is one inbound notification payload with the logical channel it
// arrived on.
type Entry struct {
	Source  uint8
	Payload []byte
}

// Fifo is a bounded queue of notification entries. When full, pushing
// evicts the oldest entry. Not safe for concurrent use; the owner holds
// the lock.
type Fifo struct {
	entries []Entry
	limit   int
}

func NewFifo(limit int) *Fifo {
	return &Fifo{
		entries: make([]Entry, 0, limit),
		limit:   limit,
	}
}

func (f *Fifo) Reset() {
	f.entries = f.entries[:0]
}

func (f *Fifo) Len() int {
	return len(f.entries)
}

// Push appends an entry, evicting the oldest when the queue is full.
// Returns true when an eviction happened.
func (f *Fifo) Push(e Entry) bool {
	evicted := false
	if len(f.entries) >= f.limit {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:len(f.entries)-1]
		evicted = true
	}
	f.entries = append(f.entries, e)
	return evicted
}

// TakeFirst removes and returns the oldest entry matching the predicate.
func (f *Fifo) TakeFirst(match func(Entry) bool) (Entry, bool) {
	for i, e := range f.entries {
		if match(e) {
			copy(f.entries[i:], f.entries[i+1:])
			f.entries = f.entries[:len(f.entries)-1]
			return e, true
		}
	}
	return Entry{}, false
}
