package dispatch

import (
	"sync"
)

// Journal keeps the most recent outcomes in memory
type Journal struct {
	mu      sync.Mutex
	entries []Outcome
	size    int
}

// NewJournal creates a journal holding at most size outcomes
func NewJournal(size int) *Journal {
	if size < 1 {
		size = 1
	}
	return &Journal{
		entries: make([]Outcome, 0, size),
		size:    size,
	}
}

// Record appends an outcome, dropping the oldest when full
func (j *Journal) Record(o Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.entries) == j.size {
		copy(j.entries, j.entries[1:])
		j.entries = j.entries[:len(j.entries)-1]
	}
	j.entries = append(j.entries, clone(o))
}

// Get returns an outcome by ID
func (j *Journal) Get(id string) (Outcome, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, o := range j.entries {
		if o.ID == id {
			return clone(o), true
		}
	}

	return Outcome{}, false
}

// All returns every outcome, oldest first
func (j *Journal) All() []Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Outcome, len(j.entries))
	for i, o := range j.entries {
		out[i] = clone(o)
	}

	return out
}

// Clear removes all outcomes
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = j.entries[:0]
}

func clone(o Outcome) Outcome {
	o.Absorbed = append([]string(nil), o.Absorbed...)
	return o
}
