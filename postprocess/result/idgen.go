package result

import "sync"

// IDGenerator is a struct to hold a counter for generating the next
// incremental Candidate ID
type IDGenerator struct {
	id int64
	sync.Mutex
}

// NewIDGenerator returns an IDGenerator starting at zero
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// GetNext returns the next incremental number
func (id *IDGenerator) GetNext() int64 {
	id.Lock()
	defer id.Unlock()
	id.id++
	return id.id
}

// Reset restarts the counter so IDs are numbered from one again
func (id *IDGenerator) Reset() {
	id.Lock()
	id.id = 0
	id.Unlock()
}
