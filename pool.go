package geodetect

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/swdee/go-geodetect/detector"
)

// Pool holds several sessions of the same Model so tiles can be run in
// parallel, each Detector being used by one goroutine at a time
type Pool struct {
	// pool of detectors
	detectors chan detector.Detector
	// size of pool
	size int
	// mu guards closed against detectors being returned during Close
	mu     sync.Mutex
	closed bool
}

// NewPool loads size sessions of modelRef.  Any load failure closes the
// sessions already opened and returns ErrModelLoad.
func NewPool(size int, modelRef string, load detector.Loader) (*Pool, error) {

	if size < 1 {
		return nil, errors.Wrapf(ErrModelLoad, "invalid pool size %d", size)
	}

	p := &Pool{
		detectors: make(chan detector.Detector, size),
		size:      size,
	}

	for i := 0; i < size; i++ {
		d, err := load(modelRef)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, errors.Wrapf(ErrModelLoad, "%s: %v", modelRef, err)
		}

		// attach to pool
		p.Return(d)
	}

	return p, nil
}

// Get a detector from the pool, blocking until one is free.  Returns nil once
// the pool is closed.
func (p *Pool) Get() detector.Detector {
	return <-p.detectors
}

// Return a detector to the pool, once the pool is closed the detector is
// closed instead
func (p *Pool) Return(d detector.Detector) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		d.Close()
		return
	}

	select {
	case p.detectors <- d:
	default:
		// pool is full
	}
}

// Size returns the number of detectors in the pool
func (p *Pool) Size() int {
	return p.size
}

// Close the pool and all detectors in it.  Detectors checked out at the time
// are closed when they are returned.
func (p *Pool) Close() error {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	// close channel
	close(p.detectors)

	var err error

	// close all detectors
	for next := range p.detectors {
		err = multierr.Append(err, next.Close())
	}

	return err
}
