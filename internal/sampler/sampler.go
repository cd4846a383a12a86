// internal/sampler/sampler.go

// Package sampler picks pseudo-random, not-yet-visited offsets into the
// remote repository listing so repeated probes cover the collection space
// without enumerating it sequentially.
package sampler

import "math/rand/v2"

// Sampler draws distinct identifiers from the 16-bit unsigned space. The
// seen-set lives for the process run only and is never persisted.
type Sampler struct {
	rng  *rand.Rand
	seen map[uint16]struct{}
}

// New creates a Sampler backed by the given randomness source.
func New(src rand.Source) *Sampler {
	return &Sampler{
		rng:  rand.New(src),
		seen: make(map[uint16]struct{}),
	}
}

// Next returns a uniformly random identifier not returned before, and marks
// it as seen. With 65536 possible values and realistic run lengths the
// rejection loop terminates quickly; exhausting the space would spin forever.
func (s *Sampler) Next() uint16 {
	for {
		id := uint16(s.rng.UintN(1 << 16))
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		return id
	}
}

// Seen reports whether id has already been returned by Next.
func (s *Sampler) Seen(id uint16) bool {
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of identifiers drawn so far.
func (s *Sampler) Len() int {
	return len(s.seen)
}
