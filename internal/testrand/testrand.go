// Package testrand provides deterministic randomness for tests.
package testrand

import (
	"fmt"
	"hash/fnv"
	"io"
	mrand "math/rand"
	"sync"
)

// Reader is a deterministic io.Reader backed by math/rand. The stream is not
// cryptographically secure and must only be used in tests. Unlike a bare
// *rand.Rand it is safe for concurrent use.
type Reader struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

var _ io.Reader = &Reader{}

// New returns a Reader whose stream depends only on the fmt.Sprintf("%#v")
// representation of seedArgs.
func New(seedArgs ...any) *Reader {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%#v", seedArgs)
	return &Reader{rng: mrand.New(mrand.NewSource(int64(h.Sum64())))}
}

func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Read(p) // never fails
}

// Failing is an io.Reader that returns err after n bytes.
type Failing struct {
	N   int
	Err error
}

func (f *Failing) Read(p []byte) (int, error) {
	if f.N <= 0 {
		return 0, f.Err
	}
	n := min(len(p), f.N)
	for i := range p[:n] {
		p[i] = 0xa5
	}
	f.N -= n
	return n, nil
}
