package resource

import "github.com/galpt/datahub/pkg/herrors"

// SetSource routes res's value from src: every value src accepts is pushed
// into res as well, after res's own policy pipeline runs. Passing a nil src
// disconnects res, leaving it fed only by direct Push calls.
//
// Cycle detection walks src's own chain of sources; if res appears in that
// chain, routing res from src would close a loop (src, directly or
// transitively, is fed from res), which is rejected.
func (res *Resource) SetSource(src *Resource) error {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.setSourceLocked(src)
}

func (res *Resource) setSourceLocked(src *Resource) error {
	if src == res {
		return herrors.ErrDuplicate
	}
	for s := src; s != nil; s = s.source {
		if s == res {
			return herrors.ErrDuplicate
		}
	}
	if res.source != nil {
		res.source.removeDestination(res)
	}
	res.source = src
	if src != nil {
		src.addDestination(res)
	}
	return nil
}

// Source returns the resource res is routed from, or nil.
func (res *Resource) Source() *Resource {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.source
}

// Destinations returns the resources currently routed from res. The
// returned slice is a snapshot copy, safe to range over without holding any
// lock.
func (res *Resource) Destinations() []*Resource {
	res.mu.Lock()
	defer res.mu.Unlock()
	out := make([]*Resource, len(res.destinations))
	copy(out, res.destinations)
	return out
}

func (res *Resource) addDestination(dst *Resource) {
	res.mu.Lock()
	defer res.mu.Unlock()
	res.destinations = append(res.destinations, dst)
}

func (res *Resource) removeDestination(dst *Resource) {
	res.mu.Lock()
	defer res.mu.Unlock()
	for i, d := range res.destinations {
		if d == dst {
			res.destinations = append(res.destinations[:i], res.destinations[i+1:]...)
			return
		}
	}
}
