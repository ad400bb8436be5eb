package hub

import (
	"github.com/galpt/datahub/pkg/herrors"
	"github.com/galpt/datahub/pkg/resource"
	"github.com/galpt/datahub/pkg/sample"
)

// CreateObservation creates (or returns the existing) Observation resource
// at path: a leaf with no app attached, fed by routing from another
// resource via SetSource and governed by its own filter/buffer policy.
func (h *Hub) CreateObservation(path string) (*resource.Resource, error) {
	h.tree.StartUpdate()
	res, err := resource.CreateObservation(h.tree, path)
	h.tree.EndUpdate()
	if err != nil {
		return nil, err
	}
	h.notifyTreeChange(path, "created")
	return res, nil
}

// DeleteObservation removes the Observation resource at path: detaches its
// source routing edge, releases buffered samples, and marks the tree entry
// deleted.
func (h *Hub) DeleteObservation(path string) error {
	h.tree.StartUpdate()
	defer h.tree.EndUpdate()
	res, err := h.mustFindResourceLocked(path)
	if err != nil {
		return err
	}
	if err := resource.DeleteObservation(h.tree, res); err != nil {
		return err
	}
	h.notifyTreeChange(path, "deleted")
	return nil
}

// SetSource routes dest's value from src, both identified by path. See
// resource.Resource.SetSource for cycle-rejection semantics.
func (h *Hub) SetSource(destPath, srcPath string) error {
	dest, err := h.mustFindResource(destPath)
	if err != nil {
		return err
	}
	src, err := h.mustFindResource(srcPath)
	if err != nil {
		return err
	}
	return dest.SetSource(src)
}

// ClearSource disconnects dest from whatever it is currently routed from.
func (h *Hub) ClearSource(destPath string) error {
	dest, err := h.mustFindResource(destPath)
	if err != nil {
		return err
	}
	return dest.SetSource(nil)
}

// SetDefault configures path's fallback value, creating a Placeholder entry
// if no resource exists there yet (admin settings configured ahead of the
// app that will eventually own the path).
func (h *Hub) SetDefault(path string, dataType sample.DataType, value *sample.Sample) error {
	res, err := h.findOrCreatePlaceholder(path)
	if err != nil {
		return err
	}
	res.SetDefault(dataType, value)
	return nil
}

// RemoveDefault clears path's configured default.
func (h *Hub) RemoveDefault(path string) error {
	res, err := h.mustFindResource(path)
	if err != nil {
		return err
	}
	res.RemoveDefault()
	return nil
}

// SetOverride forces path's current value until RemoveOverride is called,
// creating a Placeholder if needed.
func (h *Hub) SetOverride(path string, dataType sample.DataType, value *sample.Sample) error {
	res, err := h.findOrCreatePlaceholder(path)
	if err != nil {
		return err
	}
	res.SetOverride(dataType, value)
	return nil
}

// RemoveOverride clears path's active override.
func (h *Hub) RemoveOverride(path string) error {
	res, err := h.mustFindResource(path)
	if err != nil {
		return err
	}
	res.RemoveOverride()
	return nil
}

// SetRange configures path's Observation range filter, creating a
// Placeholder if needed.
func (h *Hub) SetRange(path string, low, high float64) error {
	res, err := h.findOrCreatePlaceholder(path)
	if err != nil {
		return err
	}
	res.SetRange(low, high)
	return nil
}

// RemoveRange clears path's range filter.
func (h *Hub) RemoveRange(path string) error {
	res, err := h.mustFindResource(path)
	if err != nil {
		return err
	}
	res.RemoveRange()
	return nil
}

// SetMinPeriod configures path's minPeriod throttle, creating a Placeholder
// if needed.
func (h *Hub) SetMinPeriod(path string, seconds float64) error {
	res, err := h.findOrCreatePlaceholder(path)
	if err != nil {
		return err
	}
	res.SetMinPeriod(seconds)
	return nil
}

// SetChangeBy configures path's change filter, creating a Placeholder if
// needed.
func (h *Hub) SetChangeBy(path string, changeBy float64) error {
	res, err := h.findOrCreatePlaceholder(path)
	if err != nil {
		return err
	}
	res.SetChangeBy(changeBy)
	return nil
}

// RemoveChangeBy clears path's change filter.
func (h *Hub) RemoveChangeBy(path string) error {
	res, err := h.mustFindResource(path)
	if err != nil {
		return err
	}
	res.RemoveChangeBy()
	return nil
}

// SetBufferMaxCount configures path's observation buffer capacity, creating
// a Placeholder if needed.
func (h *Hub) SetBufferMaxCount(path string, count int) error {
	res, err := h.findOrCreatePlaceholder(path)
	if err != nil {
		return err
	}
	res.SetBufferMaxCount(count)
	return nil
}

// SetBufferBackupPeriod configures how often path's observation buffer
// would be persisted (contract only; see pkg/resource.BufferBackupRecord).
func (h *Hub) SetBufferBackupPeriod(path string, seconds float64) error {
	res, err := h.findOrCreatePlaceholder(path)
	if err != nil {
		return err
	}
	res.SetBufferBackupPeriod(seconds)
	return nil
}

// findOrCreatePlaceholder returns the resource at path, creating a
// Placeholder there if nothing exists yet. Matches the original allowing
// admin configuration of a path before any app has published to it.
func (h *Hub) findOrCreatePlaceholder(path string) (*resource.Resource, error) {
	res, err := h.mustFindResource(path)
	if err == nil {
		return res, nil
	}
	h.tree.StartUpdate()
	res, err = resource.CreatePlaceholder(h.tree, path)
	h.tree.EndUpdate()
	if err != nil {
		return nil, err
	}
	return res, nil
}

// mustFindResourceLocked is mustFindResource for call sites that already
// hold the tree's write lock (StartUpdate/EndUpdate), so it must not try to
// acquire the read lock itself.
func (h *Hub) mustFindResourceLocked(path string) (*resource.Resource, error) {
	entry, err := h.tree.FindEntry(path)
	if err != nil {
		return nil, err
	}
	res := resource.FromEntry(entry)
	if res == nil {
		return nil, herrors.ErrNotFound
	}
	return res, nil
}
