package hub

import (
	"github.com/google/uuid"

	"github.com/galpt/datahub/pkg/herrors"
	"github.com/galpt/datahub/pkg/resource"
	"github.com/galpt/datahub/pkg/sample"
	"github.com/galpt/datahub/pkg/tree"
)

// CreateInput creates (or returns the existing) Input resource at path,
// the entry point for an app pushing values into the Hub. Re-creating an
// existing Input with an identical (dataType, units) pair is idempotent;
// any mismatch returns herrors.ErrDuplicate.
func (h *Hub) CreateInput(path string, dataType sample.DataType, units string) (*resource.Resource, error) {
	h.tree.StartUpdate()
	res, err := resource.CreateInput(h.tree, path, dataType, units)
	h.tree.EndUpdate()
	if err != nil {
		return nil, err
	}
	h.notifyTreeChange(path, "created")
	return res, nil
}

// CreateOutput creates (or returns the existing) Output resource at path.
// Re-creating an existing Output with an identical (dataType, units) pair
// is idempotent; any mismatch returns herrors.ErrDuplicate.
func (h *Hub) CreateOutput(path string, dataType sample.DataType, units string) (*resource.Resource, error) {
	h.tree.StartUpdate()
	res, err := resource.CreateOutput(h.tree, path, dataType, units)
	h.tree.EndUpdate()
	if err != nil {
		return nil, err
	}
	h.notifyTreeChange(path, "created")
	return res, nil
}

// Push pushes a value into the resource at path, creating it as an Input
// with the given (dataType, units) if it doesn't exist yet (matching an
// app's first io_PushNumeric-style call implicitly registering the
// resource). It goes through CreateInput every time, so an existing Input
// with a different (dataType, units), or an Output or Observation at path,
// makes it return herrors.ErrDuplicate without pushing.
func (h *Hub) Push(path string, dataType sample.DataType, units string, ts float64, value *sample.Sample) error {
	res, err := h.CreateInput(path, dataType, units)
	if err != nil {
		return err
	}
	return res.Push(dataType, units, ts, value)
}

// AddPushHandler registers a handler on the resource at path. Returns
// herrors.ErrNotFound if no resource exists there yet.
func (h *Hub) AddPushHandler(path string, wantType sample.DataType, fn resource.PushHandlerFunc) (uuid.UUID, error) {
	res, err := h.mustFindResource(path)
	if err != nil {
		return uuid.Nil, err
	}
	return res.AddPushHandler(wantType, fn)
}

// RemovePushHandler unregisters a handler previously returned by
// AddPushHandler.
func (h *Hub) RemovePushHandler(path string, id uuid.UUID) error {
	res, err := h.mustFindResource(path)
	if err != nil {
		return err
	}
	res.RemovePushHandler(id)
	return nil
}

// GetCurrentValue reads the current value at path.
func (h *Hub) GetCurrentValue(path string) (*sample.Sample, sample.DataType, error) {
	res, err := h.mustFindResource(path)
	if err != nil {
		return nil, 0, err
	}
	value, dataType, ok := res.GetCurrentValue()
	if !ok {
		return nil, 0, herrors.ErrNotFound
	}
	return value, dataType, nil
}

func (h *Hub) mustFindResource(path string) (*resource.Resource, error) {
	var res *resource.Resource
	var err error
	h.tree.WithReadLock(func() {
		var entry *tree.Entry
		entry, err = h.tree.FindEntry(path)
		if err == nil {
			res = resource.FromEntry(entry)
		}
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, herrors.ErrNotFound
	}
	return res, nil
}
