package jsonformat

import (
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/galpt/datahub/pkg/resource"
	"github.com/galpt/datahub/pkg/sample"
	"github.com/galpt/datahub/pkg/snapshot"
	"github.com/galpt/datahub/pkg/tree"
)

// nodeFrame tracks whether the node currently being written already has
// at least one field or child, so the formatter knows whether the next one
// needs a leading comma.
type nodeFrame struct {
	wroteSomething bool
}

// Formatter renders a snapshot as a single JSON value:
//
//	{"ts":<pass timestamp>,"root":"<root path>","upserted":<NODE>[,"deleted":<NODE>]}
//
// where NODE is, recursively, {"<childName>":NODE, ...} for a namespace
// entry or {"type":<dataType>,"ts":...,"mandatory":...,"new":...[,"value":...]}
// for a leaf (the "value" key is omitted entirely for TRIGGER, which
// carries no payload). It implements snapshot.Formatter, so
// pkg/snapshot.Engine drives it one step at a time; each step may return
// snapshot.ErrWouldBlock, which the engine treats as "pause here, retry me
// later" rather than a failure.
//
// A caller drives one Formatter through two Engine passes to get both
// keys: a live-data pass (filter Created|Normal) writes "upserted", then,
// if deletions should be reported, a second pass (filter Deleted) writes
// "deleted" as its own nested NODE tree produced by a real walk of the
// tombstoned entries, not a flat list of paths.
type Formatter struct {
	sink      Sink
	pending   bytebufferpool.ByteBuffer
	stack     []*nodeFrame
	wroteRoot bool
}

// New creates a Formatter writing to sink.
func New(sink Sink) *Formatter {
	return &Formatter{sink: sink}
}

// emit queues text for writing exactly once: if a previous call to emit
// left bytes unflushed (the sink backpressured), emit does not re-queue
// text. The engine only retries a step with identical arguments, so the
// pending bytes already represent this exact text; emit just keeps trying
// to flush them.
func (f *Formatter) emit(text string) error {
	if f.pending.Len() == 0 {
		f.pending.WriteString(text)
	}
	return f.flush()
}

func (f *Formatter) flush() error {
	for f.pending.Len() > 0 {
		n, err := f.sink.TryWrite(f.pending.B)
		if err != nil {
			return err
		}
		if n == 0 {
			return snapshot.ErrWouldBlock
		}
		f.pending.B = f.pending.B[n:]
	}
	return nil
}

func (f *Formatter) top() *nodeFrame {
	if len(f.stack) == 0 {
		return nil
	}
	return f.stack[len(f.stack)-1]
}

// BeginPass opens the document's preamble on the first pass, writing the
// key that pass's NODE tree will be nested under; on a later pass over the
// same Formatter it only writes a comma and the next key, since the
// top-level object is only opened once and the previous pass's NODE was
// already closed by its root's EndNode.
func (f *Formatter) BeginPass(rootPath string, ts float64, filter snapshot.FilterMask) error {
	key := "upserted"
	if filter&snapshot.FilterDeleted != 0 {
		key = "deleted"
	}
	if f.wroteRoot {
		return f.emit(`,"` + key + `":`)
	}
	var escaped [256]byte
	n, _ := sample.StringToJSON(escaped[:], rootPath)
	if err := f.emit(`{"ts":` + formatFloat(ts) + `,"root":"` + string(escaped[:n]) + `","` + key + `":`); err != nil {
		return err
	}
	f.wroteRoot = true
	return nil
}

// BeginNode writes the opening of e's NODE value, including its key in the
// parent object if it has one (the root has no parent frame and is
// written as a bare object).
func (f *Formatter) BeginNode(e *tree.Entry) error {
	parent := f.top()
	prefix := ""
	if parent != nil {
		if parent.wroteSomething {
			prefix = ","
		}
		var escaped [256]byte
		n, _ := sample.StringToJSON(escaped[:], e.Name())
		prefix += `"` + string(escaped[:n]) + `":`
	}
	if err := f.emit(prefix + "{"); err != nil {
		return err
	}
	f.stack = append(f.stack, &nodeFrame{})
	if parent != nil {
		parent.wroteSomething = true
	}
	return nil
}

// EmitValue writes a leaf entry's type/ts/mandatory/new fields, plus value
// for every type but TRIGGER (which carries no payload, so the "value" key
// is omitted entirely rather than written as null). Entries with no
// resource attached (shouldn't reach here, but defensively) or no current
// value yet render with a null type and no value.
func (f *Formatter) EmitValue(e *tree.Entry, res *resource.Resource) error {
	frame := f.top()
	var value *sample.Sample
	var dataType sample.DataType
	ok := false
	if res != nil {
		value, dataType, ok = res.GetCurrentValue()
	}
	if !ok {
		text := `"type":null,"ts":0,"mandatory":` + strconv.FormatBool(e.IsMandatory()) +
			`,"new":` + strconv.FormatBool(e.IsNew())
		if err := f.emit(text); err != nil {
			return err
		}
		frame.wroteSomething = true
		return nil
	}
	defer value.Release()

	text := `"type":` + strconv.Itoa(int(dataType)) +
		`,"ts":` + formatFloat(value.GetTimestamp()) +
		`,"mandatory":` + strconv.FormatBool(e.IsMandatory()) +
		`,"new":` + strconv.FormatBool(e.IsNew())
	if dataType != sample.Trigger {
		var jsonBuf [sample.MaxStringBytes + 64]byte
		n, _ := sample.ConvertToJSON(value, dataType, jsonBuf[:])
		text += `,"value":` + string(jsonBuf[:n])
	}
	if err := f.emit(text); err != nil {
		return err
	}
	frame.wroteSomething = true
	return nil
}

// EndNode closes the current NODE object.
func (f *Formatter) EndNode(e *tree.Entry) error {
	if err := f.emit("}"); err != nil {
		return err
	}
	f.stack = f.stack[:len(f.stack)-1]
	return nil
}

// EndPass flushes anything still buffered. The top-level object is closed
// by Finish, called once by the caller driving the Engine after every pass
// (one or two) has reported done. Finish is not part of the
// snapshot.Formatter interface, since it runs outside the tree walk.
func (f *Formatter) EndPass() error {
	return f.flush()
}

// Finish closes the top-level JSON object once every pass has completed:
// just the "upserted" NODE if no deletion pass ran, or "upserted" followed
// by "deleted" if it did. Each pass's own NODE tree was already closed by
// its root's EndNode call, so Finish only needs the final brace.
func (f *Formatter) Finish() error {
	return f.emit("}")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ snapshot.Formatter = (*Formatter)(nil)
