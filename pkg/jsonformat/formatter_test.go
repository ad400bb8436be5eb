package jsonformat

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/galpt/datahub/pkg/resource"
	"github.com/galpt/datahub/pkg/sample"
	"github.com/galpt/datahub/pkg/snapshot"
	"github.com/galpt/datahub/pkg/tree"
)

// limitedSink accepts at most maxPerWrite bytes per TryWrite call, to
// exercise the formatter's partial-flush/retry path without needing a real
// blocking consumer.
type limitedSink struct {
	buf         bytes.Buffer
	maxPerWrite int
}

func (s *limitedSink) TryWrite(p []byte) (int, error) {
	n := len(p)
	if n > s.maxPerWrite {
		n = s.maxPerWrite
	}
	s.buf.Write(p[:n])
	return n, nil
}

func buildTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New()
	temp, err := resource.CreateInput(tr, "/orig/app/temp", sample.Numeric, "")
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	v := sample.CreateNumeric(2, 21.5)
	defer v.Release()
	if err := temp.Push(sample.Numeric, "", 2, v); err != nil {
		t.Fatalf("Push: %v", err)
	}
	flag, err := resource.CreateOutput(tr, "/orig/app/armed", sample.Boolean, "")
	if err != nil {
		t.Fatalf("CreateOutput: %v", err)
	}
	b := sample.CreateBool(3, true)
	defer b.Release()
	if err := flag.Push(sample.Boolean, "", 3, b); err != nil {
		t.Fatalf("Push: %v", err)
	}
	return tr
}

func runToCompletion(t *testing.T, eng *snapshot.Engine) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		done, err := eng.Run()
		if err != nil && err != snapshot.ErrWouldBlock {
			t.Fatalf("Run: %v", err)
		}
		if done {
			return
		}
	}
	t.Fatalf("engine did not complete within iteration budget")
}

func TestFormatterProducesValidJSON(t *testing.T) {
	tr := buildTree(t)
	sink := &limitedSink{maxPerWrite: 8}
	f := New(sink)
	eng := snapshot.New(tr, f, 0, 100, snapshot.FilterCreated|snapshot.FilterNormal, false)
	runToCompletion(t, eng)
	if err := f.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(sink.buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, sink.buf.String())
	}
	if decoded["root"] != "/" {
		t.Fatalf(`decoded["root"] = %v, want "/"`, decoded["root"])
	}
	upserted, ok := decoded["upserted"].(map[string]any)
	if !ok {
		t.Fatalf("upserted is not an object: %v", decoded["upserted"])
	}
	orig, ok := upserted["orig"].(map[string]any)
	if !ok {
		t.Fatalf("missing nested orig namespace: %v", upserted)
	}
	app, ok := orig["app"].(map[string]any)
	if !ok {
		t.Fatalf("missing nested app namespace: %v", orig)
	}
	temp, ok := app["temp"].(map[string]any)
	if !ok {
		t.Fatalf("missing temp leaf: %v", app)
	}
	if temp["type"] != float64(sample.Numeric) || temp["value"].(float64) != 21.5 {
		t.Fatalf("temp leaf = %v, want type %d value 21.5", temp, sample.Numeric)
	}
	if _, hasValue := temp["value"]; !hasValue {
		t.Fatalf("temp leaf = %v, want a \"value\" key (it is NUMERIC, not TRIGGER)", temp)
	}
}

func TestFormatterOmitsValueForTrigger(t *testing.T) {
	tr := tree.New()
	pulse, err := resource.CreateInput(tr, "/orig/pulse", sample.Trigger, "")
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	trig := sample.CreateTrigger(1)
	defer trig.Release()
	if err := pulse.Push(sample.Trigger, "", 1, trig); err != nil {
		t.Fatalf("Push: %v", err)
	}

	sink := &limitedSink{maxPerWrite: 4096}
	f := New(sink)
	eng := snapshot.New(tr, f, 0, 100, snapshot.FilterCreated|snapshot.FilterNormal, false)
	runToCompletion(t, eng)
	if err := f.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(sink.buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, sink.buf.String())
	}
	upserted := decoded["upserted"].(map[string]any)
	orig := upserted["orig"].(map[string]any)
	leaf := orig["pulse"].(map[string]any)
	if _, hasValue := leaf["value"]; hasValue {
		t.Fatalf("pulse leaf = %v, want no \"value\" key for TRIGGER", leaf)
	}
	if leaf["type"] != float64(sample.Trigger) {
		t.Fatalf("pulse leaf type = %v, want %d", leaf["type"], sample.Trigger)
	}
}

func TestFormatterDeletedPassNestsNode(t *testing.T) {
	tr := buildTree(t)
	gone, err := tr.FindEntry("/orig/app/temp")
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	tr.MarkDeleted(gone)

	sink := &limitedSink{maxPerWrite: 4096}
	f := New(sink)

	upsertEng := snapshot.New(tr, f, 0, 100, snapshot.FilterCreated|snapshot.FilterNormal, false)
	runToCompletion(t, upsertEng)

	delEng := snapshot.New(tr, f, 0, 100, snapshot.FilterDeleted, true)
	runToCompletion(t, delEng)
	if err := f.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(sink.buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, sink.buf.String())
	}
	deleted, ok := decoded["deleted"].(map[string]any)
	if !ok {
		t.Fatalf("deleted is not an object: %v", decoded["deleted"])
	}
	deletedOrig, ok := deleted["orig"].(map[string]any)
	if !ok {
		t.Fatalf("missing nested orig namespace under deleted: %v", deleted)
	}
	deletedApp, ok := deletedOrig["app"].(map[string]any)
	if !ok {
		t.Fatalf("missing nested app namespace under deleted: %v", deletedOrig)
	}
	if _, ok := deletedApp["temp"]; !ok {
		t.Fatalf("missing deleted temp leaf, nested NODE expected: %v", deletedApp)
	}
	if _, ok := deletedApp["armed"]; ok {
		t.Fatalf("armed was never deleted, should not appear under deleted: %v", deletedApp)
	}
}

func TestChanSinkBackpressureAndDrain(t *testing.T) {
	sink := NewChanSink(1)
	n, err := sink.TryWrite([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("first TryWrite: n=%d err=%v", n, err)
	}
	if n, err := sink.TryWrite([]byte("world")); err != nil || n != 0 {
		t.Fatalf("expected backpressure on full channel, got n=%d err=%v", n, err)
	}
	sink.Close()

	buf := make([]byte, 2)
	var out []byte
	for {
		n, err := sink.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if string(out) != "hello" {
		t.Fatalf("drained = %q, want %q", out, "hello")
	}
}
