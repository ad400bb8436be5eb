package hub

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/galpt/datahub/pkg/sample"
)

func drainSink(t *testing.T, r io.Reader) []byte {
	t.Helper()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("io.ReadAll: %v", err)
	}
	return out
}

func TestPublishAndObserve(t *testing.T) {
	h := New()
	res, err := h.CreateInput("/app/a/x", sample.Numeric, "")
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	var gotTS float64
	var gotValue float64
	if _, err := h.AddPushHandler("/app/a/x", sample.Numeric, func(value *sample.Sample, dataType sample.DataType) {
		gotTS = value.GetTimestamp()
		gotValue = value.GetNumeric()
	}); err != nil {
		t.Fatalf("AddPushHandler: %v", err)
	}

	v := sample.CreateNumeric(1, 42)
	defer v.Release()
	if err := res.Push(sample.Numeric, "", 1, v); err != nil {
		t.Fatalf("push: %v", err)
	}
	if gotTS != 1 || gotValue != 42 {
		t.Fatalf("handler saw (%v,%v), want (1,42)", gotTS, gotValue)
	}

	sink, err := h.TakeSnapshot(FormatJSON, 0, "/", BeginningOfTime)
	if err != nil {
		t.Fatalf("TakeSnapshot: %v", err)
	}
	out := drainSink(t, sink)
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("snapshot output is not valid JSON: %v\noutput: %s", err, out)
	}
	upserted := decoded["upserted"].(map[string]any)
	app := upserted["app"].(map[string]any)
	a := app["a"].(map[string]any)
	x := a["x"].(map[string]any)
	if x["type"] != float64(sample.Numeric) || x["value"].(float64) != 42 {
		t.Fatalf("x leaf = %v, want type %d value 42", x, sample.Numeric)
	}
	if x["new"] != true {
		t.Fatalf("x leaf = %v, want new:true (never observed by a prior pass)", x)
	}
	if x["mandatory"] != false {
		t.Fatalf("x leaf = %v, want mandatory:false (default)", x)
	}
}

func TestRouteWithOverride(t *testing.T) {
	h := New()
	if _, err := h.CreateInput("/in", sample.Boolean, ""); err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	if _, err := h.CreateObservation("/obs/o"); err != nil {
		t.Fatalf("CreateObservation: %v", err)
	}
	if err := h.SetSource("/obs/o", "/in"); err != nil {
		t.Fatalf("SetSource: %v", err)
	}
	ov := sample.CreateBool(0, true)
	defer ov.Release()
	if err := h.SetOverride("/obs/o", sample.Boolean, ov); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}

	var got bool
	if _, err := h.AddPushHandler("/obs/o", sample.Boolean, func(value *sample.Sample, dataType sample.DataType) {
		got = value.GetBool()
	}); err != nil {
		t.Fatalf("AddPushHandler: %v", err)
	}

	in, err := h.CreateInput("/in", sample.Boolean, "")
	if err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	v := sample.CreateBool(1, false)
	defer v.Release()
	if err := in.Push(sample.Boolean, "", 1, v); err != nil {
		t.Fatalf("push: %v", err)
	}
	if !got {
		t.Fatalf("expected override to substitute true regardless of pushed false")
	}
}

func TestCycleRejection(t *testing.T) {
	h := New()
	for _, p := range []string{"/a", "/b", "/c"} {
		if _, err := h.CreateObservation(p); err != nil {
			t.Fatalf("CreateObservation(%s): %v", p, err)
		}
	}
	if err := h.SetSource("/b", "/a"); err != nil {
		t.Fatalf("SetSource(b,a): %v", err)
	}
	if err := h.SetSource("/c", "/b"); err != nil {
		t.Fatalf("SetSource(c,b): %v", err)
	}
	if err := h.SetSource("/a", "/c"); err == nil {
		t.Fatalf("expected cycle rejection routing a from c")
	}
}

func TestDeletionTrackingSnapshot(t *testing.T) {
	h := New()
	if _, err := h.CreateInput("/app/a/tmp", sample.Numeric, ""); err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	if _, err := h.CreateInput("/app/a/keep", sample.Numeric, ""); err != nil {
		t.Fatalf("CreateInput: %v", err)
	}
	v := sample.CreateNumeric(1, 1)
	defer v.Release()
	keep, _ := h.CreateInput("/app/a/keep", sample.Numeric, "")
	if err := keep.Push(sample.Numeric, "", 1, v); err != nil {
		t.Fatalf("push: %v", err)
	}

	h.tree.StartUpdate()
	tmpEntry, err := h.tree.FindEntry("/app/a/tmp")
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	h.tree.MarkDeleted(tmpEntry)
	h.tree.EndUpdate()

	sink, err := h.TakeSnapshot(FormatJSON, FlushDeletions, "/", BeginningOfTime)
	if err != nil {
		t.Fatalf("TakeSnapshot: %v", err)
	}
	out := drainSink(t, sink)
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("snapshot output is not valid JSON: %v\noutput: %s", err, out)
	}
	upserted := decoded["upserted"].(map[string]any)
	upApp := upserted["app"].(map[string]any)
	upA := upApp["a"].(map[string]any)
	if _, ok := upA["tmp"]; ok {
		t.Fatalf("expected deleted /app/a/tmp to be absent from \"upserted\", got %v", upA)
	}
	if _, ok := upA["keep"]; !ok {
		t.Fatalf("expected /app/a/keep to still be present in \"upserted\", got %v", upA)
	}

	deleted := decoded["deleted"].(map[string]any)
	delApp := deleted["app"].(map[string]any)
	delA := delApp["a"].(map[string]any)
	if _, ok := delA["tmp"]; !ok {
		t.Fatalf("deleted tree = %v, want a nested \"tmp\" NODE", deleted)
	}
	if _, ok := delA["keep"]; ok {
		t.Fatalf("expected /app/a/keep to be absent from \"deleted\", got %v", delA)
	}

	sink2, err := h.TakeSnapshot(FormatJSON, FlushDeletions, "/", BeginningOfTime)
	if err != nil {
		t.Fatalf("second TakeSnapshot: %v", err)
	}
	out2 := drainSink(t, sink2)
	var decoded2 map[string]any
	if err := json.Unmarshal(out2, &decoded2); err != nil {
		t.Fatalf("second snapshot output is not valid JSON: %v\noutput: %s", err, out2)
	}
	deleted2 := decoded2["deleted"].(map[string]any)
	if len(deleted2) != 0 {
		t.Fatalf("expected no deletions reported on second flush (tmp was already reaped), got %v", deleted2)
	}
}

func TestTakeSnapshotBusy(t *testing.T) {
	h := New()
	h.mu.Lock()
	h.snapshotInFlight = true
	h.mu.Unlock()
	if _, err := h.TakeSnapshot(FormatJSON, 0, "/", BeginningOfTime); err == nil {
		t.Fatalf("expected Busy while a snapshot is already in flight")
	}
	h.mu.Lock()
	h.snapshotInFlight = false
	h.mu.Unlock()
}

func TestPolicyDumpReflectsAdminSettings(t *testing.T) {
	h := New()
	def := sample.CreateNumeric(0, 10)
	defer def.Release()
	if err := h.SetDefault("/a/b", sample.Numeric, def); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if err := h.SetRange("/a/b", 0, 100); err != nil {
		t.Fatalf("SetRange: %v", err)
	}

	dump, err := h.DumpPolicy("/a/b")
	if err != nil {
		t.Fatalf("DumpPolicy: %v", err)
	}
	if !dump.HasDefault || dump.DefaultValue != "10.000000" {
		t.Fatalf("dump.DefaultValue = %q, want \"10.000000\"", dump.DefaultValue)
	}
	if !dump.HasRange || dump.Low != 0 || dump.High != 100 {
		t.Fatalf("dump range = (%v,%v,%v), want (true,0,100)", dump.HasRange, dump.Low, dump.High)
	}

	encoded, err := json.Marshal(dump)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var roundTripped PolicyDump
	if err := json.Unmarshal(encoded, &roundTripped); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if diff := cmp.Diff(dump, roundTripped); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
