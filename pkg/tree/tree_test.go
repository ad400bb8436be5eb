package tree

import "testing"

func TestGetOrCreateEntryBuildsNamespaces(t *testing.T) {
	tr := New()
	e, err := tr.GetOrCreateEntry("/orig/app/value", Input)
	if err != nil {
		t.Fatalf("GetOrCreateEntry: %v", err)
	}
	if e.Type() != Input {
		t.Fatalf("type = %v, want Input", e.Type())
	}
	if e.Path() != "/orig/app/value" {
		t.Fatalf("Path() = %q", e.Path())
	}

	app, err := tr.FindEntry("/orig/app")
	if err != nil {
		t.Fatalf("FindEntry(/orig/app): %v", err)
	}
	if app.Type() != Namespace {
		t.Fatalf("intermediate entry type = %v, want Namespace", app.Type())
	}
}

func TestGetOrCreateEntryDuplicateTypeMismatch(t *testing.T) {
	tr := New()
	if _, err := tr.GetOrCreateEntry("/a/b", Input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := tr.GetOrCreateEntry("/a/b", Output); err == nil {
		t.Fatalf("expected duplicate error for type mismatch")
	}
}

func TestPlaceholderPromotion(t *testing.T) {
	tr := New()
	ph, err := tr.GetOrCreateEntry("/a/b", Placeholder)
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if ph.Type() != Placeholder {
		t.Fatalf("type = %v, want Placeholder", ph.Type())
	}
	promoted, err := tr.GetOrCreateEntry("/a/b", Input)
	if err != nil {
		t.Fatalf("promote placeholder: %v", err)
	}
	if promoted != ph || promoted.Type() != Input {
		t.Fatalf("placeholder was not promoted in place, got type %v", promoted.Type())
	}
}

func TestFindEntryNotFound(t *testing.T) {
	tr := New()
	if _, err := tr.FindEntry("/missing/path"); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestMarkDeletedHidesFromDefaultIteration(t *testing.T) {
	tr := New()
	_, _ = tr.GetOrCreateEntry("/a/keep", Input)
	toDelete, _ := tr.GetOrCreateEntry("/a/gone", Input)
	tr.MarkDeleted(toDelete)

	a, _ := tr.FindEntry("/a")
	var visible []string
	for c := a.FirstChild(false); c != nil; c = c.NextSibling(false) {
		visible = append(visible, c.Name())
	}
	if len(visible) != 1 || visible[0] != "keep" {
		t.Fatalf("visible children = %v, want [keep]", visible)
	}

	var all []string
	for c := a.FirstChild(true); c != nil; c = c.NextSibling(true) {
		all = append(all, c.Name())
	}
	if len(all) != 2 {
		t.Fatalf("all children (including deleted) = %v, want 2 entries", all)
	}
}

func TestFlushDeletionsRemovesAndCollapsesEmptyNamespace(t *testing.T) {
	tr := New()
	e, _ := tr.GetOrCreateEntry("/solo/only", Input)
	tr.MarkDeleted(e)
	tr.FlushDeletions()

	if _, err := tr.FindEntry("/solo/only"); err == nil {
		t.Fatalf("expected entry to be gone after flush")
	}
	if _, err := tr.FindEntry("/solo"); err == nil {
		t.Fatalf("expected now-empty namespace to be collapsed after flush")
	}
}

func TestSetDeletionTrackingFalseFlushesImmediately(t *testing.T) {
	tr := New()
	e, _ := tr.GetOrCreateEntry("/a/b", Input)
	tr.MarkDeleted(e)
	tr.SetDeletionTracking(false)
	if _, err := tr.FindEntry("/a/b"); err == nil {
		t.Fatalf("expected immediate flush when deletion tracking disabled")
	}
}

func TestTouchUpdatesLastModifiedMonotonically(t *testing.T) {
	tr := New()
	e, _ := tr.GetOrCreateEntry("/a", Input)
	e.Touch(5)
	e.Touch(3)
	if e.LastModified() != 5 {
		t.Fatalf("LastModified() = %v, want 5 (monotonic, should ignore the earlier timestamp)", e.LastModified())
	}
	e.Touch(9)
	if e.LastModified() != 9 {
		t.Fatalf("LastModified() = %v, want 9", e.LastModified())
	}
}
