package sample

import (
	"testing"

	"github.com/galpt/datahub/pkg/herrors"
)

func TestCreateAndGet(t *testing.T) {
	cases := []struct {
		name string
		run  func() *Sample
		want string
		dt   DataType
	}{
		{"trigger", func() *Sample { return CreateTrigger(0) }, "", Trigger},
		{"bool-true", func() *Sample { return CreateBool(0, true) }, "true", Boolean},
		{"bool-false", func() *Sample { return CreateBool(0, false) }, "false", Boolean},
		{"numeric", func() *Sample { return CreateNumeric(0, 3.5) }, "3.500000", Numeric},
		{"string", func() *Sample { return CreateString(0, "hello") }, "hello", String},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := c.run()
			defer s.Release()
			got := AsString(s, c.dt)
			if got != c.want {
				t.Errorf("AsString() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestCreateTriggerNowSentinel(t *testing.T) {
	s := CreateTrigger(Now)
	defer s.Release()
	if s.GetTimestamp() == Now {
		t.Fatalf("Now sentinel was not resolved to wall-clock time")
	}
	if s.GetTimestamp() <= 0 {
		t.Fatalf("resolved timestamp should be a positive epoch value, got %v", s.GetTimestamp())
	}
}

func TestCopyIndependentOwnership(t *testing.T) {
	orig := CreateString(10, "payload")
	defer orig.Release()
	cp := Copy(String, orig)
	defer cp.Release()
	if cp.GetString() != orig.GetString() {
		t.Fatalf("copy payload mismatch: got %q want %q", cp.GetString(), orig.GetString())
	}
	if cp == orig {
		t.Fatalf("Copy returned the same sample instance")
	}
}

func TestRefCountingReleasesStringPool(t *testing.T) {
	s := CreateString(0, "shared")
	s.AddRef()
	s.Release()
	if s.GetString() != "shared" {
		t.Fatalf("sample released early: payload corrupted after first Release with outstanding ref")
	}
	s.Release()
}

func TestStringToJSONEscaping(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a\"b", `a\"b`},
		{"a\\b", `a\\b`},
		{"line\nbreak", `line\nbreak`},
		{"tab\there", `tab\there`},
		{"\x01", ``},
		{"\x1f", ``},
		{"café", "café"},
	}
	for _, c := range cases {
		dst := make([]byte, 256)
		n, err := StringToJSON(dst, c.in)
		if err != nil {
			t.Fatalf("StringToJSON(%q) error: %v", c.in, err)
		}
		if string(dst[:n]) != c.want {
			t.Errorf("StringToJSON(%q) = %q, want %q", c.in, string(dst[:n]), c.want)
		}
	}
}

func TestStringToJSONOverflow(t *testing.T) {
	dst := make([]byte, 2)
	_, err := StringToJSON(dst, "abcdef")
	if err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestJSONToStringMinimalUnescape(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`"hello"`, "hello"},
		{`hello`, "hello"},
		{`a\"b`, `a"b`},
		{`line\nbreak`, "linenbreak"}, // minimal unescape: drops backslash, keeps 'n' literally
		{`trailing\`, "trailing"},     // lone trailing backslash silently stripped
	}
	for _, c := range cases {
		dst := make([]byte, 256)
		n, err := JSONToString(dst, c.in)
		if err != nil {
			t.Fatalf("JSONToString(%q) error: %v", c.in, err)
		}
		if string(dst[:n]) != c.want {
			t.Errorf("JSONToString(%q) = %q, want %q", c.in, string(dst[:n]), c.want)
		}
	}
}

func TestConvertToJSONZeroDestOverflowsEvenOnEmptySource(t *testing.T) {
	trig := CreateTrigger(0)
	defer trig.Release()
	if _, err := ConvertToJSON(trig, Trigger, nil); err != herrors.ErrOverflow {
		t.Fatalf("ConvertToJSON(Trigger, nil dst) error = %v, want Overflow", err)
	}
	if _, err := ConvertToString(trig, Trigger, nil); err != herrors.ErrOverflow {
		t.Fatalf("ConvertToString(Trigger, nil dst) error = %v, want Overflow", err)
	}
	if _, err := StringToJSON(nil, ""); err != herrors.ErrOverflow {
		t.Fatalf("StringToJSON(nil dst, \"\") error = %v, want Overflow", err)
	}
	if _, err := JSONToString(nil, ""); err != herrors.ErrOverflow {
		t.Fatalf("JSONToString(nil dst, \"\") error = %v, want Overflow", err)
	}
}

func TestConvertToJSONStringQuotesAndEscapes(t *testing.T) {
	s := CreateString(0, `say "hi"`)
	defer s.Release()
	dst := make([]byte, 64)
	n, err := ConvertToJSON(s, String, dst)
	if err != nil {
		t.Fatalf("ConvertToJSON error: %v", err)
	}
	want := `"say \"hi\""`
	if string(dst[:n]) != want {
		t.Errorf("ConvertToJSON() = %q, want %q", string(dst[:n]), want)
	}
}

func TestExtractJSONNotImplemented(t *testing.T) {
	s := CreateJSON(0, `{"a":1}`)
	defer s.Release()
	_, _, err := ExtractJSON(s, "$.a")
	if err == nil {
		t.Fatalf("expected ExtractJSON to report not implemented")
	}
}
