package hub

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"

	"github.com/galpt/datahub/pkg/resource"
	"github.com/galpt/datahub/pkg/sample"
)

// PolicyDump is a point-in-time snapshot of one resource's admin-configured
// policy, for debug/introspection tooling (not part of the snapshot/query
// formatter surface, which stays JSON-only per the formatter's own
// contract). It hand-implements easyjson.Marshaler/Unmarshaler rather than
// using encoding/json reflection, the same shape "//go:generate easyjson
// -all" would produce, without ever invoking codegen.
type PolicyDump struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	DataType string `json:"dataType,omitempty"`
	Units    string `json:"units,omitempty"`

	HasDefault   bool   `json:"hasDefault"`
	DefaultType  string `json:"defaultType,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`

	HasOverride   bool   `json:"hasOverride"`
	OverrideType  string `json:"overrideType,omitempty"`
	OverrideValue string `json:"overrideValue,omitempty"`

	MinPeriod float64 `json:"minPeriod,omitempty"`

	HasRange bool    `json:"hasRange"`
	Low      float64 `json:"low,omitempty"`
	High     float64 `json:"high,omitempty"`

	HasChangeBy bool    `json:"hasChangeBy"`
	ChangeBy    float64 `json:"changeBy,omitempty"`

	BufferMaxCount     int     `json:"bufferMaxCount,omitempty"`
	BufferBackupPeriod float64 `json:"bufferBackupPeriod,omitempty"`
}

// DumpPolicy builds a PolicyDump for the resource at path.
func (h *Hub) DumpPolicy(path string) (PolicyDump, error) {
	res, err := h.mustFindResource(path)
	if err != nil {
		return PolicyDump{}, err
	}
	return dumpPolicy(path, res), nil
}

func dumpPolicy(path string, res *resource.Resource) PolicyDump {
	d := PolicyDump{
		Path:  path,
		Kind:  res.Kind().String(),
		Units: res.GetUnits(),
	}
	if dt, ok := res.GetDataType(); ok {
		d.DataType = dt.String()
	}
	if v, dt, ok := res.GetDefaultValue(); ok {
		d.HasDefault = true
		d.DefaultType = dt.String()
		d.DefaultValue = sample.AsJSON(v, dt)
		v.Release()
	}
	if v, dt, ok := res.GetOverrideValue(); ok {
		d.HasOverride = true
		d.OverrideType = dt.String()
		d.OverrideValue = sample.AsJSON(v, dt)
		v.Release()
	}
	d.MinPeriod = res.GetMinPeriod()
	if low, high, ok := res.GetRange(); ok {
		d.HasRange = true
		d.Low, d.High = low, high
	}
	if changeBy, ok := res.GetChangeBy(); ok {
		d.HasChangeBy = true
		d.ChangeBy = changeBy
	}
	d.BufferMaxCount = res.GetBufferMaxCount()
	d.BufferBackupPeriod = res.GetBufferBackupPeriod()
	return d
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (d PolicyDump) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"path":`)
	w.String(d.Path)
	w.RawString(`,"kind":`)
	w.String(d.Kind)
	if d.DataType != "" {
		w.RawString(`,"dataType":`)
		w.String(d.DataType)
	}
	if d.Units != "" {
		w.RawString(`,"units":`)
		w.String(d.Units)
	}
	w.RawString(`,"hasDefault":`)
	w.Bool(d.HasDefault)
	if d.HasDefault {
		w.RawString(`,"defaultType":`)
		w.String(d.DefaultType)
		w.RawString(`,"defaultValue":`)
		w.Raw([]byte(d.DefaultValue), nil)
	}
	w.RawString(`,"hasOverride":`)
	w.Bool(d.HasOverride)
	if d.HasOverride {
		w.RawString(`,"overrideType":`)
		w.String(d.OverrideType)
		w.RawString(`,"overrideValue":`)
		w.Raw([]byte(d.OverrideValue), nil)
	}
	if d.MinPeriod != 0 {
		w.RawString(`,"minPeriod":`)
		w.Float64(d.MinPeriod)
	}
	w.RawString(`,"hasRange":`)
	w.Bool(d.HasRange)
	if d.HasRange {
		w.RawString(`,"low":`)
		w.Float64(d.Low)
		w.RawString(`,"high":`)
		w.Float64(d.High)
	}
	w.RawString(`,"hasChangeBy":`)
	w.Bool(d.HasChangeBy)
	if d.HasChangeBy {
		w.RawString(`,"changeBy":`)
		w.Float64(d.ChangeBy)
	}
	if d.BufferMaxCount != 0 {
		w.RawString(`,"bufferMaxCount":`)
		w.Int(d.BufferMaxCount)
	}
	if d.BufferBackupPeriod != 0 {
		w.RawString(`,"bufferBackupPeriod":`)
		w.Float64(d.BufferBackupPeriod)
	}
	w.RawByte('}')
}

// UnmarshalEasyJSON implements easyjson.Unmarshaler.
func (d *PolicyDump) UnmarshalEasyJSON(l *jlexer.Lexer) {
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "path":
			d.Path = l.String()
		case "kind":
			d.Kind = l.String()
		case "dataType":
			d.DataType = l.String()
		case "units":
			d.Units = l.String()
		case "hasDefault":
			d.HasDefault = l.Bool()
		case "defaultType":
			d.DefaultType = l.String()
		case "defaultValue":
			if raw, err := l.Raw(); err == nil {
				d.DefaultValue = string(raw)
			}
		case "hasOverride":
			d.HasOverride = l.Bool()
		case "overrideType":
			d.OverrideType = l.String()
		case "overrideValue":
			if raw, err := l.Raw(); err == nil {
				d.OverrideValue = string(raw)
			}
		case "minPeriod":
			d.MinPeriod = l.Float64()
		case "hasRange":
			d.HasRange = l.Bool()
		case "low":
			d.Low = l.Float64()
		case "high":
			d.High = l.Float64()
		case "hasChangeBy":
			d.HasChangeBy = l.Bool()
		case "changeBy":
			d.ChangeBy = l.Float64()
		case "bufferMaxCount":
			d.BufferMaxCount = l.Int()
		case "bufferBackupPeriod":
			d.BufferBackupPeriod = l.Float64()
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

// MarshalJSON satisfies encoding/json.Marshaler via the hand-written
// easyjson encoder, so PolicyDump can be dropped into ordinary
// encoding/json-based code paths without that caller needing to know about
// jwriter.
func (d PolicyDump) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	d.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

// UnmarshalJSON is the encoding/json.Unmarshaler counterpart of MarshalJSON.
func (d *PolicyDump) UnmarshalJSON(data []byte) error {
	l := jlexer.Lexer{Data: data}
	d.UnmarshalEasyJSON(&l)
	return l.Error()
}

var (
	_ easyjson.Marshaler   = PolicyDump{}
	_ easyjson.Unmarshaler = (*PolicyDump)(nil)
)
