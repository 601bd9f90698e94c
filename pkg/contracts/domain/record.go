package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Value is a normalized field value: either one text cell or a list of
// cells taken from a subtable column. The zero Value is the missing value.
type Value struct {
	text   string
	list   []string
	isList bool
}

// Text wraps a single cell. An empty cell is missing.
func Text(s string) Value {
	return Value{text: s}
}

// List wraps a column of cells. Empty cells stay in place.
func List(cells []string) Value {
	out := make([]string, len(cells))
	copy(out, cells)
	return Value{list: out, isList: true}
}

// Missing reports whether the value carries no observation. A list is
// missing when none of its cells holds text.
func (v Value) Missing() bool {
	if !v.isList {
		return v.text == ""
	}
	for _, c := range v.list {
		if c != "" {
			return false
		}
	}
	return true
}

// IsList reports whether the value is a list of cells
func (v Value) IsList() bool {
	return v.isList
}

// String returns the text, or the present list cells joined by ", "
func (v Value) String() string {
	if !v.isList {
		return v.text
	}
	parts := make([]string, 0, len(v.list))
	for _, c := range v.list {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, ", ")
}

// Items returns the list cells, or the text as a one element list
func (v Value) Items() []string {
	if v.isList {
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	}
	if v.text == "" {
		return nil
	}
	return []string{v.text}
}

// MarshalJSON renders text as a string, lists as arrays with null for empty
// cells and the missing scalar as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.isList {
		if v.text == "" {
			return []byte("null"), nil
		}
		return json.Marshal(v.text)
	}
	cells := make([]*string, len(v.list))
	for i := range v.list {
		if v.list[i] != "" {
			cells[i] = &v.list[i]
		}
	}
	return json.Marshal(cells)
}

// UnmarshalJSON accepts null, a string or an array of strings and nulls
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var cells []*string
		if err := json.Unmarshal(data, &cells); err != nil {
			return err
		}
		list := make([]string, len(cells))
		for i, c := range cells {
			if c != nil {
				list[i] = *c
			}
		}
		*v = Value{list: list, isList: true}
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("field value must be a string, list or null: %w", err)
		}
		*v = Text(s)
		return nil
	}
}

// Field is one named value
type Field struct {
	Name  string
	Value Value
}

// Fields is an insertion-ordered map of canonical field names to values.
// The zero value is an empty map ready to use.
type Fields struct {
	items []Field
	index map[string]int
}

// Set stores a value, replacing an existing one in place
func (f *Fields) Set(name string, v Value) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, ok := f.index[name]; ok {
		f.items[i].Value = v
		return
	}
	f.index[name] = len(f.items)
	f.items = append(f.items, Field{Name: name, Value: v})
}

// Get returns a value and whether the field is present
func (f Fields) Get(name string) (Value, bool) {
	i, ok := f.index[name]
	if !ok {
		return Value{}, false
	}
	return f.items[i].Value, true
}

// Value returns a field value, or the missing value
func (f Fields) Value(name string) Value {
	v, _ := f.Get(name)
	return v
}

// Has reports whether a field is present
func (f Fields) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Len returns the number of fields
func (f Fields) Len() int {
	return len(f.items)
}

// Names returns field names in insertion order
func (f Fields) Names() []string {
	names := make([]string, len(f.items))
	for i, it := range f.items {
		names[i] = it.Name
	}
	return names
}

// Items returns the fields in insertion order
func (f Fields) Items() []Field {
	out := make([]Field, len(f.items))
	copy(out, f.items)
	return out
}

// MarshalJSON renders the fields as an object in insertion order
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, it := range f.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(it.Name)
		if err != nil {
			return nil, err
		}
		val, err := it.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping its key order
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields must be a JSON object")
	}

	*f = Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected field name token %v", tok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		f.Set(name, v)
	}
	_, err = dec.Token()
	return err
}

// IncomeAnalysis holds the adjudicated income, expense and summary lines
type IncomeAnalysis struct {
	Income  Fields `json:"income"`
	Expense Fields `json:"expense"`
	Summary Fields `json:"summary"`
}

// NormalizedRecord is a credit report keyed by canonical field names. Every
// key belongs to the vocabulary of its section and absent data is simply not
// present, so a lookup yields the missing Value.
type NormalizedRecord struct {
	Filename            string         `json:"filename"`
	LastModified        string         `json:"last_modified"`
	PersonalData        Fields         `json:"personal_data"`
	IncomeSourceDetails Fields         `json:"income_source_details"`
	IncomeAnalysis      IncomeAnalysis `json:"income_analysis"`
	OfficerAssessment   Fields         `json:"officer_assessment"`
}

// Node is one level of a record seen as a tree. Children takes precedence
// over Fields when both hold a key.
type Node struct {
	Value    Value
	Fields   *Fields
	Children map[string]Node
}

// Child descends one level. An unknown key yields an empty node.
func (n Node) Child(key string) Node {
	if c, ok := n.Children[key]; ok {
		return c
	}
	if n.Fields != nil {
		return Node{Value: n.Fields.Value(key)}
	}
	return Node{}
}

// Tree exposes the record for path based lookups
func (r *NormalizedRecord) Tree() Node {
	return Node{Children: map[string]Node{
		"filename":              {Value: Text(r.Filename)},
		"last_modified":         {Value: Text(r.LastModified)},
		"personal_data":         {Fields: &r.PersonalData},
		"income_source_details": {Fields: &r.IncomeSourceDetails},
		"income_analysis": {Children: map[string]Node{
			"income":  {Fields: &r.IncomeAnalysis.Income},
			"expense": {Fields: &r.IncomeAnalysis.Expense},
			"summary": {Fields: &r.IncomeAnalysis.Summary},
		}},
		"officer_assessment": {Fields: &r.OfficerAssessment},
	}}
}
