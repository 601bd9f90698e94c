package dataprocessing

import (
	"strconv"
	"time"
)

// KeyValue is one raw key/value pair. An empty Value means the key had no
// value cell next to it.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// KeyValues is an insertion-ordered set of raw key/value pairs. The zero
// value is ready to use.
type KeyValues struct {
	items []KeyValue
	index map[string]int
}

// Set inserts key or overwrites its value in place
func (kv *KeyValues) Set(key, value string) {
	if kv.index == nil {
		kv.index = make(map[string]int)
	}
	if i, ok := kv.index[key]; ok {
		kv.items[i].Value = value
		return
	}
	kv.index[key] = len(kv.items)
	kv.items = append(kv.items, KeyValue{Key: key, Value: value})
}

// Add inserts a pair under a key that is unique within kv, appending _1,
// _2, ... to duplicates. It returns the key actually used.
func (kv *KeyValues) Add(key, value string) string {
	key = uniqueName(key, kv.Has)
	kv.Set(key, value)
	return key
}

// Get returns the value stored under key
func (kv *KeyValues) Get(key string) (string, bool) {
	if kv == nil || kv.index == nil {
		return "", false
	}
	i, ok := kv.index[key]
	if !ok {
		return "", false
	}
	return kv.items[i].Value, true
}

// Has reports whether key is present
func (kv *KeyValues) Has(key string) bool {
	_, ok := kv.Get(key)
	return ok
}

// Len returns the number of pairs
func (kv *KeyValues) Len() int {
	if kv == nil {
		return 0
	}
	return len(kv.items)
}

// Items returns the pairs in insertion order
func (kv *KeyValues) Items() []KeyValue {
	if kv == nil {
		return nil
	}
	out := make([]KeyValue, len(kv.items))
	copy(out, kv.items)
	return out
}

// uniqueName tries name, name_1, name_2, ... until taken reports false
func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for suffix := 1; ; suffix++ {
		candidate := name + "_" + strconv.Itoa(suffix)
		if !taken(candidate) {
			return candidate
		}
	}
}

// Subtable is a compressed tabular block: unique headers mapped to their
// column cells in row order.
type Subtable struct {
	Headers []string            `json:"headers"`
	Columns map[string][]string `json:"columns"`
}

// Column returns the cells under a header
func (s *Subtable) Column(header string) ([]string, bool) {
	if s == nil {
		return nil, false
	}
	col, ok := s.Columns[header]
	return col, ok
}

// PersonalData holds the two halves of the personal data block plus the
// fields decoded from fixed offsets.
type PersonalData struct {
	Applicant *KeyValues
	Spouse    *KeyValues
	Fixed     *KeyValues
}

// Subsection is a named key/value block inside the income section
type Subsection struct {
	Name   string
	Fields *KeyValues
}

// IncomeData holds the income source subsections (left half) and the
// income adjudication subsections (right half).
type IncomeData struct {
	Sources      []Subsection
	Adjudication []Subsection
}

// Adjudicated returns an adjudication subsection by name
func (d *IncomeData) Adjudicated(name string) *KeyValues {
	return findSubsection(d.Adjudication, name)
}

// Source returns an income source subsection by name
func (d *IncomeData) Source(name string) *KeyValues {
	return findSubsection(d.Sources, name)
}

func findSubsection(subs []Subsection, name string) *KeyValues {
	for _, s := range subs {
		if s.Name == name {
			return s.Fields
		}
	}
	return nil
}

// SectionResult is the outcome of parsing one section: either a value or
// the reason the section is absent.
type SectionResult[T any] struct {
	Value T
	Err   error
}

// Present reports whether the section produced a value
func (r SectionResult[T]) Present() bool {
	return r.Err == nil
}

func present[T any](v T) SectionResult[T] {
	return SectionResult[T]{Value: v}
}

func absent[T any](s Section, err error) SectionResult[T] {
	if _, ok := err.(*SectionError); !ok {
		err = &SectionError{Section: s, Err: err}
	}
	return SectionResult[T]{Err: err}
}

// ParsedRecord is the raw, not yet normalized content of one report.
// Sections that could not be parsed are nil and listed in Skipped.
type ParsedRecord struct {
	Filename     string
	LastModified time.Time
	Bounds       SectionBounds

	PersonalData *PersonalData
	IncomeData   *IncomeData
	Assessment   *KeyValues
	Subtables    map[Section]*Subtable

	Skipped map[Section]error
}

// Subtable returns a parsed subtable or nil
func (p *ParsedRecord) Subtable(s Section) *Subtable {
	if p == nil || p.Subtables == nil {
		return nil
	}
	return p.Subtables[s]
}
