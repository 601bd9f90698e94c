package features

import (
	"creditfile/pkg/contracts/domain"
)

// MapNode is one node of a declarative feature map. It is one of Branch,
// Select or Leaf.
type MapNode interface {
	isMapNode()
}

// Branch descends into named children of the current record node
type Branch []Child

// Child pairs a record key with the map node applied below it
type Child struct {
	Key  string
	Node MapNode
}

// Select copies fields of the current node under new names
type Select []Rename

// Rename maps a record field onto an output name
type Rename struct {
	Field   string
	Feature string
}

// Leaf stores the current node's value under an output name
type Leaf string

func (Branch) isMapNode() {}
func (Select) isMapNode() {}
func (Leaf) isMapNode()   {}

// DefaultFeatureMap selects the record fields the derivations read
var DefaultFeatureMap MapNode = Branch{
	{"filename", Leaf("info__filename")},
	{"last_modified", Leaf("info__last_modified")},
	{"personal_data", Select{
		{"unit_applied", "motorcycle_model"},
		{"loan_terms", "loan_terms"},
		{"loan_amount", "loan_amount"},
		{"dependent_ages", "dependent_ages"},
		{"n_dependents", "n_dependents"},
		{"n_children", "n_children"},
		{"age", "age"},
		{"education", "education"},
		{"housing_status", "housing_status"},
		{"marital_status", "marital_status"},
		{"spouse__education", "spouse_education"},
	}},
	{"income_analysis", Branch{
		{"income", Select{
			{"applicant", "employment_income"},
			{"business", "business_income"},
			{"spouse", "spouse_income"},
		}},
		{"summary", Select{
			{"gross_income", "gross_income"},
			{"monthly_amortization", "monthly_amortization"},
		}},
	}},
}

// Extract walks a feature map over a record tree. Paths absent from the
// record yield the missing value, so every output name of the map is
// always present in the result.
func Extract(m MapNode, root domain.Node) map[string]domain.Value {
	out := make(map[string]domain.Value)
	extract(m, root, out)
	return out
}

func extract(m MapNode, n domain.Node, out map[string]domain.Value) {
	switch m := m.(type) {
	case Branch:
		for _, c := range m {
			extract(c.Node, n.Child(c.Key), out)
		}
	case Select:
		for _, r := range m {
			out[r.Feature] = n.Child(r.Field).Value
		}
	case Leaf:
		out[string(m)] = n.Value
	}
}

// Outputs lists the names a feature map produces, in map order
func Outputs(m MapNode) []string {
	var names []string
	var walk func(MapNode)
	walk = func(m MapNode) {
		switch m := m.(type) {
		case Branch:
			for _, c := range m {
				walk(c.Node)
			}
		case Select:
			for _, r := range m {
				names = append(names, r.Feature)
			}
		case Leaf:
			names = append(names, string(m))
		}
	}
	walk(m)
	return names
}
