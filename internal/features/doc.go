// Package features derives the classifier input from a normalized credit
// report.
//
// A declarative feature map (Branch, Select and Leaf nodes) selects raw
// values from the record. Categorical fields are encoded to small integer
// codes, dependent counts are reconciled with the dependents' ages, loan
// terms are split into downpayment and term, a missing amortization is
// imputed with the loan solver and two ratios are added. The motorcycle
// model text goes through a Vectorizer.
//
// The result always follows ModelFeatures. Inputs that are missing or do
// not parse become NaN; nothing in a record makes Build fail. A feature
// map or vectorizer that cannot produce the published list is rejected by
// NewEngine with ErrFeatureContract.
//
// Usage:
//
//	engine, err := features.NewEngine(features.DefaultBagOfWords())
//	if err != nil {
//		return err
//	}
//	vec, details := engine.Build(&record)
package features
