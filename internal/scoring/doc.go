// Package scoring turns feature vectors into credit scores.
//
// The trained model sits behind two small interfaces: a Classifier that
// returns a raw delinquency score and a Scaler that maps it onto [0, 1].
// Scorer converts the scaled value into a 1-100 credit score where higher
// is better. LinearModel and MinMaxScaler are YAML driven implementations;
// DefaultModel is a baseline artifact built into the binary.
package scoring
