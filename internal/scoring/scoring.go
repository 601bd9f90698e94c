package scoring

import (
	"embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"

	"creditfile/pkg/contracts/domain"
)

//go:embed artifacts/model.yaml
var artifactFS embed.FS

const defaultArtifact = "artifacts/model.yaml"

const (
	// MinScore and MaxScore bound the credit score
	MinScore = 1
	MaxScore = 100
)

// ErrModelArtifact is returned for model artifacts that cannot be used
// with the published feature list
var ErrModelArtifact = errors.New("invalid model artifact")

// Classifier turns a feature vector into a raw delinquency score
type Classifier interface {
	Predict(features []float64) (float64, error)
}

// Scaler maps a raw delinquency score onto [0, 1]
type Scaler interface {
	Scale(raw float64) float64
}

// Scorer combines a classifier and a scaler into a 1-100 credit score.
// Higher scores mean lower delinquency risk.
type Scorer struct {
	classifier Classifier
	scaler     Scaler
}

// NewScorer creates a scorer
func NewScorer(classifier Classifier, scaler Scaler) *Scorer {
	return &Scorer{classifier: classifier, scaler: scaler}
}

// Model names the classifier when it reports a name
func (s *Scorer) Model() string {
	if named, ok := s.classifier.(interface{ ModelName() string }); ok {
		return named.ModelName()
	}
	return ""
}

// Score computes round((1 - scaled) * 100) clamped to [1, 100]
func (s *Scorer) Score(vec domain.FeatureVector) (int, error) {
	raw, err := s.classifier.Predict(vec.Values)
	if err != nil {
		return 0, fmt.Errorf("predicting delinquency: %w", err)
	}
	return CreditScore(s.scaler.Scale(raw)), nil
}

// CreditScore converts a scaled delinquency score into a credit score
func CreditScore(scaled float64) int {
	if math.IsNaN(scaled) {
		return MinScore
	}
	score := math.RoundToEven((1 - scaled) * 100)
	return int(math.Max(MinScore, math.Min(MaxScore, score)))
}

// LinearModel is a weighted sum over named features. NaN features add
// nothing.
type LinearModel struct {
	Name      string
	intercept float64
	weights   []float64
}

// ModelName returns the artifact's name
func (m *LinearModel) ModelName() string {
	return m.Name
}

// Predict implements Classifier
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.weights) {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", ErrModelArtifact, len(m.weights), len(features))
	}
	raw := m.intercept
	for i, x := range features {
		if !math.IsNaN(x) {
			raw += m.weights[i] * x
		}
	}
	return raw, nil
}

// MinMaxScaler rescales [Min, Max] onto [0, 1]
type MinMaxScaler struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Scale implements Scaler
func (s MinMaxScaler) Scale(raw float64) float64 {
	return (raw - s.Min) / (s.Max - s.Min)
}

type artifact struct {
	Name      string             `yaml:"name"`
	Intercept float64            `yaml:"intercept"`
	Weights   map[string]float64 `yaml:"weights"`
	Scaler    MinMaxScaler       `yaml:"scaler"`
}

// LoadModel reads a YAML model artifact and binds its weights to the
// feature names, in order
func LoadModel(path string, featureNames []string) (*LinearModel, MinMaxScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, MinMaxScaler{}, fmt.Errorf("reading model: %w", err)
	}
	return ParseModel(data, featureNames)
}

// DefaultModel returns the baseline model built into the binary
func DefaultModel(featureNames []string) (*LinearModel, MinMaxScaler, error) {
	data, err := artifactFS.ReadFile(defaultArtifact)
	if err != nil {
		return nil, MinMaxScaler{}, fmt.Errorf("reading built-in model: %w", err)
	}
	return ParseModel(data, featureNames)
}

// ParseModel decodes a model artifact. Every weight must name one of
// featureNames and the scaler range must not be empty.
func ParseModel(data []byte, featureNames []string) (*LinearModel, MinMaxScaler, error) {
	var a artifact
	if err := yaml.UnmarshalStrict(data, &a); err != nil {
		return nil, MinMaxScaler{}, fmt.Errorf("%w: %v", ErrModelArtifact, err)
	}
	if !(a.Scaler.Max > a.Scaler.Min) {
		return nil, MinMaxScaler{}, fmt.Errorf("%w: scaler range [%g, %g] is empty", ErrModelArtifact, a.Scaler.Min, a.Scaler.Max)
	}

	index := make(map[string]int, len(featureNames))
	for i, name := range featureNames {
		index[name] = i
	}
	m := &LinearModel{
		Name:      a.Name,
		intercept: a.Intercept,
		weights:   make([]float64, len(featureNames)),
	}
	for name, w := range a.Weights {
		i, ok := index[name]
		if !ok {
			return nil, MinMaxScaler{}, fmt.Errorf("%w: weight for unknown feature %q", ErrModelArtifact, name)
		}
		m.weights[i] = w
	}
	return m, a.Scaler, nil
}
