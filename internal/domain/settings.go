package domain

import (
	"fmt"
	"math"
)

// Default per-signal fusion weights.
const (
	DefaultVectorWeight = 0.5
	DefaultTextWeight   = 0.5
)

// Settings holds the immutable search configuration consumed by the engine.
// Loaded once at startup; never mutated afterward, so it is safe to share
// across concurrent searches.
type Settings struct {
	Database    string
	Collection  string
	VectorIndex string
	TextIndex   string
	VectorField string
	TextField   string

	// Per-signal fusion weights. Any finite value is accepted;
	// a weight of 0 effectively disables that signal.
	VectorWeight float64
	TextWeight   float64
}

// Validate checks that every name is non-empty and both weights are finite.
func (s Settings) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"database", s.Database},
		{"collection", s.Collection},
		{"vector_index", s.VectorIndex},
		{"text_index", s.TextIndex},
		{"vector_field", s.VectorField},
		{"text_field", s.TextField},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}

	for name, w := range map[string]float64{
		"vector_weight": s.VectorWeight,
		"text_weight":   s.TextWeight,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrConfiguration, name, w)
		}
	}
	return nil
}
