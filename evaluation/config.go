package evaluation

import (
	"maps"
	"slices"
)

// DefaultTemperature applies when neither the caller nor the kind sets one.
const DefaultTemperature = 0.5

// DefaultOutputMaxLength applies when neither the caller nor the kind sets one.
const DefaultOutputMaxLength = 500

// Config configures one evaluator. Empty fields fall back to the kind's
// defaults when the evaluator is built.
type Config struct {
	Model string `mapstructure:"model" yaml:"model" json:"model"`
	// Temperature is recorded for reporting only; inference stays deterministic.
	Temperature     *float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature,omitempty"`
	OutputMaxLength int      `mapstructure:"output_max_length" yaml:"output_max_length" json:"output_max_length"`
	// Params go to the backend loader as is (device, top_k, ...).
	Params map[string]any `mapstructure:"params" yaml:"params" json:"params,omitempty"`
	// Labels restricts single-label evaluators to this vocabulary.
	Labels []string `mapstructure:"labels" yaml:"labels" json:"labels,omitempty"`
}

// Temp returns the temperature or DefaultTemperature when unset.
func (c Config) Temp() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

// WithDefaults fills every empty field of c from d.
func (c Config) WithDefaults(d Config) Config {
	out := c.clone()
	if out.Model == "" {
		out.Model = d.Model
	}
	if out.Temperature == nil && d.Temperature != nil {
		t := *d.Temperature
		out.Temperature = &t
	}
	if out.Temperature == nil {
		t := DefaultTemperature
		out.Temperature = &t
	}
	if out.OutputMaxLength <= 0 {
		out.OutputMaxLength = d.OutputMaxLength
	}
	if out.OutputMaxLength <= 0 {
		out.OutputMaxLength = DefaultOutputMaxLength
	}
	if out.Params == nil {
		out.Params = maps.Clone(d.Params)
	}
	if out.Params == nil {
		out.Params = map[string]any{}
	}
	if len(out.Labels) == 0 {
		out.Labels = slices.Clone(d.Labels)
	}
	return out
}

func (c Config) clone() Config {
	out := c
	if c.Temperature != nil {
		t := *c.Temperature
		out.Temperature = &t
	}
	out.Params = maps.Clone(c.Params)
	out.Labels = slices.Clone(c.Labels)
	return out
}

// Float64 is a helper for setting Temperature literals.
func Float64(v float64) *float64 { return &v }
