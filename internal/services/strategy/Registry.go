package strategy

import (
	"fmt"
	"math"
	"sort"
)

// ParamSpec describes one tunable parameter of a strategy.
type ParamSpec struct {
	Name    string
	Label   string
	Default float64
	Integer bool
}

// Definition is a registered strategy: its parameter schema and a constructor
// that receives a complete, type-checked parameter set.
type Definition struct {
	Name   string
	Label  string
	Params []ParamSpec
	build  func(p Params) Strategy
}

func (d Definition) spec(name string) (ParamSpec, bool) {
	for _, s := range d.Params {
		if s.Name == name {
			return s, true
		}
	}
	return ParamSpec{}, false
}

// Defaults returns the default parameter set.
func (d Definition) Defaults() Params {
	out := make(Params, len(d.Params))
	for _, s := range d.Params {
		out[s.Name] = s.Default
	}
	return out
}

type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns a registry holding the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}

	r.Register(Definition{
		Name:  CrossoverName,
		Label: "Moving Average Crossover",
		Params: []ParamSpec{
			{Name: "short_window", Label: "Short Window", Default: 20, Integer: true},
			{Name: "long_window", Label: "Long Window", Default: 50, Integer: true},
		},
		build: func(p Params) Strategy {
			return NewCrossoverStrategy(int(p["short_window"]), int(p["long_window"]))
		},
	})
	r.Register(Definition{
		Name:  OscillatorName,
		Label: "RSI Strategy",
		Params: []ParamSpec{
			{Name: "period", Label: "RSI Period", Default: 14, Integer: true},
			{Name: "lower", Label: "Oversold Threshold", Default: 30},
			{Name: "upper", Label: "Overbought Threshold", Default: 70},
		},
		build: func(p Params) Strategy {
			return NewOscillatorStrategy(int(p["period"]), p["lower"], p["upper"])
		},
	})
	r.Register(Definition{
		Name:  BandBreakoutName,
		Label: "Bollinger Bands",
		Params: []ParamSpec{
			{Name: "window", Label: "Window", Default: 20, Integer: true},
			{Name: "num_std", Label: "Std Dev Multiplier", Default: 2},
		},
		build: func(p Params) Strategy {
			return NewBandBreakoutStrategy(int(p["window"]), p["num_std"])
		},
	})

	return r
}

// Register adds or replaces a definition.
func (r *Registry) Register(def Definition) {
	r.defs[def.Name] = def
}

func (r *Registry) Lookup(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return def, nil
}

// Names lists registered strategies in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build constructs a validated strategy. Missing parameters take their
// defaults; unknown names and fractional values for integer parameters are rejected.
func (r *Registry) Build(name string, params Params) (Strategy, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	merged := def.Defaults()
	for k, v := range params {
		spec, ok := def.spec(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no parameter %q", ErrInvalidParams, name, k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParams, k, v)
		}
		if spec.Integer && v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParams, k, v)
		}
		merged[k] = v
	}

	s := def.build(merged)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
