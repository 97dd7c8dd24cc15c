package physics

import (
	"fmt"
	"sort"

	"github.com/san-kum/odeiv/internal/ode"
)

// Model is one example system with everything an integration run needs.
type Model interface {
	Name() string
	System() ode.System

	// DefaultState returns a fresh copy of the canonical initial state.
	DefaultState() []float64

	// Window suggests an integration interval that shows the model's
	// characteristic behavior.
	Window() (t0, t1 float64)

	// Stiff reports whether the model needs an implicit method at
	// realistic tolerances.
	Stiff() bool
}

// Configurable is implemented by models with adjustable parameters.
// SetParam ignores names the model does not have; callers validate
// against GetParams first.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64)
}

var models = map[string]func() Model{
	"decay":       func() Model { return NewDecay() },
	"oscillator":  func() Model { return NewOscillator() },
	"pendulum":    func() Model { return NewPendulum() },
	"vanderpol":   func() Model { return NewVanDerPol() },
	"robertson":   func() Model { return NewRobertson() },
	"lorenz":      func() Model { return NewLorenz() },
	"brusselator": func() Model { return NewBrusselator() },
}

// Lookup builds a fresh model by name.
func Lookup(name string) (Model, error) {
	mk, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", ode.ErrInvalidArg, name)
	}
	return mk(), nil
}

// Names lists the registered models in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
