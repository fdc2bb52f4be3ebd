package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// ErrUnknownStrategy se devuelve al resolver un nombre que no está registrado.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy define el contrato de una estrategia de señales.
// Evaluate debe ser pura respecto al contexto: no guarda estado entre pasos
// y solo usa lo que el EvaluationContext expone.
// El runner comparte una misma instancia entre workers.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia.
	Name() string

	// Evaluate devuelve una señal o nil si no hay opinión en este instante.
	// Un error indica un fallo de la estrategia, no "sin señal".
	Evaluate(ec domain.EvaluationContext) (*domain.Signal, error)
}

// Registry mantiene las estrategias disponibles indexadas por nombre.
// Se construye al arrancar y después solo se lee.
type Registry map[string]Strategy

// NewRegistry crea un registry con las estrategias dadas.
func NewRegistry(strategies ...Strategy) Registry {
	r := make(Registry, len(strategies))
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Default devuelve el registry con las estrategias incluidas.
func Default() Registry {
	return NewRegistry(
		NewMomentum(DefaultMomentumConfig()),
		NewMeanReversion(DefaultMeanReversionConfig()),
		NewRelativeStrength(DefaultRelativeStrengthConfig()),
	)
}

// Register añade una estrategia al registry.
func (r Registry) Register(s Strategy) {
	r[s.Name()] = s
}

// Get devuelve la estrategia por nombre.
func (r Registry) Get(name string) (Strategy, bool) {
	s, ok := r[name]
	return s, ok
}

// Resolve es como Get pero un nombre desconocido es un error explícito.
func (r Registry) Resolve(name string) (Strategy, error) {
	s, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("strategy.Resolve %q: %w", name, ErrUnknownStrategy)
	}
	return s, nil
}

// List devuelve los nombres registrados ordenados.
func (r Registry) List() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
