package statemachine

import (
	"fmt"
	"slices"

	"pet-admin-sync/internal/domain/entity"
)

// Rule describe una acción: desde qué estados, hacia cuál, quién la puede invocar
// y qué operación remota la materializa.
type Rule[S ~string, A ~string] struct {
	Action A

	// From vacío = cualquier estado declarado.
	From []S

	// To vacío = el status no cambia (p.ej. archive como flag ortogonal).
	To S

	Op    entity.Op
	Roles []entity.Role

	// Override: el destino lo elige quien invoca (cualquier estado declarado).
	Override bool
}

// Machine es la tabla de transiciones de un dominio.
type Machine[S ~string, A ~string] struct {
	statuses []S
	declared map[S]struct{}
	rules    map[A]Rule[S, A]
	order    []A
}

// New valida la tabla: estados y acciones declarados, sin acciones repetidas.
func New[S ~string, A ~string](statuses []S, rules ...Rule[S, A]) (*Machine[S, A], error) {
	m := &Machine[S, A]{
		statuses: append([]S(nil), statuses...),
		declared: make(map[S]struct{}, len(statuses)),
		rules:    make(map[A]Rule[S, A], len(rules)),
	}
	for _, s := range statuses {
		if s == "" {
			return nil, fmt.Errorf("statemachine: empty status")
		}
		m.declared[s] = struct{}{}
	}
	for _, r := range rules {
		if r.Action == "" {
			return nil, fmt.Errorf("statemachine: rule without action")
		}
		if _, dup := m.rules[r.Action]; dup {
			return nil, fmt.Errorf("statemachine: duplicated action %q", r.Action)
		}
		for _, s := range r.From {
			if !m.Declared(s) {
				return nil, fmt.Errorf("statemachine: action %q: %w: %q", r.Action, entity.ErrUndeclaredStatus, s)
			}
		}
		if r.To != "" && !m.Declared(r.To) {
			return nil, fmt.Errorf("statemachine: action %q: %w: %q", r.Action, entity.ErrUndeclaredStatus, r.To)
		}
		if len(r.Roles) == 0 {
			return nil, fmt.Errorf("statemachine: action %q without roles", r.Action)
		}
		m.rules[r.Action] = r
		m.order = append(m.order, r.Action)
	}
	return m, nil
}

// MustNew es New para tablas declaradas a nivel de paquete.
func MustNew[S ~string, A ~string](statuses []S, rules ...Rule[S, A]) *Machine[S, A] {
	m, err := New(statuses, rules...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Machine[S, A]) Declared(s S) bool {
	_, ok := m.declared[s]
	return ok
}

func (m *Machine[S, A]) Statuses() []S { return append([]S(nil), m.statuses...) }

func (m *Machine[S, A]) Actions() []A { return append([]A(nil), m.order...) }

func (m *Machine[S, A]) Rule(a A) (Rule[S, A], bool) {
	r, ok := m.rules[a]
	return r, ok
}

// CanTransition es el validador puro: existe la acción, el rol la puede invocar
// y el estado actual está en su origen.
func (m *Machine[S, A]) CanTransition(status S, action A, role entity.Role) bool {
	r, ok := m.rules[action]
	if !ok || !m.Declared(status) {
		return false
	}
	if !slices.Contains(r.Roles, role) {
		return false
	}
	return len(r.From) == 0 || slices.Contains(r.From, status)
}

// Target calcula el status resultante. target solo se usa en overrides.
func (m *Machine[S, A]) Target(status S, action A, role entity.Role, target S) (S, error) {
	r, ok := m.rules[action]
	if !ok {
		return status, fmt.Errorf("%w: %q", entity.ErrUnknownAction, action)
	}
	if !m.CanTransition(status, action, role) {
		return status, &entity.StaleEligibilityError{Action: string(action), Status: string(status)}
	}
	if r.Override {
		if !m.Declared(target) {
			return status, fmt.Errorf("%w: %q", entity.ErrUndeclaredStatus, target)
		}
		if target == status {
			return status, &entity.StaleEligibilityError{Action: string(action), Status: string(status)}
		}
		return target, nil
	}
	if r.To == "" {
		return status, nil
	}
	return r.To, nil
}

// Resolve busca la acción que materializa (op, target) desde status para role.
// Lo usa el backend para traducir PUT /status a una acción concreta.
func (m *Machine[S, A]) Resolve(status S, op entity.Op, target S, role entity.Role) (A, bool) {
	// Primero reglas con destino fijo, después overrides.
	for _, pass := range []bool{false, true} {
		for _, a := range m.order {
			r := m.rules[a]
			if r.Op != op || r.Override != pass {
				continue
			}
			if !m.CanTransition(status, a, role) {
				continue
			}
			if op == entity.OpStatus && !r.Override && r.To != target {
				continue
			}
			if r.Override && (target == status || !m.Declared(target)) {
				continue
			}
			return a, true
		}
	}
	var zero A
	return zero, false
}

// Adjacent indica si hay una regla (de cualquier rol) que lleve de from a to.
func (m *Machine[S, A]) Adjacent(from, to S) bool {
	for _, a := range m.order {
		r := m.rules[a]
		if len(r.From) > 0 && !slices.Contains(r.From, from) {
			continue
		}
		if r.Override && to != from && m.Declared(to) {
			return true
		}
		if r.To == to && r.To != from {
			return true
		}
	}
	return false
}

// Reaches indica si to es alcanzable desde from sin pasar por overrides.
func (m *Machine[S, A]) Reaches(from, to S) bool {
	if from == to {
		return true
	}
	seen := map[S]struct{}{from: {}}
	queue := []S{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, a := range m.order {
			r := m.rules[a]
			if r.Override || r.To == "" {
				continue
			}
			if len(r.From) > 0 && !slices.Contains(r.From, cur) {
				continue
			}
			if r.To == to {
				return true
			}
			if _, ok := seen[r.To]; ok {
				continue
			}
			seen[r.To] = struct{}{}
			queue = append(queue, r.To)
		}
	}
	return false
}

// Supersedes: el estado local ya refleja la transición a incoming o una posterior.
// Una arista directa local->incoming gana (ciclos como Matched<->Pending).
func (m *Machine[S, A]) Supersedes(local, incoming S) bool {
	if local == incoming {
		return true
	}
	if m.Adjacent(local, incoming) {
		return false
	}
	return m.Reaches(incoming, local)
}
