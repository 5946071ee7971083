package lineup

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/DoyleJ11/siege-picker/internal/operator"
)

var ErrInsufficientOperators = errors.New("not enough owned operators for the selected side")
var ErrUnknownSide = errors.New("unknown side")

type Side string

const (
	SideAttack  Side = "Attack"
	SideDefense Side = "Defense"
)

func (s Side) Opposite() Side {
	if s == SideDefense {
		return SideAttack
	}
	return SideDefense
}

func (s Side) Role() operator.Role {
	if s == SideDefense {
		return operator.RoleDefender
	}
	return operator.RoleAttacker
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attack", "attacker":
		return SideAttack, nil
	case "defense", "defence", "defender":
		return SideDefense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
	}
}

// Slot is one lineup position. Label is empty for unlabeled slots.
type Slot struct {
	Operator operator.Operator `json:"operator"`
	Label    Side              `json:"label,omitempty"`
}

// Ownership is the part of the ownership store the selector needs.
type Ownership interface {
	IsOwned(id string) bool
}

type Selector struct {
	catalog *operator.Catalog

	mu  sync.Mutex
	rng *rand.Rand // nil uses the global source
}

type Option func(*Selector)

// WithRand makes draws reproducible. The selector serializes access to r.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) { s.rng = r }
}

func NewSelector(c *operator.Catalog, opts ...Option) *Selector {
	s := &Selector{catalog: c}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pools splits the owned part of the catalog by role, in catalog order.
// Operators with an unknown role land in neither pool.
func (s *Selector) Pools(owned Ownership) (attackers, defenders []operator.Operator) {
	for _, op := range s.catalog.All() {
		if !owned.IsOwned(op.ID) {
			continue
		}
		switch op.Role {
		case operator.RoleAttacker:
			attackers = append(attackers, op)
		case operator.RoleDefender:
			defenders = append(defenders, op)
		}
	}
	return attackers, defenders
}

// Select draws a lineup: three from the starting side, three from the other
// side, then one more from the starting side. It returns all slots or none.
func (s *Selector) Select(owned Ownership, start Side) ([]Slot, error) {
	if start != SideAttack && start != SideDefense {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSide, start)
	}

	attackers, defenders := s.Pools(owned)
	first, second := attackers, defenders
	if start == SideDefense {
		first, second = defenders, attackers
	}

	needFirst, needSecond := required()
	if len(first) < needFirst || len(second) < needSecond {
		return nil, fmt.Errorf("%w: starting on %s needs %d %ss and %d %ss, have %d and %d",
			ErrInsufficientOperators,
			start, needFirst, start.Role(), needSecond, start.Opposite().Role(),
			len(first), len(second))
	}

	s.shuffle(first)
	s.shuffle(second)

	pools := map[Pool][]operator.Operator{PoolFirst: first, PoolSecond: second}
	sides := map[Pool]Side{PoolFirst: start, PoolSecond: start.Opposite()}

	slots := make([]Slot, 0, LineupSize)
	for _, step := range slotOrder {
		slot := Slot{Operator: pools[step.Pool][step.Index]}
		if step.Labeled {
			slot.Label = sides[step.Pool]
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// shuffle is an in-place Fisher-Yates shuffle.
func (s *Selector) shuffle(ops []operator.Operator) {
	swap := func(i, j int) { ops[i], ops[j] = ops[j], ops[i] }
	if s.rng == nil {
		rand.Shuffle(len(ops), swap)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(ops), swap)
}
