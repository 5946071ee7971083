package operator

import (
	"errors"
	"strings"
)

var ErrUnknownFilter = errors.New("unknown filter")

type Role string

const (
	RoleAttacker Role = "attacker"
	RoleDefender Role = "defender"
	RoleUnknown  Role = "unknown"
)

// ParseRole lower-cases the source role string. Anything that is not an
// attacker or defender collapses to RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAttacker:
		return RoleAttacker
	case RoleDefender:
		return RoleDefender
	default:
		return RoleUnknown
	}
}

type Operator struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	Organization string `json:"organization"`
	Unit         string `json:"unit"`
	Armor        int    `json:"armor"`
	Speed        int    `json:"speed"`
	Difficulty   int    `json:"difficulty"`
	Bio          string `json:"bio"`
	Season       string `json:"season"`
	Country      string `json:"country"`
	Gender       string `json:"gender"`
	Height       string `json:"height"`
	Weight       string `json:"weight"`
	Price        string `json:"price"`
}

type Filter string

const (
	FilterAll     Filter = "all"
	FilterAttack  Filter = "attack"
	FilterDefense Filter = "defense"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(s)); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterAttack, FilterDefense:
		return f, nil
	default:
		return "", ErrUnknownFilter
	}
}

func (f Filter) Match(op Operator) bool {
	switch f {
	case FilterAttack:
		return op.Role == RoleAttacker
	case FilterDefense:
		return op.Role == RoleDefender
	default:
		return true
	}
}
