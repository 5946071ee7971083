package lineup

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/DoyleJ11/siege-picker/internal/operator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ownedSet map[string]bool

func (o ownedSet) IsOwned(id string) bool { return o[id] }

func owns(ids ...string) ownedSet {
	o := ownedSet{}
	for _, id := range ids {
		o[id] = true
	}
	return o
}

// A-D attack, E-G defend, X has no usable role.
func exampleCatalog() *operator.Catalog {
	return operator.NewCatalog([]operator.Operator{
		{ID: "A", Role: operator.RoleAttacker},
		{ID: "B", Role: operator.RoleAttacker},
		{ID: "C", Role: operator.RoleAttacker},
		{ID: "D", Role: operator.RoleAttacker},
		{ID: "E", Role: operator.RoleDefender},
		{ID: "F", Role: operator.RoleDefender},
		{ID: "G", Role: operator.RoleDefender},
		{ID: "X", Role: operator.RoleUnknown},
	})
}

func seeded(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func ids(ops []operator.Operator) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.ID
	}
	return out
}

func labels(slots []Slot) []Side {
	out := make([]Side, len(slots))
	for i, s := range slots {
		out[i] = s.Label
	}
	return out
}

func TestSelect_AttackStartExample(t *testing.T) {
	sel := NewSelector(exampleCatalog(), seeded(1))

	slots, err := sel.Select(owns("A", "B", "C", "D", "E", "F", "G"), SideAttack)
	require.NoError(t, err)
	require.Len(t, slots, 7)

	for i, slot := range slots {
		want := operator.RoleAttacker
		if i >= 3 && i <= 5 {
			want = operator.RoleDefender
		}
		assert.Equal(t, want, slot.Operator.Role, "slot %d", i)
	}

	assert.Equal(t, []Side{SideAttack, "", "", SideDefense, "", "", SideAttack}, labels(slots))

	firstPool := []string{slots[0].Operator.ID, slots[1].Operator.ID, slots[2].Operator.ID, slots[6].Operator.ID}
	slices.Sort(firstPool)
	assert.Equal(t, []string{"A", "B", "C", "D"}, firstPool)
}

func TestSelect_DefenseStartLabels(t *testing.T) {
	c := operator.NewCatalog([]operator.Operator{
		{ID: "a1", Role: operator.RoleAttacker},
		{ID: "a2", Role: operator.RoleAttacker},
		{ID: "a3", Role: operator.RoleAttacker},
		{ID: "d1", Role: operator.RoleDefender},
		{ID: "d2", Role: operator.RoleDefender},
		{ID: "d3", Role: operator.RoleDefender},
		{ID: "d4", Role: operator.RoleDefender},
	})
	sel := NewSelector(c, seeded(2))

	slots, err := sel.Select(owns(c.IDs()...), SideDefense)
	require.NoError(t, err)
	assert.Equal(t, []Side{SideDefense, "", "", SideAttack, "", "", SideDefense}, labels(slots))
	for _, i := range []int{0, 1, 2, 6} {
		assert.Equal(t, operator.RoleDefender, slots[i].Operator.Role)
	}
}

func TestSelect_InsufficientOperators(t *testing.T) {
	cases := []struct {
		name  string
		owned ownedSet
		start Side
	}{
		{name: "three attackers only", owned: owns("A", "B", "C"), start: SideAttack},
		{name: "four attackers, two defenders", owned: owns("A", "B", "C", "D", "E", "F"), start: SideAttack},
		{name: "defense start needs four defenders", owned: owns("A", "B", "C", "D", "E", "F", "G"), start: SideDefense},
		{name: "unknown roles do not count", owned: owns("A", "B", "C", "X", "E", "F", "G"), start: SideAttack},
		{name: "nothing owned", owned: owns(), start: SideAttack},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slots, err := NewSelector(exampleCatalog()).Select(tc.owned, tc.start)
			if !errors.Is(err, ErrInsufficientOperators) {
				t.Fatalf("want ErrInsufficientOperators, got %v", err)
			}
			if slots != nil {
				t.Fatalf("want no slots on failure, got %d", len(slots))
			}
		})
	}
}

func TestSelect_RejectsUnknownSide(t *testing.T) {
	_, err := NewSelector(exampleCatalog()).Select(owns("A"), Side("Overtime"))
	assert.ErrorIs(t, err, ErrUnknownSide)
}

func TestSelect_IgnoresOwnedIDsOutsideCatalog(t *testing.T) {
	owned := owns("A", "B", "C", "D", "E", "F", "G", "ghost1", "ghost2")
	slots, err := NewSelector(exampleCatalog(), seeded(3)).Select(owned, SideAttack)
	require.NoError(t, err)
	for _, s := range slots {
		assert.NotContains(t, s.Operator.ID, "ghost")
	}
}

func TestSelect_DoesNotMutateCatalogOrOwnership(t *testing.T) {
	c := exampleCatalog()
	before := ids(c.All())
	owned := owns("A", "B", "C", "D", "E", "F", "G")

	sel := NewSelector(c, seeded(4))
	for i := 0; i < 50; i++ {
		_, err := sel.Select(owned, SideAttack)
		require.NoError(t, err)
	}

	assert.Equal(t, before, ids(c.All()))
	assert.Len(t, owned, 7)
}

// Random catalogs and ownership sets: either seven distinct operators with
// the 3/3/1 side pattern, or ErrInsufficientOperators and nothing else.
func TestSelect_PropertyAllOrNothing(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	roles := []operator.Role{operator.RoleAttacker, operator.RoleDefender, operator.RoleUnknown}

	for trial := 0; trial < 500; trial++ {
		n := r.IntN(30)
		ops := make([]operator.Operator, n)
		owned := ownedSet{}
		for i := range ops {
			ops[i] = operator.Operator{ID: fmt.Sprintf("op%02d", i), Role: roles[r.IntN(len(roles))]}
			if r.IntN(3) > 0 {
				owned[ops[i].ID] = true
			}
		}
		start := SideAttack
		if r.IntN(2) == 0 {
			start = SideDefense
		}

		sel := NewSelector(operator.NewCatalog(ops), seeded(uint64(trial)))
		attackers, defenders := sel.Pools(owned)
		first, second := len(attackers), len(defenders)
		if start == SideDefense {
			first, second = second, first
		}

		slots, err := sel.Select(owned, start)
		if first < 4 || second < 3 {
			require.ErrorIs(t, err, ErrInsufficientOperators, "trial %d", trial)
			require.Nil(t, slots)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		require.Len(t, slots, LineupSize)

		seen := map[string]bool{}
		for i, slot := range slots {
			require.False(t, seen[slot.Operator.ID], "trial %d: %s drawn twice", trial, slot.Operator.ID)
			seen[slot.Operator.ID] = true
			require.True(t, owned[slot.Operator.ID])

			wantRole := start.Role()
			if i >= 3 && i <= 5 {
				wantRole = start.Opposite().Role()
			}
			require.Equal(t, wantRole, slot.Operator.Role, "trial %d slot %d", trial, i)
		}
		require.Equal(t, []Side{start, "", "", start.Opposite(), "", "", start}, labels(slots))
	}
}

func TestPools_StableAcrossCalls(t *testing.T) {
	sel := NewSelector(exampleCatalog(), seeded(5))
	owned := owns("A", "C", "E", "X")

	for i := 0; i < 10; i++ {
		attackers, defenders := sel.Pools(owned)
		assert.Equal(t, []string{"A", "C"}, ids(attackers))
		assert.Equal(t, []string{"E"}, ids(defenders))
	}
}

// Every ordering of the starting-side pool should come up about equally
// often. A comparator-based shuffle fails this badly.
func TestSelect_ShuffleIsUniform(t *testing.T) {
	const draws = 48000
	sel := NewSelector(exampleCatalog(), seeded(6))
	owned := owns("A", "B", "C", "D", "E", "F", "G")

	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		slots, err := sel.Select(owned, SideAttack)
		require.NoError(t, err)
		key := slots[0].Operator.ID + slots[1].Operator.ID + slots[2].Operator.ID + slots[6].Operator.ID
		counts[key]++
	}

	require.Len(t, counts, 24, "every permutation of four attackers should appear")
	expected := draws / 24
	for perm, n := range counts {
		if n < expected*85/100 || n > expected*115/100 {
			t.Fatalf("permutation %s drawn %d times, want about %d", perm, n, expected)
		}
	}
}

func TestSelect_SeededIsReproducible(t *testing.T) {
	owned := owns("A", "B", "C", "D", "E", "F", "G")
	a, err := NewSelector(exampleCatalog(), seeded(9)).Select(owned, SideAttack)
	require.NoError(t, err)
	b, err := NewSelector(exampleCatalog(), seeded(9)).Select(owned, SideAttack)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseSide(t *testing.T) {
	cases := map[string]Side{
		"Attack":  SideAttack,
		"attack":  SideAttack,
		"DEFENSE": SideDefense,
		"defence": SideDefense,
	}
	for in, want := range cases {
		got, err := ParseSide(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSide("overtime")
	assert.ErrorIs(t, err, ErrUnknownSide)
}

func TestSlotOrder_RequiresFourAndThree(t *testing.T) {
	first, second := required()
	assert.Equal(t, 4, first)
	assert.Equal(t, 3, second)
	assert.Equal(t, 7, LineupSize)
}

func TestSlotOrder_LabelsOnlyOnSideStarts(t *testing.T) {
	var labeled []int
	for i, step := range slotOrder {
		if step.Labeled {
			labeled = append(labeled, i)
		}
	}
	assert.Equal(t, []int{0, 3, 6}, labeled)
	assert.Equal(t, PoolFirst, slotOrder[6].Pool)
}

func TestInsufficientOperators_MessageNamesRoles(t *testing.T) {
	_, err := NewSelector(exampleCatalog()).Select(owns("A", "B", "C"), SideAttack)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "4 attackers"), err.Error())
}
