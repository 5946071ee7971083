package lineup

type Pool int

const (
	PoolFirst  Pool = iota // drawn from the starting side
	PoolSecond             // drawn from the opposite side
)

// LineupSize is the number of slots in every lineup.
const LineupSize = 7

type SlotStep struct {
	Pool    Pool
	Index   int  // position in the shuffled pool
	Labeled bool // carries its side label
}

var slotOrder = [LineupSize]SlotStep{
	// Starting side, first half
	{Pool: PoolFirst, Index: 0, Labeled: true},
	{Pool: PoolFirst, Index: 1},
	{Pool: PoolFirst, Index: 2},
	// Swap sides
	{Pool: PoolSecond, Index: 0, Labeled: true},
	{Pool: PoolSecond, Index: 1},
	{Pool: PoolSecond, Index: 2},
	// Overtime, back on the starting side
	{Pool: PoolFirst, Index: 3, Labeled: true},
}

// required reports how many operators each pool needs to fill the slot table.
func required() (first, second int) {
	for _, step := range slotOrder {
		switch step.Pool {
		case PoolFirst:
			first = max(first, step.Index+1)
		case PoolSecond:
			second = max(second, step.Index+1)
		}
	}
	return first, second
}
