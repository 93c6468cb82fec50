package econ

// WorkerConsumptionPerMinute is the upkeep debited from the government
// budget per worker per in-sim minute, mirroring the original's flat
// worker-consumption tax.
const WorkerConsumptionPerMinute = Money(10)

// Government holds the player-controlled budget that WorldCommands like
// road/zone construction draw against (spec.md §4.N).
type Government struct {
	Money Money
}

// NewGovernment returns a Government seeded with the given starting budget.
func NewGovernment(starting Money) *Government {
	return &Government{Money: starting}
}

// CanAfford reports whether cost can be deducted without going negative.
func (g *Government) CanAfford(cost Money) bool {
	return g.Money-cost >= 0
}

// Deduct withdraws cost from the budget, returning false (and changing
// nothing) if the budget cannot afford it.
func (g *Government) Deduct(cost Money) bool {
	if !g.CanAfford(cost) {
		return false
	}
	g.Money -= cost
	return true
}

// Credit deposits earnings into the budget, e.g. from a cleared Trade.
func (g *Government) Credit(amount Money) {
	g.Money += amount
}

// ChargeWorkerUpkeep debits nWorkers * WorkerConsumptionPerMinute, called
// once per in-sim minute by the world tick loop.
func (g *Government) ChargeWorkerUpkeep(nWorkers int) {
	g.Money -= Money(nWorkers) * WorkerConsumptionPerMinute
}
