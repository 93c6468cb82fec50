package world

import (
	"context"
	"sync"

	"github.com/citysim/simcore/agent"
	"github.com/citysim/simcore/determinism"
	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/econ/market"
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/power"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/sim"
	"github.com/citysim/simcore/subscribe"
	"github.com/citysim/simcore/tickpool"
	"github.com/citysim/simcore/wcmd"
)

// Delta is the fixed physics timestep (spec.md §4.G): 50 ticks/sec.
const Delta = 0.02

// PowerUpkeepEveryNTicks charges worker upkeep once per in-sim minute at
// the default 50 ticks/sec rate, matching Government.ChargeWorkerUpkeep's
// per-minute contract.
const PowerUpkeepEveryNTicks = 50 * 60

// World owns Resources and every per-entity collection, and sequences the
// fixed tick schedule (spec.md §5): ingress → agent decisions → physics →
// economy → market → electricity → subscribers.
type World struct {
	Resources

	mu        sync.Mutex
	humans    []*Human
	companies []*econ.Company
	bodies    []*agent.Body

	pendingMu sync.Mutex
	pending   []wcmd.Command

	pool       *tickpool.Pool
	powerIndex map[econ.CompanyID]power.NetworkID
	lastHash   uint64
}

// New returns an empty World bound to res, using pool for the
// data-parallel agent decision phase.
func New(res *Resources, pool *tickpool.Pool) *World {
	if pool == nil {
		pool = tickpool.New(0)
	}
	return &World{
		Resources:  *res,
		pool:       pool,
		powerIndex: make(map[econ.CompanyID]power.NetworkID),
	}
}

// SubmitCommand enqueues cmd for execution on the next Tick. It is safe to
// call from any goroutine (e.g. the net server's merge, or the console).
func (w *World) SubmitCommand(cmd wcmd.Command) {
	w.pendingMu.Lock()
	w.pending = append(w.pending, cmd)
	w.pendingMu.Unlock()
}

// AddHuman registers a new simulated resident.
func (w *World) AddHuman(h *Human) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.humans = append(w.humans, h)
	w.bodies = append(w.bodies, h.Body)
}

// AddCompany registers a new goods producer on the given power network.
func (w *World) AddCompany(c *econ.Company, network power.NetworkID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.companies = append(w.companies, c)
	w.powerIndex[c.ID] = network
}

// Execute drains and applies cmd immediately against the world's map and
// budget, logging it at the current tick if accepted. It implements
// console.Executor so the operator REPL can submit directly without going
// through the pending queue (used outside Tick, e.g. from tests or a
// synchronous admin command).
func (w *World) Execute(cmd wcmd.Command) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.applyLocked(cmd)
}

func (w *World) applyLocked(cmd wcmd.Command) error {
	if err := wcmd.Execute(w.Gov, w.Map, cmd); err != nil {
		return err
	}
	w.Commands.Append(w.Clock.GetTick(), cmd)
	if w.Hub != nil {
		publishForCommand(w.Hub, cmd, uint64(w.Clock.GetTick()))
	}
	return nil
}

// Tick advances the simulation by exactly one step (spec.md §5):
//  1. ingress: drain and apply pending WorldCommands against the budget;
//  2. human desires score_and_apply, driving itinerary routers;
//  3. agent bodies integrate physics in parallel;
//  4. companies advance production, throttled by their network's
//     electricity productivity, and post this tick's labor supply/demand;
//  5. the market clears outstanding orders and eco-stats record the
//     trades, crediting the government and filing stock receipts and
//     job-opening hires;
//  6. electricity networks recompute flow from the companies that just
//     ran;
//  7. the transport grid housekeeping runs;
//  8. a determinism hash is taken over the tick number, every company's
//     production progress and every body's position.
func (w *World) Tick(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tick := w.Clock.Tick()

	w.pendingMu.Lock()
	batch := w.pending
	w.pending = nil
	w.pendingMu.Unlock()
	for _, cmd := range batch {
		_ = w.applyLocked(cmd)
	}

	for _, h := range w.humans {
		decision := h.Desires.Tick()
		dispatch(h, w.Map, decision)
	}

	if err := agent.StepBodies(ctx, w.pool, w.Map, w.bodies, int64(tick), Delta); err != nil {
		return err
	}

	w.tickCompanies()
	w.postJobMarket()

	trades := w.Market.MakeTrades(nil)
	w.Stats.Advance(uint64(tick), trades)
	w.creditTrades(trades)

	w.Power.Tick(companyPowerSource{companies: w.companies})

	w.Transport.MaintainDeterministic()

	if uint64(tick)%PowerUpkeepEveryNTicks == 0 {
		w.Gov.ChargeWorkerUpkeep(len(w.humans))
	}

	w.lastHash = w.stateHashLocked(tick)
	return nil
}

// StateHash returns the determinism hash computed for the most recently
// completed tick (spec.md §8 property 4).
func (w *World) StateHash() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastHash
}

func (w *World) stateHashLocked(tick sim.Tick) uint64 {
	h := determinism.New()
	h.Uint64(uint64(tick))
	for _, c := range w.companies {
		h.Float64(c.Progress)
	}
	for _, b := range w.bodies {
		pos := bodyPos(b)
		h.Float64(pos.X())
		h.Float64(pos.Y())
		h.Float64(pos.Z())
	}
	return h.Sum()
}

func bodyPos(b *agent.Body) geom.Vec3 {
	switch b.Kind {
	case agent.KindVehicle:
		return b.Vehicle.Pos
	case agent.KindBird:
		return b.Bird.Pos
	default:
		return b.Pedestrian.Pos
	}
}

func (w *World) tickCompanies() {
	for _, c := range w.companies {
		productivity := w.Power.Productivity(w.powerIndex[c.ID])
		if produced, _ := c.Tick(productivity); produced != nil {
			for _, amt := range produced {
				w.Market.Sell(c.Soul, c.Pos, amt.Item, amt.Qty, 0)
			}
		}
	}
}

// postJobMarket posts this tick's labor supply/demand (spec.md §4.I step
// 3): every understaffed company sells its open positions, and every
// jobless human bids for one, as the distinguished "job-opening" item.
func (w *World) postJobMarket() {
	jobItem := w.Items.ID(econ.JobOpeningItemName)
	for _, c := range w.companies {
		if openings := c.OpenPositions(); openings > 0 {
			w.Market.Sell(c.Soul, c.Pos, jobItem, openings, 0)
		}
	}
	for _, h := range w.humans {
		if h.Workplace == (roadgraph.BuildingID{}) {
			w.Market.Buy(h.Soul, h.currentPos(), jobItem, 1)
		}
	}
}

// creditTrades applies every cleared trade's MoneyDelta to the government
// budget -- the original's gvt.money += trade.money_delta, since neither
// humans nor companies carry a per-soul wallet in this model, the
// government is the sole clearinghouse for every trade, not only
// cross-border ones -- then files the trade as stock bought by whichever
// company is the buying side, or as a hire when it cleared a job-opening.
func (w *World) creditTrades(trades []market.Trade) {
	jobItem := w.Items.ID(econ.JobOpeningItemName)
	for _, t := range trades {
		w.Gov.Credit(t.MoneyDelta)
		if t.Item == jobItem {
			w.hireWorker(t)
			continue
		}
		for _, c := range w.companies {
			if c.Soul == t.Buyer {
				c.Bought[t.Item] = append(c.Bought[t.Item], t)
			}
		}
	}
}

// hireWorker applies a cleared job-opening trade: the seller company gains
// the buyer human as a worker, and the human's Workplace becomes that
// company's building.
func (w *World) hireWorker(t market.Trade) {
	var company *econ.Company
	for _, c := range w.companies {
		if c.Soul == t.Seller {
			company = c
			break
		}
	}
	if company == nil {
		return
	}
	company.Workers = append(company.Workers, t.Buyer)
	for _, h := range w.humans {
		if h.Soul == t.Buyer {
			h.Workplace = company.Building
			break
		}
	}
}

// companyPowerSource adapts the registered companies into a power.Source.
// A recipe with inputs to consume is a power draw, sized by its
// WorkersNeeded as a wattage proxy and scaled by how fully staffed it
// currently is; a recipe with no inputs (raw extraction/generation) is
// treated as a producer instead, sized the same way. This codebase has no
// dedicated power-plant building kind, so a company's own recipe shape
// stands in for spec.md §4.J's consumer/producer classification.
type companyPowerSource struct {
	companies []*econ.Company
}

func (s companyPowerSource) PowerConsumed(b roadgraph.BuildingID) float64 {
	var total float64
	for _, c := range s.companies {
		if c.Building != b || len(c.Recipe.Consumption) == 0 {
			continue
		}
		total += float64(c.Recipe.WorkersNeeded) * companyWorkerRatio(c)
	}
	return total
}

func (s companyPowerSource) PowerProduced(b roadgraph.BuildingID) float64 {
	var total float64
	for _, c := range s.companies {
		if c.Building != b || len(c.Recipe.Consumption) != 0 {
			continue
		}
		total += float64(c.Recipe.WorkersNeeded) * companyWorkerRatio(c)
	}
	return total
}

func companyWorkerRatio(c *econ.Company) float64 {
	if c.Recipe.WorkersNeeded <= 0 {
		return 1
	}
	r := float64(len(c.Workers)) / float64(c.Recipe.WorkersNeeded)
	if r > 1 {
		r = 1
	}
	return r
}

func publishForCommand(hub *subscribe.Hub, cmd wcmd.Command, tick uint64) {
	switch cmd.(type) {
	case wcmd.MapMakeConnection, wcmd.MapMakeMultipleConnections, wcmd.MapRemoveRoad, wcmd.MapUpdateIntersectionPolicy:
		hub.Publish(subscribe.Update{Type: subscribe.Road, Tick: tick})
	case wcmd.MapBuildHouse, wcmd.MapBuildSpecialBuilding, wcmd.UpdateZone, wcmd.MoveZonePoint:
		hub.Publish(subscribe.Update{Type: subscribe.Building, Tick: tick})
	}
}
