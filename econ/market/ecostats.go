package market

import "github.com/citysim/simcore/econ"

// HistorySize is the number of bins kept per frequency level.
const HistorySize = 128

// LevelFreqs are the tick intervals between bin rotations for each history
// level (5s, 30s, 5min, 25min at the default 20ms tick, so the HistorySize
// bins of each level span roughly 10m, 1h, 10h, 50h).
var LevelFreqs = [4]uint64{250, 1500, 15000, 75000}

type itemHistoryLevel struct {
	items [HistorySize]int64
	money [HistorySize]econ.Money
}

type itemHistory struct {
	levels [len(LevelFreqs)]itemHistoryLevel
}

// ItemHistories tracks a rolling ring-buffer history of traded qty/money per
// item, at each of the four frequency levels, matching the original's
// exports/imports/internal_trade split (spec.md §4.H).
type ItemHistories struct {
	byItem  map[econ.ItemID]*itemHistory
	cursors [len(LevelFreqs)]int
}

// NewItemHistories returns an empty set of histories.
func NewItemHistories() *ItemHistories {
	return &ItemHistories{byItem: make(map[econ.ItemID]*itemHistory)}
}

// HandleTrade records a cleared trade into the current bin of every level.
func (h *ItemHistories) HandleTrade(t Trade) {
	if t.Qty <= 0 {
		return
	}
	hist, ok := h.byItem[t.Item]
	if !ok {
		hist = &itemHistory{}
		h.byItem[t.Item] = hist
	}
	for lvl, cursor := range h.cursors {
		hist.levels[lvl].items[cursor] += int64(t.Qty)
		hist.levels[lvl].money[cursor] += t.MoneyDelta
	}
}

// Advance rotates any level whose frequency divides tick, zeroing the new
// current bin.
func (h *ItemHistories) Advance(tick uint64) {
	for lvl, freq := range LevelFreqs {
		if freq == 0 || tick%freq != 0 {
			continue
		}
		h.cursors[lvl] = (h.cursors[lvl] + 1) % HistorySize
		c := h.cursors[lvl]
		for _, hist := range h.byItem {
			hist.levels[lvl].items[c] = 0
			hist.levels[lvl].money[c] = 0
		}
	}
}

// EcoStats splits trade history into exports, imports and purely internal
// trade, matching which side of a trade was a FreightStation.
type EcoStats struct {
	Exports       *ItemHistories
	Imports       *ItemHistories
	InternalTrade *ItemHistories
}

// NewEcoStats returns a fresh, empty EcoStats.
func NewEcoStats() *EcoStats {
	return &EcoStats{Exports: NewItemHistories(), Imports: NewItemHistories(), InternalTrade: NewItemHistories()}
}

// Advance rotates all three histories and files trades into the right one.
func (e *EcoStats) Advance(tick uint64, trades []Trade) {
	e.Exports.Advance(tick)
	e.Imports.Advance(tick)
	e.InternalTrade.Advance(tick)

	for _, t := range trades {
		switch {
		case t.Buyer.Kind == econ.SoulFreightStation:
			e.Exports.HandleTrade(t)
		case t.Seller.Kind == econ.SoulFreightStation:
			e.Imports.HandleTrade(t)
		default:
			e.InternalTrade.HandleTrade(t)
		}
	}
}
