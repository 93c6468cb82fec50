package econ

// Trade is one cleared exchange produced by a market-clearing pass: qty
// units of kind move from seller to buyer. Neither souls carries its own
// wallet in this model, so MoneyDelta is applied wholesale to the
// government budget by the caller (spec.md §4.N), mirroring the original's
// `gvt.money += trade.money_delta` for every cleared trade, not only
// cross-border ones.
type Trade struct {
	Buyer      SoulID
	Seller     SoulID
	Item       ItemID
	Qty        int
	MoneyDelta Money
}
