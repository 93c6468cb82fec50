// Package market implements the order book and periodic clearing pass of
// the economy (spec.md §4.H / §4.I), grounded on the original's
// market.rs/mod.rs make_trades loop: buyers and sellers post orders, and on
// each market_update tick each buyer (processed in ascending SoulID order)
// is matched against its nearest compatible seller by distance(buyer_pos,
// seller_pos), with a deterministic (BuyerID, SellerID) tie-break when two
// sellers are equidistant.
package market

import (
	"math"
	"sort"

	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/geom"
)

// Order is a single posted buy or sell intent for qty units of item.
type Order struct {
	Soul econ.SoulID
	Item econ.ItemID
	Qty  int
	Pos  geom.Vec3
	// Price is the seller's ask or the buyer's bid in Money per unit;
	// zero means "internal", matched regardless of price (mirrors the
	// original's internal-trade-has-no-price-negotiation behavior).
	Price econ.Money
}

// ExternalResolver maps a world position to the nearest external
// FreightStation SoulID able to satisfy an order no internal seller/buyer
// could fill, or false if there is none (spec.md §4.H External trade).
type ExternalResolver func(pos geom.Vec3) (econ.SoulID, bool)

// Market is the order book: one FIFO queue of buy orders and one of sell
// orders per item.
type Market struct {
	buys  map[econ.ItemID][]Order
	sells map[econ.ItemID][]Order
}

// New returns an empty order book.
func New() *Market {
	return &Market{buys: make(map[econ.ItemID][]Order), sells: make(map[econ.ItemID][]Order)}
}

// Buy posts a buy order for qty units of item on behalf of soul.
func (m *Market) Buy(soul econ.SoulID, pos geom.Vec3, item econ.ItemID, qty int) {
	m.buys[item] = append(m.buys[item], Order{Soul: soul, Item: item, Qty: qty, Pos: pos})
}

// Sell posts a sell order for qty units of item on behalf of soul.
func (m *Market) Sell(soul econ.SoulID, pos geom.Vec3, item econ.ItemID, qty int, price econ.Money) {
	m.sells[item] = append(m.sells[item], Order{Soul: soul, Item: item, Qty: qty, Pos: pos, Price: price})
}

// MakeTrades matches every item's buy/sell queues and returns the resulting
// Trades in a deterministic order (by item id, ascending (BuyerID,
// SellerID) within an item). Orders that cannot be filled internally are
// routed to resolve, if non-nil, which stands in for an external freight
// station; a trade in which it sells carries a zero MoneyDelta, and a trade
// in which it buys carries the seller's price times the quantity.
func (m *Market) MakeTrades(resolve ExternalResolver) []Trade {
	var items []econ.ItemID
	for item := range m.buys {
		items = append(items, item)
	}
	for item := range m.sells {
		if _, ok := m.buys[item]; !ok {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	var out []Trade
	for _, item := range items {
		out = append(out, m.clearItem(item, resolve)...)
	}
	return out
}

// Trade re-exports econ.Trade so callers of this package need only import
// one package for order posting and the resulting ledger entries.
type Trade = econ.Trade

func (m *Market) clearItem(item econ.ItemID, resolve ExternalResolver) []Trade {
	buys := m.buys[item]
	sells := m.sells[item]

	buyOrder := activeIndices(buys)
	sort.Slice(buyOrder, func(i, j int) bool {
		return buys[buyOrder[i]].Soul.Less(buys[buyOrder[j]].Soul)
	})

	var trades []Trade
	for _, bi := range buyOrder {
		b := &buys[bi]
		for b.Qty > 0 {
			si, ok := nearestSeller(*b, sells)
			if !ok {
				break
			}
			s := &sells[si]
			qty := b.Qty
			if s.Qty < qty {
				qty = s.Qty
			}
			trades = append(trades, Trade{
				Buyer:      b.Soul,
				Seller:     s.Soul,
				Item:       item,
				Qty:        qty,
				MoneyDelta: s.Price * econ.Money(qty),
			})
			b.Qty -= qty
			s.Qty -= qty
		}
	}

	// Unmatched remainder goes to the external resolver, if any.
	if resolve != nil {
		for i := range buys {
			if buys[i].Qty == 0 {
				continue
			}
			if seller, ok := resolve(buys[i].Pos); ok {
				trades = append(trades, Trade{Buyer: buys[i].Soul, Seller: seller, Item: item, Qty: buys[i].Qty})
				buys[i].Qty = 0
			}
		}
		for i := range sells {
			if sells[i].Qty == 0 {
				continue
			}
			if buyer, ok := resolve(sells[i].Pos); ok {
				trades = append(trades, Trade{Buyer: buyer, Seller: sells[i].Soul, Item: item, Qty: sells[i].Qty, MoneyDelta: sells[i].Price * econ.Money(sells[i].Qty)})
				sells[i].Qty = 0
			}
		}
	}

	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Buyer != trades[j].Buyer {
			return trades[i].Buyer.Less(trades[j].Buyer)
		}
		return trades[i].Seller.Less(trades[j].Seller)
	})

	m.buys[item] = dropFilled(buys)
	m.sells[item] = dropFilled(sells)
	return trades
}

// activeIndices returns the indices of orders with remaining quantity.
func activeIndices(orders []Order) []int {
	idx := make([]int, 0, len(orders))
	for i, o := range orders {
		if o.Qty > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// nearestSeller finds the seller order closest to b.Pos among those with
// remaining quantity, breaking ties between equidistant sellers by
// ascending SellerID (spec.md §4.I step 1 / §9 Open Questions).
func nearestSeller(b Order, sells []Order) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i := range sells {
		s := &sells[i]
		if s.Qty <= 0 {
			continue
		}
		d := distance2(b.Pos, s.Pos)
		if d < bestDist || (d == bestDist && s.Soul.Less(sells[best].Soul)) {
			best, bestDist = i, d
		}
	}
	return best, best != -1
}

func distance2(a, b geom.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

func dropFilled(orders []Order) []Order {
	out := orders[:0]
	for _, o := range orders {
		if o.Qty > 0 {
			out = append(out, o)
		}
	}
	return out
}
