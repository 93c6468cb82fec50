package econ

import "fmt"

// ItemID identifies a tradeable good or service in the ItemRegistry.
type ItemID uint32

// Item is one entry of the registry: a tradeable good with an external
// (import/export) price and a per-unit transport cost.
type Item struct {
	ID             ItemID
	Name           string
	Label          string
	ExtValue       Money
	TransportCost  Money
	OptOutExtTrade bool
}

// ItemRegistry maps item names to stable ids, built once at world setup.
type ItemRegistry struct {
	items  []Item
	byName map[string]ItemID
}

// NewItemRegistry returns an empty registry.
func NewItemRegistry() *ItemRegistry {
	return &ItemRegistry{byName: make(map[string]ItemID)}
}

// Register adds item to the registry, assigning it the next ItemID.
func (r *ItemRegistry) Register(name, label string, extValue, transportCost Money, optOut bool) ItemID {
	id := ItemID(len(r.items))
	r.items = append(r.items, Item{ID: id, Name: name, Label: label, ExtValue: extValue, TransportCost: transportCost, OptOutExtTrade: optOut})
	r.byName[name] = id
	return id
}

// ID looks up an item by name, panicking if it is not registered -- mirrors
// the registry's "items are fixed at load time" invariant.
func (r *ItemRegistry) ID(name string) ItemID {
	id, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("econ: no item registered named %q", name))
	}
	return id
}

// TryID looks up an item by name without panicking.
func (r *ItemRegistry) TryID(name string) (ItemID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Get returns the Item for id.
func (r *ItemRegistry) Get(id ItemID) (Item, bool) {
	if int(id) >= len(r.items) {
		return Item{}, false
	}
	return r.items[id], true
}
