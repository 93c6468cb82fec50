package econ

import "github.com/google/uuid"

// SoulKind discriminates the three kinds of economic actor (spec.md §4.H).
type SoulKind uint8

const (
	SoulHuman SoulKind = iota
	SoulCompany
	SoulFreightStation
)

// SoulID identifies any market participant: a human, a company, or an
// external freight station standing in for the outside world.
type SoulID struct {
	Kind SoulKind
	ID   uuid.UUID
}

// NewSoulID returns a fresh random SoulID of the given kind. Only ever call
// this when minting a WorldCommand to send; a replica applying a received
// command must use the ID the command carries, never generate its own, or
// replicas will diverge.
func NewSoulID(kind SoulKind) SoulID {
	return SoulID{Kind: kind, ID: uuid.New()}
}

// Less gives SoulID a total order, used to break market-clearing ties
// deterministically (ascending buyer id, then seller id).
func (s SoulID) Less(o SoulID) bool {
	if s.Kind != o.Kind {
		return s.Kind < o.Kind
	}
	return s.ID.String() < o.ID.String()
}
