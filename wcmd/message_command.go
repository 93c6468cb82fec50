package wcmd

import (
	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/roadgraph"
	"golang.org/x/text/unicode/norm"
)

// MaxMessageLength bounds a chat message after normalization, Normalize
// truncates anything longer to this many runes.
const MaxMessageLength = 500

// SendMessage is a free-form chat message; it has no map effect and no
// cost, existing purely to be ordered into the tick log for replay and
// dispatch to connected clients (spec.md §6).
type SendMessage struct {
	From    string
	Message string
}

func (c SendMessage) Tag() string      { return "SendMessage" }
func (c SendMessage) Cost() econ.Money { return 0 }

func (c SendMessage) Apply(*roadgraph.Map) error { return nil }

// Normalize applies Unicode NFC normalization to the message body so
// visually-identical messages compare equal across clients with different
// input methods, and truncates to MaxMessageLength runes.
func (c SendMessage) Normalize() SendMessage {
	normalized := norm.NFC.String(c.Message)
	if r := []rune(normalized); len(r) > MaxMessageLength {
		normalized = string(r[:MaxMessageLength])
	}
	c.Message = normalized
	return c
}
