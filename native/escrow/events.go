package escrow

import (
	"encoding/hex"
	"strconv"

	"gitbounty/core/types"
	"gitbounty/crypto"
)

const (
	EventTypeEscrowCreated  = "escrow.created"
	EventTypeEscrowReleased = "escrow.released"
)

// NewCreatedEvent returns the canonical event payload for a newly funded
// escrow.
func NewCreatedEvent(addr, payer crypto.Address, r Record) *types.Event {
	evt := newEscrowEvent(EventTypeEscrowCreated, addr, r)
	evt.Attributes["payer"] = payer.String()
	return evt
}

// NewReleasedEvent returns the canonical event payload for a release of the
// bounty to the recipient; refund is the deposit returned to the authority.
func NewReleasedEvent(addr, recipient, authority crypto.Address, r Record, refund uint64) *types.Event {
	evt := newEscrowEvent(EventTypeEscrowReleased, addr, r)
	evt.Attributes["recipient"] = recipient.String()
	evt.Attributes["authority"] = authority.String()
	evt.Attributes["refund"] = strconv.FormatUint(refund, 10)
	return evt
}

func newEscrowEvent(eventType string, addr crypto.Address, r Record) *types.Event {
	evt := types.NewEvent(eventType)
	evt.Attributes["address"] = addr.String()
	evt.Attributes["repoHash"] = hex.EncodeToString(r.RepoHash[:])
	evt.Attributes["issue"] = strconv.FormatUint(r.IssueNumber, 10)
	evt.Attributes["amount"] = strconv.FormatUint(r.Amount, 10)
	return evt
}
