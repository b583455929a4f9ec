package sbt

import (
	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// Inbound is one message as an item sees it
type Inbound struct {
	// Self is the item's own address
	Self   cell.Address
	Sender cell.Address
	Value  domain.Coins
	// Balance is the item balance with Value already credited
	Balance  domain.Coins
	Bounced  bool
	External bool
	Body     *cell.Cell
	// Now is the unix time of processing
	Now uint64
}

// Result is the committed effect of one inbound message
type Result struct {
	Item     *domain.Item
	Messages []domain.Message
}

// Handler runs the item protocol. It is a pure function of
// (item, inbound) and never mutates the item it is given.
type Handler struct {
	storageReserve domain.Coins
}

// NewHandler returns a handler keeping storageReserve on destroy and take-excess
func NewHandler(storageReserve domain.Coins) *Handler {
	return &Handler{storageReserve: storageReserve}
}

// Handle applies one inbound message. On error nothing is committed and the
// returned error carries the exit code.
func (h *Handler) Handle(item *domain.Item, in Inbound) (*Result, error) {
	if in.External {
		return nil, domain.NewExitError(domain.ExitNotAccepted, domain.ErrExternalMessage)
	}
	if in.Body == nil || in.Body.BeginParse().IsEmpty() {
		return &Result{Item: item.Clone()}, nil
	}
	if in.Bounced {
		return h.handleBounce(item, in)
	}
	if !item.Initialized() {
		return h.initialize(item, in)
	}

	s := in.Body.BeginParse()
	op, queryID, err := ParseHeader(s)
	if err != nil {
		return nil, domain.Malformed(err)
	}
	if err := Authorize(item, op, in.Sender); err != nil {
		return nil, err
	}

	next := item.Clone()
	switch op {
	case domain.OpRequestOwner:
		q, err := parseOwnerQuery(queryID, s)
		if err != nil {
			return nil, domain.Malformed(err)
		}
		body, err := OwnerInfo{
			QueryID:     queryID,
			Index:       item.Index,
			Sender:      in.Sender,
			Owner:       item.Owner(),
			Data:        q.ForwardPayload,
			RevokedAt:   item.RevokedAt,
			WithContent: q.WithContent,
			Content:     item.Content,
		}.ToCell()
		if err != nil {
			return nil, domain.Malformed(err)
		}
		return h.reply(next, in, q.Destination, in.Value, true, body)

	case domain.OpProveOwnership:
		q, err := parseOwnerQuery(queryID, s)
		if err != nil {
			return nil, domain.Malformed(err)
		}
		body, err := OwnershipProof{
			QueryID:     queryID,
			Index:       item.Index,
			Owner:       item.Owner(),
			Data:        q.ForwardPayload,
			RevokedAt:   item.RevokedAt,
			WithContent: q.WithContent,
			Content:     item.Content,
		}.ToCell()
		if err != nil {
			return nil, domain.Malformed(err)
		}
		return h.reply(next, in, q.Destination, in.Value, true, body)

	case domain.OpGetStaticData:
		body, err := ReportStaticData{
			QueryID:    queryID,
			Index:      item.Index,
			Collection: item.Collection,
		}.ToCell()
		if err != nil {
			return nil, domain.Malformed(err)
		}
		return h.reply(next, in, in.Sender, in.Value, false, body)

	case domain.OpDestroy:
		next.State = domain.Destroyed{}
		return h.reply(next, in, in.Sender, h.excess(in.Balance), false, QueryBody(domain.OpExcesses, queryID))

	case domain.OpRevoke:
		// re-revoking is accepted and keeps the first timestamp
		// RevokedAt 0 means not revoked, so a zero clock still stamps 1
		if next.RevokedAt == 0 {
			next.RevokedAt = max(in.Now, 1)
		}
		return &Result{Item: next}, nil

	case domain.OpTakeExcess:
		return h.reply(next, in, in.Sender, h.excess(in.Balance), false, QueryBody(domain.OpExcesses, queryID))
	}

	// Authorize rejects every op outside the policy table
	return nil, domain.NewExitError(domain.ExitUnknownOperation, domain.ErrUnknownOperation)
}

// initialize accepts the collection's deploy message
func (h *Handler) initialize(item *domain.Item, in Inbound) (*Result, error) {
	if !item.Collection.Equal(in.Sender) {
		return nil, domain.NewExitError(domain.ExitInitSenderMismatch, domain.ErrInitSenderMismatch)
	}
	body, err := ParseInitBody(in.Body.BeginParse())
	if err != nil {
		return nil, domain.Malformed(err)
	}
	next := item.Clone()
	next.State = domain.Active{Owner: body.Owner, Authority: body.Authority}
	next.Content = body.Content
	next.RevokedAt = 0
	return &Result{Item: next}, nil
}

// excess is what may leave the item while keeping the storage reserve
func (h *Handler) excess(balance domain.Coins) domain.Coins {
	if balance <= h.storageReserve {
		return 0
	}
	return balance - h.storageReserve
}

func (h *Handler) reply(next *domain.Item, in Inbound, dest cell.Address, value domain.Coins, bounce bool, body *cell.Cell) (*Result, error) {
	return &Result{
		Item: next,
		Messages: []domain.Message{{
			Source:      in.Self,
			Destination: dest,
			Value:       value,
			Bounce:      bounce,
			Body:        body,
			CreatedAt:   in.Now,
		}},
	}, nil
}
