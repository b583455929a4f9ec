package sbt

import (
	"github.com/feral-file/ff-sbt/internal/domain"
)

// handleBounce reacts to a failed delivery. Only a bounced ownership_proof
// is expected; the owner gets one ownership_proof_bounced notice carrying
// the original query id and the returned value. Nothing is resent.
func (h *Handler) handleBounce(item *domain.Item, in Inbound) (*Result, error) {
	s := in.Body.BeginParse()
	prefix, err := s.LoadUInt(32)
	if err != nil {
		return nil, domain.Malformed(err)
	}
	if uint32(prefix) != domain.BOUNCED_PREFIX {
		return nil, domain.NewExitError(domain.ExitUnexpectedBounce, domain.ErrUnexpectedBounce)
	}
	op, queryID, err := ParseHeader(s)
	if err != nil || op != domain.OpOwnershipProof {
		return nil, domain.NewExitError(domain.ExitUnexpectedBounce, domain.ErrUnexpectedBounce)
	}

	next := item.Clone()
	owner := item.Owner()
	if owner.IsNone() {
		// destroyed since the proof left: there is nobody to tell
		return &Result{Item: next}, nil
	}
	return h.reply(next, in, owner, in.Value, true, QueryBody(domain.OpOwnershipProofBounced, queryID))
}
