package sbt

import (
	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// Principal is who an operation requires the sender to be
type Principal int

const (
	// PrincipalNone marks operations nobody may perform
	PrincipalNone Principal = iota
	PrincipalAny
	PrincipalOwner
	PrincipalAuthority
)

func (p Principal) String() string {
	switch p {
	case PrincipalAny:
		return "any"
	case PrincipalOwner:
		return "owner"
	case PrincipalAuthority:
		return "authority"
	default:
		return "none"
	}
}

// accessPolicy maps every inbound operation to the single principal that gates it
var accessPolicy = map[domain.OpCode]Principal{
	domain.OpTransfer:       PrincipalNone,
	domain.OpDestroy:        PrincipalOwner,
	domain.OpRevoke:         PrincipalAuthority,
	domain.OpProveOwnership: PrincipalOwner,
	domain.OpRequestOwner:   PrincipalAny,
	domain.OpGetStaticData:  PrincipalAny,
	domain.OpTakeExcess:     PrincipalOwner,
}

// RequiredPrincipal returns the principal gating op, and false for ops the item does not accept
func RequiredPrincipal(op domain.OpCode) (Principal, bool) {
	p, ok := accessPolicy[op]
	return p, ok
}

// Authorize checks sender against the item's current owner and authority.
// A destroyed item holds neither, so owner- and authority-gated operations
// fail for every sender. This includes take_excess, which is denied with 401
// once the item is destroyed.
func Authorize(item *domain.Item, op domain.OpCode, sender cell.Address) error {
	principal, ok := RequiredPrincipal(op)
	if !ok {
		return domain.NewExitError(domain.ExitUnknownOperation, domain.ErrUnknownOperation)
	}

	switch principal {
	case PrincipalAny:
		return nil
	case PrincipalOwner:
		if matches(item.Owner(), sender) {
			return nil
		}
	case PrincipalAuthority:
		if matches(item.Authority(), sender) {
			return nil
		}
	default:
		return domain.NewExitError(domain.ExitNotTransferable, domain.ErrNotTransferable)
	}
	return domain.NewExitError(domain.ExitAccessDenied, domain.ErrAccessDenied)
}

// matches never lets addr_none stand in for a principal
func matches(principal, sender cell.Address) bool {
	return !principal.IsNone() && principal.Equal(sender)
}
