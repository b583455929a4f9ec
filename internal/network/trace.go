package network

import (
	"github.com/google/uuid"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// Transaction records a single delivery to one account
type Transaction struct {
	ID          uuid.UUID
	Account     cell.Address
	InMessage   domain.Message
	OutMessages []domain.Message
	Success     bool
	ExitCode    int
	Err         error
	Now         uint64
}

func (tx *Transaction) fail(err error) {
	tx.Success = false
	tx.Err = err
	tx.ExitCode = domain.ExitCode(err)
}

// Trace is the ordered list of transactions caused by one injected message
type Trace struct {
	Transactions []*Transaction
}

// Filter matches a transaction
type Filter func(tx *Transaction) bool

// From matches transactions whose inbound message came from addr
func From(addr cell.Address) Filter {
	return func(tx *Transaction) bool { return tx.InMessage.Source.Equal(addr) }
}

// To matches transactions executed on addr
func To(addr cell.Address) Filter {
	return func(tx *Transaction) bool { return tx.Account.Equal(addr) }
}

// WithOp matches transactions whose inbound body starts with op
func WithOp(op domain.OpCode) Filter {
	return func(tx *Transaction) bool {
		got, ok := tx.InMessage.OpCode()
		return ok && got == op
	}
}

// Succeeded matches successful transactions
func Succeeded() Filter {
	return func(tx *Transaction) bool { return tx.Success }
}

// Failed matches failed transactions
func Failed() Filter {
	return func(tx *Transaction) bool { return !tx.Success }
}

// WithExitCode matches transactions that failed with code
func WithExitCode(code int) Filter {
	return func(tx *Transaction) bool { return !tx.Success && tx.ExitCode == code }
}

// Bounced matches deliveries of bounced messages
func Bounced() Filter {
	return func(tx *Transaction) bool { return tx.InMessage.Bounced }
}

// Find returns the first transaction matching every filter, or nil
func (t *Trace) Find(filters ...Filter) *Transaction {
	all := t.FindAll(filters...)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// FindAll returns every transaction matching every filter
func (t *Trace) FindAll(filters ...Filter) []*Transaction {
	var out []*Transaction
	for _, tx := range t.Transactions {
		ok := true
		for _, f := range filters {
			if !f(tx) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, tx)
		}
	}
	return out
}

// Has reports whether any transaction matches every filter
func (t *Trace) Has(filters ...Filter) bool {
	return t.Find(filters...) != nil
}
