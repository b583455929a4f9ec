package dto

import (
	"github.com/feral-file/ff-sbt/internal/network"
)

// SubmitMessageRequest injects an internal message into the network
type SubmitMessageRequest struct {
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	// Value is a decimal amount of coins, e.g. "0.05"
	Value  string `json:"value" binding:"required"`
	Bounce bool   `json:"bounce"`
	// Body is base64 of the CBOR-encoded body cell
	Body string `json:"body"`
}

// TransactionResponse summarizes one delivery
type TransactionResponse struct {
	ID          string `json:"id"`
	Account     string `json:"account"`
	Source      string `json:"source"`
	Op          string `json:"op,omitempty"`
	Value       string `json:"value"`
	Bounced     bool   `json:"bounced"`
	Success     bool   `json:"success"`
	ExitCode    int    `json:"exit_code"`
	Error       string `json:"error,omitempty"`
	OutMessages int    `json:"out_messages"`
}

// TraceResponse lists every transaction caused by a submitted message
type TraceResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// MapTraceToDTO maps a trace to its API representation
func MapTraceToDTO(trace *network.Trace) *TraceResponse {
	resp := &TraceResponse{Transactions: make([]TransactionResponse, 0, len(trace.Transactions))}
	for _, tx := range trace.Transactions {
		t := TransactionResponse{
			ID:          tx.ID.String(),
			Account:     tx.Account.String(),
			Source:      tx.InMessage.Source.String(),
			Value:       tx.InMessage.Value.String(),
			Bounced:     tx.InMessage.Bounced,
			Success:     tx.Success,
			ExitCode:    tx.ExitCode,
			OutMessages: len(tx.OutMessages),
		}
		if op, ok := tx.InMessage.OpCode(); ok {
			t.Op = op.String()
		}
		if tx.Err != nil {
			t.Error = tx.Err.Error()
		}
		resp.Transactions = append(resp.Transactions, t)
	}
	return resp
}
