package sbt

import (
	"fmt"
	"math/big"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// Body layouts. Every body starts with op:uint32 query_id:uint64.

// InitBody is the first message a collection sends to a freshly deployed item
type InitBody struct {
	Owner     cell.Address
	Content   *cell.Cell
	Authority cell.Address
}

// ToCell encodes owner:address content:^Cell authority:address (no op code)
func (b InitBody) ToCell() (*cell.Cell, error) {
	return cell.BeginCell().
		StoreAddr(b.Owner).
		StoreRef(b.Content).
		StoreAddr(b.Authority).
		EndCell()
}

// ParseInitBody reads the layout written by InitBody.ToCell
func ParseInitBody(s *cell.Slice) (*InitBody, error) {
	owner, err := s.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	c, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	authority, err := s.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("authority: %w", err)
	}
	return &InitBody{Owner: owner, Content: c, Authority: authority}, nil
}

// QueryBody encodes a body that carries nothing past the query id:
// destroy, revoke, take_excess, get_static_data, excesses, ownership_proof_bounced.
func QueryBody(op domain.OpCode, queryID uint64) *cell.Cell {
	return header(op, queryID).MustEndCell()
}

func header(op domain.OpCode, queryID uint64) *cell.Builder {
	return cell.BeginCell().StoreUInt(uint64(op), 32).StoreUInt(queryID, 64)
}

func storeIndex(b *cell.Builder, index uint64) *cell.Builder {
	return b.StoreBigUInt(new(big.Int).SetUint64(index), 256)
}

func loadIndex(s *cell.Slice) (uint64, error) {
	v, err := s.LoadBigUInt(256)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("index %s exceeds 64 bits", v.String())
	}
	return v.Uint64(), nil
}

// ParseHeader reads op and query id
func ParseHeader(s *cell.Slice) (domain.OpCode, uint64, error) {
	op, err := s.LoadUInt(32)
	if err != nil {
		return 0, 0, err
	}
	queryID, err := s.LoadUInt(64)
	if err != nil {
		return 0, 0, err
	}
	return domain.OpCode(op), queryID, nil
}

// OwnerQuery is the shared request shape of prove_ownership and request_owner:
// dest:address forward_payload:^Cell with_content:bit
type OwnerQuery struct {
	QueryID        uint64
	Destination    cell.Address
	ForwardPayload *cell.Cell
	WithContent    bool
}

// ProveOwnership is sent by the owner to push a proof to Destination
type ProveOwnership OwnerQuery

// RequestOwner is sent by anyone to have the item report its owner to Destination
type RequestOwner OwnerQuery

func (q OwnerQuery) toCell(op domain.OpCode) (*cell.Cell, error) {
	payload := q.ForwardPayload
	if payload == nil {
		payload = cell.Empty()
	}
	return header(op, q.QueryID).
		StoreAddr(q.Destination).
		StoreRef(payload).
		StoreBit(q.WithContent).
		EndCell()
}

// ToCell encodes the prove_ownership body
func (m ProveOwnership) ToCell() (*cell.Cell, error) {
	return OwnerQuery(m).toCell(domain.OpProveOwnership)
}

// ToCell encodes the request_owner body
func (m RequestOwner) ToCell() (*cell.Cell, error) {
	return OwnerQuery(m).toCell(domain.OpRequestOwner)
}

func parseOwnerQuery(queryID uint64, s *cell.Slice) (*OwnerQuery, error) {
	dest, err := s.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	payload, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("forward payload: %w", err)
	}
	withContent, err := s.LoadBit()
	if err != nil {
		return nil, fmt.Errorf("with_content: %w", err)
	}
	return &OwnerQuery{
		QueryID:        queryID,
		Destination:    dest,
		ForwardPayload: payload,
		WithContent:    withContent,
	}, nil
}

// OwnershipProof is what the item sends on prove_ownership
type OwnershipProof struct {
	QueryID     uint64
	Index       uint64
	Owner       cell.Address
	Data        *cell.Cell
	RevokedAt   uint64
	WithContent bool
	// Content is set only when WithContent is true
	Content *cell.Cell
}

// ToCell encodes op query_id index:uint256 owner:address data:^Cell revoked_at:uint64 with_content:bit content:^Cell?
func (m OwnershipProof) ToCell() (*cell.Cell, error) {
	b := storeIndex(header(domain.OpOwnershipProof, m.QueryID), m.Index).
		StoreAddr(m.Owner).
		StoreRef(m.Data).
		StoreUInt(m.RevokedAt, 64).
		StoreBit(m.WithContent)
	if m.WithContent {
		b.StoreRef(m.Content)
	}
	return b.EndCell()
}

// ParseOwnershipProof decodes an ownership_proof body
func ParseOwnershipProof(body *cell.Cell) (*OwnershipProof, error) {
	s := body.BeginParse()
	op, queryID, err := ParseHeader(s)
	if err != nil {
		return nil, err
	}
	if op != domain.OpOwnershipProof {
		return nil, fmt.Errorf("unexpected op %s", op)
	}
	m := &OwnershipProof{QueryID: queryID}
	if m.Index, err = loadIndex(s); err != nil {
		return nil, err
	}
	if m.Owner, err = s.LoadAddr(); err != nil {
		return nil, err
	}
	if m.Data, err = s.LoadRef(); err != nil {
		return nil, err
	}
	if m.RevokedAt, err = s.LoadUInt(64); err != nil {
		return nil, err
	}
	if m.WithContent, err = s.LoadBit(); err != nil {
		return nil, err
	}
	if m.WithContent {
		if m.Content, err = s.LoadRef(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OwnerInfo is what the item sends on request_owner; Sender is whoever asked
type OwnerInfo struct {
	QueryID     uint64
	Index       uint64
	Sender      cell.Address
	Owner       cell.Address
	Data        *cell.Cell
	RevokedAt   uint64
	WithContent bool
	Content     *cell.Cell
}

// ToCell encodes op query_id index:uint256 sender:address owner:address data:^Cell revoked_at:uint64 with_content:bit content:^Cell?
func (m OwnerInfo) ToCell() (*cell.Cell, error) {
	b := storeIndex(header(domain.OpOwnerInfo, m.QueryID), m.Index).
		StoreAddr(m.Sender).
		StoreAddr(m.Owner).
		StoreRef(m.Data).
		StoreUInt(m.RevokedAt, 64).
		StoreBit(m.WithContent)
	if m.WithContent {
		b.StoreRef(m.Content)
	}
	return b.EndCell()
}

// ParseOwnerInfo decodes an owner_info body
func ParseOwnerInfo(body *cell.Cell) (*OwnerInfo, error) {
	s := body.BeginParse()
	op, queryID, err := ParseHeader(s)
	if err != nil {
		return nil, err
	}
	if op != domain.OpOwnerInfo {
		return nil, fmt.Errorf("unexpected op %s", op)
	}
	m := &OwnerInfo{QueryID: queryID}
	if m.Index, err = loadIndex(s); err != nil {
		return nil, err
	}
	if m.Sender, err = s.LoadAddr(); err != nil {
		return nil, err
	}
	if m.Owner, err = s.LoadAddr(); err != nil {
		return nil, err
	}
	if m.Data, err = s.LoadRef(); err != nil {
		return nil, err
	}
	if m.RevokedAt, err = s.LoadUInt(64); err != nil {
		return nil, err
	}
	if m.WithContent, err = s.LoadBit(); err != nil {
		return nil, err
	}
	if m.WithContent {
		if m.Content, err = s.LoadRef(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ReportStaticData answers get_static_data
type ReportStaticData struct {
	QueryID    uint64
	Index      uint64
	Collection cell.Address
}

// ToCell encodes op query_id index:uint256 collection:address
func (m ReportStaticData) ToCell() (*cell.Cell, error) {
	return storeIndex(header(domain.OpReportStaticData, m.QueryID), m.Index).
		StoreAddr(m.Collection).
		EndCell()
}

// ParseReportStaticData decodes a report_static_data body
func ParseReportStaticData(body *cell.Cell) (*ReportStaticData, error) {
	s := body.BeginParse()
	op, queryID, err := ParseHeader(s)
	if err != nil {
		return nil, err
	}
	if op != domain.OpReportStaticData {
		return nil, fmt.Errorf("unexpected op %s", op)
	}
	m := &ReportStaticData{QueryID: queryID}
	if m.Index, err = loadIndex(s); err != nil {
		return nil, err
	}
	if m.Collection, err = s.LoadAddr(); err != nil {
		return nil, err
	}
	return m, nil
}

// Transfer is the standard item transfer request. Items always reject it;
// the layout exists so clients and tests can send a well-formed one.
type Transfer struct {
	QueryID             uint64
	NewOwner            cell.Address
	ResponseDestination cell.Address
	CustomPayload       *cell.Cell
	ForwardAmount       domain.Coins
	ForwardPayload      *cell.Cell
}

// ToCell encodes op query_id new_owner response_destination custom_payload:Maybe^Cell forward_amount:Coins forward_payload:Either
func (m Transfer) ToCell() (*cell.Cell, error) {
	b := header(domain.OpTransfer, m.QueryID).
		StoreAddr(m.NewOwner).
		StoreAddr(m.ResponseDestination).
		StoreMaybeRef(m.CustomPayload).
		StoreVarUInt(uint64(m.ForwardAmount), 4)
	if m.ForwardPayload != nil {
		b.StoreBit(true).StoreRef(m.ForwardPayload)
	} else {
		b.StoreBit(false)
	}
	return b.EndCell()
}

// ParseQueryID reads the query id of any body that starts with the
// standard header; it returns op and query id.
func ParseQueryID(body *cell.Cell) (domain.OpCode, uint64, error) {
	return ParseHeader(body.BeginParse())
}
