package store

import (
	"fmt"
	"math"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/store/schema"
)

func encodeCell(c *cell.Cell) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	data, err := cell.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cell: %w", err)
	}
	return data, nil
}

func decodeCell(data []byte) (*cell.Cell, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var c cell.Cell
	if err := cell.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func optionalAddress(a cell.Address) *string {
	if a.IsNone() {
		return nil
	}
	s := a.String()
	return &s
}

func parseOptionalAddress(s *string) (cell.Address, error) {
	if s == nil {
		return cell.Address{}, nil
	}
	return cell.ParseAddress(*s)
}

func toSigned(v uint64, field string) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%s %d out of range", field, v)
	}
	return int64(v), nil
}

func itemToSchema(item *domain.Item) (*schema.Item, error) {
	index, err := toSigned(item.Index, "item index")
	if err != nil {
		return nil, err
	}
	revokedAt, err := toSigned(item.RevokedAt, "revoked_at")
	if err != nil {
		return nil, err
	}
	content, err := encodeCell(item.Content)
	if err != nil {
		return nil, err
	}

	row := &schema.Item{
		Address:           item.Address.String(),
		CollectionAddress: item.Collection.String(),
		ItemIndex:         index,
		Content:           content,
		RevokedAt:         revokedAt,
	}
	switch st := item.State.(type) {
	case domain.Active:
		row.State = schema.ItemStateActive
		row.OwnerAddress = optionalAddress(st.Owner)
		row.AuthorityAddress = optionalAddress(st.Authority)
	case domain.Destroyed:
		row.State = schema.ItemStateDestroyed
	default:
		row.State = schema.ItemStateUninitialized
	}
	return row, nil
}

func itemFromSchema(row *schema.Item) (*domain.Item, error) {
	address, err := cell.ParseAddress(row.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid item address: %w", err)
	}
	collection, err := cell.ParseAddress(row.CollectionAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid collection address: %w", err)
	}
	content, err := decodeCell(row.Content)
	if err != nil {
		return nil, err
	}

	item := &domain.Item{
		Address:    address,
		Index:      uint64(row.ItemIndex), //nolint:gosec,G115 // written from a uint64
		Collection: collection,
		Content:    content,
		RevokedAt:  uint64(row.RevokedAt), //nolint:gosec,G115
	}
	switch row.State {
	case schema.ItemStateActive:
		owner, err := parseOptionalAddress(row.OwnerAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid owner address: %w", err)
		}
		authority, err := parseOptionalAddress(row.AuthorityAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid authority address: %w", err)
		}
		item.State = domain.Active{Owner: owner, Authority: authority}
	case schema.ItemStateDestroyed:
		item.State = domain.Destroyed{}
	case schema.ItemStateUninitialized:
		item.State = domain.Uninitialized{}
	default:
		return nil, fmt.Errorf("unknown item state %q", row.State)
	}
	return item, nil
}

func collectionToSchema(c *domain.Collection) (*schema.Collection, error) {
	next, err := toSigned(c.NextItemIndex, "next item index")
	if err != nil {
		return nil, err
	}
	content, err := encodeCell(c.Content)
	if err != nil {
		return nil, err
	}
	common, err := encodeCell(c.CommonContent)
	if err != nil {
		return nil, err
	}
	return &schema.Collection{
		Address:       c.Address.String(),
		OwnerAddress:  c.Owner.String(),
		NextItemIndex: next,
		Content:       content,
		CommonContent: common,
	}, nil
}

func collectionFromSchema(row *schema.Collection) (*domain.Collection, error) {
	address, err := cell.ParseAddress(row.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid collection address: %w", err)
	}
	owner, err := cell.ParseAddress(row.OwnerAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid owner address: %w", err)
	}
	content, err := decodeCell(row.Content)
	if err != nil {
		return nil, err
	}
	common, err := decodeCell(row.CommonContent)
	if err != nil {
		return nil, err
	}
	return &domain.Collection{
		Address:       address,
		Owner:         owner,
		NextItemIndex: uint64(row.NextItemIndex), //nolint:gosec,G115
		Content:       content,
		CommonContent: common,
	}, nil
}
