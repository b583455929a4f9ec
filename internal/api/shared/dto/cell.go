package dto

import (
	"encoding/base64"
	"fmt"

	"github.com/feral-file/ff-sbt/internal/cell"
)

// EncodeCell renders a cell as base64 of its CBOR encoding. A nil cell renders as "".
func EncodeCell(c *cell.Cell) (string, error) {
	if c == nil {
		return "", nil
	}
	raw, err := cell.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeCell is the inverse of EncodeCell
func DecodeCell(s string) (*cell.Cell, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	var c cell.Cell
	if err := cell.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("invalid cell: %w", err)
	}
	return &c, nil
}
