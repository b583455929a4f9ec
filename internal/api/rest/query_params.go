package rest

import (
	"github.com/gin-gonic/gin"
)

const MAX_PAGE_SIZE = 100

// ListItemsQueryParams holds query parameters for GET /items
type ListItemsQueryParams struct {
	Owner string `form:"owner"`

	// Pagination
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ParseListItemsQuery parses query parameters for GET /items
func ParseListItemsQuery(c *gin.Context) (*ListItemsQueryParams, error) {
	var params ListItemsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Limit > MAX_PAGE_SIZE {
		params.Limit = MAX_PAGE_SIZE
	}
	if params.Limit < 1 {
		params.Limit = 1
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	return &params, nil
}

// GetChangesQueryParams holds query parameters for GET /changes
type GetChangesQueryParams struct {
	Subject string `form:"subject"`
	// Since is the cursor of the last entry already seen
	Since uint64 `form:"since,default=0"`
	Limit int    `form:"limit,default=20"`
}

// ParseGetChangesQuery parses query parameters for GET /changes
func ParseGetChangesQuery(c *gin.Context) (*GetChangesQueryParams, error) {
	var params GetChangesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Limit > MAX_PAGE_SIZE {
		params.Limit = MAX_PAGE_SIZE
	}
	if params.Limit < 1 {
		params.Limit = 1
	}

	return &params, nil
}
