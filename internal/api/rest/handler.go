package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-sbt/internal/api/shared/dto"
	"github.com/feral-file/ff-sbt/internal/api/shared/executor"
)

// Handler defines the interface for REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// GetItem retrieves a single item by address
	// GET /api/v1/items/:address
	GetItem(c *gin.Context)

	// ListItems retrieves items of the hosted collection
	// GET /api/v1/items?owner=<address>&limit=<limit>&offset=<offset>
	ListItems(c *gin.Context)

	// GetItemContent resolves the full content URI of an item
	// GET /api/v1/items/:address/content
	GetItemContent(c *gin.Context)

	// GetCollection retrieves the hosted collection
	// GET /api/v1/collection
	GetCollection(c *gin.Context)

	// GetChanges retrieves journal entries after a cursor, oldest first
	// GET /api/v1/changes?subject=<address>&since=<cursor>&limit=<limit>
	GetChanges(c *gin.Context)

	// SubmitMessage injects an internal message into the network (requires authentication)
	// POST /api/v1/messages
	SubmitMessage(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor) Handler {
	return &handler{executor: exec}
}

func (h *handler) GetItem(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "Item address is required")
		return
	}

	item, err := h.executor.GetItem(c.Request.Context(), address)
	if err != nil {
		respondExecutorError(c, err, "Failed to get item")
		return
	}
	if item == nil {
		respondNotFound(c, "Item not found")
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *handler) ListItems(c *gin.Context) {
	params, err := ParseListItemsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	items, err := h.executor.ListItems(c.Request.Context(), params.Owner, params.Limit, params.Offset)
	if err != nil {
		respondExecutorError(c, err, "Failed to list items")
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *handler) GetItemContent(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "Item address is required")
		return
	}

	content, err := h.executor.GetItemContent(c.Request.Context(), address)
	if err != nil {
		respondExecutorError(c, err, "Failed to get item content")
		return
	}
	if content == nil {
		respondNotFound(c, "Item not found")
		return
	}

	c.JSON(http.StatusOK, content)
}

func (h *handler) GetCollection(c *gin.Context) {
	col, err := h.executor.GetCollection(c.Request.Context())
	if err != nil {
		respondExecutorError(c, err, "Failed to get collection")
		return
	}
	if col == nil {
		respondNotFound(c, "Collection not deployed")
		return
	}

	c.JSON(http.StatusOK, col)
}

func (h *handler) GetChanges(c *gin.Context) {
	params, err := ParseGetChangesQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	changes, err := h.executor.GetChanges(c.Request.Context(), params.Subject, params.Since, params.Limit)
	if err != nil {
		respondExecutorError(c, err, "Failed to get changes")
		return
	}

	c.JSON(http.StatusOK, changes)
}

func (h *handler) SubmitMessage(c *gin.Context) {
	var req dto.SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	trace, err := h.executor.SubmitMessage(c.Request.Context(), req)
	if err != nil {
		respondExecutorError(c, err, "Failed to submit message")
		return
	}

	c.JSON(http.StatusOK, trace)
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-sbt",
	})
}
