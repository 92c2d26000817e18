package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"donutshop/models"
)

type orderHandler struct {
	svc orderService
}

func newOrderHandler(svc orderService) *orderHandler {
	return &orderHandler{svc: svc}
}

// Submit places a new order. The priority is determined by the client id.
//
//	POST /orders?clientId=42&quantity=10
func (h *orderHandler) Submit(c *gin.Context) {
	clientID, ok := queryInt64(c, "clientId")
	if !ok {
		return
	}
	quantity, ok := queryInt(c, "quantity")
	if !ok {
		return
	}

	entry, err := h.svc.Submit(c.Request.Context(), clientID, quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// List returns the ranked queue. With ?clientId it returns that client's
// single entry instead; ?limit truncates the list.
//
//	GET /orders
//	GET /orders?clientId=42
//	GET /orders?limit=10
func (h *orderHandler) List(c *gin.Context) {
	if c.Query("clientId") != "" {
		clientID, ok := queryInt64(c, "clientId")
		if !ok {
			return
		}
		entry, err := h.svc.GetByClientID(c.Request.Context(), clientID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
		return
	}

	limit := 0
	if c.Query("limit") != "" {
		var ok bool
		if limit, ok = queryInt(c, "limit"); !ok {
			return
		}
	}

	entries, err := h.svc.ListQueue(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetByID returns a single queue entry by order id.
//
//	GET /orders/17
func (h *orderHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	entry, err := h.svc.GetByOrderID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete removes a client's pending order.
//
//	DELETE /orders?clientId=42
func (h *orderHandler) Delete(c *gin.Context) {
	clientID, ok := queryInt64(c, "clientId")
	if !ok {
		return
	}
	if err := h.svc.DeleteByClient(c.Request.Context(), clientID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NextDelivery returns the orders of the next delivery in queue order.
//
//	GET /nextDelivery
func (h *orderHandler) NextDelivery(c *gin.Context) {
	orders, err := h.svc.NextDelivery(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// FinishDelivery clears the current delivery batch. Without this call,
// subsequent reads of /nextDelivery keep returning the same orders.
//
//	DELETE /nextDelivery
func (h *orderHandler) FinishDelivery(c *gin.Context) {
	cleared, err := h.svc.FinishDelivery(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cleared)
}

// writeError maps service errors onto HTTP statuses: too-large and
// duplicate orders are forbidden, missing orders are not found. Anything
// else is a storage fault.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateClient), errors.Is(err, models.ErrOrderTooLarge):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithField("request_id", c.GetString("request_id")).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func queryInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing " + name})
		return 0, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing " + name})
		return 0, false
	}
	return v, true
}
