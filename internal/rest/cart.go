package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
)

// beginTransactionWait bounds how long the checkout handler blocks for a BEGIN_TRANSACTION_RESPONSE
// bus event before translating the wait to a 503 (Open Question #4 of the original spec).
const beginTransactionWait = 10 * time.Second

func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	ctx := c.Request.Context()
	if p := h.cache.GetProduct(ctx, id); p != nil {
		c.JSON(http.StatusOK, p)
		return
	}

	p, err := h.sync.GetProductCached(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	h.cache.PutProduct(ctx, p)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) getUIModel(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.CurrentUIModel())
}

type updateCartRequest struct {
	DisplayID int    `json:"displayId"`
	CartType  string `json:"cartType"`
	VariantID int    `json:"variantId"`
	Amount    int    `json:"amount"`
}

func (h *Handler) updateCart(c *gin.Context) {
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	cartType := parseCartType(req.CartType)
	res, msg := h.engine.Update(c.Param("transactionId"), req.DisplayID, cartType, req.VariantID, req.Amount)
	respondOperation(c, res, msg)
}

func (h *Handler) clearCart(c *gin.Context) {
	res, msg := h.engine.Clear(c.Param("transactionId"))
	respondOperation(c, res, msg)
}

func (h *Handler) prolongCart(c *gin.Context) {
	res, msg := h.engine.Prolong(c.Param("transactionId"))
	respondOperation(c, res, msg)
}

type reserveCartRequest struct {
	OrderInfo string `json:"orderInfo"`
}

func (h *Handler) reserveCart(c *gin.Context) {
	var req reserveCartRequest
	_ = c.ShouldBindJSON(&req)
	res, msg := h.engine.Reserve(c.Param("transactionId"), req.OrderInfo)
	respondOperation(c, res, msg)
}

type dispenseCartRequest struct {
	DisplayID int `json:"displayId"`
}

func (h *Handler) dispenseCart(c *gin.Context) {
	var req dispenseCartRequest
	_ = c.ShouldBindJSON(&req)
	res, msg := h.engine.Dispense(c.Param("transactionId"), req.DisplayID)
	respondOperation(c, res, msg)
}

// beginTransaction looks the cart up by transaction id, kicks off the asynchronous cloud
// checkout, then waits (bounded) for the matching BEGIN_TRANSACTION_RESPONSE bus event.
func (h *Handler) beginTransaction(c *gin.Context) {
	cart, err := h.repo.GetCartByTransactionID(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
		return
	}

	wait := h.waiter.register(cart.ID)
	h.engine.BeginTransaction(cart.ID)

	select {
	case success := <-wait:
		c.JSON(http.StatusOK, gin.H{"success": success})
	case <-time.After(beginTransactionWait):
		h.waiter.cancel(cart.ID)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transaction response timed out"})
	}
}

func respondOperation(c *gin.Context, res model.OperationResult, msg string) {
	switch res {
	case model.ResultOK:
		c.JSON(http.StatusOK, gin.H{"message": "OK"})
	case model.ResultPending:
		c.JSON(http.StatusOK, gin.H{"message": "PENDING"})
	case model.ResultNOK:
		c.JSON(http.StatusOK, gin.H{"message": "NOK", "reason": msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func parseCartType(s string) model.CartType {
	switch s {
	case "LOCAL":
		return model.CartTypeLocal
	case "REMOTE":
		return model.CartTypeRemote
	default:
		return model.CartTypeUndefined
	}
}
