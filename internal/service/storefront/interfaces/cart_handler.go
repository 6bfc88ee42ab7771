package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/service/storefront/application"
)

func (h *Handler) getCart(c *gin.Context) {
	clientID, ok := pathID(c, "client_id")
	if !ok {
		return
	}
	view, err := h.svc.Carts.GetCart(c.Request.Context(), clientID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) addCartItem(c *gin.Context) {
	clientID, ok := pathID(c, "client_id")
	if !ok {
		return
	}
	var req application.CartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Carts.AddItem(c.Request.Context(), clientID, req.ProductID, req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item added"})
}

func (h *Handler) updateCartItem(c *gin.Context) {
	clientID, ok := pathID(c, "client_id")
	if !ok {
		return
	}
	var req application.CartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Carts.UpdateItem(c.Request.Context(), clientID, req.ProductID, req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item updated"})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	clientID, ok := pathID(c, "client_id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}
	if err := h.svc.Carts.RemoveItem(c.Request.Context(), clientID, productID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

func (h *Handler) clearCart(c *gin.Context) {
	clientID, ok := pathID(c, "client_id")
	if !ok {
		return
	}
	if err := h.svc.Carts.ClearCart(c.Request.Context(), clientID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
