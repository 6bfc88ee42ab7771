package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/service/storefront/application"
)

func (h *Handler) createClient(c *gin.Context) {
	var req application.CreateClientRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.svc.Customers.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) login(c *gin.Context) {
	var req application.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.svc.Customers.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) listClients(c *gin.Context) {
	offset, limit, ok := page(c)
	if !ok {
		return
	}
	vs, err := h.svc.Customers.List(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (h *Handler) getClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.Customers.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) updateClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.UpdateClientRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.svc.Customers.Update(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) deleteClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Customers.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
