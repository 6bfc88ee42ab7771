package interfaces

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/service/storefront/application"
	"storefront/internal/service/storefront/domain"
)

func (h *Handler) createProduct(c *gin.Context) {
	var req application.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.svc.Catalog.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) listProducts(c *gin.Context) {
	offset, limit, ok := page(c)
	if !ok {
		return
	}
	includeInactive := c.Query("include_inactive") == "true"
	vs, err := h.svc.Catalog.List(c.Request.Context(), offset, limit, includeInactive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (h *Handler) filterProducts(c *gin.Context) {
	f, err := parseProductFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	vs, err := h.svc.Catalog.Filter(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func parseProductFilter(c *gin.Context) (domain.ProductFilter, error) {
	f := domain.ProductFilter{
		Search: c.Query("search"),
		Sort:   domain.SortOrder(c.Query("sort")),
		Limit:  defaultPageLimit,
	}
	switch f.Sort {
	case domain.SortDefault, domain.SortPriceAsc, domain.SortPriceDesc, domain.SortName:
	default:
		return f, domain.InvalidInput("unknown sort %q", f.Sort)
	}

	var err error
	if v := c.Query("skip"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil || f.Offset < 0 {
			return f, domain.InvalidInput("invalid skip %q", v)
		}
	}
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit <= 0 {
			return f, domain.InvalidInput("invalid limit %q", v)
		}
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, domain.InvalidInput("invalid category_id %q", v)
		}
		f.CategoryID = &id
	}
	if v := c.Query("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, domain.InvalidInput("invalid min_price %q", v)
		}
		f.MinPrice = &d
	}
	if v := c.Query("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, domain.InvalidInput("invalid max_price %q", v)
		}
		f.MaxPrice = &d
	}
	if v := c.Query("in_stock"); v != "" {
		if f.InStockOnly, err = strconv.ParseBool(v); err != nil {
			return f, domain.InvalidInput("invalid in_stock %q", v)
		}
	}
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return f, domain.InvalidInput("invalid active %q", v)
		}
		f.Active = &active
	}
	return f, nil
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.svc.Catalog.Update(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
