package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/service/storefront/application"
)

// registerCrud 为简单实体注册一组标准的增删改查路由，D 是对外的 JSON 结构，T 是领域实体。
func registerCrud[D any, T any](g gin.IRouter, svc *application.CrudService[T], toDomain func(*D) *T, fromDomain func(*T) *D) {
	g.POST("", func(c *gin.Context) {
		var dto D
		if !bindJSON(c, &dto) {
			return
		}
		e, err := svc.Create(c.Request.Context(), toDomain(&dto))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, fromDomain(e))
	})

	g.GET("", func(c *gin.Context) {
		offset, limit, ok := page(c)
		if !ok {
			return
		}
		es, err := svc.List(c.Request.Context(), offset, limit)
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]*D, len(es))
		for i, e := range es {
			out[i] = fromDomain(e)
		}
		c.JSON(http.StatusOK, out)
	})

	g.GET("/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		e, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, fromDomain(e))
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var dto D
		if !bindJSON(c, &dto) {
			return
		}
		e, err := svc.Update(c.Request.Context(), id, toDomain(&dto))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, fromDomain(e))
	})

	g.DELETE("/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
