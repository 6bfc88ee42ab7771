package interfaces

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/service/storefront/application"
	"storefront/internal/service/storefront/domain"
)

const defaultPageLimit = 100

// Services 是 HTTP 层依赖的全部应用服务
type Services struct {
	Carts      *application.CartService
	Orders     *application.OrderService
	Details    *application.OrderDetailService
	Catalog    *application.CatalogService
	Customers  *application.CustomerService
	Bills      *application.CrudService[domain.Bill]
	Categories *application.CrudService[domain.Category]
	Reviews    *application.CrudService[domain.Review]
	Addresses  *application.CrudService[domain.Address]
}

// Handler 封装了 storefront 服务的 HTTP 处理器
type Handler struct {
	svc Services
}

// NewHandler 创建一个新的 HTTP 处理器实例
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// NewEngine 创建 gin 引擎，挂载中间件和 /api/v1 下的全部路由。
func NewEngine(serviceName string, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), tracingMiddleware(serviceName), metricsMiddleware())
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

// RegisterRoutes 注册所有业务路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	cart := r.Group("/cart/:client_id")
	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addCartItem)
	cart.PUT("/items", h.updateCartItem)
	cart.DELETE("/items/:product_id", h.removeCartItem)

	orders := r.Group("/orders")
	orders.POST("", h.createOrder)
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)
	orders.PUT("/:id", h.updateOrder)
	orders.PATCH("/:id/status", h.updateOrderStatus)
	orders.DELETE("/:id", h.deleteOrder)

	details := r.Group("/order_details")
	details.POST("", h.createOrderDetail)
	details.GET("", h.listOrderDetails)
	details.GET("/:id", h.getOrderDetail)
	details.PUT("/:id", h.updateOrderDetail)
	details.DELETE("/:id", h.deleteOrderDetail)

	products := r.Group("/products")
	products.POST("", h.createProduct)
	products.GET("", h.listProducts)
	products.GET("/filter", h.filterProducts)
	products.GET("/:id", h.getProduct)
	products.PUT("/:id", h.updateProduct)
	products.DELETE("/:id", h.deleteProduct)

	clients := r.Group("/clients")
	clients.POST("", h.createClient)
	clients.POST("/login", h.login)
	clients.GET("", h.listClients)
	clients.GET("/:id", h.getClient)
	clients.GET("/:id/orders", h.listClientOrders)
	clients.PUT("/:id", h.updateClient)
	clients.DELETE("/:id", h.deleteClient)

	registerCrud(r.Group("/bills"), h.svc.Bills, (*application.BillDTO).ToDomain, application.BillFromDomain)
	registerCrud(r.Group("/categories"), h.svc.Categories, (*application.CategoryDTO).ToDomain, application.CategoryFromDomain)
	registerCrud(r.Group("/reviews"), h.svc.Reviews, (*application.ReviewDTO).ToDomain, application.ReviewFromDomain)
	registerCrud(r.Group("/addresses"), h.svc.Addresses, (*application.AddressDTO).ToDomain, application.AddressFromDomain)
}

// pathID 解析路径中的整数 ID，失败时直接写 400。
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// page 解析 skip / limit 分页参数
func page(c *gin.Context) (offset, limit int, ok bool) {
	offset, limit = 0, defaultPageLimit
	var err error
	if v := c.Query("skip"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
			return 0, 0, false
		}
	}
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, 0, false
		}
	}
	return offset, limit, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return false
	}
	return true
}
