package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/commerce-backend/internal/core/domain"
	"github.com/rl1809/commerce-backend/internal/core/service"
)

type HTTPHandler struct {
	orders   *service.OrderService
	carts    *service.CartService
	products *service.ProductService
	users    *service.UserService
}

func NewHTTPHandler(
	orders *service.OrderService,
	carts *service.CartService,
	products *service.ProductService,
	users *service.UserService,
) *HTTPHandler {
	return &HTTPHandler{orders: orders, carts: carts, products: products, users: users}
}

// Register mounts the API routes. Everything except user creation sits
// behind the auth middleware.
func (h *HTTPHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	api := r.Group("/api")
	api.POST("/users", h.CreateUser)

	authed := api.Group("")
	authed.Use(auth)
	{
		authed.GET("/users/me", h.GetUser)
		authed.PUT("/users/me", h.UpdateUser)
		authed.DELETE("/users/me", h.DeleteUser)

		authed.GET("/products", h.ListProducts)
		authed.GET("/products/:productId", h.GetProduct)
		authed.POST("/products", h.CreateProduct)
		authed.PUT("/products/:productId", h.UpdateProduct)
		authed.DELETE("/products/:productId", h.DeleteProduct)

		authed.GET("/orders", h.ListOrders)
		authed.GET("/orders/:orderId", h.GetOrder)
		authed.POST("/orders", h.PlaceOrder)
		authed.PUT("/orders/cancel", h.CancelOrder)
		authed.PUT("/orders/status", h.UpdateOrderStatus)

		authed.GET("/cart/user/:userId", h.GetCart)
		authed.POST("/cart", h.AddCartItem)
		authed.DELETE("/cart/item/:itemId", h.RemoveCartItem)
		authed.PUT("/cart/item/:itemId", h.UpdateCartItem)
	}
}

// fail maps service errors onto the response taxonomy: missing things
// are 404, ownership violations 403, bad requests 400, the rest a
// generic 500 with the detail kept server-side.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied"})
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrOrderClosed),
		errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		log.Printf("request %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

// ---- orders ----

type placeOrderRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Address   string `json:"address" binding:"required"`
}

func (h *HTTPHandler) PlaceOrder(c *gin.Context) {
	defer recordOperation("order_place", c)

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, err := h.orders.Place(c.Request.Context(), userID(c), req.ProductID, req.Quantity, req.Address)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orderId": order.ID.Hex(), "status": order.Status})
}

type cancelOrderRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

func (h *HTTPHandler) CancelOrder(c *gin.Context) {
	defer recordOperation("order_cancel", c)

	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), req.OrderID, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": order.ID.Hex(), "status": order.Status})
}

type updateOrderStatusRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

func (h *HTTPHandler) UpdateOrderStatus(c *gin.Context) {
	defer recordOperation("order_update_status", c)

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), req.OrderID, domain.OrderStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": order.ID.Hex(), "status": order.Status})
}

func (h *HTTPHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetByID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *HTTPHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ---- cart ----

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

func (h *HTTPHandler) AddCartItem(c *gin.Context) {
	defer recordOperation("cart_add", c)

	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), userID(c), req.ProductID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cartId": cart.ID.Hex(), "items": cart.Items})
}

func (h *HTTPHandler) RemoveCartItem(c *gin.Context) {
	defer recordOperation("cart_remove", c)

	if err := h.carts.RemoveItem(c.Request.Context(), userID(c), c.Param("itemId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *HTTPHandler) UpdateCartItem(c *gin.Context) {
	defer recordOperation("cart_update", c)

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cart, err := h.carts.UpdateItemQuantity(c.Request.Context(), userID(c), c.Param("itemId"), req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cartId": cart.ID.Hex(), "items": cart.Items})
}

func (h *HTTPHandler) GetCart(c *gin.Context) {
	cart, err := h.carts.GetByUserID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cartId": cart.ID.Hex(), "items": cart.Items})
}

// ---- products ----

type productRequest struct {
	Name        string  `json:"productName"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"productImageURL"`
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "productName is required"})
		return
	}

	product, err := h.products.Create(c.Request.Context(), userID(c),
		req.Name, req.Description, req.Price, req.Category, req.ImageURL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *HTTPHandler) GetProduct(c *gin.Context) {
	product, err := h.products.GetByID(c.Request.Context(), c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	products, err := h.products.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	product, err := h.products.Update(c.Request.Context(), userID(c), c.Param("productId"),
		req.Name, req.Description, req.Price, req.Category, req.ImageURL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), userID(c), c.Param("productId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// ---- users ----

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	UserType string `json:"userType"`
}

func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, req.Email, req.UserType)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *HTTPHandler) GetUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), userID(c), req.Username, req.Email, req.UserType)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), userID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
