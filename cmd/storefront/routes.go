package main

import (
	"errors"
	"net/http"
	"strconv"

	"storefront-client/internal/auth"
	"storefront-client/internal/authapi"
	"storefront-client/internal/httpclient"
	"storefront-client/internal/metrics"
	"storefront-client/internal/rbac"
	"storefront-client/internal/session"
	"storefront-client/internal/storefront"
	"storefront-client/pkg/logger"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, a *app) {
	h := handlers{app: a}

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler(a.registry)))

	s := r.Group("/session")
	{
		s.GET("", h.sessionState)
		s.POST("/login", h.login)
		s.POST("/register", h.register)
		s.POST("/logout", h.logout)
		s.POST("/refresh", h.refresh)
		s.GET("/events", h.events)
	}

	api := r.Group("/api")
	api.Use(h.identity())
	{
		api.GET("/products", h.products)
		api.GET("/products/:id", h.product)
		api.GET("/categories", h.categories)
		api.GET("/warehouses", h.warehouses)

		user := api.Group("", h.requireSession)
		user.GET("/cart", h.cart)
		user.POST("/cart/items", h.addCartItem)
		user.DELETE("/cart", h.clearCart)
		user.GET("/orders", h.orders)
		user.POST("/orders", h.createOrder)
		user.GET("/wishlist", h.wishlist)
	}

	dash := r.Group("/dashboard")
	dash.Use(h.identity())
	{
		dash.GET("/admin", rbac.RequireAnyRole(rbac.RoleAdmin), h.dashboard(rbac.DashboardAdmin))
		dash.GET("/seller", rbac.RequireAnyRole(rbac.RoleSeller), h.dashboard(rbac.DashboardSeller))
		dash.GET("/super-admin", rbac.RequireAnyRole(rbac.RoleSuperAdmin), h.dashboard(rbac.DashboardSuperAdmin))
	}
}

type handlers struct {
	app *app
}

// identity puts the decoded (unverified) session identity into the request context.
func (h handlers) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := h.app.session.Snapshot()
		if st.Authenticated {
			ctx := c.Request.Context()
			uid := h.app.session.Inspector().CurrentUserID(ctx)
			c.Request = c.Request.WithContext(auth.WithIdentity(ctx, uid, st.Role))
		}
		c.Next()
	}
}

func (h handlers) requireSession(c *gin.Context) {
	if _, err := auth.UserID(c.Request.Context()); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "login required"})
		return
	}
	c.Next()
}

func (h handlers) health(c *gin.Context) {
	failed := gin.H{}
	for name, probe := range h.app.probes {
		if err := probe(c.Request.Context()); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h handlers) sessionState(c *gin.Context) {
	st := h.app.session.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"session":   st,
		"dashboard": rbac.DashboardFor(st.Role),
	})
}

func (h handlers) login(c *gin.Context) {
	var req authapi.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	resp, err := h.app.session.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": session.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (h handlers) register(c *gin.Context) {
	var req authapi.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	resp, err := h.app.session.Register(c.Request.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		if session.IsKind(err, session.KindAutoLoginFailed) {
			status = http.StatusAccepted
		}
		c.JSON(status, gin.H{"success": false, "error": session.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (h handlers) logout(c *gin.Context) {
	if err := h.app.session.Logout(c.Request.Context()); err != nil {
		logger.FromGin(c).Error("logout", "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h handlers) refresh(c *gin.Context) {
	if _, err := h.app.session.Refresh(c.Request.Context(), session.TriggerManual); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": session.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": h.app.session.Snapshot()})
}

func (h handlers) events(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	evs, err := h.app.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "events unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": evs})
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return page, size
}

func (h handlers) products(c *gin.Context) {
	page, size := pageParams(c)
	ctx := c.Request.Context()
	var (
		out *storefront.Page[storefront.Product]
		err error
	)
	switch {
	case c.Query("q") != "":
		out, err = h.app.services.Catalog.SearchProducts(ctx, c.Query("q"), page, size)
	case c.Query("category") != "":
		id, perr := strconv.ParseInt(c.Query("category"), 10, 64)
		if perr != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid category"})
			return
		}
		out, err = h.app.services.Catalog.ProductsByCategory(ctx, id, page, size)
	default:
		out, err = h.app.services.Catalog.Products(ctx, page, size)
	}
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h handlers) product(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return
	}
	p, err := h.app.services.Catalog.Product(c.Request.Context(), id)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h handlers) categories(c *gin.Context) {
	page, size := pageParams(c)
	out, err := h.app.services.Catalog.Categories(c.Request.Context(), page, size)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h handlers) warehouses(c *gin.Context) {
	page, size := pageParams(c)
	out, err := h.app.services.Warehouses.List(c.Request.Context(), page, size)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h handlers) cart(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	out, err := h.app.services.Cart.GetOrCreate(c.Request.Context(), uid)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h handlers) addCartItem(c *gin.Context) {
	var req storefront.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	uid, _ := auth.UserID(c.Request.Context())
	req.UserID, _ = strconv.ParseInt(uid, 10, 64)
	out, err := h.app.services.Cart.AddItem(c.Request.Context(), req)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h handlers) clearCart(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	if err := h.app.services.Cart.ClearItems(c.Request.Context(), uid); err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h handlers) orders(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	page, size := pageParams(c)
	out, err := h.app.services.Orders.ByUser(c.Request.Context(), uid, page, size)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h handlers) createOrder(c *gin.Context) {
	var req storefront.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if req.ShippingAddress == "" || len(req.OrderItems) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "shippingAddress and orderItems required"})
		return
	}
	uid, _ := auth.UserID(c.Request.Context())
	req.UserID, _ = strconv.ParseInt(uid, 10, 64)

	ctx := c.Request.Context()
	order, err := h.app.services.Orders.Create(ctx, req)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	if err := h.app.services.Cart.ClearItems(ctx, uid); err != nil {
		logger.FromGin(c).Warn("order placed but cart not cleared", "err", err)
	}
	c.JSON(http.StatusCreated, order)
}

func (h handlers) wishlist(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	wl, err := h.app.services.Wishlist.Get(c.Request.Context(), uid)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": wl})
}

func (h handlers) dashboard(d rbac.Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := auth.RoleFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"dashboard": d, "role": role})
	}
}

// writeUpstreamError maps backend and session failures onto gateway responses.
func writeUpstreamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storefront.ErrOrderTimeout):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"message": "Request timeout. Please try again."})
		return
	case session.IsKind(err, session.KindRefreshFailed), session.IsKind(err, session.KindNoRefreshToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "session expired; please login again"})
		return
	}
	if se, ok := httpclient.AsStatusError(err); ok {
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.Status)
		}
		c.AbortWithStatusJSON(se.Status, gin.H{"message": msg})
		return
	}
	logger.FromGin(c).Error("upstream call failed", "err", err)
	c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"message": "upstream unavailable"})
}
