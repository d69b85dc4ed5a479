package main

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/kiosko-snacks/internal/audit"
	"github.com/MikeMC777/kiosko-snacks/internal/httpx"
	prod "github.com/MikeMC777/kiosko-snacks/internal/product"
	"github.com/MikeMC777/kiosko-snacks/internal/stock"
)

func routes(r *gin.Engine, repo prod.Repository, sink audit.Sink, log *zap.Logger, adminKeyHash string) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.GET("/products", listOnlyHandler(repo))
	r.GET("/products/search", searchHandler(repo))
	r.GET("/products/urgent", urgentHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))
	r.GET("/feed", feedHandler(repo))
	r.GET("/categories", categoriesHandler(repo))

	admin := r.Group("/", httpx.AdminAuth(adminKeyHash))
	admin.POST("/products", createProductHandler(repo, sink, log))
	admin.PUT("/products/:id", updateProductHandler(repo, sink, log))
	admin.DELETE("/products/:id", deleteProductHandler(repo, sink, log))
	admin.PUT("/products/:id/stock", setStockHandler(repo, sink, log))
	admin.POST("/products/:id/stock/adjust", adjustStockHandler(repo, sink, log))
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func repoError(c *gin.Context, err error) {
	if errors.Is(err, prod.ErrNotFound) {
		httpx.Abort(c, httpx.NotFound("product not found"))
		return
	}
	httpx.Abort(c, httpx.Internal("repository error", err))
}

// listOnlyHandler godoc
// @Summary  List products
// @Tags     products
// @Produce  json
// @Param    limit    query int    false "page size"
// @Param    offset   query int    false "page offset"
// @Param    category query string false "category filter"
// @Success  200 {object} prod.ListResponse
// @Router   /products [get]
func listOnlyHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		items, err := repo.List(c.Request.Context(), prod.Query{
			Category: c.Query("category"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			repoError(c, err)
			return
		}
		c.JSON(http.StatusOK, prod.ListResponse{Limit: limit, Offset: offset, Items: prod.Decorate(items)})
	}
}

// searchHandler godoc
// @Summary  Search products by name or description
// @Tags     products
// @Produce  json
// @Param    q      query string true  "at least 2 characters"
// @Param    limit  query int    false "page size"
// @Param    offset query int    false "page offset"
// @Success  200 {object} prod.ListResponse
// @Failure  400 {object} httpx.Error
// @Router   /products/search [get]
func searchHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if len([]rune(q)) < 2 {
			httpx.Abort(c, httpx.Invalid("q must have at least 2 characters"))
			return
		}
		limit, offset := pagination(c)
		items, err := repo.List(c.Request.Context(), prod.Query{
			Q:        q,
			Category: c.Query("category"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			repoError(c, err)
			return
		}
		c.JSON(http.StatusOK, prod.ListResponse{Q: q, Limit: limit, Offset: offset, Items: prod.Decorate(items)})
	}
}

// getProductHandler godoc
// @Summary  Get a product
// @Tags     products
// @Produce  json
// @Param    id path string true "product id"
// @Success  200 {object} prod.WithStatus
// @Failure  404 {object} httpx.Error
// @Router   /products/{id} [get]
func getProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			repoError(c, err)
			return
		}
		c.JSON(http.StatusOK, prod.Decorate([]prod.Product{*p})[0])
	}
}

// urgentHandler godoc
// @Summary  Products needing attention, out of stock first then low stock
// @Tags     products
// @Produce  json
// @Param    all query bool false "include products that need no attention"
// @Success  200 {array} prod.WithStatus
// @Router   /products/urgent [get]
func urgentHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, _ := strconv.ParseBool(c.Query("all"))
		items, err := repo.ListAll(c.Request.Context(), true)
		if err != nil {
			repoError(c, err)
			return
		}
		out := make([]prod.WithStatus, 0, len(items))
		for _, p := range prod.Decorate(items) {
			st := p.StockStatus
			if all || st.IsOutOfStock || st.IsLowStock || st.Status != stock.InStock {
				out = append(out, p)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return stock.Less(
				stock.Entry{ProductID: out[i].ID, Name: out[i].Name, Result: out[i].StockStatus},
				stock.Entry{ProductID: out[j].ID, Name: out[j].Name, Result: out[j].StockStatus},
			)
		})
		c.JSON(http.StatusOK, out)
	}
}

// feedHandler godoc
// @Summary  Catalog feed consumed by kiosks
// @Tags     feed
// @Produce  json
// @Success  200 {array} prod.FeedRecord
// @Router   /feed [get]
func feedHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repo.ListAll(c.Request.Context(), true)
		if err != nil {
			repoError(c, err)
			return
		}
		out := make([]prod.FeedRecord, 0, len(items))
		for _, p := range items {
			out = append(out, p.Record())
		}
		c.JSON(http.StatusOK, out)
	}
}

// categoriesHandler godoc
// @Summary  Categories with product counts
// @Tags     products
// @Produce  json
// @Success  200 {array} prod.CategoryCount
// @Router   /categories [get]
func categoriesHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := repo.Categories(c.Request.Context())
		if err != nil {
			repoError(c, err)
			return
		}
		if out == nil {
			out = []prod.CategoryCount{}
		}
		c.JSON(http.StatusOK, out)
	}
}

func validPrice(s string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	return err == nil && d.IsPositive()
}

func negative(vals ...*int) bool {
	for _, v := range vals {
		if v != nil && *v < 0 {
			return true
		}
	}
	return false
}

// createProductHandler godoc
// @Summary  Create a product
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    body body prod.CreateProductRequest true "product"
// @Success  201 {object} prod.WithStatus
// @Failure  400 {object} httpx.Error
// @Failure  401 {object} httpx.Error
// @Security AdminKey
// @Router   /products [post]
func createProductHandler(repo prod.Repository, sink audit.Sink, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, httpx.Invalid("invalid json"))
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" || !validPrice(req.Price) {
			httpx.Abort(c, httpx.Invalid("name and a positive price are required"))
			return
		}
		if negative(req.Stock, req.LowStockThreshold, req.PurchaseLimit) {
			httpx.Abort(c, httpx.Invalid("stock, low_stock_threshold and purchase_limit must be non-negative"))
			return
		}

		p := &prod.Product{
			ID:                uuid.NewString(),
			Name:              name,
			Description:       req.Description,
			Category:          strings.TrimSpace(req.Category),
			Price:             strings.TrimSpace(req.Price),
			Stock:             req.Stock,
			LowStockThreshold: req.LowStockThreshold,
			PurchaseLimit:     req.PurchaseLimit,
			Active:            true,
		}
		ctx := c.Request.Context()
		if err := repo.Create(ctx, p); err != nil {
			repoError(c, err)
			return
		}
		audit.Record(ctx, sink, log, audit.NewEvent(audit.ProductCreated, p.ID, httpx.Actor(c), map[string]any{
			"name":  p.Name,
			"price": p.Price,
		}))
		c.JSON(http.StatusCreated, prod.Decorate([]prod.Product{*p})[0])
	}
}

// updateProductHandler godoc
// @Summary  Partially update a product
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    id   path string                     true "product id"
// @Param    body body prod.UpdateProductRequest  true "fields to change"
// @Success  200 {object} prod.WithStatus
// @Failure  400 {object} httpx.Error
// @Failure  404 {object} httpx.Error
// @Security AdminKey
// @Router   /products/{id} [put]
func updateProductHandler(repo prod.Repository, sink audit.Sink, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, httpx.Invalid("invalid json"))
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
			httpx.Abort(c, httpx.Invalid("name cannot be empty"))
			return
		}
		if req.Price != nil && !validPrice(*req.Price) {
			httpx.Abort(c, httpx.Invalid("price must be a positive decimal"))
			return
		}
		if negative(req.Stock, req.LowStockThreshold, req.PurchaseLimit, req.DiscrepancyTotal) {
			httpx.Abort(c, httpx.Invalid("numeric fields must be non-negative"))
			return
		}

		ctx := c.Request.Context()
		p, err := repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			repoError(c, err)
			return
		}

		var changed []string
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
			changed = append(changed, "name")
		}
		if req.Description != nil {
			p.Description = *req.Description
			changed = append(changed, "description")
		}
		if req.Category != nil {
			p.Category = strings.TrimSpace(*req.Category)
			changed = append(changed, "category")
		}
		if req.Price != nil {
			p.Price = strings.TrimSpace(*req.Price)
			changed = append(changed, "price")
		}
		if req.Stock != nil {
			p.Stock = req.Stock
			changed = append(changed, "stock")
		}
		switch {
		case req.ClearThreshold:
			p.LowStockThreshold = nil
			changed = append(changed, "low_stock_threshold")
		case req.LowStockThreshold != nil:
			p.LowStockThreshold = req.LowStockThreshold
			changed = append(changed, "low_stock_threshold")
		}
		switch {
		case req.ClearLimit:
			p.PurchaseLimit = nil
			changed = append(changed, "purchase_limit")
		case req.PurchaseLimit != nil:
			p.PurchaseLimit = req.PurchaseLimit
			changed = append(changed, "purchase_limit")
		}
		if req.DiscrepancyTotal != nil {
			p.DiscrepancyTotal = *req.DiscrepancyTotal
			changed = append(changed, "discrepancy_total")
		}
		if req.Active != nil {
			p.Active = *req.Active
			changed = append(changed, "active")
		}

		if err := repo.Update(ctx, p); err != nil {
			repoError(c, err)
			return
		}
		audit.Record(ctx, sink, log, audit.NewEvent(audit.ProductUpdated, p.ID, httpx.Actor(c), map[string]any{
			"fields": changed,
		}))
		c.JSON(http.StatusOK, prod.Decorate([]prod.Product{*p})[0])
	}
}

// deleteProductHandler godoc
// @Summary  Delete a product
// @Tags     admin
// @Param    id path string true "product id"
// @Success  204
// @Failure  404 {object} httpx.Error
// @Security AdminKey
// @Router   /products/{id} [delete]
func deleteProductHandler(repo prod.Repository, sink audit.Sink, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		ctx := c.Request.Context()
		ok, err := repo.Delete(ctx, id)
		if err != nil {
			repoError(c, err)
			return
		}
		if !ok {
			httpx.Abort(c, httpx.NotFound("product not found"))
			return
		}
		audit.Record(ctx, sink, log, audit.NewEvent(audit.ProductDeleted, id, httpx.Actor(c), nil))
		c.Status(http.StatusNoContent)
	}
}

// setStockHandler godoc
// @Summary  Record a counted stock level
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    id   path string               true "product id"
// @Param    body body prod.SetStockRequest true "absolute stock"
// @Success  200 {object} prod.WithStatus
// @Failure  400 {object} httpx.Error
// @Failure  404 {object} httpx.Error
// @Security AdminKey
// @Router   /products/{id}/stock [put]
func setStockHandler(repo prod.Repository, sink audit.Sink, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.SetStockRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Stock == nil {
			httpx.Abort(c, httpx.Invalid("stock is required"))
			return
		}
		if *req.Stock < 0 {
			httpx.Abort(c, httpx.Invalid("stock must be non-negative"))
			return
		}
		ctx := c.Request.Context()
		p, err := repo.SetStock(ctx, c.Param("id"), *req.Stock)
		if err != nil {
			repoError(c, err)
			return
		}
		audit.Record(ctx, sink, log, audit.NewEvent(audit.StockSet, p.ID, httpx.Actor(c), map[string]any{
			"stock": *req.Stock,
		}))
		c.JSON(http.StatusOK, prod.Decorate([]prod.Product{*p})[0])
	}
}

// adjustStockHandler godoc
// @Summary  Apply a signed stock delta; the result may go negative
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    id   path string                  true "product id"
// @Param    body body prod.AdjustStockRequest true "delta"
// @Success  200 {object} prod.WithStatus
// @Failure  400 {object} httpx.Error
// @Failure  404 {object} httpx.Error
// @Security AdminKey
// @Router   /products/{id}/stock/adjust [post]
func adjustStockHandler(repo prod.Repository, sink audit.Sink, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.AdjustStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, httpx.Invalid("invalid json"))
			return
		}
		if req.Delta == 0 {
			httpx.Abort(c, httpx.Invalid("delta must be non-zero"))
			return
		}
		ctx := c.Request.Context()
		p, err := repo.AdjustStock(ctx, c.Param("id"), req.Delta)
		if err != nil {
			repoError(c, err)
			return
		}
		data := map[string]any{"delta": req.Delta, "reason": req.Reason}
		if p.Stock != nil {
			data["stock"] = *p.Stock
			if *p.Stock < 0 {
				log.Warn("stock went negative", zap.String("product_id", p.ID), zap.Int("stock", *p.Stock))
			}
		}
		audit.Record(ctx, sink, log, audit.NewEvent(audit.StockAdjusted, p.ID, httpx.Actor(c), data))
		c.JSON(http.StatusOK, prod.Decorate([]prod.Product{*p})[0])
	}
}
