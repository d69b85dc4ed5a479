package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/kiosko-snacks/internal/cart"
	"github.com/MikeMC777/kiosko-snacks/internal/catalog"
	"github.com/MikeMC777/kiosko-snacks/internal/httpx"
	"github.com/MikeMC777/kiosko-snacks/internal/inventory"
	"github.com/MikeMC777/kiosko-snacks/internal/kiosk"
	ord "github.com/MikeMC777/kiosko-snacks/internal/order"
)

type catalogSource interface {
	Current() (catalog.State, bool)
}

type statusSource interface {
	catalog.OverrideSource
	Status() kiosk.Status
}

type deps struct {
	carts   *cart.Manager
	catalog catalogSource
	status  statusSource
	orders  ord.Repository
	svc     *ord.Service
	log     *zap.Logger
}

func routes(r *gin.Engine, d deps, adminKeyHash string) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.GET("/catalog", catalogHandler(d.catalog, d.status))

	r.GET("/carts/:session", getCartHandler(d.carts))
	mut := r.Group("/carts/:session", requireOpen(d.status))
	mut.PUT("/items/:product_id", setItemHandler(d.carts, d.catalog, d.status))
	mut.POST("/items/:product_id/increment", incrementHandler(d.carts, d.catalog, d.status))
	mut.POST("/items/:product_id/decrement", decrementHandler(d.carts))
	mut.DELETE("/items/:product_id", removeItemHandler(d.carts))
	mut.DELETE("", clearCartHandler(d.carts))
	mut.POST("/checkout", checkoutHandler(d.carts, d.svc, d.log))

	r.GET("/orders/:id", getOrderHandler(d.orders))
	r.GET("/orders/:id/items", getOrderItemsHandler(d.orders))
	r.GET("/orders/session/:session", listOrdersBySessionHandler(d.orders))
	r.PUT("/orders/:id/status", httpx.AdminAuth(adminKeyHash), updateOrderStatusHandler(d.svc))
}

// requireOpen rejects cart mutations unless the kiosk is open.
func requireOpen(st statusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s := st.Status(); s != kiosk.Open {
			httpx.Abort(c, httpx.Unavailable("kiosk is "+string(s)))
			return
		}
		c.Next()
	}
}

// CatalogResponse is what the ordering screen renders.
// swagger:model CatalogResponse
type CatalogResponse struct {
	Status    kiosk.Status   `json:"status"`
	Cached    bool           `json:"cached"`
	FetchedAt time.Time      `json:"fetched_at"`
	Items     []catalog.Item `json:"items"`
}

func catalogHandler(cat catalogSource, st statusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, ok := cat.Current()
		if !ok {
			httpx.Abort(c, httpx.Unavailable("catalog not loaded yet"))
			return
		}
		c.JSON(http.StatusOK, CatalogResponse{
			Status:    st.Status(),
			Cached:    state.Cached,
			FetchedAt: state.FetchedAt,
			Items:     catalog.BuildView(state.Records, st, c.Query("sort") == "urgency"),
		})
	}
}

func getCartHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, carts.Get(c.Request.Context(), c.Param("session")))
	}
}

// SetItemRequest sets the quantity of one product in the cart.
// swagger:model SetItemRequest
type SetItemRequest struct {
	Quantity          int  `json:"quantity" example:"2"`
	ConfirmOutOfStock bool `json:"confirm_out_of_stock"`
}

// listing is a product as the kiosk currently shows it.
type listing struct {
	ref        cart.ProductRef
	outOfStock bool
	stock      float64
	known      bool
}

// needsConfirmation reports whether raising a line from cur to q units has
// to be confirmed by the shopper: the product is out of stock, or q is more
// than its known stock. q counts after the purchase limit clamps it, and
// lowering never needs confirmation.
func (l listing) needsConfirmation(cur, q int) bool {
	if lim := l.ref.PurchaseLimit; lim != nil && q > *lim {
		q = *lim
	}
	if q <= cur {
		return false
	}
	return l.outOfStock || (l.known && float64(q) > l.stock)
}

// lookup resolves a product as currently listed in the catalog.
func lookup(c *gin.Context, cat catalogSource, st statusSource) (listing, bool) {
	state, ok := cat.Current()
	if !ok {
		httpx.Abort(c, httpx.Unavailable("catalog not loaded yet"))
		return listing{}, false
	}
	rec, ok := state.Find(c.Param("product_id"))
	if !ok || !rec.Active {
		httpx.Abort(c, httpx.NotFound("product not in catalog"))
		return listing{}, false
	}
	ref, err := rec.Ref()
	if err != nil {
		httpx.Abort(c, httpx.Internal("invalid catalog record", err))
		return listing{}, false
	}
	l := listing{ref: ref, outOfStock: catalog.Derive(rec, st).IsOutOfStock}
	l.stock, l.known = catalog.KnownStock(rec, st)
	return l, true
}

func setItemHandler(carts *cart.Manager, cat catalogSource, st statusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Abort(c, httpx.Invalid("invalid json"))
			return
		}
		if req.Quantity < 0 {
			req.Quantity = 0
		}
		l, ok := lookup(c, cat, st)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		sessionID := c.Param("session")
		cur, _ := carts.Get(ctx, sessionID).Cart.Get(l.ref.ProductID)
		if l.needsConfirmation(cur.Quantity, req.Quantity) && !req.ConfirmOutOfStock {
			httpx.Abort(c, httpx.ConfirmationRequired("not enough stock of "+l.ref.Name))
			return
		}
		sess := carts.SetQuantity(ctx, sessionID, l.ref, req.Quantity)
		if req.ConfirmOutOfStock {
			carts.Confirm(ctx, sessionID, l.ref.ProductID)
		}
		c.JSON(http.StatusOK, sess)
	}
}

func incrementHandler(carts *cart.Manager, cat catalogSource, st statusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		l, ok := lookup(c, cat, st)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		sessionID := c.Param("session")
		confirm, _ := strconv.ParseBool(c.Query("confirm_out_of_stock"))
		cur, inCart := carts.Get(ctx, sessionID).Cart.Get(l.ref.ProductID)
		if inCart && l.needsConfirmation(cur.Quantity, cur.Quantity+1) && !confirm {
			httpx.Abort(c, httpx.ConfirmationRequired("not enough stock of "+l.ref.Name))
			return
		}
		sess := carts.Increment(ctx, sessionID, l.ref.ProductID)
		if confirm {
			carts.Confirm(ctx, sessionID, l.ref.ProductID)
		}
		c.JSON(http.StatusOK, sess)
	}
}

func decrementHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, carts.Decrement(c.Request.Context(), c.Param("session"), c.Param("product_id")))
	}
}

func removeItemHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, carts.Remove(c.Request.Context(), c.Param("session"), c.Param("product_id")))
	}
}

func clearCartHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, carts.Clear(c.Request.Context(), c.Param("session")))
	}
}

// checkoutHandler places the cart as an order. Lines beyond known stock go
// through only when the shopper confirmed them while shopping or confirms
// the whole checkout with ?confirm_out_of_stock=true.
func checkoutHandler(carts *cart.Manager, svc *ord.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sessionID := c.Param("session")
		confirmAll, _ := strconv.ParseBool(c.Query("confirm_out_of_stock"))

		var (
			o     *ord.Order
			items []ord.Item
		)
		_, err := carts.Checkout(ctx, sessionID, func(cc cart.Cart, confirmed map[string]bool) error {
			if confirmAll {
				for _, li := range cc.Items() {
					confirmed[li.ProductID] = true
				}
			}
			var err error
			o, items, err = svc.Checkout(ctx, sessionID, cc, confirmed)
			return err
		})
		var se *ord.StockError
		switch {
		case err == nil:
		case errors.Is(err, cart.ErrCheckoutInProgress):
			httpx.Abort(c, httpx.Conflict("checkout already in progress"))
			return
		case errors.Is(err, ord.ErrEmptyCart):
			httpx.Abort(c, httpx.Conflict("cart is empty"))
			return
		case errors.As(err, &se) && errors.Is(se.Err, ord.ErrInsufficientStock):
			httpx.Abort(c, httpx.ConfirmationRequired("not enough stock of product "+se.ProductID))
			return
		case errors.As(err, &se) && errors.Is(se.Err, inventory.ErrNotFound):
			httpx.Abort(c, httpx.Conflict("product "+se.ProductID+" is no longer available"))
			return
		case errors.As(err, &se):
			httpx.Abort(c, httpx.Upstream("could not update stock", err))
			return
		default:
			log.Error("checkout failed", zap.String("session", sessionID), zap.Error(err))
			httpx.Abort(c, httpx.Internal("could not place order", err))
			return
		}

		c.JSON(http.StatusCreated, ord.CheckoutResponse{Order: *o, Items: items})
	}
}

func orderError(c *gin.Context, err error) {
	if errors.Is(err, ord.ErrNotFound) {
		httpx.Abort(c, httpx.NotFound("order not found"))
		return
	}
	httpx.Abort(c, httpx.Internal("repository error", err))
}

func getOrderHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, items, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			orderError(c, err)
			return
		}
		c.JSON(http.StatusOK, ord.CheckoutResponse{Order: *o, Items: items})
	}
}

func getOrderItemsHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")
		if _, _, err := repo.GetByID(ctx, id); err != nil {
			orderError(c, err)
			return
		}
		items, err := repo.GetItems(ctx, id)
		if err != nil {
			orderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func listOrdersBySessionHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		out, err := repo.ListBySession(c.Request.Context(), c.Param("session"), limit, offset)
		if err != nil {
			orderError(c, err)
			return
		}
		if out == nil {
			out = []ord.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": out, "limit": limit, "offset": offset})
	}
}

func updateOrderStatusHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
			httpx.Abort(c, httpx.Invalid("status is required"))
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, o)
		case errors.Is(err, ord.ErrInvalidTransition):
			httpx.Abort(c, httpx.Conflict(err.Error()))
		default:
			orderError(c, err)
		}
	}
}
