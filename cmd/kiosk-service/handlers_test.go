package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MikeMC777/kiosko-snacks/internal/audit"
	"github.com/MikeMC777/kiosko-snacks/internal/cart"
	"github.com/MikeMC777/kiosko-snacks/internal/catalog"
	"github.com/MikeMC777/kiosko-snacks/internal/httpx"
	"github.com/MikeMC777/kiosko-snacks/internal/inventory"
	"github.com/MikeMC777/kiosko-snacks/internal/kiosk"
	ord "github.com/MikeMC777/kiosko-snacks/internal/order"
	prod "github.com/MikeMC777/kiosko-snacks/internal/product"
	"github.com/MikeMC777/kiosko-snacks/internal/stock"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
}

//
// ---------- STUBS & FAKES ----------
//

// stubRepo implementa ord.Repository en memoria.
type stubRepo struct {
	mu     sync.Mutex
	orders map[string]ord.Order
	items  map[string][]ord.Item
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[string]ord.Order{}, items: map[string][]ord.Item{}}
}

func (s *stubRepo) Create(ctx context.Context, o *ord.Order, items []ord.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = *o
	s.items[o.ID] = append([]ord.Item(nil), items...)
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*ord.Order, []ord.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil, ord.ErrNotFound
	}
	return &o, s.items[id], nil
}

func (s *stubRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]ord.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ord.Order{}
	for _, o := range s.orders {
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ord.ErrNotFound
	}
	if o.Status != from {
		return ord.ErrInvalidTransition
	}
	o.Status = to
	s.orders[id] = o
	return nil
}

func (s *stubRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *stubRepo) GetItems(ctx context.Context, orderID string) ([]ord.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[orderID], nil
}

// fixedCatalog sirve siempre el mismo estado de catálogo.
type fixedCatalog struct {
	state catalog.State
	ok    bool
}

func (f fixedCatalog) Current() (catalog.State, bool) { return f.state, f.ok }

func intp(v int) *int { return &v }

func testCatalog() fixedCatalog {
	return fixedCatalog{ok: true, state: catalog.State{Records: []prod.FeedRecord{
		{ID: "coke", Name: "Coke", Price: "1.50", StockQuantity: stock.Float(10), LowStockThreshold: stock.Float(3), PurchaseLimit: intp(3), Active: true},
		{ID: "chips", Name: "Chips", Price: "2.00", StockQuantity: stock.Float(0), LowStockThreshold: stock.Float(3), Active: true},
		{ID: "gum", Name: "Gum", Price: "0.50", StockQuantity: stock.Float(5), Active: false},
	}}}
}

// productServer simula POST /products/:id/stock/adjust con stock en memoria.
// Si gate no es nil, cada ajuste avisa por arrived y espera a que gate se cierre.
type productServer struct {
	mu      sync.Mutex
	stock   map[string]int
	gate    chan struct{}
	arrived chan struct{}
}

func newProductServer(t *testing.T, initial map[string]int) (*httptest.Server, *productServer) {
	t.Helper()
	ps := &productServer{stock: initial}
	mux := http.NewServeMux()
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/products/"), "/")
		if r.Method != http.MethodPost || len(parts) != 3 || parts[1] != "stock" || parts[2] != "adjust" {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		var body prod.AdjustStockRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
			return
		}
		ps.mu.Lock()
		gate, arrived := ps.gate, ps.arrived
		ps.mu.Unlock()
		if gate != nil {
			select {
			case arrived <- struct{}{}:
			default:
			}
			<-gate
		}
		ps.mu.Lock()
		defer ps.mu.Unlock()
		cur, ok := ps.stock[parts[0]]
		if !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		cur += body.Delta
		ps.stock[parts[0]] = cur
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(prod.Product{ID: parts[0], Stock: &cur})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, ps
}

// hold hace que los ajustes siguientes esperen hasta cerrar gate.
func (p *productServer) hold() (gate, arrived chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gate = make(chan struct{})
	p.arrived = make(chan struct{}, 1)
	return p.gate, p.arrived
}

func (p *productServer) set(id string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stock[id] = n
}

func (p *productServer) get(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stock[id]
}

type env struct {
	r       *gin.Engine
	carts   *cart.Manager
	tracker *kiosk.Tracker
	repo    *stubRepo
	sink    *audit.MemorySink
	product *productServer
}

func newEnv(t *testing.T, cat fixedCatalog) *env {
	t.Helper()
	psrv, ps := newProductServer(t, map[string]int{"coke": 10, "chips": 0})
	carts := cart.NewManager(nil, zap.NewNop())
	t.Cleanup(carts.Close)

	e := &env{
		r:       gin.New(),
		carts:   carts,
		tracker: kiosk.NewTracker(),
		repo:    newStubRepo(),
		sink:    audit.NewMemorySink(nil),
		product: ps,
	}
	inv := inventory.NewClient(psrv.URL, "")
	routes(e.r, deps{
		carts:   carts,
		catalog: cat,
		status:  e.tracker,
		orders:  e.repo,
		svc:     ord.NewService(e.repo, inv, e.sink, zap.NewNop()),
		log:     zap.NewNop(),
	}, "")
	return e
}

func (e *env) do(method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	e.r.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) cart.Session {
	t.Helper()
	var s cart.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("json inválido: %v body=%s", err, w.Body.String())
	}
	return s
}

//
// ---------- TESTS ----------
//

func TestCatalog_NotLoaded(t *testing.T) {
	e := newEnv(t, fixedCatalog{})
	if w := e.do(http.MethodGet, "/catalog", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s (esperaba 503)", w.Code, w.Body.String())
	}
}

func TestCatalog_ViewWithStatus(t *testing.T) {
	e := newEnv(t, testCatalog())
	e.tracker.SetOverrides(map[string]kiosk.LiveOverride{"coke": {StockQuantity: stock.Float(1)}})

	w := e.do(http.MethodGet, "/catalog?sort=urgency", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got CatalogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if got.Status != kiosk.Open || len(got.Items) != 2 {
		t.Fatalf("respuesta inesperada: %+v", got)
	}
	// chips agotado primero; coke bajo por el override en vivo
	if got.Items[0].ProductID != "chips" || !got.Items[0].IsOutOfStock {
		t.Fatalf("orden inesperado: %+v", got.Items)
	}
	if !got.Items[1].IsLowStock {
		t.Fatalf("el override en vivo debía marcar coke como bajo: %+v", got.Items[1])
	}
}

func TestSetItem_LimitAdvisoryAndCoercion(t *testing.T) {
	e := newEnv(t, testCatalog())

	w := e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":7}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	s := decodeSession(t, w)
	if s.TotalItems != 3 || s.Advisory != cart.LimitAdvisory(3) {
		t.Fatalf("esperaba 3 unidades y aviso de límite, got %+v", s)
	}
	if !s.TotalPrice.Equal(s.Items[0].Subtotal()) || s.Items[0].Subtotal().StringFixed(2) != "4.50" {
		t.Fatalf("total inesperado: %s", s.TotalPrice)
	}

	// cantidad negativa ⇒ 0 ⇒ se elimina la línea
	s = decodeSession(t, e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":-4}`))
	if len(s.Items) != 0 || s.Advisory != "" {
		t.Fatalf("esperaba carrito vacío sin aviso, got %+v", s)
	}

	if w := e.do(http.MethodPut, "/carts/s1/items/nope", `{"quantity":1}`); w.Code != http.StatusNotFound {
		t.Fatalf("esperaba 404, got %d", w.Code)
	}
	if w := e.do(http.MethodPut, "/carts/s1/items/gum", `{"quantity":1}`); w.Code != http.StatusNotFound {
		t.Fatalf("producto inactivo ⇒ 404, got %d", w.Code)
	}
	if w := e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":`); w.Code != http.StatusBadRequest {
		t.Fatalf("esperaba 400, got %d", w.Code)
	}
}

func TestSetItem_OutOfStockNeedsConfirmation(t *testing.T) {
	e := newEnv(t, testCatalog())

	w := e.do(http.MethodPut, "/carts/s1/items/chips", `{"quantity":1}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}
	var herr httpx.Error
	_ = json.Unmarshal(w.Body.Bytes(), &herr)
	if herr.Code != "ConfirmationRequired" {
		t.Fatalf("código inesperado: %+v", herr)
	}

	w = e.do(http.MethodPut, "/carts/s1/items/chips", `{"quantity":2,"confirm_out_of_stock":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	// bajar la cantidad no necesita confirmación
	if w := e.do(http.MethodPut, "/carts/s1/items/chips", `{"quantity":1}`); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := e.do(http.MethodPost, "/carts/s1/items/chips/increment", ""); w.Code != http.StatusConflict {
		t.Fatalf("increment sin confirmar ⇒ 409, got %d", w.Code)
	}
	s := decodeSession(t, e.do(http.MethodPost, "/carts/s1/items/chips/increment?confirm_out_of_stock=true", ""))
	if s.TotalItems != 2 {
		t.Fatalf("esperaba 2, got %+v", s)
	}
}

func TestCartOps_IncrementDecrementRemoveClear(t *testing.T) {
	e := newEnv(t, testCatalog())

	e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":2}`)
	s := decodeSession(t, e.do(http.MethodPost, "/carts/s1/items/coke/increment", ""))
	if s.TotalItems != 3 || s.Advisory != "" {
		t.Fatalf("esperaba 3 sin aviso, got %+v", s)
	}
	s = decodeSession(t, e.do(http.MethodPost, "/carts/s1/items/coke/increment", ""))
	if s.TotalItems != 3 || s.Advisory != cart.LimitAdvisory(3) {
		t.Fatalf("esperaba tope en 3 con aviso, got %+v", s)
	}
	s = decodeSession(t, e.do(http.MethodPost, "/carts/s1/items/coke/decrement", ""))
	if s.TotalItems != 2 || s.Advisory != "" {
		t.Fatalf("esperaba 2 y aviso limpio, got %+v", s)
	}
	s = decodeSession(t, e.do(http.MethodDelete, "/carts/s1/items/coke", ""))
	if len(s.Items) != 0 {
		t.Fatalf("esperaba carrito vacío, got %+v", s)
	}

	e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":1}`)
	s = decodeSession(t, e.do(http.MethodDelete, "/carts/s1", ""))
	if len(s.Items) != 0 {
		t.Fatalf("clear no vació el carrito: %+v", s)
	}

	// otra sesión no se ve afectada
	s = decodeSession(t, e.do(http.MethodGet, "/carts/s2", ""))
	if s.ID != "s2" || len(s.Items) != 0 {
		t.Fatalf("sesión inesperada: %+v", s)
	}
}

func TestCartMutations_KioskNotOpen(t *testing.T) {
	e := newEnv(t, testCatalog())
	e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":1}`)

	e.tracker.SetMaintenance(true)
	if w := e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":2}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("esperaba 503 en mantenimiento, got %d", w.Code)
	}
	if w := e.do(http.MethodPost, "/carts/s1/checkout", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("esperaba 503 en checkout, got %d", w.Code)
	}
	// la lectura sigue disponible
	if s := decodeSession(t, e.do(http.MethodGet, "/carts/s1", "")); s.TotalItems != 1 {
		t.Fatalf("carrito inesperado: %+v", s)
	}

	e.tracker.SetMaintenance(false)
	e.tracker.SetServing(false)
	if w := e.do(http.MethodDelete, "/carts/s1", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("esperaba 503 con kiosco cerrado, got %d", w.Code)
	}
}

func TestCheckout_HappyPath(t *testing.T) {
	e := newEnv(t, testCatalog())
	e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":2}`)

	w := e.do(http.MethodPost, "/carts/s1/checkout", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got ord.CheckoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if got.Order.Total != "3.00" || got.Order.SessionID != "s1" || len(got.Items) != 1 {
		t.Fatalf("orden inesperada: %+v", got)
	}
	// Stock debe haber bajado a 8
	if n := e.product.get("coke"); n != 8 {
		t.Fatalf("stock esperado=8, real=%d", n)
	}
	if s := decodeSession(t, e.do(http.MethodGet, "/carts/s1", "")); len(s.Items) != 0 {
		t.Fatalf("el carrito debía quedar vacío: %+v", s)
	}
	if ev := e.sink.Events(); len(ev) != 1 || ev[0].Type != audit.OrderCreated {
		t.Fatalf("eventos inesperados: %+v", ev)
	}

	// GET /orders/:id y /orders/:id/items
	if w := e.do(http.MethodGet, "/orders/"+got.Order.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	w = e.do(http.MethodGet, "/orders/"+got.Order.ID+"/items", "")
	var wrap struct {
		Items []ord.Item `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &wrap); err != nil || len(wrap.Items) != 1 {
		t.Fatalf("items inesperados: %s", w.Body.String())
	}

	w = e.do(http.MethodGet, "/orders/session/s1", "")
	var list struct {
		Orders []ord.Order `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Orders) != 1 {
		t.Fatalf("listado inesperado: %s", w.Body.String())
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	e := newEnv(t, testCatalog())
	if w := e.do(http.MethodPost, "/carts/s1/checkout", ""); w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}
}

func TestCheckout_ProductGoneRestocks(t *testing.T) {
	e := newEnv(t, testCatalog())
	e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":1}`)
	e.do(http.MethodPut, "/carts/s1/items/chips", `{"quantity":1,"confirm_out_of_stock":true}`)

	// chips desaparece del inventario entre la carga del catálogo y el pago
	e.product.mu.Lock()
	delete(e.product.stock, "chips")
	e.product.mu.Unlock()

	w := e.do(http.MethodPost, "/carts/s1/checkout", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}
	if n := e.product.get("coke"); n != 10 {
		t.Fatalf("el stock de coke debía restituirse, real=%d", n)
	}
	if s := decodeSession(t, e.do(http.MethodGet, "/carts/s1", "")); s.TotalItems != 2 {
		t.Fatalf("el carrito no debía tocarse: %+v", s)
	}
	if e.repo.count() != 0 {
		t.Fatalf("no debía persistirse la orden")
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	e := newEnv(t, testCatalog())
	if w := e.do(http.MethodGet, "/orders/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (esperaba 404)", w.Code, w.Body.String())
	}
	if w := e.do(http.MethodGet, "/orders/"+uuid.NewString()+"/items", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (esperaba 404)", w.Code, w.Body.String())
	}
}

// PUT /orders/:id/status → canceled (restock)
func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	e := newEnv(t, testCatalog())
	e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":2}`)
	w := e.do(http.MethodPost, "/carts/s1/checkout", "")
	var got ord.CheckoutResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)

	w = e.do(http.MethodPut, "/orders/"+got.Order.ID+"/status", `{"status":"canceled"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if n := e.product.get("coke"); n != 10 {
		t.Fatalf("stock esperado=10 tras cancelar, real=%d", n)
	}
	if w := e.do(http.MethodPut, "/orders/"+got.Order.ID+"/status", `{"status":"completed"}`); w.Code != http.StatusConflict {
		t.Fatalf("esperaba 409 por transición inválida, got %d", w.Code)
	}
	if w := e.do(http.MethodPut, "/orders/"+got.Order.ID+"/status", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("esperaba 400, got %d", w.Code)
	}
}

// Doble toque en "pagar": solo una orden, y lo agregado durante el pago se queda.
func TestCheckout_ConcurrentTapsPlaceOneOrder(t *testing.T) {
	e := newEnv(t, testCatalog())
	e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":2}`)

	gate, arrived := e.product.hold()
	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- e.do(http.MethodPost, "/carts/s1/checkout", "") }()
	<-arrived

	w := e.do(http.MethodPost, "/carts/s1/checkout", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("segundo checkout: status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}
	// el cliente sigue comprando mientras se coloca la orden
	e.do(http.MethodPost, "/carts/s1/items/coke/increment", "")

	close(gate)
	if w := <-first; w.Code != http.StatusCreated {
		t.Fatalf("primer checkout: status=%d body=%s", w.Code, w.Body.String())
	}
	if n := e.repo.count(); n != 1 {
		t.Fatalf("órdenes esperadas=1, reales=%d", n)
	}
	if n := e.product.get("coke"); n != 8 {
		t.Fatalf("stock esperado=8, real=%d", n)
	}
	if s := decodeSession(t, e.do(http.MethodGet, "/carts/s1", "")); s.TotalItems != 1 {
		t.Fatalf("la unidad agregada durante el pago debía quedar: %+v", s)
	}
}

func lowCokeCatalog() fixedCatalog {
	cat := testCatalog()
	records := append([]prod.FeedRecord(nil), cat.state.Records...)
	records[0].StockQuantity = stock.Float(1)
	records[0].LowStockThreshold = nil
	cat.state.Records = records
	return cat
}

func TestSetItem_BeyondKnownStockNeedsConfirmation(t *testing.T) {
	e := newEnv(t, lowCokeCatalog())
	e.product.set("coke", 1)

	w := e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":3}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}
	var herr httpx.Error
	_ = json.Unmarshal(w.Body.Bytes(), &herr)
	if herr.Code != "ConfirmationRequired" {
		t.Fatalf("código inesperado: %+v", herr)
	}

	if w := e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":1}`); w.Code != http.StatusOK {
		t.Fatalf("dentro del stock no hace falta confirmar: %d", w.Code)
	}
	if w := e.do(http.MethodPost, "/carts/s1/items/coke/increment", ""); w.Code != http.StatusConflict {
		t.Fatalf("increment más allá del stock ⇒ 409, got %d", w.Code)
	}
	if w := e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":3,"confirm_out_of_stock":true}`); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	// la confirmación viaja hasta el pago
	if w := e.do(http.MethodPost, "/carts/s1/checkout", ""); w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if n := e.product.get("coke"); n != -2 {
		t.Fatalf("stock esperado=-2, real=%d", n)
	}
}

// El stock baja entre la carga del catálogo y el pago: sin confirmación no se sobrevende.
func TestCheckout_InsufficientStockNeedsConfirmation(t *testing.T) {
	e := newEnv(t, testCatalog())
	e.do(http.MethodPut, "/carts/s1/items/coke", `{"quantity":3}`)
	e.product.set("coke", 1)

	w := e.do(http.MethodPost, "/carts/s1/checkout", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (esperaba 409)", w.Code, w.Body.String())
	}
	var herr httpx.Error
	_ = json.Unmarshal(w.Body.Bytes(), &herr)
	if herr.Code != "ConfirmationRequired" {
		t.Fatalf("código inesperado: %+v", herr)
	}
	if n := e.product.get("coke"); n != 1 {
		t.Fatalf("el stock debía restituirse, real=%d", n)
	}
	if s := decodeSession(t, e.do(http.MethodGet, "/carts/s1", "")); s.TotalItems != 3 {
		t.Fatalf("el carrito no debía tocarse: %+v", s)
	}

	if w := e.do(http.MethodPost, "/carts/s1/checkout?confirm_out_of_stock=true", ""); w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if n := e.product.get("coke"); n != -2 {
		t.Fatalf("stock esperado=-2, real=%d", n)
	}
}
