package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

// Mock Mirror
type mockMirror struct {
	mu       sync.Mutex
	snapshot port.Snapshot
	calls    []string
	updated  []domain.Product
	closed   int
}

func (m *mockMirror) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockMirror) Load(ctx context.Context) port.Snapshot { return m.snapshot }

func (m *mockMirror) InsertProduct(ctx context.Context, p domain.Product) {
	m.record("insert product " + p.SKU)
}

func (m *mockMirror) UpdateProduct(ctx context.Context, p domain.Product) {
	m.record("update product " + p.SKU)
	m.mu.Lock()
	m.updated = append(m.updated, p)
	m.mu.Unlock()
}

func (m *mockMirror) DeleteProduct(ctx context.Context, sku string) {
	m.record("delete product " + sku)
}

func (m *mockMirror) InsertSupplier(ctx context.Context, s domain.Supplier) {
	m.record("insert supplier " + s.ID)
}

func (m *mockMirror) InsertOrder(ctx context.Context, o domain.Order) {
	m.record("insert order " + o.OrderID)
}

func (m *mockMirror) InsertSellOrder(ctx context.Context, o domain.SellOrder) {
	m.record("insert sell order " + o.OrderID)
}

func (m *mockMirror) Available() bool { return true }

func (m *mockMirror) Close(ctx context.Context) error {
	m.closed++
	return nil
}

// Mock EventPublisher
type mockPublisher struct {
	events []domain.LowStockEvent
	err    error
}

func (p *mockPublisher) PublishLowStock(ctx context.Context, ev domain.LowStockEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func newTestService() (*InventoryService, *mockMirror) {
	mirror := &mockMirror{}
	svc := NewInventoryService(mirror, zap.NewNop())
	svc.Open(context.Background())
	return svc, mirror
}

func product(sku string, quantity int, price string) domain.Product {
	return domain.Product{
		SKU:          sku,
		Name:         "Product " + sku,
		Description:  "description of " + sku,
		Quantity:     quantity,
		Price:        decimal.RequireFromString(price),
		SupplierID:   "SUP-1",
		DateReceived: "2024-03-01",
	}
}

func TestAddProduct_FindBySKU(t *testing.T) {
	svc, mirror := newTestService()
	ctx := context.Background()

	want := product("SKU-1", 12, "4.75")
	svc.AddProduct(ctx, want)

	got, ok := svc.FindProductBySKU("SKU-1")
	if !ok {
		t.Fatal("expected product to be found")
	}
	if got.SKU != want.SKU || got.Name != want.Name || got.Description != want.Description ||
		got.Quantity != want.Quantity || !got.Price.Equal(want.Price) ||
		got.SupplierID != want.SupplierID || got.DateReceived != want.DateReceived {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if len(mirror.calls) != 1 || mirror.calls[0] != "insert product SKU-1" {
		t.Errorf("expected single insert mirror call, got %v", mirror.calls)
	}
}

func TestFindProductBySKU_NotFound(t *testing.T) {
	svc, _ := newTestService()

	if _, ok := svc.FindProductBySKU("missing"); ok {
		t.Error("expected missing product not to be found")
	}
}

func TestAddProduct_DuplicateSKUIsKept(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("DUP", 1, "1"))
	svc.AddProduct(ctx, product("DUP", 2, "2"))

	if svc.TotalProducts() != 2 {
		t.Fatalf("expected duplicate sku to be stored twice, got %d products", svc.TotalProducts())
	}

	// lookups resolve to the first entry
	got, _ := svc.FindProductBySKU("DUP")
	if got.Quantity != 1 {
		t.Errorf("expected first duplicate, got quantity %d", got.Quantity)
	}
}

func TestUpdateProduct_LastCallWins(t *testing.T) {
	svc, mirror := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("SKU-1", 10, "1.00"))
	svc.UpdateProduct(ctx, "SKU-1", 4, decimal.RequireFromString("2.50"))
	svc.UpdateProduct(ctx, "SKU-1", 9, decimal.RequireFromString("3.10"))

	got, _ := svc.FindProductBySKU("SKU-1")
	if got.Quantity != 9 {
		t.Errorf("expected quantity 9, got %d", got.Quantity)
	}
	if !got.Price.Equal(decimal.RequireFromString("3.10")) {
		t.Errorf("expected price 3.10, got %s", got.Price)
	}
	if len(mirror.updated) != 2 {
		t.Errorf("expected 2 mirrored updates, got %d", len(mirror.updated))
	}
}

func TestUpdateProduct_UnknownSKUIsNoOp(t *testing.T) {
	svc, mirror := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("SKU-1", 10, "1.00"))
	before := svc.GetAllProducts()

	svc.UpdateProduct(ctx, "nope", 99, decimal.NewFromInt(99))

	after := svc.GetAllProducts()
	if len(after) != len(before) || after[0].Quantity != 10 || !after[0].Price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("cache changed after update of unknown sku: %+v", after)
	}
	if len(mirror.updated) != 0 {
		t.Errorf("expected no mirrored update, got %d", len(mirror.updated))
	}
}

func TestUpdateProduct_AllowsNegativeQuantity(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("SKU-1", 10, "1.00"))
	svc.UpdateProduct(ctx, "SKU-1", -3, decimal.NewFromInt(1))

	got, _ := svc.FindProductBySKU("SKU-1")
	if got.Quantity != -3 {
		t.Errorf("expected caller-supplied quantity to be stored, got %d", got.Quantity)
	}
}

func TestRemoveProduct(t *testing.T) {
	svc, mirror := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("A", 1, "1"))
	svc.AddProduct(ctx, product("B", 1, "1"))

	if !svc.RemoveProduct(ctx, "A") {
		t.Error("expected removal of existing sku to report true")
	}
	if _, ok := svc.FindProductBySKU("A"); ok {
		t.Error("expected sku A to be gone")
	}
	if svc.RemoveProduct(ctx, "A") {
		t.Error("expected second removal to report false")
	}

	deletes := 0
	for _, c := range mirror.calls {
		if c == "delete product A" {
			deletes++
		}
	}
	if deletes != 1 {
		t.Errorf("expected exactly one mirrored delete, got %d", deletes)
	}
}

func TestRemoveProduct_RemovesAllDuplicates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("DUP", 1, "1"))
	svc.AddProduct(ctx, product("KEEP", 1, "1"))
	svc.AddProduct(ctx, product("DUP", 2, "1"))

	if !svc.RemoveProduct(ctx, "DUP") {
		t.Fatal("expected removal to report true")
	}

	products := svc.GetAllProducts()
	if len(products) != 1 || products[0].SKU != "KEEP" {
		t.Errorf("expected only KEEP to remain, got %+v", products)
	}
}

func TestSearchProducts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, domain.Product{SKU: "HAM-01", Name: "Claw Hammer", Description: "steel"})
	svc.AddProduct(ctx, domain.Product{SKU: "SCR-02", Name: "Screwdriver", Description: "flat HEAD"})
	svc.AddProduct(ctx, domain.Product{SKU: "NAIL-3", Name: "Nails", Description: "box of 100"})

	tests := []struct {
		term string
		want []string
	}{
		{"hammer", []string{"HAM-01"}},
		{"scr", []string{"SCR-02"}},
		{"head", []string{"SCR-02"}},
		{"A", []string{"HAM-01", "NAIL-3", "SCR-02"}},
		{"zzz", nil},
	}

	for _, tt := range tests {
		got := svc.SearchProducts(tt.term)
		if len(got) != len(tt.want) {
			t.Errorf("search %q: expected %d results, got %d", tt.term, len(tt.want), len(got))
			continue
		}
		found := make(map[string]bool)
		for _, p := range got {
			found[p.SKU] = true
		}
		for _, sku := range tt.want {
			if !found[sku] {
				t.Errorf("search %q: expected %s in results", tt.term, sku)
			}
		}
	}
}

func TestSearchProducts_ReturnsCopy(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("SKU-1", 5, "1"))

	results := svc.SearchProducts("sku")
	results[0].Quantity = 500

	got, _ := svc.FindProductBySKU("SKU-1")
	if got.Quantity != 5 {
		t.Errorf("search result aliased the cache: quantity %d", got.Quantity)
	}
}

func TestSupplier_AddAndFind(t *testing.T) {
	svc, mirror := newTestService()
	ctx := context.Background()

	svc.AddSupplier(ctx, domain.Supplier{ID: "S1", Name: "Acme", Contact: "acme@example.com"})

	got, ok := svc.FindSupplierByID("S1")
	if !ok || got.Name != "Acme" || got.Contact != "acme@example.com" {
		t.Errorf("unexpected supplier lookup: %+v, %v", got, ok)
	}
	if _, ok := svc.FindSupplierByID("S2"); ok {
		t.Error("expected unknown supplier not to be found")
	}
	if mirror.calls[len(mirror.calls)-1] != "insert supplier S1" {
		t.Errorf("expected supplier insert to be mirrored, got %v", mirror.calls)
	}
}

func TestRemoveSupplier_AlwaysNotImplemented(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddSupplier(ctx, domain.Supplier{ID: "S1", Name: "Acme", Contact: "x"})

	for _, id := range []string{"S1", "unknown"} {
		err := svc.RemoveSupplier(ctx, id)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("remove supplier %q: expected ErrNotImplemented, got %v", id, err)
		}
	}
	if _, ok := svc.FindSupplierByID("S1"); !ok {
		t.Error("supplier must survive a removal attempt")
	}
}

func TestAddOrder_DoesNotTouchStock(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("SKU-1", 10, "1"))
	svc.AddOrder(ctx, domain.Order{
		OrderID:    "PO-1",
		SupplierID: "S1",
		Items:      []domain.OrderItem{{SKU: "SKU-1", Quantity: 50}},
		OrderDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	got, _ := svc.FindProductBySKU("SKU-1")
	if got.Quantity != 10 {
		t.Errorf("expected purchase order to leave quantity at 10, got %d", got.Quantity)
	}
	if orders := svc.GetAllOrders(); len(orders) != 1 || orders[0].OrderID != "PO-1" {
		t.Errorf("expected order to be recorded, got %+v", orders)
	}
}

func TestAddSellOrder_DecrementsStock(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("S", 10, "1"))
	svc.AddSellOrder(ctx, domain.SellOrder{
		OrderID:      "SO-1",
		CustomerName: "Ada",
		Items:        []domain.OrderItem{{SKU: "S", Quantity: 3}},
	})

	got, _ := svc.FindProductBySKU("S")
	if got.Quantity != 7 {
		t.Errorf("expected quantity 7, got %d", got.Quantity)
	}
}

func TestAddSellOrder_ClampsAtZero(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("S", 2, "1"))
	svc.AddSellOrder(ctx, domain.SellOrder{
		OrderID: "SO-1",
		Items:   []domain.OrderItem{{SKU: "S", Quantity: 3}},
	})

	got, _ := svc.FindProductBySKU("S")
	if got.Quantity != 0 {
		t.Errorf("expected quantity clamped to 0, got %d", got.Quantity)
	}
}

func TestAddSellOrder_UnknownSKUStillRecorded(t *testing.T) {
	svc, mirror := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("KNOWN", 5, "1"))
	order := domain.SellOrder{
		OrderID:      "SO-9",
		CustomerName: "Grace",
		Items: []domain.OrderItem{
			{SKU: "GHOST", Quantity: 2},
			{SKU: "KNOWN", Quantity: 1},
		},
	}
	svc.AddSellOrder(ctx, order)

	recorded := svc.GetAllSellOrders()
	if len(recorded) != 1 || len(recorded[0].Items) != 2 {
		t.Fatalf("expected full sell order to be recorded, got %+v", recorded)
	}

	got, _ := svc.FindProductBySKU("KNOWN")
	if got.Quantity != 4 {
		t.Errorf("expected later item to still apply, got quantity %d", got.Quantity)
	}

	want := []string{"insert product KNOWN", "insert sell order SO-9", "update product KNOWN"}
	if len(mirror.calls) != len(want) {
		t.Fatalf("expected mirror calls %v, got %v", want, mirror.calls)
	}
	for i := range want {
		if mirror.calls[i] != want[i] {
			t.Errorf("mirror call %d: expected %q, got %q", i, want[i], mirror.calls[i])
		}
	}
}

func TestAddSellOrder_OnlyUnknownSKUs(t *testing.T) {
	svc, mirror := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("A", 5, "2"))
	svc.AddSellOrder(ctx, domain.SellOrder{
		OrderID: "SO-1",
		Items:   []domain.OrderItem{{SKU: "B", Quantity: 1}},
	})

	if got, _ := svc.FindProductBySKU("A"); got.Quantity != 5 {
		t.Errorf("expected unrelated product untouched, got %d", got.Quantity)
	}
	if len(mirror.updated) != 0 {
		t.Errorf("expected no product updates, got %d", len(mirror.updated))
	}
	if len(svc.GetAllSellOrders()) != 1 {
		t.Error("expected sell order to be recorded")
	}
}

func TestSellOrder_ReturnsIndependentCopies(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	items := []domain.OrderItem{{SKU: "X", Quantity: 1}}
	svc.AddSellOrder(ctx, domain.SellOrder{OrderID: "SO-1", Items: items})

	// caller mutates its own slice after the call
	items[0].Quantity = 100

	first := svc.GetAllSellOrders()
	if first[0].Items[0].Quantity != 1 {
		t.Fatalf("cache aliased caller slice: %d", first[0].Items[0].Quantity)
	}

	// reader mutates the returned copy
	first[0].Items[0].SKU = "CHANGED"
	second := svc.GetAllSellOrders()
	if second[0].Items[0].SKU != "X" {
		t.Errorf("cache aliased returned slice: %s", second[0].Items[0].SKU)
	}
}

func TestOrder_ReturnsIndependentCopies(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddOrder(ctx, domain.Order{OrderID: "PO-1", Items: []domain.OrderItem{{SKU: "X", Quantity: 1}}})

	orders := svc.GetAllOrders()
	orders[0].Items[0].Quantity = 42

	if again := svc.GetAllOrders(); again[0].Items[0].Quantity != 1 {
		t.Errorf("cache aliased returned slice: %d", again[0].Items[0].Quantity)
	}
}

func TestGetAllProducts_ReturnsCopy(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddProduct(ctx, product("SKU-1", 5, "1"))

	all := svc.GetAllProducts()
	all[0].Quantity = 0
	all = append(all, product("SKU-2", 1, "1"))

	if svc.TotalProducts() != 1 {
		t.Errorf("expected 1 product, got %d", svc.TotalProducts())
	}
	if got, _ := svc.FindProductBySKU("SKU-1"); got.Quantity != 5 {
		t.Errorf("cache aliased returned slice: %d", got.Quantity)
	}
}

func TestOpen_LoadsSnapshot(t *testing.T) {
	mirror := &mockMirror{snapshot: port.Snapshot{
		Products:   []domain.Product{product("P1", 3, "1.5")},
		Suppliers:  []domain.Supplier{{ID: "S1"}},
		Orders:     []domain.Order{{OrderID: "PO-1"}},
		SellOrders: []domain.SellOrder{{OrderID: "SO-1"}, {OrderID: "SO-2"}},
	}}
	svc := NewInventoryService(mirror, zap.NewNop())
	svc.Open(context.Background())

	if svc.TotalProducts() != 1 || len(svc.GetAllSuppliers()) != 1 ||
		len(svc.GetAllOrders()) != 1 || len(svc.GetAllSellOrders()) != 2 {
		t.Error("expected snapshot to populate every collection")
	}
	if len(mirror.calls) != 0 {
		t.Errorf("loading must not write back, got %v", mirror.calls)
	}
}

func TestClose_ReleasesMirror(t *testing.T) {
	svc, mirror := newTestService()

	if err := svc.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror.closed != 1 {
		t.Errorf("expected mirror closed once, got %d", mirror.closed)
	}
}

func TestLowStockEvents_PublishedOnCrossing(t *testing.T) {
	mirror := &mockMirror{}
	pub := &mockPublisher{}
	svc := NewInventoryService(mirror, zap.NewNop()).WithLowStockEvents(pub, 10)
	svc.Open(context.Background())
	ctx := context.Background()

	svc.AddProduct(ctx, product("P", 12, "1"))
	svc.AddProduct(ctx, product("LOW", 4, "1"))

	// 12 -> 11 stays above the threshold
	svc.AddSellOrder(ctx, domain.SellOrder{OrderID: "SO-1", Items: []domain.OrderItem{{SKU: "P", Quantity: 1}}})
	if len(pub.events) != 0 {
		t.Fatalf("expected no event, got %+v", pub.events)
	}

	// 11 -> 8 crosses; LOW was already below and stays silent
	svc.AddSellOrder(ctx, domain.SellOrder{OrderID: "SO-2", Items: []domain.OrderItem{
		{SKU: "P", Quantity: 3},
		{SKU: "LOW", Quantity: 1},
	}})
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %+v", pub.events)
	}
	ev := pub.events[0]
	if ev.SKU != "P" || ev.Quantity != 8 || ev.Threshold != 10 || ev.SellOrder != "SO-2" || ev.OccurredAt.IsZero() {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestLowStockEvents_PublishFailureDoesNotAffectSale(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := NewInventoryService(&mockMirror{}, zap.NewNop()).WithLowStockEvents(pub, 10)
	svc.Open(context.Background())
	ctx := context.Background()

	svc.AddProduct(ctx, product("P", 10, "1"))
	svc.AddSellOrder(ctx, domain.SellOrder{OrderID: "SO-1", Items: []domain.OrderItem{{SKU: "P", Quantity: 5}}})

	if got, _ := svc.FindProductBySKU("P"); got.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", got.Quantity)
	}
	if len(pub.events) != 1 {
		t.Errorf("expected a publish attempt, got %d", len(pub.events))
	}
}
