package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/store-inventory/internal/adapter/gateway"
	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/core/service"
)

const (
	sku           = "stress-item"
	initialStock  = 20
	totalRequests = 50
	perOrder      = 1
)

func main() {
	ctx := context.Background()
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	svc := service.NewInventoryService(gateway.New(nil, log), log)
	svc.Open(ctx)
	defer svc.Close(ctx)

	svc.AddProduct(ctx, domain.Product{
		SKU:      sku,
		Name:     "Stress Item",
		Quantity: initialStock,
		Price:    decimal.RequireFromString("9.99"),
	})

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			svc.AddSellOrder(ctx, domain.SellOrder{
				OrderID:      fmt.Sprintf("SO-%d", n),
				CustomerName: fmt.Sprintf("customer-%d", n),
				Items:        []domain.OrderItem{{SKU: sku, Quantity: perOrder}},
				OrderDate:    time.Now().UTC(),
			})
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	p, _ := svc.FindProductBySKU(sku)
	recorded := len(svc.GetAllSellOrders())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Sell Orders:      %d\n", totalRequests)
	fmt.Printf("Recorded:         %d\n", recorded)
	fmt.Printf("Final Stock:      %d\n", p.Quantity)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if recorded == totalRequests {
		fmt.Printf("PASS: all %d sell orders recorded\n", totalRequests)
	} else {
		fmt.Printf("FAIL: expected %d sell orders, got %d\n", totalRequests, recorded)
	}

	if p.Quantity == 0 {
		fmt.Println("PASS: stock clamped at 0")
	} else {
		fmt.Printf("FAIL: expected stock 0, got %d\n", p.Quantity)
	}
}
