package domain

import "time"

// DateLayout is the calendar date format used for order dates.
const DateLayout = "2006-01-02"

type OrderItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Order is a purchase order: stock the store intends to receive from a
// supplier. Recording one never changes product quantities.
type Order struct {
	OrderID    string      `json:"order_id"`
	SupplierID string      `json:"supplier_id"`
	Items      []OrderItem `json:"items"`
	OrderDate  time.Time   `json:"order_date"`
}

// SellOrder records stock leaving the store to a customer.
type SellOrder struct {
	OrderID      string      `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	Items        []OrderItem `json:"items"`
	OrderDate    time.Time   `json:"order_date"`
}

func (o Order) Clone() Order {
	o.Items = cloneItems(o.Items)
	return o
}

func (o SellOrder) Clone() SellOrder {
	o.Items = cloneItems(o.Items)
	return o
}

func cloneItems(items []OrderItem) []OrderItem {
	if items == nil {
		return nil
	}
	out := make([]OrderItem, len(items))
	copy(out, items)
	return out
}
