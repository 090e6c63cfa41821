package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

// Key fields per collection.
const (
	productKey   = "sku"
	supplierKey  = "id"
	orderKey     = "orderId"
	sellOrderKey = "sellOrderId"
)

func productDocument(p domain.Product) port.Document {
	return port.Document{
		productKey:     p.SKU,
		"name":         p.Name,
		"description":  p.Description,
		"quantity":     p.Quantity,
		"price":        p.Price.InexactFloat64(),
		"supplierId":   p.SupplierID,
		"dateReceived": p.DateReceived,
	}
}

// productStockFields are the only product fields an update may touch.
func productStockFields(p domain.Product) port.Document {
	return port.Document{
		"quantity": p.Quantity,
		"price":    p.Price.InexactFloat64(),
	}
}

func supplierDocument(s domain.Supplier) port.Document {
	return port.Document{
		supplierKey: s.ID,
		"name":      s.Name,
		"contact":   s.Contact,
	}
}

func orderDocument(o domain.Order) port.Document {
	return port.Document{
		orderKey:     o.OrderID,
		"supplierId": o.SupplierID,
		"orderDate":  o.OrderDate.Format(domain.DateLayout),
		"items":      itemsDocument(o.Items),
	}
}

func sellOrderDocument(o domain.SellOrder) port.Document {
	return port.Document{
		sellOrderKey:   o.OrderID,
		"customerName": o.CustomerName,
		"sellDate":     o.OrderDate.Format(domain.DateLayout),
		"items":        itemsDocument(o.Items),
	}
}

func itemsDocument(items []domain.OrderItem) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"sku":      it.SKU,
			"quantity": it.Quantity,
		})
	}
	return out
}

func decodeProduct(doc port.Document) (domain.Product, error) {
	quantity, err := intField(doc, "quantity")
	if err != nil {
		return domain.Product{}, err
	}
	price, err := decimalField(doc, "price")
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		SKU:          stringField(doc, productKey),
		Name:         stringField(doc, "name"),
		Description:  stringField(doc, "description"),
		Quantity:     quantity,
		Price:        price,
		SupplierID:   stringField(doc, "supplierId"),
		DateReceived: stringField(doc, "dateReceived"),
	}, nil
}

func decodeSupplier(doc port.Document) (domain.Supplier, error) {
	return domain.Supplier{
		ID:      stringField(doc, supplierKey),
		Name:    stringField(doc, "name"),
		Contact: stringField(doc, "contact"),
	}, nil
}

func decodeOrder(doc port.Document) (domain.Order, error) {
	items, err := decodeItems(doc["items"])
	if err != nil {
		return domain.Order{}, err
	}
	date, err := dateField(doc, "orderDate")
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		OrderID:    stringField(doc, orderKey),
		SupplierID: stringField(doc, "supplierId"),
		Items:      items,
		OrderDate:  date,
	}, nil
}

func decodeSellOrder(doc port.Document) (domain.SellOrder, error) {
	items, err := decodeItems(doc["items"])
	if err != nil {
		return domain.SellOrder{}, err
	}
	date, err := dateField(doc, "sellDate")
	if err != nil {
		return domain.SellOrder{}, err
	}
	return domain.SellOrder{
		OrderID:      stringField(doc, sellOrderKey),
		CustomerName: stringField(doc, "customerName"),
		Items:        items,
		OrderDate:    date,
	}, nil
}

// decodeItems treats anything that is not a sequence as no items.
func decodeItems(v any) ([]domain.OrderItem, error) {
	raw, ok := v.([]any)
	if !ok {
		return []domain.OrderItem{}, nil
	}
	items := make([]domain.OrderItem, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("items[%d]: not a record", i)
		}
		q, err := intField(m, "quantity")
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		items = append(items, domain.OrderItem{SKU: stringField(m, "sku"), Quantity: q})
	}
	return items, nil
}

func stringField(doc map[string]any, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// intField defaults to 0 when the field is missing.
func intField(doc map[string]any, key string) (int, error) {
	switch v := doc[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return int(f), nil
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s: unsupported type %T", key, v)
	}
}

// decimalField defaults to zero when the field is missing.
func decimalField(doc map[string]any, key string) (decimal.Decimal, error) {
	switch v := doc[key].(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%s: unsupported type %T", key, v)
	}
}

// dateField returns the zero time when the field is missing.
func dateField(doc map[string]any, key string) (time.Time, error) {
	s := stringField(doc, key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}
