package models

import "time"

// Product is an inventory item.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int64   `json:"qty"`
}

// NewProduct is the body of a create product request.
type NewProduct struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int64   `json:"qty"`
}

// Sale records a quantity of a product sold.
type Sale struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Qty       int64     `json:"qty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSale is the body of a create sale request.
type NewSale struct {
	ProductID int64 `json:"productId"`
	Qty       int64 `json:"qty"`
}

// Payment is a payment against a sale or a purchase.
type Payment struct {
	ID         int64     `json:"id"`
	SaleID     *int64    `json:"sale_id,omitempty"`
	PurchaseID *int64    `json:"purchase_id,omitempty"`
	Amount     float64   `json:"amount"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPayment is the body of a create payment request.
type NewPayment struct {
	SaleID     *int64  `json:"sale_id,omitempty"`
	PurchaseID *int64  `json:"purchase_id,omitempty"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method"`
	Status     string  `json:"status"`
}

// NewAccount is the body of register and create-worker requests.
type NewAccount struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SalesReport summarises sales over a date range.
type SalesReport struct {
	TotalSales  float64      `json:"totalSales"`
	ByDay       []DailyTotal `json:"byDay"`
	TopProducts []TopProduct `json:"topProducts"`
}

// DailyTotal is the sales total for one day.
type DailyTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// TopProduct is a best selling product within a report range.
type TopProduct struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	QtySold int64   `json:"qtySold"`
	Revenue float64 `json:"revenue"`
}

// FinanceReport summarises revenue, debits and outstanding balances.
type FinanceReport struct {
	TotalRevenue    float64          `json:"totalRevenue"`
	TotalDebits     float64          `json:"totalDebits"`
	PartialBalances []PartialBalance `json:"partialBalances"`
	Payments        []Payment        `json:"payments"`
}

// PartialBalance is an invoice with an outstanding amount.
type PartialBalance struct {
	Customer    string  `json:"customer"`
	InvoiceID   int64   `json:"invoiceId"`
	Outstanding float64 `json:"outstanding"`
}
