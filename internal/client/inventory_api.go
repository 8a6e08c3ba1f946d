package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/wolfeidau/stockroom/internal/models"
)

// ListProducts returns all products.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.Call(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct adds a product.
func (c *Client) CreateProduct(ctx context.Context, p models.NewProduct) (*models.Product, error) {
	var product models.Product
	if err := c.Call(ctx, http.MethodPost, "/api/products", p, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateSale records a sale.
func (c *Client) CreateSale(ctx context.Context, s models.NewSale) (*models.Sale, error) {
	var sale models.Sale
	if err := c.Call(ctx, http.MethodPost, "/api/sales", s, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

// CreatePayment records a payment against a sale or purchase.
func (c *Client) CreatePayment(ctx context.Context, p models.NewPayment) (*models.Payment, error) {
	var payment models.Payment
	if err := c.Call(ctx, http.MethodPost, "/api/payments", p, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SalesReport returns the sales report for the date range.
func (c *Client) SalesReport(ctx context.Context, from, to string) (*models.SalesReport, error) {
	var report models.SalesReport
	if err := c.Call(ctx, http.MethodGet, "/api/admin/reports/sales", nil, &report, WithQuery(dateRange(from, to))); err != nil {
		return nil, err
	}
	return &report, nil
}

// FinanceReport returns the finance report for the date range.
func (c *Client) FinanceReport(ctx context.Context, from, to string) (*models.FinanceReport, error) {
	var report models.FinanceReport
	if err := c.Call(ctx, http.MethodGet, "/api/admin/reports/finance", nil, &report, WithQuery(dateRange(from, to))); err != nil {
		return nil, err
	}
	return &report, nil
}

func dateRange(from, to string) url.Values {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	return q
}
