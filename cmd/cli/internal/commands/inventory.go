package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/models"
)

// ProductsCmd manages products.
type ProductsCmd struct {
	List   ProductsListCmd   `cmd:"" help:"List products"`
	Create ProductsCreateCmd `cmd:"" help:"Create a product"`
}

// ProductsListCmd lists all products.
type ProductsListCmd struct{}

func (c *ProductsListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.protect(auth.AnyRole, func(w io.Writer) error {
		products, err := app.API.ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}

		if globals.JSON {
			return printJSON(w, products)
		}

		if len(products) == 0 {
			fmt.Fprintln(w, "No products found.")
			return nil
		}

		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY")
		for _, p := range products {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.ID, p.Name, money(p.Price), p.Qty)
		}
		return tw.Flush()
	})
}

// ProductsCreateCmd creates a product.
type ProductsCreateCmd struct {
	Name  string  `arg:"" help:"Product name"`
	Price float64 `required:"" help:"Unit price"`
	Qty   int64   `help:"Initial stock quantity" default:"0"`
}

func (c *ProductsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.protect(auth.AnyRole, func(w io.Writer) error {
		product, err := app.API.CreateProduct(ctx, models.NewProduct{Name: c.Name, Price: c.Price, Qty: c.Qty})
		if err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		if globals.JSON {
			return printJSON(w, product)
		}

		fmt.Fprintf(w, "Created product %d: %s\n", product.ID, product.Name)
		return nil
	})
}

// SalesCmd records sales.
type SalesCmd struct {
	Create SalesCreateCmd `cmd:"" help:"Record a sale"`
}

// SalesCreateCmd records a sale.
type SalesCreateCmd struct {
	ProductID int64 `arg:"" name:"product-id" help:"Product sold"`
	Qty       int64 `help:"Quantity sold" default:"1"`
}

func (c *SalesCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.protect(auth.AnyRole, func(w io.Writer) error {
		sale, err := app.API.CreateSale(ctx, models.NewSale{ProductID: c.ProductID, Qty: c.Qty})
		if err != nil {
			return fmt.Errorf("failed to record sale: %w", err)
		}

		if globals.JSON {
			return printJSON(w, sale)
		}

		fmt.Fprintf(w, "Recorded sale %d: %d x product %d\n", sale.ID, sale.Qty, sale.ProductID)
		return nil
	})
}

// PaymentsCmd records payments.
type PaymentsCmd struct {
	Create PaymentsCreateCmd `cmd:"" help:"Record a payment"`
}

// PaymentsCreateCmd records a payment against a sale or a purchase.
type PaymentsCreateCmd struct {
	Amount     float64 `arg:"" help:"Amount paid"`
	SaleID     int64   `name:"sale-id" help:"Sale the payment is for" xor:"target" required:""`
	PurchaseID int64   `name:"purchase-id" help:"Purchase the payment is for" xor:"target" required:""`
	Method     string  `help:"Payment method" default:"cash"`
	Status     string  `help:"Payment status" default:"completed" enum:"completed,partial,pending"`
}

func (c *PaymentsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	req := models.NewPayment{Amount: c.Amount, Method: c.Method, Status: c.Status}
	if c.SaleID != 0 {
		req.SaleID = &c.SaleID
	}
	if c.PurchaseID != 0 {
		req.PurchaseID = &c.PurchaseID
	}

	return app.protect(auth.AnyRole, func(w io.Writer) error {
		payment, err := app.API.CreatePayment(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		if globals.JSON {
			return printJSON(w, payment)
		}

		fmt.Fprintf(w, "Recorded payment %d: %s (%s)\n", payment.ID, money(payment.Amount), payment.Status)
		return nil
	})
}
