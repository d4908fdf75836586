package combo

import (
	"context"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
)

type IDGenerator interface {
	NewID() string
}

// PurchaseGateway submits a purchase to the purchase endpoint.
type PurchaseGateway interface {
	SubmitPurchase(ctx context.Context, req sale.PurchaseRequest) (*sale.Sale, error)
}

// ReceiptRenderer turns a confirmed sale into the block appended to the receipts surface.
type ReceiptRenderer interface {
	Receipt(s *sale.Sale) (string, error)
}
