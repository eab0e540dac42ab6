package carts

import (
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

// Close marks an open cart as ordered and links it to the order it became.
// Anything but an open cart is a conflict.
func Close(cart *models.Cart, order *models.Order) error {
	if cart.Status != enums.CartStatusOpen {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cart is %s and cannot be checked out", cart.Status)
	}
	cart.Status = enums.CartStatusOrdered
	orderID := order.ID
	cart.OrderID = &orderID
	return nil
}
