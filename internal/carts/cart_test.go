package carts

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

func TestCloseLinksOrder(t *testing.T) {
	cart := &models.Cart{ID: uuid.New(), Token: "cart-1", Status: enums.CartStatusOpen}
	order := &models.Order{ID: uuid.New()}

	require.NoError(t, Close(cart, order))
	assert.Equal(t, enums.CartStatusOrdered, cart.Status)
	require.NotNil(t, cart.OrderID)
	assert.Equal(t, order.ID, *cart.OrderID)
}

func TestCloseRejectsNonOpenCart(t *testing.T) {
	for _, status := range []enums.CartStatus{enums.CartStatusOrdered, enums.CartStatusAbandoned} {
		cart := &models.Cart{ID: uuid.New(), Status: status}
		err := Close(cart, &models.Order{ID: uuid.New()})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
		assert.Nil(t, cart.OrderID)
	}
}
