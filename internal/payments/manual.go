package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
)

// GatewayManual is the name of the built-in offline processor.
const GatewayManual = "manual"

// manualGateway models offline payment handling. Charges stay pending until
// an operator settles them through Retry; releases resolve immediately since
// no processor holds the money.
type manualGateway struct{}

// NewManualGateway builds the offline gateway.
func NewManualGateway() Gateway {
	return manualGateway{}
}

func (manualGateway) Name() string { return GatewayManual }

func (manualGateway) Authorize(ctx context.Context, req GatewayRequest) (GatewayResult, error) {
	return manualResult(enums.TransactionStatusPending), nil
}

func (manualGateway) Capture(ctx context.Context, req GatewayRequest) (GatewayResult, error) {
	return manualResult(enums.TransactionStatusSuccess), nil
}

func (manualGateway) Sale(ctx context.Context, req GatewayRequest) (GatewayResult, error) {
	return manualResult(enums.TransactionStatusPending), nil
}

func (manualGateway) Void(ctx context.Context, req GatewayRequest) (GatewayResult, error) {
	return manualResult(enums.TransactionStatusSuccess), nil
}

func (manualGateway) Refund(ctx context.Context, req GatewayRequest) (GatewayResult, error) {
	return manualResult(enums.TransactionStatusSuccess), nil
}

func manualResult(status enums.TransactionStatus) GatewayResult {
	reference := fmt.Sprintf("manual-%s", uuid.New().String())
	return GatewayResult{Status: status, Reference: &reference}
}
