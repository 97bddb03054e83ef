package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway errors
var (
	ErrGatewayUnavailable  = errors.New("payment: gateway unavailable")
	ErrAuthorizationFailed = errors.New("payment: authorization failed")
	ErrCaptureFailed       = errors.New("payment: capture failed")
	ErrInvalidRequest      = errors.New("payment: invalid request")
)

// AuthorizationItem is one line sent to the gateway for display on its approval page
type AuthorizationItem struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// AuthorizationRequest asks the gateway to open a payment the shopper approves out of band
type AuthorizationRequest struct {
	Reference string // our order reference, echoed back by the gateway
	Items     []AuthorizationItem
	Total     decimal.Decimal
	Currency  string
	ReturnURL string
	CancelURL string
}

// Validate checks the request before it leaves the process
func (r *AuthorizationRequest) Validate() error {
	if len(r.Items) == 0 {
		return errors.Join(ErrInvalidRequest, errors.New("no items"))
	}
	if !r.Total.IsPositive() {
		return errors.Join(ErrInvalidRequest, errors.New("total must be positive"))
	}
	if strings.TrimSpace(r.Currency) == "" {
		return errors.Join(ErrInvalidRequest, errors.New("currency is required"))
	}
	if r.ReturnURL == "" || r.CancelURL == "" {
		return errors.Join(ErrInvalidRequest, errors.New("return and cancel URLs are required"))
	}
	sum := decimal.Zero
	for _, it := range r.Items {
		if it.Quantity < 1 {
			return errors.Join(ErrInvalidRequest, errors.New("item quantity must be at least 1"))
		}
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !sum.Round(2).Equal(r.Total.Round(2)) {
		return errors.Join(ErrInvalidRequest, errors.New("item amounts do not add up to total"))
	}
	return nil
}

// Authorization is the gateway's answer to an AuthorizationRequest
type Authorization struct {
	ApprovalURL string
	IntentID    string
}

// Gateway is the port to an external payment provider.
// Implementations live in the infrastructure layer.
type Gateway interface {
	// Name identifies the provider
	Name() string

	// CreateAuthorization opens a payment and returns where the shopper approves it
	CreateAuthorization(ctx context.Context, req *AuthorizationRequest) (*Authorization, error)

	// CaptureAuthorization settles an approved payment
	CaptureAuthorization(ctx context.Context, paymentID, payerID string) error
}
