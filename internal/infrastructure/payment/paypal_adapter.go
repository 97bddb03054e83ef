package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	paymentdomain "github.com/ima-69/E-commerce-MERN-sub000/internal/domain/payment"
)

// errUnauthorized marks a 401 so the call can be retried with a fresh token
var errUnauthorized = errors.New("paypal: unauthorized")

// PayPalAdapter implements paymentdomain.Gateway against the PayPal Orders v2 API.
// The shopper approves the order on PayPal; capture settles it.
type PayPalAdapter struct {
	config      *PayPalConfig
	credentials clientcredentials.Config
	base        *http.Client
	client      atomic.Pointer[http.Client]
	logger      *zap.Logger
}

// NewPayPalAdapter creates a new PayPal adapter
func NewPayPalAdapter(cfg *PayPalConfig, logger *zap.Logger) (*PayPalAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &PayPalAdapter{
		config: cfg,
		credentials: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.BaseURL + paypalTokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		base:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	a.renewClient()
	return a, nil
}

// renewClient replaces the authenticated client, dropping its cached token.
// Tokens are fetched and reused by the oauth2 transport until they expire.
func (a *PayPalAdapter) renewClient() {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, a.base)
	c := a.credentials.Client(ctx)
	c.Timeout = a.config.Timeout
	a.client.Store(c)
}

// Name implements paymentdomain.Gateway
func (a *PayPalAdapter) Name() string {
	return "paypal"
}

// CreateAuthorization creates a PayPal order with intent CAPTURE and returns its approval link
func (a *PayPalAdapter) CreateAuthorization(ctx context.Context, req *paymentdomain.AuthorizationRequest) (*paymentdomain.Authorization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := buildCreateOrderRequest(req)
	var resp paypalOrderResponse
	if err := a.call(ctx, http.MethodPost, paypalOrdersPath, "", body, &resp); err != nil {
		return nil, classify(err, paymentdomain.ErrAuthorizationFailed)
	}

	approval := approvalLink(resp.Links)
	if resp.ID == "" || approval == "" {
		return nil, fmt.Errorf("%w: response carries no approval link", paymentdomain.ErrAuthorizationFailed)
	}

	a.logger.Debug("paypal order created",
		zap.String("paypal_order_id", resp.ID),
		zap.String("reference", req.Reference),
		zap.String("status", resp.Status),
	)
	return &paymentdomain.Authorization{ApprovalURL: approval, IntentID: resp.ID}, nil
}

// CaptureAuthorization captures an approved PayPal order.
// The request id makes a retried capture of the same approval idempotent on PayPal's side.
func (a *PayPalAdapter) CaptureAuthorization(ctx context.Context, paymentID, payerID string) error {
	if strings.TrimSpace(paymentID) == "" || strings.TrimSpace(payerID) == "" {
		return fmt.Errorf("%w: payment and payer ids are required", paymentdomain.ErrInvalidRequest)
	}

	path := fmt.Sprintf(paypalCapturePath, url.PathEscape(paymentID))
	requestID := "capture-" + paymentID + "-" + payerID

	var resp paypalOrderResponse
	if err := a.call(ctx, http.MethodPost, path, requestID, struct{}{}, &resp); err != nil {
		return classify(err, paymentdomain.ErrCaptureFailed)
	}
	if resp.Status != paypalStatusCompleted {
		return fmt.Errorf("%w: order %s is %s", paymentdomain.ErrCaptureFailed, paymentID, resp.Status)
	}
	return nil
}

// call performs an authenticated JSON request, refreshing the token once on 401
func (a *PayPalAdapter) call(ctx context.Context, method, path, requestID string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("paypal: failed to marshal request: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		err = a.doJSON(ctx, method, path, requestID, payload, out)
		if errors.Is(err, errUnauthorized) && attempt == 0 {
			a.logger.Debug("paypal token rejected, renewing")
			a.renewClient()
			continue
		}
		return err
	}
	return errUnauthorized
}

func (a *PayPalAdapter) doJSON(ctx context.Context, method, path, requestID string, payload []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("paypal: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		httpReq.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := a.client.Load().Do(httpReq)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("paypal: failed to parse response: %w", err)
	}
	return nil
}

// transportError separates a rejected token request from an unreachable
// gateway. Bad credentials will not get better on retry.
func transportError(err error) error {
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		status := 0
		if tokenErr.Response != nil {
			status = tokenErr.Response.StatusCode
		}
		if status == http.StatusTooManyRequests || status >= 500 {
			return fmt.Errorf("%w: token request failed with status %d", paymentdomain.ErrGatewayUnavailable, status)
		}
		return fmt.Errorf("%w: token request rejected: %s", paymentdomain.ErrAuthorizationFailed, tokenErrorDetail(tokenErr))
	}
	return fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
}

func tokenErrorDetail(err *oauth2.RetrieveError) string {
	if err.ErrorCode != "" {
		return strings.TrimSpace(err.ErrorCode + " " + err.ErrorDescription)
	}
	return strings.TrimSpace(string(err.Body))
}

func buildCreateOrderRequest(req *paymentdomain.AuthorizationRequest) paypalCreateOrderRequest {
	currency := strings.ToUpper(req.Currency)
	items := make([]paypalItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = paypalItem{
			Name:       it.Name,
			SKU:        it.ProductID.String(),
			UnitAmount: paypalMoney{CurrencyCode: currency, Value: it.UnitPrice.StringFixed(2)},
			Quantity:   strconv.Itoa(it.Quantity),
		}
	}
	total := paypalMoney{CurrencyCode: currency, Value: req.Total.StringFixed(2)}

	return paypalCreateOrderRequest{
		Intent: paypalIntentCapture,
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: req.Reference,
			Amount: paypalAmount{
				paypalMoney: total,
				Breakdown:   &paypalBreakdown{ItemTotal: total},
			},
			Items: items,
		}},
		ApplicationContext: paypalApplicationContext{
			ReturnURL:  req.ReturnURL,
			CancelURL:  req.CancelURL,
			UserAction: "PAY_NOW",
		},
	}
}

func approvalLink(links []paypalLink) string {
	for _, l := range links {
		if l.Rel == paypalLinkApprove || l.Rel == paypalLinkPayerAction {
			return l.Href
		}
	}
	return ""
}

// statusError maps a non-2xx response to an error
func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	var apiErr paypalErrorResponse
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && (apiErr.Name != "" || apiErr.Error != "") {
		detail = apiErr.String()
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", errUnauthorized, detail)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d: %s", paymentdomain.ErrGatewayUnavailable, status, detail)
	default:
		return fmt.Errorf("paypal: status %d: %s", status, detail)
	}
}

// classify keeps unavailability and validation errors as they are and tags the rest with fallback
func classify(err, fallback error) error {
	if errors.Is(err, paymentdomain.ErrGatewayUnavailable) ||
		errors.Is(err, paymentdomain.ErrAuthorizationFailed) ||
		errors.Is(err, paymentdomain.ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%w: %v", fallback, err)
}

// Ensure PayPalAdapter implements paymentdomain.Gateway
var _ paymentdomain.Gateway = (*PayPalAdapter)(nil)
