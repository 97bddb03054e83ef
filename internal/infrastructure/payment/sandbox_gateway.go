package payment

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"

	paymentdomain "github.com/ima-69/E-commerce-MERN-sub000/internal/domain/payment"
)

// SandboxPayerID is the payer id the sandbox puts on its approval links
const SandboxPayerID = "SANDBOX-PAYER"

// SandboxGateway approves every valid request without leaving the process.
// Its approval URL points straight at the return URL with the ids a real
// provider would append, so a local client can complete checkout.
type SandboxGateway struct {
	mu       sync.Mutex
	intents  map[string]bool // intent id -> captured
	captures int
}

// NewSandboxGateway creates a sandbox gateway
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{intents: make(map[string]bool)}
}

// Name implements paymentdomain.Gateway
func (g *SandboxGateway) Name() string {
	return "sandbox"
}

// CreateAuthorization implements paymentdomain.Gateway
func (g *SandboxGateway) CreateAuthorization(_ context.Context, req *paymentdomain.AuthorizationRequest) (*paymentdomain.Authorization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	returnURL, err := url.Parse(req.ReturnURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad return URL", paymentdomain.ErrInvalidRequest)
	}

	id := "SANDBOX-" + uuid.NewString()
	q := returnURL.Query()
	q.Set("paymentId", id)
	q.Set("PayerID", SandboxPayerID)
	returnURL.RawQuery = q.Encode()

	g.mu.Lock()
	g.intents[id] = false
	g.mu.Unlock()

	return &paymentdomain.Authorization{ApprovalURL: returnURL.String(), IntentID: id}, nil
}

// CaptureAuthorization implements paymentdomain.Gateway. A second capture of the same intent succeeds without counting twice.
func (g *SandboxGateway) CaptureAuthorization(_ context.Context, paymentID, payerID string) error {
	if payerID == "" {
		return fmt.Errorf("%w: payer id is required", paymentdomain.ErrInvalidRequest)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	captured, ok := g.intents[paymentID]
	if !ok {
		return fmt.Errorf("%w: unknown payment %s", paymentdomain.ErrCaptureFailed, paymentID)
	}
	if !captured {
		g.intents[paymentID] = true
		g.captures++
	}
	return nil
}

// Captures returns how many intents were captured
func (g *SandboxGateway) Captures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captures
}

// Ensure SandboxGateway implements paymentdomain.Gateway
var _ paymentdomain.Gateway = (*SandboxGateway)(nil)
