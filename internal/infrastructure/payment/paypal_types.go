package payment

const (
	paypalTokenPath   = "/v1/oauth2/token"
	paypalOrdersPath  = "/v2/checkout/orders"
	paypalCapturePath = "/v2/checkout/orders/%s/capture"

	paypalIntentCapture   = "CAPTURE"
	paypalStatusCompleted = "COMPLETED"
	paypalLinkApprove     = "approve"
	paypalLinkPayerAction = "payer-action"
)

type paypalMoney struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalItem struct {
	Name       string      `json:"name"`
	SKU        string      `json:"sku,omitempty"`
	UnitAmount paypalMoney `json:"unit_amount"`
	Quantity   string      `json:"quantity"`
}

type paypalBreakdown struct {
	ItemTotal paypalMoney `json:"item_total"`
}

type paypalAmount struct {
	paypalMoney
	Breakdown *paypalBreakdown `json:"breakdown,omitempty"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id,omitempty"`
	Amount      paypalAmount `json:"amount"`
	Items       []paypalItem `json:"items,omitempty"`
}

type paypalApplicationContext struct {
	ReturnURL  string `json:"return_url"`
	CancelURL  string `json:"cancel_url"`
	UserAction string `json:"user_action,omitempty"`
}

type paypalCreateOrderRequest struct {
	Intent             string                   `json:"intent"`
	PurchaseUnits      []paypalPurchaseUnit     `json:"purchase_units"`
	ApplicationContext paypalApplicationContext `json:"application_context"`
}

type paypalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type paypalOrderResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []paypalLink `json:"links"`
}

type paypalErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	DebugID string `json:"debug_id"`
	// OAuth errors use a different shape
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e paypalErrorResponse) String() string {
	if e.Name != "" {
		return e.Name + ": " + e.Message
	}
	return e.Error + ": " + e.ErrorDescription
}
