package payment

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/config"
)

const (
	paypalSandboxBaseURL = "https://api-m.sandbox.paypal.com"
	defaultPayPalTimeout = 30 * time.Second
)

// PayPalConfig contains configuration for the PayPal REST API
type PayPalConfig struct {
	// BaseURL is the API root, sandbox when empty
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Errors for configuration validation
var (
	ErrPayPalMissingClientID     = errors.New("paypal: missing client ID")
	ErrPayPalMissingClientSecret = errors.New("paypal: missing client secret")
	ErrPayPalInvalidBaseURL      = errors.New("paypal: invalid base URL")
)

// PayPalConfigFrom maps application configuration onto the adapter
func PayPalConfigFrom(cfg config.PaymentConfig) *PayPalConfig {
	return &PayPalConfig{
		BaseURL:      cfg.BaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Timeout:      cfg.Timeout,
	}
}

// Validate validates the configuration and fills defaults
func (c *PayPalConfig) Validate() error {
	if c.ClientID == "" {
		return ErrPayPalMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrPayPalMissingClientSecret
	}
	if c.BaseURL == "" {
		c.BaseURL = paypalSandboxBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrPayPalInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultPayPalTimeout
	}
	return nil
}
