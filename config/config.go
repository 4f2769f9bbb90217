package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	loadDotEnv(".env")
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

const (
	defaultCurrency         = "usd"
	defaultCurrencySymbol   = "$"
	defaultExternalTimeout  = 15 * time.Second
	defaultBatchConcurrency = 4
	defaultDueDays          = 15
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type InvoiceConfig struct {
	Currency         string
	CurrencySymbol   string
	BatchConcurrency int
	DueDays          int
	PublicBaseURL    string
}

type Config struct {
	Stripe          StripeConfig
	Invoice         InvoiceConfig
	ExternalTimeout time.Duration
}

// PaymentsEnabled reports whether payment links can be created.
func (c Config) PaymentsEnabled() bool {
	return c.Stripe.SecretKey != ""
}

func Load() (Config, error) {
	cfg := Config{
		Stripe: StripeConfig{
			SecretKey:     strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
			WebhookSecret: strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET")),
		},
		Invoice: InvoiceConfig{
			Currency: strings.ToLower(firstNonEmpty(
				strings.TrimSpace(os.Getenv("INVOICE_CURRENCY")),
				defaultCurrency,
			)),
			CurrencySymbol: firstNonEmpty(
				strings.TrimSpace(os.Getenv("INVOICE_CURRENCY_SYMBOL")),
				defaultCurrencySymbol,
			),
			PublicBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("INVOICE_PUBLIC_BASE_URL")), "/"),
		},
	}

	timeout, err := parseDuration("EXTERNAL_CALL_TIMEOUT", defaultExternalTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ExternalTimeout = timeout

	concurrency, err := parseInt("INVOICE_BATCH_CONCURRENCY", defaultBatchConcurrency)
	if err != nil {
		return Config{}, err
	}
	cfg.Invoice.BatchConcurrency = concurrency

	dueDays, err := parseInt("INVOICE_DUE_DAYS", defaultDueDays)
	if err != nil {
		return Config{}, err
	}
	cfg.Invoice.DueDays = dueDays

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ExternalTimeout <= 0 {
		return fmt.Errorf("EXTERNAL_CALL_TIMEOUT must be greater than zero")
	}
	if c.Invoice.BatchConcurrency <= 0 {
		return fmt.Errorf("INVOICE_BATCH_CONCURRENCY must be greater than zero")
	}
	if c.Invoice.DueDays < 0 {
		return fmt.Errorf("INVOICE_DUE_DAYS must be greater than or equal to zero")
	}
	if len(c.Invoice.Currency) != 3 {
		return fmt.Errorf("INVOICE_CURRENCY must be a three-letter ISO code")
	}
	if c.Invoice.PublicBaseURL != "" &&
		!strings.HasPrefix(c.Invoice.PublicBaseURL, "http://") &&
		!strings.HasPrefix(c.Invoice.PublicBaseURL, "https://") {
		return fmt.Errorf("INVOICE_PUBLIC_BASE_URL must start with http:// or https://")
	}
	return nil
}

func parseDuration(name string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", name, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", name)
	}

	return parsed, nil
}

func parseInt(name string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
	}
	return parsed, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
