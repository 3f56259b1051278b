package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	coreconfig "github.com/go-core-fx/config"
	"github.com/shopspring/decimal"
)

// Security modes for the bridge handshake
const (
	SecurityTrusted    = "trusted"
	SecurityProduction = "production"
)

type Config struct {
	HTTPAddr string `koanf:"http_addr"`

	BridgeURL         string        `koanf:"bridge_url"`
	BridgeDialTimeout time.Duration `koanf:"bridge_dial_timeout"`
	ConnectRetries    int           `koanf:"connect_retries"`
	ConnectRetryDelay time.Duration `koanf:"connect_retry_delay"`
	SecurityMode      string        `koanf:"security_mode"`
	CertificateFile   string        `koanf:"certificate_file"`
	PrivateKeyFile    string        `koanf:"private_key_file"`

	Printer             string        `koanf:"printer"`
	PrinterPollInterval time.Duration `koanf:"printer_poll_interval"`

	StoreName string `koanf:"store_name"`
	Currency  string `koanf:"currency"`
	TaxRate   string `koanf:"tax_rate"`

	TransmitTimeout     time.Duration `koanf:"transmit_timeout"`
	FallbackEnabled     bool          `koanf:"fallback_enabled"`
	FallbackCopies      int           `koanf:"fallback_copies"`
	FallbackSpoolDir    string        `koanf:"fallback_spool_dir"`
	FallbackCommand     string        `koanf:"fallback_command"`
	FallbackSettleDelay time.Duration `koanf:"fallback_settle_delay"`
	FallbackTimeout     time.Duration `koanf:"fallback_timeout"`
	ChromePath          string        `koanf:"chrome_path"`

	OrdersAPIURL  string        `koanf:"orders_api_url"`
	OrdersTimeout time.Duration `koanf:"orders_timeout"`

	JournalSize int    `koanf:"journal_size"`
	LogFile     string `koanf:"log_file"`
	Debug       bool   `koanf:"debug"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		HTTPAddr:            "127.0.0.1:12212",
		BridgeURL:           "ws://localhost:8182",
		BridgeDialTimeout:   5 * time.Second,
		ConnectRetries:      2,
		ConnectRetryDelay:   time.Second,
		SecurityMode:        SecurityTrusted,
		PrinterPollInterval: 10 * time.Second,
		StoreName:           "BUDDHA AVENUE",
		Currency:            "₹",
		TaxRate:             "0",
		TransmitTimeout:     10 * time.Second,
		FallbackEnabled:     true,
		FallbackCopies:      2,
		FallbackCommand:     defaultPrintCommand(),
		FallbackSettleDelay: 250 * time.Millisecond,
		FallbackTimeout:     30 * time.Second,
		OrdersAPIURL:        "http://localhost:5000/api",
		OrdersTimeout:       10 * time.Second,
		JournalSize:         200,
		LogFile:             "./kot-bridge.log",
		Debug:               false,
	}
}

// defaultPrintCommand is the host spooler command, empty where none is known
func defaultPrintCommand() string {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "openbsd", "netbsd":
		return "lp"
	default:
		return ""
	}
}

func New() (Config, error) {
	cfg := Default()

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.BridgeURL) == "" {
		errs = append(errs, errors.New("bridge_url is required"))
	}

	switch c.SecurityMode {
	case SecurityTrusted:
	case SecurityProduction:
		if c.CertificateFile == "" || c.PrivateKeyFile == "" {
			errs = append(errs, errors.New("production security_mode needs certificate_file and private_key_file"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown security_mode %q", c.SecurityMode))
	}

	if c.ConnectRetries < 0 {
		errs = append(errs, errors.New("connect_retries must not be negative"))
	}
	if c.BridgeDialTimeout <= 0 {
		errs = append(errs, errors.New("bridge_dial_timeout must be positive"))
	}
	if c.TransmitTimeout <= 0 {
		errs = append(errs, errors.New("transmit_timeout must be positive"))
	}
	if c.FallbackCopies < 1 {
		errs = append(errs, errors.New("fallback_copies must be at least 1"))
	}
	if c.JournalSize < 1 {
		errs = append(errs, errors.New("journal_size must be at least 1"))
	}

	rate, err := c.Tax()
	if err != nil {
		errs = append(errs, err)
	} else if rate.IsNegative() {
		errs = append(errs, errors.New("tax_rate must not be negative"))
	}

	return errors.Join(errs...)
}

// Tax parses tax_rate as a fraction (0.05 is 5%)
func (c Config) Tax() (decimal.Decimal, error) {
	if strings.TrimSpace(c.TaxRate) == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax_rate %q: %w", c.TaxRate, err)
	}
	return rate, nil
}
