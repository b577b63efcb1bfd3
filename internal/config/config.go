package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// WorkspaceDirName is the directory holding a project-level config.
	WorkspaceDirName = ".orderbot"
	// WorkspaceConfigFile is the config file name inside the workspace directory.
	WorkspaceConfigFile = "config.yaml"
	// MaxSearchDepth limits how many parent directories are walked during discovery.
	MaxSearchDepth = 10

	EnvSMTPPassword = "ORDERBOT_SMTP_PASSWORD"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// Config captures every tunable setting of the bot.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	WhatsApp  WhatsAppConfig  `yaml:"whatsapp"`
	Business  BusinessConfig  `yaml:"business"`
	Mail      MailConfig      `yaml:"mail"`
	Invoice   InvoiceConfig   `yaml:"invoice"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Assistant AssistantConfig `yaml:"assistant"`
	MCP       MCPConfig       `yaml:"mcp"`
	Mangle    MangleConfig    `yaml:"mangle"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
}

// BrowserConfig configures how Chrome is launched for the chat session.
type BrowserConfig struct {
	// Bin is the Chrome executable. Empty means auto-detect.
	Bin string `yaml:"bin"`
	// Headless controls headless mode (default: false, the QR login needs a window).
	Headless *bool `yaml:"headless"`
	// ProfileDir keeps the logged-in WhatsApp session between runs.
	ProfileDir string `yaml:"profile_dir"`
	// Flags are extra Chrome switches, with or without leading dashes.
	Flags []string `yaml:"flags"`
	// DebuggerURL attaches to an already running Chrome instead of launching one.
	DebuggerURL    string `yaml:"debugger_url"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
}

// WhatsAppConfig tunes the automation engine. Durations are Go duration strings.
type WhatsAppConfig struct {
	BaseURL            string            `yaml:"base_url"`
	DefaultCountryCode string            `yaml:"default_country_code"`
	ChunkSize          int               `yaml:"chunk_size"`
	DiagnosticsDir     string            `yaml:"diagnostics_dir"`
	TraceDir           string            `yaml:"trace_dir"`
	QRDir              string            `yaml:"qr_dir"`
	Timeouts           map[string]string `yaml:"timeouts"`
	Settle             map[string]string `yaml:"settle"`
}

type BusinessConfig struct {
	Name     string `yaml:"name"`
	TaxID    string `yaml:"tax_id"`
	Address  string `yaml:"address"`
	Phone    string `yaml:"phone"`
	Email    string `yaml:"email"`
	LogoPath string `yaml:"logo_path"`
}

type MailConfig struct {
	Host              string   `yaml:"smtp_host"`
	Port              int      `yaml:"smtp_port"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	From              string   `yaml:"from"`
	OrderRecipients   []string `yaml:"order_recipients"`
	InvoiceRecipients []string `yaml:"invoice_recipients"`
	DialTimeout       string   `yaml:"dial_timeout"`
}

type InvoiceConfig struct {
	OutputDir   string `yaml:"output_dir"`
	CounterFile string `yaml:"counter_file"`
	Notes       string `yaml:"notes"`
}

type LedgerConfig struct {
	Path string `yaml:"path"`
}

type AssistantConfig struct {
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	SystemPrompt string `yaml:"system_prompt"`
	MaxTokens    int    `yaml:"max_tokens"`
	Timeout      string `yaml:"timeout"`
}

type MCPConfig struct {
	// When set, starts an SSE server on this port instead of stdio.
	SSEPort int `yaml:"sse_port"`
}

// MangleConfig controls the embedded deductive engine used for locator telemetry.
type MangleConfig struct {
	Enable          bool   `yaml:"enable"`
	SchemaPath      string `yaml:"schema_path"`
	FactBufferLimit int    `yaml:"fact_buffer_limit"`
}

// DefaultConfig provides defaults that work against the live WhatsApp Web.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:    "orderbot",
			Version: "0.3.0",
			LogFile: "orderbot.log",
		},
		Browser: BrowserConfig{
			ProfileDir: "whatsapp_profile",
			Flags: []string{
				"disable-notifications",
				"no-sandbox",
				"disable-dev-shm-usage",
				"disable-gpu",
			},
			ViewportWidth:  1920,
			ViewportHeight: 1080,
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:            "https://web.whatsapp.com",
			DefaultCountryCode: "57",
			ChunkSize:          50,
			DiagnosticsDir:     "debug_screenshots",
			TraceDir:           "data/traces",
			QRDir:              "qr",
		},
		Business: BusinessConfig{
			Name:     "Samir's Burgers",
			TaxID:    "901.234.567-8",
			Address:  "Calle 123 #45-67, Medellín",
			Phone:    "+57 300 123 4567",
			LogoPath: "logo.png",
		},
		Mail: MailConfig{
			Host:        "smtp.gmail.com",
			Port:        587,
			DialTimeout: "30s",
		},
		Invoice: InvoiceConfig{
			OutputDir:   "invoices",
			CounterFile: "invoice_count.json",
			Notes:       "Esta factura es un comprobante válido para reclamaciones y garantías.",
		},
		Ledger: LedgerConfig{
			Path: "data/orderbot.db",
		},
		Assistant: AssistantConfig{
			Model:     "gemini-2.0-flash",
			MaxTokens: 500,
			Timeout:   "60s",
		},
		Mangle: MangleConfig{
			Enable:          true,
			FactBufferLimit: 4096,
		},
	}
}

// Load reads YAML config from disk, overlays defaults and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// DiscoverWorkspace walks up from startDir looking for .orderbot/config.yaml.
// It returns the directory containing .orderbot, or "" when none is found.
func DiscoverWorkspace(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}

	for i := 0; i < MaxSearchDepth; i++ {
		candidate := filepath.Join(dir, WorkspaceDirName, WorkspaceConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

// LoadWithWorkspace merges DefaultConfig() <- .orderbot/config.yaml <- explicit file,
// then applies environment overrides.
func LoadWithWorkspace(explicitConfig, startDir string) (Config, string, error) {
	cfg := DefaultConfig()

	wsDir, err := DiscoverWorkspace(startDir)
	if err != nil {
		return cfg, "", fmt.Errorf("discovering workspace: %w", err)
	}
	if wsDir != "" {
		wsConfigPath := filepath.Join(wsDir, WorkspaceDirName, WorkspaceConfigFile)
		raw, err := os.ReadFile(wsConfigPath)
		if err != nil {
			return cfg, "", fmt.Errorf("reading workspace config %s: %w", wsConfigPath, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, "", fmt.Errorf("parsing workspace config %s: %w", wsConfigPath, err)
		}
		cfg = resolveWorkspacePaths(cfg, wsDir)
	}

	if explicitConfig != "" {
		raw, err := os.ReadFile(explicitConfig)
		if err != nil {
			return cfg, wsDir, fmt.Errorf("reading explicit config %s: %w", explicitConfig, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, wsDir, fmt.Errorf("parsing explicit config %s: %w", explicitConfig, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, wsDir, cfg.Validate()
}

// resolveWorkspacePaths anchors relative paths at the workspace directory.
func resolveWorkspacePaths(cfg Config, wsDir string) Config {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wsDir, p)
	}

	cfg.Server.LogFile = resolve(cfg.Server.LogFile)
	cfg.Browser.ProfileDir = resolve(cfg.Browser.ProfileDir)
	cfg.WhatsApp.DiagnosticsDir = resolve(cfg.WhatsApp.DiagnosticsDir)
	cfg.WhatsApp.TraceDir = resolve(cfg.WhatsApp.TraceDir)
	cfg.WhatsApp.QRDir = resolve(cfg.WhatsApp.QRDir)
	cfg.Invoice.OutputDir = resolve(cfg.Invoice.OutputDir)
	cfg.Invoice.CounterFile = resolve(cfg.Invoice.CounterFile)
	cfg.Ledger.Path = resolve(cfg.Ledger.Path)
	cfg.Mangle.SchemaPath = resolve(cfg.Mangle.SchemaPath)
	return cfg
}

// ApplyEnv overrides secrets from the environment when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.Assistant.APIKey = v
	}
}

// Validate ensures required fields exist so the bot can start deterministically.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	if c.WhatsApp.BaseURL == "" {
		return errors.New("whatsapp.base_url is required")
	}
	if c.WhatsApp.ChunkSize < 0 {
		return errors.New("whatsapp.chunk_size must not be negative")
	}
	for name, raw := range c.WhatsApp.Timeouts {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("whatsapp.timeouts.%s: %w", name, err)
		}
	}
	for name, raw := range c.WhatsApp.Settle {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("whatsapp.settle.%s: %w", name, err)
		}
	}
	if c.Mail.Port < 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("mail.smtp_port out of range: %d", c.Mail.Port)
	}
	return nil
}

// IsHeadless returns whether Chrome runs headless (default: false).
func (b BrowserConfig) IsHeadless() bool {
	if b.Headless == nil {
		return false
	}
	return *b.Headless
}

// GetViewportWidth returns the viewport width with a sane default.
func (b BrowserConfig) GetViewportWidth() int {
	if b.ViewportWidth <= 0 {
		return 1920
	}
	return b.ViewportWidth
}

// GetViewportHeight returns the viewport height with a sane default.
func (b BrowserConfig) GetViewportHeight() int {
	if b.ViewportHeight <= 0 {
		return 1080
	}
	return b.ViewportHeight
}

// Timeout returns the named probe timeout, or def when unset or malformed.
func (w WhatsAppConfig) Timeout(name string, def time.Duration) time.Duration {
	return parseOr(w.Timeouts[name], def)
}

// SettleDelay returns the named settle delay, or def when unset or malformed.
func (w WhatsAppConfig) SettleDelay(name string, def time.Duration) time.Duration {
	return parseOr(w.Settle[name], def)
}

// GetDialTimeout returns the SMTP dial timeout with a sane default.
func (m MailConfig) GetDialTimeout() time.Duration {
	return parseOr(m.DialTimeout, 30*time.Second)
}

// Enabled reports whether enough is configured to send mail.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

// GetTimeout returns the per-request model timeout with a sane default.
func (a AssistantConfig) GetTimeout() time.Duration {
	return parseOr(a.Timeout, 60*time.Second)
}

func parseOr(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
