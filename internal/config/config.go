// Package config loads the biens server configuration.
//
// Values are layered, later sources winning: built-in defaults, an
// optional YAML file, a .env file and finally BIENS_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/biens/internal/email"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "biens.yaml"

// SMTP holds outgoing mail settings.
type SMTP struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// AMQP holds the lead event publisher settings. An empty URL disables it.
type AMQP struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// Config is the full server configuration.
type Config struct {
	Port        int    `yaml:"port"`
	DBPath      string `yaml:"db"`
	UploadDir   string `yaml:"upload_dir"`
	BaseURL     string `yaml:"base_url"`
	DevMode     bool   `yaml:"dev_mode"`
	JWTSecret   string `yaml:"jwt_secret"`
	AgencyEmail string `yaml:"agency_email"`
	SMTP        SMTP   `yaml:"smtp"`
	AMQP        AMQP   `yaml:"amqp"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:      8080,
		UploadDir: "uploads",
		BaseURL:   "http://localhost:8080",
		SMTP:      SMTP{Port: "587"},
		AMQP:      AMQP{Exchange: "biens.leads"},
	}
}

// Load builds the configuration from path (or DefaultFile when path is
// empty), .env in the working directory and the environment.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"BIENS_DB":            &c.DBPath,
		"BIENS_UPLOAD_DIR":    &c.UploadDir,
		"BIENS_BASE_URL":      &c.BaseURL,
		"BIENS_JWT_SECRET":    &c.JWTSecret,
		"BIENS_AGENCY_EMAIL":  &c.AgencyEmail,
		"BIENS_SMTP_HOST":     &c.SMTP.Host,
		"BIENS_SMTP_PORT":     &c.SMTP.Port,
		"BIENS_SMTP_USER":     &c.SMTP.User,
		"BIENS_SMTP_PASS":     &c.SMTP.Pass,
		"BIENS_SMTP_FROM":     &c.SMTP.From,
		"BIENS_AMQP_URL":      &c.AMQP.URL,
		"BIENS_AMQP_EXCHANGE": &c.AMQP.Exchange,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("BIENS_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BIENS_PORT: %w", err)
		}
		c.Port = port
	}
	if v, ok := os.LookupEnv("BIENS_DEV_MODE"); ok {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BIENS_DEV_MODE: %w", err)
		}
		c.DevMode = dev
	}

	return nil
}

// Validate checks the settings the server needs to start.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload_dir is required")
	}
	if c.JWTSecret == "" && !c.DevMode {
		return fmt.Errorf("jwt_secret is required outside dev mode")
	}
	if c.AMQP.URL != "" && c.AMQP.Exchange == "" {
		return fmt.Errorf("amqp.exchange is required when amqp.url is set")
	}
	return nil
}

// SMTPConfig returns the mail settings in the form the email package uses.
func (c *Config) SMTPConfig() email.SMTPConfig {
	return email.SMTPConfig{
		Host: c.SMTP.Host,
		Port: c.SMTP.Port,
		User: c.SMTP.User,
		Pass: c.SMTP.Pass,
		From: c.SMTP.From,
	}
}

// AgencyRecipients returns the comma-separated agency addresses as a list.
func (c *Config) AgencyRecipients() []string {
	var out []string
	for _, addr := range strings.Split(c.AgencyEmail, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
