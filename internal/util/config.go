package util

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"

	DefaultBaseURL     = "https://dracor.org/api/v1"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxParallel = 8
)

// Config is read once at startup and never changed afterwards.
type Config struct {
	BaseURL       string        `validate:"required,url"`
	Timeout       time.Duration `validate:"gt=0"`
	MaxParallel   int           `validate:"min=1,max=64"`
	Transport     string        `validate:"oneof=stdio streamable-http"`
	Host          string        `validate:"required"`
	Port          int           `validate:"min=1,max=65535"`
	LogLevel      string        `validate:"oneof=debug info warn error"`
	Debug         bool
	TokenEncoding string
}

// Addr is the listen address of the HTTP transport.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadConfig builds the configuration from the environment:
//
//	DRACOR_API_BASE_URL  upstream API root (https://dracor.org/api/v1)
//	DRACOR_TIMEOUT       per-request timeout in seconds (30)
//	DRACOR_MAX_PARALLEL  concurrent upstream requests per scan (8)
//	TRANSPORT            stdio or streamable-http (stdio)
//	HOST, PORT           listen address of the HTTP transport (0.0.0.0:8000)
//	LOG_LEVEL            debug, info, warn or error (info)
//	DEBUG                forces debug logging (false)
//	TOKEN_ENCODING       tiktoken encoding for token estimates (o200k_base), empty disables
func LoadConfig() (Config, error) {
	cfg := Config{
		BaseURL:       strings.TrimRight(GetEnvString("DRACOR_API_BASE_URL", DefaultBaseURL), "/"),
		Timeout:       time.Duration(GetEnvNumeric("DRACOR_TIMEOUT", int(DefaultTimeout/time.Second)) * float64(time.Second)),
		MaxParallel:   int(GetEnvNumeric("DRACOR_MAX_PARALLEL", DefaultMaxParallel)),
		Transport:     strings.ToLower(GetEnvString("TRANSPORT", TransportStdio)),
		Host:          GetEnvString("HOST", "0.0.0.0"),
		Port:          int(GetEnvNumeric("PORT", 8000)),
		LogLevel:      strings.ToLower(GetEnvString("LOG_LEVEL", "info")),
		Debug:         GetEnvBool("DEBUG", false),
		TokenEncoding: GetEnvString("TOKEN_ENCODING", "o200k_base"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			f := fieldErrs[0]
			return Config{}, fmt.Errorf("invalid configuration %s=%v (%s)", f.Field(), f.Value(), f.Tag())
		}
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
