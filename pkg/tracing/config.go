package tracing

import (
	"fmt"
	"os"
	"strconv"
)

// Supported OTLP exporter protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

// Config controls OpenTelemetry trace export.
type Config struct {
	Enabled     bool    `toml:"enabled"`
	Protocol    string  `toml:"protocol"`
	Endpoint    string  `toml:"endpoint"`
	Insecure    bool    `toml:"insecure"`
	ServiceName string  `toml:"service_name"`
	Sampler     string  `toml:"sampler"`
	SamplerArg  float64 `toml:"sampler_arg"`
}

// Env maps tracing config fields to environment variable names for override injection.
type Env struct {
	Enabled     string
	Protocol    string
	Endpoint    string
	Insecure    string
	ServiceName string
	Sampler     string
	SamplerArg  string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Boolean fields always apply; string
// and numeric fields only apply when non-zero.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	c.Insecure = overlay.Insecure

	if overlay.Protocol != "" {
		c.Protocol = overlay.Protocol
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
	if overlay.Sampler != "" {
		c.Sampler = overlay.Sampler
	}
	if overlay.SamplerArg != 0 {
		c.SamplerArg = overlay.SamplerArg
	}
}

func (c *Config) loadDefaults() {
	if c.Protocol == "" {
		c.Protocol = ProtocolGRPC
	}
	if c.ServiceName == "" {
		c.ServiceName = "stamper"
	}
	if c.Sampler == "" {
		c.Sampler = "parentbased_traceidratio"
	}
	if c.SamplerArg == 0 {
		c.SamplerArg = 1.0
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.Protocol != "" {
		if v := os.Getenv(env.Protocol); v != "" {
			c.Protocol = v
		}
	}
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	if env.Insecure != "" {
		if v := os.Getenv(env.Insecure); v != "" {
			if insecure, err := strconv.ParseBool(v); err == nil {
				c.Insecure = insecure
			}
		}
	}
	if env.ServiceName != "" {
		if v := os.Getenv(env.ServiceName); v != "" {
			c.ServiceName = v
		}
	}
	if env.Sampler != "" {
		if v := os.Getenv(env.Sampler); v != "" {
			c.Sampler = v
		}
	}
	if env.SamplerArg != "" {
		if v := os.Getenv(env.SamplerArg); v != "" {
			if arg, err := strconv.ParseFloat(v, 64); err == nil {
				c.SamplerArg = arg
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Protocol {
	case ProtocolGRPC, ProtocolHTTP:
	default:
		return fmt.Errorf("unsupported OTLP protocol: %s", c.Protocol)
	}
	if c.SamplerArg < 0 || c.SamplerArg > 1 {
		return fmt.Errorf("sampler_arg must be within [0, 1]: %v", c.SamplerArg)
	}
	return nil
}
