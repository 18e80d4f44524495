// Package config loads the numeral system configuration: named systems,
// token codecs and server settings, from an HCL file plus environment
// overrides.
//
// A configuration file looks like:
//
//	system "crockford" {
//	  digits = "0123456789abcdefghjkmnpqrstvwxyz"
//	}
//
//	system "shouty" {
//	  digits = upper(builtin.hex_lower)
//	}
//
//	token "orders" {
//	  system = "base62"
//	  tweak  = "orders.v1"
//	}
//
//	server {
//	  addr = ":8080"
//	}
//
// Expressions can reference the predefined systems through the builtin
// object and use a handful of string functions.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vdparikh/radix"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// DefaultAddr is the listen address used when neither the file nor the
// environment sets one.
const DefaultAddr = ":8080"

// Environment variables read by ApplyEnv.
const (
	EnvAddr     = "RADIX_ADDR"
	EnvTokenKey = "RADIX_TOKEN_KEY"
)

// Config is the resolved configuration.
type Config struct {
	Systems []System
	Tokens  []Token
	Addr    string

	// TokenKey is the raw AES key for token codecs. It only comes from the
	// environment, never from the file.
	TokenKey []byte
}

// System is a named numeral system.
type System struct {
	Name   string
	Digits string
}

// Token is a named token codec over a system.
type Token struct {
	Name   string
	System string
	Tweak  string
}

type hclFile struct {
	Systems []*hclSystem `hcl:"system,block"`
	Tokens  []*hclToken  `hcl:"token,block"`
	Server  *hclServer   `hcl:"server,block"`
}

type hclSystem struct {
	Name   string `hcl:"name,label"`
	Digits string `hcl:"digits"`
}

type hclToken struct {
	Name   string `hcl:"name,label"`
	System string `hcl:"system"`
	Tweak  string `hcl:"tweak,optional"`
}

type hclServer struct {
	Addr string `hcl:"addr,optional"`
}

// Default returns a configuration with no custom systems or tokens.
func Default() *Config {
	return &Config{Addr: DefaultAddr}
}

// Load parses the HCL file at path.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	return decode(file, path)
}

// Parse parses HCL source. filename is only used in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}
	return decode(file, filename)
}

func decode(file *hcl.File, filename string) (*Config, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, EvalContext(), &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}

	cfg := Default()
	if parsed.Server != nil && parsed.Server.Addr != "" {
		cfg.Addr = parsed.Server.Addr
	}

	systems := make(map[string]bool, len(parsed.Systems))
	for _, s := range parsed.Systems {
		if systems[s.Name] {
			return nil, fmt.Errorf("%s: system %q is defined more than once", filename, s.Name)
		}
		systems[s.Name] = true
		cfg.Systems = append(cfg.Systems, System{Name: s.Name, Digits: s.Digits})
	}

	tokens := make(map[string]bool, len(parsed.Tokens))
	for _, t := range parsed.Tokens {
		if tokens[t.Name] {
			return nil, fmt.Errorf("%s: token %q is defined more than once", filename, t.Name)
		}
		tokens[t.Name] = true
		cfg.Tokens = append(cfg.Tokens, Token{Name: t.Name, System: t.System, Tweak: t.Tweak})
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment. A nil getenv means
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if addr := getenv(EnvAddr); addr != "" {
		c.Addr = addr
	}

	if raw := getenv(EnvTokenKey); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return fmt.Errorf("%s is not valid hex: %w", EnvTokenKey, err)
		}
		switch len(key) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("%s must be 16, 24, or 32 bytes, got %d", EnvTokenKey, len(key))
		}
		c.TokenKey = key
	}
	return nil
}

// EvalContext returns the evaluation context for configuration expressions.
func EvalContext() *hcl.EvalContext {
	builtins := make(map[string]cty.Value)
	for name, digits := range radix.Systems() {
		builtins[name] = cty.StringVal(digits)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"builtin": cty.ObjectVal(builtins),
		},
		Functions: map[string]function.Function{
			"upper":   stdlib.UpperFunc,
			"lower":   stdlib.LowerFunc,
			"reverse": stdlib.ReverseFunc,
			"join":    stdlib.JoinFunc,
			"substr":  stdlib.SubstrFunc,
			"format":  stdlib.FormatFunc,
		},
	}
}
