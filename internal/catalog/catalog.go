// Package catalog resolves configured numeral systems and token codecs into
// ready-to-use converters, keyed by name.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vdparikh/radix"
	"github.com/vdparikh/radix/internal/config"
	"github.com/vdparikh/radix/tinkradix"
)

// DefaultSystem is used when a lookup names neither a system nor digits.
const DefaultSystem = "decimal"

// ErrNotFound is returned for unknown system or token names.
var ErrNotFound = errors.New("not found")

// Catalog is an immutable registry of converters and token codecs.
type Catalog struct {
	systems map[string]*radix.Converter
	tokens  map[string]radix.Codec
}

// New builds a catalog from the predefined systems and cfg. Systems in cfg
// replace predefined systems of the same name.
func New(cfg *config.Config) (*Catalog, error) {
	c := &Catalog{
		systems: make(map[string]*radix.Converter),
		tokens:  make(map[string]radix.Codec),
	}

	for name, digits := range radix.Systems() {
		c.systems[name] = radix.MustNew(digits)
	}
	for _, s := range cfg.Systems {
		conv, err := radix.New(s.Digits)
		if err != nil {
			return nil, fmt.Errorf("system %q: %w", s.Name, err)
		}
		c.systems[s.Name] = conv
	}

	if len(cfg.Tokens) == 0 {
		return c, nil
	}
	if cfg.TokenKey == nil {
		return nil, fmt.Errorf("tokens are configured but %s is not set", config.EnvTokenKey)
	}
	if err := tinkradix.Register(); err != nil {
		return nil, fmt.Errorf("failed to register token key manager: %w", err)
	}
	handle, err := tinkradix.NewKeysetHandleFromKey(cfg.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create token keyset: %w", err)
	}

	for _, t := range cfg.Tokens {
		conv, ok := c.systems[t.System]
		if !ok {
			return nil, fmt.Errorf("token %q: system %q: %w", t.Name, t.System, ErrNotFound)
		}
		codec, err := tinkradix.New(handle, []byte(t.Tweak), conv)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", t.Name, err)
		}
		c.tokens[t.Name] = codec
	}

	return c, nil
}

// System returns the converter registered under name.
func (c *Catalog) System(name string) (*radix.Converter, error) {
	conv, ok := c.systems[name]
	if !ok {
		return nil, fmt.Errorf("system %q: %w", name, ErrNotFound)
	}
	return conv, nil
}

// Resolve picks the converter for a request: explicit digits win over a
// system name, and DefaultSystem is used when both are empty. The returned
// label is the system name, or "custom" for explicit digits.
func (c *Catalog) Resolve(name, digits string) (*radix.Converter, string, error) {
	if digits != "" {
		conv, err := radix.New(digits)
		if err != nil {
			return nil, "", err
		}
		return conv, "custom", nil
	}
	if name == "" {
		name = DefaultSystem
	}
	conv, err := c.System(name)
	if err != nil {
		return nil, "", err
	}
	return conv, name, nil
}

// Token returns the token codec registered under name.
func (c *Catalog) Token(name string) (radix.Codec, error) {
	codec, ok := c.tokens[name]
	if !ok {
		return nil, fmt.Errorf("token %q: %w", name, ErrNotFound)
	}
	return codec, nil
}

// SystemNames returns the sorted names of all systems.
func (c *Catalog) SystemNames() []string {
	return sortedKeys(c.systems)
}

// TokenNames returns the sorted names of all token codecs.
func (c *Catalog) TokenNames() []string {
	return sortedKeys(c.tokens)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
