package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/livestream-protocol/livestream-go/pkg/broadcast"
	"github.com/livestream-protocol/livestream-go/pkg/layout"
	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

// Default cadences.
const (
	DefaultTickInterval = 10 * time.Millisecond
	DefaultPollInterval = 16 * time.Millisecond
)

// DefaultEntityID is the entity of the built-in master bus.
const DefaultEntityID = "6f1c2a8e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is a channel definition.
type Config struct {
	// TickInterval is the producer's processing block cadence.
	TickInterval time.Duration `yaml:"tick_interval"`

	// PollInterval is the consumer's refresh cadence.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Placeholder is "zero" or "last". Empty means zero.
	Placeholder string `yaml:"placeholder,omitempty"`

	Capacity CapacityConfig `yaml:"capacity"`
	Entities []EntityConfig `yaml:"entities"`
}

// CapacityConfig mirrors layout.Hints.
type CapacityConfig struct {
	ArrayHint int     `yaml:"array_hint"`
	BytesHint int     `yaml:"bytes_hint"`
	Headroom  float64 `yaml:"headroom"`
}

// EntityConfig groups the slots of one entity.
type EntityConfig struct {
	ID    string       `yaml:"id"`
	Name  string       `yaml:"name"`
	Slots []SlotConfig `yaml:"slots"`
}

// SlotConfig is one package.
type SlotConfig struct {
	Slot uint32 `yaml:"slot"`
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

// Error reports a configuration file that could not be used.
type Error struct {
	// File is the path of the file, empty for in-memory data.
	File string

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Default returns the built-in master bus definition.
func Default() *Config {
	return &Config{
		TickInterval: DefaultTickInterval,
		PollInterval: DefaultPollInterval,
		Placeholder:  broadcast.PlaceholderZero.String(),
		Capacity: CapacityConfig{
			ArrayHint: layout.DefaultArrayHint,
			BytesHint: layout.DefaultBytesHint,
			Headroom:  layout.DefaultHeadroom,
		},
		Entities: []EntityConfig{
			{
				ID:   DefaultEntityID,
				Name: "master-bus",
				Slots: []SlotConfig{
					{Slot: 0, Type: "float", Name: "peak"},
					{Slot: 1, Type: "float", Name: "rms"},
					{Slot: 2, Type: "float_array", Name: "spectrum"},
					{Slot: 3, Type: "integer", Name: "gain"},
					{Slot: 4, Type: "integer_array", Name: "notes"},
					{Slot: 5, Type: "byte_array", Name: "status"},
				},
			},
		},
	}
}

// Parse decodes YAML data on top of Default and validates the result.
// Entities in data replace the default ones.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Message: "validation failed", Cause: err}
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// Validate checks cadences, hints, entity IDs, slot types and that no
// address or name is declared twice.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive, got %s", ErrInvalid, c.TickInterval)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive, got %s", ErrInvalid, c.PollInterval)
	}
	if _, err := c.PlaceholderPolicy(); err != nil {
		return err
	}
	if c.Capacity.ArrayHint < 0 || c.Capacity.BytesHint < 0 {
		return fmt.Errorf("%w: capacity hints must not be negative", ErrInvalid)
	}
	if len(c.Entities) == 0 {
		return fmt.Errorf("%w: no entities declared", ErrInvalid)
	}

	seen := make(map[wire.Address]string)
	names := make(map[string]bool)
	for _, e := range c.Entities {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return fmt.Errorf("%w: entity %q: bad id %q: %v", ErrInvalid, e.Name, e.ID, err)
		}
		for _, s := range e.Slots {
			if _, err := wire.ParsePackageType(s.Type); err != nil {
				return fmt.Errorf("%w: %s slot %d: %v", ErrInvalid, e.Name, s.Slot, err)
			}
			addr := wire.NewAddress(id, s.Slot)
			if prev, dup := seen[addr]; dup {
				return fmt.Errorf("%w: address %s declared as %q and %q", ErrInvalid, addr, prev, qualified(e, s))
			}
			seen[addr] = qualified(e, s)

			if s.Name != "" && e.Name != "" {
				name := qualified(e, s)
				if names[name] {
					return fmt.Errorf("%w: duplicate name %q", ErrInvalid, name)
				}
				names[name] = true
			}
		}
	}
	return nil
}

// Schema builds the declared packages in declaration order, at version 0.
func (c *Config) Schema() (*wire.Schema, error) {
	var pkgs []wire.Package
	for _, e := range c.Entities {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		for _, s := range e.Slots {
			t, err := wire.ParsePackageType(s.Type)
			if err != nil {
				return nil, err
			}
			pkgs = append(pkgs, wire.Package{Address: wire.NewAddress(id, s.Slot), Type: t})
		}
	}
	return wire.NewSchema(0, pkgs)
}

// Hints returns the capacity hints.
func (c *Config) Hints() layout.Hints {
	return layout.Hints{
		ArrayHint: c.Capacity.ArrayHint,
		BytesHint: c.Capacity.BytesHint,
		Headroom:  c.Capacity.Headroom,
	}
}

// PlaceholderPolicy parses the placeholder field.
func (c *Config) PlaceholderPolicy() (broadcast.PlaceholderPolicy, error) {
	switch strings.ToLower(c.Placeholder) {
	case "", "zero":
		return broadcast.PlaceholderZero, nil
	case "last":
		return broadcast.PlaceholderLast, nil
	default:
		return 0, fmt.Errorf("%w: placeholder must be zero or last, got %q", ErrInvalid, c.Placeholder)
	}
}

// Names maps every named slot's address to "entity/slot".
func (c *Config) Names() map[wire.Address]string {
	out := make(map[wire.Address]string)
	for _, e := range c.Entities {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			continue
		}
		for _, s := range e.Slots {
			if s.Name != "" {
				out[wire.NewAddress(id, s.Slot)] = qualified(e, s)
			}
		}
	}
	return out
}

// Resolve turns "entity/slot-name" or an address string into an address.
func (c *Config) Resolve(ref string) (wire.Address, error) {
	for addr, name := range c.Names() {
		if name == ref {
			return addr, nil
		}
	}
	return wire.ParseAddress(ref)
}

func qualified(e EntityConfig, s SlotConfig) string {
	name := s.Name
	if name == "" {
		name = fmt.Sprint(s.Slot)
	}
	return e.Name + "/" + name
}
