package cache

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency"`
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64 `json:"miss_latency"`
}

// NumSets returns the number of sets implied by the configuration.
func (c Config) NumSets() int {
	if c.Associativity <= 0 || c.BlockSize <= 0 {
		return 0
	}
	return c.Size / (c.Associativity * c.BlockSize)
}

// Validate checks that the geometry is usable by the directory.
func (c Config) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block_size must be a positive power of two, got %d", c.BlockSize)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.Size <= 0 || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size must be a positive multiple of associativity * block_size")
	}
	if c.HitLatency == 0 {
		return fmt.Errorf("hit_latency must be > 0")
	}
	if c.MissLatency < c.HitLatency {
		return fmt.Errorf("miss_latency must be >= hit_latency")
	}
	return nil
}

// DefaultL1IConfig returns the default instruction cache: a small
// embedded-class cache (16KB, 4-way, 32B lines).
func DefaultL1IConfig() Config {
	return Config{
		Size:          16 * 1024, // 16KB
		Associativity: 4,         // 4-way
		BlockSize:     32,        // 32B cache line
		HitLatency:    1,         // 1 cycle
		MissLatency:   20,        // ~20 cycles to memory
	}
}

// DefaultL1DConfig returns the default data cache (16KB, 4-way, 32B lines).
func DefaultL1DConfig() Config {
	return Config{
		Size:          16 * 1024, // 16KB
		Associativity: 4,         // 4-way
		BlockSize:     32,        // 32B cache line
		HitLatency:    2,         // 2-cycle load-to-use
		MissLatency:   20,        // ~20 cycles to memory
	}
}

// HierarchyConfig configures the split L1 caches.
type HierarchyConfig struct {
	L1I Config `json:"l1i"`
	L1D Config `json:"l1d"`
}

// DefaultHierarchyConfig returns the default split L1 configuration.
func DefaultHierarchyConfig() *HierarchyConfig {
	return &HierarchyConfig{
		L1I: DefaultL1IConfig(),
		L1D: DefaultL1DConfig(),
	}
}

// LoadConfig loads a HierarchyConfig from a JSON file. Fields missing from
// the file keep their defaults.
func LoadConfig(path string) (*HierarchyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultHierarchyConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a HierarchyConfig to a JSON file.
func (c *HierarchyConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// Validate checks both cache configurations.
func (c *HierarchyConfig) Validate() error {
	if err := c.L1I.Validate(); err != nil {
		return fmt.Errorf("l1i: %w", err)
	}
	if err := c.L1D.Validate(); err != nil {
		return fmt.Errorf("l1d: %w", err)
	}
	return nil
}
