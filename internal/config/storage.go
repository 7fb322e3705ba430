package config

import "fmt"

// Validate checks storage settings when archiving is enabled.
func (c *StorageConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("storage: endpoint is required when enabled")
	}
	if c.Bucket == "" {
		return fmt.Errorf("storage: bucket is required when enabled")
	}
	return nil
}
