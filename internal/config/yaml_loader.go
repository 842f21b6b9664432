package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// QueueEntry is one queue of the optional YAML catalog.
type QueueEntry struct {
	// ID is the Genesys Cloud queue id.
	ID string `mapstructure:"id"`
	// Name is the label shown on the queue card.
	Name string `mapstructure:"name"`
}

// LoadQueueCatalog reads a YAML queue catalog of the form:
//
//	queues:
//	  - id: 1b2c...
//	    name: Support
//
// Entries without an id are dropped and ids are trimmed.
func LoadQueueCatalog(path string) ([]QueueEntry, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read queue catalog %s: %w", path, err)
	}

	var entries []QueueEntry
	if err := v.UnmarshalKey("queues", &entries); err != nil {
		return nil, fmt.Errorf("failed to decode queue catalog %s: %w", path, err)
	}

	out := entries[:0]
	for _, entry := range entries {
		entry.ID = strings.TrimSpace(entry.ID)
		if entry.ID == "" {
			continue
		}
		entry.Name = strings.TrimSpace(entry.Name)
		out = append(out, entry)
	}

	return out, nil
}

// QueueNames returns the catalog as a map from queue id to display name.
func (c *Config) QueueNames() map[string]string {
	names := make(map[string]string, len(c.Dashboard.Queues))
	for _, entry := range c.Dashboard.Queues {
		if entry.Name != "" {
			names[entry.ID] = entry.Name
		}
	}
	return names
}
