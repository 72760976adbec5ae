package config

import (
	"fmt"
	"strings"
)

// Validate checks value ranges cleanenv cannot express. Load calls it automatically.
func (c *Config) Validate() error {
	if c.Workflow.FreshnessWindow <= 0 {
		return fmt.Errorf("workflow.freshness_window must be > 0 (got %s)", c.Workflow.FreshnessWindow)
	}
	if c.Scanner.Timeout <= 0 {
		return fmt.Errorf("scanner.timeout must be > 0 (got %s)", c.Scanner.Timeout)
	}
	if c.Scanner.PollInterval < 0 {
		return fmt.Errorf("scanner.poll_interval must be >= 0 (got %s)", c.Scanner.PollInterval)
	}
	if c.MySQL.Port <= 0 || c.MySQL.Port > 65535 {
		return fmt.Errorf("mysql.port out of range (got %d)", c.MySQL.Port)
	}
	if c.MySQL.Timeout <= 0 {
		return fmt.Errorf("mysql.timeout must be > 0 (got %s)", c.MySQL.Timeout)
	}
	if c.GRPC.HealthInterval <= 0 {
		return fmt.Errorf("grpc.health_interval must be > 0 (got %s)", c.GRPC.HealthInterval)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}
