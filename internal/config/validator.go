package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for values the defaults cannot repair.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Engine.EventWorkers < 0 || cfg.Engine.RuleWorkers < 0 {
		errs = append(errs, "engine: worker counts must not be negative")
	}
	if cfg.Engine.QueueDepth < 0 {
		errs = append(errs, "engine: queue_depth must not be negative")
	}
	if cfg.Rules.PollIntervalSec < 1 {
		errs = append(errs, "rules: poll_interval_sec must be at least 1")
	}
	if cfg.Score.Delta < 0 {
		errs = append(errs, "score: delta must not be negative")
	}
	if cfg.Score.TTLHours < 1 {
		errs = append(errs, "score: ttl_hours must be at least 1")
	}
	for i, addr := range cfg.Redis.Addrs {
		if addr == "" {
			errs = append(errs, fmt.Sprintf("redis: addrs[%d] is empty", i))
		}
	}
	if cfg.Kafka.Enabled {
		if cfg.Kafka.Brokers == "" {
			errs = append(errs, "kafka: brokers is required when enabled")
		}
		if cfg.Kafka.GroupID == "" {
			errs = append(errs, "kafka: group_id is required when enabled")
		}
		if cfg.Kafka.EventTopic == "" {
			errs = append(errs, "kafka: event_topic is required when enabled")
		}
		if cfg.Kafka.ActionTopic == "" {
			errs = append(errs, "kafka: action_topic is required when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
