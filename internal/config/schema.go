package config

import "time"

// Config is the top-level YAML structure.
type Config struct {
	Server ServerConf `yaml:"server"`
	Redis  RedisConf  `yaml:"redis"`
	Engine EngineConf `yaml:"engine"`
	Rules  RulesConf  `yaml:"rules"`
	Score  ScoreConf  `yaml:"score"`
	Kafka  KafkaConf  `yaml:"kafka"`
}

// ServerConf holds HTTP serving settings.
type ServerConf struct {
	Addr string `yaml:"addr"`
}

// RedisConf points at the shared external store. One address for a
// single node, several for a cluster.
type RedisConf struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	EventWorkers   int `yaml:"event_workers"`
	RuleWorkers    int `yaml:"rule_workers"`
	QueueDepth     int `yaml:"queue_depth"`
	EventTimeoutMs int `yaml:"event_timeout_ms"`
}

// RulesConf controls the snapshot reload loop and the store key layout.
type RulesConf struct {
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	ActiveSetKey    string `yaml:"active_set_key"`
	RuleHashKey     string `yaml:"rule_hash_key"`
}

// PollInterval returns the reload interval as a duration.
func (r RulesConf) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalSec) * time.Second
}

// ScoreConf controls the online-learning feedback writer.
type ScoreConf struct {
	Delta      float64 `yaml:"delta"`
	TTLHours   int     `yaml:"ttl_hours"`
	Workers    int     `yaml:"workers"`
	QueueDepth int     `yaml:"queue_depth"`
}

// TTL returns the score-key expiry as a duration.
func (s ScoreConf) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// KafkaConf wires the optional streaming adapter.
type KafkaConf struct {
	Enabled     bool   `yaml:"enabled"`
	Brokers     string `yaml:"brokers"`
	GroupID     string `yaml:"group_id"`
	EventTopic  string `yaml:"event_topic"`
	ActionTopic string `yaml:"action_topic"`
}
