package transferful

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	NodeID  int64         `yaml:"node_id"`
	Limits  LimitsConfig  `yaml:"limits"`
	Breaker BreakerConfig `yaml:"breaker"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LimitsConfig struct {
	Deposit   int64 `yaml:"deposit"`
	Withdraw  int64 `yaml:"withdraw"`
	Transfer  int64 `yaml:"transfer"`
	Statement int64 `yaml:"statement"`
}

type BreakerConfig struct {
	MaxRequests      uint32 `yaml:"max_requests"`
	IntervalSecs     int    `yaml:"interval_secs"`
	TimeoutSecs      int    `yaml:"timeout_secs"`
	FailureThreshold uint32 `yaml:"failure_threshold"`
}

// DefaultConfig mirrors config.yml so the server can start without one.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: 4567},
		NodeID: 1,
		Limits: LimitsConfig{
			Deposit:   64,
			Withdraw:  64,
			Transfer:  32,
			Statement: 8,
		},
		Breaker: BreakerConfig{
			MaxRequests:      5,
			IntervalSecs:     60,
			TimeoutSecs:      30,
			FailureThreshold: 5,
		},
	}
}
