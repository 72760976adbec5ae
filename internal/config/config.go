package config

import "time"

// Config is the root application configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Redis    RedisConfig    `yaml:"redis"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Log      LogConfig      `yaml:"log"`
}

// HTTPConfig holds the JSON API listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"             env:"HTTP_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// GRPCConfig holds the health/reflection gRPC listener settings.
type GRPCConfig struct {
	Addr           string        `yaml:"addr"            env:"GRPC_ADDR"            env-default:":50051"`
	HealthInterval time.Duration `yaml:"health_interval" env:"GRPC_HEALTH_INTERVAL" env-default:"10s"`
}

// MySQLConfig holds the inventory store connection settings.
type MySQLConfig struct {
	Host            string        `yaml:"host"              env:"MYSQL_HOST"              env-default:"localhost"`
	Port            int           `yaml:"port"              env:"MYSQL_PORT"              env-default:"3306"`
	User            string        `yaml:"user"              env:"MYSQL_USER"              env-default:"root"`
	Password        string        `yaml:"password"          env:"MYSQL_PASSWORD"`
	Database        string        `yaml:"database"          env:"MYSQL_DATABASE"          env-default:"inventory_db"`
	Timeout         time.Duration `yaml:"timeout"           env:"MYSQL_TIMEOUT"           env-default:"5s"`
	MaxOpenConns    int           `yaml:"max_open_conns"    env:"MYSQL_MAX_OPEN_CONNS"    env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns"    env:"MYSQL_MAX_IDLE_CONNS"    env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"MYSQL_CONN_MAX_LIFETIME" env-default:"5m"`
	SkipMigrations  bool          `yaml:"skip_migrations"   env:"MYSQL_SKIP_MIGRATIONS"`
}

// RedisConfig is optional; an empty Addr selects the in-process attempt guard.
type RedisConfig struct {
	Addr     string `yaml:"addr"      env:"REDIS_ADDR"`
	Password string `yaml:"password"  env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"        env:"REDIS_DB"        env-default:"0"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"10"`
}

// WorkflowConfig holds the withdrawal workflow parameters.
type WorkflowConfig struct {
	FreshnessWindow time.Duration `yaml:"freshness_window" env:"WORKFLOW_FRESHNESS_WINDOW" env-default:"30s"`
}

// ScannerConfig holds the tag reader settings.
// An empty Device reads tag lines from stdin.
type ScannerConfig struct {
	Device       string        `yaml:"device"        env:"SCANNER_DEVICE"`
	Timeout      time.Duration `yaml:"timeout"       env:"SCANNER_TIMEOUT"       env-default:"2s"`
	PollInterval time.Duration `yaml:"poll_interval" env:"SCANNER_POLL_INTERVAL" env-default:"100ms"`
	Mute         bool          `yaml:"mute"          env:"SCANNER_MUTE"`
	Disabled     bool          `yaml:"disabled"      env:"SCANNER_DISABLED"      env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
