package models

// MConfig Structure
type MConfig struct {
	Name           string         `yaml:"name"`
	Host           string         `yaml:"host"`
	Port           int            `yaml:"port"`
	LogLevel       string         `yaml:"log_level"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Feed           MFeedConfig    `yaml:"feed"`
	Engine         MEngineConfig  `yaml:"engine"`
	Storage        MStorageConfig `yaml:"storage"`
}

type MFeedConfig struct {
	TickIntervalMs int    `yaml:"tick_interval_ms"`
	DefaultSymbol  string `yaml:"default_symbol"`
}

type MEngineConfig struct {
	BaseURL        string `yaml:"base_url"`
	RequestTimeout int    `yaml:"timeout"` // seconds, transport-level
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}
