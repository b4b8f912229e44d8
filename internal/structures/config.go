package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type PresenceConfig struct {
	StalenessTTL     time.Duration `yaml:"stalenessTTL" validate:"required|min:1"`
	SweepInterval    time.Duration `yaml:"sweepInterval" validate:"required|min:1"`
	HistoryRetention time.Duration `yaml:"historyRetention"`
}

type RatingsConfig struct {
	DefaultWindow time.Duration `yaml:"defaultWindow" validate:"required|min:1"`
	MaxWindow     time.Duration `yaml:"maxWindow" validate:"required|min:1"`
	HalfLife      time.Duration `yaml:"halfLife"`
	DecayHorizon  time.Duration `yaml:"decayHorizon"`
}

type StorageConfig struct {
	Driver     string        `yaml:"driver" validate:"required|in:memory,sqlite"`
	SqlitePath string        `yaml:"sqlitePath"`
	Timeout    time.Duration `yaml:"timeout" validate:"required|min:1"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type AuthConfig struct {
	JwtSecret   string `yaml:"jwtSecret"`
	AllowHeader bool   `yaml:"allowHeader"`
	Header      string `yaml:"header"`
}

type VenueConfig struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	Capacity int     `yaml:"capacity"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server         `yaml:"webServer"`
	Logger      LoggerConfig   `yaml:"logger"`
	Presence    PresenceConfig `yaml:"presence"`
	Ratings     RatingsConfig  `yaml:"ratings"`
	Storage     StorageConfig  `yaml:"storage"`
	Persistence Persistence    `yaml:"persistence"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Auth        AuthConfig     `yaml:"auth"`
	Venues      []VenueConfig  `yaml:"venues"`
}
