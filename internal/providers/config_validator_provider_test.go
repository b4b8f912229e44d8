package providers

import (
	"seatcheck/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Persistence: structures.Persistence{
			FilePath:     "/tmp/seatcheck.snap",
			SaveInterval: 30 * time.Second,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Presence: structures.PresenceConfig{
			StalenessTTL:  15 * time.Minute,
			SweepInterval: time.Minute,
		},
		Ratings: structures.RatingsConfig{
			DefaultWindow: 120 * time.Minute,
			MaxWindow:     24 * time.Hour,
		},
		Storage: structures.StorageConfig{
			Driver:  "memory",
			Timeout: 2 * time.Second,
		},
		Auth: structures.AuthConfig{
			AllowHeader: true,
			Header:      "X-User-Id",
		},
		Venues: []structures.VenueConfig{
			{ID: "bass", Name: "Bass Library", Capacity: 400},
			{ID: "atticus", Name: "Atticus Cafe"},
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_UnknownDriver(t *testing.T) {
	c := validConfig()
	c.Storage.Driver = "postgres"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_SqliteNeedsPath(t *testing.T) {
	c := validConfig()
	c.Storage.Driver = "sqlite"
	assert.Error(t, NewCnfValidator(c).Validate())

	c.Storage.SqlitePath = "/tmp/seatcheck.db"
	assert.NoError(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_MaxWindowBelowDefault(t *testing.T) {
	c := validConfig()
	c.Ratings.MaxWindow = time.Minute
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_NoIdentitySource(t *testing.T) {
	c := validConfig()
	c.Auth.AllowHeader = false
	assert.Error(t, NewCnfValidator(c).Validate())

	c.Auth.JwtSecret = "secret"
	assert.NoError(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_Venues(t *testing.T) {
	c := validConfig()
	c.Venues = append(c.Venues, structures.VenueConfig{ID: "bass", Name: "Copy"})
	assert.Error(t, NewCnfValidator(c).Validate(), "duplicate id")

	c = validConfig()
	c.Venues[0].Capacity = -1
	assert.Error(t, NewCnfValidator(c).Validate(), "negative capacity")

	c = validConfig()
	c.Venues[1].Name = ""
	assert.Error(t, NewCnfValidator(c).Validate(), "missing name")
}
