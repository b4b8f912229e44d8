package providers

import (
	"fmt"
	"seatcheck/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidatorInterface interface {
	Validate() error
}

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) CnfValidatorInterface {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return v.Errors
	}

	if c.conf.Storage.Driver == "sqlite" && c.conf.Storage.SqlitePath == "" {
		return fmt.Errorf("storage.sqlitePath is required for the sqlite driver")
	}
	if c.conf.Ratings.MaxWindow < c.conf.Ratings.DefaultWindow {
		return fmt.Errorf("ratings.maxWindow %s is shorter than ratings.defaultWindow %s",
			c.conf.Ratings.MaxWindow, c.conf.Ratings.DefaultWindow)
	}
	if c.conf.Cache.Enabled && c.conf.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive when the cache is enabled")
	}
	if c.conf.Auth.JwtSecret == "" && !c.conf.Auth.AllowHeader {
		return fmt.Errorf("auth: either jwtSecret or allowHeader must be set")
	}

	seen := make(map[string]struct{}, len(c.conf.Venues))
	for i, venue := range c.conf.Venues {
		if venue.ID == "" {
			return fmt.Errorf("venues[%d]: id is required", i)
		}
		if venue.Name == "" {
			return fmt.Errorf("venue %s: name is required", venue.ID)
		}
		if venue.Capacity < 0 {
			return fmt.Errorf("venue %s: capacity must not be negative", venue.ID)
		}
		if _, dup := seen[venue.ID]; dup {
			return fmt.Errorf("venue %s: duplicate id", venue.ID)
		}
		seen[venue.ID] = struct{}{}
	}

	return nil
}
