// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/routehub/internal/validation"
)

// ErrInvalidConfig wraps every validation failure returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks field constraints and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, verr.Error())
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateHub()
}

func (c *Config) validateServer() error {
	if c.Server.Environment != "production" {
		return nil
	}
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("%w: CORS_ORIGINS must not contain * in production", ErrInvalidConfig)
		}
	}
	return nil
}

func (c *Config) validateHub() error {
	if !c.Hub.DefaultCenter().Valid() {
		return fmt.Errorf("%w: default center %v out of range", ErrInvalidConfig, c.Hub.DefaultCenter())
	}
	box := c.Hub.FallbackBox
	if !box.At(0, 0).Valid() || !box.At(1, 1).Valid() {
		return fmt.Errorf("%w: fallback box exceeds coordinate bounds", ErrInvalidConfig)
	}
	return nil
}
