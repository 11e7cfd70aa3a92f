// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config assembles Connection construction arguments - the
// advertised handshake headers, the transport to dial, and the
// retry/read-limit policy - from a YAML file. This is a convenience for
// programs embedding a TChannel endpoint, not a dependency of the core
// (tchannel, rw, messages, wire).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	tchannel "github.com/kangkot/tchannel"
	"github.com/kangkot/tchannel/messages"
	"github.com/kangkot/tchannel/rw"
)

// Config is the on-disk shape of a TChannel endpoint's static
// configuration.
type Config struct {
	HostPort    string `yaml:"host_port"`
	ProcessName string `yaml:"process_name"`

	Transport string `yaml:"transport"` // "tcp", "unix", or "websocket"
	Address   string `yaml:"address"`

	Block      bool          `yaml:"block"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	ReadLimit  int           `yaml:"read_limit"`
}

// Load reads and parses the YAML document at path, defaulting an empty
// process_name to "tchannel" and an empty transport to "tcp".
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if c.ProcessName == "" {
		c.ProcessName = "tchannel"
	}
	if c.Transport == "" {
		c.Transport = "tcp"
	}
	return c, nil
}

// HandshakeHeaders converts the advertised host_port/process_name into
// the []rw.HeaderPair InitiateHandshake/AwaitHandshake expect.
func (c Config) HandshakeHeaders() []rw.HeaderPair {
	return []rw.HeaderPair{
		{messages.HostPort, c.HostPort},
		{messages.ProcessName, c.ProcessName},
	}
}

// Options converts the retry/read-limit policy into tchannel.Option
// values for Connection construction.
func (c Config) Options() []tchannel.Option {
	opts := []tchannel.Option{tchannel.WithReadLimit(c.ReadLimit)}
	if c.Block {
		opts = append(opts, tchannel.WithRetryDelay(maxDuration(c.RetryDelay, 0)))
	} else {
		opts = append(opts, tchannel.WithNonblock())
	}
	return opts
}

func maxDuration(d, floor time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}
