/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config reads and writes the scriptoriumrc file
package config

import (
	"os"
	"path/filepath"

	"github.com/dnote/scriptorium/pkg/cli/consts"
	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/dirs"
	serverConfig "github.com/dnote/scriptorium/pkg/server/config"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DefaultLogLevel is the log level of the in-process server components
const DefaultLogLevel = "error"

// Config holds scriptorium configuration
type Config struct {
	Addr         string   `yaml:"addr"`
	LogLevel     string   `yaml:"logLevel"`
	ShoutrrrURLs []string `yaml:"shoutrrrUrls,omitempty"`
	AlertEmail   string   `yaml:"alertEmail,omitempty"`
}

// Default returns the configuration written on the first run
func Default() Config {
	return Config{
		Addr:     serverConfig.DefaultAddr,
		LogLevel: DefaultLogLevel,
	}
}

// GetPath returns the path to the scriptorium config file
func GetPath(ctx context.ScriptoriumCtx) string {
	return filepath.Join(ctx.Paths.Config, dirs.AppDirName, consts.ConfigFilename)
}

// DefaultDBPath returns the path of the database file when none is given
func DefaultDBPath(paths context.Paths) string {
	return filepath.Join(paths.Data, dirs.AppDirName, serverConfig.DefaultDBFilename)
}

// Read reads the config file
func Read(ctx context.ScriptoriumCtx) (Config, error) {
	var ret Config

	b, err := os.ReadFile(GetPath(ctx))
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(b, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.ScriptoriumCtx, cf Config) error {
	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	if err := os.WriteFile(GetPath(ctx), b, 0644); err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}

// ServerParams returns the server configuration parameters the file asks for
func (c Config) ServerParams(dbPath string) serverConfig.Params {
	return serverConfig.Params{
		Addr:         c.Addr,
		DBPath:       dbPath,
		LogLevel:     c.LogLevel,
		ShoutrrrURLs: c.ShoutrrrURLs,
		AlertEmail:   c.AlertEmail,
	}
}
