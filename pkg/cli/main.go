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

package main

import (
	"os"
	"strings"

	"github.com/dnote/scriptorium/pkg/cli/infra"
	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/pkg/errors"

	// commands
	"github.com/dnote/scriptorium/pkg/cli/cmd/remote"
	"github.com/dnote/scriptorium/pkg/cli/cmd/root"
	"github.com/dnote/scriptorium/pkg/cli/cmd/serve"
	"github.com/dnote/scriptorium/pkg/cli/cmd/settings"
	"github.com/dnote/scriptorium/pkg/cli/cmd/sync"
	"github.com/dnote/scriptorium/pkg/cli/cmd/version"
)

// versionTag is populated during link time
var versionTag = "master"

// parseDBPath extracts --dbPath flag value from command line arguments
// regardless of where it appears (before or after subcommand).
// Returns empty string if not found.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func run() error {
	// --dbPath is needed before the commands are built and may follow the
	// subcommand, which root.ParseFlags would not see
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, dbPath)
	if err != nil {
		return errors.Wrap(err, "initializing context")
	}
	defer infra.Close(ctx)

	root.Register(remote.NewCmd(*ctx))
	root.Register(settings.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(serve.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	return root.Execute()
}

func main() {
	if err := run(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
