// Copyright 2025 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// dlctl syncs directory group members into service desk organizations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	deskcli "github.com/abcxyz/desk-link/pkg/cli"
	"github.com/abcxyz/pkg/cli"
	"github.com/abcxyz/pkg/logging"
)

// version is set at build time.
var version = "dev"

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	logger := logging.NewFromEnv("DESK_LINK_")
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx); err != nil {
		done()
		logger.ErrorContext(ctx, "process exited with error", "error", err)
		os.Exit(1)
	}
	done()
}

func realMain(ctx context.Context) error {
	cmd := &cli.RootCommand{
		Name:    "dlctl",
		Version: version,
		Commands: map[string]cli.CommandFactory{
			"sync": func() cli.Command {
				return &deskcli.SyncCommand{}
			},
		},
	}
	return cmd.Run(ctx, os.Args[1:]) //nolint:wrapcheck // Want passthrough
}
