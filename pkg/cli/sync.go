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

// Package cli implements the dlctl commands.
package cli

import (
	"context"
	"fmt"

	secrets "github.com/input-output-hk/catalyst-forge-libs/secrets/core"

	"github.com/abcxyz/desk-link/pkg/credentials"
	"github.com/abcxyz/desk-link/pkg/jira"
	"github.com/abcxyz/desk-link/pkg/orgsync"
	"github.com/abcxyz/pkg/cli"
)

// AllTargets is the target value that syncs every configured sync group.
const AllTargets = "ALL"

var _ cli.Command = (*SyncCommand)(nil)

type SyncCommand struct {
	cli.BaseCommand

	groupConfig     string
	target          string
	environment     string
	credentialsFile string

	clientConfig jira.ClientConfig
}

func (c *SyncCommand) Desc() string {
	return `Sync directory group members into service desk organizations`
}

func (c *SyncCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]

  Read the members of each sync group's directory groups and add them to
  the sync group's service desk organization.

  Sync a single group against staging:

  dlctl sync \
    -group-config "(infra; 101,201; eng-infra,eng-sre)" \
    -target infra \
    -environment staging \
    -credentials-file credentials.env \
    -jira-staging-endpoint https://jira-staging.example.com \
    -jira-staging-principal SVC_JIRA_STAGING

  Sync every configured group against production:

  dlctl sync -target ALL -environment production ...
`
}

func (c *SyncCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()

	f := set.NewSection("COMMAND OPTIONS")

	f.StringVar(&cli.StringVar{
		Name:    "group-config",
		EnvVar:  "DESK_LINK_GROUP_CONFIG",
		Target:  &c.groupConfig,
		Example: "(name; stagingID,productionID; group1,group2)",
		Usage:   `Sync group definitions, one parenthesized record per sync group.`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "target",
		Target:  &c.target,
		Aliases: []string{"t"},
		Example: "infra",
		Usage:   `Name of the sync group to sync, or ALL for every configured group.`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "environment",
		Target:  &c.environment,
		Aliases: []string{"e"},
		Default: "staging",
		Example: "staging",
		Usage:   `Environment to sync against, either staging or production.`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "credentials-file",
		EnvVar:  "DESK_LINK_CREDENTIALS_FILE",
		Target:  &c.credentialsFile,
		Example: "credentials.env",
		Usage:   `Dotenv file holding the JSON credential for each principal.`,
	})

	c.clientConfig.RegisterFlags(set)

	return set
}

func (c *SyncCommand) Run(ctx context.Context, args []string) error {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	args = f.Args()
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}

	env, err := orgsync.ParseEnvironment(c.environment)
	if err != nil {
		return err
	}

	if c.groupConfig == "" {
		return fmt.Errorf("group config is not provided")
	}
	if c.target == "" {
		return fmt.Errorf("target is not provided")
	}
	if c.credentialsFile == "" {
		return fmt.Errorf("credentials file is not provided")
	}
	if c.clientConfig.Endpoint(env) == "" {
		return fmt.Errorf("no jira endpoint configured for environment %s", env)
	}
	if c.clientConfig.Principal(env) == "" {
		return fmt.Errorf("no jira principal configured for environment %s", env)
	}

	groups, err := orgsync.ParseSyncGroups(ctx, c.groupConfig)
	if err != nil {
		return fmt.Errorf("failed to parse group config: %w", err)
	}

	provider, err := credentials.NewDotenvProvider(c.credentialsFile)
	if err != nil {
		return fmt.Errorf("failed to load credentials file: %w", err)
	}
	manager := secrets.NewManager(&secrets.Config{DefaultProvider: provider.Name()})
	if err := manager.RegisterProvider(provider.Name(), provider); err != nil {
		return fmt.Errorf("failed to register secrets provider: %w", err)
	}
	defer manager.Close()

	source := credentials.NewStoreSource(manager)
	cred, err := source.Credential(ctx, c.clientConfig.Principal(env))
	if err != nil {
		return fmt.Errorf("failed to resolve jira credential: %w", err)
	}

	client := jira.NewClient(c.clientConfig.Endpoint(env), cred)
	syncer := orgsync.NewSyncer("desk-link", env, groups,
		jira.NewGroupReader(client), jira.NewOrgWriter(client))

	if c.target == AllTargets {
		return syncer.SyncAll(ctx)
	}
	return syncer.Sync(ctx, c.target)
}
