// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/momeni/rentdispatch/pkg/core/model"
)

var tokenArgs struct {
	sub  string
	role string
	ttl  time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for development",
	Long: `Issue a bearer token which is signed with the configured secret.
Tokens are normally issued by the identity provider, so this command
is only useful for development and manual tests. Partners must use
their own id as the subject.`,
	RunE: issueToken,
	Args: cobra.NoArgs,
}

func issueToken(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := c.Auth.NewAuthority()
	if err != nil {
		return fmt.Errorf("creating tokens authority: %w", err)
	}
	tok, err := a.Issue(tokenArgs.sub, model.Role(tokenArgs.role), tokenArgs.ttl)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenArgs.sub, "sub", "", "subject of the token")
	f.StringVar(&tokenArgs.role, "role", "", "admin, customer, or partner")
	f.DurationVar(&tokenArgs.ttl, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("sub")
	_ = tokenCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(tokenCmd)
}
