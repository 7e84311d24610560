// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momeni/rentdispatch/pkg/core/repo"
	"github.com/momeni/rentdispatch/pkg/core/usecase/migrationuc"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
	Long: `Database management actions can be chosen by sub-commands.
For fresh installation in a development or production environment,
the init-dev or init-prod may be used.`,
}

var initDevCmd = &cobra.Command{
	Use:   "init-dev",
	Short: "Initialize database contents with development suitable data",
	Long: `Initialize database contents with development suitable data,
i.e., a few partners and pending bookings around Mumbai. The database
connection information are read from the config file and the admin
role is used for creation of tables. All tables and rows are created
in one transaction.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return initDB(func(ctx context.Context, uc *migrationuc.InitDBUseCase) error {
			return uc.InitDev(ctx)
		})
	},
	Args: cobra.NoArgs,
}

var initProdCmd = &cobra.Command{
	Use:   "init-prod",
	Short: "Initialize database contents with production suitable data",
	Long: `Initialize database contents with production suitable data,
i.e., create the empty tables. The database connection information are
read from the config file and the admin role is used for creation of
tables.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return initDB(func(ctx context.Context, uc *migrationuc.InitDBUseCase) error {
			return uc.InitProd(ctx)
		})
	},
	Args: cobra.NoArgs,
}

func initDB(
	f func(context.Context, *migrationuc.InitDBUseCase) error,
) error {
	ctx := context.Background()
	c, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := c.ConnectionPool(ctx, repo.AdminRole)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	if err = f(ctx, migrationuc.NewInitDB(p, c.NewSchemaRepo())); err != nil {
		return fmt.Errorf("initializing DB: %w", err)
	}
	return nil
}

func init() {
	dbCmd.AddCommand(initDevCmd)
	dbCmd.AddCommand(initProdCmd)
	rootCmd.AddCommand(dbCmd)
}
