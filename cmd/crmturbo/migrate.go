package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/crmturbo/conversation/mongostore"
	"github.com/Abraxas-365/crmturbo/conversation/sqlstore"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the conversation tables or indexes",
	Long: `Apply the Postgres schema (STORE_DRIVER=postgres) or create the
MongoDB indexes (STORE_DRIVER=mongo). Safe to run repeatedly.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	settings, err := loadFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch settings.StoreDriver {
	case DriverPostgres:
		db, err := storex.OpenPostgres(ctx, settings.DatabaseURL, storex.PoolOptions{MaxOpenConns: 1})
		if err != nil {
			return err
		}
		defer db.Close()
		if err := sqlstore.Migrate(ctx, db); err != nil {
			return err
		}
	case DriverMongo:
		client, err := storex.ConnectMongo(ctx, settings.MongoURI, 10*time.Second)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		if err := mongostore.New(client.Database(settings.MongoDatabase)).EnsureIndexes(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("nothing to migrate for the %s store", settings.StoreDriver)
	}

	logx.Info("Migrated %s store", settings.StoreDriver)
	return nil
}
