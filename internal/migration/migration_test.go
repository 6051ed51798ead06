package migration

import (
	"io/fs"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsPerDialect(t *testing.T) {
	for _, dialect := range []string{"postgres", "mysql"} {
		up, err := fs.ReadFile(embeddedMigrations, "sql/"+dialect+"/000001_init.up.sql")
		require.NoError(t, err, dialect)
		require.Contains(t, string(up), "vindi_order_creation_queue")
		require.Contains(t, string(up), "vindi_subscription_can_create_new_order")

		_, err = fs.ReadFile(embeddedMigrations, "sql/"+dialect+"/000001_init.down.sql")
		require.NoError(t, err, dialect)
	}
}

func TestRunSqliteAutoMigrates(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Run(conn, "sqlite"))

	for _, table := range []string{"customers", "customer_addresses", "vindi_payment_profiles", "orders", "vindi_order_creation_queue"} {
		require.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestRunRejectsUnknownDialect(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.Error(t, Run(conn, "oracle"))
}
