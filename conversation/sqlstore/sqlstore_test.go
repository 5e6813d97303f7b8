package sqlstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/conversation/conversationtest"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/stretchr/testify/require"
)

// Runs against a throwaway Postgres database named by TEST_DATABASE_URL
func TestStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := storex.OpenPostgres(ctx, dsn, storex.PoolOptions{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(ctx, db))

	conversationtest.Run(t, func(t *testing.T) conversation.Store {
		_, err := db.ExecContext(context.Background(), `TRUNCATE whatsapp_messages, message_templates, whatsapp_conversations, whatsapp_instances`)
		require.NoError(t, err)
		return New(db)
	})
}
