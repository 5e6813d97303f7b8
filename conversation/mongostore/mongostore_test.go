package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/conversation/conversationtest"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Runs against the MongoDB named by TEST_MONGO_URI, one database per subtest
func TestStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := storex.ConnectMongo(ctx, uri, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	conversationtest.Run(t, func(t *testing.T) conversation.Store {
		db := client.Database("crmturbo_test_" + uuid.NewString()[:8])
		t.Cleanup(func() { _ = db.Drop(context.Background()) })

		s := New(db)
		require.NoError(t, s.EnsureIndexes(ctx))
		return s
	})
}
