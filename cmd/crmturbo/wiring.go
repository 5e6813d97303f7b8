package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/conversation/memstore"
	"github.com/Abraxas-365/crmturbo/conversation/mongostore"
	"github.com/Abraxas-365/crmturbo/conversation/sqlstore"
	"github.com/Abraxas-365/crmturbo/eventx"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/msgx/providers/msgxevolution"
	"github.com/Abraxas-365/crmturbo/proxy"
	"github.com/Abraxas-365/crmturbo/server"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/Abraxas-365/crmturbo/webhook"
)

// application holds everything a host needs plus its teardown
type application struct {
	server  *server.Server
	gateway *msgxevolution.Client
	close   func()
}

func gatewayClient(s Settings, logger *logx.Logger) *msgxevolution.Client {
	return msgxevolution.NewClient(msgxevolution.Config{
		BaseURL:       s.EvolutionURL,
		APIKey:        s.EvolutionKey,
		Timeout:       s.HTTPTimeout,
		WebhookURL:    s.PublicWebhook,
		WebhookSecret: s.WebhookSecret,
	}, msgxevolution.WithLogger(logger))
}

// verifier checks tokens locally when the JWT secret is known and falls
// back to Supabase Auth. Nil when neither is configured.
func verifier(s Settings) auth.TokenVerifier {
	var chain auth.Chain
	if s.SupabaseJWTSecret != "" {
		chain = append(chain, auth.NewJWTVerifier(s.SupabaseJWTSecret, "authenticated"))
	}
	if s.SupabaseURL != "" && s.SupabaseAnonKey != "" {
		chain = append(chain, auth.NewSupabaseVerifier(s.SupabaseURL, s.SupabaseAnonKey, s.HTTPTimeout))
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

func openStore(ctx context.Context, s Settings) (conversation.Store, func(), error) {
	switch s.StoreDriver {
	case DriverMemory:
		return memstore.New(), func() {}, nil
	case DriverMongo:
		client, err := storex.ConnectMongo(ctx, s.MongoURI, 10*time.Second)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return mongostore.New(client.Database(s.MongoDatabase)), closeFn, nil
	default:
		db, err := storex.OpenPostgres(ctx, s.DatabaseURL, storex.PoolOptions{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		return sqlstore.New(db), func() { _ = db.Close() }, nil
	}
}

func buildApplication(ctx context.Context, s Settings) (*application, error) {
	logger := logx.GetLogger()

	store, closeStore, err := openStore(ctx, s)
	if err != nil {
		return nil, err
	}

	bus := eventx.NewMemoryBus()
	bus.Subscribe(eventx.Wildcard, eventx.LogHandler(logger))

	convs := conversation.NewService(store,
		conversation.WithPublisher(bus),
		conversation.WithLogger(logger),
	)
	gw := gatewayClient(s, logger)
	v := verifier(s)
	if v == nil {
		logger.Warn("No token verifier configured; authenticated routes will fail")
	}

	srv := server.New(server.Deps{
		Proxy: proxy.NewService(gw, v,
			proxy.WithBinder(convs),
			proxy.WithDefaultInstance(s.DefaultInstance),
			proxy.WithLogger(logger),
		),
		Webhook:       webhook.NewHandler(convs, webhook.WithSecret(s.WebhookSecret), webhook.WithLogger(logger)),
		Conversations: convs,
		Verifier:      v,
		Logger:        logger,
		RequestLog:    s.RequestLog,
	})

	return &application{server: srv, gateway: gw, close: closeStore}, nil
}
