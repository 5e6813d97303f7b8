package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/crmturbo/configx"
	"github.com/Abraxas-365/crmturbo/msgx"
)

// Store drivers accepted by STORE_DRIVER
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Settings is the resolved process configuration
type Settings struct {
	EvolutionURL    string
	EvolutionKey    string
	WebhookSecret   string
	DefaultInstance string
	PublicWebhook   string

	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	Port        int
	HTTPTimeout time.Duration
	RequestLog  bool
}

var defaults = map[string]string{
	"EVOLUTION_DEFAULT_INSTANCE": msgx.DefaultInstance,
	"STORE_DRIVER":               DriverPostgres,
	"MONGO_DATABASE":             "crmturbo",
	"SERVER_PORT":                "8080",
	"HTTP_TIMEOUT":               "30s",
	"REQUEST_LOG":                "true",
}

// LoadSettings merges defaults, the dotenv file, the environment and
// overrides, in increasing priority
func LoadSettings(envFile string, overrides map[string]string) (Settings, error) {
	b := configx.NewBuilder().WithDefaults(defaults)
	if envFile != "" {
		b = b.FromDotEnv(envFile)
	}
	b = b.FromEnv("")
	if overrides != nil {
		b = b.FromMap(overrides, "overrides")
	}

	cfg, err := b.WithValidation(validateStore).Build()
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		EvolutionURL:    cfg.Get("evolution.api.url").AsString(),
		EvolutionKey:    cfg.Get("evolution.api.key").AsString(),
		WebhookSecret:   cfg.Get("evolution.webhook.secret").AsString(),
		DefaultInstance: cfg.Get("evolution.default.instance").AsString(),
		PublicWebhook:   cfg.Get("public.webhook.url").AsString(),

		SupabaseURL:       cfg.Get("supabase.url").AsString(),
		SupabaseAnonKey:   cfg.Get("supabase.anon.key").AsString(),
		SupabaseJWTSecret: cfg.Get("supabase.jwt.secret").AsString(),

		StoreDriver:   storeDriver(cfg),
		DatabaseURL:   cfg.Get("database.url").AsString(),
		MongoURI:      cfg.Get("mongo.uri").AsString(),
		MongoDatabase: cfg.Get("mongo.database").AsString(),

		Port:        cfg.Get("server.port").AsIntDefault(8080),
		HTTPTimeout: cfg.Get("http.timeout").AsDurationDefault(30 * time.Second),
		RequestLog:  cfg.Get("request.log").AsBoolDefault(true),
	}, nil
}

func storeDriver(cfg configx.Config) string {
	return strings.ToLower(cfg.Get("store.driver").AsStringDefault(DriverPostgres))
}

func validateStore(cfg configx.Config) error {
	switch driver := storeDriver(cfg); driver {
	case DriverPostgres:
		if !cfg.Get("database.url").IsSet() {
			return fmt.Errorf("DATABASE_URL is required for the %s store", driver)
		}
	case DriverMongo:
		if !cfg.Get("mongo.uri").IsSet() {
			return fmt.Errorf("MONGO_URI is required for the %s store", driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}
	return nil
}
