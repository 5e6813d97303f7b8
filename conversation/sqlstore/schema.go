package sqlstore

import (
	"context"

	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/jmoiron/sqlx"
)

// Schema creates the tables the store needs. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS whatsapp_conversations (
		id              uuid PRIMARY KEY,
		user_id         uuid NOT NULL,
		remote_jid      text NOT NULL,
		instance_name   text NOT NULL DEFAULT '',
		contact_phone   text NOT NULL,
		contact_name    varchar(255),
		last_message    text NOT NULL DEFAULT '',
		last_message_at timestamptz NOT NULL,
		unread_count    integer NOT NULL DEFAULT 0 CHECK (unread_count >= 0),
		is_open         boolean NOT NULL DEFAULT false,
		created_at      timestamptz NOT NULL,
		updated_at      timestamptz NOT NULL,
		UNIQUE (remote_jid, instance_name)
	)`,
	`CREATE INDEX IF NOT EXISTS whatsapp_conversations_user_idx
		ON whatsapp_conversations (user_id, last_message_at DESC)`,
	`CREATE INDEX IF NOT EXISTS whatsapp_conversations_instance_idx
		ON whatsapp_conversations (instance_name, created_at)`,
	`CREATE TABLE IF NOT EXISTS whatsapp_instances (
		instance_name text PRIMARY KEY,
		user_id       uuid NOT NULL,
		created_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS whatsapp_messages (
		id              uuid PRIMARY KEY,
		conversation_id uuid NOT NULL REFERENCES whatsapp_conversations (id) ON DELETE CASCADE,
		user_id         uuid NOT NULL,
		message_text    text NOT NULL,
		is_from_user    boolean NOT NULL DEFAULT false,
		sentiment       text,
		created_at      timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS whatsapp_messages_conversation_idx
		ON whatsapp_messages (conversation_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS message_templates (
		id         uuid PRIMARY KEY,
		user_id    uuid NOT NULL,
		title      varchar(255) NOT NULL,
		content    text NOT NULL,
		category   varchar(100),
		created_at timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS message_templates_user_idx
		ON message_templates (user_id, created_at DESC)`,
}

// Migrate applies Schema in one transaction
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return storex.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, stmt := range Schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return storex.MapSQLError(err)
			}
		}
		return nil
	})
}
