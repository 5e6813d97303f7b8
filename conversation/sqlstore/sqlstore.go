// Package sqlstore implements conversation.Store on Postgres with sqlx.
package sqlstore

import (
	"context"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const upsertQuery = `
INSERT INTO whatsapp_conversations AS c (
	id, user_id, remote_jid, instance_name, contact_phone, contact_name,
	last_message, last_message_at, unread_count, is_open, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $8, $8)
ON CONFLICT (remote_jid, instance_name) DO UPDATE SET
	last_message    = EXCLUDED.last_message,
	last_message_at = EXCLUDED.last_message_at,
	updated_at      = EXCLUDED.updated_at,
	unread_count    = c.unread_count + CASE WHEN $10 AND NOT c.is_open THEN 1 ELSE 0 END
RETURNING c.*, (c.xmax = 0) AS inserted`

const ownerByInstanceQuery = `
SELECT user_id FROM whatsapp_conversations
WHERE instance_name = $1 AND user_id <> $2
ORDER BY created_at ASC
LIMIT 1`

const bindQuery = `
INSERT INTO whatsapp_instances (instance_name, user_id) VALUES ($1, $2)
ON CONFLICT (instance_name) DO UPDATE SET user_id = whatsapp_instances.user_id
RETURNING user_id`

const setOpenQuery = `
UPDATE whatsapp_conversations SET
	is_open      = $3,
	unread_count = CASE WHEN $3 THEN 0 ELSE unread_count END,
	updated_at   = now()
WHERE id = $1 AND user_id = $2
RETURNING *`

const createQuery = `
INSERT INTO whatsapp_conversations (
	id, user_id, remote_jid, instance_name, contact_phone, contact_name,
	last_message, last_message_at, unread_count, is_open, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, '', $7, 0, false, $7, $7)
RETURNING *`

const touchQuery = `
UPDATE whatsapp_conversations SET
	last_message    = $3,
	last_message_at = $4,
	updated_at      = $4
WHERE id = $1 AND user_id = $2
RETURNING *`

const insertMessageQuery = `
INSERT INTO whatsapp_messages (id, conversation_id, user_id, message_text, is_from_user, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING *`

const insertTemplateQuery = `
INSERT INTO message_templates (id, user_id, title, content, category, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING *`

type upsertRow struct {
	conversation.Conversation
	Inserted bool `db:"inserted"`
}

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

var _ conversation.Store = (*Store)(nil)

func (s *Store) Upsert(ctx context.Context, u conversation.Upsert) (*conversation.Conversation, bool, error) {
	var row upsertRow
	err := s.db.GetContext(ctx, &row, upsertQuery,
		uuid.New(), u.Owner, u.RemoteJID, u.Instance, u.ContactPhone, u.ContactName,
		u.Text, u.At, u.InitialUnread(), !u.FromMe,
	)
	if err != nil {
		return nil, false, storex.MapSQLError(err)
	}
	return &row.Conversation, row.Inserted, nil
}

func (s *Store) FindOwnerByInstance(ctx context.Context, instance string) (uuid.UUID, bool, error) {
	var owner uuid.UUID
	err := s.db.GetContext(ctx, &owner, ownerByInstanceQuery, instance, auth.SystemUserID)
	if err != nil {
		if err = storex.MapSQLError(err); storex.IsRecordNotFound(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return owner, true, nil
}

func (s *Store) BindInstance(ctx context.Context, instance string, userID uuid.UUID) error {
	var owner uuid.UUID
	if err := s.db.GetContext(ctx, &owner, bindQuery, instance, userID); err != nil {
		return storex.MapSQLError(err)
	}
	if owner != userID {
		return conversation.InstanceBound(instance)
	}
	return nil
}

func (s *Store) InstanceOwner(ctx context.Context, instance string) (uuid.UUID, bool, error) {
	var owner uuid.UUID
	err := s.db.GetContext(ctx, &owner, `SELECT user_id FROM whatsapp_instances WHERE instance_name = $1`, instance)
	if err != nil {
		if err = storex.MapSQLError(err); storex.IsRecordNotFound(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return owner, true, nil
}

func (s *Store) List(ctx context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[conversation.Conversation], error) {
	return storex.PaginateSQL[conversation.Conversation](ctx, s.db, opts,
		`SELECT * FROM whatsapp_conversations WHERE user_id = $1 ORDER BY last_message_at DESC, id`,
		`SELECT COUNT(*) FROM whatsapp_conversations WHERE user_id = $1`,
		session.UserID,
	)
}

func (s *Store) SetOpen(ctx context.Context, session auth.Session, id uuid.UUID, open bool) (*conversation.Conversation, error) {
	var c conversation.Conversation
	if err := s.db.GetContext(ctx, &c, setOpenQuery, id, session.UserID, open); err != nil {
		if err = storex.MapSQLError(err); storex.IsRecordNotFound(err) {
			return nil, conversation.NotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) Create(ctx context.Context, n conversation.NewConversation) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.db.GetContext(ctx, &c, createQuery,
		uuid.New(), n.Owner, n.RemoteJID, n.Instance, n.ContactPhone, n.ContactName, n.At,
	)
	if err != nil {
		if err = storex.MapSQLError(err); storex.IsConflict(err) {
			return nil, conversation.Exists(n.RemoteJID, n.Instance)
		}
		return nil, err
	}
	return &c, nil
}

// AppendMessage moves the preview and stores the message in one transaction.
// The UPDATE doubles as the ownership check.
func (s *Store) AppendMessage(ctx context.Context, session auth.Session, m conversation.NewMessage) (*conversation.Message, *conversation.Conversation, error) {
	var (
		c   conversation.Conversation
		msg conversation.Message
	)
	err := storex.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &c, touchQuery, m.ConversationID, session.UserID, m.Text, m.At); err != nil {
			if err = storex.MapSQLError(err); storex.IsRecordNotFound(err) {
				return conversation.NotFound(m.ConversationID)
			}
			return err
		}
		err := tx.GetContext(ctx, &msg, insertMessageQuery,
			uuid.New(), c.ID, session.UserID, m.Text, m.FromUser, m.At,
		)
		return storex.MapSQLError(err)
	})
	if err != nil {
		return nil, nil, err
	}
	return &msg, &c, nil
}

func (s *Store) Messages(ctx context.Context, session auth.Session, id uuid.UUID, opts storex.PaginationOptions) (storex.Paginated[conversation.Message], error) {
	var owned bool
	err := s.db.GetContext(ctx, &owned,
		`SELECT EXISTS (SELECT 1 FROM whatsapp_conversations WHERE id = $1 AND user_id = $2)`,
		id, session.UserID,
	)
	if err != nil {
		return storex.Paginated[conversation.Message]{}, storex.MapSQLError(err)
	}
	if !owned {
		return storex.Paginated[conversation.Message]{}, conversation.NotFound(id)
	}
	return storex.PaginateSQL[conversation.Message](ctx, s.db, opts,
		`SELECT * FROM whatsapp_messages WHERE conversation_id = $1 ORDER BY created_at ASC, id`,
		`SELECT COUNT(*) FROM whatsapp_messages WHERE conversation_id = $1`,
		id,
	)
}

func (s *Store) CreateTemplate(ctx context.Context, n conversation.NewTemplate) (*conversation.Template, error) {
	var tpl conversation.Template
	err := s.db.GetContext(ctx, &tpl, insertTemplateQuery,
		uuid.New(), n.Owner, n.Title, n.Content, n.Category, n.At,
	)
	if err != nil {
		return nil, storex.MapSQLError(err)
	}
	return &tpl, nil
}

func (s *Store) Templates(ctx context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[conversation.Template], error) {
	return storex.PaginateSQL[conversation.Template](ctx, s.db, opts,
		`SELECT * FROM message_templates WHERE user_id = $1 ORDER BY created_at DESC, id`,
		`SELECT COUNT(*) FROM message_templates WHERE user_id = $1`,
		session.UserID,
	)
}
