// Package mongostore implements conversation.Store on MongoDB.
package mongostore

import (
	"context"
	"time"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ConversationsCollection = "whatsapp_conversations"
	InstancesCollection     = "whatsapp_instances"
	MessagesCollection      = "whatsapp_messages"
	TemplatesCollection     = "message_templates"
)

// document mirrors conversation.Conversation with string ids
type document struct {
	ID            string    `bson:"id"`
	UserID        string    `bson:"user_id"`
	RemoteJID     string    `bson:"remote_jid"`
	InstanceName  string    `bson:"instance_name"`
	ContactPhone  string    `bson:"contact_phone"`
	ContactName   *string   `bson:"contact_name"`
	LastMessage   string    `bson:"last_message"`
	LastMessageAt time.Time `bson:"last_message_at"`
	UnreadCount   int       `bson:"unread_count"`
	IsOpen        bool      `bson:"is_open"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (d document) toConversation() conversation.Conversation {
	return conversation.Conversation{
		ID:            uuid.MustParse(d.ID),
		UserID:        uuid.MustParse(d.UserID),
		RemoteJID:     d.RemoteJID,
		InstanceName:  d.InstanceName,
		ContactPhone:  d.ContactPhone,
		ContactName:   d.ContactName,
		LastMessage:   d.LastMessage,
		LastMessageAt: d.LastMessageAt.UTC(),
		UnreadCount:   d.UnreadCount,
		IsOpen:        d.IsOpen,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type messageDoc struct {
	ID             string    `bson:"id"`
	ConversationID string    `bson:"conversation_id"`
	UserID         string    `bson:"user_id"`
	Text           string    `bson:"message_text"`
	FromUser       bool      `bson:"is_from_user"`
	Sentiment      *string   `bson:"sentiment"`
	CreatedAt      time.Time `bson:"created_at"`
}

func (d messageDoc) toMessage() conversation.Message {
	return conversation.Message{
		ID:             uuid.MustParse(d.ID),
		ConversationID: uuid.MustParse(d.ConversationID),
		UserID:         uuid.MustParse(d.UserID),
		Text:           d.Text,
		FromUser:       d.FromUser,
		Sentiment:      d.Sentiment,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

type templateDoc struct {
	ID        string    `bson:"id"`
	UserID    string    `bson:"user_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Category  *string   `bson:"category"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d templateDoc) toTemplate() conversation.Template {
	return conversation.Template{
		ID:        uuid.MustParse(d.ID),
		UserID:    uuid.MustParse(d.UserID),
		Title:     d.Title,
		Content:   d.Content,
		Category:  d.Category,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type binding struct {
	InstanceName string    `bson:"instance_name"`
	UserID       string    `bson:"user_id"`
	CreatedAt    time.Time `bson:"created_at"`
}

type Store struct {
	conversations *mongo.Collection
	instances     *mongo.Collection
	messages      *mongo.Collection
	templates     *mongo.Collection
	now           func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		conversations: db.Collection(ConversationsCollection),
		instances:     db.Collection(InstancesCollection),
		messages:      db.Collection(MessagesCollection),
		templates:     db.Collection(TemplatesCollection),
		now:           time.Now,
	}
}

var _ conversation.Store = (*Store)(nil)

func (s *Store) Create(ctx context.Context, n conversation.NewConversation) (*conversation.Conversation, error) {
	doc := document{
		ID:            uuid.NewString(),
		UserID:        n.Owner.String(),
		RemoteJID:     n.RemoteJID,
		InstanceName:  n.Instance,
		ContactPhone:  n.ContactPhone,
		ContactName:   n.ContactName,
		LastMessageAt: n.At,
		CreatedAt:     n.At,
		UpdatedAt:     n.At,
	}
	if _, err := s.conversations.InsertOne(ctx, doc); err != nil {
		if err = storex.MapMongoError(err); storex.IsConflict(err) {
			return nil, conversation.Exists(n.RemoteJID, n.Instance)
		}
		return nil, err
	}
	c := doc.toConversation()
	return &c, nil
}

// EnsureIndexes creates the unique keys Upsert and BindInstance rely on
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.conversations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "remote_jid", Value: 1}, {Key: "instance_name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "last_message_at", Value: -1}}},
		{Keys: bson.D{{Key: "instance_name", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return storex.MapMongoError(err)
	}
	_, err = s.instances.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "instance_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return storex.MapMongoError(err)
	}
	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return storex.MapMongoError(err)
	}
	_, err = s.templates.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return storex.MapMongoError(err)
}

func ifNull(field string, value any) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{field, value}}}
}

func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

// Upsert is a single FindOneAndUpdate with a pipeline update. Every
// expression in the $set stage reads the stored document, so "$id" being
// missing marks an insert.
func (s *Store) Upsert(ctx context.Context, u conversation.Upsert) (*conversation.Conversation, bool, error) {
	newID := uuid.NewString()
	isNew := bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$id"}}, "missing"}}}
	increment := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$and", Value: bson.A{!u.FromMe, bson.D{{Key: "$not", Value: bson.A{"$is_open"}}}}}},
		1, 0,
	}}}

	pipeline := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "id", Value: ifNull("$id", newID)},
		{Key: "user_id", Value: ifNull("$user_id", u.Owner.String())},
		{Key: "contact_phone", Value: ifNull("$contact_phone", literal(u.ContactPhone))},
		{Key: "contact_name", Value: bson.D{{Key: "$cond", Value: bson.A{isNew, literal(u.ContactName), "$contact_name"}}}},
		{Key: "is_open", Value: ifNull("$is_open", false)},
		{Key: "created_at", Value: ifNull("$created_at", u.At)},
		{Key: "unread_count", Value: bson.D{{Key: "$cond", Value: bson.A{
			isNew,
			u.InitialUnread(),
			bson.D{{Key: "$add", Value: bson.A{"$unread_count", increment}}},
		}}}},
		{Key: "last_message", Value: literal(u.Text)},
		{Key: "last_message_at", Value: u.At},
		{Key: "updated_at", Value: u.At},
	}}}}

	filter := bson.M{"remote_jid": u.RemoteJID, "instance_name": u.Instance}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc document
	if err := s.conversations.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&doc); err != nil {
		return nil, false, storex.MapMongoError(err)
	}
	c := doc.toConversation()
	return &c, doc.ID == newID, nil
}

func (s *Store) FindOwnerByInstance(ctx context.Context, instance string) (uuid.UUID, bool, error) {
	filter := bson.M{"instance_name": instance, "user_id": bson.M{"$ne": auth.SystemUserID.String()}}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var doc document
	if err := s.conversations.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if err = storex.MapMongoError(err); storex.IsRecordNotFound(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return uuid.MustParse(doc.UserID), true, nil
}

func (s *Store) BindInstance(ctx context.Context, instance string, userID uuid.UUID) error {
	update := bson.M{"$setOnInsert": bson.M{"user_id": userID.String(), "created_at": s.now().UTC()}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var b binding
	if err := s.instances.FindOneAndUpdate(ctx, bson.M{"instance_name": instance}, update, opts).Decode(&b); err != nil {
		return storex.MapMongoError(err)
	}
	if b.UserID != userID.String() {
		return conversation.InstanceBound(instance)
	}
	return nil
}

func (s *Store) InstanceOwner(ctx context.Context, instance string) (uuid.UUID, bool, error) {
	var b binding
	if err := s.instances.FindOne(ctx, bson.M{"instance_name": instance}).Decode(&b); err != nil {
		if err = storex.MapMongoError(err); storex.IsRecordNotFound(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	owner, err := uuid.Parse(b.UserID)
	if err != nil {
		return uuid.Nil, false, storex.Wrap(storex.ErrInvalidID, err)
	}
	return owner, true, nil
}

func (s *Store) List(ctx context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[conversation.Conversation], error) {
	page, err := storex.PaginateMongo[document](ctx, s.conversations, opts,
		bson.M{"user_id": session.UserID.String()},
		bson.D{{Key: "last_message_at", Value: -1}, {Key: "id", Value: 1}},
	)
	if err != nil {
		return storex.Paginated[conversation.Conversation]{}, err
	}

	items := make([]conversation.Conversation, 0, len(page.Data))
	for _, d := range page.Data {
		items = append(items, d.toConversation())
	}
	return storex.NewPaginated(items, page.Page.Number, page.Page.Size, page.Page.Total), nil
}

func (s *Store) SetOpen(ctx context.Context, session auth.Session, id uuid.UUID, open bool) (*conversation.Conversation, error) {
	set := bson.M{"is_open": open, "updated_at": s.now().UTC()}
	if open {
		set["unread_count"] = 0
	}
	filter := bson.M{"id": id.String(), "user_id": session.UserID.String()}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc document
	if err := s.conversations.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if err = storex.MapMongoError(err); storex.IsRecordNotFound(err) {
			return nil, conversation.NotFound(id)
		}
		return nil, err
	}
	c := doc.toConversation()
	return &c, nil
}

func (s *Store) owns(ctx context.Context, session auth.Session, id uuid.UUID) error {
	n, err := s.conversations.CountDocuments(ctx, bson.M{"id": id.String(), "user_id": session.UserID.String()})
	if err != nil {
		return storex.MapMongoError(err)
	}
	if n == 0 {
		return conversation.NotFound(id)
	}
	return nil
}

// AppendMessage moves the preview first; the filter on user_id is the
// ownership check, so a foreign id never gets a message.
func (s *Store) AppendMessage(ctx context.Context, session auth.Session, m conversation.NewMessage) (*conversation.Message, *conversation.Conversation, error) {
	filter := bson.M{"id": m.ConversationID.String(), "user_id": session.UserID.String()}
	set := bson.M{"last_message": m.Text, "last_message_at": m.At, "updated_at": m.At}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc document
	if err := s.conversations.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if err = storex.MapMongoError(err); storex.IsRecordNotFound(err) {
			return nil, nil, conversation.NotFound(m.ConversationID)
		}
		return nil, nil, err
	}

	md := messageDoc{
		ID:             uuid.NewString(),
		ConversationID: doc.ID,
		UserID:         session.UserID.String(),
		Text:           m.Text,
		FromUser:       m.FromUser,
		CreatedAt:      m.At,
	}
	if _, err := s.messages.InsertOne(ctx, md); err != nil {
		return nil, nil, storex.MapMongoError(err)
	}
	msg, c := md.toMessage(), doc.toConversation()
	return &msg, &c, nil
}

func (s *Store) Messages(ctx context.Context, session auth.Session, id uuid.UUID, opts storex.PaginationOptions) (storex.Paginated[conversation.Message], error) {
	if err := s.owns(ctx, session, id); err != nil {
		return storex.Paginated[conversation.Message]{}, err
	}
	page, err := storex.PaginateMongo[messageDoc](ctx, s.messages, opts,
		bson.M{"conversation_id": id.String()},
		bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}},
	)
	if err != nil {
		return storex.Paginated[conversation.Message]{}, err
	}

	items := make([]conversation.Message, 0, len(page.Data))
	for _, d := range page.Data {
		items = append(items, d.toMessage())
	}
	return storex.NewPaginated(items, page.Page.Number, page.Page.Size, page.Page.Total), nil
}

func (s *Store) CreateTemplate(ctx context.Context, n conversation.NewTemplate) (*conversation.Template, error) {
	doc := templateDoc{
		ID:        uuid.NewString(),
		UserID:    n.Owner.String(),
		Title:     n.Title,
		Content:   n.Content,
		Category:  n.Category,
		CreatedAt: n.At,
	}
	if _, err := s.templates.InsertOne(ctx, doc); err != nil {
		return nil, storex.MapMongoError(err)
	}
	tpl := doc.toTemplate()
	return &tpl, nil
}

func (s *Store) Templates(ctx context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[conversation.Template], error) {
	page, err := storex.PaginateMongo[templateDoc](ctx, s.templates, opts,
		bson.M{"user_id": session.UserID.String()},
		bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: 1}},
	)
	if err != nil {
		return storex.Paginated[conversation.Template]{}, err
	}

	items := make([]conversation.Template, 0, len(page.Data))
	for _, d := range page.Data {
		items = append(items, d.toTemplate())
	}
	return storex.NewPaginated(items, page.Page.Number, page.Page.Size, page.Page.Total), nil
}
