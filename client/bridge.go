package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	nanoid "github.com/jaevor/go-nanoid"
	"golang.org/x/sync/errgroup"
)

// placeholderPrefix marks ids generated locally before persistence.
const placeholderPrefix = "local-"

// MessageStore is the durable chat history.
type MessageStore interface {
	Create(ctx context.Context, content, senderID, deliveryID string) (*delivery.Message, error)
	List(ctx context.Context, deliveryID string) ([]delivery.Message, error)
}

// Emitter publishes an event on the live connection.
type Emitter interface {
	Emit(ctx context.Context, event string, data any) error
}

// Bridge keeps a ChatList in step with both the live room and the message
// store. Sends are optimistic: the line shows up at once and is reconciled
// when the store answers.
type Bridge struct {
	list   *ChatList
	store  MessageStore
	live   Emitter
	newID  func() string
	logger *slog.Logger
}

// NewBridge creates a bridge over list. A nil logger uses slog.Default.
func NewBridge(list *ChatList, store MessageStore, live Emitter, logger *slog.Logger) (*Bridge, error) {
	if list == nil || store == nil || live == nil {
		return nil, errors.New("client: bridge needs a list, a store and an emitter")
	}
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("client: placeholder id generator: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		list:   list,
		store:  store,
		live:   live,
		newID:  func() string { return placeholderPrefix + gen() },
		logger: logger,
	}, nil
}

// List returns the chat list the bridge maintains.
func (b *Bridge) List() *ChatList { return b.list }

// SendChatMessage appends a provisional message, then emits it live and
// persists it concurrently. On success the provisional entry is replaced in
// place by the stored message. On store failure the entry stays provisional
// and the store error is returned; the live copy is never retracted. A
// failed live emit is logged only.
func (b *Bridge) SendChatMessage(ctx context.Context, content, senderID, deliveryID string) (*Entry, error) {
	provisional := delivery.Message{
		ID:         b.newID(),
		DeliveryID: deliveryID,
		SenderID:   senderID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	entry := b.list.Append(provisional, true)

	var (
		g         errgroup.Group
		persisted *delivery.Message
	)
	g.Go(func() error {
		ev := delivery.MessageEvent{DeliveryID: deliveryID, SenderID: senderID, Content: content}
		if err := b.live.Emit(ctx, delivery.EventMessage, ev); err != nil {
			b.logger.Warn("live emit failed", slog.String("delivery_id", deliveryID), slog.Any("error", err))
		}
		return nil
	})
	g.Go(func() error {
		msg, err := b.store.Create(ctx, content, senderID, deliveryID)
		if err != nil {
			return err
		}
		persisted = msg
		return nil
	})

	if err := g.Wait(); err != nil {
		b.logger.Warn("message not persisted",
			slog.String("delivery_id", deliveryID),
			slog.String("placeholder_id", provisional.ID),
			slog.Any("error", err))
		return entry, fmt.Errorf("persist message: %w", err)
	}

	if !b.list.Reconcile(entry, *persisted) {
		b.logger.Debug("provisional message gone before reconcile", slog.String("placeholder_id", provisional.ID))
	}
	return entry, nil
}

// Load replaces the list with the stored history of deliveryID.
func (b *Bridge) Load(ctx context.Context, deliveryID string) error {
	messages, err := b.store.List(ctx, deliveryID)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	b.list.Reset(deliveryID, messages)
	return nil
}

// Receive appends a message relayed by another room member. Events for
// other deliveries and ids already shown are ignored.
func (b *Bridge) Receive(ev delivery.MessageEvent) bool {
	if ev.DeliveryID == "" {
		return false
	}
	if current := b.list.DeliveryID(); current != "" && current != ev.DeliveryID {
		return false
	}

	msg := delivery.Message{
		ID:         ev.ID,
		DeliveryID: ev.DeliveryID,
		SenderID:   ev.SenderID,
		Content:    ev.Content,
		CreatedAt:  time.Now(),
	}
	if ev.CreatedAt != nil {
		msg.CreatedAt = *ev.CreatedAt
	}
	pending := msg.ID == ""
	if pending {
		msg.ID = b.newID()
	}
	_, added := b.list.AppendUnique(msg, pending)
	return added
}
