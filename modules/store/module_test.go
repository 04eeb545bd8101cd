package store

import (
	"context"
	"testing"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// consumerModule depends on the store and keeps the container the framework
// hands it, the same way the realtime and api modules do.
type consumerModule struct {
	container mono.ServiceContainer
}

func (m *consumerModule) Name() string { return "store-consumer" }
func (m *consumerModule) Dependencies() []string { return []string{"store"} }
func (m *consumerModule) Start(_ context.Context) error { return nil }
func (m *consumerModule) Stop(_ context.Context) error { return nil }
func (m *consumerModule) SetDependencyServiceContainer(dep string, c mono.ServiceContainer) {
	if dep == "store" {
		m.container = c
	}
}

// startStoreApp runs a mono application with an in-memory store module and
// returns an adapter talking to it through the service container.
func startStoreApp(t *testing.T) *StoreAdapter {
	t.Helper()

	app, err := mono.NewMonoApplication(
		mono.WithNATSDontListen(),
		mono.WithNATSInProcessConn(),
	)
	require.NoError(t, err)

	consumer := &consumerModule{}
	require.NoError(t, app.Register(NewModule(":memory:", false, app.Logger())))
	require.NoError(t, app.Register(consumer))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	t.Cleanup(func() { _ = app.Stop(context.Background()) })

	require.NotNil(t, consumer.container)
	return NewStoreAdapter(consumer.container)
}

func TestStoreAdapter_OverServiceContainer(t *testing.T) {
	adapter := startStoreApp(t)
	ctx := context.Background()

	d, err := adapter.CreateDelivery(ctx, customer, "Bole", "Piassa")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, delivery.StatusPending, d.Status)

	assigned, err := adapter.AssignAgent(ctx, agent, d.ID, agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, agent.UserID, assigned.AgentID)

	t.Run("check access", func(t *testing.T) {
		tests := []struct {
			name    string
			caller  delivery.Identity
			id      string
			wantErr error
		}{
			{"sender allowed", customer, d.ID, nil},
			{"assigned agent allowed", agent, d.ID, nil},
			{"stranger forbidden", stranger, d.ID, ErrForbidden},
			{"unknown delivery", customer, "does-not-exist", ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := adapter.CheckAccess(ctx, tt.caller, tt.id)
				if tt.wantErr == nil {
					assert.NoError(t, err)
					return
				}
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	t.Run("messages", func(t *testing.T) {
		first, err := adapter.CreateMessage(ctx, customer, d.ID, "At the gate")
		require.NoError(t, err)
		assert.Equal(t, customer.UserID, first.SenderID)
		assert.NotEmpty(t, first.ID)

		second, err := adapter.CreateMessage(ctx, agent, d.ID, "At the gate")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		_, err = adapter.CreateMessage(ctx, stranger, d.ID, "hello")
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = adapter.CreateMessage(ctx, customer, d.ID, "   ")
		assert.ErrorIs(t, err, ErrInvalidInput)

		list, err := adapter.ListMessages(ctx, agent, d.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)

		_, err = adapter.ListMessages(ctx, customer, "does-not-exist")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("status transition", func(t *testing.T) {
		_, err := adapter.UpdateStatus(ctx, agent, d.ID, delivery.StatusDelivered)
		assert.ErrorIs(t, err, delivery.ErrInvalidTransition)

		updated, err := adapter.UpdateStatus(ctx, agent, d.ID, delivery.StatusPickedUp)
		require.NoError(t, err)
		assert.Equal(t, delivery.StatusPickedUp, updated.Status)
	})
}
