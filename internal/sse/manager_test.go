package sse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydeskapp/studydesk-server/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(slog.New(slog.DiscardHandler))
}

func TestManager_ConnectDisconnect(t *testing.T) {
	m := newTestManager(t)

	client, err := m.Connect()
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)
	assert.Equal(t, 1, m.ClientCount())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	// Disconnecting twice is harmless.
	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())
}

func TestManager_EmitDeliversToClients(t *testing.T) {
	m := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	client, err := m.Connect()
	require.NoError(t, err)
	defer m.Disconnect(client.ID)

	subject := domain.NewSubject("sub-1", "Mathematics")
	m.Emit(NewSubjectCreatedEvent(subject))

	select {
	case event := <-client.EventChan:
		assert.Equal(t, EventSubjectCreated, event.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestManager_EmitIgnoresUnknownTypes(t *testing.T) {
	m := newTestManager(t)

	// Not an Event, must be dropped without panic.
	m.Emit("not an event")
}

func TestManager_Shutdown(t *testing.T) {
	m := newTestManager(t)

	client, err := m.Connect()
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(shutdownCtx))

	// Emit after shutdown is a silent no-op.
	m.Emit(NewHeartbeatEvent())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())
}
