package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/service"
)

func TestNotificationServiceForwardsToEverySink(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	broken := &recordingSink{err: errors.New("broker gone")}
	healthy := &recordingSink{}
	service.NewNotificationService(dispatcher, zap.NewNop(), broken, healthy).RegisterHandlers()

	for _, eventType := range events.AllEventTypes {
		err := dispatcher.Publish(context.Background(), events.Event{ID: string(eventType), Type: eventType})
		require.NoError(t, err)
	}

	assert.Equal(t, events.AllEventTypes, healthy.types())
	assert.Equal(t, events.AllEventTypes, broken.types())
}

func TestNotificationServiceWithoutDispatcher(t *testing.T) {
	svc := service.NewNotificationService(nil, nil)
	assert.NotPanics(t, svc.RegisterHandlers)
	assert.NotPanics(t, svc.Close)
}
