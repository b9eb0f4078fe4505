package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

func namedHandler(name string) FlowHandler {
	return FlowHandlerFunc(func(ctx context.Context, request *domain.ExchangeRequest) (any, error) {
		return name, nil
	})
}

func handlerName(t *testing.T, handler FlowHandler) string {
	t.Helper()
	result, err := handler.Handle(context.Background(), nil)
	assert.NoError(t, err)
	return result.(string)
}

func TestHandlerRegistry(t *testing.T) {
	registry := NewHandlerRegistry()

	t.Run("EmptyResolvesNil", func(t *testing.T) {
		assert.Nil(t, registry.Resolve(domain.ActionDataExchange))
	})

	registry.Register(domain.ActionDataExchange, namedHandler("exchange"))
	registry.Register(domain.ActionInit, namedHandler("init"))
	registry.RegisterDefault(namedHandler("default"))

	t.Run("ExactBindingWins", func(t *testing.T) {
		assert.Equal(t, "exchange", handlerName(t, registry.Resolve(domain.ActionDataExchange)))
		assert.Equal(t, "init", handlerName(t, registry.Resolve(domain.ActionInit)))
	})

	t.Run("UnboundActionFallsBack", func(t *testing.T) {
		assert.Equal(t, "default", handlerName(t, registry.Resolve(domain.Action("custom_step"))))
		assert.Equal(t, "default", handlerName(t, registry.Resolve(domain.ActionBack)))
	})

	t.Run("RebindingReplaces", func(t *testing.T) {
		registry.Register(domain.ActionDataExchange, namedHandler("exchange-v2"))
		assert.Equal(t, "exchange-v2", handlerName(t, registry.Resolve(domain.ActionDataExchange)))
	})
}
