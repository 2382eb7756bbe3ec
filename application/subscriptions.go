package application

import (
	"context"

	"leetbot/domain/events"
)

// RegisterApplicationSubscriptions wires the in-process handlers that run after bets and resolutions commit
func RegisterApplicationSubscriptions(
	registry LocalHandlerRegistry,
	uowFactory UnitOfWorkFactory,
	roleApplier RoleApplier,
	announcer Announcer,
) {
	handler := NewGameEventHandler(uowFactory, roleApplier, announcer)

	registry.RegisterLocalHandler(events.EventTypeBetPlaced,
		func(ctx context.Context, event events.Event) error {
			return handler.HandleBetPlaced(ctx, event)
		})

	registry.RegisterLocalHandler(events.EventTypeCycleResolved,
		func(ctx context.Context, event events.Event) error {
			return handler.HandleCycleResolved(ctx, event)
		})

	registry.RegisterLocalHandler(events.EventTypeRankChanged,
		func(ctx context.Context, event events.Event) error {
			return handler.HandleRankChanged(ctx, event)
		})
}
