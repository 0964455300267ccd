// Package service decorates a data provider with change notifications.
//
// Provider wraps any provider.DataProvider. After a successful write it
// publishes an Event on the EventBus, and it reports every call to an
// optional Observer so metrics can count provider traffic.
//
// # Event System
//
// Events are delivered to subscribers without blocking; a slow
// subscriber misses events rather than stalling a request. The SSE hub
// subscribes to the bus to push changes to browsers.
package service
