package cache

import "context"

// Noop satisfies Presence when no cache backend is configured. Nobody is
// ever present and no unread counter is ever known, so readers fall back to
// the durable store.
type Noop struct{}

var _ Presence = Noop{}

func (Noop) SetPresence(context.Context, uint, uint) error           { return nil }
func (Noop) PresentRoom(context.Context, uint) (uint, bool, error)   { return 0, false, nil }
func (Noop) ClearPresence(context.Context, uint) error               { return nil }
func (Noop) ClearPresenceIf(context.Context, uint, uint) error       { return nil }
func (Noop) SetUnread(context.Context, uint, uint, int64) error      { return nil }
func (Noop) IncrUnread(context.Context, uint, uint) (int64, error)   { return 0, nil }
func (Noop) Unread(context.Context, uint, uint) (int64, bool, error) { return 0, false, nil }
func (Noop) Ping(context.Context) error                              { return nil }
func (Noop) Close() error                                            { return nil }
