// Package handlers implements the JSON HTTP surface described in the
// component design: one handler struct per resource, wired together by
// Handlers and mounted by api.SetupRoutes.
package handlers

import (
	"chatrelay/internal/auth"
	"chatrelay/internal/hub"
	"chatrelay/internal/store"
)

// Handlers bundles every resource handler behind a single composition
// root for routes.go.
type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Messages  *MessageHandler
	Invites   *InviteHandler
	Misc      *MiscHandler
	WebSocket *WebSocketHandler
}

// NewHandlers wires the store, token service, and hub into each handler.
func NewHandlers(st *store.Store, jwt *auth.JWTService, h *hub.Hub) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(st, jwt),
		Users:     NewUserHandler(st, h),
		Messages:  NewMessageHandler(st, h),
		Invites:   NewInviteHandler(st),
		Misc:      NewMiscHandler(),
		WebSocket: NewWebSocketHandler(jwt, h),
	}
}
