package handler

import (
	"profilelounge/internal/app/session"
	"profilelounge/internal/configs"
)

// AppDeps holds what every handler needs: the configuration and the
// browser sessions.
type AppDeps struct {
	Config   *configs.AppConfig
	Sessions *session.Manager
}
