package controllers

import (
	"net/http"

	"github.com/rvale/sesh/internal/runtime"
	directorysvc "github.com/rvale/sesh/internal/services/directory"
	hubsvc "github.com/rvale/sesh/internal/services/hub"
	logpkg "github.com/rvale/sesh/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes
// and manages the lifecycle of individual controllers.
type ControllerRegistry struct {
	general  *GeneralController
	sessions *SessionsController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime and services.
func NewControllerRegistry(rt *runtime.Runtime, hub *hubsvc.Service, dir *directorysvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general:  NewGeneralController(rt),
		sessions: NewSessionsController(rt, hub, dir, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.sessions.RegisterRoutes(mux)
}
