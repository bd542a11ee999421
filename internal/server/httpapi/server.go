// Package httpapi exposes the REST and WebSocket API over the application
// services.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pairpad/pairpad/internal/collab"
	"github.com/pairpad/pairpad/internal/runner"
	"github.com/pairpad/pairpad/internal/service"
)

// Executor is the execution gateway boundary as handlers see it.
type Executor interface {
	Execute(ctx context.Context, code, languageID string) (runner.Result, error)
}

// Server wires services into HTTP handlers.
type Server struct {
	projects service.ProjectService
	access   service.AccessService
	rooms    service.RoomService
	files    service.FileService
	exec     Executor
	hubs     *collab.Manager
	signKey  []byte
	log      *zap.Logger
}

// New constructs a Server with injected services.
func New(
	projects service.ProjectService,
	access service.AccessService,
	rooms service.RoomService,
	files service.FileService,
	exec Executor,
	hubs *collab.Manager,
	signKey []byte,
	log *zap.Logger,
) *Server {
	return &Server{
		projects: projects,
		access:   access,
		rooms:    rooms,
		files:    files,
		exec:     exec,
		hubs:     hubs,
		signKey:  signKey,
		log:      log,
	}
}

// Router builds the full route tree with logging, recovery and auth.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(RequestLogging(s.log))

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(s.signKey, s.log))

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.createProject)
			r.Get("/", s.listProjects)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.getProject)
				r.Patch("/", s.updateProject)
				r.Delete("/", s.deleteProject)
				r.Post("/code", s.saveCode)

				r.Get("/links/{role}", s.issueLink)
				r.Post("/links/{role}/rotate", s.rotateSecret)

				r.Get("/collaborators", s.listCollaborators)
				r.Delete("/collaborators/me", s.leaveProject)
				r.Delete("/collaborators/{userID}", s.revokeCollaborator)

				r.Post("/requests", s.createRequest)
				r.Get("/requests", s.listProjectRequests)

				r.Get("/files", s.listFiles)
				r.Post("/files", s.createFile)
			})
		})

		r.Post("/join/{code}/{secret}", s.join)

		r.Get("/requests", s.listOwnRequests)
		r.Post("/requests/{requestID}/approve", s.approveRequest)
		r.Post("/requests/{requestID}/reject", s.rejectRequest)
		r.Post("/requests/{requestID}/withdraw", s.withdrawRequest)

		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Get("/", s.getFile)
			r.Patch("/", s.renameFile)
			r.Delete("/", s.deleteFile)
			r.Put("/content", s.saveFileContent)
		})

		r.Post("/execute", s.execute)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.signKey, s.log))
		r.Get("/ws/projects/{projectID}", s.collabSocket)
	})

	return r
}
