// Package api implements the REST surface of the search-space service:
// registration of YAML space definitions, inspection of their free
// parameters, candidate evaluation, and export of the optimizer-facing
// representation.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/store"
	"github.com/parametric-labs/searchspace/pkg/types"
)

// Server is the search-space API server.
type Server struct {
	app   *fiber.App
	store *store.Store
}

// New creates a new API server over st.
func New(st *store.Store) *Server {
	srv := &Server{store: st}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Post("/v1/spaces", srv.createSpace)
	app.Get("/v1/spaces", srv.listSpaces)
	app.Get("/v1/spaces/:space", srv.getSpace)
	app.Patch("/v1/spaces/:space", srv.updateSpace)
	app.Delete("/v1/spaces/:space", srv.deleteSpace)

	app.Get("/v1/spaces/:space/params", srv.spaceParams)
	app.Get("/v1/spaces/:space/export", srv.exportSpace)
	app.Post("/v1/spaces/:space/evaluate", srv.evaluateSpace)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func apiError(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

type spaceRequest struct {
	Name           string `json:"name"`
	SourceContents string `json:"sourceContents"`
	Description    string `json:"description"`
}

// paramView is the wire form of one search dimension.
type paramView struct {
	Name  string       `json:"name"`
	Attrs *types.Value `json:"attrs,omitempty"`
}

func paramViews(entry *store.Entry) []paramView {
	params := entry.Space.Params()
	views := make([]paramView, 0, len(params))
	for _, p := range params {
		view := paramView{Name: p.Name}
		if p.Attrs != nil {
			v := types.NewMap(p.Attrs)
			view.Attrs = &v
		}
		views = append(views, view)
	}
	return views
}

func (s *Server) createSpace(c *fiber.Ctx) error {
	var req spaceRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", "invalid request body")
	}
	if req.Name == "" {
		return apiError(c, 400, "INVALID_ARGUMENT", "name is required")
	}
	if req.SourceContents == "" {
		return apiError(c, 400, "INVALID_ARGUMENT", "sourceContents is required")
	}
	entry, err := s.store.Create(req.Name, req.SourceContents, req.Description)
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", err.Error())
	}
	return c.Status(201).JSON(entry)
}

func (s *Server) listSpaces(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"spaces": s.store.List()})
}

func (s *Server) getSpace(c *fiber.Ctx) error {
	entry, err := s.store.Get(c.Params("space"))
	if err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(fiber.Map{
		"name":           entry.Name,
		"description":    entry.Description,
		"revisionId":     entry.RevisionID,
		"createTime":     entry.CreateTime,
		"updateTime":     entry.UpdateTime,
		"sourceContents": entry.Source,
		"params":         paramViews(entry),
	})
}

func (s *Server) updateSpace(c *fiber.Ctx) error {
	var req spaceRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", "invalid request body")
	}
	if req.SourceContents == "" {
		return apiError(c, 400, "INVALID_ARGUMENT", "sourceContents is required")
	}
	entry, err := s.store.Update(c.Params("space"), req.SourceContents, req.Description)
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", err.Error())
	}
	return c.JSON(entry)
}

func (s *Server) deleteSpace(c *fiber.Ctx) error {
	if err := s.store.Delete(c.Params("space")); err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	return c.SendStatus(204)
}

func (s *Server) spaceParams(c *fiber.Ctx) error {
	entry, err := s.store.Get(c.Params("space"))
	if err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(fiber.Map{"params": paramViews(entry)})
}

func (s *Server) exportSpace(c *fiber.Ctx) error {
	entry, err := s.store.Get(c.Params("space"))
	if err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	exported, err := entry.Space.Export()
	if err != nil {
		return apiError(c, 500, "INTERNAL", err.Error())
	}
	return c.JSON(exported)
}

type evaluateRequest struct {
	Bindings map[string]interface{} `json:"bindings"`
}

func (s *Server) evaluateSpace(c *fiber.Ctx) error {
	entry, err := s.store.Get(c.Params("space"))
	if err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", "invalid request body")
	}

	env := make(graph.Env, len(req.Bindings))
	for name, v := range req.Bindings {
		env[name] = types.FromGo(v)
	}

	result, err := entry.Space.Evaluate(env)
	if err != nil {
		// Evaluation failures are configuration defects on the caller's
		// side: a missing binding or a failing operation.
		return apiError(c, 400, "FAILED_PRECONDITION", err.Error())
	}
	return c.JSON(fiber.Map{"result": result})
}
