// Package api exposes the processes over HTTP: list them, inspect an upload
// and run one. Every route requires an authenticated user.
package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/harvestingmedia/dataprocessor/pipeline"
	"github.com/harvestingmedia/dataprocessor/table"
)

const (
	previewInputRows  = 5
	previewOutputRows = 10
	runTimeout        = 2 * time.Minute
)

// FieldInfo describes one mapping field
type FieldInfo struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ProcessInfo describes one process
type ProcessInfo struct {
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Destination string      `json:"destination"`
	Fields      []FieldInfo `json:"fields"`
	Extensions  []string    `json:"extensions"`
}

// Preview is the first rows of a table
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// InspectResponse describes an uploaded file before running a process on it
type InspectResponse struct {
	Process     string           `json:"process"`
	Filename    string           `json:"filename"`
	Columns     []string         `json:"columns"`
	Suggestions pipeline.Mapping `json:"suggestions"`
	Preview     Preview          `json:"preview"`
}

// RunResponse is the outcome of a run plus a preview of its output
type RunResponse struct {
	pipeline.Outcome
	Preview *Preview `json:"preview,omitempty"`
}

// Service handles process requests
type Service struct {
	registry *pipeline.Registry
}

// New creates a service over the registered processes
func New(registry *pipeline.Registry) *Service {
	return &Service{registry: registry}
}

// Register adds the process routes to the server router
func (s *Service) Register(e *core.ServeEvent) {
	g := e.Router.Group("/api/processes")
	g.Bind(apis.RequireAuth())

	g.GET("", s.handleList)
	g.POST("/{name}/inspect", s.handleInspect)
	g.POST("/{name}/run", s.handleRun)
}

func (s *Service) handleList(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, s.List())
}

func (s *Service) handleInspect(e *core.RequestEvent) error {
	up, err := parseRequest(e)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
	}

	resp, err := s.inspect(e.Request.PathValue("name"), up)
	if err != nil {
		return e.JSON(statusFor(err), map[string]interface{}{"error": err.Error()})
	}
	return e.JSON(http.StatusOK, resp)
}

func (s *Service) handleRun(e *core.RequestEvent) error {
	up, err := parseRequest(e)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(e.Request.Context(), runTimeout)
	defer cancel()

	resp, err := s.run(ctx, e.Request.PathValue("name"), up)
	if err != nil {
		return e.JSON(statusFor(err), map[string]interface{}{"error": err.Error()})
	}
	return e.JSON(http.StatusOK, resp)
}

func parseRequest(e *core.RequestEvent) (*upload, error) {
	form, err := e.Request.MultipartReader()
	if err != nil {
		return nil, errors.New("invalid multipart form")
	}
	return readUpload(form)
}

// statusFor maps a request error to its HTTP status
func statusFor(err error) int {
	if errors.Is(err, pipeline.ErrUnknownProcess) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// List describes every registered process
func (s *Service) List() []ProcessInfo {
	procs := s.registry.All()
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		info := ProcessInfo{
			Name:        p.Name(),
			Title:       p.Title(),
			Destination: p.Destination().String(),
			Extensions:  p.Extensions(),
		}
		for _, f := range p.Fields() {
			info.Fields = append(info.Fields, FieldInfo{Key: f.Key, Label: f.Label, Required: f.Required})
		}
		out = append(out, info)
	}
	return out
}

func (s *Service) load(name string, up *upload) (pipeline.Processor, *table.Table, error) {
	p, err := s.registry.Get(name)
	if err != nil {
		return nil, nil, err
	}
	in, err := table.Read(up.filename, bytes.NewReader(up.data), table.ReadOptions{
		HasHeaders: up.hasHeaders,
		Extensions: p.Extensions(),
	})
	if err != nil {
		return nil, nil, err
	}
	return p, in, nil
}

// inspect reads an upload and suggests a column mapping for a process
func (s *Service) inspect(name string, up *upload) (InspectResponse, error) {
	p, in, err := s.load(name, up)
	if err != nil {
		return InspectResponse{}, err
	}

	return InspectResponse{
		Process:     p.Name(),
		Filename:    up.filename,
		Columns:     in.Columns(),
		Suggestions: pipeline.SuggestMapping(p.Fields(), in.Columns()),
		Preview:     preview(in, previewInputRows),
	}, nil
}

// run reads an upload and runs a process on it. A failed run is not an
// error: its outcome says why it failed.
func (s *Service) run(ctx context.Context, name string, up *upload) (RunResponse, error) {
	p, in, err := s.load(name, up)
	if err != nil {
		return RunResponse{}, err
	}
	if up.mapping == nil {
		return RunResponse{}, errors.New("mapping is required")
	}

	outcome := p.Run(ctx, in, up.mapping, pipeline.Options{DateFormat: up.dateFormat})
	slog.Info("Process run finished",
		"run_id", outcome.RunID,
		"process", outcome.Process,
		"file", up.filename,
		"success", outcome.Success,
		"failure", string(outcome.Failure),
	)

	resp := RunResponse{Outcome: outcome}
	if outcome.Output != nil {
		pv := preview(outcome.Output, previewOutputRows)
		resp.Preview = &pv
	}
	return resp, nil
}

func preview(t *table.Table, n int) Preview {
	head := t.Head(n)
	pv := Preview{
		Columns: head.Columns(),
		Rows:    make([][]string, head.Len()),
		Total:   t.Len(),
	}
	for i := range pv.Rows {
		pv.Rows[i] = head.Row(i)
	}
	return pv
}
