package server

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/matzehuels/flowgraph/pkg/bridge"
	"github.com/matzehuels/flowgraph/pkg/controller"
	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/render"
	"github.com/matzehuels/flowgraph/pkg/render/sink"
)

// maxBody caps request bodies.
const maxBody = 32 << 20

// =============================================================================
// Responses
// =============================================================================

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Controller string `json:"controller"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// EventsResponse is the body of GET /events.
type EventsResponse struct {
	Messages []bridge.Message `json:"messages"`
	Last     uint64           `json:"last"` // Pass as since to continue
}

// ZoomRequest is the body of POST /zoom.
type ZoomRequest struct {
	Scale float64 `json:"scale"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBusy:
		return http.StatusConflict
	case errors.ErrCodeInitialization, errors.ErrCodeBridge:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// =============================================================================
// Loop Access
// =============================================================================

// do runs fn on the engine loop.
func (s *Server) do(ctx context.Context, fn func()) error {
	if err := s.loop.Do(ctx, fn); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "engine did not respond")
	}
	return nil
}

// await runs start on the engine loop and waits for the future it returns.
func (s *Server) await(ctx context.Context, start func() *loop.Future) error {
	done := make(chan error, 1)
	if err := s.do(ctx, func() { start().Then(func(err error) { done <- err }) }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "engine did not respond")
	}
}

// state runs fn on the loop and replies with the resulting controller
// state.
func (s *Server) state(w http.ResponseWriter, r *http.Request, fn func() error) {
	var (
		st  controller.State
		err error
	)
	if doErr := s.do(r.Context(), func() {
		if fn != nil {
			err = fn()
		}
		st = s.ctrl.State()
	}); doErr != nil {
		s.writeError(w, doErr)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) knownNode(id string) error {
	if data := s.ctrl.Data(); data != nil {
		if _, ok := data.Node(id); ok {
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotFound, "unknown node %q", id)
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Controller: s.ctrl.ID()})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.state(w, r, nil)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	format := graph.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, _ := mime.ParseMediaType(ct)
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = graph.FormatYAML
		case "application/toml":
			format = graph.FormatTOML
		}
	}
	d, err := graph.Read(io.LimitReader(r.Body, maxBody), format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.await(r.Context(), func() *loop.Future { return s.ctrl.UpdateData(r.Context(), d) }); err != nil {
		s.writeError(w, err)
		return
	}
	s.state(w, r, nil)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.state(w, r, func() error {
		if err := s.knownNode(id); err != nil {
			return err
		}
		s.ctrl.Click(id)
		return nil
	})
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.state(w, r, func() error {
		if err := s.knownNode(id); err != nil {
			return err
		}
		s.ctrl.Hover(id)
		return nil
	})
}

func (s *Server) handleUnhover(w http.ResponseWriter, r *http.Request) {
	s.state(w, r, func() error {
		s.ctrl.Hover("")
		return nil
	})
}

func (s *Server) handleBackgroundClick(w http.ResponseWriter, r *http.Request) {
	s.state(w, r, func() error {
		s.ctrl.BackgroundClick()
		return nil
	})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req ZoomRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode zoom request"))
		return
	}
	if req.Scale <= 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", req.Scale))
		return
	}
	s.state(w, r, func() error {
		s.ctrl.Zoom(req.Scale)
		return nil
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.state(w, r, func() error {
		s.ctrl.RestartLayout()
		return nil
	})
}

func (s *Server) snapshot(ctx context.Context) (render.Scene, error) {
	var scene render.Scene
	err := s.do(ctx, func() { scene = s.ctrl.Snapshot() })
	return scene, err
}

func sinkOptions(r *http.Request) []sink.Option {
	var opts []sink.Option
	q := r.URL.Query()
	if fit, _ := strconv.ParseBool(q.Get("fit")); fit {
		opts = append(opts, sink.WithFit())
	}
	if labels, err := strconv.ParseBool(q.Get("labels")); err == nil && !labels {
		opts = append(opts, sink.WithoutLabels())
	}
	return opts
}

func (s *Server) handleSceneSVG(w http.ResponseWriter, r *http.Request) {
	scene, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	sink.WriteSVG(w, scene, sinkOptions(r)...)
}

func (s *Server) handleSceneJSON(w http.ResponseWriter, r *http.Request) {
	scene, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := sink.RenderJSON(scene, sinkOptions(r)...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid since %q", v))
			return
		}
		since = n
	}
	resp := EventsResponse{Messages: []bridge.Message{}, Last: since}
	if s.events != nil {
		if msgs := s.events.Since(since); len(msgs) > 0 {
			resp.Messages = msgs
			resp.Last = msgs[len(msgs)-1].Seq
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
