// Package httpapi exposes the command dispatcher over HTTP so remote
// tool-calling clients can drive the arm.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"goji.io"
	"goji.io/pat"

	"github.com/ankithreddypati/so101arm-mcp/pkg/device"
	"github.com/ankithreddypati/so101arm-mcp/pkg/dispatch"
	"github.com/ankithreddypati/so101arm-mcp/pkg/gesture"
	"github.com/ankithreddypati/so101arm-mcp/pkg/motion"
	"github.com/ankithreddypati/so101arm-mcp/pkg/pose"
	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

const maxBodyBytes = 1 << 16

// RouteTable maps URL patterns to handlers.
type RouteTable map[*pat.Pattern]http.HandlerFunc

// Server wires the dispatcher to HTTP routes.
type Server struct {
	d          *dispatch.Dispatcher
	RouteTable RouteTable
}

// New returns a server with the route table pre-configured.
func New(d *dispatch.Dispatcher) *Server {
	s := &Server{d: d}
	s.RouteTable = RouteTable{
		pat.Post("/tool/:name"):    s.runTool,
		pat.Get("/state"):          s.getState,
		pat.Get("/list-of-routes"): s.listRoutes,
	}
	return s
}

// Mux builds a goji mux from the route table.
func (s *Server) Mux() *goji.Mux {
	mux := goji.NewMux()
	for p, h := range s.RouteTable {
		mux.HandleFunc(p, h)
	}
	return mux
}

// runTool executes one named command; the body carries its JSON arguments.
func (s *Server) runTool(w http.ResponseWriter, r *http.Request) {
	name := pat.Param(r, "name")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	res, err := s.d.Dispatch(r.Context(), name, body)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, res)
}

// getState returns a device snapshot. It never waits on a running motion,
// so it stays usable for status polling mid-gesture.
func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	res, err := s.d.Dispatch(r.Context(), "get_robot_state", nil)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, res)
}

func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request) {
	routes := make([]string, 0, len(s.RouteTable))
	for p := range s.RouteTable {
		routes = append(routes, p.String())
	}
	respondJSON(w, map[string]any{
		"routes":   routes,
		"commands": s.d.Commands(),
	})
}

// statusFor maps the error taxonomy onto HTTP status codes. Validation
// failures are client errors; device failures are gateway errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pose.ErrPoseNotFound),
		errors.Is(err, dispatch.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, device.ErrBusy),
		errors.Is(err, device.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, device.ErrComm):
		return http.StatusBadGateway
	case errors.Is(err, device.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, dispatch.ErrInvalidArgs),
		errors.Is(err, robot.ErrInvalidJointVector),
		errors.Is(err, motion.ErrDimensionMismatch),
		errors.Is(err, gesture.ErrScriptInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
