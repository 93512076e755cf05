package http

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
)

const maxBodyBytes = 4 << 10

func (s *Server) handleOpenSession(w http.ResponseWriter, _ *http.Request) {
	session := s.controller.Open()
	w.Header().Set("Location", "/api/sessions/"+session.ID())
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.controller.Session(r.PathValue("id"))
	if err != nil {
		s.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Close(r.PathValue("id")); err != nil {
		s.writeControllerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type filterRequest struct {
	MinMagnitude *float64 `json:"min_magnitude"`
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MinMagnitude == nil || math.IsNaN(*req.MinMagnitude) {
		writeError(w, http.StatusBadRequest, "invalid_body", "min_magnitude is required")
		return
	}
	s.respondWithSession(w, r, func(id string) error {
		_, err := s.controller.SetMinMagnitude(id, *req.MinMagnitude)
		return err
	})
}

type layerRequest struct {
	Visible *bool `json:"visible"`
}

func (s *Server) handleToggleLayer(w http.ResponseWriter, r *http.Request) {
	layer, ok := dashboard.ParseLayer(r.PathValue("layer"))
	if !ok {
		s.writeControllerError(w, dashboard.ErrUnknownLayer)
		return
	}
	var req layerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "visible is required")
		return
	}
	s.respondWithSession(w, r, func(id string) error {
		_, err := s.controller.ToggleLayer(id, layer, *req.Visible)
		return err
	})
}

type basemapRequest struct {
	Basemap string `json:"basemap"`
}

func (s *Server) handleSelectBasemap(w http.ResponseWriter, r *http.Request) {
	var req basemapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Basemap == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "basemap is required")
		return
	}
	s.respondWithSession(w, r, func(id string) error {
		_, err := s.controller.SelectBasemap(id, req.Basemap)
		return err
	})
}

func (s *Server) handleFocusEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	s.respondWithSession(w, r, func(id string) error {
		_, err := s.controller.FocusEvent(id, eventID)
		return err
	})
}

// respondWithSession applies op to the session named in the path and
// replies with the updated session scene.
func (s *Server) respondWithSession(w http.ResponseWriter, r *http.Request, op func(id string) error) {
	id := r.PathValue("id")
	if err := op(id); err != nil {
		s.writeControllerError(w, err)
		return
	}
	session, err := s.controller.Session(id)
	if err != nil {
		s.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "request body must be a JSON object"
		if !errors.Is(err, io.EOF) {
			msg = err.Error()
		}
		writeError(w, http.StatusBadRequest, "invalid_body", msg)
		return false
	}
	return true
}
