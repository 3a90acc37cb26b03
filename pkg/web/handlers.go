package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jdgilhuly/workout_log/pkg/credential"
	"github.com/jdgilhuly/workout_log/pkg/generator"
	"github.com/jdgilhuly/workout_log/pkg/presenter"
	"github.com/jdgilhuly/workout_log/pkg/prompt"
	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeUnknownProvider = "unknown_provider"
	CodeRoutineRequired = "routine_required"
	CodeNothingToCopy   = "nothing_to_copy"
	CodeFileTooLarge    = "file_too_large"
	CodeInternal        = "internal"
	CodeNoSession       = "no_session"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondJSON writes a JSON response with the given status code.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn().Err(err).Msg("encoding JSON response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, code, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// pathProvider parses the {provider} path segment, answering 404 itself when
// it names no known provider.
func (s *Server) pathProvider(w http.ResponseWriter, r *http.Request) (provider.ID, bool) {
	id, err := provider.ParseID(r.PathValue("provider"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, CodeUnknownProvider, err.Error())
		return "", false
	}
	return id, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.session(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.respondJSON(w, http.StatusOK, sess.snapshot())
}

type credentialRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathProvider(w, r)
	if !ok {
		return
	}
	sess := s.session(w, r)

	var req credentialRequest
	if err := decodeBody(w, r, s.schemas.credential, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if sess.creds.Set(id, req.Key) {
		sess.log.Info().Str("provider", string(id)).Msg("credential pasted")
		sess.publish()
	}
	s.respondJSON(w, http.StatusOK, sess.snapshot())
}

func (s *Server) handleCredentialFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathProvider(w, r)
	if !ok {
		return
	}
	sess := s.session(w, r)

	// Room for multipart framing around a maximum-size file.
	r.Body = http.MaxBytesReader(w, r.Body, credential.MaxFileSize+16<<10)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, credential.ErrFileTooLarge.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, CodeInvalidRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	if err := sess.creds.LoadFile(id, file); err != nil {
		if errors.Is(err, credential.ErrFileTooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, err.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	sess.log.Info().Str("provider", string(id)).Msg("credential loaded from file")
	sess.publish()
	s.respondJSON(w, http.StatusOK, sess.snapshot())
}

func (s *Server) handleToggleManual(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathProvider(w, r)
	if !ok {
		return
	}
	sess := s.session(w, r)
	sess.creds.ToggleManual(id)
	sess.publish()
	s.respondJSON(w, http.StatusOK, sess.snapshot())
}

type generateResponse struct {
	Cycle uint64 `json:"cycle"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var in prompt.Inputs
	if err := decodeBody(w, r, s.schemas.generate, &in); err != nil {
		s.respondError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	// Requests outlive the HTTP exchange; leaving the page does not cancel
	// them.
	c, err := sess.gen.Generate(context.WithoutCancel(r.Context()), in)
	if errors.Is(err, generator.ErrRoutineRequired) {
		s.respondError(w, http.StatusBadRequest, CodeRoutineRequired, generator.RoutineRequiredText)
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusAccepted, generateResponse{Cycle: c.ID})
}

func (s *Server) handleCopied(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathProvider(w, r)
	if !ok {
		return
	}
	sess := s.session(w, r)
	if err := sess.presenter.MarkCopied(id); err != nil {
		if errors.Is(err, presenter.ErrNothingToCopy) {
			s.respondError(w, http.StatusConflict, CodeNothingToCopy, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, sess.snapshot())
}

// handleWS only attaches to a session the page already holds. The 101
// response cannot carry Set-Cookie, so a socket opened with a stale cookie is
// refused and the page re-fetches /api/state before reconnecting.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existingSession(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, CodeNoSession, "no session; fetch /api/state first")
		return
	}
	serveWS(w, r, sess.attach, sess.log)
}
