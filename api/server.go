// Package api serves loaded evaluators over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/mhai-lab/mhai/evaluation"
	"github.com/mhai-lab/mhai/logging"
)

// Server exposes a Registry and an optional CategoryClassifier.
type Server struct {
	registry   *evaluation.Registry
	classifier *evaluation.CategoryClassifier
	router     chi.Router
	log        *log.Entry
}

func NewServer(reg *evaluation.Registry, cls *evaluation.CategoryClassifier) *Server {
	s := &Server{
		registry:   reg,
		classifier: cls,
		router:     chi.NewRouter(),
		log:        logging.For("api"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Get("/healthz", s.handleHealth)
	r.Post("/evaluate/{kind}", s.handleEvaluate)
	r.Post("/classify", s.handleClassify)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).Debug("http_request")
	s.router.ServeHTTP(w, r)
}

type textRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Taxonomy   string                    `json:"taxonomy"`
	Category   string                    `json:"category"`
	Categories evaluation.CategoryScores `json:"categories"`
	Scores     evaluation.Scores         `json:"scores"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	kinds := []evaluation.Kind{}
	if s.registry != nil {
		kinds = s.registry.Kinds()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"evaluators": kinds,
		"classifier": s.classifier != nil,
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	kind, err := evaluation.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if s.registry == nil {
		writeError(w, http.StatusNotFound, "no evaluators loaded")
		return
	}
	ev, err := s.registry.Get(kind)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}

	res, err := ev.Evaluate(r.Context(), text)
	if err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("evaluate")
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if s.classifier == nil {
		writeError(w, http.StatusNotFound, "no classifier loaded")
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}

	cats, res, err := s.classifier.Classify(r.Context(), text)
	if err != nil {
		s.log.WithError(err).Warn("classify")
		writeError(w, statusFor(err), err.Error())
		return
	}
	out := classifyResponse{
		Taxonomy:   s.classifier.Taxonomy().Name(),
		Categories: cats,
		Scores:     res.Scores,
	}
	if top, ok := cats.Top(); ok {
		out.Category = top.Category
	}
	writeJSON(w, http.StatusOK, out)
}

func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body textRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return "", false
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return "", false
	}
	return body.Text, true
}

// statusFor maps evaluation errors to HTTP codes; anything else came from
// the backend.
func statusFor(err error) int {
	switch {
	case errors.Is(err, evaluation.ErrEmptyPrediction), errors.Is(err, evaluation.ErrUnexpectedLabel):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
