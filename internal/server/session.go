package server

import (
	"net/http"

	"go.uber.org/zap"
)

const sessionName = "syllabud"

// Flash kinds, used as the flash key and as the CSS class.
const (
	flashSuccess = "success"
	flashError   = "error"
	flashInfo    = "info"
)

type flash struct {
	Kind    string
	Message string
}

// addFlash queues a notice for the next rendered page. Call before redirecting.
func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	sess, _ := s.sessions.Get(r, sessionName)
	sess.AddFlash(msg, kind)
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("saving session", zap.Error(err))
	}
}

// popFlashes drains queued notices. Must run before the body is written.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []flash {
	sess, err := s.sessions.Get(r, sessionName)
	if err != nil && sess == nil {
		return nil
	}

	var out []flash
	for _, kind := range []string{flashError, flashSuccess, flashInfo} {
		for _, v := range sess.Flashes(kind) {
			if msg, ok := v.(string); ok {
				out = append(out, flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		if err := sess.Save(r, w); err != nil {
			s.logger.Warn("saving session", zap.Error(err))
		}
	}
	return out
}
