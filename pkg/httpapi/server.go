// Package httpapi exposes Cora over HTTP using net/http's ServeMux, the
// only HTTP surface idiom anywhere in the example pack — no router
// library is used by the teacher or any other retrieved repo.
package httpapi

import (
	"net/http"

	"github.com/rayied/cora/pkg/classifier"
	"github.com/rayied/cora/pkg/qa"
)

const serviceVersion = "1.0.0"

// Server wires the HTTP boundary to the Q&A engine and classifier.
type Server struct {
	engine     *qa.Engine
	classifier *classifier.Classifier
	mux        *http.ServeMux
}

func NewServer(engine *qa.Engine, cls *classifier.Classifier) *Server {
	s := &Server{engine: engine, classifier: cls, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /", s.handleRoot)
	s.mux.HandleFunc("POST /ask", s.handleAsk)
	s.mux.HandleFunc("POST /ask/stream", s.handleAskStream)
	s.mux.HandleFunc("POST /classify", s.handleClassify)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
