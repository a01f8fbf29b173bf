package lspserver

import (
	"fmt"

	"github.com/VonTum/sus-compiler/internal/ir"
	"github.com/VonTum/sus-compiler/internal/linker"
)

// Request is one cursor query: "what's at (Line, Col) in Module".
type Request struct {
	Module ir.ModuleID
	Line   int
	Col    int
}

// Response carries the located symbol, if any.
type Response struct {
	Info  LocationInfo
	Found bool
}

// Transport is the boundary to the actual LSP wire protocol (JSON-RPC
// over stdio, in a real client). One ReadRequest/WriteResponse round
// trip is this package's entire contract with it.
type Transport interface {
	ReadRequest() (Request, error)
	WriteResponse(Response) error
}

// Server answers Transport requests by walking the requested module with
// Locate.
type Server struct {
	link *linker.Linker
}

// NewServer returns a Server resolving requests against link.
func NewServer(link *linker.Linker) *Server {
	return &Server{link: link}
}

// ServeOne reads one request from t, answers it, and writes the response
// back. Returns any transport-level error (a malformed request, a closed
// connection); an unresolvable module or cursor position is reported as
// Response{Found: false}, not an error.
func (s *Server) ServeOne(t Transport) error {
	req, err := t.ReadRequest()
	if err != nil {
		return err
	}
	if req.Module.Index() < 0 || req.Module.Index() >= s.link.Modules.Len() {
		return t.WriteResponse(Response{Found: false})
	}
	mod := s.link.Modules.Get(req.Module)
	info, found := Locate(mod, req.Module, s.link, Position{Line: req.Line, Col: req.Col})
	return t.WriteResponse(Response{Info: info, Found: found})
}

// Serve loops ServeOne until the transport reports an error, typically
// meaning the connection closed.
func (s *Server) Serve(t Transport) error {
	for {
		if err := s.ServeOne(t); err != nil {
			return fmt.Errorf("lspserver: %w", err)
		}
	}
}
