package server

import (
	"errors"

	"kotlinls/internal/uri"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var errNoSession = errors.New("no active session")

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	ss := s.session.Load()
	if ss == nil {
		return errNoSession
	}
	u, err := uri.Parse(params.TextDocument.URI)
	if err != nil {
		return err
	}
	ss.sources.Open(u, params.TextDocument.Text, int32(params.TextDocument.Version))
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	ss := s.session.Load()
	if ss == nil {
		return errNoSession
	}
	u, err := uri.Parse(params.TextDocument.URI)
	if err != nil {
		return err
	}
	return ss.sources.Edit(u, int32(params.TextDocument.Version), params.ContentChanges)
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	ss := s.session.Load()
	if ss == nil {
		return errNoSession
	}
	u, err := uri.Parse(params.TextDocument.URI)
	if err != nil {
		return err
	}
	ss.sources.Close(u)
	return nil
}
