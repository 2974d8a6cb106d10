package server

import (
	"log"
	"os"

	"kotlinls/internal/compiler"
	"kotlinls/internal/uri"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const maxSymbolResults = 128

func (s *Server) workspaceDidChangeWorkspaceFolders(
	context *glsp.Context,
	params *protocol.DidChangeWorkspaceFoldersParams,
) error {
	ss := s.session.Load()
	if ss == nil {
		return errNoSession
	}

	for _, folder := range params.Event.Removed {
		path, ok := folderPath(folder)
		if !ok {
			continue
		}
		if ss.classPath.RemoveWorkspaceRoot(path) {
			ss.sources.RemoveRoot(path)
		}
	}
	for _, folder := range params.Event.Added {
		path, ok := folderPath(folder)
		if !ok {
			continue
		}
		if ss.classPath.AddWorkspaceRoot(path) {
			ss.scan(path)
		}
	}
	return nil
}

func (s *Server) workspaceDidChangeWatchedFiles(
	context *glsp.Context,
	params *protocol.DidChangeWatchedFilesParams,
) error {
	ss := s.session.Load()
	if ss == nil {
		return errNoSession
	}

	for _, change := range params.Changes {
		u, err := uri.Parse(change.URI)
		if err != nil {
			log.Printf("ignoring watched file %q: %v", change.URI, err)
			continue
		}
		path, err := uri.ToPath(u)
		if err != nil || !ss.sources.IsSource(path) {
			continue
		}

		switch change.Type {
		case protocol.FileChangeTypeCreated, protocol.FileChangeTypeChanged:
			data, err := os.ReadFile(path)
			if err != nil {
				log.Printf("failed to read %s: %v", path, err)
				continue
			}
			ss.sources.Put(u, string(data))
		case protocol.FileChangeTypeDeleted:
			ss.sources.Delete(u)
		}
	}
	return nil
}

func (s *Server) workspaceSymbol(
	context *glsp.Context,
	params *protocol.WorkspaceSymbolParams,
) ([]protocol.SymbolInformation, error) {
	ss := s.session.Load()
	if ss == nil {
		return nil, errNoSession
	}

	records, err := ss.db.FindSymbols(params.Query, maxSymbolResults)
	if err != nil {
		return nil, err
	}

	symbols := make([]protocol.SymbolInformation, 0, len(records))
	for _, r := range records {
		info := protocol.SymbolInformation{
			Name: r.ShortName,
			Kind: symbolKind(r.Kind),
			Location: protocol.Location{
				URI:   protocol.DocumentUri(r.URI),
				Range: protocol.Range{
					Start: protocol.Position{Line: protocol.UInteger(r.StartLine), Character: protocol.UInteger(r.StartChar)},
					End:   protocol.Position{Line: protocol.UInteger(r.EndLine), Character: protocol.UInteger(r.EndChar)},
				},
			},
		}
		if container := containerName(r.FqName, r.ShortName); container != "" {
			info.ContainerName = &container
		}
		symbols = append(symbols, info)
	}
	return symbols, nil
}

func folderPath(folder protocol.WorkspaceFolder) (string, bool) {
	u, err := uri.Parse(folder.URI)
	if err != nil {
		log.Printf("ignoring workspace folder %q: %v", folder.URI, err)
		return "", false
	}
	path, err := uri.ToPath(u)
	if err != nil {
		log.Printf("ignoring workspace folder %q: %v", folder.URI, err)
		return "", false
	}
	return path, true
}

func symbolKind(kind string) protocol.SymbolKind {
	switch kind {
	case compiler.KindClass:
		return protocol.SymbolKindClass
	case compiler.KindInterface:
		return protocol.SymbolKindInterface
	case compiler.KindEnum:
		return protocol.SymbolKindEnum
	case compiler.KindObject:
		return protocol.SymbolKindObject
	case compiler.KindFunction:
		return protocol.SymbolKindFunction
	case compiler.KindProperty:
		return protocol.SymbolKindProperty
	}
	return protocol.SymbolKindVariable
}

// containerName strips the short name from a fully-qualified one.
func containerName(fqName, shortName string) string {
	if len(fqName) <= len(shortName)+1 {
		return ""
	}
	return fqName[:len(fqName)-len(shortName)-1]
}
