// Package extension implements the requests the server offers on top of
// standard LSP. Each request body runs on the executor and the caller gets a
// future back right away.
package extension

import (
	"maps"
	"net/url"
	"sync/atomic"

	"kotlinls/internal/async"
	"kotlinls/internal/compiler"
	"kotlinls/internal/uri"
	"kotlinls/internal/workspace"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("kotlinls.extension")

type ContentProvider interface {
	ContentOf(u *url.URL) (*string, error)
}

type ClassPath interface {
	OutputDirectory() string
	WorkspaceRoots() []string
}

type SourcePath interface {
	CurrentVersion(u *url.URL) (*compiler.CompiledFile, error)
}

type Database interface {
	Clear(full bool) error
}

// Client is the editor side of the connection.
type Client interface {
	ShowMessage(params protocol.ShowMessageParams)
}

type clientRef struct {
	Client
}

type Service struct {
	exec    *async.Executor
	content ContentProvider
	cp      ClassPath
	sp      SourcePath
	db      Database

	client atomic.Pointer[clientRef]
}

func NewService(
	exec *async.Executor,
	content ContentProvider,
	cp ClassPath,
	sp SourcePath,
	db Database,
) *Service {
	return &Service{
		exec:    exec,
		content: content,
		cp:      cp,
		sp:      sp,
		db:      db,
	}
}

// Connect binds the client notifications are sent to. Only the first call
// has an effect; a connected client is never replaced.
func (s *Service) Connect(c Client) {
	if c == nil {
		return
	}
	if !s.client.CompareAndSwap(nil, &clientRef{c}) {
		log.Warning("client already connected, ignoring")
	}
}

func (s *Service) connectedClient() Client {
	if ref := s.client.Load(); ref != nil {
		return ref.Client
	}
	return nil
}

// JarClassContents returns the text of a file or archive entry, or nil when
// there is none.
func (s *Service) JarClassContents(doc protocol.TextDocumentIdentifier) *async.Future[*string] {
	return async.Submit(s.exec, "jarClassContents", func() (*string, error) {
		u, err := uri.Parse(doc.URI)
		if err != nil {
			return nil, err
		}
		return s.content.ContentOf(u)
	})
}

// BuildOutputLocation returns the absolute build output directory.
func (s *Service) BuildOutputLocation() *async.Future[*string] {
	return async.Submit(s.exec, "buildOutputLocation", func() (*string, error) {
		dir := s.cp.OutputDirectory()
		return &dir, nil
	})
}

// MainClass describes the entry point of a document together with the
// workspace root it belongs to. "projectRoot" is always set, to "" when no
// root contains the document.
func (s *Service) MainClass(doc protocol.TextDocumentIdentifier) *async.Future[map[string]any] {
	return async.Submit(s.exec, "mainClass", func() (map[string]any, error) {
		u, err := uri.Parse(doc.URI)
		if err != nil {
			return nil, err
		}
		path, err := uri.ToPath(u)
		if err != nil {
			return nil, err
		}

		// Longest match wins when both a project and one of its modules are roots.
		root := workspace.SelectRoot(path, s.cp.WorkspaceRoots())

		file, err := s.sp.CurrentVersion(u)
		if err != nil {
			return nil, err
		}

		result := make(map[string]any)
		maps.Copy(result, compiler.ResolveMain(file))
		result["projectRoot"] = root
		return result, nil
	})
}

// OverrideMember lists code actions adding overrides to the class at the
// cursor.
func (s *Service) OverrideMember(params protocol.TextDocumentPositionParams) *async.Future[[]protocol.CodeAction] {
	return async.Submit(s.exec, "overrideMember", func() ([]protocol.CodeAction, error) {
		u, err := uri.Parse(params.TextDocument.URI)
		if err != nil {
			return nil, err
		}
		file, err := s.sp.CurrentVersion(u)
		if err != nil {
			return nil, err
		}
		offset, err := compiler.Offset(file.Content, uint32(params.Position.Line), uint32(params.Position.Character))
		if err != nil {
			return nil, err
		}
		return compiler.ListOverridableMembers(file, offset), nil
	})
}

// CleanWorkspaceDb wipes the workspace database and tells the client.
func (s *Service) CleanWorkspaceDb() *async.Future[string] {
	return async.Submit(s.exec, "cleanWorkspaceDb", func() (string, error) {
		if err := s.db.Clear(true); err != nil {
			return "", err
		}
		if c := s.connectedClient(); c != nil {
			c.ShowMessage(protocol.ShowMessageParams{
				Type:    protocol.MessageTypeInfo,
				Message: "Database cleared!",
			})
		}
		return "", nil
	})
}
