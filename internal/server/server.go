// Package server speaks JSON-RPC with the editor. Standard LSP methods are
// handled in order on the connection's read loop; extension requests are
// answered from their own goroutine once their future completes.
package server

import (
	"context"
	"io"
	"log"
	"os"
	"sync/atomic"

	"kotlinls/internal/async"
	"kotlinls/internal/classpath"
	"kotlinls/internal/compiler"
	"kotlinls/internal/config"
	"kotlinls/internal/content"
	"kotlinls/internal/database"
	"kotlinls/internal/extension"
	"kotlinls/internal/sourcepath"

	"github.com/sourcegraph/jsonrpc2"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type Options struct {
	Name    string
	Version string
	// Config is the base configuration the client's initializationOptions
	// are merged over.
	Config config.Config
	// Metrics may be nil.
	Metrics *async.Metrics
}

type Server struct {
	name    string
	version string
	base    config.Config
	metrics *async.Metrics
	handler *protocol.Handler

	session atomic.Pointer[session]
}

// session holds everything set up by initialize.
type session struct {
	cfg       config.Config
	exec      *async.Executor // extension requests only
	compiler  *compiler.Compiler
	classPath *classpath.Service
	sources   *sourcepath.SourcePath
	content   *content.Provider
	db        database.Database
	ext       *extension.Service

	// Workspace scans and re-indexing run here, one at a time.
	background *async.Executor
	bgCtx      context.Context
	cancelBg   context.CancelFunc
}

func New(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "kotlinls"
	}
	s := &Server{
		name:    opts.Name,
		version: opts.Version,
		base:    opts.Config,
		metrics: opts.Metrics,
	}
	s.handler = &protocol.Handler{
		Initialize:                         s.initialize,
		Initialized:                        s.initialized,
		Shutdown:                           s.shutdown,
		SetTrace:                           s.setTrace,
		TextDocumentDidOpen:                s.textDocumentDidOpen,
		TextDocumentDidChange:              s.textDocumentDidChange,
		TextDocumentDidClose:               s.textDocumentDidClose,
		WorkspaceDidChangeWorkspaceFolders: s.workspaceDidChangeWorkspaceFolders,
		WorkspaceDidChangeWatchedFiles:     s.workspaceDidChangeWatchedFiles,
		WorkspaceSymbol:                    s.workspaceSymbol,
	}
	return s
}

// ServeStream serves one client over stream until it disconnects or ctx is
// done.
func (s *Server) ServeStream(ctx context.Context, stream io.ReadWriteCloser) {
	conn := jsonrpc2.NewConn(
		ctx,
		jsonrpc2.NewBufferedStream(stream, jsonrpc2.VSCodeObjectCodec{}),
		s,
	)
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}
	s.stop()
}

// RunStdio serves the client on stdin/stdout.
func (s *Server) RunStdio() error {
	log.Println("serving on stdio")
	s.ServeStream(context.Background(), stdio{})
	return nil
}

// stop tears the current session down. It is safe to call repeatedly.
func (s *Server) stop() {
	ss := s.session.Swap(nil)
	if ss == nil {
		return
	}
	ss.close()
}

func (ss *session) startBackground(m *async.Metrics) {
	ss.bgCtx, ss.cancelBg = context.WithCancel(context.Background())
	ss.background = async.NewExecutor(1, m)
}

func (ss *session) close() {
	// Running scans are abandoned; in-flight requests finish before their
	// collaborators go away.
	ss.cancelBg()
	ss.exec.Stop()
	ss.background.Stop()
	if err := ss.compiler.Close(); err != nil {
		log.Printf("failed to close compiler: %v", err)
	}
	ss.content.Close()
	if err := ss.db.Close(); err != nil {
		log.Printf("failed to close database: %v", err)
	}
	if err := ss.classPath.Close(); err != nil {
		log.Printf("failed to clean up build output: %v", err)
	}
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
