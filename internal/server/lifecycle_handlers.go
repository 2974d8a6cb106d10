package server

import (
	"fmt"
	"log"
	"time"

	"kotlinls/internal/async"
	"kotlinls/internal/classpath"
	"kotlinls/internal/compiler"
	"kotlinls/internal/config"
	"kotlinls/internal/content"
	"kotlinls/internal/database"
	"kotlinls/internal/extension"
	"kotlinls/internal/sourcepath"
	"kotlinls/internal/uri"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const metadataLastScan = "last_scan"

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	// Config
	cfg, err := config.Merge(s.base, params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	log.Printf("Config: %+v", cfg)

	// Roots
	cp, err := classpath.New(cfg.OutputDirectory)
	if err != nil {
		return nil, err
	}
	for _, root := range workspaceRoots(params) {
		cp.AddWorkspaceRoot(root)
	}
	roots := cp.WorkspaceRoots()

	// Database
	dbKey := ""
	if len(roots) > 0 {
		dbKey = roots[0]
	}
	dbPath, err := cfg.DatabasePath(dbKey)
	if err != nil {
		cp.Close()
		return nil, err
	}
	db, err := database.NewSQLiteDB(dbPath)
	if err != nil {
		cp.Close()
		return nil, fmt.Errorf("failed to open workspace database: %w", err)
	}

	provider, err := content.NewProvider(cfg.ContentCacheBytes)
	if err != nil {
		db.Close()
		cp.Close()
		return nil, err
	}

	comp := compiler.New(cfg.Workers)
	sources := sourcepath.New(comp, cfg.SourceExtensions, cfg.Workers)
	if cfg.IndexSymbols {
		sources.SetIndex(db)
	}

	exec := async.NewExecutor(cfg.Workers, s.metrics)
	ss := &session{
		cfg:       cfg,
		exec:      exec,
		compiler:  comp,
		classPath: cp,
		sources:   sources,
		content:   provider,
		db:        db,
	}
	ss.startBackground(s.metrics)
	ss.ext = extension.NewService(exec, provider, cp, sources, reindexOnClear{ss})
	if old := s.session.Swap(ss); old != nil {
		log.Println("initialize received twice, replacing session")
		old.close()
	}

	for _, root := range roots {
		ss.scan(root)
	}

	syncKind := protocol.TextDocumentSyncKindIncremental

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	if capabilities.Workspace == nil {
		capabilities.Workspace = &protocol.ServerCapabilitiesWorkspace{}
	}
	capabilities.Workspace.WorkspaceFolders = &protocol.WorkspaceFoldersServerCapabilities{
		Supported:           &protocol.True,
		ChangeNotifications: &protocol.BoolOrString{Value: true},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Println("Client initialized.")
	if ss := s.session.Load(); ss != nil {
		ss.ext.Connect(notifier(context.Notify))
	}
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	log.Println("Shutting down.")
	s.stop()
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// notifier delivers extension notifications through the connection.
type notifier glsp.NotifyFunc

func (n notifier) ShowMessage(params protocol.ShowMessageParams) {
	n("window/showMessage", params)
}

// scan indexes root in the background.
func (ss *session) scan(root string) {
	err := ss.background.Schedule(async.Task{
		Name: "scanRoot",
		Execute: func() error {
			start := time.Now()
			n := ss.sources.ScanRoot(ss.bgCtx, root)
			if err := ss.bgCtx.Err(); err != nil {
				log.Printf("Scan of %s stopped after %d files: %v", root, n, err)
				return err
			}
			log.Printf("Scanned %d source files under %s in %s", n, root, time.Since(start))
			return ss.db.SetMetadata(metadataLastScan, time.Now().UTC().Format(time.RFC3339))
		},
	})
	if err != nil {
		log.Printf("failed to schedule scan of %s: %v", root, err)
	}
}

// reindex refills the symbol index from the compiled snapshots in the
// background.
func (ss *session) reindex() {
	err := ss.background.Schedule(async.Task{
		Name: "reindex",
		Execute: func() error {
			n := ss.sources.Reindex()
			log.Printf("Re-indexed %d compiled files", n)
			return nil
		},
	})
	if err != nil {
		log.Printf("failed to schedule re-indexing: %v", err)
	}
}

// reindexOnClear is the database as seen by the extension service. Clearing
// it wipes the symbol index, so the files compiled so far are indexed again.
type reindexOnClear struct {
	ss *session
}

func (r reindexOnClear) Clear(full bool) error {
	if err := r.ss.db.Clear(full); err != nil {
		return err
	}
	if r.ss.cfg.IndexSymbols {
		r.ss.reindex()
	}
	return nil
}

// workspaceRoots collects the root folders announced by the client, most
// specific protocol field first.
func workspaceRoots(params *protocol.InitializeParams) []string {
	var roots []string
	add := func(raw string) {
		u, err := uri.Parse(raw)
		if err != nil {
			log.Printf("ignoring workspace root %q: %v", raw, err)
			return
		}
		path, err := uri.ToPath(u)
		if err != nil {
			log.Printf("ignoring workspace root %q: %v", raw, err)
			return
		}
		roots = append(roots, path)
	}

	for _, folder := range params.WorkspaceFolders {
		add(folder.URI)
	}
	if len(roots) == 0 && params.RootURI != nil {
		add(*params.RootURI)
	}
	if len(roots) == 0 && params.RootPath != nil && *params.RootPath != "" {
		roots = append(roots, *params.RootPath)
	}
	return roots
}
