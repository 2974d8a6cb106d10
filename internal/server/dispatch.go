package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"kotlinls/internal/async"
	"kotlinls/internal/compiler"
	"kotlinls/internal/extension"
	"kotlinls/internal/uri"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// codeServerNotInitialized is the LSP error for requests sent before
// initialize.
const codeServerNotInitialized = -32002

// pending waits for the result of a scheduled extension request.
type pending func(ctx context.Context) (any, error)

type extensionRoute func(svc *extension.Service, params json.RawMessage) (pending, error)

var extensionRoutes = map[string]extensionRoute{
	extension.MethodJarClassContents:      jarClassContents,
	extension.MethodJarClassContentsAlias: jarClassContents,
	extension.MethodBuildOutputLocation:   buildOutputLocation,
	extension.MethodMainClass:             mainClass,
	extension.MethodOverrideMember:        overrideMember,
	extension.MethodCleanWorkspaceDb:      cleanWorkspaceDb,
}

func await[T any](f *async.Future[T]) pending {
	return func(ctx context.Context) (any, error) {
		return f.Wait(ctx)
	}
}

func jarClassContents(svc *extension.Service, params json.RawMessage) (pending, error) {
	var doc protocol.TextDocumentIdentifier
	if err := json.Unmarshal(params, &doc); err != nil {
		return nil, err
	}
	return await(svc.JarClassContents(doc)), nil
}

func buildOutputLocation(svc *extension.Service, _ json.RawMessage) (pending, error) {
	return await(svc.BuildOutputLocation()), nil
}

func mainClass(svc *extension.Service, params json.RawMessage) (pending, error) {
	var doc protocol.TextDocumentIdentifier
	if err := json.Unmarshal(params, &doc); err != nil {
		return nil, err
	}
	return await(svc.MainClass(doc)), nil
}

func overrideMember(svc *extension.Service, params json.RawMessage) (pending, error) {
	var position protocol.TextDocumentPositionParams
	if err := json.Unmarshal(params, &position); err != nil {
		return nil, err
	}
	return await(svc.OverrideMember(position)), nil
}

func cleanWorkspaceDb(svc *extension.Service, _ json.RawMessage) (pending, error) {
	return await(svc.CleanWorkspaceDb()), nil
}

// Handle implements jsonrpc2.Handler.
func (s *Server) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := json.RawMessage("null")
	if req.Params != nil {
		params = *req.Params
	}

	if route, ok := extensionRoutes[req.Method]; ok {
		s.handleExtension(ctx, conn, req, route, params)
		return
	}
	s.handleStandard(ctx, conn, req, params)
}

func (s *Server) handleExtension(
	ctx context.Context,
	conn *jsonrpc2.Conn,
	req *jsonrpc2.Request,
	route extensionRoute,
	params json.RawMessage,
) {
	ss := s.session.Load()
	if ss == nil {
		replyError(ctx, conn, req, &jsonrpc2.Error{
			Code:    codeServerNotInitialized,
			Message: "server not initialized",
		})
		return
	}

	wait, err := route(ss.ext, params)
	if err != nil {
		replyError(ctx, conn, req, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: err.Error(),
		})
		return
	}

	// The read loop moves on; the reply is sent whenever the task completes.
	go func() {
		result, err := wait(context.Background())
		if err != nil {
			log.Printf("%s failed: %v", req.Method, err)
			replyError(ctx, conn, req, toRPCError(err))
			return
		}
		reply(ctx, conn, req, result)
	}()
}

func (s *Server) handleStandard(
	ctx context.Context,
	conn *jsonrpc2.Conn,
	req *jsonrpc2.Request,
	params json.RawMessage,
) {
	if req.Method == "exit" {
		if err := conn.Close(); err != nil {
			log.Printf("failed to close connection: %v", err)
		}
		return
	}

	glspContext := &glsp.Context{
		Method: req.Method,
		Params: params,
		Notify: func(method string, params any) {
			if err := conn.Notify(ctx, method, params); err != nil {
				log.Printf("failed to send %s: %v", method, err)
			}
		},
		Call: func(method string, params any, result any) {
			if err := conn.Call(ctx, method, params, result); err != nil {
				log.Printf("failed to call %s: %v", method, err)
			}
		},
	}

	result, validMethod, validParams, err := s.handler.Handle(glspContext)
	switch {
	case !validMethod:
		replyError(ctx, conn, req, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "method not supported: " + req.Method,
		})
	case !validParams:
		msg := "invalid params"
		if err != nil {
			msg = err.Error()
		}
		replyError(ctx, conn, req, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: msg})
	case err != nil:
		log.Printf("%s failed: %v", req.Method, err)
		replyError(ctx, conn, req, toRPCError(err))
	default:
		reply(ctx, conn, req, result)
	}
}

// toRPCError maps request failures onto JSON-RPC error codes. Malformed
// input from the client is reported as invalid params.
func toRPCError(err error) *jsonrpc2.Error {
	code := int64(jsonrpc2.CodeInternalError)
	if errors.Is(err, uri.ErrInvalidURI) || errors.Is(err, compiler.ErrPositionOutOfRange) {
		code = jsonrpc2.CodeInvalidParams
	}
	return &jsonrpc2.Error{Code: code, Message: err.Error()}
}

func reply(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, result any) {
	if req.Notif {
		return
	}
	if err := conn.Reply(ctx, req.ID, result); err != nil {
		log.Printf("failed to reply to %s: %v", req.Method, err)
	}
}

func replyError(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, rpcErr *jsonrpc2.Error) {
	if req.Notif {
		if rpcErr.Code != jsonrpc2.CodeMethodNotFound {
			log.Printf("notification %s failed: %s", req.Method, rpcErr.Message)
		}
		return
	}
	if err := conn.ReplyWithError(ctx, req.ID, rpcErr); err != nil {
		log.Printf("failed to reply to %s: %v", req.Method, err)
	}
}
