// Package server exposes the executor over JSON-RPC on a loopback HTTP
// listener.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/cors"

	"github.com/solsim/solsim/executor"
	"github.com/solsim/solsim/log"
)

// DefaultBindAddress keeps the service loopback-only; there is no
// authentication layer.
const DefaultBindAddress = "127.0.0.1:3030"

// Namespace is the JSON-RPC namespace all methods are registered under.
const Namespace = "sandbox"

type Server struct {
	rpcServer  *rpc.Server
	httpServer *http.Server
	logger     *log.Logger
}

// NewRPCServer registers the executor service on a bare JSON-RPC server.
// Tests dial this in-process.
func NewRPCServer(exec *executor.Executor) (*rpc.Server, error) {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(Namespace, NewService(exec)); err != nil {
		return nil, err
	}
	return rpcServer, nil
}

func New(exec *executor.Executor) (*Server, error) {
	rpcServer, err := NewRPCServer(exec)
	if err != nil {
		return nil, err
	}
	return &Server{
		rpcServer: rpcServer,
		logger:    log.NewLogger("server"),
	}, nil
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start(bind string) error {
	if bind == "" {
		bind = DefaultBindAddress
	}

	s.httpServer = &http.Server{
		Addr:              bind,
		Handler:           cors.Default().Handler(s.rpcServer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info().Str("bind", bind).Msg("Serving executor API")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	s.rpcServer.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
