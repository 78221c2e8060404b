package litepool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/jirevwe/litepool/accesslog"
	"github.com/jirevwe/litepool/pool"
	"github.com/oklog/ulid/v2"
)

const sleepPath = "/sleep"

// Server accepts connections and hands each one to the worker pool, which
// reads the request and writes the response.
type Server struct {
	cfg       *Config
	mux       *Mux
	logger    *slog.Logger
	accessLog accesslog.Store
	pool      *pool.WorkerPool

	poolOptions []pool.Option

	// connections answered so far
	served atomic.Int64
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithAccessLog(store accesslog.Store) ServerOption {
	return func(s *Server) {
		s.accessLog = store
	}
}

// WithPoolOptions passes extra options to the worker pool, after the logger.
func WithPoolOptions(opts ...pool.Option) ServerOption {
	return func(s *Server) {
		s.poolOptions = append(s.poolOptions, opts...)
	}
}

func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	if s.accessLog == nil {
		s.accessLog = accesslog.Nop{}
	}

	files := NewFileServer(cfg.StaticDir, cfg.NotFoundPage)
	s.mux = NewMux(files)
	s.mux.Handle(sleepPath, SleepHandler(cfg.SleepDelay, files))

	poolOptions := append([]pool.Option{pool.WithLogger(s.logger), pool.WithName("connections")}, s.poolOptions...)
	workerPool, err := pool.New(cfg.Workers, poolOptions...)
	if err != nil {
		return nil, err
	}
	s.pool = workerPool

	return s, nil
}

// Mux returns the server's router, so extra routes can be registered before
// serving.
func (s *Server) Mux() *Mux { return s.mux }

// Served returns the number of connections answered so far.
func (s *Server) Served() int64 { return s.served.Load() }

// Pending returns the number of accepted connections waiting for a worker.
func (s *Server) Pending() int { return s.pool.Pending() }

// ListenAndServe listens on the configured address and serves until ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done or l fails, submitting one
// task per connection to the pool. l is closed when Serve returns. Connections
// already accepted keep being served until Close.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.logger.Info(fmt.Sprintf("listening on %s", l.Addr()))

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = l.Close()
	}()

	backoff := NewRetry(5*time.Millisecond, time.Second)

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			var te interface{ Temporary() bool }
			if errors.As(err, &te) && te.Temporary() {
				s.logger.Error(err.Error(), "source", "accept")
				if waitErr := backoff.Wait(ctx); waitErr != nil {
					return nil
				}
				continue
			}

			return err
		}
		backoff.Reset()

		err = s.pool.Submit(pool.TaskFunc(func() {
			s.handleConnection(ctx, conn)
		}))
		if err != nil {
			_ = conn.Close()
			return err
		}
	}
}

// Close waits for every accepted connection to be answered and stops the
// workers.
func (s *Server) Close() error {
	s.pool.Shutdown()
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	start := time.Now()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}

	buffer := make([]byte, s.cfg.ReadBufferSize)
	n, err := conn.Read(buffer)
	if n == 0 {
		if err != nil {
			s.logger.Error(err.Error(), "source", "read", "remote", conn.RemoteAddr().String())
		}
		return
	}

	req := parseRequest(buffer[:n])
	req.Id = ulid.Make().String()
	req.RemoteAddr = conn.RemoteAddr().String()

	resp, err := s.mux.Serve(ctx, req)
	if err != nil {
		s.logger.Error(err.Error(), "source", "handler", "request_id", req.Id, "path", req.Path)
		resp = &Response{Status: StatusInternalServerError}
	}

	written, err := respond(conn, resp)
	if err != nil {
		s.logger.Error(err.Error(), "source", "respond", "request_id", req.Id)
	}
	s.served.Add(1)

	s.logger.Debug(fmt.Sprintf("%s %s %s", req.Method, req.Path, resp.Status), "request_id", req.Id)
	s.record(ctx, req, resp, written, time.Since(start))
}

func (s *Server) record(ctx context.Context, req *Request, resp *Response, written int64, elapsed time.Duration) {
	details, err := (&accesslog.Details{
		RequestLine: req.Line,
		Route:       s.route(req),
		File:        resp.File,
	}).Marshal()
	if err != nil {
		s.logger.Error(err.Error(), "source", "access log")
	}

	entry := &accesslog.Entry{
		Id:         req.Id,
		Method:     req.Method,
		Path:       req.Path,
		Status:     resp.Status,
		RemoteAddr: req.RemoteAddr,
		Bytes:      written,
		Elapsed:    elapsed,
		Details:    details,
	}

	// the request was answered, keep its record even if we are shutting down
	if err = s.accessLog.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error(err.Error(), "source", "access log", "request_id", req.Id)
	}
}

func (s *Server) route(req *Request) string {
	if s.mux.Routes(req) {
		return req.Path
	}
	return "static"
}
