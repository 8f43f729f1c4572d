// Package httpserver is a TCP listener accepted sequentially on one
// goroutine, with each connection handed to a pool.Pool as a single Job.
// The protocol it speaks is intentionally not real HTTP — it's a fixed
// byte-prefix check, kept exactly as-is rather than generalized into a
// router.
package httpserver

import (
	"bytes"
	"fmt"
	"net"
	"os"

	"github.com/openpoolhq/dispatchpool/pool"
)

// getRequestLine is the exact 16-byte prefix that selects the 200 path;
// anything else gets 404.
const getRequestLine = "GET / HTTP/1.1\r\n"

// Logger is the minimal logging surface Server needs.
type Logger interface {
	Errorf(format string, args ...any)
}

// Server accepts TCP connections and submits one job per connection to a
// fixed-size pool.Pool.
type Server struct {
	listener     net.Listener
	pool         *pool.Pool
	indexPath    string
	notFoundPath string
	logger       Logger
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithIndexFile overrides the file served for a matching GET /.
func WithIndexFile(path string) Option {
	return func(s *Server) { s.indexPath = path }
}

// WithNotFoundFile overrides the file served for anything else.
func WithNotFoundFile(path string) Option {
	return func(s *Server) { s.notFoundPath = path }
}

// WithLogger attaches a Logger used to report I/O errors while serving a
// connection. These never reach the client — the user-visible surface
// is limited to the two status lines.
func WithLogger(l Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New wraps an already-bound listener and a pool. The pool's lifecycle is
// the caller's responsibility; Server never closes it.
func New(listener net.Listener, p *pool.Pool, opts ...Option) *Server {
	s := &Server{
		listener:     listener,
		pool:         p,
		indexPath:    "index.html",
		notFoundPath: "404.html",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve accepts connections sequentially until Accept returns an error
// (typically because the listener was closed), submitting exactly one job
// per connection to the pool. It always returns a non-nil error.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		s.pool.Submit(func() {
			s.handle(conn)
		})
	}
}

// handle implements the fixed protocol: read up to 1024 bytes, pick a
// status line and file by byte-prefix match, write the response, close
// the connection.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return
	}

	var statusLine, path string
	if bytes.HasPrefix(buf[:n], []byte(getRequestLine)) {
		statusLine, path = "HTTP/1.1 200 OK\r\n\r\n", s.indexPath
	} else {
		statusLine, path = "HTTP/1.1 404 NOT FOUND\r\n\r\n", s.notFoundPath
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		s.logf("httpserver: reading %s: %v", path, err)
	}

	response := append([]byte(statusLine), contents...)
	if _, err := conn.Write(response); err != nil {
		s.logf("httpserver: writing response: %v", err)
		return
	}

	s.pool.Log(fmt.Sprintf("served %s to %s", path, conn.RemoteAddr()))
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Errorf(format, args...)
	}
}
