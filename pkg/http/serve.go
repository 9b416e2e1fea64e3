package xhttp

import (
	"crypto/tls"
	"net"
	"os"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/valyala/fasthttp"
)

// env list (values in milliseconds or bytes):
// XHTTP_SERVER_READ_TIMEOUT
// XHTTP_SERVER_WRITE_TIMEOUT
// XHTTP_SERVER_REQUEST_TIMEOUT
// XHTTP_SERVER_READ_BUFFER_BYTE
// XHTTP_SERVER_WRITE_BUFFER_BYTE

var (
	defaultReadBufferSize  = envInt("XHTTP_SERVER_READ_BUFFER_BYTE", 1024*4, 1024)
	defaultWriteBufferSize = envInt("XHTTP_SERVER_WRITE_BUFFER_BYTE", 1024*4, 1024)
	defaultReadTimeout     = envMillis("XHTTP_SERVER_READ_TIMEOUT", time.Millisecond*2500)
	defaultWriteTimeout    = envMillis("XHTTP_SERVER_WRITE_TIMEOUT", time.Millisecond*2500)
	defaultRequestTimeout  = envMillis("XHTTP_SERVER_REQUEST_TIMEOUT", time.Millisecond*5000)
)

func envInt(name string, def, min int) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil || v <= min {
		return def
	}
	return v
}

func envMillis(name string, def time.Duration) time.Duration {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil || v <= 0 {
		return def
	}
	return time.Millisecond * time.Duration(v)
}

type RequestHeader = fasthttp.RequestHeader
type ResponseHeader = fasthttp.ResponseHeader
type Server = fasthttp.Server

type ServerOption struct {
	Name string

	// idle keep-alive connections are closed after this, otherwise a busy box
	// runs into too many open files
	IdleTimeout time.Duration

	MaxIdleWorkerDuration time.Duration
	TCPKeepalivePeriod    time.Duration

	// default is 4MB
	MaxRequestBodySize int

	// handlers are cut off with 408 after this
	RequestTimeout time.Duration

	// ReadBufferSize also caps the header size
	ReadBufferSize  int
	WriteBufferSize int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration

	Concurrency   int
	MaxConnsPerIP int

	ErrorHandler func(ctx *RequestCtx, err error)
	ConnState    func(net.Conn, fasthttp.ConnState)
	Logger       logger.Logger
	TLSConfig    *tls.Config
}

func DefaultServerOption() ServerOption {
	return ServerOption{
		IdleTimeout:           time.Second * 10,
		MaxIdleWorkerDuration: time.Minute,
		TCPKeepalivePeriod:    time.Minute * 120, // linux default
		MaxRequestBodySize:    4 * 1024 * 1024,
		RequestTimeout:        defaultRequestTimeout,
		ReadBufferSize:        defaultReadBufferSize,
		WriteBufferSize:       defaultWriteBufferSize,
		ReadTimeout:           defaultReadTimeout,
		WriteTimeout:          defaultWriteTimeout,
		Concurrency:           30_000,
		MaxConnsPerIP:         10_000,
		ErrorHandler: func(ctx *RequestCtx, err error) {
			logger.Warn("[xhttp] request error", "error", err)
		},
		Logger: logger.GetLogger(),
	}
}

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:                      NotFoundHandler,
		ErrorHandler:                 options.ErrorHandler,
		Name:                         options.Name,
		Concurrency:                  options.Concurrency,
		ReadBufferSize:               options.ReadBufferSize,
		WriteBufferSize:              options.WriteBufferSize,
		ReadTimeout:                  options.ReadTimeout,
		WriteTimeout:                 options.WriteTimeout,
		IdleTimeout:                  options.IdleTimeout,
		MaxConnsPerIP:                options.MaxConnsPerIP,
		MaxIdleWorkerDuration:        options.MaxIdleWorkerDuration,
		TCPKeepalivePeriod:           options.TCPKeepalivePeriod,
		MaxRequestBodySize:           options.MaxRequestBodySize,
		TCPKeepalive:                 true,
		DisablePreParseMultipartForm: true,
		LogAllErrors:                 true,
		NoDefaultServerHeader:        true,
		NoDefaultDate:                true,
		NoDefaultContentType:         true,
		CloseOnShutdown:              true,
		ConnState:                    options.ConnState,
		Logger:                       options.Logger,
		TLSConfig:                    options.TLSConfig,
	}
}

func NewServer(options ServerOption) *Engine {
	if options.Logger == nil {
		options.Logger = logger.GetLogger()
	}
	return &Engine{
		Server: newServer(options),
		Router: CreateDefaultRouter(),
		option: options,
	}
}

func CreateServer() *Engine {
	return NewServer(DefaultServerOption())
}

// RequestTimeout is the per-request budget configured for this engine.
func (e *Engine) RequestTimeout() time.Duration {
	return e.option.RequestTimeout
}

func (e *Engine) ListenAndServe(addr string) error {
	e.DoRouting()
	e.Server.Logger.Printf("[xhttp] server is listening on %s", addr)
	return e.Server.ListenAndServe(addr)
}

// Serve runs the engine on an existing listener.
func (e *Engine) Serve(ln net.Listener) error {
	e.DoRouting()
	return e.Server.Serve(ln)
}

// DoRouting installs the router as the server handler wrapped by the registered
// middleware, the first registered being the outermost.
func (e *Engine) DoRouting() {
	for method, route := range e.Router.List() {
		for _, r := range route {
			e.Server.Logger.Printf("[xhttp] method: %s, path: %s", method, r)
		}
	}
	e.Server.Handler = e.BuildHandler()
}

// BuildHandler returns the router wrapped in the middleware chain.
func (e *Engine) BuildHandler() RequestHandler {
	h := e.Router.Handler
	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for i, m := range middle {
		h = m(h)
		e.Server.Logger.Printf("[xhttp] middleware %d registered - %s", i+1, runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	return h
}

// Use adds middleware to the end of the chain which is run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	e.Server.Logger.Printf("[xhttp] server is shutting down, process id: %d", os.Getpid())
	if err := e.Server.Shutdown(); err != nil {
		e.Server.Logger.Printf("[xhttp] error while shutting down: %v", err)
	}
}
