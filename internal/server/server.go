package server

import (
	"log/slog"
	"net/http"

	httpin_integ "github.com/ggicci/httpin/integration"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trungvx/schedq/internal/scheduler"
	"github.com/trungvx/schedq/internal/state"
)

// Resolver turns a registered handler name and a request input into an
// invocable task body. It reports false for unknown names.
type Resolver func(name string, input map[string]any) (state.Invocable, bool)

type Options struct {
	Addr   string
	Logger *slog.Logger
}

type runtime struct {
	logger  *slog.Logger
	sched   scheduler.Scheduler
	resolve Resolver
}

type Server struct {
	opts    *Options
	logger  *slog.Logger
	sm      chi.Router
	hs      *http.Server
	runtime *runtime
}

func NewServer(opts *Options, sched scheduler.Scheduler, resolve Resolver) *Server {
	o := defaultOpts(opts)

	s := &Server{
		logger: o.Logger,
		opts:   o,
		sm:     chi.NewRouter(),
		runtime: &runtime{
			logger:  o.Logger,
			sched:   sched,
			resolve: resolve,
		},
	}

	s.registerV1()

	hs := http.Server{
		Addr:    o.Addr,
		Handler: s.sm,
	}
	s.hs = &hs

	return s
}

func defaultOpts(opts *Options) *Options {
	o := &Options{
		Addr:   ":8080",
		Logger: slog.Default(),
	}

	if opts == nil {
		return o
	}

	if len(opts.Addr) > 0 {
		o.Addr = opts.Addr
	}

	if opts.Logger != nil {
		o.Logger = opts.Logger
	}

	return o
}

func init() {
	httpin_integ.UseGochiURLParam("path", chi.URLParam)
}

func (s *Server) registerV1() {
	submitTask(s.sm, s.runtime)
	getTask(s.sm, s.runtime)
	cancelTask(s.sm, s.runtime)
	listTasks(s.sm, s.runtime)
	awaitResult(s.sm, s.runtime)
	getStats(s.sm, s.runtime)

	s.sm.Handle("/metrics", promhttp.Handler())
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.sm
}

func (s *Server) Run() error {
	go func() {
		s.logger.
			With("addr", s.opts.Addr).
			Info("server is running")

		err := s.hs.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.logger.
				With("err", err).
				Error("failed to run server")
			return
		}
	}()

	return nil
}

func (s *Server) Close() error {
	s.logger.Info("server is closing")
	return s.hs.Close()
}
