package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nstehr/vimy/vimy-defense/agent"
	"github.com/nstehr/vimy/vimy-defense/config"
	"github.com/nstehr/vimy/vimy-defense/ipc"
	"github.com/nstehr/vimy/vimy-defense/observer"
	"github.com/nstehr/vimy/vimy-defense/store"
)

const banner = `
██╗   ██╗██╗███╗   ███╗██╗   ██╗
██║   ██║██║████╗ ████║╚██╗ ██╔╝
██║   ██║██║██╔████╔██║ ╚████╔╝
╚██╗ ██╔╝██║██║╚██╔╝██║  ╚██╔╝
 ╚████╔╝ ██║██║ ╚═╝ ██║   ██║
  ╚═══╝  ╚═╝╚═╝     ╚═╝   ╚═╝

Turret Defense & Maintenance Allocator`

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults built in)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	slog.Info("starting vimy-defense", "state", cfg.State.Driver, "advisory", cfg.Advisory.Condition)

	st, err := store.Open(cfg.State.Driver, cfg.State.Path)
	if err != nil {
		slog.Error("failed to open state store", "driver", cfg.State.Driver, "path", cfg.State.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var pub agent.Publisher
	if cfg.Observer.Addr != "" {
		hub := observer.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/observe", hub.Handler())
		srv := &http.Server{Addr: cfg.Observer.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("observer server stopped", "addr", cfg.Observer.Addr, "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		slog.Info("observer listening", "addr", cfg.Observer.Addr)
		pub = hub
	}

	socketPath := cfg.SocketPath

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(socketPath); err != nil {
		slog.Error("failed to clean up socket", "path", socketPath, "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		slog.Error("failed to listen on socket", "path", socketPath, "error", err)
		os.Exit(1)
	}
	defer os.Remove(socketPath)

	slog.Info("listening on domain socket", "path", socketPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := newServer(cfg, st, pub)
	srv.serve(ctx, listener)
	slog.Info("shut down", "sessions", srv.served)
}

// server accepts game connections and tracks them so shutdown can end every
// session and wait for its final save before the store is closed.
type server struct {
	cfg config.Config
	st  store.Store
	pub agent.Publisher

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	wg     sync.WaitGroup
	served int
}

func newServer(cfg config.Config, st store.Store, pub agent.Publisher) *server {
	return &server{cfg: cfg, st: st, pub: pub, conns: make(map[net.Conn]struct{})}
}

// serve blocks until ctx is cancelled, then closes the listener and every open
// connection and returns once all sessions have finished.
func (s *server) serve(ctx context.Context, l net.Listener) {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		slog.Info("new connection accepted")
		s.track(conn)
		s.wg.Add(1)
		go s.handleConn(conn)
	}

	slog.Info("shutting down", "open", s.closeAll())
	s.wg.Wait()
}

func (s *server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
	s.served++
}

func (s *server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *server) closeAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	return len(s.conns)
}

func (s *server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	c := ipc.NewConnection(conn, nil)
	a, err := agent.New(c, s.cfg, s.st, s.pub)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		_ = conn.Close()
		return
	}
	c.RegisterHandler(ipc.TypeHello, a.HandleHello)
	c.RegisterHandler(ipc.TypeGameState, a.HandleGameState)
	c.RegisterHandler(ipc.TypeActionResult, a.HandleActionResult)
	c.ReadLoop()
	a.Close()
}
