package stream

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/olivierh59500/sandworm-go/internal/sim"
)

//go:embed index.html
var indexHTML []byte

// Time to wait for in-flight requests when shutting down.
const shutdownGrace = 2 * time.Second

// Server ticks a simulation at a fixed interval and streams every frame to
// the connected viewers. Only the tick goroutine touches the simulation.
type Server struct {
	sim      *sim.Simulation
	hub      *Hub
	interval time.Duration
	logger   *log.Logger
}

// NewServer returns a server that advances s once per interval.
func NewServer(s *sim.Simulation, interval time.Duration, logger *log.Logger) (*Server, error) {
	if s == nil {
		return nil, errors.New("stream: nil simulation")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("stream: interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		sim:      s,
		hub:      NewHub(logger),
		interval: interval,
		logger:   logger,
	}, nil
}

// Hub returns the server's fan-out hub.
func (server *Server) Hub() *Hub {
	return server.hub
}

// Handler serves the viewer page on / and the frame websocket on /ws.
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", server.serveIndex)
	mux.Handle("/ws", server.hub)
	return mux
}

func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

// ListenAndServe listens on addr and blocks in Serve.
func (server *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return server.Serve(ctx, ln)
}

// Serve accepts viewers on ln and runs the simulation until ctx is done.
// It returns nil on a clean shutdown.
func (server *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		server.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		server.run(groupCtx)
		return nil
	})

	server.logger.Printf("stream: serving %dx%d grid on http://%s", server.sim.Grid().Side(), server.sim.Grid().Side(), ln.Addr())
	return group.Wait()
}

// run is the tick pipeline: ticker -> simulation -> encoder -> hub.
func (server *Server) run(ctx context.Context) {
	done := ctx.Done()
	snapshots := make(chan Snapshot)
	frames := channerics.Convert(done, snapshots, Snapshot.Encode)

	go func() {
		defer close(snapshots)
		ticker := channerics.NewTicker(done, server.interval)
		for {
			select {
			case <-done:
				return
			case <-ticker:
			}
			snap := server.tick()
			select {
			case snapshots <- snap:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			server.hub.Publish(frame)
		}
	}
}

func (server *Server) tick() Snapshot {
	server.sim.Tick()
	stats := server.sim.LastStats()
	if stats.Particles > 0 && stats.Moved == 0 && server.sim.Ticks()%600 == 0 {
		server.logger.Printf("stream: tick %d: %d particles at rest", server.sim.Ticks(), stats.Particles)
	}
	return Snapshot{
		Tick:   server.sim.Ticks(),
		Side:   server.sim.Grid().Side(),
		Pixels: server.sim.Pixels(nil),
	}
}
