// Package server wires a RuntimeConfig to a listening socket and serves
// uploads until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"net/netip"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourname/ufs/internal/app/uploadhttp"
	"github.com/yourname/ufs/internal/config"
	"github.com/yourname/ufs/internal/fsroot"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second

	defaultStagingTTL = 24 * time.Hour
	defaultGCInterval = 30 * time.Minute
)

var (
	ErrBadIP          = errors.New("not an IP literal")
	ErrNotListening   = errors.New("server is not listening")
	ErrAlreadyStarted = errors.New("server is already listening")
)

// BindError reports a failure to bind the configured address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Bootstrap owns the listener and the HTTP server for one process run.
type Bootstrap struct {
	cfg     config.RuntimeConfig
	log     *logrus.Logger
	workers int

	// Sweep settings for abandoned staging files.
	StagingTTL time.Duration
	GCInterval time.Duration

	root fsroot.Root
	ln   net.Listener
}

// New sizes the runtime to the detected core count.
func New(cfg config.RuntimeConfig, log *logrus.Logger) *Bootstrap {
	workers := runtime.NumCPU()
	runtime.GOMAXPROCS(workers)
	log.WithField("workers", workers).Info("worker threads")

	return &Bootstrap{
		cfg:        cfg,
		log:        log,
		workers:    workers,
		StagingTTL: defaultStagingTTL,
		GCInterval: defaultGCInterval,
	}
}

// Workers returns the scheduler thread count chosen by New.
func (b *Bootstrap) Workers() int { return b.workers }

// Listen validates fs_root (once) and binds the TCP listener.
func (b *Bootstrap) Listen() (net.Addr, error) {
	if b.ln != nil {
		return nil, ErrAlreadyStarted
	}

	root, err := fsroot.Validate(b.cfg.FSRoot)
	if err != nil {
		return nil, err
	}

	addr := b.cfg.Addr()
	// zoned IPv6 literals (fe80::1%eth0) are valid listen addresses
	if _, err := netip.ParseAddr(b.cfg.Server.IP); err != nil {
		return nil, &BindError{Addr: addr, Err: fmt.Errorf("%w: %q", ErrBadIP, b.cfg.Server.IP)}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}

	b.root, b.ln = root, ln
	b.log.WithFields(logrus.Fields{
		"addr":    ln.Addr().String(),
		"host":    b.cfg.Server.Host,
		"fs_root": root.String(),
	}).Info("listening")

	return ln.Addr(), nil
}

// Serve обслуживает соединения до отмены ctx, затем корректно останавливает сервер.
func (b *Bootstrap) Serve(ctx context.Context) error {
	if b.ln == nil {
		return ErrNotListening
	}

	errLog := b.log.WriterLevel(logrus.WarnLevel)
	defer errLog.Close()

	srv := &http.Server{
		Handler:           uploadhttp.New(b.root, b.log),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          stdlog.New(errLog, "", 0),
		ConnContext: func(ctx context.Context, c net.Conn) context.Context {
			id := uuid.NewString()
			b.log.WithFields(logrus.Fields{
				"conn_id": id,
				"remote":  c.RemoteAddr().String(),
			}).Debug("connection accepted")
			return uploadhttp.WithConnID(ctx, id)
		},
	}

	if n, err := uploadhttp.SweepStaging(b.root.String(), b.StagingTTL); err != nil {
		b.log.WithError(err).Warn("staging sweep failed")
	} else if n > 0 {
		b.log.WithField("removed", n).Info("staging sweep")
	}
	stopGC := uploadhttp.StartGC(b.root.String(), b.StagingTTL, b.GCInterval, b.log)
	defer stopGC()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.Serve(b.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		b.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return eg.Wait()
}

// Run is New, Listen and Serve in one call.
func Run(ctx context.Context, cfg config.RuntimeConfig, log *logrus.Logger) error {
	b := New(cfg, log)
	if _, err := b.Listen(); err != nil {
		return err
	}
	return b.Serve(ctx)
}
