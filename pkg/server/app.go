package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "Karion/pkg/logger"
)

// Component is a long running part of the application.
type Component interface {
	Start() error
	Stop(ctx context.Context) error
}

type namedComponent struct {
	name string
	c    Component
}

type namedCloser struct {
	name string
	c    io.Closer
}

// App owns the application lifecycle. Components start in registration order and
// stop in reverse; closers run after every component has stopped.
type App struct {
	components []namedComponent
	closers    []namedCloser
	shutdown   time.Duration
	l          *applogger.Logger
}

func New(l *applogger.Logger, shutdown time.Duration) *App {
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}
	return &App{shutdown: shutdown, l: applogger.OrNop(l).Component("app")}
}

// Add registers a component. Nil components are ignored so optional parts can be passed as-is.
func (a *App) Add(name string, c Component) *App {
	if c != nil {
		a.components = append(a.components, namedComponent{name: name, c: c})
	}
	return a
}

// OnClose registers a resource released during shutdown.
func (a *App) OnClose(name string, c io.Closer) *App {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
	return a
}

// Run starts every component and blocks until ctx is done or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i, nc := range a.components {
		if err := nc.c.Start(); err != nil {
			a.l.Error("start failed", applogger.String("component", nc.name), applogger.Error(err))
			a.stop(a.components[:i])
			return fmt.Errorf("start %s: %w", nc.name, err)
		}
		a.l.Info("started", applogger.String("component", nc.name))
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.stop(a.components)
}

func (a *App) stop(started []namedComponent) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdown)
	defer cancel()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		nc := started[i]
		if err := nc.c.Stop(ctx); err != nil {
			a.l.Warn("stop failed", applogger.String("component", nc.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("stop %s: %w", nc.name, err))
		}
	}
	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.l.Warn("close failed", applogger.String("resource", nc.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", nc.name, err))
		}
	}
	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
