package main

import (
	"context"
	"errors"
	"time"

	"github.com/alnah/go-epaper/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 30 * time.Second

// runServe runs the HTTP admin server until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadSettings(&flags.common, env)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	sess, err := openSession(cfg, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := server.New(sess.gen, sess.store,
		server.WithLogger(sess.log.With().Str("component", "http").Logger()),
		server.WithLocation(loc),
		server.WithClock(env.Now),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Server.Addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sess.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
