package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diesel.com/diesel/app"
	F "diesel.com/diesel/fluid"
	"github.com/spf13/cobra"
)

//signalContext is cancelled on interrupt or terminate
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

//sinkFunc opens a renderer for the solver it will draw
type sinkFunc func(s *F.Solver) (app.Sink, error)

//drive builds the solver, runs the scene loop against the opened sink and
//closes both afterwards
func (o *options) drive(ctx context.Context, open sinkFunc, opts app.LoopOptions) error {
	s, err := o.solver()
	if err != nil {
		return err
	}
	defer s.Close()

	sink, err := open(s)
	if err != nil {
		return err
	}
	err = app.Loop(ctx, s, opts, sink)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	return err
}

func newRunCmd(o *options) *cobra.Command {
	var frames, every int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run headless and log solver statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			opts := o.cfg.Options()
			opts.FrameRate = 0
			if cmd.Flags().Changed("frames") || opts.MaxFrames == 0 {
				opts.MaxFrames = frames
			}
			stats := &app.StatsSink{Every: every}
			err := o.drive(ctx, func(*F.Solver) (app.Sink, error) {
				return stats, nil
			}, opts)
			if err != nil {
				return err
			}
			last, n := stats.Last()
			fmt.Fprintf(cmd.OutOrStdout(), "ticks %d particles %d sim time %.4fs\n", last.Stats.Ticks, n, last.Stats.Time)
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 1000, "frames to run, 0 until interrupted")
	cmd.Flags().IntVar(&every, "every", 100, "log statistics every n frames")
	return cmd
}

func newViewCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the simulation in an OpenGL window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			return o.drive(ctx, func(s *F.Solver) (app.Sink, error) {
				return app.NewGLSink(o.cfg.Window, viewOf(s), s.Inlet())
			}, o.cfg.Options())
		},
	}
}

func newTermCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "term",
		Short: "Show the simulation as ASCII density in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			//log lines would tear the screen
			F.SetLogger(nil)

			return o.drive(ctx, func(s *F.Solver) (app.Sink, error) {
				return app.NewTermSink(o.cfg.Terminal, viewOf(s), s.Inlet())
			}, o.cfg.Options())
		},
	}
}

func newServeCmd(o *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream snapshots to browsers over a websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if cmd.Flags().Changed("addr") {
				o.cfg.Stream.Address = addr
			}
			hub := app.NewStreamHub()
			defer hub.Close()
			srv := &http.Server{
				Addr:              o.cfg.Stream.Address,
				Handler:           hub.Handler(o.cfg.Stream.Path),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				F.Logger().Info("serving", "addr", srv.Addr, "stream", o.cfg.Stream.Path)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
					cancel()
				}
				close(serveErr)
			}()

			loopErr := o.drive(ctx, func(*F.Solver) (app.Sink, error) {
				return hub, nil
			}, o.cfg.Options())

			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				F.Logger().Warn("server shutdown", "err", err)
			}
			if err := <-serveErr; err != nil {
				return err
			}
			return loopErr
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides stream.address")
	return cmd
}

func newConfigCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.WriteConfig(cmd.OutOrStdout(), o.cfg)
		},
	}
}
