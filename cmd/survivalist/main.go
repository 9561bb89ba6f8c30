package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/appengine-ltd/survivalist-processors/internal/parser"
	"github.com/appengine-ltd/survivalist-processors/internal/platform/logger"
	"github.com/appengine-ltd/survivalist-processors/internal/settings"
	"github.com/appengine-ltd/survivalist-processors/internal/sim"
)

// version, commit, date are injected at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		showVersion bool
		seed        int64
		httpAddr    string
		logLevel    string
		logFormat   string
	)

	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for the world")
	flag.StringVar(&httpAddr, "http", "", "serve the read API on this address, e.g. :8080")
	flag.StringVar(&logLevel, "log-level", "", "log level (defaults to LOG_LEVEL or info)")
	flag.StringVar(&logFormat, "log-format", "", "console or json (defaults to LOG_FORMAT or console)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [script]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("Survivalist processors %s (%s) %s\n", version, commit, date)
		return
	}

	opts := logger.FromEnv()
	if logLevel != "" {
		opts.Level = logLevel
	}
	if logFormat != "" {
		opts.Format = logFormat
	}
	logger.Init(opts)
	log := logger.Named("main")

	if err := run(seed, httpAddr, flag.Arg(0)); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run(seed int64, httpAddr, script string) error {
	set, err := settings.FromEnv()
	if err != nil {
		return err
	}
	simLog := logger.Named("sim")
	w, err := sim.New(sim.Options{Settings: set, Seed: seed, Logger: &simLog})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if httpAddr != "" {
		srv := &http.Server{
			Addr:              httpAddr,
			Handler:           w.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		httpLog := logger.Named("http")
		go func() {
			httpLog.Info().Str("addr", httpAddr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpLog.Error().Err(err).Msg("server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	in := io.Reader(os.Stdin)
	interactive := script == ""
	if !interactive {
		f, err := os.Open(script)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	failed := repl(ctx, w, in, os.Stdout, interactive)
	if failed > 0 && !interactive {
		return fmt.Errorf("%d command(s) failed in %s", failed, script)
	}
	if httpAddr != "" && !interactive {
		// Keep serving after a script until interrupted.
		<-ctx.Done()
	}
	return nil
}

// repl reads commands from in until quit or EOF and returns how many failed.
func repl(ctx context.Context, w *sim.World, in io.Reader, out io.Writer, interactive bool) int {
	p := parser.New()
	sc := bufio.NewScanner(in)
	failed := 0
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !sc.Scan() || ctx.Err() != nil {
			return failed
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !interactive {
			fmt.Fprintf(out, "> %s\n", line)
		}
		intent := p.Parse(w.ParseContext(), line)
		msg, err := w.Execute(ctx, intent)
		if err != nil {
			failed++
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if msg != "" {
			fmt.Fprintln(out, msg)
		}
		if intent.Clarify == nil && intent.Verb == "quit" {
			return failed
		}
	}
}
