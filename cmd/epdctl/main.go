// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epdctl drives a 248x128 e-paper panel wired to plain GPIO lines.
//
// It renders one of a few scenes and refreshes the panel on a cron schedule
// until interrupted. With -preview the panel is replaced by the terminal and
// with -serve every frame is mirrored to browsers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/epaper/cmd/epdctl/internal/config"
	"github.com/GermanBionicSystems/epaper/glyph"
	"github.com/GermanBionicSystems/epaper/ssd1680/pagebuf"
	"github.com/GermanBionicSystems/epaper/termview"
	"github.com/GermanBionicSystems/epaper/webview"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
)

type flags struct {
	configPath string
	scene      string
	text       string
	image      string
	cjk        string
	cjkFont    string
	logLevel   string
	preview    bool
	once       bool
	serve      string
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.configPath, "config", "", "Path to the YAML config file; built-in defaults when empty")
	flag.StringVar(&f.scene, "scene", "counter", "Scene to show: counter, text or image")
	flag.StringVar(&f.text, "text", "LZ1104", "Title of the counter and text scenes, caption of the image scene")
	flag.StringVar(&f.image, "image", "", "Picture shown by the image scene")
	flag.StringVar(&f.cjk, "cjk", "", "Double-byte text shown by the text scene")
	flag.StringVar(&f.cjkFont, "cjk-font", "", "TrueType font for -cjk (overrides the config)")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level (overrides the config)")
	flag.BoolVar(&f.preview, "preview", false, "Render to the terminal instead of the panel")
	flag.BoolVar(&f.once, "once", false, "Draw a single frame and exit")
	flag.StringVar(&f.serve, "serve", "", "Also stream every frame over HTTP on this address, e.g. :8080")

	flag.Parse()
	return f
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	f := parseFlags()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config_path", f.configPath).Msg("failed to load config")
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.cjkFont != "" {
		cfg.CJKFont = f.cjkFont
	}
	level, err := cfg.Level()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("scene", f.scene).
		Str("refresh", cfg.Refresh).
		Bool("preview", f.preview).
		Bool("once", f.once).
		Msg("epdctl starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &f, cfg); err != nil {
		log.Error().Err(err).Msg("epdctl failed")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("epdctl exiting")
}

func run(ctx context.Context, f *flags, cfg *config.Config) error {
	sc, err := newScene(f, time.Now)
	if err != nil {
		return err
	}
	table, err := loadTable(cfg.CJKFont, f.cjk)
	if err != nil {
		return err
	}
	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}

	var t target
	if f.preview {
		t = newPreview(&termview.Opts{})
	} else {
		p, err := openPanel(cfg)
		if err != nil {
			return err
		}
		t = p
	}
	defer func() {
		if err := t.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to blank the display")
		}
	}()

	r, err := glyph.New(t, &glyph.Opts{Table: table})
	if err != nil {
		return err
	}
	if err := sc.Setup(t, r); err != nil {
		return err
	}

	p := &player{t: t, r: r, sc: sc}
	if f.serve != "" {
		view, stopServer, err := serve(f.serve)
		if err != nil {
			return err
		}
		defer stopServer()
		p.mirrors = append(p.mirrors, view)
	}
	if err := p.frame(); err != nil {
		return err
	}
	if f.once {
		return nil
	}

	errc := make(chan error, 1)
	logger := cronLogger{l: log.Logger}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		if err := p.frame(); err != nil {
			select {
			case errc <- err:
			default:
			}
		}
	}))
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

// player draws successive frames of a scene.
type player struct {
	t  target
	r  *glyph.Renderer
	sc scene
	n  int

	// mirrors receive a copy of every flushed frame.
	mirrors []display.Drawer
}

func (p *player) frame() error {
	start := time.Now()
	if err := p.sc.Tick(p.t, p.r, p.n); err != nil {
		return err
	}
	if err := p.t.Flush(); err != nil {
		return fmt.Errorf("frame %d: %w", p.n, err)
	}
	var err error
	p.t.Render(func(b *pagebuf.Buffer) {
		for _, m := range p.mirrors {
			if e := m.Draw(b.Bounds(), b, image.Point{}); e != nil && err == nil {
				err = e
			}
		}
	})
	if err != nil {
		return fmt.Errorf("frame %d: mirror: %w", p.n, err)
	}
	log.Debug().Int("frame", p.n).Dur("took", time.Since(start)).Msg("refreshed")
	p.n++
	return nil
}

// serve starts an HTTP server streaming frames on addr. The returned func
// ends every stream and shuts the server down.
func serve(addr string) (*webview.Dev, func(), error) {
	logger := log.With().Str("component", "webview").Logger()
	view, err := webview.New(&webview.Opts{
		Width:     pagebuf.Width,
		Height:    pagebuf.Height,
		Keepalive: 30 * time.Second,
		Logger:    &logger,
	})
	if err != nil {
		return nil, nil, err
	}
	srv := &http.Server{Addr: addr, Handler: view, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("streaming frames")

	return view, func() {
		_ = view.Halt()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("server shutdown")
		}
	}, nil
}

func newScene(f *flags, now func() time.Time) (scene, error) {
	switch f.scene {
	case "counter":
		return &counterScene{title: f.text}, nil
	case "text":
		return &textScene{text: f.text, cjk: f.cjk, start: now(), now: now}, nil
	case "image":
		if f.image == "" {
			return nil, errors.New("-image is required by the image scene")
		}
		return newImageScene(f.image, f.text)
	default:
		return nil, fmt.Errorf("unknown scene %q", f.scene)
	}
}

// loadTable rasterises the characters of text from a TrueType font. Without
// a font, every character renders as the fallback glyph.
func loadTable(fontPath, text string) (*glyph.Table, error) {
	if fontPath == "" || text == "" {
		return nil, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, err
	}
	face, err := glyph.LoadTrueType(data, glyph.CellHeight)
	if err != nil {
		return nil, err
	}
	table, err := glyph.TableFromFace(face, text, glyph.DefaultFallback)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("font", fontPath).Int("glyphs", table.Len()).Msg("loaded double-byte glyphs")
	return table, nil
}

// cronLogger forwards cron's logs to zerolog.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
