package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"imagestudio/internal/client"
	"imagestudio/internal/config"
	"imagestudio/internal/entity"
	"imagestudio/internal/model"
	"imagestudio/internal/panel"
	"imagestudio/internal/storage"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

const usage = `usage: imagestudio <command> [flags]

commands:
  generate -prompt TEXT [-negative TEXT] [-width N] [-height N]
  history  [-page N]
  show     <id>
  download <id>
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return flag.ErrHelp
	}

	cfg, err := config.ParseConfig()
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	logrus.SetFormatter(&logrus.TextFormatter{})
	logrus.SetLevel(cfg.ParseLogLevel())

	store, err := model.InitHistoryStore(&cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	app := &app{cfg: cfg, store: store, out: out}
	command, rest := args[0], args[1:]
	switch command {
	case "generate":
		return app.generate(ctx, rest)
	case "history":
		return app.history(ctx, rest)
	case "show":
		return app.show(ctx, rest)
	case "download":
		return app.download(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

type app struct {
	cfg   config.Config
	store model.HistoryStore
	out   io.Writer
}

func (a *app) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	prompt := fs.String("prompt", "", "text describing the image")
	negative := fs.String("negative", "", "things to avoid")
	width := fs.Int("width", entity.DefaultImageDimension, "image width (256-1024)")
	height := fs.Int("height", entity.DefaultImageDimension, "image height (256-1024)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *prompt == "" && fs.NArg() > 0 {
		*prompt = strings.Join(fs.Args(), " ")
	}

	generator := panel.NewGenerator(client.New(a.cfg.ServerURL, nil), a.store, panel.NewColorNotifier(os.Stderr))
	fmt.Fprintln(a.out, "generating…")
	if err := generator.Submit(ctx, entity.GenerationRequest{
		Prompt:         *prompt,
		NegativePrompt: *negative,
		Width:          *width,
		Height:         *height,
	}); err != nil {
		return err
	}

	snapshot := generator.Snapshot()
	fmt.Fprintln(a.out, snapshot.ImageURL)
	if snapshot.DownloadURL != "" {
		fmt.Fprintln(a.out, "download:", snapshot.DownloadURL)
	}
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gallery := panel.NewGallery(a.store)
	if err := gallery.Refresh(ctx); err != nil {
		return err
	}
	if gallery.Len() == 0 {
		fmt.Fprintln(a.out, "no images yet")
		return nil
	}

	gallery.Goto(*page)
	header := color.New(color.Bold)
	header.Fprintf(a.out, "page %d / %d (%d images)\n", gallery.CurrentPage(), gallery.TotalPages(), gallery.Len())
	for i := range gallery.Page() {
		detail, err := gallery.SelectIndex(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d. %s  %s  %s\n", i+1, detail.Record.ID, detail.FormattedTimestamp, snippet(detail.Record.Prompt, 60))
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	detail, _, err := a.selectRecord(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "id:        %s\nprompt:    %s\ncreated:   %s\nimage:     %s\n",
		detail.Record.ID, detail.Record.Prompt, detail.FormattedTimestamp, detail.Record.ImageURL)
	return nil
}

func (a *app) download(ctx context.Context, args []string) error {
	exporter, err := storage.NewStorage(a.cfg)
	if err != nil {
		return fmt.Errorf("open export destination: %w", err)
	}
	detail, gallery, err := a.selectRecord(ctx, args, panel.WithExporter(exporter, a.cfg.ExportPublicURL))
	if err != nil {
		return err
	}
	location, err := gallery.Download(ctx, detail.Record)
	if err != nil {
		return err
	}
	panel.NewColorNotifier(os.Stderr).Success("saved " + location)
	fmt.Fprintln(a.out, location)
	return nil
}

func (a *app) selectRecord(ctx context.Context, args []string, opts ...panel.GalleryOption) (*panel.Detail, *panel.Gallery, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return nil, nil, errors.New("expected exactly one record id")
	}
	gallery := panel.NewGallery(a.store, opts...)
	if err := gallery.Refresh(ctx); err != nil {
		return nil, nil, err
	}
	detail, err := gallery.Select(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", args[0], err)
	}
	return detail, gallery, nil
}

func snippet(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "…"
}
