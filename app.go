package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metcalfc/cardr/internal/card"
	"github.com/metcalfc/cardr/internal/config"
	"github.com/metcalfc/cardr/internal/deck"
	"github.com/metcalfc/cardr/internal/ingest"
	"github.com/metcalfc/cardr/internal/logging"
	"github.com/metcalfc/cardr/internal/session"
	"github.com/metcalfc/cardr/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options are the resolved settings for one run.
type options struct {
	config.Config
	fresh   bool
	watch   bool
	verbose bool
}

// app is everything a front end needs to page through one document.
type app struct {
	opts    options
	source  string // empty when reading stdin
	logger  *zap.Logger
	backend state.Backend
	session *session.Session
	deck    deck.Deck
}

func newRootCmd(name, short string, run func(cmd *cobra.Command, opts options, args []string) error) *cobra.Command {
	var (
		opts       options
		configPath string
	)
	cmd := &cobra.Command{
		Use:           name + " [file]",
		Short:         short,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: fmt.Sprintf(`  %[1]s book.epub               Page through an EPUB
  %[1]s -m 120 notes.md          Use shorter cards
  %[1]s --skip-front-matter a.pdf Start at Chapter 1
  cat file.txt | %[1]s            Read from stdin`, name),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("max") {
				cfg.MaxLength = opts.MaxLength
			}
			if flags.Changed("store") {
				cfg.Store = opts.Store
			}
			if flags.Changed("skip-front-matter") {
				cfg.SkipFrontMatter = opts.SkipFrontMatter
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.Config = cfg
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", config.Path(), "Config file")
	flags.IntVarP(&opts.MaxLength, "max", "m", config.Default().MaxLength, "Maximum card length in characters")
	flags.StringVar(&opts.Store, "store", "json", "State backend (json or sqlite)")
	flags.BoolVar(&opts.SkipFrontMatter, "skip-front-matter", false, "Start reading at Chapter 1")
	flags.BoolVar(&opts.fresh, "fresh", false, "Ignore saved reading position")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Reload when the file changes")
	flags.BoolVar(&opts.verbose, "verbose", false, "Debug logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "formats",
		Short: "List supported document formats",
		Run: func(cmd *cobra.Command, args []string) {
			for _, f := range ingest.SupportedFormats() {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Plain text (any other extension)")
		},
	})
	return cmd
}

// loadDeck extracts and segments a document.
func loadDeck(ctx context.Context, filename string, cfg config.Config) (deck.Deck, error) {
	doc, err := ingest.Extract(ctx, filename)
	if err != nil {
		return deck.Deck{}, err
	}
	if cfg.SkipFrontMatter {
		doc = ingest.SkipFrontMatter(doc)
	}
	d := deck.Build(doc, cfg.MaxLength)
	if d.Title == "" {
		d.Title = filepath.Base(filename)
	}
	return d, nil
}

func readStdin(stdin *os.File) (string, error) {
	if isTerminal(stdin) {
		return "", fmt.Errorf("no input provided. Provide a file or pipe text to stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	return string(data), nil
}

// openApp resolves the document and restores or loads the session. The
// renderer is attached before anything is loaded so the first full render
// reaches it. With allowEmpty set, a missing argument and an interactive
// stdin give an app with nothing loaded.
func openApp(ctx context.Context, opts options, args []string, renderer session.Renderer, allowEmpty bool) (*app, error) {
	logger, err := logging.New(filepath.Join(state.Dir(), "cardr.log"), opts.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{
		opts:    opts,
		logger:  logger,
		session: session.New(session.WithRenderer(renderer), session.WithLogger(logger)),
	}

	if len(args) == 0 {
		if allowEmpty && isTerminal(os.Stdin) {
			a.session.Reset()
			return a, nil
		}
		text, err := readStdin(os.Stdin)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("no text to read")
		}
		doc := ingest.FromText(text)
		if opts.SkipFrontMatter {
			doc = ingest.SkipFrontMatter(doc)
		}
		a.deck = deck.Build(doc, opts.MaxLength)
		a.session.Load(a.deck.Cards)
		return a, nil
	}

	d, err := loadDeck(ctx, args[0], opts.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", args[0], err)
	}
	a.open(args[0], d)
	return a, nil
}

// open makes d, read from source, the current document. The store is
// rebound to the new source and a saved position is resumed unless the
// run asked for a fresh start or the document no longer matches.
func (a *app) open(source string, d deck.Deck) {
	a.source = source
	a.deck = d
	a.logger.Info("document loaded",
		zap.String("file", source),
		zap.Int("cards", len(d.Cards)),
		zap.Int("chapters", len(d.TOC)))

	store := a.bindStore()
	a.session.SetStore(store)
	if !a.opts.fresh && a.storedMatches(store, d.Cards) && a.session.Restore() {
		a.logger.Info("resumed", zap.Int("position", a.session.Position()))
		return
	}
	a.session.Load(d.Cards)
}

// storedMatches reports whether store holds exactly cards, so a restore
// resumes the same deck and renders once.
func (a *app) storedMatches(store session.Store, cards card.Sequence) bool {
	if store == nil {
		return false
	}
	seq, _, err := store.Load()
	if err != nil {
		a.logger.Warn("failed to read stored session", zap.Error(err))
		return false
	}
	if seq == nil {
		return false
	}
	if !seq.Equal(cards) {
		a.logger.Info("stored session is stale", zap.Int("stored", len(seq)), zap.Int("cards", len(cards)))
		return false
	}
	return true
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	return err == nil && (stat.Mode()&os.ModeCharDevice) != 0
}

// bindStore opens the configured backend for the current source. State is
// optional: failures are logged and the session runs without persistence.
func (a *app) bindStore() session.Store {
	a.closeBackend()
	hash, err := state.ComputeHash(a.source)
	if err != nil {
		a.logger.Warn("cannot hash document, position will not be saved", zap.Error(err))
		return nil
	}
	backend, err := state.Open(a.opts.Store, state.Dir())
	if err != nil {
		a.logger.Warn("cannot open state store", zap.String("store", a.opts.Store), zap.Error(err))
		return nil
	}
	a.backend = backend
	return state.Bind(backend, state.Key(hash, a.opts.MaxLength, a.opts.SkipFrontMatter))
}

// reload re-reads the source after it changed on disk.
func (a *app) reload(ctx context.Context) (deck.Deck, error) {
	return a.read(ctx, a.source)
}

// read ingests filename without touching the session, so it may run off the
// UI loop.
func (a *app) read(ctx context.Context, filename string) (deck.Deck, error) {
	d, err := loadDeck(ctx, filename, a.opts.Config)
	if err != nil {
		a.logger.Warn("read failed", zap.String("file", filename), zap.Error(err))
		return deck.Deck{}, err
	}
	a.logger.Info("document read", zap.String("file", filename), zap.Int("cards", len(d.Cards)))
	return d, nil
}

func (a *app) closeBackend() {
	if a.backend == nil {
		return
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("failed to close state store", zap.Error(err))
	}
	a.backend = nil
}

func (a *app) close() {
	a.closeBackend()
	_ = a.logger.Sync()
}
