package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/cognicore/kleisli/internal/batch"
	"github.com/cognicore/kleisli/internal/extract"
	"github.com/cognicore/kleisli/internal/logging"
	"github.com/cognicore/kleisli/pkg/kleisli"
	"github.com/cognicore/kleisli/pkg/kleisli/config"
	"github.com/cognicore/kleisli/pkg/kleisli/export"
	"github.com/cognicore/kleisli/pkg/kleisli/ingest"
	"github.com/cognicore/kleisli/pkg/kleisli/store"
	"github.com/cognicore/kleisli/pkg/kleisli/store/memstore"
	"github.com/cognicore/kleisli/pkg/kleisli/store/sqlite"
)

// options holds the parsed command line.
type options struct {
	configPath   string
	dbPath       string
	stoplistPath string
	addStops     []string
	keepWords    []string
	inputs       []string
	htmlPath     string
	batchPath    string
	history      int
	exportPath   string
	logLevel     string
	logFormat    string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("kleisli", flag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	fs.StringVar(&opts.dbPath, "db", "", "SQLite journal path (overrides store settings)")
	fs.StringVar(&opts.stoplistPath, "stoplist", "", "Stoplist YAML file (enables the filter stage)")
	fs.StringArrayVar(&opts.addStops, "stop", nil, "Add a stopword to the stored stoplist (repeatable)")
	fs.StringArrayVar(&opts.keepWords, "keep", nil, "Remove a word from the stored stoplist (repeatable)")
	fs.StringArrayVarP(&opts.inputs, "input", "i", nil, "Text to process (repeatable)")
	fs.StringVar(&opts.htmlPath, "html", "", "Read input from an HTML file ('-' for stdin)")
	fs.StringVar(&opts.batchPath, "batch", "", "Read inputs from a JSON lines file of {\"text\": ...} records")
	fs.IntVar(&opts.history, "history", 0, "Print the N most recent journaled runs")
	fs.StringVar(&opts.exportPath, "export", "", "Write the journal to an xz-compressed JSON lines file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.inputs = append(opts.inputs, fs.Args()...)
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatal(err)
	}

	if err := run(context.Background(), opts, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts *options, stdin io.Reader, stdout io.Writer) error {
	engine, cfg, err := buildEngine(ctx, opts)
	if err != nil {
		return err
	}
	defer engine.Close()

	inputs, err := collectInputs(opts, cfg, stdin)
	if err != nil {
		return err
	}

	for _, input := range inputs {
		res, err := engine.Run(ctx, input)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		report(stdout, res)
	}

	if opts.history > 0 {
		runs, err := engine.History(ctx, opts.history)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		printHistory(stdout, runs)
	}

	if opts.exportPath != "" {
		runs, err := engine.History(ctx, math.MaxInt32)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := export.WriteFile(opts.exportPath, runs); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		logging.GetLogger().Info("journal exported", "path", opts.exportPath, "runs", len(runs))
	}

	return nil
}

// collectInputs decides what to process: explicit inputs, then HTML, then
// batch records, then the configured samples when none was given.
func collectInputs(opts *options, cfg *config.Config, stdin io.Reader) ([]string, error) {
	inputs := append([]string(nil), opts.inputs...)

	if opts.htmlPath != "" {
		var r io.Reader = stdin
		if opts.htmlPath != "-" {
			f, err := os.Open(opts.htmlPath)
			if err != nil {
				return nil, fmt.Errorf("open html: %w", err)
			}
			defer f.Close()
			r = f
		}
		text, err := extract.PlainText(r)
		if err != nil {
			return nil, fmt.Errorf("extract html: %w", err)
		}
		inputs = append(inputs, text)
	}

	if opts.batchPath != "" {
		items, err := batch.LoadFromJSONL(opts.batchPath)
		if err != nil {
			return nil, fmt.Errorf("load batch: %w", err)
		}
		for _, it := range items {
			inputs = append(inputs, it.Input())
		}
	}

	if len(inputs) == 0 && opts.history == 0 && opts.exportPath == "" {
		inputs = append(inputs, cfg.Samples...)
	}
	return inputs, nil
}

func buildEngine(ctx context.Context, opts *options) (*kleisli.Engine, *config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	logging.InitLogger(os.Stderr, level, format)

	if opts.dbPath != "" {
		cfg.Store = config.StoreConf{Driver: config.DriverSQLite, Path: opts.dbPath}
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	components, err := config.Build(cfg, opts.stoplistPath)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	if err := syncStoplist(ctx, st, cfg, components); err != nil {
		st.Close()
		return nil, nil, err
	}
	if err := editStoplist(ctx, st, components.Filter, opts.addStops, opts.keepWords); err != nil {
		st.Close()
		return nil, nil, err
	}

	engine := kleisli.New(kleisli.Options{
		Store:    st,
		Pipeline: components.Pipeline,
		Logger:   logging.GetLogger(),
	})

	return engine, cfg, nil
}

// syncStoplist persists a configured stoplist, or falls back to the one
// remembered by the store when none is configured.
func syncStoplist(ctx context.Context, st store.Store, cfg *config.Config, components *config.Components) error {
	if components.Filter.Len() > 0 {
		if err := st.UpsertStoplist(ctx, components.Filter.Stopwords()); err != nil {
			return fmt.Errorf("save stoplist: %w", err)
		}
		return nil
	}

	view, err := st.Stoplist(ctx)
	if err != nil {
		return fmt.Errorf("load stoplist: %w", err)
	}
	if view == nil {
		return nil
	}
	stops, err := view.AllStops(ctx)
	if err != nil {
		return fmt.Errorf("load stoplist: %w", err)
	}
	stored := *cfg
	stored.Stoplist = stops
	stored.StoplistPath = ""
	rebuilt, err := config.Build(&stored, "")
	if err != nil {
		return err
	}
	*components = *rebuilt
	return nil
}

// editStoplist applies --stop and --keep to the active filter and stores
// the result. The pipeline picks up the change on its next call.
func editStoplist(ctx context.Context, st store.Store, filter *ingest.StopFilter, add, remove []string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	for _, w := range add {
		filter.AddStopword(w)
	}
	for _, w := range remove {
		filter.RemoveStopword(w)
	}
	if err := st.UpsertStoplist(ctx, filter.Stopwords()); err != nil {
		return fmt.Errorf("save stoplist: %w", err)
	}
	logging.GetLogger().Info("stoplist updated", "added", len(add), "removed", len(remove), "size", filter.Len())
	return nil
}

func openStore(ctx context.Context, conf config.StoreConf) (store.Store, error) {
	switch conf.Driver {
	case config.DriverSQLite:
		return sqlite.OpenSQLite(ctx, conf.Path)
	default:
		return memstore.New(), nil
	}
}

func report(w io.Writer, res kleisli.Result) {
	for _, word := range res.Tokens {
		fmt.Fprintln(w, word)
	}
	fmt.Fprintln(w, res.Note)
}

func printHistory(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %q -> [%s] %q\n",
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Input,
			strings.Join(quoteAll(r.Tokens), " "),
			r.Note,
		)
	}
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
