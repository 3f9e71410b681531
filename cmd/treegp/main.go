package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/funvibe/treegp/internal/batch"
	"github.com/funvibe/treegp/internal/config"
	"github.com/funvibe/treegp/internal/interp"
	"github.com/funvibe/treegp/internal/journal"
	"github.com/funvibe/treegp/internal/program"
	"github.com/mattn/go-isatty"
)

// Version can be set at build time using: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s run [-config file] [-journal file] [-v] program.yaml...\n", os.Args[0])
	fmt.Fprintf(w, "  %s check [-config file] program.yaml...\n", os.Args[0])
	fmt.Fprintf(w, "  %s runs -journal file\n", os.Args[0])
	fmt.Fprintf(w, "  %s version\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(os.Args[2:], os.Stdout)
	case "check":
		err = checkCommand(os.Args[2:], os.Stdout)
	case "runs":
		err = runsCommand(os.Args[2:], os.Stdout)
	case "version", "-version", "--version":
		fmt.Printf("treegp %s\n", Version)
	case "help", "-help", "--help", "-h":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig reads -config when given, otherwise the nearest treegp.yaml
// above the working directory, otherwise the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	found, err := config.FindConfig(wd)
	if err != nil {
		return nil, err
	}
	if found == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(found)
}

// programFiles expands directories into the program files they contain.
func programFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && isProgramFile(e.Name()) && !isConfigFile(e.Name()) {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no program files given")
	}
	return files, nil
}

func isProgramFile(name string) bool {
	for _, ext := range config.ProgramFileExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func isConfigFile(name string) bool {
	for _, n := range config.ConfigFileNames {
		if name == n {
			return true
		}
	}
	return false
}

func loadPrograms(cfg *config.Config, args []string) ([]*interp.Individual, []string, error) {
	files, err := programFiles(args)
	if err != nil {
		return nil, nil, err
	}
	loader, err := program.NewLoader(cfg)
	if err != nil {
		return nil, nil, err
	}
	inds := make([]*interp.Individual, 0, len(files))
	for _, f := range files {
		ind, err := loader.Load(f)
		if err != nil {
			return nil, nil, err
		}
		inds = append(inds, ind)
	}
	return inds, files, nil
}

func runCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "run configuration file")
	journalPath := fs.String("journal", "", "SQLite journal to record results in")
	verbose := fs.Bool("v", false, "log every evaluation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *journalPath != "" {
		cfg.Journal = *journalPath
	}
	inds, files, err := loadPrograms(cfg, fs.Args())
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ev := batch.New(batch.OptionsFromConfig(cfg, logger))
	results, err := ev.Evaluate(ctx, inds)
	if err != nil {
		return err
	}

	exceeded := 0
	for _, r := range results {
		if r.Status == batch.StatusExceeded {
			exceeded++
		}
	}
	logger.Info("run finished",
		slog.String("run", ev.RunID()),
		slog.Int("individuals", len(results)),
		slog.Int("exceeded", exceeded))

	printResults(out, files, results, useColor(out))

	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		if err := j.Record(ctx, ev.RunID(), results); err != nil {
			return err
		}
		logger.Info("results recorded", slog.String("run", ev.RunID()), slog.String("journal", cfg.Journal))
	}
	return nil
}

func checkCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "run configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	inds, files, err := loadPrograms(cfg, fs.Args())
	if err != nil {
		return err
	}

	failed := 0
	for i, ind := range inds {
		if err := ind.Validate(); err != nil {
			fmt.Fprintf(out, "%s: %s\n", files[i], err)
			failed++
			continue
		}
		if err := ind.CheckTypes(); err != nil {
			fmt.Fprintf(out, "%s: %s\n", files[i], err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: ok (%d trees)\n", files[i], len(ind.Trees))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed", failed, len(inds))
	}
	return nil
}

func runsCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	journalPath := fs.String("journal", "", "SQLite journal to read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *journalPath == "" {
		return errors.New("runs: -journal is required")
	}
	j, err := journal.Open(*journalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Runs(context.Background())
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  total=%d ok=%d exceeded=%d nodes=%d\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.RunID, r.Total, r.OK, r.Exceeded, r.Nodes)
	}
	return nil
}

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// useColor follows the NO_COLOR convention and only colors terminals.
func useColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printResults(w io.Writer, files []string, results []batch.Result, color bool) {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + colorReset
	}
	exceeded := 0
	for i, r := range results {
		switch r.Status {
		case batch.StatusOK:
			fmt.Fprintf(w, "%s  %s  %s  nodes=%d\n", paint(colorGreen, "ok      "), files[i], r.Value.Inspect(), r.Stats.NodesExecuted)
		default:
			exceeded++
			value := "invalid"
			if r.Valid {
				value = r.Value.Inspect()
			}
			fmt.Fprintf(w, "%s  %s  %s (%s)  nodes=%d\n", paint(colorYellow, "exceeded"), files[i], value, r.Limit, r.Stats.NodesExecuted)
		}
	}
	fmt.Fprintf(w, "%d evaluated, %d exceeded a limit\n", len(results), exceeded)
}
