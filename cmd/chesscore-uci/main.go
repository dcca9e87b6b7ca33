package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

// Default NNUE file names (Stockfish compatible)
const (
	defaultBigNet   = "nn-c288c895ea92.nnue" // ~108MB
	defaultSmallNet = "nn-37f18f62d772.nnue" // ~3.5MB
)

var (
	hashMB     = flag.Int("hash", 0, "transposition table size in MB (overrides stored option)")
	threads    = flag.Int("threads", 0, "search threads (overrides stored option)")
	logLevel   = flag.String("log-level", "warn", "log level: debug, info, warn, error")
	cpuprofile = flag.String("cpuprofile", "", "write a cpu profile into this directory")
	memprofile = flag.String("memprofile", "", "write a heap profile into this directory")
	noStore    = flag.Bool("no-store", false, "do not load or persist options and searches")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [bench [depth]]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	switch {
	case *cpuprofile != "":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuprofile), profile.NoShutdownHook, profile.Quiet).Stop()
	case *memprofile != "":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(*memprofile), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	if err := run(flag.Args()); err != nil {
		log.Error().Err(err).Msg("exit")
		os.Exit(1)
	}
}

func run(args []string) error {
	var store *storage.Store
	if !*noStore {
		s, err := storage.OpenDefault()
		if err != nil {
			log.Warn().Err(err).Msg("option store unavailable")
		} else {
			store = s
			defer store.Close()
		}
	}

	eng, err := engine.New(engine.DefaultOptions())
	if err != nil {
		return err
	}
	applyStoredOptions(eng, store)
	autoLoadNNUE(eng)
	if *hashMB > 0 {
		if err := eng.SetOption("Hash", strconv.Itoa(*hashMB)); err != nil {
			return err
		}
	}
	if *threads > 0 {
		if err := eng.SetOption("Threads", strconv.Itoa(*threads)); err != nil {
			return err
		}
	}

	if len(args) > 0 && args[0] == "bench" {
		return bench(eng, args[1:])
	}
	return uci.New(eng, store).Run()
}

// applyStoredOptions replays persisted options. Values that no longer
// validate are skipped.
func applyStoredOptions(eng *engine.Engine, store *storage.Store) {
	if store == nil {
		return
	}
	values, err := store.LoadOptions()
	if err != nil {
		log.Warn().Err(err).Msg("load stored options")
		return
	}
	// Network paths must be in place before UseNNUE is switched on.
	for _, spec := range engine.OptionSpecs() {
		if spec.Name == "UseNNUE" {
			continue
		}
		if v, ok := values[spec.Name]; ok {
			if err := eng.SetOption(spec.Name, v); err != nil {
				log.Warn().Err(err).Str("option", spec.Name).Msg("stored option rejected")
			}
		}
	}
	if v, ok := values["UseNNUE"]; ok {
		if err := eng.SetOption("UseNNUE", v); err != nil {
			log.Warn().Err(err).Msg("stored option rejected")
		}
	}
}

// autoLoadNNUE enables NNUE when no network is configured and both default
// networks are present in the data directory.
func autoLoadNNUE(eng *engine.Engine) {
	if o := eng.Options(); o.EvalFile != "" || o.EvalFileSmall != "" {
		return
	}
	dir, err := storage.NNUEDir()
	if err != nil {
		return
	}
	big := filepath.Join(dir, defaultBigNet)
	small := filepath.Join(dir, defaultSmallNet)
	if !fileExists(big) || !fileExists(small) {
		log.Debug().Str("dir", dir).Msg("no default networks, using classical evaluation")
		return
	}
	for _, kv := range [][2]string{{"EvalFile", big}, {"EvalFileSmall", small}, {"UseNNUE", "true"}} {
		if err := eng.SetOption(kv[0], kv[1]); err != nil {
			log.Warn().Err(err).Msg("NNUE not loaded, using classical evaluation")
			return
		}
	}
	log.Info().Str("dir", dir).Msg("NNUE loaded")
}

func bench(eng *engine.Engine, args []string) error {
	depth := engine.DefaultBenchDepth
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d <= 0 {
			return fmt.Errorf("bench depth %q: invalid", args[0])
		}
		depth = d
	}
	res, err := eng.Bench(depth)
	if err != nil {
		return err
	}
	fmt.Printf("Positions: %d\n", res.Positions)
	fmt.Printf("Nodes: %d\n", res.Nodes)
	fmt.Printf("Time: %d ms\n", res.Elapsed.Milliseconds())
	fmt.Printf("NPS: %d\n", res.NPS())
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
