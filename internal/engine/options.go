package engine

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Option limits.
const (
	MinHashMB       = 1
	MaxHashMB       = 65536
	MinThreads      = 1
	MaxThreads      = 512
	MaxMoveOverhead = 5000 * time.Millisecond
)

// Options configures an Engine.
type Options struct {
	HashMB        int
	Threads       int
	MoveOverhead  time.Duration
	UseNNUE       bool
	EvalFile      string
	EvalFileSmall string
	Debug         bool
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		HashMB:       16,
		Threads:      1,
		MoveOverhead: 10 * time.Millisecond,
	}
}

// Validate rejects out-of-range values with a *ConfigError.
func (o Options) Validate() error {
	switch {
	case o.HashMB < MinHashMB || o.HashMB > MaxHashMB:
		return &ConfigError{Option: "Hash", Value: strconv.Itoa(o.HashMB), Reason: rangeReason(MinHashMB, MaxHashMB)}
	case o.Threads < MinThreads || o.Threads > MaxThreads:
		return &ConfigError{Option: "Threads", Value: strconv.Itoa(o.Threads), Reason: rangeReason(MinThreads, MaxThreads)}
	case o.MoveOverhead < 0 || o.MoveOverhead > MaxMoveOverhead:
		return &ConfigError{
			Option: "Move Overhead",
			Value:  strconv.FormatInt(o.MoveOverhead.Milliseconds(), 10),
			Reason: rangeReason(0, int(MaxMoveOverhead.Milliseconds())),
		}
	}
	return nil
}

func rangeReason(low, high int) string {
	return fmt.Sprintf("must be an integer in [%d, %d]", low, high)
}

// Values renders the options under their UCI names.
func (o Options) Values() map[string]string {
	return map[string]string{
		"Hash":          strconv.Itoa(o.HashMB),
		"Threads":       strconv.Itoa(o.Threads),
		"Move Overhead": strconv.FormatInt(o.MoveOverhead.Milliseconds(), 10),
		"UseNNUE":       strconv.FormatBool(o.UseNNUE),
		"EvalFile":      o.EvalFile,
		"EvalFileSmall": o.EvalFileSmall,
		"Debug Log":     strconv.FormatBool(o.Debug),
	}
}

// OptionKind is the UCI option type.
type OptionKind string

const (
	KindSpin   OptionKind = "spin"
	KindCheck  OptionKind = "check"
	KindString OptionKind = "string"
)

// OptionSpec describes one UCI option.
type OptionSpec struct {
	Name     string
	Kind     OptionKind
	Default  string
	Min, Max int
}

// UCI renders the spec as an "option" line.
func (s OptionSpec) UCI() string {
	switch s.Kind {
	case KindSpin:
		return fmt.Sprintf("option name %s type spin default %s min %d max %d", s.Name, s.Default, s.Min, s.Max)
	case KindString:
		def := s.Default
		if def == "" {
			def = "<empty>"
		}
		return fmt.Sprintf("option name %s type string default %s", s.Name, def)
	}
	return fmt.Sprintf("option name %s type %s default %s", s.Name, s.Kind, s.Default)
}

var optionSpecs = []OptionSpec{
	{Name: "Hash", Kind: KindSpin, Default: "16", Min: MinHashMB, Max: MaxHashMB},
	{Name: "Threads", Kind: KindSpin, Default: "1", Min: MinThreads, Max: MaxThreads},
	{Name: "Move Overhead", Kind: KindSpin, Default: "10", Min: 0, Max: int(MaxMoveOverhead.Milliseconds())},
	{Name: "UseNNUE", Kind: KindCheck, Default: "false"},
	{Name: "EvalFile", Kind: KindString},
	{Name: "EvalFileSmall", Kind: KindString},
	{Name: "Debug Log", Kind: KindCheck, Default: "false"},
}

// OptionSpecs lists the options the engine accepts.
func OptionSpecs() []OptionSpec { return slices.Clone(optionSpecs) }

// LookupOption finds a spec by case-insensitive name.
func LookupOption(name string) (OptionSpec, bool) {
	return lo.Find(optionSpecs, func(s OptionSpec) bool { return strings.EqualFold(s.Name, name) })
}

// SetOption applies one UCI option. Hash, Threads and the evaluator options
// reshape shared state and are refused while a search runs.
func (e *Engine) SetOption(name, value string) error {
	spec, ok := LookupOption(name)
	if !ok {
		return &ConfigError{Option: name, Value: value, Reason: "unknown option"}
	}
	value = strings.TrimSpace(value)

	next := e.Options()
	switch spec.Kind {
	case KindSpin:
		n, err := strconv.Atoi(value)
		if err != nil || n < spec.Min || n > spec.Max {
			return &ConfigError{Option: spec.Name, Value: value, Reason: rangeReason(spec.Min, spec.Max)}
		}
		switch spec.Name {
		case "Hash":
			next.HashMB = n
		case "Threads":
			next.Threads = n
		case "Move Overhead":
			next.MoveOverhead = time.Duration(n) * time.Millisecond
		}
	case KindCheck:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &ConfigError{Option: spec.Name, Value: value, Reason: "must be true or false"}
		}
		switch spec.Name {
		case "UseNNUE":
			next.UseNNUE = b
		case "Debug Log":
			next.Debug = b
		}
	case KindString:
		if value == "<empty>" {
			value = ""
		}
		switch spec.Name {
		case "EvalFile":
			next.EvalFile = value
		case "EvalFileSmall":
			next.EvalFileSmall = value
		}
	}

	if err := e.configure(next); err != nil {
		return err
	}
	log.Debug().Str("option", spec.Name).Str("value", value).Msg("option set")
	return nil
}

// configure swaps in next, rebuilding only what changed.
func (e *Engine) configure(next Options) error {
	if err := next.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.opts
	reshape := next.HashMB != prev.HashMB || next.Threads != prev.Threads ||
		next.UseNNUE != prev.UseNNUE || next.EvalFile != prev.EvalFile || next.EvalFileSmall != prev.EvalFileSmall
	if reshape && e.searching() {
		return fmt.Errorf("%w: cannot reconfigure", ErrSearching)
	}

	e.opts = next
	if next.UseNNUE != prev.UseNNUE || next.EvalFile != prev.EvalFile || next.EvalFileSmall != prev.EvalFileSmall {
		if err := e.loadEvaluator(); err != nil {
			e.opts = prev
			return err
		}
		e.buildWorkers()
	} else if next.Threads != prev.Threads {
		e.buildWorkers()
	}
	if next.HashMB != prev.HashMB {
		e.tt.Resize(next.HashMB)
	}
	if next.Debug != prev.Debug {
		setDebug(next.Debug)
	}
	return nil
}

func setDebug(on bool) {
	if on {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
