package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestOptionsValidate(t *testing.T) {
	is := is.New(t)
	is.NoErr(DefaultOptions().Validate())

	bad := DefaultOptions()
	bad.HashMB = 0
	err := bad.Validate()
	is.True(errors.Is(err, ErrConfiguration))
	var ce *ConfigError
	is.True(errors.As(err, &ce))
	is.Equal(ce.Option, "Hash")

	bad = DefaultOptions()
	bad.Threads = MaxThreads + 1
	is.True(errors.Is(bad.Validate(), ErrConfiguration))

	_, err = New(bad)
	is.True(errors.Is(err, ErrConfiguration))
}

func TestSetOption(t *testing.T) {
	is := is.New(t)
	eng := newTestEngine(t, 1)

	is.NoErr(eng.SetOption("hash", "32"))
	is.NoErr(eng.SetOption("Threads", "3"))
	is.NoErr(eng.SetOption("Move Overhead", "25"))
	o := eng.Options()
	is.Equal(o.HashMB, 32)
	is.Equal(o.Threads, 3)
	is.Equal(o.MoveOverhead, 25*time.Millisecond)
	is.Equal(len(eng.workers), 3)
	is.Equal(eng.tt.Clusters(), 32<<20/clusterBytes)

	is.True(errors.Is(eng.SetOption("Hash", "0"), ErrConfiguration))
	is.True(errors.Is(eng.SetOption("Threads", "many"), ErrConfiguration))
	is.True(errors.Is(eng.SetOption("Nope", "1"), ErrConfiguration))
	is.True(errors.Is(eng.SetOption("UseNNUE", "maybe"), ErrConfiguration))
	is.Equal(eng.Options().HashMB, 32)

	// without network files the classical evaluator stays in use
	is.NoErr(eng.SetOption("UseNNUE", "true"))
	err := eng.SetOption("EvalFile", "/nonexistent/big.nnue")
	is.NoErr(err)
	err = eng.SetOption("EvalFileSmall", "/nonexistent/small.nnue")
	is.True(errors.Is(err, ErrConfiguration))
	is.Equal(eng.Options().EvalFileSmall, "")
}

func TestOptionSpecs(t *testing.T) {
	is := is.New(t)
	s, ok := LookupOption("move overhead")
	is.True(ok)
	is.Equal(s.UCI(), "option name Move Overhead type spin default 10 min 0 max 5000")
	s, _ = LookupOption("EvalFile")
	is.Equal(s.UCI(), "option name EvalFile type string default <empty>")
	is.Equal(len(OptionSpecs()), len(DefaultOptions().Values()))
}
