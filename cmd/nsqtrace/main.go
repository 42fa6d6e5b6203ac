// Command nsqtrace quantizes a generated test signal frame by frame and writes
// a JSON-lines trace of every frame, followed by a summary table.
//
// Usage:
//
//	nsqtrace [-rate 16000] [-complexity 2] [-frames 50] [-signal speech_like_v1] [-out trace.jsonl] [-verify]
//	         [-store traces.db [-baseline latest]]
//
// With -store, the records of every run are kept in a LevelDB database, and
// -baseline compares the pulses of the new run against a stored one.
//
// Flag defaults can be set with NSQTRACE_* environment variables, which are
// also read from a .env file in the working directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/thesyncim/silknsq/internal/testsignal"
)

func main() {
	_ = godotenv.Load(".env")

	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "nsqtrace: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.logLevel}))
	if err := run(opts, os.Stdout, os.Stderr, logger); err != nil {
		logger.Error("trace failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	rate       int
	complexity int
	delay      int
	frames     int
	signal     string
	out        string
	store      string
	baseline   string
	verify     bool
	lbrr       bool
	warping    bool
	logLevel   slog.Level
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var (
		opts  options
		level string
	)
	fs.IntVar(&opts.rate, "rate", envInt("NSQTRACE_RATE", 16000), "internal sample rate (8000, 12000, 16000, 24000)")
	fs.IntVar(&opts.complexity, "complexity", envInt("NSQTRACE_COMPLEXITY", 2), "quantizer complexity (0-2)")
	fs.IntVar(&opts.delay, "delay", envInt("NSQTRACE_DELAY", 32), "decision delay in samples")
	fs.IntVar(&opts.frames, "frames", envInt("NSQTRACE_FRAMES", 50), "number of 20 ms frames")
	fs.StringVar(&opts.signal, "signal", envString("NSQTRACE_SIGNAL", testsignal.VariantSpeechLikeV1),
		"test signal ("+strings.Join(testsignal.SignalVariants(), ", ")+")")
	fs.StringVar(&opts.out, "out", envString("NSQTRACE_OUT", ""), "JSON-lines trace file (- for stdout)")
	fs.StringVar(&opts.store, "store", envString("NSQTRACE_STORE", ""), "LevelDB directory that keeps the records of every run")
	fs.StringVar(&opts.baseline, "baseline", envString("NSQTRACE_BASELINE", ""), "stored run ID (or latest) to compare pulses against; needs -store")
	fs.BoolVar(&opts.verify, "verify", envBool("NSQTRACE_VERIFY", false), "decode every frame and compare with the quantizer output")
	fs.BoolVar(&opts.lbrr, "lbrr", envBool("NSQTRACE_LBRR", false), "also quantize a redundant copy with raised gains")
	fs.BoolVar(&opts.warping, "warping", envBool("NSQTRACE_WARPING", true), "enable the warped shaping filter")
	fs.StringVar(&level, "log-level", envString("NSQTRACE_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if err := opts.logLevel.UnmarshalText([]byte(level)); err != nil {
		return options{}, fmt.Errorf("log level %q: %w", level, err)
	}
	if opts.baseline != "" && opts.store == "" {
		return options{}, errors.New("-baseline needs -store")
	}
	if opts.frames <= 0 {
		return options{}, fmt.Errorf("frames must be > 0, got %d", opts.frames)
	}
	return opts, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(envString(key, ""))
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(envString(key, ""))
	if err != nil {
		return def
	}
	return v
}
