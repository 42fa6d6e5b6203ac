// Command benchguard runs the quantizer benchmarks and fails when a measured
// median exceeds its guardrail in tools/bench_guardrails.json.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

type benchmarkGuard struct {
	MaxNsOp     float64 `json:"max_ns_op"`
	MaxBOp      float64 `json:"max_b_op"`
	MaxAllocsOp float64 `json:"max_allocs_op"`
}

// suite is one `go test -bench` invocation.
type suite struct {
	Package    string                    `json:"package"`
	BenchRegex string                    `json:"bench_regex"`
	Benchmarks map[string]benchmarkGuard `json:"benchmarks"`
}

type guardConfig struct {
	Count     int     `json:"count"`
	Benchtime string  `json:"benchtime"`
	CPU       int     `json:"cpu"`
	Suites    []suite `json:"suites"`
}

type sample struct {
	NsOp     float64
	BOp      float64
	AllocsOp float64
}

func main() {
	var (
		cfgPath string
		timeout time.Duration
		verbose bool
	)
	flag.StringVar(&cfgPath, "config", "tools/bench_guardrails.json", "path to bench guardrails config")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "limit for each benchmark run")
	flag.BoolVar(&verbose, "v", false, "echo benchmark output")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if err := validateConfig(cfg); err != nil {
		fatalf("invalid config: %v", err)
	}

	var violations []string
	for _, s := range cfg.Suites {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		out, err := runBench(ctx, cfg, s)
		cancel()
		logger.Debug("benchmark output", "package", s.Package, "output", string(out))
		if err != nil {
			fatalf("run benchmarks for %s: %v", s.Package, err)
		}
		samples, err := parseBenchmarkOutput(out)
		if err != nil {
			fatalf("parse benchmark output for %s: %v", s.Package, err)
		}
		violations = append(violations, evaluate(logger, s, samples)...)
	}

	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v)
		}
		os.Exit(1)
	}
	fmt.Println("benchguard: all configured benchmarks are within guardrails")
}

func loadConfig(path string) (*guardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg guardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *guardConfig) error {
	if cfg.Count <= 0 {
		return errors.New("count must be > 0")
	}
	if cfg.CPU <= 0 {
		return errors.New("cpu must be > 0")
	}
	if cfg.Benchtime == "" {
		return errors.New("benchtime must be set")
	}
	if len(cfg.Suites) == 0 {
		return errors.New("suites must be non-empty")
	}
	for i, s := range cfg.Suites {
		if s.Package == "" {
			return fmt.Errorf("suite %d: package must be set", i)
		}
		if s.BenchRegex == "" {
			return fmt.Errorf("suite %s: bench_regex must be set", s.Package)
		}
		if len(s.Benchmarks) == 0 {
			return fmt.Errorf("suite %s: benchmarks must be non-empty", s.Package)
		}
	}
	return nil
}

func runBench(ctx context.Context, cfg *guardConfig, s suite) ([]byte, error) {
	args := []string{
		"test",
		"-run", "^$",
		"-bench", s.BenchRegex,
		"-benchmem",
		"-count", strconv.Itoa(cfg.Count),
		"-benchtime", cfg.Benchtime,
		"-cpu", strconv.Itoa(cfg.CPU),
		s.Package,
	}

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Env = append(os.Environ(), "GOMAXPROCS=1")

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

var benchLineRe = regexp.MustCompile(`^(Benchmark\S+?)(?:-\d+)?\s+\d+\s+([0-9.eE+\-]+)\s+ns/op\s+([0-9.eE+\-]+)\s+B/op\s+([0-9.eE+\-]+)\s+allocs/op$`)

func parseBenchmarkOutput(out []byte) (map[string][]sample, error) {
	result := make(map[string][]sample)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Benchmark") {
			continue
		}
		m := benchLineRe.FindStringSubmatch(line)
		if len(m) != 5 {
			continue
		}
		name := m[1]
		var vals [3]float64
		for i, unit := range []string{"ns/op", "B/op", "allocs/op"} {
			v, err := strconv.ParseFloat(m[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s for %s: %w", unit, name, err)
			}
			vals[i] = v
		}
		result[name] = append(result[name], sample{NsOp: vals[0], BOp: vals[1], AllocsOp: vals[2]})
	}
	if len(result) == 0 {
		return nil, errors.New("no benchmark rows parsed")
	}
	return result, nil
}

func evaluate(logger *slog.Logger, s suite, samples map[string][]sample) []string {
	var violations []string
	keys := make([]string, 0, len(s.Benchmarks))
	for k := range s.Benchmarks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		guard := s.Benchmarks[name]
		rows, ok := samples[name]
		if !ok || len(rows) == 0 {
			violations = append(violations, fmt.Sprintf("benchguard: missing benchmark in output: %s", name))
			continue
		}
		measured := medianSample(rows)
		logger.Info("measured",
			"benchmark", name,
			"ns_op", measured.NsOp, "max_ns_op", guard.MaxNsOp,
			"b_op", measured.BOp, "max_b_op", guard.MaxBOp,
			"allocs_op", measured.AllocsOp, "max_allocs_op", guard.MaxAllocsOp,
		)
		if measured.NsOp > guard.MaxNsOp {
			violations = append(violations, fmt.Sprintf("benchguard: %s ns/op regression: measured %.1f > max %.1f", name, measured.NsOp, guard.MaxNsOp))
		}
		if measured.BOp > guard.MaxBOp {
			violations = append(violations, fmt.Sprintf("benchguard: %s B/op regression: measured %.1f > max %.1f", name, measured.BOp, guard.MaxBOp))
		}
		if measured.AllocsOp > guard.MaxAllocsOp {
			violations = append(violations, fmt.Sprintf("benchguard: %s allocs/op regression: measured %.1f > max %.1f", name, measured.AllocsOp, guard.MaxAllocsOp))
		}
	}
	return violations
}

func medianSample(rows []sample) sample {
	pick := func(f func(sample) float64) float64 {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = f(r)
		}
		return median(vals)
	}
	return sample{
		NsOp:     pick(func(r sample) float64 { return r.NsOp }),
		BOp:      pick(func(r sample) float64 { return r.BOp }),
		AllocsOp: pick(func(r sample) float64 { return r.AllocsOp }),
	}
}

func median(values []float64) float64 {
	slices.Sort(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "benchguard: "+format+"\n", args...)
	os.Exit(2)
}
