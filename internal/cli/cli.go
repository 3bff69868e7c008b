package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/specialistvlad/darkcfg/internal/app"
	"github.com/specialistvlad/darkcfg/internal/network"
	"github.com/specialistvlad/darkcfg/internal/report"
)

// EnvPrefix prefixes every environment variable that supplies a flag default.
const EnvPrefix = "DARKCFG_"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// LookupFunc reads an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Parse processes command-line arguments with defaults taken from the
// process environment and, below it, the .env file in the working directory
// (or the one named by -env-file). It returns a populated Config, a boolean
// indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseEnv(args, output, os.LookupEnv)
}

// ParseEnv is Parse with an explicit environment.
func ParseEnv(args []string, output io.Writer, lookupEnv LookupFunc) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	envFile := envFilePath(args, lookupEnv)
	env, err := withDotEnv(lookupEnv, envFile)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("darkcfg", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
darkcfg - compiles darknet network definitions into a validated layer graph.

Usage:
  darkcfg [options] [CFG_PATH]

Arguments:
  CFG_PATH
    Path to a single .cfg or .hcl file, or a directory containing them.

Every option can also be set through an environment variable named
DARKCFG_<OPTION> (for example DARKCFG_LOG_LEVEL=debug) or a .env file.

Options:
`)
		flagSet.PrintDefaults()
	}

	d := defaults{env: env}
	configFlag := flagSet.String("config", d.str("config", ""), "Path to the configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the configuration file or directory (shorthand).")
	formatFlag := flagSet.String("format", d.str("format", string(report.FormatTable)), "Report format. Options: 'table' or 'yaml'.")
	logFormatFlag := flagSet.String("log-format", d.str("log-format", "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", d.str("log-level", "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", d.str("log-file", ""), "Also write logs to this size-rotated file.")
	noColorFlag := flagSet.Bool("no-color", d.boolean("no-color", false), "Disable colored table output.")
	gpuFlag := flagSet.Int("gpu", d.integer("gpu", network.NoGPU), "GPU index the network is built for. -1 is the CPU.")
	batchFlag := flagSet.Int("batch", d.integer("batch", 0), "Override the batch size. 0 keeps the [net] value.")
	timeStepsFlag := flagSet.Int("time-steps", d.integer("time-steps", 0), "Override time_steps. 0 keeps the [net] value.")
	trainFlag := flagSet.Bool("train", d.boolean("train", false), "Build for training (applies stopbackward freezing).")
	receptiveFlag := flagSet.Bool("receptive-field", d.boolean("receptive-field", false), "Track and report receptive fields.")
	flagSet.String("env-file", envFile, "Read option defaults from this dotenv file.")
	if d.err != nil {
		return nil, false, &ExitError{Code: 2, Message: d.err.Error()}
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Configuration path determined.", "path", path)

	if path == "" {
		slog.Debug("No configuration path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		Path:           path,
		Format:         report.Format(*formatFlag),
		LogFormat:      *logFormatFlag,
		LogLevel:       *logLevelFlag,
		LogFile:        *logFileFlag,
		NoColor:        *noColorFlag,
		GPU:            *gpuFlag,
		Batch:          *batchFlag,
		TimeSteps:      *timeStepsFlag,
		Train:          *trainFlag,
		ReceptiveField: *receptiveFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// EnvKey is the environment variable that supplies the default of flag name.
func EnvKey(name string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// envFilePath finds the dotenv file before the flag set exists, since its
// contents become the flag defaults.
func envFilePath(args []string, lookupEnv LookupFunc) string {
	path := ".env"
	if v, ok := lookupEnv(EnvKey("env-file")); ok && v != "" {
		path = v
	}
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "env-file" {
			continue
		}
		if hasValue {
			path = value
		} else if i+1 < len(args) {
			path = args[i+1]
		}
	}
	return path
}

// withDotEnv layers the dotenv file under the environment. A missing file is
// not an error; a malformed one is.
func withDotEnv(lookupEnv LookupFunc, path string) (LookupFunc, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lookupEnv, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	slog.Debug("Env file loaded.", "path", path, "count", len(values))
	return func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

// defaults resolves flag defaults from the environment. The first malformed
// value is kept in err.
type defaults struct {
	env LookupFunc
	err error
}

func (d *defaults) str(name, def string) string {
	if v, ok := d.env(EnvKey(name)); ok {
		return v
	}
	return def
}

func (d *defaults) integer(name string, def int) int {
	v, ok := d.env(EnvKey(name))
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		d.fail(name, v, "an integer")
		return def
	}
	return n
}

func (d *defaults) boolean(name string, def bool) bool {
	v, ok := d.env(EnvKey(name))
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		d.fail(name, v, "a boolean")
		return def
	}
	return b
}

func (d *defaults) fail(name, value, want string) {
	if d.err == nil {
		d.err = fmt.Errorf("invalid %s=%q: expected %s", EnvKey(name), value, want)
	}
}
