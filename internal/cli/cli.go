// Package cli parses the radix command line.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Commands accepted as the first positional argument.
const (
	CommandEncode  = "encode"
	CommandDecode  = "decode"
	CommandSeal    = "seal"
	CommandOpen    = "open"
	CommandSystems = "systems"
	CommandServe   = "serve"
)

// ExitError is an error that carries a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Config is the parsed command line.
type Config struct {
	Command  string
	Operands []string

	ConfigPath string
	System     string
	Digits     string
	Token      string
	Addr       string
	LogFormat  string
	LogLevel   string
}

// Parse processes command-line arguments. It returns the parsed Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("radix", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
radix - Convert integers to and from arbitrary numeral systems.

Usage:
  radix [options] COMMAND [OPERANDS...]

Commands:
  encode VALUE...   Write each signed integer in the selected system.
  decode TEXT...    Read each text in the selected system.
  seal VALUE...     Turn each integer into an opaque token (-token required).
  open TOKEN...     Recover the integer behind each token (-token required).
  systems           List the available systems and tokens.
  serve             Run the HTTP API.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL configuration file.")
	systemFlag := flagSet.String("system", "", "Name of the numeral system. Defaults to 'decimal'.")
	digitsFlag := flagSet.String("digits", "", "Explicit digit alphabet, overriding -system.")
	tokenFlag := flagSet.String("token", "", "Name of the token codec for seal and open.")
	addrFlag := flagSet.String("addr", "", "Listen address for serve, overriding the configuration.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	command := flagSet.Arg(0)
	operands := flagSet.Args()[1:]
	switch command {
	case CommandEncode, CommandDecode:
		if len(operands) == 0 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%s: at least one operand is required", command)}
		}
	case CommandSeal, CommandOpen:
		if *tokenFlag == "" {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%s: -token is required", command)}
		}
		if len(operands) == 0 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%s: at least one operand is required", command)}
		}
	case CommandSystems, CommandServe:
		if len(operands) != 0 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%s: takes no operands", command)}
		}
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", command)}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &Config{
		Command:    command,
		Operands:   operands,
		ConfigPath: *configFlag,
		System:     *systemFlag,
		Digits:     *digitsFlag,
		Token:      *tokenFlag,
		Addr:       *addrFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	}, false, nil
}

// NewLogger creates a slog.Logger writing to outW. It does not set the
// global logger.
func NewLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
