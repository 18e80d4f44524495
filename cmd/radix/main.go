package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/vdparikh/radix"
	"github.com/vdparikh/radix/internal/catalog"
	"github.com/vdparikh/radix/internal/cli"
	"github.com/vdparikh/radix/internal/config"
	"github.com/vdparikh/radix/internal/ctxlog"
	"github.com/vdparikh/radix/internal/metrics"
	"github.com/vdparikh/radix/internal/server"
)

// decimal reads integer operands.
var decimal = radix.MustNew(radix.Decimal)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:], os.Getenv); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run holds the program logic; results go to outW, logs to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string, getenv func(string) string) error {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := cli.NewLogger(opts.LogLevel, opts.LogFormat, errW)
	ctx = ctxlog.WithLogger(ctx, logger)

	cfg := config.Default()
	if opts.ConfigPath != "" {
		logger.Debug("Loading configuration.", "path", opts.ConfigPath)
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}

	cat, err := catalog.New(cfg)
	if err != nil {
		return err
	}
	logger.Debug("Catalog ready.", "systems", len(cat.SystemNames()), "tokens", len(cat.TokenNames()))

	switch opts.Command {
	case cli.CommandSystems:
		return listSystems(outW, cat)
	case cli.CommandEncode:
		conv, _, err := cat.Resolve(opts.System, opts.Digits)
		if err != nil {
			return err
		}
		return encodeAll(outW, conv, opts.Operands)
	case cli.CommandDecode:
		conv, _, err := cat.Resolve(opts.System, opts.Digits)
		if err != nil {
			return err
		}
		return decodeAll(outW, conv, opts.Operands)
	case cli.CommandSeal:
		codec, err := cat.Token(opts.Token)
		if err != nil {
			return err
		}
		return encodeAll(outW, codec, opts.Operands)
	case cli.CommandOpen:
		codec, err := cat.Token(opts.Token)
		if err != nil {
			return err
		}
		return decodeAll(outW, codec, opts.Operands)
	case cli.CommandServe:
		return server.New(cfg.Addr, cat, metrics.New(), logger).Run(ctx)
	}
	return &cli.ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", opts.Command)}
}

func listSystems(w io.Writer, cat *catalog.Catalog) error {
	for _, name := range cat.SystemNames() {
		conv, err := cat.System(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, conv.Base(), conv)
	}
	for _, name := range cat.TokenNames() {
		fmt.Fprintf(w, "token\t%s\n", name)
	}
	return nil
}

func encodeAll(w io.Writer, codec radix.Codec, operands []string) error {
	for _, op := range operands {
		v, err := decimal.Decode(op)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		text, err := codec.Encode(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, text)
	}
	return nil
}

func decodeAll(w io.Writer, codec radix.Codec, operands []string) error {
	for _, op := range operands {
		v, err := codec.Decode(op)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, v)
	}
	return nil
}
