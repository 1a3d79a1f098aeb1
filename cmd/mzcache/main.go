// Command mzcache inspects, verifies and transfers spectrum cache files.
//
// Usage:
//
//	mzcache [-log-level level] [-json] <command> [flags] <args>
//
// Commands:
//
//	inspect   <basename>              print counts, MS levels and RT range
//	verify    <cache file>            decode every record
//	spectrum  -id N <basename>        print one spectrum
//	rt        -delta D <basename> RT  list spectra in an RT window
//	publish   -store URL <basename> <name>
//	upload    -store URL <cache file> <name>
//	download  -store URL <name> <cache file>
//	stat      -store URL <name>
//
// A store URL is a local directory, file:///dir, s3://bucket/prefix or
// minio://host:port/bucket/prefix. MinIO credentials are read from
// MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
//
// publish copies a run as-is so that inspect, spectrum and rt can read it in
// place with -store; remote reads go through a block cache sized by
// -cache-bytes. upload stores a compressed archive that has to be
// downloaded before use.
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
	"syscall"

	"github.com/hupe1980/mzcache"
)

var errUsage = errors.New("usage error")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *env, args []string) error
}

// commands is populated in init to break the initialization cycle through
// usageOf, which looks up entries in this table.
var commands []command

func init() {
	commands = []command{
		{"inspect", "inspect [-store URL] <basename>", runInspect},
		{"verify", "verify [-workers N] [-rate BYTES/S] <cache file>", runVerify},
		{"spectrum", "spectrum -id N [-peaks K] [-store URL] <basename>", runSpectrum},
		{"rt", "rt [-delta D] [-level L] [-store URL] <basename> <rt>", runRT},
		{"publish", "publish -store URL <basename> <name>", runPublish},
		{"upload", "upload -store URL [-compression zstd|lz4|none] <cache file> <name>", runUpload},
		{"download", "download -store URL <name> <cache file>", runDownload},
		{"stat", "stat -store URL <name>", runStat},
	}
}

// env carries the process-wide settings shared by all commands.
type env struct {
	stdout io.Writer
	stderr io.Writer
	logger *mzcache.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "mzcache:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("mzcache", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	jsonLogs := fs.Bool("json", false, "emit JSON logs")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", *logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(stderr, opts)
	if *jsonLogs {
		handler = slog.NewJSONHandler(stderr, opts)
	}
	e := &env{stdout: stdout, stderr: stderr, logger: mzcache.NewLogger(handler)}

	if fs.NArg() == 0 {
		usage(stderr)
		return errUsage
	}
	for _, cmd := range commands {
		if cmd.name == fs.Arg(0) {
			return cmd.run(ctx, e, fs.Args()[1:])
		}
	}
	fmt.Fprintf(stderr, "mzcache: unknown command %q\n", fs.Arg(0))
	usage(stderr)
	return errUsage
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: mzcache [-log-level level] [-json] <command> [flags] <args>")
	fmt.Fprintln(w, "\ncommands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %s\n", cmd.usage)
	}
}

// parse parses a command's flags and checks the number of positional
// arguments.
func parse(e *env, fs *flag.FlagSet, usage string, args []string, nargs int) error {
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "usage: mzcache %s\n", usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != nargs {
		fs.Usage()
		return errUsage
	}
	return nil
}
