package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ward/internal/compiler"
	"ward/internal/config"
	"ward/internal/interp"
	"ward/internal/lexer"
	"ward/internal/parser"
	"ward/internal/report"
	"ward/internal/resolver"
)

var (
	// Version is stamped at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configPath string
	reportDSN  string
	// bytecode tools
	compileOut string
	disasm     bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", "", "Path to a ward.toml config file")
	flag.StringVar(&reportDSN, "report", "", "Report destination (file path, sqlite://, mysql://, postgres://)")
	flag.StringVar(&compileOut, "compile", "", "Compile the script to bytecode and write it to the given path")
	flag.BoolVar(&disasm, "disasm", false, "Compile the script and print the disassembly instead of running it")
	// log config
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}
	if help || flag.NArg() == 0 {
		printHelp()
		if !help {
			os.Exit(2)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if logLevel == "error" && cfg.LogLevel != "" {
		logLevel = cfg.LogLevel
	}
	if logFile == "" {
		logFile = cfg.LogFile
	}
	if reportDSN == "" {
		reportDSN = cfg.Report
	}

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(logLevel),
	}
	logger := slog.New(slog.NewJSONHandler(configureLogWriter(), loggerOptions))
	slog.SetDefault(logger)

	if err := run(cfg, logger, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, script string) error {
	source, err := os.ReadFile(script)
	if err != nil {
		return err
	}
	tokens, err := lexer.Scan(string(source))
	if err != nil {
		return err
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		return err
	}

	if compileOut != "" || disasm {
		compiled, err := compiler.Compile(program)
		if err != nil {
			return err
		}
		if disasm {
			fmt.Print(compiled.String())
		}
		if compileOut != "" {
			raw, err := compiled.MarshalBinary()
			if err != nil {
				return err
			}
			return os.WriteFile(compileOut, raw, 0o644)
		}
		return nil
	}

	res := resolver.FromScriptPath(script)
	for _, dir := range cfg.SearchPaths {
		res.AddPath(dir)
	}
	in, err := interp.New(res)
	if err != nil {
		return err
	}
	in.SetLogger(logger)
	in.SetIO(os.Stdin, os.Stdout)

	result, runErr := in.Execute(program)
	if runErr != nil {
		// the partial result is still reported below
		fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(script), runErr)
	}

	dsn := reportDSN
	if result.ReportDestination != "" {
		dsn = result.ReportDestination
	}
	if dsn != "" {
		if err := report.Write(context.Background(), dsn, result); err != nil {
			return err
		}
	}
	if runErr != nil {
		os.Exit(1)
	}
	return nil
}

func configureLogWriter() *os.File {
	if logFile == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	writer, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	return writer
}

func printVersion() {
	fmt.Printf("ward version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: ward [options] <script.ward>

Options:
  -config <path>     Path to a ward.toml config file. Default is './ward.toml' when present.
  -report <dsn>      Report destination: a JSON file path, sqlite://file, mysql://dsn or postgres://url.
  -compile <path>    Compile the script to bytecode and write it to the given path.
  -disasm            Compile the script and print the disassembly instead of running it.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Examples:
  ward recon.ward                       Run a script
  ward -report=run.json recon.ward      Run and write a JSON report
  ward -disasm recon.ward               Show the bytecode for the compilable subset

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
