package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"filescript/internal/config"
	"filescript/internal/embedding"
	"filescript/internal/errs"
	"filescript/internal/extract"
	"filescript/internal/index"
	"filescript/internal/interp"
	"filescript/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var sandboxRoot string

	rootCmd := &cobra.Command{
		Use:           "filescript",
		Short:         "Run sandboxed file exploration scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/filescript/config.yaml if not provided)")

	runCmd := &cobra.Command{
		Use:   "run <script.fdsl>",
		Short: "Execute a script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runScript(args[0], sandboxRoot, cfg, logger)
		},
	}
	runCmd.Flags().StringVar(&sandboxRoot, "sandbox-root", "", "Path limit for the script; defaults to the current directory")

	prepareCmd := &cobra.Command{
		Use:   "prepare <folder>",
		Short: "Build the semantic index for a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return prepareFolder(args[0], cfg, logger)
		},
	}

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Start an interactive script console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runConsole(sandboxRoot, cfg, logger)
		},
	}
	consoleCmd.Flags().StringVar(&sandboxRoot, "sandbox-root", "", "Path limit for the console; defaults to the current directory")

	rootCmd.AddCommand(runCmd, prepareCmd, consoleCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(cfgPath string) (*config.AppConfig, *zap.Logger, error) {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var zapCfg zap.Config
	if cfg.Console {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		// Keep stdout clean for script output.
		zapCfg.OutputPaths = []string{"stderr"}
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func runScript(scriptPath, sandboxRoot string, cfg *config.AppConfig, logger *zap.Logger) error {
	processCwd, err := os.Getwd()
	if err != nil {
		return err
	}
	info, err := os.Stat(scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: script not found: %s\n", displayPath(scriptPath, processCwd))
		os.Exit(2)
	}
	if info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: script is not a file: %s\n", displayPath(scriptPath, processCwd))
		os.Exit(2)
	}
	source, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}

	// Relative paths inside the script resolve against the script's own
	// directory; the sandbox defaults to where the process was started.
	scriptDir, err := filepath.Abs(filepath.Dir(scriptPath))
	if err != nil {
		return err
	}
	root := sandboxRoot
	if root == "" {
		root = processCwd
	}
	in, err := interp.New(interp.Options{
		Cwd:            scriptDir,
		SandboxRoot:    root,
		Stdout:         os.Stdout,
		TextChunkLines: cfg.Runtime.TextChunkLines,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	if err := in.Run(string(source)); err != nil {
		printScriptError(err)
		os.Exit(1)
	}
	return nil
}

func printScriptError(err error) {
	var syntaxErr *errs.SyntaxError
	if errors.As(err, &syntaxErr) {
		fmt.Fprintln(os.Stderr, syntaxErr.Format())
		return
	}
	var runtimeErr *errs.RuntimeError
	if errors.As(err, &runtimeErr) {
		fmt.Fprintln(os.Stderr, runtimeErr.Format())
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func prepareFolder(folder string, cfg *config.AppConfig, logger *zap.Logger) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	builder := index.NewBuilder(extract.New(cfg.Runtime.TextChunkLines), embedding.NewHashEmbedder(), logger)
	stats, err := builder.Prepare(folder)
	if err != nil {
		return err
	}
	fmt.Printf("Prepared semantic index for %s\n", displayPath(stats.Root, cwd))
	fmt.Printf("Database: %s\n", displayPath(stats.DBPath, cwd))
	fmt.Printf("Indexed files: %d\n", stats.IndexedFiles)
	fmt.Printf("Indexed pages: %d\n", stats.IndexedPages)
	return nil
}

func runConsole(sandboxRoot string, cfg *config.AppConfig, logger *zap.Logger) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root := sandboxRoot
	if root == "" {
		root = cwd
	}
	in, err := interp.New(interp.Options{
		Cwd:            cwd,
		SandboxRoot:    root,
		TextChunkLines: cfg.Runtime.TextChunkLines,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	program := tea.NewProgram(tui.New(in, root), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func displayPath(path, cwd string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
