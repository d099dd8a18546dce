package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rowjay/file-backup-utility/internal/app"
	"github.com/rowjay/file-backup-utility/internal/config"
	"github.com/rowjay/file-backup-utility/internal/fingerprint"
	"github.com/rowjay/file-backup-utility/internal/logging"
	"github.com/rowjay/file-backup-utility/internal/manifest"
	"github.com/rowjay/file-backup-utility/internal/notify"
	"github.com/rowjay/file-backup-utility/internal/storage"
	"github.com/rowjay/file-backup-utility/internal/util"
	"github.com/rowjay/file-backup-utility/internal/version"
)

type rootFlags struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Source     string
	Backup     string
	Manifest   string
	Verify     bool
	Output     string
}

func main() {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "fbu",
		Short: "Incremental file backup and integrity checker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "Path to config file (yaml/toml/json)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "Log format (json, console)")

	rootCmd.Flags().StringVar(&flags.Source, "source", "", "Source directory to scan")
	rootCmd.Flags().StringVar(&flags.Backup, "backup", "", "Backup directory where copies are stored")
	rootCmd.Flags().BoolVar(&flags.Verify, "verify", false, "Run integrity verification instead of backup")
	rootCmd.Flags().StringVar(&flags.Manifest, "manifest", "", "Path to manifest file (default: manifest.json in the current directory)")
	rootCmd.Flags().StringVar(&flags.Output, "output", "", "Verification output format (table, json)")

	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := logging.Configure(os.Stderr, cfg.Global.LogLevel, cfg.Global.LogFormat)

	if cfg.Backup.Source == "" {
		return fmt.Errorf("--source is required")
	}
	if cfg.Backup.Target == "" {
		return fmt.Errorf("--backup is required")
	}
	if err := resolvePaths(cfg); err != nil {
		return err
	}

	info, err := os.Stat(cfg.Backup.Source)
	if err != nil {
		return fmt.Errorf("source directory does not exist: %s", cfg.Backup.Source)
	}
	if !info.IsDir() {
		return fmt.Errorf("source is not a directory: %s", cfg.Backup.Source)
	}
	nested, err := util.Within(cfg.Backup.Source, cfg.Backup.Target)
	if err != nil {
		return err
	}
	if nested {
		return fmt.Errorf("backup directory %s must not live inside the source tree", cfg.Backup.Target)
	}

	appSvc, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Global.OperationTimeout)
	defer cancel()

	if flags.Verify {
		report, err := appSvc.Verify(ctx)
		if err != nil {
			return err
		}
		return renderReport(os.Stdout, report, cfg.Verify.Output)
	}

	summary, err := appSvc.Backup(ctx)
	if err != nil {
		return err
	}
	app.RenderSummary(os.Stdout, summary)
	return nil
}

func newListCmd(root *rootFlags) *cobra.Command {
	var manifestPath string
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files tracked by the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}
			if root.LogLevel != "" {
				cfg.Global.LogLevel = root.LogLevel
			}
			if root.LogFormat != "" {
				cfg.Global.LogFormat = root.LogFormat
			}
			if manifestPath != "" {
				cfg.Backup.Manifest = manifestPath
			}
			if cfg.Backup.Manifest == "" {
				cfg.Backup.Manifest = manifest.DefaultFileName
			}
			if output != "" {
				cfg.Verify.Output = output
			}

			logger := logging.Configure(os.Stderr, cfg.Global.LogLevel, cfg.Global.LogFormat)
			store := manifest.NewJSONStore(logger)
			m, err := store.Load(cfg.Backup.Manifest)
			if err != nil {
				return err
			}
			return renderList(os.Stdout, m, cfg.Verify.Output)
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to manifest file")
	cmd.Flags().StringVar(&output, "output", "", "Output format (table, json)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fbu %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, flags)
	return cfg, nil
}

func applyOverrides(cfg *config.Config, flags *rootFlags) {
	if flags.LogLevel != "" {
		cfg.Global.LogLevel = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Global.LogFormat = flags.LogFormat
	}
	if flags.Source != "" {
		cfg.Backup.Source = flags.Source
	}
	if flags.Backup != "" {
		cfg.Backup.Target = flags.Backup
	}
	if flags.Manifest != "" {
		cfg.Backup.Manifest = flags.Manifest
	}
	if flags.Output != "" {
		cfg.Verify.Output = strings.ToLower(flags.Output)
	}
}

func resolvePaths(cfg *config.Config) error {
	source, err := filepath.Abs(cfg.Backup.Source)
	if err != nil {
		return err
	}
	cfg.Backup.Source = source

	target, err := filepath.Abs(cfg.Backup.Target)
	if err != nil {
		return err
	}
	cfg.Backup.Target = target

	if cfg.Backup.Manifest == "" {
		cfg.Backup.Manifest = manifest.DefaultFileName
	}
	manifestPath, err := filepath.Abs(cfg.Backup.Manifest)
	if err != nil {
		return err
	}
	cfg.Backup.Manifest = manifestPath
	return nil
}

func buildApp(cfg *config.Config, logger zerolog.Logger) (*app.App, error) {
	hasher, err := fingerprint.New(cfg.Backup.HashAlgorithm, cfg.Backup.ChunkSize)
	if err != nil {
		return nil, err
	}
	copier := storage.NewLocal(cfg.Backup.Target)
	store := manifest.NewJSONStore(logger)
	return app.New(cfg, hasher, copier, store, logger, notify.FromConfig(cfg.Notifications), os.Stdout), nil
}

func renderReport(w io.Writer, report *app.Report, format string) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	app.RenderReport(w, report)
	return nil
}

func renderList(w io.Writer, m manifest.Manifest, format string) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	if len(m) == 0 {
		fmt.Fprintln(w, "No files tracked. Run a backup first.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tFINGERPRINT\tLAST BACKUP\tBACKUP PATH")
	for _, rel := range m.Paths() {
		entry := m[rel]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rel, shortDigest(entry.Hash), entry.LastBackupTime.Format(time.RFC3339), entry.BackupPath)
	}
	return tw.Flush()
}

func shortDigest(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
