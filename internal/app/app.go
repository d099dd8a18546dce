package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/rowjay/file-backup-utility/internal/config"
	"github.com/rowjay/file-backup-utility/internal/lock"
	"github.com/rowjay/file-backup-utility/internal/manifest"
	"github.com/rowjay/file-backup-utility/internal/notify"
	"github.com/rowjay/file-backup-utility/internal/util"
)

// Hasher computes a content digest for a file, streamed in chunks.
type Hasher interface {
	File(path string) (string, error)
	Algorithm() string
}

// FileCopier places files into the backup tree, creating parent
// directories on demand and preserving file metadata.
type FileCopier interface {
	EnsureRoot() error
	Path(key string) string
	Exists(key string) (bool, error)
	CopyFrom(src, key string) (int64, error)
}

// ManifestStore persists the mapping of tracked files.
type ManifestStore interface {
	Load(path string) (manifest.Manifest, error)
	Save(path string, m manifest.Manifest) error
}

type App struct {
	Cfg      *config.Config
	Hasher   Hasher
	Copier   FileCopier
	Store    ManifestStore
	Log      zerolog.Logger
	Notifier notify.Notifier
	Out      io.Writer
}

func New(cfg *config.Config, hasher Hasher, copier FileCopier, store ManifestStore, log zerolog.Logger, notifier notify.Notifier, out io.Writer) *App {
	return &App{Cfg: cfg, Hasher: hasher, Copier: copier, Store: store, Log: log, Notifier: notifier, Out: out}
}

// Summary describes one backup run.
type Summary struct {
	SourceRoot  string
	BackupRoot  string
	Scanned     int
	BackedUp    int
	Unchanged   int
	BytesCopied int64
	Elapsed     time.Duration
}

// Report describes one verification run. Path lists are sorted.
type Report struct {
	Total      int      `json:"total"`
	Missing    []string `json:"missing"`
	Mismatched []string `json:"mismatched"`
}

// Clean reports whether every entry passed verification.
func (r *Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Mismatched) == 0
}

func (a *App) Backup(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{SourceRoot: a.Cfg.Backup.Source, BackupRoot: a.Cfg.Backup.Target}
	var opErr error
	defer func() {
		if a.Notifier == nil {
			return
		}
		event := notify.Event{
			Type:           "backup",
			Message:        fmt.Sprintf("backup %s", a.Cfg.Backup.Source),
			Status:         statusFromErr(opErr),
			Source:         a.Cfg.Backup.Source,
			Target:         a.Cfg.Backup.Target,
			StartedAt:      start,
			EndedAt:        time.Now(),
			Duration:       time.Since(start).String(),
			FilesScanned:   summary.Scanned,
			FilesCopied:    summary.BackedUp,
			FilesUnchanged: summary.Unchanged,
		}
		if opErr != nil {
			event.Error = opErr.Error()
		}
		_ = a.Notifier.Notify(context.Background(), event)
	}()

	guard, err := lock.Acquire(a.Cfg.Global.LockFile)
	if err != nil {
		opErr = err
		return nil, err
	}
	defer guard.Release()

	ok, err := util.InWindow(time.Now(), a.Cfg.Schedule.WindowStart, a.Cfg.Schedule.WindowEnd, a.Cfg.Schedule.Timezone)
	if err != nil {
		opErr = err
		return nil, err
	}
	if !ok {
		opErr = fmt.Errorf("current time is outside configured backup window")
		return nil, opErr
	}

	if err := a.Copier.EnsureRoot(); err != nil {
		opErr = err
		return nil, err
	}

	manifestPath := a.Cfg.Backup.Manifest
	old, err := a.Store.Load(manifestPath)
	if err != nil {
		opErr = err
		return nil, err
	}
	next := old.Clone()

	// Files carrying the manifest's base name are never backed up, so a
	// manifest living inside the source tree does not track itself.
	reserved := filepath.Base(manifestPath)

	walkErr := filepath.WalkDir(a.Cfg.Backup.Source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			a.Log.Debug().Str("path", path).Msg("skipping non-regular file")
			return nil
		}
		if d.Name() == reserved {
			return nil
		}

		rel, err := util.RelKey(a.Cfg.Backup.Source, path)
		if err != nil {
			return err
		}
		hash, err := a.Hasher.File(path)
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", rel, err)
		}

		prior, tracked := old[rel]
		copyPresent, err := a.Copier.Exists(rel)
		if err != nil {
			return err
		}

		summary.Scanned++
		if tracked && prior.Hash == hash && copyPresent {
			summary.Unchanged++
			fmt.Fprintf(a.Out, "[SKIP] %s\n", rel)
			a.Log.Debug().Str("path", rel).Msg("unchanged")
			return nil
		}

		written, err := a.Copier.CopyFrom(path, rel)
		if err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		if a.Cfg.Backup.PostCopyVerify {
			copyHash, err := a.Hasher.File(a.Copier.Path(rel))
			if err != nil {
				return fmt.Errorf("re-fingerprint %s: %w", rel, err)
			}
			if copyHash != hash {
				return fmt.Errorf("post-copy verification failed for %s: copy does not match source", rel)
			}
		}
		next[rel] = manifest.Entry{
			Hash:           hash,
			LastBackupTime: time.Now().UTC(),
			BackupPath:     a.Copier.Path(rel),
		}
		summary.BackedUp++
		summary.BytesCopied += written
		fmt.Fprintf(a.Out, "[BACKUP] %s\n", rel)
		a.Log.Debug().Str("path", rel).Msg("backed up")
		return nil
	})
	if walkErr != nil {
		opErr = walkErr
		return nil, walkErr
	}

	if err := a.Store.Save(manifestPath, next); err != nil {
		opErr = fmt.Errorf("save manifest: %w", err)
		return nil, opErr
	}

	summary.Elapsed = time.Since(start)
	a.Log.Info().
		Str("algorithm", a.Hasher.Algorithm()).
		Int("scanned", summary.Scanned).
		Int("backed_up", summary.BackedUp).
		Int("unchanged", summary.Unchanged).
		Dur("elapsed", summary.Elapsed).
		Msg("backup complete")
	return summary, nil
}

func (a *App) Verify(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{Missing: []string{}, Mismatched: []string{}}
	var opErr error
	defer func() {
		if a.Notifier == nil {
			return
		}
		event := notify.Event{
			Type:          "verify",
			Message:       fmt.Sprintf("verify %s", a.Cfg.Backup.Target),
			Status:        statusFromErr(opErr),
			Source:        a.Cfg.Backup.Source,
			Target:        a.Cfg.Backup.Target,
			StartedAt:     start,
			EndedAt:       time.Now(),
			Duration:      time.Since(start).String(),
			FilesScanned:  report.Total,
			FilesMissing:  len(report.Missing),
			FilesMismatch: len(report.Mismatched),
		}
		if opErr != nil {
			event.Error = opErr.Error()
		}
		_ = a.Notifier.Notify(context.Background(), event)
	}()

	m, err := a.Store.Load(a.Cfg.Backup.Manifest)
	if err != nil {
		opErr = err
		return nil, err
	}
	report.Total = len(m)
	if report.Total == 0 {
		return report, nil
	}

	for _, rel := range m.Paths() {
		if err := ctx.Err(); err != nil {
			opErr = err
			return nil, err
		}
		present, err := a.Copier.Exists(rel)
		if err != nil {
			opErr = err
			return nil, err
		}
		if !present {
			report.Missing = append(report.Missing, rel)
			continue
		}
		hash, err := a.Hasher.File(a.Copier.Path(rel))
		if err != nil {
			opErr = fmt.Errorf("fingerprint %s: %w", rel, err)
			return nil, opErr
		}
		if hash != m[rel].Hash {
			report.Mismatched = append(report.Mismatched, rel)
		}
	}

	a.Log.Info().
		Str("algorithm", a.Hasher.Algorithm()).
		Int("total", report.Total).
		Int("missing", len(report.Missing)).
		Int("mismatched", len(report.Mismatched)).
		Msg("verification complete")
	return report, nil
}

// RenderSummary writes the human-readable results of a backup run.
func RenderSummary(w io.Writer, s *Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Backup Summary ===")
	fmt.Fprintf(w, "Source directory     : %s\n", s.SourceRoot)
	fmt.Fprintf(w, "Backup directory     : %s\n", s.BackupRoot)
	fmt.Fprintf(w, "Total files scanned  : %d\n", s.Scanned)
	fmt.Fprintf(w, "Files backed up      : %d\n", s.BackedUp)
	fmt.Fprintf(w, "Files unchanged      : %d\n", s.Unchanged)
	fmt.Fprintf(w, "Bytes copied         : %s\n", humanize.Bytes(uint64(s.BytesCopied)))
	fmt.Fprintf(w, "Time taken (seconds) : %.2f\n", s.Elapsed.Seconds())
}

// RenderReport writes the human-readable results of a verification run.
func RenderReport(w io.Writer, r *Report) {
	if r.Total == 0 {
		fmt.Fprintln(w, "No manifest found. Run a backup first.")
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Integrity Check Report ===")
	fmt.Fprintf(w, "Total files in manifest : %d\n", r.Total)
	fmt.Fprintf(w, "Missing files           : %d\n", len(r.Missing))
	fmt.Fprintf(w, "Hash mismatches         : %d\n", len(r.Mismatched))
	if len(r.Missing) > 0 {
		fmt.Fprintln(w, "\nMissing from backup:")
		for _, path := range r.Missing {
			fmt.Fprintf(w, "    %s\n", path)
		}
	}
	if len(r.Mismatched) > 0 {
		fmt.Fprintln(w, "\nChanged or corrupted in backup:")
		for _, path := range r.Mismatched {
			fmt.Fprintf(w, "    %s\n", path)
		}
	}
	if r.Clean() {
		fmt.Fprintln(w, "\nAll backed up files passed integrity check.")
	}
}

func statusFromErr(err error) string {
	if err == nil {
		return "success"
	}
	return "failed"
}
