package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup errors.
var (
	ErrBackupExists  = errors.New("backup already exists")
	ErrInvalidBackup = errors.New("invalid backup tag")
)

// BackupInfo describes one database snapshot.
type BackupInfo struct {
	CreatedAt     time.Time `json:"created_at"`
	Tag           string    `json:"tag"`
	Path          string    `json:"path"`
	FileSize      int64     `json:"file_size"`
	Transactions  int       `json:"transactions"`
	Categories    int       `json:"categories"`
	SchemaVersion int       `json:"schema_version"`
}

// BackupDir returns the default backup directory, next to the database file.
func (s *SQLiteStorage) BackupDir() string {
	return BackupDirFor(s.dbPath)
}

// BackupDirFor returns the backup directory used for the database at dbPath.
func BackupDirFor(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

// Backup writes a consistent snapshot of the database to dir/<tag>.db along
// with a JSON metadata file. An empty tag is replaced by a timestamp.
func (s *SQLiteStorage) Backup(ctx context.Context, dir, tag string) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	if tag == "" {
		tag = "backup-" + time.Now().Format("2006-01-02-150405")
	}
	if strings.ContainsAny(tag, `/\'";`) || strings.Contains(tag, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackup, tag)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	destPath := filepath.Join(dir, tag+".db")
	if _, err := os.Stat(destPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupExists, tag)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	info := &BackupInfo{
		Tag:           tag,
		Path:          destPath,
		CreatedAt:     time.Now(),
		SchemaVersion: version,
	}
	count, err := s.CountTransactions(ctx)
	if err != nil {
		return nil, err
	}
	info.Transactions = count
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&info.Categories); err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return nil, fmt.Errorf("failed to back up database: %w", err)
	}

	stat, err := os.Stat(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	info.FileSize = stat.Size()

	metadata, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, tag+".meta.json"), metadata, 0600); err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil {
			slog.Error("failed to remove backup after metadata write failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save backup metadata: %w", err)
	}

	slog.Info("created backup", "tag", tag, "path", destPath, "transactions", info.Transactions)
	return info, nil
}

// ListBackups returns the backups in dir, newest first. Unreadable metadata
// files are skipped.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 - listing our own backup dir
		if err != nil {
			slog.Debug("skipping unreadable backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		var info BackupInfo
		if err := json.Unmarshal(data, &info); err != nil {
			slog.Debug("skipping corrupt backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}
