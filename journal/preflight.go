package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

const preflightTimeout = 2 * time.Second

// PreflightResult reports how an existing journal file looked before Open.
type PreflightResult struct {
	Healthy        bool
	Quarantined    bool
	QuarantinePath string // main file only; sidecars get the same suffix
	Elapsed        time.Duration
	Err            error // checkpoint or quick_check failure that caused quarantine
}

// Preflight runs a bounded WAL checkpoint and quick_check on an existing
// journal. A damaged file is renamed aside (with its sidecars) so Open can
// start a fresh one. A missing file is healthy.
func Preflight(path string, timeout time.Duration) (PreflightResult, error) {
	var res PreflightResult
	if strings.TrimSpace(path) == "" {
		return res, errors.New("journal: preflight: empty path")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		res.Healthy = true
		return res, nil
	}
	if timeout <= 0 {
		timeout = preflightTimeout
	}
	start := time.Now()
	existing := sidecarsOf(path)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return res, fmt.Errorf("journal: preflight open: %w", err)
	}
	db.SetMaxOpenConns(1)
	checkErr := checkDB(ctx, db, timeout)
	_ = db.Close()
	res.Elapsed = time.Since(start)
	if checkErr == nil {
		res.Healthy = true
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("journal: preflight timed out after %s", timeout)
	}

	dest, err := quarantine(path, existing)
	if err != nil {
		return res, fmt.Errorf("journal: quarantine failed: %w (check: %v)", err, checkErr)
	}
	res.Quarantined = true
	res.QuarantinePath = dest
	res.Err = checkErr
	log.Printf("Journal: %s failed preflight (%v); moved to %s", path, checkErr, dest)
	return res, nil
}

func checkDB(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("pragma busy_timeout=%d", timeout.Milliseconds())); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "pragma wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	rows, err := db.QueryContext(ctx, "pragma quick_check")
	if err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return err
		}
		if strings.TrimSpace(status) != "ok" {
			return fmt.Errorf("quick_check reported %q", status)
		}
	}
	return rows.Err()
}

func sidecarsOf(path string) []string {
	var out []string
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func quarantine(path string, existing []string) (string, error) {
	suffix := ".bad-" + time.Now().UTC().Format("20060102T150405Z")
	for _, p := range existing {
		if err := os.Rename(p, p+suffix); err != nil {
			if os.IsNotExist(err) {
				// sidecars can vanish after the checkpoint
				continue
			}
			return "", err
		}
	}
	return path + suffix, nil
}
