package operations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ligouras/locize-backup-docker/internal/locize"
	"github.com/ligouras/locize-backup-docker/internal/retry"
	"github.com/ligouras/locize-backup-docker/internal/storage"
	"github.com/ligouras/locize-backup-docker/internal/version"
)

// ErrPairsFailed is returned when a run completes but at least one
// (language, namespace) pair could not be backed up.
var ErrPairsFailed = errors.New("backup completed with failures")

// RunResult accumulates the outcome of one run. It is owned exclusively
// by the Operator for the run's duration.
type RunResult struct {
	Timestamp   string
	Total       int
	Successful  int
	Failed      int
	FailedPairs []string
}

// Run executes one backup run end to end. It returns nil when the gate
// skips the run or every pair succeeds, ErrPairsFailed when any pair
// failed, and the context error when interrupted.
func (op *Operator) Run(ctx context.Context, force bool) error {
	summariesDir := filepath.Join(op.cfg.OutputDir, SummariesDirName)

	latest, err := FindLatestSummary(summariesDir)
	if err != nil {
		op.log.Warn("could not inspect previous summaries", "error", err.Error())
	}

	now := op.now().UTC()
	decision := ShouldBackup(latest, now, force)
	if !decision.Proceed {
		op.log.Info("backup skipped, last run is too recent",
			"last_run", latest.Timestamp,
			"next_backup_in_hours", decision.WaitHours(),
		)
		return nil
	}
	if decision.Reason == ReasonUnparsable {
		op.log.Warn("previous summary record is unparsable, proceeding",
			"timestamp", latest.Timestamp,
		)
	}

	ts := now.Format(TimestampLayout)
	datePath := now.Format("2006/01/02")
	workDir := filepath.Join(op.cfg.OutputDir, datePath)

	result := RunResult{
		Timestamp:   ts,
		Total:       len(op.cfg.Languages) * len(op.cfg.Namespaces),
		FailedPairs: []string{},
	}

	op.log.Info("backup run started",
		"project", op.cfg.ProjectID,
		"version", op.client.Version(),
		"languages", len(op.cfg.Languages),
		"namespaces", len(op.cfg.Namespaces),
		"pairs", result.Total,
		"remote", op.store != nil,
	)

	start := time.Now()
	interrupted := false
	i := 0

pairs:
	for _, language := range op.cfg.Languages {
		for _, namespace := range op.cfg.Namespaces {
			if ctx.Err() != nil {
				interrupted = true
				break pairs
			}
			i++

			pair := language + "/" + namespace
			if err := op.processPair(ctx, language, namespace, ts, datePath, workDir); err != nil {
				result.Failed++
				result.FailedPairs = append(result.FailedPairs, pair)
				op.log.Error("pair failed", "pair", pair, "error", err.Error())
			} else {
				result.Successful++
				op.log.Info("pair backed up", "pair", pair)
			}

			if i < result.Total {
				sleepCtx(ctx, op.cfg.RateLimitDelay)
			}
		}
	}

	if interrupted {
		// Drop the partial working directory; summaries stay untouched.
		if err := os.RemoveAll(workDir); err != nil {
			op.log.Error("could not remove working directory", "dir", workDir, "error", err.Error())
		}
		op.log.Warn("run interrupted, working directory removed", "dir", workDir)
		return ctx.Err()
	}

	if op.cfg.CleanupLocalFiles && result.Successful > 0 {
		if err := os.RemoveAll(workDir); err != nil {
			op.log.Error("cleanup failed", "dir", workDir, "error", err.Error())
		} else {
			op.log.Info("local working directory removed", "dir", workDir)
		}
	}

	op.report(result, now, summariesDir)

	op.log.Info("backup run finished",
		"total", result.Total,
		"successful", result.Successful,
		"failed", result.Failed,
		"duration", time.Since(start).String(),
	)

	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d pairs failed", ErrPairsFailed, result.Failed, result.Total)
	}
	return nil
}

// processPair fetches one bundle and, in remote mode, uploads it. Both
// steps use the bounded retry policy from the configuration.
func (op *Operator) processPair(ctx context.Context, language, namespace, ts, datePath, workDir string) error {
	filename := fmt.Sprintf("%s-%s-%s.json", namespace, language, ts)
	destPath := filepath.Join(workDir, filename)

	err := retry.Do(ctx, "fetch "+language+"/"+namespace,
		op.cfg.MaxRetries, op.cfg.RetryDelay,
		func() error {
			actx := ctx
			if op.cfg.FetchTimeout > 0 {
				var cancel context.CancelFunc
				actx, cancel = context.WithTimeout(ctx, op.cfg.FetchTimeout)
				defer cancel()
			}
			return op.client.Download(actx, language, namespace, destPath)
		}, locize.IsRetryable)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	localPath := destPath
	if op.cfg.Compress {
		localPath, err = CompressZstd(destPath)
		if err != nil {
			return fmt.Errorf("compress: %w", err)
		}
	}

	if op.store != nil {
		key := datePath + "/" + filepath.Base(localPath)
		err := retry.Do(ctx, "upload "+key,
			op.cfg.MaxRetries, op.cfg.RetryDelay,
			func() error {
				return op.store.Upload(ctx, localPath, key, op.client.Version())
			}, storage.IsRetryable)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
	}

	return nil
}

// report builds and delivers the run's single summary record. Delivery
// failures are logged but never change the run's outcome.
func (op *Operator) report(result RunResult, now time.Time, summariesDir string) {
	rec := &SummaryRecord{
		Timestamp:         result.Timestamp,
		ProjectID:         op.cfg.ProjectID,
		Version:           op.client.Version(),
		BackupDate:        now.Format("2006-01-02 15:04:05 UTC"),
		TotalCombinations: result.Total,
		Successful:        result.Successful,
		Failed:            result.Failed,
		SuccessRate:       SuccessRate(result.Successful, result.Total),
		FailedPairs:       result.FailedPairs,
		StorageType:       "local",
		StorageLocation:   op.cfg.OutputDir,
		ToolVersion:       version.Version,
	}
	if op.store != nil {
		rec.StorageType = "s3"
		rec.StorageLocation = op.store.Location()
	}

	localPath, err := rec.Write(summariesDir)
	if err != nil {
		op.log.Error("could not write summary record", "error", err.Error())
	}

	if op.store == nil {
		if localPath != "" {
			op.log.Info("summary written", "path", localPath)
		}
		return
	}

	data, err := rec.Marshal()
	if err != nil {
		op.log.Error("could not encode summary record", "error", err.Error())
		return
	}

	key := SummariesDirName + "/" + rec.Filename()
	err = retry.Do(context.Background(), "upload "+key,
		op.cfg.MaxRetries, op.cfg.RetryDelay,
		func() error {
			return op.store.UploadBytes(context.Background(), key, data, op.client.Version())
		}, storage.IsRetryable)
	if err != nil {
		op.log.Error("summary delivery failed, keeping local copy",
			"key", key, "error", err.Error())
		return
	}

	op.log.Info("summary uploaded", "key", key)

	// Remove the local copy only after a confirmed remote write.
	if op.cfg.CleanupLocalFiles && localPath != "" {
		if err := os.Remove(localPath); err != nil {
			op.log.Warn("could not remove local summary", "path", localPath, "error", err.Error())
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
