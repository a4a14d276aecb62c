package operations

import "time"

// BackupInterval is the minimum spacing between two runs.
const BackupInterval = 24 * time.Hour

// Gate reasons, recorded in logs.
const (
	ReasonFirstRun        = "first-run"
	ReasonUnparsable      = "unparsable-record"
	ReasonIntervalElapsed = "interval-elapsed"
	ReasonForced          = "forced"
	ReasonTooRecent       = "too-recent"
)

// GateDecision is the outcome of the timestamp gate.
type GateDecision struct {
	Proceed bool
	Reason  string
	// Wait is the remaining time until the next run is due, set only
	// when Proceed is false.
	Wait time.Duration
}

// ShouldBackup decides whether a new run may start, given the most recent
// summary record (nil when none exists), the current time, and the force
// flag. A missing or unparsable record never blocks the run.
func ShouldBackup(latest *SummaryRecord, now time.Time, force bool) GateDecision {
	if latest == nil {
		return GateDecision{Proceed: true, Reason: ReasonFirstRun}
	}

	last, err := time.ParseInLocation(TimestampLayout, latest.Timestamp, time.UTC)
	if err != nil {
		return GateDecision{Proceed: true, Reason: ReasonUnparsable}
	}

	elapsed := now.UTC().Sub(last)
	if elapsed >= BackupInterval {
		return GateDecision{Proceed: true, Reason: ReasonIntervalElapsed}
	}
	if force {
		return GateDecision{Proceed: true, Reason: ReasonForced}
	}
	return GateDecision{Proceed: false, Reason: ReasonTooRecent, Wait: BackupInterval - elapsed}
}

// WaitHours reports the remaining wait rounded to whole hours, for the
// skip log line.
func (d GateDecision) WaitHours() int {
	return int(d.Wait.Round(time.Hour) / time.Hour)
}
