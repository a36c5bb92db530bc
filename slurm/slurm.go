// Package slurm talks to a SLURM cluster through its command line
// tools. Submissions go through sbatch, status queries through squeue
// with an sacct fallback for jobs that already left the queue.
package slurm

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/benchfarm/jobrunner"
)

// Scheduler submits directives with sbatch and reads states back with
// squeue/sacct.
type Scheduler struct {
	// Sbatch, Squeue and Sacct are the executables to call.
	// Empty means the command of the same name on PATH.
	Sbatch string
	Squeue string
	Sacct  string
}

func (s *Scheduler) sbatch() string {
	if s.Sbatch == "" {
		return "sbatch"
	}
	return s.Sbatch
}

func (s *Scheduler) squeue() string {
	if s.Squeue == "" {
		return "squeue"
	}
	return s.Squeue
}

func (s *Scheduler) sacct() string {
	if s.Sacct == "" {
		return "sacct"
	}
	return s.Sacct
}

// Submit hands one directive to sbatch and returns the job id sbatch
// printed back.
func (s *Scheduler) Submit(ctx context.Context, d jobrunner.Directive) (string, error) {
	args := SbatchArgs(d)
	cmd := exec.CommandContext(ctx, s.sbatch(), args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("sbatch: %v: %s", err, out)
	}
	return ParseSubmitOutput(string(out))
}

// SbatchArgs renders a directive as sbatch arguments.
func SbatchArgs(d jobrunner.Directive) []string {
	args := []string{
		"--parsable",
		"--job-name=" + d.Name,
		"--chdir=" + d.WorkDir,
		"--output=" + filepath.Join(d.WorkDir, "stdout.log"),
		"--error=" + filepath.Join(d.WorkDir, "stderr.log"),
	}
	args = append(args, d.Args...)
	if d.Dependency != "" {
		args = append(args, "--dependency="+d.Dependency)
	}
	args = append(args, d.Script)
	return args
}

// ParseSubmitOutput extracts the job id from sbatch --parsable output.
// The output is "<jobid>" or "<jobid>;<cluster>".
func ParseSubmitOutput(out string) (string, error) {
	line := strings.TrimSpace(out)
	if i := strings.Index(line, ";"); i != -1 {
		line = line[:i]
	}
	if line == "" {
		return "", fmt.Errorf("no job id in sbatch output: %q", out)
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid job id in sbatch output: %q", out)
		}
	}
	return line, nil
}

// QueryStatus reads the job's state. It asks squeue first; when the
// job isn't in the queue anymore it falls back to sacct for the final
// state.
func (s *Scheduler) QueryStatus(ctx context.Context, externalID string) (jobrunner.JobState, error) {
	cmd := exec.CommandContext(ctx, s.squeue(), "-h", "-o", "%T", "-j", externalID)
	out, err := cmd.Output()
	if err == nil && strings.TrimSpace(string(out)) != "" {
		return StateFromName(firstLine(string(out)))
	}
	cmd = exec.CommandContext(ctx, s.sacct(), "-n", "-X", "-o", "State", "-j", externalID)
	out, err = cmd.Output()
	if err != nil {
		return jobrunner.StatePending, fmt.Errorf("sacct: %v", err)
	}
	line := firstLine(string(out))
	if line == "" {
		return jobrunner.StatePending, fmt.Errorf("no state for job %v", externalID)
	}
	return StateFromName(line)
}

func firstLine(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(line)
}

// StateFromName maps a SLURM state name to a JobState.
// Trailing "+" markers from sacct, eg. "CANCELLED+", are accepted.
func StateFromName(name string) (jobrunner.JobState, error) {
	name = strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(name), "+"))
	// CANCELLED can come as "CANCELLED by <uid>".
	if strings.HasPrefix(name, "CANCELLED") {
		return jobrunner.StateFailed, nil
	}
	switch name {
	case "PENDING", "CONFIGURING", "REQUEUED", "RESIZING", "SUSPENDED":
		return jobrunner.StatePending, nil
	case "RUNNING", "COMPLETING", "STAGE_OUT":
		return jobrunner.StateRunning, nil
	case "COMPLETED":
		return jobrunner.StateSucceeded, nil
	case "FAILED", "TIMEOUT", "OUT_OF_MEMORY", "NODE_FAIL", "PREEMPTED", "BOOT_FAIL", "DEADLINE", "REVOKED":
		return jobrunner.StateFailed, nil
	}
	return jobrunner.StatePending, fmt.Errorf("unknown slurm state: %v", name)
}
