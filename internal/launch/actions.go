package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// Plan describes one multi-process run started from this host.
type Plan struct {
	Exe   string
	Args  []string
	Procs int
	Addr  string
	JobID string
}

// ChildEnv returns the environment that places a child at rank in the plan's group.
func (p Plan) ChildEnv(rank int) []string {
	return []string{
		"LWC_RANK=" + strconv.Itoa(rank),
		"LWC_SIZE=" + strconv.Itoa(p.Procs),
		"LWC_COORDINATOR=" + p.Addr,
		"LWC_JOB=" + p.JobID,
	}
}

func RunAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	procs := c.Int("procs")
	if procs < 1 {
		return cli.Exit(fmt.Sprintf("--procs must be >= 1, got %d", procs), 2)
	}

	exe, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to locate executable: %v", err), 2)
	}

	addr := c.String("coordinator")
	if addr == "" {
		addr, err = FreeAddr()
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to pick coordinator address: %v", err), 2)
		}
	}

	plan := Plan{
		Exe:   exe,
		Args:  append([]string{"count"}, c.Args().Slice()...),
		Procs: procs,
		Addr:  addr,
		JobID: uuid.NewString(),
	}
	logger.Info("Launching processes", "procs", plan.Procs, "coordinator", plan.Addr, "job", plan.JobID)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	code, err := Launch(ctx, plan, os.Stdout, os.Stderr, logger)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

// Launch starts every rank of plan, waits for all of them and returns the
// highest child exit code.
func Launch(ctx context.Context, plan Plan, stdout, stderr io.Writer, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cmds := make([]*exec.Cmd, 0, plan.Procs)
	for rank := 0; rank < plan.Procs; rank++ {
		cmd := exec.CommandContext(ctx, plan.Exe, plan.Args...)
		cmd.Env = append(os.Environ(), plan.ChildEnv(rank)...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Start(); err != nil {
			for _, started := range cmds {
				started.Process.Kill()
				started.Wait()
			}
			return 0, fmt.Errorf("failed to start rank %d: %w", rank, err)
		}
		cmds = append(cmds, cmd)
	}

	worst := 0
	for rank, cmd := range cmds {
		code := exitCode(cmd.Wait())
		if code != 0 {
			logger.Warn("Process exited with error", "rank", rank, "exit_code", code)
		}
		worst = max(worst, code)
	}
	return worst, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() > 0 {
		return ee.ExitCode()
	}
	return 2
}

// FreeAddr returns a loopback address with a port that was free a moment ago.
func FreeAddr() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer ln.Close()
	return ln.Addr().String(), nil
}
