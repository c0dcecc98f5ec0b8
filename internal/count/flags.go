package count

import (
	"github.com/dtnitsch/log-word-counter/models"
	"github.com/dtnitsch/log-word-counter/pkg/cluster"
	"github.com/urfave/cli/v2"
)

// InputFlags select and parse the files to count.
func InputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
		&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Value: models.DefaultDir, Usage: "directory holding the log files"},
		&cli.StringFlag{Name: "suffix", Value: models.DefaultSuffix, Usage: "substring a file name must contain"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: models.DefaultFormat, Usage: "summary format: text, json or yaml"},
	}
}

// CountFlags are the flags of the count command.
func CountFlags() []cli.Flag {
	flags := InputFlags()
	flags = append(flags,
		&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Usage: "worker goroutines per process (default: number of CPUs)"},
		&cli.IntFlag{Name: "max-line-bytes", Value: models.DefaultMaxLineBytes, Usage: "bytes of a line that are tokenized"},
		&cli.StringFlag{Name: "delimiters", Value: models.DefaultDelimiters, Usage: "bytes that separate words"},
		&cli.BoolFlag{Name: "progress", Value: true, Usage: "print per-thread progress lines"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
	)
	return append(flags, ClusterFlags()...)
}

// ClusterFlags place this process in its group. The launcher sets them
// through the environment.
func ClusterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "rank", EnvVars: []string{"LWC_RANK"}, Usage: "this process's rank"},
		&cli.IntFlag{Name: "size", EnvVars: []string{"LWC_SIZE"}, Value: 1, Usage: "number of processes in the group"},
		&cli.StringFlag{Name: "coordinator", EnvVars: []string{"LWC_COORDINATOR"}, Usage: "host:port rank 0 listens on"},
		&cli.StringFlag{Name: "job", EnvVars: []string{"LWC_JOB"}, Usage: "job id shared by every process of a run"},
		&cli.DurationFlag{Name: "dial-timeout", Value: cluster.DefaultDialTimeout, Usage: "how long to wait for the coordinator"},
	}
}
