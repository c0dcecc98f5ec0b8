package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/log-word-counter/internal/count"
	"github.com/dtnitsch/log-word-counter/internal/launch"
	"github.com/dtnitsch/log-word-counter/internal/list"
	"github.com/dtnitsch/log-word-counter/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "lwc",
		Usage: "count words in a directory of log files across processes and threads",
		Commands: []*cli.Command{
			{
				Name:   "count",
				Usage:  "count words as one rank of a process group (standalone when --size is 1)",
				Flags:  count.CountFlags(),
				Action: count.CountAction,
			},
			{
				Name:      "run",
				Usage:     "start --procs ranks of 'lwc count' on this host and wait for them",
				ArgsUsage: "[-- count flags]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "procs", Aliases: []string{"n"}, Value: 2, Usage: "number of processes"},
					&cli.StringFlag{Name: "coordinator", Usage: "host:port for rank 0 (default: a free loopback port)"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
				},
				Action: launch.RunAction,
			},
			{
				Name:  "list",
				Usage: "show the matching files and which rank would count each",
				Flags: append(count.InputFlags(),
					&cli.IntFlag{Name: "size", Value: 1, Usage: "number of processes to assign files to"},
				),
				Action: list.ListAction,
			},
			{
				Name:  "quickstart",
				Usage: "print a YAML cheat sheet of commands, config keys and exit codes",
				Action: func(c *cli.Context) error {
					fmt.Print(help.QuickstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(count.ExitFailure)
	}
}
