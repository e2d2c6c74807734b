package elevutils

import (
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/szymonmasternak/area51-elevator/internal/elevconfig"
)

//go:generate sh -c "printf %s $(git rev-parse HEAD) > githash.txt"
//go:embed githash.txt
var gitHash string

func GetGitHash() string {
	return strings.TrimSpace(gitHash)
}

type CmdArgs struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	Duration   time.Duration
	Help       bool
	Version    bool

	durationSet bool
}

func newFlagSet(cmdArgs *CmdArgs, output io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet("area51", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.BoolVar(&cmdArgs.Help, "help", false, "Show Help Window")
	flags.BoolVar(&cmdArgs.Version, "version", false, "Show Version")
	flags.StringVar(&cmdArgs.ConfigPath, "config", "", "Path to a YAML config file. Defaults to the built-in base layout")
	flags.StringVar(&cmdArgs.EnvFile, "env", "", "Path to a .env file with AREA51_* overrides")
	flags.StringVar(&cmdArgs.LogLevel, "loglevel", "", "Override the log level (trace, debug, info, warn, error)")
	flags.DurationVar(&cmdArgs.Duration, "duration", 0, "Override how long the base stays open, e.g. 30s. 0 runs until interrupted")
	return flags
}

// ParseCmdArgs parses args without the program name. Usage errors are
// written to output.
func ParseCmdArgs(args []string, output io.Writer) (CmdArgs, error) {
	cmdArgs := CmdArgs{}
	flags := newFlagSet(&cmdArgs, output)

	if err := flags.Parse(args); err != nil {
		return cmdArgs, err
	}
	if flags.NArg() > 0 {
		return cmdArgs, fmt.Errorf("unexpected arguments %v", flags.Args())
	}
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "duration" {
			cmdArgs.durationSet = true
		}
	})
	return cmdArgs, nil
}

// ApplyOverrides lets flags given on the command line win over the config.
func (cmdArgs CmdArgs) ApplyOverrides(cfg *elevconfig.Config) {
	if cmdArgs.durationSet {
		cfg.Duration = cmdArgs.Duration
	}
	if cmdArgs.LogLevel != "" {
		cfg.LogLevel = cmdArgs.LogLevel
	}
}

func PrintHelp(output io.Writer) {
	fmt.Fprintln(output, "Usage: ./area51 [OPTIONS]")
	fmt.Fprintln(output, "Area 51 shared elevator simulation")
	fmt.Fprintln(output)
	fmt.Fprintln(output, "Options:")
	newFlagSet(&CmdArgs{}, output).PrintDefaults()
	fmt.Fprintln(output)
	fmt.Fprintln(output, "Press any key or Ctrl+C to close the base early.")
}

func ProcessCmdArgs() CmdArgs {
	cmdArgs, err := ParseCmdArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		cmdArgs.Help = true
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cmdArgs.Version {
		fmt.Println("Version:", GetGitHash())
		os.Exit(0)
	}

	if cmdArgs.Help {
		PrintHelp(os.Stdout)
		os.Exit(0)
	}

	return cmdArgs
}
