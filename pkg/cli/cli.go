// Package cli implements the timpcore command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/Fepozopo/timpcore/pkg/logging"
)

// CLI is the kong command tree.
type CLI struct {
	Debug bool `help:"Log tile and resample activity to stderr."`

	Scale    ScaleCmd    `cmd:"" help:"Resample an image to a new size."`
	Blur     BlurCmd     `cmd:"" help:"Gaussian blur an image."`
	Identify IdentifyCmd `cmd:"" help:"Show format, size and tile layout of an image."`
	Kinds    KindsCmd    `cmd:"" help:"List interpolation kinds."`
	Update   UpdateCmd   `cmd:"" help:"Check GitHub for a newer release."`
	Version  VersionCmd  `cmd:"" help:"Print the version."`
}

// Run parses args (without the program name) and runs the selected command.
// It returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	envFile := ".env"
	if v, ok := os.LookupEnv(EnvFile); ok {
		envFile = v
	}
	cfg, err := LoadConfig(envFile)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	var root CLI
	parser, err := kong.New(&root,
		kong.Name("timpcore"),
		kong.Description("Tiled image resampling and filtering."),
		kong.Vars(cfg.vars()),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(stderr, "timpcore: %v\n", err)
		return 2
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "timpcore: %v\n", err)
		return 2
	}

	if root.Debug || cfg.Debug {
		logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer logging.SetLogger(nil)
	}

	env := &Env{Config: cfg, Stdout: stdout, Stderr: stderr}
	if err := ctx.Run(env); err != nil {
		fmt.Fprintf(stderr, "timpcore %s: %v\n", ctx.Command(), err)
		return 1
	}
	return 0
}
