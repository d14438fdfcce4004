// Command boosterctl inspects and edits volume booster settings stored in a
// YAML file, applying every change through the same command surface the
// page engine uses and printing the resulting processing chain.
//
// Usage:
//
//	boosterctl [--settings path] [--verbose] <command> [args]
//
// Examples:
//
//	boosterctl show
//	boosterctl enable
//	boosterctl gain 6
//	boosterctl compressor --threshold -30 --ratio 6
//	boosterctl limiter --threshold -1.5
//	boosterctl preset voice
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/cwbudde/algo-boost/booster"
	"github.com/cwbudde/algo-boost/dom"
	"github.com/cwbudde/algo-boost/dsp/graph"
	"github.com/cwbudde/algo-boost/store"
)

func main() {
	if err := run(context.Background(), os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "boosterctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := &cli.Command{
		Name:      "boosterctl",
		Usage:     "inspect and edit volume booster settings",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Value:   defaultSettingsPath(),
				Usage:   "YAML settings file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log engine activity",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "print the current settings and chain",
				Action: apply(nil),
			},
			{
				Name:   "enable",
				Usage:  "turn the booster on",
				Action: apply(func(*cli.Command) (booster.Command, error) { return booster.ToggleBooster(true), nil }),
			},
			{
				Name:   "disable",
				Usage:  "turn the booster off",
				Action: apply(func(*cli.Command) (booster.Command, error) { return booster.ToggleBooster(false), nil }),
			},
			{
				Name:      "gain",
				Usage:     "set the gain multiplier",
				ArgsUsage: "<value>",
				Action:    apply(gainCommand),
			},
			{
				Name:  "compressor",
				Usage: "update compressor settings",
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "threshold", Usage: "threshold in dB"},
					&cli.FloatFlag{Name: "ratio", Usage: "compression ratio"},
					&cli.FloatFlag{Name: "knee", Usage: "knee width in dB"},
					&cli.FloatFlag{Name: "attack", Usage: "attack in seconds"},
					&cli.FloatFlag{Name: "release", Usage: "release in seconds"},
				},
				Action: apply(compressorCommand),
			},
			{
				Name:  "limiter",
				Usage: "update limiter settings",
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "threshold", Usage: "threshold in dB"},
					&cli.FloatFlag{Name: "attack", Usage: "attack in seconds"},
					&cli.FloatFlag{Name: "release", Usage: "release in seconds"},
				},
				Action: apply(limiterCommand),
			},
			{
				Name:      "preset",
				Usage:     "apply a content preset",
				ArgsUsage: "<music|voice|movie|extreme>",
				Action:    apply(presetCommand),
			},
			{
				Name:   "panel",
				Usage:  "toggle the on-page panel",
				Action: apply(func(*cli.Command) (booster.Command, error) { return booster.ToggleFloatingUI(), nil }),
			},
			{
				Name:   "presets",
				Usage:  "list presets",
				Action: listPresets,
			},
		},
	}

	return app.Run(ctx, args)
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "volume-booster.yaml"
	}

	return filepath.Join(dir, "volume-booster", "settings.yaml")
}

type commandFunc func(cmd *cli.Command) (booster.Command, error)

// apply opens the engine over the settings file, sends the command built by
// build (if any) and prints the result.
func apply(build commandFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		out := cmd.Root().Writer

		logger := logrus.New()
		logger.SetOutput(cmd.Root().ErrWriter)
		logger.SetLevel(logrus.WarnLevel)

		if cmd.Bool("verbose") {
			logger.SetLevel(logrus.DebugLevel)
		}

		notify := booster.NotifierFunc(func(n booster.Notice) {
			fmt.Fprintln(cmd.Root().ErrWriter, n.Text())
		})

		e, err := booster.New(ctx, page{}, graph.New(), store.NewFile(cmd.String("settings")),
			booster.WithLogger(logger), booster.WithNotifier(notify), booster.WithInlineEvents())
		if err != nil {
			return err
		}
		defer e.Close()

		if build != nil {
			c, err := build(cmd)
			if err != nil {
				return err
			}

			if resp := e.Update(ctx, booster.CommandEvent(c)); !resp.Success {
				return fmt.Errorf("%s: %s", c.Action, resp.Error)
			}
		}

		return printState(out, e)
	}
}

func gainCommand(cmd *cli.Command) (booster.Command, error) {
	if cmd.Args().Len() != 1 {
		return booster.Command{}, fmt.Errorf("gain: expected one value")
	}

	v, err := strconv.ParseFloat(cmd.Args().First(), 64)
	if err != nil {
		return booster.Command{}, fmt.Errorf("gain: %w", err)
	}

	if v < booster.MinGain || v > booster.MaxGain {
		return booster.Command{}, fmt.Errorf("gain: %v outside %v..%v", v, booster.MinGain, booster.MaxGain)
	}

	return booster.UpdateGain(v), nil
}

func compressorCommand(cmd *cli.Command) (booster.Command, error) {
	return booster.UpdateCompressor(booster.CompressorPatch{
		Threshold: floatFlag(cmd, "threshold"),
		Ratio:     floatFlag(cmd, "ratio"),
		Knee:      floatFlag(cmd, "knee"),
		Attack:    floatFlag(cmd, "attack"),
		Release:   floatFlag(cmd, "release"),
	}), nil
}

func limiterCommand(cmd *cli.Command) (booster.Command, error) {
	return booster.UpdateLimiter(booster.LimiterPatch{
		Threshold: floatFlag(cmd, "threshold"),
		Attack:    floatFlag(cmd, "attack"),
		Release:   floatFlag(cmd, "release"),
	}), nil
}

func presetCommand(cmd *cli.Command) (booster.Command, error) {
	if cmd.Args().Len() != 1 {
		return booster.Command{}, fmt.Errorf("preset: expected one name")
	}

	return booster.ApplyPreset(cmd.Args().First()), nil
}

func floatFlag(cmd *cli.Command, name string) *float64 {
	if !cmd.IsSet(name) {
		return nil
	}

	return booster.Float(cmd.Float(name))
}

func printState(w io.Writer, e *booster.Engine) error {
	s := e.State()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "enabled\t%t\n", s.Enabled)
	fmt.Fprintf(tw, "panel\t%t\n", s.FloatingUIVisible)
	fmt.Fprintf(tw, "gain\t%.2f\n", s.Gain)
	fmt.Fprintf(tw, "compressor\t%.1f dB  %.1f:1  knee %.1f dB  attack %.3f s  release %.3f s\n",
		s.Compressor.Threshold, s.Compressor.Ratio, s.Compressor.Knee, s.Compressor.Attack, s.Compressor.Release)
	fmt.Fprintf(tw, "limiter\t%.1f dB  attack %.4f s  release %.3f s\n",
		s.Limiter.Threshold, s.Limiter.Attack, s.Limiter.Release)
	fmt.Fprintf(tw, "clarity\t%s\n", booster.ClarityLabel(s.Compressor.Threshold))
	fmt.Fprintf(tw, "balance\t%s\n", booster.BalanceLabel(s.Compressor.Ratio))
	fmt.Fprintf(tw, "protection\t%s\n", booster.ProtectionLabel(s.Limiter.Threshold))

	if booster.HighGainWarning(s.Gain) {
		fmt.Fprintf(tw, "warning\thigh gain, limiter tightened above %.0fx\n", booster.HighGainCutoff)
	}

	fmt.Fprintf(tw, "chain\t%s\n", e.Chain().Describe())

	return tw.Flush()
}

func listPresets(_ context.Context, cmd *cli.Command) error {
	tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOMPRESSOR\tRATIO\tLIMITER")

	for _, name := range booster.PresetNames() {
		p, _ := booster.LookupPreset(name)
		fmt.Fprintf(tw, "%s\t%.1f dB\t%.1f:1\t%.1f dB\n", p.Name, p.CompressorThreshold, p.CompressorRatio, p.LimiterThreshold)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "GAIN\tVALUE")

	for _, g := range booster.GainPresets {
		fmt.Fprintf(tw, "%s\t%.1fx\n", g.Name, g.Value)
	}

	return tw.Flush()
}

// page is an empty, static document: the command line has no media to
// discover, only settings to edit.
type page struct{}

func (page) Children() []dom.Node { return nil }

func (page) ShadowRoot() (dom.Node, error) { return nil, nil }

func (page) Observe(func([]dom.Node)) (func(), error) { return func() {}, nil }
