package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/cfg"
	"github.com/raymyers/stepc/pkg/config"
	"github.com/raymyers/stepc/pkg/console"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/lint"
	"github.com/raymyers/stepc/pkg/parser"
	"github.com/raymyers/stepc/pkg/stepc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

// Debug flags for dumping intermediate representations
var (
	dParse bool
	dCFG   bool
	dMem   bool
)

var (
	configPath   string
	lintFlag     bool
	inputFlag    string
	echoFlag     bool
	metricsAddr  string
	maxCallDepth int
)

// exitError carries the exit status of the interpreted program
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("program exited with status %d", e.code)
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	// Accept single-dash dump flags such as -dparse
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the flags that also accept single-dash style
var debugFlagNames = []string{"dparse", "dcfg", "dmem"}

// normalizeFlags converts single-dash flags like -dparse to --dparse
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

// underscoreToDash lets flags be spelled like their config keys or with
// underscores: --max_call_depth is --max-call-depth
func underscoreToDash(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stepc [file...]",
		Short: "stepc runs teaching C programs with full run-time checking",
		Long: `stepc interprets a teaching subset of C one statement at a time.
Every memory access is checked: uninitialized reads, dangling and
out-of-bounds pointers, signed overflow and leaked heap blocks are
reported at the line that caused them.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			conf, err := loadConfig(cmd, errOut)
			if err != nil {
				return err
			}
			if conf.MetricsAddr != "" {
				go serveMetrics(conf.MetricsAddr, errOut)
			}
			cache, err := stepc.NewCache(conf.CacheSize)
			if err != nil {
				fmt.Fprintf(errOut, "stepc: %v\n", err)
				return err
			}
			stdin := &inputPump{in: in}
			var last error
			for _, filename := range args {
				if last = runFile(cmd.Context(), filename, conf, cache, stdin, out, errOut); last != nil && !isExit(last) {
					return last
				}
			}
			return last
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetGlobalNormalizationFunc(underscoreToDash)

	rootCmd.Flags().BoolVarP(&dParse, "dparse", "", false, "Dump the AST after parsing")
	rootCmd.Flags().BoolVarP(&dCFG, "dcfg", "", false, "Dump the control flow graph of every function")
	rootCmd.Flags().BoolVarP(&dMem, "dmem", "", false, "Dump memory when the program ends")

	rootCmd.Flags().StringVar(&configPath, "config", "", "Read settings from a YAML file")
	rootCmd.Flags().BoolVar(&lintFlag, "lint", false, "Report lint warnings before running")
	rootCmd.Flags().StringVar(&inputFlag, "input", "", "Use this text as standard input")
	rootCmd.Flags().BoolVar(&echoFlag, "echo-input", false, "Copy consumed input into the output")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.Flags().IntVar(&maxCallDepth, "max-call-depth", config.DefaultMaxCallDepth, "Bound on nested calls, -1 for none")

	return rootCmd
}

// loadConfig reads the config file, if any, and applies the flags that
// were set explicitly on top of it
func loadConfig(cmd *cobra.Command, errOut io.Writer) (*config.Config, error) {
	conf := config.Default()
	if configPath != "" {
		var err error
		if conf, err = config.FromFile(configPath); err != nil {
			fmt.Fprintf(errOut, "stepc: %v\n", err)
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("lint") {
		conf.Lint = lintFlag
	}
	if flags.Changed("input") {
		conf.Input = inputFlag
	}
	if flags.Changed("echo-input") {
		conf.EchoInput = echoFlag
	}
	if flags.Changed("metrics-addr") {
		conf.MetricsAddr = metricsAddr
	}
	if flags.Changed("max-call-depth") {
		conf.MaxCallDepth = maxCallDepth
	}
	return conf, nil
}

func isExit(err error) bool {
	var ee exitError
	return errors.As(err, &ee)
}

// report prints a diagnostic against the file it came from
func report(errOut io.Writer, filename, src string, err error) {
	var d *diag.Diagnostic
	if errors.As(err, &d) {
		fmt.Fprintln(errOut, d.Format(filename, src))
		return
	}
	fmt.Fprintf(errOut, "stepc: %s: %v\n", filename, err)
}

func runFile(ctx context.Context, filename string, conf *config.Config, cache *stepc.Cache, stdin *inputPump, out, errOut io.Writer) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "stepc: error reading %s: %v\n", filename, err)
		return err
	}
	src := string(content)

	if dParse {
		return doParse(filename, src, out, errOut)
	}

	prog, err := cache.Compile(src)
	if err != nil {
		report(errOut, filename, src, err)
		return err
	}
	if dCFG {
		return doCFG(prog, out)
	}
	if conf.Lint {
		for _, w := range lint.Check(prog.Checked(), prog.Graphs()) {
			fmt.Fprintln(errOut, w.Format(filename, src))
		}
	}

	con := newConsole(conf, stdin, out)
	m := stepc.NewMachine(prog, stepc.WithConsole(con), stepc.WithMaxCallDepth(conf.CallDepth()))
	code, err := m.Run(ctx)
	if dMem {
		dumpMemory(out, m.Memory())
	}
	if err != nil {
		report(errOut, filename, src, err)
		var d *diag.Diagnostic
		if !errors.As(err, &d) || d.Severity == diag.Error {
			return err
		}
	}
	if code != 0 {
		return exitError{code}
	}
	return nil
}

// newConsole connects the program's standard streams. Input given on the
// command line or in the config is fed up front; otherwise the program
// receives stdin as it arrives.
func newConsole(conf *config.Config, stdin *inputPump, out io.Writer) *console.Console {
	if conf.Input != "" {
		return console.New(console.WithOutput(out), console.WithEcho(conf.EchoInput), console.WithInput(conf.Input))
	}
	con := console.New(console.WithOutput(out), console.WithEcho(conf.EchoInput && !stdin.isTerminal()))
	stdin.attach(con)
	return con
}

// doParse parses the file and prints the AST
func doParse(filename, src string, out, errOut io.Writer) error {
	program, err := parser.Parse(src)
	if err != nil {
		report(errOut, filename, src, err)
		return err
	}
	cabs.NewPrinter(out).PrintProgram(program)
	return nil
}

// doCFG prints the graph of every function in definition order
func doCFG(prog *stepc.Program, out io.Writer) error {
	printer := cfg.NewPrinter(out)
	graphs := prog.Graphs()
	for _, def := range prog.Checked().AST.Definitions {
		if fn, ok := def.(*cabs.FunctionDefinition); ok {
			printer.PrintGraph(graphs[fn.Name()])
		}
	}
	return nil
}
