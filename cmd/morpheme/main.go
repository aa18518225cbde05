/*
Command morpheme splits sentences into words and annotates them with the
features of a MeCab dictionary.

Usage:

	morpheme [flags] [file...]

Input is read from the files given, or from stdin if there are none or a
file is named "-". Every line is a sentence. Settings are taken from the
flags, the resource file (-r, default ~/.mecabrc) and the dicrc of the
dictionary directory, in this order of precedence.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/knadh/koanf/providers/posflag"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/logrusadapter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/npillmayer/morpheme"
	"github.com/npillmayer/morpheme/rcfile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "morpheme: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	output       string
	dumpConfig   bool
	bufferSize   int
	traceLevel   string
	traceAdapter string
}

// configFlags creates the flags which override configuration keys. Flag
// names are the keys.
func configFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	fs.StringP(rcfile.KeyRCFile, "r", "", "use `FILE` as resource file")
	fs.StringP(rcfile.KeyDicDir, "d", "", "set `DIR` as the dictionary directory")
	fs.StringP("output-format-type", "O", "", "set the output format `TYPE` (wakati, chasen, …)")
	fs.StringP("node-format", "F", "", "use `FORMAT` for words")
	fs.StringP("unk-format", "U", "", "use `FORMAT` for unknown words")
	fs.StringP("bos-format", "B", "", "use `FORMAT` for the beginning of a sentence")
	fs.StringP("eos-format", "E", "", "use `FORMAT` for the end of a sentence")
	fs.StringP("unk-feature", "x", "", "use `FEATURE` for unknown words")
	fs.String("input-normalization", "", "normalize input with `FORM` (nfc, nfkc, nfd, nfkd)")
	fs.Int("cache-size", 0, "cache the output of `N` sentences")
	fs.Int("workers", 0, "analyze with `N` goroutines (default: number of CPUs)")
	return fs
}

func newCommand() *cobra.Command {
	var opts options
	conf := configFlags()
	cmd := &cobra.Command{
		Use:           "morpheme [flags] [file...]",
		Short:         "Morphological analyzer for MeCab dictionaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, conf, opts, args)
		},
	}
	flags := cmd.Flags()
	flags.AddFlagSet(conf)
	flags.StringVarP(&opts.output, "output", "o", "-", "write output to `FILE`")
	flags.BoolVarP(&opts.dumpConfig, "dump-config", "P", false, "print the configuration and exit")
	flags.IntVarP(&opts.bufferSize, "input-buffer-size", "b", 0, "ignored")
	flags.StringVar(&opts.traceLevel, "trace", "Error", "trace `LEVEL` (Error, Info, Debug)")
	flags.StringVar(&opts.traceAdapter, "trace-adapter", "go", "trace with `ADAPTER` (go, logrus)")
	return cmd
}

func setupTracing(adapter, level string) error {
	var a tracing.Adapter
	switch strings.ToLower(adapter) {
	case "go":
		a = gologadapter.GetAdapter()
	case "logrus":
		a = logrusadapter.GetAdapter()
	default:
		return fmt.Errorf("unknown trace adapter %q", adapter)
	}
	tracing.SetTraceSelector(tracing.SelectorForAdapter(a))
	tracing.Select("morpheme").SetTraceLevel(tracing.TraceLevelFromString(level))
	return nil
}

func run(cmd *cobra.Command, confFlags *pflag.FlagSet, opts options, args []string) (err error) {
	if err = setupTracing(opts.traceAdapter, opts.traceLevel); err != nil {
		return err
	}
	conf, err := rcfile.Load(posflag.Provider(confFlags, ".", nil))
	if err != nil {
		return err
	}
	if opts.dumpConfig {
		return rcfile.Dump(cmd.OutOrStdout(), conf.Koanf())
	}
	model, err := morpheme.Open(conf)
	if err != nil {
		return err
	}
	defer model.Close()
	tagger, err := morpheme.NewTagger(model, conf)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.output != "" && opts.output != "-" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	for _, name := range args {
		if err = analyzeFile(cmd, tagger, name, out); err != nil {
			return err
		}
	}
	return nil
}

func analyzeFile(cmd *cobra.Command, tagger *morpheme.Tagger, name string, out io.Writer) error {
	if name == "-" {
		return tagger.Stream(cmd.Context(), cmd.InOrStdin(), out)
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return tagger.Stream(cmd.Context(), f, out)
}
