package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/coastalsim/windsurf/cores/cdm"
	"github.com/coastalsim/windsurf/cores/constant"
	"github.com/coastalsim/windsurf/internal/configurator"
	"github.com/coastalsim/windsurf/internal/registry"
)

// main is the entrypoint for the windsurf-setup wizard.
func main() {
	if err := run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run drives the wizard. Prompts go to errW so the emitted document on
// outW can be redirected into a file.
func run(inR io.Reader, outW, errW io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("windsurf-setup", flag.ContinueOnError)
	flagSet.SetOutput(errW)
	flagSet.Usage = func() {
		fmt.Fprint(errW, `
Windsurf-setup - a setup wizard for the windsurf model.

Walks through the coupled model cores, their exchanges and the
environmental regimes, and emits the resulting JSON configuration.

Usage:
  windsurf-setup [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	outputFlag := flagSet.String("output", "", "Write the configuration to this file instead of stdout.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	reg := registry.New()
	(&cdm.Module{}).Register(reg)
	(&constant.Module{}).Register(reg)

	doc, err := configurator.New(inR, errW, reg.Engines()).Run()
	if err != nil {
		return err
	}

	if *outputFlag != "" {
		return os.WriteFile(*outputFlag, []byte(doc+"\n"), 0644)
	}
	fmt.Fprintln(outW, doc)
	return nil
}
