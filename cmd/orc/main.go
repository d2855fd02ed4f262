// Command orc is the modular C++ build orchestrator's driver (§6): it
// discovers the module graph rooted at module_name under modules_dir,
// condenses and versions it, and drives the three-phase plugin protocol to
// produce module_name's final artifacts under artifacts_dir.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/orchestrator"
	"github.com/buildorc/orc/internal/pathmodel"
	"github.com/buildorc/orc/internal/procrun"
	"github.com/buildorc/orc/internal/toolchain"
)

var (
	debug   = flag.Bool("debug", false, "format the fatal error with additional detail (%+v instead of %v)")
	verbose = flag.Bool("v", false, "print verbose discovery diagnostics (SCC membership, versions)")
	cxxPath = flag.String("cxx", toolchain.DefaultConfig.CXX, "path to the C++ compiler/linker driver")
	arPath  = flag.String("ar", toolchain.DefaultConfig.Archiver, "path to the archiver")
)

func funcmain() error {
	flag.Parse()
	if flag.NArg() != 3 {
		return fmt.Errorf("syntax: orc <modules_dir> <module_name> <artifacts_dir>")
	}
	modulesArg, moduleName, artifactsArg := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	modulesDir, err := pathmodel.NewAbs(modulesArg)
	if err != nil {
		return err
	}
	artifactsDir, err := pathmodel.NewAbs(artifactsArg)
	if err != nil {
		return err
	}

	l := log.New(os.Stderr, "", log.LstdFlags)
	runner := procrun.New(l)
	tc := toolchain.New(toolchain.Config{CXX: *cxxPath, Archiver: *arPath}, runner)
	o := orchestrator.New(modulesDir, artifactsDir, tc, l, *verbose)

	if err := o.SelfRebuildAndReexec(os.Args); err != nil {
		return err
	}

	if err := o.Build(moduleName); err != nil {
		return err
	}
	return orc.RunAtExit()
}

func main() {
	ctx, cancel := orc.InterruptibleContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "orc: interrupted")
		os.Exit(130)
	}()

	if err := funcmain(); err != nil {
		if *debug {
			fmt.Fprintf(os.Stderr, "orc: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "orc: %v\n", err)
		}
		os.Exit(1)
	}
}
