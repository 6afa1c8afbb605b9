package main

import (
	"fmt"
	"log"
	"os"

	"git.sr.ht/~sircmpwn/getopt"
)

const kMbeVersion = "1.0.0"

// / Command-line options.
type Options struct {
	/// Fixture to load.
	InputFile string

	/// Directory to change into before running.
	WorkingDir string

	/// Sqlite database holding saved snapshots.
	SnapshotDB string

	/// Tool to run.
	Tool *Tool
}

type When int8

const (
	/// Run after parsing the command-line flags and potentially changing
	/// the current working directory.
	RUN_AFTER_FLAGS When = 0

	/// Run after loading the fixture.
	RUN_AFTER_LOAD When = 1
)

// / The type of functions that are the entry points to tools (subcommands).
type ToolFunc func(*MbeMain, []string) int

// / Subtools, accessible via "-t foo".
type Tool struct {
	/// Short name of the tool.
	Name string

	/// Description (shown in "-t list").
	Desc string

	/// When to run the tool.
	When When

	/// Implementation of the tool.
	Func ToolFunc
}

// / Enable a debugging mode. Returns false if mbe should exit instead
// / of continuing.
func DebugEnable(name string) bool {
	switch name {
	case "list":
		fmt.Fprintf(stdout, "debugging modes:\n"+
			"  stats        print operation counts/timing info\n")
		return false
	case "stats":
		GMetrics = &Metrics{}
		return true
	default:
		suggestion := SpellcheckString(name, "stats")
		if suggestion != "" {
			Error("unknown debug setting '%s', did you mean '%s'?", name, suggestion)
		} else {
			Error("unknown debug setting '%s'", name)
		}
		return false
	}
}

// / Parse argv for command-line options.
// / Returns an exit code, or -1 if mbe should continue.
func ReadFlags(args *[]string, options *Options) int {
	opts, optind, err := getopt.Getopts(*args, "d:f:s:t:C:hV")
	if err != nil {
		Error("%v", err)
		UsageMain()
		return 1
	}
	*args = (*args)[optind:]
	for _, optV := range opts {
		optarg := optV.Value
		switch optV.Option {
		case 'd':
			if !DebugEnable(optarg) {
				return 1
			}
		case 'f':
			options.InputFile = optarg
		case 's':
			options.SnapshotDB = optarg
		case 't':
			if optarg == "list" {
				ListTools()
				return 0
			}
			options.Tool = ChooseTool(optarg)
			if options.Tool == nil {
				return 1
			}
		case 'C':
			options.WorkingDir = optarg
		case 'V':
			fmt.Fprintf(stdout, "%s\n", kMbeVersion)
			return 0
		default: // case 'h':
			UsageMain()
			return 1
		}
	}
	return -1
}

// / Print usage information.
func UsageMain() {
	fmt.Fprintf(stderr,
		"usage: mbe-tool [options] [-t TOOL [args...]]\n"+
			"\n"+
			"if the tool is unspecified, prints the loaded tree.\n"+
			"\n"+
			"options:\n"+
			"  -V       print mbe-tool version (\"%s\")\n"+
			"\n"+
			"  -C DIR   change to DIR before doing anything else\n"+
			"  -f FILE  specify input fixture [default=mbe.yaml]\n"+
			"  -s DB    specify snapshot database [default=mbe.db]\n"+
			"\n"+
			"  -d MODE  enable debugging (use '-d list' to list modes)\n"+
			"  -t TOOL  run a subtool (use '-t list' to list subtools)\n"+
			"    terminates toplevel options; further arguments are passed to the tool\n",
		kMbeVersion)
}

func real_main(args []string) int {
	options := Options{}
	options.InputFile = "mbe.yaml"
	options.SnapshotDB = "mbe.db"

	exitCode := ReadFlags(&args, &options)
	if exitCode >= 0 {
		return exitCode
	}

	if options.WorkingDir != "" {
		if err := os.Chdir(options.WorkingDir); err != nil {
			log.Fatalf("chdir to '%s' - %v", options.WorkingDir, err)
		}
	}

	return run(&options, args, NewLinePrinter())
}

// run executes the chosen tool, loading the fixture first when it needs one.
func run(options *Options, args []string, printer *LinePrinter) int {
	if options.Tool == nil {
		options.Tool = ChooseTool("show")
	}

	m := NewMbeMain(options, printer)
	defer m.Release()

	if options.Tool.When == RUN_AFTER_LOAD {
		if !m.LoadFixture() {
			return 1
		}
	}
	result := options.Tool.Func(m, args)
	if GMetrics != nil {
		GMetrics.Report(stdout)
	}
	return result
}

func main() {
	os.Exit(real_main(os.Args))
}
