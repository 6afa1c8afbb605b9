package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"

	"mbe-go/fixture"
	"mbe-go/mbe"
	"mbe-go/name"
	"mbe-go/server"
	"mbe-go/store"
)

const kPruneLimit = 2000

// MbeMain holds the state shared by the tools of one run.
type MbeMain struct {
	Options_ *Options

	/// Names of the loaded fixture and of anything loaded after it.
	Interner_ *name.Interner

	/// The tree loaded from Options_.InputFile.
	Env_ mbe.Env[string]

	Printer_ *LinePrinter

	store_ *store.Store
}

func NewMbeMain(options *Options, printer *LinePrinter) *MbeMain {
	ret := MbeMain{}
	ret.Options_ = options
	ret.Interner_ = name.NewInterner()
	ret.Printer_ = printer
	return &ret
}

func (this *MbeMain) Release() {
	if this.store_ == nil {
		return
	}
	if err := this.store_.Close(); err != nil {
		Warning("closing '%s': %v", this.Options_.SnapshotDB, err)
	}
	this.store_ = nil
}

// / Load the fixture named by the options. Returns false on error.
func (this *MbeMain) LoadFixture() bool {
	defer METRIC_RECORD("fixture load").Release()
	e, err := fixture.Load(this.Options_.InputFile, this.Interner_)
	if err != nil {
		Error("%v", err)
		return false
	}
	this.Env_ = e
	return true
}

// / Open the snapshot database on first use.
func (this *MbeMain) Store() (*store.Store, bool) {
	if this.store_ != nil {
		return this.store_, true
	}
	defer METRIC_RECORD("store open").Release()
	s, err := store.Open(this.Options_.SnapshotDB)
	if err != nil {
		Error("%v", err)
		return nil, false
	}
	this.store_ = s
	return s, true
}

func (this *MbeMain) println(s string) {
	this.Printer_.PrintOnNewLine(s + "\n")
}

// lookupNames resolves spellings against the loaded tree, suggesting a close
// name for any it does not know.
func (this *MbeMain) lookupNames(spellings []string) ([]name.Name, bool) {
	res := make([]name.Name, 0, len(spellings))
	for _, s := range spellings {
		n, ok := this.Interner_.Lookup(s)
		if ok {
			res = append(res, n)
			continue
		}
		known := make([]string, 0)
		for _, k := range this.Env_.Names() {
			known = append(known, k.String())
		}
		if suggestion := SpellcheckString(s, known...); suggestion != "" {
			Error("unknown name '%s', did you mean '%s'?", s, suggestion)
		} else {
			Error("unknown name '%s'", s)
		}
		return nil, false
	}
	return res, true
}

func (this *MbeMain) ToolShow(args []string) int {
	this.println(this.Env_.String())
	return 0
}

func (this *MbeMain) ToolNames(args []string) int {
	for _, n := range this.Env_.Names() {
		label := this.Printer_.Paint(n.String(), color.FgGreen)
		if v, ok := this.Env_.Leaf(n); ok {
			this.println(fmt.Sprintf("%s = %s", label, v))
			continue
		}
		idx, _ := this.Env_.Location(n)
		this.println(fmt.Sprintf("%s repeated in group %d (%d elements)", label, idx, this.Env_.GroupLen(idx)))
	}
	return 0
}

func (this *MbeMain) ToolMarch(args []string) int {
	if len(args) == 0 {
		Error("expected one or more names to march")
		return 1
	}
	driving, ok := this.lookupNames(args)
	if !ok {
		return 1
	}

	defer METRIC_RECORD("march").Release()
	marched, err := this.Env_.MarchAll(driving...)
	if err != nil {
		Error("%v", err)
		return 1
	}
	for i, sub := range marched {
		index := this.Printer_.Paint(fmt.Sprintf("[%d]", i), color.FgCyan)
		this.println(fmt.Sprintf("%s %s", index, sub))
	}
	return 0
}

func (this *MbeMain) ToolLeaf(args []string) int {
	if len(args) != 1 {
		Error("expected exactly one name")
		return 1
	}
	n, ok := this.lookupNames(args)
	if !ok {
		return 1
	}
	_, repeated := this.Env_.Location(n[0])
	if v, err := this.Env_.RequireLeaf(n[0]); err == nil || !repeated {
		if err != nil {
			Error("%v", err)
			return 1
		}
		this.println(v)
		return 0
	}
	// A repeated name still has values, one per element.
	vs, err := this.Env_.RequireRepLeaf(n[0])
	if err != nil {
		Error("%v", err)
		return 1
	}
	for _, v := range vs {
		this.println(v)
	}
	return 0
}

func (this *MbeMain) ToolZip(args []string) int {
	if len(args) != 1 {
		Error("expected the fixture to zip with")
		return 1
	}
	other, err := fixture.Load(args[0], this.Interner_)
	if err != nil {
		Error("%v", err)
		return 1
	}

	defer METRIC_RECORD("zip").Release()
	zipped, err := mbe.Zip(this.Env_, other, func(l, r string) string { return l + r })
	if err != nil {
		Error("%v", err)
		return 1
	}
	this.println(zipped.String())
	return 0
}

func (this *MbeMain) ToolFingerprint(args []string) int {
	defer METRIC_RECORD("fingerprint").Release()
	this.println(mbe.FingerprintHex(this.Env_))
	return 0
}

func (this *MbeMain) ToolStats(args []string) int {
	defer METRIC_RECORD("stats").Release()
	s := this.Env_.Stats()
	this.println(fmt.Sprintf("nodes %d\nleaves %d\ngroups %d\ndepth %d", s.Nodes, s.Leaves, s.Groups, s.MaxDepth))
	return 0
}

func (this *MbeMain) ToolSave(args []string) int {
	if len(args) != 1 {
		Error("expected a label to save under")
		return 1
	}
	s, ok := this.Store()
	if !ok {
		return 1
	}
	defer METRIC_RECORD("save").Release()
	entry, err := s.Save(args[0], this.Env_)
	if err != nil {
		Error("%v", err)
		return 1
	}
	this.println(fmt.Sprintf("saved '%s' %s", entry.Label, this.Printer_.Paint(entry.Fingerprint, color.Faint)))
	return 0
}

func (this *MbeMain) ToolLoad(args []string) int {
	if len(args) != 1 {
		Error("expected a label to load")
		return 1
	}
	s, ok := this.Store()
	if !ok {
		return 1
	}
	defer METRIC_RECORD("load").Release()
	e, err := s.Load(args[0], this.Interner_)
	if err != nil {
		Error("%v", err)
		return 1
	}
	this.Env_ = e
	this.println(e.String())
	return 0
}

func (this *MbeMain) ToolForget(args []string) int {
	if len(args) != 1 {
		Error("expected a label to forget")
		return 1
	}
	s, ok := this.Store()
	if !ok {
		return 1
	}
	if err := s.Forget(args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error("no snapshot saved as '%s'", args[0])
		} else {
			Error("%v", err)
		}
		return 1
	}
	return 0
}

func (this *MbeMain) ToolSnapshots(args []string) int {
	s, ok := this.Store()
	if !ok {
		return 1
	}
	list := s.List
	if len(args) == 1 {
		list = func() ([]string, error) { return s.FindByName(args[0]) }
	}
	labels, err := list()
	if err != nil {
		Error("%v", err)
		return 1
	}
	for _, label := range labels {
		this.println(label)
	}
	return 0
}

func (this *MbeMain) ToolPrune(args []string) int {
	if len(args) != 1 {
		Error("expected the number of days to keep")
		return 1
	}
	days, err := strconv.Atoi(args[0])
	if err != nil || days < 0 {
		Error("invalid number of days '%s'", args[0])
		return 1
	}
	s, ok := this.Store()
	if !ok {
		return 1
	}
	n, err := s.Prune(time.Duration(days)*24*time.Hour, kPruneLimit)
	if err != nil {
		Error("%v", err)
		return 1
	}
	Info("pruned %d snapshots", n)
	return 0
}

func (this *MbeMain) ToolServe(args []string) int {
	if len(args) < 1 || len(args) > 2 {
		Error("expected an address to listen on and optionally the days to keep snapshots")
		return 1
	}
	days := 30
	if len(args) == 2 {
		var err error
		days, err = strconv.Atoi(args[1])
		if err != nil || days < 0 {
			Error("invalid number of days '%s'", args[1])
			return 1
		}
	}
	s, ok := this.Store()
	if !ok {
		return 1
	}

	srv := server.New(s, this.Interner_, time.Duration(days)*24*time.Hour)
	if err := srv.StartPruneSchedule(time.Hour); err != nil {
		Error("%v", err)
		return 1
	}
	failed := make(chan error, 1)
	go func() { failed <- srv.ListenAndServe(args[0]) }()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	result := 0
	select {
	case <-sigch:
		Info("interrupted, exiting")
	case err := <-failed:
		Error("%v", err)
		result = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Warning("shutdown: %v", err)
	}
	return result
}

var kTools = []Tool{
	{"show", "print the loaded tree",
		RUN_AFTER_LOAD, (*MbeMain).ToolShow},
	{"names", "list the names visible at the top level",
		RUN_AFTER_LOAD, (*MbeMain).ToolNames},
	{"march", "march the given names, printing each element",
		RUN_AFTER_LOAD, (*MbeMain).ToolMarch},
	{"leaf", "print the value(s) bound to a name",
		RUN_AFTER_LOAD, (*MbeMain).ToolLeaf},
	{"zip", "concatenate leaves pairwise with another fixture",
		RUN_AFTER_LOAD, (*MbeMain).ToolZip},
	{"fingerprint", "print the structural fingerprint of the tree",
		RUN_AFTER_LOAD, (*MbeMain).ToolFingerprint},
	{"stats", "print node, leaf and group counts",
		RUN_AFTER_LOAD, (*MbeMain).ToolStats},
	{"save", "save the tree in the snapshot database",
		RUN_AFTER_LOAD, (*MbeMain).ToolSave},
	{"load", "print a saved snapshot",
		RUN_AFTER_FLAGS, (*MbeMain).ToolLoad},
	{"forget", "forget a saved snapshot",
		RUN_AFTER_FLAGS, (*MbeMain).ToolForget},
	{"snapshots", "list saved snapshots, optionally those mentioning a name",
		RUN_AFTER_FLAGS, (*MbeMain).ToolSnapshots},
	{"prune", "forget snapshots unused for the given number of days",
		RUN_AFTER_FLAGS, (*MbeMain).ToolPrune},
	{"serve", "serve the snapshot database over HTTP",
		RUN_AFTER_FLAGS, (*MbeMain).ToolServe},
}

func ListTools() {
	fmt.Fprintf(stdout, "mbe subtools:\n")
	for _, tool := range kTools {
		fmt.Fprintf(stdout, "%11s  %s\n", tool.Name, tool.Desc)
	}
}

// / Find the tool called tool_name, reporting an error if there is none.
func ChooseTool(tool_name string) *Tool {
	for i := range kTools {
		if kTools[i].Name == tool_name {
			return &kTools[i]
		}
	}

	words := []string{}
	for _, tool := range kTools {
		words = append(words, tool.Name)
	}
	suggestion := SpellcheckString(tool_name, words...)
	if suggestion != "" {
		Error("unknown tool '%s', did you mean '%s'?", tool_name, suggestion)
	} else {
		Error("unknown tool '%s'", tool_name)
	}
	return nil
}
