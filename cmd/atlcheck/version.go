package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/atlcheck/internal/checker"
	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
)

// Release builds set these with -ldflags "-X main.version=...". Empty values
// fall back to the module and VCS information embedded by the go tool.
var (
	version string
	commit  string
	date    string
)

var readBuildInfo = debug.ReadBuildInfo

type buildInfo struct {
	version   string
	commit    string
	date      string
	modified  bool
	goVersion string
}

func currentBuild() buildInfo {
	b := buildInfo{version: "dev", commit: "none", date: "unknown", goVersion: runtime.Version()}
	if info, ok := readBuildInfo(); ok {
		b.goVersion = info.GoVersion
		if v := info.Main.Version; v != "" && v != "(devel)" {
			b.version = v
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				b.commit = setting.Value
			case "vcs.time":
				b.date = setting.Value
			case "vcs.modified":
				b.modified = setting.Value == "true"
			}
		}
	}

	if version != "" {
		b.version = version
	}
	if commit != "" {
		b.commit, b.modified = commit, false
	}
	if date != "" {
		b.date = date
	}
	return b
}

func (b buildInfo) write(w io.Writer) {
	revision := b.commit
	if b.modified {
		revision += " (modified)"
	}
	fmt.Fprintf(w, "atlcheck %s\ncommit: %s\nbuilt: %s\ngo: %s\n", b.version, revision, b.date, b.goVersion)

	algorithms := make([]string, len(checker.Algorithms))
	for i, a := range checker.Algorithms {
		algorithms[i] = string(a)
	}
	strategies := make([]string, len(edg.Strategies))
	for i, s := range edg.Strategies {
		strategies[i] = string(s)
	}
	fmt.Fprintf(w, "models: %s, %s\nformulas: %s, %s\nalgorithms: %s\nstrategies: %s\n",
		checker.ModelLCGS, checker.ModelJSON, checker.FormulaATL, checker.FormulaJSON,
		strings.Join(algorithms, ", "), strings.Join(strategies, ", "))
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display build information and supported inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			currentBuild().write(cmd.OutOrStdout())
			return nil
		},
	}

	return cmd
}
