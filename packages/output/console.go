package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/abdul-hamid-achik/kbhelper/packages/core/env"
	"github.com/fatih/color"
)

// formatValue truncates long values for display
func formatValue(v string, maxLen int) string {
	if len(v) > maxLen {
		return v[:maxLen] + "..."
	}
	return v
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatCheck(result *CheckResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	symbol := green("✓")
	verdict := "JSON-RPC endpoint"
	if !result.Reachable {
		symbol = red("✗")
		verdict = "not a JSON-RPC endpoint"
	}

	fmt.Fprintf(f.writer, "%s %s %s %s\n", symbol, result.Endpoint, verdict,
		cyan(fmt.Sprintf("(%dms)", result.Duration.Milliseconds())))
	if result.Err != nil {
		fmt.Fprintf(f.writer, "  %s %v\n", red("→"), result.Err)
	}
}

func (f *ConsoleFormatter) FormatCall(result *CallResult) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if f.verbose {
		fmt.Fprintf(f.writer, "%s %s\n", bold("Method:"), result.Method)
		fmt.Fprintf(f.writer, "%s %v\n", bold("ID:"), result.ID)
		if result.Query != "" {
			fmt.Fprintf(f.writer, "%s %s\n", bold("Query:"), result.Query)
		}
		fmt.Fprintf(f.writer, "%s %s\n", bold("Time:"), cyan(fmt.Sprintf("%dms", result.Duration.Milliseconds())))
		fmt.Fprintln(f.writer, Separator)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result.Result, "", "  "); err != nil {
		f.writer.Write(result.Result)
		fmt.Fprintln(f.writer)
		return
	}
	fmt.Fprintln(f.writer, pretty.String())
}

func (f *ConsoleFormatter) FormatVars(vars env.Vars) {
	cyan := color.New(color.FgCyan).SprintFunc()
	for _, k := range vars.Keys() {
		value := vars[k]
		if !f.verbose {
			value = formatValue(value, 100)
		}
		fmt.Fprintf(f.writer, "%s=%s\n", cyan(k), value)
	}
}

func (f *ConsoleFormatter) FormatToken(result *TokenResult) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	switch {
	case result.FromStore:
		fmt.Fprintf(f.writer, "%s API token from credential %q\n", green("✓"), result.CredentialID)
	case result.Empty:
		fmt.Fprintf(f.writer, "%s no API token configured\n", yellow("-"))
	default:
		fmt.Fprintf(f.writer, "%s literal API token", green("✓"))
		if result.CredentialID != "" {
			fmt.Fprintf(f.writer, " (credential %q not found)", result.CredentialID)
		}
		fmt.Fprintln(f.writer)
	}
}

func (f *ConsoleFormatter) FormatProxy(result *ProxyResult) {
	bold := color.New(color.Bold).SprintFunc()
	if f.verbose {
		fmt.Fprintf(f.writer, "%s → %s\n", result.Target, bold(result.Proxy))
		return
	}
	fmt.Fprintln(f.writer, result.Proxy)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("kbhelper"), version)
	fmt.Fprintln(f.writer, Separator)
}
