package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/kbhelper/packages/core/config"
	"github.com/abdul-hamid-achik/kbhelper/packages/core/env"
	khttp "github.com/abdul-hamid-achik/kbhelper/packages/http"
	"github.com/abdul-hamid-achik/kbhelper/packages/jsonrpc"
	"github.com/abdul-hamid-achik/kbhelper/packages/logging"
	"github.com/abdul-hamid-achik/kbhelper/packages/output"
	"github.com/abdul-hamid-achik/kbhelper/packages/proxy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// annotationSkipSetup marks commands that need no configuration.
const annotationSkipSetup = "kbhelper/skip-setup"

// app carries the state shared by all commands of one invocation.
type app struct {
	configPath   string
	endpoint     string
	token        string
	credentialID string
	timeout      string
	insecure     bool
	proxyFlag    string
	noProxy      string
	envFile      string
	outputFormat string
	verbose      bool
	noColor      bool
	logJSON      bool
	buildFlags   buildFlags

	cfg       *config.Config
	logger    *zap.Logger
	formatter output.Formatter
}

// NewRootCmd builds the kbhelper command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "kbhelper",
		Short: "Kanboard helper for CI jobs",
		Long: `kbhelper talks to a Kanboard instance from CI jobs: it checks that an
endpoint serves JSON-RPC, calls API methods with an integration token, fetches
files through the configured proxy, and expands build macros and environment
variables in job parameters.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", getEnvString("KBHELPER_CONFIG", ""), "Path to config file (env: KBHELPER_CONFIG)")
	flags.StringVar(&a.endpoint, "endpoint", getEnvString("KBHELPER_ENDPOINT", ""), "Kanboard JSON-RPC endpoint URL (env: KBHELPER_ENDPOINT)")
	flags.StringVar(&a.token, "token", getEnvString("KBHELPER_API_TOKEN", ""), "Kanboard API token (env: KBHELPER_API_TOKEN)")
	flags.StringVar(&a.credentialID, "credential-id", getEnvString("KBHELPER_CREDENTIAL_ID", ""), "Credential holding the API token (env: KBHELPER_CREDENTIAL_ID)")
	flags.StringVar(&a.timeout, "timeout", getEnvString("KBHELPER_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: KBHELPER_TIMEOUT)")
	flags.BoolVarP(&a.insecure, "insecure", "k", getEnvBool("KBHELPER_INSECURE", false), "Disable SSL certificate validation (env: KBHELPER_INSECURE)")
	flags.StringVar(&a.proxyFlag, "proxy", getEnvString("KBHELPER_PROXY", ""), "Proxy as [user:pass@]host[:port] (env: KBHELPER_PROXY)")
	flags.StringVar(&a.noProxy, "no-proxy", getEnvString("KBHELPER_NO_PROXY", ""), "Hosts reached without the proxy (env: KBHELPER_NO_PROXY)")
	flags.StringVar(&a.envFile, "env-file", getEnvString("KBHELPER_ENV_FILE", ""), "Path to .env file with global variables (env: KBHELPER_ENV_FILE)")
	flags.StringVarP(&a.outputFormat, "output", "o", getEnvString("KBHELPER_OUTPUT", "console"), "Output format: console, json (env: KBHELPER_OUTPUT)")
	flags.BoolVarP(&a.verbose, "verbose", "v", getEnvBool("KBHELPER_VERBOSE", false), "Verbose output and debug logging (env: KBHELPER_VERBOSE)")
	flags.BoolVar(&a.noColor, "no-color", getEnvBool("KBHELPER_NO_COLOR", false), "Disable colored output (env: KBHELPER_NO_COLOR)")
	flags.BoolVar(&a.logJSON, "log-json", getEnvBool("KBHELPER_LOG_JSON", false), "Write diagnostic logs as JSON (env: KBHELPER_LOG_JSON)")

	rootCmd.AddCommand(
		newFetchCmd(a),
		newCheckCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newCallCmd(a),
		newExpandCmd(a),
		newCSVCmd(a),
		newEnvCmd(a),
		newTokenCmd(a),
		newCredentialCmd(a),
		newProxyCmd(a),
		newVersionCmd(),
		newCompletionCmd(),
	)

	return rootCmd
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// setup loads the configuration, applies flag overrides and builds the logger and
// output formatter.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[annotationSkipSetup] == "true" {
		return nil
	}

	fileConfig, err := config.LoadConfig(a.configPath)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	overrides, err := a.flagConfig()
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	a.cfg = fileConfig.Merge(overrides)
	a.applyNoProxy()

	logger, err := logging.New(a.cfg.GetVerbose(), a.logJSON)
	if err != nil {
		return err
	}
	a.logger = logger

	a.formatter = a.newFormatter(cmd.OutOrStdout())
	return nil
}

// flagConfig turns the explicitly set persistent flags into a config override.
func (a *app) flagConfig() (*config.Config, error) {
	c := &config.Config{
		Endpoint:             a.endpoint,
		APIToken:             a.token,
		APITokenCredentialID: a.credentialID,
		EnvFile:              a.envFile,
	}

	if a.timeout != "" {
		d, err := time.ParseDuration(a.timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", a.timeout, err)
		}
		c.Timeout = int(d.Milliseconds())
	}
	if a.insecure {
		c.ValidateSSL = config.BoolPtr(false)
	}
	if a.verbose {
		c.Verbose = config.BoolPtr(true)
	}
	if a.noColor {
		c.NoColor = config.BoolPtr(true)
	}

	if a.proxyFlag != "" {
		p, err := parseProxyFlag(a.proxyFlag)
		if err != nil {
			return nil, err
		}
		c.Proxy = p
	}

	return c, nil
}

// applyNoProxy sets the --no-proxy hosts on the effective proxy, whether it came from
// the --proxy flag or the config file.
func (a *app) applyNoProxy() {
	if a.noProxy == "" || a.cfg.Proxy == nil {
		return
	}
	p := *a.cfg.Proxy
	p.NoProxyHost = a.noProxy
	a.cfg.Proxy = &p
}

// parseProxyFlag accepts [scheme://][user:pass@]host[:port].
func parseProxyFlag(value string) (*proxy.Config, error) {
	if !strings.Contains(value, "://") {
		value = "http://" + value
	}
	u, err := url.Parse(value)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid proxy %q", value)
	}

	p := &proxy.Config{Host: u.Hostname()}
	if port := u.Port(); port != "" {
		p.Port, err = strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy port %q", port)
		}
	}
	if u.User != nil {
		p.Username = u.User.Username()
		p.Password, _ = u.User.Password()
	}
	return p, nil
}

func (a *app) newFormatter(w io.Writer) output.Formatter {
	switch strings.ToLower(a.outputFormat) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w))
	default: // "console"
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(a.cfg.GetVerbose()),
			output.WithNoColor(a.cfg.GetNoColor()),
		)
	}
}

func (a *app) httpClient() *khttp.Client {
	return khttp.NewClient(
		khttp.WithTimeout(a.cfg.TimeoutDuration()),
		khttp.WithValidateSSL(a.cfg.GetValidateSSL()),
		khttp.WithProxyConfig(a.cfg.Proxy),
		khttp.WithLogger(a.logger),
	)
}

// envSources returns the configured global environments followed by the env file.
func (a *app) envSources() env.Source {
	sources := env.Sources{a.cfg}
	if a.cfg.EnvFile != "" {
		sources = append(sources, env.DotEnvSource{Path: a.cfg.EnvFile, Name: "env-file"})
	}
	return sources
}

// session opens a JSON-RPC session to the configured endpoint. The returned close
// function releases the credential store.
func (a *app) session(ctx context.Context) (*jsonrpc.Session, func(), error) {
	if a.cfg.Endpoint == "" {
		return nil, nil, withExitCode(ExitUsageError, fmt.Errorf("no endpoint configured (use --endpoint or the config file)"))
	}

	store, err := a.cfg.OpenCredentialStore(ctx, a.logger)
	if err != nil {
		return nil, nil, withExitCode(ExitConfigError, err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("closing credential store", zap.Error(err))
		}
	}

	opts := []jsonrpc.Option{
		jsonrpc.WithCredentialStore(store),
		jsonrpc.WithProxy(a.cfg.Proxy),
		jsonrpc.WithTimeout(a.cfg.TimeoutDuration()),
		jsonrpc.WithValidateSSL(a.cfg.GetValidateSSL()),
		jsonrpc.WithLogger(a.logger),
	}
	if a.cfg.RateLimit > 0 {
		opts = append(opts, jsonrpc.WithRateLimit(a.cfg.RateLimit, 1))
	}

	s, err := jsonrpc.NewSession(ctx, a.cfg.Endpoint, a.cfg.APIToken, a.cfg.APITokenCredentialID, opts...)
	if err != nil {
		closeStore()
		return nil, nil, withExitCode(ExitConfigError, err)
	}
	return s, closeStore, nil
}
