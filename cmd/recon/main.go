/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for Akaylee Recon. Crawls a scoped web application, guesses
unlinked pages, fuzzes forms, probes credentials and reports what it finds.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/akaylee-recon/cmd/recon/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "akaylee-recon",
		Short: "Akaylee Recon - browser-driven web reconnaissance",
		Long: `Akaylee Recon drives a real browser through a single-origin web application,
mapping pages, query parameters, forms and cookies, fuzzing form inputs, probing
login credentials and flagging pages that expose sensitive keywords or raise alerts.
Only run it against targets you are authorized to test.`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Configuration file path")
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.String("log-format", "custom", "Log format (text, json, custom)")
	flags.String("log-dir", "", "Log output directory (empty = console only)")
	flags.Int("log-max-files", 10, "Maximum number of log files to keep")
	flags.Bool("log-caller", false, "Include caller in log lines")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Bool("syslog", false, "Also log to syslog")
	flags.String("syslog-network", "", "Syslog network (empty = local)")
	flags.String("syslog-address", "", "Syslog address")

	flags.String("target", "", "Start URL; its origin bounds the crawl")
	flags.String("engine", "chrome", "Browser engine (chrome, http)")
	flags.Bool("headless", true, "Run Chrome headless")
	flags.Duration("timeout", 30*time.Second, "Per-request timeout")
	flags.Duration("interval", 0, "Minimum interval between requests")
	flags.Int("workers", 1, "Parallel page fetches during a crawl")
	flags.Int("max-pages", 0, "Maximum pages to visit (0 = unlimited)")
	flags.Int("max-depth", 0, "Maximum link depth (0 = unlimited)")
	flags.StringSlice("exclude", []string{}, "Never follow links containing these substrings (e.g. logout)")
	flags.StringSlice("cookies", []string{}, "Initial cookies (name=value)")
	flags.StringSlice("headers", []string{}, "Extra request headers (name: value)")
	flags.String("user-agent", "", "User-Agent override")
	flags.String("keywords", "", "Sensitive keyword wordlist")
	flags.Bool("builtin", false, "Use built-in lists for wordlists that are not given")

	flags.String("login-url", "", "Login page URL")
	flags.String("username", "", "Username for authentication before the run")
	flags.String("password", "", "Password for authentication before the run")
	flags.String("success-suffix", "", "Post-login URL suffix that means success")

	flags.String("output", "./results", "Directory for JSON result files")
	flags.String("report-dir", "", "Directory for HTML reports (empty = none)")
	flags.String("report-format", "text", "Console report format (text, json, none)")
	flags.Bool("dry-run", false, "Validate configuration and wordlists, then exit")

	bind(flags.Lookup("config"), "config")
	bind(flags.Lookup("log-level"), "log_level")
	bind(flags.Lookup("log-format"), "log_format")
	bind(flags.Lookup("log-dir"), "log_dir")
	bind(flags.Lookup("log-max-files"), "log_max_files")
	bind(flags.Lookup("log-caller"), "log_caller")
	bind(flags.Lookup("no-color"), "no_color")
	bind(flags.Lookup("syslog"), "syslog.enabled")
	bind(flags.Lookup("syslog-network"), "syslog.network")
	bind(flags.Lookup("syslog-address"), "syslog.address")
	bind(flags.Lookup("target"), "target")
	bind(flags.Lookup("engine"), "engine")
	bind(flags.Lookup("headless"), "headless")
	bind(flags.Lookup("timeout"), "timeout")
	bind(flags.Lookup("interval"), "interval")
	bind(flags.Lookup("workers"), "workers")
	bind(flags.Lookup("max-pages"), "max_pages")
	bind(flags.Lookup("max-depth"), "max_depth")
	bind(flags.Lookup("exclude"), "exclude")
	bind(flags.Lookup("cookies"), "cookies")
	bind(flags.Lookup("headers"), "headers")
	bind(flags.Lookup("user-agent"), "user_agent")
	bind(flags.Lookup("keywords"), "wordlists.keywords")
	bind(flags.Lookup("builtin"), "builtin")
	bind(flags.Lookup("login-url"), "login.url")
	bind(flags.Lookup("username"), "login.username")
	bind(flags.Lookup("password"), "login.password")
	bind(flags.Lookup("success-suffix"), "login.success_suffix")
	bind(flags.Lookup("output"), "output")
	bind(flags.Lookup("report-dir"), "report.dir")
	bind(flags.Lookup("report-format"), "report.format")
	bind(flags.Lookup("dry-run"), "dry_run")

	crawlCmd := &cobra.Command{
		Use:   "crawl",
		Short: "Map every same-origin page reachable from the target",
		Long: `Crawl the target breadth first through anchors, recording pages, query parameter
names, forms, cookies, sensitive keywords and alerts. Each URL is fetched once.`,
		RunE: commands.RunCrawl,
	}

	guessCmd := &cobra.Command{
		Use:   "guess",
		Short: "Probe for unlinked pages from a path wordlist",
		Long: `Resolve each candidate path against the target and fetch it. 404 and 410
responses mean the page does not exist; other HTTP errors stop the run.`,
		RunE: commands.RunGuess,
	}
	guessCmd.Flags().String("paths", "", "Candidate path wordlist")
	guessCmd.Flags().Bool("crawl-found", false, "Crawl from every page that exists")
	bind(guessCmd.Flags().Lookup("crawl-found"), "guess.crawl_found")

	fuzzCmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Crawl, then submit fuzz vectors into every discovered form",
		Long: `Crawl the target to discover forms, then for every text input of every form
submit each fuzz vector through the form's submit control. Submissions are real and
change application state.`,
		RunE: commands.RunFuzz,
	}
	fuzzCmd.Flags().String("vectors", "", "Fuzz vector wordlist")

	bruteCmd := &cobra.Command{
		Use:   "bruteforce",
		Short: "Try every username/password pair against the login form",
		Long: `Submit the full cross product of the username and password lists to the login
form and report every pair whose post-login URL ends with the success suffix.`,
		RunE: commands.RunBruteforce,
	}
	bruteCmd.Flags().String("usernames", "", "Username wordlist")
	bruteCmd.Flags().String("passwords", "", "Password wordlist")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Authenticate, guess, crawl, fuzz and probe in one run",
		RunE:  commands.RunScan,
	}
	scanCmd.Flags().String("paths", "", "Candidate path wordlist")
	scanCmd.Flags().String("vectors", "", "Fuzz vector wordlist")
	scanCmd.Flags().String("usernames", "", "Username wordlist")
	scanCmd.Flags().String("passwords", "", "Password wordlist")

	// flags shared with other subcommands are bound when the command runs, since
	// viper keeps only the last binding for a key
	scanCmd.PreRun = func(cmd *cobra.Command, args []string) {
		bind(cmd.Flags().Lookup("paths"), "wordlists.paths")
		bind(cmd.Flags().Lookup("vectors"), "wordlists.vectors")
		bind(cmd.Flags().Lookup("usernames"), "wordlists.usernames")
		bind(cmd.Flags().Lookup("passwords"), "wordlists.passwords")
	}
	guessCmd.PreRun = func(cmd *cobra.Command, args []string) {
		bind(cmd.Flags().Lookup("paths"), "wordlists.paths")
	}
	fuzzCmd.PreRun = func(cmd *cobra.Command, args []string) {
		bind(cmd.Flags().Lookup("vectors"), "wordlists.vectors")
	}
	bruteCmd.PreRun = func(cmd *cobra.Command, args []string) {
		bind(cmd.Flags().Lookup("usernames"), "wordlists.usernames")
		bind(cmd.Flags().Lookup("passwords"), "wordlists.passwords")
	}

	rootCmd.AddCommand(crawlCmd, guessCmd, fuzzCmd, bruteCmd, scanCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func bind(flag *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, flag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: bind %s: %v\n", key, err)
		os.Exit(1)
	}
}
