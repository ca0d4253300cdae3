package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"playtime-cli/config"
	"playtime-cli/logging"
	"playtime-cli/service"
	"playtime-cli/store"
	"playtime-cli/tui"
)

const appName = "playtime-cli"

var (
	version = "dev"
	commit  = "none"
)

func printUsage(out *os.File) {
	fmt.Fprintf(out, "Usage: %s [--version] [--remember]\n\n", appName)
	fmt.Fprintln(out, "Environment:")
	fmt.Fprintln(out, "  PLAYTIME_API_URL  booking API base URL")
	fmt.Fprintln(out, "  PLAYTIME_TOKEN    bearer token for the booking API")
	fmt.Fprintln(out, "  PLAYTIME_CONFIG   optional YAML config file")
	fmt.Fprintln(out, "\n--remember saves the current API URL and token for later runs.")
}

func printVersion() {
	fmt.Printf("%s %s", appName, version)
	if commit != "none" && commit != "" {
		fmt.Printf(" (%s)", commit)
	}
	fmt.Println()
}

func handleArgs(args []string) (run bool, remember bool) {
	if len(args) == 0 {
		return true, false
	}

	for _, arg := range args {
		switch arg {
		case "-h", "--help", "help":
			printUsage(os.Stdout)
			return false, false
		case "-v", "--version", "version":
			printVersion()
			return false, false
		case "--remember":
			remember = true
		default:
			fmt.Fprintf(os.Stderr, "Unknown argument: %s\n", arg)
			printUsage(os.Stderr)
			os.Exit(2)
		}
	}

	return !remember, remember
}

func main() {
	run, remember := handleArgs(os.Args[1:])

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if remember {
		creds := store.Credentials{APIBaseURL: cfg.APIBaseURL, Token: cfg.Token}
		if err := store.SaveCredentials(creds); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("Credentials saved.")
		return
	}
	if !run {
		return
	}

	if cfg.Token == "" {
		fmt.Fprintln(os.Stderr, "No API token. Set PLAYTIME_TOKEN or run with --remember once.")
		os.Exit(2)
	}

	log, closeLog, err := logging.Setup(cfg.LogFile, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	log.Info("starting", slog.String("version", version))

	client := service.NewClient(nil, cfg.APIBaseURL, cfg.Token, log)
	if _, err := tea.NewProgram(tui.New(client, log), tea.WithAltScreen()).Run(); err != nil {
		log.Error("program failed", logging.Err(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
