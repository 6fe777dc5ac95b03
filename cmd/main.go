package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"dgexport/core/log"
)

type Options struct {
	Verbose   bool `short:"v" long:"verbose" description:"Enable debug logging and show stored settings in status"`
	NoBrowser bool `long:"no-browser" description:"Print authorization links instead of opening a browser"`

	Authorize         AuthorizeCommand         `command:"authorize" description:"Authorize dgexport with your GitHub account"`
	Install           InstallCommand           `command:"install" description:"Open the GitHub App installation page"`
	ConfirmInstall    ConfirmInstallCommand    `command:"confirm-install" description:"Check that the GitHub App is installed"`
	Repos             ReposCommand             `command:"repos" description:"List the repositories you own"`
	SelectRepo        SelectRepoCommand        `command:"select-repo" description:"Choose the repository pages are sent to"`
	SelectDestination SelectDestinationCommand `command:"select-destination" description:"Send pages as issues or as files"`
	Status            StatusCommand            `command:"status" description:"Show the GitHub session"`
	Export            ExportCommand            `command:"export" description:"Send a page to the selected repository"`
	Variables         VariablesCommand         `command:"variables" description:"Print the variables a query clause exposes"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		setupLogging()
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() {
	if opts.Verbose {
		log.SetLevel(slog.LevelDebug)
		return
	}
	log.SetLevel(slog.LevelWarn)
}
