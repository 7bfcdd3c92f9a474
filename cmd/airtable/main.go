package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/mitchellh/cli"

	"github.com/joeandaverde/airtable/cmd/airtable/command"
)

func main() {
	args := os.Args[1:]

	meta := command.Meta{
		ShutDownCh: makeShutdownCh(),
		Out:        os.Stdout,
		Err:        os.Stderr,
	}

	commands := map[string]cli.CommandFactory{
		"list": func() (cli.Command, error) {
			return &command.ListCommand{Meta: meta}, nil
		},
		"get": func() (cli.Command, error) {
			return &command.GetCommand{Meta: meta}, nil
		},
		"create": func() (cli.Command, error) {
			return &command.CreateCommand{Meta: meta}, nil
		},
		"update": func() (cli.Command, error) {
			return &command.UpdateCommand{Meta: meta}, nil
		},
		"delete": func() (cli.Command, error) {
			return &command.DeleteCommand{Meta: meta}, nil
		},
		"mock": func() (cli.Command, error) {
			return &command.MockCommand{Meta: meta}, nil
		},
	}

	airtableCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("airtable"),
	}

	exitCode, err := airtableCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(exitCode)
}

func makeShutdownCh() <-chan struct{} {
	shutdownCh := make(chan struct{})
	signalCh := make(chan os.Signal, 1)

	signal.Notify(signalCh, os.Interrupt)

	go func() {
		defer close(shutdownCh)
		<-signalCh
	}()

	return shutdownCh
}
