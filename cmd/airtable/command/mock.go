package command

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/joeandaverde/airtable/internal/config"
	"github.com/joeandaverde/airtable/internal/mockstore"
)

type MockCommand struct {
	Meta
}

func (c *MockCommand) Help() string {
	helpText := `
Usage: airtable mock [options]

  Serves the records API locally from a sqlite file, or from memory when
  mock.data_directory is empty. Point endpoint at http://<addr>/v0.

Options:

	-config=airtable.yml	Configuration file, see the mock section
`

	return strings.TrimSpace(helpText)
}

func (c *MockCommand) Synopsis() string {
	return "Starts a local store for testing"
}

func (c *MockCommand) Run(args []string) int {
	var configPath string

	cmdFlags := c.flagSet("mock", &configPath)
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return c.errorf("%s", err)
	}
	logger := c.logger(cfg)

	store, err := mockstore.OpenStore(logger, mockstore.StoreConfig{
		DataDir: cfg.Mock.DataDir,
	})
	if err != nil {
		return c.errorf("%s", err)
	}
	defer store.Close()

	ln, err := net.Listen("tcp", cfg.Mock.Addr)
	if err != nil {
		return c.errorf("%s", err)
	}
	defer ln.Close()

	server := mockstore.NewServer(logger, store, mockstore.Config{
		APIKey:            cfg.Mock.APIKey,
		RequestsPerSecond: cfg.Mock.RequestsPerSecond,
		PageSize:          cfg.Mock.PageSize,
	})

	served := make(chan error, 1)
	go func() {
		served <- server.Serve(ln)
	}()

	select {
	case err := <-served:
		if !errors.Is(err, mockstore.ErrServerClosed) {
			return c.errorf("%s", err)
		}
		return 0
	case <-c.ShutDownCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return c.errorf("%s", err)
	}
	<-served
	return 0
}
