package command

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/airtable"
	"github.com/joeandaverde/airtable/httptransport"
	"github.com/joeandaverde/airtable/internal/config"
)

// Meta holds what every command shares.
type Meta struct {
	ShutDownCh <-chan struct{}
	Out        io.Writer
	Err        io.Writer
}

func (m *Meta) flagSet(name string, configPath *string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(m.Err)
	flags.StringVar(configPath, "config", "airtable.yml", "config file")
	return flags
}

func (m *Meta) errorf(format string, args ...interface{}) int {
	_, _ = fmt.Fprintf(m.Err, "Error: "+format+"\n", args...)
	return 1
}

func (m *Meta) logger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(m.Err)
	logger.SetLevel(cfg.LogLevel)
	return logger
}

// context is cancelled when the process is interrupted.
func (m *Meta) context() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	if m.ShutDownCh != nil {
		go func() {
			select {
			case <-m.ShutDownCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}
	return ctx, cancel
}

// table loads the config at path and opens the table it names.
func (m *Meta) table(path string) (*airtable.Table[Row, *Row], error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := m.logger(cfg)
	transport := httptransport.New(logger, cfg.Transport())

	return airtable.NewTable[Row](logger, transport, cfg.Base, cfg.Table), nil
}

type rowJSON struct {
	ID     string            `json:"id"`
	Fields airtable.FieldSet `json:"fields"`
}

func (m *Meta) writeRow(r Row) error {
	return json.NewEncoder(m.Out).Encode(rowJSON{ID: r.ID(), Fields: r.fields})
}
