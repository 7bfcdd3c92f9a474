package command

import (
	"strings"
)

type GetCommand struct {
	Meta
}

func (c *GetCommand) Help() string {
	helpText := `
Usage: airtable get [options] <id>

Options:

	-config=airtable.yml	Client configuration file
`

	return strings.TrimSpace(helpText)
}

func (c *GetCommand) Synopsis() string {
	return "Prints one record"
}

func (c *GetCommand) Run(args []string) int {
	var configPath string

	cmdFlags := c.flagSet("get", &configPath)
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if cmdFlags.NArg() != 1 {
		return c.errorf("get expects exactly one record id")
	}

	table, err := c.table(configPath)
	if err != nil {
		return c.errorf("%s", err)
	}

	ctx, cancel := c.context()
	defer cancel()

	row, err := table.Find(ctx, cmdFlags.Arg(0))
	if err != nil {
		return c.errorf("%s", err)
	}
	if err := c.writeRow(row); err != nil {
		return c.errorf("%s", err)
	}
	return 0
}

type CreateCommand struct {
	Meta
}

func (c *CreateCommand) Help() string {
	helpText := `
Usage: airtable create [options] <fields-json>

  Creates a record and prints it with its new id.

Options:

	-config=airtable.yml	Client configuration file
`

	return strings.TrimSpace(helpText)
}

func (c *CreateCommand) Synopsis() string {
	return "Creates a record"
}

func (c *CreateCommand) Run(args []string) int {
	var configPath string

	cmdFlags := c.flagSet("create", &configPath)
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if cmdFlags.NArg() != 1 {
		return c.errorf("create expects one JSON object of fields")
	}

	row, err := parseRow("", cmdFlags.Arg(0))
	if err != nil {
		return c.errorf("%s", err)
	}

	table, err := c.table(configPath)
	if err != nil {
		return c.errorf("%s", err)
	}

	ctx, cancel := c.context()
	defer cancel()

	created, err := table.Create(ctx, row)
	if err != nil {
		return c.errorf("%s", err)
	}
	if err := c.writeRow(created); err != nil {
		return c.errorf("%s", err)
	}
	return 0
}

type UpdateCommand struct {
	Meta
}

func (c *UpdateCommand) Help() string {
	helpText := `
Usage: airtable update [options] <id> <fields-json>

  Changes the given fields of a record. A null value clears a field.

Options:

	-config=airtable.yml	Client configuration file
`

	return strings.TrimSpace(helpText)
}

func (c *UpdateCommand) Synopsis() string {
	return "Updates fields of a record"
}

func (c *UpdateCommand) Run(args []string) int {
	var configPath string

	cmdFlags := c.flagSet("update", &configPath)
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if cmdFlags.NArg() != 2 {
		return c.errorf("update expects a record id and one JSON object of fields")
	}

	row, err := parseRow(cmdFlags.Arg(0), cmdFlags.Arg(1))
	if err != nil {
		return c.errorf("%s", err)
	}

	table, err := c.table(configPath)
	if err != nil {
		return c.errorf("%s", err)
	}

	ctx, cancel := c.context()
	defer cancel()

	updated, err := table.Update(ctx, row)
	if err != nil {
		return c.errorf("%s", err)
	}
	if err := c.writeRow(updated); err != nil {
		return c.errorf("%s", err)
	}
	return 0
}

type DeleteCommand struct {
	Meta
}

func (c *DeleteCommand) Help() string {
	helpText := `
Usage: airtable delete [options] <id>

Options:

	-config=airtable.yml	Client configuration file
`

	return strings.TrimSpace(helpText)
}

func (c *DeleteCommand) Synopsis() string {
	return "Deletes a record"
}

func (c *DeleteCommand) Run(args []string) int {
	var configPath string

	cmdFlags := c.flagSet("delete", &configPath)
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if cmdFlags.NArg() != 1 {
		return c.errorf("delete expects exactly one record id")
	}

	table, err := c.table(configPath)
	if err != nil {
		return c.errorf("%s", err)
	}

	ctx, cancel := c.context()
	defer cancel()

	if err := table.Delete(ctx, cmdFlags.Arg(0)); err != nil {
		return c.errorf("%s", err)
	}
	return 0
}
