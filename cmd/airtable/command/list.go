package command

import (
	"fmt"
	"strings"

	"github.com/joeandaverde/airtable"
)

// sortFlags collects repeated -sort Field[:asc|desc] options.
type sortFlags []airtable.SortKey

func (s *sortFlags) String() string {
	parts := make([]string, 0, len(*s))
	for _, k := range *s {
		parts = append(parts, k.Field+":"+k.Direction.String())
	}
	return strings.Join(parts, ",")
}

func (s *sortFlags) Set(value string) error {
	field, dir, _ := strings.Cut(value, ":")
	if field == "" {
		return fmt.Errorf("sort needs a field name")
	}
	key := airtable.SortKey{Field: field, Direction: airtable.Ascending}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		key.Direction = airtable.Descending
	default:
		return fmt.Errorf("unknown sort direction %q", dir)
	}
	*s = append(*s, key)
	return nil
}

type ListCommand struct {
	Meta
}

func (c *ListCommand) Help() string {
	helpText := `
Usage: airtable list [options]

  Prints every matching record as one JSON object per line.

Options:

	-config=airtable.yml	Client configuration file
	-view=""		Only records visible in this view
	-sort=Field[:desc]	Sort key, may be repeated
	-formula=""		Filter formula evaluated by the store
	-page-size=0		Records per request
	-max=0			Stop after this many records
	-fields=""		Comma separated fields to return
`

	return strings.TrimSpace(helpText)
}

func (c *ListCommand) Synopsis() string {
	return "Lists records of the configured table"
}

func (c *ListCommand) Run(args []string) int {
	var (
		configPath string
		view       string
		formula    string
		pageSize   int
		maxRecords int
		fields     string
		sorts      sortFlags
	)

	cmdFlags := c.flagSet("list", &configPath)
	cmdFlags.StringVar(&view, "view", "", "view name")
	cmdFlags.StringVar(&formula, "formula", "", "filter formula")
	cmdFlags.IntVar(&pageSize, "page-size", 0, "records per request")
	cmdFlags.IntVar(&maxRecords, "max", 0, "maximum records")
	cmdFlags.StringVar(&fields, "fields", "", "fields to return")
	cmdFlags.Var(&sorts, "sort", "sort key")

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	table, err := c.table(configPath)
	if err != nil {
		return c.errorf("%s", err)
	}

	q := table.Query().View(view).Formula(formula)
	for _, k := range sorts {
		q = q.Sort(k.Field, k.Direction)
	}
	if pageSize > 0 {
		q = q.PageSize(pageSize)
	}
	if maxRecords > 0 {
		q = q.MaxRecords(maxRecords)
	}
	if fields != "" {
		q = q.Fields(strings.Split(fields, ",")...)
	}

	ctx, cancel := c.context()
	defer cancel()

	code := 0
	for row, err := range q.Iter().All(ctx) {
		if err != nil {
			code = c.errorf("%s", err)
			continue
		}
		if err := c.writeRow(row); err != nil {
			return c.errorf("%s", err)
		}
	}

	return code
}
