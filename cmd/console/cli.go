package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/om-jewellers/stockledger/internal/console"
	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/remote"
)

const usage = `usage: console <command> [flags]

commands:
  list          show products (--category, --query, --archived)
  search        read queries from stdin and print debounced results
  add-product   create a product (--name, --qty, --low, --category)
  add ID N      add N units to a product
  sell ID N     sell N units of a product
  archive ID    archive an active product
  purge ID      permanently delete an archived product
  ledger        show the reconciliation for a day (--date, --stock)
  export        download a report (--range, --start, --end, --format)
  login         sign in (--username, --password)
  logout        forget the saved session
`

// CLI runs operator commands against the inventory service.
type CLI struct {
	Config *console.Config
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
}

// Run executes one command and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(c.Stderr, usage)
		return 2
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "login":
		err = c.login(ctx, rest)
	case "logout":
		err = console.ClearSession(c.Config.TokenFile)
		if err == nil {
			fmt.Fprintln(c.Stdout, "Logged out")
		}
	case "list", "search", "add-product", "add", "sell", "archive", "purge", "ledger", "export":
		err = c.withConsole(ctx, cmd, rest)
	case "help", "-h", "--help":
		fmt.Fprint(c.Stdout, usage)
		return 0
	default:
		fmt.Fprintf(c.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(c.Stderr, usageErr.Error())
			return 2
		}
		return 1
	}
	return 0
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func (c *CLI) withConsole(ctx context.Context, cmd string, args []string) error {
	sess, err := console.LoadSession(c.Config)
	if err != nil {
		c.Logger.Warn("load session", slog.Any("error", err))
	}
	cal, err := ledger.LoadCalendar(c.Config.Timezone)
	if err != nil {
		fmt.Fprintln(c.Stderr, err)
		return err
	}
	client, err := remote.NewClient(c.Config.APIURL, sess.Token, nil)
	if err != nil {
		fmt.Fprintln(c.Stderr, err)
		return err
	}
	con := console.New(client, console.Options{
		Role:      sess.Role,
		Calendar:  cal,
		ExportDir: c.Config.ExportDir,
		Notifier:  c.notifier(),
		Logger:    c.Logger,
	})

	switch cmd {
	case "ledger":
		return c.ledger(ctx, con, args)
	case "export":
		return c.export(ctx, con, args)
	}

	if err := con.Refresh(ctx); err != nil {
		return err
	}
	switch cmd {
	case "list":
		return c.list(con, args)
	case "search":
		return c.search(con, args)
	case "add-product":
		return c.addProduct(ctx, con, args)
	case "add":
		return c.adjust(ctx, con, ledger.ModeAdd, args)
	case "sell":
		return c.adjust(ctx, con, ledger.ModeSell, args)
	case "archive":
		return c.byID(args, "archive", func(id string) error { return con.Archive(ctx, id) })
	case "purge":
		return c.byID(args, "purge", func(id string) error { return con.Purge(ctx, id) })
	}
	return usageError{msg: "unknown command " + cmd}
}

func (c *CLI) notifier() console.Notifier {
	return console.NotifierFunc(func(n console.Notification) {
		if n.Level == console.LevelError {
			fmt.Fprintln(c.Stderr, "error:", n.Message)
			if n.Err != nil {
				c.Logger.Debug("operation failed", slog.Any("error", n.Err))
			}
			return
		}
		fmt.Fprintln(c.Stdout, n.Message)
	})
}

func (c *CLI) login(ctx context.Context, args []string) error {
	fs := c.flagSet("login")
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	if *username == "" || *password == "" {
		return usageError{msg: "login: --username and --password are required"}
	}
	client, err := remote.NewClient(c.Config.APIURL, "", nil)
	if err != nil {
		fmt.Fprintln(c.Stderr, err)
		return err
	}
	sess, err := client.Login(ctx, *username, *password)
	if err != nil {
		fmt.Fprintln(c.Stderr, "error: login failed")
		c.Logger.Debug("login", slog.Any("error", err))
		return err
	}
	role := ledger.ParseRole(sess.Role)
	if err := console.SaveSession(c.Config.TokenFile, console.Session{Token: sess.Token, Role: role}); err != nil {
		fmt.Fprintln(c.Stderr, err)
		return err
	}
	fmt.Fprintf(c.Stdout, "Logged in as %s (%s)\n", *username, role)
	return nil
}

func (c *CLI) list(con *console.Console, args []string) error {
	fs := c.flagSet("list")
	category := fs.String("category", "", "Gold or Silver")
	query := fs.String("query", "", "sku or name substring")
	archived := fs.Bool("archived", false, "show archived products instead")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	cat, err := parseCategory(*category)
	if err != nil {
		return err
	}
	if *archived {
		c.printArchived(con.Cache().Archived())
		return nil
	}
	c.printRows(con.Rows(console.View{Category: cat, Query: *query}))
	return nil
}

func (c *CLI) search(con *console.Console, args []string) error {
	fs := c.flagSet("search")
	category := fs.String("category", "", "Gold or Silver")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	cat, err := parseCategory(*category)
	if err != nil {
		return err
	}
	results := make(chan []console.Row, 1)
	s := con.NewSearch(c.Config.SearchDebounce, cat, func(_ string, rows []console.Row) {
		select {
		case <-results:
		default:
		}
		results <- rows
	})
	defer s.Close()

	scanner := bufio.NewScanner(c.Stdin)
	for scanner.Scan() {
		s.Type(strings.TrimSpace(scanner.Text()))
	}
	// Input closed: the last query settles after one debounce period.
	select {
	case rows := <-results:
		c.printRows(rows)
	case <-time.After(c.Config.SearchDebounce + time.Second):
		c.printRows(s.Current())
	}
	return scanner.Err()
}

func (c *CLI) addProduct(ctx context.Context, con *console.Console, args []string) error {
	fs := c.flagSet("add-product")
	name := fs.String("name", "", "product name")
	qty := fs.Int("qty", 0, "initial quantity")
	low := fs.Int("low", 0, "low-stock threshold, 0 disables the alert")
	category := fs.String("category", "", "Gold or Silver")
	view := fs.String("view", "", "category view the product is added from")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	cat, err := parseCategory(*category)
	if err != nil {
		return err
	}
	viewCat, err := parseCategory(*view)
	if err != nil {
		return err
	}
	created, err := con.AddProduct(ctx, ledger.NewProduct{Name: *name, Quantity: *qty, LowQuantity: *low, Category: cat}, viewCat)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout, "%s\t%s\t%s\n", created.ID, created.SKU, created.Name)
	return nil
}

func (c *CLI) adjust(ctx context.Context, con *console.Console, mode ledger.Mode, args []string) error {
	if len(args) != 2 {
		return usageError{msg: fmt.Sprintf("%s: expected ID and quantity", mode)}
	}
	return con.Adjust(ctx, args[0], mode, args[1])
}

func (c *CLI) byID(args []string, name string, fn func(string) error) error {
	if len(args) != 1 {
		return usageError{msg: name + ": expected a product ID"}
	}
	return fn(args[0])
}

func (c *CLI) ledger(ctx context.Context, con *console.Console, args []string) error {
	fs := c.flagSet("ledger")
	date := fs.String("date", "", "day as YYYY-MM-DD, defaults to today")
	stock := fs.Bool("stock", false, "include products without movement")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	var (
		entries []ledger.Entry
		err     error
	)
	switch {
	case *stock && *date == "":
		entries, err = con.StockOn(ctx, c.Now())
	case *stock:
		entries, err = con.StockOnDay(ctx, *date)
	case *date == "":
		entries, err = con.EntriesForDate(ctx, c.Now())
	default:
		entries, err = con.EntriesForDay(ctx, *date)
	}
	if err != nil {
		return err
	}
	c.printEntries(entries)
	return nil
}

func (c *CLI) export(ctx context.Context, con *console.Console, args []string) error {
	fs := c.flagSet("export")
	kind := fs.String("range", string(ledger.RangeToday), rangeHelp())
	start := fs.String("start", "", "custom range start, YYYY-MM-DD")
	end := fs.String("end", "", "custom range end, YYYY-MM-DD")
	format := fs.String("format", string(remote.FormatSpreadsheet), "xlsx or pdf")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	rk, err := ledger.ParseRangeKind(*kind)
	if err != nil {
		return usageError{msg: err.Error()}
	}
	_, err = con.Export(ctx, ledger.Range{Kind: rk, Start: *start, End: *end}, remote.Format(*format))
	return err
}

func rangeHelp() string {
	names := make([]string, 0, len(ledger.QuickRanges)+1)
	for _, k := range ledger.QuickRanges {
		names = append(names, string(k))
	}
	names = append(names, string(ledger.RangeCustom))
	return "one of " + strings.Join(names, ", ") + " (all is accepted for all_data)"
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	return fs
}

func parseCategory(s string) (ledger.Category, error) {
	if s == "" {
		return ledger.CategoryNone, nil
	}
	for _, cat := range []ledger.Category{ledger.CategoryGold, ledger.CategorySilver} {
		if strings.EqualFold(s, string(cat)) {
			return cat, nil
		}
	}
	return "", usageError{msg: fmt.Sprintf("unknown category %q", s)}
}

func (c *CLI) printRows(rows []console.Row) {
	tw := tabwriter.NewWriter(c.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKU\tNAME\tCATEGORY\tQTY\tLOW\tALERT")
	for _, r := range rows {
		alert := ""
		if r.LowStock {
			alert = "LOW"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n", r.ID, r.SKU, r.Name, r.Category.Label(), r.Quantity, r.LowQuantity, alert)
	}
	_ = tw.Flush()
}

func (c *CLI) printArchived(products []ledger.Product) {
	tw := tabwriter.NewWriter(c.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKU\tNAME\tCATEGORY\tQTY")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.SKU, p.Name, p.Category.Label(), p.Quantity)
	}
	_ = tw.Flush()
}

func (c *CLI) printEntries(entries []ledger.Entry) {
	tw := tabwriter.NewWriter(c.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNAME\tCATEGORY\tOPENING\tADDED\tSOLD\tCLOSING\tSTATUS")
	for _, e := range entries {
		status := "active"
		if e.Archived() {
			status = "archived"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n", e.SKU, e.ProductName, e.Category.Label(), e.OpeningQty, e.AddedQty, e.SoldQty, e.ClosingQty, status)
	}
	_ = tw.Flush()
}
