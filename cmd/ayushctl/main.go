// Command ayushctl talks to the storefront API from a terminal.
//
//	ayushctl login -email alice@example.com -password secret
//	ayushctl book
//	ayushctl orders -all -status Pending
//	ayushctl status -to Shipped <order id>...
//
// The token is read from AYUSH_TOKEN (or -token); login prints one.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"ayush-backend/internal/client"
	"ayush-backend/internal/wizard"
)

const usage = `usage: ayushctl [-api URL] [-token TOKEN] <command> [flags]

commands:
  login    authenticate and print a token
  book     book a pooja interactively
  orders   list your orders, or all orders with -all
  status   set the status of one or more orders (admin)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ayushctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	global := flag.NewFlagSet("ayushctl", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	api := global.String("api", envOr("AYUSH_API", "http://localhost:5000/api"), "API base URL")
	token := global.String("token", os.Getenv("AYUSH_TOKEN"), "bearer token or admin key")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	c := client.New(*api, client.WithToken(*token))
	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "login":
		return login(ctx, c, rest, out)
	case "book":
		return book(ctx, c, bufio.NewScanner(in), out)
	case "orders":
		return orders(ctx, c, rest, out)
	case "status":
		return status(ctx, c, rest, out)
	}
	global.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func login(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login needs -email and -password")
	}
	res, err := c.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s (%s)\n", res.User.Name, res.User.Role)
	fmt.Fprintf(out, "export AYUSH_TOKEN=%s\n", res.Token)
	return nil
}

// book walks the wizard one prompt per step. Typing "back" at a prompt
// returns to the previous step.
func book(ctx context.Context, c *client.Client, sc *bufio.Scanner, out io.Writer) error {
	poojas, err := c.Poojas(ctx)
	if err != nil {
		return err
	}
	if len(poojas) == 0 {
		return errors.New("no poojas are offered right now")
	}

	w := wizard.New()
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	for {
		fmt.Fprintf(out, "\n== %s ==\n", w.Step())
		switch w.Step() {
		case wizard.SelectService:
			for i, p := range poojas {
				fmt.Fprintf(out, "  %d) %s  Rs %.2f  %s\n", i+1, p.Name, p.Price, p.Duration)
			}
			answer, err := ask("pooja number: ")
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(answer)
			if err != nil || n < 1 || n > len(poojas) {
				fmt.Fprintln(out, "pick a number from the list")
				continue
			}
			if err := w.SelectService(poojas[n-1].ID.Hex(), poojas[n-1].Name); err != nil {
				fmt.Fprintln(out, err)
			}

		case wizard.SelectDateTime:
			answer, err := ask("date and time (YYYY-MM-DD HH:MM), or back: ")
			if err != nil {
				return err
			}
			if answer == "back" {
				w.Back()
				continue
			}
			at, err := time.ParseInLocation("2006-01-02 15:04", answer, time.Local)
			if err != nil {
				fmt.Fprintln(out, "could not read that date")
				continue
			}
			if err := w.SelectDateTime(at, at.Format("03:04 PM")); err != nil {
				fmt.Fprintln(out, err)
			}

		case wizard.EnterLocation:
			address, err := ask("address (blank for none), or back: ")
			if err != nil {
				return err
			}
			if address == "back" {
				w.Back()
				continue
			}
			notes, err := ask("notes for the pandit: ")
			if err != nil {
				return err
			}
			if err := w.EnterLocation(address, notes); err != nil {
				fmt.Fprintln(out, err)
			}

		case wizard.Review:
			d := w.Draft()
			fmt.Fprintf(out, "  pooja:   %s\n  when:    %s\n  address: %s\n  notes:   %s\n",
				d.PoojaName, d.At.Format("Mon 02 Jan 2006 03:04 PM"), orDash(d.Address), orDash(d.Notes))
			answer, err := ask("confirm? [y/N/back] ")
			if err != nil {
				return err
			}
			switch strings.ToLower(answer) {
			case "y", "yes":
				b, err := w.Confirm(ctx, c, wizard.Contact{})
				if err != nil {
					fmt.Fprintln(out, "booking failed:", err)
					continue
				}
				fmt.Fprintf(out, "booked %s, status %s\n", b.ID.Hex(), b.Status)
				return nil
			case "back":
				w.Back()
			default:
				return errors.New("booking abandoned")
			}
		}
	}
}

func orders(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	all := fs.Bool("all", false, "list every order (admin)")
	st := fs.String("status", "", "filter by status (with -all)")
	page := fs.Int("page", 0, "page number (with -all)")
	size := fs.Int("size", 0, "page size (with -all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tITEMS\tTOTAL\tPLACED\tACTIONS")
	if !*all {
		list, err := c.MyOrders(ctx)
		if err != nil {
			return err
		}
		for _, o := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\t%s\n", o.ID.Hex(), o.Status, len(o.Items), o.TotalAmount,
				o.CreatedAt.Local().Format(time.DateTime), joinStatuses(o.Actions))
		}
		return tw.Flush()
	}

	list, total, err := c.AllOrders(ctx, client.ListQuery{Status: *st, Page: *page, PageSize: *size})
	if err != nil {
		return err
	}
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\t%s\n", o.ID.Hex(), o.Status, len(o.Items), o.TotalAmount,
			o.CreatedAt.Local().Format(time.DateTime), joinStatuses(o.Actions))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d orders\n", len(list), total)
	return nil
}

func status(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	to := fs.String("to", "", "target status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" || fs.NArg() == 0 {
		return errors.New("status needs -to and at least one order id")
	}

	failed := 0
	for _, r := range c.BulkUpdateOrderStatus(ctx, fs.Args(), *to) {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%s  failed: %v\n", r.ID, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", r.ID, r.Order.Status)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d updates failed", failed, fs.NArg())
	}
	return nil
}

func joinStatuses[S ~string](list []S) string {
	if len(list) == 0 {
		return "-"
	}
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
