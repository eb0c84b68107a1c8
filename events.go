package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cbrugna/nyc-events/db"
	"github.com/cbrugna/nyc-events/subcmd"
)

// events prints the stored events, soonest first.
func events(ctx context.Context, args []string) error {
	cmd := subcmd.New("events", "list the stored events")
	dbPath := cmd.String("db", "events.db", "sqlite database file")
	if err := cmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	rows, err := database.ListEvents(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no stored events")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tNAME\tLOCATION\tPRICE\tARTISTS\tID")
	for _, row := range rows {
		date := "?"
		if row.Date.Valid {
			date = row.Date.Time.Format("Mon, Jan 2 2006")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			date, row.Name, row.Location, row.Price, row.ArtistCount, row.ID)
	}
	return tw.Flush()
}
