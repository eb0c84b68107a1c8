package subcmd

import (
	"flag"
	"fmt"
	"os"
)

func New(name, doc string) *Subcommand {
	sc := &Subcommand{
		FlagSet: flag.NewFlagSet(name, flag.ContinueOnError),
	}
	sc.FlagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n"+doc+"\n\n")
		fmt.Fprintf(os.Stderr, "  nyc-events %s [flags]\n\n", name)
		fmt.Fprintf(os.Stderr, "flags:\n")
		sc.FlagSet.PrintDefaults()
	}
	return sc
}

type Subcommand struct {
	*flag.FlagSet
}
