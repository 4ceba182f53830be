// Command resolve-url prints the URL an address bar would load for its arguments.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/omnibar/internal/classifier"
)

func resolver(cmd *cli.Command) *classifier.Resolver {
	return classifier.New(
		classifier.WithSearchEndpoint(cmd.String("search-endpoint")),
		classifier.WithQueryEncoding(cmd.String("encoding")),
	)
}

// run prints exactly one URL for args. Text the flag parser rejects, such as
// "-5 celsius in f", is resolved verbatim instead of failing.
func run(ctx context.Context, args []string, w io.Writer) error {
	cmd := &cli.Command{
		Name:      "resolve-url",
		Usage:     "Classify text as a URL or a search query and print the result",
		ArgsUsage: "<text>",
		Writer:    w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "search-endpoint",
				Usage:   "Search URL prefix the query is appended to",
				Value:   classifier.DefaultSearchEndpoint,
				Sources: cli.EnvVars("OMNIBAR_SEARCH_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "encoding",
				Usage:   "Query encoding: plus or percent",
				Value:   classifier.EncodingPlus,
				Sources: cli.EnvVars("OMNIBAR_SEARCH_ENCODING"),
			},
		},
		OnUsageError: func(_ context.Context, cmd *cli.Command, _ error, _ bool) error {
			var text string
			if len(args) > 1 {
				text = strings.Join(args[1:], " ")
			}
			_, err := fmt.Fprintln(w, resolver(cmd).Resolve(text))
			return err
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(w, resolver(cmd).Resolve(strings.Join(cmd.Args().Slice(), " ")))
			return err
		},
	}
	return cmd.Run(ctx, args)
}

func main() {
	// The exit status stays 0 whatever happens.
	if err := run(context.Background(), os.Args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
