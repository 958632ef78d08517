package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/diary-location-service/internal/adapter/userconfig"
	"github.com/couchcryptid/diary-location-service/internal/domain"
	"github.com/spf13/cobra"
)

type options struct {
	seedFile      string
	systemDefault string
	userID        string
	stored        string
	timezone      string
	at            string
	asJSON        bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "locate",
		Short: "Resolve diary entry locations",
		Long: `
locate picks the location of a diary entry the way the locator service does:
a place named in the message first, then the user's saved default, then the
system default.
`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.seedFile, "seed", "", "additional location seed file (YAML)")
	root.PersistentFlags().StringVar(&opts.systemDefault, "default", "Shanghai", "system default location")
	root.PersistentFlags().StringVar(&opts.userID, "user", "cli", "user id for the saved default lookup")
	root.PersistentFlags().StringVar(&opts.stored, "stored", "", "saved default location for --user")

	resolveCmd := &cobra.Command{
		Use:   "resolve <message>",
		Short: "Print the resolved location and the tier that supplied it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := opts.resolver(cmd.Context())
			if err != nil {
				return err
			}
			res := resolver.Resolve(cmd.Context(), messageArg(args), opts.userID)
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "location: %s\ntier:     %s\n", res.Location, res.Tier)
			if res.Matched != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "matched:  %s (%s)\n", res.Matched, res.Method)
			}
			return nil
		},
	}
	resolveCmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")

	titleCmd := &cobra.Command{
		Use:   "title <message>",
		Short: "Print the diary entry title for a message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := opts.resolver(cmd.Context())
			if err != nil {
				return err
			}
			tz, err := time.LoadLocation(opts.timezone)
			if err != nil {
				return fmt.Errorf("invalid --tz %q: %w", opts.timezone, err)
			}
			titles := domain.NewTitleBuilder(resolver.Dictionary(), tz, nil)

			res := resolver.Resolve(cmd.Context(), messageArg(args), opts.userID)
			if opts.at == "" {
				fmt.Fprintln(cmd.OutOrStdout(), titles.BuildNow(res))
				return nil
			}
			at, err := time.Parse(time.RFC3339, opts.at)
			if err != nil {
				return fmt.Errorf("invalid --at %q: %w", opts.at, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), titles.Build(at, res))
			return nil
		},
	}
	titleCmd.Flags().StringVar(&opts.timezone, "tz", "Asia/Shanghai", "time zone for the title date")
	titleCmd.Flags().StringVar(&opts.at, "at", "", "entry time in RFC 3339 (default now)")

	locationsCmd := &cobra.Command{
		Use:   "locations",
		Short: "List every recognized location name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dict, err := opts.dictionary()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCANONICAL ID")
			for _, e := range dict.Entries() {
				fmt.Fprintf(tw, "%s\t%s\n", e.DisplayName, e.CanonicalID)
			}
			return tw.Flush()
		},
	}

	root.AddCommand(resolveCmd, titleCmd, locationsCmd)
	return root
}

func messageArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (o *options) dictionary() (*domain.Dictionary, error) {
	if o.seedFile == "" {
		return domain.DefaultDictionary()
	}
	f, err := os.Open(o.seedFile)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return domain.LoadDictionary(domain.DefaultSeed(), f)
}

// resolver builds a resolver whose user config holds at most the --stored value.
func (o *options) resolver(ctx context.Context) (*domain.Resolver, error) {
	dict, err := o.dictionary()
	if err != nil {
		return nil, err
	}
	store := userconfig.NewMemoryStore()
	if stored := strings.TrimSpace(o.stored); stored != "" {
		if e, ok := dict.Lookup(stored); ok {
			stored = e.CanonicalID
		}
		if err := store.Set(ctx, o.userID, stored); err != nil {
			return nil, err
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return domain.NewResolver(dict, store, o.systemDefault, logger)
}
