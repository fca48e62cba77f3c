package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/model"
)

var (
	resolveType  string
	resolveJSON  bool
	resolveAsync bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve a free-text query into enriched records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind, err := model.ParseKind(resolveType)
		if err != nil {
			return err
		}
		query := model.NewQuery(args[0], kind)

		environ, err := initEnv(ctx, "resolve")
		if err != nil {
			return err
		}
		defer environ.Close()

		if resolveAsync {
			id, err := environ.Resolver.Enqueue(ctx, query)
			if err != nil {
				return err
			}
			zap.L().Info("resolution queued", zap.String("task_id", id))
			fmt.Println(id)
			return nil
		}

		outcomes, err := environ.Resolver.Resolve(ctx, query)
		if err != nil {
			return err
		}

		zap.L().Info("resolution complete",
			zap.String("query", query.Text),
			zap.String("type", string(query.Kind)),
			zap.Int("outcomes", len(outcomes)),
		)

		if resolveJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(outcomes)
		}

		for _, o := range outcomes {
			switch {
			case !o.OK():
				fmt.Printf("ERROR  %s: %s\n", o.Candidate, o.Err.Message)
			case o.Record.Profile != nil:
				p := o.Record.Profile
				fmt.Printf("%s %s - %s at %s (%s)\n",
					p.FirstName, p.LastName, p.Position, p.CompanyName, p.LinkedInURL)
			case o.Record.Company != nil:
				c := o.Record.Company
				fmt.Printf("%s (%s)\n", c.Name, c.LinkedInURL)
			}
		}
		if len(outcomes) == 0 {
			fmt.Println("no results")
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveType, "type", "profile", "record type to resolve (profile or company)")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print outcomes as JSON")
	resolveCmd.Flags().BoolVar(&resolveAsync, "async", false, "queue the resolution as a background task")
	rootCmd.AddCommand(resolveCmd)
}
