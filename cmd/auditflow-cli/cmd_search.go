package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/auditflow/auditflow/client"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Manage saved and active searches",
	}
	cmd.AddCommand(newSearchSaveCmd())
	cmd.AddCommand(newSearchGetCmd())
	cmd.AddCommand(newSearchDeleteCmd())
	cmd.AddCommand(newSearchOpenCmd())
	cmd.AddCommand(newSearchPumpCmd())
	return cmd
}

func newSearchSaveCmd() *cobra.Command {
	var (
		query    string
		crud     string
		actions  []string
		actors   []string
		since    string
		until    string
	)

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create a saved search",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			desc := client.QueryDescriptor{
				Version:     1,
				SearchQuery: query,
				Actions:     actions,
				ActorIDs:    actors,
			}
			if crud == "" {
				crud = "crud"
			}
			for _, c := range crud {
				switch c {
				case 'c':
					desc.ShowCreate = true
				case 'r':
					desc.ShowRead = true
				case 'u':
					desc.ShowUpdate = true
				case 'd':
					desc.ShowDelete = true
				default:
					fatal("search save", fmt.Errorf("invalid crud letter %q, want a subset of crud", string(c)))
				}
			}
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					fatal("parse --since", err)
				}
				desc.StartTime = &t
			}
			if until != "" {
				t, err := time.Parse(time.RFC3339, until)
				if err != nil {
					fatal("parse --until", err)
				}
				desc.EndTime = &t
			}

			saved, err := apiClient.Search.CreateSaved(ctx, &client.CreateSavedRequest{
				Name:  args[0],
				Query: desc,
			})
			if err != nil {
				fatal("create saved search", err)
			}
			output(saved, saved.ID)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Full-text search query")
	cmd.Flags().StringVar(&crud, "crud", "crud", "Crud codes to match, e.g. cu (default all)")
	cmd.Flags().StringArrayVar(&actions, "action", nil, "Exact action to match (repeatable)")
	cmd.Flags().StringArrayVar(&actors, "actor", nil, "Actor id to match (repeatable)")
	cmd.Flags().StringVar(&since, "since", "", "Only events at or after this RFC3339 time")
	cmd.Flags().StringVar(&until, "until", "", "Only events before this RFC3339 time")

	return cmd
}

func newSearchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <saved-search-id>",
		Short: "Show a saved search",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			saved, err := apiClient.Search.GetSaved(context.Background(), args[0])
			if err != nil {
				fatal("get saved search", err)
			}
			output(saved, saved.ID)
		},
	}
}

func newSearchDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <saved-search-id>",
		Short: "Delete a saved search",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Search.DeleteSaved(context.Background(), args[0]); err != nil {
				fatal("delete saved search", err)
			}
			fmt.Println("deleted")
		},
	}
}

func newSearchOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <saved-search-id>",
		Short: "Open an active search session over a saved search",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			active, err := apiClient.Search.CreateActive(context.Background(), args[0])
			if err != nil {
				fatal("open active search", err)
			}
			output(active, active.ID)
		},
	}
}

func newSearchPumpCmd() *cobra.Command {
	var (
		pageSize int
		next     string
		maskJSON string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "pump <active-search-id>",
		Short: "Fetch the next page of an active search",
		Long: `Fetch the next page of results from an active search and advance its
server-side cursor. With --all, pages are pumped until the search is
exhausted.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			opts := &client.PumpOptions{PageSize: pageSize, Next: next}
			if maskJSON != "" {
				var mask client.MaskDescriptor
				if err := json.Unmarshal([]byte(maskJSON), &mask); err != nil {
					fatal("parse --mask", err)
				}
				opts.Mask = &mask
			}

			if all {
				it := apiClient.Search.Iterate(args[0], opts)
				var records []client.PartialRecord
				for {
					page, err := it.Next(ctx)
					if err != nil {
						fatal("pump", err)
					}
					if page == nil {
						break
					}
					records = append(records, page...)
				}
				if flagFmt == "table" {
					printRecordTable(records)
					return
				}
				output(records, fmt.Sprintf("%d", len(records)))
				return
			}

			result, err := apiClient.Search.Pump(ctx, args[0], opts)
			if err != nil {
				fatal("pump", err)
			}
			if flagFmt == "table" {
				printRecordTable(result.Records)
				return
			}
			output(result, result.NextCursor)
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Records per page (default server-side)")
	cmd.Flags().StringVar(&next, "next", "", "Explicit cursor token to resume from")
	cmd.Flags().StringVar(&maskJSON, "mask", "", "Field mask as JSON, e.g. '{\"action\":true}'")
	cmd.Flags().BoolVar(&all, "all", false, "Pump until the search is exhausted")

	return cmd
}

func printRecordTable(records []client.PartialRecord) {
	headers := []string{"CREATED", "ACTION", "CRUD", "ACTOR", "TARGET"}
	var rows [][]string
	for _, rec := range records {
		rows = append(rows, []string{
			stringField(rec, "created"),
			stringField(rec, "action"),
			stringField(rec, "crud"),
			nestedField(rec, "actor", "id"),
			nestedField(rec, "target", "id"),
		})
	}
	formatTable(headers, rows)
}

func stringField(rec client.PartialRecord, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func nestedField(rec client.PartialRecord, key, sub string) string {
	if m, ok := rec[key].(map[string]any); ok {
		if v, ok := m[sub].(string); ok {
			return v
		}
	}
	return ""
}
