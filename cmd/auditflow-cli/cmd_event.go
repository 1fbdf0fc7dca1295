package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/auditflow/auditflow/client"
	"github.com/spf13/cobra"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Submit audit events",
	}
	cmd.AddCommand(newEventCreateCmd())
	return cmd
}

func newEventCreateCmd() *cobra.Command {
	var (
		project     string
		crud        string
		groupID     string
		groupName   string
		actorID     string
		actorName   string
		targetID    string
		targetName  string
		targetType  string
		sourceIP    string
		description string
		isFailure   bool
		fields      []string
		fromStdin   bool
	)

	cmd := &cobra.Command{
		Use:   "create <action>",
		Short: "Submit a single audit event",
		Long: `Submit a single audit event for indexing.

With --stdin the event is read as JSON from standard input and the
positional action argument is omitted.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			event := &client.AuditEvent{}
			if fromStdin {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					fatal("read stdin", err)
				}
				if err := json.Unmarshal(data, event); err != nil {
					fatal("parse event json", err)
				}
			} else {
				if len(args) != 1 {
					fatal("event create", fmt.Errorf("an action argument is required unless --stdin is set"))
				}
				event.Action = args[0]
				event.Crud = crud
				event.Group = client.Group{ID: groupID, Name: groupName}
				event.Actor = client.Actor{ID: actorID, Name: actorName}
				event.Target = client.Target{ID: targetID, Name: targetName, Type: targetType}
				event.SourceIP = sourceIP
				event.Description = description
				event.IsFailure = isFailure

				if len(fields) > 0 {
					event.Fields = make(map[string]string, len(fields))
					for _, f := range fields {
						k, v, ok := strings.Cut(f, "=")
						if !ok {
							fatal("event create", fmt.Errorf("invalid --field %q, want key=value", f))
						}
						event.Fields[k] = v
					}
				}
			}

			receipt, err := apiClient.Events.Create(ctx, project, event)
			if err != nil {
				fatal("create event", err)
			}
			output(receipt, receipt.DocumentID)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project id (required)")
	cmd.Flags().StringVar(&crud, "crud", "", "Crud code: c|r|u|d")
	cmd.Flags().StringVar(&groupID, "group", "", "Group id")
	cmd.Flags().StringVar(&groupName, "group-name", "", "Group display name")
	cmd.Flags().StringVar(&actorID, "actor", "", "Actor id")
	cmd.Flags().StringVar(&actorName, "actor-name", "", "Actor display name")
	cmd.Flags().StringVar(&targetID, "target", "", "Target id")
	cmd.Flags().StringVar(&targetName, "target-name", "", "Target display name")
	cmd.Flags().StringVar(&targetType, "target-type", "", "Target type")
	cmd.Flags().StringVar(&sourceIP, "source-ip", "", "Source IP of the action")
	cmd.Flags().StringVar(&description, "description", "", "Free-text description")
	cmd.Flags().BoolVar(&isFailure, "failure", false, "Mark the action as failed")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Custom field as key=value (repeatable)")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the event as JSON from stdin")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}
