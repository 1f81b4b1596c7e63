package clientcmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSessionsCommand constructs the `sessions` command group and subcommands.
func NewSessionsCommand(baseURL BaseURLFunc) *cobra.Command {
	sessionsCmd := &cobra.Command{Use: "sessions", Short: "Session operations"}

	sessionsCmd.AddCommand(
		newSessionsListCommand(baseURL),
		newSessionsGetCommand(baseURL),
		newSessionsEventsCommand(baseURL),
		newSessionsPruneCommand(baseURL),
	)

	return sessionsCmd
}

// newSessionsListCommand constructs the `sessions list` subcommand.
func newSessionsListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List session summaries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return getJSON(cmd, baseURL()+"/v1/sessions")
		},
	}
}

// newSessionsGetCommand constructs the `sessions get` subcommand.
func newSessionsGetCommand(baseURL BaseURLFunc) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show one session summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			q := url.Values{}
			q.Set("key", key)
			return getJSON(cmd, baseURL()+"/v1/sessions/get?"+q.Encode())
		},
	}
	getCmd.Flags().StringP("key", "k", "", "Session key (clientId:requestId)")
	return getCmd
}

// newSessionsEventsCommand constructs the `sessions events` subcommand.
func newSessionsEventsCommand(baseURL BaseURLFunc) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List stored events for a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			after, _ := cmd.Flags().GetUint64("after")
			limit, _ := cmd.Flags().GetInt("limit")
			reverse, _ := cmd.Flags().GetBool("reverse")
			filter, _ := cmd.Flags().GetString("filter")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			q := url.Values{}
			q.Set("key", key)
			if after > 0 {
				q.Set("after", strconv.FormatUint(after, 10))
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if reverse {
				q.Set("reverse", "true")
			}
			if filter != "" {
				q.Set("filter", filter)
			}
			return getJSON(cmd, baseURL()+"/v1/sessions/events?"+q.Encode())
		},
	}
	eventsCmd.Flags().StringP("key", "k", "", "Session key (clientId:requestId)")
	eventsCmd.Flags().Uint64("after", 0, "Return events with id greater than this")
	eventsCmd.Flags().Int("limit", 0, "Page size (default 100)")
	eventsCmd.Flags().Bool("reverse", false, "Newest first")
	eventsCmd.Flags().String("filter", "", "CEL expression selecting events")
	return eventsCmd
}

// newSessionsPruneCommand constructs the `sessions prune` subcommand.
func newSessionsPruneCommand(baseURL BaseURLFunc) *cobra.Command {
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished sessions older than the retention age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ageMs, _ := cmd.Flags().GetInt64("age-ms")
			body, _ := json.Marshal(map[string]any{"age_ms": ageMs})
			resp, err := http.Post(baseURL()+"/v1/sessions/prune", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			return printJSONResponse(cmd, resp)
		},
	}
	pruneCmd.Flags().Int64("age-ms", 0, "Retention age in ms (0 = server default)")
	return pruneCmd
}
