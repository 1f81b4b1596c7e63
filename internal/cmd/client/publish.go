package clientcmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rvale/sesh/internal/event"
)

// NewPublishCommand constructs the `publish` command.
//
// A missing --request-id is filled with a generated UUID so a producer can
// start a fresh session without coordinating identifiers; the resolved key
// is printed with the assigned event id.
func NewPublishCommand(baseURL BaseURLFunc) *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Append one event to a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			clientID, _ := cmd.Flags().GetString("client-id")
			requestID, _ := cmd.Flags().GetString("request-id")
			evType, _ := cmd.Flags().GetString("type")
			text, _ := cmd.Flags().GetString("text")
			result, _ := cmd.Flags().GetString("result")
			message, _ := cmd.Flags().GetString("message")
			sessionID, _ := cmd.Flags().GetString("session-id")
			raw, _ := cmd.Flags().GetString("json")

			ev := event.Event{
				Type:      event.Type(evType),
				Text:      text,
				Result:    result,
				Message:   message,
				SessionID: sessionID,
			}
			if raw != "" {
				if err := json.Unmarshal([]byte(raw), &ev); err != nil {
					return fmt.Errorf("invalid --json: %w", err)
				}
			}

			req := map[string]any{"event": ev}
			if key != "" {
				req["key"] = key
			} else {
				if clientID == "" {
					return fmt.Errorf("--key or --client-id is required")
				}
				if requestID == "" {
					requestID = uuid.NewString()
				}
				req["client_id"] = clientID
				req["request_id"] = requestID
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "key: %s:%s\n", clientID, requestID)
			}

			body, _ := json.Marshal(req)
			resp, err := http.Post(baseURL()+"/v1/sessions/publish", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			return printJSONResponse(cmd, resp)
		},
	}
	publishCmd.Flags().StringP("key", "k", "", "Session key (clientId:requestId)")
	publishCmd.Flags().String("client-id", "", "Client id (decomposed key form)")
	publishCmd.Flags().String("request-id", "", "Request id (generated when omitted)")
	publishCmd.Flags().StringP("type", "t", "progress", "Event type")
	publishCmd.Flags().String("text", "", "Event text")
	publishCmd.Flags().String("result", "", "Result text (complete events)")
	publishCmd.Flags().String("message", "", "Message text (error events)")
	publishCmd.Flags().String("session-id", "", "Agent session id (session events)")
	publishCmd.Flags().String("json", "", "Full event payload as JSON (overrides field flags)")
	return publishCmd
}
