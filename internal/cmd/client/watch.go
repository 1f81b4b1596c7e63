package clientcmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rvale/sesh/internal/client"
	"github.com/rvale/sesh/internal/session"
)

// NewWatchCommand constructs the `watch` command: a live subscription that
// prints one JSON line per event and reconnects with backoff until the
// session finishes.
func NewWatchCommand(baseURL BaseURLFunc) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a session's events until it finishes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keyStr, _ := cmd.Flags().GetString("key")
			after, _ := cmd.Flags().GetUint64("after")
			baseMs, _ := cmd.Flags().GetInt64("backoff-base-ms")
			maxMs, _ := cmd.Flags().GetInt64("backoff-max-ms")
			maxAttempts, _ := cmd.Flags().GetInt("max-attempts")

			key, err := session.Parse(keyStr)
			if err != nil {
				return fmt.Errorf("invalid --key: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			done := make(chan struct{})
			sub := client.New(client.Options{
				Transport:    client.NewHTTPTransport(baseURL()),
				BaseInterval: time.Duration(baseMs) * time.Millisecond,
				MaxInterval:  time.Duration(maxMs) * time.Millisecond,
				MaxAttempts:  maxAttempts,
			}, func(m client.Message) {
				out := map[string]any{"event": m.Event}
				if m.ID > 0 {
					out["id"] = m.ID
				}
				_ = enc.Encode(out)
				if m.Event.Terminal() {
					close(done)
				}
			}, nil)
			defer sub.Disconnect()

			sub.SetKey(key, after)

			ticker := time.NewTicker(250 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
					// the machine settles at disconnected once it gives up
					if sub.Status() == client.StatusDisconnected && !sub.Terminal() {
						return fmt.Errorf("connection lost after %d events", sub.LastEventID())
					}
				}
			}
		},
	}
	watchCmd.Flags().StringP("key", "k", "", "Session key (clientId:requestId)")
	watchCmd.Flags().Uint64("after", 0, "Resume after this event id")
	watchCmd.Flags().Int64("backoff-base-ms", 3000, "Reconnect backoff base in ms")
	watchCmd.Flags().Int64("backoff-max-ms", 30000, "Reconnect backoff cap in ms")
	watchCmd.Flags().Int("max-attempts", 5, "Consecutive failures before giving up")
	return watchCmd
}
