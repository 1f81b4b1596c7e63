package clientcmd

import (
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewRoot constructs a root Cobra command for the sesh client.
// It registers the sessions, publish and watch command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "sesh",
		Short: "sesh client commands",
	}
	root.AddCommand(NewSessionsCommand(baseURL))
	root.AddCommand(NewPublishCommand(baseURL))
	root.AddCommand(NewWatchCommand(baseURL))
	return root
}
