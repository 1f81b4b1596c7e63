package clientcmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// getJSON fetches a URL and pretty-prints the JSON response body.
func getJSON(cmd *cobra.Command, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	return printJSONResponse(cmd, resp)
}

// printJSONResponse writes the response body to stdout, indented when it is
// valid JSON, and reports non-2xx statuses as errors.
func printJSONResponse(cmd *cobra.Command, resp *http.Response) error {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(b))
	}
	var buf bytes.Buffer
	if json.Indent(&buf, b, "", "  ") == nil {
		b = buf.Bytes()
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(bytes.TrimSpace(b)))
	return nil
}
