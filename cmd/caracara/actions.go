// Actions command lists the valid IOC action types.
package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the valid IOC action types",
	Args:  cobra.NoArgs,
	RunE:  runActions,
}

func runActions(cmd *cobra.Command, args []string) error {
	actions, err := iocs.Actions(cmd.Context())
	if err != nil {
		return fmt.Errorf("list actions: %w", err)
	}

	if jsonOutput {
		output, err := json.MarshalIndent(actions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	ids := make([]string, 0, len(actions))
	for id := range actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tPLATFORMS")
	fmt.Fprintln(w, "--\t-----\t---------")
	for _, id := range ids {
		action := actions[id]
		fmt.Fprintf(w, "%s\t%s\t%s\n", action.ID, action.Label, strings.Join(action.Platforms, ","))
	}
	w.Flush()

	for _, line := range strings.Split(sb.String(), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
	return nil
}
