// Delete command removes indicators by ID or filter.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hur/caracara/pkg/ioc"
)

var (
	deleteFilter  string
	deleteType    string
	deleteValue   string
	deleteComment string
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Delete indicators by ID or filter",
	Long: `Delete removes indicators from the tenant, either by explicit IDs or by
filter. Filter deletion refuses an empty filter.

Example:
  caracara delete 5aa12b4c1ef0
  caracara delete --type domain --value evil.example.com --comment "false positive"`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteType, "type", "", "delete indicators of this type")
	deleteCmd.Flags().StringVar(&deleteValue, "value", "", "delete indicators with this value")
	deleteCmd.Flags().StringVar(&deleteFilter, "filter", "", "raw FQL filter clause")
	deleteCmd.Flags().StringVar(&deleteComment, "comment", "", "audit log comment")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		deleted []string
		err     error
	)
	if len(args) > 0 {
		deleted, err = iocs.DeleteBatch(ctx, args, deleteComment)
	} else {
		filter := buildDeleteFilter()
		deleted, err = iocs.DeleteByFilter(ctx, filter, deleteComment)
	}
	if err != nil {
		return fmt.Errorf("delete indicators: %w", err)
	}

	for _, id := range deleted {
		fmt.Println(id)
	}
	fmt.Printf("Deleted: %d indicator(s)\n", len(deleted))
	return nil
}

func buildDeleteFilter() *ioc.Filter {
	filter := ioc.NewFilter()
	if deleteType != "" {
		filter.Eq("type", deleteType)
	}
	if deleteValue != "" {
		filter.Eq("value", deleteValue)
	}
	if deleteFilter != "" {
		filter.Raw(deleteFilter)
	}
	return filter
}
