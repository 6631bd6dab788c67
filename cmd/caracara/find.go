// Find command searches indicators by filter.
package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hur/caracara/pkg/ioc"
)

var (
	findType   string
	findValue  string
	findFilter string
	findIDs    bool
	findDeep   bool
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find indicators matching a filter",
	Long: `Find searches the tenant's indicators of compromise. Without flags it
returns every indicator.

Example:
  caracara find --type domain
  caracara find --type ipv4 --value 198.51.100.7
  caracara find --filter "created_on:>'2026-01-01'"
  caracara find --ids --deep`,
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findType, "type", "", "filter by indicator type (domain, ipv4, ipv6, md5, sha256)")
	findCmd.Flags().StringVar(&findValue, "value", "", "filter by indicator value")
	findCmd.Flags().StringVar(&findFilter, "filter", "", "raw FQL filter clause")
	findCmd.Flags().BoolVar(&findIDs, "ids", false, "print indicator IDs only")
	findCmd.Flags().BoolVar(&findDeep, "deep", false, "page with the after cursor (sequential, no depth cap)")
}

func buildFilter() *ioc.Filter {
	filter := ioc.NewFilter()
	if findType != "" {
		filter.Eq("type", findType)
	}
	if findValue != "" {
		filter.Eq("value", findValue)
	}
	if findFilter != "" {
		filter.Raw(findFilter)
	}
	return filter
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	filter := buildFilter()

	if findIDs {
		var (
			ids []string
			err error
		)
		if findDeep {
			ids, err = iocs.SearchIndicatorIDsDeep(ctx, filter)
		} else {
			ids, err = iocs.SearchIndicatorIDs(ctx, filter)
		}
		if err != nil {
			return fmt.Errorf("search indicators: %w", err)
		}
		return printIDs(ids)
	}

	indicators, err := iocs.DescribeIndicators(ctx, filter)
	if err != nil {
		return fmt.Errorf("describe indicators: %w", err)
	}
	return printIndicators(indicators)
}

func printIDs(ids []string) error {
	if jsonOutput {
		output, err := json.MarshalIndent(ids, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Printf("Total: %d indicator(s)\n", len(ids))
	return nil
}

// printIndicators prints indicators in a human-readable table format.
func printIndicators(indicators []ioc.Indicator) error {
	if jsonOutput {
		output, err := json.MarshalIndent(indicators, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	if len(indicators) == 0 {
		fmt.Println("No indicators found.")
		return nil
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tTYPE\tVALUE\tACTION\tSEVERITY")
	fmt.Fprintln(w, "--\t----\t-----\t------\t--------")
	for _, indicator := range indicators {
		value := indicator.Value
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		shortID := indicator.ID
		if len(shortID) > 12 {
			shortID = shortID[:12]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID,
			indicator.Type,
			value,
			indicator.Action,
			indicator.Severity,
		)
	}
	w.Flush()

	for _, line := range strings.Split(sb.String(), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
	fmt.Printf("Total: %d indicator(s)\n", len(indicators))
	return nil
}
