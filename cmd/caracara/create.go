// Create command submits a new indicator.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hur/caracara/pkg/ioc"
)

var (
	createType      string
	createValue     string
	createAction    string
	createSeverity  string
	createPlatforms []string
	createComment   string
	createExpire    string
	createGlobal    bool
	createStrict    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an indicator",
	Long: `Create submits one indicator of compromise to the tenant.

Example:
  caracara create --type domain --value evil.example.com --action prevent --platforms windows,mac,linux
  caracara create --type sha256 --value e3b0c442... --action detect --severity high --comment "incident 4711"`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createType, "type", "", "indicator type (domain, ipv4, ipv6, md5, sha256)")
	createCmd.Flags().StringVar(&createValue, "value", "", "indicator value")
	createCmd.Flags().StringVar(&createAction, "action", "detect", "action to take on match")
	createCmd.Flags().StringVar(&createSeverity, "severity", "", "severity (informational, low, medium, high, critical)")
	createCmd.Flags().StringSliceVar(&createPlatforms, "platforms", []string{"windows", "mac", "linux"}, "platforms the indicator applies to")
	createCmd.Flags().StringVar(&createComment, "comment", "", "audit log comment")
	createCmd.Flags().StringVar(&createExpire, "expiration", "", "expiration timestamp (RFC 3339)")
	createCmd.Flags().BoolVar(&createGlobal, "applied-globally", true, "apply to all host groups")
	createCmd.Flags().BoolVar(&createStrict, "strict", false, "treat API warnings as failures")

	createCmd.MarkFlagRequired("type")
	createCmd.MarkFlagRequired("value")
}

func runCreate(cmd *cobra.Command, args []string) error {
	indicator := ioc.Indicator{
		Type:            createType,
		Value:           createValue,
		Action:          createAction,
		Severity:        createSeverity,
		Platforms:       createPlatforms,
		Expiration:      createExpire,
		AppliedGlobally: createGlobal,
	}

	created, err := iocs.Create(cmd.Context(), indicator, ioc.MutateOptions{
		Comment:          createComment,
		EscalateWarnings: createStrict,
	})
	if err != nil {
		return fmt.Errorf("create indicator: %w", err)
	}

	if jsonOutput {
		output, err := json.MarshalIndent(created, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Created indicator %s (%s %s)\n", created.ID, created.Type, created.Value)
	return nil
}
