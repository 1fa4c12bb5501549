package cli

import (
	"fmt"

	"github.com/soyeahso/botbridge/internal/config"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			issues := config.Validate(&cfg)
			if len(issues) == 0 {
				fmt.Println("config ok")
				return nil
			}
			for _, issue := range issues {
				fmt.Printf("%s: %s\n", issue.Path, issue.Message)
			}
			return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
		},
	}
}
