package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/protodoc/pkg/site"
)

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate documentation for changed proto files",
		Long: `Discovers .proto files under the configured proto paths, renders a Markdown
page for each file changed since the last run and updates the site navigation.`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	cmd.Flags().BoolP("force", "f", false, "regenerate every page, ignoring the change cache")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	env, err := newEnvironment(cmd, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := env.site.Build(cmd.Context(), force)
	if errors.Is(err, site.ErrNoSources) {
		env.log.Warnf("No proto files found in %v", env.config.ProtoPaths)
		return nil
	}
	printSummary(cmd.OutOrStdout(), result, time.Since(start))
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}
	return nil
}
