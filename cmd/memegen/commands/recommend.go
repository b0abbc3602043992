package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var recommendTop int

var recommendCmd = &cobra.Command{
	Use:   "recommend <topic>",
	Short: "Rank templates against a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closer, err := newPipeline(cmd, false)
		if err != nil {
			return err
		}
		defer closer()

		topic := strings.Join(args, " ")
		scored, err := p.RecommendTemplates(cmd.Context(), topic, recommendTop)
		if err != nil {
			return err
		}
		for _, s := range scored {
			fmt.Printf("%.3f  %-20s %s\n", s.Score, s.Template.Key, s.Template.Name)
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().IntVar(&recommendTop, "top", 5, "number of templates to show (0 for all)")
	rootCmd.AddCommand(recommendCmd)
}
