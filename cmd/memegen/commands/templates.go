package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DiscountLegolas/memegen/pkg/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage the template collection",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closer, err := newPipeline(cmd, false)
		if err != nil {
			return err
		}
		defer closer()

		for key, t := range p.Templates() {
			fmt.Printf("%-20s %d slots  %s\n", key, t.SlotCount(), strings.Join(t.Tags, ", "))
		}
		return nil
	},
}

var templatesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the template store from the fallback file",
	Long: `Seed the template store from the fallback file.

Reads the static JSON collection and writes every template into the
configured BadgerDB store, which then takes precedence on load.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if cfg.Templates.StoreDir == "" {
			return fmt.Errorf("templates.store_dir not configured")
		}
		if cfg.Templates.File == "" {
			return fmt.Errorf("templates.file not configured")
		}

		loader, err := template.NewLoader(cfg.Templates.StoreDir, cfg.Templates.File)
		if err != nil {
			return err
		}
		defer loader.Close()

		templates, err := loader.Load(cmd.Context())
		if err != nil {
			return err
		}
		if err := loader.Seed(cmd.Context(), templates); err != nil {
			return err
		}
		fmt.Printf("seeded %d templates into %s\n", len(templates), cfg.Templates.StoreDir)
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesSeedCmd)
	rootCmd.AddCommand(templatesCmd)
}
