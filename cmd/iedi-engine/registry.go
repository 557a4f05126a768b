// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/iedi-engine/internal/classify"
	"github.com/pdiddy/iedi-engine/internal/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the entity and outlet reference data",
}

var registryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List registered entities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		fmt.Printf("%-20s  %-6s  %-25s  %s\n", "ID", "Active", "Name", "Aliases")
		fmt.Println(strings.Repeat("-", 80))
		for _, e := range reg.Entities() {
			fmt.Printf("%-20s  %-6t  %-25s  %s\n", e.ID, e.Active, e.CanonicalName, strings.Join(e.Aliases, ", "))
		}
		fmt.Printf("\n%d entities, %d outlets (%s)\n", len(reg.Entities()), reg.Outlets(), cfg.RegistryPath)
		return nil
	},
}

var registryLookupCmd = &cobra.Command{
	Use:   "lookup <domain>",
	Short: "Show how a mention domain is classified",
	Long: `Lookup normalizes a domain (or URL) the way mentions are normalized and
reports the registered outlet serving it, its tier, and the reach group its
monthly visitors fall in.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		domain := registry.NormalizeDomain(args[0])
		o, ok := reg.LookupOutlet(domain)
		if !ok {
			fmt.Printf("%s: not registered (unclassified)\n", domain)
			return nil
		}
		fmt.Printf("%s: outlet %s (%s)\n", domain, o.Domain, o.Name)
		fmt.Printf("  classification:   %s\n", o.Classification)
		fmt.Printf("  monthly visitors: %d (reach group %s)\n", o.MonthlyVisitors, classify.ReachGroupFor(o.MonthlyVisitors))
		return nil
	},
}

func init() {
	registryCmd.AddCommand(registryShowCmd)
	registryCmd.AddCommand(registryLookupCmd)
	rootCmd.AddCommand(registryCmd)
}
