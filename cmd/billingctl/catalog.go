package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/repository"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Maintain priced catalog items",
}

var catalogSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or reprice a catalog item",
	Long: `Create or reprice a catalog item.

Repricing affects only charges recorded afterwards; existing line items keep
the price they were recorded at.`,
	Example: `  billingctl catalog set --kind service --ref checkup --name "General checkup" --price 150000
  billingctl catalog set --kind inventory --ref hay-kg --name "Hay, per kg" --price 4000 --inactive`,
	RunE: runCatalogSet,
}

var catalogPruneCmd = &cobra.Command{
	Use:   "prune-idempotency",
	Short: "Delete expired HTTP idempotency cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := repository.NewIdempotencyRepository(current.db).CleanExpired(cmd.Context())
		if err != nil {
			return err
		}
		current.logger.Info("idempotency cache pruned", "removed", n)
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd, catalogPruneCmd)
	catalogCmd.AddCommand(catalogSetCmd)

	catalogSetCmd.Flags().String("kind", "", "Line kind: service, medication or inventory")
	catalogSetCmd.Flags().String("ref", "", "Catalog reference")
	catalogSetCmd.Flags().String("name", "", "Display name")
	catalogSetCmd.Flags().Int64("price", 0, "Unit price in minor currency units")
	catalogSetCmd.Flags().Bool("inactive", false, "Mark the item unavailable for new charges")
	for _, f := range []string{"kind", "ref", "name", "price"} {
		catalogSetCmd.MarkFlagRequired(f)
	}
}

func runCatalogSet(cmd *cobra.Command, args []string) error {
	kindStr, _ := cmd.Flags().GetString("kind")
	ref, _ := cmd.Flags().GetString("ref")
	name, _ := cmd.Flags().GetString("name")
	price, _ := cmd.Flags().GetInt64("price")
	inactive, _ := cmd.Flags().GetBool("inactive")

	kind := domain.LineKind(kindStr)
	if !kind.IsValid() || kind.IsCredit() {
		return fmt.Errorf("kind %q: %w", kindStr, domain.ErrInvalidLineKind)
	}
	unitPrice, err := domain.NewMoney(price)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}

	item := &domain.CatalogItem{
		Ref:       ref,
		Kind:      kind,
		Name:      name,
		UnitPrice: unitPrice,
		Active:    !inactive,
		UpdatedAt: time.Now().UTC(),
	}
	if err := repository.NewCatalogRepository(current.db).Upsert(cmd.Context(), item); err != nil {
		return err
	}

	current.logger.Info("catalog item saved", "kind", kind, "ref", ref, "unit_price", unitPrice, "active", item.Active)
	return printJSON(cmd, item)
}
