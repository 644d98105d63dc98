package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/nikolayk812/gomarketplace-cart/internal/cart"
	"github.com/nikolayk812/gomarketplace-cart/internal/config"
	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the cart lines in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := cfg.CurrencyUnit()
			if err != nil {
				return err
			}

			store := cart.MustFromContext(cmd.Context())
			return printItems(cmd.OutOrStdout(), store.Products(), unit)
		},
	}
}

func newAddCmd() *cobra.Command {
	var (
		id, title, image, price string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product, or bump its quantity when it is already in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("price[%s] is not valid: %w", price, err)
			}
			if id == "" {
				id = uuid.NewString()
			}

			store := cart.MustFromContext(cmd.Context())
			err = store.AddToCart(cmd.Context(), domain.Product{
				ID:       id,
				Title:    title,
				ImageURL: image,
				Price:    amount,
			})
			if err != nil {
				return fmt.Errorf("store.AddToCart: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "product id, generated when empty")
	cmd.Flags().StringVar(&title, "title", "", "product title")
	cmd.Flags().StringVar(&image, "image", "", "product image URL")
	cmd.Flags().StringVar(&price, "price", "0", "unit price")

	return cmd
}

func newIncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inc <id>",
		Short: "Increase the quantity of a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := cart.MustFromContext(cmd.Context())
			if err := store.Increment(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("store.Increment: %w", err)
			}
			return nil
		},
	}
}

func newDecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dec <id>",
		Short: "Decrease the quantity of a cart line, removing it at zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := cart.MustFromContext(cmd.Context())
			if err := store.Decrement(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("store.Decrement: %w", err)
			}
			return nil
		},
	}
}

func printItems(out io.Writer, items []domain.CartItem, unit currency.Unit) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "cart is empty")
		return err
	}

	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tTITLE\tQTY\tPRICE")
	for _, item := range items {
		amount, _ := item.Price.Float64()
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			item.ID, item.Title, item.Quantity, p.Sprint(currency.Symbol(unit.Amount(amount))))
	}

	return w.Flush()
}
