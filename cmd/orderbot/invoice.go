package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"orderbot/internal/directlink"
	"orderbot/internal/invoice"
	"orderbot/internal/order"
)

var (
	customerName    string
	customerPhone   string
	customerAddress string
	customerPayment string
	summaryFile     string
	writeQR         bool
	openLink        bool
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice [summary]",
	Short: "Generate the xlsx invoice for an order summary",
	Long: `Generates Factura_<number>_<Name>.xlsx from an order summary given as an
argument or with --summary-file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := readSummary(args)
		if err != nil {
			return err
		}
		payment := order.PaymentMethod(customerPayment)
		if p, ok := order.PaymentByChoice(customerPayment); ok {
			payment = p
		}
		gen := invoice.NewGenerator(cfg.Invoice, cfg.Business, logger)
		inv, err := gen.Generate(order.Customer{
			Name:    customerName,
			Phone:   customerPhone,
			Address: customerAddress,
			Payment: payment,
		}, summary)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTotals(inv.Items))
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("✅ Factura %s: %s", inv.Number, inv.Path)))
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:   "link [phone] [message]",
	Short: "Print a wa.me click-to-chat link, optionally as a QR image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := directlink.Link(args[0], args[1], cfg.WhatsApp.DefaultCountryCode)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		if writeQR {
			path, err := directlink.WriteQR(link, cfg.WhatsApp.QRDir, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("QR: "+path))
		}
		if openLink {
			directlink.OpenInBrowser(link)
		}
		return nil
	},
}

func init() {
	invoiceCmd.Flags().StringVar(&customerName, "name", "", "Customer name (required)")
	invoiceCmd.Flags().StringVar(&customerPhone, "phone", "", "Customer phone")
	invoiceCmd.Flags().StringVar(&customerAddress, "address", "", "Delivery address")
	invoiceCmd.Flags().StringVar(&customerPayment, "payment", "1", "Payment: 1 cash, 2 transfer, 3 card, or free text")
	invoiceCmd.Flags().StringVar(&summaryFile, "summary-file", "", "Read the order summary from a file")
	_ = invoiceCmd.MarkFlagRequired("name")

	linkCmd.Flags().BoolVar(&writeQR, "qr", false, "Also write a QR code PNG")
	linkCmd.Flags().BoolVar(&openLink, "open", false, "Open the link in the default browser")
}

func readSummary(args []string) (string, error) {
	if summaryFile != "" {
		data, err := os.ReadFile(summaryFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("an order summary argument or --summary-file is required")
	}
	return args[0], nil
}
