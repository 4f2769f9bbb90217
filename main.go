package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"

	"invoicedesk/collections"
	"invoicedesk/config"
	"invoicedesk/handlers"
	"invoicedesk/services"
)

// cliFlags holds the persistent flags that override environment settings.
type cliFlags struct {
	stripeSecret        string
	stripeWebhookSecret string
	currency            string
	batchConcurrency    int
	externalTimeout     time.Duration
	dueDays             int
}

func bindFlags(cmd *cobra.Command, f *cliFlags) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&f.stripeSecret, "stripeSecret", "", "Stripe secret key (overrides STRIPE_SECRET_KEY)")
	flags.StringVar(&f.stripeWebhookSecret, "stripeWebhookSecret", "", "Stripe webhook signing secret (overrides STRIPE_WEBHOOK_SECRET)")
	flags.StringVar(&f.currency, "currency", "", "ISO currency code for payment links (overrides INVOICE_CURRENCY)")
	flags.IntVar(&f.batchConcurrency, "batchConcurrency", 0, "workers processed in parallel per batch (overrides INVOICE_BATCH_CONCURRENCY)")
	flags.DurationVar(&f.externalTimeout, "externalTimeout", 0, "timeout for each payment provider call (overrides EXTERNAL_CALL_TIMEOUT)")
	flags.IntVar(&f.dueDays, "dueDays", 0, "payment terms in days (overrides INVOICE_DUE_DAYS)")
}

// loadConfig reads the environment and applies any flags that were set.
func loadConfig(cmd *cobra.Command, f *cliFlags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.PersistentFlags()
	if flags.Changed("stripeSecret") {
		cfg.Stripe.SecretKey = f.stripeSecret
	}
	if flags.Changed("stripeWebhookSecret") {
		cfg.Stripe.WebhookSecret = f.stripeWebhookSecret
	}
	if flags.Changed("currency") {
		cfg.Invoice.Currency = f.currency
	}
	if flags.Changed("batchConcurrency") {
		cfg.Invoice.BatchConcurrency = f.batchConcurrency
	}
	if flags.Changed("externalTimeout") {
		cfg.ExternalTimeout = f.externalTimeout
	}
	if flags.Changed("dueDays") {
		cfg.Invoice.DueDays = f.dueDays
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func documentOptions(cfg config.Config) services.DocumentOptions {
	return services.DocumentOptions{
		CurrencySymbol: cfg.Invoice.CurrencySymbol,
		DueDays:        cfg.Invoice.DueDays,
	}
}

// renderTemplateCmd renders a template file with sample data, without a
// running server.
func renderTemplateCmd(app *pocketbase.PocketBase, f *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "render-template <template.json> <out.pdf>",
		Short: "Render a template file with sample data to a PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app.RootCmd, f)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}
			var tpl services.Template
			if err := json.Unmarshal(data, &tpl); err != nil {
				return fmt.Errorf("parse template: %w", err)
			}
			if err := tpl.Validate(); err != nil {
				return fmt.Errorf("invalid template: %w", err)
			}

			doc := services.SampleInvoiceDocument(tpl, "", time.Now(), documentOptions(cfg))
			pdfBytes, err := services.RenderInvoicePDF(doc)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], pdfBytes, 0o644); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}
			fmt.Printf("Rendered %q to %s\n", tpl.Name, args[1])
			return nil
		},
	}
}

func main() {
	app := pocketbase.New()

	var flags cliFlags
	bindFlags(app.RootCmd, &flags)
	app.RootCmd.AddCommand(renderTemplateCmd(app, &flags))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateMissingAgencyReferences(app); err != nil {
			log.Printf("Warning: agency reference migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		cfg, err := loadConfig(app.RootCmd, &flags)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		opts := documentOptions(cfg)

		var payments services.PaymentProvider = services.UnconfiguredProvider{}
		if cfg.PaymentsEnabled() {
			stripeProvider := services.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Invoice.Currency)
			if cfg.Invoice.PublicBaseURL != "" {
				stripeProvider.SuccessURL = cfg.Invoice.PublicBaseURL + "/payment/success"
			}
			payments = stripeProvider
		} else {
			log.Printf("Warning: STRIPE_SECRET_KEY is not set; invoice generation will fail at the payment step")
		}

		files := services.NewPDFStore(app)
		gen := &services.Generator{
			App:             app,
			Files:           files,
			Payments:        payments,
			Concurrency:     cfg.Invoice.BatchConcurrency,
			ExternalTimeout: cfg.ExternalTimeout,
			Options:         opts,
		}

		sessions := handlers.NewEditorSessions(handlers.DefaultEditorSessionTTL)
		app.Cron().MustAdd("editorSessionsPurge", "*/10 * * * *", func() {
			if n := sessions.Purge(); n > 0 {
				log.Printf("editor: purged %d expired session(s)", n)
			}
		})

		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		// ── JSON API ─────────────────────────────────────────────
		api := se.Router.Group("/api")

		api.GET("/agencies", handlers.HandleAgencyList(app))
		api.POST("/agencies", handlers.HandleAgencyCreate(app))
		api.GET("/agencies/{id}", handlers.HandleAgencyGet(app))
		api.DELETE("/agencies/{id}", handlers.HandleAgencyDelete(app, files))

		api.GET("/workers", handlers.HandleWorkerList(app))
		api.GET("/workers/{workerId}", handlers.HandleWorkerGet(app))
		api.PUT("/workers/{workerId}", handlers.HandleWorkerUpdate(app))
		api.DELETE("/workers/{workerId}", handlers.HandleWorkerDelete(app))

		api.GET("/templates/{id}", handlers.HandleTemplateGet(app))
		api.GET("/template-fields", handlers.HandleTemplateFields())

		api.GET("/invoices", handlers.HandleInvoiceList(app, opts))
		api.GET("/invoices/{invoiceId}", handlers.HandleInvoiceGet(app, opts))
		api.GET("/invoices/{invoiceId}/pdf", handlers.HandleInvoicePDF(app, files))
		api.DELETE("/invoices/{invoiceId}", handlers.HandleInvoiceDelete(app, files))
		api.PATCH("/invoices/{invoiceId}/status", handlers.HandleInvoiceStatus(app, opts))

		api.POST("/webhooks/stripe", handlers.HandleStripeWebhook(app, cfg.Stripe.WebhookSecret))

		// ── Agency-scoped API ────────────────────────────────────
		agency := api.Group("/agencies/{id}")
		agency.BindFunc(handlers.AgencyScopeMiddleware(app))

		agency.GET("/workers", handlers.HandleAgencyWorkerList(app))
		agency.POST("/workers", handlers.HandleWorkerCreate(app))
		agency.POST("/workers/import", handlers.HandleWorkerImport(app))

		agency.GET("/template", handlers.HandleAgencyTemplateGet(app))
		agency.PUT("/template", handlers.HandleAgencyTemplatePut(app))

		agency.POST("/invoices", handlers.HandleInvoiceGenerate(app, gen))
		agency.GET("/invoices", handlers.HandleAgencyInvoiceList(app, opts))
		agency.GET("/invoices/export/excel", handlers.HandleInvoiceExportExcel(app, opts))
		agency.GET("/invoices/export/pdf", handlers.HandleInvoiceExportPDF(app, opts))

		// ── Template editor sessions ─────────────────────────────
		agency.POST("/template/editor", handlers.HandleEditorOpen(app, sessions))

		editor := agency.Group("/template/editor/{sessionId}")
		editor.GET("", handlers.HandleEditorGet(app, sessions))
		editor.DELETE("", handlers.HandleEditorClose(app, sessions))
		editor.POST("/swap", handlers.HandleEditorSwap(app, sessions))
		editor.POST("/rows", handlers.HandleEditorInsertRow(app, sessions))
		editor.POST("/blocks", handlers.HandleEditorAddBlock(app, sessions))
		editor.PATCH("/blocks/{blockId}", handlers.HandleEditorUpdateBlock(app, sessions))
		editor.DELETE("/blocks/{blockId}", handlers.HandleEditorRemoveBlock(app, sessions))
		editor.POST("/blocks/{blockId}/pairs", handlers.HandleEditorAddPair(app, sessions))
		editor.PATCH("/blocks/{blockId}/pairs/{index}", handlers.HandleEditorUpdatePair(app, sessions))
		editor.DELETE("/blocks/{blockId}/pairs/{index}", handlers.HandleEditorRemovePair(app, sessions))
		editor.POST("/columns", handlers.HandleEditorAddColumn(app, sessions))
		editor.PATCH("/columns/{columnId}", handlers.HandleEditorUpdateColumn(app, sessions))
		editor.DELETE("/columns/{columnId}", handlers.HandleEditorRemoveColumn(app, sessions))
		editor.PATCH("/meta", handlers.HandleEditorMeta(app, sessions))
		editor.GET("/preview", handlers.HandleEditorPreview(app, sessions, opts))
		editor.GET("/preview.pdf", handlers.HandleEditorPreviewPDF(app, sessions, opts))
		editor.POST("/save", handlers.HandleEditorSave(app, sessions))

		// ── HTML pages ───────────────────────────────────────────
		pages := se.Router.Group("/agencies/{id}")
		pages.BindFunc(handlers.AgencyScopeMiddleware(app))
		pages.GET("/invoices", handlers.HandleInvoiceListPage(app, opts))
		pages.POST("/invoices/{invoiceId}/status", handlers.HandleInvoiceStatusAction(app, opts))

		se.Router.GET("/payment/success", func(e *core.RequestEvent) error {
			return e.String(http.StatusOK, "Payment received. Thank you!")
		})

		// Redirect home to the first agency's invoices
		se.Router.GET("/{$}", func(e *core.RequestEvent) error {
			agencies, err := services.ListAgencies(app)
			if err != nil || len(agencies) == 0 {
				return e.Redirect(http.StatusFound, "/api/agencies")
			}
			return e.Redirect(http.StatusFound, fmt.Sprintf("/agencies/%s/invoices", agencies[0].ID))
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
