package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kmutua/feedback-gateway/internal/config"
	"github.com/kmutua/feedback-gateway/internal/logger"
	"github.com/kmutua/feedback-gateway/internal/mpesa"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register C2B confirmation/validation URLs with the Daraja API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.LogLevel)
		defer logger.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// no token cache here; a one-shot command authenticates fresh
		client := mpesa.NewClient(cfg.Mpesa, nil)
		if err := client.RegisterURLs(ctx); err != nil {
			return fmt.Errorf("register urls: %w", err)
		}

		fmt.Println(">> URL registration complete")
		return nil
	},
}
