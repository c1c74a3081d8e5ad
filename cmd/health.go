package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/logger"
)

const healthTimeout = 30 * time.Second

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the context store and the generation backend are reachable",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
		defer cancel()

		svc, err := newServices(ctx, config, logger)
		if err != nil {
			logger.Fatal("initializing services", zap.Error(err))
		}
		defer svc.Close()

		if !svc.orchestrator.HealthCheck(ctx) {
			logger.Fatal("interviewer is unhealthy", zap.String("provider", config.Backend.Provider))
		}
		fmt.Println("ok")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
