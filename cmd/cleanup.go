/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/container"
	"github.com/spf13/cobra"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run artifact retention cleanup once",
	Long: `Run one round of artifact retention cleanup for all contracts.
For every contract the newest N generated files per format (DOCX and PDF)
are kept and older files are removed from disk. Version records in the
database are never touched, so restoring an old version keeps working.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if keep, _ := cmd.Flags().GetInt("keep"); keep > 0 {
			cfg.Retention.KeepCount = keep
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 3. 执行清理
		log.Printf("Running retention cleanup (keep %d per format)...", cfg.Retention.KeepCount)
		removed, err := ctr.RetentionService().RunOnce(context.Background())
		if err != nil {
			return fmt.Errorf("retention cleanup failed: %w", err)
		}

		log.Printf("Retention cleanup completed, removed %d files", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.legalbot)")
	cleanupCmd.Flags().Int("keep", 0, "Files to keep per contract and format (overrides config)")
}
