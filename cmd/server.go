/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hectronix2005/Legalbot-sub003/internal/api"
	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/container"
	"github.com/hectronix2005/Legalbot-sub003/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Legalbot API server.
The server will listen on the configured host and port,
and provide REST API interfaces for contract generation and versioning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 3. 初始化控制器
		templateController := api.NewTemplateController(ctr.TemplateService())
		contractController := api.NewContractController(ctr.ContractService())

		// 4. 设置路由
		router := setupRoutesWithControllers(ctr, templateController, contractController, cfg)

		// 5. 启动定时清理与指标收集
		if err := ctr.RetentionService().Start(); err != nil {
			return fmt.Errorf("failed to start retention scheduler: %w", err)
		}
		collector := metrics.NewCollector(ctr.DB(), 15*time.Second)
		collector.Start()
		defer collector.Stop()

		// 6. 监听配置文件变更,支持运行中调整日志级别
		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath)
			watcher.OnConfigChange(func(newCfg *config.Config) {
				log.Printf("Config file reloaded, applying log level %q", newCfg.Log.Level)
				level, err := logrus.ParseLevel(newCfg.Log.Level)
				if err != nil {
					log.Printf("Invalid log level %q: %v", newCfg.Log.Level, err)
					return
				}
				api.SetLoggerLevel(level)
			})
			if err := watcher.Start(); err != nil {
				log.Printf("Config watcher disabled: %v", err)
			} else {
				defer watcher.Stop()
			}
		}

		// 7. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器（在 goroutine 中）
		go func() {
			log.Printf("Server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		log.Println("Server exited")
		return nil
	},
}

// setupRoutesWithControllers 设置路由并绑定控制器
func setupRoutesWithControllers(
	ctr *container.Container,
	templateController *api.TemplateController,
	contractController *api.ContractController,
	cfg *config.Config,
) *gin.Engine {
	router := api.SetupRouter(ctr.DB(), ctr.Store(), cfg)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 模板管理路由
		templates := v1.Group("/templates")
		{
			templates.POST("", templateController.Create)
			templates.GET("", templateController.List)
			templates.GET("/:id", templateController.Get)
			templates.DELETE("/:id", templateController.Delete)
			templates.POST("/:id/source", templateController.UploadSource)
		}

		// 合同管理路由
		contracts := v1.Group("/contracts")
		{
			// 生成路由（必须在 /:id 之前）
			contracts.POST("/generate", contractController.Generate)

			contracts.GET("", contractController.List)
			contracts.GET("/:id", contractController.Get)

			// 具体路径的路由（必须在 /:id 之后，Gin 会优先匹配更长的路径）
			contracts.POST("/:id/versions", contractController.SaveEdit)
			contracts.GET("/:id/versions", contractController.ListVersions)
			contracts.POST("/:id/retention", contractController.Cleanup)
		}

		// 版本管理路由
		versions := v1.Group("/versions")
		{
			versions.POST("/:id/restore", contractController.Restore)
		}
	}

	// 自定义 NoRoute 处理器,返回 JSON 格式的 404
	// 必须在所有业务路由注册之后设置,确保未匹配的路由返回 JSON 而不是 HTML
	router.NoRoute(func(c *gin.Context) {
		api.Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
