package main

import (
	"DigitNet/pkg/config"
	"DigitNet/pkg/server"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	logger := log.New(os.Stdout, "[DigitNet] ", log.LstdFlags)

	cfg, err := config.Parse("server", os.Args[1:])
	if err != nil {
		logger.Fatalf("解析参数失败: %v", err)
	}
	logger.Printf("网络结构: %s, 权重目录: %s", config.FormatLayers(cfg.Layers), cfg.WeightsDir)

	httpServer := server.NewHTTPServer(cfg.Port, cfg.AllowOrigin, logger)
	service := server.NewService(cfg, nil, logger)
	service.RegisterRoutes(httpServer.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Printf("收到信号 %v，正在关闭服务...", sig)
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("HTTP服务器异常退出: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Stop(ctx); err != nil {
		logger.Printf("关闭HTTP服务器失败: %v", err)
	}
	service.Close()
	logger.Println("服务已关闭")
}
