package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HTTPServer HTTP服务器
type HTTPServer struct {
	// Gin框架的路由引擎
	Router *gin.Engine
	// 监听端口
	Port int
	// 本机IP地址
	LocalIP string

	server *http.Server
	logger *log.Logger
}

// NewHTTPServer 创建新的HTTP服务器，allowOrigin 为允许跨域访问的前端地址
func NewHTTPServer(port int, allowOrigin string, logger *log.Logger) *HTTPServer {
	localIP, err := GetLocalIP()
	if err != nil {
		logger.Printf("警告: 获取本机IP失败: %v", err)
		localIP = "localhost"
	}

	router := gin.Default()
	if allowOrigin != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{allowOrigin},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	return &HTTPServer{
		Router:  router,
		Port:    port,
		LocalIP: localIP,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start 启动HTTP服务器，阻塞直到服务器关闭
func (hs *HTTPServer) Start() error {
	hs.logger.Printf("预测服务启动中...")
	hs.logger.Printf("监听地址: 0.0.0.0:%d", hs.Port)
	hs.logger.Printf("状态页面: http://%s:%d/status", hs.LocalIP, hs.Port)

	if err := hs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭
func (hs *HTTPServer) Stop(ctx context.Context) error {
	return hs.server.Shutdown(ctx)
}
