package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-apply-go/internal/api/handler"
	"job-apply-go/internal/api/router"
	"job-apply-go/internal/config"
	"job-apply-go/internal/outbox"
	"job-apply-go/internal/processor"
	"job-apply-go/internal/storage"
	"job-apply-go/internal/types"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/spf13/pflag"

	appCoreLogger "job-apply-go/internal/logger" // aliased to avoid conflict with std log and hertz log

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
)

var (
	version     = "1.0.0"        //nolint:gochecknoglobals
	serviceName = "job-apply-go" //nolint:gochecknoglobals
)

func main() {
	initLogger()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	if storageManager.HasInitErrors() {
		for _, initErr := range storageManager.InitErrors {
			glog.Warnf("存储组件初始化降级: %v", initErr)
		}
	}
	glog.Info("存储服务初始化成功")

	// 启动消息中继，将发件箱中的域事件投递到RabbitMQ
	var messageRelay *outbox.MessageRelay
	if storageManager.RabbitMQ != nil {
		relayLogger := log.New(appCoreLogger.Logger, "[MessageRelay] ", log.LstdFlags|log.Lshortfile)
		messageRelay = outbox.NewMessageRelay(
			storageManager.MySQL.DB(),
			storageManager.RabbitMQ,
			relayLogger,
			outbox.WithPollingInterval(config.GetDuration(cfg.Outbox.PollingInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
		)
		messageRelay.Start()
		glog.Info("消息中继服务已启动")
	} else {
		glog.Warn("RabbitMQ不可用，消息中继未启动，域事件将积压在发件箱")
	}

	applicationProcessor, err := processor.NewProcessorFromConfig(cfg, storageManager)
	if err != nil {
		glog.Fatalf("初始化ApplicationProcessor失败: %v", err)
	}
	glog.Info("ApplicationProcessor初始化成功")

	applicationHandler := handler.NewApplicationHandler(cfg, storageManager, applicationProcessor)
	glog.Info("ApplicationHandler初始化成功")

	// 启动事件审计消费者，落盘记录所有申请域事件
	var auditStopCh chan<- struct{}
	if storageManager.RabbitMQ != nil {
		stopCh, err := startEventAuditConsumer(storageManager.RabbitMQ, &cfg.RabbitMQ)
		if err != nil {
			glog.Warnf("启动事件审计消费者失败: %v", err)
		} else {
			auditStopCh = stopCh
			glog.Info("事件审计消费者已启动")
		}
	}

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, applicationHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}
	if auditStopCh != nil {
		close(auditStopCh)
		glog.Info("事件审计消费者已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// startEventAuditConsumer 声明事件队列并消费申请域事件，输出审计日志
func startEventAuditConsumer(mq *storage.RabbitMQ, cfg *config.RabbitMQConfig) (chan<- struct{}, error) {
	if err := mq.EnsureExchange(cfg.EventsExchange, "topic", true); err != nil {
		return nil, err
	}
	if err := mq.EnsureQueue(cfg.EventsQueue, true); err != nil {
		return nil, err
	}
	if err := mq.BindQueue(cfg.EventsQueue, cfg.EventsExchange, cfg.EventsRoutingKey); err != nil {
		return nil, err
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 10
	}

	stopCh, err := mq.StartConsumer(cfg.EventsQueue, prefetch, func(body []byte) bool {
		var event types.ApplicationEvent
		if err := json.Unmarshal(body, &event); err != nil {
			appCoreLogger.Logger.Error().
				Err(err).
				Str("payload", string(body)).
				Msg("解析申请域事件失败，丢弃消息")
			return true // 格式错误的消息重新入队也无法处理
		}

		appCoreLogger.Logger.Info().
			Str("event_id", event.EventID).
			Str("event_type", event.EventType).
			Str("application_id", event.ApplicationID).
			Str("job_id", event.JobID).
			Str("user_id", event.UserID).
			Str("status", event.Status).
			Time("occurred_at", event.OccurredAt).
			Msg("申请域事件")
		return true
	})
	if err != nil {
		return nil, err
	}
	return stopCh, nil
}

func initLogger() {
	logFilePath := "logs/app.log"
	fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("无法打开日志文件 %s: %v", logFilePath, err) // glog尚未初始化，使用标准log
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	multiWriter := zerolog.MultiLevelWriter(consoleWriter, fileWriter)

	level := zerolog.InfoLevel
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(multiWriter).With().Timestamp().Caller().Logger()

	// 同步到应用全局logger与zerolog的stdlib封装
	appCoreLogger.Logger = logger
	zlog.Logger = logger

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)

	// 设置 Hertz 的 glog
	glog.SetLogger(hertzCompatibleLogger)
	glog.SetLevel(glog.LevelInfo)

	log.Println("Logger initialized with Zerolog (appCoreLogger & glog via adapter), writing to console and file:", logFilePath)
}
