package storage

import (
	"context"
	"fmt"
	"log"

	"job-apply-go/internal/config"
)

// Storage 聚合所有存储组件
type Storage struct {
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
	MySQL    *MySQL
	Redis    *Redis

	// 记录初始化过程中发生的非致命错误
	InitErrors []error
}

// NewStorage 初始化所有存储组件。MySQL是硬依赖，初始化失败直接返回错误；
// 其余组件初始化失败只记录到InitErrors，由调用方决定是否可以降级运行。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}

	mysqlDB, err := NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}
	s.MySQL = mysqlDB

	minioClient, err := NewMinIO(&cfg.MinIO, nil)
	if err != nil {
		log.Printf("初始化MinIO失败: %v", err)
		s.InitErrors = append(s.InitErrors, fmt.Errorf("MinIO: %w", err))
	} else {
		s.MinIO = minioClient
	}

	rabbitMQ, err := NewRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		log.Printf("初始化RabbitMQ失败: %v", err)
		s.InitErrors = append(s.InitErrors, fmt.Errorf("RabbitMQ: %w", err))
	} else {
		s.RabbitMQ = rabbitMQ
	}

	redisAdapter, err := NewRedisAdapter(&cfg.Redis)
	if err != nil {
		log.Printf("初始化Redis失败: %v", err)
		s.InitErrors = append(s.InitErrors, fmt.Errorf("Redis: %w", err))
	} else {
		s.Redis = redisAdapter
	}

	return s, nil
}

// HasInitErrors 是否存在组件初始化错误
func (s *Storage) HasInitErrors() bool {
	return len(s.InitErrors) > 0
}

// Close 关闭所有存储连接
func (s *Storage) Close() {
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Printf("关闭MySQL连接失败: %v", err)
		}
	}
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Printf("关闭RabbitMQ连接失败: %v", err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
}
