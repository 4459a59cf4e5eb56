package storage

import (
	"context"
	"fmt"
	"time"

	"job-apply-go/internal/config"
	"job-apply-go/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9" // Redis OpenTelemetry钩子
	"github.com/redis/go-redis/v9"
)

// ErrNotFound 记录不存在的哨兵错误。
// 存储层统一用它表示"未找到"，调用方以此与传输/存储故障区分。
var ErrNotFound = fmt.Errorf("storage: record not found")

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	// Ping to check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetAttachmentMD5ExpireDuration 返回配置的附件MD5记录过期时间
func (r *Redis) GetAttachmentMD5ExpireDuration() time.Duration {
	days := r.config.AttachmentMD5ExpireDays
	if days <= 0 {
		return constants.AttachmentMD5ExpireDefault
	}
	return time.Duration(days) * 24 * time.Hour
}

// CheckAndSetAttachmentMD5 原子地检查并登记附件内容MD5。
// 返回 (true, 已有对象键, nil) 表示相同内容已上传过，可直接复用对象键；
// 返回 (false, "", nil) 表示本次调用成功登记了新的MD5。
func (r *Redis) CheckAndSetAttachmentMD5(ctx context.Context, md5Hex string, objectKey string) (bool, string, error) {
	if r.Client == nil {
		return false, "", fmt.Errorf("redis client is not initialized")
	}

	key := constants.AttachmentMD5KeyPrefix + md5Hex
	ok, err := r.Client.SetNX(ctx, key, objectKey, r.GetAttachmentMD5ExpireDuration()).Result()
	if err != nil {
		return false, "", fmt.Errorf("登记附件MD5失败: %w", err)
	}
	if ok {
		return false, "", nil
	}

	// SetNX未生效说明已有登记，取出已存在的对象键
	existing, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			// 登记在检查与读取之间过期，按"未登记"处理
			return false, "", nil
		}
		return true, "", fmt.Errorf("获取已登记的附件对象键失败: %w", err)
	}
	return true, existing, nil
}

// RemoveAttachmentMD5 移除一条附件MD5登记，上传失败回滚时使用
func (r *Redis) RemoveAttachmentMD5(ctx context.Context, md5Hex string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Del(ctx, constants.AttachmentMD5KeyPrefix+md5Hex).Err()
}
