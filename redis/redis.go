package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/config"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client *redis.Client
}

// NewRedisClient 初始化并返回一个新的 RedisClient 实例
func NewRedisClient(cfg *config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password, // 密码，没有则留空
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
		// 可选：添加超时配置
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// PING 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis client connection test failed: %w", err)
	}

	return &RedisClient{
		Client: client,
	}, nil
}

// Close 关闭 Redis 连接
func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// 在线状态镜像：内存在线表的 redis 副本，只给 REST 查询用
// 丢了也无所谓，websocket 认证时会重建
const (
	onlineCustomersKey = "support:online:customers"
	onlineAdminsKey    = "support:online:admins"
	onlineTTL          = 24 * time.Hour
)

// MarkCustomerOnline 顾客上线时写入镜像，value 记上线时间
func (r *RedisClient) MarkCustomerOnline(ctx context.Context, customerID uint) error {
	field := strconv.FormatUint(uint64(customerID), 10)
	if err := r.Client.HSet(ctx, onlineCustomersKey, field, time.Now().Format(time.RFC3339)).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, onlineCustomersKey, onlineTTL).Err()
}

func (r *RedisClient) MarkCustomerOffline(ctx context.Context, customerID uint) error {
	field := strconv.FormatUint(uint64(customerID), 10)
	return r.Client.HDel(ctx, onlineCustomersKey, field).Err()
}

func (r *RedisClient) MarkAdminOnline(ctx context.Context, adminID uint) error {
	field := strconv.FormatUint(uint64(adminID), 10)
	if err := r.Client.HSet(ctx, onlineAdminsKey, field, time.Now().Format(time.RFC3339)).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, onlineAdminsKey, onlineTTL).Err()
}

func (r *RedisClient) MarkAdminOffline(ctx context.Context, adminID uint) error {
	field := strconv.FormatUint(uint64(adminID), 10)
	return r.Client.HDel(ctx, onlineAdminsKey, field).Err()
}

// GetOnlineCustomers 返回 customerID -> 上线时间
func (r *RedisClient) GetOnlineCustomers(ctx context.Context) (map[string]string, error) {
	result, err := r.Client.HGetAll(ctx, onlineCustomersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch online customers: %w", err)
	}
	return result, nil
}

func (r *RedisClient) GetOnlineAdmins(ctx context.Context) (map[string]string, error) {
	result, err := r.Client.HGetAll(ctx, onlineAdminsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch online admins: %w", err)
	}
	return result, nil
}
