package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore 将商品以 JSON 形式存放在 Redis 中
// 每个商品一个 key，另有一个 SET 作为编码索引
type RedisStore struct {
	client *backend.Client
	prefix string
}

type RedisOption func(*RedisStore)

// WithRedisPrefix 设置 key 前缀
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore 根据地址创建 Redis 商品库
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	return NewRedisStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisStoreFromClient 使用已有的客户端创建 Redis 商品库
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "checkout:product:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(code string) string {
	return s.prefix + code
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

// Put 写入或覆盖一个商品
func (s *RedisStore) Put(ctx context.Context, p Product) error {
	if p.Code == "" {
		return errors.New("product code is empty")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(p.Code), data, 0)
	pipe.SAdd(ctx, s.indexKey(), p.Code)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save product to redis: %w", err)
	}
	return nil
}

// Get 按编码读取商品
func (s *RedisStore) Get(ctx context.Context, code string) (Product, error) {
	val, err := s.client.Get(ctx, s.key(code)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return Product{}, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		return Product{}, fmt.Errorf("failed to get product from redis: %w", err)
	}
	var p Product
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return Product{}, fmt.Errorf("failed to unmarshal product %s: %w", code, err)
	}
	return p, nil
}

// Delete 删除商品及其索引
func (s *RedisStore) Delete(ctx context.Context, code string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(code))
	pipe.SRem(ctx, s.indexKey(), code)
	_, err := pipe.Exec(ctx)
	return err
}

// Products 读取索引中的全部商品，索引中存在但数据缺失的编码会被跳过
func (s *RedisStore) Products(ctx context.Context) ([]Product, error) {
	codes, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	sort.Strings(codes)
	out := make([]Product, 0, len(codes))
	for _, code := range codes {
		p, err := s.Get(ctx, code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Close 关闭 Redis 客户端
func (s *RedisStore) Close() error {
	return s.client.Close()
}
