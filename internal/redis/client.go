package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// EventChannel is the pub/sub channel carrying UI events for a topic.
func EventChannel(topic string) string {
	return fmt.Sprintf("resbox:events:%s", topic)
}

// CredentialKey is the key holding a stored secret.
func CredentialKey(service, account string) string {
	return fmt.Sprintf("credential:%s:%s", service, account)
}
