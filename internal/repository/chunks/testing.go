package chunks

import "github.com/redis/rueidis"

// NewRedisStoreForTest wraps an existing client without connecting or
// creating the index.
func NewRedisStoreForTest(c rueidis.Client, vectorDim int) *RedisStore {
	return &RedisStore{client: c, vectorDim: vectorDim}
}
