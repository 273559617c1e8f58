package rdx

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func Init(addr string) {
	Conn = redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := Conn.Ping(ctx).Err(); err != nil {
		// Cache is an optimization, not a dependency. Callers treat misses
		// and errors the same way.
		log.Printf("redis unavailable at %s: %v", addr, err)
	}
}
