package redis

import "github.com/redis/go-redis/v9"

func roomZ(score int64, member string) redis.Z {
	return redis.Z{Score: float64(score), Member: member}
}
