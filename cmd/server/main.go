package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Arionyxx/cinesync/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "CINESYNC_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "CINESYNC_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "CINESYNC_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	storage = configVar[string]{
		envKey:       "CINESYNC_STORAGE",
		flagKey:      "storage",
		defaultValue: app.StorageMemory,
	}
	membersLimit = configVar[int]{
		envKey:       "CINESYNC_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 16,
	}
	maxMessages = configVar[int]{
		envKey:       "CINESYNC_MAX_MESSAGES",
		flagKey:      "max-messages",
		defaultValue: 100,
	}
	trimMessagesTo = configVar[int]{
		envKey:       "CINESYNC_TRIM_MESSAGES_TO",
		flagKey:      "trim-messages-to",
		defaultValue: 50,
	}
	participantTimeout = configVar[time.Duration]{
		envKey:       "CINESYNC_PARTICIPANT_TIMEOUT",
		flagKey:      "participant-timeout",
		defaultValue: 45 * time.Second,
	}
	reapInterval = configVar[time.Duration]{
		envKey:       "CINESYNC_REAP_INTERVAL",
		flagKey:      "reap-interval",
		defaultValue: 15 * time.Second,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(storage.flagKey, storage.defaultValue, "Room storage backend (memory or redis)")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in a room")
	pflag.Int(maxMessages.flagKey, maxMessages.defaultValue, "Chat history cap per room")
	pflag.Int(trimMessagesTo.flagKey, trimMessagesTo.defaultValue, "Chat history size after trimming")
	pflag.Duration(participantTimeout.flagKey, participantTimeout.defaultValue, "Inactivity timeout for pull-mode participants")
	pflag.Duration(reapInterval.flagKey, reapInterval.defaultValue, "Stale participant sweep interval")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(storage.flagKey, storage.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(maxMessages.flagKey, maxMessages.envKey)
	viper.BindEnv(trimMessagesTo.flagKey, trimMessagesTo.envKey)
	viper.BindEnv(participantTimeout.flagKey, participantTimeout.envKey)
	viper.BindEnv(reapInterval.flagKey, reapInterval.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(storage.flagKey, storage.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(maxMessages.flagKey, maxMessages.defaultValue)
	viper.SetDefault(trimMessagesTo.flagKey, trimMessagesTo.defaultValue)
	viper.SetDefault(participantTimeout.flagKey, participantTimeout.defaultValue)
	viper.SetDefault(reapInterval.flagKey, reapInterval.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	config := &app.AppConfig{
		Host:               viper.GetString(host.flagKey),
		Port:               viper.GetInt(port.flagKey),
		LogLevel:           viper.GetString(logLevel.flagKey),
		Storage:            viper.GetString(storage.flagKey),
		MembersLimit:       viper.GetInt(membersLimit.flagKey),
		MaxMessages:        viper.GetInt(maxMessages.flagKey),
		TrimMessagesTo:     viper.GetInt(trimMessagesTo.flagKey),
		ParticipantTimeout: viper.GetDuration(participantTimeout.flagKey),
		ReapInterval:       viper.GetDuration(reapInterval.flagKey),
		RedisPort:          viper.GetInt(redisPort.flagKey),
		RedisHost:          viper.GetString(redisHost.flagKey),
		RedisPassword:      viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
