package api

import "time"

type ServerConfig struct {
	DB        DBConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	StreamKeys RedisStreamKeys
}

type RedisStreamKeys struct {
	Events string
}

type SchedulerConfig struct {
	TickInterval time.Duration
}
