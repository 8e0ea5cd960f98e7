// Package api 提供拍賣引擎的 HTTP 介面與服務組裝。
// 身分驗證由外部閘道負責，請求以 X-User-ID 標頭帶入使用者識別。
package api

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	redisAdapter "spacebid/adapters/redis"
	"spacebid/adapters/sse"
	"spacebid/bidding"
	"spacebid/scheduler"
	"spacebid/store"
)

type ServerImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
	producer    redisAdapter.IEventProducer
	hub         sse.IHub
	store       store.Store
	bidding     *bidding.Service
	scheduler   *scheduler.Scheduler

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 初始化資料庫連線
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}

	// 初始化Redis連線
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	// 初始化事件流
	producer, err := redisAdapter.NewEventProducer(redisClient, config.Redis.StreamKeys.Events)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create event producer, err=%w", op, err)
	}
	consumer, err := redisAdapter.NewEventConsumer(redisClient, config.Redis.StreamKeys.Events)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create event consumer, err=%w", op, err)
	}
	hub := sse.NewHub(consumer, nil)

	// 組裝持久層、出價服務與排程器
	st := store.NewGormStore(db)
	bidSvc := bidding.NewService(st, bidding.WithPublisher(producer))
	locks := redisAdapter.NewLockFactory(redisClient)
	schedulerOpts := []scheduler.Option{
		scheduler.WithPublisher(producer),
		scheduler.WithLockFactory(func(name string) scheduler.Mutex {
			return locks(name)
		}),
	}
	if config.Scheduler.TickInterval > 0 {
		schedulerOpts = append(schedulerOpts, scheduler.WithInterval(config.Scheduler.TickInterval))
	}
	sched := scheduler.NewScheduler(st, bidSvc, schedulerOpts...)

	return &ServerImpl{
		db:          db,
		redisClient: redisClient,
		producer:    producer,
		hub:         hub,
		store:       st,
		bidding:     bidSvc,
		scheduler:   sched,
		config:      config,
	}, nil
}

// Start 啟動事件流與排程器。
func (impl *ServerImpl) Start() {
	impl.producer.Start()
	impl.hub.Start()
	impl.scheduler.Start()
}

// Close 依啟動的相反順序釋放資源。
func (impl *ServerImpl) Close() {
	impl.scheduler.Close()
	impl.hub.Close()
	impl.producer.Close()
	impl.redisClient.Close()
}
