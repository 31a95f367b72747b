package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"UniChat/global/config"
	"UniChat/logger"
	"UniChat/middleware"
	chatapi "UniChat/module/chat"
	"UniChat/module/chat/history"
	"UniChat/module/user"
	chatsrv "UniChat/service/chat"
	"UniChat/service/mgo"
	"UniChat/service/storage"
	redisc "UniChat/service/storage/redis"

	"github.com/gin-gonic/gin"
)

func main() {
	config.ConfigAll()
	cfg := &config.Global

	// 1) Collaborators: Redis presence mirror + Mongo history. Both are
	// optional at boot; the core keeps running without them.
	var mirror *storage.PresenceMirror
	if err := redisc.InitRedis(redisc.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		logger.Warnf("[main] redis unavailable, presence mirror disabled: %v", err)
	} else {
		mirror = storage.NewPresenceMirror(cfg.NodeId, cfg.HeartbeatDeadline())
	}

	var hist history.Store
	ctx := context.Background()
	if err := mgo.Init(ctx, mgo.Config{URI: cfg.MongoURI, Database: cfg.MongoDB}); err != nil {
		logger.Warnf("[main] mongo unavailable, history falls back to memory: %v", err)
		hist = history.NewMemStore()
	} else {
		db, _ := mgo.TryGetDB()
		ms := history.NewMongoStore(db)
		if err := ms.EnsureIndexes(ctx); err != nil {
			logger.Warnf("[main] ensure indexes: %v", err)
		}
		hist = ms
	}

	var idem storage.IdemStore
	if redisc.GetRedis() != nil {
		idem = storage.NewRedisIdem(0)
	}

	// 2) Session/presence core
	srv := chatsrv.NewServer(chatsrv.ServerConf{
		NodeId:            cfg.NodeId,
		JwtSecret:         cfg.JwtSecret,
		HeartbeatInterval: cfg.HeartbeatInterval,
		TimeoutMultiplier: cfg.TimeoutMultiplier,
		SweepEvery:        cfg.SweepEvery,
	}, hist, mirror, idem)
	srv.Start()

	// 3) HTTP + WebSocket
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/chatapp", srv.HandleWS) // ws://host:port/chatapp?token=<bearer>
	middleware.POST(r, "/login", user.HandlerLogin, middleware.RouteOpt{IsAuth: false})
	middleware.POST(r, "/check", user.HandlerCheck, middleware.RouteOpt{IsAuth: true})
	middleware.POST(r, "/api/chat/send", chatapi.HandlerSend(hist), middleware.RouteOpt{IsAuth: true})
	middleware.GET(r, "/api/chat/messages", chatapi.HandlerMessages(hist), middleware.RouteOpt{IsAuth: true})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("[main] shutting down")
		srv.Shutdown()
		_ = redisc.CloseRedis()
		_ = mgo.Close(context.Background())
		logger.Sync()
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Infof("[main] node=%s listening on %s", cfg.NodeId, addr)
	if err := r.Run(addr); err != nil {
		logger.Errorf("[main] http server failed: %v", err)
		os.Exit(1)
	}
}
