package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"eclipse/internal/config"
	"eclipse/internal/database"
	"eclipse/internal/handler"
	"eclipse/internal/localstore"
	"eclipse/internal/logger"
	"eclipse/internal/queue"
	"eclipse/internal/realtime"
	redisclient "eclipse/internal/redis"
	"eclipse/internal/repository"
	"eclipse/internal/service"
	"eclipse/internal/storage"
	"eclipse/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Run wires every component, serves until ctx is cancelled and tears the
// components down in reverse order.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.For("Server")

	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	// 1. Record store
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	// 2. Redis carries the change stream and the device-local store
	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		return err
	}

	// 3. Object storage
	objects, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init object storage: %w", err)
	}

	publisher := queue.NewPublisher(rdb.Client)
	videoBlobs := localstore.NewBlobStore(rdb.Client, localstore.NamespaceVideos)
	postBlobs := localstore.NewBlobStore(rdb.Client, localstore.NamespacePosts)
	buckets := service.Buckets{
		Videos:     cfg.Buckets.Videos,
		Thumbnails: cfg.Buckets.Thumbnails,
		PostImages: cfg.Buckets.PostImages,
	}

	// 4. Change notifications: stream -> workers -> feed -> debounced refetch
	hub := realtime.NewHub()
	defer hub.Close()
	changes := realtime.NewChangeFeed()
	defer changes.Close()

	manager := worker.NewManager(queue.NewConsumer(rdb.Client), worker.NewHandler(changes), worker.DefaultManagerConfig())
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start change workers: %w", err)
	}
	defer func() {
		manager.Stop()
		cleanupCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := queue.NewConsumer(rdb.Client).DestroyGroup(cleanupCtx, queue.StreamChanges, manager.Group()); err != nil {
			log.Warnf("Destroy consumer group FAILED: group=%s err=%v", manager.Group(), err)
		}
	}()

	// 5. Stores, in dependency order: profile, feed, catalog
	auth := service.NewAuthService(
		repository.NewAuthUserRepository(db),
		localstore.NewSessionStore(rdb.Client),
		cfg.JWTSecret,
		cfg.SessionTTL,
	)
	profiles := service.NewProfileStore(auth, repository.NewProfileRepository(db, publisher))
	if err := profiles.Bootstrap(ctx); err != nil {
		log.Warnf("Profile bootstrap FAILED, continuing signed out: err=%v", err)
	}
	defer profiles.Close()

	feed := service.NewFeedStore(repository.NewPostRepository(db, publisher), objects, postBlobs, buckets.PostImages, hub)
	if err := feed.Start(ctx, changes, cfg.ChangeDebounce); err != nil {
		log.Warnf("Initial feed load FAILED: err=%v", err)
	}
	defer feed.Close()

	catalog := service.NewCatalogStore(
		repository.NewVideoRepository(db, publisher),
		repository.NewCommentRepository(db, publisher),
		objects,
		videoBlobs,
		buckets,
		hub,
	)
	if err := catalog.Start(ctx, changes, cfg.ChangeDebounce); err != nil {
		log.Warnf("Initial catalog load FAILED: err=%v", err)
	}
	defer catalog.Close()

	counts := service.NewSubscriberCounts(localstore.NewCountStore(rdb.Client))
	if err := counts.Load(ctx); err != nil {
		log.Warnf("Subscriber counts load FAILED: err=%v", err)
	}

	uploads := service.NewUploadService(profiles, catalog, objects, videoBlobs, buckets, cfg.UploadTimeout)
	channels := service.NewChannelProjector(profiles, catalog, feed, counts)

	// 6. Binding surface
	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(profiles),
		ProfileHandler: handler.NewProfileHandler(profiles, catalog),
		VideoHandler:   handler.NewVideoHandler(catalog, profiles, uploads),
		PostHandler:    handler.NewPostHandler(feed),
		ChannelHandler: handler.NewChannelHandler(channels, service.NewSubscriptions(profiles, counts)),
		Profiles:       profiles,
		Live:           stdhttp.HandlerFunc(hub.Serve),
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting server on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Migrate creates the schema and exits.
func Migrate(ctx context.Context, cfg *config.Config) error {
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}
	logger.For("Server").Info("Schema is up to date")
	return nil
}
