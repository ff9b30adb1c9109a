package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/cache"
	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
	"github.com/noah-isme/school-portal-api/pkg/jobs"
	"github.com/noah-isme/school-portal-api/pkg/storage"
)

type app struct {
	logger    *zap.Logger
	store     *docstore.RowStore
	metrics   *service.MetricsService
	blobs     *storage.BlobStore
	auth      *service.AuthService
	audit     *repository.AuditRepository
	handlers  handler.Handlers
	readiness handler.ReadinessProbe

	redis      *redis.Client
	queue      *jobs.Queue
	exportJobs *service.ExportJobService
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	raw, err := docstore.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{logger: logger, store: raw, metrics: service.NewMetricsService()}
	store := docstore.Instrument(raw, a.metrics)
	a.readiness = func(ctx context.Context) error {
		var probe json.RawMessage
		_, err := store.Get(ctx, docstore.Join(repository.CollectionUsers, "readiness-probe"), &probe)
		return err
	}

	blobFiles, err := storage.NewLocalStorage(cfg.Blobs.Dir)
	if err != nil {
		a.close()
		return nil, err
	}
	a.blobs = storage.NewBlobStore(blobFiles, storage.BlobConfig{
		PublicBaseURL: cfg.Blobs.PublicBaseURL,
		MaxSizeBytes:  cfg.Blobs.MaxFileSizeBytes,
		AllowedTypes:  cfg.Blobs.AllowedMIMEs,
	})

	var cacheRepo service.CacheRepository
	if cfg.Roster.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = client
		cacheRepo = repository.NewCacheRepository(client, logger)
	}
	rosterCache := service.NewCacheService(cacheRepo, a.metrics, cfg.Roster.CacheTTL, logger, cfg.Roster.CacheEnabled)

	validate := validator.New()

	users := repository.NewUserRepository(store)
	students := repository.NewStudentRepository(store)
	teachers := repository.NewTeacherRepository(store)
	parents := repository.NewParentRepository(store)
	admins := repository.NewSchoolAdminRepository(store)
	courses := repository.NewCourseRepository(store)
	claims := repository.NewCourseClaimRepository(store)
	assignments := repository.NewTeacherAssignmentRepository(store)
	marks := repository.NewClassMarkRepository(store)
	posts := repository.NewPostRepository(store)
	exportJobs := repository.NewExportJobRepository(store)
	a.audit = repository.NewAuditRepository(store)

	registration := service.NewRegistrationService(service.RegistrationRepositories{
		Users:        users,
		Students:     students,
		Teachers:     teachers,
		Parents:      parents,
		SchoolAdmins: admins,
		Courses:      courses,
		Claims:       claims,
		Assignments:  assignments,
		Audit:        a.audit,
		RosterCache:  rosterCache,
	}, a.blobs, validate, logger, service.RegistrationConfig{DefaultAcademicYear: cfg.School.DefaultAcademicYear})

	a.auth = service.NewAuthService(users, service.AuthRoleRepositories{
		Students:     students,
		Teachers:     teachers,
		Parents:      parents,
		SchoolAdmins: admins,
	}, a.audit, validate, logger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	catalog := service.NewCourseService(courses, assignments, teachers, users, logger)
	rosters := service.NewRosterService(courses, students, users, marks, catalog, rosterCache, a.audit, validate, logger)
	gradebook := service.NewGradebookService(courses, marks, catalog, rosterCache, a.audit, validate, logger)
	feed := service.NewPostService(posts, users, a.blobs, a.audit, validate, logger)
	profiles := service.NewProfileService(users, teachers, admins, a.blobs, a.audit, logger)

	a.handlers = handler.Handlers{
		Registration: handler.NewRegistrationHandler(registration),
		Auth:         handler.NewAuthHandler(a.auth),
		Profile:      handler.NewProfileHandler(profiles),
		Courses:      handler.NewCourseHandler(catalog),
		Rosters:      handler.NewRosterHandler(rosters, gradebook),
		Posts:        handler.NewPostHandler(feed),
	}

	if cfg.Exports.Enabled {
		exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			a.close()
			return nil, err
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exporter := service.NewExportService(rosters, exportFiles, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logger, nil, nil)

		var worker *service.ExportWorker
		a.queue = jobs.NewQueue("gradebook-exports", func(ctx context.Context, job jobs.Job) error {
			return worker.Handle(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logger,
		})
		worker = service.NewExportWorker(exportJobs, exporter, a.metrics, a.queue.MaxRetries(), logger)

		a.exportJobs = service.NewExportJobService(exportJobs, courses, catalog, a.queue, exporter, a.audit, validate, logger, service.ExportJobConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		a.handlers.Exports = handler.NewExportHandler(a.exportJobs)
	}

	return a, nil
}

// start launches background workers tied to ctx.
func (a *app) start(ctx context.Context) {
	if a.queue == nil {
		return
	}
	a.queue.Start(ctx)
	a.exportJobs.RecoverPendingJobs(ctx)
	a.exportJobs.StartCleanup(ctx)
}

func (a *app) close() {
	if a.queue != nil {
		a.queue.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn("failed to close document store", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}
