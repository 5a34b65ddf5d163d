package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"gopherai-docqa/internal/ai"
	"gopherai-docqa/internal/app"
	"gopherai-docqa/internal/cache"
	"gopherai-docqa/internal/chunker"
	"gopherai-docqa/internal/composer"
	"gopherai-docqa/internal/config"
	"gopherai-docqa/internal/embedding"
	"gopherai-docqa/internal/ingest"
	"gopherai-docqa/internal/model"
	mysqlClient "gopherai-docqa/internal/platform/mysql"
	rabbitmqClient "gopherai-docqa/internal/platform/rabbitmq"
	redisClient "gopherai-docqa/internal/platform/redis"
	sqliteClient "gopherai-docqa/internal/platform/sqlite"
	"gopherai-docqa/internal/repository"
	"gopherai-docqa/internal/retriever"
	"gopherai-docqa/internal/vectorindex"
	"gopherai-docqa/internal/worker"
)

type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client    // nil when redis.enabled is false
	MQConn   *amqp.Connection // nil unless background ingestion uses RabbitMQ
	Embedder embedding.Embedder
	RAG      *app.RAGService

	pool      *worker.Pool
	publisher *rabbitmqClient.IngestPublisher
	consumer  *worker.IngestConsumer

	StartedAt time.Time
}

type Options struct {
	// ConfigPath overrides CONFIG_FILE.
	ConfigPath string
	// Background starts ingestion workers and recovers documents a previous
	// process left unfinished. Without it, submitted documents are ingested on
	// the caller's goroutine.
	Background bool
}

// New builds the server: configuration from the environment, background workers on.
func New(ctx context.Context) (*App, error) {
	return NewWithOptions(ctx, Options{Background: true})
}

func NewWithOptions(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewFromConfig(ctx, cfg, opts.Background)
}

func NewFromConfig(ctx context.Context, cfg *config.Config, background bool) (*App, error) {
	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.init(ctx, background); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			log.Printf("close partially built app failed: %v", closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, background bool) error {
	cfg := a.Config

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	a.DB = db
	if err := db.AutoMigrate(&model.Document{}, &model.Chunk{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	var vectorCache embedding.VectorCache
	if cfg.Redis.Enabled {
		a.Redis, err = redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		vectorCache = cache.NewEmbeddingCache(a.Redis, time.Duration(cfg.Embedding.CacheTTLSeconds)*time.Second)
	}

	llmClient := ai.NewOpenAICompatibleClient(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)
	a.Embedder, err = buildEmbedder(cfg, llmClient, vectorCache)
	if err != nil {
		return err
	}

	index, err := buildIndex(cfg, db)
	if err != nil {
		return err
	}
	metric, err := vectorindex.ParseMetric(cfg.Retrieval.Metric)
	if err != nil {
		return err
	}

	docRepo := repository.NewDocumentRepository(db)
	ch, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return err
	}
	pipeline, err := ingest.New(ch, a.Embedder, index, docRepo, cfg.Embedding.BatchSize)
	if err != nil {
		return err
	}
	ret, err := retriever.New(a.Embedder, index,
		retriever.WithOverFetch(cfg.Retrieval.OverFetch),
		retriever.WithMetric(metric),
		retriever.WithDefaults(retriever.Options{
			K:              cfg.Retrieval.TopK,
			MaxPerDocument: cfg.Retrieval.MaxPerDocument,
			MinScore:       float32(cfg.Retrieval.MinScore),
		}),
	)
	if err != nil {
		return err
	}
	generator := ai.NewChatGenerator(llmClient, ai.ChatConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	comp := composer.New(generator,
		composer.WithContextBudget(cfg.Composer.ContextBudget),
		composer.WithExcerptRunes(cfg.Composer.ExcerptRunes),
		composer.WithRetry(cfg.Composer.MaxAttempts, 0),
	)

	var queue app.JobQueue = inlineQueue{runner: pipeline}
	if background {
		queue, err = a.startWorkers(ctx, pipeline)
		if err != nil {
			return err
		}
	} else if cfg.Index.Backend == "memory" {
		log.Printf("index.backend is memory: indexed chunks are lost when this process exits")
	}

	a.RAG = app.NewRAGService(app.RAGServiceDeps{
		Documents: docRepo,
		Index:     index,
		Embedder:  a.Embedder,
		Pipeline:  pipeline,
		Retriever: ret,
		Composer:  comp,
		Queue:     queue,
		IndexName: cfg.Index.Backend,
	})

	if background {
		if err := a.RAG.RecoverStale(ctx, "ingestion interrupted by restart; resubmit the document", staleStatuses(cfg)...); err != nil {
			return err
		}
		if cfg.Index.Backend == "memory" {
			if err := a.RAG.RecoverStale(ctx, "index was reset; resubmit the document", model.StatusReady); err != nil {
				return err
			}
		}
	}
	return nil
}

// staleStatuses lists the statuses no live job can still own after a restart.
// Pending jobs survive in RabbitMQ but not in the in-process pool.
func staleStatuses(cfg *config.Config) []model.DocumentStatus {
	if cfg.Queue.Driver == "local" {
		return []model.DocumentStatus{model.StatusProcessing, model.StatusPending}
	}
	return []model.DocumentStatus{model.StatusProcessing}
}

func (a *App) startWorkers(ctx context.Context, runner worker.Runner) (app.JobQueue, error) {
	cfg := a.Config
	if cfg.Queue.Driver == "local" {
		a.pool = worker.NewPool(runner, cfg.Queue.Workers, cfg.Queue.Buffer)
		a.pool.Start(context.WithoutCancel(ctx))
		return a.pool, nil
	}

	conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.App.Name)
	if err != nil {
		return nil, err
	}
	a.MQConn = conn
	a.publisher = rabbitmqClient.NewIngestPublisher(conn, cfg.RabbitMQ.IngestQueue)
	a.consumer = worker.NewIngestConsumer(conn, runner, cfg.RabbitMQ.IngestQueue, cfg.RabbitMQ.Prefetch)
	if err := a.consumer.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("start ingest consumer failed: %w", err)
	}
	return a.publisher, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Driver == "sqlite" {
		return sqliteClient.New(ctx, cfg.SQLite.Path)
	}
	return mysqlClient.New(ctx, cfg.MySQLDSN(), mysqlClient.PoolOptions{})
}

func buildIndex(cfg *config.Config, db *gorm.DB) (vectorindex.Index, error) {
	if cfg.Index.Backend == "memory" {
		return vectorindex.NewMemory(cfg.Embedding.Dimension)
	}
	return vectorindex.NewSQL(repository.NewChunkRepository(db), cfg.Embedding.Dimension)
}

// buildEmbedder layers the cache over retries over rate limiting, so cache
// hits never wait for the limiter and every retry does.
func buildEmbedder(cfg *config.Config, client *ai.OpenAICompatibleClient, vectorCache embedding.VectorCache) (embedding.Embedder, error) {
	var emb embedding.Embedder
	switch cfg.Embedding.Backend {
	case "hash":
		h, err := embedding.NewHash(cfg.Embedding.Dimension)
		if err != nil {
			return nil, err
		}
		emb = h
	default:
		ec := ai.EmbeddingConfig{
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  cfg.Embedding.APIKey,
			Model:   cfg.Embedding.Model,
		}
		if cfg.Embedding.SendDimension {
			ec.Dimensions = cfg.Embedding.Dimension
		}
		remote, err := embedding.NewOpenAI(client, ec, cfg.Embedding.Dimension)
		if err != nil {
			return nil, err
		}
		emb = embedding.NewRetrying(
			embedding.NewRateLimited(remote, cfg.Embedding.RequestsPerSecond, cfg.Embedding.Burst),
			embedding.WithMaxAttempts(cfg.Embedding.MaxAttempts),
		)
	}
	if vectorCache != nil {
		emb = embedding.NewCached(emb, vectorCache)
	}
	return emb, nil
}

// inlineQueue runs each job before Enqueue returns.
type inlineQueue struct {
	runner worker.Runner
}

func (q inlineQueue) Enqueue(ctx context.Context, job ingest.Job) error {
	_, err := q.runner.Run(ctx, job)
	if err != nil {
		log.Printf("ingest %s/%s failed: %v", job.TenantID, job.DocumentID, err)
	}
	return nil
}

// Close stops the workers before releasing the connections they use.
func (a *App) Close() error {
	var closeErr error
	if a.consumer != nil {
		a.consumer.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
