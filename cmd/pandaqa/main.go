package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/knights-analytics/hugot"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.uber.org/zap"

	"github.com/pandaqa/pandaqa"
	"github.com/pandaqa/pandaqa/adapter/filestorage"
	hugotAdapter "github.com/pandaqa/pandaqa/adapter/hugot"
	"github.com/pandaqa/pandaqa/adapter/lmstudio"
	"github.com/pandaqa/pandaqa/adapter/memory"
	"github.com/pandaqa/pandaqa/adapter/ocr"
	"github.com/pandaqa/pandaqa/adapter/pdf"
	redisAdapter "github.com/pandaqa/pandaqa/adapter/redis"
	"github.com/pandaqa/pandaqa/adapter/rest"
	"github.com/pandaqa/pandaqa/adapter/store"
	"github.com/pandaqa/pandaqa/adapter/text"
	weaviateAdapter "github.com/pandaqa/pandaqa/adapter/weaviate"
	"github.com/pandaqa/pandaqa/api"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		log.Fatal("fatal error config file: ", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	// Connect to the database
	dbConnOpts := url.Values{}
	dbConnOpts.Set("_fk", "true")
	dbConnOpts.Set("_journal", "WAL")
	dbConnOpts.Set("_timeout", "5000")

	log.Println("connecting to db: ", viper.GetString("db.name"), "opts: ", dbConnOpts.Encode())

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", viper.GetString("db.name"), dbConnOpts.Encode()))
	if err != nil {
		log.Fatal("db open: ", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatal("db ping: ", err)
	}

	// Run db migrations
	if err := pandaqa.Migrate(db); err != nil {
		log.Fatal("db migrate: ", err)
	}

	// Language model
	lm := lmstudio.New(
		lmstudio.WithLogger(logger),
		lmstudio.WithAPIBase(viper.GetString("lmstudio.api_base")),
		lmstudio.WithChatModel(viper.GetString("lmstudio.chat_model")),
		lmstudio.WithEmbedModel(viper.GetString("lmstudio.embed_model")),
	)

	// Embedder
	var embedder pandaqa.Embedder
	switch name := viper.GetString("adapter.embed.name"); name {
	case "lmstudio":
		log.Println("embed adapter: lmstudio")
		embedder = lm
	case "hugot":
		log.Println("embed adapter: hugot")
		session, err := hugot.NewGoSession()
		if err != nil {
			log.Fatal("hugot session: ", err)
		}
		defer func() {
			if err := session.Destroy(); err != nil {
				log.Fatal("hugot session destroy: ", err)
			}
		}()
		embedder, err = hugotAdapter.New(
			ctx,
			session,
			hugotAdapter.WithModelName(viper.GetString("adapter.embed.model")),
			hugotAdapter.WithLogger(logger),
		)
		if err != nil {
			log.Fatal("hugot adapter: ", err)
		}
	default:
		log.Fatalf("unknown embed adapter: %s", name)
	}

	// Retriever
	var retriever pandaqa.Retriever
	switch name := viper.GetString("adapter.retrieve.name"); name {
	case "memory":
		log.Println("retrieve adapter: memory")
		retriever = memory.New(memory.WithLogger(logger))
	case "redis":
		log.Println("retrieve adapter: redis")
		rdb := redis.NewClient(&redis.Options{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
			Protocol: viper.GetInt("redis.protocol"),
		})
		retriever, err = redisAdapter.New(
			ctx,
			rdb,
			redisAdapter.WithLogger(logger),
			redisAdapter.WithIndexName(viper.GetString("redis.index")),
			redisAdapter.WithIndexPrefix(viper.GetString("redis.index_prefix")),
			redisAdapter.WithDialectVersion(viper.GetInt("redis.protocol")),
			redisAdapter.WithVectorDim(viper.GetInt("redis.vector_dim")),
			redisAdapter.WithVectorDistanceMetric(viper.GetString("redis.vector_distance_metric")),
		)
		if err != nil {
			log.Fatal("redis adapter: ", err)
		}
	case "weaviate":
		log.Println("retrieve adapter: weaviate")
		wvClient, err := weaviate.NewClient(weaviate.Config{
			Host:   viper.GetString("weaviate.host"),
			Scheme: viper.GetString("weaviate.scheme"),
		})
		if err != nil {
			log.Fatal("weaviate client: ", err)
		}
		retriever, err = weaviateAdapter.New(
			ctx,
			wvClient,
			weaviateAdapter.WithLogger(logger),
		)
		if err != nil {
			log.Fatal("weaviate adapter: ", err)
		}
	default:
		log.Fatalf("unknown retrieve adapter: %s", name)
	}

	// Extractors
	textExtractor, err := text.New(text.WithLogger(logger))
	if err != nil {
		log.Fatal("text adapter: ", err)
	}
	pdfExtractor, err := pdf.New(
		pdf.WithLogger(logger),
		pdf.WithBaseURL(viper.GetString("adapter.extract.pdf_base_url")),
	)
	if err != nil {
		log.Fatal("pdf adapter: ", err)
	}
	ocrExtractor := ocr.New(
		ocr.WithLogger(logger),
		ocr.WithBaseURL(viper.GetString("adapter.extract.ocr_base_url")),
	)

	files, err := filestorage.New(
		filestorage.WithDir(viper.GetString("files.dir")),
		filestorage.WithLogger(logger),
	)
	if err != nil {
		log.Fatal("filestorage adapter: ", err)
	}

	var (
		storeAdapter = store.New(db)
		qa           = pandaqa.New(
			embedder,
			retriever,
			lm,
			storeAdapter,
			files,
			pandaqa.WithExtractor(textExtractor, "txt", "md", "csv"),
			pandaqa.WithExtractor(pdfExtractor, "pdf"),
			pandaqa.WithExtractor(ocrExtractor, "jpg", "jpeg", "png", "bmp", "gif"),
		)
		restAdapter = rest.New(qa)
		mux         = http.NewServeMux()
		h           = api.HandlerFromMux(restAdapter, mux)
		address     = ":" + viper.GetString("http.port")
	)

	httpServer := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Second,
		Addr:              address,
		Handler:           h,
	}

	log.Println("listening on", address)

	go qa.ProcessFiles(ctx)

	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
		log.Println("Stopped serving new connections.")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP shutdown error: %v", err)
	}
	log.Println("Graceful shutdown complete.")
}
