package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/activity"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/ai"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/cache"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/compress"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/config"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/jobs"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/ledger"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/queue"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/service"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/store"
	"golang.org/x/sys/unix"
)

// Server represents the server
type Server struct {
	httpPort string
}

// NewServer creates a new server
func NewServer(httpPort string) *Server {
	return &Server{
		httpPort: httpPort,
	}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.httpPort); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start wires the store, collaborators and background jobs and serves the
// HTTP surface until interrupted.
func Start(httpPort string) error {
	httpPort = ":" + httpPort

	cnf := config.LoadConfig()
	db := config.GetDb(cnf)

	docStore := store.NewGormStore(db)
	if err := docStore.Migrate(); err != nil {
		return err
	}

	compressor := compress.FromName(cnf.Compression)

	var docCache cache.DocumentCache
	if cnf.RedisAddr != "" {
		docCache = cache.NewRedisDocumentCache(cnf.RedisAddr)
	}

	var events queue.ActivityQueue = queue.NewNoop()
	if cnf.KafkaBrokers != "" {
		kafkaQueue, err := queue.NewKafkaQueue(cnf.KafkaBrokers)
		if err != nil {
			return err
		}
		defer kafkaQueue.Close()
		events = kafkaQueue
	}

	var collab ai.Collaborator
	if cnf.AIKey != "" {
		collab = ai.NewOpenAICollaborator(cnf.AIBaseURL, cnf.AIKey, cnf.AIModel)
	} else {
		logrus.Warn("no AI collaborator configured, derived fields use fallback values")
	}
	deriver := ai.NewDeriver(collab, 10*time.Second)

	recorder := activity.NewRecorder(events)
	docService := service.NewDocumentService(compressor, docStore, docCache, deriver, ledger.New(), recorder)

	executor := jobs.NewTaskExecutor([]jobs.CronJob{
		jobs.NewActivityReconcileTask(cnf.ReconcileSchedule, docStore, recorder),
	})
	executor.Run()
	defer executor.Stop()

	mux := http.NewServeMux()
	NewDocumentHandler(docService).Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // All origins are allowed
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-Id", "X-User-Role"},
		AllowCredentials: true,
	})

	restServer := &http.Server{
		Addr:    httpPort,
		Handler: c.Handler(requestTime(mux)),
	}

	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting http server on: ", httpPort)
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting http server: %v", err)
			}
		}
		logrus.Infof("http server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	if err := restServer.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error stopping http server: %v", err)
	}

	wg.Wait()

	return nil
}
