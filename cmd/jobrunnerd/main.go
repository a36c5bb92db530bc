package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/benchfarm/jobrunner"
	"github.com/benchfarm/jobrunner/service/sqlite"
	"github.com/benchfarm/jobrunner/slurm"
	"github.com/go-chi/chi/v5"
)

func main() {
	var configPath string
	defaultConfig := os.Getenv("JOBRUNNER_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "config/jobrunnerd.toml"
	}
	flag.StringVar(&configPath, "config", defaultConfig, "config file to load")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	poll, err := cfg.pollInterval()
	if err != nil {
		log.Fatal(err)
	}

	var db *sql.DB
	if _, err := os.Stat(cfg.DB); os.IsNotExist(err) {
		db, err = sqlite.Create(cfg.DB)
		if err != nil {
			log.Fatalf("create db: %v", err)
		}
	} else {
		db, err = sqlite.Open(cfg.DB)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
	}
	defer db.Close()

	profiles, err := jobrunner.LoadProfiles(cfg.Profiles)
	if err != nil {
		log.Fatalf("load profiles: %v", err)
	}
	hosts, err := jobrunner.LoadHostRegistry(cfg.Hosts)
	if err != nil {
		log.Fatalf("load host registry: %v", err)
	}

	man, err := jobrunner.NewPipelineManager(sqlite.NewPipelineService(db))
	if err != nil {
		log.Fatalf("restore pipelines: %v", err)
	}

	srv := &server{
		man: man,
		sched: &slurm.Scheduler{
			Sbatch: cfg.Sbatch,
			Squeue: cfg.Squeue,
			Sacct:  cfg.Sacct,
		},
		profiles: profiles,
		hosts:    hosts,
		workdir:  cfg.WorkDir,
	}
	go srv.reconciling(poll)

	r := chi.NewRouter()
	r.Get("/api/pipelines", srv.handlePipelines)
	r.Get("/api/pipeline/{id}", srv.handlePipeline)
	r.Get("/api/pipeline/{id}/status", srv.handleStatus)
	r.Get("/api/hosts", srv.handleHosts)
	r.Post("/api/order", srv.handleOrder)
	r.Post("/api/rerun", srv.handleRerun)

	log.Printf("listen on %v", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}

// reconciling periodically reads observed job outcomes back into the
// known pipelines and persists the changed ones.
func (s *server) reconciling(interval time.Duration) {
	rec := &jobrunner.Reconciler{Scheduler: s.sched}
	for {
		time.Sleep(interval)
		s.reconcilePass(rec, s.man.Pipelines(jobrunner.PipelineFilter{}))
	}
}

// reconcilePass reconciles the given pipelines once. Each pipeline is
// handled entirely under the server's lock, so a schedule or rerun
// pass never mutates a tree while its snapshot is written. A pipeline
// a rerun has replaced since it was listed is left alone; the next
// tick picks up its successor.
func (s *server) reconcilePass(rec *jobrunner.Reconciler, pipes []*jobrunner.Pipeline) {
	for _, p := range pipes {
		s.Lock()
		if s.man.Get(p.JobID) != p {
			s.Unlock()
			continue
		}
		n, err := rec.Reconcile(context.Background(), p)
		if err != nil {
			// Transient. The next tick retries from the last
			// known-good state.
			log.Print(err)
		}
		if n > 0 {
			if err := s.man.Save(p); err != nil {
				log.Printf("save pipeline %v: %v", p.JobID, err)
			}
		}
		s.Unlock()
	}
}
