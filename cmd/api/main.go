package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"faithresponders.org/internal/assessment"
	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/escalation"
	"faithresponders.org/internal/httpapi"
	"faithresponders.org/internal/messaging"
	"faithresponders.org/internal/obs"
	"faithresponders.org/internal/release"
	"faithresponders.org/internal/roster"
	"faithresponders.org/internal/store/memory"
	"faithresponders.org/internal/store/pg"
	"faithresponders.org/internal/stream"
	"faithresponders.org/internal/workgroup"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Postgres when a DSN is configured, in-memory otherwise (dev/tests).
	var (
		db  *sql.DB
		svc httpapi.Services
	)
	events := stream.New()
	if dsn := os.Getenv("RESPONDERS_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = store.DB()
		svc = buildServices(pgStores(store), events)
	} else {
		log.Println("RESPONDERS_PG_DSN not set; using in-memory store")
		svc = buildServices(memoryStores(memory.New()), events)
	}
	svc.Stream = events

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, svc)

	addr := os.Getenv("RESPONDERS_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting responders-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

// stores is the set of per-collection stores both backends provide.
type stores struct {
	users       directory.Store
	groups      roster.GroupStore
	centers     roster.CenterStore
	assessments assessment.Store
	workgroups  workgroup.Store
	escWG       escalation.WorkgroupStore
	escalations escalation.Store
	messages    messaging.Store
	releases    release.Store
}

func memoryStores(m *memory.Store) stores {
	wg := m.Workgroups()
	return stores{
		users:       m.Users(),
		groups:      m.Groups(),
		centers:     m.Centers(),
		assessments: m.Assessments(),
		workgroups:  wg,
		escWG:       wg,
		escalations: m.Escalations(),
		messages:    m.Messages(),
		releases:    m.Releases(),
	}
}

func pgStores(p *pg.Store) stores {
	wg := p.Workgroups()
	return stores{
		users:       p.Users(),
		groups:      p.Groups(),
		centers:     p.Centers(),
		assessments: p.Assessments(),
		workgroups:  wg,
		escWG:       wg,
		escalations: p.Escalations(),
		messages:    p.Messages(),
		releases:    p.Releases(),
	}
}

func buildServices(st stores, events *stream.Stream) httpapi.Services {
	dir := directory.NewService(st.users)
	return httpapi.Services{
		Directory:   dir,
		Roster:      roster.NewService(st.groups, st.centers, st.users, dir),
		Assessments: assessment.NewService(st.assessments, dir),
		Workgroups:  workgroup.NewService(st.workgroups, dir),
		Escalations: escalation.NewService(st.escalations, st.escWG, dir, events),
		Messaging:   messaging.NewService(st.messages, st.users, st.groups, st.centers, st.workgroups, dir),
		Releases:    release.NewService(st.releases, st.users, dir),
	}
}
