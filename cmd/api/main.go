// cmd/api/main.go
//
// API entry point.
//
// Boot sequence
// -------------
//
//  1. Start the daily rotating logger (tees to console when running in
//     a TTY).
//
//  2. Load configuration: conf/global.yaml plus .env and APIKIT_*
//     overrides, with vault: references resolved.
//
//  3. Open the MySQL pool and log the catalog size as an early sanity
//     check.
//
//  4. Optionally open the GeoLite2 database for country tagging.
//
//  5. Build the session store and start the hourly expired-session
//     reaper.
//
//  6. Assemble the route table and serve until SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rigazamy/apikit/internal/api"
	"github.com/rigazamy/apikit/internal/config"
	"github.com/rigazamy/apikit/internal/database"
	"github.com/rigazamy/apikit/internal/logger"
	"github.com/rigazamy/apikit/internal/requestinfo"
	"github.com/rigazamy/apikit/internal/server"
	"github.com/rigazamy/apikit/internal/session"
	"github.com/rigazamy/apikit/internal/upload"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync()

	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 1.  Database connect ────────────────────────────────────────────
	//
	dsn := strings.Replace(cfg.Database.DSN, "{password}", cfg.Database.Password, 1)
	logOut.Info("connecting to database …")
	db, err := database.Open(dsn)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()
	logOut.Info("database online")

	var resources int
	_ = db.Get(&resources, `SELECT COUNT(*) FROM resources`)
	logOut.Infof("%d resource(s) in catalog", resources)

	//
	// ── 2.  GeoIP (optional) ────────────────────────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
		logOut.Warnf("geoip disabled: %v", err)
	}

	//
	// ── 3.  Session store + reaper ──────────────────────────────────────
	//
	ttl := time.Duration(cfg.Session.TTLHours) * time.Hour
	sessions := session.NewStore(db, []byte(cfg.Session.AuthKey), ttl, cfg.Session.Secure)

	go func() {
		tick := time.NewTicker(time.Hour)
		defer tick.Stop()
		for range tick.C {
			if err := sessions.DeleteExpired(context.Background()); err != nil {
				logOut.Warnf("session reaper: %v", err)
			}
		}
	}()

	//
	// ── 4.  Route table and serve ───────────────────────────────────────
	//
	h := api.New(db, sessions, upload.New(cfg.Uploads.Dir), cfg.Session.CookieName)
	root := h.Router(cfg.CORS.AllowedOrigins, cfg.Uploads.Dir)

	logOut.Infof("listening on %s", cfg.HTTP.ListenAddr)
	if err := server.Run(server.New(cfg.HTTP.ListenAddr, root)); err != nil {
		logOut.Fatalf("http server: %v", err)
	}
}
