package main // Entry point package

import (
    "context" // Context for the background scheduler
    "log"     // Logging library
    "time"    // Timezone resolution

    "github.com/iliyamo/slot-reservation/internal/config"     // Internal config loader
    "github.com/iliyamo/slot-reservation/internal/database"   // MySQL connection helper
    "github.com/iliyamo/slot-reservation/internal/handler"    // HTTP handlers
    "github.com/iliyamo/slot-reservation/internal/notify"     // queue-backed notifier
    "github.com/iliyamo/slot-reservation/internal/queue"      // notification consumer
    "github.com/iliyamo/slot-reservation/internal/repository" // persistence layer
    "github.com/iliyamo/slot-reservation/internal/router"     // Internal router setup
    "github.com/iliyamo/slot-reservation/internal/scheduler"  // lifecycle scheduler
    "github.com/iliyamo/slot-reservation/internal/service"    // reservation engine
    "github.com/labstack/echo/v4"                             // Echo web framework
)

func main() {
    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    loc, err := time.LoadLocation(cfg.OrgTimezone)
    if err != nil {
        log.Fatalf("invalid ORG_TIMEZONE %q: %v", cfg.OrgTimezone, err)
    }
    tz := service.FixedTimezone{Loc: loc}

    store := repository.NewStore(db)
    audit := repository.NewAuditRepo(db)
    notifier := notify.NewQueueNotifier()

    allocator := service.NewAllocator(store, notifier, audit, cfg.MaxPartySize)
    reconciler := service.NewReconciler(store, audit, cfg.CheckInCorrect)
    lifecycle := service.NewLifecycle(store, audit, tz, nil)

    // The scheduler shares the store with the request path; its startup
    // archive pass runs before the first ticker fires, so slots that
    // went stale while the process was down are corrected right away.
    sched := &scheduler.Scheduler{
        Store:        store,
        Audit:        audit,
        Timezone:     tz,
        PublishEvery: cfg.PublishInterval,
        ArchiveEvery: cfg.ArchiveInterval,
    }
    go func() {
        if err := sched.Run(context.Background()); err != nil {
            log.Printf("scheduler stopped: %v", err)
        }
    }()

    // The notification consumer drains the confirmation queue in the
    // background and reconnects on broker failures.
    go func() {
        if err := queue.StartNotificationConsumer(); err != nil {
            log.Printf("notification consumer stopped: %v", err)
        }
    }()

    rdb := config.NewRedisClient() // nil when Redis is not configured

    e := echo.New()
    router.RegisterRoutes(e) // health check
    router.RegisterPublic(e,
        handler.NewPublicSlotHandler(lifecycle),
        handler.NewBookingHandler(allocator),
        handler.NewCheckInHandler(reconciler),
        rdb)
    router.RegisterAdmin(e, handler.NewAdminSlotHandler(lifecycle), handler.NewAdminAuditHandler(audit), cfg.JWTSecret)

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
