package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fieldtrack/internal/config"
	"fieldtrack/internal/controllers"
	"fieldtrack/internal/delivery"
	"fieldtrack/internal/geofence"
	"fieldtrack/internal/live"
	"fieldtrack/internal/logger"
	"fieldtrack/internal/middleware"
	"fieldtrack/internal/position"
	"fieldtrack/internal/routes"
	"fieldtrack/internal/routing"
	"fieldtrack/internal/store"
	"fieldtrack/internal/tracking"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}
	logger.Setup()

	db, err := config.OpenDB()
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}

	sampleStore := store.NewSampleStore(db)
	breadcrumbStore := store.NewBreadcrumbStore(db)
	zoneStore := store.NewZoneStore(db)
	eventStore := store.NewEventStore(db)
	violationStore := store.NewViolationStore(db)
	routeStore := store.NewRouteStore(db)
	stopStore := store.NewStopStore(db)

	hub := live.NewHub()

	registry := geofence.NewZoneRegistry(zoneStore)
	if err := registry.Load(context.Background()); err != nil {
		log.Fatalf("zone cache load failed: %v", err)
	}
	detector := geofence.NewViolationDetector(violationStore, eventStore)
	membership := geofence.NewMembershipTracker(registry, eventStore, detector, hub)

	archiver := tracking.NewBreadcrumbArchiver(breadcrumbStore)
	buffer := tracking.NewLocationBuffer(sampleStore, archiver)

	// Device GPS adapters live on the field clients; the simulated
	// source stands in server-side and replays pushed fixes in dev.
	source := &position.SimulatedSource{Interval: 5 * time.Second}

	// Tracking traffic stays on the in-process hub unless a remote hub
	// is configured, in which case a reconnecting client forwards it.
	var publisher tracking.LivePublisher = hub
	if url := config.LiveUpstreamURL(); url != "" {
		client := live.NewClient(url, 0)
		go client.Run(context.Background())
		logrus.WithField("url", url).Info("Forwarding live tracking traffic to upstream hub.")
		publisher = client
	}

	trackingSvc := tracking.NewService(source, buffer, sampleStore, membership, publisher)

	var provider routing.DirectionsProvider
	if token := config.MapboxToken(); token != "" {
		p, err := routing.NewMapboxProvider(token)
		if err != nil {
			log.Fatalf("directions provider setup failed: %v", err)
		}
		provider = p
	} else {
		logrus.Warn("MAPBOX_ACCESS_TOKEN not set; using the mock directions provider.")
		provider = &routing.MockProvider{}
	}
	optimizer := routing.NewOptimizer(provider)

	deliverySvc := delivery.NewService(routeStore, stopStore, optimizer, trackingSvc, delivery.LogNotifier{})

	deps := routes.Deps{
		Tracking: controllers.NewTrackingController(trackingSvc),
		Zones:    controllers.NewZoneController(registry, violationStore),
		Delivery: controllers.NewDeliveryController(deliverySvc),
		Live:     controllers.NewLiveController(hub),
	}
	if config.DevTokensEnabled() {
		logrus.Warn("Dev token minting enabled; never run this in production.")
		deps.Auth = controllers.NewAuthController()
	}
	r := routes.SetupRouter(deps)

	handler := middleware.EnableCORS(r)

	addr := config.ListenAddr()
	log.Printf("Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
