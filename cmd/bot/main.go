package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/auth"
	"github.com/cbodonnell/tether/pkg/config"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/game"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/network"
	"github.com/cbodonnell/tether/pkg/player"
	"github.com/cbodonnell/tether/pkg/queue"
	"github.com/cbodonnell/tether/pkg/repositories"
	"github.com/cbodonnell/tether/pkg/state"
	"github.com/cbodonnell/tether/pkg/version"
	"github.com/cbodonnell/tether/pkg/workers"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/joho/godotenv"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:8888/ws", "Relay URL")
	room := flag.String("room", "lobby", "Room to join")
	token := flag.String("token", "", "ID token, defaults to signing in with -email and -password")
	email := flag.String("email", "", "Email to sign in with")
	password := flag.String("password", "", "Password to sign in with")
	playerID := flag.String("player-id", "", "Player ID, defaults to the token's uid")
	tuningFile := flag.String("tuning", "", "Optional YAML tuning file")
	radius := flag.Float64("radius", 3, "Radius of the circle walked, in meters")
	speed := flag.Float64("speed", 1.5, "Walking speed, in meters per second")
	pingInterval := flag.Duration("ping-interval", 5*time.Second, "How often to measure the round trip to the relay")
	envFile := flag.String("env-file", ".env", "Optional file of environment variables")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No environment file loaded from %s: %v", *envFile, err)
	}

	log.Info("Starting tether bot version %s", version.Get())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tuning := config.Default()
	if *tuningFile != "" {
		tuning, err = config.Load(*tuningFile)
		if err != nil {
			panic(fmt.Sprintf("Failed to load tuning: %v", err))
		}
	}

	idToken := *token
	if idToken == "" {
		loginClient := auth.NewFirebaseLoginClient(auth.NewFirebaseLoginClientOptions{
			APIKey: os.Getenv("TETHER_FIREBASE_API_KEY"),
		})
		session, err := loginClient.Login(ctx, *email, *password)
		if err != nil {
			panic(fmt.Sprintf("Failed to sign in: %v", err))
		}
		log.Info("Signed in as %s", session.UID)
		idToken = session.IDToken
	}

	messageQueue := queue.NewInMemoryQueue(1024)
	client := network.NewClient(network.NewClientOptions{
		ServerURL:    *serverURL,
		MessageQueue: messageQueue,
	})
	if err := client.Connect(ctx); err != nil {
		panic(fmt.Sprintf("Failed to connect to %s: %v", *serverURL, err))
	}
	defer client.Close()
	go func() {
		if err := client.HandleMessages(ctx); err != nil && ctx.Err() == nil {
			log.Error("Connection lost: %v", err)
			cancel()
		}
	}()

	accept, err := client.Join(ctx, *room, idToken, *playerID)
	if err != nil {
		panic(fmt.Sprintf("Failed to join room %s: %v", *room, err))
	}
	log.Info("Joined room %s as %s", *room, accept.PlayerID)
	go client.StartPinging(ctx, *pingInterval)

	doc := document.NewDoc(accept.PlayerID)
	if err := doc.ApplyUpdateBytes(accept.State); err != nil {
		panic(fmt.Sprintf("Failed to apply room state: %v", err))
	}

	var saveChan chan workers.SaveSnapshotRequest
	stateManager := state.NewInMemoryStateManager()
	saveInterval := time.Duration(tuning.SaveIntervalMs) * time.Millisecond
	if connStr := os.Getenv("TETHER_DATABASE_URL"); connStr != "" {
		repository, err := repositories.Open(ctx, connStr)
		if err != nil {
			panic(fmt.Sprintf("Failed to create repository: %v", err))
		}
		defer repository.Close(context.Background())

		saveChan = make(chan workers.SaveSnapshotRequest, 16)
		saveWorker := workers.NewSaveSnapshotWorker(workers.NewSaveSnapshotWorkerOptions{
			Repository:   repository,
			SaveChan:     saveChan,
			StateManager: stateManager,
			Interval:     saveInterval,
		})
		// stopped after the game loop so its final save is persisted
		workerCtx, stopWorker := context.WithCancel(context.Background())
		workerDone := make(chan struct{})
		go func() {
			saveWorker.Start(workerCtx)
			close(workerDone)
		}()
		defer func() {
			stopWorker()
			<-workerDone
		}()
	} else {
		saveInterval = 0
	}

	tasks := queue.NewTaskQueue(256)
	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		Doc:          doc,
		PlayerID:     accept.PlayerID,
		Sender:       client,
		MessageQueue: messageQueue,
		Tasks:        tasks,
		StateManager: stateManager,
		SaveChan:     saveChan,
		Input:        circleWalk(*radius, *speed),
		Tuning:       &tuning,
		Physics:      game.NewLevel(4*(*radius)+4, 20),
		World:        apps.NewManager(&apps.NewManagerOptions{Name: "world", Tasks: tasks}),
		Loader:       newLoader(),
		SaveInterval: saveInterval,
	})

	local := gameManager.LocalPlayer()
	loaded := false
	if accept.Snapshot != "" {
		if err := local.Load(accept.Snapshot); err != nil {
			log.Warn("Failed to load saved snapshot: %v", err)
		} else {
			loaded = true
		}
	}
	if !loaded {
		body := apps.NewApp("body", "")
		body.SetComponent(apps.ComponentHeight, 1.6)
		local.AppManager().AddApp(body)
		local.SetAvatarApp(body)
	}
	local.SetSpawnPoint(mgl64.Vec3{*radius, 0, 0}, mgl64.QuatIdent())

	log.Info("Starting game manager")
	if err := gameManager.Start(ctx); err != nil {
		log.Error("Failed to start game manager: %v", err)
	}
}

// newLoader fetches http content and builds a plain body for apps without
// a content URL, such as the one created for a fresh bot.
func newLoader() apps.Loader {
	httpLoader := apps.NewHTTPLoader(&apps.NewHTTPLoaderOptions{})
	return apps.LoaderFunc(func(ctx context.Context, contentURL string, instanceID string) (*apps.App, error) {
		if contentURL != "" {
			return httpLoader.Load(ctx, contentURL, instanceID)
		}
		body := apps.NewApp(instanceID, "")
		body.SetComponent(apps.ComponentHeight, 1.6)
		return body, nil
	})
}

// circleWalk walks the player around the origin, crouching for one second
// out of every five.
func circleWalk(radius, speed float64) game.InputFunc {
	angularSpeed := speed / math.Max(radius, 0.1)
	return func(p *player.Entity, timestamp, timeDiff float64) {
		angle := angularSpeed * timestamp / 1000
		p.Velocity = mgl64.Vec3{
			-math.Sin(angle) * speed,
			0,
			math.Cos(angle) * speed,
		}

		crouching := math.Mod(timestamp/1000, 5) < 1
		switch {
		case crouching && !p.HasAction(player.ActionCrouch):
			p.AddAction(player.NewAction(player.ActionCrouch, nil))
		case !crouching && p.HasAction(player.ActionCrouch):
			p.RemoveAction(player.ActionCrouch)
		}
	}
}
