package app

import (
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	gameAPI "plinko_backend/internal/api/game"
	socketAPI "plinko_backend/internal/api/socket"
	"plinko_backend/internal/config"
	"plinko_backend/internal/config/env"
	"plinko_backend/internal/repository"
	"plinko_backend/internal/repository/lease_repo"
	"plinko_backend/internal/repository/rtp_repo"
	"plinko_backend/internal/repository/session_repo"
	"plinko_backend/internal/repository/snapshot_repo"
	"plinko_backend/internal/repository/state_repo"
	"plinko_backend/internal/repository/wager_repo"
	"plinko_backend/internal/service"
	"plinko_backend/internal/service/lease"
	"plinko_backend/internal/service/ledger"
	"plinko_backend/internal/service/payout"
	"plinko_backend/internal/service/rtp"
	"plinko_backend/internal/service/scheduler"
	"plinko_backend/internal/service/snapshot"
	"plinko_backend/internal/wallet"
	"plinko_backend/internal/ws"
)

type ServiceProvider struct {
	// Logging
	logger *zerolog.Logger

	// Redis
	redisCfg    config.RedisConfig
	redisClient *redis.Client

	// Repositories
	stateRepo    repository.RoundStateRepository
	wagerRepo    repository.WagerRepository
	rtpRepo      repository.RTPRepository
	leaseRepo    repository.LeaseRepository
	sessionRepo  repository.SessionRepository
	snapshotRepo repository.SnapshotRepository

	// Wallet bits
	walletCfg    config.WalletConfig
	walletClient service.WalletGateway

	// Game bits
	gameCfg     config.GameConfig
	leaseMgr    service.LeaseManager
	snapshots   service.SnapshotProvider
	rtpTracker  *rtp.Tracker
	engine      service.DecisionEngine
	wagerLedger service.WagerLedger
	payoutPipe  service.PayoutPipeline
	sched       *scheduler.Service

	// Realtime bits
	hub        *ws.Hub
	socketHand *socketAPI.Handler
	gameHand   *gameAPI.Handler

	// Router and HTTP config
	httpCfg config.HTTPConfig
	router  chi.Router
}

func newServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

func (sp *ServiceProvider) Logger() zerolog.Logger {
	if sp.logger == nil {
		level := zerolog.InfoLevel
		if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && os.Getenv("LOG_LEVEL") != "" {
			level = lvl
		}
		l := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
		sp.logger = &l
	}
	return *sp.logger
}

func (sp *ServiceProvider) RedisCfg() config.RedisConfig {
	if sp.redisCfg == nil {
		cfg, err := env.NewRedisConfig()
		if err != nil {
			panic("failed to get redis config: " + err.Error())
		}
		sp.redisCfg = cfg
	}
	return sp.redisCfg
}

func (sp *ServiceProvider) RedisClient() *redis.Client {
	if sp.redisClient == nil {
		sp.redisClient = redis.NewClient(&redis.Options{
			Addr:     sp.RedisCfg().Addr(),
			Password: sp.RedisCfg().Password(),
			DB:       sp.RedisCfg().DB(),
		})
	}
	return sp.redisClient
}

func (sp *ServiceProvider) StateRepo() repository.RoundStateRepository {
	if sp.stateRepo == nil {
		sp.stateRepo = state_repo.NewStateRepository(sp.RedisClient())
	}
	return sp.stateRepo
}

func (sp *ServiceProvider) WagerRepo() repository.WagerRepository {
	if sp.wagerRepo == nil {
		sp.wagerRepo = wager_repo.NewWagerRepository(sp.RedisClient())
	}
	return sp.wagerRepo
}

func (sp *ServiceProvider) RTPRepo() repository.RTPRepository {
	if sp.rtpRepo == nil {
		sp.rtpRepo = rtp_repo.NewRTPRepository(sp.RedisClient())
	}
	return sp.rtpRepo
}

func (sp *ServiceProvider) LeaseRepo() repository.LeaseRepository {
	if sp.leaseRepo == nil {
		sp.leaseRepo = lease_repo.NewLeaseRepository(sp.RedisClient())
	}
	return sp.leaseRepo
}

func (sp *ServiceProvider) SessionRepo() repository.SessionRepository {
	if sp.sessionRepo == nil {
		sp.sessionRepo = session_repo.NewSessionRepository(sp.RedisClient())
	}
	return sp.sessionRepo
}

func (sp *ServiceProvider) SnapshotRepo() repository.SnapshotRepository {
	if sp.snapshotRepo == nil {
		sp.snapshotRepo = snapshot_repo.NewSnapshotRepository(sp.RedisClient())
	}
	return sp.snapshotRepo
}

func (sp *ServiceProvider) WalletCfg() config.WalletConfig {
	if sp.walletCfg == nil {
		cfg, err := env.NewWalletConfig()
		if err != nil {
			panic("failed to get wallet config: " + err.Error())
		}
		sp.walletCfg = cfg
	}
	return sp.walletCfg
}

func (sp *ServiceProvider) WalletClient() service.WalletGateway {
	if sp.walletClient == nil {
		sp.walletClient = wallet.NewClient(sp.WalletCfg())
	}
	return sp.walletClient
}

func (sp *ServiceProvider) GameCfg() config.GameConfig {
	if sp.gameCfg == nil {
		path := os.Getenv("GAME_CONFIG_PATH")
		if path == "" {
			path = "config.yaml"
		}
		cfg, err := env.NewGameConfigFromYAML(path)
		if err != nil {
			panic("failed to get game config: " + err.Error())
		}
		sp.gameCfg = cfg
	}
	return sp.gameCfg
}

func (sp *ServiceProvider) LeaseManager() service.LeaseManager {
	if sp.leaseMgr == nil {
		sp.leaseMgr = lease.NewManager(sp.LeaseRepo(), sp.Logger().With().Str("component", "lease").Logger())
	}
	return sp.leaseMgr
}

func (sp *ServiceProvider) SnapshotProvider() service.SnapshotProvider {
	if sp.snapshots == nil {
		sp.snapshots = snapshot.NewProvider(sp.SnapshotRepo(), sp.GameCfg().SnapshotFreshness())
	}
	return sp.snapshots
}

func (sp *ServiceProvider) RTPTracker() *rtp.Tracker {
	if sp.rtpTracker == nil {
		sp.rtpTracker = rtp.NewTracker(
			sp.RTPRepo(),
			sp.GameCfg().ThresholdPlayCount(),
			sp.GameCfg().LimitPlayCount(),
			sp.Logger().With().Str("component", "rtp").Logger(),
		)
	}
	return sp.rtpTracker
}

func (sp *ServiceProvider) DecisionEngine() service.DecisionEngine {
	if sp.engine == nil {
		sp.engine = rtp.NewEngine(
			sp.GameCfg().Multipliers(),
			sp.GameCfg().DesiredRTP(),
			sp.RTPTracker(),
			nil,
			sp.Logger().With().Str("component", "engine").Logger(),
		)
	}
	return sp.engine
}

func (sp *ServiceProvider) WagerLedger() service.WagerLedger {
	if sp.wagerLedger == nil {
		sp.wagerLedger = ledger.NewService(
			sp.StateRepo(),
			sp.WagerRepo(),
			sp.WalletClient(),
			sp.RTPTracker(),
			sp.Logger().With().Str("component", "ledger").Logger(),
		)
	}
	return sp.wagerLedger
}

func (sp *ServiceProvider) PayoutPipeline() service.PayoutPipeline {
	if sp.payoutPipe == nil {
		sp.payoutPipe = payout.NewService(
			sp.StateRepo(),
			sp.WagerRepo(),
			sp.WalletClient(),
			sp.RTPTracker(),
			sp.Hub(),
			sp.Logger().With().Str("component", "payout").Logger(),
		)
	}
	return sp.payoutPipe
}

func (sp *ServiceProvider) Scheduler() *scheduler.Service {
	if sp.sched == nil {
		sp.sched = scheduler.NewService(
			sp.GameCfg(),
			sp.LeaseManager(),
			sp.SnapshotProvider(),
			sp.DecisionEngine(),
			sp.PayoutPipeline(),
			sp.StateRepo(),
			sp.WagerRepo(),
			sp.WalletClient(),
			sp.Hub(),
			sp.Logger().With().Str("component", "scheduler").Logger(),
		)
	}
	return sp.sched
}

func (sp *ServiceProvider) Hub() *ws.Hub {
	if sp.hub == nil {
		sp.hub = ws.NewHub(sp.Logger().With().Str("component", "hub").Logger())
	}
	return sp.hub
}

func (sp *ServiceProvider) SocketHandler() *socketAPI.Handler {
	if sp.socketHand == nil {
		sp.socketHand = socketAPI.NewHandler(socketAPI.HandlerDeps{
			Cfg:       sp.GameCfg(),
			Hub:       sp.Hub(),
			Sessions:  sp.SessionRepo(),
			StateRepo: sp.StateRepo(),
			Ledger:    sp.WagerLedger(),
			Logger:    sp.Logger().With().Str("component", "socket").Logger(),
		})
	}
	return sp.socketHand
}

func (sp *ServiceProvider) GameHandler() *gameAPI.Handler {
	if sp.gameHand == nil {
		sp.gameHand = gameAPI.NewHandler(gameAPI.HandlerDeps{
			Cfg:       sp.GameCfg(),
			StateRepo: sp.StateRepo(),
			Tracker:   sp.RTPTracker(),
			Logger:    sp.Logger().With().Str("component", "api").Logger(),
		})
	}
	return sp.gameHand
}

func (sp *ServiceProvider) HTTPCfg() config.HTTPConfig {
	if sp.httpCfg == nil {
		cfg, err := env.NewHTTPConfig()
		if err != nil {
			panic("failed to get http config: " + err.Error())
		}
		sp.httpCfg = cfg
	}
	return sp.httpCfg
}

func (sp *ServiceProvider) Router() chi.Router {
	if sp.router == nil {
		r := chi.NewRouter()

		// CORS middleware
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           int((15 * time.Minute).Seconds()),
		}))

		gameHandler := sp.GameHandler()
		r.Get("/healthz", gameHandler.Healthz)
		r.Route("/markets/{market}", func(rr chi.Router) {
			rr.Get("/state", gameHandler.MarketState)
			rr.Get("/rtp", gameHandler.MarketRTP)
		})

		r.Get("/ws", sp.SocketHandler().Connect)

		sp.router = r
	}
	return sp.router
}
