package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"solana-stake-desk/internal/cache"
	"solana-stake-desk/internal/config"
	"solana-stake-desk/internal/journal"
	"solana-stake-desk/internal/notify"
	"solana-stake-desk/internal/ops"
	solrpc "solana-stake-desk/internal/solana"
	"solana-stake-desk/internal/stakepool"
	"solana-stake-desk/internal/storage"
	chstore "solana-stake-desk/internal/storage/clickhouse"
	"solana-stake-desk/internal/storage/memory"
	pgstore "solana-stake-desk/internal/storage/postgres"
	"solana-stake-desk/internal/submit"
	"solana-stake-desk/internal/wallet"
)

// app is the dependency graph shared by subcommands.
type app struct {
	log       logrus.FieldLogger
	rpc       *solrpc.HTTPClient
	pools     *stakepool.Client
	display   *cache.Pools
	wallet    *wallet.KeypairWallet
	orch      *ops.Orchestrator
	recorder  *journal.Recorder
	stores    *stores
	notes     *notify.Chan
	closers   []func()
	walletKey string
}

// stores holds the journal and snapshot stores.
type stores struct {
	operations storage.OperationStore
	snapshots  storage.PoolSnapshotStore
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger, in io.Reader, out io.Writer) (*app, error) {
	a := &app{log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	a.rpc = solrpc.NewHTTPClient(cfg.RPCEndpoint)
	a.pools = stakepool.NewClient(stakepool.Options{RPC: a.rpc, Logger: log})

	approve := wallet.PromptApprover(in, out)
	if cfg.AutoApprove {
		approve = wallet.AutoApprove
	}
	w, err := wallet.Load(cfg.KeypairPath, a.rpc, approve, log)
	if err != nil {
		return nil, err
	}
	a.wallet = w
	if pk, connected := w.PublicKey(); connected {
		a.walletKey = pk.String()
	}

	var confirmer submit.Confirmer = submit.NewPollingConfirmer(a.rpc, 0, log)
	if cfg.WSEndpoint != "" {
		wsCfg := solrpc.DefaultWSConfig()
		wsCfg.Logger = log
		ws, err := solrpc.NewWSClient(ctx, cfg.WSEndpoint, &wsCfg)
		if err != nil {
			log.WithError(err).Warn("websocket unavailable, polling for confirmations")
		} else {
			a.closers = append(a.closers, func() { ws.Close() })
			confirmer = submit.NewSubscriptionConfirmer(ws, confirmer)
		}
	}
	sub := submit.New(submit.Options{
		Blockhashes:    a.rpc,
		Confirmer:      confirmer,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Logger:         log,
	})

	a.notes = notify.NewChan(32)
	a.orch = ops.New(ops.Options{
		Builder:   a.pools,
		Balances:  a.rpc,
		Submitter: sub,
		Wallet:    w,
		Notifier:  notify.Multi{notify.NewLogNotifier(log), a.notes},
		Logger:    log,
	})

	a.stores, err = createStores(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	a.recorder = journal.NewRecorder(a.orch, a.stores.operations, a.walletKey, log)

	var displayCache cache.Cache = cache.NewMemory(cache.DefaultTTL)
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cache.DefaultTTL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { rc.Close() })
		displayCache = rc
	}
	a.display = cache.NewPools(a.pools, displayCache, log)

	ok = true
	return a, nil
}

// createStores picks PostgreSQL and ClickHouse when configured and memory otherwise.
func createStores(ctx context.Context, cfg *config.Config, a *app) (*stores, error) {
	s := &stores{
		operations: memory.NewOperationStore(),
		snapshots:  memory.NewPoolSnapshotStore(),
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		s.operations = pgstore.NewOperationStore(pool)
	} else {
		a.log.Debug("POSTGRES_DSN not set, journal kept in memory")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })
		s.snapshots = chstore.NewPoolSnapshotStore(conn)
	}

	return s, nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
