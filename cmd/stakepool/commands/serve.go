package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"solana-stake-desk/internal/derive"
	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/observability"
	"solana-stake-desk/internal/ops"
	"solana-stake-desk/internal/storage"
)

const shutdownTimeout = 30 * time.Second

// recorder runs and journals one request. Implemented by journal.Recorder.
type recorder interface {
	Execute(ctx context.Context, req ops.Request) (ops.Outcome, *domain.OperationRecord, error)
}

// Server exposes operations, pool display and history over HTTP.
type Server struct {
	ops       recorder
	pools     poolReader
	journal   storage.OperationStore
	snapshots storage.PoolSnapshotStore
	inFlight  func() bool
	wallet    string
	log       logrus.FieldLogger

	mu         sync.Mutex
	started    time.Time
	operations int
	lastRecord *domain.OperationRecord
}

func newServer(a *app) *Server {
	return &Server{
		ops:       a.recorder,
		pools:     a.display,
		journal:   a.stores.operations,
		snapshots: a.stores.snapshots,
		inFlight:  a.orch.InFlight,
		wallet:    a.walletKey,
		log:       a.log.WithField("component", "http"),
		started:   time.Now(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /v1/operations", s.handleOperation)
	mux.HandleFunc("GET /v1/operations", s.handleHistory)
	mux.HandleFunc("GET /v1/pools/{address}", s.handlePool)

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	Started         time.Time `json:"started"`
	Wallet          string    `json:"wallet,omitempty"`
	WalletConnected bool      `json:"wallet_connected"`
	InFlight        bool      `json:"in_flight"`
	Operations      int       `json:"operations"`
	LastOperation   string    `json:"last_operation,omitempty"`
	LastStatus      string    `json:"last_status,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).Truncate(time.Second).String(),
		Started:         s.started,
		Wallet:          s.wallet,
		WalletConnected: s.wallet != "",
		Operations:      s.operations,
	}
	if s.lastRecord != nil {
		resp.LastOperation = s.lastRecord.Kind.String()
		resp.LastStatus = string(s.lastRecord.Status)
	}
	s.mu.Unlock()
	if s.inFlight != nil {
		resp.InFlight = s.inFlight()
	}

	writeJSON(w, http.StatusOK, resp)
}

// OperationResponse is the JSON response for POST /v1/operations.
type OperationResponse struct {
	Outcome  ops.Outcome `json:"outcome"`
	RecordID string      `json:"record_id,omitempty"`
	Class    string      `json:"class,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	var req ops.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, OperationResponse{Error: err.Error()})
		return
	}

	// A broadcast transaction is followed to confirmation even if the client goes away.
	out, rec, err := s.ops.Execute(context.WithoutCancel(r.Context()), req)
	resp := OperationResponse{Outcome: out}
	if rec != nil {
		resp.RecordID = rec.ID
		s.mu.Lock()
		s.operations++
		s.lastRecord = rec
		s.mu.Unlock()
	}
	if err != nil {
		resp.Error = err.Error()
		if !errors.Is(err, ops.ErrInvalidRequest) {
			resp.Class = ops.Classify(err).String()
		}
	}
	writeJSON(w, statusFor(err), resp)
}

// statusFor maps an operation error to an HTTP status.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ops.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	switch ops.Classify(err) {
	case ops.ClassOperationInProgress:
		return http.StatusConflict
	case ops.ClassWalletNotConnected:
		return http.StatusUnauthorized
	case ops.ClassInvalidIdentifier, ops.ClassInvalidAmount:
		return http.StatusBadRequest
	case ops.ClassInsufficientBalance, ops.ClassSlippageExceeded:
		return http.StatusUnprocessableEntity
	case ops.ClassSubmissionRejected:
		return http.StatusForbidden
	case ops.ClassConfirmationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	view, err := displayPool(r.Context(), s.pools, s.snapshots, r.PathValue("address"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, derive.ErrInvalidIdentifier):
		writeError(w, http.StatusBadRequest, err)
	default:
		s.log.WithError(err).Warn("pool read failed")
		writeError(w, http.StatusBadGateway, err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 50
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	var (
		records []*domain.OperationRecord
		err     error
	)
	switch {
	case q.Get("pool") != "":
		records, err = s.journal.ListByPool(r.Context(), q.Get("pool"), limit)
	case q.Get("wallet") != "":
		records, err = s.journal.ListByWallet(r.Context(), q.Get("wallet"), limit)
	case s.wallet != "":
		records, err = s.journal.ListByWallet(r.Context(), s.wallet, limit)
	default:
		writeError(w, http.StatusBadRequest, errors.New("pool or wallet is required"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []*domain.OperationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with health, metrics and status endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.AutoApprove && cfg.KeypairPath != "" {
				// Nobody is at a terminal to answer the prompt.
				return errors.New("serve signs unattended: pass --yes or set STAKEPOOL_AUTO_APPROVE")
			}
			a, err := desk(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.MetricsAddr
			}
			return serve(cmd.Context(), newServer(a), addr, a.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default METRICS_ADDR)")
	return cmd
}

func serve(ctx context.Context, s *Server, addr string, log logrus.FieldLogger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-ticker.C:
			observability.AddUptime(10)
		case <-ctx.Done():
			log.Info("shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}
