package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fundchain/core/state"
	"fundchain/native/campaign"
	"fundchain/native/contest"
	"fundchain/native/settlement"
	"fundchain/observability/metrics"
)

const maxRequestBytes = 1 << 20 // 1 MiB

// Server exposes the campaign and contest engines over JSON-RPC 2.0. Mutating
// methods require a verified bearer token; queries are open. The server is
// the host side of the engines' collaborator seams: it resolves the caller
// identity and records it on the request context before dispatching.
type Server struct {
	campaign *campaign.Engine
	contest  *contest.Engine
	verifier *CallerVerifier
	logger   *slog.Logger
	metrics  *metrics.SettlementMetrics
}

// NewServer wires the engines into an RPC server.
func NewServer(campaignEngine *campaign.Engine, contestEngine *contest.Engine, verifier *CallerVerifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		campaign: campaignEngine,
		contest:  contestEngine,
		verifier: verifier,
		logger:   logger,
		metrics:  metrics.Settlement(),
	}
}

// Router builds the HTTP routing for the server: the JSON-RPC endpoint plus
// health and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Method(http.MethodPost, "/rpc", otelhttp.NewHandler(http.HandlerFunc(s.handle), "rpc"))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r)
	})
}

// handle is the main request handler that routes to specific method handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	if s.verifier != nil {
		caller, presented, err := s.verifier.Caller(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "invalid bearer token", err.Error())
			return
		}
		if presented {
			r = r.WithContext(settlement.WithCaller(r.Context(), caller))
		}
	}

	switch req.Method {
	case "campaign_initialize":
		s.handleCampaignInitialize(w, r, req)
	case "campaign_donate":
		s.handleCampaignDonate(w, r, req)
	case "campaign_refund":
		s.handleCampaignRefund(w, r, req)
	case "campaign_getTotalRaised":
		s.handleCampaignTotalRaised(w, req)
	case "campaign_getDonation":
		s.handleCampaignDonation(w, req)
	case "campaign_getGoal":
		s.handleCampaignGoal(w, req)
	case "campaign_getDeadline":
		s.handleCampaignDeadline(w, req)
	case "campaign_isGoalReached":
		s.handleCampaignGoalReached(w, req)
	case "campaign_isEnded":
		s.handleCampaignEnded(w, req)
	case "campaign_isInitialized":
		s.handleCampaignInitialized(w, req)
	case "campaign_getProgress":
		s.handleCampaignProgress(w, req)
	case "contest_initialize":
		s.handleContestInitialize(w, r, req)
	case "contest_createCompetition":
		s.handleContestCreate(w, r, req)
	case "contest_payEntryFee":
		s.handleContestPayEntryFee(w, r, req)
	case "contest_submitScore":
		s.handleContestSubmitScore(w, r, req)
	case "contest_playRound":
		s.handleContestPlayRound(w, r, req)
	case "contest_setEntryFee":
		s.handleContestSetEntryFee(w, r, req)
	case "contest_endCompetition":
		s.handleContestEnd(w, r, req)
	case "contest_getCompetition":
		s.handleContestCompetition(w, req)
	case "contest_getLeaderboard":
		s.handleContestLeaderboard(w, req)
	case "contest_getPlayerStats":
		s.handleContestPlayerStats(w, req)
	case "contest_getEntryFee":
		s.handleContestEntryFee(w, req)
	case "contest_getAdmin":
		s.handleContestAdmin(w, req)
	case "contest_hasPaid":
		s.handleContestHasPaid(w, req)
	case "contest_getPlayerFees":
		s.handleContestPlayerFees(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

func decodeSingleParam(req *RPCRequest, target interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], target)
}

// writeEngineError translates an engine failure into the JSON-RPC error
// surface: authentication failures map to 401, precondition violations to
// 409, and everything else to a server error.
func (s *Server) writeEngineError(w http.ResponseWriter, req *RPCRequest, err error) {
	s.metrics.ObserveRequestFailure(req.Method)
	switch {
	case errors.Is(err, settlement.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, state.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, req.ID, codeInsufficient, "insufficient balance", err.Error())
	case isPrecondition(err):
		writeError(w, http.StatusConflict, req.ID, codePrecondition, "precondition failed", err.Error())
	default:
		s.logger.Error("rpc call failed", "method", req.Method, "error", err)
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "internal error", err.Error())
	}
}

func isPrecondition(err error) bool {
	preconditions := []error{
		campaign.ErrAlreadyInitialized,
		campaign.ErrNotInitialized,
		campaign.ErrInvalidAmount,
		campaign.ErrInvalidGoal,
		campaign.ErrCampaignEnded,
		campaign.ErrCampaignNotEnded,
		campaign.ErrGoalReached,
		campaign.ErrNoDonationFound,
		contest.ErrAlreadyInitialized,
		contest.ErrNotInitialized,
		contest.ErrInvalidFee,
		contest.ErrInvalidDeadline,
		contest.ErrCompetitionAlreadyActive,
		contest.ErrCompetitionNotActive,
		contest.ErrCompetitionEnded,
		contest.ErrCompetitionStillOpen,
		contest.ErrAlreadyPaid,
		contest.ErrPaymentRequired,
		contest.ErrFeeImmutable,
		contest.ErrCombinedPlayDisabled,
		settlement.ErrInvalidAmount,
		settlement.ErrNothingToSettle,
	}
	for _, candidate := range preconditions {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
