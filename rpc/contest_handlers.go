package rpc

import (
	"net/http"
	"strconv"
)

type contestInitializeParams struct {
	Admin string `json:"admin"`
	Token string `json:"token"`
}

func (s *Server) handleContestInitialize(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params contestInitializeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	admin, err := parseAddress(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	cfg, err := s.contest.Initialize(r.Context(), admin, params.Token)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"admin": formatAddress(cfg.Admin),
		"token": cfg.Token,
	})
}

type contestCreateParams struct {
	Admin     string `json:"admin"`
	SessionID uint64 `json:"sessionId"`
	Deadline  int64  `json:"deadline"`
	EntryFee  string `json:"entryFee"`
}

func (s *Server) handleContestCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params contestCreateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	admin, err := parseAddress(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	fee, err := parseBigInt(params.EntryFee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	comp, err := s.contest.CreateCompetition(r.Context(), admin, params.SessionID, params.Deadline, fee)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatCompetition(comp))
}

type contestPlayerParams struct {
	Player string `json:"player"`
}

func (s *Server) handleContestPayEntryFee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params contestPlayerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.contest.PayEntryFee(r.Context(), player); err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	comp, _, err := s.contest.Competition()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	s.metrics.ObserveEntryPaid(comp.PrizePool)
	writeResult(w, req.ID, formatCompetition(comp))
}

type contestScoreParams struct {
	Player string `json:"player"`
	Score  uint64 `json:"score"`
}

func (s *Server) handleContestSubmitScore(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params contestScoreParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	rows, err := s.contest.SubmitScore(r.Context(), player, params.Score)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	s.metrics.ObserveScore()
	writeResult(w, req.ID, formatLeaderboard(rows))
}

func (s *Server) handleContestPlayRound(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params contestScoreParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	rows, err := s.contest.PlayRound(r.Context(), player, params.Score)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	s.metrics.ObserveScore()
	writeResult(w, req.ID, formatLeaderboard(rows))
}

type contestSetFeeParams struct {
	Admin string `json:"admin"`
	Fee   string `json:"fee"`
}

func (s *Server) handleContestSetEntryFee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params contestSetFeeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	admin, err := parseAddress(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	fee, err := parseBigInt(params.Fee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.contest.SetEntryFee(r.Context(), admin, fee); err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"entryFee": fee.String()})
}

type contestAdminParams struct {
	Admin string `json:"admin"`
}

func (s *Server) handleContestEnd(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params contestAdminParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	admin, err := parseAddress(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	result, err := s.contest.EndCompetition(r.Context(), admin)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	s.metrics.ObserveSettlement(strconv.FormatUint(result.SessionID, 10), result.Remainder)
	writeResult(w, req.ID, formatSettlement(result))
}

func (s *Server) handleContestCompetition(w http.ResponseWriter, req *RPCRequest) {
	comp, exists, err := s.contest.Competition()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	if !exists {
		writeResult(w, req.ID, nil)
		return
	}
	writeResult(w, req.ID, formatCompetition(comp))
}

func (s *Server) handleContestLeaderboard(w http.ResponseWriter, req *RPCRequest) {
	rows, err := s.contest.Leaderboard()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatLeaderboard(rows))
}

func (s *Server) handleContestPlayerStats(w http.ResponseWriter, req *RPCRequest) {
	var params contestPlayerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	row, exists, err := s.contest.PlayerStats(player)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	if !exists {
		writeResult(w, req.ID, nil)
		return
	}
	writeResult(w, req.ID, playerScoreJSON{
		Player:     formatAddress(row.Player),
		TotalGames: row.TotalGames,
		TotalScore: row.TotalScore,
		Rank:       row.Rank,
	})
}

func (s *Server) handleContestEntryFee(w http.ResponseWriter, req *RPCRequest) {
	fee, err := s.contest.EntryFee()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(fee))
}

func (s *Server) handleContestAdmin(w http.ResponseWriter, req *RPCRequest) {
	admin, exists, err := s.contest.Admin()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	if !exists {
		writeResult(w, req.ID, nil)
		return
	}
	writeResult(w, req.ID, formatAddress(admin))
}

func (s *Server) handleContestHasPaid(w http.ResponseWriter, req *RPCRequest) {
	var params contestPlayerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	paid, err := s.contest.HasPaid(player)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, paid)
}

func (s *Server) handleContestPlayerFees(w http.ResponseWriter, req *RPCRequest) {
	var params contestPlayerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	fees, err := s.contest.PlayerFees(player)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(fees))
}
