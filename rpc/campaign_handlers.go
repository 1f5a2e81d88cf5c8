package rpc

import (
	"net/http"
)

type campaignInitializeParams struct {
	Owner    string `json:"owner"`
	Goal     string `json:"goal"`
	Deadline int64  `json:"deadline"`
	Token    string `json:"token"`
}

type campaignJSON struct {
	Owner    string `json:"owner"`
	Token    string `json:"token"`
	Goal     string `json:"goal"`
	Deadline int64  `json:"deadline"`
}

func (s *Server) handleCampaignInitialize(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params campaignInitializeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	goal, err := parsePositiveBigInt(params.Goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	camp, err := s.campaign.Initialize(r.Context(), owner, goal, params.Deadline, params.Token)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, &campaignJSON{
		Owner:    formatAddress(camp.Owner),
		Token:    camp.Token,
		Goal:     formatAmount(camp.Goal),
		Deadline: camp.Deadline,
	})
}

type campaignDonateParams struct {
	Donor  string `json:"donor"`
	Amount string `json:"amount"`
}

func (s *Server) handleCampaignDonate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params campaignDonateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	donor, err := parseAddress(params.Donor)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.campaign.Donate(r.Context(), donor, amount); err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	total, err := s.campaign.TotalRaised()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	s.metrics.ObserveDonation(total)
	writeResult(w, req.ID, map[string]string{"totalRaised": formatAmount(total)})
}

type campaignRefundParams struct {
	Donor string `json:"donor"`
}

func (s *Server) handleCampaignRefund(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params campaignRefundParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	donor, err := parseAddress(params.Donor)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	refunded, err := s.campaign.Refund(r.Context(), donor)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	total, err := s.campaign.TotalRaised()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	s.metrics.ObserveRefund(total)
	writeResult(w, req.ID, map[string]string{"amount": formatAmount(refunded)})
}

func (s *Server) handleCampaignTotalRaised(w http.ResponseWriter, req *RPCRequest) {
	total, err := s.campaign.TotalRaised()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(total))
}

type campaignAddressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleCampaignDonation(w http.ResponseWriter, req *RPCRequest) {
	var params campaignAddressParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	donation, err := s.campaign.Donation(addr)
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(donation))
}

func (s *Server) handleCampaignGoal(w http.ResponseWriter, req *RPCRequest) {
	goal, err := s.campaign.Goal()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(goal))
}

func (s *Server) handleCampaignDeadline(w http.ResponseWriter, req *RPCRequest) {
	deadline, err := s.campaign.Deadline()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, deadline)
}

func (s *Server) handleCampaignGoalReached(w http.ResponseWriter, req *RPCRequest) {
	reached, err := s.campaign.IsGoalReached()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, reached)
}

func (s *Server) handleCampaignEnded(w http.ResponseWriter, req *RPCRequest) {
	ended, err := s.campaign.IsEnded()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, ended)
}

func (s *Server) handleCampaignInitialized(w http.ResponseWriter, req *RPCRequest) {
	initialized, err := s.campaign.IsInitialized()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, initialized)
}

func (s *Server) handleCampaignProgress(w http.ResponseWriter, req *RPCRequest) {
	progress, err := s.campaign.ProgressPercentage()
	if err != nil {
		s.writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(progress))
}
