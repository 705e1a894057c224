package http

import (
	"net/http"
	"time"

	"billa/internal/billing"
	"billa/internal/core"
	"billa/internal/services"
)

// subscriptionRequest is the JSON body for create. Cost accepts a JSON
// number or a quoted decimal string; both round half-up past two
// decimals.
type subscriptionRequest struct {
	Name          string     `json:"name"`
	Cost          core.Money `json:"cost"`
	BillingCycle  string     `json:"billingCycle"`
	Category      string     `json:"category"`
	StartDate     *time.Time `json:"startDate"`
	DueDate       *time.Time `json:"dueDate"`
	DueDayOfMonth *int       `json:"dueDayOfMonth"`
}

// updateSubscriptionRequest is the JSON body for update. Omitted fields
// keep their stored values.
type updateSubscriptionRequest struct {
	Name          *string     `json:"name"`
	Cost          *core.Money `json:"cost"`
	BillingCycle  *string     `json:"billingCycle"`
	Category      *string     `json:"category"`
	StartDate     *time.Time  `json:"startDate"`
	DueDate       *time.Time  `json:"dueDate"`
	DueDayOfMonth *int        `json:"dueDayOfMonth"`
}

type listResponse struct {
	Data  []core.Subscription `json:"data"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

type subscriptionResponse struct {
	Subscription core.Subscription    `json:"subscription"`
	PaymentState paymentStateResponse `json:"paymentState"`
}

type paymentStateResponse struct {
	IsPaidForCurrentPeriod bool       `json:"isPaidForCurrentPeriod"`
	NextDue                *time.Time `json:"nextDue"`
}

func toPaymentStateResponse(state billing.PaymentState) paymentStateResponse {
	return paymentStateResponse{
		IsPaidForCurrentPeriod: state.IsPaidForCurrentPeriod,
		NextDue:                state.NextDue,
	}
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = services.DefaultPageSize
	}

	subs, total, err := s.service.List(r.Context(), ownerID(r), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: subs, Total: total, Page: page, Limit: limit})
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	cycle, err := core.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		writeError(w, err)
		return
	}

	in := services.CreateInput{
		Name:          sanitizeInput(req.Name),
		Cost:          req.Cost,
		Cycle:         cycle,
		Category:      sanitizeInput(req.Category),
		DueDate:       req.DueDate,
		DueDayOfMonth: req.DueDayOfMonth,
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}

	sub, err := s.service.Create(r.Context(), ownerID(r), in, s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, state, err := s.service.PaymentState(r.Context(), r.PathValue("id"), ownerID(r), s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{
		Subscription: sub,
		PaymentState: toPaymentStateResponse(state),
	})
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req updateSubscriptionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	in := services.UpdateInput{
		StartDate:     req.StartDate,
		DueDate:       req.DueDate,
		DueDayOfMonth: req.DueDayOfMonth,
	}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		in.Name = &name
	}
	if req.Cost != nil {
		in.Cost = req.Cost
	}
	if req.BillingCycle != nil {
		cycle, err := core.ParseBillingCycle(*req.BillingCycle)
		if err != nil {
			writeError(w, err)
			return
		}
		in.Cycle = &cycle
	}
	if req.Category != nil {
		category := sanitizeInput(*req.Category)
		in.Category = &category
	}

	sub, err := s.service.Update(r.Context(), r.PathValue("id"), ownerID(r), in, s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id"), ownerID(r), s.clock()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	sub, err := s.service.MarkPaid(r.Context(), r.PathValue("id"), ownerID(r), s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
