package apiv1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/infra/api"
	"sitfit-api/internal/infra/imageutil"
	"sitfit-api/internal/usecase"
)

// ===== credits =====

type creditsResponse struct {
	Credits             int64      `json:"credits"`
	Unlimited           bool       `json:"unlimited"`
	IsPremium           bool       `json:"isPremium"`
	SubscriptionType    string     `json:"subscriptionType"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate,omitempty"`
	LastResetDate       time.Time  `json:"lastResetDate"`
	TotalUsed           int64      `json:"totalUsed"`
}

func toCreditsResponse(c *model.UserCredits) creditsResponse {
	return creditsResponse{
		Credits:             c.Credits,
		Unlimited:           c.IsUnlimited(),
		IsPremium:           c.IsPremium,
		SubscriptionType:    string(c.SubscriptionType),
		SubscriptionEndDate: c.SubscriptionEndDate,
		LastResetDate:       c.LastResetDate,
		TotalUsed:           c.TotalUsed,
	}
}

func (s *Server) getCredits(w http.ResponseWriter, r *http.Request) {
	c, err := s.credits.GetOrInit(r.Context(), s.userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, toCreditsResponse(c))
}

func (s *Server) getCreditStatus(w http.ResponseWriter, r *http.Request) {
	active, err := s.credits.CheckActive(r.Context(), s.userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, map[string]bool{"active": active})
}

// ===== payment =====

type createOrderRequest struct {
	Plan   string `json:"plan" validate:"required,oneof=monthly yearly"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

type orderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"` // minor units, as the checkout expects
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Key      string `json:"key"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	o, err := s.payments.CreateOrder(r.Context(), s.userID(r), model.Plan(req.Plan), req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, orderResponse{
		OrderID:  o.ID,
		Amount:   o.AmountMinor,
		Currency: o.Currency,
		Receipt:  o.Receipt,
		Key:      o.KeyID,
	})
}

type verifyPaymentRequest struct {
	OrderID   string `json:"orderId" validate:"required,max=128"`
	PaymentID string `json:"paymentId" validate:"required,max=128"`
	Signature string `json:"signature" validate:"required,max=256"`
	Plan      string `json:"plan" validate:"required,oneof=monthly yearly"`
}

type verifyPaymentResponse struct {
	PaymentID string `json:"paymentId"`
	Plan      string `json:"plan"`
	Duplicate bool   `json:"duplicate"`
}

func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.payments.VerifyAndUpgrade(r.Context(), usecase.VerifyInput{
		UserID:    s.userID(r),
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Plan:      model.Plan(req.Plan),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	msg := "Payment verified and subscription activated"
	if res.Duplicate {
		msg = "Payment already applied"
	}
	api.WriteJSON(w, http.StatusOK, api.Envelope{
		Success: true,
		Message: msg,
		Data:    verifyPaymentResponse{PaymentID: res.PaymentID, Plan: string(res.Plan), Duplicate: res.Duplicate},
	})
}

type paymentResponse struct {
	OrderID   string    `json:"orderId"`
	PaymentID string    `json:"paymentId"`
	Plan      string    `json:"plan"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
}

func (s *Server) paymentHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.credits.PaymentHistory(r.Context(), s.userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]paymentResponse, 0, len(recs))
	for _, p := range recs {
		out = append(out, paymentResponse{
			OrderID:   p.OrderID,
			PaymentID: p.PaymentID,
			Plan:      string(p.Plan),
			Amount:    p.Amount,
			Currency:  p.Currency,
			Date:      p.Date,
			Status:    string(p.Status),
		})
	}
	api.WriteData(w, http.StatusOK, map[string]any{"payments": out, "count": len(out)})
}

// ===== try-on =====

// Images arrive as base64 data URLs.
type tryOnRequest struct {
	ModelImage       string `json:"modelImage" validate:"required"`
	OutfitImage      string `json:"outfitImage" validate:"required"`
	GarmentType      string `json:"garmentType" validate:"omitempty,oneof=full_body comb"`
	BottomClothImage string `json:"bottomClothImage"`
}

type tryOnResponse struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	GarmentType       string    `json:"garmentType"`
	GeneratedImageURL string    `json:"generatedImageUrl,omitempty"`
	RequestID         string    `json:"requestId,omitempty"`
	Message           string    `json:"message,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toTryOnResponse(t *model.TryOnResult) tryOnResponse {
	return tryOnResponse{
		ID:                t.ID,
		Status:            string(t.Status),
		GarmentType:       string(t.GarmentType),
		GeneratedImageURL: t.GeneratedImageURL,
		RequestID:         t.ProviderRequestID,
		Message:           t.Message,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func (s *Server) generateTryOn(w http.ResponseWriter, r *http.Request) {
	var req tryOnRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	garment, err := model.ParseGarmentType(req.GarmentType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in := usecase.TryOnRequest{GarmentType: garment}
	for _, img := range []struct {
		src string
		dst *[]byte
	}{
		{req.ModelImage, &in.ModelImage},
		{req.OutfitImage, &in.OutfitImage},
		{req.BottomClothImage, &in.BottomImage},
	} {
		if *img.dst, err = imageutil.DecodeDataURL(img.src, s.opts.MaxImageBytes); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	res, err := s.tryOn.Generate(r.Context(), s.userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Envelope{
		Success: true,
		Message: "Try-on generated successfully",
		Data:    toTryOnResponse(res),
	})
}

func (s *Server) tryOnHistory(w http.ResponseWriter, r *http.Request) {
	list, err := s.tryOn.History(r.Context(), s.userID(r), queryLimit(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]tryOnResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTryOnResponse(t))
	}
	api.WriteData(w, http.StatusOK, map[string]any{"history": out, "count": len(out)})
}

func (s *Server) getTryOn(w http.ResponseWriter, r *http.Request) {
	t, err := s.tryOn.Get(r.Context(), s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, toTryOnResponse(t))
}

// ===== stylist =====

type stylistContextRequest struct {
	Age             int    `json:"age" validate:"omitempty,min=13,max=100"`
	Gender          string `json:"gender" validate:"max=20"`
	StylePreference string `json:"stylePreference" validate:"max=100"`
	Occasion        string `json:"occasion" validate:"max=100"`
}

type stylistRequest struct {
	Query   string                 `json:"query" validate:"required"`
	Context *stylistContextRequest `json:"context"`
}

type stylistResponse struct {
	ID        string               `json:"id"`
	Query     string               `json:"query"`
	Context   model.StylistContext `json:"context"`
	Response  string               `json:"response"`
	Provider  string               `json:"provider"`
	CreatedAt time.Time            `json:"createdAt"`
}

func toStylistResponse(e *model.StylistEntry) stylistResponse {
	return stylistResponse{
		ID:        e.ID,
		Query:     e.Query,
		Context:   e.Context,
		Response:  e.Response,
		Provider:  e.Provider,
		CreatedAt: e.CreatedAt,
	}
}

func (s *Server) askStylist(w http.ResponseWriter, r *http.Request) {
	var req stylistRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var sc model.StylistContext
	if req.Context != nil {
		sc = model.StylistContext{
			Age:             req.Context.Age,
			Gender:          req.Context.Gender,
			StylePreference: req.Context.StylePreference,
			Occasion:        req.Context.Occasion,
		}
	}
	e, err := s.stylist.Ask(r.Context(), s.userID(r), req.Query, sc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Envelope{
		Success: true,
		Message: "Style suggestions retrieved successfully",
		Data:    toStylistResponse(e),
	})
}

func (s *Server) stylistHistory(w http.ResponseWriter, r *http.Request) {
	list, err := s.stylist.History(r.Context(), s.userID(r), queryLimit(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]stylistResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toStylistResponse(e))
	}
	api.WriteData(w, http.StatusOK, map[string]any{"history": out, "count": len(out)})
}

type feedbackRequest struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Rating         int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback       string `json:"feedback" validate:"max=1000"`
}

func (s *Server) stylistFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.stylist.Feedback(r.Context(), s.userID(r), req.ConversationID, req.Rating, req.Feedback); err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Envelope{Success: true, Message: "Feedback submitted successfully"})
}

// ===== weather =====

func (s *Server) currentWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryCoords(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := s.opts.Weather.Current(r.Context(), lat, lon)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, report)
}

func (s *Server) weatherForecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryCoords(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	forecast, err := s.opts.Weather.Forecast(r.Context(), lat, lon, days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, map[string]any{"forecast": forecast, "count": len(forecast)})
}
