package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"wishgift/internal/core"
	"wishgift/internal/services"
	"wishgift/internal/storage"
)

// Response shapes. Money travels as integer cents plus a pre-formatted
// decimal string so clients don't re-implement rounding.

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type balanceResponse struct {
	UserID         int64  `json:"user_id"`
	CashOnHandCent int64  `json:"cash_on_hand_cents"`
	CashOnHand     string `json:"cash_on_hand"`
}

type vendorResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type itemResponse struct {
	ID                   int64    `json:"id"`
	VendorID             int64    `json:"vendor_id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	PriceCents           int64    `json:"price_cents"`
	Price                string   `json:"price"`
	Category             string   `json:"category,omitempty"`
	AddedToWishlistCount int64    `json:"added_to_wishlist_count"`
	ImageURLs            []string `json:"image_urls"`
}

type entryResponse struct {
	ID              int64  `json:"id"`
	WishlistID      int64  `json:"wishlist_id"`
	ItemID          *int64 `json:"item_id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	Price           string `json:"price"`
	AmountPaidCents int64  `json:"amount_paid_cents"`
	AmountPaid      string `json:"amount_paid"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

type contributionResponse struct {
	ID          int64  `json:"id"`
	EntryID     int64  `json:"entry_id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Message     string `json:"message,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type overviewResponse struct {
	ID                    int64           `json:"id"`
	UserID                int64           `json:"user_id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description,omitempty"`
	ExpiryDate            string          `json:"expiry_date"`
	DaysLeft              int             `json:"days_left"`
	Entries               []entryResponse `json:"entries"`
	TotalPriceCents       int64           `json:"total_price_cents"`
	TotalContributedCents int64           `json:"total_contributed_cents"`
	RemainingCents        int64           `json:"remaining_cents"`
}

func formatAmount(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func toEntryResponse(e core.WishlistEntry) entryResponse {
	return entryResponse{
		ID:              e.ID,
		WishlistID:      e.WishlistID,
		ItemID:          e.ItemID,
		Name:            e.Name,
		Description:     e.Description,
		PriceCents:      e.Price.Cents,
		Price:           formatAmount(e.Price.Cents),
		AmountPaidCents: e.AmountPaid.Cents,
		AmountPaid:      formatAmount(e.AmountPaid.Cents),
		Status:          string(e.Status),
		CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toContributionResponse(c core.Contribution) contributionResponse {
	return contributionResponse{
		ID:          c.ID,
		EntryID:     c.EntryID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		AmountCents: c.Amount.Cents,
		Amount:      formatAmount(c.Amount.Cents),
		Message:     c.Message,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// writeError maps domain and storage errors onto HTTP statuses: unknown
// resources are 404, validation failures 422, duplicates and lost races 409,
// anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrEntryNotFound),
		errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrVendorNotFound),
		errors.Is(err, storage.ErrItemNotFound),
		errors.Is(err, storage.ErrWishlistNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, storage.ErrUserExists),
		errors.Is(err, storage.ErrVendorExists):
		ConflictError(err.Error()).Write(w)
	case errors.Is(err, storage.ErrConcurrentUpdate):
		ConflictError("entry was modified concurrently, please retry").Write(w)
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrAmountBelowPrice),
		errors.Is(err, core.ErrContributorInfoMissing),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrInvalidExpiry):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		InternalServerError("internal error").Write(w)
	}
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	u := core.User{
		Username: p.Get("username"),
		Email:    p.Get("email"),
		Name:     p.Get("name"),
		Phone:    p.Get("phone"),
	}
	if u.Username == "" {
		UnprocessableEntityError("username is required").Write(w)
		return
	}
	if u.Email == "" {
		UnprocessableEntityError("email is required").Write(w)
		return
	}

	created, err := s.storage.CreateUser(r.Context(), u)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Payload(userResponse{
		ID:       created.ID,
		Username: created.Username,
		Email:    created.Email,
		Name:     created.Name,
		Phone:    created.Phone,
	}).Write(w)
}

func (s *Server) handleUserBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError("invalid user id").Write(w)
		return
	}

	u, err := s.storage.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().Payload(balanceResponse{
		UserID:         u.ID,
		CashOnHandCent: u.CashOnHand.Cents,
		CashOnHand:     formatAmount(u.CashOnHand.Cents),
	}).Write(w)
}

func (s *Server) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.storage.ListVendors(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]vendorResponse, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, vendorResponse{ID: v.ID, Name: v.Name, Email: v.Email, Phone: v.Phone})
	}
	NewJSONResponse().Payload(out).Write(w)
}

func (s *Server) handleRegisterVendor(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	v := core.Vendor{
		Name:  p.Get("name"),
		Email: p.Get("email"),
		Phone: p.Get("phone"),
	}
	if err := v.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.storage.CreateVendor(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Payload(vendorResponse{
		ID: created.ID, Name: created.Name, Email: created.Email, Phone: created.Phone,
	}).Write(w)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	vendorID, err := pathID(r)
	if err != nil {
		BadRequestError("invalid vendor id").Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	cents, err := core.ParseDecimalToCents(p.Get("price"))
	if err != nil {
		UnprocessableEntityError("invalid price").Write(w)
		return
	}

	item := core.CatalogItem{
		VendorID:    vendorID,
		Name:        p.Get("name"),
		Description: p.Get("description"),
		Price:       core.Money{Cents: cents},
		Category:    p.Get("category"),
		ImageURLs:   p.GetStrings("image_urls"),
	}
	if err := item.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.storage.CreateItem(r.Context(), item)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Payload(toItemResponse(created)).Write(w)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError("invalid item id").Write(w)
		return
	}

	item, err := s.storage.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(toItemResponse(item)).Write(w)
}

func toItemResponse(item core.CatalogItem) itemResponse {
	return itemResponse{
		ID:                   item.ID,
		VendorID:             item.VendorID,
		Name:                 item.Name,
		Description:          item.Description,
		PriceCents:           item.Price.Cents,
		Price:                formatAmount(item.Price.Cents),
		Category:             item.Category,
		AddedToWishlistCount: item.AddedToWishlistCount,
		ImageURLs:            item.ImageURLs,
	}
}

func (s *Server) handleCreateWishlist(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	userID, err := strconv.ParseInt(p.Get("user_id"), 10, 64)
	if err != nil {
		UnprocessableEntityError("invalid user_id").Write(w)
		return
	}
	expiry, err := time.Parse("2006-01-02", p.Get("expiry_date"))
	if err != nil {
		UnprocessableEntityError("invalid expiry_date, want YYYY-MM-DD").Write(w)
		return
	}

	wl := core.Wishlist{
		UserID:      userID,
		Title:       p.Get("title"),
		Description: p.Get("description"),
		ExpiryDate:  expiry,
	}
	if err := wl.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.storage.CreateWishlist(r.Context(), wl)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Payload(map[string]any{
		"id":          created.ID,
		"user_id":     created.UserID,
		"title":       created.Title,
		"description": created.Description,
		"expiry_date": created.ExpiryDate.Format("2006-01-02"),
	}).Write(w)
}

func (s *Server) handleWishlistOverview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError("invalid wishlist id").Write(w)
		return
	}

	ov, err := s.getOverview(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := overviewResponse{
		ID:                    ov.Wishlist.ID,
		UserID:                ov.Wishlist.UserID,
		Title:                 ov.Wishlist.Title,
		Description:           ov.Wishlist.Description,
		ExpiryDate:            ov.Wishlist.ExpiryDate.Format("2006-01-02"),
		DaysLeft:              ov.DaysLeft,
		Entries:               make([]entryResponse, 0, len(ov.Entries)),
		TotalPriceCents:       ov.TotalPrice.Cents,
		TotalContributedCents: ov.TotalContributed.Cents,
		RemainingCents:        ov.Remaining.Cents,
	}
	for _, e := range ov.Entries {
		resp.Entries = append(resp.Entries, toEntryResponse(e))
	}
	NewJSONResponse().Payload(resp).Write(w)
}

func (s *Server) handleGift(w http.ResponseWriter, r *http.Request) {
	wishlistID, err := pathID(r)
	if err != nil {
		BadRequestError("invalid wishlist id").Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	amountCents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		UnprocessableEntityError("invalid amount").Write(w)
		return
	}

	req := services.GiftRequest{
		WishlistID:  wishlistID,
		Name:        p.Get("name"),
		Description: p.Get("description"),
		Amount:      core.Money{Cents: amountCents},
		Contributor: contributorFrom(p),
	}

	if raw := p.Get("item_id"); raw != "" {
		itemID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			UnprocessableEntityError("invalid item_id").Write(w)
			return
		}
		req.ItemID = &itemID
	} else {
		priceCents, err := core.ParseDecimalToCents(p.Get("price"))
		if err != nil {
			UnprocessableEntityError("invalid price").Write(w)
			return
		}
		req.Price = core.Money{Cents: priceCents}
	}

	entry, contrib, err := s.service.GiftWholeItem(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	contributionsTotal.WithLabelValues("gift").Inc()
	contributedCentsTotal.WithLabelValues("gift").Add(float64(contrib.Amount.Cents))
	s.invalidateOverview(wishlistID)

	NewJSONResponse().Status(http.StatusCreated).Payload(map[string]any{
		"msg":          "gift accepted",
		"entry":        toEntryResponse(entry),
		"contribution": toContributionResponse(contrib),
	}).Write(w)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r)
	if err != nil {
		BadRequestError("invalid entry id").Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	amountCents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		UnprocessableEntityError("invalid amount").Write(w)
		return
	}

	entry, contrib, err := s.service.ContributeToEntry(r.Context(), entryID,
		core.Money{Cents: amountCents}, contributorFrom(p))
	if err != nil {
		writeError(w, r, err)
		return
	}

	contributionsTotal.WithLabelValues("topup").Inc()
	contributedCentsTotal.WithLabelValues("topup").Add(float64(contrib.Amount.Cents))
	s.invalidateOverview(entry.WishlistID)

	NewJSONResponse().Status(http.StatusCreated).Payload(map[string]any{
		"msg":          "contribution accepted",
		"entry":        toEntryResponse(entry),
		"contribution": toContributionResponse(contrib),
	}).Write(w)
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r)
	if err != nil {
		BadRequestError("invalid entry id").Write(w)
		return
	}

	contribs, err := s.service.ListContributions(r.Context(), entryID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]contributionResponse, 0, len(contribs))
	for _, c := range contribs {
		out = append(out, toContributionResponse(c))
	}
	NewJSONResponse().Payload(out).Write(w)
}

func contributorFrom(p *RequestBodyParser) core.Contributor {
	return core.Contributor{
		Name:    p.Get("contributor_name"),
		Email:   p.Get("contributor_email"),
		Phone:   p.Get("contributor_phone"),
		Message: p.Get("message"),
	}
}
