package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	backoffice "github.com/brightpixel/backoffice"
	"github.com/brightpixel/backoffice/internal/content"
	"github.com/brightpixel/backoffice/middleware"
)

// ContentStore is the persistence surface the content handlers need.
// [content.Store] implements it against MySQL; tests substitute in-memory
// stubs.
type ContentStore interface {
	CreateContact(ctx context.Context, c *content.Contact) error
	ListContacts(ctx context.Context) ([]content.Contact, error)
	Subscribe(ctx context.Context, email string) error
	ListTestimonials(ctx context.Context) ([]content.Testimonial, error)
	CreateTestimonial(ctx context.Context, t *content.Testimonial) error
	ListCaseStudies(ctx context.Context) ([]content.CaseStudy, error)
	CreateCaseStudy(ctx context.Context, cs *content.CaseStudy) error
	UpdateCaseStudy(ctx context.Context, id uint, cs *content.CaseStudy) error
	DeleteCaseStudy(ctx context.Context, id uint) error
	ListTeamMembers(ctx context.Context) ([]content.TeamMember, error)
	CreateTeamMember(ctx context.Context, tm *content.TeamMember) error
	UpdateTeamMember(ctx context.Context, id uint, tm *content.TeamMember) error
	DeleteTeamMember(ctx context.Context, id uint) error
	ListPosts(ctx context.Context) ([]content.BlogPost, error)
	CreatePost(ctx context.Context, p *content.BlogPost) error
	ListChatSessions(ctx context.Context) ([]content.ChatSession, error)
	CreateChatSession(ctx context.Context, cs *content.ChatSession) error
	AppendChatMessage(ctx context.Context, sessionID uint, msg *content.ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID uint) ([]content.ChatMessage, error)
	ListWorkEntries(ctx context.Context) ([]content.WorkEntry, error)
	CreateWorkEntry(ctx context.Context, w *content.WorkEntry) error
}

// ContentHandler serves the public site endpoints and the admin content
// management endpoints over one [ContentStore].
type ContentHandler struct {
	engine *backoffice.Engine
	store  ContentStore
	logger *slog.Logger
}

// NewContentHandler creates a [ContentHandler].
func NewContentHandler(engine *backoffice.Engine, store ContentStore, logger *slog.Logger) *ContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentHandler{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes binds every back-office route onto the gin engine. Public
// reads and intake endpoints are open; mutation and staff-only reads sit
// behind the admin gate.
func (h *ContentHandler) RegisterRoutes(router *gin.Engine, auth *AuthHandler) {
	api := router.Group("/api")
	{
		api.POST("/contacts", h.CreateContact)
		api.GET("/testimonials", h.ListTestimonials)
		api.GET("/projects", h.ListCaseStudies)
		api.GET("/team", h.ListTeamMembers)
		api.GET("/posts", h.ListPosts)
		api.POST("/newsletter", h.Subscribe)
		api.POST("/chats", h.CreateChatSession)

		api.POST("/auth/login", auth.Login)
		api.POST("/auth/logout", auth.Logout)
		api.GET("/auth/session", auth.Session)
		api.POST("/auth/session", auth.Touch)
	}

	guarded := router.Group("/api", middleware.AdminGuard(h.engine))
	{
		guarded.GET("/contacts", h.ListContacts)
		guarded.POST("/testimonials", h.CreateTestimonial)
		guarded.POST("/projects", h.CreateCaseStudy)
		guarded.PUT("/projects/:id", h.UpdateCaseStudy)
		guarded.DELETE("/projects/:id", h.DeleteCaseStudy)
		guarded.POST("/team", h.CreateTeamMember)
		guarded.PUT("/team/:id", h.UpdateTeamMember)
		guarded.DELETE("/team/:id", h.DeleteTeamMember)
		guarded.POST("/posts", h.CreatePost)
		guarded.GET("/chats", h.ListChatSessions)
		guarded.GET("/chats/:id/messages", h.ListChatMessages)
		guarded.POST("/chats/:id/messages", h.AppendChatMessage)
		guarded.GET("/work-entries", h.ListWorkEntries)
		guarded.POST("/work-entries", h.CreateWorkEntry)

		guarded.POST("/admin/change-password", h.ChangePassword)
		guarded.GET("/admin/dashboard", h.Dashboard)
	}
}

/* ==== PUBLIC INTAKE ==== */

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Company string `json:"company"`
	Message string `json:"message" binding:"required"`
}

// CreateContact handles POST /api/contacts.
func (h *ContentHandler) CreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name, email, and message required")
		return
	}

	row := content.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Message: req.Message,
	}
	if err := h.store.CreateContact(c.Request.Context(), &row); err != nil {
		h.logger.Error("contact create failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}

	respondData(c, http.StatusCreated, row)
}

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Subscribe handles POST /api/newsletter. Re-subscribing is idempotent.
func (h *ContentHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "a valid email is required")
		return
	}

	if err := h.store.Subscribe(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("newsletter subscribe failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{"subscribed": true})
}

type chatRequest struct {
	VisitorID string `json:"visitor_id" binding:"required"`
	Topic     string `json:"topic"`
	Message   string `json:"message" binding:"required"`
}

// CreateChatSession handles POST /api/chats: opens a session seeded with
// the visitor's first message.
func (h *ContentHandler) CreateChatSession(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "visitor_id and message required")
		return
	}

	sess := content.ChatSession{
		VisitorID: req.VisitorID,
		Topic:     req.Topic,
		Messages: []content.ChatMessage{
			{Sender: "visitor", Body: req.Message},
		},
	}
	if err := h.store.CreateChatSession(c.Request.Context(), &sess); err != nil {
		h.logger.Error("chat session create failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}

	respondData(c, http.StatusCreated, sess)
}

/* ==== PUBLIC READS ==== */

// ListTestimonials handles GET /api/testimonials.
func (h *ContentHandler) ListTestimonials(c *gin.Context) {
	rows, err := h.store.ListTestimonials(c.Request.Context())
	if err != nil {
		h.logger.Error("testimonial list failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

// ListCaseStudies handles GET /api/projects.
func (h *ContentHandler) ListCaseStudies(c *gin.Context) {
	rows, err := h.store.ListCaseStudies(c.Request.Context())
	if err != nil {
		h.logger.Error("case study list failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

// ListTeamMembers handles GET /api/team.
func (h *ContentHandler) ListTeamMembers(c *gin.Context) {
	rows, err := h.store.ListTeamMembers(c.Request.Context())
	if err != nil {
		h.logger.Error("team list failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

// ListPosts handles GET /api/posts.
func (h *ContentHandler) ListPosts(c *gin.Context) {
	rows, err := h.store.ListPosts(c.Request.Context())
	if err != nil {
		h.logger.Error("post list failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

/* ==== ADMIN CONTENT ==== */

// ListContacts handles GET /api/contacts (admin).
func (h *ContentHandler) ListContacts(c *gin.Context) {
	rows, err := h.store.ListContacts(c.Request.Context())
	if err != nil {
		h.logger.Error("contact list failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

// CreateTestimonial handles POST /api/testimonials (admin).
func (h *ContentHandler) CreateTestimonial(c *gin.Context) {
	var row content.Testimonial
	if err := c.ShouldBindJSON(&row); err != nil {
		respondError(c, http.StatusBadRequest, "invalid testimonial payload")
		return
	}
	if row.Author == "" || row.Quote == "" {
		respondError(c, http.StatusBadRequest, "author and quote required")
		return
	}

	if err := h.store.CreateTestimonial(c.Request.Context(), &row); err != nil {
		h.logger.Error("testimonial create failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusCreated, row)
}

// CreateCaseStudy handles POST /api/projects (admin).
func (h *ContentHandler) CreateCaseStudy(c *gin.Context) {
	var row content.CaseStudy
	if err := c.ShouldBindJSON(&row); err != nil {
		respondError(c, http.StatusBadRequest, "invalid project payload")
		return
	}
	if row.Title == "" || row.Slug == "" {
		respondError(c, http.StatusBadRequest, "title and slug required")
		return
	}

	if err := h.store.CreateCaseStudy(c.Request.Context(), &row); err != nil {
		h.logger.Error("case study create failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusCreated, row)
}

// UpdateCaseStudy handles PUT /api/projects/:id (admin).
func (h *ContentHandler) UpdateCaseStudy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row content.CaseStudy
	if err := c.ShouldBindJSON(&row); err != nil {
		respondError(c, http.StatusBadRequest, "invalid project payload")
		return
	}

	if err := h.store.UpdateCaseStudy(c.Request.Context(), id, &row); err != nil {
		h.logger.Error("case study update failed", "id", id, "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"updated": true})
}

// DeleteCaseStudy handles DELETE /api/projects/:id (admin).
func (h *ContentHandler) DeleteCaseStudy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteCaseStudy(c.Request.Context(), id); err != nil {
		h.logger.Error("case study delete failed", "id", id, "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// CreateTeamMember handles POST /api/team (admin).
func (h *ContentHandler) CreateTeamMember(c *gin.Context) {
	var row content.TeamMember
	if err := c.ShouldBindJSON(&row); err != nil {
		respondError(c, http.StatusBadRequest, "invalid team member payload")
		return
	}
	if row.Name == "" {
		respondError(c, http.StatusBadRequest, "name required")
		return
	}

	if err := h.store.CreateTeamMember(c.Request.Context(), &row); err != nil {
		h.logger.Error("team member create failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusCreated, row)
}

// UpdateTeamMember handles PUT /api/team/:id (admin).
func (h *ContentHandler) UpdateTeamMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row content.TeamMember
	if err := c.ShouldBindJSON(&row); err != nil {
		respondError(c, http.StatusBadRequest, "invalid team member payload")
		return
	}

	if err := h.store.UpdateTeamMember(c.Request.Context(), id, &row); err != nil {
		h.logger.Error("team member update failed", "id", id, "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"updated": true})
}

// DeleteTeamMember handles DELETE /api/team/:id (admin).
func (h *ContentHandler) DeleteTeamMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteTeamMember(c.Request.Context(), id); err != nil {
		h.logger.Error("team member delete failed", "id", id, "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

type postRequest struct {
	Title   string `json:"title" binding:"required"`
	Slug    string `json:"slug" binding:"required"`
	Excerpt string `json:"excerpt"`
	Body    string `json:"body"`
	Publish bool   `json:"publish"`
}

// CreatePost handles POST /api/posts (admin).
func (h *ContentHandler) CreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "title and slug required")
		return
	}

	row := content.BlogPost{
		Title:   req.Title,
		Slug:    req.Slug,
		Excerpt: req.Excerpt,
		Body:    req.Body,
	}
	if req.Publish {
		now := time.Now().UTC()
		row.PublishedAt = &now
	}

	if err := h.store.CreatePost(c.Request.Context(), &row); err != nil {
		h.logger.Error("post create failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusCreated, row)
}

// ListChatSessions handles GET /api/chats (admin).
func (h *ContentHandler) ListChatSessions(c *gin.Context) {
	rows, err := h.store.ListChatSessions(c.Request.Context())
	if err != nil {
		h.logger.Error("chat list failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

// ListChatMessages handles GET /api/chats/:id/messages (admin). Unknown
// session ids get a 404.
func (h *ContentHandler) ListChatMessages(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rows, err := h.store.ListChatMessages(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("chat message list failed", "id", id, "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

type chatMessageRequest struct {
	Sender string `json:"sender" binding:"required"`
	Body   string `json:"body" binding:"required"`
}

// AppendChatMessage handles POST /api/chats/:id/messages (admin).
func (h *ContentHandler) AppendChatMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "sender and body required")
		return
	}

	msg := content.ChatMessage{Sender: req.Sender, Body: req.Body}
	if err := h.store.AppendChatMessage(c.Request.Context(), id, &msg); err != nil {
		h.logger.Error("chat message append failed", "id", id, "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusCreated, msg)
}

// ListWorkEntries handles GET /api/work-entries (admin).
func (h *ContentHandler) ListWorkEntries(c *gin.Context) {
	rows, err := h.store.ListWorkEntries(c.Request.Context())
	if err != nil {
		h.logger.Error("work entry list failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

type workEntryRequest struct {
	CaseStudyID *uint  `json:"case_study_id"`
	Description string `json:"description" binding:"required"`
	Hours       string `json:"hours"`
	Amount      string `json:"amount" binding:"required"`
	InvoicedAt  string `json:"invoiced_at"`
}

// CreateWorkEntry handles POST /api/work-entries (admin). Amounts arrive
// as decimal strings so currency never round-trips through float64.
func (h *ContentHandler) CreateWorkEntry(c *gin.Context) {
	var req workEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "description and amount required")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		respondError(c, http.StatusBadRequest, "amount must be a non-negative decimal")
		return
	}

	hours := decimal.Zero
	if req.Hours != "" {
		hours, err = decimal.NewFromString(req.Hours)
		if err != nil || hours.IsNegative() {
			respondError(c, http.StatusBadRequest, "hours must be a non-negative decimal")
			return
		}
	}

	row := content.WorkEntry{
		CaseStudyID: req.CaseStudyID,
		Description: req.Description,
		Hours:       hours,
		Amount:      amount,
	}
	if req.InvoicedAt != "" {
		invoicedAt, err := time.Parse(time.RFC3339, req.InvoicedAt)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invoiced_at must be RFC 3339")
			return
		}
		row.InvoicedAt = &invoicedAt
	}

	if err := h.store.CreateWorkEntry(c.Request.Context(), &row); err != nil {
		h.logger.Error("work entry create failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}
	respondData(c, http.StatusCreated, row)
}

/* ==== ADMIN ACCOUNT + DASHBOARD ==== */

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword handles POST /api/admin/change-password. A successful
// change revokes every session the staff member holds, this one included,
// so the client must log in again.
func (h *ContentHandler) ChangePassword(c *gin.Context) {
	res, ok := middleware.AuthResultFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "old_password and new_password required")
		return
	}

	ctx := backoffice.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.ChangePassword(ctx, res.StaffID, req.OldPassword, req.NewPassword); err != nil {
		h.logger.Info("password change rejected", "staff_id", res.StaffID, "reason", err.Error())
		respondEngineError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"changed": true})
}

// Dashboard handles GET /api/admin/dashboard. A degraded report still
// returns 200; the Degraded list tells the UI which figures were zeroed.
func (h *ContentHandler) Dashboard(c *gin.Context) {
	report, err := h.engine.LoadDashboard(c.Request.Context())
	if err != nil {
		h.logger.Error("dashboard load failed", "error", err.Error())
		respondEngineError(c, err)
		return
	}

	respondData(c, http.StatusOK, report)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}
