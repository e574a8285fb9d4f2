package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	backoffice "github.com/brightpixel/backoffice"
)

// Store wraps the gorm handle. One Store serves both the engine (staff and
// role lookups) and the HTTP layer (content CRUD and dashboard reads).
type Store struct {
	db *gorm.DB
}

// NewStore creates a [Store] over an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every back-office table.
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&StaffMember{},
		&Contact{},
		&Testimonial{},
		&CaseStudy{},
		&TeamMember{},
		&BlogPost{},
		&NewsletterSubscriber{},
		&ChatSession{},
		&ChatMessage{},
		&WorkEntry{},
	)
}

// SeedSuperAdmin ensures a super-admin account exists for the given email
// and returns its staff ID. An existing account is left untouched, hash
// included, so restarts never reset credentials.
func (s *Store) SeedSuperAdmin(ctx context.Context, email, displayName, passwordHash string) (string, error) {
	var existing StaffMember
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return existing.StaffID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	staff := StaffMember{
		StaffID:      uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		IsSuperAdmin: true,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&staff).Error; err != nil {
		return "", err
	}
	return staff.StaffID, nil
}

/* ==== STAFF PROVIDER ==== */

// GetStaffByEmail implements backoffice.StaffProvider.
func (s *Store) GetStaffByEmail(ctx context.Context, email string) (backoffice.StaffRecord, error) {
	var staff StaffMember
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return backoffice.StaffRecord{}, backoffice.ErrStaffNotFound
		}
		return backoffice.StaffRecord{}, err
	}
	return toStaffRecord(&staff), nil
}

// GetStaffByID implements backoffice.StaffProvider.
func (s *Store) GetStaffByID(ctx context.Context, staffID string) (backoffice.StaffRecord, error) {
	var staff StaffMember
	if err := s.db.WithContext(ctx).Where("staff_id = ?", staffID).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return backoffice.StaffRecord{}, backoffice.ErrStaffNotFound
		}
		return backoffice.StaffRecord{}, err
	}
	return toStaffRecord(&staff), nil
}

// GetRole implements backoffice.StaffProvider.
func (s *Store) GetRole(ctx context.Context, staffID string) (backoffice.RoleRecord, error) {
	var staff StaffMember
	if err := s.db.WithContext(ctx).Where("staff_id = ?", staffID).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return backoffice.RoleRecord{}, backoffice.ErrStaffNotFound
		}
		return backoffice.RoleRecord{}, err
	}
	return backoffice.RoleRecord{
		IsSuperAdmin: staff.IsSuperAdmin,
		IsActive:     staff.IsActive,
	}, nil
}

// UpdatePasswordHash implements backoffice.StaffProvider.
func (s *Store) UpdatePasswordHash(ctx context.Context, staffID, newHash string) error {
	result := s.db.WithContext(ctx).
		Model(&StaffMember{}).
		Where("staff_id = ?", staffID).
		Update("password_hash", newHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return backoffice.ErrStaffNotFound
	}
	return nil
}

func toStaffRecord(m *StaffMember) backoffice.StaffRecord {
	status := backoffice.StaffActive
	if !m.IsActive {
		status = backoffice.StaffInactive
	}
	return backoffice.StaffRecord{
		StaffID:      m.StaffID,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		IsSuperAdmin: m.IsSuperAdmin,
		Status:       status,
	}
}

/* ==== DASHBOARD SOURCE ==== */

// ContactCount implements backoffice.DashboardSource (essential read).
func (s *Store) ContactCount(ctx context.Context) (int64, error) {
	return s.count(ctx, &Contact{})
}

// CaseStudyCount implements backoffice.DashboardSource (essential read).
func (s *Store) CaseStudyCount(ctx context.Context) (int64, error) {
	return s.count(ctx, &CaseStudy{})
}

// TestimonialCount implements backoffice.DashboardSource (optional read).
func (s *Store) TestimonialCount(ctx context.Context) (int64, error) {
	return s.count(ctx, &Testimonial{})
}

// TeamMemberCount implements backoffice.DashboardSource (optional read).
func (s *Store) TeamMemberCount(ctx context.Context) (int64, error) {
	return s.count(ctx, &TeamMember{})
}

// PublishedPostCount implements backoffice.DashboardSource (optional read).
func (s *Store) PublishedPostCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&BlogPost{}).
		Where("published_at IS NOT NULL").
		Count(&n).Error
	return n, err
}

// SubscriberCount implements backoffice.DashboardSource (optional read).
func (s *Store) SubscriberCount(ctx context.Context) (int64, error) {
	return s.count(ctx, &NewsletterSubscriber{})
}

// QuarterRevenue implements backoffice.DashboardSource (optional read): the
// sum of work-entry amounts invoiced since the start of the current
// calendar quarter.
func (s *Store) QuarterRevenue(ctx context.Context) (decimal.Decimal, error) {
	quarterStart := quarterStart(time.Now().UTC())

	var row struct {
		Total decimal.Decimal
	}
	err := s.db.WithContext(ctx).
		Model(&WorkEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("invoiced_at >= ?", quarterStart).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func quarterStart(now time.Time) time.Time {
	quarterMonth := time.Month(((int(now.Month())-1)/3)*3 + 1)
	return time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
}

func (s *Store) count(ctx context.Context, model interface{}) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(model).Count(&n).Error
	return n, err
}

/* ==== CONTENT CRUD ==== */

// ErrNotFound is returned for lookups of content rows that do not exist.
var ErrNotFound = errors.New("content not found")

// ListContacts returns contacts newest-first.
func (s *Store) ListContacts(ctx context.Context) ([]Contact, error) {
	var rows []Contact
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// CreateContact stores an inbound contact-form submission.
func (s *Store) CreateContact(ctx context.Context, c *Contact) error {
	return s.db.WithContext(ctx).Create(c).Error
}

// ListTestimonials returns testimonials newest-first.
func (s *Store) ListTestimonials(ctx context.Context) ([]Testimonial, error) {
	var rows []Testimonial
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// CreateTestimonial stores a testimonial.
func (s *Store) CreateTestimonial(ctx context.Context, t *Testimonial) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// ListCaseStudies returns case studies newest-first.
func (s *Store) ListCaseStudies(ctx context.Context) ([]CaseStudy, error) {
	var rows []CaseStudy
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// CreateCaseStudy stores a case study.
func (s *Store) CreateCaseStudy(ctx context.Context, cs *CaseStudy) error {
	return s.db.WithContext(ctx).Create(cs).Error
}

// UpdateCaseStudy overwrites the mutable fields of an existing case study.
func (s *Store) UpdateCaseStudy(ctx context.Context, id uint, cs *CaseStudy) error {
	result := s.db.WithContext(ctx).
		Model(&CaseStudy{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":     cs.Title,
			"slug":      cs.Slug,
			"client":    cs.Client,
			"summary":   cs.Summary,
			"body":      cs.Body,
			"cover_url": cs.CoverURL,
			"featured":  cs.Featured,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCaseStudy soft-deletes a case study.
func (s *Store) DeleteCaseStudy(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&CaseStudy{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTeamMembers returns team members by sort order.
func (s *Store) ListTeamMembers(ctx context.Context) ([]TeamMember, error) {
	var rows []TeamMember
	err := s.db.WithContext(ctx).Order("sort_order ASC, created_at ASC").Find(&rows).Error
	return rows, err
}

// CreateTeamMember stores a team member profile.
func (s *Store) CreateTeamMember(ctx context.Context, tm *TeamMember) error {
	return s.db.WithContext(ctx).Create(tm).Error
}

// UpdateTeamMember overwrites the mutable fields of an existing profile.
func (s *Store) UpdateTeamMember(ctx context.Context, id uint, tm *TeamMember) error {
	result := s.db.WithContext(ctx).
		Model(&TeamMember{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       tm.Name,
			"role":       tm.Role,
			"bio":        tm.Bio,
			"avatar_url": tm.AvatarURL,
			"sort_order": tm.SortOrder,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTeamMember soft-deletes a team member profile.
func (s *Store) DeleteTeamMember(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&TeamMember{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPosts returns blog posts newest-first, drafts included.
func (s *Store) ListPosts(ctx context.Context) ([]BlogPost, error) {
	var rows []BlogPost
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// CreatePost stores a blog post.
func (s *Store) CreatePost(ctx context.Context, p *BlogPost) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// Subscribe adds a newsletter subscriber. Subscribing an address that is
// already on the list is a no-op, not an error.
func (s *Store) Subscribe(ctx context.Context, email string) error {
	sub := NewsletterSubscriber{Email: email}
	err := s.db.WithContext(ctx).Create(&sub).Error
	if err != nil && isDuplicateKey(err) {
		return nil
	}
	return err
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// ListChatSessions returns chat sessions newest-first with their messages.
func (s *Store) ListChatSessions(ctx context.Context) ([]ChatSession, error) {
	var rows []ChatSession
	err := s.db.WithContext(ctx).
		Preload("Messages").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// CreateChatSession stores a chat session together with any seed messages.
func (s *Store) CreateChatSession(ctx context.Context, cs *ChatSession) error {
	return s.db.WithContext(ctx).Create(cs).Error
}

// AppendChatMessage adds a message to an existing session.
func (s *Store) AppendChatMessage(ctx context.Context, sessionID uint, msg *ChatMessage) error {
	var sess ChatSession
	if err := s.db.WithContext(ctx).First(&sess, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	msg.ChatSessionID = sess.ID
	return s.db.WithContext(ctx).Create(msg).Error
}

// ListChatMessages returns the messages of one session oldest-first.
// Unknown session ids return [ErrNotFound].
func (s *Store) ListChatMessages(ctx context.Context, sessionID uint) ([]ChatMessage, error) {
	var sess ChatSession
	if err := s.db.WithContext(ctx).First(&sess, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rows []ChatMessage
	err := s.db.WithContext(ctx).
		Where("chat_session_id = ?", sess.ID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListWorkEntries returns work entries newest-first.
func (s *Store) ListWorkEntries(ctx context.Context) ([]WorkEntry, error) {
	var rows []WorkEntry
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// CreateWorkEntry stores a billable work entry.
func (s *Store) CreateWorkEntry(ctx context.Context, w *WorkEntry) error {
	if w.Amount.IsNegative() {
		return fmt.Errorf("work entry amount cannot be negative")
	}
	return s.db.WithContext(ctx).Create(w).Error
}
