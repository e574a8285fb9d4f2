package content

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StaffMember is a back-office account. PasswordHash is a PHC-encoded
// argon2id string; IsSuperAdmin gates admin UI access.
type StaffMember struct {
	gorm.Model
	StaffID      string `gorm:"column:staff_id;type:varchar(36);uniqueIndex;not null"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	DisplayName  string `gorm:"column:display_name;type:varchar(100)"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	IsSuperAdmin bool   `gorm:"column:is_super_admin;default:false"`
	IsActive     bool   `gorm:"column:is_active;default:true"`
}

func (StaffMember) TableName() string { return "staff_members" }

// Contact is an inbound contact-form submission.
type Contact struct {
	gorm.Model
	Name    string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Email   string `gorm:"column:email;type:varchar(255);not null" json:"email"`
	Company string `gorm:"column:company;type:varchar(100)" json:"company"`
	Message string `gorm:"column:message;type:text;not null" json:"message"`
	Handled bool   `gorm:"column:handled;default:false" json:"handled"`
}

func (Contact) TableName() string { return "contacts" }

// Testimonial is a client quote shown on the public site.
type Testimonial struct {
	gorm.Model
	Author    string `gorm:"column:author;type:varchar(100);not null" json:"author"`
	Role      string `gorm:"column:role;type:varchar(100)" json:"role"`
	Company   string `gorm:"column:company;type:varchar(100)" json:"company"`
	Quote     string `gorm:"column:quote;type:text;not null" json:"quote"`
	Published bool   `gorm:"column:published;default:false" json:"published"`
}

func (Testimonial) TableName() string { return "testimonials" }

// CaseStudy is a portfolio project entry.
type CaseStudy struct {
	gorm.Model
	Title    string `gorm:"column:title;type:varchar(200);not null" json:"title"`
	Slug     string `gorm:"column:slug;type:varchar(200);uniqueIndex;not null" json:"slug"`
	Client   string `gorm:"column:client;type:varchar(100)" json:"client"`
	Summary  string `gorm:"column:summary;type:text" json:"summary"`
	Body     string `gorm:"column:body;type:longtext" json:"body"`
	CoverURL string `gorm:"column:cover_url;type:varchar(500)" json:"cover_url"`
	Featured bool   `gorm:"column:featured;default:false" json:"featured"`
}

func (CaseStudy) TableName() string { return "case_studies" }

// TeamMember is a staff profile shown on the public site.
type TeamMember struct {
	gorm.Model
	Name      string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Role      string `gorm:"column:role;type:varchar(100)" json:"role"`
	Bio       string `gorm:"column:bio;type:text" json:"bio"`
	AvatarURL string `gorm:"column:avatar_url;type:varchar(500)" json:"avatar_url"`
	SortOrder int    `gorm:"column:sort_order;default:0" json:"sort_order"`
}

func (TeamMember) TableName() string { return "team_members" }

// BlogPost is a site article. Published posts feed the dashboard count.
type BlogPost struct {
	gorm.Model
	Title       string     `gorm:"column:title;type:varchar(200);not null" json:"title"`
	Slug        string     `gorm:"column:slug;type:varchar(200);uniqueIndex;not null" json:"slug"`
	Excerpt     string     `gorm:"column:excerpt;type:text" json:"excerpt"`
	Body        string     `gorm:"column:body;type:longtext" json:"body"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at"`
}

func (BlogPost) TableName() string { return "blog_posts" }

// NewsletterSubscriber is a double-entry-free mailing list row; Email is
// unique so repeat subscriptions are idempotent.
type NewsletterSubscriber struct {
	gorm.Model
	Email string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
}

func (NewsletterSubscriber) TableName() string { return "newsletter_subscribers" }

// ChatSession groups the messages of one website-chat conversation.
type ChatSession struct {
	gorm.Model
	VisitorID string        `gorm:"column:visitor_id;type:varchar(64);index;not null" json:"visitor_id"`
	Topic     string        `gorm:"column:topic;type:varchar(200)" json:"topic"`
	Messages  []ChatMessage `gorm:"foreignKey:ChatSessionID" json:"messages,omitempty"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

// ChatMessage is one message inside a [ChatSession].
type ChatMessage struct {
	gorm.Model
	ChatSessionID uint   `gorm:"column:chat_session_id;index;not null" json:"chat_session_id"`
	Sender        string `gorm:"column:sender;type:varchar(20);not null" json:"sender"`
	Body          string `gorm:"column:body;type:text;not null" json:"body"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// WorkEntry is a billable line item; InvoicedAt places it in a revenue
// quarter for the dashboard aggregation.
type WorkEntry struct {
	gorm.Model
	CaseStudyID *uint           `gorm:"column:case_study_id;index" json:"case_study_id"`
	Description string          `gorm:"column:description;type:varchar(500);not null" json:"description"`
	Hours       decimal.Decimal `gorm:"column:hours;type:decimal(10,2);default:0" json:"hours"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(20,2);default:0" json:"amount"`
	InvoicedAt  *time.Time      `gorm:"column:invoiced_at;index" json:"invoiced_at"`
}

func (WorkEntry) TableName() string { return "work_entries" }
