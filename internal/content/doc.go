// Package content is the gorm/MySQL persistence layer for the back-office:
// staff accounts, site content (case studies, testimonials, team, posts),
// inbound contacts, newsletter subscribers, chat transcripts, and billable
// work entries.
//
// [Store] implements backoffice.StaffProvider and backoffice.DashboardSource
// so the engine never touches gorm directly.
package content
