package db

import (
	"time"

	"gorm.io/datatypes"
)

// Poll lifecycle. Transitions are monotonic: draft -> active -> closed.
const (
	PollStatusDraft  = "draft"
	PollStatusActive = "active"
	PollStatusClosed = "closed"
)

const (
	RoleVoter      = "voter"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

const (
	IssueStatusSubmitted   = "submitted"
	IssueStatusUnderReview = "under review"
	IssueStatusInProgress  = "in progress"
	IssueStatusResolved    = "resolved"
	IssueStatusRejected    = "rejected"
)

type County struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:64;uniqueIndex;not null"`
	Code      string    `gorm:"size:8;not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}

type Constituency struct {
	ID        uint      `gorm:"primaryKey"`
	CountyID  uint      `gorm:"not null;uniqueIndex:idx_constituencies_county_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_constituencies_county_name"`
	CreatedAt time.Time `gorm:"not null"`
}

type Ward struct {
	ID             uint      `gorm:"primaryKey"`
	ConstituencyID uint      `gorm:"not null;uniqueIndex:idx_wards_constituency_name"`
	Name           string    `gorm:"size:64;not null;uniqueIndex:idx_wards_constituency_name"`
	CreatedAt      time.Time `gorm:"not null"`
}

// Position is an elective seat (Governor, Senator, MP, MCA...).
type Position struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:64;uniqueIndex;not null"`
	Level     string    `gorm:"size:32;not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}

type Party struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"size:128;uniqueIndex;not null"`
	Abbreviation string    `gorm:"size:16;not null;default:''"`
	CreatedAt    time.Time `gorm:"not null"`
}

// User accounts are keyed by phone number and never hard-deleted.
type User struct {
	ID             uint      `gorm:"primaryKey"`
	PhoneNumber    string    `gorm:"size:20;uniqueIndex;not null"`
	PasswordHash   string    `gorm:"size:80;not null"`
	FullName       string    `gorm:"size:128;not null"`
	Role           string    `gorm:"size:20;not null;default:voter"`
	Status         string    `gorm:"size:20;not null;default:active"`
	AgeGroup       string    `gorm:"size:16;not null;default:''"`
	Gender         string    `gorm:"size:24;not null;default:''"`
	CountyID       *uint     `gorm:"index"`
	ConstituencyID *uint     `gorm:"index"`
	WardID         *uint     `gorm:"index"`
	PhoneVerified  bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type Candidate struct {
	ID                 uint      `gorm:"primaryKey"`
	Name               string    `gorm:"size:128;not null"`
	PositionID         uint      `gorm:"index;not null"`
	PartyID            *uint     `gorm:"index"`
	CountyID           *uint     `gorm:"index"`
	ConstituencyID     *uint     `gorm:"index"`
	WardID             *uint     `gorm:"index"`
	Age                *int      ``
	Gender             string    `gorm:"size:24;not null;default:''"`
	Bio                string    `gorm:"type:text;not null;default:''"`
	CampaignSlogan     string    `gorm:"size:280;not null;default:''"`
	RegistrationStatus string    `gorm:"size:20;not null;default:pending"`
	VerificationStatus string    `gorm:"size:20;not null;default:unverified"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

type Poll struct {
	ID             uint      `gorm:"primaryKey"`
	Title          string    `gorm:"size:200;not null"`
	Description    string    `gorm:"type:text;not null;default:''"`
	PositionID     uint      `gorm:"index;not null"`
	CountyID       *uint     `gorm:"index"`
	ConstituencyID *uint     `gorm:"index"`
	WardID         *uint     `gorm:"index"`
	StartDate      time.Time `gorm:"not null"`
	EndDate        time.Time `gorm:"index;not null"`
	Status         string    `gorm:"size:16;index;not null;default:draft"`
	CreatedBy      uint      `gorm:"index;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type PollCandidate struct {
	ID           uint      `gorm:"primaryKey"`
	PollID       uint      `gorm:"index;not null;uniqueIndex:idx_poll_candidates_poll_candidate"`
	CandidateID  uint      `gorm:"index;not null;uniqueIndex:idx_poll_candidates_poll_candidate"`
	DisplayOrder int       `gorm:"not null;default:0"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
}

// PollResponse is one vote. The (poll_id, user_id) unique index is the
// system's central integrity rule; concurrent duplicate votes resolve to a
// single row here rather than in handler code.
type PollResponse struct {
	ID             uint      `gorm:"primaryKey"`
	PollID         uint      `gorm:"index;not null;uniqueIndex:idx_poll_responses_poll_user"`
	UserID         uint      `gorm:"index;not null;uniqueIndex:idx_poll_responses_poll_user"`
	CandidateID    uint      `gorm:"index;not null"`
	ResponseMethod string    `gorm:"size:16;not null;default:web"`
	CreatedAt      time.Time `gorm:"not null"`
}

type IssueCategory struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:64;uniqueIndex;not null"`
	Description string    `gorm:"size:255;not null;default:''"`
	Icon        string    `gorm:"size:16;not null;default:''"`
	CreatedAt   time.Time `gorm:"not null"`
}

type Issue struct {
	ID                  uint       `gorm:"primaryKey"`
	Title               string     `gorm:"size:200;not null"`
	Description         string     `gorm:"type:text;not null"`
	CategoryID          uint       `gorm:"index;not null"`
	UserID              *uint      `gorm:"index"`
	LocationDescription string     `gorm:"size:200;not null;default:''"`
	IsAnonymous         bool       `gorm:"not null;default:false"`
	Status              string     `gorm:"size:20;index;not null;default:submitted"`
	Priority            string     `gorm:"size:10;not null;default:medium"`
	UpvotesCount        int        `gorm:"not null;default:0"`
	ViewsCount          int        `gorm:"not null;default:0"`
	CommentsCount       int        `gorm:"not null;default:0"`
	AdminResponse       string     `gorm:"type:text;not null;default:''"`
	AdminResponseBy     *uint      `gorm:"index"`
	AdminResponseAt     *time.Time ``
	ResolvedAt          *time.Time ``
	CreatedAt           time.Time  `gorm:"not null"`
	UpdatedAt           time.Time  `gorm:"not null"`
}

type IssueUpvote struct {
	ID        uint      `gorm:"primaryKey"`
	IssueID   uint      `gorm:"index;not null;uniqueIndex:idx_issue_upvotes_issue_user"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_issue_upvotes_issue_user"`
	CreatedAt time.Time `gorm:"not null"`
}

type IssueComment struct {
	ID          uint      `gorm:"primaryKey"`
	IssueID     uint      `gorm:"index;not null"`
	UserID      uint      `gorm:"index;not null"`
	CommentText string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// Event is an append-only audit row for poll lifecycle activity.
type Event struct {
	ID        uint           `gorm:"primaryKey"`
	PollID    *uint          `gorm:"index"`
	UserID    *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
