package model

type User struct {
	ID                        int64   `json:"id" db:"id"`
	Email                     string  `json:"email" db:"email"`
	Username                  string  `json:"username" db:"username"`
	PasswordHash              string  `json:"-" db:"password_hash"`
	IsAdmin                   bool    `json:"isAdmin" db:"is_admin"`
	IsVip                     bool    `json:"isVip" db:"is_vip"`
	VipExpirationDate         *Time   `json:"vipExpirationDate" db:"vip_expiration_date"`
	IsDisabled                bool    `json:"isDisabled" db:"is_disabled"`
	StripeSubscriptionID      *string `json:"stripeSubscriptionId,omitempty" db:"stripe_subscription_id"`
	PasswordResetTokenHash    *string `json:"-" db:"password_reset_token_hash"`
	PasswordResetTokenExpires *int64  `json:"-" db:"password_reset_token_expires_at"`
	CreatedAt                 Time    `json:"createdAt" db:"created_at"`
	UpdatedAt                 Time    `json:"updatedAt" db:"updated_at"`
}

// Reaction is a per-user emoji counter on one content record.
type Reaction struct {
	ID          int64  `json:"id" db:"id"`
	ContentID   int64  `json:"contentId" db:"content_id"`
	ContentType string `json:"contentType" db:"content_type"`
	UserID      int64  `json:"userId" db:"user_id"`
	Emoji       string `json:"emoji" db:"emoji"`
	Count       int64  `json:"count" db:"count"`
	CreatedAt   Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   Time   `json:"updatedAt" db:"updated_at"`
}

type ReactionCount struct {
	Emoji string `json:"emoji" db:"emoji"`
	Count int64  `json:"count" db:"count"`
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Recommendation struct {
	ID          int64  `json:"id" db:"id"`
	UserID      int64  `json:"userId" db:"user_id"`
	Name        string `json:"name" db:"name"`
	Link        string `json:"link" db:"link"`
	Description string `json:"description" db:"description"`
	Status      string `json:"status" db:"status"`
	CreatedAt   Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   Time   `json:"updatedAt" db:"updated_at"`
}

// Request is a user-submitted content request. Status starts as pending and
// is otherwise free-form.
type Request struct {
	ID          int64  `json:"id" db:"id"`
	UserID      int64  `json:"userId" db:"user_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Status      string `json:"status" db:"status"`
	CreatedAt   Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   Time   `json:"updatedAt" db:"updated_at"`
}
