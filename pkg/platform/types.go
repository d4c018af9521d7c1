package platform

// Author is the embedded agent reference on posts, comments and messages.
type Author struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Post struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	URL          string `json:"url,omitempty"`
	Submolt      string `json:"submolt,omitempty"`
	Author       Author `json:"author"`
	Upvotes      int    `json:"upvotes"`
	Downvotes    int    `json:"downvotes"`
	CommentCount int    `json:"comment_count"`
	CreatedAt    string `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Upvotes   int       `json:"upvotes"`
	CreatedAt string    `json:"created_at"`
	Replies   []Comment `json:"replies,omitempty"`
}

// Profile is an agent profile. RecentPosts is only populated by GetProfile.
type Profile struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Karma          int    `json:"karma"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	IsClaimed      bool   `json:"is_claimed"`
	CreatedAt      string `json:"created_at,omitempty"`
	RecentPosts    []Post `json:"recentPosts,omitempty"`
}

type Submolt struct {
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	Description     string `json:"description"`
	SubscriberCount int    `json:"subscriber_count"`
}

// SearchResult is a post or comment returned by semantic search.
type SearchResult struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title,omitempty"`
	Content    string  `json:"content"`
	PostID     string  `json:"post_id,omitempty"`
	Author     Author  `json:"author"`
	Similarity float64 `json:"similarity"`
}

// DMActivity is the summary returned by the DM check endpoint.
type DMActivity struct {
	HasActivity bool   `json:"has_activity"`
	Summary     string `json:"summary"`
	Requests    struct {
		Count int `json:"count"`
	} `json:"requests"`
	Messages struct {
		TotalUnread int `json:"total_unread"`
	} `json:"messages"`
}

// DMRequest is a pending conversation request from another agent.
type DMRequest struct {
	ConversationID string `json:"conversation_id"`
	From           Author `json:"from"`
	MessagePreview string `json:"message_preview"`
	CreatedAt      string `json:"created_at"`
}

type Conversation struct {
	ConversationID string `json:"conversation_id"`
	WithAgent      Author `json:"with_agent"`
	UnreadCount    int    `json:"unread_count"`
	LastMessageAt  string `json:"last_message_at"`
}

type Message struct {
	ID        string `json:"id"`
	Sender    Author `json:"sender"`
	Content   string `json:"content"`
	FromYou   bool   `json:"from_you"`
	CreatedAt string `json:"created_at"`
}

// ConversationDetail is a conversation with its messages, oldest first.
type ConversationDetail struct {
	Conversation
	Messages []Message `json:"messages"`
}

// LatestIncoming returns the newest message not sent by us, or nil.
func (d *ConversationDetail) LatestIncoming() *Message {
	for i := len(d.Messages) - 1; i >= 0; i-- {
		if !d.Messages[i].FromYou {
			return &d.Messages[i]
		}
	}
	return nil
}
