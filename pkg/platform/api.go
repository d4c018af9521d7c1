package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/pkg/metrics"
)

// CanPost checks the post cooldown without any network call.
func (c *Client) CanPost() error {
	return c.budget.CheckPost()
}

// CanComment checks the comment cooldown and daily cap without any network call.
func (c *Client) CanComment(ctx context.Context) error {
	return c.budget.CheckComment(ctx)
}

// CreatePost publishes a post. It fails fast with a cooldown error when the
// post cooldown has not elapsed.
func (c *Client) CreatePost(ctx context.Context, submolt, title, content string) (*Post, error) {
	if err := c.budget.CheckPost(); err != nil {
		return nil, err
	}

	resp, err := c.Request(ctx, http.MethodPost, "/posts", map[string]string{
		"submolt": submolt,
		"title":   title,
		"content": content,
	})
	if err != nil {
		return nil, err
	}
	c.budget.RecordPost()

	var post Post
	if err := decodeField(resp, "post", &post); err != nil {
		logrus.Warnf("post accepted but response unreadable: %v", err)
	}
	return &post, nil
}

func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID), nil)
	if err != nil {
		return nil, err
	}
	var post Post
	if err := decodeField(resp, "post", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	_, err := c.Request(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), nil)
	return err
}

func (c *Client) PinPost(ctx context.Context, postID string) error {
	_, err := c.Request(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/pin", nil)
	return err
}

func (c *Client) UnpinPost(ctx context.Context, postID string) error {
	_, err := c.Request(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID)+"/pin", nil)
	return err
}

// CreateComment comments on a post, or replies to parentID when set. The
// daily counter is incremented and persisted as soon as the platform accepts
// the comment.
func (c *Client) CreateComment(ctx context.Context, postID, content, parentID string) (*Comment, error) {
	if err := c.budget.CheckComment(ctx); err != nil {
		return nil, err
	}

	body := map[string]string{"content": content}
	if parentID != "" {
		body["parent_id"] = parentID
	}
	resp, err := c.Request(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", body)
	if err != nil {
		return nil, err
	}

	if err := c.budget.RecordComment(ctx); err != nil {
		return nil, fmt.Errorf("comment posted but daily counter not persisted: %w", err)
	}
	metrics.DailyComments.Set(float64(c.budget.DailyComments()))

	var comment Comment
	if err := decodeField(resp, "comment", &comment); err != nil {
		logrus.Warnf("comment on %s accepted but response unreadable: %v", postID, err)
	}
	return &comment, nil
}

func (c *Client) GetComments(ctx context.Context, postID, sort string) ([]Comment, error) {
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	if sort != "" {
		path += "?" + url.Values{"sort": {sort}}.Encode()
	}
	resp, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var comments []Comment
	if err := decodeField(resp, "comments", &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) UpvotePost(ctx context.Context, postID string) error {
	_, err := c.Request(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/upvote", nil)
	return err
}

func (c *Client) UpvoteComment(ctx context.Context, commentID string) error {
	_, err := c.Request(ctx, http.MethodPost, "/comments/"+url.PathEscape(commentID)+"/upvote", nil)
	return err
}

// Search runs a semantic search over posts and comments.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	resp, err := c.Request(ctx, http.MethodGet, "/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var results []SearchResult
	if err := decodeField(resp, "results", &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) GetFeed(ctx context.Context, sort string, limit int) ([]Post, error) {
	q := url.Values{}
	if sort != "" {
		q.Set("sort", sort)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/feed"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	resp, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var posts []Post
	if err := decodeField(resp, "posts", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) ListSubmolts(ctx context.Context) ([]Submolt, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/submolts", nil)
	if err != nil {
		return nil, err
	}
	var submolts []Submolt
	if err := decodeField(resp, "submolts", &submolts); err != nil {
		return nil, err
	}
	return submolts, nil
}

func (c *Client) Subscribe(ctx context.Context, submolt string) error {
	_, err := c.Request(ctx, http.MethodPost, "/submolts/"+url.PathEscape(submolt)+"/subscribe", nil)
	return err
}

// GetMe returns our own profile including recent posts when the platform includes them.
func (c *Client) GetMe(ctx context.Context) (*Profile, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/agents/me", nil)
	if err != nil {
		return nil, err
	}
	return decodeProfile(resp)
}

// GetProfile returns another agent's profile with its recent posts.
func (c *Client) GetProfile(ctx context.Context, name string) (*Profile, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/agents/profile?"+url.Values{"name": {name}}.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodeProfile(resp)
}

func (c *Client) UpdateProfile(ctx context.Context, description string) error {
	_, err := c.Request(ctx, http.MethodPatch, "/agents/me", map[string]string{"description": description})
	return err
}

func (c *Client) CheckDMs(ctx context.Context) (*DMActivity, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/agents/dm/check", nil)
	if err != nil {
		return nil, err
	}
	var activity DMActivity
	if err := resp.Decode(&activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (c *Client) ListDMRequests(ctx context.Context) ([]DMRequest, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/agents/dm/requests", nil)
	if err != nil {
		return nil, err
	}
	var requests []DMRequest
	if err := decodeField(resp, "requests", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *Client) ApproveDMRequest(ctx context.Context, conversationID string) error {
	_, err := c.Request(ctx, http.MethodPost, "/agents/dm/requests/"+url.PathEscape(conversationID)+"/approve", nil)
	return err
}

func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/agents/dm/conversations", nil)
	if err != nil {
		return nil, err
	}
	var conversations []Conversation
	if err := decodeField(resp, "conversations", &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (*ConversationDetail, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/agents/dm/conversations/"+url.PathEscape(conversationID), nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Conversation *Conversation `json:"conversation"`
		Messages     []Message     `json:"messages"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, err
	}

	detail := &ConversationDetail{Messages: envelope.Messages}
	if envelope.Conversation != nil {
		detail.Conversation = *envelope.Conversation
	} else if err := resp.Decode(&detail.Conversation); err != nil {
		return nil, err
	}
	if detail.ConversationID == "" {
		detail.ConversationID = conversationID
	}
	return detail, nil
}

func (c *Client) SendDM(ctx context.Context, conversationID, message string) error {
	_, err := c.Request(ctx, http.MethodPost, "/agents/dm/conversations/"+url.PathEscape(conversationID)+"/send",
		map[string]string{"message": message})
	return err
}

// RequestDM asks another agent to open a conversation.
func (c *Client) RequestDM(ctx context.Context, to, message string) error {
	_, err := c.Request(ctx, http.MethodPost, "/agents/dm/request", map[string]string{"to": to, "message": message})
	return err
}

func decodeProfile(resp *Response) (*Profile, error) {
	var profile Profile
	if err := decodeField(resp, "agent", &profile); err != nil {
		return nil, err
	}
	if len(profile.RecentPosts) == 0 {
		var posts []Post
		if err := decodeField(resp, "recentPosts", &posts); err == nil {
			profile.RecentPosts = posts
		}
	}
	return &profile, nil
}

// decodeField unmarshals body[key] into v, or the whole body when the
// envelope has no such key.
func decodeField(resp *Response, key string, v interface{}) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &envelope); err == nil {
		if raw, ok := envelope[key]; ok {
			return json.Unmarshal(raw, v)
		}
	}
	return resp.Decode(v)
}
