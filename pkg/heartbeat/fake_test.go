package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/UhthredB/tsaheylu-sub000/pkg/common"
	"github.com/UhthredB/tsaheylu-sub000/pkg/platform"
)

type commentCall struct {
	PostID   string
	Content  string
	ParentID string
}

type postCall struct {
	Submolt string
	Title   string
}

type dmCall struct {
	ConversationID string
	Message        string
}

// fakePlatform is an in-memory Platform. Errors are injected per method name.
type fakePlatform struct {
	mu   sync.Mutex
	name string

	suspended    bool
	suspendedFor time.Duration
	errs         map[string]error
	// errsOnce are returned by the next call only.
	errsOnce map[string]error

	dms           *platform.DMActivity
	requests      []platform.DMRequest
	conversations []platform.Conversation
	details       map[string]*platform.ConversationDetail
	profiles      map[string]*platform.Profile
	comments      map[string][]platform.Comment
	searchResults []platform.SearchResult
	feed          []platform.Post

	calls           []string
	posts           []postCall
	created         []commentCall
	upvotedPosts    []string
	upvotedComments []string
	approved        []string
	sent            []dmCall
	queries         []string
}

func newFakePlatform(name string) *fakePlatform {
	return &fakePlatform{
		name:     name,
		errs:     map[string]error{},
		errsOnce: map[string]error{},
		details:  map[string]*platform.ConversationDetail{},
		profiles: map[string]*platform.Profile{},
		comments: map[string][]platform.Comment{},
	}
}

func (f *fakePlatform) call(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if err, ok := f.errsOnce[name]; ok {
		delete(f.errsOnce, name)
		return err
	}
	return f.errs[name]
}

func (f *fakePlatform) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakePlatform) AgentName() string { return f.name }

func (f *fakePlatform) Suspended(ctx context.Context) (bool, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suspended, f.suspendedFor
}

func (f *fakePlatform) CanPost() error { return f.call("CanPost") }

func (f *fakePlatform) CanComment(ctx context.Context) error { return f.call("CanComment") }

func (f *fakePlatform) CreatePost(ctx context.Context, submolt, title, content string) (*platform.Post, error) {
	if err := f.call("CreatePost"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, postCall{Submolt: submolt, Title: title})
	return &platform.Post{ID: "p-new", Title: title, Content: content}, nil
}

func (f *fakePlatform) CreateComment(ctx context.Context, postID, content, parentID string) (*platform.Comment, error) {
	if err := f.call("CreateComment"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, commentCall{PostID: postID, Content: content, ParentID: parentID})
	return &platform.Comment{ID: "c-new", Content: content}, nil
}

func (f *fakePlatform) GetComments(ctx context.Context, postID, sort string) ([]platform.Comment, error) {
	if err := f.call("GetComments"); err != nil {
		return nil, err
	}
	return f.comments[postID], nil
}

func (f *fakePlatform) UpvotePost(ctx context.Context, postID string) error {
	if err := f.call("UpvotePost"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upvotedPosts = append(f.upvotedPosts, postID)
	return nil
}

func (f *fakePlatform) UpvoteComment(ctx context.Context, commentID string) error {
	if err := f.call("UpvoteComment"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upvotedComments = append(f.upvotedComments, commentID)
	return nil
}

func (f *fakePlatform) Search(ctx context.Context, query string, limit int) ([]platform.SearchResult, error) {
	if err := f.call("Search"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.searchResults, nil
}

func (f *fakePlatform) GetFeed(ctx context.Context, sort string, limit int) ([]platform.Post, error) {
	if err := f.call("GetFeed"); err != nil {
		return nil, err
	}
	return f.feed, nil
}

func (f *fakePlatform) GetProfile(ctx context.Context, name string) (*platform.Profile, error) {
	if err := f.call("GetProfile"); err != nil {
		return nil, err
	}
	if p, ok := f.profiles[name]; ok {
		return p, nil
	}
	return &platform.Profile{Name: name}, nil
}

func (f *fakePlatform) CheckDMs(ctx context.Context) (*platform.DMActivity, error) {
	if err := f.call("CheckDMs"); err != nil {
		return nil, err
	}
	if f.dms == nil {
		return &platform.DMActivity{}, nil
	}
	return f.dms, nil
}

func (f *fakePlatform) ListDMRequests(ctx context.Context) ([]platform.DMRequest, error) {
	if err := f.call("ListDMRequests"); err != nil {
		return nil, err
	}
	return f.requests, nil
}

func (f *fakePlatform) ApproveDMRequest(ctx context.Context, conversationID string) error {
	if err := f.call("ApproveDMRequest"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, conversationID)
	return nil
}

func (f *fakePlatform) ListConversations(ctx context.Context) ([]platform.Conversation, error) {
	if err := f.call("ListConversations"); err != nil {
		return nil, err
	}
	return f.conversations, nil
}

func (f *fakePlatform) GetConversation(ctx context.Context, conversationID string) (*platform.ConversationDetail, error) {
	if err := f.call("GetConversation"); err != nil {
		return nil, err
	}
	if d, ok := f.details[conversationID]; ok {
		return d, nil
	}
	return &platform.ConversationDetail{}, nil
}

func (f *fakePlatform) SendDM(ctx context.Context, conversationID, message string) error {
	if err := f.call("SendDM"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, dmCall{ConversationID: conversationID, Message: message})
	return nil
}

var _ Platform = (*fakePlatform)(nil)

func newTestScope() *common.Scope {
	return common.NewScope(context.Background(), "test")
}
