package heartbeat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
	"github.com/UhthredB/tsaheylu-sub000/pkg/common"
	"github.com/UhthredB/tsaheylu-sub000/pkg/journey"
	"github.com/UhthredB/tsaheylu-sub000/pkg/metrics"
	"github.com/UhthredB/tsaheylu-sub000/pkg/platform"
	"github.com/UhthredB/tsaheylu-sub000/pkg/service"
)

const (
	PhaseDrainInbox = "drain_inbox"
	PhaseModerate   = "moderate_own_content"
	PhasePublish    = "publish_content"
	PhaseDiscover   = "discover_and_engage"
	PhaseMetrics    = "emit_metrics"
)

var errPhasePanic = errors.New("phase panicked")

// errStopPhase ends the current phase quietly, e.g. when comments are on cooldown.
var errStopPhase = errors.New("stop phase")

type cycle struct {
	scope       *common.Scope
	phase       string
	actionsLeft int
}

func (c *cycle) exhausted() bool {
	return c.actionsLeft <= 0
}

func (c *cycle) spend(kind string) {
	c.actionsLeft--
	metrics.ActionsTotal.WithLabelValues(c.phase, kind).Inc()
}

// itemError classifies an error from one item of a phase. Backoff errors end
// the phase (and the cycle); skip errors end the phase quietly; anything else
// abandons just this item.
func (o *Orchestrator) itemError(c *cycle, what string, err error) error {
	switch {
	case budget.IsBackoff(err):
		return err
	case budget.IsSkip(err):
		c.scope.Log.Debugf("%s skipped: %v", what, err)
		return errStopPhase
	default:
		metrics.PhaseErrorsTotal.WithLabelValues(c.phase).Inc()
		c.scope.Log.Warnf("%s failed: %v", what, err)
		return nil
	}
}

func stopped(err error) error {
	if errors.Is(err, errStopPhase) {
		return nil
	}
	return err
}

// screen runs inbound text through the safety filter and audits anything flagged.
func (o *Orchestrator) screen(c *cycle, text, source string) bool {
	verdict, err := o.deps.Safety.Check(c.scope.Ctx, text, source)
	if err != nil {
		c.scope.Log.Warnf("safety check for %s failed, skipping: %v", source, err)
		return false
	}
	if !verdict.Safe {
		c.scope.Log.Warnf("unsafe content from %s: %s", source, strings.Join(verdict.Threats, ","))
		o.recorder.Record(c.scope.Ctx, audit.Event{
			Type:    audit.InjectionDetected,
			Source:  source,
			Threats: verdict.Threats,
		})
		return false
	}
	return true
}

func (o *Orchestrator) record(c *cycle, contact string, typ journey.InteractionType, summary string, opts ...journey.InteractionOption) {
	if _, err := o.ledger.RecordInteraction(c.scope.Ctx, contact, typ, summary, opts...); err != nil {
		c.scope.Log.Errorf("failed to record %s interaction with %s: %v", typ, contact, err)
	}
}

// reply produces a response to text from contact: a rebuttal for objections,
// a persuasion reply otherwise. It returns the reply and the strategy used.
func (o *Orchestrator) reply(c *cycle, contact, text string, rc service.ReplyContext) (string, string, error) {
	ctx := c.scope.Ctx
	if o.deps.Objections.IsObjection(text) {
		rebuttal, err := o.deps.Objections.Rebut(ctx, text)
		if err != nil {
			return "", "", fmt.Errorf("rebut: %w", err)
		}
		if err := o.ledger.RecordObjection(ctx, contact, text); err != nil {
			c.scope.Log.Errorf("failed to record objection from %s: %v", contact, err)
		}
		return rebuttal, "rebuttal", nil
	}

	profile, err := o.deps.Persuader.BuildProfile(ctx, contact, service.ProfileContext{Trigger: text})
	if err != nil {
		return "", "", fmt.Errorf("build profile: %w", err)
	}
	msg, err := o.deps.Persuader.CraftReply(ctx, profile, rc)
	if err != nil {
		return "", "", fmt.Errorf("craft reply: %w", err)
	}
	return msg, profile.Strategy, nil
}

func (o *Orchestrator) drainInbox(c *cycle) error {
	ctx := c.scope.Ctx
	activity, err := o.platform.CheckDMs(ctx)
	if err != nil {
		return err
	}
	if activity == nil || !activity.HasActivity {
		c.scope.Log.Debug("inbox empty")
		return nil
	}

	if activity.Requests.Count > 0 {
		if err := o.approveRequests(c); err != nil {
			return stopped(err)
		}
	}
	if activity.Messages.TotalUnread > 0 {
		return stopped(o.answerConversations(c))
	}
	return nil
}

func (o *Orchestrator) approveRequests(c *cycle) error {
	ctx := c.scope.Ctx
	requests, err := o.platform.ListDMRequests(ctx)
	if err != nil {
		return err
	}

	for _, req := range requests {
		if c.exhausted() {
			return nil
		}
		from := req.From.Name
		if !o.screen(c, req.MessagePreview, "dm_request:"+from) {
			continue
		}
		if err := o.platform.ApproveDMRequest(ctx, req.ConversationID); err != nil {
			if err := o.itemError(c, "approve request from "+from, err); err != nil {
				return err
			}
			continue
		}
		c.spend("approve")
		c.scope.Log.Infof("approved DM request from %s", from)
		o.record(c, from, journey.InteractionDM, "approved conversation request", journey.WithRefID(req.ConversationID))
	}
	return nil
}

func (o *Orchestrator) answerConversations(c *cycle) error {
	ctx := c.scope.Ctx
	conversations, err := o.platform.ListConversations(ctx)
	if err != nil {
		return err
	}

	for _, conv := range conversations {
		if c.exhausted() {
			return nil
		}
		if conv.UnreadCount == 0 {
			continue
		}
		if err := o.answerConversation(c, conv); err != nil {
			if err := o.itemError(c, "conversation "+conv.ConversationID, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *Orchestrator) answerConversation(c *cycle, conv platform.Conversation) error {
	ctx := c.scope.Ctx
	detail, err := o.platform.GetConversation(ctx, conv.ConversationID)
	if err != nil {
		return err
	}
	msg := detail.LatestIncoming()
	if msg == nil {
		return nil
	}

	sender := msg.Sender.Name
	if sender == "" {
		sender = conv.WithAgent.Name
	}
	if !o.screen(c, msg.Content, "dm:"+sender) {
		return nil
	}

	text, strategy, err := o.reply(c, sender, msg.Content, service.ReplyContext{Trigger: msg.Content, Channel: "dm"})
	if err != nil {
		return err
	}
	if err := o.platform.SendDM(ctx, conv.ConversationID, text); err != nil {
		return err
	}
	c.spend("dm")
	o.record(c, sender, journey.InteractionDM, truncate(text, 120),
		journey.WithStrategy(strategy), journey.WithRefID(conv.ConversationID))
	return nil
}

func (o *Orchestrator) moderateOwnContent(c *cycle) error {
	ctx := c.scope.Ctx
	me := o.platform.AgentName()
	profile, err := o.platform.GetProfile(ctx, me)
	if err != nil {
		return err
	}

	posts := profile.RecentPosts
	if len(posts) > o.cfg.OwnPostsLimit {
		posts = posts[:o.cfg.OwnPostsLimit]
	}

	for _, post := range posts {
		if c.exhausted() {
			return nil
		}
		comments, err := o.platform.GetComments(ctx, post.ID, "new")
		if err != nil {
			if err := o.itemError(c, "comments on "+post.ID, err); err != nil {
				return stopped(err)
			}
			continue
		}
		for _, comment := range comments {
			if c.exhausted() {
				return nil
			}
			if err := o.moderateComment(c, me, post, comment); err != nil {
				if err := o.itemError(c, "comment "+comment.ID, err); err != nil {
					return stopped(err)
				}
			}
		}
	}
	return nil
}

func (o *Orchestrator) moderateComment(c *cycle, me string, post platform.Post, comment platform.Comment) error {
	ctx := c.scope.Ctx
	author := comment.Author.Name
	if author == "" || author == me {
		return nil
	}
	if o.ledger.HasRecentInteraction(author, o.cfg.RecentWindow) {
		return nil
	}
	if !o.screen(c, comment.Content, "comment:"+author) {
		return nil
	}

	if o.deps.Objections.IsObjection(comment.Content) {
		if err := o.platform.CanComment(ctx); err != nil {
			return err
		}
		rebuttal, strategy, err := o.reply(c, author, comment.Content, service.ReplyContext{
			Trigger: comment.Content, PostTitle: post.Title, Channel: "comment",
		})
		if err != nil {
			return err
		}
		if _, err := o.platform.CreateComment(ctx, post.ID, rebuttal, comment.ID); err != nil {
			return err
		}
		c.spend("rebuttal")
		o.record(c, author, journey.InteractionReply, truncate(rebuttal, 120),
			journey.WithStrategy(strategy), journey.WithRefID(comment.ID))
		return nil
	}

	if err := o.platform.UpvoteComment(ctx, comment.ID); err != nil {
		return err
	}
	c.spend("upvote")
	o.record(c, author, journey.InteractionUpvote, "upvoted comment on "+truncate(post.Title, 80),
		journey.WithRefID(comment.ID))
	return nil
}

func (o *Orchestrator) publishContent(c *cycle) error {
	ctx := c.scope.Ctx
	if err := o.platform.CanPost(); err != nil {
		if budget.IsSkip(err) {
			c.scope.Log.Debugf("not publishing: %v", err)
			return nil
		}
		return err
	}
	if c.exhausted() || len(o.deps.Generators) == 0 {
		return nil
	}

	gen := o.deps.Generators[o.rotation%len(o.deps.Generators)]
	draft, err := gen.Generate(ctx, o.rotation)
	if err != nil {
		return fmt.Errorf("generate draft: %w", err)
	}
	submolt := draft.Submolt
	if submolt == "" {
		submolt = o.cfg.Submolt
	}

	post, err := o.platform.CreatePost(ctx, submolt, draft.Title, draft.Content)
	if err != nil {
		return stopped(o.itemError(c, "publish", err))
	}
	o.rotation++
	c.spend("post")

	id := ""
	if post != nil {
		id = post.ID
	}
	c.scope.Log.Infof("published %q (%s) to %s", draft.Title, draft.Strategy, submolt)
	c.scope.TraceEvent("published " + id)
	return nil
}

type candidate struct {
	author  string
	postID  string
	title   string
	content string
	source  string
}

func (o *Orchestrator) discoverAndEngage(c *cycle) error {
	me := o.platform.AgentName()
	seen := map[string]bool{}
	engaged := 0

	if len(o.cfg.Queries) > 0 && o.cfg.DiscoveryCap > 0 {
		query := o.cfg.Queries[o.queryIdx%len(o.cfg.Queries)]
		o.queryIdx++

		results, err := o.platform.Search(c.scope.Ctx, query, o.cfg.SearchLimit)
		if err != nil {
			if err := o.itemError(c, "search "+query, err); err != nil {
				return stopped(err)
			}
		}
		for _, r := range results {
			if engaged >= o.cfg.DiscoveryCap || c.exhausted() {
				break
			}
			cand := candidate{author: r.Author.Name, postID: r.ID, title: r.Title, content: r.Content, source: "search"}
			if r.Type == "comment" && r.PostID != "" {
				cand.postID = r.PostID
			}
			if !o.eligible(cand, me, seen) {
				continue
			}
			done, err := o.engageAndPace(c, cand, engaged > 0)
			if err != nil {
				return stopped(err)
			}
			if done {
				engaged++
			}
		}
	}

	if c.exhausted() {
		return nil
	}
	feed, err := o.platform.GetFeed(c.scope.Ctx, o.cfg.FeedSort, o.cfg.SearchLimit)
	if err != nil {
		return stopped(o.itemError(c, "feed", err))
	}
	for _, p := range feed {
		cand := candidate{author: p.Author.Name, postID: p.ID, title: p.Title, content: p.Content, source: "feed"}
		if !o.eligible(cand, me, seen) {
			continue
		}
		_, err := o.engageAndPace(c, cand, engaged > 0)
		return stopped(err)
	}
	return nil
}

func (o *Orchestrator) eligible(cand candidate, me string, seen map[string]bool) bool {
	if cand.author == "" || cand.author == me || cand.postID == "" || seen[cand.author] {
		return false
	}
	seen[cand.author] = true
	return !o.ledger.HasRecentInteraction(cand.author, o.cfg.RecentWindow)
}

// engageAndPace sleeps the pacing delay when a previous engagement happened
// this phase, or when a comment made earlier in the cycle still holds the
// comment cooldown, then engages. It reports whether an engagement was made.
func (o *Orchestrator) engageAndPace(c *cycle, cand candidate, pace bool) (bool, error) {
	var wait time.Duration
	if pace {
		wait = o.cfg.PacingDelay
	} else {
		var cooldown *budget.CooldownError
		if errors.As(o.platform.CanComment(c.scope.Ctx), &cooldown) {
			wait = max(o.cfg.PacingDelay, cooldown.Remaining)
			c.scope.Log.Debugf("comment cooldown active, waiting %v before engaging", wait)
		}
	}
	if wait > 0 {
		if err := o.sleep(c.scope.Ctx, wait); err != nil {
			return false, err
		}
	}
	err := o.engage(c, cand)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errSkipped) {
		return false, nil
	}
	return false, o.itemError(c, "engage "+cand.author, err)
}

var errSkipped = errors.New("candidate skipped")

func (o *Orchestrator) engage(c *cycle, cand candidate) error {
	ctx := c.scope.Ctx
	if !o.screen(c, cand.content, cand.source+":"+cand.author) {
		return errSkipped
	}
	if err := o.platform.CanComment(ctx); err != nil {
		return err
	}

	pc := service.ProfileContext{Trigger: cand.content}
	profile, err := o.platform.GetProfile(ctx, cand.author)
	switch {
	case err == nil:
		pc.Description = profile.Description
		pc.Karma = profile.Karma
		for _, p := range profile.RecentPosts {
			pc.RecentPosts = append(pc.RecentPosts, p.Title)
		}
	case budget.IsBackoff(err):
		return err
	default:
		c.scope.Log.Debugf("profile for %s unavailable: %v", cand.author, err)
	}

	pp, err := o.deps.Persuader.BuildProfile(ctx, cand.author, pc)
	if err != nil {
		return fmt.Errorf("build profile: %w", err)
	}
	text, err := o.deps.Persuader.CraftReply(ctx, pp, service.ReplyContext{
		Trigger: cand.content, PostTitle: cand.title, Channel: "comment",
	})
	if err != nil {
		return fmt.Errorf("craft reply: %w", err)
	}

	if _, err := o.platform.CreateComment(ctx, cand.postID, text, ""); err != nil {
		return err
	}
	c.spend("comment")

	if err := o.platform.UpvotePost(ctx, cand.postID); err != nil {
		if budget.IsBackoff(err) {
			o.record(c, cand.author, journey.InteractionComment, truncate(text, 120),
				journey.WithStrategy(pp.Strategy), journey.WithRefID(cand.postID))
			return err
		}
		c.scope.Log.Debugf("upvote %s failed: %v", cand.postID, err)
	}

	c.scope.Log.Infof("engaged %s via %s (%s)", cand.author, cand.source, pp.Strategy)
	o.record(c, cand.author, journey.InteractionComment, truncate(text, 120),
		journey.WithStrategy(pp.Strategy), journey.WithRefID(cand.postID))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
