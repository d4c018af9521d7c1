package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
	"github.com/UhthredB/tsaheylu-sub000/pkg/challenge"
	"github.com/UhthredB/tsaheylu-sub000/pkg/metrics"
)

// Challenge outcomes reported to metrics.
const (
	outcomeDetected = "detected"
	outcomeUnsolved = "unsolved"
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeSkipped  = "skipped"
)

// inspect scans a decoded body and, on a hit, solves and submits once.
func (c *Client) inspect(ctx context.Context, payload interface{}) {
	if payload == nil || c.detector == nil {
		return
	}
	ch := c.detector.Detect(payload)
	if ch == nil {
		return
	}

	metrics.ChallengesTotal.WithLabelValues(outcomeDetected).Inc()
	c.audit.Record(ctx, audit.Event{
		Type:          audit.ChallengeDetected,
		ChallengeID:   ch.ID,
		ChallengeType: string(ch.Type),
		Detail:        ch.MatchedKey,
	})
	logrus.Infof("verification challenge detected: %s", ch)

	answer, err := c.solver.Solve(ctx, ch)
	if err != nil {
		metrics.ChallengesTotal.WithLabelValues(outcomeUnsolved).Inc()
		c.audit.Record(ctx, audit.Event{Type: audit.ChallengeUnsolved, ChallengeID: ch.ID, ChallengeType: string(ch.Type)})
		logrus.Warnf("no answer for challenge %q, not submitting", ch.ID)
		return
	}
	c.audit.Record(ctx, audit.Event{
		Type:          audit.ChallengeSolved,
		ChallengeID:   ch.ID,
		ChallengeType: string(ch.Type),
		Method:        string(answer.Method),
	})

	if err := c.submitVerification(ctx, ch, answer); err != nil {
		logrus.Warnf("challenge %q submission failed: %v", ch.ID, err)
	}
}

// VerificationRequest is the body posted to the verify endpoint. Only the id
// field the platform used is sent.
func VerificationRequest(ch *challenge.Challenge, answer challenge.Answer) map[string]string {
	body := map[string]string{"solution": answer.Value}
	if ch.ID != "" {
		if ch.IDField == "challengeId" {
			body["challengeId"] = ch.ID
		} else {
			body["challenge_id"] = ch.ID
		}
	}
	return body
}

// submitVerification posts the answer exactly once and never retries. The call
// counts against the request window but is not refused by it; it is refused
// while suspended. The verify response is not scanned for challenges.
func (c *Client) submitVerification(ctx context.Context, ch *challenge.Challenge, answer challenge.Answer) error {
	if err := c.budget.SuspendedError(ctx); err != nil {
		metrics.ChallengesTotal.WithLabelValues(outcomeSkipped).Inc()
		return err
	}

	target := ch.VerifyURL
	if target == "" {
		target = c.cfg.VerifyPath
	}

	raw, err := c.send(ctx, http.MethodPost, c.resolve(target), VerificationRequest(ch, answer))
	if err != nil {
		c.rejected(ctx, ch, 0, err.Error())
		return err
	}

	if raw.status < 200 || raw.status >= 300 {
		if (raw.status == http.StatusUnauthorized || raw.status == http.StatusForbidden) &&
			budget.IsSuspensionText(string(raw.body)) {
			c.rejected(ctx, ch, raw.status, "suspended")
			return c.suspend(ctx, raw.body)
		}
		apiErr := newAPIError(raw.status, raw.body)
		c.rejected(ctx, ch, raw.status, apiErr.Body)
		return apiErr
	}

	if explicitFailure(raw.body) {
		c.rejected(ctx, ch, raw.status, errorMessage(raw.body))
		return errors.New("verification rejected: " + errorMessage(raw.body))
	}

	metrics.ChallengesTotal.WithLabelValues(outcomeAccepted).Inc()
	c.audit.Record(ctx, audit.Event{
		Type:          audit.ChallengeSubmitted,
		ChallengeID:   ch.ID,
		ChallengeType: string(ch.Type),
		Method:        string(answer.Method),
		StatusCode:    raw.status,
	})
	logrus.Infof("challenge %q answered via %s", ch.ID, answer.Method)

	return nil
}

func (c *Client) rejected(ctx context.Context, ch *challenge.Challenge, status int, detail string) {
	metrics.ChallengesTotal.WithLabelValues(outcomeRejected).Inc()
	c.audit.Record(ctx, audit.Event{
		Type:          audit.ChallengeRejected,
		ChallengeID:   ch.ID,
		ChallengeType: string(ch.Type),
		StatusCode:    status,
		Detail:        detail,
	})
}

// explicitFailure reports a 2xx body carrying success:false or verified:false.
func explicitFailure(body []byte) bool {
	var marker struct {
		Success  *bool `json:"success"`
		Verified *bool `json:"verified"`
	}
	if err := json.Unmarshal(body, &marker); err != nil {
		return false
	}
	return (marker.Success != nil && !*marker.Success) || (marker.Verified != nil && !*marker.Verified)
}
