package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/questx-lab/rolebot/internal/common"
	"github.com/questx-lab/rolebot/internal/entity"
	"github.com/questx-lab/rolebot/internal/repository"
	"github.com/questx-lab/rolebot/pkg/api/discord"
	"github.com/questx-lab/rolebot/pkg/idutil"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"golang.org/x/exp/slices"
)

var errInvalidTrackedMessage = errors.New("tracked message id is invalid")

// A rate limited fetch waits for the reset, but never longer than this many
// retry delays.
const maxRateLimitedDelays = 3

type ReconcileDomain interface {
	Reconcile(ctx context.Context) error
}

type reconcileDomain struct {
	trackedMessageRepo repository.TrackedMessageRepository
	roleReactionRepo   repository.RoleReactionRepository
	discordEndpoint    discord.IEndpoint
}

func NewReconcileDomain(
	trackedMessageRepo repository.TrackedMessageRepository,
	roleReactionRepo repository.RoleReactionRepository,
	discordEndpoint discord.IEndpoint,
) *reconcileDomain {
	return &reconcileDomain{
		trackedMessageRepo: trackedMessageRepo,
		roleReactionRepo:   roleReactionRepo,
		discordEndpoint:    discordEndpoint,
	}
}

// Reconcile puts back every bound reaction the bot is missing on the tracked
// message. Reactions the bot already placed are left alone, so running it
// again is harmless.
func (d *reconcileDomain) Reconcile(ctx context.Context) error {
	start := time.Now()
	err := d.reconcile(ctx)

	status := "ok"
	if err != nil {
		status = "error"
	}
	common.PromHistograms[common.ReconcileDuration].
		WithLabelValues(status).Observe(time.Since(start).Seconds())

	return err
}

func (d *reconcileDomain) reconcile(ctx context.Context) error {
	logger := xcontext.Logger(ctx)

	tracked, err := d.trackedMessageRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrTrackedMessageNotFound) {
			logger.Infof("No tracked message, nothing to reconcile")
			return nil
		}

		return err
	}

	if !idutil.IsSnowflake(tracked.MessageID) {
		logger.Errorf("Tracked message id %q is not a snowflake", tracked.MessageID)
		return errInvalidTrackedMessage
	}

	if _, err := d.discordEndpoint.GetChannel(ctx, tracked.ChannelID); err != nil {
		logger.Errorf("Cannot get channel %s of tracked message: %v", tracked.ChannelID, err)
		return err
	}

	msg, err := d.fetchMessage(ctx, tracked)
	if err != nil {
		if discord.IsNotFound(err) {
			logger.Warnf("Tracked message %s does not exist anymore", tracked.MessageID)
		}
		logger.Errorf("Cannot fetch tracked message %s: %v", tracked.MessageID, err)
		return err
	}

	if postedAt, err := idutil.Timestamp(msg.ID); err == nil {
		logger.Debugf("Tracked message %s was posted at %s", msg.ID, postedAt.Format(time.RFC3339))
	}

	bindings, err := d.roleReactionRepo.GetByMessageID(ctx, msg.ID)
	if err != nil {
		logger.Errorf("Cannot get bindings of message %s: %v", msg.ID, err)
		return err
	}

	reacted := []string{}
	for _, r := range msg.Reactions {
		if r.Me {
			reacted = append(reacted, common.EmojiKeyFromEvent(r.Emoji))
		}
	}

	applied := 0
	for _, b := range bindings {
		if slices.Contains(reacted, b.Emoji) {
			continue
		}

		if err := d.discordEndpoint.AddReaction(ctx, tracked.ChannelID, msg.ID, b.Emoji); err != nil {
			logger.Errorf("Cannot react %s on message %s: %v", b.Emoji, msg.ID, err)
			continue
		}

		countReaction("reconcile")
		applied++
	}

	logger.Infof("Reconciled message %s: %d bindings, %d reactions applied", msg.ID, len(bindings), applied)
	return nil
}

// fetchMessage gets the tracked message, retrying a fixed number of times with
// a fixed delay. When Discord rate limits the call, the wait is extended up to
// the reset time, bounded by maxRateLimitedDelays delays.
func (d *reconcileDomain) fetchMessage(ctx context.Context, tracked *entity.TrackedMessage) (discord.Message, error) {
	cfg := xcontext.Configs(ctx).Reaction
	logger := xcontext.Logger(ctx)

	var lastErr error
	for attempt := 0; attempt <= cfg.FetchRetries; attempt++ {
		if attempt > 0 {
			wait := cfg.FetchRetryDelay
			if resetAt, ok := discord.IsRateLimit(lastErr); ok && time.Until(resetAt) > wait {
				wait = time.Until(resetAt)
				if limit := maxRateLimitedDelays * cfg.FetchRetryDelay; wait > limit {
					wait = limit
				}
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return discord.Message{}, ctx.Err()
			case <-timer.C:
			}
		}

		msg, err := d.discordEndpoint.GetMessage(ctx, tracked.ChannelID, tracked.MessageID)
		if err == nil {
			return msg, nil
		}

		lastErr = err
		logger.Warnf("Attempt %d to fetch message %s failed: %v", attempt+1, tracked.MessageID, err)
	}

	return discord.Message{}, fmt.Errorf("fetch message after %d attempts: %w", cfg.FetchRetries+1, lastErr)
}
