// Package backfill converges stored subscription and user rows onto the
// canonical tier and feature-bundle model. Every step is safe to re-run.
package backfill

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigbook-backend/internal/subscriptions"
	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
	"github.com/angelmondragon/gigbook-backend/pkg/metrics"
)

const defaultBatchSize = 200

// Step names, in execution order.
const (
	StepUserDefaults     = "user_default_tier"
	StepMirrorActiveTier = "mirror_active_tier"
	StepTierFromPlan     = "tier_from_plan"
	StepActiveFlag       = "active_flag"
	StepMissingFeatures  = "missing_features"
	StepProFeatures      = "pro_features"
	StepPremiumFeatures  = "premium_features"
	StepLegacyBasicToPro = "legacy_basic_to_pro"
)

const (
	legacyBasic            = string(enums.SubscriptionTierBasic)
	subscriptionStatusLive = enums.SubscriptionStatusActive
)

// StepResult reports how many rows a step selected, wrote and failed to write.
type StepResult struct {
	Name     string `json:"name"`
	Matched  int64  `json:"matched"`
	Modified int64  `json:"modified"`
	Failed   int64  `json:"failed"`
}

// Report is the outcome of a full run.
type Report struct {
	DryRun bool         `json:"dryRun"`
	Steps  []StepResult `json:"steps"`
}

// Modified sums rows written across steps.
func (r Report) Modified() int64 {
	var total int64
	for _, step := range r.Steps {
		total += step.Modified
	}
	return total
}

// Options tune a run.
type Options struct {
	DryRun    bool
	BatchSize int
}

// Runner executes the backfill steps against one database.
type Runner struct {
	db      *gorm.DB
	logg    *logger.Logger
	metrics *metrics.BackfillMetrics
	opts    Options
}

// NewRunner builds a backfill runner.
func NewRunner(db *gorm.DB, logg *logger.Logger, m *metrics.BackfillMetrics, opts Options) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Runner{db: db, logg: logg, metrics: m, opts: opts}, nil
}

type step struct {
	name string
	run  func(ctx context.Context) (StepResult, error)
}

func (r *Runner) steps() []step {
	return []step{
		{StepUserDefaults, r.userDefaults},
		{StepMirrorActiveTier, r.mirrorActiveTier},
		{StepTierFromPlan, r.tierFromPlan},
		{StepActiveFlag, r.activeFlag},
		{StepMissingFeatures, r.missingFeatures},
		{StepProFeatures, r.bundleFor(StepProFeatures, enums.SubscriptionTierPro)},
		{StepPremiumFeatures, r.bundleFor(StepPremiumFeatures, enums.SubscriptionTierPremium)},
		{StepLegacyBasicToPro, r.legacyBasicToPro},
	}
}

// Run executes every step in order. Row-level failures are collected and
// returned after all steps finish; a step-level query failure stops the run.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{DryRun: r.opts.DryRun}
	var rowErrs error
	for _, s := range r.steps() {
		result, err := s.run(ctx)
		result.Name = s.name
		report.Steps = append(report.Steps, result)
		r.metrics.ObserveStep(s.name, result.Matched, result.Modified, result.Failed)
		r.logStep(ctx, result)
		if err == nil {
			continue
		}
		if result.Failed > 0 {
			rowErrs = multierr.Append(rowErrs, err)
			continue
		}
		return report, fmt.Errorf("backfill step %s: %w", s.name, err)
	}
	return report, rowErrs
}

func (r *Runner) logStep(ctx context.Context, result StepResult) {
	if r.logg == nil {
		return
	}
	ctx = r.logg.WithFields(ctx, map[string]any{
		"step":     result.Name,
		"matched":  result.Matched,
		"modified": result.Modified,
		"failed":   result.Failed,
		"dry_run":  r.opts.DryRun,
	})
	r.logg.Info(ctx, "backfill step complete")
}

// update counts rows matched by scope and, unless dry-running, applies values.
func (r *Runner) update(ctx context.Context, model any, values map[string]any, where string, args ...any) (StepResult, error) {
	var result StepResult
	if err := r.db.WithContext(ctx).Model(model).Where(where, args...).Count(&result.Matched).Error; err != nil {
		return result, err
	}
	if r.opts.DryRun || result.Matched == 0 {
		return result, nil
	}
	res := r.db.WithContext(ctx).Model(model).Where(where, args...).Updates(values)
	if res.Error != nil {
		return result, res.Error
	}
	result.Modified = res.RowsAffected
	return result, nil
}

func (r *Runner) userDefaults(ctx context.Context) (StepResult, error) {
	return r.update(ctx, &models.User{},
		map[string]any{
			"subscription_tier":       string(enums.SubscriptionTierFree),
			"has_active_subscription": false,
		},
		"(subscription_tier IS NULL OR subscription_tier = '')",
	)
}

// mirrorActiveTier pushes each active subscription's tier (or plan, or free)
// onto the linked user.
func (r *Runner) mirrorActiveTier(ctx context.Context) (StepResult, error) {
	var result StepResult
	var rowErrs error
	var batch []models.Subscription
	tx := r.db.WithContext(ctx).
		Where("status = ?", subscriptionStatusLive).
		FindInBatches(&batch, r.opts.BatchSize, func(_ *gorm.DB, _ int) error {
			for _, sub := range batch {
				tier := rawTier(sub.Tier, sub.Plan)
				drifted := r.db.WithContext(ctx).
					Model(&models.User{}).
					Where("id = ? AND (subscription_tier IS NULL OR subscription_tier <> ? OR has_active_subscription = ?)", sub.UserID, tier, false)
				var stale int64
				if err := drifted.Count(&stale).Error; err != nil {
					result.Failed++
					rowErrs = multierr.Append(rowErrs, fmt.Errorf("subscription %s: %w", sub.ID, err))
					continue
				}
				if stale == 0 {
					continue
				}
				result.Matched += stale
				if r.opts.DryRun {
					continue
				}
				res := r.db.WithContext(ctx).
					Model(&models.User{}).
					Where("id = ? AND (subscription_tier IS NULL OR subscription_tier <> ? OR has_active_subscription = ?)", sub.UserID, tier, false).
					Updates(map[string]any{
						"subscription_tier":       tier,
						"has_active_subscription": true,
					})
				if res.Error != nil {
					result.Failed++
					rowErrs = multierr.Append(rowErrs, fmt.Errorf("subscription %s: %w", sub.ID, res.Error))
					continue
				}
				result.Modified += res.RowsAffected
			}
			return nil
		})
	if tx.Error != nil {
		return result, tx.Error
	}
	return result, rowErrs
}

func (r *Runner) tierFromPlan(ctx context.Context) (StepResult, error) {
	withPlan, err := r.update(ctx, &models.Subscription{},
		map[string]any{"tier": gorm.Expr("plan")},
		"(tier IS NULL OR tier = '') AND plan IS NOT NULL AND plan <> ''",
	)
	if err != nil {
		return withPlan, err
	}
	withoutPlan, err := r.update(ctx, &models.Subscription{},
		map[string]any{"tier": string(enums.SubscriptionTierFree)},
		"(tier IS NULL OR tier = '') AND (plan IS NULL OR plan = '')",
	)
	return combine(withPlan, withoutPlan), err
}

func (r *Runner) activeFlag(ctx context.Context) (StepResult, error) {
	on, err := r.update(ctx, &models.Subscription{},
		map[string]any{"has_active_subscription": true},
		"status = ? AND has_active_subscription = ?", subscriptionStatusLive, false,
	)
	if err != nil {
		return on, err
	}
	off, err := r.update(ctx, &models.Subscription{},
		map[string]any{"has_active_subscription": false},
		"status <> ? AND has_active_subscription = ?", subscriptionStatusLive, true,
	)
	return combine(on, off), err
}

func (r *Runner) missingFeatures(ctx context.Context) (StepResult, error) {
	return r.update(ctx, &models.Subscription{},
		map[string]any{"features": subscriptions.FeaturesFor(enums.SubscriptionTierFree)},
		"features IS NULL",
	)
}

// bundleFor overwrites the stored bundle of every subscription on the tier
// whose bundle differs from the canonical one.
func (r *Runner) bundleFor(name string, tier enums.SubscriptionTier) func(context.Context) (StepResult, error) {
	want := subscriptions.FeaturesFor(tier)
	return func(ctx context.Context) (StepResult, error) {
		return r.scanSubscriptions(ctx, name, "tier = ?", []any{string(tier)}, func(sub *models.Subscription) map[string]any {
			if sub.Features != nil && *sub.Features == want {
				return nil
			}
			return map[string]any{"features": want}
		})
	}
}

// legacyBasicToPro rewrites the retired basic tier to pro on subscriptions
// and users, replacing the feature bundle to match.
func (r *Runner) legacyBasicToPro(ctx context.Context) (StepResult, error) {
	pro := string(enums.SubscriptionTierPro)
	subs, err := r.scanSubscriptions(ctx, StepLegacyBasicToPro, "(tier = ? OR plan = ?)", []any{legacyBasic, legacyBasic}, func(sub *models.Subscription) map[string]any {
		values := map[string]any{}
		tier, plan := sub.Tier, sub.Plan
		if tier != nil && strings.EqualFold(*tier, legacyBasic) {
			tier = &pro
			values["tier"] = pro
		}
		if plan != nil && strings.EqualFold(*plan, legacyBasic) {
			plan = &pro
			values["plan"] = pro
		}
		// The bundle follows the tier the row ends up on, not the retired plan.
		want := subscriptions.FeaturesFor(subscriptions.TierOf(tier, plan))
		if sub.Features == nil || *sub.Features != want {
			values["features"] = want
		}
		if len(values) == 0 {
			return nil
		}
		return values
	})
	if err != nil && subs.Failed == 0 {
		return subs, err
	}
	users, userErr := r.update(ctx, &models.User{},
		map[string]any{"subscription_tier": pro},
		"subscription_tier = ?", legacyBasic,
	)
	return combine(subs, users), multierr.Append(err, userErr)
}

// scanSubscriptions walks matching subscriptions in batches and writes the
// values returned by change. A nil change means the row already converged and
// is not counted as matched.
func (r *Runner) scanSubscriptions(ctx context.Context, name, where string, args []any, change func(*models.Subscription) map[string]any) (StepResult, error) {
	var result StepResult
	var rowErrs error
	var batch []models.Subscription
	tx := r.db.WithContext(ctx).
		Where(where, args...).
		FindInBatches(&batch, r.opts.BatchSize, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				sub := &batch[i]
				values := change(sub)
				if len(values) == 0 {
					continue
				}
				result.Matched++
				if r.opts.DryRun {
					continue
				}
				res := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", sub.ID).Updates(values)
				if res.Error != nil {
					result.Failed++
					rowErrs = multierr.Append(rowErrs, fmt.Errorf("%s: subscription %s: %w", name, sub.ID, res.Error))
					continue
				}
				result.Modified += res.RowsAffected
			}
			return nil
		})
	if tx.Error != nil {
		return result, tx.Error
	}
	return result, rowErrs
}

func rawTier(tier, plan *string) string {
	if tier != nil && strings.TrimSpace(*tier) != "" {
		return strings.TrimSpace(*tier)
	}
	if plan != nil && strings.TrimSpace(*plan) != "" {
		return strings.TrimSpace(*plan)
	}
	return string(enums.SubscriptionTierFree)
}

func combine(a, b StepResult) StepResult {
	return StepResult{
		Matched:  a.Matched + b.Matched,
		Modified: a.Modified + b.Modified,
		Failed:   a.Failed + b.Failed,
	}
}
