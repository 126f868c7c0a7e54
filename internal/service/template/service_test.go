package template

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/engine"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/formula"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/lookup"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/testutil"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/validation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newService(t *testing.T, store domain.TemplateStore) *Service {
	t.Helper()
	reg := lookup.NewRegistry()
	require.NoError(t, reg.Register("channels", []string{"search", "social", "email"}))

	eng := engine.New(reg, formula.NewRuntime(), discardLogger())
	return NewService(eng, validation.NewPolicyRegistry(), store, discardLogger())
}

func adsTemplate(id string) *domain.Template {
	return &domain.Template{
		ID:       id,
		DataType: "campaign_performance",
		Rules: []domain.GenerationRule{
			{Field: "channel", Method: domain.MethodLookupTable, Params: domain.RuleParams{
				LookupTable: "channels",
			}},
			{Field: "spend", Method: domain.MethodStatistical, Params: domain.RuleParams{
				Distribution: domain.DistributionNormal, Mean: 2500, StdDev: 1200,
			}},
			{Field: "conversions", Method: domain.MethodFormula, Params: domain.RuleParams{
				Formula: "spend / 25.0", Dependencies: []string{"spend"},
			}},
		},
	}
}

// countingReloader records schedule reload notifications.
type countingReloader struct {
	calls int
}

func (r *countingReloader) Reload(context.Context) error {
	r.calls++
	return nil
}

func TestRegister_CompilesAndPublishes(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	require.NoError(t, svc.Register(context.Background(), adsTemplate("ads")))

	compiled, err := svc.Resolve("ads")
	require.NoError(t, err)
	assert.NotNil(t, compiled.Plan)
	assert.NotNil(t, compiled.Checker)
	assert.False(t, compiled.Plan.Cyclic)

	got, err := svc.Get(context.Background(), "ads")
	require.NoError(t, err)
	assert.Equal(t, "ads", got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestRegister_InvalidTemplate(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	err := svc.Register(context.Background(), &domain.Template{ID: "broken"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.Resolve("broken")
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestRegister_LookupTablesBindLate(t *testing.T) {
	t.Parallel()

	// Lookup tables are resolved per record, not at registration, so a
	// template may reference a table that gets registered afterwards.
	svc := newService(t, nil)
	tmpl := &domain.Template{
		ID:       "late_lookup",
		DataType: "campaign_performance",
		Rules: []domain.GenerationRule{
			{Field: "region", Method: domain.MethodLookupTable, Params: domain.RuleParams{
				LookupTable: "regions",
			}},
		},
	}
	require.NoError(t, svc.Register(context.Background(), tmpl))

	_, err := svc.Resolve("late_lookup")
	require.NoError(t, err)
}

func TestRegister_BadFormula(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	tmpl := adsTemplate("bad_formula")
	tmpl.Rules[2].Params.Formula = "spend +* 2"
	err := svc.Register(context.Background(), tmpl)
	require.Error(t, err)

	_, err = svc.Resolve("bad_formula")
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestRegister_WritesThroughToStore(t *testing.T) {
	t.Parallel()

	store := &testutil.MockTemplateStore{}
	svc := newService(t, store)
	require.NoError(t, svc.Register(context.Background(), adsTemplate("ads")))

	require.Contains(t, store.Templates, "ads")

	require.NoError(t, svc.Delete(context.Background(), "ads"))
	assert.NotContains(t, store.Templates, "ads")
}

func TestRegister_StoreFailureAborts(t *testing.T) {
	t.Parallel()

	store := &testutil.MockTemplateStore{
		UpsertFn: func(context.Context, *domain.Template) error {
			return fmt.Errorf("disk full")
		},
	}
	svc := newService(t, store)
	err := svc.Register(context.Background(), adsTemplate("ads"))
	require.Error(t, err)

	// The registry must not publish a template the store rejected.
	_, err = svc.Resolve("ads")
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestRegister_OverwritesExisting(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	require.NoError(t, svc.Register(context.Background(), adsTemplate("ads")))

	updated := adsTemplate("ads")
	updated.Rules = updated.Rules[:2]
	require.NoError(t, svc.Register(context.Background(), updated))

	got, err := svc.Get(context.Background(), "ads")
	require.NoError(t, err)
	assert.Len(t, got.Rules, 2)
}

func TestRegister_CreatedByFromContext(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	ctx := domain.WithPrincipal(context.Background(), domain.ContextPrincipal{Name: "data_team", Type: "user"})
	require.NoError(t, svc.Register(ctx, adsTemplate("ads")))

	got, err := svc.Get(context.Background(), "ads")
	require.NoError(t, err)
	assert.Equal(t, "data_team", got.CreatedBy)
}

func TestRegister_KeepsExplicitCreatedBy(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	tmpl := adsTemplate("ads")
	tmpl.CreatedBy = "seed"
	ctx := domain.WithPrincipal(context.Background(), domain.ContextPrincipal{Name: "data_team", Type: "user"})
	require.NoError(t, svc.Register(ctx, tmpl))

	got, err := svc.Get(context.Background(), "ads")
	require.NoError(t, err)
	assert.Equal(t, "seed", got.CreatedBy)
}

func TestList_PagesInIDOrder(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	for _, id := range []string{"delta", "alpha", "echo", "bravo", "charlie"} {
		require.NoError(t, svc.Register(context.Background(), adsTemplate(id)))
	}

	var ids []string
	page := domain.PageRequest{MaxResults: 2}
	for {
		templates, next, err := svc.List(context.Background(), page)
		require.NoError(t, err)
		for _, tmpl := range templates {
			ids = append(ids, tmpl.ID)
		}
		if next == "" {
			break
		}
		page.PageToken = next
	}

	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta", "echo"}, ids)
}

func TestDelete_NotFound(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	err := svc.Delete(context.Background(), "missing")
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestScheduled_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)

	nightly := adsTemplate("nightly")
	nightly.BackfillCron = "0 2 * * *"
	hourlyish := adsTemplate("am_rollup")
	hourlyish.BackfillCron = "0 * * * *"
	adhoc := adsTemplate("adhoc")

	for _, tmpl := range []*domain.Template{nightly, hourlyish, adhoc} {
		require.NoError(t, svc.Register(context.Background(), tmpl))
	}

	scheduled := svc.Scheduled()
	require.Len(t, scheduled, 2)
	assert.Equal(t, "am_rollup", scheduled[0].ID)
	assert.Equal(t, "nightly", scheduled[1].ID)
}

func TestLoadFromStore_SkipsBroken(t *testing.T) {
	t.Parallel()

	good := adsTemplate("good")
	broken := adsTemplate("broken")
	broken.Rules[2].Params.Formula = "spend +* 2"

	store := &testutil.MockTemplateStore{
		Templates: map[string]*domain.Template{
			"good":   good,
			"broken": broken,
		},
	}
	svc := newService(t, store)
	require.NoError(t, svc.LoadFromStore(context.Background()))

	_, err := svc.Resolve("good")
	require.NoError(t, err)

	// A persisted template that no longer compiles is skipped, not fatal.
	_, err = svc.Resolve("broken")
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestReloaderNotifications(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	reloader := &countingReloader{}
	svc.SetScheduleReloader(reloader)

	require.NoError(t, svc.Register(context.Background(), adsTemplate("ads")))
	assert.Equal(t, 1, reloader.calls)

	require.NoError(t, svc.Delete(context.Background(), "ads"))
	assert.Equal(t, 2, reloader.calls)
}
