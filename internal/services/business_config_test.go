package services

import (
	"context"
	"os"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	apperrors "yalla-business/pkg/errors"
)

type fakeConfigRepo struct {
	repositories.BusinessConfigRepositoryInterface

	entries  []entities.ConfigEntry
	getAll   int
	inserted []entities.ConfigEntry
}

func (r *fakeConfigRepo) GetAll(context.Context) ([]entities.ConfigEntry, error) {
	r.getAll++
	return r.entries, nil
}

func (r *fakeConfigRepo) InsertMissing(_ context.Context, entries []entities.ConfigEntry) (int64, error) {
	r.inserted = entries
	return int64(len(entries)), nil
}

func TestNormalizeConfigValue(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		want     string
		wantCode string
	}{
		{key: entities.ConfigCutoffTime, value: "9:05", want: "09:05"},
		{key: entities.ConfigCutoffTime, value: "25:00", wantCode: CodeInvalidConfigValue},
		{key: entities.ConfigMinSubscriptionDays, value: " 10 ", want: "10"},
		{key: entities.ConfigMinSubscriptionDays, value: "0", wantCode: CodeInvalidConfigValue},
		{key: entities.ConfigMaxFreezesPerWeek, value: "8", wantCode: CodeInvalidConfigValue},
		{key: entities.ConfigAllowNegativeBalance, value: "TRUE", want: "true"},
		{key: entities.ConfigAllowNegativeBalance, value: "да", wantCode: CodeInvalidConfigValue},
		{key: entities.ConfigComboPrices, value: `{"Комбо 35": 350, "Комбо 25": 250}`, want: `{"Комбо 25":250,"Комбо 35":350}`},
		{key: entities.ConfigComboPrices, value: `{"Комбо 25": 0}`, wantCode: CodeInvalidConfigValue},
		{key: entities.ConfigComboPrices, value: `{}`, wantCode: CodeInvalidConfigValue},
		{key: entities.ConfigTimezone, value: "Asia/Bishkek", want: "Asia/Bishkek"},
		{key: entities.ConfigTimezone, value: "Mars/Olympus", wantCode: CodeInvalidConfigValue},
		{key: "delivery_fee", value: "100", wantCode: CodeUnknownConfigKey},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := NormalizeConfigValue(tt.key, tt.value)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	f, err := os.Open("../../config/business_defaults.yaml")
	require.NoError(t, err)
	defer f.Close()

	entries, err := LoadConfigDefaults(f)
	require.NoError(t, err)

	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Value
		assert.NotNil(t, e.Description, e.Key)
	}
	assert.Equal(t, "10:00", values[entities.ConfigCutoffTime])
	assert.Equal(t, "5", values[entities.ConfigMinSubscriptionDays])
	assert.Equal(t, "false", values[entities.ConfigAllowNegativeBalance])
	assert.JSONEq(t, `{"Комбо 25":250,"Комбо 35":350}`, values[entities.ConfigComboPrices])
}

func TestLoadConfigDefaults_RejectsBadValue(t *testing.T) {
	_, err := LoadConfigDefaults(strings.NewReader("max_freezes_per_week: много\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_freezes_per_week")
}

func TestBusinessConfigService_SettingsCached(t *testing.T) {
	repo := &fakeConfigRepo{entries: []entities.ConfigEntry{
		{Key: entities.ConfigMaxFreezesPerWeek, Value: "3"},
		{Key: entities.ConfigCutoffTime, Value: "сломано"},
	}}
	cache := newMemoryCache()
	svc := NewBusinessConfigService(repo, cache, nil, zap.NewNop())
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, settings.MaxFreezesPerWeek)
	// битое значение заменяется значением по умолчанию
	assert.Equal(t, "10:00", settings.CutoffTime)

	_, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getAll)

	require.NoError(t, svc.ClearCache(ctx))
	_, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.getAll)
}

func TestBusinessConfigService_EnsureDefaults(t *testing.T) {
	repo := &fakeConfigRepo{}
	svc := NewBusinessConfigService(repo, newMemoryCache(), nil, zap.NewNop())

	n, err := svc.EnsureDefaults(context.Background(), strings.NewReader("cutoff_time: \"11:00\"\nmin_subscription_days: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, repo.inserted, 2)
	assert.Equal(t, entities.ConfigCutoffTime, repo.inserted[0].Key)
	assert.Equal(t, "11:00", repo.inserted[0].Value)
}
