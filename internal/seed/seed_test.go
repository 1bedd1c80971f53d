package seed

import (
	"context"
	"testing"

	"tradehub/internal/auth"
	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/service"
	"tradehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallOptions() Options {
	opts := DefaultOptions()
	opts.Users = 6
	opts.Vouches = 8
	opts.Reports = 7
	opts.RandSeed = 42
	return opts
}

func TestSeedCreatesConsistentData(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	sum, err := Seed(ctx, db, smallOptions())
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 18, sum.Trades)
	assert.Equal(t, 12, sum.Posts)
	assert.Equal(t, 6, sum.Events)
	assert.Equal(t, 8, sum.Vouches)
	assert.GreaterOrEqual(t, sum.Reports, 7)

	var trades int64
	require.NoError(t, db.Model(&models.Trade{}).Count(&trades).Error)
	assert.Equal(t, int64(sum.Trades), trades)

	var admin models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).First(&admin).Error)
	assert.True(t, auth.CheckPassword(admin.Password, DefaultPassword))

	// Credibility was computed by the vouch path, not written blindly.
	var rated []models.User
	require.NoError(t, db.Where("vouch_count > 0").Find(&rated).Error)
	require.NotEmpty(t, rated)
	for _, user := range rated {
		var vouches []models.Vouch
		require.NoError(t, db.Where("target_id = ?", user.ID).Find(&vouches).Error)
		assert.Len(t, vouches, user.VouchCount)
		assert.True(t, user.CredibilityScore.IsPositive())
	}

	// No one reacts to or reports their own content.
	var selfReactions int64
	require.NoError(t, db.Table("reactions").
		Joins("JOIN trades ON trades.id = reactions.resource_id AND reactions.resource_type = ?", models.ResourceTrade).
		Where("trades.user_id = reactions.user_id").Count(&selfReactions).Error)
	assert.Zero(t, selfReactions)

	var selfReports int64
	require.NoError(t, db.Model(&models.Report{}).Where("reporter_id = reported_user_id").Count(&selfReports).Error)
	assert.Zero(t, selfReports)
}

func TestSeedUsernamesAreValid(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, err := Seed(context.Background(), db, smallOptions())
	require.NoError(t, err)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, user := range users {
		assert.LessOrEqual(t, len(user.Username), 32, user.Username)
		assert.GreaterOrEqual(t, len(user.Username), 3, user.Username)
	}
}

func TestSeedResetClearsPreviousRun(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, smallOptions())
	require.NoError(t, err)

	opts := smallOptions()
	opts.Reset = true
	opts.RandSeed = 7
	sum, err := Seed(ctx, db, opts)
	require.NoError(t, err)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(sum.Users), users)

	var trades int64
	require.NoError(t, db.Unscoped().Model(&models.Trade{}).Count(&trades).Error)
	assert.Equal(t, int64(sum.Trades), trades)
}

func TestCredibilityMatchesServiceRounding(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, err := Seed(context.Background(), db, smallOptions())
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Where("vouch_count > 0").First(&user).Error)

	var sum struct{ Total int64 }
	require.NoError(t, db.Model(&models.Vouch{}).Select("SUM(rating) AS total").
		Where("target_id = ?", user.ID).Scan(&sum).Error)
	want := service.Credibility(repository.VouchStats{Count: int64(user.VouchCount), Sum: sum.Total})
	assert.True(t, want.Equal(user.CredibilityScore), "want %s got %s", want, user.CredibilityScore)
}
