package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danglnh07/concord/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	env := newTestEnv(t)
	accountID, token := env.newAccount(t, db.User)

	recorder := env.request(t, http.MethodPost, "/api/profiles", token, gin.H{
		"username":     "Alice",
		"display_name": "Alice W",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	view := decode[ProfileView](t, recorder)
	require.Equal(t, "alice", view.Username, "usernames are stored lowercase")
	require.Equal(t, "Alice W", view.DisplayName)
	require.Equal(t, db.StatusOnline, view.Status)

	// The new profile is swept into the general conversation
	general, err := env.store.GetGeneralConversation()
	require.NoError(t, err)
	require.True(t, isParticipant(general, accountID))
}

func TestCreateProfileValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.newAccount(t, db.User)

	cases := []struct {
		name     string
		username string
	}{
		{"too short", "ab"},
		{"too long", "abcdefghijklmnopqrstu"},
		{"bad characters", "no spaces!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := env.request(t, http.MethodPost, "/api/profiles", token, gin.H{
				"username":     tc.username,
				"display_name": "X",
			})
			require.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestCreateProfileConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, "taken")
	_, token := env.newAccount(t, db.User)

	// Username collision, case-insensitive
	recorder := env.request(t, http.MethodPost, "/api/profiles", token, gin.H{
		"username":     "Taken",
		"display_name": "X",
	})
	require.Equal(t, http.StatusConflict, recorder.Code)

	// One profile per account
	recorder = env.request(t, http.MethodPost, "/api/profiles", token, gin.H{
		"username":     "fresh",
		"display_name": "X",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	recorder = env.request(t, http.MethodPost, "/api/profiles", token, gin.H{
		"username":     "fresh2",
		"display_name": "X",
	})
	require.Equal(t, http.StatusConflict, recorder.Code)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	accountID, token := env.newUser(t, "carol")

	recorder := env.request(t, http.MethodPatch, "/api/profiles/me", token, gin.H{
		"about_me": "hello",
		"status":   "dnd",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	profile, err := env.store.GetProfile(accountID)
	require.NoError(t, err)
	require.Equal(t, "hello", profile.AboutMe)
	require.Equal(t, db.StatusDnd, profile.Status)

	// Unknown status values are rejected
	recorder = env.request(t, http.MethodPatch, "/api/profiles/me", token, gin.H{
		"status": "invisible",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	accountID, token := env.newUser(t, "dave")

	// Fake a stale profile
	profile, err := env.store.GetProfile(accountID)
	require.NoError(t, err)
	profile.LastSeen = time.Now().Add(-time.Hour)
	profile.Status = db.StatusOffline
	require.NoError(t, env.store.UpdateProfile(profile))

	recorder := env.request(t, http.MethodPost, "/api/profiles/heartbeat", token, nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	profile, err = env.store.GetProfile(accountID)
	require.NoError(t, err)
	require.Equal(t, db.StatusOnline, profile.Status)
	require.WithinDuration(t, time.Now(), profile.LastSeen, 5*time.Second)
}

func TestHeartbeatRespectsDnd(t *testing.T) {
	env := newTestEnv(t)
	accountID, token := env.newUser(t, "erin")

	profile, err := env.store.GetProfile(accountID)
	require.NoError(t, err)
	profile.DoNotDisturb = true
	require.NoError(t, env.store.UpdateProfile(profile))

	recorder := env.request(t, http.MethodPost, "/api/profiles/heartbeat", token, nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	profile, err = env.store.GetProfile(accountID)
	require.NoError(t, err)
	require.Equal(t, db.StatusDnd, profile.Status)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	otherID, _ := env.newUser(t, "frank")
	_, token := env.newUser(t, "viewer")

	recorder := env.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d", otherID), token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	view := decode[ProfileView](t, recorder)
	require.Equal(t, "frank", view.Username)

	// Missing users come back as null rather than an error
	recorder = env.request(t, http.MethodGet, "/api/users/9999", token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "null", recorder.Body.String())
}

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, "grace_hopper")
	env.newUser(t, "graceless")
	env.newUser(t, "unrelated")
	_, token := env.newUser(t, "searcher")

	recorder := env.request(t, http.MethodGet, "/api/users?q=grace", token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	views := decode[[]ProfileView](t, recorder)
	require.Len(t, views, 2)

	// Empty query returns nothing instead of the whole user base
	recorder = env.request(t, http.MethodGet, "/api/users?q=", token, nil)
	require.JSONEq(t, "[]", recorder.Body.String())
}
