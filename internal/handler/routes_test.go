package handler

import (
	"net/http"
	"testing"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClubMembership(t *testing.T) {
	s := newTestServer(t, testOptions{})
	token, _ := s.registerAndLogin(t, "a@x.com")

	claims, err := s.tokens.Verify(token)
	require.NoError(t, err)

	clubID := uuid.New()
	s.store.AddMembership(domain.Membership{
		ID: uuid.New(), UserID: claims.UserID, ClubID: clubID, RoleID: uuid.New(),
		RoleName: "Physiotherapist", RoleCategory: domain.CategoryMedical,
		Permissions: domain.Permissions{"manage_injuries": true}, IsActive: false,
	})

	status, env := s.do(t, http.MethodGet, "/api/v1/clubs/"+clubID.String()+"/membership", nil, bearer(token, ""))
	require.Equal(t, http.StatusOK, status)
	membership := env.Data["membership"].(map[string]interface{})
	assert.Equal(t, "Physiotherapist", membership["role"])
	assert.Equal(t, "medical", membership["category"])
	assert.Equal(t, false, membership["isActive"])

	status, env = s.do(t, http.MethodGet, "/api/v1/clubs/"+uuid.NewString()+"/membership", nil, bearer(token, ""))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperror.CodeNotClubMember, env.Error.Code)

	status, env = s.do(t, http.MethodGet, "/api/v1/clubs/abc/membership", nil, bearer(token, ""))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperror.CodeValidation, env.Error.Code)
}

func TestListRoles(t *testing.T) {
	s := newTestServer(t, testOptions{})
	token, _ := s.registerAndLogin(t, "a@x.com")

	s.store.SetRoles([]*domain.Role{
		{ID: uuid.New(), Name: "Head Coach", Category: domain.CategoryCoachingStaff, IsSystemRole: true},
		{ID: uuid.New(), Name: "Player", Category: domain.CategoryPlayers, IsSystemRole: true},
	})

	status, env := s.do(t, http.MethodGet, "/api/v1/roles", nil, bearer(token, ""))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, env.Data["roles"], 2)
}

func TestNotFoundEnvelope(t *testing.T) {
	s := newTestServer(t, testOptions{})

	status, env := s.do(t, http.MethodGet, "/api/v1/nowhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperror.CodeNotFound, env.Error.Code)
	assert.Equal(t, "Cannot GET /api/v1/nowhere", env.Error.Message)

	details := env.Error.Details.(map[string]interface{})
	assert.Equal(t, "Check the URL and HTTP method", details["suggestion"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testOptions{})

	status, _ := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	down := newTestServer(t, testOptions{dbErr: errDBDown})
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp, err := down.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestClubGates(t *testing.T) {
	s := newTestServer(t, testOptions{})
	presToken, _ := s.registerAndLogin(t, "pres@x.com")
	coachToken, _ := s.registerAndLogin(t, "coach@x.com")

	pres, err := s.tokens.Verify(presToken)
	require.NoError(t, err)
	coach, err := s.tokens.Verify(coachToken)
	require.NoError(t, err)

	clubID := uuid.New()
	s.store.AddMembership(domain.Membership{
		ID: uuid.New(), UserID: pres.UserID, ClubID: clubID, RoleID: uuid.New(),
		RoleName: domain.RolePresident, RoleCategory: domain.CategoryManagement,
		Permissions: domain.Permissions{"manage_club": true, "view_all": true}, IsActive: true,
	})
	s.store.AddMembership(domain.Membership{
		ID: uuid.New(), UserID: coach.UserID, ClubID: clubID, RoleID: uuid.New(),
		RoleName: "Head Coach", RoleCategory: domain.CategoryCoachingStaff,
		Permissions: domain.Permissions{"manage_training": true}, IsActive: true,
	})
	club := "/api/v1/clubs/" + clubID.String()

	tests := []struct {
		name   string
		token  string
		path   string
		status int
		code   string
	}{
		{"owner passes ownership gate", presToken, club + "/ownership", http.StatusOK, ""},
		{"coach is not owner", coachToken, club + "/ownership", http.StatusForbidden, apperror.CodeClubOwnershipReq},
		{"president passes role gate", presToken, club + "/management", http.StatusOK, ""},
		{"coach fails role gate", coachToken, club + "/management", http.StatusForbidden, apperror.CodeInsufficientPerms},
		{"granted permission", coachToken, club + "/permissions/manage_training", http.StatusOK, ""},
		{"missing permission", coachToken, club + "/permissions/manage_finances", http.StatusForbidden, apperror.CodeInsufficientPerms},
		{"non member", coachToken, "/api/v1/clubs/" + uuid.NewString() + "/permissions/view_all", http.StatusForbidden, apperror.CodeNotClubMember},
		{"anonymous", "", club + "/ownership", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers map[string]string
			if tt.token != "" {
				headers = bearer(tt.token, "")
			}
			status, env := s.do(t, http.MethodGet, tt.path, nil, headers)
			require.Equal(t, tt.status, status)
			if tt.code != "" {
				assert.Equal(t, tt.code, env.Error.Code)
			}
		})
	}

	status, env := s.do(t, http.MethodGet, club+"/ownership", nil, bearer(presToken, ""))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, env.Data["membership"].(map[string]interface{})["isOwner"])

	status, env = s.do(t, http.MethodGet, club+"/permissions/manage_training", nil, bearer(coachToken, ""))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "manage_training", env.Data["permission"])
	assert.Equal(t, true, env.Data["granted"])
}

func TestListRoles_Anonymous(t *testing.T) {
	s := newTestServer(t, testOptions{})
	s.store.SetRoles([]*domain.Role{
		{ID: uuid.New(), Name: "Player", Category: domain.CategoryPlayers, IsSystemRole: true},
	})

	status, env := s.do(t, http.MethodGet, "/api/v1/roles", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, env.Data["roles"], 1)

	// a bad token is ignored rather than rejected
	status, _ = s.do(t, http.MethodGet, "/api/v1/roles", nil, bearer("not-a-token", ""))
	assert.Equal(t, http.StatusOK, status)
}
