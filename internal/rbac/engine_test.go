package rbac

import (
	"context"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/rbac"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

func testEngine() *Engine {
	return NewEngine(DefaultMatrix(), logger.New("error"))
}

func evaluate(t *testing.T, e *Engine, req *rbac.AccessRequest) *rbac.AccessDecision {
	t.Helper()
	req.Timestamp = time.Now()
	decision, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	return decision
}

func TestEngine_PatientScopes(t *testing.T) {
	e := testEngine()

	t.Run("patient reads own record", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "patient-1",
			Role:     string(types.RolePatient),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionRead,
			OwnerID:  "patient-1",
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("patient reads shared record", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "patient-1",
			Role:     string(types.RolePatient),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionRead,
			OwnerID:  "patient-2",
			Context:  map[string]string{"shared": "true"},
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("patient cannot read another patient's record", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "patient-1",
			Role:     string(types.RolePatient),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionRead,
			OwnerID:  "patient-2",
		})
		assert.False(t, decision.Allowed)
	})

	t.Run("patient cannot create records", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "patient-1",
			Role:     string(types.RolePatient),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionCreate,
			OwnerID:  "patient-1",
		})
		assert.False(t, decision.Allowed)
	})

	t.Run("patient cannot read audit logs", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "patient-1",
			Role:     string(types.RolePatient),
			Resource: rbac.ResourceAuditLog,
			Action:   rbac.ActionList,
		})
		assert.False(t, decision.Allowed)
	})
}

func TestEngine_NursePermissions(t *testing.T) {
	e := testEngine()

	t.Run("nurse reads any patient profile", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "nurse-1",
			Role:     string(types.RoleNurse),
			Resource: rbac.ResourcePatientProfile,
			Action:   rbac.ActionRead,
			OwnerID:  "patient-7",
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("nurse creates records", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "nurse-1",
			Role:     string(types.RoleNurse),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionCreate,
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("nurse never deletes records", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "nurse-1",
			Role:     string(types.RoleNurse),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionDelete,
			OwnerID:  "nurse-1",
		})
		assert.False(t, decision.Allowed)
	})

	t.Run("nurse cannot issue certificates", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "nurse-1",
			Role:     string(types.RoleNurse),
			Resource: rbac.ResourceCertificate,
			Action:   rbac.ActionIssue,
		})
		assert.False(t, decision.Allowed)
	})
}

func TestEngine_DoctorPermissions(t *testing.T) {
	e := testEngine()

	t.Run("doctor shares records", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "doctor-1",
			Role:     string(types.RoleDoctor),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionShare,
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("doctor deletes own record", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "doctor-1",
			Role:     string(types.RoleDoctor),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionDelete,
			OwnerID:  "doctor-1",
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("doctor cannot delete another doctor's record", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "doctor-1",
			Role:     string(types.RoleDoctor),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionDelete,
			OwnerID:  "doctor-2",
		})
		assert.False(t, decision.Allowed)
	})

	t.Run("doctor issues certificates", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "doctor-1",
			Role:     string(types.RoleDoctor),
			Resource: rbac.ResourceCertificate,
			Action:   rbac.ActionIssue,
		})
		assert.True(t, decision.Allowed)
	})
}

func TestEngine_AdminPermissions(t *testing.T) {
	e := testEngine()

	t.Run("admin reads audit logs", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "admin-1",
			Role:     string(types.RoleAdmin),
			Resource: rbac.ResourceAuditLog,
			Action:   rbac.ActionList,
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("admin manages accounts", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "admin-1",
			Role:     string(types.RoleAdmin),
			Resource: rbac.ResourceUserAccount,
			Action:   rbac.ActionDelete,
			OwnerID:  "user-9",
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("admin has no clinical write access", func(t *testing.T) {
		decision := evaluate(t, e, &rbac.AccessRequest{
			UserID:   "admin-1",
			Role:     string(types.RoleAdmin),
			Resource: rbac.ResourceMedicalRecord,
			Action:   rbac.ActionCreate,
		})
		assert.False(t, decision.Allowed)
	})
}

func TestEngine_UnknownRole(t *testing.T) {
	e := testEngine()

	_, err := e.Evaluate(context.Background(), &rbac.AccessRequest{
		UserID:   "user-1",
		Role:     "superuser",
		Resource: rbac.ResourceMedicalRecord,
		Action:   rbac.ActionRead,
	})
	assert.ErrorIs(t, err, rbac.ErrUnknownRole)
}

func TestEngine_CachedDenialStillLogged(t *testing.T) {
	log := logger.New("warn")
	hook := logrustest.NewLocal(log.Logger)
	e := NewEngine(DefaultMatrix(), log)

	req := &rbac.AccessRequest{
		UserID:   "patient-1",
		Role:     string(types.RolePatient),
		Resource: rbac.ResourceMedicalRecord,
		Action:   rbac.ActionCreate,
	}

	first := evaluate(t, e, req)
	second := evaluate(t, e, req)
	require.False(t, first.Allowed)
	assert.Same(t, first, second, "second denial should come from the cache")

	denials := 0
	for _, entry := range hook.AllEntries() {
		if entry.Data["event"] == "access_denied" {
			denials++
		}
	}
	assert.Equal(t, 2, denials, "cached denials must still be logged")
}

func TestEngine_DecisionCache(t *testing.T) {
	e := testEngine()

	req := &rbac.AccessRequest{
		UserID:   "doctor-1",
		Role:     string(types.RoleDoctor),
		Resource: rbac.ResourceMedicalRecord,
		Action:   rbac.ActionRead,
	}

	first := evaluate(t, e, req)
	second := evaluate(t, e, req)
	assert.Same(t, first, second, "second evaluation should come from the cache")

	e.InvalidateCache()
	third := evaluate(t, e, req)
	assert.NotSame(t, first, third)
	assert.Equal(t, first.Allowed, third.Allowed)
}
