package rbac

import (
	"time"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/rbac"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// DefaultMatrix builds the portal permission matrix.
//
// Patients only ever see their own data, plus records a doctor explicitly
// shared with them. Nurses read patient data and contribute vitals and
// consultation notes but never delete. Doctors hold the full clinical
// permission set. Admins manage accounts and read audit logs but have no
// clinical write permissions of their own.
func DefaultMatrix() *rbac.Matrix {
	return &rbac.Matrix{
		LastUpdated: time.Now(),
		Roles: map[string]*rbac.RolePermissions{
			string(types.RolePatient): {
				Role: string(types.RolePatient),
				Permissions: map[string]*rbac.Permission{
					rbac.ResourceUserAccount: {
						Resource: rbac.ResourceUserAccount,
						Actions:  []string{rbac.ActionRead, rbac.ActionUpdate},
						Scope:    rbac.ScopeOwn,
					},
					rbac.ResourcePatientProfile: {
						Resource: rbac.ResourcePatientProfile,
						Actions:  []string{rbac.ActionRead, rbac.ActionUpdate},
						Scope:    rbac.ScopeOwn,
					},
					rbac.ResourceMedicalRecord: {
						Resource: rbac.ResourceMedicalRecord,
						Actions:  []string{rbac.ActionRead, rbac.ActionList},
						Scope:    rbac.ScopeShared,
					},
					rbac.ResourceCertificate: {
						Resource: rbac.ResourceCertificate,
						Actions:  []string{rbac.ActionRead, rbac.ActionList},
						Scope:    rbac.ScopeOwn,
					},
				},
			},
			string(types.RoleNurse): {
				Role: string(types.RoleNurse),
				Permissions: map[string]*rbac.Permission{
					rbac.ResourceUserAccount: {
						Resource: rbac.ResourceUserAccount,
						Actions:  []string{rbac.ActionRead, rbac.ActionUpdate},
						Scope:    rbac.ScopeOwn,
					},
					rbac.ResourcePatientProfile: {
						Resource: rbac.ResourcePatientProfile,
						Actions:  []string{rbac.ActionRead, rbac.ActionList},
						Scope:    rbac.ScopeAny,
					},
					rbac.ResourceMedicalRecord: {
						Resource: rbac.ResourceMedicalRecord,
						Actions:  []string{rbac.ActionRead, rbac.ActionList, rbac.ActionCreate},
						Scope:    rbac.ScopeAny,
					},
					rbac.ResourceStaffProfile: {
						Resource: rbac.ResourceStaffProfile,
						Actions:  []string{rbac.ActionRead, rbac.ActionUpdate},
						Scope:    rbac.ScopeOwn,
					},
				},
			},
			string(types.RoleDoctor): {
				Role: string(types.RoleDoctor),
				Permissions: map[string]*rbac.Permission{
					rbac.ResourceUserAccount: {
						Resource: rbac.ResourceUserAccount,
						Actions:  []string{rbac.ActionRead, rbac.ActionUpdate},
						Scope:    rbac.ScopeOwn,
					},
					rbac.ResourcePatientProfile: {
						Resource: rbac.ResourcePatientProfile,
						Actions:  []string{rbac.ActionRead, rbac.ActionList},
						Scope:    rbac.ScopeAny,
					},
					rbac.ResourceMedicalRecord: {
						Resource: rbac.ResourceMedicalRecord,
						Actions: []string{
							rbac.ActionRead, rbac.ActionList, rbac.ActionCreate,
							rbac.ActionUpdate, rbac.ActionShare,
						},
						Scope: rbac.ScopeAny,
					},
					// Deleting is restricted to records the doctor authored.
					"medical_record:delete": {
						Resource: rbac.ResourceMedicalRecord,
						Actions:  []string{rbac.ActionDelete},
						Scope:    rbac.ScopeOwn,
					},
					rbac.ResourceCertificate: {
						Resource: rbac.ResourceCertificate,
						Actions: []string{
							rbac.ActionRead, rbac.ActionList, rbac.ActionCreate,
							rbac.ActionIssue, rbac.ActionRevoke,
						},
						Scope: rbac.ScopeAny,
					},
					rbac.ResourceStaffProfile: {
						Resource: rbac.ResourceStaffProfile,
						Actions:  []string{rbac.ActionRead, rbac.ActionUpdate},
						Scope:    rbac.ScopeOwn,
					},
				},
			},
			string(types.RoleAdmin): {
				Role: string(types.RoleAdmin),
				Permissions: map[string]*rbac.Permission{
					rbac.ResourceUserAccount: {
						Resource: rbac.ResourceUserAccount,
						Actions: []string{
							rbac.ActionRead, rbac.ActionList, rbac.ActionCreate,
							rbac.ActionUpdate, rbac.ActionDelete,
						},
						Scope: rbac.ScopeAny,
					},
					rbac.ResourcePatientProfile: {
						Resource: rbac.ResourcePatientProfile,
						Actions:  []string{rbac.ActionRead, rbac.ActionList},
						Scope:    rbac.ScopeAny,
					},
					rbac.ResourceStaffProfile: {
						Resource: rbac.ResourceStaffProfile,
						Actions: []string{
							rbac.ActionRead, rbac.ActionList, rbac.ActionCreate,
							rbac.ActionUpdate, rbac.ActionDelete,
						},
						Scope: rbac.ScopeAny,
					},
					rbac.ResourceAuditLog: {
						Resource: rbac.ResourceAuditLog,
						Actions:  []string{rbac.ActionRead, rbac.ActionList},
						Scope:    rbac.ScopeAny,
					},
				},
			},
		},
	}
}
