package patients

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// certificateDigest is the canonical hashed form of a certificate. Field
// order matters, see recordDigest.
type certificateDigest struct {
	ID              string `json:"id"`
	PatientID       string `json:"patient_id"`
	IssuedBy        string `json:"issued_by"`
	CertificateType string `json:"certificate_type"`
	Purpose         string `json:"purpose"`
	Diagnosis       string `json:"diagnosis"`
	Recommendations string `json:"recommendations"`
	ValidFrom       string `json:"valid_from"`
	ValidUntil      string `json:"valid_until"`
}

// ComputeCertificateHash derives the SHA-256 fingerprint of a certificate.
// Third parties can recompute it to check a presented certificate against
// the stored one.
func ComputeCertificateHash(cert *types.MedicalCertificate) (string, error) {
	digest := certificateDigest{
		ID:              cert.ID,
		PatientID:       cert.PatientID,
		IssuedBy:        cert.IssuedBy,
		CertificateType: string(cert.CertificateType),
		Purpose:         cert.Purpose,
		Diagnosis:       cert.Diagnosis,
		Recommendations: cert.Recommendations,
		ValidFrom:       cert.ValidFrom.UTC().Format("2006-01-02"),
		ValidUntil:      cert.ValidUntil.UTC().Format("2006-01-02"),
	}

	payload, err := json.Marshal(digest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal certificate digest: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
