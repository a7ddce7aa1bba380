package patients

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// recordDigest is the canonical form of a record that gets hashed. Fields
// marshal in declaration order, so changing this struct changes every
// chain hash.
type recordDigest struct {
	ID           string `json:"id"`
	PatientID    string `json:"patient_id"`
	CreatedBy    string `json:"created_by"`
	RecordType   string `json:"record_type"`
	Title        string `json:"title"`
	Diagnosis    string `json:"diagnosis"`
	Treatment    string `json:"treatment"`
	Prescription string `json:"prescription"`
	Notes        string `json:"notes"`
	VisitDate    string `json:"visit_date"`
	PreviousHash string `json:"previous_hash"`
}

// ComputeRecordHash derives the SHA-256 chain hash of a record. The hash
// covers the clinical content plus the previous record's hash, so any
// retroactive edit breaks every later link.
func ComputeRecordHash(record *types.MedicalRecord) (string, error) {
	digest := recordDigest{
		ID:           record.ID,
		PatientID:    record.PatientID,
		CreatedBy:    record.CreatedBy,
		RecordType:   string(record.RecordType),
		Title:        record.Title,
		Diagnosis:    record.Diagnosis,
		Treatment:    record.Treatment,
		Prescription: record.Prescription,
		Notes:        record.Notes,
		VisitDate:    record.VisitDate.UTC().Format("2006-01-02T15:04:05Z"),
		PreviousHash: record.PreviousHash,
	}

	payload, err := json.Marshal(digest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record digest: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChain walks a patient's records in chain order and reports the
// first broken link, if any. Records must be passed oldest first and
// include soft-deleted entries, deletion does not remove a link.
func VerifyChain(records []*types.MedicalRecord) error {
	previous := types.GenesisHash
	for i, record := range records {
		if record.PreviousHash != previous {
			return types.NewInternalError(
				types.ErrCodeRecordChainViolation,
				fmt.Sprintf("record %s at position %d links to %s, expected %s",
					record.ID, i, record.PreviousHash, previous),
				nil,
			)
		}

		computed, err := ComputeRecordHash(record)
		if err != nil {
			return err
		}
		if computed != record.RecordHash {
			return types.NewInternalError(
				types.ErrCodeRecordChainViolation,
				fmt.Sprintf("record %s content does not match its stored hash", record.ID),
				nil,
			)
		}

		previous = record.RecordHash
	}
	return nil
}
