// Package pseudonym derives the token that stands in for a student's identity
// on every stored response.
//
// A token is HMAC-SHA256(salt, student_id ":" questionnaire_id), hex encoded.
// The same pair always yields the same token, which is what lets the response
// ledger reject a second answer to a question without ever storing who
// answered it. Tokens for different questionnaires cannot be correlated
// without the salt.
package pseudonym

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/google/uuid"
)

// TokenLength is the length of a hex-encoded token.
const TokenLength = sha256.Size * 2

// ErrEmptySalt is returned when no salt is configured.
var ErrEmptySalt = errors.New("pseudonym salt is empty")

// Pseudonymizer computes per-(student, questionnaire) tokens. It is safe for
// concurrent use.
type Pseudonymizer struct {
	salt []byte
}

// New returns a Pseudonymizer keyed with salt. An empty salt is refused.
func New(salt string) (*Pseudonymizer, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	return &Pseudonymizer{salt: []byte(salt)}, nil
}

// Token returns the pseudonymous subject token for studentID answering questionnaireID.
func (p *Pseudonymizer) Token(studentID int64, questionnaireID uuid.UUID) string {
	mac := hmac.New(sha256.New, p.salt)
	// The separator keeps (1, "23…") and (12, "3…") from sharing an input.
	mac.Write([]byte(strconv.FormatInt(studentID, 10)))
	mac.Write([]byte{':'})
	mac.Write([]byte(questionnaireID.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// String hides the salt from fmt and loggers.
func (p *Pseudonymizer) String() string {
	return "pseudonym.Pseudonymizer{salt:[redacted]}"
}
