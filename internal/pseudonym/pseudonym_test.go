package pseudonym

import (
	"fmt"
	"math/bits"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSalt = "unit-test-salt-0123456789"

func TestNew_RejectsEmptySalt(t *testing.T) {
	p, err := New("")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrEmptySalt)
}

func TestToken_Deterministic(t *testing.T) {
	p, err := New(testSalt)
	require.NoError(t, err)

	qid := uuid.New()
	for studentID := int64(1); studentID <= 50; studentID++ {
		first := p.Token(studentID, qid)
		second := p.Token(studentID, qid)
		assert.Equal(t, first, second)
		assert.Len(t, first, TokenLength)
	}
}

func TestToken_UnlinkableAcrossQuestionnaires(t *testing.T) {
	p, err := New(testSalt)
	require.NoError(t, err)

	for studentID := int64(1); studentID <= 50; studentID++ {
		q1, q2 := uuid.New(), uuid.New()
		assert.NotEqual(t, p.Token(studentID, q1), p.Token(studentID, q2))
	}
}

func TestToken_DistinctStudentsDistinctTokens(t *testing.T) {
	p, err := New(testSalt)
	require.NoError(t, err)

	qid := uuid.New()
	seen := make(map[string]int64)
	for studentID := int64(1); studentID <= 1000; studentID++ {
		tok := p.Token(studentID, qid)
		prev, dup := seen[tok]
		require.False(t, dup, "students %d and %d collided", prev, studentID)
		seen[tok] = studentID
	}
}

func TestToken_DependsOnSalt(t *testing.T) {
	a, err := New(testSalt)
	require.NoError(t, err)
	b, err := New(testSalt + "x")
	require.NoError(t, err)

	qid := uuid.New()
	assert.NotEqual(t, a.Token(42, qid), b.Token(42, qid))
}

func TestToken_NoConcatenationAmbiguity(t *testing.T) {
	p, err := New(testSalt)
	require.NoError(t, err)

	// A questionnaire id never starts with a digit run that could be shifted
	// into the student id, but the separator must still keep inputs apart.
	qid := uuid.MustParse("31111111-1111-1111-1111-111111111111")
	assert.NotEqual(t, p.Token(1, qid), p.Token(13, qid))
}

// Consecutive student ids should flip about half of the token bits; a token
// that leaked structure of the id would flip far fewer.
func TestToken_BitsIndependentOfStudentID(t *testing.T) {
	p, err := New(testSalt)
	require.NoError(t, err)

	qid := uuid.New()
	const samples = 500
	total := 0
	for i := int64(0); i < samples; i++ {
		a := p.Token(i, qid)
		b := p.Token(i+1, qid)
		total += hammingHex(t, a, b)
	}
	mean := float64(total) / samples
	// 256 bits, expected mean 128 with a small standard error over 500 samples.
	assert.InDelta(t, 128.0, mean, 4.0)
}

func TestString_DoesNotLeakSalt(t *testing.T) {
	p, err := New(testSalt)
	require.NoError(t, err)
	assert.NotContains(t, fmt.Sprint(p), testSalt)
	assert.NotContains(t, fmt.Sprintf("%v", p), testSalt)
}

func hammingHex(t *testing.T, a, b string) int {
	t.Helper()
	require.Equal(t, len(a), len(b))
	n := 0
	for i := 0; i < len(a); i++ {
		n += bits.OnesCount8(hexVal(a[i]) ^ hexVal(b[i]))
	}
	return n
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	default:
		return c - 'a' + 10
	}
}
