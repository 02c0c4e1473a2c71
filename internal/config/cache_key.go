package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the active token id of a user
func (r *CacheKeyStruct) UserSessionKey(userID int64) string {
	return fmt.Sprintf("login:%d", userID)
}

// QuestionnairePaperKey returns the cache key for a published questionnaire's student payload
func (r *CacheKeyStruct) QuestionnairePaperKey(questionnaireID uuid.UUID) string {
	return fmt.Sprintf("questionnaire:%s:paper", questionnaireID)
}

// QuestionnaireSubmissionCountKey returns the counter of accepted submissions for a questionnaire
func (r *CacheKeyStruct) QuestionnaireSubmissionCountKey(questionnaireID uuid.UUID) string {
	return fmt.Sprintf("questionnaire:%s:submissions", questionnaireID)
}

// QuestionnaireMonitorChannel returns the Redis PubSub channel name for a questionnaire's live feed
func (r *CacheKeyStruct) QuestionnaireMonitorChannel(questionnaireID uuid.UUID) string {
	return fmt.Sprintf("questionnaire:%s:monitor", questionnaireID)
}

var CacheKey = NewCacheKeyStruct()
