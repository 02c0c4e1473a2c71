package config

type WorkerKeyStruct struct {
	QuestionnairePublishedTask string
	ResponseSubmittedTask      string
	NotificationQueue          string
}

var WorkerKey = &WorkerKeyStruct{
	QuestionnairePublishedTask: "questionnaire:published",
	ResponseSubmittedTask:      "response:submitted",
	NotificationQueue:          "notifications",
}
