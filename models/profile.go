package models

// UserProfile is the background a student gave at signup. Read-only from the
// chatbot's perspective; used only to bias prompt construction.
type UserProfile struct {
	ID                    string   `json:"id"`
	ProgrammingExperience string   `json:"programming_experience"`
	RoboticsExperience    string   `json:"robotics_experience"`
	PreferredLanguages    []string `json:"preferred_languages"`
}
