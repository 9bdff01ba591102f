package storage

import (
	"time"

	"interviewpro/internal/report"
	"interviewpro/internal/session"
)

// InterviewResult is an exported interview: the conversation and its report.
// It never carries the credential.
type InterviewResult struct {
	InterviewID    string         `json:"interview_id"`
	Timestamp      time.Time      `json:"timestamp"`
	TargetPosition string         `json:"target_position"`
	TargetCompany  string         `json:"target_company"`
	Turns          []session.Turn `json:"turns"`
	Report         *report.Report `json:"report,omitempty"`
	State          session.State  `json:"state"`
}

// FromSession captures the exportable part of a session. System turns are left out.
func FromSession(sess *session.Session) *InterviewResult {
	result := &InterviewResult{
		InterviewID: sess.ID,
		Timestamp:   time.Now(),
		Report:      sess.Report(),
		State:       sess.State(),
	}

	if sc := sess.Context(); sc != nil {
		result.TargetPosition = sc.TargetPosition()
		result.TargetCompany = sc.TargetCompany()
	}

	for _, turn := range sess.Log().Turns() {
		if turn.Speaker == session.SpeakerSystem {
			continue
		}
		result.Turns = append(result.Turns, turn)
	}

	return result
}
