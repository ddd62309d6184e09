package apiclient

import "encoding/json"

// envelope is the response wrapper used by every backend endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// InitiateRequest is the phase-one voter login body.
type InitiateRequest struct {
	VoterID       string `json:"voter_id"`
	NationalID    string `json:"aadhaar"`
	District      string `json:"district"`
	LocalBodyType string `json:"local_body_type"`
	LocalBodyName string `json:"local_body_name"`
	Ward          string `json:"ward_no"`
}

// InitiateResponse is the phase-one voter login result. Phone is the masked
// number the code was sent to, when the backend reports it.
type InitiateResponse struct {
	ChallengeReference string `json:"challenge_reference"`
	Message            string `json:"message"`
	Phone              string `json:"phone"`
}

// VerifyRequest is the phase-two voter login body.
type VerifyRequest struct {
	VoterID            string `json:"voter_id"`
	Code               string `json:"otp"`
	ChallengeReference string `json:"challenge_reference"`
}

// Response is a forwarded backend response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}
