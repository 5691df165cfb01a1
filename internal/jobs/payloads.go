package jobs

// VerificationMailPayload contains data for verification_mail jobs
type VerificationMailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
