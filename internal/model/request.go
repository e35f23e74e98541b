package model

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DOB      string `json:"dob"`
	UserType string `json:"user_type"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ImagePredictRequest is the JSON form of an image prediction; ImageData is
// base64, optionally prefixed with a data-URL header.
type ImagePredictRequest struct {
	ImageData string `json:"image_data"`
}
