package jwt

type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid,omitempty"`
}

type Claims struct {
	Issuer         string   `json:"iss,omitempty"`
	Subject        string   `json:"sub,omitempty"`
	Audience       string   `json:"aud,omitempty"`
	ExpirationTime string   `json:"exp,omitempty"`
	IssuedAt       string   `json:"iat,omitempty"`
	JWTID          string   `json:"jti,omitempty"`
	Username       string   `json:"username,omitempty"`
	Name           string   `json:"name,omitempty"`
	Email          string   `json:"email,omitempty"`
	EmailVerified  bool     `json:"emailVerified,omitempty"`
	AccessGroups   []string `json:"accessGroups,omitempty"`
}
